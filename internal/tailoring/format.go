package tailoring

import (
	"math"
	"strconv"
	"strings"
	"time"

	"cvtailor/internal/types"
)

const presentLabel = "Present"

var dateLayouts = []string{
	"2006-01",
	"2006-01-02",
	time.RFC3339,
	"January 2006",
	"Jan 2006",
	"2006",
}

func isOngoing(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "present") || strings.EqualFold(s, "current")
}

// ParseDate parses the month-precision dates accepted in work history.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a work-history date as "January 2024". Empty,
// "Present" and "Current" render as "Present"; unparseable input is
// returned unchanged.
func FormatDate(s string) string {
	if isOngoing(s) {
		return presentLabel
	}
	t, ok := ParseDate(s)
	if !ok {
		return s
	}
	return t.Format("January 2006")
}

// FormatGraduationDate renders a numeric month and a year as "June 2025".
// An out-of-range month yields just the year; a missing part yields "".
func FormatGraduationDate(month, year string) string {
	month, year = strings.TrimSpace(month), strings.TrimSpace(year)
	if month == "" || year == "" {
		return ""
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return year
	}
	return time.Month(m).String() + " " + year
}

// ExperienceMonths sums the whole months covered by each entry. Entries
// without a parseable start date are skipped; ongoing roles end at now.
func ExperienceMonths(entries []types.ExperienceEntry, now time.Time) int {
	total := 0
	for _, entry := range entries {
		start, ok := ParseDate(entry.StartDate)
		if !ok {
			continue
		}
		end := now
		if !isOngoing(entry.EndDate) {
			if parsed, ok := ParseDate(entry.EndDate); ok {
				end = parsed
			}
		}
		months := (end.Year()-start.Year())*12 + int(end.Month()-start.Month())
		total += max(0, months)
	}
	return total
}

// ExperienceYears converts ExperienceMonths to years rounded to one decimal.
func ExperienceYears(entries []types.ExperienceEntry, now time.Time) float64 {
	months := ExperienceMonths(entries, now)
	return math.Round(float64(months)/12*10) / 10
}

// FileName suggests a PDF name such as "Jane_Doe_Resume.pdf".
func FileName(fullName string, documentType types.DocumentType) string {
	doc := string(documentType)
	if doc == "" {
		doc = string(types.DocumentResume)
	}

	parts := strings.Fields(fullName)
	switch len(parts) {
	case 0:
		return "Resume_" + doc + ".pdf"
	case 1:
		return parts[0] + "_" + doc + ".pdf"
	default:
		return parts[0] + "_" + strings.Join(parts[1:], "_") + "_" + doc + ".pdf"
	}
}
