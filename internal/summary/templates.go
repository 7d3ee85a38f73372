package summary

import (
	"strconv"
	"strings"
	"time"

	"cvtailor/internal/tailoring"
	"cvtailor/internal/types"
)

// templateData is the profile reduced to what the template bank interpolates
type templateData struct {
	department   string
	cgpa         string
	targetRole   string
	topSkills    string
	hasExp       bool
	years        float64
	firstCompany string
}

type summaryTemplate func(d templateData) string

func newTemplateData(profile *types.CandidateProfile, now time.Time) templateData {
	d := templateData{
		department: profile.Department,
		cgpa:       profile.CGPA,
		targetRole: profile.TargetJobTitle,
		topSkills:  strings.Join(head(profile.Skills, 4), ", "),
		hasExp:     len(profile.WorkExperience) > 0,
		years:      tailoring.ExperienceYears(profile.WorkExperience, now),
	}
	if d.hasExp {
		d.firstCompany = profile.WorkExperience[0].Company
	}
	return d
}

var resumeTemplates = []summaryTemplate{
	func(d templateData) string {
		cgpa := ""
		if d.cgpa != "" {
			cgpa = "with " + d.cgpa + " GPA"
		}
		track := "Strong academic foundation"
		if d.hasExp {
			track = formatYears(d.years) + " years of proven track record"
		}
		return pick(d.hasExp, "Experienced", "Motivated") + " " + or(d.department, "professional") + " " + cgpa +
			" specializing in " + or(d.topSkills, "key competencies") + ". " +
			track + " with expertise in " + or(d.targetRole, "target field") + ". " +
			"Seeking to leverage technical skills and " + pick(d.hasExp, "professional experience", "academic knowledge") +
			" to drive organizational success."
	},
	func(d templateData) string {
		cgpa := ""
		if d.cgpa != "" {
			cgpa = "(GPA: " + d.cgpa + ")"
		}
		proof := "Strong problem-solving abilities and analytical thinking"
		if d.hasExp {
			proof = "Proven ability to deliver results in " + or(d.firstCompany, "professional environments")
		}
		return "Results-driven " + or(d.department, "professional") + " " + cgpa +
			" with demonstrated expertise in " + or(d.topSkills, "core competencies") + ". " +
			proof + ". " +
			"Ready to contribute innovative solutions and exceed performance expectations in " +
			or(d.targetRole, "target role") + "."
	},
	func(d templateData) string {
		cgpa := ""
		if d.cgpa != "" {
			cgpa = "with strong academic performance (" + d.cgpa + " GPA)"
		}
		record := "Committed to continuous learning and professional growth"
		if d.hasExp {
			record = "Track record of success in " + pick(d.years > 1, "multiple", "") + " professional roles"
		}
		return pick(d.hasExp, "Accomplished", "Dedicated") + " " + or(d.department, "professional") + " " + cgpa +
			" and expertise in " + or(d.topSkills, "essential skills") + ". " +
			record + ". " +
			"Eager to apply technical proficiency and " + pick(d.hasExp, "leadership skills", "fresh perspective") +
			" to achieve organizational objectives."
	},
}

var cvTemplates = []summaryTemplate{
	func(d templateData) string {
		return "Motivated " + or(d.department, "graduate") + " with " +
			pick(d.cgpa != "", "a "+d.cgpa+" CGPA", "strong academic performance") +
			" seeking to leverage academic excellence and practical skills in a " + or(d.targetRole, "professional") +
			" role. Demonstrated ability to apply theoretical knowledge to real-world challenges and contribute to organizational success."
	},
	func(d templateData) string {
		return "Dedicated " + or(d.department, "student") + " with " +
			pick(d.cgpa != "", "strong academic performance (CGPA: "+d.cgpa+")", "excellent academic record") +
			" and passion for " + or(d.targetRole, "professional development") +
			" opportunities. Committed to continuous learning and professional growth while contributing innovative solutions to complex problems."
	},
	func(d templateData) string {
		return "Results-driven " + or(d.department, "graduate") + " with " +
			pick(d.cgpa != "", d.cgpa+" CGPA", "outstanding academic achievement") +
			", equipped with comprehensive knowledge and practical skills relevant to " + or(d.targetRole, "professional") +
			" positions. Eager to contribute to organizational objectives while developing professional expertise."
	},
}

// templatesFor returns the Resume family for Resume documents and the CV
// family for everything else.
func templatesFor(doc types.DocumentType) []summaryTemplate {
	if doc == types.DocumentResume {
		return resumeTemplates
	}
	return cvTemplates
}

// Templates renders every candidate template for the profile's document type.
// The generator picks one of these at random.
func Templates(profile *types.CandidateProfile, now time.Time) []string {
	data := newTemplateData(profile, now)
	family := templatesFor(profile.DocumentType)

	rendered := make([]string, len(family))
	for i, tmpl := range family {
		rendered[i] = render(tmpl, data)
	}
	return rendered
}

// render collapses the doubled spaces left behind by empty optional parts.
func render(tmpl summaryTemplate, d templateData) string {
	return strings.Join(strings.Fields(tmpl(d)), " ")
}

func formatYears(years float64) string {
	return strconv.FormatFloat(years, 'f', -1, 64)
}

func or(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
