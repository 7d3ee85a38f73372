package tailoring

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"cvtailor/internal/types"
)

// EnhanceAchievement prefixes an achievement with an action verb unless it
// already opens with one. Blank input is returned unchanged.
func EnhanceAchievement(achievement string) string {
	trimmed := strings.TrimSpace(achievement)
	if trimmed == "" {
		return achievement
	}

	firstWord, _, _ := strings.Cut(trimmed, " ")
	if _, ok := actionVerbs[strings.ToLower(firstWord)]; ok {
		return achievement
	}

	return leadVerb(strings.ToLower(achievement)) + " " + lowerFirst(achievement)
}

// EnhanceAchievements applies EnhanceAchievement to every entry of a new slice.
func EnhanceAchievements(achievements []string) []string {
	out := make([]string, len(achievements))
	for i, a := range achievements {
		out[i] = EnhanceAchievement(a)
	}
	return out
}

// EnhanceExperience returns copies of the entries with enhanced achievements.
func EnhanceExperience(entries []types.ExperienceEntry) []types.ExperienceEntry {
	out := make([]types.ExperienceEntry, len(entries))
	for i, entry := range entries {
		out[i] = entry
		out[i].Achievements = EnhanceAchievements(entry.Achievements)
	}
	return out
}

func leadVerb(lower string) string {
	for _, vs := range verbSignals {
		for _, signal := range vs.signals {
			if strings.Contains(lower, signal) {
				return vs.verb
			}
		}
	}
	return defaultLeadVerb
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
