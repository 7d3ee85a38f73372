package summary

import (
	"fmt"
	"strings"

	"cvtailor/internal/types"
)

const (
	promptSkillCount      = 6
	promptExperienceCount = 2
	promptJobDescLimit    = 500
)

// BuildPrompt renders the user message sent to the text-generation endpoint
func BuildPrompt(profile *types.CandidateProfile) string {
	doc := strings.ToLower(string(profile.DocumentType))
	if doc == "" {
		doc = strings.ToLower(string(types.DocumentResume))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a professional %s summary for:\n\n", doc)
	fmt.Fprintf(&b, "Name: %s\n", profile.FullName)
	fmt.Fprintf(&b, "Target Role: %s\n", profile.TargetJobTitle)

	if profile.Department != "" {
		fmt.Fprintf(&b, "Field of Study: %s\n", profile.Department)
	}
	if profile.CGPA != "" {
		fmt.Fprintf(&b, "GPA: %s\n", profile.CGPA)
	}
	if skills := strings.Join(head(profile.Skills, promptSkillCount), ", "); skills != "" {
		fmt.Fprintf(&b, "Key Skills: %s\n", skills)
	}
	if highlights := experienceHighlights(profile.WorkExperience); highlights != "" {
		fmt.Fprintf(&b, "Experience: %s\n", highlights)
	}

	if profile.JobDescription != "" {
		fmt.Fprintf(&b, "\nJob Description to tailor for:\n%s...\n", truncateRunes(profile.JobDescription, promptJobDescLimit))
	}

	tailorLine := ""
	if profile.JobDescription != "" {
		tailorLine = "- Tailor content to match the job requirements"
	}

	fmt.Fprintf(&b, `
Requirements:
- Write a compelling %s summary (2-3 sentences)
- Make it ATS-friendly and keyword-rich
- Highlight quantifiable achievements when possible
- Match the tone to the target role
- Focus on value proposition and unique strengths
%s

Return only the professional summary text, no additional formatting or explanations.`, doc, tailorLine)

	return b.String()
}

func experienceHighlights(entries []types.ExperienceEntry) string {
	entries = head(entries, promptExperienceCount)
	highlights := make([]string, 0, len(entries))
	for _, entry := range entries {
		highlights = append(highlights, entry.JobTitle+" at "+entry.Company)
	}
	return strings.Join(highlights, ", ")
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
