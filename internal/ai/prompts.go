package ai

import "strings"

// DefaultSystemPrompt instructs the model to write résumé summaries
const DefaultSystemPrompt = "You are a professional resume writer and career coach. " +
	"Create compelling, ATS-friendly professional summaries that highlight key achievements " +
	"and skills relevant to the target role. Keep summaries concise (2-3 sentences), " +
	"action-oriented, and tailored to the job description when provided."

// SystemPrompt returns custom when it holds text, otherwise DefaultSystemPrompt.
func SystemPrompt(custom string) string {
	return resolvePrompt(custom, DefaultSystemPrompt)
}

// resolvePrompt selects the first non-blank candidate
func resolvePrompt(candidates ...string) string {
	for _, candidate := range candidates {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
