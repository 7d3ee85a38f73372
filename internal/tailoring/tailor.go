package tailoring

import (
	"strings"

	"cvtailor/internal/types"
)

// Tailor ranks and trims candidate content against a job description.
// It holds no mutable state and is safe for concurrent use.
type Tailor struct {
	params Params
}

// New creates a Tailor. Zero-valued params fall back to DefaultParams.
func New(params Params) *Tailor {
	if params == (Params{}) {
		params = DefaultParams()
	}
	return &Tailor{params: params}
}

// Params returns the weights and caps in use.
func (t *Tailor) Params() Params {
	return t.params
}

// Content builds the document content for the profile's document type.
func (t *Tailor) Content(profile *types.CandidateProfile, summary string) types.TailoredContent {
	if profile.IsResume() {
		return t.TailorResume(profile, summary)
	}
	return t.PassThroughCV(profile, summary)
}

// TailorResume ranks skills, achievements and projects by relevance to the
// job description, filters certifications, and drops hobbies and references.
func (t *Tailor) TailorResume(profile *types.CandidateProfile, summary string) types.TailoredContent {
	keywords := t.ExtractKeywords(profile.JobDescription)
	requirements := t.ExtractRequirements(profile.JobDescription)

	skills := rankByScore(profile.Skills, func(skill string) int {
		return t.SkillScore(skill, keywords)
	})
	skills = capped(skills, t.params.MaxSkills)

	experience := EnhanceExperience(profile.WorkExperience)
	for i := range experience {
		ranked := rankByScore(experience[i].Achievements, func(a string) int {
			// blank bullets rank below every real one
			if strings.TrimSpace(a) == "" {
				return -1
			}
			return t.AchievementScore(a, keywords, requirements)
		})
		experience[i].Achievements = capped(ranked, t.params.MaxAchievements)
	}

	projects := rankByScore(profile.Projects, func(p types.ProjectEntry) int {
		return t.ProjectScore(p, keywords, profile.TargetJobTitle)
	})
	projects = capped(projects, t.params.MaxProjects)

	return types.TailoredContent{
		Summary:        summary,
		Skills:         ClassifySkills(skills),
		WorkExperience: experience,
		Projects:       projects,
		Certifications: t.RelevantCertifications(profile.Certifications, keywords),
		Languages:      cloneSlice(profile.Languages),
		Hobbies:        []string{},
		References:     []types.ReferenceEntry{},
	}
}

// PassThroughCV classifies skills and enhances achievements without any
// relevance filtering. Every other section is copied unchanged.
func (t *Tailor) PassThroughCV(profile *types.CandidateProfile, summary string) types.TailoredContent {
	return types.TailoredContent{
		Summary:        summary,
		Skills:         ClassifySkills(profile.Skills),
		WorkExperience: EnhanceExperience(profile.WorkExperience),
		Projects:       cloneSlice(profile.Projects),
		Certifications: cloneSlice(profile.Certifications),
		Languages:      cloneSlice(profile.Languages),
		Hobbies:        cloneSlice(profile.Hobbies),
		References:     cloneSlice(profile.References),
	}
}

// RelevantCertifications keeps certifications that overlap at least one
// keyword. The result may be empty.
func (t *Tailor) RelevantCertifications(certifications []string, keywords Keywords) []string {
	relevant := []string{}
	for _, cert := range certifications {
		lower := strings.ToLower(strings.TrimSpace(cert))
		if lower == "" {
			continue
		}
		if containsAnyTerm(lower, keywords) {
			relevant = append(relevant, cert)
		}
	}
	return relevant
}

// Report lists the keywords and requirement phrases found in a job description.
func (t *Tailor) Report(jobDescription string) types.KeywordReport {
	return types.KeywordReport{
		Keywords:     t.ExtractKeywords(jobDescription),
		Requirements: t.ExtractRequirements(jobDescription),
	}
}

func cloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
