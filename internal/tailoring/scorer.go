package tailoring

import (
	"regexp"
	"slices"
	"strings"

	"cvtailor/internal/types"
)

var quantifiablePattern = regexp.MustCompile(`\d+%|\d+\$|\d+ (million|thousand|hours|days|projects|clients)`)

// Score awards KeywordWeight for every keyword contained in text.
func (t *Tailor) Score(text string, keywords Keywords) int {
	lower := strings.ToLower(text)
	score := 0
	for _, keyword := range keywords {
		if containsTerm(lower, keyword) {
			score += t.params.KeywordWeight
		}
	}
	return score
}

// SkillScore awards the full keyword weight when the skill and a keyword
// contain each other, and PartialSkillWeight when only one word of the skill
// overlaps the keyword.
func (t *Tailor) SkillScore(skill string, keywords Keywords) int {
	lower := strings.ToLower(skill)
	words := strings.Fields(lower)

	score := 0
	for _, keyword := range keywords {
		if overlaps(lower, keyword) {
			score += t.params.KeywordWeight
			continue
		}
		for _, word := range words {
			if overlaps(word, keyword) {
				score += t.params.PartialSkillWeight
				break
			}
		}
	}
	return score
}

// AchievementScore scores a bullet point against keywords and requirement
// phrases, adding QuantifiableBonus when it reports a measurable result.
func (t *Tailor) AchievementScore(achievement string, keywords Keywords, requirements []string) int {
	lower := strings.ToLower(achievement)
	score := t.Score(lower, keywords)

	for _, requirement := range requirements {
		if req := strings.ToLower(requirement); req != "" && strings.Contains(lower, req) {
			score += t.params.RequirementWeight
		}
	}

	if quantifiablePattern.MatchString(lower) {
		score += t.params.QuantifiableBonus
	}
	return score
}

// ProjectScore scores a project's title, description and technologies
// together, adding ProjectTitleBonus when they mention the target job title.
func (t *Tailor) ProjectScore(project types.ProjectEntry, keywords Keywords, targetJobTitle string) int {
	text := strings.ToLower(project.Title + " " + project.Description + " " + project.Technologies)
	score := t.Score(text, keywords)

	if target := strings.ToLower(strings.TrimSpace(targetJobTitle)); target != "" && strings.Contains(text, target) {
		score += t.params.ProjectTitleBonus
	}
	return score
}

type scored[T any] struct {
	item  T
	score int
}

// rankByScore returns a new slice ordered by descending score. Equal scores
// keep their input order.
func rankByScore[T any](items []T, score func(T) int) []T {
	ranked := make([]scored[T], len(items))
	for i, item := range items {
		ranked[i] = scored[T]{item: item, score: score(item)}
	}
	slices.SortStableFunc(ranked, func(a, b scored[T]) int {
		return b.score - a.score
	})

	out := make([]T, len(ranked))
	for i, r := range ranked {
		out[i] = r.item
	}
	return out
}
