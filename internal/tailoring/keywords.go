package tailoring

import (
	"regexp"
	"slices"
	"strings"
)

// Keywords is an ordered, duplicate-free set of lower-case terms. Vocabulary
// hits come first in vocabulary order, followed by mined terms by frequency.
type Keywords []string

// Contains reports whether term is a member of the set.
func (k Keywords) Contains(term string) bool {
	return slices.Contains(k, strings.ToLower(term))
}

var (
	nonWordPattern = regexp.MustCompile(`[^\w\s]`)

	requirementPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:required|must have|essential|necessary)[\s\S]*?(?:\n|$)`),
		regexp.MustCompile(`(?i)(?:responsibilities|duties)[\s\S]*?(?:\n|$)`),
		regexp.MustCompile(`(?i)(?:experience with|proficiency in|knowledge of)[\s\S]*?(?:\n|$)`),
	}
)

// ExtractKeywords returns the vocabulary terms found in the job description
// plus the most frequent other words it repeats. Empty input yields an empty set.
func (t *Tailor) ExtractKeywords(jobDescription string) Keywords {
	keywords := Keywords{}
	if strings.TrimSpace(jobDescription) == "" {
		return keywords
	}

	lower := strings.ToLower(jobDescription)
	seen := make(map[string]struct{})
	for _, term := range jobVocabulary {
		if _, dup := seen[term]; dup {
			continue
		}
		if containsTerm(lower, term) {
			seen[term] = struct{}{}
			keywords = append(keywords, term)
		}
	}

	for _, term := range t.customKeywords(lower) {
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		keywords = append(keywords, term)
	}
	return keywords
}

type termCount struct {
	term  string
	count int
}

// customKeywords mines repeated non-stop-words from already lower-cased text.
func (t *Tailor) customKeywords(lower string) []string {
	cleaned := nonWordPattern.ReplaceAllString(lower, " ")

	counts := make(map[string]int)
	var order []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 2 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}

	candidates := make([]termCount, 0, len(order))
	for _, word := range order {
		if counts[word] >= t.params.MinKeywordFrequency {
			candidates = append(candidates, termCount{term: word, count: counts[word]})
		}
	}
	slices.SortStableFunc(candidates, func(a, b termCount) int {
		return b.count - a.count
	})

	candidates = capped(candidates, t.params.MaxCustomKeywords)
	terms := make([]string, len(candidates))
	for i, c := range candidates {
		terms[i] = c.term
	}
	return terms
}

// ExtractRequirements returns up to MaxRequirements phrases that start at a
// requirement cue ("required", "responsibilities", "experience with", ...)
// and run to the end of their line.
func (t *Tailor) ExtractRequirements(jobDescription string) []string {
	requirements := []string{}
	if strings.TrimSpace(jobDescription) == "" {
		return requirements
	}

	for _, pattern := range requirementPatterns {
		for _, match := range pattern.FindAllString(jobDescription, -1) {
			if phrase := strings.TrimSpace(match); phrase != "" {
				requirements = append(requirements, phrase)
			}
		}
	}
	return capped(requirements, t.params.MaxRequirements)
}

// capped truncates items to at most n elements; n <= 0 means no limit.
func capped[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
