package tailoring

import (
	"strings"

	"cvtailor/internal/types"
)

// ClassifySkills splits skills into technical and soft buckets, preserving
// input order. A skill matching neither vocabulary counts as technical.
func ClassifySkills(skills []string) types.SkillBuckets {
	buckets := types.SkillBuckets{
		Technical: []string{},
		Soft:      []string{},
	}

	for _, skill := range skills {
		lower := strings.ToLower(strings.TrimSpace(skill))
		switch {
		case containsAnyTerm(lower, technicalSkillTerms):
			buckets.Technical = append(buckets.Technical, skill)
		case containsAnyTerm(lower, softSkillTerms):
			buckets.Soft = append(buckets.Soft, skill)
		default:
			buckets.Technical = append(buckets.Technical, skill)
		}
	}
	return buckets
}
