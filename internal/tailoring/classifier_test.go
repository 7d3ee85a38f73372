package tailoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySkills(t *testing.T) {
	tests := []struct {
		name      string
		skills    []string
		technical []string
		soft      []string
	}{
		{
			name:      "empty",
			skills:    nil,
			technical: []string{},
			soft:      []string{},
		},
		{
			name:      "mixed with unknown",
			skills:    []string{"SQL", "Leadership", "Python", "Cooking"},
			technical: []string{"SQL", "Python", "Cooking"},
			soft:      []string{"Leadership"},
		},
		{
			name:      "soft vocabulary",
			skills:    []string{"Public Speaking", "Teamwork", "Problem Solving"},
			technical: []string{},
			soft:      []string{"Public Speaking", "Teamwork", "Problem Solving"},
		},
		{
			name:      "technical substrings",
			skills:    []string{"Java Developer", "AWS Lambda", "Git"},
			technical: []string{"Java Developer", "AWS Lambda", "Git"},
			soft:      []string{},
		},
		{
			name:      "short terms match whole words only",
			skills:    []string{"Training", "AI Ethics", "Rust"},
			technical: []string{"AI Ethics", "Rust"},
			soft:      []string{"Training"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buckets := ClassifySkills(tt.skills)
			assert.Equal(t, tt.technical, buckets.Technical)
			assert.Equal(t, tt.soft, buckets.Soft)
		})
	}
}

func TestClassifySkillsPartitionsWithoutLoss(t *testing.T) {
	skills := []string{
		"SQL", "Communication", "Cooking", "", "SQL", "Mentoring",
		"Docker", "Chess", "Time Management", "excel",
	}

	buckets := ClassifySkills(skills)

	assert.Equal(t, len(skills), buckets.Len())
	assert.ElementsMatch(t, skills, append(append([]string{}, buckets.Technical...), buckets.Soft...))
}
