package tailoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cvtailor/internal/types"
)

func TestSkillScore(t *testing.T) {
	tailor := New(DefaultParams())

	tests := []struct {
		name     string
		skill    string
		keywords Keywords
		expected int
	}{
		{"exact match", "SQL", Keywords{"sql"}, 2},
		{"skill contains keyword", "Data Visualization", Keywords{"visualization"}, 2},
		{"keyword contains skill", "Agile", Keywords{"agile methodology"}, 2},
		{"partial word match", "Cloud Architecture", Keywords{"architecture design"}, 1},
		{"no match", "Cooking", Keywords{"sql", "python"}, 0},
		{"several keywords", "Python and SQL", Keywords{"sql", "python", "tableau"}, 4},
		{"no keywords", "Python", Keywords{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tailor.SkillScore(tt.skill, tt.keywords))
		})
	}
}

func TestAchievementScore(t *testing.T) {
	tailor := New(DefaultParams())

	tests := []struct {
		name         string
		achievement  string
		keywords     Keywords
		requirements []string
		expected     int
	}{
		{"keyword and percentage", "Increased revenue by 25% using SQL", Keywords{"sql"}, nil, 4},
		{"clients count", "Handled 10 clients", Keywords{}, nil, 2},
		{"dollar amount", "Saved 300$ per month", Keywords{}, nil, 2},
		{"requirement phrase", "Developed tools to build dashboards", Keywords{}, []string{"Build Dashboards"}, 3},
		{"nothing", "Attended meetings", Keywords{"sql"}, []string{"build dashboards"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tailor.AchievementScore(tt.achievement, tt.keywords, tt.requirements))
		})
	}
}

func TestProjectScore(t *testing.T) {
	tailor := New(DefaultParams())

	project := types.ProjectEntry{
		Title:        "Sales Dashboard",
		Description:  "Built for the data analyst team",
		Technologies: "Tableau, SQL",
	}

	assert.Equal(t, 7, tailor.ProjectScore(project, Keywords{"sql", "tableau"}, "Data Analyst"))
	assert.Equal(t, 4, tailor.ProjectScore(project, Keywords{"sql", "tableau"}, ""))
	assert.Equal(t, 0, tailor.ProjectScore(types.ProjectEntry{}, Keywords{"sql"}, "Data Analyst"))
}

func TestScoreUsesConfiguredWeights(t *testing.T) {
	params := DefaultParams()
	params.KeywordWeight = 5
	params.QuantifiableBonus = 10
	tailor := New(params)

	assert.Equal(t, 15, tailor.AchievementScore("Cut SQL costs by 30%", Keywords{"sql"}, nil))
}

func TestRankByScoreIsStable(t *testing.T) {
	items := []string{"b1", "a1", "b2", "a2", "c"}
	score := func(s string) int {
		switch s[0] {
		case 'a':
			return 2
		case 'b':
			return 1
		}
		return 0
	}

	assert.Equal(t, []string{"a1", "a2", "b1", "b2", "c"}, rankByScore(items, score))
	assert.Equal(t, []string{"b1", "a1", "b2", "a2", "c"}, items)
}
