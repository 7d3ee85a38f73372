package tailoring

import "fmt"

// Params holds the scoring weights and list caps used when tailoring a Resume.
type Params struct {
	KeywordWeight       int `mapstructure:"keywordWeight" json:"keywordWeight"`
	RequirementWeight   int `mapstructure:"requirementWeight" json:"requirementWeight"`
	QuantifiableBonus   int `mapstructure:"quantifiableBonus" json:"quantifiableBonus"`
	ProjectTitleBonus   int `mapstructure:"projectTitleBonus" json:"projectTitleBonus"`
	PartialSkillWeight  int `mapstructure:"partialSkillWeight" json:"partialSkillWeight"`
	MaxSkills           int `mapstructure:"maxSkills" json:"maxSkills"`
	MaxAchievements     int `mapstructure:"maxAchievements" json:"maxAchievements"`
	MaxProjects         int `mapstructure:"maxProjects" json:"maxProjects"`
	MaxRequirements     int `mapstructure:"maxRequirements" json:"maxRequirements"`
	MaxCustomKeywords   int `mapstructure:"maxCustomKeywords" json:"maxCustomKeywords"`
	MinKeywordFrequency int `mapstructure:"minKeywordFrequency" json:"minKeywordFrequency"`
}

// DefaultParams returns the stock weights (2/3/+2) and caps (8/4/3).
func DefaultParams() Params {
	return Params{
		KeywordWeight:       2,
		RequirementWeight:   3,
		QuantifiableBonus:   2,
		ProjectTitleBonus:   3,
		PartialSkillWeight:  1,
		MaxSkills:           8,
		MaxAchievements:     4,
		MaxProjects:         3,
		MaxRequirements:     5,
		MaxCustomKeywords:   10,
		MinKeywordFrequency: 2,
	}
}

// Validate rejects negative weights and non-positive caps.
func (p Params) Validate() error {
	weights := map[string]int{
		"keywordWeight":      p.KeywordWeight,
		"requirementWeight":  p.RequirementWeight,
		"quantifiableBonus":  p.QuantifiableBonus,
		"projectTitleBonus":  p.ProjectTitleBonus,
		"partialSkillWeight": p.PartialSkillWeight,
	}
	for name, v := range weights {
		if v < 0 {
			return fmt.Errorf("tailoring.%s must not be negative, got %d", name, v)
		}
	}

	caps := map[string]int{
		"maxSkills":           p.MaxSkills,
		"maxAchievements":     p.MaxAchievements,
		"maxProjects":         p.MaxProjects,
		"maxRequirements":     p.MaxRequirements,
		"maxCustomKeywords":   p.MaxCustomKeywords,
		"minKeywordFrequency": p.MinKeywordFrequency,
	}
	for name, v := range caps {
		if v <= 0 {
			return fmt.Errorf("tailoring.%s must be positive, got %d", name, v)
		}
	}
	return nil
}
