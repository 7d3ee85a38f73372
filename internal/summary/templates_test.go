package summary

import (
	"strings"
	"testing"

	"cvtailor/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResumeTemplates(t *testing.T) {
	experienced := &types.CandidateProfile{
		DocumentType:   types.DocumentResume,
		Department:     "Computer Science",
		CGPA:           "3.8",
		TargetJobTitle: "Backend Engineer",
		Skills:         []string{"Go", "SQL"},
		WorkExperience: []types.ExperienceEntry{
			{JobTitle: "Engineer", Company: "Acme", StartDate: "2020-01", EndDate: "2023-07"},
		},
	}

	assert.Equal(t, []string{
		"Experienced Computer Science with 3.8 GPA specializing in Go, SQL. 3.5 years of proven track record with expertise in Backend Engineer. Seeking to leverage technical skills and professional experience to drive organizational success.",
		"Results-driven Computer Science (GPA: 3.8) with demonstrated expertise in Go, SQL. Proven ability to deliver results in Acme. Ready to contribute innovative solutions and exceed performance expectations in Backend Engineer.",
		"Accomplished Computer Science with strong academic performance (3.8 GPA) and expertise in Go, SQL. Track record of success in multiple professional roles. Eager to apply technical proficiency and leadership skills to achieve organizational objectives.",
	}, Templates(experienced, fixedNow))
}

func TestResumeTemplatesWithoutExperience(t *testing.T) {
	graduate := &types.CandidateProfile{
		DocumentType:   types.DocumentResume,
		Department:     "Computer Science",
		TargetJobTitle: "Backend Engineer",
		Skills:         []string{"Go", "SQL"},
	}

	assert.Equal(t, []string{
		"Motivated Computer Science specializing in Go, SQL. Strong academic foundation with expertise in Backend Engineer. Seeking to leverage technical skills and academic knowledge to drive organizational success.",
		"Results-driven Computer Science with demonstrated expertise in Go, SQL. Strong problem-solving abilities and analytical thinking. Ready to contribute innovative solutions and exceed performance expectations in Backend Engineer.",
		"Dedicated Computer Science and expertise in Go, SQL. Committed to continuous learning and professional growth. Eager to apply technical proficiency and fresh perspective to achieve organizational objectives.",
	}, Templates(graduate, fixedNow))
}

func TestResumeTemplatesShortTenure(t *testing.T) {
	profile := &types.CandidateProfile{
		DocumentType: types.DocumentResume,
		WorkExperience: []types.ExperienceEntry{
			{JobTitle: "Intern", StartDate: "2024-01", EndDate: "2024-07"},
		},
	}

	rendered := Templates(profile, fixedNow)
	require.Len(t, rendered, 3)
	assert.Contains(t, rendered[0], "0.5 years of proven track record")
	assert.Contains(t, rendered[1], "Proven ability to deliver results in professional environments.")
	assert.Contains(t, rendered[2], "Track record of success in professional roles.")
	assert.Contains(t, rendered[0], "specializing in key competencies")
}

func TestResumeTemplatesUseTopFourSkills(t *testing.T) {
	profile := &types.CandidateProfile{
		DocumentType: types.DocumentResume,
		Skills:       []string{"Go", "SQL", "Docker", "Redis", "Kafka"},
	}

	for _, rendered := range Templates(profile, fixedNow) {
		assert.Contains(t, rendered, "Go, SQL, Docker, Redis")
		assert.NotContains(t, rendered, "Kafka")
	}
}

func TestCVTemplates(t *testing.T) {
	tests := []struct {
		name     string
		profile  *types.CandidateProfile
		expected []string
	}{
		{
			name: "with education",
			profile: &types.CandidateProfile{
				DocumentType:   types.DocumentCV,
				Department:     "Physics",
				CGPA:           "3.6",
				TargetJobTitle: "Research Assistant",
			},
			expected: []string{
				"Motivated Physics with a 3.6 CGPA seeking to leverage academic excellence and practical skills in a Research Assistant role. Demonstrated ability to apply theoretical knowledge to real-world challenges and contribute to organizational success.",
				"Dedicated Physics with strong academic performance (CGPA: 3.6) and passion for Research Assistant opportunities. Committed to continuous learning and professional growth while contributing innovative solutions to complex problems.",
				"Results-driven Physics with 3.6 CGPA, equipped with comprehensive knowledge and practical skills relevant to Research Assistant positions. Eager to contribute to organizational objectives while developing professional expertise.",
			},
		},
		{
			name:    "empty profile",
			profile: &types.CandidateProfile{DocumentType: types.DocumentCV},
			expected: []string{
				"Motivated graduate with strong academic performance seeking to leverage academic excellence and practical skills in a professional role. Demonstrated ability to apply theoretical knowledge to real-world challenges and contribute to organizational success.",
				"Dedicated student with excellent academic record and passion for professional development opportunities. Committed to continuous learning and professional growth while contributing innovative solutions to complex problems.",
				"Results-driven graduate with outstanding academic achievement, equipped with comprehensive knowledge and practical skills relevant to professional positions. Eager to contribute to organizational objectives while developing professional expertise.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Templates(tt.profile, fixedNow))
		})
	}
}

func TestUnknownDocumentTypeUsesCVTemplates(t *testing.T) {
	profile := &types.CandidateProfile{DocumentType: "Portfolio"}
	for _, rendered := range Templates(profile, fixedNow) {
		assert.False(t, strings.HasPrefix(rendered, "Experienced"))
		assert.Contains(t, []string{"Motivated", "Dedicated", "Results-driven"}, strings.Fields(rendered)[0])
	}
}
