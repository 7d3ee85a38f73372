package cli

import (
	"context"
	"fmt"

	"cvtailor/internal/common"
	"cvtailor/internal/types"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate [profile-file]",
	Short: "Generate tailored document content from a profile",
	Long: `Generate the full document content for a candidate profile (JSON).
The profile's documentType selects the path: a Resume is tailored against the
job description, a CV keeps every section.

Use --job-description to take the job posting from a file instead of the
profile. Saved HTML postings are reduced to their visible text.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: outputPreRun(&generateConfig),
	RunE:    runGenerate,
}

var (
	generateConfig  common.CommandConfig
	generateNoAI    bool
	generateJobFile string
)

func init() {
	addOutputFlags(generateCmd, &generateConfig)
	generateCmd.Flags().BoolVar(&generateNoAI, "no-ai", false, "Use template summaries without calling the AI endpoint")
	generateCmd.Flags().StringVarP(&generateJobFile, "job-description", "j", "", "Job description file (text or HTML), overrides the profile's jobDescription")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())

	p, service, err := buildPipeline(cmd, generateNoAI)
	if err != nil {
		return err
	}
	defer closeService(service, logger)

	loadInput := func(fp *common.FileProcessor, args []string) (*types.CandidateProfile, error) {
		profile, err := fp.ReadProfile(args[0])
		if err != nil {
			return nil, err
		}
		if generateJobFile != "" {
			jd, err := fp.ReadJobDescription(generateJobFile)
			if err != nil {
				return nil, err
			}
			profile.JobDescription = jd
		}
		return profile, nil
	}

	logDetails := func(profile *types.CandidateProfile, cfg common.CommandConfig) {
		logger.Info("Starting content generation",
			"document_type", profile.DocumentType,
			"skills", len(profile.Skills),
			"experience_entries", len(profile.WorkExperience),
			"job_chars", len(profile.JobDescription),
			"ai_available", p.AIAvailable(),
			"output_format", cfg.OutputFormat)
	}

	operation := func(ctx context.Context, profile *types.CandidateProfile) (*types.GeneratedContent, *types.TokenUsage, error) {
		content, err := p.Generate(ctx, profile, nil)
		if err != nil {
			return nil, nil, err
		}
		return content, content.SummaryResult.Usage, nil
	}

	if err := common.RunCommand(cmd.Context(), logger, generateConfig, args, loadInput, operation, logDetails); err != nil {
		return fmt.Errorf("failed to generate content: %w", err)
	}
	logger.Info("Content generation completed successfully")
	return nil
}
