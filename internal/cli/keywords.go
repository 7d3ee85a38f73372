package cli

import (
	"context"
	"fmt"

	"cvtailor/internal/common"
	"cvtailor/internal/types"

	"github.com/spf13/cobra"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords [job-description-file]",
	Short: "Show the keywords and requirement lines found in a job description",
	Long: `Run the keyword extractor over a job description (plain text or a saved
HTML posting) and print the keywords and requirement phrases that drive
Resume tailoring. No AI endpoint is involved.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: outputPreRun(&keywordsConfig),
	RunE:    runKeywords,
}

var keywordsConfig common.CommandConfig

func init() {
	addOutputFlags(keywordsCmd, &keywordsConfig)
}

func runKeywords(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())

	p, service, err := buildPipeline(cmd, true)
	if err != nil {
		return err
	}
	defer closeService(service, logger)

	loadInput := func(fp *common.FileProcessor, args []string) (string, error) {
		return fp.ReadJobDescription(args[0])
	}

	logDetails := func(jd string, cfg common.CommandConfig) {
		logger.Info("Extracting keywords", "job_chars", len(jd), "output_format", cfg.OutputFormat)
	}

	operation := func(ctx context.Context, jd string) (types.KeywordReport, *types.TokenUsage, error) {
		return p.Keywords(jd), nil, nil
	}

	if err := common.RunCommand(cmd.Context(), logger, keywordsConfig, args, loadInput, operation, logDetails); err != nil {
		return fmt.Errorf("failed to extract keywords: %w", err)
	}
	return nil
}
