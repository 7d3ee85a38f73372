package cli

import (
	"context"
	"fmt"

	"cvtailor/internal/common"
	"cvtailor/internal/summary"
	"cvtailor/internal/types"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [profile-file]",
	Short: "Generate only the professional summary for a profile",
	Long: `Generate the professional summary for a candidate profile (JSON) and
print each progress stage to stderr as it happens. A profile with
autoGenerateSummary set to false returns its own professionalSummary.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: outputPreRun(&summaryConfig),
	RunE:    runSummary,
}

var (
	summaryConfig common.CommandConfig
	summaryNoAI   bool
	summaryQuiet  bool
)

func init() {
	addOutputFlags(summaryCmd, &summaryConfig)
	summaryCmd.Flags().BoolVar(&summaryNoAI, "no-ai", false, "Use template summaries without calling the AI endpoint")
	summaryCmd.Flags().BoolVarP(&summaryQuiet, "quiet", "q", false, "Do not print progress stages")
}

func runSummary(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())

	p, service, err := buildPipeline(cmd, summaryNoAI)
	if err != nil {
		return err
	}
	defer closeService(service, logger)

	var progress summary.Observer = summary.NopObserver{}
	if !summaryQuiet {
		stderr := cmd.ErrOrStderr()
		progress = summary.ObserverFunc(func(event types.ProgressEvent) {
			fmt.Fprintf(stderr, "[%s] %s\n", event.Stage, event.Message)
		})
	}

	loadInput := func(fp *common.FileProcessor, args []string) (*types.CandidateProfile, error) {
		return fp.ReadProfile(args[0])
	}

	logDetails := func(profile *types.CandidateProfile, cfg common.CommandConfig) {
		logger.Info("Starting summary generation",
			"document_type", profile.DocumentType,
			"auto_summary", profile.WantsGeneratedSummary(),
			"ai_available", p.AIAvailable(),
			"output_format", cfg.OutputFormat)
	}

	operation := func(ctx context.Context, profile *types.CandidateProfile) (*types.SummaryResult, *types.TokenUsage, error) {
		result, err := p.Summary(ctx, profile, progress)
		if err != nil {
			return nil, nil, err
		}
		return result, result.Usage, nil
	}

	if err := common.RunCommand(cmd.Context(), logger, summaryConfig, args, loadInput, operation, logDetails); err != nil {
		return fmt.Errorf("failed to generate summary: %w", err)
	}
	return nil
}
