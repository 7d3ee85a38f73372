package cli

import (
	"context"

	"cvtailor/internal/ai"
	"cvtailor/internal/common"
	"cvtailor/internal/config"
	"cvtailor/internal/errors"
	"cvtailor/internal/pipeline"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "cvtailor",
	Short: "Generate tailored resume and CV content from a candidate profile",
	Long: `cvtailor turns a completed candidate profile into document-ready content.
For a Resume it keeps only the skills, achievements, projects and certifications
that match the target job description; a CV passes every section through.

The professional summary comes from an AI text-generation endpoint when an API
key is configured, and from a bank of templates otherwise or when the endpoint
fails.`,
	SilenceUsage: true,
}

// Execute runs the root command with cfg and logger available to every subcommand
func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

// addOutputFlags registers --output and --format on cmd
func addOutputFlags(cmd *cobra.Command, target *common.CommandConfig) {
	cmd.Flags().StringVarP(&target.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&target.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return getConfigFromContext(cmd.Context()).App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
	})
}

// outputPreRun applies the configured default format and file size limit,
// then validates the format.
func outputPreRun(target *common.CommandConfig) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if target.OutputFormat == "" {
			target.OutputFormat = cfg.App.DefaultFormat
		}
		target.MaxFileSize = cfg.App.MaxFileSize
		return common.ValidateOutputFormat(target.OutputFormat, cfg.App.SupportedFormats)
	}
}

// buildPipeline wires the content pipeline for a one-shot CLI run. Turning
// AI off only affects this run's copy of the configuration.
func buildPipeline(cmd *cobra.Command, disableAI bool) (*pipeline.Pipeline, *ai.Service, error) {
	cfg := *getConfigFromContext(cmd.Context())
	if disableAI {
		cfg.AI.SummariesEnabled = false
	}
	return pipeline.NewFromConfig(cmd.Context(), &cfg, nil, getLoggerFromContext(cmd.Context()))
}

func closeService(service *ai.Service, logger *errors.Logger) {
	if err := service.Close(); err != nil {
		logger.LogError(err, "Failed to close AI service")
	}
}

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(keywordsCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}
