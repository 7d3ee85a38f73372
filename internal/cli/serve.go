package cli

import (
	"context"
	"fmt"
	"time"

	"cvtailor/internal/config"
	"cvtailor/internal/observability"
	"cvtailor/internal/pipeline"
	"cvtailor/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server that exposes the content pipeline as a REST API.

Available endpoints:
- POST /v1/generate: Full document content for a profile (?format=json|text|markdown)
- POST /v1/summary: Professional summary only
- POST /v1/summary/stream: Professional summary with progress as server-sent events
- POST /v1/keywords: Keywords and requirement lines of a job description
- GET /health: Health check endpoint
- GET /stats: Server statistics, AI circuit breaker and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	RunE: runServe,
}

func init() {
	addServeFlags(serveCmd)
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	cmd.Flags().String("host", "", "Host to bind to (default from config)")
	cmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	cmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	cmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	cmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
}

// applyServeFlags copies explicitly set flags over the loaded configuration
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	overrides := map[string]*string{
		"port":      &cfg.Server.Port,
		"host":      &cfg.Server.Host,
		"tls-mode":  &cfg.Server.TLS.Mode,
		"cert-file": &cfg.Server.TLS.CertFile,
		"key-file":  &cfg.Server.TLS.KeyFile,
		"ca-file":   &cfg.Server.TLS.CAFile,
	}
	for name, target := range overrides {
		if cmd.Flags().Changed(name) {
			*target, _ = cmd.Flags().GetString(name)
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := *getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	applyServeFlags(cmd, &cfg)

	// Validate TLS configuration after applying overrides
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	om, err := observability.NewManager(cfg.Observability, Version)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := om.Shutdown(ctx); err != nil {
			logger.LogError(err, "Failed to shut down observability")
		}
	}()
	if err := om.StartMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	p, service, err := pipeline.NewFromConfig(cmd.Context(), &cfg, om, logger)
	if err != nil {
		return err
	}
	defer closeService(service, logger)

	opts := server.Options{
		Version:   Version,
		Pipeline:  p,
		AIService: service,
		Metrics:   om,
		Logger:    logger,
	}

	if cfg.Vault.Enabled && cfg.Server.TLS.VaultPollInterval > 0 {
		vaultClient, err := config.NewVaultClient(cfg.Vault, logger)
		if err != nil {
			return fmt.Errorf("failed to create Vault client for certificate rotation: %w", err)
		}
		if vaultClient != nil {
			opts.Vault = vaultClient
		}
	}

	return server.New(&cfg, opts).Run(cmd.Context())
}
