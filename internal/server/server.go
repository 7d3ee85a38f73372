package server

import (
	"net/http"
	"time"

	"cvtailor/internal/ai"
	"cvtailor/internal/config"
	"cvtailor/internal/errors"
	"cvtailor/internal/observability"
	"cvtailor/internal/pipeline"
)

// ErrorResponse is the body of every non-2xx JSON response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// KeywordsRequest is the body of POST /v1/keywords
type KeywordsRequest struct {
	JobDescription string `json:"jobDescription"`
}

// Server serves the content pipeline over HTTP
type Server struct {
	Host    string
	Port    string
	Version string

	TLSConfig     config.TLSConfig
	CertReloader  *CertReloader
	vault         VaultSecretReader
	vaultCertPath string

	// Valid API keys; empty disables authentication
	APIKeys map[string]bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MaxRequestSize int64

	RateLimit   config.RateLimitConfig
	RateLimiter *RateLimiter

	pipeline  *pipeline.Pipeline
	aiService *ai.Service
	om        *observability.Manager
	Logger    *errors.Logger
}

// Options collects the collaborators a Server needs besides configuration
type Options struct {
	Version   string
	Pipeline  *pipeline.Pipeline
	AIService *ai.Service
	Metrics   *observability.Manager
	// Vault is only consulted when TLS certificates are polled from Vault.
	Vault  VaultSecretReader
	Logger *errors.Logger
}

// New creates a Server from the application configuration
func New(cfg *config.Config, opts Options) *Server {
	apiKeys := make(map[string]bool)
	for _, key := range cfg.Server.APIKeys {
		if key != "" {
			apiKeys[key] = true
		}
	}

	var limiter *RateLimiter
	if cfg.Server.RateLimit.Enabled {
		limiter = NewRateLimiter(cfg.Server.RateLimit.RequestsPerMin, cfg.Server.RateLimit.BurstCapacity, opts.Logger)
	}

	return &Server{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        opts.Version,
		TLSConfig:      cfg.Server.TLS,
		vault:          opts.Vault,
		vaultCertPath:  cfg.Vault.Secrets.TLSCerts,
		APIKeys:        apiKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.App.MaxFileSize,
		RateLimit:      cfg.Server.RateLimit,
		RateLimiter:    limiter,
		pipeline:       opts.Pipeline,
		aiService:      opts.AIService,
		om:             opts.Metrics,
		Logger:         opts.Logger,
	}
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.om.HTTPMiddleware()(s.requestIDMiddleware(s.setupRoutes()))
}
