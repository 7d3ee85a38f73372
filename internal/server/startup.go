package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

const shutdownTimeout = 30 * time.Second

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         net.JoinHostPort(s.Host, s.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}

	if s.tlsEnabled() {
		tlsConfig, err := s.setupTLS()
		if err != nil {
			s.cleanup()
			return fmt.Errorf("failed to set up TLS: %w", err)
		}
		httpServer.TLSConfig = tlsConfig
	}

	listener, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		s.cleanup()
		return fmt.Errorf("server failed to start: %w", err)
	}

	return s.serve(ctx, httpServer, listener)
}

func (s *Server) serve(ctx context.Context, httpServer *http.Server, listener net.Listener) error {
	s.logServerInfo(listener.Addr().String())

	serverErrors := make(chan error, 1)
	go func() {
		var err error
		if httpServer.TLSConfig != nil {
			// certificates come from TLSConfig.GetCertificate
			err = httpServer.ServeTLS(listener, "", "")
		} else {
			err = httpServer.Serve(listener)
		}
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err, ok := <-serverErrors:
		s.cleanup()
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.Logger.Info("Received shutdown signal, starting graceful shutdown")
		return s.shutdown(httpServer)
	}
}

// shutdown drains in-flight requests, then releases watchers and limiters
func (s *Server) shutdown(httpServer *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	defer s.cleanup()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return httpServer.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

func (s *Server) cleanup() {
	if s.CertReloader != nil {
		if err := s.CertReloader.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop certificate reloader")
		}
	}
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
	}
}

// logServerInfo records the effective server setup at startup
func (s *Server) logServerInfo(addr string) {
	scheme := "http"
	if s.tlsEnabled() {
		scheme = "https"
	}
	s.Logger.Info("HTTP server listening",
		"url", fmt.Sprintf("%s://%s", scheme, addr),
		"tls_mode", s.TLSConfig.Mode,
		"endpoints", []string{"GET /health", "GET /stats", "POST /v1/generate", "POST /v1/summary", "POST /v1/summary/stream", "POST /v1/keywords"})

	if len(s.APIKeys) > 0 {
		s.Logger.Info("API authentication enabled", "keys", len(s.APIKeys))
	} else {
		s.Logger.Warn("API authentication disabled, endpoints are publicly accessible")
	}

	if s.MaxRequestSize > 0 {
		s.Logger.Info("Request size limit enabled", "bytes", s.MaxRequestSize)
	} else {
		s.Logger.Warn("Request size limit disabled")
	}

	if s.RateLimiter != nil {
		s.Logger.Info("Rate limiting enabled",
			"requests_per_min", s.RateLimit.RequestsPerMin,
			"burst", s.RateLimit.BurstCapacity,
			"by_ip", s.RateLimit.ByIP,
			"by_api_key", s.RateLimit.ByAPIKey)
	} else {
		s.Logger.Warn("Rate limiting disabled")
	}
}
