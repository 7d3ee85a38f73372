package server

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TLS modes
const (
	tlsModeServer = "server"
	tlsModeMutual = "mutual"
)

func (s *Server) tlsEnabled() bool {
	return s.TLSConfig.Mode == tlsModeServer || s.TLSConfig.Mode == tlsModeMutual
}

// setupTLS creates the certificate reloader, starts any configured watchers
// and returns the tls.Config serving through it.
func (s *Server) setupTLS() (*tls.Config, error) {
	reloader, err := NewCertReloader(s.TLSConfig, s.om, s.Logger)
	if err != nil {
		return nil, err
	}
	s.CertReloader = reloader

	if s.TLSConfig.Watch && s.TLSConfig.CertFile != "" {
		if err := reloader.Watch(); err != nil {
			return nil, fmt.Errorf("failed to watch certificate files: %w", err)
		}
	}
	if s.TLSConfig.VaultPollInterval > 0 && s.vault != nil && s.vaultCertPath != "" {
		if err := reloader.WatchVault(s.vault, s.vaultCertPath, s.TLSConfig.VaultPollInterval); err != nil {
			return nil, fmt.Errorf("failed to poll certificates from Vault: %w", err)
		}
	}

	return s.buildTLSConfig()
}

// buildTLSConfig creates the TLS configuration
func (s *Server) buildTLSConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion:     tls.VersionTLS12,
		GetCertificate: s.CertReloader.GetCertificate,
	}
	if s.TLSConfig.MinVersion == "1.3" {
		tlsConfig.MinVersion = tls.VersionTLS13
	}

	if s.TLSConfig.Mode != tlsModeMutual {
		tlsConfig.ClientAuth = tls.NoClientCert
		return tlsConfig, nil
	}

	pool, err := s.loadCACertificatePool()
	if err != nil {
		return nil, err
	}
	tlsConfig.ClientCAs = pool
	tlsConfig.ClientAuth = s.clientAuthPolicy()
	return tlsConfig, nil
}

// loadCACertificatePool loads the CA used to verify client certificates
func (s *Server) loadCACertificatePool() (*x509.CertPool, error) {
	var caPEM []byte
	switch {
	case s.TLSConfig.CAContent != "":
		caPEM = []byte(s.TLSConfig.CAContent)
	case s.TLSConfig.CAFile != "":
		data, err := os.ReadFile(s.TLSConfig.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		caPEM = data
	default:
		return nil, fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("failed to append CA cert")
	}
	return pool, nil
}

func (s *Server) clientAuthPolicy() tls.ClientAuthType {
	switch s.TLSConfig.ClientAuthPolicy {
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}
