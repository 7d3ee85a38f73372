package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"cvtailor/internal/config"
	"cvtailor/internal/errors"
	"cvtailor/internal/observability"

	"github.com/fsnotify/fsnotify"
)

// Certificates expiring within this window are reported unhealthy
const certCriticalWindow = 24 * time.Hour

// VaultSecretReader reads a versioned KV v2 secret
type VaultSecretReader interface {
	GetSecretV2(path string) (*config.VaultSecret, error)
}

// CertReloader serves the current server certificate and swaps it when the
// PEM files change on disk or the Vault secret holding them gets a new
// version.
type CertReloader struct {
	mu       sync.RWMutex
	cfg      config.TLSConfig
	cert     *tls.Certificate
	notAfter time.Time

	reloads    int
	failures   int
	lastReload time.Time
	lastError  string

	watcher       *fsnotify.Watcher
	debounceTimer *time.Timer
	vaultPath     string
	vaultVersion  int64

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	om     *observability.Manager
	logger *errors.Logger
	now    func() time.Time
}

// NewCertReloader loads the initial certificate pair from cfg
func NewCertReloader(cfg config.TLSConfig, om *observability.Manager, logger *errors.Logger) (*CertReloader, error) {
	cr := &CertReloader{
		cfg:    cfg,
		stop:   make(chan struct{}),
		om:     om,
		logger: logger,
		now:    time.Now,
	}
	if cfg.DebounceDelay <= 0 {
		cr.cfg.DebounceDelay = time.Second
	}

	cert, err := loadKeyPair(cfg)
	if err != nil {
		return nil, err
	}
	if err := cr.swap(cert); err != nil {
		return nil, err
	}
	return cr, nil
}

// GetCertificate is installed as tls.Config.GetCertificate
func (cr *CertReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return cr.cert, nil
}

// Reload re-reads the configured certificate files. The previous certificate
// stays in place when the new pair does not load.
func (cr *CertReloader) Reload() error {
	cr.mu.RLock()
	cfg := cr.cfg
	cr.mu.RUnlock()

	cert, err := loadKeyPair(cfg)
	if err == nil {
		err = cr.swap(cert)
	}
	cr.recordReload(err)
	return err
}

// Watch starts watching the certificate and key files. Their directories
// are watched so atomic rename-style replacements are seen too.
func (cr *CertReloader) Watch() error {
	if cr.cfg.CertFile == "" || cr.cfg.KeyFile == "" {
		return fmt.Errorf("certificate watching needs certFile and keyFile")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	for _, dir := range uniqueDirs(cr.cfg.CertFile, cr.cfg.KeyFile) {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	cr.mu.Lock()
	cr.watcher = watcher
	cr.mu.Unlock()

	cr.wg.Add(1)
	go cr.watchLoop(watcher)

	cr.logger.Info("Certificate file watcher started",
		"cert_file", cr.cfg.CertFile,
		"key_file", cr.cfg.KeyFile,
		"debounce_delay", cr.cfg.DebounceDelay)
	return nil
}

func (cr *CertReloader) watchLoop(watcher *fsnotify.Watcher) {
	defer cr.wg.Done()
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if cr.isCertEvent(event) {
				cr.scheduleReload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			cr.logger.LogError(err, "Certificate watcher error")
		case <-cr.stop:
			return
		}
	}
}

func (cr *CertReloader) isCertEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(event.Name)
	return name == filepath.Clean(cr.cfg.CertFile) || name == filepath.Clean(cr.cfg.KeyFile)
}

// scheduleReload debounces bursts of file events into a single reload
func (cr *CertReloader) scheduleReload() {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.debounceTimer != nil {
		cr.debounceTimer.Stop()
	}
	cr.debounceTimer = time.AfterFunc(cr.cfg.DebounceDelay, func() {
		select {
		case <-cr.stop:
			return
		default:
		}
		if err := cr.Reload(); err != nil {
			cr.logger.LogError(err, "Failed to reload TLS certificate")
			return
		}
		cr.logger.Info("TLS certificate reloaded", "not_after", cr.NotAfter())
	})
}

// WatchVault polls a KV v2 secret holding "cert" and "key" PEM values and
// swaps the certificate whenever the secret version increases.
func (cr *CertReloader) WatchVault(client VaultSecretReader, path string, interval time.Duration) error {
	if client == nil || path == "" || interval <= 0 {
		return fmt.Errorf("vault certificate polling needs a client, a secret path and a positive interval")
	}

	secret, err := client.GetSecretV2(path)
	if err != nil {
		return fmt.Errorf("failed to read TLS secret: %w", err)
	}

	cr.mu.Lock()
	cr.vaultPath = path
	cr.vaultVersion = secret.Version
	cr.mu.Unlock()

	cr.wg.Add(1)
	go func() {
		defer cr.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := cr.pollVault(client, path); err != nil {
					cr.logger.LogError(err, "Failed to refresh TLS certificate from Vault", "path", path)
				}
			case <-cr.stop:
				return
			}
		}
	}()

	cr.logger.Info("Vault certificate polling started", "path", path, "interval", interval)
	return nil
}

func (cr *CertReloader) pollVault(client VaultSecretReader, path string) error {
	secret, err := client.GetSecretV2(path)
	if err != nil {
		return err
	}

	cr.mu.RLock()
	current := cr.vaultVersion
	cr.mu.RUnlock()
	if secret.Version <= current {
		return nil
	}

	certPEM, _ := secret.Data["cert"].(string)
	keyPEM, _ := secret.Data["key"].(string)
	cert, err := tls.X509KeyPair([]byte(certPEM), []byte(keyPEM))
	if err == nil {
		err = cr.swap(cert)
	}
	cr.recordReload(err)
	if err != nil {
		return fmt.Errorf("secret version %d: %w", secret.Version, err)
	}

	cr.mu.Lock()
	cr.vaultVersion = secret.Version
	cr.cfg.CertContent, cr.cfg.KeyContent = certPEM, keyPEM
	cr.mu.Unlock()

	cr.logger.Info("TLS certificate reloaded from Vault", "version", secret.Version)
	return nil
}

// NotAfter returns the expiry of the certificate being served
func (cr *CertReloader) NotAfter() time.Time {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return cr.notAfter
}

// Status summarises certificate health for /health
func (cr *CertReloader) Status() map[string]any {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	remaining := cr.notAfter.Sub(cr.now())
	state := "ok"
	switch {
	case remaining <= 0:
		state = "expired"
	case remaining <= certCriticalWindow:
		state = "critical"
	case remaining <= 7*certCriticalWindow:
		state = "warning"
	}

	status := map[string]any{
		"healthy":              remaining > certCriticalWindow,
		"status":               state,
		"not_after":            cr.notAfter,
		"time_to_expiry_hours": int(remaining.Hours()),
		"file_watch":           cr.watcher != nil,
		"reloads":              cr.reloads,
		"reload_failures":      cr.failures,
	}
	if cr.vaultPath != "" {
		status["vault_version"] = cr.vaultVersion
	}
	if !cr.lastReload.IsZero() {
		status["last_reload"] = cr.lastReload
	}
	if cr.lastError != "" {
		status["last_error"] = cr.lastError
	}
	return status
}

// Stop ends file watching and Vault polling
func (cr *CertReloader) Stop() error {
	var err error
	cr.stopOnce.Do(func() {
		close(cr.stop)

		cr.mu.Lock()
		if cr.debounceTimer != nil {
			cr.debounceTimer.Stop()
		}
		watcher := cr.watcher
		cr.mu.Unlock()

		if watcher != nil {
			err = watcher.Close()
		}
		cr.wg.Wait()
	})
	return err
}

func (cr *CertReloader) swap(cert tls.Certificate) error {
	leaf := cert.Leaf
	if leaf == nil {
		if len(cert.Certificate) == 0 {
			return fmt.Errorf("certificate pair contains no certificate")
		}
		parsed, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return fmt.Errorf("failed to parse certificate: %w", err)
		}
		leaf = parsed
		cert.Leaf = parsed
	}

	cr.mu.Lock()
	cr.cert = &cert
	cr.notAfter = leaf.NotAfter
	cr.mu.Unlock()
	return nil
}

func (cr *CertReloader) recordReload(err error) {
	cr.mu.Lock()
	cr.reloads++
	cr.lastReload = cr.now()
	if err != nil {
		cr.failures++
		cr.lastError = err.Error()
	} else {
		cr.lastError = ""
	}
	cr.mu.Unlock()

	cr.om.RecordCertReload(context.Background(), err == nil)
}

// loadKeyPair loads the server pair from PEM content or files, content first
func loadKeyPair(cfg config.TLSConfig) (tls.Certificate, error) {
	if cfg.CertContent != "" && cfg.KeyContent != "" {
		cert, err := tls.X509KeyPair([]byte(cfg.CertContent), []byte(cfg.KeyContent))
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from content: %w", err)
		}
		return cert, nil
	}
	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from files: %w", err)
		}
		return cert, nil
	}
	return tls.Certificate{}, fmt.Errorf("TLS certificate and key are required (provide either files or content)")
}

func uniqueDirs(files ...string) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, file := range files {
		dir := filepath.Dir(file)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}
