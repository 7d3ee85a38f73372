package server

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"cvtailor/internal/config"
	"cvtailor/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selfSignedPEM(t *testing.T, serial int64, notAfter time.Time) (certPEM, keyPEM []byte) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(serial),
		Subject:      pkix.Name{CommonName: "localhost"},
		DNSNames:     []string{"localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
}

func writePair(t *testing.T, dir string, serial int64) config.TLSConfig {
	t.Helper()
	certPEM, keyPEM := selfSignedPEM(t, serial, time.Now().Add(30*24*time.Hour))
	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")
	require.NoError(t, os.WriteFile(certFile, certPEM, 0600))
	require.NoError(t, os.WriteFile(keyFile, keyPEM, 0600))
	return config.TLSConfig{Mode: "server", CertFile: certFile, KeyFile: keyFile, DebounceDelay: 20 * time.Millisecond}
}

func servedSerial(t *testing.T, cr *CertReloader) int64 {
	t.Helper()
	cert, err := cr.GetCertificate(&tls.ClientHelloInfo{})
	require.NoError(t, err)
	return cert.Leaf.SerialNumber.Int64()
}

func TestCertReloaderReload(t *testing.T) {
	dir := t.TempDir()
	cfg := writePair(t, dir, 1)

	cr, err := NewCertReloader(cfg, nil, errors.NewNopLogger())
	require.NoError(t, err)
	defer cr.Stop()
	assert.Equal(t, int64(1), servedSerial(t, cr))

	writePair(t, dir, 2)
	require.NoError(t, cr.Reload())
	assert.Equal(t, int64(2), servedSerial(t, cr))

	require.NoError(t, os.WriteFile(cfg.KeyFile, []byte("garbage"), 0600))
	assert.Error(t, cr.Reload())
	assert.Equal(t, int64(2), servedSerial(t, cr), "previous certificate keeps serving")

	status := cr.Status()
	assert.Equal(t, true, status["healthy"])
	assert.Equal(t, "ok", status["status"])
	assert.Equal(t, 2, status["reloads"])
	assert.Equal(t, 1, status["reload_failures"])
	assert.Contains(t, status["last_error"], "failed to load server cert/key from files")
}

func TestCertReloaderWatchesFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := writePair(t, dir, 10)

	cr, err := NewCertReloader(cfg, nil, errors.NewNopLogger())
	require.NoError(t, err)
	defer cr.Stop()
	require.NoError(t, cr.Watch())

	writePair(t, dir, 11)

	assert.Eventually(t, func() bool { return servedSerial(t, cr) == 11 }, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, true, cr.Status()["file_watch"])
}

func TestCertReloaderExpiryStatus(t *testing.T) {
	certPEM, keyPEM := selfSignedPEM(t, 5, time.Now().Add(2*time.Hour))
	cr, err := NewCertReloader(config.TLSConfig{CertContent: string(certPEM), KeyContent: string(keyPEM)}, nil, errors.NewNopLogger())
	require.NoError(t, err)

	status := cr.Status()
	assert.Equal(t, false, status["healthy"])
	assert.Equal(t, "critical", status["status"])

	cr.now = func() time.Time { return time.Now().Add(3 * time.Hour) }
	assert.Equal(t, "expired", cr.Status()["status"])
}

type fakeVault struct {
	mu     sync.Mutex
	secret *config.VaultSecret
}

func (f *fakeVault) GetSecretV2(path string) (*config.VaultSecret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.secret, nil
}

func (f *fakeVault) set(secret *config.VaultSecret) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.secret = secret
}

func TestCertReloaderPollsVault(t *testing.T) {
	certPEM, keyPEM := selfSignedPEM(t, 20, time.Now().Add(30*24*time.Hour))
	vault := &fakeVault{secret: &config.VaultSecret{
		Version: 1,
		Data:    map[string]any{"cert": string(certPEM), "key": string(keyPEM)},
	}}

	cr, err := NewCertReloader(config.TLSConfig{CertContent: string(certPEM), KeyContent: string(keyPEM)}, nil, errors.NewNopLogger())
	require.NoError(t, err)
	defer cr.Stop()
	require.NoError(t, cr.WatchVault(vault, "secret/data/tls", 20*time.Millisecond))

	newCert, newKey := selfSignedPEM(t, 21, time.Now().Add(30*24*time.Hour))
	vault.set(&config.VaultSecret{
		Version: 2,
		Data:    map[string]any{"cert": string(newCert), "key": string(newKey)},
	})

	assert.Eventually(t, func() bool { return servedSerial(t, cr) == 21 }, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, int64(2), cr.Status()["vault_version"])

	assert.Error(t, cr.WatchVault(nil, "", 0))
}

func TestBuildTLSConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := writePair(t, dir, 30)
	cfg.MinVersion = "1.3"

	s := &Server{TLSConfig: cfg, Logger: errors.NewNopLogger()}
	tlsConfig, err := s.setupTLS()
	require.NoError(t, err)
	defer s.CertReloader.Stop()

	assert.Equal(t, uint16(tls.VersionTLS13), tlsConfig.MinVersion)
	assert.Equal(t, tls.NoClientCert, tlsConfig.ClientAuth)

	s.TLSConfig.Mode = "mutual"
	s.TLSConfig.CAFile = cfg.CertFile
	tlsConfig, err = s.buildTLSConfig()
	require.NoError(t, err)
	assert.Equal(t, tls.RequireAndVerifyClientCert, tlsConfig.ClientAuth)
	assert.NotNil(t, tlsConfig.ClientCAs)

	s.TLSConfig.CAFile = ""
	_, err = s.buildTLSConfig()
	assert.Error(t, err)
}
