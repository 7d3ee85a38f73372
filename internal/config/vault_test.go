package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"cvtailor/internal/errors"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64", input: int64(42), expected: 42},
		{name: "float64", input: float64(7), expected: 7},
		{name: "json number", input: json.Number("12"), expected: 12},
		{name: "numeric string", input: "3", expected: 3},
		{name: "bad string", input: "three", expectError: true},
		{name: "bad json number", input: json.Number("1.5"), expectError: true},
		{name: "unsupported type", input: []string{"1"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "secret/data/cvtailor")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestApplyAIKey(t *testing.T) {
	cfg := &Config{AI: AIConfig{APIKey: "from-env"}}

	assert.False(t, applyAIKey(cfg, "   "))
	assert.Equal(t, "from-env", cfg.AI.APIKey)

	assert.True(t, applyAIKey(cfg, " from-vault "))
	assert.Equal(t, "from-vault", cfg.AI.APIKey)
}

func TestResolveVaultToken(t *testing.T) {
	logger := errors.NewNopLogger()

	t.Run("inline token", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "s.inline"}, logger)
		require.NoError(t, err)
		assert.Equal(t, "s.inline", token)
	})

	t.Run("token file is trimmed", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("  s.file \n"), 0600))

		token, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile}, logger)
		require.NoError(t, err)
		assert.Equal(t, "s.file", token)
	})

	t.Run("unreadable token file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{TokenFile: filepath.Join(t.TempDir(), "missing")}, logger)
		assert.ErrorContains(t, err, "failed to read vault token file")
	})

	t.Run("no token", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{}, logger)
		assert.ErrorContains(t, err, "vault token is required")
	})
}

func TestExtractSecretFields(t *testing.T) {
	vc := &VaultClient{logger: errors.NewNopLogger()}

	secret := &api.Secret{Data: map[string]any{
		"data":     map[string]any{"api_key": "sk-test"},
		"metadata": map[string]any{"version": json.Number("4")},
	}}

	data, err := vc.extractSecretData(secret, "secret/data/ai")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", data["api_key"])

	version, err := vc.extractSecretVersion(secret, "secret/data/ai")
	require.NoError(t, err)
	assert.Equal(t, int64(4), version)

	_, err = vc.extractSecretData(&api.Secret{Data: map[string]any{"data": "flat"}}, "secret/ai")
	assert.ErrorContains(t, err, "not in KVv2 format")

	_, err = vc.extractSecretVersion(&api.Secret{Data: map[string]any{"metadata": map[string]any{}}}, "secret/ai")
	assert.ErrorContains(t, err, "missing 'version' field")
}

func TestLoadTLSCertificateContent(t *testing.T) {
	cfg := &Config{}
	secret := &VaultSecret{Data: map[string]any{
		"cert": "cert-pem",
		"key":  "",
		"ca":   42,
	}}

	count := loadTLSCertificateContent(cfg, secret, errors.NewNopLogger())

	assert.Equal(t, 1, count)
	assert.Equal(t, "cert-pem", cfg.Server.TLS.CertContent)
	assert.Empty(t, cfg.Server.TLS.KeyContent)
	assert.Empty(t, cfg.Server.TLS.CAContent)
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	cfg := &Config{AI: AIConfig{APIKey: "unchanged"}}

	require.NoError(t, ApplyVaultSecrets(cfg, errors.NewNopLogger()))
	assert.Equal(t, "unchanged", cfg.AI.APIKey)
}

// fakeVault serves the health endpoint and KVv2 reads from an in-memory map.
func fakeVault(t *testing.T, secrets map[string]map[string]any) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if r.URL.Path == "/v1/sys/health" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"initialized":  true,
				"sealed":       false,
				"standby":      false,
				"version":      "1.15.0",
				"cluster_name": "test",
			})
			return
		}

		data, ok := secrets[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"data":     data,
				"metadata": map[string]any{"version": 2},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestApplyVaultSecretsFromServer(t *testing.T) {
	srv := fakeVault(t, map[string]map[string]any{
		"/v1/secret/data/cvtailor/ai":     {"api_key": "sk-or-vault"},
		"/v1/secret/data/cvtailor/server": {"keys": "alpha, beta,,gamma"},
	})

	cfg := &Config{
		AI: AIConfig{APIKey: "sk-or-env"},
		Vault: VaultConfig{
			Enabled: true,
			Address: srv.URL,
			Token:   "s.test",
			Secrets: VaultSecrets{
				AIKey:   "secret/data/cvtailor/ai",
				APIKeys: "secret/data/cvtailor/server",
			},
		},
	}

	require.NoError(t, ApplyVaultSecrets(cfg, errors.NewNopLogger()))

	assert.Equal(t, "sk-or-vault", cfg.AI.APIKey)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, cfg.Server.APIKeys)
}

func TestApplyVaultSecretsMissingSecret(t *testing.T) {
	srv := fakeVault(t, map[string]map[string]any{})

	cfg := &Config{
		Vault: VaultConfig{
			Enabled: true,
			Address: srv.URL,
			Token:   "s.test",
			Secrets: VaultSecrets{AIKey: "secret/data/cvtailor/ai"},
		},
	}

	err := ApplyVaultSecrets(cfg, errors.NewNopLogger())
	assert.ErrorContains(t, err, "failed to load AI API key from vault")
}
