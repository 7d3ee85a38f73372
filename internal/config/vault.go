package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"cvtailor/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets holds KVv2 paths. An empty path skips that secret.
type VaultSecrets struct {
	// APIKeys is read from key "keys" as one comma-separated string
	APIKeys  string `mapstructure:"apiKeys"`
	AIKey    string `mapstructure:"aiKey"`    // key "api_key"
	TLSCerts string `mapstructure:"tlsCerts"` // keys "cert", "key", "ca"
}

// VaultClient reads KVv2 secrets for the CLI and the server
type VaultClient struct {
	client *api.Client
	logger *errors.Logger
}

// VaultSecret is the data and version of one KVv2 secret
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// NewVaultClient connects to Vault and checks its health. It returns a nil
// client and no error when Vault is disabled.
func NewVaultClient(cfg VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	if !cfg.Enabled {
		logger.Debug("Vault integration disabled")
		return nil, nil
	}

	apiCfg := api.DefaultConfig()
	if cfg.Address != "" {
		apiCfg.Address = cfg.Address
	}
	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	token, err := resolveVaultToken(cfg, logger)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		logger.LogError(err, "Failed to connect to Vault", "address", apiCfg.Address)
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}
	logger.Info("Connected to Vault",
		"address", apiCfg.Address,
		"namespace", cfg.Namespace,
		"version", health.Version,
		"sealed", health.Sealed,
		"token", MaskKey(token))

	return &VaultClient{client: client, logger: logger}, nil
}

// resolveVaultToken prefers the inline token over the token file
func resolveVaultToken(cfg VaultConfig, logger *errors.Logger) (string, error) {
	token := cfg.Token
	if token == "" && cfg.TokenFile != "" {
		logger.Debug("Reading Vault token from file", "file", cfg.TokenFile)
		raw, err := os.ReadFile(cfg.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	}
	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// GetSecretV2 reads the secret at path from a KVv2 mount
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}

	data, err := vc.extractSecretData(secret, path)
	if err != nil {
		return nil, err
	}
	version, err := vc.extractSecretVersion(secret, path)
	if err != nil {
		return nil, err
	}

	vc.logger.Debug("Read secret from Vault", "path", path, "version", version, "keys", len(data))
	return &VaultSecret{Data: data, Version: version}, nil
}

func (vc *VaultClient) extractSecretData(secret *api.Secret, path string) (map[string]any, error) {
	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	return data, nil
}

func (vc *VaultClient) extractSecretVersion(secret *api.Secret, path string) (int64, error) {
	metadata, ok := secret.Data["metadata"].(map[string]any)
	if !ok {
		return 0, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	raw, ok := metadata["version"]
	if !ok {
		return 0, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}
	return parseVersionValue(raw, path)
}

// parseVersionValue accepts the numeric shapes the Vault client decodes into
func parseVersionValue(raw any, path string) (int64, error) {
	var (
		version int64
		err     error
	)
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case json.Number:
		version, err = v.Int64()
	case string:
		version, err = strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, raw)
	}
	if err != nil {
		return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
	}
	return version, nil
}

// GetStringSecret returns one string field of the secret at path
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	value, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}
	return s, nil
}

// GetStringSliceSecret splits a comma-separated string field into a list
func (vc *VaultClient) GetStringSliceSecret(path, key string) ([]string, error) {
	value, err := vc.GetStringSecret(path, key)
	if err != nil {
		return nil, err
	}
	return splitList(value), nil
}

// secretBinding copies one Vault secret into the configuration
type secretBinding struct {
	what  string
	path  func(VaultSecrets) string
	apply func(vc *VaultClient, path string, cfg *Config, logger *errors.Logger) error
}

var secretBindings = []secretBinding{
	{
		what: "API keys",
		path: func(s VaultSecrets) string { return s.APIKeys },
		apply: func(vc *VaultClient, path string, cfg *Config, logger *errors.Logger) error {
			keys, err := vc.GetStringSliceSecret(path, "keys")
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				logger.Warn("No API keys found in Vault", "path", path)
				return nil
			}
			cfg.Server.APIKeys = keys
			logger.Info("API keys loaded from Vault", "count", len(keys))
			return nil
		},
	},
	{
		what: "AI API key",
		path: func(s VaultSecrets) string { return s.AIKey },
		apply: func(vc *VaultClient, path string, cfg *Config, logger *errors.Logger) error {
			key, err := vc.GetStringSecret(path, "api_key")
			if err != nil {
				return err
			}
			if !applyAIKey(cfg, key) {
				logger.Warn("Empty AI API key in Vault, keeping existing key", "path", path)
				return nil
			}
			logger.Info("AI API key loaded from Vault", "provider", cfg.AI.Provider, "key", MaskKey(cfg.AI.APIKey))
			return nil
		},
	},
	{
		what: "TLS certificates",
		path: func(s VaultSecrets) string { return s.TLSCerts },
		apply: func(vc *VaultClient, path string, cfg *Config, logger *errors.Logger) error {
			secret, err := vc.GetSecretV2(path)
			if err != nil {
				return err
			}
			count := loadTLSCertificateContent(cfg, secret, logger)
			logger.Info("TLS certificates loaded from Vault", "certificates_loaded", count, "version", secret.Version)
			return nil
		},
	},
}

// ApplyVaultSecrets overlays the configured Vault secrets onto cfg. Vault
// values win over the config file and the environment.
func ApplyVaultSecrets(cfg *Config, logger *errors.Logger) error {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	if !cfg.Vault.Enabled {
		logger.Debug("Vault integration disabled, skipping secret loading")
		return nil
	}

	vc, err := NewVaultClient(cfg.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}

	for _, binding := range secretBindings {
		path := binding.path(cfg.Vault.Secrets)
		if path == "" {
			continue
		}
		if err := binding.apply(vc, path, cfg, logger); err != nil {
			logger.LogError(err, "Failed to load secret from Vault", "secret", binding.what, "path", path)
			return fmt.Errorf("failed to load %s from vault: %w", binding.what, err)
		}
	}
	return nil
}

// applyAIKey overrides the configured AI key when key is non-blank
func applyAIKey(cfg *Config, key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	cfg.AI.APIKey = key
	return true
}

// loadTLSCertificateContent copies the non-empty PEM fields of secret into
// the TLS configuration and returns how many were set.
func loadTLSCertificateContent(cfg *Config, secret *VaultSecret, logger *errors.Logger) int {
	targets := map[string]*string{
		"cert": &cfg.Server.TLS.CertContent,
		"key":  &cfg.Server.TLS.KeyContent,
		"ca":   &cfg.Server.TLS.CAContent,
	}
	loaded := 0
	for key, target := range targets {
		if content, ok := secret.Data[key].(string); ok && content != "" {
			*target = content
			loaded++
			logger.Debug("TLS PEM loaded from Vault", "field", key, "content_length", len(content))
		}
	}
	return loaded
}
