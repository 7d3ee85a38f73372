package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// applyFallbacks applies environment variable fallbacks
func (c *Config) applyFallbacks() {
	c.applyProviderDefaults()
	c.applyServerAPIKeyFallbacks()
	c.applyTLSDefaults()
	c.applyObservabilityDefaults()
}

// applyServerAPIKeyFallbacks parses CVTAILOR_SERVER_APIKEYS as a comma-separated
// list and trims every configured key
func (c *Config) applyServerAPIKeyFallbacks() {
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := os.Getenv("CVTAILOR_SERVER_APIKEYS"); apiKeysEnv != "" {
			c.Server.APIKeys = splitList(apiKeysEnv)
		}
	}
	c.Server.APIKeys = splitList(strings.Join(c.Server.APIKeys, ","))
}

// applyProviderDefaults replaces the OpenRouter model and URL defaults when
// Gemini is selected. An empty URL leaves the GenAI SDK on its own endpoint.
func (c *Config) applyProviderDefaults() {
	if c.AI.Provider != ProviderGemini {
		return
	}
	if c.AI.Model == "" || c.AI.Model == DefaultOpenRouterModel {
		c.AI.Model = DefaultGeminiModel
	}
	if c.AI.APIURL == DefaultOpenRouterURL {
		c.AI.APIURL = ""
	}
}

func (c *Config) applyTLSDefaults() {
	if c.Server.TLS.Mode == "mutual" && c.Server.TLS.ClientAuthPolicy == "" {
		c.Server.TLS.ClientAuthPolicy = "require"
	}

	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != "disabled" {
		c.Server.TLS.MinVersion = "1.2"
	}
}

func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
}

// generateServiceInstanceID generates a service instance ID from the hostname
func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

// splitList splits a comma-separated value and drops blank items
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// MaskKey keeps the first four characters of a secret for debugging output.
func MaskKey(key string) string {
	switch {
	case key == "":
		return "***NOT SET***"
	case len(key) <= 8:
		return "****"
	default:
		return key[:4] + "..." + strings.Repeat("*", 4)
	}
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		"CVTAILOR_AI_APIKEY",
		"CVTAILOR_AI_PROVIDER",
		"CVTAILOR_AI_MODEL",
		"CVTAILOR_AI_APIURL",
		"CVTAILOR_AI_FALLBACKENABLED",
		"CVTAILOR_SERVER_PORT",
		"CVTAILOR_SERVER_HOST",
		"CVTAILOR_SERVER_APIKEYS",
		"CVTAILOR_APP_LOGLEVEL",
		"CVTAILOR_VAULT_ENABLED",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			if strings.Contains(strings.ToLower(envVar), "key") {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] AI Provider: %s", c.AI.Provider)
	log.Printf("[CONFIG] AI Model: %s", c.AI.Model)
	if c.AI.IsConfigured() {
		log.Println("[CONFIG] AI API Key: ***CONFIGURED***")
	} else {
		log.Println("[CONFIG] AI API Key: ***NOT SET*** (template summaries only)")
	}
	log.Printf("[CONFIG] Server Host: %s", c.Server.Host)
	log.Printf("[CONFIG] Server Port: %s", c.Server.Port)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] TLS Mode: %s", c.Server.TLS.Mode)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)
	log.Println("[CONFIG] =====================================")
}

// logAIConfiguration dumps the resolved AI settings with the key masked
func (c *Config) logAIConfiguration() {
	log.Println("[CONFIG] === AI Configuration (debug) ===")
	log.Printf("[CONFIG] Provider: %s", c.AI.Provider)
	log.Printf("[CONFIG] API URL: %s", c.AI.APIURL)
	log.Printf("[CONFIG] Model: %s", c.AI.Model)
	log.Printf("[CONFIG] API Key: %s", MaskKey(c.AI.APIKey))
	log.Printf("[CONFIG] Configured: %t", c.AI.IsConfigured())
	log.Printf("[CONFIG] Timeout: %s", c.AI.Timeout)
	log.Printf("[CONFIG] Max Retries: %d", c.AI.MaxRetries)
	log.Printf("[CONFIG] Summaries Enabled: %t", c.AI.SummariesEnabled)
	log.Printf("[CONFIG] Fallback Enabled: %t", c.AI.FallbackEnabled)
	log.Printf("[CONFIG] Custom System Prompt: %t", c.AI.SystemPrompt != "")
	log.Println("[CONFIG] =================================")
}
