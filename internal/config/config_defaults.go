package config

import (
	"time"

	"cvtailor/internal/tailoring"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	setAIDefaults(v)
	setTailoringDefaults(v)
	setServerDefaults(v)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 1024*1024) // 1MB

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.aiKey", "")
	v.SetDefault("vault.secrets.tlsCerts", "")

	setObservabilityDefaults(v)
}

func setAIDefaults(v *viper.Viper) {
	v.SetDefault("ai.provider", ProviderOpenRouter)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.apiUrl", DefaultOpenRouterURL)
	v.SetDefault("ai.model", DefaultOpenRouterModel)
	v.SetDefault("ai.timeout", 30*time.Second)
	v.SetDefault("ai.maxTokens", 200)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.topP", 0.9)
	v.SetDefault("ai.frequencyPenalty", 0.1)
	v.SetDefault("ai.presencePenalty", 0.1)
	v.SetDefault("ai.maxRetries", 0)
	v.SetDefault("ai.referer", "http://localhost")
	v.SetDefault("ai.title", "Smart CV Resume Builder")
	v.SetDefault("ai.fallbackEnabled", true)
	v.SetDefault("ai.summariesEnabled", true)
	v.SetDefault("ai.debug", false)
	v.SetDefault("ai.systemPrompt", "")
	v.SetDefault("ai.systemPromptFile", "")

	v.SetDefault("ai.circuitBreaker.enabled", true)
	v.SetDefault("ai.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.minRequests", 3)
	v.SetDefault("ai.circuitBreaker.failureThreshold", 0.6)
}

func setTailoringDefaults(v *viper.Viper) {
	p := tailoring.DefaultParams()
	v.SetDefault("tailoring.keywordWeight", p.KeywordWeight)
	v.SetDefault("tailoring.requirementWeight", p.RequirementWeight)
	v.SetDefault("tailoring.quantifiableBonus", p.QuantifiableBonus)
	v.SetDefault("tailoring.projectTitleBonus", p.ProjectTitleBonus)
	v.SetDefault("tailoring.partialSkillWeight", p.PartialSkillWeight)
	v.SetDefault("tailoring.maxSkills", p.MaxSkills)
	v.SetDefault("tailoring.maxAchievements", p.MaxAchievements)
	v.SetDefault("tailoring.maxProjects", p.MaxProjects)
	v.SetDefault("tailoring.maxRequirements", p.MaxRequirements)
	v.SetDefault("tailoring.maxCustomKeywords", p.MaxCustomKeywords)
	v.SetDefault("tailoring.minKeywordFrequency", p.MinKeywordFrequency)
}

func setServerDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 60*time.Second) // covers a full AI call plus streaming
	v.SetDefault("server.idleTimeout", 120*time.Second)

	v.SetDefault("server.tls.mode", "disabled")
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.caFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.tls.clientAuthPolicy", "require")
	v.SetDefault("server.tls.watch", true)
	v.SetDefault("server.tls.debounceDelay", time.Second)
	v.SetDefault("server.tls.vaultPollInterval", time.Duration(0))

	v.SetDefault("server.apiKeys", []string{})

	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
}

func setObservabilityDefaults(v *viper.Viper) {
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "cvtailor")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty

	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)

	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	v.SetDefault("observability.customMetrics.aiOperations.enabled", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackDuration", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackTokenUsage", true)
	v.SetDefault("observability.customMetrics.businessMetrics.enabled", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackSources", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackFallbacks", true)
	v.SetDefault("observability.customMetrics.infrastructure.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackCertReloads", true)

	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)

	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}
