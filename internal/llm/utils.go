package llm

import "codeberg.org/fitcoach/server/internal/config"

// builds the generator configuration from the service configuration
func ConfigFromApp(cfg *config.Config) Config {
	provider := Provider(cfg.GeneratorProvider)

	return Config{
		Provider: provider,
		APIKey:   getAPIKeyForProvider(provider, cfg),
		Model:    cfg.GeneratorModel,
		Timeout:  cfg.GeneratorTimeout,
	}
}

// returns the appropriate API key for the given provider
func getAPIKeyForProvider(provider Provider, baseConfig *config.Config) string {
	switch provider {
	case ProviderOpenAI:
		return baseConfig.OpenAIKey
	default:
		return baseConfig.AnthropicKey
	}
}
