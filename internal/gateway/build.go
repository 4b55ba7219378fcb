package gateway

import (
	"log/slog"

	"github.com/salcon83/lifebooks-ai/internal/config"
	"github.com/salcon83/lifebooks-ai/internal/keyring"
)

// FromConfig builds the gateway the configuration asks for. A GATEWAY_URL
// selects a lifebooks server; otherwise Whisper and Claude are called
// directly with keys from the environment or the keychain. Missing keys are
// not fatal: the affected calls degrade the same way a failed request does.
func FromConfig(cfg *config.Config, logger *slog.Logger) Gateway {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.GatewayURL != "" {
		logger.Debug("using remote gateway", "url", cfg.GatewayURL)
		return NewBounded(NewRemote(cfg.GatewayURL), cfg.GatewayTimeout, logger)
	}

	openAIKey := resolveKey(keyring.OpenAI, cfg.OpenAIAPIKey, logger)
	anthropicKey := resolveKey(keyring.Anthropic, cfg.AnthropicAPIKey, logger)

	claude := NewClaude(anthropicKey)

	return NewBounded(Composite{
		Transcriber: NewWhisper(openAIKey),
		Enhancer:    claude,
		Interviewer: claude,
	}, cfg.GatewayTimeout, logger)
}

func resolveKey(key keyring.APIKey, fromEnv string, logger *slog.Logger) string {
	value, err := keyring.Resolve(key, fromEnv)
	if err != nil {
		logger.Warn("API key not configured", "service", key.DisplayName(), "error", err)
		return ""
	}

	return value
}
