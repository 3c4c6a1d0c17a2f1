package config

import "os"

// Conventional environment variables for provider secrets.
const (
	EnvGeminiKey      = "GEMINI_API_KEY"
	EnvGoogleKey      = "GOOGLE_API_KEY"
	EnvAnthropicKey   = "ANTHROPIC_API_KEY"
	EnvNotionKey      = "NOTION_API_KEY"
	EnvNotionDatabase = "NOTION_DATABASE_ID"
)

// APIKeySource represents where an API key comes from.
type APIKeySource string

const (
	KeySourceEnv    APIKeySource = "env"
	KeySourceConfig APIKeySource = "config"
	KeySourceNone   APIKeySource = "none"
)

// KeyStatus represents the status of an API key.
type KeyStatus struct {
	Name   string       `json:"name"`
	Source APIKeySource `json:"source"`
	IsSet  bool         `json:"is_set"`
	Masked string       `json:"masked,omitempty"` // e.g., "AIz...xyz"
}

// CheckAPIKeys returns the status of every optional secret.
func CheckAPIKeys(cfg *Config) []KeyStatus {
	return []KeyStatus{
		checkKey("Gemini API Key", cfg.LLM.GeminiKey, EnvPrefix+"_LLM_GEMINI_KEY", EnvGeminiKey, EnvGoogleKey),
		checkKey("Anthropic API Key", cfg.LLM.AnthropicKey, EnvPrefix+"_LLM_ANTHROPIC_KEY", EnvAnthropicKey),
		checkKey("Notion API Key", cfg.Notion.APIKey, EnvPrefix+"_NOTION_API_KEY", EnvNotionKey),
		checkKey("Notion Database ID", cfg.Notion.DatabaseID, EnvPrefix+"_NOTION_DATABASE_ID", EnvNotionDatabase),
	}
}

// checkKey checks if a key is set and whether one of envVars supplied it.
func checkKey(name, value string, envVars ...string) KeyStatus {
	status := KeyStatus{
		Name:   name,
		IsSet:  value != "",
		Source: KeySourceNone,
	}
	if value == "" {
		return status
	}

	status.Source = KeySourceConfig
	for _, env := range envVars {
		if os.Getenv(env) == value {
			status.Source = KeySourceEnv
			break
		}
	}
	status.Masked = maskKey(value)
	return status
}

// maskKey masks an API key for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
