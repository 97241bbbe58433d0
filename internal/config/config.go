// Package config resolves settings from the environment and optional
// settings files into the objects the rest of the service consumes. The
// vetting core itself never reads environment or filesystem state; all of
// that happens here, at the edge.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// Provider type identifiers.
const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
)

type Config struct {
	Server  ServerConfig
	OpenAI  OpenAISettings
	Claude  ClaudeSettings
	Gemini  GeminiSettings
	Vetting VettingSettings
}

type ServerConfig struct {
	Port         string        `envconfig:"SERVER_PORT" default:"8000"`
	Host         string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"90s"`
}

type OpenAISettings struct {
	APIKey       string `envconfig:"OPENAI_API_KEY"`
	BaseURL      string `envconfig:"OPENAI_ENDPOINT" default:"https://api.openai.com/v1"`
	Organization string `envconfig:"OPENAI_ORGANIZATION"`
}

type ClaudeSettings struct {
	APIKey  string `envconfig:"ANTHROPIC_API_KEY"`
	BaseURL string `envconfig:"ANTHROPIC_ENDPOINT" default:"https://api.anthropic.com"`
}

type GeminiSettings struct {
	APIKey  string `envconfig:"GOOGLE_API_KEY"`
	BaseURL string `envconfig:"GOOGLE_ENDPOINT" default:"https://generativelanguage.googleapis.com"`
}

// VettingSettings are the service-level defaults applied when a request does
// not specify its own.
type VettingSettings struct {
	DefaultProvider          string        `envconfig:"VETTING_DEFAULT_PROVIDER" default:"openai"`
	DefaultChatModel         string        `envconfig:"VETTING_DEFAULT_CHAT_MODEL" default:"gpt-4o-mini"`
	DefaultVerificationModel string        `envconfig:"VETTING_DEFAULT_VERIFICATION_MODEL" default:"gpt-4o-mini"`
	MaxAttempts              int           `envconfig:"VETTING_MAX_ATTEMPTS" default:"3"`
	EnableSafetyPrefix       bool          `envconfig:"VETTING_ENABLE_SAFETY_PREFIX" default:"true"`
	EnableEducationalRules   bool          `envconfig:"VETTING_ENABLE_EDUCATIONAL_RULES" default:"true"`
	ProviderTimeout          time.Duration `envconfig:"VETTING_PROVIDER_TIMEOUT" default:"60s"`
	ProviderMaxRetries       int           `envconfig:"VETTING_PROVIDER_MAX_RETRIES" default:"3"`
}

// ProviderConfig is the resolved parameter bundle one provider adapter is
// constructed from.
type ProviderConfig struct {
	Type         string
	APIKey       string
	BaseURL      string
	Organization string
	Timeout      time.Duration
	MaxRetries   int
}

// LoadConfig resolves settings from the environment.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	slog.Info("configuration loaded from environment")
	return &cfg, nil
}

// LoadConfigFile resolves settings from the environment, then overlays
// values from a JSON or YAML settings file. File values win over environment
// defaults; explicitly set environment variables are overridden too, since a
// named settings file is the more deliberate choice.
func LoadConfigFile(path string) (*Config, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read settings file %s: %w", path, err)
	}

	overlays := []struct {
		key    string
		target *string
	}{
		{"providers.openai.apiKey", &cfg.OpenAI.APIKey},
		{"providers.openai.baseUrl", &cfg.OpenAI.BaseURL},
		{"providers.openai.organization", &cfg.OpenAI.Organization},
		{"providers.claude.apiKey", &cfg.Claude.APIKey},
		{"providers.claude.baseUrl", &cfg.Claude.BaseURL},
		{"providers.gemini.apiKey", &cfg.Gemini.APIKey},
		{"providers.gemini.baseUrl", &cfg.Gemini.BaseURL},
		{"defaultProvider", &cfg.Vetting.DefaultProvider},
		{"defaultChatModel", &cfg.Vetting.DefaultChatModel},
		{"defaultVerificationModel", &cfg.Vetting.DefaultVerificationModel},
	}
	for _, o := range overlays {
		if v.IsSet(o.key) {
			*o.target = v.GetString(o.key)
		}
	}
	if v.IsSet("maxAttempts") {
		cfg.Vetting.MaxAttempts = v.GetInt("maxAttempts")
	}
	if v.IsSet("enableSafetyPrefix") {
		cfg.Vetting.EnableSafetyPrefix = v.GetBool("enableSafetyPrefix")
	}
	if v.IsSet("enableEducationalRules") {
		cfg.Vetting.EnableEducationalRules = v.GetBool("enableEducationalRules")
	}

	slog.Info("configuration overlaid from file", "path", path)
	return cfg, nil
}

// ProviderFor resolves the named provider family into a ProviderConfig.
func (c *Config) ProviderFor(name string) (ProviderConfig, error) {
	pc := ProviderConfig{
		Type:       name,
		Timeout:    c.Vetting.ProviderTimeout,
		MaxRetries: c.Vetting.ProviderMaxRetries,
	}
	switch name {
	case ProviderOpenAI:
		pc.APIKey = c.OpenAI.APIKey
		pc.BaseURL = c.OpenAI.BaseURL
		pc.Organization = c.OpenAI.Organization
	case ProviderClaude:
		pc.APIKey = c.Claude.APIKey
		pc.BaseURL = c.Claude.BaseURL
	case ProviderGemini:
		pc.APIKey = c.Gemini.APIKey
		pc.BaseURL = c.Gemini.BaseURL
	default:
		return ProviderConfig{}, fmt.Errorf("unknown provider %q", name)
	}
	if pc.APIKey == "" {
		return ProviderConfig{}, fmt.Errorf("no api key configured for provider %q", name)
	}
	return pc, nil
}

// Validate checks that at least the default provider is usable.
func (c *Config) Validate() error {
	_, err := c.ProviderFor(c.Vetting.DefaultProvider)
	return err
}
