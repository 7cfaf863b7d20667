// Package config loads assistkit settings from an optional config file and
// the environment using viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hupe1980/assistkit/core"
	"github.com/hupe1980/assistkit/runsource/anthropic"
	"github.com/hupe1980/assistkit/runsource/openai"
)

// EnvPrefix prefixes every environment override, e.g. ASSISTKIT_LOG_LEVEL.
const EnvPrefix = "ASSISTKIT"

// Providers understood by the assist command.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config is the root configuration.
type Config struct {
	Provider  string          `mapstructure:"provider" json:"provider"`
	Log       LogConfig       `mapstructure:"log" json:"log"`
	OpenAI    OpenAIConfig    `mapstructure:"openai" json:"openai"`
	Anthropic AnthropicConfig `mapstructure:"anthropic" json:"anthropic"`
	Tavily    TavilyConfig    `mapstructure:"tavily" json:"tavily"`
	Assistant AssistantConfig `mapstructure:"assistant" json:"assistant"`
}

// LogConfig selects the diagnostic logger. Logs go to stderr. Format is
// console (zap), json or text (slog).
type LogConfig struct {
	Level       string `mapstructure:"level" json:"level"`
	Format      string `mapstructure:"format" json:"format"`
	Development bool   `mapstructure:"development" json:"development"`
}

// OpenAIConfig holds Assistants API settings.
type OpenAIConfig struct {
	APIKey       string        `mapstructure:"api_key" json:"api_key"`
	BaseURL      string        `mapstructure:"base_url" json:"base_url"`
	Organization string        `mapstructure:"organization" json:"organization"`
	Model        string        `mapstructure:"model" json:"model"`
	MaxRetries   int           `mapstructure:"max_retries" json:"max_retries"`
	PollInterval time.Duration `mapstructure:"poll_interval" json:"poll_interval"`
}

// AnthropicConfig holds Messages API settings.
type AnthropicConfig struct {
	APIKey     string `mapstructure:"api_key" json:"api_key"`
	BaseURL    string `mapstructure:"base_url" json:"base_url"`
	Model      string `mapstructure:"model" json:"model"`
	MaxTokens  int64  `mapstructure:"max_tokens" json:"max_tokens"`
	MaxRetries int    `mapstructure:"max_retries" json:"max_retries"`
}

// TavilyConfig holds web search settings.
type TavilyConfig struct {
	APIKey  string        `mapstructure:"api_key" json:"api_key"`
	BaseURL string        `mapstructure:"base_url" json:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`
}

// AssistantConfig describes the assistant created for a conversation.
// RunInstructions replace Instructions for each run without changing the
// assistant, e.g. to address a particular user.
type AssistantConfig struct {
	Name            string `mapstructure:"name" json:"name"`
	Description     string `mapstructure:"description" json:"description"`
	Instructions    string `mapstructure:"instructions" json:"instructions"`
	RunInstructions string `mapstructure:"run_instructions" json:"run_instructions"`
	CodeInterpreter bool   `mapstructure:"code_interpreter" json:"code_interpreter"`
	WebSearch       bool   `mapstructure:"web_search" json:"web_search"`
}

// Load reads configPath (or assistkit.{yaml,json,toml} from the working
// directory and ~/.assistkit when empty), then applies environment
// overrides. A missing default config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("assistkit")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".assistkit"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindVendorEnv(v); err != nil {
		return nil, err
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// bindVendorEnv accepts the vendors' conventional variable names next to the
// prefixed ones; the prefixed name wins.
func bindVendorEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"openai.api_key":    "OPENAI_API_KEY",
		"anthropic.api_key": "ANTHROPIC_API_KEY",
		"tavily.api_key":    "TAVILY_API_KEY",
	}
	for key, env := range bindings {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderOpenAI)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.development", false)

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.organization", "")
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("openai.max_retries", 2)
	v.SetDefault("openai.poll_interval", time.Second)

	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("anthropic.model", "claude-3-5-sonnet-20241022")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("anthropic.max_retries", 2)

	v.SetDefault("tavily.api_key", "")
	v.SetDefault("tavily.base_url", "https://api.tavily.com")
	v.SetDefault("tavily.timeout", 60*time.Second)

	v.SetDefault("assistant.name", "Math Tutor")
	v.SetDefault("assistant.description", "")
	v.SetDefault("assistant.instructions", "You are a personal math tutor. Write and run code to answer math questions.")
	v.SetDefault("assistant.run_instructions", "")
	v.SetDefault("assistant.code_interpreter", true)
	v.SetDefault("assistant.web_search", false)
}

// Validate checks the settings the selected provider needs.
func Validate(cfg *Config) error {
	switch cfg.Provider {
	case ProviderOpenAI:
		if err := cfg.OpenAI.Session().Validate(); err != nil {
			return err
		}
	case ProviderAnthropic:
		if err := cfg.Anthropic.Source().Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("config: unknown provider %q (want %s or %s)", cfg.Provider, ProviderOpenAI, ProviderAnthropic)
	}

	if cfg.Assistant.WebSearch && cfg.Tavily.APIKey == "" {
		return fmt.Errorf("%w: web search needs tavily.api_key (TAVILY_API_KEY)", core.ErrMissingCredentials)
	}
	return nil
}

// Session converts the section into run source credentials.
func (c OpenAIConfig) Session() openai.Config {
	return openai.Config{
		APIKey:       c.APIKey,
		BaseURL:      c.BaseURL,
		Organization: c.Organization,
		Model:        c.Model,
		MaxRetries:   c.MaxRetries,
	}
}

// Source converts the section into run source credentials.
func (c AnthropicConfig) Source() anthropic.Config {
	return anthropic.Config{
		APIKey:     c.APIKey,
		BaseURL:    c.BaseURL,
		Model:      c.Model,
		MaxRetries: c.MaxRetries,
	}
}
