package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/assistkit/core"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "TAVILY_API_KEY",
		"ASSISTKIT_OPENAI_API_KEY", "ASSISTKIT_PROVIDER", "ASSISTKIT_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestSetDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, time.Second, cfg.OpenAI.PollInterval)
	assert.Equal(t, 60*time.Second, cfg.Tavily.Timeout)
	assert.Equal(t, "Math Tutor", cfg.Assistant.Name)
	assert.True(t, cfg.Assistant.CodeInterpreter)
}

func TestLoad_VendorEnvNames(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-vendor")
	t.Setenv("TAVILY_API_KEY", "tvly-vendor")
	t.Setenv("ASSISTKIT_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-vendor", cfg.OpenAI.APIKey)
	assert.Equal(t, "tvly-vendor", cfg.Tavily.APIKey)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_PrefixedEnvWins(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-vendor")
	t.Setenv("ASSISTKIT_OPENAI_API_KEY", "sk-prefixed")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-prefixed", cfg.OpenAI.APIKey)
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "assistkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
provider: anthropic
anthropic:
  api_key: sk-ant-file
  model: claude-3-5-haiku-latest
assistant:
  web_search: true
tavily:
  timeout: 5s
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "sk-ant-file", cfg.Anthropic.APIKey)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.Anthropic.Source().Model)
	assert.Equal(t, 5*time.Second, cfg.Tavily.Timeout)
	assert.True(t, cfg.Assistant.WebSearch)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Provider: ProviderOpenAI}
	assert.ErrorIs(t, Validate(cfg), core.ErrMissingCredentials)

	cfg.OpenAI.APIKey = "sk-test"
	assert.NoError(t, Validate(cfg))

	cfg.Assistant.WebSearch = true
	assert.ErrorIs(t, Validate(cfg), core.ErrMissingCredentials)
	cfg.Tavily.APIKey = "tvly-test"
	assert.NoError(t, Validate(cfg))

	cfg.Provider = ProviderAnthropic
	assert.ErrorIs(t, Validate(cfg), core.ErrMissingCredentials)

	cfg.Provider = "gemini"
	assert.Error(t, Validate(cfg))
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
