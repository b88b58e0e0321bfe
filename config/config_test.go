package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
default: fast
models:
  fast:
    provider: openai
    model: gpt-4o-mini
    api_key_env: TEST_OPENAI_KEY
  local:
    provider: ollama
    model: llama3.2
    base_url: http://localhost:11434
  claude:
    provider: anthropic
    model: claude-sonnet-4-20250514
    api_key_env: TEST_ANTHROPIC_KEY
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(testConfig))
	require.NoError(t, err)

	assert.Equal(t, "fast", cfg.Default)
	assert.Len(t, cfg.Models, 3)
	assert.Equal(t, "openai", cfg.Models["fast"].Provider)
	assert.Equal(t, "http://localhost:11434", cfg.Models["local"].BaseURL)
}

func TestParse_EmptyModels(t *testing.T) {
	_, err := Parse([]byte("models: {}"))
	assert.Error(t, err)
}

func TestParse_UnknownDefault(t *testing.T) {
	_, err := Parse([]byte("default: missing\nmodels:\n  a:\n    provider: openai\n    model: gpt-4o"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fast", cfg.Default)
}

func TestHandle_DefaultFallback(t *testing.T) {
	cfg, err := Parse([]byte(testConfig))
	require.NoError(t, err)

	h, err := cfg.Handle("")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", h.Model)

	h, err = cfg.Handle("claude")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", h.Provider)

	_, err = cfg.Handle("nope")
	assert.Error(t, err)
}

func TestHandle_StringRedactsCredentials(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-super-secret")

	h := Handle{Provider: "openai", Model: "gpt-4o-mini", APIKeyEnv: "TEST_OPENAI_KEY"}
	assert.Equal(t, "openai/gpt-4o-mini", h.String())
	assert.NotContains(t, h.String(), "sk-super-secret")
	assert.NotContains(t, h.String(), "TEST_OPENAI_KEY")
}

func TestBuildModel(t *testing.T) {
	for name, h := range map[string]Handle{
		"openai":    {Provider: "openai", Model: "gpt-4o-mini"},
		"anthropic": {Provider: "anthropic", Model: "claude-sonnet-4-20250514"},
		"ollama":    {Provider: "ollama", Model: "llama3.2", BaseURL: "http://localhost:11434"},
	} {
		t.Run(name, func(t *testing.T) {
			m, err := BuildModel(h)
			require.NoError(t, err)
			assert.Equal(t, h.Provider, m.Info().Provider)
			assert.Equal(t, h.Model, m.Info().Name)
		})
	}
}

func TestBuildModel_UnknownProvider(t *testing.T) {
	_, err := BuildModel(Handle{Provider: "acme", Model: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acme")
}

func TestBuildEmbedder(t *testing.T) {
	e, err := BuildEmbedder(Handle{Provider: "openai", Model: "text-embedding-3-small"})
	require.NoError(t, err)
	assert.NotNil(t, e)

	_, err = BuildEmbedder(Handle{Provider: "anthropic", Model: "claude"})
	assert.Error(t, err)
}

func TestLoadDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TEST_DOTENV_KEY=from-dotenv\n"), 0o600))

	LoadDotenv(path)
	t.Cleanup(func() { os.Unsetenv("TEST_DOTENV_KEY") })

	h := Handle{Provider: "openai", Model: "gpt-4o", APIKeyEnv: "TEST_DOTENV_KEY"}
	assert.Equal(t, "from-dotenv", h.apiKey())
}
