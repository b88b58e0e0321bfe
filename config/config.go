// Package config loads model handle definitions from YAML and the process
// environment and builds configured transport adapters from them. A handle
// names a vendor+model pair plus endpoint and credential source; credentials
// themselves are resolved from the environment at build time and are never
// persisted or logged.
package config

import (
	"fmt"
	"os"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/hupe1980/modelbridge/embedding"
	"github.com/hupe1980/modelbridge/model"
	"github.com/hupe1980/modelbridge/model/anthropic"
	"github.com/hupe1980/modelbridge/model/ollama"
	"github.com/hupe1980/modelbridge/model/openai"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Handle is an immutable reference to a configured vendor+model pair.
type Handle struct {
	Provider  string `yaml:"provider"`              // "openai", "anthropic", "ollama"
	Model     string `yaml:"model"`                 // vendor model id
	BaseURL   string `yaml:"base_url,omitempty"`    // optional endpoint override / ollama host
	APIKeyEnv string `yaml:"api_key_env,omitempty"` // env var holding the credential
}

// String renders the handle without credential material.
func (h Handle) String() string {
	return fmt.Sprintf("%s/%s", h.Provider, h.Model)
}

// apiKey resolves the credential from the environment. Empty when the
// handle declares no key source (the SDK default env var applies then).
func (h Handle) apiKey() string {
	if h.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(h.APIKeyEnv)
}

// Config is a named collection of handles.
type Config struct {
	Default string            `yaml:"default,omitempty"` // name of the default handle
	Models  map[string]Handle `yaml:"models"`
}

// Load reads a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if len(cfg.Models) == 0 {
		return nil, fmt.Errorf("config declares no models")
	}
	if cfg.Default != "" {
		if _, ok := cfg.Models[cfg.Default]; !ok {
			return nil, fmt.Errorf("default handle %q is not declared", cfg.Default)
		}
	}
	return &cfg, nil
}

// LoadDotenv loads .env files into the process environment so api_key_env
// references resolve. Missing files are not an error.
func LoadDotenv(paths ...string) {
	_ = godotenv.Load(paths...)
}

// Handle returns the named handle, or the default one for an empty name.
func (c *Config) Handle(name string) (Handle, error) {
	if name == "" {
		name = c.Default
	}
	h, ok := c.Models[name]
	if !ok {
		return Handle{}, fmt.Errorf("unknown model handle %q", name)
	}
	return h, nil
}

// Build constructs the transport adapter for the named handle.
func (c *Config) Build(name string) (model.Model, error) {
	h, err := c.Handle(name)
	if err != nil {
		return nil, err
	}
	return BuildModel(h)
}

// BuildModel constructs a transport adapter from a handle.
func BuildModel(h Handle) (model.Model, error) {
	switch h.Provider {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if h.Model != "" {
				o.Model = h.Model
			}
			o.APIKey = h.apiKey()
			o.BaseURL = h.BaseURL
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if h.Model != "" {
				o.Model = anthropicsdk.Model(h.Model)
			}
			o.APIKey = h.apiKey()
			o.BaseURL = h.BaseURL
		}), nil
	case "ollama":
		return ollama.NewModel(func(o *ollama.Options) {
			if h.Model != "" {
				o.Model = h.Model
			}
			o.Host = h.BaseURL
		})
	default:
		return nil, fmt.Errorf("unknown provider %q", h.Provider)
	}
}

// BuildEmbedder constructs an embedding client from a handle.
func BuildEmbedder(h Handle) (embedding.Embedder, error) {
	switch h.Provider {
	case "openai":
		return openai.NewEmbedder(func(o *openai.EmbedderOptions) {
			if h.Model != "" {
				o.Model = h.Model
			}
			o.APIKey = h.apiKey()
			o.BaseURL = h.BaseURL
		}), nil
	case "ollama":
		return ollama.NewEmbedder(func(o *ollama.EmbedderOptions) {
			if h.Model != "" {
				o.Model = h.Model
			}
			o.Host = h.BaseURL
		})
	default:
		return nil, fmt.Errorf("provider %q offers no embeddings", h.Provider)
	}
}
