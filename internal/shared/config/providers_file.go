package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProvidersFile is the optional YAML override for provider settings.
//
//	primary: groq
//	fallback: gemini
//	providers:
//	  groq:
//	    model: llama-3.3-70b-versatile
//	    max_input_chars: 32000
//	  gemini:
//	    api_key: ${GEMINI_API_KEY}
//	    timeout_sec: 60
type ProvidersFile struct {
	Primary   string                        `yaml:"primary,omitempty"`
	Fallback  *string                       `yaml:"fallback,omitempty"`
	Providers map[string]ProviderFileConfig `yaml:"providers"`
}

// ProviderFileConfig overrides a single provider. Zero values keep the env setting.
type ProviderFileConfig struct {
	APIKey        string `yaml:"api_key,omitempty"`
	Model         string `yaml:"model,omitempty"`
	BaseURL       string `yaml:"base_url,omitempty"`
	MaxInputChars int    `yaml:"max_input_chars,omitempty"`
	TimeoutSec    int    `yaml:"timeout_sec,omitempty"`
}

// LoadProvidersFile reads and parses path. ${VAR} references in api_key and
// base_url are expanded from the environment.
func LoadProvidersFile(path string) (*ProvidersFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}
	var file ProvidersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse providers file %s: %w", path, err)
	}
	for id, p := range file.Providers {
		p.APIKey = os.ExpandEnv(p.APIKey)
		p.BaseURL = os.ExpandEnv(p.BaseURL)
		file.Providers[id] = p
	}
	return &file, nil
}

// Apply merges the file into cfg. Unknown provider entries are ignored.
func (f *ProvidersFile) Apply(cfg *Config) {
	if f == nil || cfg == nil {
		return
	}
	if p := strings.ToLower(strings.TrimSpace(f.Primary)); p != "" {
		cfg.PrimaryProvider = p
	}
	if f.Fallback != nil {
		cfg.FallbackProvider = strings.ToLower(strings.TrimSpace(*f.Fallback))
	}
	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderSettings{}
	}
	for rawID, override := range f.Providers {
		id := strings.ToLower(strings.TrimSpace(rawID))
		current, ok := cfg.Providers[id]
		if !ok {
			continue
		}
		if override.APIKey != "" {
			current.APIKey = override.APIKey
		}
		if override.Model != "" {
			current.Model = override.Model
		}
		if override.BaseURL != "" {
			current.BaseURL = override.BaseURL
		}
		if override.MaxInputChars > 0 {
			current.MaxInputChars = override.MaxInputChars
		}
		if override.TimeoutSec > 0 {
			current.Timeout = time.Duration(override.TimeoutSec) * time.Second
		}
		cfg.Providers[id] = current
	}
}
