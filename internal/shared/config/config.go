package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"

	"callcoach-backend/internal/shared/apperr"
)

const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// KnownProviders lists the provider identifiers that can be configured.
var KnownProviders = []string{ProviderGroq, ProviderOpenAI, ProviderGemini}

// ProviderSettings holds everything needed to build one provider adapter.
type ProviderSettings struct {
	ID            string
	APIKey        string
	Model         string
	BaseURL       string
	MaxInputChars int
	Timeout       time.Duration
}

// HasCredentials reports whether an API key is configured.
func (p ProviderSettings) HasCredentials() bool {
	return strings.TrimSpace(p.APIKey) != ""
}

// Config holds application configuration.
type Config struct {
	Port               string
	Env                string
	LogFormat          string
	CORSAllowOrigin    []string
	ExposeDebug        bool
	PrimaryProvider    string
	FallbackProvider   string
	Providers          map[string]ProviderSettings
	Temperature        float32
	MaxOutputTokens    int
	RequestTimeout     time.Duration
	RateLimitPerMinute int
	RateLimitBurst     int
	ProvidersFile      string
}

// Load reads configuration from the environment, local .env files and the
// optional PROVIDERS_FILE.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience. Real
	// environment variables always win.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	providerTimeout := time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 45)) * time.Second

	cfg := Config{
		Port:               getEnv("PORT", "8080"),
		Env:                env,
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		CORSAllowOrigin:    splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "*")),
		ExposeDebug:        getEnvBool("EXPOSE_DEBUG", env != "production"),
		PrimaryProvider:    strings.ToLower(getEnv("PRIMARY_PROVIDER", ProviderGroq)),
		FallbackProvider:   strings.ToLower(strings.TrimSpace(getEnvAllowEmpty("FALLBACK_PROVIDER", ProviderOpenAI))),
		Temperature:        float32(getEnvFloat("LLM_TEMPERATURE", 0.3)),
		MaxOutputTokens:    getEnvInt("LLM_MAX_OUTPUT_TOKENS", 2048),
		RequestTimeout:     time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 100)) * time.Second,
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 10),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 5),
		ProvidersFile:      strings.TrimSpace(os.Getenv("PROVIDERS_FILE")),
		Providers: map[string]ProviderSettings{
			ProviderGroq: {
				ID:            ProviderGroq,
				APIKey:        os.Getenv("GROQ_API_KEY"),
				Model:         getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
				BaseURL:       os.Getenv("GROQ_BASE_URL"),
				MaxInputChars: getEnvInt("GROQ_MAX_INPUT_CHARS", 32000),
				Timeout:       providerTimeout,
			},
			ProviderOpenAI: {
				ID:            ProviderOpenAI,
				APIKey:        os.Getenv("OPENAI_API_KEY"),
				Model:         getEnv("OPENAI_MODEL", "gpt-4o-mini"),
				BaseURL:       os.Getenv("OPENAI_BASE_URL"),
				MaxInputChars: getEnvInt("OPENAI_MAX_INPUT_CHARS", 100000),
				Timeout:       providerTimeout,
			},
			ProviderGemini: {
				ID:            ProviderGemini,
				APIKey:        os.Getenv("GEMINI_API_KEY"),
				Model:         getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
				BaseURL:       os.Getenv("GEMINI_BASE_URL"),
				MaxInputChars: getEnvInt("GEMINI_MAX_INPUT_CHARS", 200000),
				Timeout:       providerTimeout,
			},
		},
	}

	if cfg.ProvidersFile != "" {
		file, err := LoadProvidersFile(cfg.ProvidersFile)
		if err != nil {
			return Config{}, err
		}
		file.Apply(&cfg)
	}
	return cfg, nil
}

// Chain is the resolved provider chain. Fallback is nil when disabled.
type Chain struct {
	Primary  ProviderSettings
	Fallback *ProviderSettings
	Warnings []string
}

// IDs returns the provider identifiers in preference order.
func (c Chain) IDs() []string {
	if c.Fallback == nil {
		return []string{c.Primary.ID}
	}
	return []string{c.Primary.ID, c.Fallback.ID}
}

// ResolveChain applies the credential rules: a fallback without a key is
// dropped, a primary without a key is replaced by a fallback that has one,
// and a chain with no credentials at all is a configuration error.
func (c Config) ResolveChain() (Chain, error) {
	primaryID := strings.TrimSpace(c.PrimaryProvider)
	if !lo.Contains(KnownProviders, primaryID) {
		return Chain{}, apperr.Configuration(fmt.Sprintf("unknown PRIMARY_PROVIDER %q", primaryID))
	}
	fallbackID := strings.TrimSpace(c.FallbackProvider)
	if fallbackID != "" && !lo.Contains(KnownProviders, fallbackID) {
		return Chain{}, apperr.Configuration(fmt.Sprintf("unknown FALLBACK_PROVIDER %q", fallbackID))
	}
	if fallbackID == primaryID {
		fallbackID = ""
	}

	primary := c.provider(primaryID)
	var chain Chain

	var fallback *ProviderSettings
	if fallbackID != "" {
		fb := c.provider(fallbackID)
		if fb.HasCredentials() {
			fallback = &fb
		} else {
			chain.Warnings = append(chain.Warnings, fmt.Sprintf("fallback provider %s has no API key; fallback disabled", fallbackID))
		}
	}

	switch {
	case primary.HasCredentials():
		chain.Primary = primary
		chain.Fallback = fallback
	case fallback != nil:
		chain.Warnings = append(chain.Warnings, fmt.Sprintf("primary provider %s has no API key; using %s", primaryID, fallback.ID))
		chain.Primary = *fallback
	default:
		return Chain{}, apperr.Configuration("no LLM provider credentials configured")
	}
	return chain, nil
}

func (c Config) provider(id string) ProviderSettings {
	p, ok := c.Providers[id]
	if !ok {
		return ProviderSettings{ID: id}
	}
	p.ID = id
	return p
}

// Validate reports startup-fatal configuration problems.
func (c Config) Validate() error {
	if _, err := c.ResolveChain(); err != nil {
		return err
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return apperr.Configuration(fmt.Sprintf("LLM_TEMPERATURE must be within [0,2], got %v", c.Temperature))
	}
	if c.RequestTimeout <= 0 {
		return apperr.Configuration("REQUEST_TIMEOUT_SECONDS must be positive")
	}
	for _, id := range KnownProviders {
		if p := c.provider(id); p.MaxInputChars < 0 {
			return apperr.Configuration(fmt.Sprintf("%s max input chars must not be negative", id))
		}
	}
	return nil
}

func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		_ = godotenv.Load(path)
	}
}

func getEnv(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}

// getEnvAllowEmpty distinguishes an unset variable from one set to "".
func getEnvAllowEmpty(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}

func splitAndTrim(raw string) []string {
	return lo.Compact(lo.Map(strings.Split(raw, ","), func(p string, _ int) string {
		return strings.TrimSpace(p)
	}))
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	default:
		return "dev"
	}
}
