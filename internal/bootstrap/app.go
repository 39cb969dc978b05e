package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"callcoach-backend/internal/coaching"
	"callcoach-backend/internal/llm"
	"callcoach-backend/internal/llm/gemini"
	"callcoach-backend/internal/llm/groq"
	"callcoach-backend/internal/llm/openai"
	"callcoach-backend/internal/shared/apperr"
	"callcoach-backend/internal/shared/config"
	"callcoach-backend/internal/shared/server"
	"callcoach-backend/internal/shared/server/middleware"
	"callcoach-backend/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Chain           config.Chain
	Router          *gin.Engine
	Orchestrator    *llm.Orchestrator
	AnalysisService *coaching.Service
	AnalysisHandler *coaching.Handler
}

// ProviderFactory builds an adapter from resolved settings. Tests swap it to
// avoid network clients.
type ProviderFactory func(ctx context.Context, settings config.ProviderSettings, cfg config.Config) (llm.Provider, error)

// Build validates cfg and wires providers, orchestrator, service and router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	return BuildWith(ctx, cfg, NewProvider)
}

// BuildWith is Build with an explicit provider factory.
func BuildWith(ctx context.Context, cfg config.Config, factory ProviderFactory) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	orch, chain, err := BuildOrchestrator(ctx, cfg, factory)
	if err != nil {
		return nil, err
	}

	svc := coaching.NewService(orch, cfg.RequestTimeout)
	handler := coaching.NewHandler(svc, cfg.ExposeDebug)

	app := &App{
		Config:          cfg,
		Chain:           chain,
		Orchestrator:    orch,
		AnalysisService: svc,
		AnalysisHandler: handler,
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		AnalysisHandler: handler,
		Providers:       chain.IDs(),
		RateLimiter:     middleware.NewRateLimiter(nil),
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"providers":    chain.IDs(),
		"expose_debug": cfg.ExposeDebug,
	})
	return app, nil
}

// BuildOrchestrator resolves the provider chain and constructs its adapters.
// It is shared by the HTTP entrypoints and the CLI.
func BuildOrchestrator(ctx context.Context, cfg config.Config, factory ProviderFactory) (*llm.Orchestrator, config.Chain, error) {
	if factory == nil {
		factory = NewProvider
	}
	chain, err := cfg.ResolveChain()
	if err != nil {
		return nil, config.Chain{}, err
	}
	for _, warning := range chain.Warnings {
		telemetry.Warn("bootstrap.provider_chain", map[string]any{"warning": warning})
	}

	primary, err := factory(ctx, chain.Primary, cfg)
	if err != nil {
		return nil, config.Chain{}, err
	}
	var fallback llm.Provider
	if chain.Fallback != nil {
		fallback, err = factory(ctx, *chain.Fallback, cfg)
		if err != nil {
			return nil, config.Chain{}, err
		}
	}

	settings := []config.ProviderSettings{chain.Primary}
	if chain.Fallback != nil {
		settings = append(settings, *chain.Fallback)
	}
	policy := llm.NewPolicy(lo.Map(settings, func(s config.ProviderSettings, _ int) llm.Budget {
		return llm.Budget{Provider: s.ID, MaxInputChars: s.MaxInputChars}
	})...)

	orch, err := llm.NewOrchestrator(policy, primary, fallback)
	if err != nil {
		return nil, config.Chain{}, err
	}
	return orch, chain, nil
}

// NewProvider constructs the adapter for settings.ID.
func NewProvider(ctx context.Context, settings config.ProviderSettings, cfg config.Config) (llm.Provider, error) {
	var (
		p   llm.Provider
		err error
	)
	switch settings.ID {
	case config.ProviderGroq:
		p, err = groq.NewClient(groq.Options{
			APIKey:          settings.APIKey,
			Model:           settings.Model,
			BaseURL:         settings.BaseURL,
			Timeout:         settings.Timeout,
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxOutputTokens,
		})
	case config.ProviderOpenAI:
		p, err = openai.NewClient(openai.Options{
			APIKey:          settings.APIKey,
			Model:           settings.Model,
			BaseURL:         settings.BaseURL,
			Timeout:         settings.Timeout,
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxOutputTokens,
		})
	case config.ProviderGemini:
		p, err = gemini.NewClient(ctx, gemini.Options{
			APIKey:          settings.APIKey,
			Model:           settings.Model,
			BaseURL:         settings.BaseURL,
			Timeout:         settings.Timeout,
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxOutputTokens,
		})
	default:
		return nil, apperr.Configuration(fmt.Sprintf("unknown provider %q", settings.ID))
	}
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindConfiguration, Message: "provider setup failed", Provider: settings.ID, Err: err}
	}
	return p, nil
}
