package llm

import (
	"context"
	"time"
	"unicode/utf8"

	"callcoach-backend/internal/shared/apperr"
	"callcoach-backend/internal/shared/metrics"
	"callcoach-backend/internal/shared/telemetry"
)

// State names a step of a single orchestration run.
type State string

const (
	StateIdle               State = "idle"
	StateValidatingInput    State = "validating_input"
	StateAttemptingPrimary  State = "attempting_primary"
	StateAttemptingFallback State = "attempting_fallback"
	StateSuccess            State = "success"
	StateFailed             State = "failed"
)

// Composer renders the prompt pair for an already truncated transcript.
type Composer func(transcript string) Prompt

// Attempt records one provider call made during a run.
type Attempt struct {
	Provider   string
	Model      string
	InputChars int
	Truncated  bool
	Duration   time.Duration
	ErrKind    apperr.Kind
}

// Outcome describes a finished run. Attempts is populated on failure too.
type Outcome struct {
	Result   CallResult
	Attempts []Attempt
	States   []State
}

// Orchestrator sequences provider attempts: the primary first and, only on a
// rate-limited primary failure, the fallback with its own budget. It keeps no
// per-request state and is safe for concurrent use.
type Orchestrator struct {
	primary  Provider
	fallback Provider
	policy   Policy
}

// NewOrchestrator returns an orchestrator. fallback may be nil.
func NewOrchestrator(policy Policy, primary, fallback Provider) (*Orchestrator, error) {
	if primary == nil {
		return nil, apperr.Configuration("no llm provider configured")
	}
	return &Orchestrator{primary: primary, fallback: fallback, policy: policy}, nil
}

// Providers returns the provider chain in preference order.
func (o *Orchestrator) Providers() []Provider {
	if o.fallback == nil {
		return []Provider{o.primary}
	}
	return []Provider{o.primary, o.fallback}
}

// Policy returns the budget policy used for truncation.
func (o *Orchestrator) Policy() Policy {
	return o.policy
}

// Run executes the provider chain for transcript. The returned error is
// always an *apperr.Error.
func (o *Orchestrator) Run(ctx context.Context, transcript string, compose Composer) (Outcome, error) {
	out := Outcome{States: []State{StateAttemptingPrimary}}

	result, err := o.attempt(ctx, o.primary, transcript, compose, &out)
	if err == nil {
		out.Result = result
		out.States = append(out.States, StateSuccess)
		return out, nil
	}

	classified := Classify(o.primary.ID(), err)
	if !classified.Retryable() || o.fallback == nil {
		out.States = append(out.States, StateFailed)
		return out, classified
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		out.States = append(out.States, StateFailed)
		return out, Classify(o.primary.ID(), ctxErr)
	}

	telemetry.Warn("llm.fallback", map[string]any{
		"request_id": RequestIDFromContext(ctx),
		"from":       o.primary.ID(),
		"to":         o.fallback.ID(),
		"error_kind": string(classified.Kind),
	})
	metrics.IncFallback(o.primary.ID(), o.fallback.ID())
	out.States = append(out.States, StateAttemptingFallback)

	result, err = o.attempt(ctx, o.fallback, transcript, compose, &out)
	if err != nil {
		out.States = append(out.States, StateFailed)
		return out, Classify(o.fallback.ID(), err)
	}
	out.Result = result
	out.States = append(out.States, StateSuccess)
	return out, nil
}

func (o *Orchestrator) attempt(ctx context.Context, p Provider, transcript string, compose Composer, out *Outcome) (CallResult, error) {
	bounded := o.policy.Truncate(transcript, p.ID())
	rec := Attempt{
		Provider:   p.ID(),
		Model:      p.Model(),
		InputChars: utf8.RuneCountInString(bounded),
		Truncated:  len(bounded) < len(transcript),
	}
	if rec.Truncated {
		metrics.IncTruncated(p.ID())
	}

	start := time.Now()
	result, err := p.Complete(ctx, compose(bounded))
	rec.Duration = time.Since(start)

	outcome := "success"
	if err != nil {
		rec.ErrKind = Classify(p.ID(), err).Kind
		outcome = string(rec.ErrKind)
	}
	out.Attempts = append(out.Attempts, rec)
	metrics.ObserveAttempt(p.ID(), outcome, rec.Duration)

	fields := map[string]any{
		"request_id":  RequestIDFromContext(ctx),
		"provider":    rec.Provider,
		"model":       rec.Model,
		"input_chars": rec.InputChars,
		"truncated":   rec.Truncated,
		"duration_ms": float64(rec.Duration.Microseconds()) / 1000.0,
		"outcome":     outcome,
	}
	if err != nil {
		fields["error_kind"] = string(rec.ErrKind)
		fields["error"] = err.Error()
		telemetry.Error("llm.attempt", fields)
		return CallResult{}, err
	}
	telemetry.Info("llm.attempt", fields)
	logUsage(ctx, p.ID(), result)

	result.Provider = p.ID()
	if result.Model == "" {
		result.Model = p.Model()
	}
	return result, nil
}

func logUsage(ctx context.Context, providerID string, result CallResult) {
	if result.Usage == nil {
		return
	}
	telemetry.Info("llm.usage", map[string]any{
		"request_id":        RequestIDFromContext(ctx),
		"provider":          providerID,
		"model":             result.Model,
		"prompt_tokens":     result.Usage.PromptTokens,
		"completion_tokens": result.Usage.CompletionTokens,
	})
}
