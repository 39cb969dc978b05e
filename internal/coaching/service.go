package coaching

import (
	"context"
	"time"
	"unicode/utf8"

	"callcoach-backend/internal/llm"
	"callcoach-backend/internal/shared/apperr"
	"callcoach-backend/internal/shared/metrics"
	"callcoach-backend/internal/shared/telemetry"
	"callcoach-backend/internal/shared/util"
)

const defaultRequestTimeout = 100 * time.Second

// Runner executes the provider chain. *llm.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, transcript string, compose llm.Composer) (llm.Outcome, error)
}

// Service turns a raw transcript into a decoded coaching analysis.
type Service struct {
	Runner  Runner
	Timeout time.Duration
}

// NewService constructs a Service. A non-positive timeout selects the default.
func NewService(runner Runner, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Service{Runner: runner, Timeout: timeout}
}

// Analyze validates the input, runs the provider chain under the request
// timeout and decodes the answer. Every returned error is an *apperr.Error.
func (s *Service) Analyze(ctx context.Context, rawTranscript any, analysisCtx *AnalysisContext) (*AnalysisResult, error) {
	start := time.Now()
	result, err := s.analyze(ctx, rawTranscript, analysisCtx)

	outcome := "success"
	if err != nil {
		outcome = string(apperr.KindOf(err))
		if outcome == "" {
			outcome = "internal_error"
		}
	}
	metrics.ObserveAnalysis(outcome, time.Since(start))
	return result, err
}

func (s *Service) analyze(ctx context.Context, rawTranscript any, analysisCtx *AnalysisContext) (*AnalysisResult, error) {
	transcript, err := ValidateTranscript(rawTranscript)
	if err != nil {
		return nil, err
	}
	if err := ValidateContext(analysisCtx); err != nil {
		return nil, err
	}
	if s.Runner == nil {
		return nil, apperr.Configuration("analysis service has no provider chain")
	}

	var promptCtx AnalysisContext
	if analysisCtx != nil {
		promptCtx = *analysisCtx
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := s.Runner.Run(runCtx, transcript, Composer(promptCtx))
	if err != nil {
		return nil, err
	}

	result, err := Decode(out.Result.RawText, out.Result.Provider)
	if err != nil {
		telemetry.Error("analysis.decode_failed", map[string]any{
			"request_id":    llm.RequestIDFromContext(ctx),
			"provider":      out.Result.Provider,
			"model":         out.Result.Model,
			"raw_length":    len(out.Result.RawText),
			"transcript_fp": util.Fingerprint(transcript),
		})
		return nil, err
	}

	telemetry.Info("analysis.completed", map[string]any{
		"request_id":       llm.RequestIDFromContext(ctx),
		"provider":         out.Result.Provider,
		"model":            out.Result.Model,
		"attempts":         len(out.Attempts),
		"transcript_fp":    util.Fingerprint(transcript),
		"transcript_chars": utf8.RuneCountInString(transcript),
		"confidence":       result.Meta.Confidence,
	})
	return result, nil
}
