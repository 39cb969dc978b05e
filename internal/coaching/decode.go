package coaching

import (
	"encoding/json"
	"errors"
	"strings"

	"callcoach-backend/internal/shared/apperr"
)

const (
	DefaultConfidence        = "medium"
	DefaultTranscriptQuality = "good"
)

var errNotObject = errors.New("analysis payload is not a json object")

// Decode parses raw provider output into an AnalysisResult and stamps it with
// providerID. Any well-formed JSON object is accepted and passed through
// whole; only "_meta" is normalized. Missing metadata fields receive
// defaults and the provider tag from the payload is ignored.
func Decode(raw, providerID string) (*AnalysisResult, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, apperr.Decode(providerID, errNotObject)
	}

	var result AnalysisResult
	if err := json.Unmarshal([]byte(trimmed), &result); err != nil {
		return nil, apperr.Decode(providerID, err)
	}

	if result.Meta == nil {
		result.Meta = &Meta{}
	}
	if strings.TrimSpace(result.Meta.Confidence) == "" {
		result.Meta.Confidence = DefaultConfidence
	}
	if strings.TrimSpace(result.Meta.TranscriptQuality) == "" {
		result.Meta.TranscriptQuality = DefaultTranscriptQuality
	}
	result.Meta.Provider = providerID
	return &result, nil
}
