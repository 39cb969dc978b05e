package coaching

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callcoach-backend/internal/shared/apperr"
)

const analysisJSON = `{
  "summary": {"oneLiner": "Sterke opening, zwakke close", "callType": "closing", "overallImpression": "Goede energie."},
  "scores": [
    {"category": "rapport", "score": 8, "label": "Rapport", "feedback": "Blijf spiegelen."},
    {"category": "closing", "score": 4.5, "label": "Closing", "feedback": "Vraag om de sale."}
  ],
  "strengths": [{"title": "Warme opening", "example": "Hoe gaat het met de verbouwing?"}],
  "criticalMoments": [{"moment": "Prijsbezwaar", "quote": "Dat is te duur", "impact": "negative", "suggestion": "Isoleer het bezwaar."}],
  "priority": {"title": "Vraag om de beslissing", "explanation": "Er werd niet gesloten.", "immediateAction": "Zullen we het vandaag starten?"},
  "actionPoints": [{"action": "Stel een trial close", "why": "Meet commitment", "example": "Hoe klinkt dat tot nu toe?"}],
  "observations": [{"quote": "Ik moet het met mijn partner bespreken", "insight": "Beslisser niet aanwezig", "category": "objections"}]%s
}`

func TestDecodeWithoutMetaAppliesDefaults(t *testing.T) {
	result, err := Decode(sprintfAnalysis(""), "groq")
	require.NoError(t, err)

	require.NotNil(t, result.Meta)
	assert.Equal(t, DefaultConfidence, result.Meta.Confidence)
	assert.Equal(t, DefaultTranscriptQuality, result.Meta.TranscriptQuality)
	assert.Equal(t, "groq", result.Meta.Provider)

	summary, ok := result.Fields["summary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Sterke opening, zwakke close", summary["oneLiner"])
	scores, ok := result.Fields["scores"].([]any)
	require.True(t, ok)
	require.Len(t, scores, 2)
	assert.Equal(t, json.Number("4.5"), scores[1].(map[string]any)["score"])
	assert.NotContains(t, result.Fields, "_meta")
}

func TestDecodeOverwritesClaimedProvider(t *testing.T) {
	raw := sprintfAnalysis(`, "_meta": {"reasoning": "r", "confidence": "high", "transcriptQuality": "poor", "provider": "gpt-9"}`)
	result, err := Decode(raw, "openai")
	require.NoError(t, err)

	assert.Equal(t, "openai", result.Meta.Provider)
	assert.Equal(t, "high", result.Meta.Confidence)
	assert.Equal(t, "poor", result.Meta.TranscriptQuality)
	assert.Equal(t, "r", result.Meta.Reasoning)
}

func TestDecodePartialMetaFillsMissingFields(t *testing.T) {
	raw := sprintfAnalysis(`, "_meta": {"reasoning": "kort", "confidence": "low"}`)
	result, err := Decode(raw, "gemini")
	require.NoError(t, err)

	assert.Equal(t, "low", result.Meta.Confidence)
	assert.Equal(t, DefaultTranscriptQuality, result.Meta.TranscriptQuality)
	assert.Equal(t, "gemini", result.Meta.Provider)
}

func TestDecodeMalformed(t *testing.T) {
	inputs := []string{
		"",
		"not json",
		`{"summary": `,
		"```json\n{}\n```",
		"null",
		`[1,2,3]`,
		`{"summary": {}} trailing`,
	}
	for _, raw := range inputs {
		_, err := Decode(raw, "groq")
		require.Error(t, err, "input %q", raw)
		classified, ok := apperr.As(err)
		require.True(t, ok)
		assert.Equal(t, apperr.KindDecode, classified.Kind, "input %q", raw)
		assert.Equal(t, "groq", classified.Provider)
		assert.False(t, classified.Retryable())
	}
}

func TestDecodeMinimalObject(t *testing.T) {
	result, err := Decode(`{}`, "groq")
	require.NoError(t, err)
	assert.Equal(t, "groq", result.Meta.Provider)
	assert.Empty(t, result.Fields)
}

func TestDecodeAcceptsLooselyTypedFields(t *testing.T) {
	raw := `{"scores": [{"category": "rapport", "score": "8", "label": "Rapport", "feedback": "ok"}], "summary": "kort"}`
	result, err := Decode(raw, "groq")
	require.NoError(t, err)

	scores := result.Fields["scores"].([]any)
	assert.Equal(t, "8", scores[0].(map[string]any)["score"])
	assert.Equal(t, "kort", result.Fields["summary"])
	assert.Equal(t, DefaultConfidence, result.Meta.Confidence)
}

func TestDecodeKeepsUnknownFields(t *testing.T) {
	raw := sprintfAnalysis(`, "extraInsights": ["keep me"], "_meta": {"confidence": "high"}`)
	result, err := Decode(raw, "openai")
	require.NoError(t, err)

	out, err := json.Marshal(result)
	require.NoError(t, err)

	var roundTrip map[string]any
	require.NoError(t, json.Unmarshal(out, &roundTrip))
	assert.Equal(t, []any{"keep me"}, roundTrip["extraInsights"])
	assert.Equal(t, float64(8), roundTrip["scores"].([]any)[0].(map[string]any)["score"])
	meta := roundTrip["_meta"].(map[string]any)
	assert.Equal(t, "high", meta["confidence"])
	assert.Equal(t, "openai", meta["provider"])
	assert.Equal(t, DefaultTranscriptQuality, meta["transcriptQuality"])
}

func TestDecodeIgnoresNonObjectMeta(t *testing.T) {
	result, err := Decode(`{"_meta": "high confidence"}`, "gemini")
	require.NoError(t, err)

	assert.Equal(t, DefaultConfidence, result.Meta.Confidence)
	assert.Equal(t, "gemini", result.Meta.Provider)
	assert.Empty(t, result.Fields)
}
