package coaching

import (
	"bytes"
	"encoding/json"

	"github.com/samber/lo"
)

// Recognised analysis context options. The values are the wire identifiers
// used by the web client.
const (
	ExperienceStarter      = "starter"
	ExperienceIntermediate = "intermediate"
	ExperienceExpert       = "expert"

	FocusObjections = "bezwaren"
	FocusClosing    = "afsluiting"
	FocusRapport    = "rapport"
	FocusGeneral    = "algemeen"

	GoalCloses        = "closes"
	GoalTickets       = "tickets"
	GoalConversations = "gesprekken"
)

// MinTranscriptChars is the minimum trimmed transcript length accepted.
const MinTranscriptChars = 100

// AnalysisContext narrows the coaching prompt. Every field is optional.
type AnalysisContext struct {
	Experience string `json:"experience,omitempty" validate:"omitempty,oneof=starter intermediate expert"`
	Focus      string `json:"focus,omitempty" validate:"omitempty,oneof=bezwaren afsluiting rapport algemeen"`
	Goal       string `json:"goal,omitempty" validate:"omitempty,oneof=closes tickets gesprekken"`
}

// AnalysisRequest is a validated transcript plus its optional context.
type AnalysisRequest struct {
	Transcript string
	Context    *AnalysisContext
}

// AnalysisResult is the coaching feedback returned to the caller. Fields holds
// the model's JSON object exactly as received, minus "_meta"; the expected
// shape is described to the model in prompts/json_format.txt but is not
// enforced here.
type AnalysisResult struct {
	Fields map[string]any
	Meta   *Meta
}

// Meta describes how the analysis was produced. Provider is always set by
// the decoder to the backend that answered.
type Meta struct {
	Reasoning         string `json:"reasoning"`
	Confidence        string `json:"confidence"`
	TranscriptQuality string `json:"transcriptQuality"`
	Provider          string `json:"provider"`
}

const metaKey = "_meta"

// MarshalJSON writes Fields with Meta under "_meta".
func (r AnalysisResult) MarshalJSON() ([]byte, error) {
	out := lo.Assign(r.Fields)
	if r.Meta != nil {
		out[metaKey] = r.Meta
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts any JSON object. Numbers are kept verbatim and a
// "_meta" member that is not an object is ignored.
func (r *AnalysisResult) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return err
	}
	if fields == nil {
		return errNotObject
	}
	r.Meta = metaFrom(fields[metaKey])
	delete(fields, metaKey)
	r.Fields = fields
	return nil
}

func metaFrom(v any) *Meta {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	str := func(key string) string {
		s, _ := m[key].(string)
		return s
	}
	return &Meta{
		Reasoning:         str("reasoning"),
		Confidence:        str("confidence"),
		TranscriptQuality: str("transcriptQuality"),
		Provider:          str("provider"),
	}
}
