package llm

import "unicode/utf8"

// Budget is the maximum transcript size, in characters, a provider may receive.
type Budget struct {
	Provider      string `json:"provider" yaml:"provider"`
	MaxInputChars int    `json:"maxInputChars" yaml:"max_input_chars"`
}

// Policy maps providers to budgets, ordered by preference (primary first).
type Policy struct {
	budgets []Budget
	index   map[string]int
}

// NewPolicy builds a Policy. Later entries for the same provider replace earlier ones.
func NewPolicy(budgets ...Budget) Policy {
	p := Policy{index: make(map[string]int, len(budgets))}
	for _, b := range budgets {
		if i, ok := p.index[b.Provider]; ok {
			p.budgets[i] = b
			continue
		}
		p.index[b.Provider] = len(p.budgets)
		p.budgets = append(p.budgets, b)
	}
	return p
}

// Budgets returns the configured budgets in preference order.
func (p Policy) Budgets() []Budget {
	return append([]Budget(nil), p.budgets...)
}

// Limit returns the budget for providerID and whether one is configured.
func (p Policy) Limit(providerID string) (int, bool) {
	i, ok := p.index[providerID]
	if !ok {
		return 0, false
	}
	return p.budgets[i].MaxInputChars, true
}

// Truncate keeps the leading characters of transcript that fit providerID's
// budget. Providers without a positive budget receive the transcript as is.
func (p Policy) Truncate(transcript, providerID string) string {
	limit, ok := p.Limit(providerID)
	if !ok || limit <= 0 {
		return transcript
	}
	return truncateRunes(transcript, limit)
}

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
