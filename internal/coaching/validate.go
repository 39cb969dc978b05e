package coaching

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"callcoach-backend/internal/shared/apperr"
)

const (
	ReasonMissing        = "missing"
	ReasonTooShort       = "too_short"
	ReasonInvalidContext = "invalid_context"
	ReasonTooLarge       = "too_large"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateTranscript trims raw and checks it is text of at least
// MinTranscriptChars characters. No upper bound is applied here.
func ValidateTranscript(raw any) (string, error) {
	text, ok := raw.(string)
	if !ok {
		return "", apperr.Validation(ReasonMissing)
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", apperr.Validation(ReasonMissing)
	}
	if utf8.RuneCountInString(trimmed) < MinTranscriptChars {
		return "", apperr.Validation(ReasonTooShort)
	}
	return trimmed, nil
}

// ValidateContext rejects unrecognised context options. A nil context is valid.
func ValidateContext(c *AnalysisContext) error {
	if c == nil {
		return nil
	}
	if err := structValidator().Struct(c); err != nil {
		return &apperr.Error{Kind: apperr.KindValidation, Message: ReasonInvalidContext, Err: err}
	}
	return nil
}
