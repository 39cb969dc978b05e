package apperr

import (
	"errors"
	"fmt"
)

// Kind is the fixed failure taxonomy surfaced by the analysis core.
type Kind string

const (
	KindValidation          Kind = "validation_error"
	KindConfiguration       Kind = "configuration_error"
	KindProvider            Kind = "provider_error"
	KindRateLimited         Kind = "rate_limited"
	KindDecode              Kind = "decode_error"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
)

// Error is a classified failure. Provider is empty when no provider was involved.
type Error struct {
	Kind     Kind
	Message  string
	Provider string
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := string(e.Kind) + ": " + e.Message
	if e.Provider != "" {
		msg = fmt.Sprintf("%s (provider=%s)", msg, e.Provider)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Retryable reports whether another provider may be tried for this failure.
// Only rate limiting qualifies.
func (e *Error) Retryable() bool {
	return e != nil && e.Kind == KindRateLimited
}

// Validation builds a KindValidation error with a short reason code such as "missing".
func Validation(reason string) *Error {
	return &Error{Kind: KindValidation, Message: reason}
}

// Configuration builds a KindConfiguration error.
func Configuration(message string) *Error {
	return &Error{Kind: KindConfiguration, Message: message}
}

// Provider builds a KindProvider error attributed to providerID.
func Provider(providerID, message string, cause error) *Error {
	return &Error{Kind: KindProvider, Message: message, Provider: providerID, Err: cause}
}

// RateLimited builds a KindRateLimited error attributed to providerID.
func RateLimited(providerID, message string, cause error) *Error {
	return &Error{Kind: KindRateLimited, Message: message, Provider: providerID, Err: cause}
}

// Decode builds a KindDecode error attributed to providerID.
func Decode(providerID string, cause error) *Error {
	return &Error{Kind: KindDecode, Message: "malformed analysis json", Provider: providerID, Err: cause}
}

// UpstreamUnavailable builds a KindUpstreamUnavailable error attributed to providerID.
func UpstreamUnavailable(providerID, message string, cause error) *Error {
	return &Error{Kind: KindUpstreamUnavailable, Message: message, Provider: providerID, Err: cause}
}

// As returns the classified error in err's chain, if any.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) && target != nil {
		return target, true
	}
	return nil, false
}

// KindOf returns the Kind of err, or the empty Kind when err is not classified.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}
