package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies an extraction failure for the scheduler's retry policy.
type Kind string

const (
	KindTimeout     Kind = "timeout"      // per-call deadline exceeded
	KindRateLimited Kind = "rate_limited" // HTTP 429 from the endpoint
	KindTransient   Kind = "transient"    // network fault or 5xx
	KindMalformed   Kind = "malformed"    // bad input or unusable response; never retried
)

// ExtractError wraps an extraction failure with its retry classification.
type ExtractError struct {
	Kind Kind
	Err  error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// NewError builds a classified extraction error.
func NewError(kind Kind, err error) *ExtractError {
	return &ExtractError{Kind: kind, Err: err}
}

// KindOf returns the classification of err, mapping unclassified errors to
// KindTransient so an unknown failure mode stays retryable.
func KindOf(err error) Kind {
	var ee *ExtractError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	return KindTransient
}

// IsRetryable reports whether the scheduler may re-attempt after err.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindTimeout, KindRateLimited, KindTransient:
		return true
	}
	return false
}
