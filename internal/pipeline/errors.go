package pipeline

// errors.go - the error kinds named in §7 as Kind values carried by one
// Error type that wraps an underlying cause, plus two sentinel Errors,
// following the teacher's ExchangeError shape
// (internal/exchange/interface.go) generalized across every pipeline
// component instead of one per exchange.

import (
	"errors"
	"fmt"
)

// Kind names one of the error kinds from the error-handling design.
type Kind string

const (
	KindTransport       Kind = "TransportError"
	KindDecode          Kind = "DecodeError"
	KindRateLimit       Kind = "RateLimitError"
	KindDeadlineExceeded Kind = "DeadlineExceeded"
	KindInvariant       Kind = "InvariantError"
	KindOverload        Kind = "OverloadError"
)

// Error wraps an underlying cause with a Kind and the component that
// raised it, and supports errors.Is/errors.As via Unwrap.
type Error struct {
	Kind      Kind
	Component string
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Component, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Component, e.Kind, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a pipeline Error.
func New(kind Kind, component string, cause error) *Error {
	return &Error{Kind: kind, Component: component, Cause: cause}
}

// IsKind reports whether err (or any error it wraps) is a pipeline
// Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}

var (
	ErrOverloaded       = New(KindOverload, "intake", errors.New("concurrency budget exhausted"))
	ErrDeadlineExceeded = New(KindDeadlineExceeded, "enrichment", errors.New("orchestrator deadline reached"))
)
