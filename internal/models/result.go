package models

import (
	"fmt"
)

// Outcome discriminates a provider Result.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	// OutcomeEmpty means the provider was reachable but had nothing for the query.
	// It is not an error and must not be escalated.
	OutcomeEmpty
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeEmpty:
		return "empty"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// FailureKind classifies why a provider call failed.
type FailureKind int

const (
	FailureTransport FailureKind = iota
	FailureSchemaMismatch
	FailureProvider
	FailureMissingCredential
)

func (k FailureKind) String() string {
	switch k {
	case FailureTransport:
		return "transport"
	case FailureSchemaMismatch:
		return "schema_mismatch"
	case FailureProvider:
		return "provider_error"
	case FailureMissingCredential:
		return "missing_credential"
	default:
		return "unknown"
	}
}

// Failure is the normalized error every provider client reports.
type Failure struct {
	Kind    FailureKind
	Code    string
	Message string
	Err     error
}

func (f *Failure) Error() string {
	switch {
	case f.Kind == FailureProvider:
		return fmt.Sprintf("%s: code=%s message=%s", f.Kind, f.Code, f.Message)
	case f.Err != nil && f.Message != "":
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	case f.Err != nil:
		return fmt.Sprintf("%s: %v", f.Kind, f.Err)
	case f.Message != "":
		return fmt.Sprintf("%s: %s", f.Kind, f.Message)
	default:
		return f.Kind.String()
	}
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func TransportFailure(err error) *Failure {
	return &Failure{Kind: FailureTransport, Err: err}
}

func SchemaFailure(msg string, err error) *Failure {
	return &Failure{Kind: FailureSchemaMismatch, Message: msg, Err: err}
}

func ProviderFailure(code, msg string) *Failure {
	return &Failure{Kind: FailureProvider, Code: code, Message: msg}
}

func MissingCredential(name string) *Failure {
	return &Failure{Kind: FailureMissingCredential, Message: name + " is not configured"}
}

// Result is the uniform outcome of a provider call.
type Result[T any] struct {
	Outcome Outcome
	Value   T
	Failure *Failure
}

func Success[T any](v T) Result[T] {
	return Result[T]{Outcome: OutcomeSuccess, Value: v}
}

func Empty[T any]() Result[T] {
	return Result[T]{Outcome: OutcomeEmpty}
}

func Fail[T any](f *Failure) Result[T] {
	return Result[T]{Outcome: OutcomeFailure, Failure: f}
}

func (r Result[T]) OK() bool {
	return r.Outcome == OutcomeSuccess
}

// Describe renders the outcome for logs and the status trail.
func (r Result[T]) Describe() string {
	switch r.Outcome {
	case OutcomeFailure:
		if r.Failure != nil {
			return r.Failure.Error()
		}
		return OutcomeFailure.String()
	default:
		return r.Outcome.String()
	}
}
