package domain

import (
	"fmt"
	"time"
)

// ErrorKind is the top-level taxonomy from the error handling design: each
// pipeline stage fails with exactly one of these, never a bare error.
type ErrorKind string

const (
	KindValidation ErrorKind = "ValidationError"
	KindConfig     ErrorKind = "ConfigError"
	KindEmbedding  ErrorKind = "EmbeddingError"
	KindRetrieval  ErrorKind = "RetrievalError"
	KindLLM        ErrorKind = "LLMError"
	KindTimeout    ErrorKind = "Timeout"
)

// SubKind refines EmbeddingError, RetrievalError, and LLMError.
type SubKind string

const (
	SubKindInvalidInput SubKind = "InvalidInput"
	SubKindShape        SubKind = "Shape"
	SubKindTransient    SubKind = "Transient"
	SubKindPermanent    SubKind = "Permanent"

	SubKindStoreUnavailable    SubKind = "StoreUnavailable"
	SubKindFilterIncompatible  SubKind = "FilterIncompatible"

	SubKindLLMTimeout SubKind = "Timeout"
)

// StageError is the typed error every pipeline stage returns. It carries
// enough structure for the Orchestrator to emit a single audit `error`
// event and map to an HTTP status without inspecting error strings.
type StageError struct {
	Stage     string
	Kind      ErrorKind
	SubKind   SubKind
	Message   string
	Err       error
	Timestamp time.Time
}

func (e *StageError) Error() string {
	if e.SubKind != "" {
		return fmt.Sprintf("%s[%s/%s]: %s", e.Stage, e.Kind, e.SubKind, e.Message)
	}
	return fmt.Sprintf("%s[%s]: %s", e.Stage, e.Kind, e.Message)
}

func (e *StageError) Unwrap() error { return e.Err }

// Retryable reports whether the caller may retry the same call once,
// per the sub-kind policy in the error handling design.
func (e *StageError) Retryable() bool {
	switch e.Kind {
	case KindEmbedding, KindRetrieval, KindLLM:
		return e.SubKind == SubKindTransient || e.SubKind == SubKindStoreUnavailable
	}
	return false
}

// NewStageError builds a StageError, stamping the current time.
func NewStageError(stage string, kind ErrorKind, sub SubKind, msg string, cause error) *StageError {
	return &StageError{
		Stage:     stage,
		Kind:      kind,
		SubKind:   sub,
		Message:   msg,
		Err:       cause,
		Timestamp: time.Now(),
	}
}

func NewValidationError(stage, msg string) *StageError {
	return NewStageError(stage, KindValidation, "", msg, nil)
}

func NewConfigError(stage, msg string, cause error) *StageError {
	return NewStageError(stage, KindConfig, "", msg, cause)
}

func NewEmbeddingError(stage string, sub SubKind, msg string, cause error) *StageError {
	return NewStageError(stage, KindEmbedding, sub, msg, cause)
}

func NewRetrievalError(stage string, sub SubKind, msg string, cause error) *StageError {
	return NewStageError(stage, KindRetrieval, sub, msg, cause)
}

func NewLLMError(stage string, sub SubKind, msg string, cause error) *StageError {
	return NewStageError(stage, KindLLM, sub, msg, cause)
}

func NewTimeoutError(stage, msg string) *StageError {
	return NewStageError(stage, KindTimeout, "", msg, nil)
}

// HTTPStatus maps an ErrorKind to the status codes enumerated in the
// external interface: 400 validation; 404 service unavailable; 429
// rate-limit (assigned by the rate limiter, not here); 5xx server
// errors; 504 timeouts.
func (e *StageError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return 400
	case KindTimeout:
		return 504
	case KindRetrieval:
		if e.SubKind == SubKindStoreUnavailable {
			return 404
		}
		return 500
	case KindEmbedding, KindLLM, KindConfig:
		return 500
	default:
		return 500
	}
}
