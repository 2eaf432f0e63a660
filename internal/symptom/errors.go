package symptom

import (
	"errors"
	"fmt"
)

var (
	// ErrLLMUnavailable means every configured provider failed for a check.
	ErrLLMUnavailable = errors.New("llm unavailable")
	// ErrMalformedModelOutput means a provider answered but the payload was unusable.
	ErrMalformedModelOutput = errors.New("malformed model output")
	// ErrPersistence marks a check whose history write failed after a successful analysis.
	ErrPersistence = errors.New("history persistence failed")
	// ErrQueued accompanies ErrPersistence when the record was handed to the retry queue.
	ErrQueued = errors.New("history write queued for retry")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ParseError describes why a provider answer could not be used.
type ParseError struct {
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrMalformedModelOutput, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrMalformedModelOutput, e.Field, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrMalformedModelOutput }
