package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUploadFailed      = errors.New("upload failed")
	ErrConversionFailed  = errors.New("conversion failed")
	ErrTimedOut          = errors.New("timed out")
	ErrPersistence       = errors.New("persistence failure")
	ErrProviderHard      = errors.New("provider hard failure")
	ErrProviderSoft      = errors.New("provider soft failure")
	ErrMalformedResponse = errors.New("malformed provider response")
	ErrRecordNotFound    = errors.New("record not found")
	ErrRunInProgress     = errors.New("analysis run already in progress")
	ErrTemporary         = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// AggregateProviderError is returned when every provider in a priority
// list failed. Last holds the most recent individual failure.
type AggregateProviderError struct {
	Attempts int
	Last     error
}

func (e *AggregateProviderError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("all %d providers failed", e.Attempts)
	}
	return fmt.Sprintf("all %d providers failed, last: %v", e.Attempts, e.Last)
}

func (e *AggregateProviderError) Unwrap() error {
	return e.Last
}
