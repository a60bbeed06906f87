package contracts

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData marks a per-ticker computation with too few observations
	ErrInsufficientData = errors.New("insufficient data")

	// ErrDegenerateNormalizer marks a zero max or zero standard deviation during normalization
	ErrDegenerateNormalizer = errors.New("degenerate normalizer")

	// ErrNoRiskFreeData marks an empty risk-free window
	ErrNoRiskFreeData = errors.New("no risk-free observations in window")
)

// ValidationError reports an invalid input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// UpstreamFetchError reports a failed external fetch with enough context to diagnose it
type UpstreamFetchError struct {
	URL     string
	Status  int
	Snippet string
	Err     error
}

func (e *UpstreamFetchError) Error() string {
	msg := fmt.Sprintf("fetch %s failed", e.URL)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Snippet != "" {
		msg += fmt.Sprintf(" [response: %s]", e.Snippet)
	}
	return msg
}

func (e *UpstreamFetchError) Unwrap() error {
	return e.Err
}

// Snippet truncates a response body for error context
func Snippet(body []byte, max int) string {
	if len(body) > max {
		return string(body[:max])
	}
	return string(body)
}
