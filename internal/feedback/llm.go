package feedback

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"
)

// Request is a single text-completion call.
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Completer is a text-completion service.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ErrorKind classifies provider failures.
type ErrorKind string

const (
	KindAuth          ErrorKind = "auth"
	KindRateLimit     ErrorKind = "rate_limit"
	KindTransient     ErrorKind = "transient"
	KindContentPolicy ErrorKind = "content_policy"
	KindOther         ErrorKind = "other"
)

// ProviderError is a classified failure from an LLM provider.
type ProviderError struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s error (status %d): %s", e.Provider, e.Kind, e.StatusCode, truncate(e.Message, 200))
	}
	return fmt.Sprintf("%s %s error: %s", e.Provider, e.Kind, truncate(e.Message, 200))
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Retryable reports whether the call may succeed if repeated later.
func (e *ProviderError) Retryable() bool {
	return e.Kind == KindRateLimit || e.Kind == KindTransient
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Retryable()
}

// KindOf returns the classification of err, or KindOther.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindOther
}

// kindForStatus maps an HTTP status from any provider to an ErrorKind.
func kindForStatus(code int) ErrorKind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindAuth
	case code == http.StatusTooManyRequests:
		return KindRateLimit
	case code == http.StatusRequestTimeout || code >= 500:
		return KindTransient
	default:
		return KindOther
	}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
