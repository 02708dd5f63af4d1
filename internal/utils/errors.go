package utils

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorWithSuggestion wraps an error with a user-friendly suggestion.
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface.
func (e *ErrorWithSuggestion) Error() string {
	return fmt.Sprintf("%s\n\nSuggestion: %s", e.Err.Error(), e.Suggestion)
}

// GetSuggestion returns the suggestion text.
func (e *ErrorWithSuggestion) GetSuggestion() string {
	return e.Suggestion
}

// Unwrap returns the underlying error for error chain support.
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// WrapWithSuggestion wraps an existing error with a suggestion.
func WrapWithSuggestion(err error, suggestion string) error {
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// NetworkError reports a failed upstream read: the transport failed, the
// server answered with a non-success status, or the body was not JSON.
type NetworkError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("network error: %s returned %d: %v", e.URL, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("network error: %s returned %d", e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("network error: %s: %v", e.URL, e.Err)
	}
}

// Unwrap returns the transport cause.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a lookup that matched no recipe.
type NotFoundError struct {
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("recipe not found: %s", e.ID)
}

// MalformedStorageError reports durable data that could not be decoded.
// Callers treat the value as empty; it is logged, never surfaced.
type MalformedStorageError struct {
	Key string
	Err error
}

// Error implements the error interface.
func (e *MalformedStorageError) Error() string {
	return fmt.Sprintf("malformed stored value for %q: %v", e.Key, e.Err)
}

// Unwrap returns the decode error.
func (e *MalformedStorageError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err wraps a NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ErrRecipeNotFound returns a suggestion-wrapped NotFoundError.
func ErrRecipeNotFound(id string) error {
	return &ErrorWithSuggestion{
		Err:        &NotFoundError{ID: id},
		Suggestion: "Check the recipe id or use 'recipefinder search <term>' to find one",
	}
}

// ErrUpstreamOffline wraps a network failure with a context-aware suggestion.
func ErrUpstreamOffline(err error) error {
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: getSmartSuggestion(err.Error()),
	}
}

// ErrEmptySearch returns the error for a blank search term.
func ErrEmptySearch() error {
	return &ErrorWithSuggestion{
		Err:        errors.New("search term is empty"),
		Suggestion: "Type something to search",
	}
}

// ErrInvalidTheme returns an error for an unknown theme name.
func ErrInvalidTheme(name string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid theme: %s", name),
		Suggestion: "Valid options: light, dark",
	}
}

// getSmartSuggestion returns a context-aware suggestion based on the error reason.
func getSmartSuggestion(reason string) string {
	lowerReason := strings.ToLower(reason)

	if strings.Contains(lowerReason, "no such host") || strings.Contains(lowerReason, "dns") {
		return "Check your DNS settings and internet connection"
	}

	if strings.Contains(lowerReason, "connection refused") {
		return "Check if the API base URL in your config is correct"
	}

	if strings.Contains(lowerReason, "timeout") || strings.Contains(lowerReason, "deadline exceeded") {
		return "TheMealDB may be slow or unreachable. Try again later"
	}

	if strings.Contains(lowerReason, "rate limit") || strings.Contains(lowerReason, "429") {
		return "Too many requests. Wait a moment before retrying"
	}

	return "Check your internet connection and try again"
}

// UserMessage maps err to the short text shown in the status line.
// fallback is used for network failures and anything unrecognised.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if IsNotFound(err) {
		return "Recipe not found"
	}
	var ws *ErrorWithSuggestion
	if errors.As(err, &ws) && !IsNetworkError(err) {
		return ws.Suggestion
	}
	return fallback
}
