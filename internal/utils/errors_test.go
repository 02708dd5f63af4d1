package utils

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// TestErrorWithSuggestionError verifies Error() method output
func TestErrorWithSuggestionError(t *testing.T) {
	err := &ErrorWithSuggestion{
		Err:        errors.New("something went wrong"),
		Suggestion: "Try doing X",
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "something went wrong") {
		t.Errorf("Error() should contain error message, got: %s", errStr)
	}
	if !strings.Contains(errStr, "Suggestion: Try doing X") {
		t.Errorf("Error() should contain suggestion, got: %s", errStr)
	}
}

// TestErrorWithSuggestionUnwrap verifies Unwrap() for error chain
func TestErrorWithSuggestionUnwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := WrapWithSuggestion(underlying, "suggestion")

	if !errors.Is(err, underlying) {
		t.Error("wrapped error should match underlying with errors.Is")
	}
}

func TestNetworkErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *NetworkError
		want string
	}{
		{"status only", &NetworkError{URL: "http://x/a", StatusCode: 500}, "returned 500"},
		{"transport", &NetworkError{URL: "http://x/a", Err: errors.New("dial tcp: refused")}, "dial tcp: refused"},
		{"status and cause", &NetworkError{URL: "http://x/a", StatusCode: 200, Err: errors.New("bad json")}, "bad json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); !strings.Contains(got, tt.want) {
				t.Errorf("Error() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestIsNetworkErrorThroughWrapping(t *testing.T) {
	base := &NetworkError{URL: "u", StatusCode: 503}
	wrapped := fmt.Errorf("search: %w", ErrUpstreamOffline(base))

	if !IsNetworkError(wrapped) {
		t.Error("IsNetworkError should see through wrapping")
	}
	if IsNotFound(wrapped) {
		t.Error("IsNotFound should be false for a network error")
	}
}

func TestErrRecipeNotFound(t *testing.T) {
	err := ErrRecipeNotFound("52772")
	if !IsNotFound(err) {
		t.Fatal("ErrRecipeNotFound should wrap NotFoundError")
	}
	if !strings.Contains(err.Error(), "52772") {
		t.Errorf("error should mention the id, got %q", err.Error())
	}
}

func TestMalformedStorageErrorUnwrap(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := &MalformedStorageError{Key: "favorites", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("MalformedStorageError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), `"favorites"`) {
		t.Errorf("error should name the key, got %q", err.Error())
	}
}

// TestSmartSuggestions verifies suggestions adapt to the failure reason
func TestSmartSuggestions(t *testing.T) {
	tests := []struct {
		reason string
		want   string
	}{
		{"dial tcp: lookup www.themealdb.com: no such host", "DNS"},
		{"connect: connection refused", "base URL"},
		{"context deadline exceeded", "slow"},
		{"API rate limit exceeded", "Too many requests"},
		{"something else", "internet connection"},
	}

	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			err := ErrUpstreamOffline(errors.New(tt.reason))
			var ws *ErrorWithSuggestion
			if !errors.As(err, &ws) {
				t.Fatal("expected ErrorWithSuggestion")
			}
			if !strings.Contains(ws.GetSuggestion(), tt.want) {
				t.Errorf("suggestion %q should contain %q", ws.GetSuggestion(), tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(nil, "fallback"); got != "" {
		t.Errorf("UserMessage(nil) = %q, want empty", got)
	}
	if got := UserMessage(ErrRecipeNotFound("1"), "fallback"); got != "Recipe not found" {
		t.Errorf("not found message = %q", got)
	}
	if got := UserMessage(ErrEmptySearch(), "fallback"); got != "Type something to search" {
		t.Errorf("empty search message = %q", got)
	}
	net := ErrUpstreamOffline(&NetworkError{URL: "u", StatusCode: 500})
	if got := UserMessage(net, "Search failed — try again"); got != "Search failed — try again" {
		t.Errorf("network message = %q, want fallback", got)
	}
}
