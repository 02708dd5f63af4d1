package credentials

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// CLIHandler handles the apikey commands
type CLIHandler struct {
	manager *Manager
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// NewCLIHandler creates a new CLI handler for API key commands
func NewCLIHandler(manager *Manager, stdin io.Reader, stdout, stderr io.Writer) *CLIHandler {
	return &CLIHandler{
		manager: manager,
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
	}
}

// Set stores key in the keyring, prompting for it when key is empty
func (h *CLIHandler) Set(key string) error {
	if key == "" {
		var err error
		key, err = PromptSecret(h.stdin, h.stdout, "TheMealDB API key")
		if err != nil {
			return fmt.Errorf("failed to read API key: %w", err)
		}
	}

	if err := h.manager.SetAPIKey(context.Background(), key); err != nil {
		if errors.Is(err, ErrKeyringNotAvailable) {
			return h.keyringNotAvailableError()
		}
		return fmt.Errorf("failed to store API key: %w", err)
	}

	_, _ = fmt.Fprintf(h.stdout, "API key stored in system keyring\n")
	return nil
}

// keyringNotAvailableError returns a helpful error message when keyring is not available
func (h *CLIHandler) keyringNotAvailableError() error {
	msg := fmt.Sprintf(`System keyring not available.

Alternative: set the key in the environment instead:

  export %s="your-api-key"

Run 'recipefinder apikey status' to verify the key is detected.
`, EnvAPIKey)

	return errors.New(msg)
}

// Status shows which key is in use and where it came from
func (h *CLIHandler) Status(jsonOutput bool) error {
	info := h.manager.Resolve(context.Background())

	if jsonOutput {
		jsonBytes, err := info.JSON()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(h.stdout, string(jsonBytes))
		return nil
	}

	_, _ = fmt.Fprintf(h.stdout, "Source: %s\n", info.Source)
	_, _ = fmt.Fprintf(h.stdout, "Key: %s\n", info.Masked())
	if info.Source == SourceDefault {
		_, _ = fmt.Fprintf(h.stdout, "\nUsing the public test key. Run 'recipefinder apikey set' to store your own.\n")
	}
	return nil
}

// Clear removes the stored key
func (h *CLIHandler) Clear() error {
	if err := h.manager.ClearAPIKey(context.Background()); err != nil {
		return fmt.Errorf("failed to remove API key: %w", err)
	}

	_, _ = fmt.Fprintf(h.stdout, "API key removed from system keyring\n")
	return nil
}
