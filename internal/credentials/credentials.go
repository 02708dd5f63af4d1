// Package credentials resolves the TheMealDB API key from the OS keyring,
// the environment, or the public default key, in that order.
package credentials

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Source indicates where the API key was resolved from
type Source string

const (
	SourceKeyring     Source = "keyring"
	SourceEnvironment Source = "environment"
	SourceDefault     Source = "default"
)

const (
	// ServiceName is the keyring service entries are stored under.
	ServiceName = "recipefinder"
	// Account is the keyring account holding the API key.
	Account = "themealdb"
	// EnvAPIKey overrides the default key when no keyring entry exists.
	EnvAPIKey = "RECIPEFINDER_API_KEY"
	// DefaultAPIKey is TheMealDB's public test key.
	DefaultAPIKey = "1"
)

// ErrKeyringNotAvailable is returned when the OS has no usable keyring.
var ErrKeyringNotAvailable = errors.New("system keyring not available")

// KeyInfo describes a resolved API key
type KeyInfo struct {
	Source Source
	Key    string
}

// Masked returns the key with everything but the last two characters hidden.
func (k *KeyInfo) Masked() string {
	if len(k.Key) <= 2 {
		return k.Key
	}
	return strings.Repeat("*", len(k.Key)-2) + k.Key[len(k.Key)-2:]
}

// JSON serializes the key info to JSON (key masked)
func (k *KeyInfo) JSON() ([]byte, error) {
	output := struct {
		Source string `json:"source"`
		Key    string `json:"key"`
	}{
		Source: string(k.Source),
		Key:    k.Masked(),
	}
	return json.Marshal(output)
}

// Keyring is the interface for keyring operations
type Keyring interface {
	Set(service, account, password string) error
	Get(service, account string) (string, error)
	Delete(service, account string) error
}

// Manager handles API key operations
type Manager struct {
	keyring Keyring
	getenv  func(string) string
}

// ManagerOption is a functional option for Manager
type ManagerOption func(*Manager)

// WithKeyring sets a custom keyring implementation
func WithKeyring(k Keyring) ManagerOption {
	return func(m *Manager) {
		m.keyring = k
	}
}

// WithEnv replaces os.Getenv, mainly for tests.
func WithEnv(getenv func(string) string) ManagerOption {
	return func(m *Manager) {
		m.getenv = getenv
	}
}

// NewManager creates a new credential manager
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		keyring: &systemKeyring{},
		getenv:  os.Getenv,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetAPIKey stores key in the keyring
func (m *Manager) SetAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("API key is empty")
	}
	return m.keyring.Set(ServiceName, Account, key)
}

// Resolve returns the API key to use. It never fails: without a keyring
// entry or environment override the public key is returned.
func (m *Manager) Resolve(ctx context.Context) *KeyInfo {
	// Priority 1: keyring
	if key, err := m.keyring.Get(ServiceName, Account); err == nil && strings.TrimSpace(key) != "" {
		return &KeyInfo{Source: SourceKeyring, Key: strings.TrimSpace(key)}
	}

	// Priority 2: environment
	if key := strings.TrimSpace(m.getenv(EnvAPIKey)); key != "" {
		return &KeyInfo{Source: SourceEnvironment, Key: key}
	}

	return &KeyInfo{Source: SourceDefault, Key: DefaultAPIKey}
}

// ClearAPIKey removes the stored key from the keyring
func (m *Manager) ClearAPIKey(ctx context.Context) error {
	err := m.keyring.Delete(ServiceName, Account)
	// Idempotent: return nil if not found
	if err != nil && strings.Contains(err.Error(), "not found") {
		return nil
	}
	return err
}

// PromptSecret asks for a secret. When reader is a terminal the input is
// not echoed; otherwise a single line is read.
func PromptSecret(reader io.Reader, writer io.Writer, label string) (string, error) {
	_, _ = fmt.Fprintf(writer, "Enter %s: ", label)

	if f, ok := reader.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(writer)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	scanner := bufio.NewScanner(reader)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("no input received")
}
