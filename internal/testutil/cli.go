// Package testutil provides shared test utilities for CLI testing across packages.
// This enables co-located CLI tests while maintaining consistent test infrastructure.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"recipefinder/cmd/recipefinder/cmd"
	"recipefinder/internal/credentials"
	"recipefinder/internal/storage"
)

// defaultTestConfig is the minimal config used by test constructors to ensure isolation.
const defaultTestConfig = "# test config\nlogging:\n  file_enabled: false\n"

// CLITest provides a test helper for running CLI commands in isolation.
type CLITest struct {
	t          *testing.T
	cfg        *cmd.Config
	tmpDir     string
	configPath string
	fake       *FakeMealDB
	keyring    *credentials.MockKeyring
}

// NewCLITest creates a CLI test helper with a temporary database, a fake
// TheMealDB server, an in-memory keyring and an empty environment.
func NewCLITest(t *testing.T) *CLITest {
	t.Helper()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Write a minimal default config to ensure isolation
	if err := os.WriteFile(configPath, []byte(defaultTestConfig), 0644); err != nil {
		t.Fatalf("failed to create config file: %v", err)
	}

	fake := NewFakeMealDB(t)
	keyring := credentials.NewMockKeyring()

	cfg := &cmd.Config{
		NoPrompt:   true,
		DBPath:     filepath.Join(tmpDir, "test.db"),
		ConfigPath: configPath,
		BaseURL:    fake.BaseURL(),
		Keyring:    keyring,
		Getenv:     func(string) string { return "" },
	}

	return &CLITest{
		t:          t,
		cfg:        cfg,
		tmpDir:     tmpDir,
		configPath: configPath,
		fake:       fake,
		keyring:    keyring,
	}
}

// Config returns the test configuration.
func (c *CLITest) Config() *cmd.Config {
	return c.cfg
}

// TmpDir returns the temporary directory for the test.
func (c *CLITest) TmpDir() string {
	return c.tmpDir
}

// ConfigPath returns the path to the config file.
func (c *CLITest) ConfigPath() string {
	return c.configPath
}

// API returns the fake TheMealDB server.
func (c *CLITest) API() *FakeMealDB {
	return c.fake
}

// Keyring returns the in-memory keyring.
func (c *CLITest) Keyring() *credentials.MockKeyring {
	return c.keyring
}

// SetFullConfig replaces the entire config file with the given YAML content.
func (c *CLITest) SetFullConfig(yamlContent string) {
	c.t.Helper()
	if err := os.WriteFile(c.configPath, []byte(yamlContent), 0644); err != nil {
		c.t.Fatalf("failed to write config file: %v", err)
	}
}

// SetStdin feeds input to interactive prompts.
func (c *CLITest) SetStdin(input string) {
	c.cfg.Stdin = strings.NewReader(input)
}

// SetEnv replaces the environment seen by the API key lookup.
func (c *CLITest) SetEnv(env map[string]string) {
	c.cfg.Getenv = func(key string) string { return env[key] }
}

// OpenStore opens the test database directly. The store is closed on cleanup.
func (c *CLITest) OpenStore() *storage.Store {
	c.t.Helper()
	s, err := storage.Open(c.cfg.DBPath)
	if err != nil {
		c.t.Fatalf("failed to open database: %v", err)
	}
	c.t.Cleanup(func() { _ = s.Close() })
	return s
}

// StoredValue reads a raw key from the test database.
func (c *CLITest) StoredValue(key string) (string, bool) {
	c.t.Helper()
	s, err := storage.Open(c.cfg.DBPath)
	if err != nil {
		c.t.Fatalf("failed to open database: %v", err)
	}
	defer func() { _ = s.Close() }()

	v, ok, err := s.Get(context.Background(), key)
	if err != nil {
		c.t.Fatalf("failed to read %s: %v", key, err)
	}
	return v, ok
}

// Execute runs a CLI command with the given arguments and returns stdout, stderr, and exit code.
func (c *CLITest) Execute(args ...string) (stdout, stderr string, exitCode int) {
	c.t.Helper()

	var stdoutBuf, stderrBuf bytes.Buffer
	exitCode = cmd.Execute(args, &stdoutBuf, &stderrBuf, c.cfg)
	return stdoutBuf.String(), stderrBuf.String(), exitCode
}

// MustExecute runs a CLI command and fails the test if exit code is non-zero.
func (c *CLITest) MustExecute(args ...string) string {
	c.t.Helper()

	stdout, stderr, exitCode := c.Execute(args...)
	if exitCode != 0 {
		c.t.Fatalf("expected exit code 0, got %d: stdout=%s stderr=%s", exitCode, stdout, stderr)
	}
	return stdout
}

// ExecuteAndFail runs a CLI command and fails the test if exit code is zero.
func (c *CLITest) ExecuteAndFail(args ...string) (stdout, stderr string) {
	c.t.Helper()

	stdout, stderr, exitCode := c.Execute(args...)
	if exitCode == 0 {
		c.t.Fatalf("expected non-zero exit code, got 0: stdout=%s", stdout)
	}
	return stdout, stderr
}

// AssertContains fails the test if output doesn't contain expected string.
func AssertContains(t *testing.T, output, expected string) {
	t.Helper()
	if !strings.Contains(output, expected) {
		t.Errorf("expected output to contain %q, got:\n%s", expected, output)
	}
}

// AssertNotContains fails the test if output contains unexpected string.
func AssertNotContains(t *testing.T, output, unexpected string) {
	t.Helper()
	if strings.Contains(output, unexpected) {
		t.Errorf("expected output NOT to contain %q, got:\n%s", unexpected, output)
	}
}

// AssertExitCode fails the test if exit code doesn't match expected.
func AssertExitCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("expected exit code %d, got %d", want, got)
	}
}

// AssertResultCode verifies that the output ends with the expected result code.
func AssertResultCode(t *testing.T, output, expectedCode string) {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) == 0 {
		t.Errorf("expected result code %q but output is empty", expectedCode)
		return
	}
	lastLine := strings.TrimSpace(lines[len(lines)-1])
	if lastLine != expectedCode {
		t.Errorf("expected result code %q, got %q\nFull output:\n%s", expectedCode, lastLine, output)
	}
}

// Result code constants for convenience.
const (
	ResultActionCompleted = cmd.ResultActionCompleted
	ResultInfoOnly        = cmd.ResultInfoOnly
	ResultError           = cmd.ResultError
)
