package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides leveled logging with verbose mode support.
type Logger struct {
	mu      sync.RWMutex
	verbose bool
	level   zap.AtomicLevel
	sugar   *zap.SugaredLogger
	closer  io.Closer
}

var (
	loggerInstance *Logger
	once           sync.Once
)

// GetLogger returns the process-wide logger. It writes to stderr until
// RedirectToFile or SetOutput is called.
func GetLogger() *Logger {
	once.Do(func() {
		loggerInstance = NewLogger(os.Stderr)
	})
	return loggerInstance
}

// NewLogger creates a logger writing console-encoded entries to w.
func NewLogger(w io.Writer) *Logger {
	l := &Logger{level: zap.NewAtomicLevelAt(zapcore.InfoLevel)}
	l.sugar = newSugar(zapcore.AddSync(w), l.level)
	return l
}

func newSugar(ws zapcore.WriteSyncer, level zap.AtomicLevel) *zap.SugaredLogger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), ws, level)
	return zap.New(core).Sugar()
}

// SetVerboseMode sets the verbose mode globally.
func SetVerboseMode(verbose bool) {
	GetLogger().SetVerbose(verbose)
}

// SetVerbose toggles debug output for this logger instance.
func (l *Logger) SetVerbose(verbose bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = verbose
	if verbose {
		l.level.SetLevel(zapcore.DebugLevel)
	} else {
		l.level.SetLevel(zapcore.InfoLevel)
	}
}

// SetLevel parses a level name ("debug", "info", "warn", "error").
// Unknown names leave the level unchanged.
func (l *Logger) SetLevel(name string) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level.SetLevel(lvl)
	l.verbose = lvl <= zapcore.DebugLevel
}

// IsVerbose returns whether verbose mode is enabled.
func (l *Logger) IsVerbose() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.verbose
}

// SetOutput replaces the destination of all subsequent log entries.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sugar = newSugar(zapcore.AddSync(w), l.level)
}

// RedirectToFile sends log output to path, creating parent directories.
// The TUI owns the terminal, so interactive sessions log here instead of stderr.
// On failure the logger keeps its current output.
func (l *Logger) RedirectToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closer != nil {
		_ = l.closer.Close()
	}
	l.sugar = newSugar(zapcore.AddSync(f), l.level)
	l.closer = f
	return nil
}

// Discard silences all output.
func (l *Logger) Discard() {
	l.SetOutput(io.Discard)
}

// Sync flushes buffered entries and closes a log file opened by RedirectToFile.
func (l *Logger) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.sugar.Sync()
	if l.closer != nil {
		err := l.closer.Close()
		l.closer = nil
		l.sugar = newSugar(zapcore.AddSync(io.Discard), l.level)
		return err
	}
	return nil
}

func (l *Logger) s() *zap.SugaredLogger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sugar
}

// formatMessage formats a message with optional printf-style arguments.
func formatMessage(msgOrFormat string, args ...interface{}) string {
	if len(args) > 0 {
		return fmt.Sprintf(msgOrFormat, args...)
	}
	return msgOrFormat
}

// Debug logs a debug message (only shown when verbose=true).
// Can be used with a simple message or printf-style format string with args.
func (l *Logger) Debug(msgOrFormat string, args ...interface{}) {
	l.s().Debug(formatMessage(msgOrFormat, args...))
}

// Info logs an info message.
func (l *Logger) Info(msgOrFormat string, args ...interface{}) {
	l.s().Info(formatMessage(msgOrFormat, args...))
}

// Warn logs a warning message.
func (l *Logger) Warn(msgOrFormat string, args ...interface{}) {
	l.s().Warn(formatMessage(msgOrFormat, args...))
}

// Error logs an error message.
func (l *Logger) Error(msgOrFormat string, args ...interface{}) {
	l.s().Error(formatMessage(msgOrFormat, args...))
}

// With returns a structured child logger with the given key/value pairs,
// e.g. With("module", "cache").
func (l *Logger) With(keysAndValues ...interface{}) *zap.SugaredLogger {
	return l.s().With(keysAndValues...)
}

// Debugf is a convenience function that logs a debug message using the global logger.
func Debugf(format string, args ...interface{}) {
	GetLogger().Debug(format, args...)
}

// Infof is a convenience function that logs an info message using the global logger.
func Infof(format string, args ...interface{}) {
	GetLogger().Info(format, args...)
}

// Warnf is a convenience function that logs a warning message using the global logger.
func Warnf(format string, args ...interface{}) {
	GetLogger().Warn(format, args...)
}

// Errorf is a convenience function that logs an error message using the global logger.
func Errorf(format string, args ...interface{}) {
	GetLogger().Error(format, args...)
}
