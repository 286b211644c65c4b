// Package logging provides structured logging for both CLI and GUI modes.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Modes accepted by NewLogger.
const (
	ModeCLI = "cli"
	ModeGUI = "gui"
)

// Logger wraps zerolog with mode-specific behavior.
type Logger struct {
	zlog   zerolog.Logger
	mode   string
	output io.Writer
	closer io.Closer
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
	}
}

// NewLogger creates a new logger for the specified mode writing to w.
// A nil w means stderr: stdout carries command output (listings, whoami).
func NewLogger(mode string, w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	output := consoleWriter(w)

	return &Logger{
		zlog:   zerolog.New(output).With().Timestamp().Logger(),
		mode:   mode,
		output: output,
	}
}

// NewDefaultCLILogger creates a default CLI logger.
func NewDefaultCLILogger() *Logger {
	return NewLogger(ModeCLI, nil)
}

// NewFileLogger creates a GUI logger that writes to stderr and appends
// JSON lines to path. The parent directory is created if missing.
func NewFileLogger(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	output := zerolog.MultiLevelWriter(consoleWriter(os.Stderr), f)
	return &Logger{
		zlog:   zerolog.New(output).With().Timestamp().Logger(),
		mode:   ModeGUI,
		output: output,
		closer: f,
	}, nil
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Mode returns "cli" or "gui".
func (l *Logger) Mode() string {
	return l.mode
}

// Info returns an info level event.
func (l *Logger) Info() *zerolog.Event {
	return l.zlog.Info()
}

// Error returns an error level event.
func (l *Logger) Error() *zerolog.Event {
	return l.zlog.Error()
}

// Debug returns a debug level event.
func (l *Logger) Debug() *zerolog.Event {
	return l.zlog.Debug()
}

// Warn returns a warn level event.
func (l *Logger) Warn() *zerolog.Event {
	return l.zlog.Warn()
}

// With creates a child logger context with additional fields.
func (l *Logger) With() zerolog.Context {
	return l.zlog.With()
}

// Named returns a copy of the logger tagged with a component field.
func (l *Logger) Named(component string) *Logger {
	return &Logger{
		zlog:   l.zlog.With().Str("component", component).Logger(),
		mode:   l.mode,
		output: l.output,
	}
}

// SetOutput changes the output writer for the logger.
// Used to route log lines through an active progress bar.
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
	l.zlog = zerolog.New(consoleWriter(w)).With().Timestamp().Logger()
}

// Output returns the current output writer.
func (l *Logger) Output() io.Writer {
	return l.output
}

// Debugf logs a debug message with printf-style formatting.
// This is only shown when debug/verbose mode is enabled.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.zlog.Debug().Msgf(format, args...)
}

// Infof logs an info message with printf-style formatting.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.zlog.Info().Msgf(format, args...)
}

// Errorf logs an error message with printf-style formatting.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.zlog.Error().Msgf(format, args...)
}

// Warnf logs a warning message with printf-style formatting.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.zlog.Warn().Msgf(format, args...)
}

// Nop returns a logger that discards everything. Used by tests and as the
// default for components constructed without a logger.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop(), mode: ModeCLI, output: io.Discard}
}

// SetGlobalLevel sets the global log level.
func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

// SetDebug switches the global level between debug and info.
func SetDebug(debug bool) {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Logger = log.Output(consoleWriter(os.Stderr))
}
