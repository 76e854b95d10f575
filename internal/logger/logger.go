// Package logger provides levelled logging for the manualqa CLI and MCP server.
// It keeps a small package-level API (Debug, Info, Warn, Error, Section)
// backed by zerolog. The --verbose flag forces debug output so users can
// follow the ingest, retrieval and generation pipeline.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Formats accepted by Configure.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options configures the logger.
type Options struct {
	// Level is one of debug, info, warn (or warning), error. Empty keeps the current level.
	Level string

	// Format is console or json. Empty keeps the current format.
	Format string

	// File, when set, receives a JSON copy of every entry.
	File string
}

var (
	mu      sync.RWMutex
	verbose bool
	file    *os.File
	log     zerolog.Logger
	level   zerolog.Level = zerolog.WarnLevel
	format  string        = FormatConsole
	output  io.Writer     = os.Stderr
)

func init() {
	rebuild()
}

// Configure applies level, format and file sink settings.
func Configure(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	if opts.Level != "" {
		lvl, err := ParseLevel(opts.Level)
		if err != nil {
			return err
		}
		level = lvl
	}

	switch strings.ToLower(opts.Format) {
	case "":
	case FormatConsole, FormatJSON:
		format = strings.ToLower(opts.Format)
	default:
		return fmt.Errorf("logger: unknown format %q", opts.Format)
	}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("logger: open %s: %w", opts.File, err)
		}
		if file != nil {
			_ = file.Close()
		}
		file = f
	}

	rebuild()
	return nil
}

// Close releases the file sink, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	rebuild()
	return err
}

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return zerolog.NoLevel, fmt.Errorf("logger: unknown level %q", s)
	}
	return lvl, nil
}

// SetVerbose enables or disables verbose logging.
// Verbose mode logs at debug level regardless of the configured level.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	rebuild()
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	rebuild()
}

// Level returns the effective level.
func Level() zerolog.Level {
	mu.RLock()
	defer mu.RUnlock()
	return log.GetLevel()
}

// Debug logs a debug message.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Debug().Msgf(format, args...)
}

// Section logs a pipeline section header at debug level.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	log.Debug().Str("section", name).Msg("=== " + name + " ===")
}

// Info logs an informational message.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Info().Msgf(format, args...)
}

// Warn logs a warning message.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Warn().Msgf(format, args...)
}

// Error logs an error message.
func Error(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Error().Msgf(format, args...)
}

// rebuild recreates the logger. Callers must hold mu for writing.
func rebuild() {
	var w io.Writer = output
	if format == FormatConsole {
		w = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339, NoColor: !isTerminal(output)}
	}
	if file != nil {
		w = zerolog.MultiLevelWriter(w, file)
	}

	lvl := level
	if verbose {
		lvl = zerolog.DebugLevel
	}
	log = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
