// Package logging configures the process-wide slog logger: console output
// plus rotated log files, with warnings and errors duplicated into their own
// file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds the logging settings.
type Config struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string `yaml:"level"`
	// Format selects text or json output.
	Format string `yaml:"format"`
	// Dir is where rotated log files go.
	Dir string `yaml:"dir"`
	// Console enables stdout logging.
	Console bool `yaml:"console"`
	// File enables rotated file logging.
	File     bool           `yaml:"file"`
	Rotation RotationConfig `yaml:"rotation"`
}

// RotationConfig holds lumberjack rotation settings.
type RotationConfig struct {
	MaxSize    int  `yaml:"max_size"` // MB
	MaxBackups int  `yaml:"max_backups"`
	MaxAge     int  `yaml:"max_age"` // days
	Compress   bool `yaml:"compress"`
}

// DefaultConfig returns the default logging settings.
func DefaultConfig() Config {
	return Config{
		Level:   "info",
		Format:  "text",
		Dir:     "logs",
		Console: true,
		File:    false,
		Rotation: RotationConfig{
			MaxSize:    100,
			MaxBackups: 10,
			MaxAge:     30,
			Compress:   true,
		},
	}
}

var (
	openFilesMu sync.Mutex
	openFiles   []*lumberjack.Logger
)

// Initialize builds the logger from cfg and installs it as the process
// default.
func Initialize(cfg Config) error {
	logger, err := NewLogger(cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	slog.Info("logging initialized", "level", cfg.Level, "format", cfg.Format, "console", cfg.Console, "file", cfg.File)
	return nil
}

// NewLogger builds a logger from cfg without touching the process default.
func NewLogger(cfg Config) (*slog.Logger, error) {
	level := parseLevel(cfg.Level)

	var handlers []slog.Handler
	if cfg.Console {
		handlers = append(handlers, newHandler(os.Stdout, cfg.Format, level))
	}

	if cfg.File {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory %s: %w", cfg.Dir, err)
		}

		mainFile := newRotatedFile(filepath.Join(cfg.Dir, "jugalbandi.log"), cfg.Rotation)
		handlers = append(handlers, newHandler(mainFile, cfg.Format, level))

		// Warnings and errors are duplicated into their own file so they
		// survive rotation of the chattier main log.
		errorFile := newRotatedFile(filepath.Join(cfg.Dir, "errors.log"), cfg.Rotation)
		handlers = append(handlers, newLevelFilter(newHandler(errorFile, cfg.Format, slog.LevelWarn), slog.LevelWarn))
	}

	switch len(handlers) {
	case 0:
		return slog.New(newHandler(io.Discard, cfg.Format, level)), nil
	case 1:
		return slog.New(handlers[0]), nil
	default:
		return slog.New(newMultiHandler(handlers...)), nil
	}
}

// Shutdown closes every rotated log file opened since startup.
func Shutdown() error {
	openFilesMu.Lock()
	defer openFilesMu.Unlock()

	var firstErr error
	for _, file := range openFiles {
		if err := file.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close log file %s: %w", file.Filename, err)
		}
	}
	openFiles = nil
	return firstErr
}

func newRotatedFile(path string, rotation RotationConfig) *lumberjack.Logger {
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    rotation.MaxSize,
		MaxBackups: rotation.MaxBackups,
		MaxAge:     rotation.MaxAge,
		Compress:   rotation.Compress,
	}
	openFilesMu.Lock()
	openFiles = append(openFiles, file)
	openFilesMu.Unlock()
	return file
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
