// Package logging provides structured logging for weeekbot using Go's slog.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

type contextKey string

const (
	conversationKey contextKey = "conversation_id"
	dialogKey       contextKey = "dialog_id"
	componentKey    contextKey = "component"
)

var (
	defaultLogger *slog.Logger
	loggerMu      sync.RWMutex
)

func init() {
	defaultLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// Config holds logging configuration.
type Config struct {
	Level    string          `yaml:"level"`    // debug, info, warn, error
	Format   string          `yaml:"format"`   // json, text
	Output   string          `yaml:"output"`   // stdout, stderr, or file path
	Rotation *RotationConfig `yaml:"rotation"` // only used for file output
}

// RotationConfig holds log rotation settings.
type RotationConfig struct {
	MaxSize    string `yaml:"max_size"` // e.g. "50MB"
	MaxAge     string `yaml:"max_age"`  // e.g. "7d"
	MaxBackups int    `yaml:"max_backups"`
}

// DefaultConfig returns the logging defaults.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "text",
		Output: "stdout",
	}
}

// Init replaces the global logger according to cfg.
func Init(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level := parseLevel(cfg.Level)
	writer, err := openOutput(cfg)
	if err != nil {
		return err
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	SetLogger(slog.New(handler))
	return nil
}

// SetLogger installs l as the global logger. Tests use it to capture output.
func SetLogger(l *slog.Logger) {
	loggerMu.Lock()
	defaultLogger = l
	loggerMu.Unlock()
}

// Suppress discards all log output. The console chat uses it so log lines do
// not interleave with the conversation.
func Suppress() {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	SetLogger(discard)
	slog.SetDefault(discard)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openOutput(cfg *Config) (io.Writer, error) {
	switch cfg.Output {
	case "stdout", "":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		return newRotatingWriter(cfg.Output, cfg.Rotation)
	}
}

// Logger returns the global logger.
func Logger() *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return defaultLogger
}

// WithComponent returns a logger tagged with a component attribute.
func WithComponent(component string) *slog.Logger {
	return Logger().With(slog.String("component", component))
}

// WithConversation returns a logger tagged with a conversation id.
func WithConversation(conversationID string) *slog.Logger {
	return Logger().With(slog.String("conversation_id", conversationID))
}

// WithContext returns a logger carrying the ids stored in ctx.
func WithContext(ctx context.Context) *slog.Logger {
	logger := Logger()
	if v, ok := ctx.Value(componentKey).(string); ok {
		logger = logger.With(slog.String("component", v))
	}
	if v, ok := ctx.Value(conversationKey).(string); ok {
		logger = logger.With(slog.String("conversation_id", v))
	}
	if v, ok := ctx.Value(dialogKey).(string); ok {
		logger = logger.With(slog.String("dialog_id", v))
	}
	return logger
}

// ContextWithConversation stores a conversation id in ctx.
func ContextWithConversation(ctx context.Context, conversationID string) context.Context {
	return context.WithValue(ctx, conversationKey, conversationID)
}

// ContextWithDialog stores a dialog id in ctx.
func ContextWithDialog(ctx context.Context, dialogID string) context.Context {
	return context.WithValue(ctx, dialogKey, dialogID)
}

// ContextWithComponent stores a component name in ctx.
func ContextWithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// Debug logs at debug level.
func Debug(msg string, args ...any) { Logger().Debug(msg, args...) }

// Info logs at info level.
func Info(msg string, args ...any) { Logger().Info(msg, args...) }

// Warn logs at warn level.
func Warn(msg string, args ...any) { Logger().Warn(msg, args...) }

// Error logs at error level.
func Error(msg string, args ...any) { Logger().Error(msg, args...) }
