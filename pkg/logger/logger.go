package logger

import (
	"context"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration
type Config struct {
	// Level is one of debug, info, warn, error. Environment names are also
	// accepted: "development" maps to debug, anything else to info.
	Level       string
	ServiceName string
	Development bool
}

// Logger wraps zap.Logger with the service name attached
type Logger struct {
	zl *zap.Logger
}

var (
	global *Logger
	mu     sync.RWMutex
)

// Init builds the global logger
func Init(cfg *Config) error {
	if cfg == nil {
		cfg = &Config{Level: "info"}
	}

	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.TimeKey = "timestamp"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zcfg.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))

	zl, err := zcfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	if cfg.ServiceName != "" {
		zl = zl.With(zap.String("service", cfg.ServiceName))
	}

	mu.Lock()
	global = &Logger{zl: zl}
	mu.Unlock()
	return nil
}

// Get returns the global logger, falling back to a no-op logger before Init
func Get() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	if global == nil {
		return &Logger{zl: zap.NewNop()}
	}
	return global
}

// New wraps an existing zap logger. Mostly useful in tests with zaptest.
func New(zl *zap.Logger) *Logger {
	return &Logger{zl: zl}
}

// Sync flushes any buffered log entries
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if global != nil {
		_ = global.zl.Sync()
	}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug", "development", "dev", "local":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// With returns a child logger with the given fields
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{zl: l.zl.With(fields...)}
}

func (l *Logger) Debug(msg string, fields ...zap.Field) { l.zl.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)  { l.zl.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.zl.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.zl.Error(msg, fields...) }
func (l *Logger) Fatal(msg string, fields ...zap.Field) { l.zl.Fatal(msg, fields...) }

// InfoContext logs at info level with trace/span ids from ctx
func (l *Logger) InfoContext(ctx context.Context, msg string, fields ...zap.Field) {
	l.zl.Info(msg, append(fields, traceFields(ctx)...)...)
}

// WarnContext logs at warn level with trace/span ids from ctx
func (l *Logger) WarnContext(ctx context.Context, msg string, fields ...zap.Field) {
	l.zl.Warn(msg, append(fields, traceFields(ctx)...)...)
}

// ErrorContext logs at error level with trace/span ids from ctx
func (l *Logger) ErrorContext(ctx context.Context, msg string, fields ...zap.Field) {
	l.zl.Error(msg, append(fields, traceFields(ctx)...)...)
}

// Zap exposes the underlying zap logger
func (l *Logger) Zap() *zap.Logger {
	return l.zl
}

func traceFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}
