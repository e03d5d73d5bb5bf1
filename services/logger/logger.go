package logger

import (
	"fmt"
	"log"
	"strings"

	"go.uber.org/zap"
)

type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	ErrorLevel
)

// ParseLevel maps LOG_LEVEL values; unknown values fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "error":
		return ErrorLevel
	}
	return InfoLevel
}

// Logger is the printf-style logging surface used by every service.
type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
	Debug(format string, v ...interface{})
}

// DefaultLogger writes through the standard log package.
type DefaultLogger struct {
	level Level
}

func NewDefaultLogger(level Level) *DefaultLogger {
	return &DefaultLogger{level: level}
}

func (l *DefaultLogger) Info(format string, v ...interface{}) {
	if l.level <= InfoLevel {
		log.Printf("[INFO] "+format, v...)
	}
}

func (l *DefaultLogger) Error(format string, v ...interface{}) {
	if l.level <= ErrorLevel {
		log.Printf("[ERROR] "+format, v...)
	}
}

func (l *DefaultLogger) Debug(format string, v ...interface{}) {
	if l.level <= DebugLevel {
		log.Printf("[DEBUG] "+format, v...)
	}
}

// ZapLogger adapts a zap logger to Logger.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger builds a production zap logger at the given level.
func NewZapLogger(level Level) (*ZapLogger, error) {
	cfg := zap.NewProductionConfig()
	switch level {
	case DebugLevel:
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case ErrorLevel:
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}
	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &ZapLogger{sugar: z.Sugar()}, nil
}

func NewZapLoggerFrom(z *zap.Logger) *ZapLogger {
	return &ZapLogger{sugar: z.Sugar()}
}

// With returns a logger carrying extra structured fields.
func (l *ZapLogger) With(fields ...zap.Field) *ZapLogger {
	return &ZapLogger{sugar: l.sugar.Desugar().With(fields...).Sugar()}
}

func (l *ZapLogger) Info(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

func (l *ZapLogger) Error(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

func (l *ZapLogger) Debug(format string, v ...interface{}) {
	l.sugar.Debugf(format, v...)
}

func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}

// Nop discards everything.
type Nop struct{}

func (Nop) Info(string, ...interface{})  {}
func (Nop) Error(string, ...interface{}) {}
func (Nop) Debug(string, ...interface{}) {}
