package dynamix

import (
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Logger receives the structured dispatch records: one per attempt and one
// per terminal outcome. Key/value pairs alternate in kv.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

type logLevel int

const (
	debugLevel logLevel = iota
	infoLevel
	warnLevel
	errorLevel
)

// log forwards to the configured logger. A misbehaving logger must never
// abort a dispatch, so panics are swallowed here.
func (c *Client) log(level logLevel, msg string, kv ...any) {
	if c.logger == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	switch level {
	case debugLevel:
		c.logger.Debug(msg, kv...)
	case infoLevel:
		c.logger.Info(msg, kv...)
	case warnLevel:
		c.logger.Warn(msg, kv...)
	case errorLevel:
		c.logger.Error(msg, kv...)
	}
}

// SimpleLogger writes leveled key=value lines to stderr. Intended for
// examples and debugging; production setups should prefer NewZapLogger.
type SimpleLogger struct {
	l *log.Logger
}

// NewSimpleLogger creates a console logger.
func NewSimpleLogger() *SimpleLogger {
	return &SimpleLogger{l: log.New(os.Stderr, "dynamix ", log.LstdFlags|log.Lmsgprefix)}
}

// Debug implements Logger.
func (s *SimpleLogger) Debug(msg string, kv ...any) { s.emit("DEBUG", msg, kv) }

// Info implements Logger.
func (s *SimpleLogger) Info(msg string, kv ...any) { s.emit("INFO", msg, kv) }

// Warn implements Logger.
func (s *SimpleLogger) Warn(msg string, kv ...any) { s.emit("WARN", msg, kv) }

// Error implements Logger.
func (s *SimpleLogger) Error(msg string, kv ...any) { s.emit("ERROR", msg, kv) }

func (s *SimpleLogger) emit(level, msg string, kv []any) {
	var b strings.Builder
	b.WriteString(level)
	b.WriteByte(' ')
	b.WriteString(msg)
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	s.l.Print(b.String())
}

// zapLogger adapts a zap logger to the Logger interface.
type zapLogger struct {
	s *zap.SugaredLogger
}

// NewZapLogger wraps a zap logger for use as the client logger.
func NewZapLogger(l *zap.Logger) Logger {
	return &zapLogger{s: l.Sugar()}
}

func (z *zapLogger) Debug(msg string, kv ...any) { z.s.Debugw(msg, kv...) }
func (z *zapLogger) Info(msg string, kv ...any)  { z.s.Infow(msg, kv...) }
func (z *zapLogger) Warn(msg string, kv ...any)  { z.s.Warnw(msg, kv...) }
func (z *zapLogger) Error(msg string, kv ...any) { z.s.Errorw(msg, kv...) }
