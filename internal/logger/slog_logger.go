package logger

import (
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"slices"
	"sync"
	"time"
)

const (
	// traceLevelValue is slog.Level for TRACE level (below Debug which is -4)
	traceLevelValue = slog.Level(-8)

	// floatPrecisionRatio rounds floats to 3 decimal places in log output
	floatPrecisionRatio = 1000.0

	// defaultAttrCapacity is the default capacity for pooled attribute slices
	defaultAttrCapacity = 8
)

// attrPool provides reusable slices for slog.Attr to reduce allocations.
var attrPool = sync.Pool{
	New: func() any {
		s := make([]slog.Attr, 0, defaultAttrCapacity)
		return &s
	},
}

func getAttrs() *[]slog.Attr {
	ptr, ok := attrPool.Get().(*[]slog.Attr)
	if !ok {
		s := make([]slog.Attr, 0, defaultAttrCapacity)
		return &s
	}
	return ptr
}

func putAttrs(attrs *[]slog.Attr) {
	*attrs = (*attrs)[:0]
	attrPool.Put(attrs)
}

// SlogLogger implements Logger interface using Go's standard log/slog
type SlogLogger struct {
	handler  slog.Handler
	level    slog.Level
	module   string
	timezone *time.Location
	fields   []Field
}

// NewSlogLogger creates a new slog-based logger with JSON output
func NewSlogLogger(writer io.Writer, level LogLevel, timezone *time.Location) *SlogLogger {
	if writer == nil {
		writer = os.Stderr
	}
	if timezone == nil {
		timezone = time.UTC
	}

	opts := &slog.HandlerOptions{
		Level:       parseSlogLevel(level),
		ReplaceAttr: replaceAttr(timezone, true),
	}

	return &SlogLogger{
		handler:  slog.NewJSONHandler(writer, opts),
		level:    parseSlogLevel(level),
		timezone: timezone,
	}
}

// NewTextLogger creates a logger with human-readable text output, typically standard error.
// Timestamps are omitted; the invoking shell or supervisor adds them when needed.
func NewTextLogger(writer io.Writer, module string, level LogLevel) *SlogLogger {
	if writer == nil {
		writer = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:       parseSlogLevel(level),
		ReplaceAttr: replaceAttr(time.Local, false),
	}

	return &SlogLogger{
		handler:  slog.NewTextHandler(writer, opts),
		level:    parseSlogLevel(level),
		module:   module,
		timezone: time.Local,
	}
}

// replaceAttr names the custom trace level and either converts or drops the timestamp.
func replaceAttr(tz *time.Location, keepTime bool) func(groups []string, a slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) > 0 {
			return a
		}
		switch a.Key {
		case slog.TimeKey:
			if !keepTime {
				return slog.Attr{}
			}
			return slog.Time(slog.TimeKey, a.Value.Time().In(tz))
		case slog.LevelKey:
			if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == traceLevelValue {
				return slog.String(slog.LevelKey, "TRACE")
			}
		}
		return a
	}
}

// Module returns a logger scoped to a specific module
func (l *SlogLogger) Module(name string) Logger {
	if l == nil {
		return nil
	}

	moduleName := name
	if l.module != "" {
		moduleName = l.module + "." + name
	}

	return &SlogLogger{
		handler:  l.handler,
		level:    l.level,
		module:   moduleName,
		timezone: l.timezone,
		fields:   slices.Clone(l.fields),
	}
}

// Trace logs a trace message (most verbose level)
func (l *SlogLogger) Trace(msg string, fields ...Field) {
	if l == nil || l.level > traceLevelValue {
		return
	}
	l.log(traceLevelValue, msg, fields...)
}

// Debug logs a debug message
func (l *SlogLogger) Debug(msg string, fields ...Field) {
	if l == nil || l.level > slog.LevelDebug {
		return
	}
	l.log(slog.LevelDebug, msg, fields...)
}

// Info logs an info message
func (l *SlogLogger) Info(msg string, fields ...Field) {
	if l == nil || l.level > slog.LevelInfo {
		return
	}
	l.log(slog.LevelInfo, msg, fields...)
}

// Warn logs a warning message
func (l *SlogLogger) Warn(msg string, fields ...Field) {
	if l == nil || l.level > slog.LevelWarn {
		return
	}
	l.log(slog.LevelWarn, msg, fields...)
}

// Error logs an error message
func (l *SlogLogger) Error(msg string, fields ...Field) {
	if l == nil {
		return
	}
	l.log(slog.LevelError, msg, fields...)
}

// Log logs a message with explicit level
func (l *SlogLogger) Log(level LogLevel, msg string, fields ...Field) {
	if l == nil {
		return
	}
	slogLevel := parseSlogLevel(level)
	if l.level > slogLevel {
		return
	}
	l.log(slogLevel, msg, fields...)
}

// With returns a new logger with accumulated fields
func (l *SlogLogger) With(fields ...Field) Logger {
	if l == nil {
		return nil
	}

	return &SlogLogger{
		handler:  l.handler,
		level:    l.level,
		module:   l.module,
		timezone: l.timezone,
		fields:   slices.Concat(l.fields, fields),
	}
}

// Flush is a no-op; console and writer-backed handlers write synchronously.
func (l *SlogLogger) Flush() error {
	return nil
}

func (l *SlogLogger) log(level slog.Level, msg string, fields ...Field) {
	attrsPtr := getAttrs()
	attrs := *attrsPtr

	if l.module != "" {
		attrs = append(attrs, slog.String(moduleKey, l.module))
	}

	for i := range l.fields {
		attrs = append(attrs, fieldToAttr(l.fields[i]))
	}

	for i := range fields {
		attrs = append(attrs, fieldToAttr(fields[i]))
	}

	slog.New(l.handler).LogAttrs(context.Background(), level, msg, attrs...)

	*attrsPtr = attrs
	putAttrs(attrsPtr)
}

// roundFloat rounds a float64 to 3 decimal places for cleaner log output.
func roundFloat(val float64) float64 {
	return math.Round(val*floatPrecisionRatio) / floatPrecisionRatio
}

// fieldToAttr converts Field to slog.Attr
func fieldToAttr(f Field) slog.Attr {
	switch v := f.Value.(type) {
	case string:
		return slog.String(f.Key, v)
	case int:
		return slog.Int(f.Key, v)
	case float64:
		return slog.Float64(f.Key, roundFloat(v))
	case bool:
		return slog.Bool(f.Key, v)
	default:
		return slog.Any(f.Key, v)
	}
}

// parseSlogLevel converts LogLevel to slog.Level
func parseSlogLevel(level LogLevel) slog.Level {
	switch level {
	case LogLevelTrace:
		return traceLevelValue
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
