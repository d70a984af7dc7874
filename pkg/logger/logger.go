// Package logger provides structured JSON logging for the achievement hub.
// Entries carry a level, a message, the caller and a flat set of fields.
package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	// LevelDebug is for detailed debugging information.
	LevelDebug Level = iota
	// LevelInfo is for general operational information.
	LevelInfo
	// LevelWarn is for recoverable anomalies.
	LevelWarn
	// LevelError is for failures that were contained.
	LevelError
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string into a Level. Unknown values map to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// F creates a new Field with the given key and value.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

func String(key, value string) Field  { return Field{Key: key, Value: value} }
func Int(key string, value int) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Any creates a field with any value.
func Any(key string, value any) Field { return Field{Key: key, Value: value} }

// Entry is a single serialized log line.
type Entry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Caller    string         `json:"caller,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Logger writes structured entries to an io.Writer. It is safe for concurrent use.
type Logger struct {
	mu        *sync.Mutex
	output    io.Writer
	level     Level
	fields    []Field
	addCaller bool
}

// Options configures the logger.
type Options struct {
	Output    io.Writer
	Level     Level
	AddCaller bool
}

// DefaultOptions returns sensible defaults for the logger.
func DefaultOptions() Options {
	return Options{
		Output:    os.Stdout,
		Level:     LevelInfo,
		AddCaller: true,
	}
}

// New creates a new Logger with the given options.
func New(opts Options) *Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Logger{
		mu:        &sync.Mutex{},
		output:    opts.Output,
		level:     opts.Level,
		addCaller: opts.AddCaller,
	}
}

// Default creates a logger with default options.
func Default() *Logger {
	return New(DefaultOptions())
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return New(Options{Output: io.Discard, Level: LevelError + 1})
}

// With returns a new Logger with the given fields added.
// The returned logger shares the output and its lock with the parent.
func (l *Logger) With(fields ...Field) *Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &Logger{
		mu:        l.mu,
		output:    l.output,
		level:     l.level,
		fields:    merged,
		addCaller: l.addCaller,
	}
}

func (l *Logger) log(level Level, msg string, fields ...Field) {
	if level < l.level {
		return
	}

	entry := Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   msg,
	}

	if l.addCaller {
		if _, file, line, ok := runtime.Caller(2); ok {
			if idx := strings.LastIndex(file, "/"); idx >= 0 {
				file = file[idx+1:]
			}
			entry.Caller = fmt.Sprintf("%s:%d", file, line)
		}
	}

	if n := len(l.fields) + len(fields); n > 0 {
		entry.Fields = make(map[string]any, n)
		for _, f := range l.fields {
			entry.Fields[f.Key] = f.Value
		}
		for _, f := range fields {
			entry.Fields[f.Key] = f.Value
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(l.output, "%s [%s] %s\n", entry.Timestamp, entry.Level, msg)
		return
	}

	l.output.Write(append(data, '\n'))
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...Field) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...Field) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...Field) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...Field) {
	l.log(LevelError, msg, fields...)
}

type ctxKey struct{}

// WithContext returns a new context with the logger attached.
func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext retrieves the logger from context, or returns a default logger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return Default()
}

// Domain field helpers.
func UserID(id string) Field          { return String("user_id", id) }
func UserName(name string) Field      { return String("user_name", name) }
func Achievement(name string) Field   { return String("achievement", name) }
func Points(points int) Field         { return Int("points", points) }
func Observer(name string) Field      { return String("observer", name) }
func Component(name string) Field     { return String("component", name) }
func Operation(name string) Field     { return String("operation", name) }
func Latency(d time.Duration) Field   { return Duration("latency", d) }
func Children(names []string) Field   { return Any("children", names) }
func Unresolved(names []string) Field { return Any("unresolved", names) }
