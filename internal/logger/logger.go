package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

type Level = log.Level

const (
	LevelDebug = log.DebugLevel
	LevelInfo  = log.InfoLevel
	LevelWarn  = log.WarnLevel
	LevelError = log.ErrorLevel
)

var (
	mu  sync.RWMutex
	std = newLogger(os.Stderr)
)

func newLogger(w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           LevelInfo,
		Formatter:       log.TextFormatter,
		ReportTimestamp: true,
		Prefix:          "task-tracker",
	})
}

// Configure replaces the package logger. level is one of debug, info, warn,
// error; format is text, json or logfmt.
func Configure(w io.Writer, level, format string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	formatter, err := parseFormatter(format)
	if err != nil {
		return err
	}

	l := newLogger(w)
	l.SetLevel(lvl)
	l.SetFormatter(formatter)

	mu.Lock()
	std = l
	mu.Unlock()
	return nil
}

func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

func parseFormatter(format string) (log.Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	default:
		return log.TextFormatter, fmt.Errorf("unknown log format %q", format)
	}
}

func SetLevel(level Level) {
	current().SetLevel(level)
}

func current() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return std
}

type fieldsKey struct{}

// WithFields returns a context whose fields are attached to every record
// logged with it.
func WithFields(ctx context.Context, keyvals ...any) context.Context {
	prev, _ := ctx.Value(fieldsKey{}).([]any)
	fields := make([]any, 0, len(prev)+len(keyvals))
	fields = append(fields, prev...)
	fields = append(fields, keyvals...)
	return context.WithValue(ctx, fieldsKey{}, fields)
}

func from(ctx context.Context) *log.Logger {
	l := current()
	if ctx == nil {
		return l
	}
	if fields, ok := ctx.Value(fieldsKey{}).([]any); ok && len(fields) > 0 {
		return l.With(fields...)
	}
	return l
}

func Debug(ctx context.Context, msg string, keyvals ...any) {
	from(ctx).Debug(msg, keyvals...)
}

func Info(ctx context.Context, msg string, keyvals ...any) {
	from(ctx).Info(msg, keyvals...)
}

func Warn(ctx context.Context, msg string, keyvals ...any) {
	from(ctx).Warn(msg, keyvals...)
}

// Error logs msg with err attached under the "err" key. A nil err logs msg alone.
func Error(ctx context.Context, err error, msg string, keyvals ...any) {
	if err != nil {
		keyvals = append([]any{"err", err.Error()}, keyvals...)
	}
	from(ctx).Error(msg, keyvals...)
}
