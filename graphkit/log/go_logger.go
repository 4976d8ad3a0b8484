package log

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"strings"
)

// GoLogger is the Go built-in (log) implementation of Logger.
//
// All string values are sanitized to prevent log injection (CWE-117).
type GoLogger struct {
	Level  Level
	out    *stdlog.Logger
	fields []Field
	group  string
}

// NewGoLogger returns a GoLogger writing to stderr at the given level.
func NewGoLogger(level Level) *GoLogger {
	return &GoLogger{
		Level: level,
		out:   stdlog.New(os.Stderr, "", stdlog.LstdFlags),
	}
}

// Log writes the entry when level is enabled.
func (l *GoLogger) Log(_ context.Context, level Level, msg string, fields ...Field) {
	if !l.Enabled(level) {
		return
	}

	l.output().Print(l.render(level, msg, fields))
}

// With returns a child logger carrying additional fields.
//
//nolint:ireturn
func (l *GoLogger) With(fields ...Field) Logger {
	if l == nil {
		return &GoLogger{}
	}

	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, l.qualify(fields)...)

	return &GoLogger{Level: l.Level, out: l.out, fields: merged, group: l.group}
}

// WithGroup returns a child logger that prefixes subsequent field keys.
//
//nolint:ireturn
func (l *GoLogger) WithGroup(name string) Logger {
	if l == nil {
		return &GoLogger{}
	}

	group := name
	if l.group != "" {
		group = l.group + "." + name
	}

	return &GoLogger{Level: l.Level, out: l.out, fields: l.fields, group: group}
}

// Enabled reports whether the logger would emit a log at the given level.
func (l *GoLogger) Enabled(level Level) bool {
	if l == nil {
		return false
	}

	return l.Level >= level
}

// Sync is a no-op; the standard logger does not buffer.
func (l *GoLogger) Sync(_ context.Context) error { return nil }

func (l *GoLogger) output() *stdlog.Logger {
	if l.out == nil {
		return stdlog.Default()
	}

	return l.out
}

func (l *GoLogger) qualify(fields []Field) []Field {
	if l.group == "" {
		return fields
	}

	qualified := make([]Field, len(fields))
	for i, f := range fields {
		qualified[i] = Field{Key: l.group + "." + f.Key, Value: f.Value}
	}

	return qualified
}

func (l *GoLogger) render(level Level, msg string, fields []Field) string {
	var b strings.Builder

	b.WriteString("[")
	b.WriteString(level.String())
	b.WriteString("] ")
	b.WriteString(sanitizeLogString(msg))

	all := append(append([]Field{}, l.fields...), l.qualify(fields)...)
	for _, f := range all {
		b.WriteString(" ")
		b.WriteString(sanitizeLogString(f.Key))
		b.WriteString("=")
		b.WriteString(sanitizeLogString(fmt.Sprint(f.Value)))
	}

	return b.String()
}
