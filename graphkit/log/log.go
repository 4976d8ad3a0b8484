package log

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Logger is what the extension, the hosts and the servers log through.
// Implementations must be safe for concurrent use.
type Logger interface {
	Log(ctx context.Context, level Level, msg string, fields ...Field)
	With(fields ...Field) Logger
	WithGroup(name string) Logger
	Enabled(level Level) bool
	Sync(ctx context.Context) error
}

// Level orders entries by severity, most severe first: a logger at LevelWarn
// emits errors and warnings only.
type Level uint8

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

var levelNames = [...]string{
	LevelError: "error",
	LevelWarn:  "warn",
	LevelInfo:  "info",
	LevelDebug: "debug",
}

func (level Level) String() string {
	if int(level) < len(levelNames) {
		return levelNames[level]
	}

	return "unknown"
}

// ParseLevel accepts the names printed by String plus "warning", in any case.
func ParseLevel(name string) (Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		return LevelWarn, nil
	}

	for level, known := range levelNames {
		if name == known {
			return Level(level), nil
		}
	}

	return LevelError, fmt.Errorf("not a valid Level: %q", name)
}

// MarshalText lets a Level round-trip through config files and flags.
func (level Level) MarshalText() ([]byte, error) {
	return []byte(level.String()), nil
}

// UnmarshalText parses text with ParseLevel.
func (level *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}

	*level = parsed

	return nil
}

// Field is one key/value attribute of a log entry.
type Field struct {
	Key   string
	Value any
}

func field[T any](key string, value T) Field {
	return Field{Key: key, Value: value}
}

// Any attaches an arbitrary value. Connection strings belong in URI, not here.
func Any(key string, value any) Field { return field(key, value) }

func String(key, value string) Field { return field(key, value) }

func Int(key string, value int) Field { return field(key, value) }

func Bool(key string, value bool) Field { return field(key, value) }

func Duration(key string, value time.Duration) Field { return field(key, value) }

// URI attaches a connection URI with its user info and password parameters
// masked by RedactURI.
func URI(key, uri string) Field { return field(key, RedactURI(uri)) }

// Err attaches err under the "error" key.
func Err(err error) Field { return field("error", err) }

// Discard drops every entry. It is the logger of any component built without
// one.
var Discard Logger = discard{}

// NewNop returns Discard.
//
//nolint:ireturn
func NewNop() Logger { return Discard }

type discard struct{}

func (discard) Log(context.Context, Level, string, ...Field) {}

//nolint:ireturn
func (d discard) With(...Field) Logger { return d }

//nolint:ireturn
func (d discard) WithGroup(string) Logger { return d }

func (discard) Enabled(Level) bool { return false }

func (discard) Sync(context.Context) error { return nil }
