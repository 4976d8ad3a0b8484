package config

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/LerianStudio/lib-graphkit/graphkit/backoff"
)

// Mapping is a host application's configuration: named settings with
// loosely typed values.
type Mapping map[string]any

// SetDefault stores value under key unless key is already present and
// returns the value that ends up stored.
func (m Mapping) SetDefault(key string, value any) any {
	if current, ok := m[key]; ok {
		return current
	}

	m[key] = value

	return value
}

// Clone returns a shallow copy of m.
func (m Mapping) Clone() Mapping {
	if m == nil {
		return Mapping{}
	}

	return maps.Clone(m)
}

// Auth is a basic-auth credential pair.
type Auth struct {
	Username string
	Password string
	Realm    string
}

// String never exposes the password.
func (a Auth) String() string {
	return fmt.Sprintf("Auth{Username:%q}", a.Username)
}

// Settings is the fully populated record resolved from a Mapping.
type Settings struct {
	URI                   string
	Auth                  Auth
	Database              string
	MaxConnectionPoolSize int
	ConnectionTimeout     time.Duration
	Retry                 backoff.Policy
	DriverConfig          map[string]any
}

// Resolve fills every absent key of m with its default and returns the
// resulting settings. Values the caller set are kept in m untouched; values
// that cannot be interpreted resolve to the default in the returned
// Settings. A nil mapping resolves to the defaults.
func Resolve(m Mapping) Settings {
	if m == nil {
		m = Mapping{}
	}

	defaults := Default()
	for _, key := range Keys {
		m.SetDefault(key, defaults[key])
	}

	return Settings{
		URI:                   stringValue(m[KeyURI], DefaultURI),
		Auth:                  authValue(m[KeyAuth]),
		Database:              stringValue(m[KeyDatabase], DefaultDatabase),
		MaxConnectionPoolSize: intValue(m[KeyMaxConnectionPoolSize], DefaultMaxConnectionPoolSize),
		ConnectionTimeout:     secondsValue(m[KeyConnectionTimeout], seconds(DefaultConnectionTimeout)),
		Retry: backoff.Policy{
			Enabled:  boolValue(m[KeyConnectionRetry], DefaultConnectionRetry),
			Interval: secondsValue(m[KeyRetryInterval], seconds(DefaultRetryInterval)),
			Count:    intValue(m[KeyRetryCount], DefaultRetryCount),
		},
		DriverConfig: mapValue(m[KeyDriverConfig]),
	}
}

// DriverOptions returns the extra driver options with pool size and
// connection timeout merged underneath: keys already present in
// DriverConfig win.
func (s Settings) DriverOptions() map[string]any {
	options := make(map[string]any, len(s.DriverConfig)+2)
	maps.Copy(options, s.DriverConfig)

	if _, ok := options[OptionMaxConnectionPoolSize]; !ok {
		options[OptionMaxConnectionPoolSize] = s.MaxConnectionPoolSize
	}

	if _, ok := options[OptionConnectionTimeout]; !ok {
		options[OptionConnectionTimeout] = s.ConnectionTimeout
	}

	return options
}

func stringValue(v any, fallback string) string {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return fallback
	}

	return s
}

// IntValue coerces ints, floats and numeric strings.
func IntValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, true
		}

		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return int(f), true
		}
	}

	return 0, false
}

func intValue(v any, fallback int) int {
	if i, ok := IntValue(v); ok {
		return i
	}

	return fallback
}

// DurationValue interprets bare numbers as seconds and also accepts
// time.Duration and Go duration strings ("1m30s").
func DurationValue(v any) (time.Duration, bool) {
	switch d := v.(type) {
	case time.Duration:
		return d, true
	case int, int32, int64, uint:
		i, _ := IntValue(d)
		return time.Duration(i) * time.Second, true
	case float32:
		return seconds(float64(d)), true
	case float64:
		return seconds(d), true
	case string:
		trimmed := strings.TrimSpace(d)
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return seconds(f), true
		}

		if parsed, err := time.ParseDuration(trimmed); err == nil {
			return parsed, true
		}
	}

	return 0, false
}

func secondsValue(v any, fallback time.Duration) time.Duration {
	if d, ok := DurationValue(v); ok {
		return d
	}

	return fallback
}

func boolValue(v any, fallback bool) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(b)); err == nil {
			return parsed
		}
	case int:
		return b != 0
	}

	return fallback
}

// authValue accepts Auth, *Auth, a two-element string list, a map with
// username/password keys, or the "user/password" form used by Neo4j
// container images.
func authValue(v any) Auth {
	fallback := Auth{Username: DefaultUsername, Password: DefaultPassword}

	switch a := v.(type) {
	case Auth:
		return a
	case *Auth:
		if a != nil {
			return *a
		}
	case [2]string:
		return Auth{Username: a[0], Password: a[1]}
	case []string:
		if len(a) >= 2 {
			return Auth{Username: a[0], Password: a[1]}
		}
	case []any:
		if len(a) >= 2 {
			user, okUser := a[0].(string)
			pass, okPass := a[1].(string)

			if okUser && okPass {
				return Auth{Username: user, Password: pass}
			}
		}
	case map[string]any:
		user, okUser := a["username"].(string)
		pass, okPass := a["password"].(string)

		if okUser && okPass {
			realm, _ := a["realm"].(string)
			return Auth{Username: user, Password: pass, Realm: realm}
		}
	case string:
		if user, pass, found := strings.Cut(a, "/"); found && user != "" {
			return Auth{Username: user, Password: pass}
		}
	}

	return fallback
}

func mapValue(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		if m != nil {
			return maps.Clone(m)
		}
	case Mapping:
		if m != nil {
			return maps.Clone(map[string]any(m))
		}
	}

	return map[string]any{}
}
