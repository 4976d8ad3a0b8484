package neo4j

import (
	"context"
	"sort"
	"time"

	"github.com/LerianStudio/lib-graphkit/graphkit/config"
	driver "github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Record is a single row returned by a query.
type Record = driver.Record

// Result is the subset of a query result the extension consumes.
type Result interface {
	Collect(ctx context.Context) ([]*Record, error)
}

// Session is the subset of a driver session the extension consumes.
type Session interface {
	Run(ctx context.Context, cypher string, params map[string]any) (Result, error)
	Close(ctx context.Context) error
}

// Driver is the capability contract of the wrapped graph driver: verify
// connectivity, open sessions and close.
type Driver interface {
	VerifyConnectivity(ctx context.Context) error
	NewSession(ctx context.Context, cfg driver.SessionConfig) Session
	Close(ctx context.Context) error
}

// DriverFactory constructs a driver for uri with basic auth and the merged
// driver options. It must not verify connectivity.
type DriverFactory func(ctx context.Context, uri string, auth config.Auth, options map[string]any) (Driver, error)

// OptionWarner receives the names of driver options that were not applied.
type OptionWarner func(key string, value any)

// NewDriver is the production DriverFactory backed by neo4j-go-driver.
func NewDriver(_ context.Context, uri string, auth config.Auth, options map[string]any) (Driver, error) {
	return newDriver(uri, auth, options, nil)
}

func newDriver(uri string, auth config.Auth, options map[string]any, warn OptionWarner) (Driver, error) {
	d, err := driver.NewDriverWithContext(
		uri,
		driver.BasicAuth(auth.Username, auth.Password, auth.Realm),
		func(cfg *driver.Config) {
			ApplyDriverOptions(cfg, options, warn)
		},
	)
	if err != nil {
		return nil, err
	}

	return &driverAdapter{driver: d}, nil
}

// ApplyDriverOptions copies options onto cfg. Durations are read as seconds
// when given as bare numbers. Keys that are unknown or carry unusable values
// are reported to warn and skipped.
func ApplyDriverOptions(cfg *driver.Config, options map[string]any, warn OptionWarner) {
	keys := make([]string, 0, len(options))
	for key := range options {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		if !applyDriverOption(cfg, key, options[key]) && warn != nil {
			warn(key, options[key])
		}
	}
}

func applyDriverOption(cfg *driver.Config, key string, value any) bool {
	switch key {
	case config.OptionMaxConnectionPoolSize:
		return setInt(&cfg.MaxConnectionPoolSize, value)
	case "fetch_size":
		return setInt(&cfg.FetchSize, value)
	case config.OptionConnectionTimeout:
		return setDuration(&cfg.SocketConnectTimeout, value)
	case "connection_acquisition_timeout":
		return setDuration(&cfg.ConnectionAcquisitionTimeout, value)
	case "max_connection_lifetime":
		return setDuration(&cfg.MaxConnectionLifetime, value)
	case "max_transaction_retry_time":
		return setDuration(&cfg.MaxTransactionRetryTime, value)
	case "liveness_check_timeout":
		return setDuration(&cfg.ConnectionLivenessCheckTimeout, value)
	case "keep_alive":
		b, ok := value.(bool)
		if ok {
			cfg.SocketKeepalive = b
		}

		return ok
	case "user_agent":
		s, ok := value.(string)
		if ok {
			cfg.UserAgent = s
		}

		return ok
	}

	return false
}

func setInt(dst *int, value any) bool {
	i, ok := config.IntValue(value)
	if ok {
		*dst = i
	}

	return ok
}

func setDuration(dst *time.Duration, value any) bool {
	d, ok := config.DurationValue(value)
	if ok {
		*dst = d
	}

	return ok
}

// Unwrap returns the neo4j-go-driver driver behind d when d was built by
// NewDriver.
func Unwrap(d Driver) (driver.DriverWithContext, bool) {
	adapter, ok := d.(*driverAdapter)
	if !ok || adapter == nil {
		return nil, false
	}

	return adapter.driver, true
}

// UnwrapSession returns the neo4j-go-driver session behind s, giving access
// to managed transactions (ExecuteRead, ExecuteWrite).
func UnwrapSession(s Session) (driver.SessionWithContext, bool) {
	adapter, ok := s.(*sessionAdapter)
	if !ok || adapter == nil {
		return nil, false
	}

	return adapter.session, true
}

type driverAdapter struct {
	driver driver.DriverWithContext
}

func (a *driverAdapter) VerifyConnectivity(ctx context.Context) error {
	return a.driver.VerifyConnectivity(ctx)
}

func (a *driverAdapter) NewSession(ctx context.Context, cfg driver.SessionConfig) Session {
	return &sessionAdapter{session: a.driver.NewSession(ctx, cfg)}
}

func (a *driverAdapter) Close(ctx context.Context) error {
	return a.driver.Close(ctx)
}

type sessionAdapter struct {
	session driver.SessionWithContext
}

func (a *sessionAdapter) Run(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	result, err := a.session.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (a *sessionAdapter) Close(ctx context.Context) error {
	return a.session.Close(ctx)
}
