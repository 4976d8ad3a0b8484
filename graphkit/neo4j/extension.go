package neo4j

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/LerianStudio/lib-graphkit/graphkit/backoff"
	"github.com/LerianStudio/lib-graphkit/graphkit/config"
	"github.com/LerianStudio/lib-graphkit/graphkit/host"
	"github.com/LerianStudio/lib-graphkit/graphkit/log"
	libOpentelemetry "github.com/LerianStudio/lib-graphkit/graphkit/opentelemetry"
	driver "github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ExtensionKey is the name the extension registers under on its host.
const ExtensionKey = "neo4j"

const tracerName = "neo4j"

var connectionFailuresMetric = libOpentelemetry.Metric{
	Name:        "neo4j_connection_failures_total",
	Unit:        "1",
	Description: "Total number of neo4j connection failures",
}

// Extension owns one Neo4j driver bound to a host application.
type Extension struct {
	mu         sync.RWMutex
	host       host.Host
	driver     Driver
	settings   config.Settings
	scope      host.Scope
	generation uint64

	logger   log.Logger
	deps     extensionDeps
	indexes  []IndexSpec
	failures metric.Int64Counter
}

type extensionDeps struct {
	newDriver DriverFactory
	sleep     backoff.Sleeper
}

// New returns an unattached extension. Call InitApp to bind it to a host.
func New(opts ...Option) *Extension {
	e := &Extension{
		logger: log.NewNop(),
		scope:  host.ScopeNone,
	}

	e.deps = extensionDeps{
		newDriver: func(_ context.Context, uri string, auth config.Auth, options map[string]any) (Driver, error) {
			return newDriver(uri, auth, options, e.warnOption)
		},
		sleep: backoff.SleepWithContext,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	counter, err := libOpentelemetry.Counter(tracerName, connectionFailuresMetric)
	if err != nil {
		e.logAtLevel(context.Background(), log.LevelWarn, "failed to create neo4j metric counter", log.Err(err))
	} else {
		e.failures = counter
	}

	return e
}

// NewWithHost builds an extension and attaches it to h in one step.
func NewWithHost(ctx context.Context, h host.Host, opts ...Option) (*Extension, error) {
	e := New(opts...)

	if err := e.InitApp(ctx, h); err != nil {
		return nil, err
	}

	return e, nil
}

// InitApp resolves settings from h, builds and verifies the driver, then
// registers the extension under ExtensionKey and binds Teardown to the
// host's lifecycle. Re-attaching closes the previous driver first. On
// failure no driver is kept and nothing is registered.
func (e *Extension) InitApp(ctx context.Context, h host.Host) error {
	if e == nil {
		return ErrNilExtension
	}

	if ctx == nil {
		return ErrNilContext
	}

	if h == nil {
		return ErrNilHost
	}

	return e.attach(ctx, h)
}

func (e *Extension) attach(ctx context.Context, h host.Host) error {
	ctx, span := libOpentelemetry.StartSpan(ctx, tracerName, "neo4j.connect")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.driver != nil {
		if err := e.closeLocked(ctx); err != nil {
			e.logAtLevel(ctx, log.LevelWarn, "closing previous neo4j driver failed", log.Err(err))
		}
	}

	settings := config.Resolve(h.Config())

	span.SetAttributes(attribute.String(libOpentelemetry.AttrDBName, settings.Database))

	d, err := e.connectLocked(ctx, settings)
	if err != nil {
		e.recordConnectionFailure(ctx, "connect")
		libOpentelemetry.HandleSpanError(span, "Failed to connect to neo4j", err)

		return err
	}

	if err := createIndexes(ctx, d, settings.Database, e.indexes); err != nil {
		libOpentelemetry.HandleSpanError(span, "Failed to create neo4j indexes", err)

		if closeErr := d.Close(ctx); closeErr != nil {
			e.logAtLevel(ctx, log.LevelWarn, "failed to close driver after index failure", log.Err(closeErr))
		}

		return err
	}

	e.host = h
	e.driver = d
	e.settings = settings
	e.generation++

	h.RegisterExtension(ExtensionKey, e)

	generation := e.generation

	e.scope = host.RegisterTeardown(h, func(error) {
		e.teardownGeneration(generation)
	})

	if e.scope == host.ScopeNone {
		e.logAtLevel(ctx, log.LevelWarn, "host offers no teardown hook; call Close when done")
	}

	return nil
}

// connectLocked runs the bounded attempt loop.
// The caller MUST hold e.mu (write lock).
func (e *Extension) connectLocked(ctx context.Context, settings config.Settings) (Driver, error) {
	attempts := settings.Retry.Attempts()

	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := e.deps.sleep(ctx, settings.Retry.Delay(attempt)); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrConnect, errors.Join(lastErr, err))
			}
		}

		d, err := e.tryConnect(ctx, settings)
		if err == nil {
			e.logAtLevel(ctx, log.LevelInfo, "connected to neo4j",
				log.URI("uri", settings.URI),
				log.String("database", settings.Database),
				log.Int("attempt", attempt+1),
			)

			return d, nil
		}

		lastErr = err

		if !IsTransient(err) {
			e.logAtLevel(ctx, log.LevelError, "neo4j connection failed", log.URI("uri", settings.URI), log.Err(err))

			return nil, fmt.Errorf("%w: %w", ErrConnect, err)
		}

		if attempt < attempts-1 {
			e.logAtLevel(ctx, log.LevelWarn, "neo4j connection attempt failed, retrying",
				log.Int("attempt", attempt+1),
				log.Duration("retry_in", settings.Retry.Delay(attempt+1)),
				log.Err(err),
			)
		}
	}

	e.logAtLevel(ctx, log.LevelError, "neo4j connection failed after all attempts",
		log.URI("uri", settings.URI),
		log.Int("attempts", attempts),
		log.Err(lastErr),
	)

	if lastErr == nil {
		lastErr = ErrServiceUnavailable
	}

	return nil, fmt.Errorf("%w: %w", ErrConnect, lastErr)
}

func (e *Extension) tryConnect(ctx context.Context, settings config.Settings) (Driver, error) {
	d, err := e.deps.newDriver(ctx, settings.URI, settings.Auth, settings.DriverOptions())
	if err != nil {
		return nil, err
	}

	if d == nil {
		return nil, ErrNilDriver
	}

	if err := d.VerifyConnectivity(ctx); err != nil {
		if closeErr := d.Close(ctx); closeErr != nil {
			e.logAtLevel(ctx, log.LevelDebug, "failed to close driver after verification failure", log.Err(closeErr))
		}

		return nil, err
	}

	return d, nil
}

// Driver returns the live driver.
func (e *Extension) Driver() (Driver, error) {
	if e == nil {
		return nil, ErrNilExtension
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.driver == nil {
		return nil, ErrNotInitialized
	}

	return e.driver, nil
}

// Session opens a session on the configured database unless WithDatabase
// says otherwise. The caller closes it.
func (e *Extension) Session(ctx context.Context, opts ...SessionOption) (Session, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	d, err := e.Driver()
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	cfg := driver.SessionConfig{DatabaseName: e.settings.Database}
	e.mu.RUnlock()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return d.NewSession(ctx, cfg), nil
}

// WithSession runs fn with a session that is closed on every exit path.
// A close failure is returned only when fn succeeded.
func (e *Extension) WithSession(ctx context.Context, fn func(Session) error, opts ...SessionOption) (err error) {
	if ctx == nil {
		return ErrNilContext
	}

	ctx, span := libOpentelemetry.StartSpan(ctx, tracerName, "neo4j.session")
	defer span.End()

	session, err := e.Session(ctx, opts...)
	if err != nil {
		libOpentelemetry.HandleSpanError(span, "Failed to open neo4j session", err)

		return err
	}

	defer func() {
		if closeErr := session.Close(ctx); closeErr != nil {
			e.logAtLevel(ctx, log.LevelWarn, "neo4j session close failed", log.Err(closeErr))

			if err == nil {
				err = fmt.Errorf("%w: %w", ErrSessionClose, closeErr)
			}
		}

		if err != nil {
			libOpentelemetry.HandleSpanError(span, "neo4j session failed", err)
		}
	}()

	return fn(session)
}

// Execute runs query with params in a scoped session and returns every
// record in result order.
func (e *Extension) Execute(ctx context.Context, query string, params map[string]any) ([]*Record, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	if _, err := e.Driver(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	ctx, span := libOpentelemetry.StartSpan(ctx, tracerName, "neo4j.execute",
		attribute.String(libOpentelemetry.AttrDBOperation, firstKeyword(query)),
	)
	defer span.End()

	var records []*Record

	err := e.WithSession(ctx, func(session Session) error {
		result, err := session.Run(ctx, query, params)
		if err != nil {
			return err
		}

		records, err = result.Collect(ctx)

		return err
	})
	if err != nil {
		libOpentelemetry.HandleSpanError(span, "Failed to execute neo4j query", err)

		return nil, err
	}

	return records, nil
}

// Ping verifies connectivity of the live driver.
func (e *Extension) Ping(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}

	d, err := e.Driver()
	if err != nil {
		return err
	}

	if err := d.VerifyConnectivity(ctx); err != nil {
		e.recordConnectionFailure(ctx, "ping")

		return fmt.Errorf("%w: %w", ErrPing, err)
	}

	return nil
}

// Close releases the driver. Closing an unattached or closed extension is a
// no-op.
func (e *Extension) Close(ctx context.Context) error {
	if e == nil {
		return ErrNilExtension
	}

	if ctx == nil {
		return ErrNilContext
	}

	ctx, span := libOpentelemetry.StartSpan(ctx, tracerName, "neo4j.close")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.closeLocked(ctx); err != nil {
		libOpentelemetry.HandleSpanError(span, "Failed to close neo4j driver", err)

		return err
	}

	return nil
}

// Teardown is the host lifecycle hook: it closes the driver and ignores the
// error that ended the host context.
func (e *Extension) Teardown(_ error) {
	if e == nil {
		return
	}

	if err := e.Close(context.Background()); err != nil {
		e.logAtLevel(context.Background(), log.LevelWarn, "neo4j teardown failed", log.Err(err))
	}
}

// teardownGeneration closes the driver only if it is still the one created
// by the attach that registered the hook.
func (e *Extension) teardownGeneration(generation uint64) {
	e.mu.RLock()
	current := e.generation
	e.mu.RUnlock()

	if current != generation {
		return
	}

	e.Teardown(nil)
}

// closeLocked closes and clears the driver.
// The caller MUST hold e.mu (write lock).
func (e *Extension) closeLocked(ctx context.Context) error {
	if e.driver == nil {
		return nil
	}

	err := e.driver.Close(ctx)
	e.driver = nil

	if err != nil {
		return fmt.Errorf("%w: %w", ErrClose, err)
	}

	e.logAtLevel(ctx, log.LevelInfo, "neo4j driver closed")

	return nil
}

// Settings returns the settings resolved by the last attach.
func (e *Extension) Settings() config.Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.settings
}

// Host returns the host of the last successful attach, or nil.
func (e *Extension) Host() host.Host {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.host
}

// Scope reports which host hook closes the driver.
func (e *Extension) Scope() host.Scope {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.scope
}

// IsConnected reports whether a driver is held.
func (e *Extension) IsConnected() bool {
	if e == nil {
		return false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.driver != nil
}

func (e *Extension) warnOption(key string, _ any) {
	e.logAtLevel(context.Background(), log.LevelWarn, "ignoring unsupported neo4j driver option", log.String("option", key))
}

func (e *Extension) recordConnectionFailure(ctx context.Context, operation string) {
	if e.failures == nil {
		return
	}

	e.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

func (e *Extension) logAtLevel(ctx context.Context, level log.Level, message string, fields ...log.Field) {
	if e == nil || e.logger == nil {
		return
	}

	if !e.logger.Enabled(level) {
		return
	}

	e.logger.Log(ctx, level, message, fields...)
}

func firstKeyword(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}

	return strings.ToUpper(fields[0])
}
