package neo4j

import (
	"github.com/LerianStudio/lib-graphkit/graphkit/backoff"
	"github.com/LerianStudio/lib-graphkit/graphkit/log"
	driver "github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Option customizes an Extension.
type Option func(*Extension)

// WithLogger sets the logger used for connection lifecycle messages.
func WithLogger(logger log.Logger) Option {
	return func(e *Extension) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithDriverFactory replaces the driver constructor. Tests use it to inject
// fake drivers.
func WithDriverFactory(factory DriverFactory) Option {
	return func(e *Extension) {
		if factory != nil {
			e.deps.newDriver = factory
		}
	}
}

// WithSleeper replaces the wait between connection attempts.
func WithSleeper(sleep backoff.Sleeper) Option {
	return func(e *Extension) {
		if sleep != nil {
			e.deps.sleep = sleep
		}
	}
}

// WithIndexes declares indexes created during every attach, after the driver
// is verified and before the extension is registered. A failure aborts the
// attach and closes the new driver.
func WithIndexes(specs ...IndexSpec) Option {
	return func(e *Extension) {
		e.indexes = append(e.indexes, specs...)
	}
}

// SessionOption customizes the configuration of a session.
type SessionOption func(*driver.SessionConfig)

// WithDatabase overrides the configured NEO4J_DATABASE for one session.
func WithDatabase(name string) SessionOption {
	return func(cfg *driver.SessionConfig) {
		cfg.DatabaseName = name
	}
}

// WithAccessMode routes the session to readers or writers.
func WithAccessMode(mode driver.AccessMode) SessionOption {
	return func(cfg *driver.SessionConfig) {
		cfg.AccessMode = mode
	}
}

// WithBookmarks makes the session causally consistent with earlier work.
func WithBookmarks(bookmarks ...string) SessionOption {
	return func(cfg *driver.SessionConfig) {
		cfg.Bookmarks = driver.BookmarksFromRawValues(bookmarks...)
	}
}

// WithFetchSize sets how many records are pulled per batch.
func WithFetchSize(size int) SessionOption {
	return func(cfg *driver.SessionConfig) {
		cfg.FetchSize = size
	}
}

// WithImpersonatedUser runs the session as another user.
func WithImpersonatedUser(user string) SessionOption {
	return func(cfg *driver.SessionConfig) {
		cfg.ImpersonatedUser = user
	}
}
