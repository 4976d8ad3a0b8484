package neo4j

import (
	"errors"

	driver "github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

var (
	// ErrNilContext is returned when a required context is nil.
	ErrNilContext = errors.New("context cannot be nil")
	// ErrNilHost is returned when InitApp receives a nil host.
	ErrNilHost = errors.New("neo4j host cannot be nil")
	// ErrNilExtension is returned when an *Extension receiver is nil.
	ErrNilExtension = errors.New("neo4j extension is nil")
	// ErrNotInitialized is returned when the driver is used before a
	// successful attach or after it was closed.
	ErrNotInitialized = errors.New("neo4j extension is not initialized: call InitApp or NewWithHost first")
	// ErrServiceUnavailable marks a transient unavailability of the database.
	// Custom drivers wrap it to make attach retry.
	ErrServiceUnavailable = errors.New("neo4j service unavailable")
	// ErrConnect wraps driver construction failures.
	ErrConnect = errors.New("neo4j connect failed")
	// ErrPing wraps connectivity probe failures on a live driver.
	ErrPing = errors.New("neo4j ping failed")
	// ErrClose wraps driver close failures.
	ErrClose = errors.New("neo4j close failed")
	// ErrSessionClose wraps session close failures of scoped sessions.
	ErrSessionClose = errors.New("neo4j session close failed")
	// ErrEmptyQuery is returned when Execute receives a blank query.
	ErrEmptyQuery = errors.New("neo4j query cannot be empty")
	// ErrInvalidIndex is returned for index specs missing a label or properties.
	ErrInvalidIndex = errors.New("invalid neo4j index spec")
	// ErrNilDriver is returned when a driver factory returns neither driver nor error.
	ErrNilDriver = errors.New("neo4j driver factory returned nil driver")
)

// IsTransient reports whether err is a transient unavailability worth
// retrying: a driver connectivity error or an error wrapping
// ErrServiceUnavailable. Authentication and usage errors are not transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrServiceUnavailable) {
		return true
	}

	var connectivity *driver.ConnectivityError

	return errors.As(err, &connectivity) || driver.IsConnectivityError(err)
}
