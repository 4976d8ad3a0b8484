package host

import (
	"errors"
	"fmt"

	"github.com/LerianStudio/lib-graphkit/graphkit/config"
)

var (
	// ErrExtensionNotFound is returned when no extension is registered under a name.
	ErrExtensionNotFound = errors.New("extension not found")
	// ErrExtensionType is returned when a registered extension has an unexpected type.
	ErrExtensionType = errors.New("extension has unexpected type")
)

// TeardownFunc is invoked when a lifecycle scope ends. err is the failure
// that ended the scope, if any.
type TeardownFunc func(err error)

// Host is the minimum an application must offer to carry extensions.
type Host interface {
	// Config returns the live configuration mapping. Extensions may write
	// defaults back into it.
	Config() config.Mapping
	// RegisterExtension stores ext under name, replacing any previous entry.
	RegisterExtension(name string, ext any)
	// LookupExtension returns the extension registered under name.
	LookupExtension(name string) (any, bool)
}

// AppTeardowner is implemented by hosts that run hooks when the application
// context ends.
type AppTeardowner interface {
	TeardownAppContext(fn TeardownFunc)
}

// RequestTeardowner is implemented by hosts that run hooks when each request
// context ends.
type RequestTeardowner interface {
	TeardownRequest(fn TeardownFunc)
}

// Scope names the lifecycle hook an extension was bound to.
type Scope string

const (
	ScopeApp     Scope = "app"
	ScopeRequest Scope = "request"
	ScopeNone    Scope = "none"
)

// RegisterTeardown binds fn to the most specific hook h offers: the
// application context when available, otherwise the request context.
// It returns ScopeNone when h offers neither.
func RegisterTeardown(h Host, fn TeardownFunc) Scope {
	if app, ok := h.(AppTeardowner); ok {
		app.TeardownAppContext(fn)
		return ScopeApp
	}

	if req, ok := h.(RequestTeardowner); ok {
		req.TeardownRequest(fn)
		return ScopeRequest
	}

	return ScopeNone
}

// Extension returns the extension registered on h under name as a T.
func Extension[T any](h Host, name string) (T, error) {
	var zero T

	if h == nil {
		return zero, fmt.Errorf("%w: %s", ErrExtensionNotFound, name)
	}

	raw, ok := h.LookupExtension(name)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrExtensionNotFound, name)
	}

	typed, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T", ErrExtensionType, name, raw)
	}

	return typed, nil
}
