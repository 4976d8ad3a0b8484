// Package fiberhost lets a *fiber.App carry graphkit extensions.
//
// The application-context hook is fiber's OnShutdown hook; the
// request-context hook is a middleware installed by New, so create the
// Host before registering routes.
package fiberhost

import (
	"context"
	"sync"

	"github.com/LerianStudio/lib-graphkit/graphkit/config"
	"github.com/LerianStudio/lib-graphkit/graphkit/host"
	"github.com/LerianStudio/lib-graphkit/graphkit/log"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Host adapts a fiber application to host.Host.
type Host struct {
	app    *fiber.App
	id     string
	logger log.Logger

	mu           sync.RWMutex
	config       config.Mapping
	extensions   map[string]any
	appHooks     []host.TeardownFunc
	requestHooks []host.TeardownFunc
	shutdownOnce sync.Once
}

var (
	_ host.Host              = (*Host)(nil)
	_ host.AppTeardowner     = (*Host)(nil)
	_ host.RequestTeardowner = (*Host)(nil)
)

// Option customizes a Host.
type Option func(*Host)

// WithConfig seeds the configuration mapping.
func WithConfig(m config.Mapping) Option {
	return func(h *Host) {
		if m != nil {
			h.config = m
		}
	}
}

// WithLogger sets the logger used for hook failures.
func WithLogger(logger log.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New wraps app, hooks application teardown to fiber's shutdown and installs
// the request teardown middleware.
func New(app *fiber.App, opts ...Option) *Host {
	h := &Host{
		app:        app,
		id:         uuid.NewString(),
		logger:     log.NewNop(),
		config:     config.Mapping{},
		extensions: make(map[string]any),
	}

	for _, opt := range opts {
		opt(h)
	}

	app.Hooks().OnShutdown(func() error {
		h.Shutdown(nil)
		return nil
	})

	app.Use(h.endRequest)

	return h
}

// App returns the wrapped fiber application.
func (h *Host) App() *fiber.App {
	return h.app
}

// ID identifies this host instance in logs.
func (h *Host) ID() string {
	return h.id
}

// Config returns the live configuration mapping.
func (h *Host) Config() config.Mapping {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.config
}

// RegisterExtension stores ext under name.
func (h *Host) RegisterExtension(name string, ext any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.extensions[name] = ext
}

// LookupExtension returns the extension registered under name.
func (h *Host) LookupExtension(name string) (any, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ext, ok := h.extensions[name]

	return ext, ok
}

// TeardownAppContext registers fn to run when the fiber app shuts down.
func (h *Host) TeardownAppContext(fn host.TeardownFunc) {
	if fn == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.appHooks = append(h.appHooks, fn)
}

// TeardownRequest registers fn to run after every request handled by app.
func (h *Host) TeardownRequest(fn host.TeardownFunc) {
	if fn == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.requestHooks = append(h.requestHooks, fn)
}

// Shutdown runs the application hooks once. fiber's OnShutdown calls it; it
// can also be called directly when the app never started listening.
func (h *Host) Shutdown(err error) {
	h.shutdownOnce.Do(func() {
		h.mu.RLock()
		hooks := append([]host.TeardownFunc(nil), h.appHooks...)
		h.mu.RUnlock()

		h.run("app", hooks, err)
	})
}

func (h *Host) endRequest(c *fiber.Ctx) error {
	err := c.Next()

	h.mu.RLock()
	hooks := append([]host.TeardownFunc(nil), h.requestHooks...)
	h.mu.RUnlock()

	h.run("request", hooks, err)

	return err
}

func (h *Host) run(scope string, hooks []host.TeardownFunc, cause error) {
	for i := len(hooks) - 1; i >= 0; i-- {
		func() {
			defer func() {
				if r := recover(); r != nil {
					h.logger.Log(context.Background(), log.LevelError, "teardown hook panicked",
						log.String("host_id", h.id),
						log.String("scope", scope),
						log.Any("panic", r),
					)
				}
			}()

			hooks[i](cause)
		}()
	}
}
