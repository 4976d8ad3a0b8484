package host

import (
	"context"
	"errors"
	"sync"

	"github.com/LerianStudio/lib-graphkit/graphkit/config"
	"github.com/LerianStudio/lib-graphkit/graphkit/log"
	"github.com/google/uuid"
)

// App is an in-process host offering both teardown scopes.
//
// Hooks run in reverse registration order. Shutdown runs application hooks
// once; EndRequest runs request hooks every time it is called.
type App struct {
	ID     string
	Logger log.Logger

	mu           sync.RWMutex
	config       config.Mapping
	extensions   map[string]any
	appHooks     []TeardownFunc
	requestHooks []TeardownFunc
	shutdownOnce sync.Once
}

var (
	_ Host              = (*App)(nil)
	_ AppTeardowner     = (*App)(nil)
	_ RequestTeardowner = (*App)(nil)
)

// AppOption customizes a new App.
type AppOption func(*App)

// WithConfig seeds the configuration mapping. The mapping is used as-is, so
// defaults written by extensions are visible to the caller.
func WithConfig(m config.Mapping) AppOption {
	return func(a *App) {
		if m != nil {
			a.config = m
		}
	}
}

// WithLogger sets the logger used for hook failures.
func WithLogger(logger log.Logger) AppOption {
	return func(a *App) {
		if logger != nil {
			a.Logger = logger
		}
	}
}

// NewApp creates an App with an empty configuration.
func NewApp(opts ...AppOption) *App {
	a := &App{
		ID:         uuid.NewString(),
		Logger:     log.NewNop(),
		config:     config.Mapping{},
		extensions: make(map[string]any),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Config returns the live configuration mapping.
func (a *App) Config() config.Mapping {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.config
}

// RegisterExtension stores ext under name.
func (a *App) RegisterExtension(name string, ext any) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.extensions[name] = ext
}

// LookupExtension returns the extension registered under name.
func (a *App) LookupExtension(name string) (any, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	ext, ok := a.extensions[name]

	return ext, ok
}

// TeardownAppContext registers fn to run on Shutdown.
func (a *App) TeardownAppContext(fn TeardownFunc) {
	if fn == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.appHooks = append(a.appHooks, fn)
}

// TeardownRequest registers fn to run on every EndRequest.
func (a *App) TeardownRequest(fn TeardownFunc) {
	if fn == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.requestHooks = append(a.requestHooks, fn)
}

// EndRequest runs the request teardown hooks.
func (a *App) EndRequest(err error) {
	a.mu.RLock()
	hooks := append([]TeardownFunc(nil), a.requestHooks...)
	a.mu.RUnlock()

	a.run(ScopeRequest, hooks, err)
}

// Shutdown runs the application teardown hooks. Subsequent calls are no-ops.
func (a *App) Shutdown(err error) {
	a.shutdownOnce.Do(func() {
		a.mu.RLock()
		hooks := append([]TeardownFunc(nil), a.appHooks...)
		a.mu.RUnlock()

		a.run(ScopeApp, hooks, err)
	})
}

func (a *App) run(scope Scope, hooks []TeardownFunc, cause error) {
	for i := len(hooks) - 1; i >= 0; i-- {
		func() {
			defer func() {
				if r := recover(); r != nil {
					a.Logger.Log(context.Background(), log.LevelError, "teardown hook panicked",
						log.String("app_id", a.ID),
						log.String("scope", string(scope)),
						log.Any("panic", r),
					)
				}
			}()

			hooks[i](cause)
		}()
	}

	if cause != nil && !errors.Is(cause, context.Canceled) {
		a.Logger.Log(context.Background(), log.LevelDebug, "teardown completed after error",
			log.String("app_id", a.ID),
			log.String("scope", string(scope)),
			log.Err(cause),
		)
	}
}
