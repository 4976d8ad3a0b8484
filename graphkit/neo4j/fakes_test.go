//go:build unit || integration

package neo4j

import (
	"context"
	"sync"
	"time"

	"github.com/LerianStudio/lib-graphkit/graphkit/config"
	"github.com/LerianStudio/lib-graphkit/graphkit/host"
	"github.com/LerianStudio/lib-graphkit/graphkit/log"
	driver "github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type fakeResult struct {
	records []*Record
	err     error
}

func (r *fakeResult) Collect(context.Context) ([]*Record, error) {
	return r.records, r.err
}

// sessionBehavior configures the sessions a fakeDriver opens.
type sessionBehavior struct {
	runErr   error
	result   *fakeResult
	closeErr error
}

type fakeSession struct {
	mu       sync.Mutex
	cfg      driver.SessionConfig
	queries  []string
	params   []map[string]any
	runErr   error
	result   *fakeResult
	closeErr error
	closes   int
}

func (s *fakeSession) Run(_ context.Context, cypher string, params map[string]any) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queries = append(s.queries, cypher)
	s.params = append(s.params, params)

	if s.runErr != nil {
		return nil, s.runErr
	}

	if s.result == nil {
		return &fakeResult{}, nil
	}

	return s.result, nil
}

func (s *fakeSession) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closes++

	return s.closeErr
}

func (s *fakeSession) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closes
}

type fakeDriver struct {
	mu        sync.Mutex
	verifyErr error
	closeErr  error
	verifies  int
	closes    int
	sessions  []*fakeSession
	behavior  sessionBehavior
}

func (d *fakeDriver) VerifyConnectivity(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.verifies++

	return d.verifyErr
}

func (d *fakeDriver) NewSession(_ context.Context, cfg driver.SessionConfig) Session {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := &fakeSession{
		cfg:      cfg,
		runErr:   d.behavior.runErr,
		result:   d.behavior.result,
		closeErr: d.behavior.closeErr,
	}
	d.sessions = append(d.sessions, s)

	return s
}

func (d *fakeDriver) Close(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closes++

	return d.closeErr
}

func (d *fakeDriver) closeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.closes
}

func (d *fakeDriver) lastSession() *fakeSession {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.sessions) == 0 {
		return nil
	}

	return d.sessions[len(d.sessions)-1]
}

// fakeFactory hands out a new fakeDriver per attempt. verifyErrs[i] is the
// verification error of the i-th driver; drivers past the list verify fine.
type fakeFactory struct {
	mu         sync.Mutex
	verifyErrs []error
	buildErr   error
	behavior   sessionBehavior
	drivers    []*fakeDriver
	uris       []string
	auths      []config.Auth
	options    []map[string]any
}

func (f *fakeFactory) build(_ context.Context, uri string, auth config.Auth, options map[string]any) (Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.uris = append(f.uris, uri)
	f.auths = append(f.auths, auth)
	f.options = append(f.options, options)

	if f.buildErr != nil {
		return nil, f.buildErr
	}

	d := &fakeDriver{behavior: f.behavior}
	if idx := len(f.drivers); idx < len(f.verifyErrs) {
		d.verifyErr = f.verifyErrs[idx]
	}

	f.drivers = append(f.drivers, d)

	return d, nil
}

func (f *fakeFactory) attempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.uris)
}

type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
	err   error
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.waits = append(s.waits, d)

	return s.err
}

// spyLogger implements log.Logger and records messages for verification.
type spyLogger struct {
	mu       sync.Mutex
	messages []string
	levels   []log.Level
}

func (s *spyLogger) Log(_ context.Context, level log.Level, msg string, _ ...log.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, msg)
	s.levels = append(s.levels, level)
}

func (s *spyLogger) With(_ ...log.Field) log.Logger { return s }
func (s *spyLogger) WithGroup(_ string) log.Logger  { return s }
func (s *spyLogger) Enabled(_ log.Level) bool       { return true }
func (s *spyLogger) Sync(_ context.Context) error   { return nil }

func (s *spyLogger) count(level log.Level, msg string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0

	for i := range s.messages {
		if s.levels[i] == level && s.messages[i] == msg {
			n++
		}
	}

	return n
}

// registryHost is a host without any teardown hook.
type registryHost struct {
	mu         sync.Mutex
	config     config.Mapping
	extensions map[string]any
}

func newRegistryHost(m config.Mapping) *registryHost {
	if m == nil {
		m = config.Mapping{}
	}

	return &registryHost{config: m, extensions: map[string]any{}}
}

func (h *registryHost) Config() config.Mapping { return h.config }

func (h *registryHost) RegisterExtension(name string, ext any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.extensions[name] = ext
}

func (h *registryHost) LookupExtension(name string) (any, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ext, ok := h.extensions[name]

	return ext, ok
}

// requestHost only offers a per-request hook.
type requestHost struct {
	*registryHost
	hooks []host.TeardownFunc
}

func (h *requestHost) TeardownRequest(fn host.TeardownFunc) {
	h.hooks = append(h.hooks, fn)
}

func (h *requestHost) endRequest(err error) {
	for _, fn := range h.hooks {
		fn(err)
	}
}

func retryConfig(count int) config.Mapping {
	return config.Mapping{
		config.KeyConnectionRetry: true,
		config.KeyRetryCount:      count,
		config.KeyRetryInterval:   2,
	}
}

func newTestExtension(f *fakeFactory, sleeper *sleepRecorder, opts ...Option) *Extension {
	base := []Option{WithDriverFactory(f.build)}
	if sleeper != nil {
		base = append(base, WithSleeper(sleeper.sleep))
	}

	return New(append(base, opts...)...)
}
