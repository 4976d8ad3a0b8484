package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/LerianStudio/lib-graphkit/graphkit/log"
	"github.com/gofiber/fiber/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ErrNoServersConfigured indicates no servers were configured for the manager
var ErrNoServersConfigured = errors.New("no servers configured: use WithHTTPServer() or WithGRPCServer()")

// HealthService is the gRPC health service name that follows the graph.
const HealthService = "neo4j"

const (
	defaultShutdownTimeout = 30 * time.Second
	defaultHealthInterval  = 10 * time.Second
)

// HostShutdowner ends a host's application context. host.App and
// fiberhost.Host implement it.
type HostShutdowner interface {
	Shutdown(err error)
}

// HealthChecker probes the graph. *neo4j.Extension implements it.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// ServerManager handles the graceful shutdown of multiple server types.
type ServerManager struct {
	httpServer         *fiber.App
	grpcServer         *grpc.Server
	host               HostShutdowner
	logger             log.Logger
	httpAddress        string
	grpcAddress        string
	serversStarted     chan struct{}
	serversStartedOnce sync.Once
	shutdownChan       <-chan struct{}
	shutdownOnce       sync.Once
	shutdownTimeout    time.Duration
	startupErrors      chan error

	checker        HealthChecker
	healthInterval time.Duration
	healthServer   *health.Server
	stopHealth     context.CancelFunc
}

// NewServerManager creates a new instance of ServerManager. A nil logger is
// replaced with a no-op logger.
func NewServerManager(logger log.Logger) *ServerManager {
	if logger == nil {
		logger = log.NewNop()
	}

	return &ServerManager{
		logger:          logger,
		serversStarted:  make(chan struct{}),
		shutdownTimeout: defaultShutdownTimeout,
		healthInterval:  defaultHealthInterval,
		startupErrors:   make(chan error, 2),
	}
}

// WithHTTPServer configures the HTTP server for the ServerManager.
func (sm *ServerManager) WithHTTPServer(app *fiber.App, address string) *ServerManager {
	sm.httpServer = app
	sm.httpAddress = address

	return sm
}

// WithGRPCServer configures the gRPC server for the ServerManager.
func (sm *ServerManager) WithGRPCServer(server *grpc.Server, address string) *ServerManager {
	sm.grpcServer = server
	sm.grpcAddress = address

	return sm
}

// WithHost configures the host whose application teardown runs after the
// servers stop.
func (sm *ServerManager) WithHost(h HostShutdowner) *ServerManager {
	sm.host = h

	return sm
}

// WithGraphHealth serves grpc.health.v1 on the gRPC server, probing checker
// every interval. A non-positive interval keeps the default of 10s.
func (sm *ServerManager) WithGraphHealth(checker HealthChecker, interval time.Duration) *ServerManager {
	sm.checker = checker

	if interval > 0 {
		sm.healthInterval = interval
	}

	return sm
}

// WithShutdownChannel configures a custom shutdown channel for the ServerManager.
// This allows tests to trigger shutdown deterministically instead of relying on OS signals.
func (sm *ServerManager) WithShutdownChannel(ch <-chan struct{}) *ServerManager {
	sm.shutdownChan = ch

	return sm
}

// WithShutdownTimeout configures the maximum duration to wait for gRPC GracefulStop
// before forcing a hard stop. Defaults to 30 seconds.
func (sm *ServerManager) WithShutdownTimeout(d time.Duration) *ServerManager {
	sm.shutdownTimeout = d

	return sm
}

// ServersStarted returns a channel that is closed when server goroutines have been launched.
// Note: This signals that goroutines were spawned, not that sockets are bound.
func (sm *ServerManager) ServersStarted() <-chan struct{} {
	return sm.serversStarted
}

// HealthServer returns the gRPC health server, or nil before start or when
// no checker is configured.
func (sm *ServerManager) HealthServer() *health.Server {
	return sm.healthServer
}

func (sm *ServerManager) validateConfiguration() error {
	if sm.httpServer == nil && sm.grpcServer == nil {
		return ErrNoServersConfigured
	}

	return nil
}

func (sm *ServerManager) initServers() error {
	if sm.serversStarted == nil {
		sm.serversStarted = make(chan struct{})
	}

	if err := sm.validateConfiguration(); err != nil {
		return err
	}

	sm.registerHealth()
	sm.startServers()

	return nil
}

// StartWithGracefulShutdownWithError validates configuration and starts servers.
// Blocks until a shutdown signal is received, the shutdown channel is closed
// or a server fails to start.
func (sm *ServerManager) StartWithGracefulShutdownWithError() error {
	if err := sm.initServers(); err != nil {
		return err
	}

	sm.handleShutdown()

	return nil
}

// StartWithGracefulShutdown is StartWithGracefulShutdownWithError that exits
// the process with status 1 when no server is configured.
func (sm *ServerManager) StartWithGracefulShutdown() {
	if err := sm.initServers(); err != nil {
		sm.logFatal(err.Error())
	}

	defer func() {
		if r := recover(); r != nil {
			sm.logErrorf("panic during server lifecycle: %v", r)

			sm.executeShutdown()

			os.Exit(1)
		}
	}()

	sm.handleShutdown()
}

// registerHealth must run before the gRPC server starts serving.
func (sm *ServerManager) registerHealth() {
	if sm.grpcServer == nil || sm.checker == nil || sm.healthServer != nil {
		return
	}

	sm.healthServer = health.NewServer()
	healthpb.RegisterHealthServer(sm.grpcServer, sm.healthServer)

	ctx, cancel := context.WithCancel(context.Background())
	sm.stopHealth = cancel

	sm.refreshHealth(ctx)

	sm.safeGo("graph_health", func() {
		ticker := time.NewTicker(sm.healthInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sm.refreshHealth(ctx)
			}
		}
	})
}

func (sm *ServerManager) refreshHealth(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING

	probeCtx, cancel := context.WithTimeout(ctx, sm.healthInterval)
	defer cancel()

	if err := sm.checker.Ping(probeCtx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING

		if sm.logger.Enabled(log.LevelWarn) {
			sm.logger.Log(ctx, log.LevelWarn, "graph health probe failed", log.Err(err))
		}
	}

	sm.healthServer.SetServingStatus(HealthService, status)
	sm.healthServer.SetServingStatus("", status)
}

func (sm *ServerManager) startServers() {
	started := 0

	if sm.httpServer != nil {
		sm.safeGo("start_http_server", func() {
			sm.logInfof("Starting HTTP server on %s", sm.httpAddress)

			if err := sm.httpServer.Listen(sm.httpAddress); err != nil {
				sm.logErrorf("HTTP server error: %v", err)
				sm.reportStartup(fmt.Errorf("HTTP server: %w", err))
			}
		})

		started++
	}

	if sm.grpcServer != nil {
		sm.safeGo("start_grpc_server", func() {
			sm.logInfof("Starting gRPC server on %s", sm.grpcAddress)

			listener, err := net.Listen("tcp", sm.grpcAddress)
			if err != nil {
				sm.logErrorf("Failed to listen on gRPC address: %v", err)
				sm.reportStartup(fmt.Errorf("gRPC listen: %w", err))

				return
			}

			if err := sm.grpcServer.Serve(listener); err != nil {
				sm.logErrorf("gRPC server error: %v", err)
				sm.reportStartup(fmt.Errorf("gRPC serve: %w", err))
			}
		})

		started++
	}

	sm.logInfof("Launched %d server goroutine(s)", started)

	sm.serversStartedOnce.Do(func() {
		close(sm.serversStarted)
	})
}

func (sm *ServerManager) reportStartup(err error) {
	select {
	case sm.startupErrors <- err:
	default:
	}
}

// safeGo runs fn in a goroutine and logs instead of crashing on panic.
func (sm *ServerManager) safeGo(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				sm.logErrorf("goroutine %s panicked: %v", name, r)
			}
		}()

		fn()
	}()
}

func (sm *ServerManager) logInfo(msg string) {
	sm.logger.Log(context.Background(), log.LevelInfo, msg)
}

func (sm *ServerManager) logInfof(format string, args ...any) {
	sm.logger.Log(context.Background(), log.LevelInfo, fmt.Sprintf(format, args...))
}

func (sm *ServerManager) logErrorf(format string, args ...any) {
	sm.logger.Log(context.Background(), log.LevelError, fmt.Sprintf(format, args...))
}

// logFatal logs at error level and terminates the process with os.Exit(1).
func (sm *ServerManager) logFatal(msg string) {
	sm.logger.Log(context.Background(), log.LevelError, msg)

	os.Exit(1)
}

// handleShutdown waits for a termination signal, the shutdown channel or a
// startup error, then runs the shutdown sequence.
func (sm *ServerManager) handleShutdown() {
	var cause error

	if sm.shutdownChan != nil {
		select {
		case <-sm.shutdownChan:
		case cause = <-sm.startupErrors:
			sm.logErrorf("Server startup failed: %v", cause)
		}
	} else {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)

		select {
		case <-c:
			signal.Stop(c)
		case cause = <-sm.startupErrors:
			sm.logErrorf("Server startup failed: %v", cause)
		}
	}

	sm.logInfo("Gracefully shutting down all servers...")

	sm.shutdown(cause)
}

func (sm *ServerManager) executeShutdown() {
	sm.shutdown(nil)
}

// shutdown is idempotent: only the first call runs the sequence.
func (sm *ServerManager) shutdown(cause error) {
	sm.shutdownOnce.Do(func() {
		select {
		case <-sm.serversStarted:
		default:
			sm.logInfo("Shutdown initiated before servers were fully started.")
		}

		if sm.httpServer != nil {
			sm.logInfo("Shutting down HTTP server...")

			if err := sm.httpServer.Shutdown(); err != nil {
				sm.logErrorf("Error during HTTP server shutdown: %v", err)
			}
		}

		if sm.stopHealth != nil {
			sm.stopHealth()
			sm.healthServer.Shutdown()
		}

		if sm.grpcServer != nil {
			sm.logInfo("Shutting down gRPC server...")

			done := make(chan struct{})

			go func() {
				sm.grpcServer.GracefulStop()
				close(done)
			}()

			select {
			case <-done:
				sm.logInfo("gRPC server stopped gracefully")
			case <-time.After(sm.shutdownTimeout):
				sm.logInfo("gRPC graceful stop timed out, forcing stop...")
				sm.grpcServer.Stop()
			}
		}

		if sm.host != nil {
			sm.logInfo("Tearing down host application context...")
			sm.host.Shutdown(cause)
		}

		sm.logInfo("Syncing logger...")

		if err := sm.logger.Sync(context.Background()); err != nil {
			sm.logErrorf("Failed to sync logger: %v", err)
		}

		sm.logInfo("Graceful shutdown completed")
	})
}
