package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ShutdownFunc describes a graceful shutdown callback.
type ShutdownFunc func(ctx context.Context) error

type hook struct {
	name string
	fn   ShutdownFunc
}

// Manager owns the desk's run and stop sequence. Components register in
// start order (telemetry, journal, http server) and stop in reverse, so the
// server drains before the journal closes and traces flush last.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger

	failed chan error

	mu    sync.Mutex
	hooks []hook
}

func New(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		timeout: timeout,
		logger:  logger,
		failed:  make(chan error, 1),
	}
}

// Register adds a shutdown hook.
func (m *Manager) Register(name string, fn ShutdownFunc) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook{name: name, fn: fn})
}

// Fail reports that a running component died. Only the first failure is kept;
// it ends Wait.
func (m *Manager) Fail(component string, err error) {
	if err == nil {
		return
	}
	m.logger.Error("component failed", zap.String("component", component), zap.Error(err))
	select {
	case m.failed <- fmt.Errorf("%s: %w", component, err):
	default:
	}
}

// Wait blocks until SIGINT or SIGTERM arrives, ctx ends, or a component
// fails. It returns the failure, or nil for an orderly stop.
func (m *Manager) Wait(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		m.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		return nil
	case <-ctx.Done():
		m.logger.Info("shutdown requested", zap.Error(ctx.Err()))
		return nil
	case err := <-m.failed:
		return err
	}
}

// Shutdown runs the registered hooks once, newest first, within the
// configured timeout. A failing hook does not stop the remaining ones;
// later calls find nothing left to stop.
func (m *Manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	m.mu.Lock()
	hooks := m.hooks
	m.hooks = nil
	m.mu.Unlock()

	var result error
	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		started := time.Now()
		if err := h.fn(ctx); err != nil {
			m.logger.Error("shutdown hook failed", zap.String("component", h.name), zap.Error(err))
			result = errors.Join(result, fmt.Errorf("stop %s: %w", h.name, err))
			continue
		}
		m.logger.Info("component stopped",
			zap.String("component", h.name),
			zap.Duration("took", time.Since(started)),
		)
	}
	return result
}
