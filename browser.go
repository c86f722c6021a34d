package invoicepdf

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Browser lifecycle defaults.
const (
	defaultLaunchTimeout = 30 * time.Second
	defaultAliveTimeout  = 2 * time.Second
)

// launchKey is the single-flight key shared by every launch attempt.
const launchKey = "browser"

// browserHandle is the one live browser process owned by a browserManager.
// A new handle (with a higher generation) replaces it after a crash.
type browserHandle struct {
	conn       browserConn
	pid        int
	createdAt  time.Time
	generation uint64
	connected  atomic.Bool
}

// browserManager owns the browser process: lazy launch, liveness checks,
// discard-and-relaunch after a crash, and shutdown.
type browserManager struct {
	engine        browserEngine
	launchTimeout time.Duration
	aliveTimeout  time.Duration
	logger        zerolog.Logger
	now           func() time.Time

	flight   singleflight.Group
	launches atomic.Int64

	mu         sync.Mutex
	handle     *browserHandle
	generation uint64
	closed     bool
}

func newBrowserManager(engine browserEngine, logger zerolog.Logger) *browserManager {
	return &browserManager{
		engine:        engine,
		launchTimeout: defaultLaunchTimeout,
		aliveTimeout:  defaultAliveTimeout,
		logger:        logger,
		now:           time.Now,
	}
}

// ensureBrowser returns a live handle, launching a browser if there is none
// or the current one stopped answering. Concurrent callers share a single
// in-flight launch; a caller whose ctx ends stops waiting without aborting
// the launch for the others.
func (m *browserManager) ensureBrowser(ctx context.Context) (*browserHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h, err := m.current()
	if err != nil {
		return nil, err
	}
	if h != nil {
		if m.alive(ctx, h) {
			return h, nil
		}
		if err := ctx.Err(); err != nil {
			// The probe failed because the caller gave up, not the browser.
			return nil, err
		}
		m.discard(h, "liveness check failed")
	}

	ch := m.flight.DoChan(launchKey, func() (any, error) {
		return m.launch()
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*browserHandle), nil
	}
}

// launch starts a new browser unless another flight already installed one.
// Runs on a background context bounded by launchTimeout.
func (m *browserManager) launch() (*browserHandle, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if h := m.handle; h != nil && h.connected.Load() {
		m.mu.Unlock()
		return h, nil
	}
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.launchTimeout)
	defer cancel()

	start := m.now()
	m.launches.Add(1)
	conn, err := m.engine.Launch(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("browser launch failed")
		return nil, fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		_ = conn.Close()
		return nil, ErrClosed
	}
	m.generation++
	h := &browserHandle{
		conn:       conn,
		pid:        conn.PID(),
		createdAt:  start,
		generation: m.generation,
	}
	h.connected.Store(true)
	m.handle = h
	m.mu.Unlock()

	m.logger.Info().
		Int("pid", h.pid).
		Uint64("generation", h.generation).
		Dur("took", m.now().Sub(start)).
		Msg("browser launched")
	return h, nil
}

// alive probes the browser with a bounded DevTools call.
func (m *browserManager) alive(ctx context.Context, h *browserHandle) bool {
	if !h.connected.Load() {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, m.aliveTimeout)
	defer cancel()
	return h.conn.Alive(ctx)
}

// verify discards h when it no longer answers. Used after a failed render
// so the next request relaunches instead of reusing a dead process.
func (m *browserManager) verify(h *browserHandle) {
	if !m.alive(context.Background(), h) {
		m.discard(h, "browser unresponsive after render failure")
	}
}

// discard drops h if it is still the current handle and closes it in the
// background. Safe to call repeatedly and concurrently.
func (m *browserManager) discard(h *browserHandle, reason string) {
	m.mu.Lock()
	if m.handle == h {
		m.handle = nil
	}
	m.mu.Unlock()

	if !h.connected.CompareAndSwap(true, false) {
		return
	}

	m.logger.Warn().
		Int("pid", h.pid).
		Uint64("generation", h.generation).
		Str("reason", reason).
		Msg("discarding browser")

	go func() {
		if err := h.conn.Close(); err != nil {
			m.logger.Debug().Err(err).Int("pid", h.pid).Msg("closing discarded browser")
		}
	}()
}

// current returns the installed handle (possibly nil) without launching.
func (m *browserManager) current() (*browserHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	return m.handle, nil
}

// snapshot returns the installed handle for status reporting. Never blocks
// on a launch and never starts one.
func (m *browserManager) snapshot() *browserHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle
}

// checkHealth probes the current browser and discards it when dead.
func (m *browserManager) checkHealth(ctx context.Context) {
	h := m.snapshot()
	if h == nil {
		return
	}
	if !m.alive(ctx, h) && ctx.Err() == nil {
		m.discard(h, "health check failed")
	}
}

// shutdown terminates the browser. Later ensureBrowser calls fail with ErrClosed.
func (m *browserManager) shutdown() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	h := m.handle
	m.handle = nil
	m.mu.Unlock()

	if h == nil {
		return nil
	}
	h.connected.Store(false)
	m.logger.Info().Int("pid", h.pid).Msg("shutting down browser")
	return h.conn.Close()
}
