package invoicepdf

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestBrowserManager_EnsureBrowser_SingleLaunch(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{launchDelay: 50 * time.Millisecond}
	m := newBrowserManager(engine, zerolog.Nop())

	const callers = 20
	handles := make([]*browserHandle, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i], errs[i] = m.ensureBrowser(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: ensureBrowser() error = %v", i, errs[i])
		}
		if handles[i] != handles[0] {
			t.Errorf("caller %d got a different handle", i)
		}
	}
	if got := engine.launches.Load(); got != 1 {
		t.Errorf("launches = %d, want 1", got)
	}
	if got := m.launches.Load(); got != 1 {
		t.Errorf("manager launches = %d, want 1", got)
	}
}

func TestBrowserManager_EnsureBrowser_ReusesLiveHandle(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	m := newBrowserManager(engine, zerolog.Nop())

	h1, err := m.ensureBrowser(context.Background())
	if err != nil {
		t.Fatalf("ensureBrowser() error = %v", err)
	}
	h2, err := m.ensureBrowser(context.Background())
	if err != nil {
		t.Fatalf("ensureBrowser() error = %v", err)
	}

	if h1 != h2 {
		t.Error("expected the same handle for a live browser")
	}
	if h1.generation != 1 {
		t.Errorf("generation = %d, want 1", h1.generation)
	}
	if engine.launches.Load() != 1 {
		t.Errorf("launches = %d, want 1", engine.launches.Load())
	}
}

func TestBrowserManager_CrashRecovery(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	m := newBrowserManager(engine, zerolog.Nop())

	h1, err := m.ensureBrowser(context.Background())
	if err != nil {
		t.Fatalf("ensureBrowser() error = %v", err)
	}
	engine.lastConn().crash()

	h2, err := m.ensureBrowser(context.Background())
	if err != nil {
		t.Fatalf("ensureBrowser() after crash error = %v", err)
	}

	if h2 == h1 {
		t.Fatal("expected a new handle after crash")
	}
	if h2.generation != h1.generation+1 {
		t.Errorf("generation = %d, want %d", h2.generation, h1.generation+1)
	}
	if h1.connected.Load() {
		t.Error("crashed handle still marked connected")
	}
	if engine.launches.Load() != 2 {
		t.Errorf("launches = %d, want 2", engine.launches.Load())
	}
}

func TestBrowserManager_CrashRecovery_ConcurrentCallersRelaunchOnce(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{launchDelay: 20 * time.Millisecond}
	m := newBrowserManager(engine, zerolog.Nop())

	if _, err := m.ensureBrowser(context.Background()); err != nil {
		t.Fatalf("ensureBrowser() error = %v", err)
	}
	engine.lastConn().crash()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.ensureBrowser(context.Background()); err != nil {
				t.Errorf("ensureBrowser() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := engine.launches.Load(); got != 2 {
		t.Errorf("launches = %d, want 2 (one initial, one relaunch)", got)
	}
}

func TestBrowserManager_LaunchError(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{launchErr: errors.New("chrome not found")}
	m := newBrowserManager(engine, zerolog.Nop())

	_, err := m.ensureBrowser(context.Background())
	if !errors.Is(err, ErrBrowserLaunch) {
		t.Fatalf("ensureBrowser() error = %v, want ErrBrowserLaunch", err)
	}
	if m.snapshot() != nil {
		t.Error("failed launch must not install a handle")
	}

	// A later call tries again.
	engine.launchErr = nil
	if _, err := m.ensureBrowser(context.Background()); err != nil {
		t.Fatalf("ensureBrowser() retry error = %v", err)
	}
}

func TestBrowserManager_CallerCancelDoesNotAbortLaunch(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{launchDelay: 100 * time.Millisecond}
	m := newBrowserManager(engine, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := m.ensureBrowser(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("ensureBrowser() error = %v, want DeadlineExceeded", err)
	}

	h, err := m.ensureBrowser(context.Background())
	if err != nil {
		t.Fatalf("ensureBrowser() error = %v", err)
	}
	if h == nil {
		t.Fatal("expected a handle")
	}
	if got := engine.launches.Load(); got != 1 {
		t.Errorf("launches = %d, want 1 (abandoned launch should be shared)", got)
	}
}

func TestBrowserManager_LaunchTimeout(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{launchDelay: time.Second}
	m := newBrowserManager(engine, zerolog.Nop())
	m.launchTimeout = 20 * time.Millisecond

	_, err := m.ensureBrowser(context.Background())
	if !errors.Is(err, ErrBrowserLaunch) {
		t.Errorf("ensureBrowser() error = %v, want ErrBrowserLaunch", err)
	}
}

func TestBrowserManager_CheckHealth(t *testing.T) {
	t.Parallel()

	t.Run("no browser is a no-op", func(t *testing.T) {
		t.Parallel()

		engine := &fakeEngine{}
		m := newBrowserManager(engine, zerolog.Nop())
		m.checkHealth(context.Background())

		if engine.launches.Load() != 0 {
			t.Error("checkHealth must never launch")
		}
	})

	t.Run("dead browser is discarded", func(t *testing.T) {
		t.Parallel()

		engine := &fakeEngine{}
		m := newBrowserManager(engine, zerolog.Nop())
		if _, err := m.ensureBrowser(context.Background()); err != nil {
			t.Fatalf("ensureBrowser() error = %v", err)
		}
		conn := engine.lastConn()
		conn.crash()

		m.checkHealth(context.Background())

		if m.snapshot() != nil {
			t.Error("dead browser still installed")
		}
		if !waitFor(conn.closed.Load) {
			t.Error("discarded browser was not closed")
		}
	})

	t.Run("live browser is kept", func(t *testing.T) {
		t.Parallel()

		engine := &fakeEngine{}
		m := newBrowserManager(engine, zerolog.Nop())
		h, err := m.ensureBrowser(context.Background())
		if err != nil {
			t.Fatalf("ensureBrowser() error = %v", err)
		}

		m.checkHealth(context.Background())

		if m.snapshot() != h {
			t.Error("live browser was discarded")
		}
	})
}

func TestBrowserManager_Verify(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	m := newBrowserManager(engine, zerolog.Nop())
	h, err := m.ensureBrowser(context.Background())
	if err != nil {
		t.Fatalf("ensureBrowser() error = %v", err)
	}

	m.verify(h)
	if m.snapshot() != h {
		t.Fatal("verify discarded a live browser")
	}

	engine.lastConn().crash()
	m.verify(h)
	if m.snapshot() != nil {
		t.Error("verify kept a dead browser")
	}
}

func TestBrowserManager_Shutdown(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	m := newBrowserManager(engine, zerolog.Nop())
	if _, err := m.ensureBrowser(context.Background()); err != nil {
		t.Fatalf("ensureBrowser() error = %v", err)
	}
	conn := engine.lastConn()

	if err := m.shutdown(); err != nil {
		t.Fatalf("shutdown() error = %v", err)
	}
	if !conn.closed.Load() {
		t.Error("browser not closed on shutdown")
	}
	if _, err := m.ensureBrowser(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("ensureBrowser() after shutdown error = %v, want ErrClosed", err)
	}
	if err := m.shutdown(); err != nil {
		t.Errorf("second shutdown() error = %v", err)
	}
}
