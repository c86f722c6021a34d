package store

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestStore(t *testing.T, ttl time.Duration) (*ValkeyStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	s, err := New(Options{Addr: mr.Addr(), TTL: ttl})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestNew_EmptyAddr(t *testing.T) {
	t.Parallel()

	_, err := New(Options{})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("New() error = %v, want ErrUnavailable", err)
	}
}

func TestValkeyStore_SetGet(t *testing.T) {
	t.Parallel()

	s, mr := newTestStore(t, time.Minute)
	ctx := context.Background()
	pdf := []byte("%PDF-1.7\x00\xff binary")

	if err := s.Set(ctx, "abc", pdf, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok, err := s.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() found = false, want true")
	}
	if !bytes.Equal(got, pdf) {
		t.Errorf("Get() = %q, want %q", got, pdf)
	}

	if !mr.Exists(KeyPrefix + "abc") {
		t.Errorf("expected key %q in valkey", KeyPrefix+"abc")
	}
}

func TestValkeyStore_GetMissing(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t, time.Minute)

	got, ok, err := s.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok || got != nil {
		t.Errorf("Get() = %q, %v; want nil, false", got, ok)
	}
}

func TestValkeyStore_TTL(t *testing.T) {
	t.Parallel()

	s, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	if err := s.Set(ctx, "default", []byte("a"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set(ctx, "custom", []byte("b"), 5*time.Second); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if got := mr.TTL(KeyPrefix + "default"); got != time.Minute {
		t.Errorf("default TTL = %v, want %v", got, time.Minute)
	}
	if got := mr.TTL(KeyPrefix + "custom"); got != 5*time.Second {
		t.Errorf("custom TTL = %v, want %v", got, 5*time.Second)
	}

	mr.FastForward(10 * time.Second)

	if _, ok, _ := s.Get(ctx, "custom"); ok {
		t.Error("custom entry should have expired")
	}
	if _, ok, _ := s.Get(ctx, "default"); !ok {
		t.Error("default entry should still be present")
	}
}

func TestValkeyStore_NoTTL(t *testing.T) {
	t.Parallel()

	s, mr := newTestStore(t, 0)

	if err := s.Set(context.Background(), "forever", []byte("x"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got := mr.TTL(KeyPrefix + "forever"); got != 0 {
		t.Errorf("TTL = %v, want no expiry", got)
	}
}

func TestValkeyStore_Clear(t *testing.T) {
	t.Parallel()

	s, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		if err := s.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatalf("Set(%q) error = %v", k, err)
		}
	}
	if err := mr.Set("unrelated", "keep"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	removed, err := s.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if removed != 3 {
		t.Errorf("Clear() removed = %d, want 3", removed)
	}
	if _, ok, _ := s.Get(ctx, "a"); ok {
		t.Error("entry survived Clear")
	}
	if !mr.Exists("unrelated") {
		t.Error("Clear removed a key outside the prefix")
	}
}

func TestValkeyStore_ClearEmpty(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t, time.Minute)

	removed, err := s.Clear(context.Background())
	if err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if removed != 0 {
		t.Errorf("Clear() removed = %d, want 0", removed)
	}
}

func TestValkeyStore_Ping(t *testing.T) {
	t.Parallel()

	s, mr := newTestStore(t, time.Minute)

	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Ping(ctx); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Ping() after close error = %v, want ErrUnavailable", err)
	}
}
