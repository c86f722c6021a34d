// Package store is the shared PDF cache tier backed by valkey.
//
// It sits behind the in-process result cache so that several service
// replicas can reuse each other's renders. Every key carries the
// "invoicepdf:pdf:" prefix; Clear only touches keys under that prefix.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// KeyPrefix namespaces every entry written by this package.
const KeyPrefix = "invoicepdf:pdf:"

// scanCount is the COUNT hint passed to SCAN during Clear.
const scanCount = 100

// ErrUnavailable indicates the store could not be reached.
var ErrUnavailable = errors.New("shared cache unavailable")

// Options configures a ValkeyStore.
type Options struct {
	Addr     string
	Username string
	Password string
	DB       int
	TTL      time.Duration
}

// ValkeyStore stores rendered PDFs in valkey with a per-entry TTL.
type ValkeyStore struct {
	client valkey.Client
	ttl    time.Duration
}

// New connects to valkey. The client-side cache is disabled: PDFs are
// already cached in process and tracking would only duplicate memory.
func New(opts Options) (*ValkeyStore, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("%w: empty address", ErrUnavailable)
	}
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:  []string{opts.Addr},
		Username:     opts.Username,
		Password:     opts.Password,
		SelectDB:     opts.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &ValkeyStore{client: client, ttl: opts.TTL}, nil
}

// Get returns the PDF stored under key. A missing key is not an error.
func (s *ValkeyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	cmd := s.client.B().Get().Key(KeyPrefix + key).Build()
	val, err := s.client.Do(ctx, cmd).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set stores pdf under key. A ttl of zero uses the store default; when
// both are zero the entry does not expire.
func (s *ValkeyStore) Set(ctx context.Context, key string, pdf []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.ttl
	}
	set := s.client.B().Set().Key(KeyPrefix + key).Value(valkey.BinaryString(pdf))
	if ttl > 0 {
		return s.client.Do(ctx, set.Px(ttl).Build()).Error()
	}
	return s.client.Do(ctx, set.Build()).Error()
}

// Clear deletes every entry under KeyPrefix and returns how many were removed.
func (s *ValkeyStore) Clear(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		cmd := s.client.B().Scan().Cursor(cursor).Match(KeyPrefix + "*").Count(scanCount).Build()
		entry, err := s.client.Do(ctx, cmd).AsScanEntry()
		if err != nil {
			return removed, err
		}
		if len(entry.Elements) > 0 {
			del := s.client.B().Del().Key(entry.Elements...).Build()
			n, err := s.client.Do(ctx, del).AsInt64()
			if err != nil {
				return removed, err
			}
			removed += int(n)
		}
		cursor = entry.Cursor
		if cursor == 0 {
			return removed, nil
		}
	}
}

// Ping checks connectivity.
func (s *ValkeyStore) Ping(ctx context.Context) error {
	if err := s.client.Do(ctx, s.client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close releases the client connections.
func (s *ValkeyStore) Close() error {
	s.client.Close()
	return nil
}
