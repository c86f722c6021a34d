package invoicepdf

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// Result cache defaults.
const (
	DefaultCacheTTL  = 10 * time.Minute
	DefaultCacheSize = 20
)

// cacheEntry is one rendered PDF held in memory.
type cacheEntry struct {
	pdf       []byte
	expiresAt time.Time
}

// resultCache keeps recently rendered PDFs keyed by fingerprint.
// Entries expire lazily on read and are swept before each insert. Reads use
// Peek so the LRU order is insertion order: at capacity the oldest insert
// is evicted. Buffers are copied in and out.
type resultCache struct {
	mu      sync.Mutex
	entries *lru.Cache
	now     func() time.Time
}

func newResultCache(size int) *resultCache {
	if size < 1 {
		size = DefaultCacheSize
	}
	entries, err := lru.New(size)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	return &resultCache{entries: entries, now: time.Now}
}

// get returns a copy of the cached PDF for key.
func (c *resultCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.entries.Peek(key)
	if !ok {
		return nil, false
	}
	entry := v.(cacheEntry)
	if !c.now().Before(entry.expiresAt) {
		c.entries.Remove(key)
		return nil, false
	}
	return bytes.Clone(entry.pdf), true
}

// put stores a copy of pdf under key for ttl.
func (c *resultCache) put(key string, pdf []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweepLocked(now)

	// Re-inserting must refresh the insertion order too.
	c.entries.Remove(key)
	c.entries.Add(key, cacheEntry{pdf: bytes.Clone(pdf), expiresAt: now.Add(ttl)})
}

// sweepLocked drops expired entries. Caller holds c.mu.
func (c *resultCache) sweepLocked(now time.Time) {
	for _, k := range c.entries.Keys() {
		v, ok := c.entries.Peek(k)
		if !ok {
			continue
		}
		if !now.Before(v.(cacheEntry).expiresAt) {
			c.entries.Remove(k)
		}
	}
}

// clear drops every entry.
func (c *resultCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
}

// len returns the number of stored entries, expired ones included until
// they are swept.
func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Fingerprint hashes the composed document together with the request
// metadata that affects the PDF but not the markup. Fields are length
// prefixed so ("ab","c") and ("a","bc") differ.
func Fingerprint(html string, meta ...string) string {
	h := sha256.New()
	var n [8]byte
	write := func(s string) {
		binary.BigEndian.PutUint64(n[:], uint64(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}
	write(html)
	for _, m := range meta {
		write(m)
	}
	return hex.EncodeToString(h.Sum(nil))
}
