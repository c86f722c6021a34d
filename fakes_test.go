package invoicepdf

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/shopspring/decimal"
)

var errBrowserGone = errors.New("browser gone")

// fakeEngine launches in-memory browsers.
type fakeEngine struct {
	launchDelay time.Duration
	launchErr   error
	pageLimit   int // max pages per browser, 0 = unlimited
	loadDelay   time.Duration
	pdfErr      error

	stallPages atomic.Bool  // NewPage blocks until its context ends
	stalled    atomic.Int64 // NewPage calls currently blocked

	launches atomic.Int64
	loads    atomic.Int64

	mu    sync.Mutex
	conns []*fakeConn
}

var _ browserEngine = (*fakeEngine)(nil)

func (e *fakeEngine) Launch(ctx context.Context) (browserConn, error) {
	n := e.launches.Add(1)
	if e.launchDelay > 0 {
		select {
		case <-time.After(e.launchDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if e.launchErr != nil {
		return nil, e.launchErr
	}

	c := &fakeConn{engine: e, pid: 1000 + int(n)}
	c.alive.Store(true)

	e.mu.Lock()
	e.conns = append(e.conns, c)
	e.mu.Unlock()
	return c, nil
}

// lastConn returns the most recently launched browser.
func (e *fakeEngine) lastConn() *fakeConn {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.conns) == 0 {
		return nil
	}
	return e.conns[len(e.conns)-1]
}

// fakeConn is one fake browser process.
type fakeConn struct {
	engine *fakeEngine
	pid    int
	alive  atomic.Bool

	opened atomic.Int64
	closed atomic.Bool

	mu    sync.Mutex
	pages []*fakePage
}

var _ browserConn = (*fakeConn)(nil)

func (c *fakeConn) NewPage(ctx context.Context) (renderPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.engine.stallPages.Load() {
		c.engine.stalled.Add(1)
		defer c.engine.stalled.Add(-1)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if !c.alive.Load() {
		return nil, errBrowserGone
	}
	if limit := c.engine.pageLimit; limit > 0 && c.opened.Load() >= int64(limit) {
		return nil, fmt.Errorf("page limit %d reached", limit)
	}
	c.opened.Add(1)

	p := &fakePage{conn: c}
	c.mu.Lock()
	c.pages = append(c.pages, p)
	c.mu.Unlock()
	return p, nil
}

func (c *fakeConn) Alive(ctx context.Context) bool {
	return ctx.Err() == nil && c.alive.Load()
}

func (c *fakeConn) PID() int {
	return c.pid
}

func (c *fakeConn) Close() error {
	c.alive.Store(false)
	c.closed.Store(true)
	return nil
}

// crash simulates the browser process dying.
func (c *fakeConn) crash() {
	c.alive.Store(false)
}

// closedPages counts pages whose Close was called.
func (c *fakeConn) closedPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, p := range c.pages {
		if p.closed.Load() {
			n++
		}
	}
	return n
}

// fakePage is one fake tab.
type fakePage struct {
	conn   *fakeConn
	closed atomic.Bool

	mu   sync.Mutex
	html string
}

var _ renderPage = (*fakePage)(nil)

func (p *fakePage) Load(ctx context.Context, html string) error {
	if !p.conn.alive.Load() {
		return errBrowserGone
	}
	if p.closed.Load() {
		return errors.New("page closed")
	}
	p.conn.engine.loads.Add(1)

	if d := p.conn.engine.loadDelay; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	p.mu.Lock()
	p.html = html
	p.mu.Unlock()
	return nil
}

func (p *fakePage) PDF(ctx context.Context, opts *proto.PagePrintToPDF) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.conn.engine.pdfErr; err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return []byte(fmt.Sprintf("%%PDF-1.7 fake %d %.2f", len(p.html), *opts.PaperWidth)), nil
}

func (p *fakePage) Close() error {
	p.closed.Store(true)
	return nil
}

// memStore is an in-memory ResultStore.
type memStore struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
	setErr  error
	sets    int
	clears  int
}

var _ ResultStore = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{entries: make(map[string][]byte)}
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	v, ok := s.entries[key]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, key string, pdf []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.sets++
	s.entries[key] = append([]byte(nil), pdf...)
	return nil
}

func (s *memStore) Clear(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	n := len(s.entries)
	s.entries = make(map[string][]byte)
	return n, nil
}

// testInvoice returns a small valid invoice.
func testInvoice(number string) Invoice {
	return Invoice{
		Number:    number,
		Status:    "sent",
		IssueDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Currency:  "USD",
		Customer:  Customer{Name: "Acme Corp", Email: "ap@acme.test"},
		Items: []LineItem{
			{
				Description: "Design work",
				Quantity:    decimal.NewFromInt(2),
				UnitPrice:   decimal.RequireFromString("150.00"),
				Amount:      decimal.RequireFromString("300.00"),
			},
		},
		Subtotal: decimal.RequireFromString("300.00"),
		Total:    decimal.RequireFromString("300.00"),
		Notes:    "Thanks for your **business**.",
	}
}

func testBusiness() Business {
	return Business{Name: "Studio Nine", Email: "billing@studionine.test"}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
