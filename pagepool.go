package invoicepdf

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one page is available.
	MinPoolSize = 1

	// MaxPoolSize caps pooled tabs; each one holds a renderer process.
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2

	// defaultAcquireWait is how long acquire waits for a pooled page
	// before opening a transient overflow page.
	defaultAcquireWait = 50 * time.Millisecond
)

// Tab lifecycle bounds, shared by the pool and the rod adapter.
const (
	// pageOpenTimeout bounds opening one tab, whatever the caller's context.
	pageOpenTimeout = 10 * time.Second

	// pageCloseTimeout bounds tab teardown so a wedged tab cannot stall release.
	pageCloseTimeout = 2 * time.Second
)

// ResolvePoolSize determines the page pool size.
// Priority: explicit value > GOMAXPROCS-based calculation.
func ResolvePoolSize(pages int) int {
	if pages > 0 {
		return pages
	}

	// GOMAXPROCS is container-aware once automaxprocs has run
	n := runtime.GOMAXPROCS(0) / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}

// pooledPage is a tab checked out for one render.
type pooledPage struct {
	id         string
	page       renderPage
	generation uint64
	transient  bool
}

// pagePool keeps size pre-opened tabs of the current browser generation.
// Pages of an older generation belong to a dead process and are closed on
// sight. When every page is busy, acquire waits briefly and then opens a
// transient page: pool size bounds warm tabs, not concurrency.
type pagePool struct {
	size        int
	acquireWait time.Duration
	logger      zerolog.Logger

	overflow atomic.Int64

	initSem chan struct{}

	mu         sync.Mutex
	conn       browserConn
	generation uint64
	idle       chan *pooledPage
	deficit    int  // pooled slots whose page could not be (re)opened
	opening    bool // an initializer is opening tabs
	closed     bool
}

func newPagePool(size int, logger zerolog.Logger) *pagePool {
	if size < MinPoolSize {
		size = MinPoolSize
	}
	return &pagePool{
		size:        size,
		acquireWait: defaultAcquireWait,
		logger:      logger,
		initSem:     make(chan struct{}, 1),
	}
}

// initialize opens the pool's pages on h. No-op when the pool already
// belongs to h's generation; otherwise pages of the previous browser are
// closed first. Tabs open without p.mu held, so release and available never
// wait on Chrome; initSem keeps a single initializer at a time.
func (p *pagePool) initialize(ctx context.Context, h *browserHandle) error {
	select {
	case p.initSem <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("%w: waiting for pool setup: %v", ErrPageAcquisition, ctx.Err())
	}
	defer func() { <-p.initSem }()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.conn != nil && p.generation == h.generation {
		p.mu.Unlock()
		return nil
	}
	stale := p.drainLocked()
	p.conn = nil
	p.opening = true
	p.mu.Unlock()
	go closePages(stale)
	defer func() {
		p.mu.Lock()
		p.opening = false
		p.mu.Unlock()
	}()

	pages := make([]*pooledPage, 0, p.size)
	var openErr error
	for i := 0; i < p.size; i++ {
		page, err := openPage(ctx, h.conn)
		if err != nil {
			openErr = err
			break
		}
		pages = append(pages, &pooledPage{id: uuid.NewString(), page: page, generation: h.generation})
	}
	if len(pages) == 0 {
		return fmt.Errorf("%w: opening pool pages: %v", ErrPageAcquisition, openErr)
	}

	idle := make(chan *pooledPage, p.size)
	for _, page := range pages {
		idle <- page
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		go closePages(pages)
		return ErrClosed
	}
	p.conn = h.conn
	p.generation = h.generation
	p.idle = idle
	p.deficit = p.size - len(pages)
	p.mu.Unlock()

	ev := p.logger.Info()
	if openErr != nil {
		ev = p.logger.Warn().Err(openErr)
	}
	ev.Int("pages", len(pages)).Int("size", p.size).Uint64("generation", h.generation).Msg("page pool initialized")
	return nil
}

// acquire checks out a page. Callers must pass it to release or replace
// exactly once.
func (p *pagePool) acquire(ctx context.Context) (*pooledPage, error) {
	for {
		page, err := p.tryAcquire(ctx)
		if err != nil || page != nil {
			return page, err
		}
	}
}

// tryAcquire returns (nil, nil) when the pool moved to a newer browser
// generation while it waited and the caller should try again.
func (p *pagePool) tryAcquire(ctx context.Context) (*pooledPage, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	conn, gen, idle := p.conn, p.generation, p.idle
	if conn == nil {
		opening := p.opening
		p.mu.Unlock()
		if !opening {
			return nil, fmt.Errorf("%w: pool not initialized", ErrPageAcquisition)
		}
		// Wait for the initializer in flight, then look again.
		select {
		case p.initSem <- struct{}{}:
			<-p.initSem
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	refill := p.deficit > 0
	if refill {
		p.deficit--
	}
	p.mu.Unlock()

	if refill {
		page, err := openPage(ctx, conn)
		if err == nil {
			return &pooledPage{id: uuid.NewString(), page: page, generation: gen}, nil
		}
		p.mu.Lock()
		if p.generation == gen {
			p.deficit++
		}
		p.mu.Unlock()
	}

	select {
	case page := <-idle:
		return p.checkGeneration(page), nil
	default:
	}

	timer := time.NewTimer(p.acquireWait)
	defer timer.Stop()

	select {
	case page := <-idle:
		return p.checkGeneration(page), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	// initialize may have swapped browsers while we waited on the old idle
	// set; its pages and conn are dead.
	p.mu.Lock()
	swapped := p.generation != gen || p.conn != conn
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	if swapped {
		return nil, nil
	}

	page, err := openPage(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("%w: overflow page: %v", ErrPageAcquisition, err)
	}
	n := p.overflow.Add(1)
	p.logger.Debug().Int64("overflow_total", n).Msg("pool exhausted, opened transient page")
	return &pooledPage{id: uuid.NewString(), page: page, generation: gen, transient: true}, nil
}

// openPage opens one tab on conn, bounded by pageOpenTimeout.
func openPage(ctx context.Context, conn browserConn) (renderPage, error) {
	ctx, cancel := context.WithTimeout(ctx, pageOpenTimeout)
	defer cancel()
	return conn.NewPage(ctx)
}

// checkGeneration closes page and returns nil if the pool moved to a newer
// browser since page was queued.
func (p *pagePool) checkGeneration(page *pooledPage) *pooledPage {
	p.mu.Lock()
	current := p.generation
	p.mu.Unlock()
	if page.generation == current {
		return page
	}
	go closePages([]*pooledPage{page})
	return nil
}

// release returns page to the idle set. Transient pages and pages of an
// older browser are closed instead.
func (p *pagePool) release(page *pooledPage) {
	if page.transient {
		go closePages([]*pooledPage{page})
		return
	}

	p.mu.Lock()
	if p.closed || page.generation != p.generation || p.idle == nil {
		p.mu.Unlock()
		go closePages([]*pooledPage{page})
		return
	}
	select {
	case p.idle <- page:
		p.mu.Unlock()
	default:
		p.mu.Unlock()
		go closePages([]*pooledPage{page})
	}
}

// replace closes a page that may be wedged (render timed out or was
// cancelled mid-flight) and puts a fresh tab in its pool slot.
func (p *pagePool) replace(page *pooledPage) {
	go closePages([]*pooledPage{page})
	if page.transient {
		return
	}

	p.mu.Lock()
	if p.closed || page.generation != p.generation || p.conn == nil {
		p.mu.Unlock()
		return
	}
	conn, gen := p.conn, p.generation
	p.mu.Unlock()

	fresh, err := openPage(context.Background(), conn)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.generation != gen {
		if fresh != nil {
			go func() { _ = fresh.Close() }()
		}
		return
	}
	if err != nil {
		p.deficit++
		p.logger.Warn().Err(err).Msg("could not replace timed out page")
		return
	}
	select {
	case p.idle <- &pooledPage{id: uuid.NewString(), page: fresh, generation: gen}:
	default:
		go func() { _ = fresh.Close() }()
	}
}

// available returns the number of idle pooled pages.
func (p *pagePool) available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.idle == nil {
		return 0
	}
	return len(p.idle)
}

// close closes every idle page and rejects further use.
func (p *pagePool) close() {
	p.mu.Lock()
	p.closed = true
	stale := p.drainLocked()
	p.conn = nil
	p.mu.Unlock()

	closePages(stale)
}

// drainLocked empties the idle set. Caller holds p.mu.
func (p *pagePool) drainLocked() []*pooledPage {
	if p.idle == nil {
		return nil
	}
	var pages []*pooledPage
	for {
		select {
		case page := <-p.idle:
			pages = append(pages, page)
		default:
			p.idle = nil
			return pages
		}
	}
}

// closePages closes pages best-effort; a dead browser fails every close.
func closePages(pages []*pooledPage) {
	for _, page := range pages {
		_ = page.page.Close()
	}
}
