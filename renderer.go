package invoicepdf

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"

	"github.com/alnah/invoicepdf/internal/pipeline"
)

// defaultHealthInterval is used when StartHealthCheck gets a non-positive interval.
const defaultHealthInterval = 30 * time.Second

// storeTimeout bounds shared cache calls so a slow valkey cannot stall a render.
const storeTimeout = 500 * time.Millisecond

// Renderer turns invoices into PDFs on a warm browser.
// Create one with NewRenderer, share it between goroutines, and Close it
// on shutdown.
type Renderer struct {
	cfg      rendererConfig
	logger   zerolog.Logger
	composer *pipeline.Composer
	manager  *browserManager
	pool     *pagePool
	cache    *resultCache
	store    ResultStore

	mu           sync.Mutex
	closed       bool
	stopHealth   context.CancelFunc
	healthDone   chan struct{}
	healthActive bool
}

// Status is a side-effect free snapshot of the renderer.
type Status struct {
	Connected        bool      `json:"connected"`
	PagePoolSize     int       `json:"pagePoolSize"`
	PagesAvailable   int       `json:"pagesAvailable"`
	CacheSize        int       `json:"cacheSize"`
	Generation       uint64    `json:"generation"`
	BrowserPID       int       `json:"browserPid,omitempty"`
	BrowserStartedAt time.Time `json:"browserStartedAt,omitzero"`
	OverflowPages    int64     `json:"overflowPages"`
	Launches         int64     `json:"launches"`
}

// NewRenderer creates a Renderer. The browser is not started until the
// first render or Warmup.
func NewRenderer(opts ...Option) (*Renderer, error) {
	cfg := defaultRendererConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.page.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.footer.Validate(); err != nil {
		return nil, err
	}

	loader := cfg.assetLoader
	if loader == nil {
		var err error
		loader, err = NewAssetLoader(cfg.assetPath)
		if err != nil {
			return nil, err
		}
	}

	composer, err := newComposer(cfg, loader)
	if err != nil {
		return nil, err
	}

	logger := cfg.logger.With().Str("component", "renderer").Logger()

	engine := cfg.engine
	if engine == nil {
		engine = &rodEngine{bin: cfg.browserBin, noSandbox: cfg.noSandbox}
	}
	manager := newBrowserManager(engine, logger)
	manager.launchTimeout = cfg.launchTimeout

	pool := newPagePool(ResolvePoolSize(cfg.poolSize), logger)
	pool.acquireWait = cfg.acquireWait

	if cfg.storeTTL <= 0 {
		cfg.storeTTL = cfg.cacheTTL
	}

	return &Renderer{
		cfg:      cfg,
		logger:   logger,
		composer: composer,
		manager:  manager,
		pool:     pool,
		cache:    newResultCache(cfg.cacheSize),
		store:    cfg.store,
	}, nil
}

// Render produces the PDF for inv issued by biz, using the renderer's
// default page settings.
func (r *Renderer) Render(ctx context.Context, inv Invoice, biz Business) ([]byte, error) {
	return r.RenderWithOptions(ctx, RenderRequest{Invoice: inv, Business: biz})
}

// RenderWithOptions produces the PDF for req. Identical requests within the
// cache TTL return the cached bytes without touching the browser.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (r *Renderer) RenderWithOptions(ctx context.Context, req RenderRequest) (pdf []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("internal error: %v", rec)
		}
	}()

	if r.isClosed() {
		return nil, ErrClosed
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	page := req.Page
	if page == nil {
		page = r.cfg.page
	}

	doc, err := r.compose(ctx, &req)
	if err != nil {
		return nil, err
	}

	key := Fingerprint(doc, pageKey(page), footerKey(r.cfg.footer), req.Invoice.Number)
	log := r.logger.With().Str("invoice", req.Invoice.Number).Str("key", key[:12]).Logger()

	if cached, ok := r.cache.get(key); ok {
		log.Debug().Msg("cache hit")
		return cached, nil
	}
	if shared, ok := r.storeGet(ctx, key); ok {
		log.Debug().Msg("shared cache hit")
		r.cache.put(key, shared, r.cfg.cacheTTL)
		return shared, nil
	}

	pdf, err = r.export(ctx, doc, buildPDFOptions(page, r.cfg.footer, req.Invoice.Number))
	if err != nil {
		log.Warn().Err(err).Dur("took", time.Since(start)).Msg("render failed")
		return nil, err
	}

	r.cache.put(key, pdf, r.cfg.cacheTTL)
	r.storeSet(key, pdf)

	log.Info().Int("bytes", len(pdf)).Dur("took", time.Since(start)).Msg("rendered")
	return pdf, nil
}

// exportResult is what the export goroutine hands back.
type exportResult struct {
	pdf []byte
	err error
}

// export loads doc into a pooled page and prints it. The page goes back to
// the pool on every path; a page that timed out is replaced instead.
func (r *Renderer) export(ctx context.Context, doc string, opts *proto.PagePrintToPDF) ([]byte, error) {
	h, err := r.manager.ensureBrowser(ctx)
	if err != nil {
		return nil, err
	}

	// The render bound starts before the pool so a tab that never opens
	// counts against it.
	renderCtx, cancel := context.WithTimeout(ctx, r.cfg.timeout)
	defer cancel()

	if err := r.pool.initialize(renderCtx, h); err != nil {
		return nil, r.poolErr(ctx, renderCtx, err)
	}
	page, err := r.pool.acquire(renderCtx)
	if err != nil {
		return nil, r.poolErr(ctx, renderCtx, err)
	}

	done := make(chan exportResult, 1)
	go func() {
		if err := page.page.Load(renderCtx, doc); err != nil {
			done <- exportResult{err: fmt.Errorf("%w: loading document: %v", ErrExport, err)}
			return
		}
		pdf, err := page.page.PDF(renderCtx, opts)
		if err != nil {
			done <- exportResult{err: fmt.Errorf("%w: %v", ErrExport, err)}
			return
		}
		done <- exportResult{pdf: pdf}
	}()

	select {
	case res := <-done:
		if res.err == nil {
			r.pool.release(page)
			return res.pdf, nil
		}
		if renderCtx.Err() != nil {
			// The error is the deadline surfacing through rod.
			r.pool.replace(page)
			return nil, r.abortErr(ctx)
		}
		r.pool.release(page)
		r.manager.verify(h)
		return nil, res.err
	case <-renderCtx.Done():
		r.pool.replace(page)
		return nil, r.abortErr(ctx)
	}
}

// poolErr maps a pool failure caused by the render bound expiring to the
// same error a slow render gets.
func (r *Renderer) poolErr(ctx, renderCtx context.Context, err error) error {
	if errors.Is(err, ErrClosed) || renderCtx.Err() == nil {
		return err
	}
	return r.abortErr(ctx)
}

// abortErr distinguishes the caller giving up from the render bound.
func (r *Renderer) abortErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w after %s", ErrRenderTimeout, r.cfg.timeout)
}

func (r *Renderer) storeGet(ctx context.Context, key string) ([]byte, bool) {
	if r.store == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	pdf, ok, err := r.store.Get(ctx, key)
	if err != nil {
		r.logger.Warn().Err(err).Msg("shared cache read failed")
		return nil, false
	}
	return pdf, ok
}

func (r *Renderer) storeSet(key string, pdf []byte) {
	if r.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := r.store.Set(ctx, key, pdf, r.cfg.storeTTL); err != nil {
		r.logger.Warn().Err(err).Msg("shared cache write failed")
	}
}

// Warmup starts the browser and opens the page pool so the first render
// does not pay for them. Safe to call repeatedly.
func (r *Renderer) Warmup(ctx context.Context) error {
	if r.isClosed() {
		return ErrClosed
	}
	h, err := r.manager.ensureBrowser(ctx)
	if err != nil {
		return err
	}
	return r.pool.initialize(ctx, h)
}

// Status reports the renderer state. It never launches a browser.
func (r *Renderer) Status() Status {
	st := Status{
		PagePoolSize:   r.pool.size,
		PagesAvailable: r.pool.available(),
		CacheSize:      r.cache.len(),
		OverflowPages:  r.pool.overflow.Load(),
		Launches:       r.manager.launches.Load(),
	}
	if h := r.manager.snapshot(); h != nil {
		st.Connected = h.connected.Load()
		st.Generation = h.generation
		st.BrowserPID = h.pid
		st.BrowserStartedAt = h.createdAt
	}
	return st
}

// ClearCache drops every cached PDF, including the shared tier.
func (r *Renderer) ClearCache(ctx context.Context) error {
	r.cache.clear()
	if r.store == nil {
		return nil
	}
	n, err := r.store.Clear(ctx)
	if err != nil {
		return fmt.Errorf("clearing shared cache: %w", err)
	}
	r.logger.Info().Int("removed", n).Msg("shared cache cleared")
	return nil
}

// StartHealthCheck probes the browser every interval until ctx ends or the
// renderer is closed. A dead browser is discarded so the next render
// relaunches it. Calling it again while a check runs is a no-op.
func (r *Renderer) StartHealthCheck(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultHealthInterval
	}

	r.mu.Lock()
	if r.closed || r.healthActive {
		r.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.stopHealth = cancel
	r.healthDone = done
	r.healthActive = true
	r.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.manager.checkHealth(ctx)
			}
		}
	}()
}

// Close stops the health check, closes the pool and shuts the browser down.
// Renders started afterwards fail with ErrClosed.
func (r *Renderer) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	stop, done := r.stopHealth, r.healthDone
	r.mu.Unlock()

	if stop != nil {
		stop()
		<-done
	}
	r.pool.close()
	return r.manager.shutdown()
}

func (r *Renderer) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
