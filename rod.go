package invoicepdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/invoicepdf/internal/process"
)

// browserEngine launches headless browser processes.
type browserEngine interface {
	Launch(ctx context.Context) (browserConn, error)
}

// browserConn is a connected browser process.
type browserConn interface {
	NewPage(ctx context.Context) (renderPage, error)
	Alive(ctx context.Context) bool
	PID() int
	Close() error
}

// renderPage is one tab inside a browser process.
type renderPage interface {
	Load(ctx context.Context, html string) error
	PDF(ctx context.Context, opts *proto.PagePrintToPDF) ([]byte, error)
	Close() error
}

// Compile-time interface checks
var (
	_ browserEngine = (*rodEngine)(nil)
	_ browserConn   = (*rodBrowser)(nil)
	_ renderPage    = (*rodPage)(nil)
)

// rodEngine implements browserEngine using go-rod.
// Rod automatically downloads Chromium on first run if not found.
type rodEngine struct {
	bin       string
	noSandbox bool
}

// Launch starts Chrome and connects to it over the DevTools protocol.
// The launch keeps running after ctx is done; the process is then killed
// in the background so an abandoned launch never leaks a browser.
func (e *rodEngine) Launch(ctx context.Context) (browserConn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		conn *rodBrowser
		err  error
	}
	done := make(chan result, 1)

	go func() {
		conn, err := e.launch()
		done <- result{conn: conn, err: err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if r := <-done; r.conn != nil {
				_ = r.conn.Close()
			}
		}()
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		return r.conn, nil
	}
}

func (e *rodEngine) launch() (*rodBrowser, error) {
	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	bin := e.bin
	if bin == "" {
		bin = os.Getenv("ROD_BROWSER_BIN")
	}
	if bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if e.noSandbox || os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || bin != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		l.Kill()
		return nil, err
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting: %w", err)
	}

	return &rodBrowser{browser: browser, launcher: l, pid: l.PID()}, nil
}

// rodBrowser wraps one launched Chrome process.
type rodBrowser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	pid      int
}

// NewPage opens a blank tab.
func (b *rodBrowser) NewPage(ctx context.Context) (renderPage, error) {
	page, err := b.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, err
	}
	// Detach from the caller's context: pooled pages outlive the request
	// that opened them.
	return &rodPage{page: page.Context(context.Background())}, nil
}

// Alive reports whether the browser still answers DevTools calls.
func (b *rodBrowser) Alive(ctx context.Context) bool {
	_, err := proto.BrowserGetVersion{}.Call(b.browser.Context(ctx))
	return err == nil
}

// PID returns the browser process id.
func (b *rodBrowser) PID() int {
	return b.pid
}

// Close shuts the browser down and kills its process tree.
func (b *rodBrowser) Close() error {
	err := b.browser.Close()
	// launcher.Kill below covers whatever KillTree could not reach.
	_ = process.KillTree(b.pid)
	b.launcher.Kill()
	b.launcher.Cleanup()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// rodPage implements renderPage on a rod tab.
type rodPage struct {
	page *rod.Page
}

// Load replaces the tab's document and waits for subresources (logo) to load.
func (p *rodPage) Load(ctx context.Context, html string) error {
	page := p.page.Context(ctx)
	if err := page.SetDocumentContent(html); err != nil {
		return err
	}
	return page.WaitLoad()
}

// PDF prints the loaded document.
func (p *rodPage) PDF(ctx context.Context, opts *proto.PagePrintToPDF) ([]byte, error) {
	reader, err := p.page.Context(ctx).PDF(opts)
	if err != nil {
		return nil, err
	}

	pdfBuf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading PDF stream: %w", err)
	}
	return pdfBuf, nil
}

// Close closes the tab, aborting any pending DevTools call on it.
func (p *rodPage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), pageCloseTimeout)
	defer cancel()
	return p.page.Context(ctx).Close()
}
