// Package invoicepdf renders invoices to PDF on a warm headless Chrome.
//
// # Quick Start
//
// Create a renderer once, share it, and close it on shutdown:
//
//	r, err := invoicepdf.NewRenderer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	pdf, err := r.Render(ctx, inv, business)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("INV-001.pdf", pdf, 0644)
//
// # Rendering Pipeline
//
// Each render goes through these stages:
//
//  1. Validation of the invoice, business, and page settings
//  2. Composition of the HTML document (template, stylesheet, Markdown notes)
//  3. Cache lookup keyed by a fingerprint of the document and print settings
//  4. PDF export on a pooled browser page (go-rod)
//
// The browser is launched lazily by the first render, or eagerly by Warmup.
// Concurrent callers share a single launch. When the browser dies it is
// relaunched on the next render and the page pool is rebuilt.
//
// # Configuration
//
// Use functional options to customize the renderer:
//
//	r, err := invoicepdf.NewRenderer(
//	    invoicepdf.WithTimeout(10 * time.Second),
//	    invoicepdf.WithPoolSize(4),
//	    invoicepdf.WithCacheTTL(5 * time.Minute),
//	    invoicepdf.WithStyle("compact"),
//	    invoicepdf.WithFooter(&invoicepdf.Footer{ShowPageNumber: true}),
//	)
//
// Per-render page settings are passed via RenderRequest:
//
//	pdf, err := r.RenderWithOptions(ctx, invoicepdf.RenderRequest{
//	    Invoice:  inv,
//	    Business: business,
//	    Page:     &invoicepdf.PageSettings{Size: "a4"},
//	})
//
// # Caching
//
// Results are kept in memory for the cache TTL, bounded by WithCacheSize.
// WithStore adds a shared tier (see internal/store for the valkey one) so
// several processes reuse each other's results. Shared tier failures are
// logged and never fail a render.
//
// # Custom Assets
//
// Override built-in styles and templates using AssetLoader:
//
//	loader, err := invoicepdf.NewAssetLoader("/path/to/assets")
//	r, err := invoicepdf.NewRenderer(invoicepdf.WithAssetLoader(loader))
//
// Asset directory structure:
//
//	assets/
//	├── styles/
//	│   └── custom.css
//	└── templates/
//	    └── custom.html
//
// # Browser Requirements
//
// PDF generation requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package invoicepdf
