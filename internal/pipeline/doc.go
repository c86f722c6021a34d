// Package pipeline composes invoice data into a self-contained HTML document.
//
// Composition stages:
//   - notes and payment terms rendered from Markdown via goldmark
//   - logo resolved to a URL or an inlined data URI
//   - html/template execution with Sprig and money/date helpers
//   - minification via tdewolff/minify
//
// PDF generation is handled by the root invoicepdf package using a warm
// headless Chrome (go-rod). The pipeline never touches the browser, so its
// output can be fingerprinted and cached before any page is acquired.
package pipeline
