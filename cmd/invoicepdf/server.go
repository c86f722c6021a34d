package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/alnah/invoicepdf"
	"github.com/alnah/invoicepdf/internal/logging"
)

// defaultMaxBodyBytes caps request bodies when server.maxBodyBytes is unset.
const defaultMaxBodyBytes = 1 << 20

// requestIDHeader carries the request id in and out.
const requestIDHeader = "X-Request-ID"

// errGenerate is the only failure detail clients see; causes are logged.
const errGenerate = "could not generate document"

// renderService is the part of *invoicepdf.Renderer the HTTP layer uses.
type renderService interface {
	RenderWithOptions(ctx context.Context, req invoicepdf.RenderRequest) ([]byte, error)
	Warmup(ctx context.Context) error
	Status() invoicepdf.Status
	ClearCache(ctx context.Context) error
}

var _ renderService = (*invoicepdf.Renderer)(nil)

// renderBody is the JSON body of POST /v1/invoices/pdf.
type renderBody struct {
	Invoice  invoicepdf.Invoice       `json:"invoice"`
	Business *invoicepdf.Business     `json:"business,omitempty"`
	Page     *invoicepdf.PageSettings `json:"page,omitempty"`
}

// server wires HTTP routes to the renderer.
type server struct {
	svc          renderService
	business     invoicepdf.Business
	logger       zerolog.Logger
	maxBodyBytes int64
}

// newRouter builds the gin engine with all routes.
func newRouter(s *server) *gin.Engine {
	if s.maxBodyBytes <= 0 {
		s.maxBodyBytes = defaultMaxBodyBytes
	}

	r := gin.New()
	r.Use(s.requestContext(), s.recovery())

	r.GET("/healthz", s.healthz)
	v1 := r.Group("/v1")
	v1.POST("/invoices/pdf", s.renderInvoice)
	v1.POST("/warmup", s.warmup)
	v1.GET("/status", s.status)
	v1.DELETE("/cache", s.clearCache)
	return r
}

// requestContext attaches a request id and a request-scoped logger, and
// logs each request once it completes.
func (s *server) requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		ctx := logging.WithContext(c.Request.Context(), s.logger)
		ctx = logging.WithRequestID(ctx, id)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		logging.FromContext(ctx).Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Int("bytes", c.Writer.Size()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

// recovery turns handler panics into 500s through the zerolog logger.
func (s *server) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		logging.FromContext(c.Request.Context()).Error().Interface("panic", rec).Msg("handler panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": errGenerate})
	})
}

func (s *server) healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *server) renderInvoice(c *gin.Context) {
	ctx := c.Request.Context()
	log := logging.FromContext(ctx)

	var body renderBody
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes)
	if err := c.ShouldBindJSON(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON: " + err.Error()})
		return
	}

	req := invoicepdf.RenderRequest{Invoice: body.Invoice, Business: s.business, Page: body.Page}
	if body.Business != nil {
		req.Business = *body.Business
	}

	pdf, err := s.svc.RenderWithOptions(logging.WithInvoice(ctx, body.Invoice.Number), req)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusBadRequest {
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Str("invoice", body.Invoice.Number).Msg("render failed")
		c.JSON(status, gin.H{"error": errGenerate})
		return
	}

	etag := `"` + invoicepdf.Fingerprint(string(pdf))[:32] + `"`
	c.Header("ETag", etag)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+safeFilename(body.Invoice.Number)+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (s *server) warmup(c *gin.Context) {
	if err := s.svc.Warmup(c.Request.Context()); err != nil {
		logging.FromContext(c.Request.Context()).Error().Err(err).Msg("warmup failed")
		c.JSON(statusFor(err), gin.H{"error": "warmup failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.Status())
}

func (s *server) clearCache(c *gin.Context) {
	if err := s.svc.ClearCache(c.Request.Context()); err != nil {
		logging.FromContext(c.Request.Context()).Error().Err(err).Msg("cache clear failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not clear cache"})
		return
	}
	c.Status(http.StatusNoContent)
}

// statusFor maps a render error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, invoicepdf.ErrEmptyInvoiceNumber),
		errors.Is(err, invoicepdf.ErrNoLineItems),
		errors.Is(err, invoicepdf.ErrInvalidCurrency),
		errors.Is(err, invoicepdf.ErrFieldTooLong),
		errors.Is(err, invoicepdf.ErrInvalidPageSize),
		errors.Is(err, invoicepdf.ErrInvalidOrientation),
		errors.Is(err, invoicepdf.ErrInvalidMargin),
		errors.Is(err, invoicepdf.ErrInvalidLogo):
		return http.StatusBadRequest
	case errors.Is(err, invoicepdf.ErrRenderTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, invoicepdf.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// safeFilename keeps invoice numbers usable in a Content-Disposition header.
func safeFilename(number string) string {
	out := make([]byte, 0, len(number))
	for i := 0; i < len(number); i++ {
		ch := number[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9', ch == '-', ch == '_', ch == '.':
			out = append(out, ch)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "invoice"
	}
	return string(out)
}
