package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	renderpool "github.com/alnah/go-renderpool"
)

// maxRequestBody caps inbound JSON payloads (markup included).
const maxRequestBody = 10 << 20 // 10 MiB

// renderService abstracts the renderer for handler tests.
type renderService interface {
	Render(ctx context.Context, req renderpool.RenderRequest) *renderpool.RenderResult
}

// batchService abstracts batch fan-out for handler tests.
type batchService interface {
	RenderBatch(ctx context.Context, requests []renderpool.RenderRequest) []*renderpool.RenderResult
	RenderSlides(ctx context.Context, deck renderpool.SlideDeck) *renderpool.SlideResult
}

// healthService abstracts the health reporter for handler tests.
type healthService interface {
	Report() renderpool.HealthReport
}

// Compile-time interface implementation checks.
var (
	_ renderService = (*renderpool.Renderer)(nil)
	_ batchService  = (*renderpool.BatchRenderer)(nil)
	_ healthService = (*renderpool.HealthReporter)(nil)
)

// server wires the rendering surface to HTTP routes.
type server struct {
	renderer renderService
	batch    batchService
	health   healthService
	logger   *slog.Logger
	version  string
}

func newServer(r renderService, b batchService, h healthService, logger *slog.Logger, version string) *server {
	return &server{renderer: r, batch: b, health: h, logger: logger, version: version}
}

// routes builds the handler tree with request-ID middleware on top.
func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /render/screenshot", s.handleScreenshot)
	mux.HandleFunc("POST /render/pdf", s.handlePDF)
	mux.HandleFunc("POST /render/slide-pdf", s.handleSlidePDF)
	mux.HandleFunc("POST /render/screenshot/batch", s.handleBatch)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)
	return s.withRequestID(mux)
}

// withRequestID tags every request with a UUID, echoes it in X-Request-ID,
// and writes one access-log line per request.
func (s *server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Info("request",
			"id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// statusRecorder captures the response status for access logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Wire types. Field names follow the service's JSON contract.

type renderOptionsBody struct {
	Format         string   `json:"format,omitempty"`
	Quality        int      `json:"quality,omitempty"`
	ViewportWidth  int      `json:"viewportWidth,omitempty"`
	ViewportHeight int      `json:"viewportHeight,omitempty"`
	FullPage       *bool    `json:"fullPage,omitempty"`
	OmitBackground bool     `json:"omitBackground,omitempty"`
	PageSize       string   `json:"pageSize,omitempty"`
	Orientation    string   `json:"orientation,omitempty"`
	Margin         *float64 `json:"margin,omitempty"`
}

type renderBody struct {
	HTMLContent string            `json:"htmlContent"`
	Options     renderOptionsBody `json:"options"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type batchBody struct {
	Requests []renderBody `json:"requests"`
}

type slideDeckBody struct {
	Slides   []renderpool.Slide `json:"slides"`
	Metadata map[string]string  `json:"metadata,omitempty"`
	Options  renderOptionsBody  `json:"options"`
}

// toRequest maps a wire body onto a library request.
func (b renderBody) toRequest(format string) renderpool.RenderRequest {
	opts := renderpool.RenderOptions{
		Format:         b.Options.Format,
		Quality:        b.Options.Quality,
		ViewportWidth:  b.Options.ViewportWidth,
		ViewportHeight: b.Options.ViewportHeight,
		FullPage:       b.Options.FullPage,
		OmitBackground: b.Options.OmitBackground,
		Page:           b.Options.pageSettings(),
	}
	if opts.Format == "" {
		opts.Format = format
	}
	return renderpool.RenderRequest{
		Markup:   b.HTMLContent,
		Options:  opts,
		Metadata: b.Metadata,
	}
}

// pageSettings builds PDF page settings when any page field is present.
func (o renderOptionsBody) pageSettings() *renderpool.PageSettings {
	if o.PageSize == "" && o.Orientation == "" && o.Margin == nil {
		return nil
	}
	page := renderpool.DefaultPageSettings()
	if o.PageSize != "" {
		page.Size = o.PageSize
	}
	if o.Orientation != "" {
		page.Orientation = o.Orientation
	}
	if o.Margin != nil {
		page.Margin = *o.Margin
	}
	return page
}

// Handlers

func (s *server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	var body renderBody
	if !s.decode(w, r, &body) {
		return
	}

	res := s.renderer.Render(r.Context(), body.toRequest(renderpool.FormatPNG))
	s.respondResult(w, r, res)
}

func (s *server) handlePDF(w http.ResponseWriter, r *http.Request) {
	var body renderBody
	if !s.decode(w, r, &body) {
		return
	}

	req := body.toRequest(renderpool.FormatPDF)
	req.Options.Format = renderpool.FormatPDF
	res := s.renderer.Render(r.Context(), req)
	s.respondResult(w, r, res)
}

func (s *server) handleSlidePDF(w http.ResponseWriter, r *http.Request) {
	var body slideDeckBody
	if !s.decode(w, r, &body) {
		return
	}

	res := s.batch.RenderSlides(r.Context(), renderpool.SlideDeck{
		Slides:   body.Slides,
		Metadata: body.Metadata,
		Page:     body.Options.pageSettings(),
	})
	if !res.Success {
		writeError(w, statusForKind(res.ErrorKind), res.ErrorKind, res.Message)
		return
	}

	if acceptsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"base64":           base64.StdEncoding.EncodeToString(res.PDF),
				"slidesCount":      res.SlideCount,
				"fileSize":         len(res.PDF),
				"renderDurationMs": res.RenderDurationMs,
			},
		})
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="slides.pdf"`)
	_, _ = w.Write(res.PDF)
}

func (s *server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var body batchBody
	if !s.decode(w, r, &body) {
		return
	}
	if len(body.Requests) == 0 {
		writeError(w, http.StatusBadRequest, renderpool.KindInvalidRequest, "requests cannot be empty")
		return
	}

	requests := make([]renderpool.RenderRequest, len(body.Requests))
	for i, rb := range body.Requests {
		requests[i] = rb.toRequest(renderpool.FormatPNG)
	}

	results := s.batch.RenderBatch(r.Context(), requests)
	envelopes := make([]map[string]any, len(results))
	for i, res := range results {
		envelopes[i] = resultEnvelope(res)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "results": envelopes})
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.health.Report())
}

func (s *server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "renderpoold",
		"version": s.version,
		"status":  "operational",
	})
}

// decode reads and validates the JSON request body. Returns false after
// writing an error response.
func (s *server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, renderpool.KindInvalidRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// respondResult negotiates binary vs JSON output for one render result.
func (s *server) respondResult(w http.ResponseWriter, r *http.Request, res *renderpool.RenderResult) {
	if !res.Success {
		writeError(w, statusForKind(res.ErrorKind), res.ErrorKind, res.Message)
		return
	}

	if acceptsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": resultData(res)})
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(res.Format))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="render.%s"`, extensionFor(res.Format)))
	_, _ = w.Write(res.Artifact)
}

// resultEnvelope wraps one result for batch responses. Failed items carry
// their error in place, never an HTTP error status.
func resultEnvelope(res *renderpool.RenderResult) map[string]any {
	if !res.Success {
		return map[string]any{
			"success": false,
			"error": map[string]any{
				"code":    res.ErrorKind,
				"message": res.Message,
			},
		}
	}
	return map[string]any{"success": true, "data": resultData(res)}
}

func resultData(res *renderpool.RenderResult) map[string]any {
	return map[string]any{
		"base64":           base64.StdEncoding.EncodeToString(res.Artifact),
		"format":           res.Format,
		"width":            res.Width,
		"height":           res.Height,
		"fileSize":         len(res.Artifact),
		"renderDurationMs": res.RenderDurationMs,
	}
}

// acceptsJSON reports whether the caller asked for a JSON envelope instead
// of binary output.
func acceptsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func contentTypeFor(format string) string {
	switch format {
	case renderpool.FormatPDF:
		return "application/pdf"
	case renderpool.FormatJPEG:
		return "image/jpeg"
	default:
		return "image/png"
	}
}

func extensionFor(format string) string {
	switch format {
	case renderpool.FormatPDF:
		return "pdf"
	case renderpool.FormatJPEG:
		return "jpg"
	default:
		return "png"
	}
}

// statusForKind maps a result error kind onto an HTTP status.
// Raw stack traces never reach the wire.
func statusForKind(kind string) int {
	switch kind {
	case renderpool.KindInvalidRequest:
		return http.StatusBadRequest
	case renderpool.KindComplianceRejected:
		return http.StatusUnprocessableEntity
	case renderpool.KindPageLoadTimeout:
		return http.StatusGatewayTimeout
	case renderpool.KindCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   map[string]any{"code": code, "message": message},
	})
}
