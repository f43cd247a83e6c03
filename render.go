package renderpool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"

	// Registered for screenshot dimension decoding.
	_ "image/jpeg"
	_ "image/png"

	"github.com/alnah/go-renderpool/internal/fileutil"
)

// Renderer turns HTML markup into screenshots and PDFs using pooled browser
// instances. One lease is consumed per render; the page-lifecycle protocol
// (open, configure, load, capture, close) is identical for both artifact
// types.
type Renderer struct {
	pool   *Pool
	gate   Gate
	logger *slog.Logger
	cfg    rendererConfig
}

// NewRenderer creates a Renderer on top of an existing pool.
// Use options to customize behavior (e.g., WithTimeout, WithGate).
func NewRenderer(pool *Pool, opts ...Option) *Renderer {
	r := &Renderer{
		pool:   pool,
		logger: loggerOrNop(nil),
		cfg: rendererConfig{
			timeout:        DefaultTimeout,
			viewportWidth:  DefaultViewportWidth,
			viewportHeight: DefaultViewportHeight,
			scaleFactor:    DefaultScaleFactor,
			jpegQuality:    DefaultJPEGQuality,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render produces one artifact. Failures never surface as raw errors: every
// outcome is folded into the RenderResult so batch items and HTTP handlers
// share a single envelope. The pool lease is released on every exit path.
func (r *Renderer) Render(ctx context.Context, req RenderRequest) *RenderResult {
	start := time.Now()

	result := func(artifact []byte, format string, err error) *RenderResult {
		return r.buildResult(artifact, format, err, time.Since(start))
	}

	if err := req.Validate(); err != nil {
		return result(nil, "", err)
	}

	// Compliance gate runs before any resource use; a rejected request
	// costs nothing.
	if r.gate != nil {
		check := r.gate.Check(req)
		if !check.Compliant {
			r.logger.Info("render rejected by gate",
				"score", check.Score, "violations", len(check.Violations))
			return result(nil, "", fmt.Errorf("%w: %s", ErrRejected, check.Summary()))
		}
	}

	format := strings.ToLower(req.Options.Format)
	if format == "" {
		format = FormatPNG
	}

	artifact, err := r.capture(ctx, req, format)
	return result(artifact, format, err)
}

// capture runs the page-lifecycle protocol on a pool lease. Cleanup is
// guaranteed on every path: the deferred release also closes stray pages.
func (r *Renderer) capture(ctx context.Context, req RenderRequest, format string) ([]byte, error) {
	inst, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer r.pool.Release(inst)

	tmpPath, cleanup, err := fileutil.WriteTempFile(req.Markup, "html")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer cleanup()

	page, err := inst.browser.NewPage("file://" + tmpPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			r.logger.Warn("closing render page failed", "error", closeErr)
		}
	}()

	width := req.Options.ViewportWidth
	if width == 0 {
		width = r.cfg.viewportWidth
	}
	height := req.Options.ViewportHeight
	if height == 0 {
		height = r.cfg.viewportHeight
	}
	if err := page.SetViewport(width, height, r.cfg.scaleFactor); err != nil {
		return nil, fmt.Errorf("%w: setting viewport: %v", ErrPageCreate, err)
	}

	if format != FormatPDF && req.Options.OmitBackground {
		if err := page.SetTransparentBackground(); err != nil {
			return nil, fmt.Errorf("%w: setting background: %v", ErrPageCreate, err)
		}
	}

	timeout := r.timeoutFor(ctx)
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}
	if err := page.WaitReady(timeout); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Capture is bounded by the same timeout as the load so a hung renderer
	// cannot pin a lease.
	if format == FormatPDF {
		return page.PDF(req.Options.Page, timeout)
	}

	quality := req.Options.Quality
	if quality == 0 {
		quality = r.cfg.jpegQuality
	}
	return page.Screenshot(req.Options.fullPage(), format, quality, timeout)
}

// timeoutFor returns the per-phase timeout, tightened by the ctx deadline.
func (r *Renderer) timeoutFor(ctx context.Context) time.Duration {
	timeout := r.cfg.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	return timeout
}

// buildResult folds an artifact or error into the structured result.
func (r *Renderer) buildResult(artifact []byte, format string, err error, elapsed time.Duration) *RenderResult {
	res := &RenderResult{
		Format:           format,
		RenderDurationMs: elapsed.Milliseconds(),
	}

	if err != nil {
		res.ErrorKind, res.Message = classifyError(err)
		r.logger.Debug("render failed", "kind", res.ErrorKind, "error", err)
		return res
	}

	res.Success = true
	res.Artifact = artifact
	if format != FormatPDF {
		// Report the true raster size; full-page captures can exceed the
		// requested viewport.
		if cfg, _, decErr := image.DecodeConfig(bytes.NewReader(artifact)); decErr == nil {
			res.Width = cfg.Width
			res.Height = cfg.Height
		}
	}
	return res
}

// classifyError maps sentinel errors onto result error kinds.
func classifyError(err error) (kind, message string) {
	switch {
	case errors.Is(err, ErrRejected):
		kind = KindComplianceRejected
	case errors.Is(err, ErrEmptyMarkup),
		errors.Is(err, ErrInvalidFormat),
		errors.Is(err, ErrInvalidQuality),
		errors.Is(err, ErrInvalidViewport),
		errors.Is(err, ErrInvalidPageSize),
		errors.Is(err, ErrInvalidOrientation),
		errors.Is(err, ErrInvalidMargin):
		kind = KindInvalidRequest
	case errors.Is(err, ErrBrowserLaunch), errors.Is(err, ErrBrowserConnect), errors.Is(err, ErrPoolClosed):
		kind = KindLaunchFailure
	case errors.Is(err, ErrPageLoad):
		kind = KindPageLoadTimeout
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = KindCanceled
	default:
		kind = KindCaptureFailure
	}
	return kind, err.Error()
}
