package renderpool

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Artifact format constants.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatPDF  = "pdf"
)

// Page size constants.
const (
	PageSizeLetter = "letter"
	PageSizeA4     = "a4"
	PageSizeLegal  = "legal"
)

// Orientation constants.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Margin bounds in inches.
const (
	MinMargin     = 0.0
	MaxMargin     = 3.0
	DefaultMargin = 0.5
)

// Viewport bounds in pixels.
const (
	MinViewport = 1
	MaxViewport = 10000
)

// Error kinds carried by a failed RenderResult.
const (
	KindInvalidRequest     = "invalid_request"
	KindComplianceRejected = "compliance_rejected"
	KindLaunchFailure      = "launch_failure"
	KindPageLoadTimeout    = "page_load_timeout"
	KindCaptureFailure     = "capture_failure"
	KindCanceled           = "canceled"
)

// RenderOptions customizes a single render.
// Zero values fall back to the Renderer's configured defaults.
type RenderOptions struct {
	Format         string        // "png", "jpeg", "pdf" (default: "png")
	Quality        int           // JPEG only, 1-100 (ignored for PNG and PDF)
	ViewportWidth  int           // pixels
	ViewportHeight int           // pixels
	FullPage       *bool         // screenshots only; nil means true
	OmitBackground bool          // transparent background for screenshots
	Page           *PageSettings // PDF only; nil means defaults
}

// RenderRequest is one unit of work for the Renderer.
type RenderRequest struct {
	Markup   string
	Options  RenderOptions
	Metadata map[string]string // opaque caller context, passed to the gate
}

// Validate checks the request against format and bounds rules.
func (r RenderRequest) Validate() error {
	if strings.TrimSpace(r.Markup) == "" {
		return ErrEmptyMarkup
	}
	return r.Options.Validate()
}

// Validate checks render options. Zero values are allowed (defaults apply).
func (o RenderOptions) Validate() error {
	if o.Format != "" && !isValidFormat(o.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, o.Format)
	}
	if o.Quality < 0 || o.Quality > 100 {
		return fmt.Errorf("%w: %d (must be 1-100)", ErrInvalidQuality, o.Quality)
	}
	if err := validateViewportDim(o.ViewportWidth); err != nil {
		return err
	}
	if err := validateViewportDim(o.ViewportHeight); err != nil {
		return err
	}
	return o.Page.Validate()
}

func validateViewportDim(v int) error {
	if v != 0 && (v < MinViewport || v > MaxViewport) {
		return fmt.Errorf("%w: %d (must be %d-%d)", ErrInvalidViewport, v, MinViewport, MaxViewport)
	}
	return nil
}

// isValidFormat checks if format is a known artifact format (case-insensitive).
func isValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case FormatPNG, FormatJPEG, FormatPDF:
		return true
	}
	return false
}

// fullPage resolves the FullPage option; screenshots default to full-page.
func (o RenderOptions) fullPage() bool {
	if o.FullPage == nil {
		return true
	}
	return *o.FullPage
}

// RenderResult is the structured outcome of one render.
// Failures never escape as raw errors; they arrive here as ErrorKind + Message.
type RenderResult struct {
	Success          bool
	Artifact         []byte
	Format           string
	Width            int // pixels; zero for PDF
	Height           int // pixels; zero for PDF
	RenderDurationMs int64
	ErrorKind        string
	Message          string
}

// PageSettings configures PDF page dimensions.
type PageSettings struct {
	Size        string  // "letter", "a4", "legal"
	Orientation string  // "portrait", "landscape"
	Margin      float64 // inches, applied to all sides
}

// DefaultPageSettings returns page settings with default values.
func DefaultPageSettings() *PageSettings {
	return &PageSettings{
		Size:        PageSizeLetter,
		Orientation: OrientationPortrait,
		Margin:      DefaultMargin,
	}
}

// Validate checks that page settings are valid.
// Returns nil if p is nil (nil means use defaults).
func (p *PageSettings) Validate() error {
	if p == nil {
		return nil
	}

	if !isValidPageSize(p.Size) {
		return fmt.Errorf("%w: %q", ErrInvalidPageSize, p.Size)
	}
	if !isValidOrientation(p.Orientation) {
		return fmt.Errorf("%w: %q", ErrInvalidOrientation, p.Orientation)
	}
	if p.Margin < MinMargin || p.Margin > MaxMargin {
		return fmt.Errorf("%w: %.2f (must be between %.2f and %.2f)", ErrInvalidMargin, p.Margin, MinMargin, MaxMargin)
	}
	return nil
}

// isValidPageSize checks if size is a known page size (case-insensitive).
func isValidPageSize(size string) bool {
	switch strings.ToLower(size) {
	case PageSizeLetter, PageSizeA4, PageSizeLegal:
		return true
	}
	return false
}

// isValidOrientation checks if orientation is valid (case-insensitive).
func isValidOrientation(orientation string) bool {
	switch strings.ToLower(orientation) {
	case OrientationPortrait, OrientationLandscape:
		return true
	}
	return false
}

// paperDimensions returns width and height in inches for the settings,
// applying orientation. Nil settings mean portrait US Letter.
func (p *PageSettings) paperDimensions() (width, height float64) {
	size := PageSizeLetter
	orientation := OrientationPortrait
	if p != nil {
		if p.Size != "" {
			size = strings.ToLower(p.Size)
		}
		if p.Orientation != "" {
			orientation = strings.ToLower(p.Orientation)
		}
	}

	switch size {
	case PageSizeA4:
		width, height = 8.27, 11.69
	case PageSizeLegal:
		width, height = 8.5, 14
	default:
		width, height = 8.5, 11
	}

	if orientation == OrientationLandscape {
		width, height = height, width
	}
	return width, height
}

// margin resolves the margin in inches; nil settings mean the default.
func (p *PageSettings) margin() float64 {
	if p == nil {
		return DefaultMargin
	}
	return p.Margin
}

// Option configures a Renderer.
type Option func(*Renderer)

// rendererConfig holds internal configuration for Renderer.
type rendererConfig struct {
	timeout        time.Duration
	viewportWidth  int
	viewportHeight int
	scaleFactor    float64
	jpegQuality    int
}

// Renderer defaults.
const (
	DefaultTimeout        = 30 * time.Second
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultScaleFactor    = 2.0
	DefaultJPEGQuality    = 90
)

// WithTimeout sets the per-phase render timeout (page load and capture).
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("renderpool: WithTimeout duration must be positive")
	}
	return func(r *Renderer) {
		r.cfg.timeout = d
	}
}

// WithViewport sets the default viewport for requests that omit dimensions.
func WithViewport(width, height int) Option {
	return func(r *Renderer) {
		r.cfg.viewportWidth = width
		r.cfg.viewportHeight = height
	}
}

// WithDeviceScaleFactor sets the device scale factor for all renders.
func WithDeviceScaleFactor(scale float64) Option {
	return func(r *Renderer) {
		r.cfg.scaleFactor = scale
	}
}

// WithQuality sets the default JPEG quality for requests that omit it.
func WithQuality(quality int) Option {
	return func(r *Renderer) {
		r.cfg.jpegQuality = quality
	}
}

// WithGate installs a compliance gate checked before any pool lease.
// Pass nil to disable gating.
func WithGate(g Gate) Option {
	return func(r *Renderer) {
		r.gate = g
	}
}

// WithLogger sets the renderer's logger. By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = loggerOrNop(l)
	}
}
