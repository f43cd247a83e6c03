package renderpool

import "errors"

// Sentinel errors for library operations.
var (
	ErrEmptyMarkup    = errors.New("markup content cannot be empty")
	ErrBrowserLaunch  = errors.New("failed to launch browser")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrCapture        = errors.New("artifact capture failed")
	ErrPoolClosed     = errors.New("browser pool is closed")
	ErrPoolConfig     = errors.New("invalid pool configuration")
	ErrRejected       = errors.New("request rejected by compliance gate")

	// Render option validation errors.
	ErrInvalidFormat   = errors.New("invalid artifact format")
	ErrInvalidQuality  = errors.New("invalid quality value")
	ErrInvalidViewport = errors.New("invalid viewport dimensions")

	// Page settings validation errors.
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("invalid margin")

	// Slide deck errors.
	ErrEmptyDeck  = errors.New("slide deck cannot be empty")
	ErrSlideMerge = errors.New("slide PDF merge failed")
)
