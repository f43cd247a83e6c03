package renderpool

import (
	"errors"
	"testing"
)

func TestRenderRequest_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     RenderRequest
		wantErr error
	}{
		{
			name: "valid minimal",
			req:  RenderRequest{Markup: "<p>x</p>"},
		},
		{
			name: "valid full options",
			req: RenderRequest{
				Markup: "<p>x</p>",
				Options: RenderOptions{
					Format:         FormatJPEG,
					Quality:        80,
					ViewportWidth:  1920,
					ViewportHeight: 1080,
				},
			},
		},
		{
			name:    "empty markup",
			req:     RenderRequest{},
			wantErr: ErrEmptyMarkup,
		},
		{
			name:    "whitespace markup",
			req:     RenderRequest{Markup: " \n\t "},
			wantErr: ErrEmptyMarkup,
		},
		{
			name:    "unknown format",
			req:     RenderRequest{Markup: "x", Options: RenderOptions{Format: "gif"}},
			wantErr: ErrInvalidFormat,
		},
		{
			name:    "negative quality",
			req:     RenderRequest{Markup: "x", Options: RenderOptions{Quality: -1}},
			wantErr: ErrInvalidQuality,
		},
		{
			name:    "quality above 100",
			req:     RenderRequest{Markup: "x", Options: RenderOptions{Quality: 101}},
			wantErr: ErrInvalidQuality,
		},
		{
			name:    "viewport width too large",
			req:     RenderRequest{Markup: "x", Options: RenderOptions{ViewportWidth: MaxViewport + 1}},
			wantErr: ErrInvalidViewport,
		},
		{
			name:    "negative viewport height",
			req:     RenderRequest{Markup: "x", Options: RenderOptions{ViewportHeight: -5}},
			wantErr: ErrInvalidViewport,
		},
		{
			name: "uppercase format accepted",
			req:  RenderRequest{Markup: "x", Options: RenderOptions{Format: "PNG"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.req.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPageSettings_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		page    *PageSettings
		wantErr error
	}{
		{
			name: "nil is valid",
			page: nil,
		},
		{
			name: "defaults are valid",
			page: DefaultPageSettings(),
		},
		{
			name: "a4 landscape",
			page: &PageSettings{Size: PageSizeA4, Orientation: OrientationLandscape, Margin: 1.0},
		},
		{
			name:    "unknown size",
			page:    &PageSettings{Size: "tabloid", Orientation: OrientationPortrait},
			wantErr: ErrInvalidPageSize,
		},
		{
			name:    "unknown orientation",
			page:    &PageSettings{Size: PageSizeLetter, Orientation: "sideways"},
			wantErr: ErrInvalidOrientation,
		},
		{
			name:    "negative margin",
			page:    &PageSettings{Size: PageSizeLetter, Orientation: OrientationPortrait, Margin: -0.1},
			wantErr: ErrInvalidMargin,
		},
		{
			name:    "margin above max",
			page:    &PageSettings{Size: PageSizeLegal, Orientation: OrientationPortrait, Margin: 3.5},
			wantErr: ErrInvalidMargin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.page.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPageSettings_PaperDimensions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		page       *PageSettings
		wantWidth  float64
		wantHeight float64
	}{
		{"nil defaults to letter portrait", nil, 8.5, 11},
		{"letter portrait", &PageSettings{Size: PageSizeLetter, Orientation: OrientationPortrait}, 8.5, 11},
		{"letter landscape", &PageSettings{Size: PageSizeLetter, Orientation: OrientationLandscape}, 11, 8.5},
		{"a4 portrait", &PageSettings{Size: PageSizeA4, Orientation: OrientationPortrait}, 8.27, 11.69},
		{"a4 landscape", &PageSettings{Size: PageSizeA4, Orientation: OrientationLandscape}, 11.69, 8.27},
		{"legal portrait", &PageSettings{Size: PageSizeLegal, Orientation: OrientationPortrait}, 8.5, 14},
		{"case insensitive", &PageSettings{Size: "A4", Orientation: "LANDSCAPE"}, 11.69, 8.27},
		{"empty fields default", &PageSettings{}, 8.5, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w, h := tt.page.paperDimensions()
			if w != tt.wantWidth || h != tt.wantHeight {
				t.Errorf("paperDimensions() = %.2f x %.2f, want %.2f x %.2f", w, h, tt.wantWidth, tt.wantHeight)
			}
		})
	}
}

func TestPageSettings_Margin(t *testing.T) {
	t.Parallel()

	var nilPage *PageSettings
	if got := nilPage.margin(); got != DefaultMargin {
		t.Errorf("nil margin() = %.2f, want %.2f", got, DefaultMargin)
	}

	page := &PageSettings{Margin: 1.25}
	if got := page.margin(); got != 1.25 {
		t.Errorf("margin() = %.2f, want 1.25", got)
	}
}

func TestRenderOptions_FullPage(t *testing.T) {
	t.Parallel()

	if got := (RenderOptions{}).fullPage(); !got {
		t.Error("fullPage() with nil pointer = false, want true")
	}

	f := false
	if got := (RenderOptions{FullPage: &f}).fullPage(); got {
		t.Error("fullPage() with explicit false = true, want false")
	}
}
