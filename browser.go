package renderpool

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-renderpool/internal/process"
)

// browser abstracts one headless browser process so the pool and renderer
// can be tested without Chrome.
type browser interface {
	// NewPage opens a page already navigated to url.
	NewPage(url string) (browserPage, error)
	// CleanupPages closes every open page. Called on lease release so a
	// renderer that forgot to close its working page cannot leak tabs.
	CleanupPages() error
	// Alive reports whether the browser process still responds.
	Alive() bool
	Close() error
}

// browserPage abstracts one tab for the duration of a render.
type browserPage interface {
	WaitReady(timeout time.Duration) error
	SetViewport(width, height int, scale float64) error
	SetTransparentBackground() error
	Screenshot(fullPage bool, format string, quality int, timeout time.Duration) ([]byte, error)
	PDF(settings *PageSettings, timeout time.Duration) ([]byte, error)
	Close() error
}

// Compile-time interface checks.
var (
	_ browser     = (*rodBrowser)(nil)
	_ browserPage = (*rodPage)(nil)
)

// aliveProbeTimeout bounds the liveness check so a wedged browser cannot
// stall the acquire scan.
const aliveProbeTimeout = 2 * time.Second

// rodBrowser drives headless Chrome via go-rod.
// Rod automatically downloads Chromium on first run if not found.
type rodBrowser struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// launchRodBrowser starts one headless Chrome process and connects to it.
func launchRodBrowser(headless bool) (browser, error) {
	l := launcher.New().Headless(headless)

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	return &rodBrowser{launcher: l, browser: b}, nil
}

func (b *rodBrowser) NewPage(url string) (browserPage, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	return &rodPage{page: page}, nil
}

func (b *rodBrowser) CleanupPages() error {
	pages, err := b.browser.Pages()
	if err != nil {
		return err
	}

	var errs []error
	for _, p := range pages {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *rodBrowser) Alive() bool {
	_, err := proto.BrowserGetVersion{}.Call(b.browser.Timeout(aliveProbeTimeout))
	return err == nil
}

// Close shuts the browser down. If the graceful close fails, the whole
// Chrome process group is killed so no orphan renderers survive.
func (b *rodBrowser) Close() error {
	err := b.browser.Close()
	if err != nil {
		b.launcher.Kill()
		if pid := b.launcher.PID(); pid != 0 {
			process.KillProcessGroup(pid)
		}
	}
	return err
}

// rodPage wraps a rod page as a browserPage.
type rodPage struct {
	page *rod.Page
}

// WaitReady blocks until the document has loaded and web fonts are ready,
// so text renders with final metrics before capture.
func (p *rodPage) WaitReady(timeout time.Duration) error {
	pg := p.page.Timeout(timeout)
	if err := pg.WaitLoad(); err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if _, err := pg.Eval(`() => document.fonts.ready`); err != nil {
		return fmt.Errorf("%w: waiting for fonts: %v", ErrPageLoad, err)
	}
	return nil
}

func (p *rodPage) SetViewport(width, height int, scale float64) error {
	return p.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: scale,
		Mobile:            false,
	})
}

func (p *rodPage) SetTransparentBackground() error {
	return proto.EmulationSetDefaultBackgroundColorOverride{
		Color: &proto.DOMRGBA{R: 0, G: 0, B: 0, A: floatPtr(0)},
	}.Call(p.page)
}

func (p *rodPage) Screenshot(fullPage bool, format string, quality int, timeout time.Duration) ([]byte, error) {
	req := &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	}
	if format == FormatJPEG {
		req.Format = proto.PageCaptureScreenshotFormatJpeg
		req.Quality = intPtr(quality)
	}

	buf, err := p.page.Timeout(timeout).Screenshot(fullPage, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCapture, err)
	}
	return buf, nil
}

func (p *rodPage) PDF(settings *PageSettings, timeout time.Duration) ([]byte, error) {
	paperWidth, paperHeight := settings.paperDimensions()
	margin := settings.margin()

	reader, err := p.page.Timeout(timeout).PDF(&proto.PagePrintToPDF{
		PaperWidth:      floatPtr(paperWidth),
		PaperHeight:     floatPtr(paperHeight),
		MarginTop:       floatPtr(margin),
		MarginBottom:    floatPtr(margin),
		MarginLeft:      floatPtr(margin),
		MarginRight:     floatPtr(margin),
		PrintBackground: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCapture, err)
	}

	pdfBuf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrCapture, err)
	}
	return pdfBuf, nil
}

func (p *rodPage) Close() error {
	return p.page.Close()
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}

// intPtr returns a pointer to an int value.
func intPtr(v int) *int {
	return &v
}
