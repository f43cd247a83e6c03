package renderpool

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"sync"
	"time"
)

// concurrencyGauge tracks how many captures run at once.
type concurrencyGauge struct {
	mu   sync.Mutex
	cur  int
	peak int
}

func (g *concurrencyGauge) enter() {
	g.mu.Lock()
	g.cur++
	if g.cur > g.peak {
		g.peak = g.cur
	}
	g.mu.Unlock()
}

func (g *concurrencyGauge) exit() {
	g.mu.Lock()
	g.cur--
	g.mu.Unlock()
}

func (g *concurrencyGauge) max() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.peak
}

// fakePageHooks injects faults and delays into pages opened by a fakeBrowser.
type fakePageHooks struct {
	waitErr       error
	screenshotErr error
	pdfErr        error
	pdf           []byte
	captureDelay  time.Duration
	gauge         *concurrencyGauge
}

// fakePage records the page-lifecycle calls a render makes.
type fakePage struct {
	hooks fakePageHooks

	mu          sync.Mutex
	closed      bool
	width       int
	height      int
	scale       float64
	transparent bool
	fullPage    bool
	format      string
	quality     int
}

func (p *fakePage) WaitReady(timeout time.Duration) error {
	return p.hooks.waitErr
}

func (p *fakePage) SetViewport(width, height int, scale float64) error {
	p.mu.Lock()
	p.width, p.height, p.scale = width, height, scale
	p.mu.Unlock()
	return nil
}

func (p *fakePage) SetTransparentBackground() error {
	p.mu.Lock()
	p.transparent = true
	p.mu.Unlock()
	return nil
}

// Screenshot encodes a real raster of the recorded viewport size so callers
// can decode dimensions from the artifact.
func (p *fakePage) Screenshot(fullPage bool, format string, quality int, timeout time.Duration) ([]byte, error) {
	if p.hooks.gauge != nil {
		p.hooks.gauge.enter()
		defer p.hooks.gauge.exit()
	}
	if p.hooks.captureDelay > 0 {
		time.Sleep(p.hooks.captureDelay)
	}

	p.mu.Lock()
	p.fullPage = fullPage
	p.format = format
	p.quality = quality
	width, height := p.width, p.height
	p.mu.Unlock()

	if p.hooks.screenshotErr != nil {
		return nil, p.hooks.screenshotErr
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	if format == FormatJPEG {
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	} else {
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (p *fakePage) PDF(settings *PageSettings, timeout time.Duration) ([]byte, error) {
	if p.hooks.gauge != nil {
		p.hooks.gauge.enter()
		defer p.hooks.gauge.exit()
	}
	if p.hooks.captureDelay > 0 {
		time.Sleep(p.hooks.captureDelay)
	}

	p.mu.Lock()
	p.format = FormatPDF
	p.mu.Unlock()

	if p.hooks.pdfErr != nil {
		return nil, p.hooks.pdfErr
	}
	if p.hooks.pdf != nil {
		return p.hooks.pdf, nil
	}
	return []byte("%PDF-1.4\nfake"), nil
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

func (p *fakePage) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// fakeBrowser implements browser without a Chrome process.
type fakeBrowser struct {
	hooks fakePageHooks

	mu           sync.Mutex
	alive        bool
	aliveDelay   time.Duration
	closed       bool
	closeErr     error
	newPageErr   error
	cleanupErr   error
	cleanupCalls int
	pages        []*fakePage
}

// Compile-time interface checks for the fakes.
var (
	_ browser     = (*fakeBrowser)(nil)
	_ browserPage = (*fakePage)(nil)
)

func (b *fakeBrowser) NewPage(url string) (browserPage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.newPageErr != nil {
		return nil, b.newPageErr
	}
	page := &fakePage{hooks: b.hooks}
	b.pages = append(b.pages, page)
	return page, nil
}

func (b *fakeBrowser) CleanupPages() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cleanupCalls++
	return b.cleanupErr
}

func (b *fakeBrowser) Alive() bool {
	b.mu.Lock()
	delay := b.aliveDelay
	alive := b.alive
	b.mu.Unlock()
	time.Sleep(delay)
	return alive
}

func (b *fakeBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return b.closeErr
}

func (b *fakeBrowser) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *fakeBrowser) lastPage() *fakePage {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pages) == 0 {
		return nil
	}
	return b.pages[len(b.pages)-1]
}

// fakeLauncher produces fakeBrowsers and counts launches. failAfter > 0 makes
// every launch past that count fail.
type fakeLauncher struct {
	hooks     fakePageHooks
	failAfter int

	mu       sync.Mutex
	launched []*fakeBrowser
}

func (l *fakeLauncher) launch(headless bool) (browser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failAfter > 0 && len(l.launched) >= l.failAfter {
		return nil, fmt.Errorf("no more browsers")
	}
	b := &fakeBrowser{alive: true, hooks: l.hooks}
	l.launched = append(l.launched, b)
	return b, nil
}

func (l *fakeLauncher) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.launched)
}

func (l *fakeLauncher) browserAt(i int) *fakeBrowser {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launched[i]
}

// newTestPool builds a pool backed by the launcher, with sweeping effectively
// disabled unless the config says otherwise.
func newTestPool(cfg PoolConfig, l *fakeLauncher) (*Pool, error) {
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = time.Hour
	}
	return NewPool(cfg, withLaunch(l.launch))
}
