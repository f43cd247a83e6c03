package renderpool

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Slide is one page of a deck, with an explicit position.
type Slide struct {
	HTML  string `json:"html"`
	Order int    `json:"order"`
}

// SlideDeck is a render request for a whole presentation: every slide is
// rendered to a single-page PDF and the pages are merged in Order.
type SlideDeck struct {
	Slides   []Slide           `json:"slides"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Page     *PageSettings     `json:"-"`
}

// SlideResult is the structured outcome of a deck render.
type SlideResult struct {
	Success          bool
	PDF              []byte
	SlideCount       int
	RenderDurationMs int64
	ErrorKind        string
	Message          string
	FailedSlide      int // index into the ordered deck; -1 when not slide-specific
}

// RenderSlides renders the deck to one merged PDF. Slides are sorted by
// Order before rendering, so callers may submit them in any sequence.
// Unlike RenderBatch, a single slide's failure fails the whole deck: a
// presentation with a hole in it is not a useful artifact.
func (b *BatchRenderer) RenderSlides(ctx context.Context, deck SlideDeck) *SlideResult {
	start := time.Now()

	fail := func(kind, message string, failedSlide int) *SlideResult {
		return &SlideResult{
			ErrorKind:        kind,
			Message:          message,
			FailedSlide:      failedSlide,
			SlideCount:       len(deck.Slides),
			RenderDurationMs: time.Since(start).Milliseconds(),
		}
	}

	if len(deck.Slides) == 0 {
		return fail(KindInvalidRequest, ErrEmptyDeck.Error(), -1)
	}

	ordered := make([]Slide, len(deck.Slides))
	copy(ordered, deck.Slides)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	requests := make([]RenderRequest, len(ordered))
	for i, slide := range ordered {
		requests[i] = RenderRequest{
			Markup:   slide.HTML,
			Options:  RenderOptions{Format: FormatPDF, Page: deck.Page},
			Metadata: deck.Metadata,
		}
	}

	results := b.RenderBatch(ctx, requests)
	pages := make([]io.ReadSeeker, len(results))
	for i, res := range results {
		if !res.Success {
			return fail(res.ErrorKind, fmt.Sprintf("slide %d: %s", i, res.Message), i)
		}
		pages[i] = bytes.NewReader(res.Artifact)
	}

	merged, err := mergePDFs(pages)
	if err != nil {
		return fail(KindCaptureFailure, fmt.Sprintf("%v: %v", ErrSlideMerge, err), -1)
	}

	return &SlideResult{
		Success:          true,
		PDF:              merged,
		SlideCount:       len(ordered),
		RenderDurationMs: time.Since(start).Milliseconds(),
		FailedSlide:      -1,
	}
}

// mergePDFs concatenates single-slide PDFs into one document.
func mergePDFs(pages []io.ReadSeeker) ([]byte, error) {
	var buf bytes.Buffer
	if err := api.MergeRaw(pages, &buf, false, model.NewDefaultConfiguration()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
