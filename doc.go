// Package renderpool renders HTML markup to screenshots and PDFs by driving
// a bounded pool of headless Chrome instances.
//
// # Quick Start
//
// Create a pool, a renderer on top of it, and shut the pool down when done:
//
//	pool, err := renderpool.NewPool(renderpool.DefaultPoolConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Shutdown()
//
//	r := renderpool.NewRenderer(pool)
//	res := r.Render(ctx, renderpool.RenderRequest{
//	    Markup:  "<h1>Hello</h1>",
//	    Options: renderpool.RenderOptions{Format: renderpool.FormatPNG},
//	})
//	if !res.Success {
//	    log.Fatalf("%s: %s", res.ErrorKind, res.Message)
//	}
//	os.WriteFile("out.png", res.Artifact, 0644)
//
// # Pool Behavior
//
// Browser processes are expensive to start, so instances are reused across
// renders. The pool warms up to MinInstances, grows lazily to MaxInstances,
// and blocks further Acquire calls once at capacity instead of launching
// unbounded processes. A background sweep evicts instances that have idled
// past IdleTimeout or aged past MaxAge, never shrinking below MinInstances.
// Exactly one render holds an instance at a time; Release is unconditional
// and also closes any page a render left behind.
//
// All render failures are folded into RenderResult rather than raw errors,
// so batch fan-out and HTTP handlers share one envelope:
//
//	res := r.Render(ctx, req)
//	if !res.Success {
//	    // res.ErrorKind: compliance_rejected, page_load_timeout, ...
//	}
//
// # Batch Fan-Out
//
// BatchRenderer issues independent renders under a shared concurrency
// ceiling; one item's failure never aborts its siblings:
//
//	batch := renderpool.NewBatchRenderer(r, 4)
//	results := batch.RenderBatch(ctx, requests)
//
// RenderSlides is the deck variant: it renders every slide to a single-page
// PDF and merges them, in order, into one document.
//
// # Browser Requirements
//
// Rendering requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
// For containers and CI environments, use ROD_BROWSER_BIN to specify a
// pre-installed binary; the sandbox is disabled automatically when CI=true
// or ROD_BROWSER_BIN is set.
package renderpool
