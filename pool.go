package renderpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Pool sizing and timing defaults.
const (
	DefaultMinInstances  = 1
	DefaultMaxInstances  = 4
	DefaultMaxAge        = 30 * time.Minute
	DefaultIdleTimeout   = 5 * time.Minute
	DefaultSweepInterval = time.Minute

	// acquireRetryInterval guards against missed release signals while a
	// caller waits on a saturated pool.
	acquireRetryInterval = 100 * time.Millisecond
)

// PoolConfig bounds the pool and its eviction policy.
type PoolConfig struct {
	MinInstances  int           // kept warm; floor for eviction
	MaxInstances  int           // hard cap; acquire blocks at this bound
	MaxAge        time.Duration // instance lifetime before eviction
	IdleTimeout   time.Duration // unused time before eviction
	SweepInterval time.Duration // eviction pass cadence
	Headless      bool          // browser visibility (headless in production)
}

// DefaultPoolConfig returns the production defaults.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MinInstances:  DefaultMinInstances,
		MaxInstances:  DefaultMaxInstances,
		MaxAge:        DefaultMaxAge,
		IdleTimeout:   DefaultIdleTimeout,
		SweepInterval: DefaultSweepInterval,
		Headless:      true,
	}
}

// withDefaults fills zero values and validates the bounds.
func (c PoolConfig) withDefaults() (PoolConfig, error) {
	if c.MinInstances <= 0 {
		c.MinInstances = DefaultMinInstances
	}
	if c.MaxInstances <= 0 {
		c.MaxInstances = DefaultMaxInstances
	}
	if c.MaxAge <= 0 {
		c.MaxAge = DefaultMaxAge
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	if c.MinInstances > c.MaxInstances {
		return c, fmt.Errorf("%w: min %d exceeds max %d", ErrPoolConfig, c.MinInstances, c.MaxInstances)
	}
	return c, nil
}

// Instance is one pooled browser process. Callers never own an Instance,
// only a lease to it between Acquire and Release.
type Instance struct {
	browser   browser
	createdAt time.Time
	lastUsed  time.Time
	inUse     bool
}

// Age returns how long the instance has existed.
func (i *Instance) Age() time.Duration { return time.Since(i.createdAt) }

// launchFunc creates one browser; swapped out by tests.
type launchFunc func(headless bool) (browser, error)

// PoolStats is a side-effect-free snapshot of pool occupancy.
type PoolStats struct {
	Total     int `json:"total"`
	InUse     int `json:"inUse"`
	Available int `json:"available"`
}

// Pool owns a bounded collection of browser instances and leases them to
// concurrent renders. All mutable state is guarded by one mutex; Acquire is
// the only blocking operation.
type Pool struct {
	cfg    PoolConfig
	launch launchFunc
	logger *slog.Logger

	mu        sync.Mutex
	instances []*Instance
	launching int // reserved slots for in-flight launches
	closed    bool

	freeCh  chan struct{} // signaled by Release; wakes one waiter
	done    chan struct{} // closed by Shutdown; stops the sweep and waiters
	sweepWG sync.WaitGroup
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolLogger sets the pool's logger. By default nothing is logged.
func WithPoolLogger(l *slog.Logger) PoolOption {
	return func(p *Pool) {
		p.logger = loggerOrNop(l)
	}
}

// withLaunch swaps the browser launcher; used by tests to avoid Chrome.
func withLaunch(launch launchFunc) PoolOption {
	return func(p *Pool) {
		p.launch = launch
	}
}

// NewPool creates a pool, warms it to MinInstances, and starts the eviction
// sweep. The pool is an explicit object: construct it once at process start
// and pass it to every consumer.
func NewPool(cfg PoolConfig, opts ...PoolOption) (*Pool, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	p := &Pool{
		cfg:    cfg,
		launch: launchRodBrowser,
		logger: loggerOrNop(nil),
		freeCh: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	// Warm up to the minimum so the first requests skip launch latency.
	for i := 0; i < cfg.MinInstances; i++ {
		inst, err := p.newInstance()
		if err != nil {
			_ = p.Shutdown()
			return nil, err
		}
		p.instances = append(p.instances, inst)
	}

	p.sweepWG.Add(1)
	go p.sweepLoop()

	return p, nil
}

// newInstance launches a browser and wraps it. Launch failures are not
// retried; the caller decides what to do with a pool that cannot grow.
func (p *Pool) newInstance() (*Instance, error) {
	b, err := p.launch(p.cfg.Headless)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}
	now := time.Now()
	return &Instance{browser: b, createdAt: now, lastUsed: now}, nil
}

// Acquire returns a free, live instance, launching one when the pool is below
// its cap. At capacity it blocks until a release or ctx cancellation: this is
// the pool's backpressure, chosen over unbounded browser creation.
func (p *Pool) Acquire(ctx context.Context) (*Instance, error) {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, ErrPoolClosed
		}

		// 1) Claim a free instance, then probe its liveness with the mutex
		// released. The probe is a CDP round-trip with a timeout; run under
		// the lock it would stall Release, Stats, and the eviction sweep
		// behind one wedged browser.
		var claimed *Instance
		for _, inst := range p.instances {
			if !inst.inUse {
				inst.inUse = true
				inst.lastUsed = time.Now()
				claimed = inst
				break
			}
		}
		if claimed != nil {
			p.mu.Unlock()
			if claimed.browser.Alive() {
				return claimed, nil
			}
			p.dropDead(claimed)
			continue
		}

		// 2) Grow below the cap. The slot is reserved before unlocking so
		// concurrent acquirers cannot overshoot MaxInstances.
		if len(p.instances)+p.launching < p.cfg.MaxInstances {
			p.launching++
			p.mu.Unlock()

			inst, err := p.newInstance()

			p.mu.Lock()
			p.launching--
			if err != nil {
				p.mu.Unlock()
				return nil, err
			}
			if p.closed {
				p.mu.Unlock()
				_ = inst.browser.Close()
				return nil, ErrPoolClosed
			}
			inst.inUse = true
			p.instances = append(p.instances, inst)
			p.mu.Unlock()
			return inst, nil
		}
		p.mu.Unlock()

		// 3) Saturated: wait for a release signal, with a retry tick in case
		// the signal was consumed by another waiter.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.done:
			return nil, ErrPoolClosed
		case <-p.freeCh:
		case <-time.After(acquireRetryInterval):
		}
	}
}

// dropDead removes a claimed instance whose browser stopped responding. The
// close runs off the caller's path; a dead process may take a while to reap.
func (p *Pool) dropDead(inst *Instance) {
	p.logger.Warn("dropping dead browser instance", "age", inst.Age())

	p.mu.Lock()
	for i, cur := range p.instances {
		if cur == inst {
			p.instances = append(p.instances[:i], p.instances[i+1:]...)
			break
		}
	}
	p.mu.Unlock()

	go func() { _ = inst.browser.Close() }()
}

// Release returns a leased instance to the pool. It never fails the caller's
// flow: page cleanup errors are logged and swallowed. Release after Shutdown
// closes the instance instead of re-pooling it.
func (p *Pool) Release(inst *Instance) {
	if inst == nil {
		return
	}

	// Close any page the render left behind; leaked tabs accumulate memory.
	if err := inst.browser.CleanupPages(); err != nil {
		p.logger.Warn("page cleanup on release failed", "error", err)
	}

	p.mu.Lock()
	inst.inUse = false
	inst.lastUsed = time.Now()
	closed := p.closed
	p.mu.Unlock()

	if closed {
		_ = inst.browser.Close()
		return
	}

	// Wake one waiter. Non-blocking: a full channel means a wakeup is
	// already pending.
	select {
	case p.freeCh <- struct{}{}:
	default:
	}
}

// EvictIdle removes instances that are not leased and have either idled past
// IdleTimeout or aged past MaxAge, never shrinking below MinInstances.
// Returns the number of instances evicted.
func (p *Pool) EvictIdle() int {
	now := time.Now()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0
	}

	var evicted []*Instance
	remaining := len(p.instances)
	kept := p.instances[:0]
	for _, inst := range p.instances {
		expired := now.Sub(inst.lastUsed) > p.cfg.IdleTimeout || now.Sub(inst.createdAt) > p.cfg.MaxAge
		if !inst.inUse && expired && remaining > p.cfg.MinInstances {
			evicted = append(evicted, inst)
			remaining--
			continue
		}
		kept = append(kept, inst)
	}
	p.instances = kept
	p.mu.Unlock()

	for _, inst := range evicted {
		if err := inst.browser.Close(); err != nil {
			p.logger.Warn("closing evicted instance failed", "error", err)
		}
	}
	if len(evicted) > 0 {
		p.logger.Debug("evicted idle browser instances", "count", len(evicted))
	}
	return len(evicted)
}

// sweepLoop runs the eviction pass on a fixed interval until Shutdown.
func (p *Pool) sweepLoop() {
	defer p.sweepWG.Done()

	ticker := time.NewTicker(p.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.EvictIdle()
		case <-p.done:
			return
		}
	}
}

// Shutdown closes every instance and empties the pool. Safe to call more
// than once; later calls are no-ops. Leased instances are closed too: this
// is the graceful-termination path, not a drain.
func (p *Pool) Shutdown() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.done)
	instances := p.instances
	p.instances = nil
	p.mu.Unlock()

	p.sweepWG.Wait()

	var errs []error
	for _, inst := range instances {
		if err := inst.browser.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stats returns a snapshot of pool occupancy. Side-effect-free.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := PoolStats{Total: len(p.instances)}
	for _, inst := range p.instances {
		if inst.inUse {
			stats.InUse++
		}
	}
	stats.Available = stats.Total - stats.InUse
	return stats
}
