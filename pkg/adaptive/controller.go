package adaptive

import (
	"sync"
	"time"

	"github.com/veriscan/go-docscan/internal/log"
	"github.com/veriscan/go-docscan/pkg/perf"
)

// Adjustment cadence and transition factors.
const (
	evalPeriod = 2 * time.Second

	degradeIntervalFactor = 1.3
	degradeQualityFactor  = 0.85
	degradeScaleFactor    = 0.9

	upgradeIntervalFactor = 0.9
	upgradeQualityFactor  = 1.1
	upgradeScaleFactor    = 1.1

	// Scale is only sacrificed when the network is badly behind.
	scaleDegradeNetwork = 1500 * time.Millisecond
)

// Controller periodically evaluates the performance monitor and moves the
// parameters between degrade and upgrade transitions. When conditions are
// mixed the parameters hold steady.
type Controller struct {
	monitor *perf.Monitor

	mu     sync.Mutex
	params Parameters
	done   chan struct{}

	// OnChange fires after any transition that actually moved a
	// parameter. The detection loop uses it to restart its timer with
	// the new interval.
	OnChange func(Parameters)
}

// NewController creates a controller over the given monitor with default
// parameters.
func NewController(monitor *perf.Monitor) *Controller {
	return &Controller{
		monitor: monitor,
		params:  DefaultParameters(),
	}
}

// Params returns the current parameter snapshot.
func (c *Controller) Params() Parameters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// Start begins the 2-second evaluation loop. Idempotent while running.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done != nil {
		return
	}
	c.done = make(chan struct{})
	go c.run(c.done)
}

// Stop halts the evaluation loop. Safe to call when not running.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
}

func (c *Controller) run(done chan struct{}) {
	ticker := time.NewTicker(evalPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.Evaluate()
		}
	}
}

// Evaluate applies at most one transition based on current conditions.
// Exported so tests can drive the state machine without the ticker.
func (c *Controller) Evaluate() {
	poor := c.monitor.IsPoor()
	slow := c.monitor.IsNetworkSlow()
	good := c.monitor.IsGood()
	fast := c.monitor.IsNetworkFast()

	var next Parameters
	var changed bool

	c.mu.Lock()
	prev := c.params
	switch {
	case poor || slow:
		next = c.degrade(prev)
	case good && fast:
		next = c.upgrade(prev)
	default:
		// Mixed conditions: hold steady.
		c.mu.Unlock()
		return
	}
	changed = next != prev
	c.params = next
	c.mu.Unlock()

	if !changed {
		return
	}

	log.Debug("adaptive parameters adjusted",
		"interval", next.Interval,
		"quality", next.Quality,
		"scale", next.Scale,
		"poor", poor,
		"slow_network", slow)

	if c.OnChange != nil {
		c.OnChange(next)
	}
}

// degrade trades fidelity for throughput under poor conditions.
func (c *Controller) degrade(p Parameters) Parameters {
	p.Interval = time.Duration(float64(p.Interval) * degradeIntervalFactor)
	p.Quality *= degradeQualityFactor
	if c.monitor.AvgNetwork() > scaleDegradeNetwork {
		p.Scale *= degradeScaleFactor
	}
	return p.clamp()
}

// upgrade restores fidelity when conditions are clearly healthy.
func (c *Controller) upgrade(p Parameters) Parameters {
	p.Interval = time.Duration(float64(p.Interval) * upgradeIntervalFactor)
	p.Quality *= upgradeQualityFactor
	p.Scale *= upgradeScaleFactor
	return p.clamp()
}
