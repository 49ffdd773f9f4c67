package editor

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"reportengine/internal/clock"
)

const (
	DefaultQuietPeriod       = 1500 * time.Millisecond
	DefaultIndicatorDuration = 2 * time.Second
)

type SaveState string

const (
	StateIdle    SaveState = "idle"
	StatePending SaveState = "pending"
	StateSaving  SaveState = "saving"
	StateSaved   SaveState = "saved"
	StateFailed  SaveState = "failed"
)

// Status is what the autosave indicator shows. Visible turns false once the
// indicator has faded after a save finished.
type Status struct {
	State   SaveState
	Visible bool
	At      time.Time
	Err     error
}

func (s Status) Label() string {
	switch s.State {
	case StatePending:
		return "Unsaved changes"
	case StateSaving:
		return "Saving..."
	case StateSaved:
		return "Saved ✓"
	case StateFailed:
		return "Save failed"
	default:
		return ""
	}
}

type SaveFunc func(ctx context.Context) error

type CoordinatorConfig struct {
	Clock             clock.Clock
	QuietPeriod       time.Duration
	IndicatorDuration time.Duration
	Save              SaveFunc
	Logger            *log.Logger
}

// Coordinator debounces change notifications into a single save. Every
// Notify cancels the pending timer and starts a new quiet period; the
// generation counter keeps a superseded timer from saving even if it
// already fired.
type Coordinator struct {
	mu         sync.Mutex
	clock      clock.Clock
	quiet      time.Duration
	display    time.Duration
	save       SaveFunc
	logger     *log.Logger
	timer      clock.Timer
	fade       clock.Timer
	generation uint64
	status     Status
	saves      int
	closed     bool
}

func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	c := &Coordinator{
		clock:   cfg.Clock,
		quiet:   cfg.QuietPeriod,
		display: cfg.IndicatorDuration,
		save:    cfg.Save,
		logger:  cfg.Logger,
		status:  Status{State: StateIdle},
	}
	if c.clock == nil {
		c.clock = clock.Real()
	}
	if c.quiet <= 0 {
		c.quiet = DefaultQuietPeriod
	}
	if c.display <= 0 {
		c.display = DefaultIndicatorDuration
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard, "", 0)
	}
	return c
}

func (c *Coordinator) Notify() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.stopTimersLocked()
	c.generation++
	gen := c.generation
	c.status = Status{State: StatePending, Visible: true, At: c.clock.Now()}
	c.timer = c.clock.AfterFunc(c.quiet, func() { c.fire(gen) })
}

// Flush cancels any pending quiet period and saves now.
func (c *Coordinator) Flush(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.stopTimersLocked()
	c.generation++
	gen := c.generation
	c.status = Status{State: StateSaving, Visible: true, At: c.clock.Now()}
	c.mu.Unlock()

	err := c.run(ctx)
	c.finish(gen, err)
	return err
}

func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Saves reports how many save calls have been made.
func (c *Coordinator) Saves() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saves
}

func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.stopTimersLocked()
}

func (c *Coordinator) fire(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.status = Status{State: StateSaving, Visible: true, At: c.clock.Now()}
	c.mu.Unlock()

	err := c.run(context.Background())
	c.finish(gen, err)
}

func (c *Coordinator) run(ctx context.Context) error {
	c.mu.Lock()
	c.saves++
	c.mu.Unlock()
	if c.save == nil {
		return nil
	}
	return c.save(ctx)
}

func (c *Coordinator) finish(gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Printf("autosave failed: %v", err)
	}
	if c.closed || gen != c.generation {
		// a newer change is already waiting for its own save
		return
	}
	state := StateSaved
	if err != nil {
		state = StateFailed
	}
	c.status = Status{State: state, Visible: true, At: c.clock.Now(), Err: err}
	c.fade = c.clock.AfterFunc(c.display, func() { c.hide(gen) })
}

func (c *Coordinator) hide(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	c.status.Visible = false
	c.fade = nil
}

func (c *Coordinator) stopTimersLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.fade != nil {
		c.fade.Stop()
		c.fade = nil
	}
}
