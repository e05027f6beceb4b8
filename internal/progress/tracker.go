package progress

import (
	"context"
	"math"
	"sync"

	"go.uber.org/zap"
)

// Event is a snapshot of a root monitor's state.
type Event struct {
	Label  string
	Worked float64
	Total  float64
	Done   bool
}

// Percent returns the completed fraction as a percentage, or 0 without a total.
func (e Event) Percent() float64 {
	if e.Total <= 0 {
		return 0
	}
	return 100 * e.Worked / e.Total
}

// Tracker is a root monitor. It is safe for concurrent use and its worked
// amount never decreases. Cancelling ctx cancels every child monitor.
type Tracker struct {
	ctx    context.Context
	notify func(Event)

	mu     sync.Mutex
	label  string
	total  float64
	worked float64
	done   bool
}

// NewTracker creates a root monitor bound to ctx. notify, if non-nil, is called
// with the tracker state after every change, while the tracker lock is held.
func NewTracker(ctx context.Context, notify func(Event)) *Tracker {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Tracker{ctx: ctx, notify: notify}
}

// NewLogMonitor creates a root monitor that logs progress in 10% steps.
func NewLogMonitor(ctx context.Context, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	lastStep := -1
	return NewTracker(ctx, func(e Event) {
		step := int(math.Floor(e.Percent() / 10))
		if !e.Done && step == lastStep {
			return
		}
		lastStep = step
		logger.Info("Progress",
			zap.String("label", e.Label),
			zap.Float64("worked", e.Worked),
			zap.Float64("total", e.Total),
			zap.Float64("percent", math.Round(e.Percent()*10)/10),
			zap.Bool("done", e.Done))
	})
}

func (t *Tracker) Start(label string, totalWork float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.label = label
	t.total = totalWork
	t.emit()
}

func (t *Tracker) Progress(work float64) {
	if work <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.worked += work
	if t.total > 0 && t.worked > t.total {
		t.worked = t.total
	}
	t.emit()
}

func (t *Tracker) Done() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.done = true
	t.emit()
}

func (t *Tracker) Child(work float64) Monitor {
	return NewChild(t, work)
}

func (t *Tracker) IsCancelled() bool {
	return t.ctx.Err() != nil
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.event()
}

func (t *Tracker) event() Event {
	return Event{Label: t.label, Worked: t.worked, Total: t.total, Done: t.done}
}

func (t *Tracker) emit() {
	if t.notify != nil {
		t.notify(t.event())
	}
}
