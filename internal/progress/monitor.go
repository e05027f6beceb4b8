// Package progress provides hierarchical progress monitors with cooperative cancellation.
package progress

import (
	"errors"
	"sync"
)

// ErrCancelled is returned when the caller cancelled a monitored operation.
var ErrCancelled = errors.New("operation cancelled")

// Monitor receives progress reports for a unit of work.
//
// Work is declared with Start, reported with Progress and closed with Done.
// Child returns a monitor that maps its own total work onto the given amount
// of this monitor's work, so nested operations aggregate into their parent.
type Monitor interface {
	Start(label string, totalWork float64)
	Progress(work float64)
	Done()
	Child(work float64) Monitor
	IsCancelled() bool
}

// None is a monitor that ignores all reports and is never cancelled.
var None Monitor = noneMonitor{}

type noneMonitor struct{}

func (noneMonitor) Start(string, float64) {}
func (noneMonitor) Progress(float64)      {}
func (noneMonitor) Done()                 {}
func (noneMonitor) Child(float64) Monitor { return None }
func (noneMonitor) IsCancelled() bool     { return false }

// Span is a started unit of monitored work. End may be called more than once;
// only the first call reaches the monitor.
type Span struct {
	m    Monitor
	once sync.Once
}

// Starting starts m with label and totalWork and returns the span to end.
// Callers should defer End so the span closes on every return path.
func Starting(m Monitor, label string, totalWork float64) *Span {
	if m == nil {
		m = None
	}
	m.Start(label, totalWork)
	return &Span{m: m}
}

// End marks the span done.
func (s *Span) End() {
	s.once.Do(s.m.Done)
}

// Observing runs fn as a single unit of work labelled label on m. Progress(1)
// is called on m only when fn succeeds, but the span is closed either way, and
// closing a child monitor forwards its unreported share. A failed unit
// therefore still counts as finished work in the parent.
func Observing(m Monitor, label string, fn func() error) error {
	span := Starting(m, label, 1)
	defer span.End()

	if err := fn(); err != nil {
		return err
	}
	span.m.Progress(1)
	return nil
}

// Check returns ErrCancelled if m reports cancellation.
func Check(m Monitor) error {
	if m != nil && m.IsCancelled() {
		return ErrCancelled
	}
	return nil
}

// childMonitor forwards progress to its parent scaled by partial/total.
type childMonitor struct {
	parent  Monitor
	partial float64

	mu       sync.Mutex
	label    string
	total    float64
	worked   float64
	reported float64 // Parent units forwarded so far.
	done     bool
}

// NewChild returns a monitor accounting for work units of parent.
func NewChild(parent Monitor, work float64) Monitor {
	if parent == nil {
		return None
	}
	return &childMonitor{parent: parent, partial: work}
}

func (c *childMonitor) Start(label string, totalWork float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.label = label
	c.total = totalWork
}

func (c *childMonitor) Progress(work float64) {
	if work <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done || c.total <= 0 {
		return
	}
	next := c.worked + work
	if next > c.total {
		next = c.total
	}
	delta := (next - c.worked) / c.total * c.partial
	c.worked = next
	if delta > 0 {
		c.reported += delta
		c.parent.Progress(delta)
	}
}

func (c *childMonitor) Done() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return
	}
	c.done = true
	if remaining := c.partial - c.reported; remaining > 0 {
		c.reported = c.partial
		c.parent.Progress(remaining)
	}
}

func (c *childMonitor) Child(work float64) Monitor {
	return NewChild(c, work)
}

func (c *childMonitor) IsCancelled() bool {
	return c.parent.IsCancelled()
}
