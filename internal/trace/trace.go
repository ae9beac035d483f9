// Package trace collects timing events emitted while a run moves through the
// execution engine. Events accumulate on per-node trace contexts and are
// merged into the run's result context as each node completes. There is no
// export layer; callers consume the merged events directly.
package trace

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Level controls how much tracing a run records.
type Level int

const (
	// LevelNone disables tracing entirely.
	LevelNone Level = iota
	// LevelRuntime records the engine's scheduling phases.
	LevelRuntime
	// LevelDebug enables tracing; the engine records the same events at this
	// level as at LevelRuntime.
	LevelDebug
)

// Phase markers follow the begin/end convention of duration events.
const (
	PhaseBegin = "B"
	PhaseEnd   = "E"
)

// Event is a single timestamped trace record.
type Event struct {
	Name      string
	Phase     string
	Thread    int
	Timestamp time.Time
}

// Context accumulates trace events for one execution context. All methods are
// safe on a nil receiver so that untraced runs pay no branching cost at call
// sites.
type Context struct {
	level Level
	clk   clock.Clock

	mu          sync.Mutex
	thread      int
	events      []Event
	threadNames map[int]string
}

// NewContext creates a trace context at the given level, tagging events with
// the given logical thread.
func NewContext(level Level, thread int) *Context {
	return NewContextWithClock(level, thread, clock.New())
}

// NewContextWithClock is NewContext with an injectable clock for tests.
func NewContextWithClock(level Level, thread int, clk clock.Clock) *Context {
	return &Context{
		level:       level,
		thread:      thread,
		clk:         clk,
		threadNames: make(map[int]string),
	}
}

// Enabled reports whether the context records events.
func (c *Context) Enabled() bool {
	return c != nil && c.level > LevelNone
}

// TraceLevel returns the context's level. Nil contexts report LevelNone.
func (c *Context) TraceLevel() Level {
	if c == nil {
		return LevelNone
	}
	return c.level
}

// Thread returns the logical thread current events are tagged with.
func (c *Context) Thread() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.thread
}

// SetThread retags subsequent events with the given logical thread. The
// executor uses this to attribute device-side events to the device.
func (c *Context) SetThread(thread int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.thread = thread
}

// SetThreadName records a human-readable name for a logical thread.
func (c *Context) SetThreadName(thread int, name string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.threadNames[thread] = name
}

// ThreadNames returns a copy of the thread-name table.
func (c *Context) ThreadNames() map[int]string {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make(map[int]string, len(c.threadNames))
	for id, name := range c.threadNames {
		names[id] = name
	}
	return names
}

// Log appends a single event with the given name and phase.
func (c *Context) Log(name, phase string) {
	if !c.Enabled() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, Event{
		Name:      name,
		Phase:     phase,
		Thread:    c.thread,
		Timestamp: c.clk.Now(),
	})
}

// Begin records the start of a named duration.
func (c *Context) Begin(name string) {
	c.Log(name, PhaseBegin)
}

// End records the end of a named duration.
func (c *Context) End(name string) {
	c.Log(name, PhaseEnd)
}

// Scope records the start of a named duration and returns a closure that
// records its end. Intended for use with defer.
func (c *Context) Scope(name string) func() {
	c.Begin(name)
	return func() { c.End(name) }
}

// TakeEvents moves the accumulated events out of the context, leaving it empty.
func (c *Context) TakeEvents() []Event {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	events := c.events
	c.events = nil
	return events
}

// Append merges events recorded elsewhere onto this context.
func (c *Context) Append(events []Event) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, events...)
}

// Events returns a snapshot of the accumulated events.
func (c *Context) Events() []Event {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}
