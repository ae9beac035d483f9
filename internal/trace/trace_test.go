package trace

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilContextIsSafe(t *testing.T) {
	var c *Context

	assert.False(t, c.Enabled())
	assert.Equal(t, LevelNone, c.TraceLevel())
	assert.Equal(t, 0, c.Thread())
	assert.NotPanics(t, func() {
		c.SetThread(3)
		c.SetThreadName(1, "gpu:0")
		c.Begin("x")
		c.End("x")
		c.Scope("y")()
		c.Append([]Event{{Name: "z"}})
	})
	assert.Nil(t, c.TakeEvents())
	assert.Nil(t, c.Events())
	assert.Nil(t, c.ThreadNames())
}

func TestScopeRecordsBeginAndEnd(t *testing.T) {
	mock := clock.NewMock()
	c := NewContextWithClock(LevelRuntime, 7, mock)

	end := c.Scope("prepare")
	mock.Add(5 * time.Millisecond)
	end()

	events := c.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "prepare", events[0].Name)
	assert.Equal(t, PhaseBegin, events[0].Phase)
	assert.Equal(t, 7, events[0].Thread)
	assert.Equal(t, PhaseEnd, events[1].Phase)
	assert.Equal(t, 5*time.Millisecond, events[1].Timestamp.Sub(events[0].Timestamp))
}

func TestLevelNoneRecordsNothing(t *testing.T) {
	c := NewContext(LevelNone, 0)
	c.Begin("x")
	c.End("x")
	assert.Empty(t, c.Events())
}

func TestSetThreadRetagsSubsequentEvents(t *testing.T) {
	c := NewContextWithClock(LevelDebug, 0, clock.NewMock())
	c.Begin("a")
	c.SetThread(2)
	c.Begin("b")

	events := c.Events()
	require.Len(t, events, 2)
	assert.Equal(t, 0, events[0].Thread)
	assert.Equal(t, 2, events[1].Thread)
	assert.Equal(t, 2, c.Thread())
}

func TestThreadNames(t *testing.T) {
	c := NewContext(LevelRuntime, 0)
	c.SetThreadName(0, "cpu:0")
	c.SetThreadName(1, "cpu:1")

	names := c.ThreadNames()
	assert.Equal(t, map[int]string{0: "cpu:0", 1: "cpu:1"}, names)

	// The returned map is a copy.
	names[0] = "mutated"
	assert.Equal(t, "cpu:0", c.ThreadNames()[0])
}

func TestTakeEventsMovesThemOut(t *testing.T) {
	c := NewContextWithClock(LevelRuntime, 0, clock.NewMock())
	c.Begin("a")
	c.End("a")

	taken := c.TakeEvents()
	assert.Len(t, taken, 2)
	assert.Empty(t, c.Events())
}

func TestAppendMergesEvents(t *testing.T) {
	src := NewContextWithClock(LevelRuntime, 1, clock.NewMock())
	src.Begin("device.work")

	dst := NewContextWithClock(LevelRuntime, 0, clock.NewMock())
	dst.Begin("run.prepare")
	dst.Append(src.TakeEvents())

	events := dst.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "run.prepare", events[0].Name)
	assert.Equal(t, "device.work", events[1].Name)
}
