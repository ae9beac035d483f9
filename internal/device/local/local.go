// Package local implements an in-process device manager: one goroutine plays
// the device thread, draining a submission queue and running kernels resolved
// from a registry. It exists for single-host deployments and for exercising
// the engine without hardware.
package local

import (
	"fmt"
	"sync"

	"github.com/vk/tensorgridgo/internal/device"
	"github.com/vk/tensorgridgo/internal/execctx"
	"github.com/vk/tensorgridgo/internal/registry"
)

// submission is one queued RunFunction call.
type submission struct {
	name string
	ctx  *execctx.Context
	done device.DoneFunc
}

// Manager is an in-process device.Manager backed by a kernel registry.
type Manager struct {
	cfg       device.Config
	kernels   *registry.Registry
	queue     chan submission
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// queueDepth bounds how many submissions may wait on the device thread.
const queueDepth = 64

// New creates a local device with the given name and starts its device
// goroutine.
func New(name string, kernels *registry.Registry) *Manager {
	m := &Manager{
		cfg:     device.Config{Name: name},
		kernels: kernels,
		queue:   make(chan submission, queueDepth),
	}
	m.wg.Add(1)
	go m.deviceLoop()
	return m
}

// Config returns the device's configuration.
func (m *Manager) Config() device.Config {
	return m.cfg
}

// RunFunction enqueues the named function for execution on the device
// goroutine. The done callback is invoked exactly once, on that goroutine.
func (m *Manager) RunFunction(name string, ctx *execctx.Context, done device.DoneFunc) {
	m.queue <- submission{name: name, ctx: ctx, done: done}
}

// Close stops the device goroutine after draining queued submissions. It is
// idempotent. Callers must close devices only after the executor has shut
// down, so nothing submits concurrently.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.queue)
	})
	m.wg.Wait()
}

// deviceLoop is the device thread: it runs queued functions one at a time.
func (m *Manager) deviceLoop() {
	defer m.wg.Done()
	for s := range m.queue {
		s.done(m.runOne(s.name, s.ctx), s.ctx)
	}
}

// runOne resolves and invokes a single kernel.
func (m *Manager) runOne(name string, ctx *execctx.Context) error {
	kernel, ok := m.kernels.Lookup(name)
	if !ok {
		return fmt.Errorf("device %s: no kernel registered for function %q", m.cfg.Name, name)
	}
	if err := kernel(ctx); err != nil {
		return fmt.Errorf("device %s: function %q failed: %w", m.cfg.Name, name, err)
	}
	return nil
}
