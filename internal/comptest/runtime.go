// Package comptest is a miniature component framework used to exercise the
// harness. It is a stand-in for the real runtime the harness consumes: it
// upgrades registered tags, renders shadow templates on animation frames
// (batched: many property changes, one render), and resolves a per-element
// ready signal after the first render.
//
// Only tests import this package. It deliberately mimics the scheduling
// shape of a production component framework, because the update-cycle
// synchronizer is only meaningfully tested against frame-batched renders.
package comptest

import (
	"fmt"
	"sync"

	"github.com/riglabs/shadowrig/dom"
)

// Definition describes one component.
type Definition struct {
	// Tag is the hyphenated custom-element tag name.
	Tag string

	// Render returns the shadow markup for the host's current properties.
	Render func(host dom.Element) string

	// OnPropChanged runs synchronously on every property assignment,
	// before the re-render is scheduled. Fixtures dispatch events here.
	OnPropChanged func(host dom.Element, name string, value any)
}

// Runtime implements dom.ComponentRuntime over a set of definitions.
type Runtime struct {
	mu   sync.Mutex
	defs map[string]Definition
	win  dom.Window
}

// NewRuntime creates a runtime with the given definitions.
func NewRuntime(defs ...Definition) *Runtime {
	r := &Runtime{defs: make(map[string]Definition)}
	for _, d := range defs {
		r.Define(d)
	}
	return r
}

// Define registers a component. Redefining a tag replaces it.
func (r *Runtime) Define(def Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Tag] = def
}

// BindWindow gives the runtime the window whose frame scheduler batches
// renders. The environment provisioner calls this after polyfills, so the
// scheduler is always present by the time anything renders.
func (r *Runtime) BindWindow(win dom.Window) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.win = win
}

// Upgrade attaches a controller when the tag is registered.
func (r *Runtime) Upgrade(el dom.Element) bool {
	r.mu.Lock()
	def, ok := r.defs[el.LocalName()]
	r.mu.Unlock()
	if !ok {
		return false
	}
	host, ok := el.(dom.ControllerHost)
	if !ok {
		return false
	}
	host.SetController(&controller{rt: r, host: el, def: def})
	return true
}

func (r *Runtime) window() dom.Window {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.win
}

// controller drives one element's render lifecycle.
type controller struct {
	rt   *Runtime
	host dom.Element
	def  Definition

	mu        sync.Mutex
	connected bool
	scheduled bool
	rendered  bool
	readyErr  error
	waiters   []chan error
}

func (c *controller) Connected() {
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	c.scheduleRender()
}

func (c *controller) Disconnected() {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
}

func (c *controller) PropertyChanged(name string, value any) {
	if c.def.OnPropChanged != nil {
		c.def.OnPropChanged(c.host, name, value)
	}
	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()
	if connected {
		c.scheduleRender()
	}
}

// scheduleRender batches: many calls before the frame fires, one render.
func (c *controller) scheduleRender() {
	c.mu.Lock()
	if c.scheduled {
		c.mu.Unlock()
		return
	}
	c.scheduled = true
	c.mu.Unlock()

	win := c.rt.window()
	if win == nil {
		c.render()
		return
	}
	if _, err := win.RequestFrame(c.render); err != nil {
		// No scheduler yet; render synchronously rather than drop.
		c.render()
	}
}

func (c *controller) render() {
	c.mu.Lock()
	c.scheduled = false
	c.mu.Unlock()

	err := c.renderOnce()

	c.mu.Lock()
	first := !c.rendered
	c.rendered = true
	if first {
		c.readyErr = err
	}
	waiters := c.waiters
	c.waiters = nil
	readyErr := c.readyErr
	c.mu.Unlock()

	for _, w := range waiters {
		w <- readyErr
	}
}

func (c *controller) renderOnce() error {
	if c.def.Render == nil {
		return nil
	}
	sr, err := c.host.AttachShadow()
	if err != nil {
		return fmt.Errorf("comptest: attach shadow: %w", err)
	}
	return sr.SetInnerHTML(c.def.Render(c.host))
}

// OnReady implements the ready signal: the returned channel receives the
// first render's result once, immediately when already rendered.
func (c *controller) OnReady() <-chan error {
	ch := make(chan error, 1)
	c.mu.Lock()
	if c.rendered {
		ch <- c.readyErr
		c.mu.Unlock()
		return ch
	}
	c.waiters = append(c.waiters, ch)
	c.mu.Unlock()
	return ch
}
