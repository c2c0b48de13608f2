package harness

import (
	"context"
	"sync"

	"github.com/riglabs/shadowrig/dom"
	"github.com/riglabs/shadowrig/env"
	"github.com/riglabs/shadowrig/trace"
)

// Handle is the caller's grip on one rendered component instance. It owns
// the root element exclusively; unmounting one handle never touches
// another handle's tree.
//
// Handle methods are not serialized against each other: two overlapping
// unawaited SetProps calls are a caller error, not a harness-enforced
// invariant. A handle must not be used after Unmount.
type Handle struct {
	id        string
	env       *env.Environment
	root      dom.Element
	container dom.Element

	mu        sync.Mutex
	spies     map[string]*EventSpy
	unmounted bool
}

// Root returns the live root element.
func (h *Handle) Root() dom.Element { return h.root }

// Environment returns the environment the handle was rendered into.
func (h *Handle) Environment() *env.Environment { return h.env }

// ID returns the handle's session-unique token, used in trace records.
func (h *Handle) ID() string { return h.id }

// Representation reports how the backing backend expresses shadow roots.
// Serialization-aware matchers key off this.
func (h *Handle) Representation() dom.ShadowRepresentation {
	return h.env.Caps.ShadowRepresentation
}

// SetProps assigns each key of patch as a JS-level property on the root,
// in sorted key order, then performs a full settle pass plus one extra
// frame tick to absorb secondarily-triggered frame work.
//
// A failing assignment mid-patch leaves earlier assignments applied; this
// mirrors plain property assignment semantics and is not recovered.
func (h *Handle) SetProps(ctx context.Context, patch map[string]any) error {
	h.mu.Lock()
	if h.unmounted {
		h.mu.Unlock()
		return ErrUnmounted
	}
	h.mu.Unlock()

	if err := assignProps(h.root, patch); err != nil {
		return err
	}
	h.record(trace.OpSetProps, map[string]any{"keys": sortedKeys(patch)})

	if err := h.WaitForChanges(ctx); err != nil {
		return err
	}
	// One extra tick for frame work scheduled by the settle itself.
	return waitFrame(ctx, h.env.Window)
}

// WaitForChanges runs one full settle pass over the handle's container.
func (h *Handle) WaitForChanges(ctx context.Context) error {
	h.mu.Lock()
	if h.unmounted {
		h.mu.Unlock()
		return ErrUnmounted
	}
	h.mu.Unlock()

	h.record(trace.OpSettleBegin, nil)
	err := settle(ctx, h.env, h.container)
	h.record(trace.OpSettleEnd, nil)
	return err
}

// SpyOnEvent returns the spy for eventName, creating it on first request.
// Repeat registration returns the same spy instance; no duplicate
// listeners are attached. After Unmount the returned spy is inert: no
// listener goes back onto the detached root.
func (h *Handle) SpyOnEvent(eventName string) *EventSpy {
	h.mu.Lock()
	defer h.mu.Unlock()
	if spy, ok := h.spies[eventName]; ok {
		return spy
	}
	spy := newEventSpy(eventName)
	if h.unmounted {
		h.spies[eventName] = spy
		return spy
	}
	spy.handle = h.root.AddEventListener(eventName, func(ev dom.Event) {
		spy.append(ev)
		h.record(trace.OpEvent, map[string]any{"type": ev.Type, "seq": ev.Seq})
	})
	h.spies[eventName] = spy
	return spy
}

// Unmount detaches the root's container and removes every spy listener.
// Safe to call multiple times; later calls are no-ops.
func (h *Handle) Unmount() error {
	h.mu.Lock()
	if h.unmounted {
		h.mu.Unlock()
		return nil
	}
	h.unmounted = true
	spies := make([]*EventSpy, 0, len(h.spies))
	for _, s := range h.spies {
		spies = append(spies, s)
	}
	h.mu.Unlock()

	for _, s := range spies {
		if s.handle != nil {
			s.handle.Remove()
		}
	}
	h.container.Remove()
	h.record(trace.OpUnmount, nil)
	return nil
}

// record appends a trace record when the environment carries a recorder.
func (h *Handle) record(op trace.Op, detail map[string]any) {
	r := h.env.Recorder
	if r == nil {
		return
	}
	rec := trace.Record{
		Session: h.env.Session,
		Handle:  h.id,
		Seq:     h.env.NextSeq(),
		Op:      op,
		Detail:  detail,
	}
	if err := r.Record(rec); err != nil {
		h.env.Logger.Debug("harness: trace record failed", "op", string(op), "error", err)
	}
}
