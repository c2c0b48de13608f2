package dom

import (
	"context"
	"fmt"
)

// BackendID identifies a DOM backend. The backend for a test execution
// context is selected once, at provisioning time, and never changes
// mid-test.
type BackendID string

const (
	// MockDOM is the lightweight in-process emulator. Fast, no layout, no
	// native frame scheduling. Shadow trees surface through the synthetic
	// <shadow-root> marker composed by the serializer.
	MockDOM BackendID = "mockdom"

	// GhostDOM is full emulator A. Serializes shadow trees as declarative
	// <template shadowrootmode="open"> blocks and schedules frames natively.
	GhostDOM BackendID = "ghostdom"

	// HarborDOM is full emulator B. No component ready signal, no native
	// frame scheduling; both are provisioned as polyfills.
	HarborDOM BackendID = "harbordom"

	// Chrome is the real engine, driven over CDP.
	Chrome BackendID = "chrome"
)

// ShadowRepresentation describes how a backend's serializer exposes shadow
// trees, which in turn decides how the serialization engine composes the
// canonical <shadow-root> marker.
type ShadowRepresentation string

const (
	// ShadowTemplate means the backend serializes shadow content as a
	// declarative <template shadowrootmode="..."> element.
	ShadowTemplate ShadowRepresentation = "template"

	// ShadowSyntheticTag means the backend does not serialize shadow content
	// at all; the serializer composes the marker itself from the live tree.
	ShadowSyntheticTag ShadowRepresentation = "syntheticTag"

	// ShadowNative means the backend's own serializer already inlines shadow
	// content and is used as-is (modulo marker normalization).
	ShadowNative ShadowRepresentation = "native"
)

// Capabilities is one row of the backend capability table.
type Capabilities struct {
	ShadowRepresentation ShadowRepresentation
	HasReadySignal       bool
	NativeRAF            bool
}

// capabilityTable is the process-wide constant capability table. Read-only.
var capabilityTable = map[BackendID]Capabilities{
	MockDOM:   {ShadowRepresentation: ShadowSyntheticTag, HasReadySignal: true, NativeRAF: false},
	GhostDOM:  {ShadowRepresentation: ShadowTemplate, HasReadySignal: true, NativeRAF: true},
	HarborDOM: {ShadowRepresentation: ShadowSyntheticTag, HasReadySignal: false, NativeRAF: false},
	Chrome:    {ShadowRepresentation: ShadowNative, HasReadySignal: false, NativeRAF: true},
}

// Lookup returns the capability row for a backend.
func Lookup(id BackendID) (Capabilities, bool) {
	c, ok := capabilityTable[id]
	return c, ok
}

// Backends returns the identifiers with a capability row, for diagnostics.
func Backends() []BackendID {
	ids := make([]BackendID, 0, len(capabilityTable))
	for id := range capabilityTable {
		ids = append(ids, id)
	}
	return ids
}

// Backend constructs windows for one DOM implementation.
type Backend interface {
	ID() BackendID

	// NewWindow creates a fresh window/document pair scoped to one test
	// execution context. For the real engine the "creation" attaches to an
	// existing page rather than building a document from scratch.
	NewWindow(ctx context.Context) (Window, error)
}

// Window is one backend window. Close releases everything the window owns;
// a closed window must not be used again.
type Window interface {
	Document() Document

	// RequestFrame schedules fn for the next animation frame and returns a
	// cancellation handle. Backends without native frame scheduling return
	// ErrNoFrameScheduler until the provisioner installs the timer polyfill.
	RequestFrame(fn func()) (FrameHandle, error)

	// RequestIdle schedules fn for the next idle period.
	RequestIdle(fn func()) (FrameHandle, error)

	// SupportsCSS reports CSS feature support. Emulators answer through the
	// provisioned stub (always true).
	SupportsCSS(feature string) bool

	Close() error
}

// FrameHandle cancels a scheduled frame or idle callback.
type FrameHandle interface {
	Cancel()
}

// ErrNoFrameScheduler is returned by windows whose backend has no native
// frame scheduling and which have not been provisioned yet.
var ErrNoFrameScheduler = fmt.Errorf("dom: backend has no frame scheduler (environment not provisioned)")

// ComponentRuntime is the hook consumed from the component framework.
// Upgrade is called for every created element; it returns true when the tag
// is a registered component, in which case the runtime takes ownership of
// the element's rendering lifecycle.
type ComponentRuntime interface {
	Upgrade(el Element) bool
}

// ReadySignaler is implemented by upgraded custom elements that expose a
// ready signal. Each OnReady call returns a channel that receives exactly
// one value: nil once the initial render has finished, or the render error.
// Calling OnReady on an element that is already ready returns a channel
// that is already populated, so repeat calls are always safe. A nil channel
// means the element exposes no ready signal (backend capability, or the
// element was never upgraded); callers must skip nil channels rather than
// receive from them.
type ReadySignaler interface {
	OnReady() <-chan error
}
