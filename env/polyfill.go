package env

import (
	"github.com/riglabs/shadowrig/dom"
	"github.com/riglabs/shadowrig/sched"
)

// The polyfill hooks are optional interfaces on the backend's window and
// document. Each polyfill is applied only when the capability is absent
// (checked via presence, not a global flag), so re-provisioning an
// already-polyfilled backend is a per-polyfill no-op.

type frameSchedulerHost interface {
	HasFrameScheduler() bool
	InstallFrameScheduler(s *sched.Scheduler)
}

type cssSupportsHost interface {
	HasCSSSupports() bool
	InstallCSSSupports(fn func(string) bool)
}

type adoptedSheetsHost interface {
	HasAdoptedSheets() bool
	InitAdoptedSheets()
}

func applyPolyfills(win dom.Window, caps dom.Capabilities) {
	// Frame + idle scheduling via zero-delay timer when the backend has no
	// native animation frames.
	if !caps.NativeRAF {
		if h, ok := win.(frameSchedulerHost); ok && !h.HasFrameScheduler() {
			h.InstallFrameScheduler(sched.NewScheduler())
		}
	}

	// CSS.supports stand-in answering true: components gate style adoption
	// on it, and the emulators never apply styles anyway.
	if h, ok := win.(cssSupportsHost); ok && !h.HasCSSSupports() {
		h.InstallCSSSupports(func(string) bool { return true })
	}

	// Document-level adopted-style-sheets stand-in. Shadow roots pick up
	// their per-instance array lazily once the document is initialized.
	if h, ok := win.Document().(adoptedSheetsHost); ok && !h.HasAdoptedSheets() {
		h.InitAdoptedSheets()
	}
}
