package livedom

import (
	"log/slog"
	"sync"

	"github.com/riglabs/shadowrig/dom"
	"github.com/riglabs/shadowrig/sched"
)

// Config selects the backend flavor a window emulates.
type Config struct {
	// NativeRAF pre-installs a frame scheduler, modeling a backend that
	// ships animation-frame scheduling of its own. Without it, RequestFrame
	// fails until the environment provisioner installs the timer polyfill.
	NativeRAF bool

	// ReadySignals controls whether upgraded elements expose OnReady.
	// Backends without a component-ready signal return nil channels and the
	// harness falls back to full settle passes.
	ReadySignals bool

	// NativeCSSSupports pre-installs a CSS feature query answering true.
	NativeCSSSupports bool

	// Runtime, when set, upgrades every created element.
	Runtime dom.ComponentRuntime

	Logger *slog.Logger
}

// Window is an emulated window: one document, one scheduler, one logical
// clock. It implements dom.Window.
type Window struct {
	mu          sync.Mutex
	cfg         Config
	doc         *Document
	scheduler   *sched.Scheduler
	clock       *sched.Clock
	cssSupports func(string) bool
	closed      bool
	logger      *slog.Logger
}

// NewWindow creates a window with a fresh empty document.
func NewWindow(cfg Config) *Window {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	w := &Window{
		cfg:    cfg,
		clock:  sched.NewClock(),
		logger: cfg.Logger,
	}
	if cfg.NativeRAF {
		w.scheduler = sched.NewScheduler()
	}
	if cfg.NativeCSSSupports {
		w.cssSupports = func(string) bool { return true }
	}
	w.doc = newDocument(w)
	return w
}

func (w *Window) Document() dom.Document { return w.doc }

// RequestFrame schedules fn on the window's frame scheduler.
func (w *Window) RequestFrame(fn func()) (dom.FrameHandle, error) {
	w.mu.Lock()
	s := w.scheduler
	w.mu.Unlock()
	if s == nil {
		return nil, dom.ErrNoFrameScheduler
	}
	id := s.RequestFrame(fn)
	return frameHandle{s: s, id: id, idle: false}, nil
}

// RequestIdle schedules fn for the idle phase.
func (w *Window) RequestIdle(fn func()) (dom.FrameHandle, error) {
	w.mu.Lock()
	s := w.scheduler
	w.mu.Unlock()
	if s == nil {
		return nil, dom.ErrNoFrameScheduler
	}
	id := s.RequestIdle(fn)
	return frameHandle{s: s, id: id, idle: true}, nil
}

// SupportsCSS answers through the installed stub; false until provisioned
// on backends without a native implementation.
func (w *Window) SupportsCSS(feature string) bool {
	w.mu.Lock()
	fn := w.cssSupports
	w.mu.Unlock()
	if fn == nil {
		return false
	}
	return fn(feature)
}

// Close drops the scheduler and marks the window dead.
func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if w.scheduler != nil {
		w.scheduler.Close()
	}
	return nil
}

// HasFrameScheduler reports whether frame scheduling is available, natively
// or by an earlier polyfill. The provisioner checks presence here so that
// re-provisioning stays a no-op.
func (w *Window) HasFrameScheduler() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scheduler != nil
}

// InstallFrameScheduler installs the timer-driven polyfill scheduler.
func (w *Window) InstallFrameScheduler(s *sched.Scheduler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.scheduler == nil {
		w.scheduler = s
	}
}

// HasCSSSupports reports whether a CSS feature query is installed.
func (w *Window) HasCSSSupports() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cssSupports != nil
}

// InstallCSSSupports installs the CSS.supports stand-in.
func (w *Window) InstallCSSSupports(fn func(string) bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cssSupports == nil {
		w.cssSupports = fn
	}
}

// Clock exposes the window's logical clock for event stamping.
func (w *Window) Clock() *sched.Clock { return w.clock }

type frameHandle struct {
	s    *sched.Scheduler
	id   int64
	idle bool
}

func (h frameHandle) Cancel() {
	if h.idle {
		h.s.CancelIdle(h.id)
		return
	}
	h.s.CancelFrame(h.id)
}
