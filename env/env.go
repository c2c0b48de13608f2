// Package env provisions test execution environments.
//
// Provision constructs (or, for the real engine, attaches to) the requested
// backend's window/document pair and applies the minimal polyfills that
// component rendering needs. The environment is an explicit caller-held
// value with an owned Teardown, not ambient global state: the harness takes
// it as a dependency, so two tests on different backends never share a
// document.
//
// Backend selection is fixed per environment. If the requested backend
// cannot be loaded, Provision fails with a descriptive error. It never
// silently substitutes another backend, because serialization decisions
// downstream key off the capability row of the backend that was asked for.
package env

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/riglabs/shadowrig/backend/chromedom"
	"github.com/riglabs/shadowrig/backend/ghostdom"
	"github.com/riglabs/shadowrig/backend/harbordom"
	"github.com/riglabs/shadowrig/backend/mockdom"
	"github.com/riglabs/shadowrig/dom"
	"github.com/riglabs/shadowrig/sched"
	"github.com/riglabs/shadowrig/trace"
)

// Environment is one provisioned test execution context.
type Environment struct {
	ID       dom.BackendID
	Caps     dom.Capabilities
	Window   dom.Window
	Document dom.Document

	// Session tokens group trace records of one environment.
	Session string

	Recorder trace.Recorder
	Logger   *slog.Logger

	backendClose func() error
	closed       bool
}

type options struct {
	runtime    dom.ComponentRuntime
	recorder   trace.Recorder
	logger     *slog.Logger
	controlURL string
	backend    dom.Backend
}

// Option configures provisioning.
type Option func(*options)

// WithRuntime wires the component framework runtime into the backend.
func WithRuntime(rt dom.ComponentRuntime) Option {
	return func(o *options) { o.runtime = rt }
}

// WithRecorder enables harness operation tracing.
func WithRecorder(r trace.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithLogger sets the environment logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithChromeControlURL points the chrome backend at an already-running
// browser instead of launching one.
func WithChromeControlURL(u string) Option {
	return func(o *options) { o.controlURL = u }
}

// WithBackend substitutes a caller-constructed backend. The backend's ID
// must still have a capability row.
func WithBackend(b dom.Backend) Option {
	return func(o *options) { o.backend = b }
}

// Provision builds the environment for a backend.
func Provision(ctx context.Context, id dom.BackendID, opts ...Option) (*Environment, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	caps, ok := dom.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("env: unknown backend %q (known: %v)", id, dom.Backends())
	}

	be := o.backend
	var backendClose func() error
	if be == nil {
		switch id {
		case dom.MockDOM:
			be = mockdom.New(mockdom.WithRuntime(o.runtime), mockdom.WithLogger(o.logger))
		case dom.GhostDOM:
			be = ghostdom.New(ghostdom.WithRuntime(o.runtime), ghostdom.WithLogger(o.logger))
		case dom.HarborDOM:
			be = harbordom.New(harbordom.WithRuntime(o.runtime), harbordom.WithLogger(o.logger))
		case dom.Chrome:
			cb := chromedom.New(chromedom.Config{ControlURL: o.controlURL, Logger: o.logger})
			backendClose = cb.Close
			be = cb
		default:
			return nil, fmt.Errorf("env: backend %q has a capability row but no constructor", id)
		}
	} else if be.ID() != id {
		return nil, fmt.Errorf("env: backend %q does not match requested %q", be.ID(), id)
	}

	win, err := be.NewWindow(ctx)
	if err != nil {
		if backendClose != nil {
			backendClose()
		}
		return nil, fmt.Errorf("env: provision %s: %w", id, err)
	}

	applyPolyfills(win, caps)

	// Frame-batched runtimes need the window's scheduler, which only exists
	// after polyfills are in place.
	if wb, ok := o.runtime.(interface{ BindWindow(dom.Window) }); ok {
		wb.BindWindow(win)
	}

	return &Environment{
		ID:           id,
		Caps:         caps,
		Window:       win,
		Document:     win.Document(),
		Session:      uuid.Must(uuid.NewV7()).String(),
		Recorder:     o.recorder,
		Logger:       o.logger,
		backendClose: backendClose,
	}, nil
}

// Teardown releases the window and, for launched browsers, the backend.
// Safe to call multiple times.
func (e *Environment) Teardown() error {
	if e.closed {
		return nil
	}
	e.closed = true
	err := e.Window.Close()
	if e.backendClose != nil {
		if cerr := e.backendClose(); err == nil {
			err = cerr
		}
	}
	return err
}

// Clock returns the window's logical clock when the backend exposes one.
type clocked interface {
	Clock() *sched.Clock
}

// NextSeq returns the next logical-clock stamp for the environment, or 0
// when the backend does not expose a clock.
func (e *Environment) NextSeq() int64 {
	if c, ok := e.Window.(clocked); ok {
		return c.Clock().Next()
	}
	return 0
}
