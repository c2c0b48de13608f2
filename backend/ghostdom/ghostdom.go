// Package ghostdom is full-DOM emulator A.
//
// Ghostdom models a heavyweight emulator: native frame scheduling, native
// CSS feature queries, component ready signals, and shadow trees serialized
// as declarative <template shadowrootmode="open"> blocks which the
// serialization engine rewrites to the canonical marker.
package ghostdom

import (
	"context"
	"log/slog"

	"github.com/riglabs/shadowrig/dom"
	"github.com/riglabs/shadowrig/internal/livedom"
)

// Backend constructs ghostdom windows.
type Backend struct {
	runtime dom.ComponentRuntime
	logger  *slog.Logger
}

// Option configures the backend.
type Option func(*Backend)

// WithRuntime wires the component framework runtime into created windows.
func WithRuntime(rt dom.ComponentRuntime) Option {
	return func(b *Backend) { b.runtime = rt }
}

// WithLogger sets the backend logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) { b.logger = l }
}

// New creates a ghostdom backend.
func New(opts ...Option) *Backend {
	b := &Backend{}
	for _, o := range opts {
		o(b)
	}
	return b
}

func (b *Backend) ID() dom.BackendID { return dom.GhostDOM }

func (b *Backend) NewWindow(ctx context.Context) (dom.Window, error) {
	_ = ctx
	return livedom.NewWindow(livedom.Config{
		NativeRAF:         true,
		ReadySignals:      true,
		NativeCSSSupports: true,
		Runtime:           b.runtime,
		Logger:            b.logger,
	}), nil
}
