// Package mockdom is the lightweight in-process DOM backend.
//
// It is the default backend for unit tests: no layout, no native frame
// scheduling (the environment provisioner installs the timer polyfill),
// component ready signals exposed. Shadow trees are surfaced by the
// serialization engine's synthetic marker, since mockdom has no serializer
// of its own.
package mockdom

import (
	"context"
	"log/slog"

	"github.com/riglabs/shadowrig/dom"
	"github.com/riglabs/shadowrig/internal/livedom"
)

// Backend constructs mockdom windows.
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

// New creates a mockdom backend.
func New(opts ...Option) *Backend {
	b := &Backend{}
	for _, o := range opts {
		o(b)
	}
	return b
}

func (b *Backend) ID() dom.BackendID { return dom.MockDOM }

// NewWindow creates a fresh window/document pair. Frame scheduling and the
// CSS stub are absent until provisioned.
func (b *Backend) NewWindow(ctx context.Context) (dom.Window, error) {
	_ = ctx
	return livedom.NewWindow(livedom.Config{
		NativeRAF:         false,
		ReadySignals:      true,
		NativeCSSSupports: false,
		Runtime:           b.runtime,
		Logger:            b.logger,
	}), nil
}
