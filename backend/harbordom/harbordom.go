// Package harbordom is full-DOM emulator B.
//
// Harbordom models an emulator with no component ready signal and no native
// frame scheduling: the synchronizer falls back to full settle passes and
// the provisioner installs the timer polyfill. Shadow trees are surfaced
// through the serializer's synthetic marker.
package harbordom

import (
	"context"
	"log/slog"

	"github.com/riglabs/shadowrig/dom"
	"github.com/riglabs/shadowrig/internal/livedom"
)

// Backend constructs harbordom windows.
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

// New creates a harbordom backend.
func New(opts ...Option) *Backend {
	b := &Backend{}
	for _, o := range opts {
		o(b)
	}
	return b
}

func (b *Backend) ID() dom.BackendID { return dom.HarborDOM }

func (b *Backend) NewWindow(ctx context.Context) (dom.Window, error) {
	_ = ctx
	return livedom.NewWindow(livedom.Config{
		NativeRAF:         false,
		ReadySignals:      false,
		NativeCSSSupports: false,
		Runtime:           b.runtime,
		Logger:            b.logger,
	}), nil
}
