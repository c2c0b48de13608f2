package harness

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/riglabs/shadowrig/dom"
	"github.com/riglabs/shadowrig/env"
)

// settle is the update-cycle synchronizer: it resolves once every custom
// element present in the subtree at call time (and not removed meanwhile)
// has had its ready signal resolve at least once since the call began.
//
// Two consecutive frame callbacks are awaited first, strictly in sequence:
// the first absorbs the framework's internal batching tick, the second any
// follow-on work that tick scheduled. Only then is the tree walked and the
// ready signals collected, so signals created by the batched work are not
// missed.
//
// No timeout is imposed here. A component whose ready signal never
// resolves should hang visibly into the surrounding test's deadline; a
// falsely-resolved settle would be worse.
func settle(ctx context.Context, e *env.Environment, root dom.Node) error {
	if err := waitFrame(ctx, e.Window); err != nil {
		return err
	}
	if err := waitFrame(ctx, e.Window); err != nil {
		return err
	}

	ready := collectReady(root)
	if len(ready) == 0 {
		return nil
	}

	// One combined barrier, order-independent. Individual rejections are
	// swallowed: a component that fails to upgrade surfaces as a later
	// assertion failure on its content, not as a crashed settle.
	g, gctx := errgroup.WithContext(ctx)
	for _, ch := range ready {
		ch := ch
		g.Go(func() error {
			select {
			case err := <-ch:
				if err != nil {
					e.Logger.Debug("harness: ready signal rejected", "error", err)
				}
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	return g.Wait()
}

// waitFrame blocks until the next frame callback fires.
func waitFrame(ctx context.Context, win dom.Window) error {
	done := make(chan struct{})
	if _, err := win.RequestFrame(func() { close(done) }); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// collectReady walks the live tree depth-first and gathers ready-signal
// channels from every custom element that exposes one. The shadow root is
// recursed before light children, since shadow content may itself contain
// further custom elements. Children are snapshotted before descent, so
// structural mutation by a settling component cannot derail the walk.
func collectReady(n dom.Node) []<-chan error {
	el, ok := n.(dom.Element)
	if !ok {
		return nil
	}

	var out []<-chan error
	if strings.Contains(el.LocalName(), "-") {
		if rs, ok := el.(dom.ReadySignaler); ok {
			if ch := rs.OnReady(); ch != nil {
				out = append(out, ch)
			}
		}
	}

	if sr, ok := el.ShadowRoot(); ok {
		for _, c := range sr.Children() {
			out = append(out, collectReady(c)...)
		}
	}
	for _, c := range el.Children() {
		out = append(out, collectReady(c)...)
	}
	return out
}
