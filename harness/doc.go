// Package harness renders components against a provisioned environment and
// hands back a handle for controlled mutation and settling.
//
// Render accepts any of the virtual-node shapes vnode understands, creates
// the element in the environment's backend, applies attributes as literal
// DOM attributes and props as JS-level property assignments, attaches the
// element under a fresh container in the document body, and waits for the
// component's initial upgrade. The returned Handle owns the root element
// exclusively: SetProps mutates it, WaitForChanges settles it, SpyOnEvent
// observes it, Unmount detaches it.
//
// Settling is the safety-critical part. The component framework batches
// re-renders on animation frames, and nested components upgrade
// independently, so "done" means: two consecutive frame callbacks have
// fired, and every custom element in the subtree that exposes a ready
// signal has resolved it. See settle.go for the exact walk.
package harness
