// Package livedom is the in-process live DOM shared by the emulator
// backends (mockdom, ghostdom, harbordom).
//
// It implements the dom contracts with a mutable tree: ordered attributes,
// JS-level property maps, open shadow roots, synchronous event dispatch,
// and fragment parsing through golang.org/x/net/html. The emulator backends
// differ only in the window configuration they pass here (native frame
// scheduling, ready-signal exposure); the tree mechanics are identical.
//
// Locking model: one mutex per document guards all tree state, in the
// single-writer spirit of the harness. Component runtime callbacks
// (Connected, PropertyChanged) and event listeners are always invoked with
// the lock released, because they re-enter the tree to render.
package livedom
