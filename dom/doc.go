// Package dom defines the backend-independent contracts the render harness
// is written against.
//
// A DOM backend is one of several interchangeable window/document
// implementations: the in-process emulators (mockdom, ghostdom, harbordom)
// and the real engine (chrome). The harness, synchronizer, and serializer
// never feature-detect a backend at a call site; every capability difference
// is expressed as one row in the Capabilities table and consulted by name.
// Adding a backend means adding one row and one constructor, not auditing
// call sites.
//
// The package also defines the two interfaces consumed from the component
// framework runtime: ComponentRuntime (upgrades elements at creation time)
// and ReadySignaler (the per-element ready signal the synchronizer awaits).
// Both are external collaborators; shadowrig ships only a test fake.
package dom
