package dom

// Controller is the per-element hook a component runtime attaches when it
// upgrades an element. The backend calls these from its own mutation paths;
// all calls arrive with no backend locks held, so a controller may re-enter
// the tree (render into the shadow root, dispatch events).
type Controller interface {
	// Connected fires when the element becomes part of the document.
	Connected()

	// Disconnected fires when the element leaves the document.
	Disconnected()

	// PropertyChanged fires on every JS-level property assignment.
	PropertyChanged(name string, value any)
}

// ControllerHost is implemented by backend elements that support runtime
// upgrade. A runtime's Upgrade typically constructs a Controller and parks
// it here; the element delegates ready-signal queries to it.
type ControllerHost interface {
	SetController(c Controller)
	Controller() (Controller, bool)
}
