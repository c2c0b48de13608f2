package dom

// NodeType distinguishes the node kinds the harness cares about. The set is
// deliberately small; anything else a backend produces is ignored by the
// serializer.
type NodeType int

const (
	ElementNode NodeType = iota + 1
	TextNode
	CommentNode
)

// Node is the minimal surface shared by every tree participant.
type Node interface {
	NodeType() NodeType

	// TextContent returns the node's own text for text/comment nodes and
	// the concatenated descendant text for elements.
	TextContent() string
}

// Attr is a single attribute. Attribute order is preserved as set, which
// keeps serialization deterministic for a given mutation sequence.
type Attr struct {
	Name  string
	Value string
}

// Element is a live element in some backend. All mutation goes through this
// interface; the harness never reaches into a backend's concrete types.
type Element interface {
	Node

	// TagName returns the canonical upper-cased tag name ("X-Y" for a
	// custom element created as "x-y").
	TagName() string

	// LocalName returns the lower-cased tag name as created.
	LocalName() string

	SetAttribute(name, value string)
	Attribute(name string) (string, bool)
	RemoveAttribute(name string)
	Attributes() []Attr

	// SetProperty assigns a JS-level property. Properties are distinct from
	// attributes: they carry arbitrarily-typed values and reach the
	// component runtime, not the serialized markup.
	SetProperty(name string, value any) error
	Property(name string) (any, bool)

	AppendChild(child Node) error
	RemoveChild(child Node) error
	Remove()
	Children() []Node
	ParentElement() Element

	// SetInnerHTML replaces the element's light children wholesale with the
	// parsed fragment.
	SetInnerHTML(markup string) error

	// ShadowRoot returns the element's shadow root, if one is attached.
	ShadowRoot() (ShadowRoot, bool)

	// AttachShadow attaches an open shadow root, or returns the existing one.
	AttachShadow() (ShadowRoot, error)

	// AddEventListener registers fn for eventType and returns the handle
	// used to remove it. Listener identity is the handle, not the func
	// value.
	AddEventListener(eventType string, fn Listener) ListenerHandle
	DispatchEvent(ev Event)
}

// ListenerHandle removes a registered event listener. Remove is idempotent.
type ListenerHandle interface {
	Remove()
}

// ShadowRoot is the encapsulated subtree attached to a host element.
type ShadowRoot interface {
	Host() Element
	Children() []Node
	AppendChild(child Node) error
	SetInnerHTML(markup string) error

	// AdoptedSheets exposes the adopted-style-sheets stand-in installed by
	// the environment provisioner. Content is opaque to the harness.
	AdoptedSheets() []string
	SetAdoptedSheets(sheets []string)
}

// Document is a backend document. CreateElement returns an element already
// upgraded by the window's component runtime, if one is registered for the
// tag.
type Document interface {
	CreateElement(tag string) (Element, error)
	CreateText(data string) Node
	Body() Element

	// ParseFragment parses markup in body context and returns the resulting
	// top-level nodes, unattached.
	ParseFragment(markup string) ([]Node, error)

	// AdoptedSheets is the document-level adopted-style-sheets stand-in.
	AdoptedSheets() []string
	SetAdoptedSheets(sheets []string)
}
