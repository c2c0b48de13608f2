package livedom

import (
	"fmt"
	"strings"

	"github.com/riglabs/shadowrig/dom"
)

// Element is a live emulated element. It implements dom.Element,
// dom.ControllerHost, and dom.ReadySignaler.
type Element struct {
	doc         *Document
	local       string
	attrs       []dom.Attr
	props       map[string]any
	children    []dom.Node
	parent      *Element
	ownerShadow *ShadowRoot
	shadow      *ShadowRoot
	listeners   map[string][]*listenerReg
	controller  dom.Controller
	connected   bool
}

type listenerReg struct {
	fn      dom.Listener
	removed bool
}

func newElement(d *Document, local string) *Element {
	return &Element{
		doc:       d,
		local:     local,
		props:     make(map[string]any),
		listeners: make(map[string][]*listenerReg),
	}
}

func (e *Element) NodeType() dom.NodeType { return dom.ElementNode }

func (e *Element) TagName() string   { return strings.ToUpper(e.local) }
func (e *Element) LocalName() string { return e.local }

func (e *Element) TextContent() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	var b strings.Builder
	e.collectText(&b)
	return b.String()
}

// collectText walks light children only; shadow content is encapsulated.
// Caller holds the document lock.
func (e *Element) collectText(b *strings.Builder) {
	for _, c := range e.children {
		switch t := c.(type) {
		case *Text:
			b.WriteString(t.data)
		case *Element:
			t.collectText(b)
		}
	}
}

func (e *Element) SetAttribute(name, value string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	name = strings.ToLower(name)
	for i := range e.attrs {
		if e.attrs[i].Name == name {
			e.attrs[i].Value = value
			return
		}
	}
	e.attrs = append(e.attrs, dom.Attr{Name: name, Value: value})
}

func (e *Element) Attribute(name string) (string, bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	name = strings.ToLower(name)
	for _, a := range e.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

func (e *Element) RemoveAttribute(name string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	name = strings.ToLower(name)
	for i, a := range e.attrs {
		if a.Name == name {
			e.attrs = append(e.attrs[:i:i], e.attrs[i+1:]...)
			return
		}
	}
}

func (e *Element) Attributes() []dom.Attr {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return append([]dom.Attr(nil), e.attrs...)
}

// SetProperty stores the value and notifies the element's controller. The
// notification runs without the tree lock so the runtime can render.
func (e *Element) SetProperty(name string, value any) error {
	e.doc.mu.Lock()
	e.props[name] = value
	ctrl := e.controller
	e.doc.mu.Unlock()
	if ctrl != nil {
		ctrl.PropertyChanged(name, value)
	}
	return nil
}

func (e *Element) Property(name string) (any, bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	v, ok := e.props[name]
	return v, ok
}

func (e *Element) AppendChild(child dom.Node) error {
	e.doc.mu.Lock()
	cn, err := asChild(child)
	if err != nil {
		e.doc.mu.Unlock()
		return err
	}
	detachLocked(cn)
	attachToElementLocked(e, cn)
	var connects []dom.Controller
	if e.connected {
		connects = markConnectedLocked(cn)
	}
	e.doc.mu.Unlock()

	fireConnected(connects)
	return nil
}

func (e *Element) RemoveChild(child dom.Node) error {
	e.doc.mu.Lock()
	idx := -1
	for i, c := range e.children {
		if c == child {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.doc.mu.Unlock()
		return fmt.Errorf("livedom: remove child: not a child of <%s>", e.local)
	}
	e.children = append(e.children[:idx:idx], e.children[idx+1:]...)
	var disconnects []dom.Controller
	if cn, ok := child.(*Element); ok {
		cn.parent = nil
		if cn.connected {
			disconnects = markDisconnectedLocked(cn)
		}
	}
	e.doc.mu.Unlock()

	fireDisconnected(disconnects)
	return nil
}

// Remove detaches the element from its parent or owning shadow root.
// Detached elements are a no-op.
func (e *Element) Remove() {
	e.doc.mu.Lock()
	parent := e.parent
	shadow := e.ownerShadow
	e.doc.mu.Unlock()

	switch {
	case parent != nil:
		_ = parent.RemoveChild(e)
	case shadow != nil:
		_ = shadow.removeChild(e)
	}
}

func (e *Element) Children() []dom.Node {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return append([]dom.Node(nil), e.children...)
}

func (e *Element) ParentElement() dom.Element {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if e.parent == nil {
		return nil
	}
	return e.parent
}

// SetInnerHTML replaces the light children wholesale with the parsed
// fragment. Parsing happens before any mutation, so a parse failure leaves
// the element untouched.
func (e *Element) SetInnerHTML(markup string) error {
	nodes, err := e.doc.ParseFragment(markup)
	if err != nil {
		return err
	}

	e.doc.mu.Lock()
	var disconnects []dom.Controller
	for _, c := range e.children {
		if cn, ok := c.(*Element); ok {
			cn.parent = nil
			if cn.connected {
				disconnects = append(disconnects, markDisconnectedLocked(cn)...)
			}
		}
	}
	e.children = nil
	var connects []dom.Controller
	for _, n := range nodes {
		cn, err := asChild(n)
		if err != nil {
			e.doc.mu.Unlock()
			return err
		}
		attachToElementLocked(e, cn)
		if e.connected {
			connects = append(connects, markConnectedLocked(cn)...)
		}
	}
	e.doc.mu.Unlock()

	fireDisconnected(disconnects)
	fireConnected(connects)
	return nil
}

func (e *Element) ShadowRoot() (dom.ShadowRoot, bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if e.shadow == nil {
		return nil, false
	}
	return e.shadow, true
}

func (e *Element) AttachShadow() (dom.ShadowRoot, error) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if e.shadow == nil {
		e.shadow = &ShadowRoot{host: e}
	}
	return e.shadow, nil
}

func (e *Element) AddEventListener(eventType string, fn dom.Listener) dom.ListenerHandle {
	reg := &listenerReg{fn: fn}
	e.doc.mu.Lock()
	e.listeners[eventType] = append(e.listeners[eventType], reg)
	e.doc.mu.Unlock()
	return &listenerHandle{el: e, eventType: eventType, reg: reg}
}

// DispatchEvent stamps the event with the window's logical clock and runs
// listeners synchronously in registration order, lock released.
func (e *Element) DispatchEvent(ev dom.Event) {
	ev.Seq = e.doc.win.clock.Next()

	e.doc.mu.Lock()
	regs := append([]*listenerReg(nil), e.listeners[ev.Type]...)
	e.doc.mu.Unlock()

	for _, reg := range regs {
		if !reg.removed {
			reg.fn(ev)
		}
	}
}

// SetController parks the runtime controller on the element.
func (e *Element) SetController(c dom.Controller) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	e.controller = c
}

func (e *Element) Controller() (dom.Controller, bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if e.controller == nil {
		return nil, false
	}
	return e.controller, true
}

// OnReady delegates to the controller's ready signal. Nil when the backend
// has no ready signal or the element was never upgraded.
func (e *Element) OnReady() <-chan error {
	if !e.doc.win.cfg.ReadySignals {
		return nil
	}
	e.doc.mu.Lock()
	ctrl := e.controller
	e.doc.mu.Unlock()
	rs, ok := ctrl.(dom.ReadySignaler)
	if !ok {
		return nil
	}
	return rs.OnReady()
}

type listenerHandle struct {
	el        *Element
	eventType string
	reg       *listenerReg
}

func (h *listenerHandle) Remove() {
	h.el.doc.mu.Lock()
	defer h.el.doc.mu.Unlock()
	h.reg.removed = true
	regs := h.el.listeners[h.eventType]
	for i, r := range regs {
		if r == h.reg {
			h.el.listeners[h.eventType] = append(regs[:i:i], regs[i+1:]...)
			return
		}
	}
}

// asChild restricts tree membership to livedom node types.
func asChild(n dom.Node) (dom.Node, error) {
	switch n.(type) {
	case *Element, *Text, *Comment:
		return n, nil
	default:
		return nil, fmt.Errorf("livedom: foreign node type %T", n)
	}
}

// detachLocked removes a node from its current parent, if any. Caller
// holds the document lock. Connectivity is not recomputed here; attach
// paths handle it.
func detachLocked(n dom.Node) {
	el, ok := n.(*Element)
	if !ok {
		return
	}
	if el.parent != nil {
		p := el.parent
		for i, c := range p.children {
			if c == el {
				p.children = append(p.children[:i:i], p.children[i+1:]...)
				break
			}
		}
		el.parent = nil
	}
	if el.ownerShadow != nil {
		sr := el.ownerShadow
		for i, c := range sr.children {
			if c == el {
				sr.children = append(sr.children[:i:i], sr.children[i+1:]...)
				break
			}
		}
		el.ownerShadow = nil
	}
}

func attachToElementLocked(parent *Element, n dom.Node) {
	parent.children = append(parent.children, n)
	if el, ok := n.(*Element); ok {
		el.parent = parent
		el.ownerShadow = nil
	}
}

// markConnectedLocked marks the subtree rooted at n connected and returns
// the controllers that need their Connected callback, shadow content before
// light children. Caller holds the document lock.
func markConnectedLocked(n dom.Node) []dom.Controller {
	el, ok := n.(*Element)
	if !ok || el.connected {
		return nil
	}
	el.connected = true
	var ctrls []dom.Controller
	if el.controller != nil {
		ctrls = append(ctrls, el.controller)
	}
	if el.shadow != nil {
		for _, c := range el.shadow.children {
			ctrls = append(ctrls, markConnectedLocked(c)...)
		}
	}
	for _, c := range el.children {
		ctrls = append(ctrls, markConnectedLocked(c)...)
	}
	return ctrls
}

func markDisconnectedLocked(n dom.Node) []dom.Controller {
	el, ok := n.(*Element)
	if !ok || !el.connected {
		return nil
	}
	el.connected = false
	var ctrls []dom.Controller
	if el.controller != nil {
		ctrls = append(ctrls, el.controller)
	}
	if el.shadow != nil {
		for _, c := range el.shadow.children {
			ctrls = append(ctrls, markDisconnectedLocked(c)...)
		}
	}
	for _, c := range el.children {
		ctrls = append(ctrls, markDisconnectedLocked(c)...)
	}
	return ctrls
}

func fireConnected(ctrls []dom.Controller) {
	for _, c := range ctrls {
		c.Connected()
	}
}

func fireDisconnected(ctrls []dom.Controller) {
	for _, c := range ctrls {
		c.Disconnected()
	}
}
