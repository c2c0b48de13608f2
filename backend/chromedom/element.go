package chromedom

import (
	"fmt"
	"strings"

	"github.com/riglabs/shadowrig/dom"
)

// Document is the page document.
type Document struct {
	win *Window
}

func (d *Document) CreateElement(tag string) (dom.Element, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, fmt.Errorf("chromedom: create element: empty tag")
	}
	v, err := d.win.eval(`(tag) => window.__rig.register(document.createElement(tag))`, tag)
	if err != nil {
		return nil, fmt.Errorf("chromedom: create element <%s>: %w", tag, err)
	}
	return &Element{win: d.win, id: int64(v.Int()), local: strings.ToLower(tag)}, nil
}

func (d *Document) CreateText(data string) dom.Node {
	return &Text{win: d.win, data: data}
}

func (d *Document) Body() dom.Element {
	// The body is registered once and cached under a fixed slot.
	v, err := d.win.eval(`() => {
		if (!window.__rig.bodyId) window.__rig.bodyId = window.__rig.register(document.body);
		return window.__rig.bodyId;
	}`)
	if err != nil {
		return nil
	}
	return &Element{win: d.win, id: int64(v.Int()), local: "body"}
}

// ParseFragment parses markup through a detached template element and
// registers the resulting top-level nodes.
func (d *Document) ParseFragment(markup string) ([]dom.Node, error) {
	v, err := d.win.eval(`(html) => {
		const t = document.createElement('template');
		t.innerHTML = html;
		const out = [];
		for (const n of t.content.childNodes) {
			if (n.nodeType === Node.ELEMENT_NODE) {
				out.push({ kind: 'el', id: window.__rig.register(n), tag: n.localName });
			} else if (n.nodeType === Node.TEXT_NODE) {
				out.push({ kind: 'text', data: n.textContent });
			}
		}
		return out;
	}`, markup)
	if err != nil {
		return nil, fmt.Errorf("chromedom: parse fragment: %w", err)
	}

	var nodes []dom.Node
	for _, item := range v.Arr() {
		switch item.Get("kind").Str() {
		case "el":
			nodes = append(nodes, &Element{
				win:   d.win,
				id:    int64(item.Get("id").Int()),
				local: item.Get("tag").Str(),
			})
		case "text":
			nodes = append(nodes, &Text{win: d.win, data: item.Get("data").Str()})
		}
	}
	return nodes, nil
}

func (d *Document) AdoptedSheets() []string {
	v, err := d.win.eval(`() => (document.adoptedStyleSheets || []).length`)
	if err != nil {
		return nil
	}
	return make([]string, v.Int())
}

func (d *Document) SetAdoptedSheets(sheets []string) {
	// Constructed sheets carry opaque CSS text.
	_, _ = d.win.eval(`(texts) => {
		document.adoptedStyleSheets = texts.map(t => {
			const s = new CSSStyleSheet();
			s.replaceSync(t);
			return s;
		});
	}`, sheets)
}

// Element is a registry-addressed live element on the page.
type Element struct {
	win   *Window
	id    int64
	local string
}

func (e *Element) NodeType() dom.NodeType { return dom.ElementNode }
func (e *Element) TagName() string        { return strings.ToUpper(e.local) }
func (e *Element) LocalName() string      { return e.local }

func (e *Element) TextContent() string {
	v, err := e.win.eval(`(id) => window.__rig.els[id].textContent`, e.id)
	if err != nil {
		return ""
	}
	return v.Str()
}

func (e *Element) SetAttribute(name, value string) {
	_, _ = e.win.eval(`(id, n, v) => window.__rig.els[id].setAttribute(n, v)`, e.id, name, value)
}

func (e *Element) Attribute(name string) (string, bool) {
	v, err := e.win.eval(`(id, n) => {
		const el = window.__rig.els[id];
		return el.hasAttribute(n) ? { ok: true, v: el.getAttribute(n) } : { ok: false };
	}`, e.id, name)
	if err != nil || !v.Get("ok").Bool() {
		return "", false
	}
	return v.Get("v").Str(), true
}

func (e *Element) RemoveAttribute(name string) {
	_, _ = e.win.eval(`(id, n) => window.__rig.els[id].removeAttribute(n)`, e.id, name)
}

func (e *Element) Attributes() []dom.Attr {
	v, err := e.win.eval(`(id) => [...window.__rig.els[id].attributes].map(a => ({ n: a.name, v: a.value }))`, e.id)
	if err != nil {
		return nil
	}
	var attrs []dom.Attr
	for _, a := range v.Arr() {
		attrs = append(attrs, dom.Attr{Name: a.Get("n").Str(), Value: a.Get("v").Str()})
	}
	return attrs
}

func (e *Element) SetProperty(name string, value any) error {
	_, err := e.win.eval(`(id, n, v) => { window.__rig.els[id][n] = v; }`, e.id, name, value)
	if err != nil {
		return fmt.Errorf("chromedom: set property %s: %w", name, err)
	}
	return nil
}

func (e *Element) Property(name string) (any, bool) {
	v, err := e.win.eval(`(id, n) => {
		const el = window.__rig.els[id];
		return n in el ? { ok: true, v: el[n] } : { ok: false };
	}`, e.id, name)
	if err != nil || !v.Get("ok").Bool() {
		return nil, false
	}
	return v.Get("v").Val(), true
}

func (e *Element) AppendChild(child dom.Node) error {
	switch c := child.(type) {
	case *Element:
		_, err := e.win.eval(`(id, cid) => window.__rig.els[id].appendChild(window.__rig.els[cid])`, e.id, c.id)
		if err != nil {
			return fmt.Errorf("chromedom: append child: %w", err)
		}
		return nil
	case *Text:
		_, err := e.win.eval(`(id, data) => window.__rig.els[id].appendChild(document.createTextNode(data))`, e.id, c.data)
		if err != nil {
			return fmt.Errorf("chromedom: append text: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("chromedom: foreign node type %T", child)
	}
}

func (e *Element) RemoveChild(child dom.Node) error {
	c, ok := child.(*Element)
	if !ok {
		return fmt.Errorf("chromedom: remove child: unsupported node type %T", child)
	}
	_, err := e.win.eval(`(id, cid) => window.__rig.els[id].removeChild(window.__rig.els[cid])`, e.id, c.id)
	if err != nil {
		return fmt.Errorf("chromedom: remove child: %w", err)
	}
	return nil
}

func (e *Element) Remove() {
	_, _ = e.win.eval(`(id) => window.__rig.els[id].remove()`, e.id)
}

func (e *Element) Children() []dom.Node {
	v, err := e.win.eval(`(id) => {
		const out = [];
		for (const n of window.__rig.els[id].childNodes) {
			if (n.nodeType === Node.ELEMENT_NODE) {
				out.push({ kind: 'el', id: window.__rig.register(n), tag: n.localName });
			} else if (n.nodeType === Node.TEXT_NODE) {
				out.push({ kind: 'text', data: n.textContent });
			}
		}
		return out;
	}`, e.id)
	if err != nil {
		return nil
	}
	var nodes []dom.Node
	for _, item := range v.Arr() {
		switch item.Get("kind").Str() {
		case "el":
			nodes = append(nodes, &Element{win: e.win, id: int64(item.Get("id").Int()), local: item.Get("tag").Str()})
		case "text":
			nodes = append(nodes, &Text{win: e.win, data: item.Get("data").Str()})
		}
	}
	return nodes
}

func (e *Element) ParentElement() dom.Element {
	v, err := e.win.eval(`(id) => {
		const p = window.__rig.els[id].parentElement;
		return p ? { ok: true, id: window.__rig.register(p), tag: p.localName } : { ok: false };
	}`, e.id)
	if err != nil || !v.Get("ok").Bool() {
		return nil
	}
	return &Element{win: e.win, id: int64(v.Get("id").Int()), local: v.Get("tag").Str()}
}

func (e *Element) SetInnerHTML(markup string) error {
	_, err := e.win.eval(`(id, html) => { window.__rig.els[id].innerHTML = html; }`, e.id, markup)
	if err != nil {
		return fmt.Errorf("chromedom: set innerHTML: %w", err)
	}
	return nil
}

func (e *Element) ShadowRoot() (dom.ShadowRoot, bool) {
	v, err := e.win.eval(`(id) => window.__rig.els[id].shadowRoot !== null`, e.id)
	if err != nil || !v.Bool() {
		return nil, false
	}
	return &shadowRoot{host: e}, true
}

func (e *Element) AttachShadow() (dom.ShadowRoot, error) {
	_, err := e.win.eval(`(id) => {
		const el = window.__rig.els[id];
		if (!el.shadowRoot) el.attachShadow({ mode: 'open', serializable: true });
		return true;
	}`, e.id)
	if err != nil {
		return nil, fmt.Errorf("chromedom: attach shadow: %w", err)
	}
	return &shadowRoot{host: e}, nil
}

func (e *Element) AddEventListener(eventType string, fn dom.Listener) dom.ListenerHandle {
	e.win.mu.Lock()
	e.win.nextLid++
	reg := &remoteListener{lid: e.win.nextLid, eventType: eventType, fn: fn}
	e.win.listeners[e.id] = append(e.win.listeners[e.id], reg)
	e.win.mu.Unlock()

	_, _ = e.win.eval(`(id, lid, type) => {
		const el = window.__rig.els[id];
		const h = ev => window.__rigEmit({ el: id, type, detail: ev.detail === undefined ? null : ev.detail });
		window.__rig.listeners[lid] = { el, type, h };
		el.addEventListener(type, h);
	}`, e.id, reg.lid, eventType)

	return &remoteListenerHandle{win: e.win, elID: e.id, reg: reg}
}

func (e *Element) DispatchEvent(ev dom.Event) {
	_, _ = e.win.eval(`(id, type, detail) => {
		window.__rig.els[id].dispatchEvent(new CustomEvent(type, { detail }));
	}`, e.id, ev.Type, ev.Detail)
}

// OuterHTML is the native serializer hook consumed by the serialization
// engine. With includeShadow, shadow trees come back in declarative
// template form, which the engine normalizes to the canonical marker.
// getHTML only emits roots flagged serializable, and component runtimes in
// the page attach theirs without the flag, so every open root in the
// subtree is collected and passed explicitly.
func (e *Element) OuterHTML(includeShadow bool) (string, error) {
	v, err := e.win.eval(`(id, shadow) => {
		const el = window.__rig.els[id];
		if (!shadow) return el.outerHTML;
		const roots = [];
		const walk = scope => {
			for (const n of scope.querySelectorAll('*')) {
				if (n.shadowRoot) { roots.push(n.shadowRoot); walk(n.shadowRoot); }
			}
		};
		if (el.shadowRoot) { roots.push(el.shadowRoot); walk(el.shadowRoot); }
		walk(el);
		const inner = el.getHTML ? el.getHTML({ serializableShadowRoots: true, shadowRoots: roots }) : el.innerHTML;
		const attrs = [...el.attributes].map(a => ' ' + a.name + '="' + a.value.replace(/"/g, '&quot;') + '"').join('');
		const tag = el.localName;
		return '<' + tag + attrs + '>' + inner + '</' + tag + '>';
	}`, e.id, includeShadow)
	if err != nil {
		return "", fmt.Errorf("chromedom: serialize: %w", err)
	}
	return v.Str(), nil
}

type remoteListenerHandle struct {
	win  *Window
	elID int64
	reg  *remoteListener
}

func (h *remoteListenerHandle) Remove() {
	h.win.mu.Lock()
	h.reg.removed = true
	regs := h.win.listeners[h.elID]
	for i, r := range regs {
		if r == h.reg {
			h.win.listeners[h.elID] = append(regs[:i:i], regs[i+1:]...)
			break
		}
	}
	h.win.mu.Unlock()

	_, _ = h.win.eval(`(lid) => {
		const l = window.__rig.listeners[lid];
		if (l) {
			l.el.removeEventListener(l.type, l.h);
			delete window.__rig.listeners[lid];
		}
	}`, h.reg.lid)
}

// shadowRoot addresses the host's shadow root through the host id.
type shadowRoot struct {
	host *Element
}

func (s *shadowRoot) Host() dom.Element { return s.host }

func (s *shadowRoot) Children() []dom.Node {
	v, err := s.host.win.eval(`(id) => {
		const sr = window.__rig.els[id].shadowRoot;
		const out = [];
		if (!sr) return out;
		for (const n of sr.childNodes) {
			if (n.nodeType === Node.ELEMENT_NODE) {
				out.push({ kind: 'el', id: window.__rig.register(n), tag: n.localName });
			} else if (n.nodeType === Node.TEXT_NODE) {
				out.push({ kind: 'text', data: n.textContent });
			}
		}
		return out;
	}`, s.host.id)
	if err != nil {
		return nil
	}
	var nodes []dom.Node
	for _, item := range v.Arr() {
		switch item.Get("kind").Str() {
		case "el":
			nodes = append(nodes, &Element{win: s.host.win, id: int64(item.Get("id").Int()), local: item.Get("tag").Str()})
		case "text":
			nodes = append(nodes, &Text{win: s.host.win, data: item.Get("data").Str()})
		}
	}
	return nodes
}

func (s *shadowRoot) AppendChild(child dom.Node) error {
	c, ok := child.(*Element)
	if !ok {
		return fmt.Errorf("chromedom: shadow append: unsupported node type %T", child)
	}
	_, err := s.host.win.eval(`(id, cid) => window.__rig.els[id].shadowRoot.appendChild(window.__rig.els[cid])`, s.host.id, c.id)
	if err != nil {
		return fmt.Errorf("chromedom: shadow append: %w", err)
	}
	return nil
}

func (s *shadowRoot) SetInnerHTML(markup string) error {
	_, err := s.host.win.eval(`(id, html) => { window.__rig.els[id].shadowRoot.innerHTML = html; }`, s.host.id, markup)
	if err != nil {
		return fmt.Errorf("chromedom: shadow innerHTML: %w", err)
	}
	return nil
}

func (s *shadowRoot) AdoptedSheets() []string {
	v, err := s.host.win.eval(`(id) => (window.__rig.els[id].shadowRoot.adoptedStyleSheets || []).length`, s.host.id)
	if err != nil {
		return nil
	}
	return make([]string, v.Int())
}

func (s *shadowRoot) SetAdoptedSheets(sheets []string) {
	_, _ = s.host.win.eval(`(id, texts) => {
		window.__rig.els[id].shadowRoot.adoptedStyleSheets = texts.map(t => {
			const s = new CSSStyleSheet();
			s.replaceSync(t);
			return s;
		});
	}`, s.host.id, sheets)
}

// Text is a detached character-data node created Go-side. Once appended it
// lives only in the page; the Go value is not a live reference.
type Text struct {
	win  *Window
	data string
}

func (t *Text) NodeType() dom.NodeType { return dom.TextNode }
func (t *Text) TextContent() string    { return t.data }
