package harness

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/riglabs/shadowrig/dom"
	"github.com/riglabs/shadowrig/env"
	"github.com/riglabs/shadowrig/trace"
	"github.com/riglabs/shadowrig/vnode"
)

// RenderOptions control a single render.
type RenderOptions struct {
	// Props are assigned as JS-level properties on the root, after the
	// normalized vnode's own props. Components may expose complex-typed
	// props, so these never become attributes.
	Props map[string]any

	// Attributes are set as literal DOM attributes on the root.
	Attributes map[string]string

	// HTML, when set, replaces the root's children wholesale.
	HTML string

	// Slots are appended as children when the vnode carries none and HTML
	// is empty. Entries may be any accepted virtual-node shape.
	Slots []any

	// WaitForLoad awaits the component's initial upgrade before returning.
	// Defaults to true.
	WaitForLoad bool
}

// RenderOption mutates RenderOptions.
type RenderOption func(*RenderOptions)

// WithProps sets JS-level properties on the root.
func WithProps(p map[string]any) RenderOption {
	return func(o *RenderOptions) { o.Props = p }
}

// WithAttributes sets literal DOM attributes on the root.
func WithAttributes(a map[string]string) RenderOption {
	return func(o *RenderOptions) { o.Attributes = a }
}

// WithHTML replaces the root's children with the parsed markup.
func WithHTML(markup string) RenderOption {
	return func(o *RenderOptions) { o.HTML = markup }
}

// WithSlots appends slotted children.
func WithSlots(slots ...any) RenderOption {
	return func(o *RenderOptions) { o.Slots = slots }
}

// WaitForLoad toggles awaiting the initial upgrade.
func WaitForLoad(v bool) RenderOption {
	return func(o *RenderOptions) { o.WaitForLoad = v }
}

// Render materializes a virtual-node description in the environment and
// returns the handle to the live root element. A nil vnode with WithHTML
// renders the fragment wholesale; the handle's root is the fragment's
// first element.
//
// The vnode is normalized first; a shape failure surfaces as ErrInvalidVNode
// with no DOM touched. After this returns with WaitForLoad in effect, the
// root is attached and past its initial upgrade: property and attribute
// reads reflect the fully-initialized component.
func Render(ctx context.Context, e *env.Environment, vn any, opts ...RenderOption) (*Handle, error) {
	o := RenderOptions{WaitForLoad: true}
	for _, fn := range opts {
		fn(&o)
	}

	var root dom.Element
	var mount []dom.Node

	if vn == nil {
		if o.HTML == "" {
			return nil, fmt.Errorf("%w: nil vnode without html", ErrInvalidVNode)
		}
		nodes, err := e.Document.ParseFragment(o.HTML)
		if err != nil {
			return nil, fmt.Errorf("%w: parse html: %v", ErrRenderFailed, err)
		}
		for _, nd := range nodes {
			if el, ok := nd.(dom.Element); ok {
				root = el
				break
			}
		}
		if root == nil {
			return nil, fmt.Errorf("%w: html fragment contains no element", ErrInvalidVNode)
		}
		mount = nodes
	} else {
		n, err := vnode.Normalize(vn)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidVNode, err)
		}
		if n.Tag == "" {
			return nil, fmt.Errorf("%w: root must be an element, not text", ErrInvalidVNode)
		}

		root, err = e.Document.CreateElement(n.Tag)
		if err != nil {
			return nil, fmt.Errorf("%w: create <%s>: %v", ErrRenderFailed, n.Tag, err)
		}
		if root == nil {
			return nil, fmt.Errorf("%w: backend returned no element for <%s>", ErrRenderFailed, n.Tag)
		}

		for _, name := range sortedKeys(o.Attributes) {
			root.SetAttribute(name, o.Attributes[name])
		}
		if err := assignProps(root, n.Attrs); err != nil {
			return nil, err
		}
		if err := assignProps(root, o.Props); err != nil {
			return nil, err
		}

		switch {
		case o.HTML != "":
			if err := root.SetInnerHTML(o.HTML); err != nil {
				return nil, fmt.Errorf("harness: apply html: %w", err)
			}
		case len(n.Children) > 0:
			if err := appendChildren(e.Document, root, n.Children); err != nil {
				return nil, err
			}
		case len(o.Slots) > 0:
			for i, s := range o.Slots {
				sn, err := vnode.Normalize(s)
				if err != nil {
					return nil, fmt.Errorf("%w: slot %d: %v", ErrInvalidVNode, i, err)
				}
				if err := appendChildren(e.Document, root, []vnode.Node{sn}); err != nil {
					return nil, err
				}
			}
		}
		mount = []dom.Node{root}
	}

	container, err := e.Document.CreateElement("div")
	if err != nil {
		return nil, fmt.Errorf("%w: create container: %v", ErrRenderFailed, err)
	}
	container.SetAttribute("data-rig-container", "")
	for _, nd := range mount {
		if err := container.AppendChild(nd); err != nil {
			return nil, fmt.Errorf("harness: attach root: %w", err)
		}
	}
	if err := e.Document.Body().AppendChild(container); err != nil {
		return nil, fmt.Errorf("harness: attach container: %w", err)
	}

	h := &Handle{
		id:        uuid.Must(uuid.NewV7()).String(),
		env:       e,
		root:      root,
		container: container,
		spies:     make(map[string]*EventSpy),
	}
	h.record(trace.OpRender, map[string]any{"tag": root.LocalName()})

	if o.WaitForLoad {
		if e.Caps.HasReadySignal {
			if err := awaitReady(ctx, root); err != nil {
				return nil, err
			}
		} else {
			if err := h.WaitForChanges(ctx); err != nil {
				return nil, err
			}
		}
	}

	return h, nil
}

// awaitReady waits on the root's own ready signal, falling back to nothing
// when the element exposes none (the capability row can promise a signal
// the runtime never attached, e.g. a plain element).
func awaitReady(ctx context.Context, root dom.Element) error {
	rs, ok := root.(dom.ReadySignaler)
	if !ok {
		return nil
	}
	ch := rs.OnReady()
	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		// A rejected ready signal surfaces through later content
		// assertions, not here.
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// assignProps applies JS-level properties in sorted key order so repeated
// runs are deterministic. On a mid-map failure, earlier assignments remain
// applied, mirroring plain property assignment semantics.
func assignProps(el dom.Element, props map[string]any) error {
	for _, name := range sortedKeys(props) {
		if err := el.SetProperty(name, props[name]); err != nil {
			return fmt.Errorf("harness: set property %q: %w", name, err)
		}
	}
	return nil
}

// appendChildren materializes normalized vnodes as real nodes. For child
// elements, string-valued attrs become DOM attributes and anything else a
// property; nested trees recurse.
func appendChildren(doc dom.Document, parent dom.Element, children []vnode.Node) error {
	for _, c := range children {
		if c.IsText() {
			if err := parent.AppendChild(doc.CreateText(c.Text)); err != nil {
				return fmt.Errorf("harness: append text: %w", err)
			}
			continue
		}
		el, err := doc.CreateElement(c.Tag)
		if err != nil {
			return fmt.Errorf("%w: create child <%s>: %v", ErrRenderFailed, c.Tag, err)
		}
		for _, name := range sortedKeys(c.Attrs) {
			if s, ok := c.Attrs[name].(string); ok {
				el.SetAttribute(name, s)
				continue
			}
			if err := el.SetProperty(name, c.Attrs[name]); err != nil {
				return fmt.Errorf("harness: child property %q: %w", name, err)
			}
		}
		if c.Text != "" {
			if err := el.AppendChild(doc.CreateText(c.Text)); err != nil {
				return fmt.Errorf("harness: append text: %w", err)
			}
		}
		if err := appendChildren(doc, el, c.Children); err != nil {
			return err
		}
		if err := parent.AppendChild(el); err != nil {
			return fmt.Errorf("harness: append child <%s>: %w", c.Tag, err)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
