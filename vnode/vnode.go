// Package vnode normalizes the virtual-node descriptions accepted by the
// render harness into one internal shape.
//
// Three input shapes are accepted, because test code written against
// different component-framework versions describes nodes differently:
//
//  1. a bare descriptor: Desc{Tag: "x-toggle", Props: ...}
//  2. a framework-style tree node: Elem{Tag, Props, Children} or the
//     equivalent map[string]any keyed "tag"/"props"/"children"/"text"
//  3. the legacy naming of the same: map[string]any keyed
//     "vtag"/"vattrs"/"vchildren"/"vtext"
//
// Normalization is a tagged-variant decision executed once at the harness
// boundary; everything downstream sees only Node. A shape that cannot be
// resolved fails with ErrInvalidVNode before any DOM mutation happens.
package vnode

import (
	"errors"
	"fmt"
)

// ErrInvalidVNode is wrapped by every normalization failure.
var ErrInvalidVNode = errors.New("vnode: invalid virtual node")

// Desc is the bare descriptor shape: a tag plus props, no children.
type Desc struct {
	Tag   string
	Props map[string]any
}

// Elem is the framework-style tree node shape. Children entries may be
// strings (text), further Elems, Descs, maps in either naming convention,
// or already-normalized Nodes.
type Elem struct {
	Tag      string
	Props    map[string]any
	Children []any
	Text     string
}

// Node is the single internal shape. Attrs carries the incoming attribute/
// prop map verbatim; the harness decides per key whether a value becomes a
// DOM attribute or a JS-level property.
type Node struct {
	Tag      string
	Attrs    map[string]any
	Children []Node
	Text     string
}

// IsText reports whether the node is a bare text node.
func (n Node) IsText() bool {
	return n.Tag == "" && n.Text != ""
}

// Normalize resolves any accepted shape into a Node.
func Normalize(v any) (Node, error) {
	switch t := v.(type) {
	case Node:
		if t.Tag == "" && !t.IsText() {
			return Node{}, fmt.Errorf("%w: empty tag", ErrInvalidVNode)
		}
		return t, nil
	case *Node:
		if t == nil {
			return Node{}, fmt.Errorf("%w: nil node", ErrInvalidVNode)
		}
		return Normalize(*t)
	case Desc:
		if t.Tag == "" {
			return Node{}, fmt.Errorf("%w: descriptor has empty tag", ErrInvalidVNode)
		}
		return Node{Tag: t.Tag, Attrs: t.Props}, nil
	case *Desc:
		if t == nil {
			return Node{}, fmt.Errorf("%w: nil descriptor", ErrInvalidVNode)
		}
		return Normalize(*t)
	case Elem:
		return fromElem(t)
	case *Elem:
		if t == nil {
			return Node{}, fmt.Errorf("%w: nil element", ErrInvalidVNode)
		}
		return fromElem(*t)
	case string:
		// A bare string is a text node; only valid as a child.
		return Node{Text: t}, nil
	case map[string]any:
		return fromMap(t)
	case nil:
		return Node{}, fmt.Errorf("%w: nil", ErrInvalidVNode)
	default:
		return Node{}, fmt.Errorf("%w: unsupported shape %T", ErrInvalidVNode, v)
	}
}

func fromElem(e Elem) (Node, error) {
	if e.Tag == "" && e.Text == "" {
		return Node{}, fmt.Errorf("%w: element has empty tag", ErrInvalidVNode)
	}
	children, err := normalizeChildren(e.Children)
	if err != nil {
		return Node{}, err
	}
	return Node{Tag: e.Tag, Attrs: e.Props, Children: children, Text: e.Text}, nil
}

// fromMap resolves the two map conventions. The framework-style keys and
// the legacy keys must not be mixed in one map.
func fromMap(m map[string]any) (Node, error) {
	_, modern := m["tag"]
	_, legacy := m["vtag"]
	switch {
	case modern && legacy:
		return Node{}, fmt.Errorf("%w: map mixes tag and vtag conventions", ErrInvalidVNode)
	case modern:
		return mapNode(m, "tag", "props", "children", "text")
	case legacy:
		return mapNode(m, "vtag", "vattrs", "vchildren", "vtext")
	default:
		return Node{}, fmt.Errorf("%w: map has neither tag nor vtag", ErrInvalidVNode)
	}
}

func mapNode(m map[string]any, tagKey, attrsKey, childrenKey, textKey string) (Node, error) {
	tag, ok := m[tagKey].(string)
	if !ok || tag == "" {
		return Node{}, fmt.Errorf("%w: %s is %T, want non-empty string", ErrInvalidVNode, tagKey, m[tagKey])
	}

	var attrs map[string]any
	if raw, ok := m[attrsKey]; ok && raw != nil {
		attrs, ok = raw.(map[string]any)
		if !ok {
			return Node{}, fmt.Errorf("%w: %s is %T, want map[string]any", ErrInvalidVNode, attrsKey, raw)
		}
	}

	var children []Node
	if raw, ok := m[childrenKey]; ok && raw != nil {
		list, ok := raw.([]any)
		if !ok {
			return Node{}, fmt.Errorf("%w: %s is %T, want []any", ErrInvalidVNode, childrenKey, raw)
		}
		var err error
		children, err = normalizeChildren(list)
		if err != nil {
			return Node{}, err
		}
	}

	text, _ := m[textKey].(string)
	return Node{Tag: tag, Attrs: attrs, Children: children, Text: text}, nil
}

func normalizeChildren(list []any) ([]Node, error) {
	if len(list) == 0 {
		return nil, nil
	}
	children := make([]Node, 0, len(list))
	for i, c := range list {
		child, err := Normalize(c)
		if err != nil {
			return nil, fmt.Errorf("child %d: %w", i, err)
		}
		children = append(children, child)
	}
	return children, nil
}
