package livedom

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/riglabs/shadowrig/dom"
)

// Document is an emulated document. One mutex guards the whole tree; see
// the package comment for the locking model.
type Document struct {
	mu         sync.Mutex
	win        *Window
	body       *Element
	adopted    []string
	hasAdopted bool
}

func newDocument(w *Window) *Document {
	d := &Document{win: w}
	body := newElement(d, "body")
	body.connected = true
	d.body = body
	return d
}

// CreateElement creates an element and hands it to the component runtime
// for upgrade. The tag must be non-empty; case is preserved in LocalName
// and upper-cased in TagName.
func (d *Document) CreateElement(tag string) (dom.Element, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, fmt.Errorf("livedom: create element: empty tag")
	}
	el := newElement(d, strings.ToLower(tag))
	if rt := d.win.cfg.Runtime; rt != nil {
		rt.Upgrade(el)
	}
	return el, nil
}

// CreateText creates an unattached text node.
func (d *Document) CreateText(data string) dom.Node {
	return &Text{data: data}
}

func (d *Document) Body() dom.Element { return d.body }

// ParseFragment parses markup in body context. Elements are created through
// CreateElement so that components inside literal HTML still upgrade.
func (d *Document) ParseFragment(markup string) ([]dom.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	parsed, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, fmt.Errorf("livedom: parse fragment: %w", err)
	}

	var out []dom.Node
	for _, n := range parsed {
		node, err := d.convert(n)
		if err != nil {
			return nil, err
		}
		if node != nil {
			out = append(out, node)
		}
	}
	return out, nil
}

// convert maps one parsed html.Node subtree into live nodes. Node kinds
// outside element/text/comment are dropped.
func (d *Document) convert(n *html.Node) (dom.Node, error) {
	switch n.Type {
	case html.TextNode:
		return &Text{data: n.Data}, nil
	case html.CommentNode:
		return &Comment{data: n.Data}, nil
	case html.ElementNode:
		el, err := d.CreateElement(n.Data)
		if err != nil {
			return nil, err
		}
		for _, a := range n.Attr {
			el.SetAttribute(a.Key, a.Val)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			child, err := d.convert(c)
			if err != nil {
				return nil, err
			}
			if child != nil {
				if err := el.AppendChild(child); err != nil {
					return nil, err
				}
			}
		}
		return el, nil
	default:
		return nil, nil
	}
}

// AdoptedSheets returns the document-level adopted-style-sheets stand-in.
func (d *Document) AdoptedSheets() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.adopted...)
}

// SetAdoptedSheets replaces the stand-in wholesale, matching the DOM
// setter semantics.
func (d *Document) SetAdoptedSheets(sheets []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.adopted = append([]string(nil), sheets...)
	d.hasAdopted = true
}

// HasAdoptedSheets reports whether the stand-in has been initialized.
func (d *Document) HasAdoptedSheets() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hasAdopted
}

// InitAdoptedSheets initializes the stand-in to an empty list. Idempotent.
func (d *Document) InitAdoptedSheets() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.hasAdopted {
		d.adopted = []string{}
		d.hasAdopted = true
	}
}

// Text is a character-data node.
type Text struct {
	data string
}

func (t *Text) NodeType() dom.NodeType { return dom.TextNode }
func (t *Text) TextContent() string    { return t.data }

// Comment is a comment node. Serialized but otherwise inert.
type Comment struct {
	data string
}

func (c *Comment) NodeType() dom.NodeType { return dom.CommentNode }
func (c *Comment) TextContent() string    { return c.data }
