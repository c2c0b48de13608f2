// Package serialize turns live elements and literal HTML fragments into
// one canonical string representation.
//
// Backends expose shadow trees three different ways (not at all, as
// declarative templates, or through a native serializer). This engine
// papers over that: whatever the source representation, shadow content ends
// up inlined under the single <shadow-root> marker, in document position
// between the host's open tag and its light children. Literal strings are
// parsed with the same fragment parser and pushed through the same
// pipeline, so a live element and the string it serializes to always
// canonicalize identically.
//
// Two outputs exist for two jobs: the pretty form is for failure messages
// and snapshots, the canonical form is the sole basis for structural
// equality (inter-tag whitespace collapsed to nothing, styles stripped,
// text NFC-normalized, attributes sorted).
package serialize

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"

	"github.com/riglabs/shadowrig/dom"
)

// ShadowMarker is the canonical element name shadow content is inlined
// under, across every backend.
const ShadowMarker = "shadow-root"

// NativeSerializer is implemented by backend elements whose engine already
// serializes shadow trees (the real engine). The output is normalized like
// any other source; it is trusted for content, not for marker shape.
type NativeSerializer interface {
	OuterHTML(includeShadow bool) (string, error)
}

// Options control serialization.
type Options struct {
	IncludeShadow bool
	Pretty        bool
	ExcludeStyles bool

	// Representation tells the engine how the source backend exposes
	// shadow trees. Zero value falls back to the synthetic marker.
	Representation dom.ShadowRepresentation
}

// Option mutates Options.
type Option func(*Options)

// IncludeShadow inlines shadow trees under the canonical marker.
func IncludeShadow(v bool) Option { return func(o *Options) { o.IncludeShadow = v } }

// Pretty re-indents the output. Defaults to true.
func Pretty(v bool) Option { return func(o *Options) { o.Pretty = v } }

// ExcludeStyles strips <style> blocks. Defaults to true.
func ExcludeStyles(v bool) Option { return func(o *Options) { o.ExcludeStyles = v } }

// WithRepresentation sets the source backend's shadow representation.
func WithRepresentation(rep dom.ShadowRepresentation) Option {
	return func(o *Options) { o.Representation = rep }
}

func buildOptions(opts []Option) Options {
	o := Options{Pretty: true, ExcludeStyles: true}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// HTML serializes a live element or a literal HTML string.
func HTML(v any, opts ...Option) (string, error) {
	o := buildOptions(opts)
	flat, err := render(v, o)
	if err != nil {
		return "", err
	}
	if o.Pretty {
		return prettyPrint(flat), nil
	}
	return flat, nil
}

// Canonical produces the equality form: marker-normalized, style-stripped,
// inter-tag whitespace removed, trimmed, NFC text. Two trees are
// structurally equal iff their Canonical outputs are byte-equal.
func Canonical(v any, includeShadow bool, opts ...Option) (string, error) {
	o := buildOptions(opts)
	o.IncludeShadow = includeShadow
	o.Pretty = false
	flat, err := render(v, o)
	if err != nil {
		return "", err
	}
	return canonicalize(flat), nil
}

var (
	// Bounded, non-greedy: style content is presentation detail, not
	// structure, wherever it appears.
	styleRe = regexp.MustCompile(`(?s)<style[^>]*>.*?</style>`)

	wsRunRe     = regexp.MustCompile(`\s+`)
	afterTagRe  = regexp.MustCompile(`>\s+`)
	beforeTagRe = regexp.MustCompile(`\s+<`)
)

// render produces the flat normalized string every output derives from.
func render(v any, o Options) (string, error) {
	forest, err := toForest(v, o)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, n := range forest {
		normalizeTree(n)
		if err := html.Render(&b, n); err != nil {
			return "", fmt.Errorf("serialize: render: %w", err)
		}
	}

	out := b.String()
	if o.ExcludeStyles {
		out = styleRe.ReplaceAllString(out, "")
	}
	return out, nil
}

// toForest resolves the input into parsed nodes.
func toForest(v any, o Options) ([]*html.Node, error) {
	switch t := v.(type) {
	case string:
		return parseFragment(t)
	case dom.Element:
		// The real engine serializes itself; everything else is walked.
		if ns, ok := t.(NativeSerializer); ok && o.Representation == dom.ShadowNative {
			markup, err := ns.OuterHTML(o.IncludeShadow)
			if err != nil {
				return nil, fmt.Errorf("serialize: native serializer: %w", err)
			}
			return parseFragment(markup)
		}
		return []*html.Node{snapshot(t, o)}, nil
	case nil:
		return nil, fmt.Errorf("serialize: nil input")
	default:
		return nil, fmt.Errorf("serialize: unsupported input type %T", v)
	}
}

func parseFragment(markup string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, fmt.Errorf("serialize: parse fragment: %w", err)
	}
	for _, n := range nodes {
		n.Parent = nil
		n.PrevSibling = nil
		n.NextSibling = nil
	}
	return nodes, nil
}

// snapshot converts a live element subtree into parser nodes, composing
// the shadow wrapper the source representation calls for. The wrapper sits
// in document position: between the host's open tag and its light
// children.
func snapshot(el dom.Element, o Options) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: el.LocalName()}
	for _, a := range el.Attributes() {
		n.Attr = append(n.Attr, html.Attribute{Key: a.Name, Val: a.Value})
	}

	if o.IncludeShadow {
		if sr, ok := el.ShadowRoot(); ok {
			wrapper := shadowWrapper(o.Representation)
			for _, c := range sr.Children() {
				if cn := snapshotNode(c, o); cn != nil {
					wrapper.AppendChild(cn)
				}
			}
			n.AppendChild(wrapper)
		}
	}

	for _, c := range el.Children() {
		if cn := snapshotNode(c, o); cn != nil {
			n.AppendChild(cn)
		}
	}
	return n
}

func snapshotNode(c dom.Node, o Options) *html.Node {
	switch t := c.(type) {
	case dom.Element:
		return snapshot(t, o)
	default:
		switch c.NodeType() {
		case dom.TextNode:
			return &html.Node{Type: html.TextNode, Data: c.TextContent()}
		case dom.CommentNode:
			return &html.Node{Type: html.CommentNode, Data: c.TextContent()}
		default:
			return nil
		}
	}
}

func shadowWrapper(rep dom.ShadowRepresentation) *html.Node {
	if rep == dom.ShadowTemplate {
		return &html.Node{
			Type: html.ElementNode,
			Data: "template",
			Attr: []html.Attribute{{Key: "shadowrootmode", Val: "open"}},
		}
	}
	return &html.Node{Type: html.ElementNode, Data: ShadowMarker}
}

// normalizeTree rewrites declarative shadow templates to the canonical
// marker and sorts attributes, so all backends converge on one shape.
func normalizeTree(n *html.Node) {
	if n.Type == html.ElementNode {
		if n.Data == "template" && hasAttr(n, "shadowrootmode") {
			n.Data = ShadowMarker
			n.DataAtom = 0
			n.Attr = removeAttr(n.Attr, "shadowrootmode")
			n.Attr = removeAttr(n.Attr, "shadowrootdelegatesfocus")
		}
		sort.SliceStable(n.Attr, func(i, j int) bool { return n.Attr[i].Key < n.Attr[j].Key })
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		normalizeTree(c)
	}
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func removeAttr(attrs []html.Attribute, key string) []html.Attribute {
	out := attrs[:0]
	for _, a := range attrs {
		if a.Key != key {
			out = append(out, a)
		}
	}
	return out
}

// canonicalize collapses every inter-tag whitespace run to nothing, trims,
// and NFC-normalizes. Used only for equality, never for display.
func canonicalize(s string) string {
	s = wsRunRe.ReplaceAllString(s, " ")
	s = afterTagRe.ReplaceAllString(s, ">")
	s = beforeTagRe.ReplaceAllString(s, "<")
	s = strings.TrimSpace(s)
	return norm.NFC.String(s)
}
