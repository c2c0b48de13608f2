// Package match provides structural comparisons over rendered components.
//
// Every comparator returns a Result instead of failing a test directly, so
// the same checks serve both testify assertions and the scenario runner.
// HTML comparisons go through the canonical serializer: both sides are
// normalized before comparing, which makes the checks whitespace- and
// attribute-order-insensitive and stable across backends.
package match

import (
	"fmt"
	"sort"
	"strings"

	"github.com/riglabs/shadowrig/dom"
	"github.com/riglabs/shadowrig/serialize"
)

// Result is the outcome of one comparison. Message is empty on a pass and
// carries a line diff of the pretty-printed sides on a mismatch.
type Result struct {
	Pass    bool
	Message string
}

// OK reports whether the comparison passed.
func (r Result) OK() bool { return r.Pass }

func pass() Result { return Result{Pass: true} }

func fail(format string, args ...any) Result {
	return Result{Message: fmt.Sprintf(format, args...)}
}

// rooted lets harness handles be used directly as subjects.
type rooted interface {
	Root() dom.Element
}

type represented interface {
	Representation() dom.ShadowRepresentation
}

func resolve(v any) (any, []serialize.Option) {
	var opts []serialize.Option
	if r, ok := v.(represented); ok {
		opts = append(opts, serialize.WithRepresentation(r.Representation()))
	}
	if r, ok := v.(rooted); ok {
		return r.Root(), opts
	}
	return v, opts
}

// EqualsHTML compares shadow-inclusive canonical HTML.
func EqualsHTML(actual, expected any) Result {
	return equalsHTML(actual, expected, true)
}

// EqualsLightHTML compares canonical HTML with shadow content omitted.
func EqualsLightHTML(actual, expected any) Result {
	return equalsHTML(actual, expected, false)
}

func equalsHTML(actual, expected any, includeShadow bool) Result {
	av, aopts := resolve(actual)
	ev, eopts := resolve(expected)

	ac, err := serialize.Canonical(av, includeShadow, aopts...)
	if err != nil {
		return fail("serialize actual: %v", err)
	}
	ec, err := serialize.Canonical(ev, includeShadow, eopts...)
	if err != nil {
		return fail("serialize expected: %v", err)
	}
	if ac == ec {
		return pass()
	}

	ap, err := serialize.HTML(av, append(aopts, serialize.IncludeShadow(includeShadow))...)
	if err != nil {
		ap = ac
	}
	ep, err := serialize.HTML(ev, append(eopts, serialize.IncludeShadow(includeShadow))...)
	if err != nil {
		ep = ec
	}
	return fail("HTML mismatch:\n%s", lineDiff(ep, ap))
}

// EqualsText compares whitespace-collapsed text content.
func EqualsText(actual any, want string) Result {
	av, _ := resolve(actual)
	n, ok := av.(dom.Node)
	if !ok {
		return fail("EqualsText: subject %T is not a node", actual)
	}
	got := collapseWS(n.TextContent())
	want = collapseWS(want)
	if got == want {
		return pass()
	}
	return fail("text mismatch:\n  expected: %q\n  actual:   %q", want, got)
}

// HasClasses checks that the element's class attribute contains every named
// class. Extra classes are allowed.
func HasClasses(el dom.Element, classes ...string) Result {
	have := classSet(el)
	var missing []string
	for _, c := range classes {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return pass()
	}
	return fail("missing classes %v (element has %v)", missing, classList(have))
}

// MatchesClassesExactly checks the class list is exactly the given set,
// order-insensitively.
func MatchesClassesExactly(el dom.Element, classes ...string) Result {
	have := classList(classSet(el))
	want := append([]string(nil), classes...)
	sort.Strings(want)
	if strings.Join(have, " ") == strings.Join(want, " ") {
		return pass()
	}
	return fail("class mismatch:\n  expected: %v\n  actual:   %v", want, have)
}

// EqualsAttribute checks a single attribute value. An empty want with the
// attribute absent still fails: absence and empty string are distinct.
func EqualsAttribute(el dom.Element, name, want string) Result {
	got, ok := el.Attribute(name)
	if !ok {
		return fail("attribute %q is not set (expected %q)", name, want)
	}
	if got == want {
		return pass()
	}
	return fail("attribute %q mismatch:\n  expected: %q\n  actual:   %q", name, want, got)
}

// EqualsAttributes checks every named attribute. Attributes not named are
// ignored.
func EqualsAttributes(el dom.Element, want map[string]string) Result {
	names := make([]string, 0, len(want))
	for k := range want {
		names = append(names, k)
	}
	sort.Strings(names)
	var problems []string
	for _, name := range names {
		if r := EqualsAttribute(el, name, want[name]); !r.Pass {
			problems = append(problems, r.Message)
		}
	}
	if len(problems) == 0 {
		return pass()
	}
	return fail("%s", strings.Join(problems, "\n"))
}

func classSet(el dom.Element) map[string]bool {
	set := make(map[string]bool)
	raw, _ := el.Attribute("class")
	for _, c := range strings.Fields(raw) {
		set[c] = true
	}
	return set
}

func classList(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func collapseWS(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
