package match

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/riglabs/shadowrig/dom"
	"github.com/riglabs/shadowrig/serialize"
)

// Snapshot compares the subject's shadow-inclusive pretty HTML against the
// golden file testdata/golden/<name>.golden. Run tests with -update to
// rewrite the golden files.
//
// Snapshots are only meaningful on shadow hosts: custom elements, or plain
// elements that already carry an attached shadow root. Anything else fails
// the test immediately rather than silently snapshotting light DOM.
func Snapshot(t *testing.T, name string, subject any) {
	t.Helper()

	v, opts := resolve(subject)
	el, ok := v.(dom.Element)
	if !ok {
		t.Fatalf("snapshot %s: subject %T is not an element", name, subject)
	}
	if !strings.Contains(el.LocalName(), "-") {
		if _, shadowed := el.ShadowRoot(); !shadowed {
			t.Fatalf("snapshot %s: <%s> is neither a custom element nor a shadow host", name, el.LocalName())
		}
	}

	out, err := serialize.HTML(el, append(opts, serialize.IncludeShadow(true))...)
	if err != nil {
		t.Fatalf("snapshot %s: serialize: %v", name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(out+"\n"))
}
