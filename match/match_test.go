package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riglabs/shadowrig/dom"
	"github.com/riglabs/shadowrig/env"
	"github.com/riglabs/shadowrig/harness"
	"github.com/riglabs/shadowrig/internal/comptest"
	"github.com/riglabs/shadowrig/internal/livedom"
	"github.com/riglabs/shadowrig/vnode"
)

func renderToggle(t *testing.T, pressed bool) *harness.Handle {
	t.Helper()
	e, err := env.Provision(context.Background(), dom.MockDOM, env.WithRuntime(comptest.DefaultRuntime()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Teardown() })

	h, err := harness.Render(context.Background(), e, vnode.Desc{
		Tag:   "toggle-button",
		Props: map[string]any{"pressed": pressed},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Unmount() })
	return h
}

func element(t *testing.T, markup string) dom.Element {
	t.Helper()
	w := livedom.NewWindow(livedom.Config{})
	nodes, err := w.Document().ParseFragment(markup)
	require.NoError(t, err)
	for _, n := range nodes {
		if el, ok := n.(dom.Element); ok {
			return el
		}
	}
	t.Fatal("no element in fragment")
	return nil
}

func TestEqualsHTMLAgainstHandle(t *testing.T) {
	h := renderToggle(t, false)

	r := EqualsHTML(h,
		`<toggle-button><shadow-root><button aria-pressed="false" class="toggle">toggle</button></shadow-root></toggle-button>`)
	assert.True(t, r.Pass, r.Message)

	// Formatting and attribute order do not matter.
	r = EqualsHTML(h, `<toggle-button>
		<shadow-root>
			<button class="toggle" aria-pressed="false">toggle</button>
		</shadow-root>
	</toggle-button>`)
	assert.True(t, r.Pass, r.Message)
}

func TestEqualsHTMLMismatchCarriesDiff(t *testing.T) {
	h := renderToggle(t, false)

	r := EqualsHTML(h,
		`<toggle-button><shadow-root><button aria-pressed="true" class="toggle">toggle</button></shadow-root></toggle-button>`)
	require.False(t, r.Pass)
	assert.Contains(t, r.Message, "HTML mismatch")
	assert.Contains(t, r.Message, `aria-pressed="true"`)
	assert.Contains(t, r.Message, `aria-pressed="false"`)
}

func TestEqualsLightHTMLIgnoresShadow(t *testing.T) {
	h := renderToggle(t, false)
	r := EqualsLightHTML(h, `<toggle-button></toggle-button>`)
	assert.True(t, r.Pass, r.Message)
}

func TestEqualsText(t *testing.T) {
	el := element(t, `<p>  hello   world </p>`)
	assert.True(t, EqualsText(el, "hello world").Pass)
	r := EqualsText(el, "goodbye")
	require.False(t, r.Pass)
	assert.Contains(t, r.Message, `"hello world"`)

	assert.False(t, EqualsText("not a node", "x").Pass)
}

func TestHasClasses(t *testing.T) {
	el := element(t, `<div class="a b c"></div>`)
	assert.True(t, HasClasses(el, "a").Pass)
	assert.True(t, HasClasses(el, "c", "a").Pass)

	r := HasClasses(el, "a", "missing")
	require.False(t, r.Pass)
	assert.Contains(t, r.Message, "missing")
}

func TestMatchesClassesExactly(t *testing.T) {
	el := element(t, `<div class="b a"></div>`)
	assert.True(t, MatchesClassesExactly(el, "a", "b").Pass, "order-insensitive")
	assert.False(t, MatchesClassesExactly(el, "a").Pass, "extra class fails exact match")
	assert.False(t, MatchesClassesExactly(el, "a", "b", "c").Pass)
}

func TestEqualsAttribute(t *testing.T) {
	el := element(t, `<div data-x="1" data-empty=""></div>`)
	assert.True(t, EqualsAttribute(el, "data-x", "1").Pass)
	assert.True(t, EqualsAttribute(el, "data-empty", "").Pass)

	r := EqualsAttribute(el, "data-absent", "")
	require.False(t, r.Pass, "absence is not the empty string")
	assert.Contains(t, r.Message, "not set")
}

func TestEqualsAttributes(t *testing.T) {
	el := element(t, `<div data-x="1" data-y="2"></div>`)
	assert.True(t, EqualsAttributes(el, map[string]string{"data-x": "1", "data-y": "2"}).Pass)

	r := EqualsAttributes(el, map[string]string{"data-x": "1", "data-y": "wrong"})
	require.False(t, r.Pass)
	assert.Contains(t, r.Message, "data-y")
	assert.NotContains(t, r.Message, "data-x")
}

func TestSnapshotToggleButton(t *testing.T) {
	h := renderToggle(t, false)
	Snapshot(t, "toggle-button-initial", h)
}

func TestSnapshotShadowBearingPlainElement(t *testing.T) {
	el := element(t, `<div></div>`)
	sr, err := el.AttachShadow()
	require.NoError(t, err)
	require.NoError(t, sr.SetInnerHTML(`<p>s</p>`))

	Snapshot(t, "shadow-div", el)
}
