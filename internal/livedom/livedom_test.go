package livedom

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riglabs/shadowrig/dom"
)

// recordingController logs lifecycle callbacks for assertions.
type recordingController struct {
	mu  sync.Mutex
	log []string
}

func (c *recordingController) Connected() { c.append("connected") }

func (c *recordingController) Disconnected() { c.append("disconnected") }

func (c *recordingController) PropertyChanged(name string, value any) {
	c.append("prop:" + name)
}

func (c *recordingController) append(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = append(c.log, s)
}

func (c *recordingController) Log() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.log...)
}

// upgradeAll attaches a recording controller to every hyphenated tag.
type upgradeAll struct {
	mu    sync.Mutex
	ctrls map[dom.Element]*recordingController
}

func newUpgradeAll() *upgradeAll {
	return &upgradeAll{ctrls: make(map[dom.Element]*recordingController)}
}

func (u *upgradeAll) Upgrade(el dom.Element) bool {
	host, ok := el.(dom.ControllerHost)
	if !ok {
		return false
	}
	c := &recordingController{}
	host.SetController(c)
	u.mu.Lock()
	u.ctrls[el] = c
	u.mu.Unlock()
	return true
}

func (u *upgradeAll) controller(el dom.Element) *recordingController {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.ctrls[el]
}

func TestCreateElementNormalizesCase(t *testing.T) {
	w := NewWindow(Config{})
	el, err := w.Document().CreateElement("Toggle-Button")
	require.NoError(t, err)
	assert.Equal(t, "toggle-button", el.LocalName())
	assert.Equal(t, "TOGGLE-BUTTON", el.TagName())

	_, err = w.Document().CreateElement("  ")
	require.Error(t, err)
}

func TestAttributesCaseInsensitive(t *testing.T) {
	w := NewWindow(Config{})
	el, err := w.Document().CreateElement("div")
	require.NoError(t, err)

	el.SetAttribute("Data-X", "1")
	v, ok := el.Attribute("data-x")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	el.SetAttribute("data-x", "2")
	v, _ = el.Attribute("DATA-X")
	assert.Equal(t, "2", v)
	assert.Len(t, el.Attributes(), 1)

	el.RemoveAttribute("data-x")
	_, ok = el.Attribute("data-x")
	assert.False(t, ok)
}

func TestPropertiesAreDistinctFromAttributes(t *testing.T) {
	w := NewWindow(Config{})
	el, err := w.Document().CreateElement("div")
	require.NoError(t, err)

	require.NoError(t, el.SetProperty("value", 42))
	v, ok := el.Property("value")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	_, ok = el.Attribute("value")
	assert.False(t, ok, "properties must not appear as attributes")
}

func TestConnectedFiresOnBodyAttachment(t *testing.T) {
	rt := newUpgradeAll()
	w := NewWindow(Config{Runtime: rt})

	el, err := w.Document().CreateElement("x-widget")
	require.NoError(t, err)
	ctrl := rt.controller(el)
	require.NotNil(t, ctrl)
	assert.Empty(t, ctrl.Log(), "no callbacks before attachment")

	require.NoError(t, w.Document().Body().AppendChild(el))
	assert.Equal(t, []string{"connected"}, ctrl.Log())

	require.NoError(t, w.Document().Body().RemoveChild(el))
	assert.Equal(t, []string{"connected", "disconnected"}, ctrl.Log())
}

func TestConnectedNotFiredWhileDetached(t *testing.T) {
	rt := newUpgradeAll()
	w := NewWindow(Config{Runtime: rt})

	parent, err := w.Document().CreateElement("div")
	require.NoError(t, err)
	child, err := w.Document().CreateElement("x-widget")
	require.NoError(t, err)
	require.NoError(t, parent.AppendChild(child))

	ctrl := rt.controller(child)
	assert.Empty(t, ctrl.Log(), "attaching to a detached parent connects nothing")

	require.NoError(t, w.Document().Body().AppendChild(parent))
	assert.Equal(t, []string{"connected"}, ctrl.Log())
}

func TestPropertyChangedReachesController(t *testing.T) {
	rt := newUpgradeAll()
	w := NewWindow(Config{Runtime: rt})

	el, err := w.Document().CreateElement("x-widget")
	require.NoError(t, err)
	require.NoError(t, el.SetProperty("pressed", true))

	ctrl := rt.controller(el)
	assert.Equal(t, []string{"prop:pressed"}, ctrl.Log())
}

func TestSetInnerHTMLUpgradesInlineComponents(t *testing.T) {
	rt := newUpgradeAll()
	w := NewWindow(Config{Runtime: rt})

	body := w.Document().Body()
	require.NoError(t, body.SetInnerHTML(`<div><x-widget id="a"></x-widget></div>`))

	children := body.Children()
	require.Len(t, children, 1)
	div, ok := children[0].(dom.Element)
	require.True(t, ok)
	inner := div.Children()
	require.Len(t, inner, 1)
	widget, ok := inner[0].(dom.Element)
	require.True(t, ok)
	assert.Equal(t, "x-widget", widget.LocalName())

	ctrl := rt.controller(widget)
	require.NotNil(t, ctrl, "inline component should be upgraded during parse")
	assert.Equal(t, []string{"connected"}, ctrl.Log())
}

func TestSetInnerHTMLReplacesAndDisconnects(t *testing.T) {
	rt := newUpgradeAll()
	w := NewWindow(Config{Runtime: rt})
	body := w.Document().Body()

	require.NoError(t, body.SetInnerHTML(`<x-widget></x-widget>`))
	first := body.Children()[0].(dom.Element)
	ctrl := rt.controller(first)

	require.NoError(t, body.SetInnerHTML(`<p>replaced</p>`))
	assert.Equal(t, []string{"connected", "disconnected"}, ctrl.Log())
	require.Len(t, body.Children(), 1)
	assert.Equal(t, "p", body.Children()[0].(dom.Element).LocalName())
}

func TestShadowContentConnectsWithHost(t *testing.T) {
	rt := newUpgradeAll()
	w := NewWindow(Config{Runtime: rt})

	host, err := w.Document().CreateElement("x-host")
	require.NoError(t, err)
	sr, err := host.AttachShadow()
	require.NoError(t, err)
	require.NoError(t, sr.SetInnerHTML(`<x-inner></x-inner>`))

	inner := sr.Children()[0].(dom.Element)
	innerCtrl := rt.controller(inner)
	assert.Empty(t, innerCtrl.Log(), "shadow content of a detached host stays disconnected")

	require.NoError(t, w.Document().Body().AppendChild(host))
	hostCtrl := rt.controller(host)
	assert.Equal(t, []string{"connected"}, hostCtrl.Log())
	assert.Equal(t, []string{"connected"}, innerCtrl.Log())
}

func TestAttachShadowIdempotent(t *testing.T) {
	w := NewWindow(Config{})
	el, err := w.Document().CreateElement("x-host")
	require.NoError(t, err)

	a, err := el.AttachShadow()
	require.NoError(t, err)
	b, err := el.AttachShadow()
	require.NoError(t, err)
	assert.Same(t, a.(*ShadowRoot), b.(*ShadowRoot))
}

func TestTextContentExcludesShadow(t *testing.T) {
	w := NewWindow(Config{})
	el, err := w.Document().CreateElement("x-host")
	require.NoError(t, err)
	require.NoError(t, el.SetInnerHTML("light"))
	sr, err := el.AttachShadow()
	require.NoError(t, err)
	require.NoError(t, sr.SetInnerHTML("<p>shadow</p>"))

	assert.Equal(t, "light", el.TextContent())
}

func TestDispatchEventStampsAndOrders(t *testing.T) {
	w := NewWindow(Config{})
	el, err := w.Document().CreateElement("button")
	require.NoError(t, err)

	var seqs []int64
	var order []string
	el.AddEventListener("click", func(ev dom.Event) {
		seqs = append(seqs, ev.Seq)
		order = append(order, "first")
	})
	el.AddEventListener("click", func(ev dom.Event) {
		order = append(order, "second")
	})

	el.DispatchEvent(dom.Event{Type: "click"})
	el.DispatchEvent(dom.Event{Type: "click"})

	assert.Equal(t, []string{"first", "second", "first", "second"}, order)
	require.Len(t, seqs, 2)
	assert.Greater(t, seqs[1], seqs[0], "logical clock stamps must increase")
}

func TestListenerHandleRemove(t *testing.T) {
	w := NewWindow(Config{})
	el, err := w.Document().CreateElement("button")
	require.NoError(t, err)

	calls := 0
	h := el.AddEventListener("click", func(dom.Event) { calls++ })
	el.DispatchEvent(dom.Event{Type: "click"})
	h.Remove()
	el.DispatchEvent(dom.Event{Type: "click"})

	assert.Equal(t, 1, calls)
}

func TestOnReadyGatedByConfig(t *testing.T) {
	rt := newUpgradeAll()

	// Ready signals disabled: always nil, upgraded or not.
	w := NewWindow(Config{Runtime: rt, ReadySignals: false})
	el, err := w.Document().CreateElement("x-widget")
	require.NoError(t, err)
	assert.Nil(t, el.(dom.ReadySignaler).OnReady())

	// Ready signals enabled but controller exposes none: still nil.
	w2 := NewWindow(Config{Runtime: rt, ReadySignals: true})
	el2, err := w2.Document().CreateElement("x-widget")
	require.NoError(t, err)
	assert.Nil(t, el2.(dom.ReadySignaler).OnReady())
}

func TestRequestFrameWithoutScheduler(t *testing.T) {
	w := NewWindow(Config{NativeRAF: false})
	_, err := w.RequestFrame(func() {})
	require.ErrorIs(t, err, dom.ErrNoFrameScheduler)

	assert.False(t, w.HasFrameScheduler())
}

func TestParseFragmentDropsDoctype(t *testing.T) {
	w := NewWindow(Config{})
	nodes, err := w.Document().ParseFragment(`text<span>a</span><!-- note -->`)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, dom.TextNode, nodes[0].NodeType())
	assert.Equal(t, dom.ElementNode, nodes[1].NodeType())
	assert.Equal(t, dom.CommentNode, nodes[2].NodeType())
}

func TestAdoptedSheetsLazyInit(t *testing.T) {
	w := NewWindow(Config{})
	d := w.doc

	host, err := d.CreateElement("x-host")
	require.NoError(t, err)
	srAny, err := host.AttachShadow()
	require.NoError(t, err)
	sr := srAny.(*ShadowRoot)

	assert.False(t, d.HasAdoptedSheets())
	assert.Empty(t, sr.AdoptedSheets())

	d.InitAdoptedSheets()
	assert.True(t, d.HasAdoptedSheets())
	d.InitAdoptedSheets() // idempotent
	assert.Empty(t, d.AdoptedSheets())

	sr.SetAdoptedSheets([]string{":host { color: red }"})
	assert.Equal(t, []string{":host { color: red }"}, sr.AdoptedSheets())
}
