// Package chromedom is the real-engine backend, driving Chrome over CDP
// via Rod.
//
// Each window is one browser page. Live elements are held in a page-global
// registry (window.__rig) and addressed by numeric id from the Go side, so
// every dom.Element method is one Eval round trip. Custom events flow back
// through an exposed binding.
//
// Chrome's own serializer already inlines shadow trees (declarative
// template form via getHTML), so the capability row marks the
// representation native and the serialization engine only normalizes the
// marker.
package chromedom

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/riglabs/shadowrig/dom"
	"github.com/riglabs/shadowrig/sched"
)

// Config configures the backend.
type Config struct {
	// ControlURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local headless Chrome via launcher.
	ControlURL string

	Logger *slog.Logger
}

// Backend connects to one browser and constructs page-backed windows.
type Backend struct {
	mu      sync.Mutex
	cfg     Config
	browser *rod.Browser
	lnch    *launcher.Launcher
	logger  *slog.Logger
}

// New creates a chrome backend. The browser connection is established
// lazily on the first NewWindow call.
func New(cfg Config) *Backend {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Backend{cfg: cfg, logger: cfg.Logger}
}

func (b *Backend) ID() dom.BackendID { return dom.Chrome }

// connect establishes the browser connection once. Failure is fatal for
// the backend; there is no fallback to an emulator.
func (b *Backend) connect() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser != nil {
		return nil
	}

	wsURL := b.cfg.ControlURL
	if wsURL == "" {
		l := launcher.New().Headless(true)
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("chromedom: launch chrome: %w", err)
		}
		b.lnch = l
		wsURL = u
	}

	br := rod.New().ControlURL(wsURL)
	if err := br.Connect(); err != nil {
		return fmt.Errorf("chromedom: connect %s: %w", wsURL, err)
	}
	b.browser = br
	return nil
}

// Close disconnects from the browser and kills a locally launched Chrome.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.lnch != nil {
		b.lnch.Kill()
		b.lnch = nil
	}
	return err
}

// setupJS installs the element registry and listener table on the page.
const setupJS = `() => {
	window.__rig = {
		els: {},
		sh: {},
		listeners: {},
		nextId: 1,
		register(node) {
			const id = this.nextId++;
			this.els[id] = node;
			return id;
		},
	};
	return true;
}`

// NewWindow opens a fresh about:blank page.
func (b *Backend) NewWindow(ctx context.Context) (dom.Window, error) {
	if err := b.connect(); err != nil {
		return nil, err
	}
	page, err := b.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("chromedom: create page: %w", err)
	}
	if _, err := page.Context(ctx).Eval(setupJS); err != nil {
		page.Close()
		return nil, fmt.Errorf("chromedom: install registry: %w", err)
	}

	w := &Window{
		ctx:       ctx,
		page:      page,
		clock:     sched.NewClock(),
		logger:    b.logger,
		listeners: make(map[int64][]*remoteListener),
	}
	if err := w.installEventBinding(); err != nil {
		page.Close()
		return nil, err
	}
	w.doc = &Document{win: w}
	return w, nil
}

// Window is one browser page.
type Window struct {
	mu        sync.Mutex
	ctx       context.Context
	page      *rod.Page
	doc       *Document
	clock     *sched.Clock
	logger    *slog.Logger
	listeners map[int64][]*remoteListener // keyed by element id
	nextLid   int64
	closed    bool
}

type remoteListener struct {
	lid       int64
	eventType string
	fn        dom.Listener
	removed   bool
}

// installEventBinding exposes the Go-side event sink to page JS.
func (w *Window) installEventBinding() error {
	_, err := w.page.Expose("__rigEmit", func(j gson.JSON) (interface{}, error) {
		elID := int64(j.Get("el").Int())
		evType := j.Get("type").Str()
		detail := j.Get("detail").Val()

		ev := dom.Event{Type: evType, Detail: detail, Seq: w.clock.Next()}

		w.mu.Lock()
		regs := append([]*remoteListener(nil), w.listeners[elID]...)
		w.mu.Unlock()
		for _, r := range regs {
			if !r.removed && r.eventType == evType {
				r.fn(ev)
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("chromedom: expose event binding: %w", err)
	}
	return nil
}

func (w *Window) Document() dom.Document { return w.doc }

// Clock exposes the window's logical clock for event stamping.
func (w *Window) Clock() *sched.Clock { return w.clock }

// eval runs page JS with the window context.
func (w *Window) eval(js string, args ...any) (gson.JSON, error) {
	res, err := w.page.Context(w.ctx).Eval(js, args...)
	if err != nil {
		return gson.New(nil), err
	}
	return res.Value, nil
}

// RequestFrame rides the page's native requestAnimationFrame. The callback
// runs on a Go goroutine after the frame fires; cancellation is
// best-effort (the frame may already be in flight).
func (w *Window) RequestFrame(fn func()) (dom.FrameHandle, error) {
	h := &remoteFrame{}
	go func() {
		_, err := w.eval(`() => new Promise(r => requestAnimationFrame(() => r(true)))`)
		if err != nil || h.cancelled() {
			return
		}
		fn()
	}()
	return h, nil
}

// RequestIdle rides requestIdleCallback.
func (w *Window) RequestIdle(fn func()) (dom.FrameHandle, error) {
	h := &remoteFrame{}
	go func() {
		_, err := w.eval(`() => new Promise(r => requestIdleCallback(() => r(true)))`)
		if err != nil || h.cancelled() {
			return
		}
		fn()
	}()
	return h, nil
}

func (w *Window) SupportsCSS(feature string) bool {
	v, err := w.eval(`(f) => CSS.supports(f)`, feature)
	if err != nil {
		return false
	}
	return v.Bool()
}

func (w *Window) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()
	return w.page.Close()
}

type remoteFrame struct {
	mu   sync.Mutex
	dead bool
}

func (f *remoteFrame) Cancel() {
	f.mu.Lock()
	f.dead = true
	f.mu.Unlock()
}

func (f *remoteFrame) cancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dead
}
