package scenario

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riglabs/shadowrig/dom"
	"github.com/riglabs/shadowrig/env"
	"github.com/riglabs/shadowrig/harness"
	"github.com/riglabs/shadowrig/internal/comptest"
	"github.com/riglabs/shadowrig/match"
	"github.com/riglabs/shadowrig/serialize"
	"github.com/riglabs/shadowrig/trace"
	"github.com/riglabs/shadowrig/vnode"
)

// Result is the outcome of one scenario run.
type Result struct {
	Scenario string
	Backend  dom.BackendID

	// HTML is the final shadow-inclusive pretty markup of the root.
	HTML string

	// Events holds the captures of every spied event, in capture order.
	Events map[string][]dom.Event

	// Trace is the harness operation log for the run.
	Trace []trace.Record

	// Errors lists failed assertions. Empty means the scenario passed.
	Errors []string
}

// Passed reports whether every assertion held.
func (r *Result) Passed() bool { return len(r.Errors) == 0 }

type runOptions struct {
	runtime    dom.ComponentRuntime
	recorder   trace.Recorder
	logger     *slog.Logger
	controlURL string
}

// RunOption configures a scenario run.
type RunOption func(*runOptions)

// WithRuntime substitutes the component runtime. Defaults to the built-in
// fixture runtime.
func WithRuntime(rt dom.ComponentRuntime) RunOption {
	return func(o *runOptions) { o.runtime = rt }
}

// WithRecorder forwards trace records to an external recorder in addition
// to the in-memory one the run itself reads.
func WithRecorder(r trace.Recorder) RunOption {
	return func(o *runOptions) { o.recorder = r }
}

// WithLogger sets the run logger.
func WithLogger(l *slog.Logger) RunOption {
	return func(o *runOptions) { o.logger = l }
}

// WithChromeControlURL points chrome-backed runs at a running browser.
func WithChromeControlURL(u string) RunOption {
	return func(o *runOptions) { o.controlURL = u }
}

// Run executes a scenario in a fresh environment and returns the result.
// The environment is always torn down, pass or fail. Assertion failures
// land in Result.Errors; only infrastructure problems return an error.
func Run(ctx context.Context, sc *Scenario, opts ...RunOption) (*Result, error) {
	var o runOptions
	for _, fn := range opts {
		fn(&o)
	}
	if o.runtime == nil {
		o.runtime = comptest.DefaultRuntime()
	}

	id := dom.BackendID(sc.Backend)
	if sc.Backend == "" {
		id = dom.MockDOM
	}

	mem := trace.NewMemoryRecorder()
	var rec trace.Recorder = mem
	if o.recorder != nil {
		rec = multiRecorder{mem, o.recorder}
	}

	envOpts := []env.Option{
		env.WithRuntime(o.runtime),
		env.WithRecorder(rec),
	}
	if o.logger != nil {
		envOpts = append(envOpts, env.WithLogger(o.logger))
	}
	if o.controlURL != "" {
		envOpts = append(envOpts, env.WithChromeControlURL(o.controlURL))
	}

	e, err := env.Provision(ctx, id, envOpts...)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	defer e.Teardown()

	h, err := renderInitial(ctx, e, sc)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: render: %w", sc.Name, err)
	}

	spies := make(map[string]*harness.EventSpy, len(sc.Spies))
	for _, name := range sc.Spies {
		spies[name] = h.SpyOnEvent(name)
	}

	for i, step := range sc.Steps {
		if err := runStep(ctx, h, step); err != nil {
			return nil, fmt.Errorf("scenario %s: step %d: %w", sc.Name, i, err)
		}
	}

	result := &Result{
		Scenario: sc.Name,
		Backend:  id,
		Events:   make(map[string][]dom.Event, len(spies)),
	}
	for name, spy := range spies {
		result.Events[name] = spy.Events()
	}
	result.HTML, err = serialize.HTML(h.Root(),
		serialize.IncludeShadow(true),
		serialize.WithRepresentation(h.Representation()))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: serialize: %w", sc.Name, err)
	}

	for i, a := range sc.Assertions {
		if msg := evalAssertion(h, spies, mem, &a); msg != "" {
			result.Errors = append(result.Errors, fmt.Sprintf("assertions[%d] %s: %s", i, a.Type, msg))
		}
	}
	result.Trace = mem.Records()

	if err := h.Unmount(); err != nil {
		return nil, fmt.Errorf("scenario %s: unmount: %w", sc.Name, err)
	}
	return result, nil
}

func renderInitial(ctx context.Context, e *env.Environment, sc *Scenario) (*harness.Handle, error) {
	if sc.Render.HTML != "" {
		return harness.Render(ctx, e, nil, harness.WithHTML(sc.Render.HTML))
	}
	var opts []harness.RenderOption
	if len(sc.Render.Attrs) > 0 {
		opts = append(opts, harness.WithAttributes(sc.Render.Attrs))
	}
	return harness.Render(ctx, e, vnode.Desc{Tag: sc.Render.Tag, Props: sc.Render.Props}, opts...)
}

func runStep(ctx context.Context, h *harness.Handle, step Step) error {
	switch {
	case step.SetProps != nil:
		return h.SetProps(ctx, step.SetProps)
	case step.Dispatch != nil:
		h.Root().DispatchEvent(dom.Event{Type: step.Dispatch.Event, Detail: step.Dispatch.Detail})
		return h.WaitForChanges(ctx)
	case step.Wait:
		return h.WaitForChanges(ctx)
	}
	return nil
}

func evalAssertion(h *harness.Handle, spies map[string]*harness.EventSpy, mem *trace.MemoryRecorder, a *Assertion) string {
	switch a.Type {
	case AssertHTMLEquals:
		return message(match.EqualsHTML(h, a.HTML))
	case AssertLightHTMLEquals:
		return message(match.EqualsLightHTML(h, a.HTML))
	case AssertTextEquals:
		return message(match.EqualsText(h, a.Text))
	case AssertAttributeEquals:
		return message(match.EqualsAttribute(h.Root(), a.Attribute, a.Value))
	case AssertHasClasses:
		return message(match.HasClasses(h.Root(), a.Classes...))
	case AssertClassesExactly:
		return message(match.MatchesClassesExactly(h.Root(), a.Classes...))
	case AssertEventCount:
		spy, ok := spies[a.Event]
		if !ok {
			return fmt.Sprintf("event %q was never spied on", a.Event)
		}
		if got := spy.Length(); got != a.Count {
			return fmt.Sprintf("event %q captured %d times, expected %d", a.Event, got, a.Count)
		}
	case AssertLastEventDetail:
		spy, ok := spies[a.Event]
		if !ok {
			return fmt.Sprintf("event %q was never spied on", a.Event)
		}
		ev, ok := spy.LastEvent()
		if !ok {
			return fmt.Sprintf("event %q was never captured", a.Event)
		}
		detail, _ := ev.Detail.(map[string]any)
		for k, want := range a.Detail {
			got, present := detail[k]
			if !present {
				return fmt.Sprintf("event %q detail has no field %q", a.Event, k)
			}
			if fmt.Sprint(got) != fmt.Sprint(want) {
				return fmt.Sprintf("event %q detail.%s = %v, expected %v", a.Event, k, got, want)
			}
		}
	case AssertTraceOrder:
		return traceOrder(mem.Records(), a.Ops)
	}
	return ""
}

func message(r match.Result) string {
	if r.Pass {
		return ""
	}
	return r.Message
}

// traceOrder checks the listed ops appear as a subsequence of the trace.
func traceOrder(records []trace.Record, ops []string) string {
	next := 0
	for _, r := range records {
		if next < len(ops) && string(r.Op) == ops[next] {
			next++
		}
	}
	if next == len(ops) {
		return ""
	}
	return fmt.Sprintf("op %q not found in order (matched %d of %d)", ops[next], next, len(ops))
}

// multiRecorder forwards each record to every recorder. The first error
// wins but later recorders still see the record.
type multiRecorder []trace.Recorder

func (m multiRecorder) Record(r trace.Record) error {
	var first error
	for _, rec := range m {
		if err := rec.Record(r); err != nil && first == nil {
			first = err
		}
	}
	return first
}
