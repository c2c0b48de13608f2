// Package scenario runs declarative component test scenarios.
//
// A scenario names a backend, a component to render, a sequence of steps
// (property patches and dispatched events), and assertions over the final
// rendered tree, the captured events, and the harness operation trace.
// Scenarios load from YAML or CUE and run against any registered backend,
// which makes them the cross-backend conformance suite: the same file must
// pass on every backend whose capabilities it exercises.
package scenario

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one declarative component test.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files key off it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Backend is the backend ID to provision ("mockdom", "ghostdom",
	// "harbordom", "chrome"). Defaults to mockdom.
	Backend string `yaml:"backend,omitempty"`

	// Render describes the component instance under test.
	Render RenderStep `yaml:"render"`

	// Spies lists event types to capture before any step runs.
	Spies []string `yaml:"spies,omitempty"`

	// Steps run in order after the initial render settles.
	Steps []Step `yaml:"steps,omitempty"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// RenderStep describes the initial render. Exactly one of Tag or HTML must
// be set; Props and Attrs only apply with Tag.
type RenderStep struct {
	// Tag is the custom-element tag to create.
	Tag string `yaml:"tag,omitempty"`

	// HTML renders a whole markup fragment instead of a single tag.
	HTML string `yaml:"html,omitempty"`

	// Props are JS-level properties assigned before attachment.
	Props map[string]any `yaml:"props,omitempty"`

	// Attrs are string attributes set before attachment.
	Attrs map[string]string `yaml:"attrs,omitempty"`
}

// Step is one action after the initial render. Exactly one field is set.
type Step struct {
	// SetProps patches properties on the root and settles.
	SetProps map[string]any `yaml:"set_props,omitempty"`

	// Dispatch fires a synthetic event on the root and settles.
	Dispatch *DispatchStep `yaml:"dispatch,omitempty"`

	// Wait forces an extra settle pass with no mutation.
	Wait bool `yaml:"wait,omitempty"`
}

// DispatchStep describes a synthetic event.
type DispatchStep struct {
	Event  string         `yaml:"event"`
	Detail map[string]any `yaml:"detail,omitempty"`
}

// Assertion validates final tree, events, or trace.
type Assertion struct {
	// Type selects the check; see the Assert* constants.
	Type string `yaml:"type"`

	// HTML is the expected markup (html_equals, light_html_equals).
	HTML string `yaml:"html,omitempty"`

	// Text is the expected collapsed text content (text_equals).
	Text string `yaml:"text,omitempty"`

	// Attribute and Value name one expected attribute (attribute_equals).
	Attribute string `yaml:"attribute,omitempty"`
	Value     string `yaml:"value,omitempty"`

	// Classes is the expected class list (has_classes, classes_exactly).
	Classes []string `yaml:"classes,omitempty"`

	// Event names the spied event (event_count, last_event_detail).
	Event string `yaml:"event,omitempty"`

	// Count is the expected capture count (event_count).
	Count int `yaml:"count,omitempty"`

	// Detail is a subset match on the last capture (last_event_detail).
	Detail map[string]any `yaml:"detail,omitempty"`

	// Ops is the expected harness operation order (trace_order). Ops not
	// listed may interleave; listed ops must appear in this order.
	Ops []string `yaml:"ops,omitempty"`
}

// Assertion type constants.
const (
	AssertHTMLEquals      = "html_equals"
	AssertLightHTMLEquals = "light_html_equals"
	AssertTextEquals      = "text_equals"
	AssertAttributeEquals = "attribute_equals"
	AssertHasClasses      = "has_classes"
	AssertClassesExactly  = "classes_exactly"
	AssertEventCount      = "event_count"
	AssertLastEventDetail = "last_event_detail"
	AssertTraceOrder      = "trace_order"
)

// Load reads and parses a scenario YAML file. Unknown fields are rejected
// so typos fail loudly instead of silently skipping an assertion.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data)
}

// Parse parses scenario YAML from memory.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}
	if err := validate(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

func validate(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if (s.Render.Tag == "") == (s.Render.HTML == "") {
		return fmt.Errorf("render: exactly one of tag or html is required")
	}
	if s.Render.HTML != "" && (len(s.Render.Props) > 0 || len(s.Render.Attrs) > 0) {
		return fmt.Errorf("render: props/attrs only apply with tag")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		n := 0
		if step.SetProps != nil {
			n++
		}
		if step.Dispatch != nil {
			n++
			if step.Dispatch.Event == "" {
				return fmt.Errorf("steps[%d].dispatch: event is required", i)
			}
		}
		if step.Wait {
			n++
		}
		if n != 1 {
			return fmt.Errorf("steps[%d]: exactly one of set_props, dispatch, wait is required", i)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertHTMLEquals, AssertLightHTMLEquals:
		if a.HTML == "" {
			return fmt.Errorf("assertions[%d]: html is required for %s", index, a.Type)
		}
	case AssertTextEquals:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for text_equals", index)
		}
	case AssertAttributeEquals:
		if a.Attribute == "" {
			return fmt.Errorf("assertions[%d]: attribute is required for attribute_equals", index)
		}
	case AssertHasClasses, AssertClassesExactly:
		if len(a.Classes) == 0 {
			return fmt.Errorf("assertions[%d]: classes list is required for %s", index, a.Type)
		}
	case AssertEventCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for event_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertLastEventDetail:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for last_event_detail", index)
		}
		if len(a.Detail) == 0 {
			return fmt.Errorf("assertions[%d]: detail is required for last_event_detail", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
