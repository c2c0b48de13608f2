package comptest

import (
	"fmt"

	"github.com/riglabs/shadowrig/dom"
)

// ToggleButton is a button with a boolean "pressed" property. Every change
// to it dispatches a "toggled" event whose detail carries the new value.
func ToggleButton() Definition {
	return Definition{
		Tag: "toggle-button",
		Render: func(host dom.Element) string {
			pressed := truthy(prop(host, "pressed"))
			cls := "toggle"
			if pressed {
				cls = "toggle pressed"
			}
			return fmt.Sprintf(
				`<style>:host { display: inline-block; }</style><button class=%q aria-pressed="%t">toggle</button>`,
				cls, pressed)
		},
		OnPropChanged: func(host dom.Element, name string, value any) {
			if name != "pressed" {
				return
			}
			host.DispatchEvent(dom.Event{
				Type:   "toggled",
				Detail: map[string]any{"pressed": truthy(value)},
			})
		},
	}
}

// Counter renders its numeric "n" property into a span.
func Counter() Definition {
	return Definition{
		Tag: "x-counter",
		Render: func(host dom.Element) string {
			return fmt.Sprintf(`<span class="count">%v</span>`, prop(host, "n"))
		},
	}
}

// Nested is a pair of components where the parent's shadow template contains
// the child, so the child only upgrades during the parent's render.
func Nested() []Definition {
	parent := Definition{
		Tag: "x-parent",
		Render: func(host dom.Element) string {
			return `<div class="frame"><x-child></x-child></div>`
		},
	}
	child := Definition{
		Tag: "x-child",
		Render: func(host dom.Element) string {
			return `<p>leaf</p>`
		},
	}
	return []Definition{parent, child}
}

// Slotted projects light children through a named and a default slot.
func Slotted() Definition {
	return Definition{
		Tag: "x-card",
		Render: func(host dom.Element) string {
			return `<header><slot name="title"></slot></header><section><slot></slot></section>`
		},
	}
}

// DefaultRuntime bundles every fixture.
func DefaultRuntime() *Runtime {
	rt := NewRuntime(ToggleButton(), Counter(), Slotted())
	for _, d := range Nested() {
		rt.Define(d)
	}
	return rt
}

func prop(host dom.Element, name string) any {
	v, _ := host.Property(name)
	return v
}

func truthy(v any) bool {
	b, _ := v.(bool)
	return b
}
