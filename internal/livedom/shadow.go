package livedom

import (
	"fmt"

	"github.com/riglabs/shadowrig/dom"
)

// ShadowRoot is an open shadow root. Its children are connected exactly
// when the host is, and its adopted-style-sheets stand-in is lazily
// initialized per instance by the provisioner's polyfill.
type ShadowRoot struct {
	host       *Element
	children   []dom.Node
	adopted    []string
	hasAdopted bool
}

func (s *ShadowRoot) Host() dom.Element { return s.host }

func (s *ShadowRoot) Children() []dom.Node {
	s.host.doc.mu.Lock()
	defer s.host.doc.mu.Unlock()
	return append([]dom.Node(nil), s.children...)
}

func (s *ShadowRoot) AppendChild(child dom.Node) error {
	d := s.host.doc
	d.mu.Lock()
	cn, err := asChild(child)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	detachLocked(cn)
	s.children = append(s.children, cn)
	if el, ok := cn.(*Element); ok {
		el.ownerShadow = s
		el.parent = nil
	}
	var connects []dom.Controller
	if s.host.connected {
		connects = markConnectedLocked(cn)
	}
	d.mu.Unlock()

	fireConnected(connects)
	return nil
}

// SetInnerHTML replaces the shadow content wholesale with the parsed
// fragment, the usual way a component runtime renders its template.
func (s *ShadowRoot) SetInnerHTML(markup string) error {
	d := s.host.doc
	nodes, err := d.ParseFragment(markup)
	if err != nil {
		return err
	}

	d.mu.Lock()
	var disconnects []dom.Controller
	for _, c := range s.children {
		if el, ok := c.(*Element); ok {
			el.ownerShadow = nil
			if el.connected {
				disconnects = append(disconnects, markDisconnectedLocked(el)...)
			}
		}
	}
	s.children = nil
	var connects []dom.Controller
	for _, n := range nodes {
		cn, err := asChild(n)
		if err != nil {
			d.mu.Unlock()
			return err
		}
		s.children = append(s.children, cn)
		if el, ok := cn.(*Element); ok {
			el.ownerShadow = s
			el.parent = nil
		}
		if s.host.connected {
			connects = append(connects, markConnectedLocked(cn)...)
		}
	}
	d.mu.Unlock()

	fireDisconnected(disconnects)
	fireConnected(connects)
	return nil
}

func (s *ShadowRoot) removeChild(child dom.Node) error {
	d := s.host.doc
	d.mu.Lock()
	idx := -1
	for i, c := range s.children {
		if c == child {
			idx = i
			break
		}
	}
	if idx < 0 {
		d.mu.Unlock()
		return fmt.Errorf("livedom: remove child: not in shadow root of <%s>", s.host.local)
	}
	s.children = append(s.children[:idx:idx], s.children[idx+1:]...)
	var disconnects []dom.Controller
	if el, ok := child.(*Element); ok {
		el.ownerShadow = nil
		if el.connected {
			disconnects = markDisconnectedLocked(el)
		}
	}
	d.mu.Unlock()

	fireDisconnected(disconnects)
	return nil
}

// AdoptedSheets returns the per-instance stand-in, lazily initialized when
// the document-level polyfill has been applied.
func (s *ShadowRoot) AdoptedSheets() []string {
	d := s.host.doc
	d.mu.Lock()
	defer d.mu.Unlock()
	if !s.hasAdopted && d.hasAdopted {
		s.adopted = []string{}
		s.hasAdopted = true
	}
	return append([]string(nil), s.adopted...)
}

func (s *ShadowRoot) SetAdoptedSheets(sheets []string) {
	d := s.host.doc
	d.mu.Lock()
	defer d.mu.Unlock()
	s.adopted = append([]string(nil), sheets...)
	s.hasAdopted = true
}
