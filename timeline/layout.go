package timeline

import (
	"slices"
	"strings"

	"github.com/gogpu/framegraph"
)

// Entry is one box of the diagram.
type Entry struct {
	Name   string
	Path   string
	Kind   framegraph.Kind
	Queue  framegraph.Queue
	Column int
	Depth  int

	// Barriers counts the barrier entries recorded on the op, including
	// those of folded children.
	Barriers int
	Waits    []framegraph.EventSlot
	Signals  []framegraph.EventSlot
}

// Link is a handoff from the entry that signals it to the entry that
// waits on it. From and To index Layout.Entries.
type Link struct {
	Slot     framegraph.EventSlot
	From, To int
}

// Layout places the ops of a program into columns.
type Layout struct {
	Entries []Entry
	Links   []Link
	Columns int
}

// NewLayout lays out p. Unless flatten is set, only top-level ops get a
// column and the synchronization of their children is folded into them.
func NewLayout(p *framegraph.Program, flatten bool) *Layout {
	l := &Layout{}
	for _, top := range p.Ops() {
		if !flatten {
			e := Entry{Name: top.Name, Path: top.Name, Kind: top.Kind, Queue: top.Queue, Column: len(l.Entries)}
			top.Walk(func(c *framegraph.Compiled, _ int) { fold(&e, c) })
			l.Entries = append(l.Entries, e)
			continue
		}
		var path []string
		top.Walk(func(c *framegraph.Compiled, depth int) {
			path = append(path[:depth], c.Name)
			e := Entry{Name: c.Name, Kind: c.Kind, Queue: c.Queue, Column: len(l.Entries), Depth: depth}
			e.Path = strings.Join(path, "/")
			fold(&e, c)
			l.Entries = append(l.Entries, e)
		})
	}
	l.Columns = len(l.Entries)
	l.link(p)
	return l
}

func fold(e *Entry, c *framegraph.Compiled) {
	e.Barriers += c.BarrierCount()
	for _, h := range c.Waits {
		e.Waits = append(e.Waits, h.Slot)
	}
	for _, h := range c.Signals {
		e.Signals = append(e.Signals, h.Slot)
	}
}

func (l *Layout) link(p *framegraph.Program) {
	signaler := make(map[framegraph.EventSlot]int)
	waiters := make(map[framegraph.EventSlot][]int)
	for i, e := range l.Entries {
		for _, s := range e.Signals {
			if _, ok := signaler[s]; !ok {
				signaler[s] = i
			}
		}
		for _, s := range e.Waits {
			if !slices.Contains(waiters[s], i) {
				waiters[s] = append(waiters[s], i)
			}
		}
	}
	for _, h := range p.Handoffs() {
		from, ok := signaler[h.Slot]
		if !ok {
			continue
		}
		for _, to := range waiters[h.Slot] {
			l.Links = append(l.Links, Link{Slot: h.Slot, From: from, To: to})
		}
	}
}
