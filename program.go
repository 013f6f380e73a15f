package framegraph

import (
	"fmt"
	"io"
	"strings"
)

// Program is a compiled frame: a flat sequence of compiled ops replayed
// once per frame against per-queue command buffers. Replay performs no
// dependency analysis. A program is valid until its script is rebuilt.
type Program struct {
	name       string
	ops        []*Compiled
	handoffs   []*Handoff
	events     [][]Event
	alloc      EventAllocator
	arena      *Arena
	generation uint64
	stats      Stats
}

// Name returns the name of the script the program was compiled from.
func (p *Program) Name() string { return p.name }

// Ops returns the top-level compiled ops in replay order.
func (p *Program) Ops() []*Compiled { return p.ops }

// Handoffs returns every cross-queue handoff indexed by slot.
func (p *Program) Handoffs() []*Handoff { return p.handoffs }

// BufferedFrames returns the number of buffered frames events exist for.
func (p *Program) BufferedFrames() int { return len(p.events) }

// Event returns the device event of slot for a buffered frame.
func (p *Program) Event(bufferIndex int, slot EventSlot) Event {
	return p.events[bufferIndex][slot]
}

// Stats returns the build statistics.
func (p *Program) Stats() Stats { return p.stats }

// Valid reports whether the arena backing the program is still live.
func (p *Program) Valid() bool {
	return p.arena != nil && p.arena.Generation() == p.generation
}

// Find returns the first compiled op named name, searching depth-first.
func (p *Program) Find(name string) *Compiled {
	var found *Compiled
	for _, op := range p.ops {
		op.Walk(func(c *Compiled, _ int) {
			if found == nil && c.Name == name {
				found = c
			}
		})
		if found != nil {
			break
		}
	}
	return found
}

// observer is notified around every compiled op during replay.
type observer interface {
	enterOp(c *Compiled)
	leaveOp(c *Compiled)
}

type executor struct {
	queues      Queues
	events      []Event
	frameIndex  int
	bufferIndex int
	obs         observer
}

// Run replays the program. bufferIndex selects the buffered copy of
// per-frame resources and events and must be below BufferedFrames.
func (p *Program) Run(q Queues, frameIndex, bufferIndex int) {
	if !p.Valid() {
		panic(fmt.Errorf("%w: %q", ErrStaleProgram, p.name))
	}
	if bufferIndex < 0 || bufferIndex >= len(p.events) {
		panic(fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidBufferIndex, bufferIndex, len(p.events)))
	}
	x := &executor{
		queues:      q,
		events:      p.events[bufferIndex],
		frameIndex:  frameIndex,
		bufferIndex: bufferIndex,
	}
	if o, ok := q.(observer); ok {
		x.obs = o
	}
	for _, c := range p.ops {
		x.run(c)
	}
}

func (x *executor) run(c *Compiled) {
	cmd := x.queues.Queue(c.Queue)
	if x.obs != nil {
		x.obs.enterOp(c)
		defer x.obs.leaveOp(c)
	}
	cmd.BeginMarker(c.Name)
	for _, h := range c.Waits {
		cmd.WaitEvent(x.events[h.Slot], h)
	}
	for _, b := range c.Barriers {
		cmd.Barrier(b)
	}
	if c.Kind == KindPass {
		cmd.BeginPass(c.Pass)
		for i, sp := range c.Children {
			if i > 0 {
				cmd.NextSubpass()
			}
			x.run(sp)
		}
		cmd.EndPass()
	} else {
		if c.run != nil {
			c.run(cmd, x.frameIndex, x.bufferIndex)
		}
		for _, child := range c.Children {
			x.run(child)
		}
	}
	for _, h := range c.Signals {
		cmd.SignalEvent(x.events[h.Slot], h)
	}
	cmd.EndMarker()
}

// allocateEvents creates the device events of every slot for every
// buffered frame.
func (p *Program) allocateEvents(alloc EventAllocator, buffered int) {
	p.alloc = alloc
	p.events = make([][]Event, buffered)
	for b := range p.events {
		p.events[b] = make([]Event, len(p.handoffs))
		for _, h := range p.handoffs {
			label := fmt.Sprintf("%s event %d %s->%s", p.name, h.Slot, h.From, h.To)
			p.events[b][h.Slot] = alloc.CreateEvent(label, b)
		}
	}
}

// release destroys the program's device events.
func (p *Program) release() {
	if p.alloc == nil {
		return
	}
	for _, frame := range p.events {
		for _, ev := range frame {
			p.alloc.DestroyEvent(ev)
		}
	}
	p.events = nil
	p.alloc = nil
}

// Description is a flattened, comparable view of one compiled op.
type Description struct {
	Path     string
	Kind     Kind
	Queue    Queue
	Depth    int
	Barriers []Barrier
	Waits    []EventSlot
	Signals  []EventSlot
}

// Describe flattens the program depth-first. Two compiles of the same
// graph with the same enable flags describe identically.
func (p *Program) Describe() []Description {
	var out []Description
	var path []string
	for _, op := range p.ops {
		op.Walk(func(c *Compiled, depth int) {
			path = append(path[:depth], c.Name)
			d := Description{
				Path:  strings.Join(path, "/"),
				Kind:  c.Kind,
				Queue: c.Queue,
				Depth: depth,
			}
			for _, b := range c.Barriers {
				d.Barriers = append(d.Barriers, *b)
			}
			for _, h := range c.Waits {
				d.Waits = append(d.Waits, h.Slot)
			}
			for _, h := range c.Signals {
				d.Signals = append(d.Signals, h.Slot)
			}
			out = append(out, d)
		})
	}
	return out
}

// Dump writes a human-readable listing of the program to w.
func (p *Program) Dump(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "program %q: %d ops, %d barriers (%d hoisted), %d events\n",
		p.name, p.stats.Ops, p.stats.Barriers, p.stats.Hoisted, p.stats.Events); err != nil {
		return err
	}
	for _, op := range p.ops {
		var err error
		op.Walk(func(c *Compiled, depth int) {
			if err != nil {
				return
			}
			indent := strings.Repeat("  ", depth)
			if _, err = fmt.Fprintf(w, "%s%s %q on %s\n", indent, c.Kind, c.Name, c.Queue); err != nil {
				return
			}
			for _, h := range c.Waits {
				if _, err = fmt.Fprintf(w, "%s  wait %s\n", indent, h); err != nil {
					return
				}
			}
			for _, b := range c.Barriers {
				if _, err = fmt.Fprintf(w, "%s  %s\n", indent, b); err != nil {
					return
				}
			}
			for _, h := range c.Signals {
				if _, err = fmt.Fprintf(w, "%s  signal %s\n", indent, h); err != nil {
					return
				}
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}
