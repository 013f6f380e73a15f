package framegraph

import (
	"fmt"

	"github.com/gogpu/framegraph/internal/subres"
)

// resourceKey identifies a tracked resource.
type resourceKey struct {
	texture bool
	id      uint64
}

func (k resourceKey) String() string {
	if k.texture {
		return fmt.Sprintf("texture %d", k.id)
	}
	return fmt.Sprintf("buffer %d", k.id)
}

// accessor is one prior access to a region: who did it, where, and where
// the release half of a handoff from it must be placed.
type accessor struct {
	queue  Queue
	stages StageMask
	op     *Compiled
	target *Compiled
}

// liveState is the access history of one region since its last write.
// A write state has a single writer. A read state has the readers since
// the last write, one per queue with their stages unioned, and keeps the
// writer (when one was seen) so that later readers on new queues or
// stages can be made to wait for it.
type liveState struct {
	write     bool
	hasWriter bool
	writer    accessor
	readers   []accessor
}

func (s liveState) clone() liveState {
	s.readers = append([]accessor(nil), s.readers...)
	return s
}

func (s *liveState) reader(q Queue) *accessor {
	for i := range s.readers {
		if s.readers[i].queue == q {
			return &s.readers[i]
		}
	}
	s.readers = append(s.readers, accessor{queue: q})
	return &s.readers[len(s.readers)-1]
}

// liveEntry is a region with uniform history. Entries of one resource
// never overlap.
type liveEntry struct {
	box   subres.Box
	state liveState
}

// use is one dependency being resolved.
type use struct {
	key    resourceKey
	label  string
	box    subres.Box
	stage  Stage
	access Access
	queue  Queue
	domain Domain
	self   *Compiled
	target *Compiled
}

type handoffKey struct {
	from, to *Compiled
}

// Stats summarizes a build.
type Stats struct {
	Ops         int // compiled ops
	Barriers    int // barrier entries, inline or hoisted
	Hoisted     int // barrier entries placed on an enclosing op
	Events      int // event slots
	Handoffs    int // resource entries carried by events
	Transitions int // first-touch layout transitions
	Unresolved  int // subgraph embeds with no registered ops
}

// compiler tracks live resource state for one build and synthesizes the
// synchronization each new access needs. It scans in registration order
// and never reorders.
type compiler struct {
	resources *Resources
	live      map[resourceKey][]liveEntry
	pairs     map[handoffKey]*Handoff
	handoffs  []*Handoff
	stats     Stats
}

func newCompiler(res *Resources) *compiler {
	return &compiler{
		resources: res,
		live:      make(map[resourceKey][]liveEntry),
		pairs:     make(map[handoffKey]*Handoff),
	}
}

// access resolves u against the live state of its resource. Regions of
// u not seen before are first touches. Overlapped regions are merged or
// synchronized, and the parts of old entries outside u keep their state.
func (c *compiler) access(u use) {
	entries := c.live[u.key]
	next := make([]liveEntry, 0, len(entries)+2)
	var covered []subres.Box
	for _, e := range entries {
		in, ok := subres.Intersect(e.box, u.box)
		if !ok {
			next = append(next, e)
			continue
		}
		for _, p := range subres.Subtract(e.box, u.box) {
			next = append(next, liveEntry{box: p, state: e.state.clone()})
		}
		covered = append(covered, in)
		next = append(next, liveEntry{box: in, state: c.merge(u, in, e.state)})
	}
	for _, p := range subres.SubtractAll(u.box, covered) {
		c.firstTouch(u, p)
		a := accessor{queue: u.queue, stages: u.stage.Mask(), op: u.self, target: u.target}
		st := liveState{readers: []accessor{a}}
		if u.access == AccessWrite {
			st = liveState{write: true, hasWriter: true, writer: a}
		}
		next = append(next, liveEntry{box: p, state: st})
	}
	c.live[u.key] = next
}

// merge returns the state of region after u, synchronizing u against the
// prior accessors it conflicts with.
func (c *compiler) merge(u use, region subres.Box, s liveState) liveState {
	if u.access == AccessRead && !s.write {
		out := s.clone()
		r := out.reader(u.queue)
		if out.hasWriter && !r.stages.Has(u.stage) {
			c.sync(u, region, out.writer, AccessWrite)
		}
		r.stages |= u.stage.Mask()
		r.op, r.target = u.self, u.target
		return out
	}
	if s.write {
		c.sync(u, region, s.writer, AccessWrite)
	} else {
		for _, r := range s.readers {
			c.sync(u, region, r, AccessRead)
		}
	}
	a := accessor{queue: u.queue, stages: u.stage.Mask(), op: u.self, target: u.target}
	if u.access == AccessWrite {
		return liveState{write: true, hasWriter: true, writer: a}
	}
	return liveState{hasWriter: true, writer: s.writer, readers: []accessor{a}}
}

// sync orders the prior access from before u on region. Same-queue pairs
// get a pipeline barrier at u's placement; cross-queue pairs share an
// event between the producer's and consumer's placements.
func (c *compiler) sync(u use, region subres.Box, from accessor, fromAccess Access) {
	if from.op == u.self {
		return
	}
	buf, tex := c.entry(u, region, from.stages, fromAccess)
	if from.queue == u.queue {
		u.target.addBarrier(u.domain, u.queue, from.stages, u.stage.Mask(), buf, tex)
		c.stats.Barriers++
		if u.target != u.self {
			c.stats.Hoisted++
		}
		return
	}
	// An end hoisted onto an op that encloses the other end would replay
	// on the wrong side of it, so that end stays on its own op.
	src, dst := from.target, u.target
	if src != from.op && src.encloses(u.self) {
		src = from.op
	}
	if dst != u.self && dst.encloses(from.op) {
		dst = u.self
	}
	key := handoffKey{from: src, to: dst}
	h := c.pairs[key]
	if h == nil {
		h = &Handoff{Slot: EventSlot(len(c.handoffs)), From: from.queue, To: u.queue}
		c.pairs[key] = h
		c.handoffs = append(c.handoffs, h)
		c.stats.Events++
	}
	h.SrcStages |= from.stages
	h.DstStages |= u.stage.Mask()
	if buf != nil {
		h.Buffers = append(h.Buffers, *buf)
	}
	if tex != nil {
		h.Textures = append(h.Textures, *tex)
	}
	src.Signals = appendHandoff(src.Signals, h)
	dst.Waits = appendHandoff(dst.Waits, h)
	c.stats.Handoffs++
}

// firstTouch records the initial layout transition of a texture whose
// creation usage differs from the usage of its first access.
func (c *compiler) firstTouch(u use, region subres.Box) {
	if !u.key.texture || c.resources == nil {
		return
	}
	info, ok := c.resources.Texture(TextureID(u.key.id))
	if !ok || info.InitialUsage == 0 {
		return
	}
	dst := u.stage.TextureUsage(u.access)
	if dst == 0 || dst == info.InitialUsage {
		return
	}
	tex := &TextureBarrier{
		Texture:   TextureID(u.key.id),
		Label:     u.label,
		Range:     textureRangeOf(region),
		SrcAccess: AccessRead,
		DstAccess: u.access,
		SrcUsage:  info.InitialUsage,
		DstUsage:  dst,
	}
	u.target.addBarrier(u.domain, u.queue, StageTop.Mask(), u.stage.Mask(), nil, tex)
	c.stats.Transitions++
}

func (c *compiler) entry(u use, region subres.Box, fromStages StageMask, fromAccess Access) (*BufferBarrier, *TextureBarrier) {
	if u.key.texture {
		return nil, &TextureBarrier{
			Texture:   TextureID(u.key.id),
			Label:     u.label,
			Range:     textureRangeOf(region),
			SrcAccess: fromAccess,
			DstAccess: u.access,
			SrcUsage:  maskTextureUsage(fromStages, fromAccess),
			DstUsage:  u.stage.TextureUsage(u.access),
		}
	}
	return &BufferBarrier{
		Buffer:    BufferID(u.key.id),
		Label:     u.label,
		Range:     bufferRangeOf(region),
		SrcAccess: fromAccess,
		DstAccess: u.access,
		SrcUsage:  maskBufferUsage(fromStages, fromAccess),
		DstUsage:  u.stage.BufferUsage(u.access),
	}, nil
}
