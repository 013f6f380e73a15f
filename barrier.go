package framegraph

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
)

// BufferBarrier is the buffer part of a barrier or queue handoff.
type BufferBarrier struct {
	Buffer    BufferID
	Label     string
	Range     BufferRange
	SrcAccess Access
	DstAccess Access
	SrcUsage  gputypes.BufferUsage
	DstUsage  gputypes.BufferUsage
}

// TextureBarrier is the texture part of a barrier or queue handoff.
// SrcUsage and DstUsage drive the layout transition.
type TextureBarrier struct {
	Texture   TextureID
	Label     string
	Range     TextureRange
	SrcAccess Access
	DstAccess Access
	SrcUsage  gputypes.TextureUsage
	DstUsage  gputypes.TextureUsage
}

// Barrier is a same-queue pipeline barrier. Entries sharing a source and
// destination stage set at the same placement are merged into one Barrier.
type Barrier struct {
	Domain    Domain
	Queue     Queue
	SrcStages StageMask
	DstStages StageMask
	Buffers   []BufferBarrier
	Textures  []TextureBarrier
}

// Len returns the number of resource entries in b.
func (b *Barrier) Len() int { return len(b.Buffers) + len(b.Textures) }

func (b *Barrier) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "barrier %s %s->%s", b.Queue, b.SrcStages, b.DstStages)
	writeEntries(&sb, b.Buffers, b.Textures)
	return sb.String()
}

// EventSlot indexes a logical cross-queue event within a program. Each
// buffered frame has its own device event for every slot.
type EventSlot int

// Handoff is a queue ownership transfer. The producer queue records a
// release and signals the event after its work; the consumer queue waits
// on the event and records the acquire before its work.
type Handoff struct {
	Slot      EventSlot
	From      Queue
	To        Queue
	SrcStages StageMask
	DstStages StageMask
	Buffers   []BufferBarrier
	Textures  []TextureBarrier
}

// Len returns the number of resource entries in h.
func (h *Handoff) Len() int { return len(h.Buffers) + len(h.Textures) }

func (h *Handoff) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "event %d %s:%s->%s:%s", h.Slot, h.From, h.SrcStages, h.To, h.DstStages)
	writeEntries(&sb, h.Buffers, h.Textures)
	return sb.String()
}

func writeEntries(sb *strings.Builder, bufs []BufferBarrier, texs []TextureBarrier) {
	for _, e := range bufs {
		fmt.Fprintf(sb, " [buffer %d %s %s->%s]", e.Buffer, e.Range, e.SrcAccess, e.DstAccess)
	}
	for _, e := range texs {
		fmt.Fprintf(sb, " [texture %d %s %s->%s]", e.Texture, e.Range, e.SrcAccess, e.DstAccess)
	}
}
