package framegraph

import (
	"sync/atomic"

	"github.com/gogpu/gputypes"
)

// CommandBuffer is the device-layer recording surface a compiled program
// is replayed against. Code callbacks receive it and type-assert to the
// concrete device encoder for draws and dispatches.
type CommandBuffer interface {
	// BeginMarker and EndMarker bracket every compiled op for debuggers.
	BeginMarker(name string)
	EndMarker()

	// Barrier records a same-queue pipeline barrier.
	Barrier(b *Barrier)

	// SignalEvent records the release half of a queue handoff.
	SignalEvent(ev Event, h *Handoff)

	// WaitEvent records the acquire half of a queue handoff.
	WaitEvent(ev Event, h *Handoff)

	// BeginPass opens a render pass, NextSubpass advances to the next
	// subpass and EndPass closes it.
	BeginPass(p *PassInfo)
	NextSubpass()
	EndPass()

	// Blit copies between textures.
	Blit(b *BlitInfo)

	// CopyBuffer copies between buffers.
	CopyBuffer(c *CopyInfo)
}

// Queues maps a queue to the command buffer recording it for the frame
// being replayed.
type Queues interface {
	Queue(q Queue) CommandBuffer
}

type queueSet [queueCount]CommandBuffer

func (s *queueSet) Queue(q Queue) CommandBuffer { return s[q] }

// SingleQueue records every queue into cmd.
func SingleQueue(cmd CommandBuffer) Queues {
	return &queueSet{cmd, cmd, cmd}
}

// PerQueue records each queue into its own command buffer. Nil entries
// fall back to graphics.
func PerQueue(graphics, compute, transfer CommandBuffer) Queues {
	if compute == nil {
		compute = graphics
	}
	if transfer == nil {
		transfer = graphics
	}
	return &queueSet{graphics, compute, transfer}
}

// Event is an opaque device event handle.
type Event uint64

// EventAllocator is the injected capability that owns the device objects
// backing cross-queue handoffs. The compiler asks for one event per slot
// per buffered frame and never signals or waits on them itself.
type EventAllocator interface {
	CreateEvent(label string, bufferIndex int) Event
	DestroyEvent(ev Event)
}

// CounterEvents hands out monotonically increasing event handles. It is
// the default allocator when the device needs no event objects, such as
// a timeline-semaphore device that signals counter values.
type CounterEvents struct {
	next atomic.Uint64
}

// CreateEvent implements EventAllocator.
func (c *CounterEvents) CreateEvent(string, int) Event { return Event(c.next.Add(1)) }

// DestroyEvent implements EventAllocator.
func (c *CounterEvents) DestroyEvent(Event) {}

// PassInfo is the render pass configuration handed to the device layer.
type PassInfo struct {
	Name        string
	Attachments []Attachment
	Depth       *DepthAttachment
	Subpasses   int
}

// Attachment is a color attachment of a pass.
type Attachment struct {
	Texture TextureID
	Range   TextureRange
	Load    gputypes.LoadOp
	Store   gputypes.StoreOp
	Clear   gputypes.Color
}

// DepthAttachment is the depth/stencil attachment of a pass.
type DepthAttachment struct {
	Texture      TextureID
	Load         gputypes.LoadOp
	Store        gputypes.StoreOp
	StencilLoad  gputypes.LoadOp
	StencilStore gputypes.StoreOp
	ClearDepth   float32
	ClearStencil uint32
	ReadOnly     bool
}

// BlitInfo describes a texture-to-texture blit.
type BlitInfo struct {
	From      TextureID
	To        TextureID
	FromRange TextureRange
	ToRange   TextureRange
}

// CopyRegion is one range of a buffer copy.
type CopyRegion struct {
	SrcOffset uint64
	DstOffset uint64
	Size      uint64
}

// CopyInfo describes a buffer-to-buffer copy.
type CopyInfo struct {
	From    BufferID
	To      BufferID
	Regions []CopyRegion
}
