package native

import (
	"fmt"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// RenderPass is an open render pass.
type RenderPass interface {
	End()
}

// Encoder is the part of hal.CommandEncoder a program replays into. Use
// WrapEncoder to adapt a hal.CommandEncoder.
type Encoder interface {
	TransitionTextures(barriers []hal.TextureBarrier)
	CopyBufferToBuffer(src, dst hal.Buffer, regions []hal.BufferCopy)
	BeginRenderPass(desc *hal.RenderPassDescriptor) RenderPass
}

type halEncoder struct {
	enc hal.CommandEncoder
}

// WrapEncoder adapts enc to Encoder.
func WrapEncoder(enc hal.CommandEncoder) Encoder { return halEncoder{enc: enc} }

func (e halEncoder) TransitionTextures(barriers []hal.TextureBarrier) {
	e.enc.TransitionTextures(barriers)
}

func (e halEncoder) CopyBufferToBuffer(src, dst hal.Buffer, regions []hal.BufferCopy) {
	e.enc.CopyBufferToBuffer(src, dst, regions)
}

func (e halEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) RenderPass {
	return e.enc.BeginRenderPass(desc)
}

// Stats counts the device commands a replay produced.
type Stats struct {
	Transitions int
	// BufferBarriers counts buffer entries left to the HAL's own buffer
	// state tracking.
	BufferBarriers int
	Passes         int
	Copies         int
	Signals        int
	Waits          int
}

type openPass struct {
	info    *framegraph.PassInfo
	rp      RenderPass
	subpass int
}

// CommandBuffer implements framegraph.CommandBuffer over an Encoder.
// Recording errors do not stop the replay; the first one is kept and
// returned by Err.
//
// Code callbacks type-assert the framegraph.CommandBuffer they receive to
// *CommandBuffer to reach the encoder and the open render pass.
type CommandBuffer struct {
	enc         Encoder
	storage     *Storage
	events      *Events
	bufferIndex int
	blitter     Blitter

	markers []string
	pass    *openPass
	stats   Stats
	err     error
}

var _ framegraph.CommandBuffer = (*CommandBuffer)(nil)

// NewCommandBuffer creates a command buffer replaying buffered frame
// bufferIndex. events may be nil.
func NewCommandBuffer(enc Encoder, storage *Storage, events *Events, bufferIndex int) *CommandBuffer {
	if events != nil {
		events.Reset(bufferIndex)
	}
	return &CommandBuffer{enc: enc, storage: storage, events: events, bufferIndex: bufferIndex}
}

// Encoder returns the underlying encoder.
func (c *CommandBuffer) Encoder() Encoder { return c.enc }

// RenderPass returns the open render pass, or nil outside a pass.
func (c *CommandBuffer) RenderPass() RenderPass {
	if c.pass == nil {
		return nil
	}
	return c.pass.rp
}

// Storage returns the resource storage commands resolve handles against.
func (c *CommandBuffer) Storage() *Storage { return c.storage }

// BufferIndex returns the buffered frame being replayed.
func (c *CommandBuffer) BufferIndex() int { return c.bufferIndex }

// Marker returns the innermost open marker.
func (c *CommandBuffer) Marker() string {
	if len(c.markers) == 0 {
		return ""
	}
	return c.markers[len(c.markers)-1]
}

// Err returns the first recording error.
func (c *CommandBuffer) Err() error { return c.err }

// Stats returns the command counts so far.
func (c *CommandBuffer) Stats() Stats { return c.stats }

func (c *CommandBuffer) fail(err error) {
	if c.err == nil {
		c.err = fmt.Errorf("%s: %w", c.Marker(), err)
	}
}

// BeginMarker implements framegraph.CommandBuffer.
func (c *CommandBuffer) BeginMarker(name string) { c.markers = append(c.markers, name) }

// EndMarker implements framegraph.CommandBuffer.
func (c *CommandBuffer) EndMarker() {
	if n := len(c.markers); n > 0 {
		c.markers = c.markers[:n-1]
	}
}

// Barrier implements framegraph.CommandBuffer. Texture entries become
// usage transitions.
func (c *CommandBuffer) Barrier(b *framegraph.Barrier) {
	if c.pass != nil {
		c.fail(fmt.Errorf("%w: barrier inside render pass", ErrUnsupported))
		return
	}
	c.stats.BufferBarriers += len(b.Buffers)
	c.transition(b.Textures)
}

func (c *CommandBuffer) transition(entries []framegraph.TextureBarrier) {
	barriers := make([]hal.TextureBarrier, 0, len(entries))
	for _, e := range entries {
		if e.SrcUsage == e.DstUsage || e.SrcUsage == 0 {
			continue
		}
		t, ok := c.storage.Texture(e.Texture)
		if !ok {
			c.fail(fmt.Errorf("%w: %s", ErrUnknownTexture, e.Label))
			continue
		}
		barriers = append(barriers, hal.TextureBarrier{
			Texture: t.Texture,
			Usage: hal.TextureUsageTransition{
				OldUsage: e.SrcUsage,
				NewUsage: e.DstUsage,
			},
		})
	}
	if len(barriers) == 0 {
		return
	}
	c.enc.TransitionTextures(barriers)
	c.stats.Transitions += len(barriers)
}

// SignalEvent implements framegraph.CommandBuffer. The releasing queue
// records nothing on a single HAL queue.
func (c *CommandBuffer) SignalEvent(ev framegraph.Event, _ *framegraph.Handoff) {
	c.stats.Signals++
	if c.events != nil {
		c.events.signal(ev)
	}
}

// WaitEvent implements framegraph.CommandBuffer. The acquiring side
// records the texture transitions of the handoff.
func (c *CommandBuffer) WaitEvent(ev framegraph.Event, h *framegraph.Handoff) {
	c.stats.Waits++
	if c.events != nil && !c.events.signaled(ev) {
		c.fail(fmt.Errorf("%w: %s", ErrWaitBeforeSignal, h))
	}
	c.stats.BufferBarriers += len(h.Buffers)
	c.transition(h.Textures)
}

// BeginPass implements framegraph.CommandBuffer.
func (c *CommandBuffer) BeginPass(p *framegraph.PassInfo) {
	if c.pass != nil {
		c.fail(fmt.Errorf("%w: nested render pass %s", ErrUnsupported, p.Name))
		return
	}
	desc, err := c.passDescriptor(p, 0)
	if err != nil {
		c.fail(err)
		return
	}
	c.pass = &openPass{info: p, rp: c.enc.BeginRenderPass(desc)}
	c.stats.Passes++
}

// NextSubpass implements framegraph.CommandBuffer by ending the render
// pass and beginning another on the same attachments, loading what the
// previous subpass stored.
func (c *CommandBuffer) NextSubpass() {
	if c.pass == nil {
		c.fail(fmt.Errorf("%w: subpass outside render pass", ErrUnsupported))
		return
	}
	c.pass.rp.End()
	desc, err := c.passDescriptor(c.pass.info, c.pass.subpass+1)
	if err != nil {
		c.fail(err)
		c.pass = nil
		return
	}
	c.pass.rp = c.enc.BeginRenderPass(desc)
	c.pass.subpass++
	c.stats.Passes++
}

// EndPass implements framegraph.CommandBuffer.
func (c *CommandBuffer) EndPass() {
	if c.pass == nil {
		return
	}
	c.pass.rp.End()
	c.pass = nil
}

// passDescriptor lowers subpass of p to a render pass. Later subpasses
// load the attachments and every subpass but the last stores them.
func (c *CommandBuffer) passDescriptor(p *framegraph.PassInfo, subpass int) (*hal.RenderPassDescriptor, error) {
	resume, keep := subpass > 0, subpass < p.Subpasses-1
	desc := &hal.RenderPassDescriptor{
		Label:            p.Name,
		ColorAttachments: make([]hal.RenderPassColorAttachment, 0, len(p.Attachments)),
	}
	for _, a := range p.Attachments {
		t, ok := c.storage.Texture(a.Texture)
		if !ok {
			return nil, fmt.Errorf("%w: attachment of pass %s", ErrUnknownTexture, p.Name)
		}
		load, store := a.Load, a.Store
		if resume {
			load = gputypes.LoadOpLoad
		}
		if keep {
			store = gputypes.StoreOpStore
		}
		desc.ColorAttachments = append(desc.ColorAttachments, hal.RenderPassColorAttachment{
			View:       t.View,
			LoadOp:     load,
			StoreOp:    store,
			ClearValue: a.Clear,
		})
	}
	if d := p.Depth; d != nil {
		t, ok := c.storage.Texture(d.Texture)
		if !ok {
			return nil, fmt.Errorf("%w: depth attachment of pass %s", ErrUnknownTexture, p.Name)
		}
		depthLoad, stencilLoad := d.Load, d.StencilLoad
		depthStore, stencilStore := d.Store, d.StencilStore
		if resume {
			depthLoad, stencilLoad = gputypes.LoadOpLoad, gputypes.LoadOpLoad
		}
		if keep {
			depthStore, stencilStore = gputypes.StoreOpStore, gputypes.StoreOpStore
		}
		desc.DepthStencilAttachment = &hal.RenderPassDepthStencilAttachment{
			View:              t.View,
			DepthLoadOp:       depthLoad,
			DepthStoreOp:      depthStore,
			DepthClearValue:   d.ClearDepth,
			StencilLoadOp:     stencilLoad,
			StencilStoreOp:    stencilStore,
			StencilClearValue: d.ClearStencil,
		}
	}
	return desc, nil
}

// Blitter records texture blits. The HAL has no scaled blit, so hosts
// supply one built on a render pipeline.
type Blitter interface {
	Blit(enc Encoder, src, dst *Texture, info *framegraph.BlitInfo) error
}

// SetBlitter sets the blitter used by Blit.
func (c *CommandBuffer) SetBlitter(b Blitter) { c.blitter = b }

// Blit implements framegraph.CommandBuffer. Without a Blitter the blit is
// recorded as ErrUnsupported.
func (c *CommandBuffer) Blit(b *framegraph.BlitInfo) {
	if c.blitter == nil {
		c.fail(fmt.Errorf("%w: blit texture %d to %d", ErrUnsupported, b.From, b.To))
		return
	}
	src, ok := c.storage.Texture(b.From)
	if !ok {
		c.fail(fmt.Errorf("%w: blit source %d", ErrUnknownTexture, b.From))
		return
	}
	dst, ok := c.storage.Texture(b.To)
	if !ok {
		c.fail(fmt.Errorf("%w: blit destination %d", ErrUnknownTexture, b.To))
		return
	}
	if err := c.blitter.Blit(c.enc, src, dst, b); err != nil {
		c.fail(err)
	}
}

// CopyBuffer implements framegraph.CommandBuffer using the copies of the
// current buffered frame.
func (c *CommandBuffer) CopyBuffer(ci *framegraph.CopyInfo) {
	src, ok := c.storage.Buffer(ci.From, c.bufferIndex)
	if !ok {
		c.fail(fmt.Errorf("%w: %d", ErrUnknownBuffer, ci.From))
		return
	}
	dst, ok := c.storage.Buffer(ci.To, c.bufferIndex)
	if !ok {
		c.fail(fmt.Errorf("%w: %d", ErrUnknownBuffer, ci.To))
		return
	}
	regions := make([]hal.BufferCopy, len(ci.Regions))
	for i, r := range ci.Regions {
		regions[i] = hal.BufferCopy{SrcOffset: r.SrcOffset, DstOffset: r.DstOffset, Size: r.Size}
	}
	c.enc.CopyBufferToBuffer(src, dst, regions)
	c.stats.Copies++
}
