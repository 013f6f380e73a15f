package framegraph

import "fmt"

// Blit copies one texture range into another. It declares a transfer
// read of From and a transfer write of To in addition to Op's own
// dependencies.
type Blit struct {
	Op

	From      TextureID
	To        TextureID
	FromRange TextureRange
	ToRange   TextureRange
}

// Build implements Node.
func (b *Blit) Build(ctx *BuildContext) {
	if b.skip() {
		return
	}
	if b.From == InvalidID || b.To == InvalidID {
		panic(fmt.Errorf("%w: blit %q has no source or destination", ErrUnknownResource, b.Name))
	}
	self := ctx.emit(&b.Op, KindBlit)
	info := &BlitInfo{From: b.From, To: b.To, FromRange: b.FromRange, ToRange: b.ToRange}
	self.run = func(cmd CommandBuffer, _, _ int) { cmd.Blit(info) }
	ctx.resolve(&b.Op, self)
	ctx.resolveTexture(&b.Op, self, TextureDependency{
		Texture: b.From, Label: b.Name + " source", Stage: StageTransfer, Access: AccessRead, Range: b.FromRange,
	})
	ctx.resolveTexture(&b.Op, self, TextureDependency{
		Texture: b.To, Label: b.Name + " destination", Stage: StageTransfer, Access: AccessWrite, Range: b.ToRange,
	})
}

// Copy copies byte ranges between buffers. With no Regions the whole
// source is copied to offset zero of the destination.
type Copy struct {
	Op

	From    BufferID
	To      BufferID
	Regions []CopyRegion
}

// Build implements Node.
func (c *Copy) Build(ctx *BuildContext) {
	if c.skip() {
		return
	}
	if c.From == InvalidID || c.To == InvalidID {
		panic(fmt.Errorf("%w: copy %q has no source or destination", ErrUnknownResource, c.Name))
	}
	self := ctx.emit(&c.Op, KindCopy)
	info := &CopyInfo{From: c.From, To: c.To, Regions: c.Regions}
	self.run = func(cmd CommandBuffer, _, _ int) { cmd.CopyBuffer(info) }
	ctx.resolve(&c.Op, self)
	if len(c.Regions) == 0 {
		ctx.resolveBuffer(&c.Op, self, BufferDependency{
			Buffer: c.From, Label: c.Name + " source", Stage: StageTransfer, Access: AccessRead,
		})
		ctx.resolveBuffer(&c.Op, self, BufferDependency{
			Buffer: c.To, Label: c.Name + " destination", Stage: StageTransfer, Access: AccessWrite,
		})
		return
	}
	for i, r := range c.Regions {
		ctx.resolveBuffer(&c.Op, self, BufferDependency{
			Buffer: c.From, Label: fmt.Sprintf("%s source %d", c.Name, i), Stage: StageTransfer,
			Access: AccessRead, Range: BufferRange{Offset: r.SrcOffset, Size: r.Size},
		})
		ctx.resolveBuffer(&c.Op, self, BufferDependency{
			Buffer: c.To, Label: fmt.Sprintf("%s destination %d", c.Name, i), Stage: StageTransfer,
			Access: AccessWrite, Range: BufferRange{Offset: r.DstOffset, Size: r.Size},
		})
	}
}
