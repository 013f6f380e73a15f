package framegraph

import "fmt"

// Pass is a render pass: a set of attachments and one or more subpasses
// whose ops run inside the device's render pass scope. The compiler only
// orders the children and tracks their dependencies. Attachment binding
// and render pass objects belong to the device layer, which receives the
// pass configuration as a PassInfo.
//
// Synchronization cannot be recorded inside a render pass, so every
// barrier and wait needed by the pass, its subpasses or their ops is
// hoisted onto the pass and recorded before BeginPass.
type Pass struct {
	Op

	Attachments []Attachment
	Depth       *DepthAttachment
	Subpasses   []*Subpass

	// Resized, when set, runs before the subpasses are notified.
	Resized func(width, height int)
}

// Build implements Node.
func (p *Pass) Build(ctx *BuildContext) {
	if p.skip() {
		return
	}
	self := ctx.emit(&p.Op, KindPass)
	info := &PassInfo{
		Name:        p.Name,
		Attachments: p.Attachments,
		Depth:       p.Depth,
	}
	self.Pass = info
	ctx.resolve(&p.Op, self)
	for i, a := range p.Attachments {
		ctx.resolveTexture(&p.Op, self, TextureDependency{
			Texture: a.Texture,
			Label:   fmt.Sprintf("%s color %d", p.Name, i),
			Stage:   StageColorAttachment,
			Access:  AccessWrite,
			Range:   a.Range,
		})
	}
	if d := p.Depth; d != nil {
		access := AccessWrite
		if d.ReadOnly {
			access = AccessRead
		}
		ctx.resolveTexture(&p.Op, self, TextureDependency{
			Texture: d.Texture,
			Label:   p.Name + " depth",
			Stage:   StageDepthStencil,
			Access:  access,
		})
	}

	inner := ctx.derive(&self.Children, p, self, true)
	inner.pass = p
	index := 0
	for _, sp := range p.Subpasses {
		if sp == nil {
			panic(fmt.Errorf("%w: subpass of pass %q", ErrNilNode, p.Name))
		}
		if sp.skip() {
			continue
		}
		sp.build(inner, index)
		index++
	}
	info.Subpasses = index
}

// OnWindowResized implements Node.
func (p *Pass) OnWindowResized(r Resize) {
	if p.Resized != nil {
		p.Resized(r.Width, r.Height)
	}
	for _, sp := range p.Subpasses {
		if sp != nil {
			sp.OnWindowResized(r)
		}
	}
}

// Subpass is one subpass of a Pass. Inputs lists the pass attachments
// read as input attachments.
type Subpass struct {
	Op

	Ops    []Node
	Inputs []int
}

// Build implements Node. A subpass is only meaningful inside its pass;
// built standalone it reports a configuration error.
func (sp *Subpass) Build(ctx *BuildContext) {
	if ctx.pass == nil {
		panic(fmt.Errorf("framegraph: subpass %q built outside a pass", sp.Name))
	}
	if sp.skip() {
		return
	}
	sp.build(ctx, ctx.subpass+1)
}

func (sp *Subpass) build(ctx *BuildContext, index int) {
	self := ctx.emit(&sp.Op, KindSubpass)
	ctx.resolve(&sp.Op, self)
	for _, i := range sp.Inputs {
		if i < 0 || i >= len(ctx.pass.Attachments) {
			panic(fmt.Errorf("framegraph: subpass %q input %d out of range", sp.Name, i))
		}
		ctx.resolveTexture(&sp.Op, self, TextureDependency{
			Texture: ctx.pass.Attachments[i].Texture,
			Label:   fmt.Sprintf("%s input %d", sp.Name, i),
			Stage:   StagePixelShader,
			Access:  AccessRead,
			Range:   ctx.pass.Attachments[i].Range,
		})
	}
	inner := ctx.derive(&self.Children, sp, self, false)
	inner.subpass = index
	for _, n := range sp.Ops {
		if n == nil {
			panic(fmt.Errorf("%w: op of subpass %q", ErrNilNode, sp.Name))
		}
		n.Build(inner)
	}
}

// OnWindowResized implements Node.
func (sp *Subpass) OnWindowResized(r Resize) {
	for _, n := range sp.Ops {
		if n != nil {
			n.OnWindowResized(r)
		}
	}
}
