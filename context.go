package framegraph

// BuildContext is the environment threaded through one compile. It is
// passed down the node tree and never stored: derived contexts for
// subgraphs, passes and subpasses share the arena and the compiler state
// and differ only in where output goes and where synchronization lands.
type BuildContext struct {
	arena     *Arena
	registry  *Registry
	resources *Resources
	comp      *compiler

	out    *[]*Compiled
	parent Node

	pass    *Pass
	subpass int

	// anchor, when set, receives every barrier, wait and signal of ops
	// built under it: the enclosing pass, or a Pass domain subgraph.
	anchor *Compiled
	// scope is the nearest enclosing container, the hoist target of Pass
	// domain leaves outside any anchor.
	scope *Compiled
}

func newBuildContext(arena *Arena, reg *Registry, res *Resources, out *[]*Compiled) *BuildContext {
	return &BuildContext{
		arena:     arena,
		registry:  reg,
		resources: res,
		comp:      newCompiler(res),
		out:       out,
		subpass:   -1,
	}
}

// Registry returns the subgraph registry embeds resolve against.
func (ctx *BuildContext) Registry() *Registry { return ctx.registry }

// Resources returns the resource table of the script being compiled.
func (ctx *BuildContext) Resources() *Resources { return ctx.resources }

// ActivePass returns the pass being built, or nil outside passes.
func (ctx *BuildContext) ActivePass() *Pass { return ctx.pass }

// ActiveSubpass returns the index of the subpass being built, or -1.
func (ctx *BuildContext) ActiveSubpass() int { return ctx.subpass }

// Stats returns the statistics gathered so far.
func (ctx *BuildContext) Stats() Stats { return ctx.comp.stats }

// derive returns a child context writing into out.
func (ctx *BuildContext) derive(out *[]*Compiled, parent Node, container *Compiled, anchor bool) *BuildContext {
	child := *ctx
	child.out = out
	child.parent = parent
	child.scope = container
	if anchor && child.anchor == nil {
		child.anchor = container
	}
	return &child
}

// emit allocates the compiled op for op and appends it to the output.
func (ctx *BuildContext) emit(op *Op, kind Kind) *Compiled {
	c := ctx.arena.Alloc()
	c.Name = op.Name
	c.Kind = kind
	c.Queue = op.Queue
	op.compiled = c
	op.parent = ctx.parent
	*ctx.out = append(*ctx.out, c)
	ctx.comp.stats.Ops++
	return c
}

// placement returns where synchronization for op, compiled as self, is
// recorded and the domain it is recorded with. Placement never crosses
// queues: an enclosing op on a different queue cannot record for op.
func (ctx *BuildContext) placement(op *Op, self *Compiled) (*Compiled, Domain) {
	switch {
	case ctx.anchor != nil && ctx.anchor.Queue == op.Queue:
		return ctx.anchor, DomainPass
	case op.Domain == DomainPass && ctx.scope != nil && ctx.scope.Queue == op.Queue:
		return ctx.scope, DomainPass
	}
	return self, op.Domain
}

// resolve synchronizes every declared dependency of op.
func (ctx *BuildContext) resolve(op *Op, self *Compiled) {
	for _, d := range op.Buffers {
		ctx.resolveBuffer(op, self, d)
	}
	for _, d := range op.Textures {
		ctx.resolveTexture(op, self, d)
	}
}

func (ctx *BuildContext) resolveBuffer(op *Op, self *Compiled, d BufferDependency) {
	target, domain := ctx.placement(op, self)
	self.BufferDeps = append(self.BufferDeps, d)
	ctx.comp.access(use{
		key:    resourceKey{id: uint64(d.Buffer)},
		label:  d.Label,
		box:    d.Range.box(),
		stage:  d.Stage,
		access: d.Access,
		queue:  op.Queue,
		domain: domain,
		self:   self,
		target: target,
	})
}

func (ctx *BuildContext) resolveTexture(op *Op, self *Compiled, d TextureDependency) {
	target, domain := ctx.placement(op, self)
	self.TextureDeps = append(self.TextureDeps, d)
	ctx.comp.access(use{
		key:    resourceKey{texture: true, id: uint64(d.Texture)},
		label:  d.Label,
		box:    d.Range.box(),
		stage:  d.Stage,
		access: d.Access,
		queue:  op.Queue,
		domain: domain,
		self:   self,
		target: target,
	})
}
