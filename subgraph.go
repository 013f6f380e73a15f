package framegraph

// Subgraph is an embed point for a named list of ops registered by
// feature code. The name in Op.Name is resolved against the registry each
// time the subgraph is built, so registrations made after the script was
// declared are picked up by the next build.
//
// With DomainPass, every barrier, wait and signal its children need is
// hoisted onto the subgraph's own compiled op, so the children share one
// synchronization point and their compiled ops carry none.
type Subgraph struct {
	Op
}

// Build implements Node.
func (s *Subgraph) Build(ctx *BuildContext) {
	if s.skip() {
		return
	}
	self := ctx.emit(&s.Op, KindSubgraph)
	ctx.resolve(&s.Op, self)

	var ops []Node
	if ctx.registry != nil {
		ops = ctx.registry.GetSubgraph(s.Name)
	} else {
		Logger().Warn("framegraph: subgraph embedded without registry", "name", s.Name)
	}
	if len(ops) == 0 {
		ctx.comp.stats.Unresolved++
		return
	}
	child := ctx.derive(&self.Children, ctx.parent, self, s.Domain == DomainPass)
	for _, n := range ops {
		n.Build(child)
	}
	if s.Domain == DomainPass {
		Logger().Debug("framegraph: hoisted subgraph synchronization",
			"name", s.Name, "barriers", self.BarrierCount(),
			"waits", len(self.Waits), "signals", len(self.Signals))
	}
}

// OnWindowResized forwards the notification to the registered children.
func (s *Subgraph) OnWindowResized(r Resize) {
	if r.Registry == nil {
		return
	}
	for _, n := range r.Registry.lookup(s.Name) {
		n.OnWindowResized(r)
	}
}
