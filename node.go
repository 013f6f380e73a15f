package framegraph

// Node is a unit of declared GPU work. Build compiles it into the
// context's output; OnWindowResized is propagated top-down through the
// live graph when the output surface changes size.
type Node interface {
	Build(ctx *BuildContext)
	OnWindowResized(r Resize)
	Base() *Op
}

// Resize carries a window resize down the live graph.
type Resize struct {
	Width     int
	Height    int
	Registry  *Registry
	Resources *Resources
}

// Op holds the configuration shared by every node kind. Feature code
// fills it in before handing the node to its parent.
type Op struct {
	Name string

	// Disabled removes the op from compiled output. A disabled op is
	// skipped as if absent: it emits nothing and changes no resource state.
	Disabled bool

	Queue  Queue
	Domain Domain

	Buffers  []BufferDependency
	Textures []TextureDependency

	parent   Node
	compiled *Compiled
}

// Base returns o. It lets code holding a Node reach the shared fields.
func (o *Op) Base() *Op { return o }

// Enabled reports whether the op participates in builds.
func (o *Op) Enabled() bool { return !o.Disabled }

// SetEnabled toggles the op. The change takes effect at the next build.
func (o *Op) SetEnabled(enabled bool) { o.Disabled = !enabled }

// Parent returns the enclosing pass or subpass of the last build, or nil.
func (o *Op) Parent() Node { return o.parent }

// Compiled returns the op's compiled form from the last build. It is nil
// when the op was disabled or not reached, and invalid after a rebuild.
func (o *Op) Compiled() *Compiled { return o.compiled }

// OnWindowResized is a no-op for ops without window-dependent state.
func (o *Op) OnWindowResized(Resize) {}

// ReadsBuffer appends a buffer read and returns o for chaining.
func (o *Op) ReadsBuffer(id BufferID, stage Stage, label string) *Op {
	o.Buffers = append(o.Buffers, BufferDependency{Buffer: id, Label: label, Stage: stage, Access: AccessRead})
	return o
}

// WritesBuffer appends a buffer write.
func (o *Op) WritesBuffer(id BufferID, stage Stage, label string) *Op {
	o.Buffers = append(o.Buffers, BufferDependency{Buffer: id, Label: label, Stage: stage, Access: AccessWrite})
	return o
}

// ReadsTexture appends a texture read.
func (o *Op) ReadsTexture(id TextureID, stage Stage, label string) *Op {
	o.Textures = append(o.Textures, TextureDependency{Texture: id, Label: label, Stage: stage, Access: AccessRead})
	return o
}

// WritesTexture appends a texture write.
func (o *Op) WritesTexture(id TextureID, stage Stage, label string) *Op {
	o.Textures = append(o.Textures, TextureDependency{Texture: id, Label: label, Stage: stage, Access: AccessWrite})
	return o
}

// skip reports whether the op is disabled and clears its compiled form.
func (o *Op) skip() bool {
	if o.Disabled {
		o.compiled = nil
		return true
	}
	return false
}
