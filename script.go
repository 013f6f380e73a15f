package framegraph

import (
	"fmt"
	"log/slog"
)

// WindowID identifies the output surface a script renders to.
type WindowID uint32

// DefaultBufferedFrames is the number of frames in flight when
// ScriptOptions leaves it unset.
const DefaultBufferedFrames = 3

// ScriptOptions configures a Script.
type ScriptOptions struct {
	// BufferedFrames is the number of frames in flight. Every event slot
	// gets one device event per buffered frame.
	BufferedFrames int

	// Window is the surface whose resizes the script follows.
	Window WindowID

	// Events creates the device events of cross-queue handoffs. When nil a
	// CounterEvents allocator is used.
	Events EventAllocator
}

func (o *ScriptOptions) validate() error {
	if o.BufferedFrames == 0 {
		o.BufferedFrames = DefaultBufferedFrames
	}
	if o.BufferedFrames < 0 {
		return fmt.Errorf("framegraph: invalid buffered frame count %d", o.BufferedFrames)
	}
	if o.Events == nil {
		o.Events = &CounterEvents{}
	}
	return nil
}

// Script is a frame script: the ordered top-level ops of a frame, the
// resource table they refer to and the registry their subgraph embeds
// resolve against. Compile turns it into a Program; the arena backing
// the program is reset only when the script is compiled again.
type Script struct {
	name      string
	opts      ScriptOptions
	registry  *Registry
	resources *Resources
	ops       []Node

	arena   Arena
	program *Program
	dirty   bool
}

// NewScript creates a script. The registry may be shared between scripts.
func NewScript(name string, reg *Registry, res *Resources, opts ScriptOptions) (*Script, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if reg == nil {
		reg = NewRegistry()
	}
	return &Script{
		name:      name,
		opts:      opts,
		registry:  reg,
		resources: res,
		dirty:     true,
	}, nil
}

// Name returns the script name.
func (s *Script) Name() string { return s.name }

// Registry returns the registry the script resolves subgraphs against.
func (s *Script) Registry() *Registry { return s.registry }

// Resources returns the script's resource table.
func (s *Script) Resources() *Resources { return s.resources }

// Options returns the validated options.
func (s *Script) Options() ScriptOptions { return s.opts }

// AddOp appends a top-level op. Registration order is program order.
func (s *Script) AddOp(n Node) {
	if n == nil {
		panic(fmt.Errorf("%w: top-level op of script %q", ErrNilNode, s.name))
	}
	s.ops = append(s.ops, n)
	s.dirty = true
}

// Ops returns the top-level ops.
func (s *Script) Ops() []Node { return s.ops }

// Invalidate marks the compiled program out of date, for example after
// toggling ops or amending the registry. The next Run recompiles.
func (s *Script) Invalidate() { s.dirty = true }

// Compile rebuilds the program from the current graph. The previous
// program and its events are released and its compiled ops invalidated.
func (s *Script) Compile() *Program {
	if s.program != nil {
		s.program.release()
	}
	s.arena.Reset()

	p := &Program{name: s.name, arena: &s.arena, generation: s.arena.Generation()}
	ctx := newBuildContext(&s.arena, s.registry, s.resources, &p.ops)
	for _, n := range s.ops {
		n.Build(ctx)
	}
	p.handoffs = ctx.comp.handoffs
	p.stats = ctx.comp.stats
	p.allocateEvents(s.opts.Events, s.opts.BufferedFrames)

	s.program = p
	s.dirty = false
	Logger().Info("framegraph: script compiled", "script", s.name,
		"ops", p.stats.Ops, "barriers", p.stats.Barriers, "events", p.stats.Events)
	Logger().Debug("framegraph: build stats", "script", s.name,
		slog.Int("hoisted", p.stats.Hoisted),
		slog.Int("handoffs", p.stats.Handoffs),
		slog.Int("transitions", p.stats.Transitions),
		slog.Int("unresolved", p.stats.Unresolved))
	return p
}

// Program returns the last compiled program, or nil.
func (s *Script) Program() *Program { return s.program }

// Run replays the compiled program, recompiling first if the script
// was invalidated since the last compile. Run panics if the script was
// never compiled.
func (s *Script) Run(q Queues, frameIndex, bufferIndex int) {
	if s.program == nil {
		panic(fmt.Errorf("%w: %q", ErrNotCompiled, s.name))
	}
	if s.dirty {
		s.Compile()
	}
	s.program.Run(q, frameIndex, bufferIndex)
}

// OnWindowResized follows a resize of the script's window: window-relative
// textures are recreated at the new size under their existing handles and
// every op is notified top-down. The compiled program stays valid.
func (s *Script) OnWindowResized(window WindowID, width, height int) error {
	if window != s.opts.Window {
		return nil
	}
	if s.resources != nil {
		if err := s.resources.Resize(width, height); err != nil {
			return fmt.Errorf("resize %q: %w", s.name, err)
		}
	}
	r := Resize{Width: width, Height: height, Registry: s.registry, Resources: s.resources}
	for _, n := range s.ops {
		n.OnWindowResized(r)
	}
	Logger().Info("framegraph: window resized", "script", s.name, "width", width, "height", height)
	return nil
}

// Destroy releases the program's events and the script's resources.
func (s *Script) Destroy() {
	if s.program != nil {
		s.program.release()
		s.program = nil
	}
	s.arena.Reset()
	if s.resources != nil {
		s.resources.Destroy()
	}
}
