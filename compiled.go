package framegraph

// Kind identifies the node kind a compiled op was built from.
type Kind uint8

const (
	KindCode Kind = iota
	KindSubgraph
	KindPass
	KindSubpass
	KindBlit
	KindCopy
)

var kindNames = [...]string{
	KindCode:     "Code",
	KindSubgraph: "Subgraph",
	KindPass:     "Pass",
	KindSubpass:  "Subpass",
	KindBlit:     "Blit",
	KindCopy:     "Copy",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// RunFunc is the body of a compiled op.
type RunFunc func(cmd CommandBuffer, frameIndex, bufferIndex int)

// Compiled is the runtime form of an op. It holds only what replay needs:
// the body, the synchronization placed on it, and compiled children.
// Compiled values live in an Arena and are invalidated when it is reset.
type Compiled struct {
	Name  string
	Kind  Kind
	Queue Queue

	// Waits run before Barriers, Barriers before the body, and Signals
	// after the body and children.
	Waits    []*Handoff
	Barriers []*Barrier
	Signals  []*Handoff

	// Children holds compiled children. For passes it holds one
	// subpass per entry.
	Children []*Compiled

	// Pass is set for KindPass.
	Pass *PassInfo

	// BufferDeps and TextureDeps are the resolved dependencies,
	// including implicit ones, used by the touch audit and dumps.
	BufferDeps  []BufferDependency
	TextureDeps []TextureDependency

	run RunFunc
}

// BarrierCount returns the number of resource entries in c's barriers.
func (c *Compiled) BarrierCount() int {
	n := 0
	for _, b := range c.Barriers {
		n += b.Len()
	}
	return n
}

// Walk visits c and its descendants in replay order.
func (c *Compiled) Walk(fn func(c *Compiled, depth int)) {
	c.walk(fn, 0)
}

func (c *Compiled) walk(fn func(*Compiled, int), depth int) {
	fn(c, depth)
	for _, ch := range c.Children {
		ch.walk(fn, depth+1)
	}
}

// encloses reports whether d is a strict descendant of c.
func (c *Compiled) encloses(d *Compiled) bool {
	for _, ch := range c.Children {
		if ch == d || ch.encloses(d) {
			return true
		}
	}
	return false
}

// addBarrier merges an entry into c's barriers.
func (c *Compiled) addBarrier(domain Domain, queue Queue, src, dst StageMask, buf *BufferBarrier, tex *TextureBarrier) {
	var b *Barrier
	for _, have := range c.Barriers {
		if have.Domain == domain && have.Queue == queue && have.SrcStages == src && have.DstStages == dst {
			b = have
			break
		}
	}
	if b == nil {
		b = &Barrier{Domain: domain, Queue: queue, SrcStages: src, DstStages: dst}
		c.Barriers = append(c.Barriers, b)
	}
	if buf != nil {
		b.Buffers = append(b.Buffers, *buf)
	}
	if tex != nil {
		b.Textures = append(b.Textures, *tex)
	}
}

func appendHandoff(list []*Handoff, h *Handoff) []*Handoff {
	for _, have := range list {
		if have == h {
			return list
		}
	}
	return append(list, h)
}
