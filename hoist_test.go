package framegraph

import (
	"strings"
	"testing"
)

func newPass(name string, q Queue, subpasses ...*Subpass) *Pass {
	p := &Pass{Subpasses: subpasses}
	p.Name = name
	p.Queue = q
	return p
}

func newSubpass(name string, q Queue, ops ...Node) *Subpass {
	sp := &Subpass{Ops: ops}
	sp.Name = name
	sp.Queue = q
	return sp
}

func TestPassDomainSubgraphHoistsUnion(t *testing.T) {
	f := newFixture(t)
	r, r2 := f.buffer("R"), f.buffer("R2")
	w := code("W", QueueGraphics, WriteBuffer(r, StageComputeShader))
	a := code("A", QueueGraphics, ReadBuffer(r, StagePixelShader))
	b := code("B", QueueGraphics, WriteBuffer(r2, StageComputeShader))
	c := code("C", QueueGraphics, ReadBuffer(r2, StageVertexShader))
	f.reg.AddSubgraph("Shade", []Node{a, b, c})
	s := subgraph("Shade", DomainPass)
	f.add(w, s)
	p := f.script.Compile()

	sc := s.Compiled()
	if got := sc.BarrierCount(); got != 2 {
		t.Fatalf("subgraph barriers = %d, want 2", got)
	}
	for _, b := range sc.Barriers {
		if b.Domain != DomainPass {
			t.Errorf("hoisted barrier domain = %s, want Pass", b.Domain)
		}
	}
	for _, child := range []*Code{a, b, c} {
		cc := child.Compiled()
		if n := cc.BarrierCount() + len(cc.Waits) + len(cc.Signals); n != 0 {
			t.Errorf("child %s carries %d synchronization entries, want 0", child.Name, n)
		}
	}
	if len(sc.Children) != 3 {
		t.Errorf("subgraph children = %d, want 3", len(sc.Children))
	}
	if st := p.Stats(); st.Hoisted != 2 || st.Barriers != 2 {
		t.Errorf("Stats() = %+v, want 2 hoisted barriers", st)
	}
}

func TestNestedPassSubgraphHoistsToOutermost(t *testing.T) {
	f := newFixture(t)
	r := f.buffer("R")
	w := code("W", QueueGraphics, WriteBuffer(r, StageComputeShader))
	leaf := code("Leaf", QueueGraphics, ReadBuffer(r, StagePixelShader))
	f.reg.AddSubgraph("Inner", []Node{leaf})
	inner := subgraph("Inner", DomainPass)
	f.reg.AddSubgraph("Outer", []Node{inner})
	outer := subgraph("Outer", DomainPass)
	f.add(w, outer)
	f.script.Compile()

	if got := outer.Compiled().BarrierCount(); got != 1 {
		t.Errorf("outer barriers = %d, want 1", got)
	}
	if got := inner.Compiled().BarrierCount(); got != 0 {
		t.Errorf("inner barriers = %d, want 0", got)
	}
}

func TestPassHoistsSubpassWaits(t *testing.T) {
	f := newFixture(t)
	r := f.buffer("R")
	color := f.texture("Color")
	produce := code("Produce", QueueCompute, WriteBuffer(r, StageComputeShader))
	draw := code("Draw", QueueGraphics, ReadBuffer(r, StagePixelShader))
	pass := newPass("Main", QueueGraphics, newSubpass("Geometry", QueueGraphics, draw))
	pass.Attachments = []Attachment{{Texture: color}}
	f.add(produce, pass)
	f.script.Compile()

	pc := pass.Compiled()
	if len(pc.Waits) != 1 {
		t.Fatalf("pass waits = %d, want 1", len(pc.Waits))
	}
	if dc := draw.Compiled(); len(dc.Waits) != 0 || dc.BarrierCount() != 0 {
		t.Errorf("draw carries synchronization inside the pass: %d waits, %d barriers", len(dc.Waits), dc.BarrierCount())
	}
	if got := produce.Compiled().Signals; len(got) != 1 || got[0] != pc.Waits[0] {
		t.Errorf("producer signals = %v, want the pass handoff", got)
	}
	if pc.Pass == nil || pc.Pass.Subpasses != 1 {
		t.Errorf("pass info = %+v, want one subpass", pc.Pass)
	}
}

func TestPassSubpassInputDependency(t *testing.T) {
	f := newFixture(t)
	gbuf := f.texture("GBuffer")
	out := f.texture("Out")
	first := newSubpass("Fill", QueueGraphics, code("Fill", QueueGraphics))
	skipped := newSubpass("Debug", QueueGraphics, code("Debug", QueueGraphics))
	skipped.Disabled = true
	second := newSubpass("Resolve", QueueGraphics, code("Resolve", QueueGraphics))
	second.Inputs = []int{0}
	pass := newPass("Deferred", QueueGraphics, first, skipped, second)
	pass.Attachments = []Attachment{{Texture: gbuf}, {Texture: out}}
	f.add(pass)
	f.script.Compile()

	pc := pass.Compiled()
	if pc.Pass.Subpasses != 2 || len(pc.Children) != 2 {
		t.Fatalf("subpasses = %d (%d compiled), want 2 enabled", pc.Pass.Subpasses, len(pc.Children))
	}
	if got := pc.BarrierCount(); got != 1 {
		t.Fatalf("pass barriers = %d, want 1 for the input attachment", got)
	}
	b := pc.Barriers[0]
	if b.SrcStages != StageColorAttachment.Mask() || b.DstStages != StagePixelShader.Mask() {
		t.Errorf("input barrier %s->%s", b.SrcStages, b.DstStages)
	}
	if b.Textures[0].Texture != gbuf {
		t.Errorf("input barrier texture = %d, want %d", b.Textures[0].Texture, gbuf)
	}
	if skipped.Compiled() != nil {
		t.Error("disabled subpass was compiled")
	}
}

func TestHoistingNeverCrossesQueues(t *testing.T) {
	f := newFixture(t)
	r := f.buffer("R")
	w := code("W", QueueCompute, WriteBuffer(r, StageComputeShader))
	k := code("K", QueueCompute, WriteBuffer(r, StageComputeShader))
	f.reg.AddSubgraph("Async", []Node{k})
	s := subgraph("Async", DomainPass)
	f.add(w, s)
	p := f.script.Compile()

	if got := s.Compiled().BarrierCount(); got != 0 {
		t.Errorf("graphics subgraph barriers = %d, want 0", got)
	}
	kc := k.Compiled()
	if kc.BarrierCount() != 1 {
		t.Fatalf("compute child barriers = %d, want 1", kc.BarrierCount())
	}
	if kc.Barriers[0].Domain != DomainGlobal || kc.Barriers[0].Queue != QueueCompute {
		t.Errorf("child barrier = %s", kc.Barriers[0])
	}
	if p.Stats().Hoisted != 0 {
		t.Errorf("Hoisted = %d, want 0", p.Stats().Hoisted)
	}
}

func TestPassDomainLeafHoistsToScope(t *testing.T) {
	f := newFixture(t)
	r := f.buffer("R")
	w := code("W", QueueGraphics, WriteBuffer(r, StageComputeShader))
	hoisted := code("Hoisted", QueueGraphics, ReadBuffer(r, StagePixelShader))
	hoisted.Domain = DomainPass
	inline := code("Inline", QueueGraphics, ReadBuffer(r, StageVertexShader))
	f.reg.AddSubgraph("Mixed", []Node{hoisted, inline})
	s := subgraph("Mixed", DomainGlobal)
	f.add(w, s)
	f.script.Compile()

	if got := s.Compiled().BarrierCount(); got != 1 {
		t.Errorf("scope barriers = %d, want 1 from the pass domain leaf", got)
	}
	if got := hoisted.Compiled().BarrierCount(); got != 0 {
		t.Errorf("pass domain leaf barriers = %d, want 0", got)
	}
	if got := inline.Compiled().BarrierCount(); got != 1 {
		t.Errorf("global leaf barriers = %d, want 1", got)
	}
}

func TestTopLevelPassDomainLeafStaysInline(t *testing.T) {
	f := newFixture(t)
	r := f.buffer("R")
	w := code("W", QueueGraphics, WriteBuffer(r, StageComputeShader))
	leaf := code("Leaf", QueueGraphics, ReadBuffer(r, StagePixelShader))
	leaf.Domain = DomainPass
	f.add(w, leaf)
	f.script.Compile()

	lc := leaf.Compiled()
	if lc.BarrierCount() != 1 || lc.Barriers[0].Domain != DomainPass {
		t.Errorf("leaf barriers = %v, want one inline pass domain barrier", lc.Barriers)
	}
}

// signalsBeforeWaits fails unless every "wait N" in calls follows its
// "signal N".
func signalsBeforeWaits(t *testing.T, calls []string) {
	t.Helper()
	signaled := map[string]bool{}
	for _, c := range calls {
		if slot, ok := strings.CutPrefix(c, "signal "); ok {
			signaled[slot] = true
		}
		if slot, ok := strings.CutPrefix(c, "wait "); ok && !signaled[slot] {
			t.Errorf("wait %s replays before its signal: %v", slot, calls)
		}
	}
}

func TestMixedQueueSubgraphKeepsHandoffOrder(t *testing.T) {
	tests := []struct {
		name           string
		producer, user Queue
	}{
		{"compute to graphics", QueueCompute, QueueGraphics},
		{"graphics to compute", QueueGraphics, QueueCompute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			r := f.buffer("R")
			a := code("A", tt.producer, WriteBuffer(r, StageComputeShader))
			b := code("B", tt.user, ReadBuffer(r, StagePixelShader))
			f.reg.AddSubgraph("Mixed", []Node{a, b})
			s := subgraph("Mixed", DomainPass)
			f.add(s)
			p := f.script.Compile()

			if st := p.Stats(); st.Events != 1 {
				t.Fatalf("Stats().Events = %d, want 1", st.Events)
			}
			if got := a.Compiled().Signals; len(got) != 1 {
				t.Errorf("producer signals = %d, want 1 on the producer itself", len(got))
			}
			if got := b.Compiled().Waits; len(got) != 1 {
				t.Errorf("consumer waits = %d, want 1 on the consumer itself", len(got))
			}
			if sc := s.Compiled(); len(sc.Waits)+len(sc.Signals) != 0 {
				t.Errorf("subgraph carries %d waits and %d signals, want none", len(sc.Waits), len(sc.Signals))
			}
			cmd := &mockCmd{}
			p.Run(SingleQueue(cmd), 0, 0)
			signalsBeforeWaits(t, cmd.calls)
		})
	}
}

func TestMixedQueueSubgraphHoistsOutsideHandoffs(t *testing.T) {
	f := newFixture(t)
	r := f.buffer("R")
	produce := code("Produce", QueueCompute, WriteBuffer(r, StageComputeShader))
	a := code("A", QueueGraphics, ReadBuffer(r, StagePixelShader))
	b := code("B", QueueCompute, ReadBuffer(r, StageComputeShader))
	f.reg.AddSubgraph("Mixed", []Node{a, b})
	s := subgraph("Mixed", DomainPass)
	f.add(produce, s)
	p := f.script.Compile()

	if sc := s.Compiled(); len(sc.Waits) != 1 {
		t.Errorf("subgraph waits = %d, want the handoff from outside hoisted", len(sc.Waits))
	}
	if got := a.Compiled().Waits; len(got) != 0 {
		t.Errorf("graphics child waits = %d, want 0", len(got))
	}
	cmd := &mockCmd{}
	p.Run(SingleQueue(cmd), 0, 0)
	signalsBeforeWaits(t, cmd.calls)
}
