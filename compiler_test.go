package framegraph

import (
	"testing"

	"github.com/gogpu/gputypes"
)

func TestCrossQueueWriteThenRead(t *testing.T) {
	f := newFixture(t)
	r := f.buffer("R")
	x := code("X", QueueCompute, WriteBuffer(r, StageComputeShader))
	y := code("Y", QueueGraphics, ReadBuffer(r, StagePixelShader))
	f.add(x, y)
	p := f.script.Compile()

	xc, yc := x.Compiled(), y.Compiled()
	if len(xc.Signals) != 1 || len(yc.Waits) != 1 {
		t.Fatalf("signals = %d, waits = %d, want 1 and 1", len(xc.Signals), len(yc.Waits))
	}
	h := yc.Waits[0]
	if xc.Signals[0] != h {
		t.Fatal("producer and consumer do not share the handoff")
	}
	if h.From != QueueCompute || h.To != QueueGraphics {
		t.Errorf("handoff %s->%s, want Compute->Graphics", h.From, h.To)
	}
	if h.SrcStages != StageComputeShader.Mask() || h.DstStages != StagePixelShader.Mask() {
		t.Errorf("handoff stages %s->%s", h.SrcStages, h.DstStages)
	}
	if len(h.Buffers) != 1 || h.Buffers[0].SrcAccess != AccessWrite || h.Buffers[0].DstAccess != AccessRead {
		t.Errorf("handoff entries = %+v", h.Buffers)
	}
	if n := xc.BarrierCount() + yc.BarrierCount(); n != 0 {
		t.Errorf("pipeline barriers = %d, want 0", n)
	}
	if got := p.Stats().Events; got != 1 {
		t.Errorf("Stats().Events = %d, want 1", got)
	}
}

func TestDisjointWritesNeedNoBarrier(t *testing.T) {
	f := newFixture(t)
	r := f.buffer("R")
	x := code("X", QueueGraphics, bufDep(r, StageComputeShader, AccessWrite, 0, 10))
	y := code("Y", QueueGraphics, bufDep(r, StageComputeShader, AccessWrite, 10, 10))
	f.add(x, y)
	p := f.script.Compile()

	if n := y.Compiled().BarrierCount(); n != 0 {
		t.Errorf("Y barriers = %d, want 0", n)
	}
	if got := p.Stats(); got.Barriers != 0 || got.Events != 0 {
		t.Errorf("Stats() = %+v, want no synchronization", got)
	}
}

func TestBufferConflictCompleteness(t *testing.T) {
	tests := []struct {
		name string
		x, y BufferDependency
		want bool
	}{
		{"write then overlapping read", bufDep(1, StageComputeShader, AccessWrite, 0, 10), bufDep(1, StagePixelShader, AccessRead, 5, 10), true},
		{"write then overlapping write", bufDep(1, StageComputeShader, AccessWrite, 0, 10), bufDep(1, StageComputeShader, AccessWrite, 9, 1), true},
		{"read then overlapping write", bufDep(1, StagePixelShader, AccessRead, 0, 10), bufDep(1, StageTransfer, AccessWrite, 0, 10), true},
		{"write then whole-buffer read", bufDep(1, StageComputeShader, AccessWrite, 512, 16), ReadBuffer(1, StageComputeShader), true},
		{"read then read", bufDep(1, StagePixelShader, AccessRead, 0, 10), bufDep(1, StageComputeShader, AccessRead, 0, 10), false},
		{"write then disjoint read", bufDep(1, StageComputeShader, AccessWrite, 0, 10), bufDep(1, StagePixelShader, AccessRead, 10, 10), false},
		{"write then disjoint write", bufDep(1, StageComputeShader, AccessWrite, 100, 10), bufDep(1, StageComputeShader, AccessWrite, 0, 100), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if id := f.buffer("R"); id != 1 {
				t.Fatalf("buffer id = %d, want 1", id)
			}
			if got := tt.x.Conflicts(tt.y); got != tt.want {
				t.Errorf("Conflicts() = %v, want %v", got, tt.want)
			}
			x := code("X", QueueGraphics, tt.x)
			y := code("Y", QueueGraphics, tt.y)
			f.add(x, y)
			f.script.Compile()

			if n := x.Compiled().BarrierCount(); n != 0 {
				t.Errorf("X barriers = %d, want 0", n)
			}
			yc := y.Compiled()
			if got := yc.BarrierCount() > 0; got != tt.want {
				t.Fatalf("Y has barrier = %v, want %v", got, tt.want)
			}
			if !tt.want {
				return
			}
			b := yc.Barriers[0]
			if b.SrcStages != tt.x.Stage.Mask() || b.DstStages != tt.y.Stage.Mask() {
				t.Errorf("barrier stages %s->%s, want %s->%s", b.SrcStages, b.DstStages, tt.x.Stage, tt.y.Stage)
			}
			if !b.Buffers[0].Range.Overlaps(tt.x.Range) || !b.Buffers[0].Range.Overlaps(tt.y.Range) {
				t.Errorf("barrier range %s outside overlap of %s and %s", b.Buffers[0].Range, tt.x.Range, tt.y.Range)
			}
		})
	}
}

func TestTextureConflictCompleteness(t *testing.T) {
	depth := TextureRange{Aspect: AspectDepth}
	stencil := TextureRange{Aspect: AspectStencil}
	layer := func(l uint32) TextureRange { return TextureRange{BaseLayer: l, LayerCount: 1} }
	tests := []struct {
		name   string
		xr, yr TextureRange
		xa, ya Access
		want   bool
	}{
		{"full write then mip read", FullTexture(), Mip(1), AccessWrite, AccessRead, true},
		{"mip write then other mip read", Mip(0), Mip(1), AccessWrite, AccessRead, false},
		{"mip write then same mip read", Mip(2), Mip(2), AccessWrite, AccessRead, true},
		{"depth write then stencil read", depth, stencil, AccessWrite, AccessRead, false},
		{"depth write then full read", depth, FullTexture(), AccessWrite, AccessRead, true},
		{"layer writes", layer(0), layer(1), AccessWrite, AccessWrite, false},
		{"reads only", FullTexture(), FullTexture(), AccessRead, AccessRead, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tex := f.texture("T")
			x := code("X", QueueGraphics, TextureDependency{Texture: tex, Stage: StageComputeShader, Access: tt.xa, Range: tt.xr})
			y := code("Y", QueueGraphics, TextureDependency{Texture: tex, Stage: StagePixelShader, Access: tt.ya, Range: tt.yr})
			f.add(x, y)
			f.script.Compile()

			yc := y.Compiled()
			if got := yc.BarrierCount() > 0; got != tt.want {
				t.Fatalf("Y has barrier = %v, want %v", got, tt.want)
			}
			if tt.want {
				e := yc.Barriers[0].Textures[0]
				if !e.Range.Overlaps(tt.xr) || !e.Range.Overlaps(tt.yr) {
					t.Errorf("barrier range %s outside overlap", e.Range)
				}
				if e.DstUsage != StagePixelShader.TextureUsage(tt.ya) {
					t.Errorf("DstUsage = %v, want %v", e.DstUsage, StagePixelShader.TextureUsage(tt.ya))
				}
			}
		})
	}
}

func TestBarrierRestrictedToOverlap(t *testing.T) {
	f := newFixture(t)
	r := f.buffer("R")
	w := code("W", QueueCompute, bufDep(r, StageComputeShader, AccessWrite, 0, 100))
	r1 := code("R1", QueueCompute, bufDep(r, StageComputeShader, AccessRead, 50, 10))
	r2 := code("R2", QueueCompute, bufDep(r, StageComputeShader, AccessRead, 0, 10))
	r3 := code("R3", QueueCompute, bufDep(r, StageComputeShader, AccessRead, 55, 3))
	w2 := code("W2", QueueCompute, WriteBuffer(r, StageComputeShader))
	f.add(w, r1, r2, r3, w2)
	f.script.Compile()

	check := func(c *Code, want BufferRange) {
		t.Helper()
		cc := c.Compiled()
		if cc.BarrierCount() != 1 {
			t.Fatalf("%s barriers = %d, want 1", c.Name, cc.BarrierCount())
		}
		if got := cc.Barriers[0].Buffers[0].Range; got != want {
			t.Errorf("%s barrier range = %s, want %s", c.Name, got, want)
		}
	}
	check(r1, BufferRange{Offset: 50, Size: 10})
	check(r2, BufferRange{Offset: 0, Size: 10})
	if n := r3.Compiled().BarrierCount(); n != 0 {
		t.Errorf("R3 barriers = %d, want 0: the region is already visible to its stage", n)
	}

	// W2 must order after every prior accessor of [0, 100). Entries with
	// the same stages merge into a single barrier.
	w2c := w2.Compiled()
	if len(w2c.Barriers) != 1 {
		t.Fatalf("W2 barriers = %d, want 1 merged", len(w2c.Barriers))
	}
	var covered uint64
	for _, e := range w2c.Barriers[0].Buffers {
		if e.Range.Offset+e.Range.Size > 100 {
			t.Errorf("W2 synchronized untouched range %s", e.Range)
		}
		covered += e.Range.Size
	}
	if covered != 100 {
		t.Errorf("W2 barrier covers %d bytes, want 100", covered)
	}
}

func TestReadAfterWriteNewStage(t *testing.T) {
	f := newFixture(t)
	r := f.buffer("R")
	w := code("W", QueueGraphics, WriteBuffer(r, StageComputeShader))
	r1 := code("R1", QueueGraphics, ReadBuffer(r, StagePixelShader))
	r2 := code("R2", QueueGraphics, ReadBuffer(r, StageVertexShader))
	r3 := code("R3", QueueGraphics, ReadBuffer(r, StagePixelShader))
	f.add(w, r1, r2, r3)
	f.script.Compile()

	for _, tc := range []struct {
		c    *Code
		want int
	}{{r1, 1}, {r2, 1}, {r3, 0}} {
		cc := tc.c.Compiled()
		if got := cc.BarrierCount(); got != tc.want {
			t.Errorf("%s barriers = %d, want %d", tc.c.Name, got, tc.want)
			continue
		}
		if tc.want > 0 && cc.Barriers[0].SrcStages != StageComputeShader.Mask() {
			t.Errorf("%s barrier source = %s, want the writer's stage", tc.c.Name, cc.Barriers[0].SrcStages)
		}
	}
}

func TestWriteAfterReads(t *testing.T) {
	f := newFixture(t)
	r := f.buffer("R")
	r1 := code("R1", QueueGraphics, ReadBuffer(r, StagePixelShader))
	r2 := code("R2", QueueGraphics, ReadBuffer(r, StageComputeShader))
	r3 := code("R3", QueueCompute, ReadBuffer(r, StageComputeShader))
	w := code("W", QueueGraphics, WriteBuffer(r, StageTransfer))
	f.add(r1, r2, r3, w)
	p := f.script.Compile()

	for _, c := range []*Code{r1, r2, r3} {
		if n := c.Compiled().BarrierCount(); n != 0 {
			t.Errorf("%s barriers = %d, want 0 between reads", c.Name, n)
		}
	}
	wc := w.Compiled()
	if len(wc.Barriers) != 1 || wc.BarrierCount() != 1 {
		t.Fatalf("W barriers = %d entries in %d barriers, want 1", wc.BarrierCount(), len(wc.Barriers))
	}
	if got, want := wc.Barriers[0].SrcStages, StagePixelShader.Mask()|StageComputeShader.Mask(); got != want {
		t.Errorf("W barrier source = %s, want %s", got, want)
	}
	if len(wc.Waits) != 1 || len(r3.Compiled().Signals) != 1 {
		t.Fatalf("compute reader handoff missing: waits %d, signals %d", len(wc.Waits), len(r3.Compiled().Signals))
	}
	if h := wc.Waits[0]; h.Buffers[0].SrcAccess != AccessRead || h.From != QueueCompute {
		t.Errorf("handoff = %s, want a read release from Compute", h)
	}
	if p.Stats().Barriers != 1 || p.Stats().Events != 1 {
		t.Errorf("Stats() = %+v", p.Stats())
	}
}

func TestOpDoesNotSynchronizeWithItself(t *testing.T) {
	f := newFixture(t)
	r := f.buffer("R")
	w := code("W", QueueGraphics, WriteBuffer(r, StageComputeShader))
	rw := code("RW", QueueGraphics, ReadBuffer(r, StageComputeShader), WriteBuffer(r, StageComputeShader))
	f.add(w, rw)
	f.script.Compile()

	if n := rw.Compiled().BarrierCount(); n != 1 {
		t.Errorf("RW barriers = %d, want 1 against W only", n)
	}
}

func TestHandoffsMergePerProducerConsumer(t *testing.T) {
	f := newFixture(t)
	a, b := f.buffer("A"), f.buffer("B")
	x := code("X", QueueCompute, WriteBuffer(a, StageComputeShader), WriteBuffer(b, StageComputeShader))
	y := code("Y", QueueGraphics, ReadBuffer(a, StageVertexShader), ReadBuffer(b, StagePixelShader))
	f.add(x, y)
	p := f.script.Compile()

	st := p.Stats()
	if st.Events != 1 || st.Handoffs != 2 {
		t.Fatalf("Stats() = %+v, want one event carrying two entries", st)
	}
	h := p.Handoffs()[0]
	if h.DstStages != StageVertexShader.Mask()|StagePixelShader.Mask() {
		t.Errorf("handoff destination = %s", h.DstStages)
	}
}

func TestFirstTouchTransition(t *testing.T) {
	tests := []struct {
		name    string
		initial gputypes.TextureUsage
		want    int
	}{
		{"differs", gputypes.TextureUsageCopyDst, 1},
		{"matches", gputypes.TextureUsageTextureBinding, 0},
		{"unset", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tex, err := f.res.AddTexture(TextureInfo{Name: "T", Width: 4, Height: 4, InitialUsage: tt.initial})
			if err != nil {
				t.Fatal(err)
			}
			r := code("R", QueueGraphics, ReadTexture(tex, StagePixelShader))
			f.add(r)
			p := f.script.Compile()

			if got := p.Stats().Transitions; got != tt.want {
				t.Fatalf("Transitions = %d, want %d", got, tt.want)
			}
			if tt.want == 0 {
				return
			}
			b := r.Compiled().Barriers[0]
			if b.SrcStages != StageTop.Mask() || b.Textures[0].SrcUsage != tt.initial {
				t.Errorf("transition = %s from usage %v", b, b.Textures[0].SrcUsage)
			}
		})
	}
}
