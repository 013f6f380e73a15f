package framegraph

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAddSubgraphDuplicatePanics(t *testing.T) {
	reg := NewRegistry()
	reg.AddSubgraph("Lights Cull", []Node{code("A", QueueCompute)})
	mustPanic(t, ErrDuplicateSubgraph, func() {
		reg.AddSubgraph("Lights Cull", []Node{code("B", QueueCompute)})
	})
	if got := reg.GetSubgraph("Lights Cull"); len(got) != 1 || got[0].Base().Name != "A" {
		t.Errorf("first registration replaced: %v", got)
	}
}

func TestAddSubgraphNilOpPanics(t *testing.T) {
	reg := NewRegistry()
	mustPanic(t, ErrNilNode, func() {
		reg.AddSubgraph("Broken", []Node{code("A", QueueGraphics), nil})
	})
	if reg.Has("Broken") {
		t.Error("partial registration stored")
	}
}

func TestGetSubgraphUnknown(t *testing.T) {
	logs := captureLogs(t)
	reg := NewRegistry()
	if got := reg.GetSubgraph("Does Not Exist"); len(got) != 0 {
		t.Errorf("GetSubgraph() = %v, want empty", got)
	}
	out := logs.String()
	if !strings.Contains(out, "unknown subgraph") || !strings.Contains(out, "Does Not Exist") {
		t.Errorf("missing diagnostic, logs:\n%s", out)
	}
}

func TestUnknownSubgraphBuildsEmpty(t *testing.T) {
	logs := captureLogs(t)
	f := newFixture(t)
	s := subgraph("Missing", DomainPass)
	f.add(s, code("After", QueueGraphics))
	p := f.script.Compile()
	if len(s.Compiled().Children) != 0 {
		t.Error("unknown subgraph produced children")
	}
	if p.Stats().Unresolved != 1 || p.Stats().Ops != 2 {
		t.Errorf("Stats() = %+v", p.Stats())
	}
	if !strings.Contains(logs.String(), "Missing") {
		t.Error("unknown subgraph not logged during build")
	}
}

func TestRegistryReturnsCopies(t *testing.T) {
	reg := NewRegistry()
	ops := []Node{code("A", QueueGraphics), code("B", QueueGraphics)}
	reg.AddSubgraph("F", ops)
	ops[0] = code("Z", QueueGraphics)
	got := reg.GetSubgraph("F")
	if got[0].Base().Name != "A" {
		t.Error("registry aliases the caller's slice")
	}
	got[1] = nil
	if reg.GetSubgraph("F")[1] == nil {
		t.Error("registry returned its own slice")
	}
}

func TestRegistryNamesAndRemove(t *testing.T) {
	reg := NewRegistry()
	for _, n := range []string{"Shadows", "Lights Cull", "Bloom"} {
		reg.AddSubgraph(n, nil)
	}
	if diff := cmp.Diff([]string{"Bloom", "Lights Cull", "Shadows"}, reg.Names()); diff != "" {
		t.Errorf("Names() (-want +got):\n%s", diff)
	}
	if !reg.RemoveSubgraph("Bloom") || reg.RemoveSubgraph("Bloom") {
		t.Error("RemoveSubgraph() reported wrong presence")
	}
	if reg.Len() != 2 || reg.Has("Bloom") {
		t.Errorf("after remove: Len() = %d, Has(Bloom) = %v", reg.Len(), reg.Has("Bloom"))
	}
	reg.AddSubgraph("Bloom", []Node{code("B", QueueGraphics)})
	if !reg.Has("Bloom") {
		t.Error("re-registration after remove failed")
	}
}

func TestRegistrationAfterScriptDeclared(t *testing.T) {
	f := newFixture(t)
	s := subgraph("Late", DomainGlobal)
	f.add(s)
	f.script.Compile()
	if len(s.Compiled().Children) != 0 {
		t.Fatal("unexpected children before registration")
	}
	f.reg.AddSubgraph("Late", []Node{code("L", QueueGraphics)})
	f.script.Compile()
	if len(s.Compiled().Children) != 1 {
		t.Error("late registration not picked up by rebuild")
	}
}
