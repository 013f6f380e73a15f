package framegraph

import (
	"strings"
	"testing"
)

func TestAuditDeclaredTouches(t *testing.T) {
	f := newFixture(t)
	r, other := f.buffer("R"), f.buffer("Other")
	c := code("C", QueueGraphics, ReadBuffer(r, StageComputeShader))
	c.Func = func(cmd CommandBuffer, _, _ int) {
		TouchBuffer(cmd, r, AccessRead)
	}
	f.add(c)
	f.script.Compile()

	audit := NewAudit(SingleQueue(&mockCmd{}), f.res)
	f.script.Run(audit, 0, 0)
	if v := audit.Violations(); len(v) != 0 {
		t.Errorf("declared touch reported: %v", v)
	}

	c.Func = func(cmd CommandBuffer, _, _ int) {
		TouchBuffer(cmd, r, AccessWrite)
		TouchBuffer(cmd, other, AccessRead)
	}
	f.script.Compile()
	logs := captureLogs(t)
	f.script.Run(audit, 0, 1)
	v := audit.Violations()
	if len(v) != 2 {
		t.Fatalf("violations = %v, want 2", v)
	}
	if v[0].Op != "C" || v[0].Resource != "R" || v[0].Access != AccessWrite {
		t.Errorf("violation[0] = %+v", v[0])
	}
	if v[1].Resource != "Other" {
		t.Errorf("violation[1] = %+v", v[1])
	}
	if !strings.Contains(v[1].String(), "undeclared Read of Other") {
		t.Errorf("String() = %q", v[1].String())
	}
	if !strings.Contains(logs.String(), "undeclared resource access") {
		t.Error("violation not logged")
	}
	audit.Reset()
	if len(audit.Violations()) != 0 {
		t.Error("Reset() kept violations")
	}
}

func TestAuditEnclosingDeclaration(t *testing.T) {
	f := newFixture(t)
	r := f.buffer("R")
	leaf := code("Leaf", QueueGraphics)
	leaf.Func = func(cmd CommandBuffer, _, _ int) { TouchBuffer(cmd, r, AccessRead) }
	f.reg.AddSubgraph("Feature", []Node{leaf})
	s := subgraph("Feature", DomainGlobal)
	s.Buffers = []BufferDependency{ReadBuffer(r, StageComputeShader)}
	f.add(s)
	f.script.Compile()

	audit := NewAudit(SingleQueue(&mockCmd{}), f.res)
	f.script.Run(audit, 0, 0)
	if v := audit.Violations(); len(v) != 0 {
		t.Errorf("touch declared by the enclosing subgraph reported: %v", v)
	}
}

func TestAuditImplicitCommands(t *testing.T) {
	f := newFixture(t)
	a, b := f.buffer("A"), f.buffer("B")
	cp := &Copy{From: a, To: b, Regions: []CopyRegion{{SrcOffset: 0, DstOffset: 16, Size: 16}}}
	cp.Name = "Upload"
	bl := &Blit{From: f.texture("T"), To: f.res.Window()}
	bl.Name = "Present"
	f.add(cp, bl)
	f.script.Compile()

	inner := &mockCmd{}
	audit := NewAudit(SingleQueue(inner), f.res)
	f.script.Run(audit, 0, 0)
	if v := audit.Violations(); len(v) != 0 {
		t.Errorf("implicit dependencies reported: %v", v)
	}
	want := []string{"copy 1->2", "blit 2->1"}
	var got []string
	for _, c := range inner.calls {
		if strings.HasPrefix(c, "copy") || strings.HasPrefix(c, "blit") {
			got = append(got, c)
		}
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("forwarded commands = %v, want %v", got, want)
	}
}

func TestAuditUnwrap(t *testing.T) {
	inner := &mockCmd{}
	audit := NewAudit(SingleQueue(inner), nil)
	u, ok := audit.Queue(QueueCompute).(interface{ Unwrap() CommandBuffer })
	if !ok {
		t.Fatal("audited command buffer has no Unwrap")
	}
	if u.Unwrap() != CommandBuffer(inner) {
		t.Error("Unwrap() did not return the wrapped command buffer")
	}
}
