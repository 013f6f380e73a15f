package framegraph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gogpu/gputypes"
)

// mockCmd records every command as a short string.
type mockCmd struct {
	calls []string
}

func (m *mockCmd) record(format string, args ...any) {
	m.calls = append(m.calls, fmt.Sprintf(format, args...))
}

func (m *mockCmd) BeginMarker(name string)         { m.record("begin %s", name) }
func (m *mockCmd) EndMarker()                      { m.record("end") }
func (m *mockCmd) Barrier(b *Barrier)              { m.record("barrier %s->%s", b.SrcStages, b.DstStages) }
func (m *mockCmd) SignalEvent(_ Event, h *Handoff) { m.record("signal %d", h.Slot) }
func (m *mockCmd) WaitEvent(_ Event, h *Handoff)   { m.record("wait %d", h.Slot) }
func (m *mockCmd) BeginPass(p *PassInfo)           { m.record("pass %s/%d", p.Name, p.Subpasses) }
func (m *mockCmd) NextSubpass()                    { m.record("next") }
func (m *mockCmd) EndPass()                        { m.record("endpass") }
func (m *mockCmd) Blit(b *BlitInfo)                { m.record("blit %d->%d", b.From, b.To) }
func (m *mockCmd) CopyBuffer(c *CopyInfo)          { m.record("copy %d->%d", c.From, c.To) }

// mockFactory counts resource factory calls.
type mockFactory struct {
	created map[TextureID][2]uint32
	resized map[TextureID][2]uint32
	buffers int
	failOn  string
}

func newMockFactory() *mockFactory {
	return &mockFactory{created: map[TextureID][2]uint32{}, resized: map[TextureID][2]uint32{}}
}

var errFactory = errors.New("factory failure")

func (f *mockFactory) CreateBuffer(_ BufferID, info BufferInfo) error {
	if info.Name == f.failOn {
		return errFactory
	}
	f.buffers++
	return nil
}

func (f *mockFactory) CreateTexture(id TextureID, info TextureInfo, w, h uint32) error {
	if info.Name == f.failOn {
		return errFactory
	}
	f.created[id] = [2]uint32{w, h}
	return nil
}

func (f *mockFactory) ResizeTexture(id TextureID, info TextureInfo, w, h uint32) error {
	if info.Name == f.failOn {
		return errFactory
	}
	f.resized[id] = [2]uint32{w, h}
	return nil
}

func (f *mockFactory) DestroyBuffer(BufferID)   { f.buffers-- }
func (f *mockFactory) DestroyTexture(TextureID) {}

type fixture struct {
	t      testing.TB
	reg    *Registry
	res    *Resources
	script *Script
}

func newFixture(t testing.TB) *fixture {
	t.Helper()
	res, err := NewResources(nil, 800, 600, gputypes.TextureFormatBGRA8Unorm)
	if err != nil {
		t.Fatalf("NewResources() error = %v", err)
	}
	reg := NewRegistry()
	s, err := NewScript("test", reg, res, ScriptOptions{BufferedFrames: 2})
	if err != nil {
		t.Fatalf("NewScript() error = %v", err)
	}
	return &fixture{t: t, reg: reg, res: res, script: s}
}

func (f *fixture) buffer(name string) BufferID {
	f.t.Helper()
	id, err := f.res.AddBuffer(BufferInfo{Name: name, Size: 1024})
	if err != nil {
		f.t.Fatalf("AddBuffer(%q) error = %v", name, err)
	}
	return id
}

func (f *fixture) texture(name string) TextureID {
	f.t.Helper()
	id, err := f.res.AddTexture(TextureInfo{
		Name: name, Format: gputypes.TextureFormatRGBA8Unorm,
		Width: 64, Height: 64, Mips: 4, Layers: 2,
	})
	if err != nil {
		f.t.Fatalf("AddTexture(%q) error = %v", name, err)
	}
	return id
}

func (f *fixture) add(nodes ...Node) {
	for _, n := range nodes {
		f.script.AddOp(n)
	}
}

func nop(CommandBuffer, int, int) {}

// code builds a Code op on q with the given buffer and texture deps.
func code(name string, q Queue, deps ...any) *Code {
	c := &Code{Func: nop}
	c.Name = name
	c.Queue = q
	for _, d := range deps {
		switch d := d.(type) {
		case BufferDependency:
			c.Buffers = append(c.Buffers, d)
		case TextureDependency:
			c.Textures = append(c.Textures, d)
		default:
			panic(fmt.Sprintf("code: unsupported dependency %T", d))
		}
	}
	return c
}

func subgraph(name string, domain Domain) *Subgraph {
	s := &Subgraph{}
	s.Name = name
	s.Domain = domain
	return s
}

func bufDep(id BufferID, stage Stage, access Access, offset, size uint64) BufferDependency {
	return BufferDependency{Buffer: id, Stage: stage, Access: access, Range: BufferRange{Offset: offset, Size: size}}
}

// mustPanic fails unless fn panics with an error wrapping want.
func mustPanic(t *testing.T, want error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("expected panic wrapping %v", want)
		}
		err, ok := r.(error)
		if !ok {
			t.Fatalf("panic value %T(%v) is not an error", r, r)
		}
		if !errors.Is(err, want) {
			t.Fatalf("panic = %v, want wrapping %v", err, want)
		}
	}()
	fn()
}
