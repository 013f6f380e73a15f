package framegraph

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

// captureLogs installs a debug-level text logger for the duration of t.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	return captureLevel(t, slog.LevelDebug)
}

func captureLevel(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})))
	return &buf
}

func TestSetLoggerNilRestoresSilent(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	SetLogger(slog.Default())
	SetLogger(nil)
	l := Logger()
	if l == nil {
		t.Fatal("SetLogger(nil) left a nil logger")
	}
	if l.Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) produced an enabled logger")
	}
}

func TestCompileAndResizeLogLevels(t *testing.T) {
	logs := captureLogs(t)
	f := newFixture(t)
	r := f.buffer("Lights")
	f.add(
		code("Cull", QueueCompute, WriteBuffer(r, StageComputeShader)),
		code("Shade", QueueGraphics, ReadBuffer(r, StagePixelShader)),
	)
	f.script.Compile()
	if err := f.script.OnWindowResized(0, 1024, 768); err != nil {
		t.Fatal(err)
	}

	out := logs.String()
	for _, want := range []string{
		`level=INFO msg="framegraph: script compiled"`,
		"events=1",
		`level=DEBUG msg="framegraph: build stats"`,
		"handoffs=1",
		`level=INFO msg="framegraph: window resized"`,
		"width=1024 height=768",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("logs lack %q:\n%s", want, out)
		}
	}
}

func TestCompileSilentAtWarn(t *testing.T) {
	logs := captureLevel(t, slog.LevelWarn)
	f := newFixture(t)
	f.add(code("Cull", QueueCompute))
	f.script.Compile()
	if logs.Len() != 0 {
		t.Errorf("clean compile logged at warn level:\n%s", logs.String())
	}

	f.add(subgraph("Missing", DomainGlobal))
	f.script.Compile()
	if !strings.Contains(logs.String(), `level=WARN msg="framegraph: unknown subgraph" name=Missing`) {
		t.Errorf("unknown subgraph not warned:\n%s", logs.String())
	}
}

func BenchmarkLoggerDisabledLog(b *testing.B) {
	l := Logger()
	b.ReportAllocs()
	for b.Loop() {
		l.Debug("message", "key", "value")
	}
}
