package main

import (
	"bytes"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zclconf/go-cty/cty"
)

const frameScript = `
buffer "Lights" {
  size = var.lights * 16
}

texture "HDR" {
  relative = true
  width    = 1
  height   = 1
}

code "Cull" {
  func  = "cull"
  queue = "compute"
  write "Lights" {
    stage = "compute_shader"
  }
}

pass "Forward" {
  attachment "HDR" {}
  subpass "Main" {
    code "Shade" {
      func = "shade"
      read "Lights" {
        stage = "pixel_shader"
      }
    }
  }
}

blit "Present" {
  from = "HDR"
  to   = "__WINDOW__"
}
`

func writeScript(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "frame.hcl")
	if err := os.WriteFile(path, []byte(frameScript), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunDump(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run(&stdout, &stderr, []string{"-var", "lights=8", writeScript(t)}); err != nil {
		t.Fatalf("run() error = %v\n%s", err, stderr.String())
	}
	out := stdout.String()
	for _, want := range []string{`program "frame"`, `Code "Cull" on Compute`, `Pass "Forward" on Graphics`, `Blit "Present"`, "signal event 0", "wait event 0"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("colour written to a non-terminal")
	}
}

func TestRunReplay(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run(&stdout, &stderr, []string{"-replay", "-color", "never", "-var", "lights=8", writeScript(t)}); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	out := stdout.String()
	for _, want := range []string{"queue Graphics:", "queue Compute:", "begin Cull", "begin Present"} {
		if !strings.Contains(out, want) {
			t.Errorf("replay lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "queue Transfer:") {
		t.Error("empty transfer queue printed")
	}
}

func TestRunTimeline(t *testing.T) {
	pngPath := filepath.Join(t.TempDir(), "frame.png")
	var stdout, stderr bytes.Buffer
	if err := run(&stdout, &stderr, []string{"-timeline", pngPath, "-flatten", "-var", "lights=1", writeScript(t)}); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	f, err := os.Open(pngPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Errorf("timeline is not a PNG: %v", err)
	}
	if !strings.Contains(stderr.String(), "timeline written") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunColor(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run(&stdout, &stderr, []string{"-color", "always", "-var", "lights=1", writeScript(t)}); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(stdout.String(), ansiGreen+"Code"+ansiReset) {
		t.Errorf("kinds not highlighted:\n%q", stdout.String())
	}
}

func TestRunErrors(t *testing.T) {
	script := writeScript(t)
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no script", nil, 2},
		{"two scripts", []string{"a.hcl", "b.hcl"}, 2},
		{"bad color", []string{"-color", "rainbow", script}, 2},
		{"bad level", []string{"-log-level", "loud", script}, 2},
		{"bad flag", []string{"-nope", script}, 2},
		{"bad var", []string{"-var", "novalue", script}, 2},
		{"missing file", []string{filepath.Join(t.TempDir(), "none.hcl")}, 1},
		{"missing variable", []string{script}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(&stdout, &stderr, tt.args)
			if err == nil {
				t.Fatal("run() error = nil")
			}
			code := 1
			var e *exitError
			if errors.As(err, &e) {
				code = e.code
			}
			if code != tt.code {
				t.Errorf("exit code = %d, want %d (%v)", code, tt.code, err)
			}
		})
	}
}

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run(&stdout, &stderr, []string{"-h"}); err != nil {
		t.Errorf("run(-h) error = %v", err)
	}
	if !strings.Contains(stderr.String(), "Usage: fgdump") {
		t.Errorf("usage not printed: %q", stderr.String())
	}
}

func TestVarsSet(t *testing.T) {
	v := vars{}
	for _, s := range []string{"n=4", "debug=true", "name=forward"} {
		if err := v.Set(s); err != nil {
			t.Fatalf("Set(%q) error = %v", s, err)
		}
	}
	if !v["n"].Equals(cty.NumberIntVal(4)).True() {
		t.Errorf("n = %#v", v["n"])
	}
	if !v["debug"].RawEquals(cty.True) {
		t.Errorf("debug = %#v", v["debug"])
	}
	if !v["name"].RawEquals(cty.StringVal("forward")) {
		t.Errorf("name = %#v", v["name"])
	}
	if err := v.Set("=1"); err == nil {
		t.Error("Set(=1) accepted an empty name")
	}
}

func TestColorize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  barrier Graphics", "  " + ansiYellow + "barrier Graphics" + ansiReset},
		{`Pass "Forward" on Graphics`, ansiGreen + "Pass" + ansiReset + ` "Forward" on Graphics`},
		{"    wait event 0", "    " + ansiCyan + "wait event 0" + ansiReset},
		{"other", "other"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := colorize(tt.in); got != tt.want {
			t.Errorf("colorize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
