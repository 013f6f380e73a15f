// Command fgdump loads a frame script, compiles it and prints the
// compiled sequence.
//
// Usage:
//
//	fgdump [options] SCRIPT.hcl
//
// Code blocks are bound to no-op callbacks, so any script compiles. With
// -replay the program is run once into recording command buffers and the
// per-queue command streams are printed as well. -timeline writes a PNG
// lane diagram of the program.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/recording"
	"github.com/gogpu/framegraph/script"
	"github.com/gogpu/framegraph/timeline"
	"github.com/zclconf/go-cty/cty"
	"golang.org/x/term"
)

// exitError carries the process exit code of a failed run.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(format string, args ...any) error {
	return &exitError{code: 2, err: fmt.Errorf(format, args...)}
}

func main() {
	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "fgdump:", err)
		var e *exitError
		if errors.As(err, &e) {
			os.Exit(e.code)
		}
		os.Exit(1)
	}
}

// vars collects repeated -var name=value flags. Values that parse as
// numbers or booleans keep that type, anything else is a string.
type vars map[string]cty.Value

func (v vars) String() string { return fmt.Sprint(len(v)) }

func (v vars) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return fmt.Errorf("want name=value, got %q", s)
	}
	switch value {
	case "true", "false":
		v[name] = cty.BoolVal(value == "true")
		return nil
	}
	if n, err := cty.ParseNumberVal(value); err == nil {
		v[name] = n
		return nil
	}
	v[name] = cty.StringVal(value)
	return nil
}

type config struct {
	path     string
	width    int
	height   int
	buffered int
	vars     vars
	replay   bool
	timeline string
	flatten  bool
	color    string
	logLevel string
}

func parse(args []string, stderr io.Writer) (*config, error) {
	cfg := &config{vars: vars{}}
	fs := flag.NewFlagSet("fgdump", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: fgdump [options] SCRIPT.hcl")
		fs.PrintDefaults()
	}
	fs.IntVar(&cfg.width, "width", script.DefaultWidth, "window width")
	fs.IntVar(&cfg.height, "height", script.DefaultHeight, "window height")
	fs.IntVar(&cfg.buffered, "buffered", framegraph.DefaultBufferedFrames, "frames in flight")
	fs.Var(cfg.vars, "var", "script variable as name=value (repeatable)")
	fs.BoolVar(&cfg.replay, "replay", false, "replay one frame and print the per-queue commands")
	fs.StringVar(&cfg.timeline, "timeline", "", "write a PNG lane diagram to this file")
	fs.BoolVar(&cfg.flatten, "flatten", false, "give nested ops their own timeline column")
	fs.StringVar(&cfg.color, "color", "auto", "colour output: auto, always or never")
	fs.StringVar(&cfg.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, &exitError{code: 2, err: err}
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, usageError("expected one script, got %d", fs.NArg())
	}
	cfg.path = fs.Arg(0)
	switch cfg.color {
	case "auto", "always", "never":
	default:
		return nil, usageError("invalid -color %q", cfg.color)
	}
	return cfg, nil
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func run(stdout, stderr io.Writer, args []string) error {
	cfg, err := parse(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	level, ok := levels[strings.ToLower(cfg.logLevel)]
	if !ok {
		return usageError("invalid -log-level %q", cfg.logLevel)
	}
	framegraph.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
	defer framegraph.SetLogger(nil)

	f, err := script.LoadFile(cfg.path, script.Options{
		Width:     cfg.width,
		Height:    cfg.height,
		Script:    framegraph.ScriptOptions{BufferedFrames: cfg.buffered},
		Stub:      func(framegraph.CommandBuffer, int, int) {},
		Variables: cfg.vars,
	})
	if err != nil {
		return err
	}
	defer f.Resources.Destroy()
	p := f.Script.Compile()

	out := stdout
	if useColor(cfg.color, stdout) {
		out = &colorWriter{w: stdout}
	}
	if err := p.Dump(out); err != nil {
		return err
	}
	if cfg.replay {
		if err := replay(out, p, f.Resources); err != nil {
			return err
		}
	}
	if cfg.timeline != "" {
		if err := writeTimeline(cfg.timeline, p, cfg.flatten); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "fgdump: timeline written to %s\n", cfg.timeline)
	}
	return nil
}

// replay runs one frame into recorders behind the touch audit and prints
// what each queue recorded.
func replay(w io.Writer, p *framegraph.Program, res *framegraph.Resources) error {
	q := recording.NewQueues()
	audit := framegraph.NewAudit(q, res)
	p.Run(audit, 0, 0)
	for _, r := range q.Finish() {
		if r.Len() == 0 {
			continue
		}
		if _, err := r.WriteTo(w); err != nil {
			return err
		}
	}
	for _, v := range audit.Violations() {
		if _, err := fmt.Fprintf(w, "violation: %s\n", v); err != nil {
			return err
		}
	}
	return nil
}

func writeTimeline(path string, p *framegraph.Program, flatten bool) (err error) {
	file, err := os.Create(path) // #nosec G304 -- path comes from the command line
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return timeline.WritePNG(file, p, timeline.Options{Flatten: flatten})
}

func useColor(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) // #nosec G115 -- file descriptors fit in int
}
