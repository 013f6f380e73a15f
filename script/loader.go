package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/gputypes"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Default window size used when Options leaves it unset.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

// ErrNilFuncs is returned when a script has code blocks but no functions
// were supplied.
var ErrNilFuncs = errors.New("script: no code functions supplied")

// Options configures Load.
type Options struct {
	// Name of the compiled script. Defaults to the file name without
	// extension.
	Name string

	// Resources receives the declared resources. When nil a table is
	// created with Factory, Width, Height and WindowFormat.
	Resources    *framegraph.Resources
	Factory      framegraph.ResourceFactory
	Width        int
	Height       int
	WindowFormat gputypes.TextureFormat

	// Registry resolves subgraph blocks. Nil creates an empty registry.
	Registry *framegraph.Registry

	// Script is passed to framegraph.NewScript.
	Script framegraph.ScriptOptions

	// Funcs binds the func attribute of code blocks to callbacks.
	Funcs map[string]framegraph.RunFunc

	// Stub is bound to every func missing from Funcs. Tools that only
	// compile and inspect a script set it to a no-op.
	Stub framegraph.RunFunc

	// Variables are exposed to expressions as var.<name>.
	Variables map[string]cty.Value
}

func (o *Options) defaults(filename string) {
	if o.Name == "" {
		base := filepath.Base(filename)
		o.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.WindowFormat == gputypes.TextureFormatUndefined {
		o.WindowFormat = gputypes.TextureFormatBGRA8Unorm
	}
}

// Frame is a loaded frame script.
type Frame struct {
	Script    *framegraph.Script
	Resources *framegraph.Resources

	ops map[string][]framegraph.Node
}

// Ops returns the ops declared with name, in source order. Toggling them
// requires Script.Invalidate before the next run.
func (f *Frame) Ops(name string) []framegraph.Node { return f.ops[name] }

// Names returns the sorted names of every declared op.
func (f *Frame) Names() []string {
	names := make([]string, 0, len(f.ops))
	for n := range f.ops {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// LoadFile reads and loads the frame script at path.
func LoadFile(path string, opts Options) (*Frame, error) {
	src, err := os.ReadFile(path) // #nosec G304 -- path is caller supplied
	if err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	return Load(src, path, opts)
}

// Load parses src and builds a frame script from it. Errors carry
// hcl.Diagnostics with source positions; use errors.As to reach them.
func Load(src []byte, filename string, opts Options) (*Frame, error) {
	opts.defaults(filename)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("script: parse %s: %w", filename, diags)
	}
	content, diags := file.Body.Content(topSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("script: decode %s: %w", filename, diags)
	}

	res := opts.Resources
	if res == nil {
		var err error
		res, err = framegraph.NewResources(opts.Factory, opts.Width, opts.Height, opts.WindowFormat)
		if err != nil {
			return nil, fmt.Errorf("script: %w", err)
		}
	}
	s, err := framegraph.NewScript(opts.Name, opts.Registry, res, opts.Script)
	if err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}

	l := &loader{
		opts:  &opts,
		res:   res,
		eval:  evalContext(opts.Variables, res),
		frame: &Frame{Script: s, Resources: res, ops: make(map[string][]framegraph.Node)},
	}
	for _, b := range content.Blocks {
		switch b.Type {
		case "texture":
			l.texture(b)
		case "buffer":
			l.buffer(b)
		}
	}
	if l.diags.HasErrors() {
		return nil, fmt.Errorf("script: %s: %w", filename, l.diags)
	}
	for _, b := range content.Blocks {
		if n := l.op(b); n != nil {
			s.AddOp(n)
		}
	}
	if l.diags.HasErrors() {
		return nil, fmt.Errorf("script: %s: %w", filename, l.diags)
	}
	bufs, texs := res.Len()
	framegraph.Logger().Info("script: loaded", "script", opts.Name,
		"ops", len(s.Ops()), "buffers", bufs, "textures", texs)
	return l.frame, nil
}

// evalContext exposes the caller's variables as var, the window size as
// window and a few numeric functions.
func evalContext(vars map[string]cty.Value, res *framegraph.Resources) *hcl.EvalContext {
	w, h := res.WindowSize()
	v := cty.EmptyObjectVal
	if len(vars) > 0 {
		v = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"var": v,
			"window": cty.ObjectVal(map[string]cty.Value{
				"width":  cty.NumberIntVal(int64(w)),
				"height": cty.NumberIntVal(int64(h)),
			}),
		},
		Functions: map[string]function.Function{
			"min":   stdlib.MinFunc,
			"max":   stdlib.MaxFunc,
			"ceil":  stdlib.CeilFunc,
			"floor": stdlib.FloorFunc,
		},
	}
}

type loader struct {
	opts  *Options
	res   *framegraph.Resources
	eval  *hcl.EvalContext
	frame *Frame
	diags hcl.Diagnostics
}

func (l *loader) errorf(b *hcl.Block, summary, format string, args ...any) {
	l.diags = append(l.diags, &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   fmt.Sprintf(format, args...),
		Subject:  b.DefRange.Ptr(),
	})
}

// check records err, if any, against b and reports whether it was nil.
func (l *loader) check(b *hcl.Block, err error) bool {
	if err != nil {
		l.errorf(b, "Invalid value", "%s %q: %v", b.Type, b.Labels[0], err)
		return false
	}
	return true
}

func (l *loader) decode(b *hcl.Block, v any) bool {
	diags := gohcl.DecodeBody(b.Body, l.eval, v)
	l.diags = append(l.diags, diags...)
	return !diags.HasErrors()
}

func (l *loader) texture(b *hcl.Block) {
	var tb textureBlock
	if !l.decode(b, &tb) {
		return
	}
	format, err := parseFormat(tb.Format)
	if !l.check(b, err) {
		return
	}
	usage, err := parseTextureUsage(tb.Usage)
	if !l.check(b, err) {
		return
	}
	var initial gputypes.TextureUsage
	if tb.InitialUsage != "" {
		initial, err = parseTextureUsage([]string{tb.InitialUsage})
		if !l.check(b, err) {
			return
		}
	}
	width, height := 1.0, 1.0
	if tb.Width != nil {
		width = *tb.Width
	}
	if tb.Height != nil {
		height = *tb.Height
	}
	if !tb.Relative && (tb.Width == nil || tb.Height == nil) {
		l.errorf(b, "Missing size", "texture %q needs width and height unless relative", b.Labels[0])
		return
	}
	_, err = l.res.AddTexture(framegraph.TextureInfo{
		Name:         b.Labels[0],
		Format:       format,
		Width:        float32(width),
		Height:       float32(height),
		Relative:     tb.Relative,
		Mips:         tb.Mips,
		Layers:       tb.Layers,
		Usage:        usage,
		InitialUsage: initial,
	})
	l.check(b, err)
}

func (l *loader) buffer(b *hcl.Block) {
	var bb bufferBlock
	if !l.decode(b, &bb) {
		return
	}
	usage, err := parseBufferUsage(bb.Usage)
	if !l.check(b, err) {
		return
	}
	_, err = l.res.AddBuffer(framegraph.BufferInfo{
		Name:     b.Labels[0],
		Size:     bb.Size,
		Usage:    usage,
		Buffered: bb.Buffered,
	})
	l.check(b, err)
}

// op builds the node for an op block. Resource blocks and invalid blocks
// return nil.
func (l *loader) op(b *hcl.Block) framegraph.Node {
	var n framegraph.Node
	switch b.Type {
	case "code":
		n = l.code(b)
	case "subgraph":
		n = l.subgraph(b)
	case "pass":
		n = l.pass(b)
	case "blit":
		n = l.blit(b)
	case "copy":
		n = l.copyOp(b)
	}
	if n != nil {
		name := b.Labels[0]
		l.frame.ops[name] = append(l.frame.ops[name], n)
	}
	return n
}

// base fills the shared op fields.
func (l *loader) base(b *hcl.Block, op *framegraph.Op, queue, domain string, enabled *bool, reads, writes []*depBlock) bool {
	op.Name = b.Labels[0]
	q, err := parseQueue(queue)
	if !l.check(b, err) {
		return false
	}
	d, err := parseDomain(domain)
	if !l.check(b, err) {
		return false
	}
	op.Queue, op.Domain = q, d
	if enabled != nil {
		op.Disabled = !*enabled
	}
	for _, dep := range reads {
		if !l.dependency(b, op, dep, framegraph.AccessRead) {
			return false
		}
	}
	for _, dep := range writes {
		if !l.dependency(b, op, dep, framegraph.AccessWrite) {
			return false
		}
	}
	return true
}

// dependency appends a declared access. A name that is neither a buffer
// nor a texture is logged and ignored.
func (l *loader) dependency(b *hcl.Block, op *framegraph.Op, d *depBlock, access framegraph.Access) bool {
	stage, err := parseStage(d.Stage)
	if !l.check(b, err) {
		return false
	}
	label := d.Label
	if label == "" {
		label = d.Resource
	}
	if id, ok := l.res.LookupBuffer(d.Resource); ok {
		op.Buffers = append(op.Buffers, framegraph.BufferDependency{
			Buffer: id, Label: label, Stage: stage, Access: access,
			Range: framegraph.BufferRange{Offset: d.Offset, Size: d.Size},
		})
		return true
	}
	if id, ok := l.res.LookupTexture(d.Resource); ok {
		aspect, err := parseAspect(d.Aspect)
		if !l.check(b, err) {
			return false
		}
		op.Textures = append(op.Textures, framegraph.TextureDependency{
			Texture: id, Label: label, Stage: stage, Access: access,
			Range: framegraph.TextureRange{
				Aspect: aspect, BaseMip: d.Mip, MipCount: d.Mips,
				BaseLayer: d.Layer, LayerCount: d.Layers,
			},
		})
		return true
	}
	framegraph.Logger().Warn("script: unknown resource", "op", op.Name, "resource", d.Resource)
	return true
}

func (l *loader) code(b *hcl.Block) framegraph.Node {
	var cb codeBlock
	if !l.decode(b, &cb) {
		return nil
	}
	if l.opts.Funcs == nil && l.opts.Stub == nil {
		l.check(b, ErrNilFuncs)
		return nil
	}
	fn := l.opts.Funcs[cb.Func]
	if fn == nil {
		fn = l.opts.Stub
	}
	if fn == nil {
		l.errorf(b, "Unknown function", "code %q uses func %q, which was not supplied", b.Labels[0], cb.Func)
		return nil
	}
	c := &framegraph.Code{Func: fn}
	if !l.base(b, &c.Op, cb.Queue, cb.Domain, cb.Enabled, cb.Reads, cb.Writes) {
		return nil
	}
	return c
}

func (l *loader) subgraph(b *hcl.Block) framegraph.Node {
	var sb subgraphBlock
	if !l.decode(b, &sb) {
		return nil
	}
	s := &framegraph.Subgraph{}
	if !l.base(b, &s.Op, sb.Queue, sb.Domain, sb.Enabled, sb.Reads, sb.Writes) {
		return nil
	}
	return s
}

func (l *loader) texture2(b *hcl.Block, role, name string) (framegraph.TextureID, bool) {
	id, ok := l.res.LookupTexture(name)
	if !ok {
		l.errorf(b, "Unknown texture", "%s %q: %s texture %q is not declared", b.Type, b.Labels[0], role, name)
	}
	return id, ok
}

func (l *loader) bufferRef(b *hcl.Block, role, name string) (framegraph.BufferID, bool) {
	id, ok := l.res.LookupBuffer(name)
	if !ok {
		l.errorf(b, "Unknown buffer", "%s %q: %s buffer %q is not declared", b.Type, b.Labels[0], role, name)
	}
	return id, ok
}

func (l *loader) blit(b *hcl.Block) framegraph.Node {
	var bb blitBlock
	if !l.decode(b, &bb) {
		return nil
	}
	from, ok1 := l.texture2(b, "source", bb.From)
	to, ok2 := l.texture2(b, "destination", bb.To)
	if !ok1 || !ok2 {
		return nil
	}
	n := &framegraph.Blit{From: from, To: to}
	if bb.FromMip != 0 {
		n.FromRange = framegraph.Mip(bb.FromMip)
	}
	if bb.ToMip != 0 {
		n.ToRange = framegraph.Mip(bb.ToMip)
	}
	if !l.base(b, &n.Op, bb.Queue, "", bb.Enabled, bb.Reads, bb.Writes) {
		return nil
	}
	return n
}

func (l *loader) copyOp(b *hcl.Block) framegraph.Node {
	var cb copyBlock
	if !l.decode(b, &cb) {
		return nil
	}
	from, ok1 := l.bufferRef(b, "source", cb.From)
	to, ok2 := l.bufferRef(b, "destination", cb.To)
	if !ok1 || !ok2 {
		return nil
	}
	n := &framegraph.Copy{From: from, To: to}
	for _, r := range cb.Regions {
		n.Regions = append(n.Regions, framegraph.CopyRegion{
			SrcOffset: r.SrcOffset, DstOffset: r.DstOffset, Size: r.Size,
		})
	}
	if !l.base(b, &n.Op, cb.Queue, "", cb.Enabled, nil, nil) {
		return nil
	}
	return n
}

func (l *loader) pass(b *hcl.Block) framegraph.Node {
	var pb passBlock
	if !l.decode(b, &pb) {
		return nil
	}
	p := &framegraph.Pass{}
	if !l.base(b, &p.Op, pb.Queue, "", pb.Enabled, pb.Reads, pb.Writes) {
		return nil
	}
	for _, a := range pb.Attachments {
		att, ok := l.attachment(b, a)
		if !ok {
			return nil
		}
		p.Attachments = append(p.Attachments, att)
	}
	if pb.Depth != nil {
		d, ok := l.depth(b, pb.Depth)
		if !ok {
			return nil
		}
		p.Depth = d
	}
	for _, spb := range pb.Subpasses {
		sp, ok := l.subpass(b, spb, len(p.Attachments))
		if !ok {
			return nil
		}
		p.Subpasses = append(p.Subpasses, sp)
	}
	return p
}

func (l *loader) attachment(b *hcl.Block, a *attachmentBlock) (framegraph.Attachment, bool) {
	id, ok := l.texture2(b, "attachment", a.Texture)
	if !ok {
		return framegraph.Attachment{}, false
	}
	load, err := parseLoad(a.Load)
	if !l.check(b, err) {
		return framegraph.Attachment{}, false
	}
	store, err := parseStore(a.Store)
	if !l.check(b, err) {
		return framegraph.Attachment{}, false
	}
	att := framegraph.Attachment{Texture: id, Load: load, Store: store}
	if a.Mip != 0 || a.Layer != 0 {
		att.Range = framegraph.TextureRange{BaseMip: a.Mip, MipCount: 1, BaseLayer: a.Layer, LayerCount: 1}
	}
	switch len(a.Clear) {
	case 0:
	case 4:
		att.Clear = gputypes.Color{R: a.Clear[0], G: a.Clear[1], B: a.Clear[2], A: a.Clear[3]}
	default:
		l.errorf(b, "Invalid clear color", "attachment %q: clear needs 4 components, got %d", a.Texture, len(a.Clear))
		return framegraph.Attachment{}, false
	}
	return att, true
}

func (l *loader) depth(b *hcl.Block, d *depthBlock) (*framegraph.DepthAttachment, bool) {
	id, ok := l.texture2(b, "depth", d.Texture)
	if !ok {
		return nil, false
	}
	out := &framegraph.DepthAttachment{
		Texture:      id,
		ClearDepth:   1,
		ClearStencil: d.ClearStencil,
		ReadOnly:     d.ReadOnly,
	}
	if d.ClearDepth != nil {
		out.ClearDepth = *d.ClearDepth
	}
	var err error
	if out.Load, err = parseLoad(d.Load); !l.check(b, err) {
		return nil, false
	}
	if out.Store, err = parseStore(d.Store); !l.check(b, err) {
		return nil, false
	}
	if out.StencilLoad, err = parseLoad(d.StencilLoad); !l.check(b, err) {
		return nil, false
	}
	if out.StencilStore, err = parseStore(d.StencilStore); !l.check(b, err) {
		return nil, false
	}
	return out, true
}

func (l *loader) subpass(b *hcl.Block, spb *subpassBlock, attachments int) (*framegraph.Subpass, bool) {
	sp := &framegraph.Subpass{Inputs: spb.Inputs}
	sp.Name = spb.Name
	if spb.Enabled != nil {
		sp.Disabled = !*spb.Enabled
	}
	for _, i := range spb.Inputs {
		if i < 0 || i >= attachments {
			l.errorf(b, "Invalid input", "subpass %q: input %d is not an attachment index", spb.Name, i)
			return nil, false
		}
	}
	content, diags := spb.Body.Content(subpassSchema)
	l.diags = append(l.diags, diags...)
	if diags.HasErrors() {
		return nil, false
	}
	for _, ob := range content.Blocks {
		n := l.op(ob)
		if n == nil {
			return nil, false
		}
		sp.Ops = append(sp.Ops, n)
	}
	return sp, true
}
