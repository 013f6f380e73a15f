package script

import (
	"fmt"
	"strings"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/gputypes"
	"github.com/hashicorp/hcl/v2"
)

// topSchema lists the blocks of a frame script. Resources are declared
// before any op is built, so ops may refer to resources declared later in
// the file.
var topSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "texture", LabelNames: []string{"name"}},
		{Type: "buffer", LabelNames: []string{"name"}},
		{Type: "code", LabelNames: []string{"name"}},
		{Type: "subgraph", LabelNames: []string{"name"}},
		{Type: "pass", LabelNames: []string{"name"}},
		{Type: "blit", LabelNames: []string{"name"}},
		{Type: "copy", LabelNames: []string{"name"}},
	},
}

// subpassSchema lists the op blocks allowed inside a subpass.
var subpassSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "code", LabelNames: []string{"name"}},
		{Type: "subgraph", LabelNames: []string{"name"}},
		{Type: "blit", LabelNames: []string{"name"}},
		{Type: "copy", LabelNames: []string{"name"}},
	},
}

type textureBlock struct {
	Format       string   `hcl:"format,optional"`
	Width        *float64 `hcl:"width,optional"`
	Height       *float64 `hcl:"height,optional"`
	Relative     bool     `hcl:"relative,optional"`
	Mips         uint32   `hcl:"mips,optional"`
	Layers       uint32   `hcl:"layers,optional"`
	Usage        []string `hcl:"usage,optional"`
	InitialUsage string   `hcl:"initial_usage,optional"`
}

type bufferBlock struct {
	Size     uint64   `hcl:"size"`
	Usage    []string `hcl:"usage,optional"`
	Buffered int      `hcl:"buffered,optional"`
}

// depBlock is a read or write block. The label names a buffer or texture.
type depBlock struct {
	Resource string `hcl:"resource,label"`
	Stage    string `hcl:"stage"`
	Label    string `hcl:"label,optional"`

	// Buffer range.
	Offset uint64 `hcl:"offset,optional"`
	Size   uint64 `hcl:"size,optional"`

	// Texture range.
	Aspect string `hcl:"aspect,optional"`
	Mip    uint32 `hcl:"mip,optional"`
	Mips   uint32 `hcl:"mips,optional"`
	Layer  uint32 `hcl:"layer,optional"`
	Layers uint32 `hcl:"layers,optional"`
}

type codeBlock struct {
	Func    string      `hcl:"func"`
	Queue   string      `hcl:"queue,optional"`
	Domain  string      `hcl:"domain,optional"`
	Enabled *bool       `hcl:"enabled,optional"`
	Reads   []*depBlock `hcl:"read,block"`
	Writes  []*depBlock `hcl:"write,block"`
}

type subgraphBlock struct {
	Queue   string      `hcl:"queue,optional"`
	Domain  string      `hcl:"domain,optional"`
	Enabled *bool       `hcl:"enabled,optional"`
	Reads   []*depBlock `hcl:"read,block"`
	Writes  []*depBlock `hcl:"write,block"`
}

type blitBlock struct {
	From    string      `hcl:"from"`
	To      string      `hcl:"to"`
	FromMip uint32      `hcl:"from_mip,optional"`
	ToMip   uint32      `hcl:"to_mip,optional"`
	Queue   string      `hcl:"queue,optional"`
	Enabled *bool       `hcl:"enabled,optional"`
	Reads   []*depBlock `hcl:"read,block"`
	Writes  []*depBlock `hcl:"write,block"`
}

type regionBlock struct {
	SrcOffset uint64 `hcl:"src_offset,optional"`
	DstOffset uint64 `hcl:"dst_offset,optional"`
	Size      uint64 `hcl:"size"`
}

type copyBlock struct {
	From    string         `hcl:"from"`
	To      string         `hcl:"to"`
	Queue   string         `hcl:"queue,optional"`
	Enabled *bool          `hcl:"enabled,optional"`
	Regions []*regionBlock `hcl:"region,block"`
}

type attachmentBlock struct {
	Texture string    `hcl:"texture,label"`
	Load    string    `hcl:"load,optional"`
	Store   string    `hcl:"store,optional"`
	Clear   []float64 `hcl:"clear,optional"`
	Mip     uint32    `hcl:"mip,optional"`
	Layer   uint32    `hcl:"layer,optional"`
}

type depthBlock struct {
	Texture      string   `hcl:"texture,label"`
	Load         string   `hcl:"load,optional"`
	Store        string   `hcl:"store,optional"`
	StencilLoad  string   `hcl:"stencil_load,optional"`
	StencilStore string   `hcl:"stencil_store,optional"`
	ClearDepth   *float32 `hcl:"clear_depth,optional"`
	ClearStencil uint32   `hcl:"clear_stencil,optional"`
	ReadOnly     bool     `hcl:"read_only,optional"`
}

type subpassBlock struct {
	Name    string   `hcl:"name,label"`
	Inputs  []int    `hcl:"inputs,optional"`
	Enabled *bool    `hcl:"enabled,optional"`
	Body    hcl.Body `hcl:",remain"`
}

type passBlock struct {
	Queue       string             `hcl:"queue,optional"`
	Enabled     *bool              `hcl:"enabled,optional"`
	Attachments []*attachmentBlock `hcl:"attachment,block"`
	Depth       *depthBlock        `hcl:"depth,block"`
	Subpasses   []*subpassBlock    `hcl:"subpass,block"`
	Reads       []*depBlock        `hcl:"read,block"`
	Writes      []*depBlock        `hcl:"write,block"`
}

// normalize folds case and drops separators so "compute_shader",
// "ComputeShader" and "compute-shader" compare equal.
func normalize(s string) string {
	return strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(s))
}

func lookupName[T any](kind string, table map[string]T, name string) (T, error) {
	if v, ok := table[normalize(name)]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("unknown %s %q", kind, name)
}

var queues = map[string]framegraph.Queue{
	"graphics": framegraph.QueueGraphics,
	"compute":  framegraph.QueueCompute,
	"transfer": framegraph.QueueTransfer,
}

func parseQueue(name string) (framegraph.Queue, error) {
	if name == "" {
		return framegraph.QueueGraphics, nil
	}
	return lookupName("queue", queues, name)
}

var domains = map[string]framegraph.Domain{
	"global": framegraph.DomainGlobal,
	"pass":   framegraph.DomainPass,
}

func parseDomain(name string) (framegraph.Domain, error) {
	if name == "" {
		return framegraph.DomainGlobal, nil
	}
	return lookupName("domain", domains, name)
}

func parseStage(name string) (framegraph.Stage, error) {
	if s, ok := framegraph.ParseStage(strings.NewReplacer("_", "", "-", "").Replace(name)); ok {
		return s, nil
	}
	return framegraph.StageTop, fmt.Errorf("unknown stage %q", name)
}

var formats = map[string]gputypes.TextureFormat{
	"rgba8unorm":          gputypes.TextureFormatRGBA8Unorm,
	"rgba8unormsrgb":      gputypes.TextureFormatRGBA8UnormSrgb,
	"bgra8unorm":          gputypes.TextureFormatBGRA8Unorm,
	"bgra8unormsrgb":      gputypes.TextureFormatBGRA8UnormSrgb,
	"r8unorm":             gputypes.TextureFormatR8Unorm,
	"r32float":            gputypes.TextureFormatR32Float,
	"rg32float":           gputypes.TextureFormatRG32Float,
	"rgba16float":         gputypes.TextureFormatRGBA16Float,
	"rgba32float":         gputypes.TextureFormatRGBA32Float,
	"depth24plusstencil8": gputypes.TextureFormatDepth24PlusStencil8,
	"depth32float":        gputypes.TextureFormatDepth32Float,
}

func parseFormat(name string) (gputypes.TextureFormat, error) {
	if name == "" {
		return gputypes.TextureFormatRGBA8Unorm, nil
	}
	return lookupName("texture format", formats, name)
}

var textureUsages = map[string]gputypes.TextureUsage{
	"copysrc":          gputypes.TextureUsageCopySrc,
	"copydst":          gputypes.TextureUsageCopyDst,
	"texturebinding":   gputypes.TextureUsageTextureBinding,
	"storagebinding":   gputypes.TextureUsageStorageBinding,
	"renderattachment": gputypes.TextureUsageRenderAttachment,
}

func parseTextureUsage(names []string) (gputypes.TextureUsage, error) {
	var u gputypes.TextureUsage
	for _, n := range names {
		v, err := lookupName("texture usage", textureUsages, n)
		if err != nil {
			return 0, err
		}
		u |= v
	}
	return u, nil
}

var bufferUsages = map[string]gputypes.BufferUsage{
	"mapread":  gputypes.BufferUsageMapRead,
	"mapwrite": gputypes.BufferUsageMapWrite,
	"copysrc":  gputypes.BufferUsageCopySrc,
	"copydst":  gputypes.BufferUsageCopyDst,
	"vertex":   gputypes.BufferUsageVertex,
	"uniform":  gputypes.BufferUsageUniform,
	"storage":  gputypes.BufferUsageStorage,
}

func parseBufferUsage(names []string) (gputypes.BufferUsage, error) {
	var u gputypes.BufferUsage
	for _, n := range names {
		v, err := lookupName("buffer usage", bufferUsages, n)
		if err != nil {
			return 0, err
		}
		u |= v
	}
	return u, nil
}

var loadOps = map[string]gputypes.LoadOp{
	"clear": gputypes.LoadOpClear,
	"load":  gputypes.LoadOpLoad,
}

func parseLoad(name string) (gputypes.LoadOp, error) {
	if name == "" {
		return gputypes.LoadOpClear, nil
	}
	return lookupName("load op", loadOps, name)
}

var storeOps = map[string]gputypes.StoreOp{
	"store":   gputypes.StoreOpStore,
	"discard": gputypes.StoreOpDiscard,
}

func parseStore(name string) (gputypes.StoreOp, error) {
	if name == "" {
		return gputypes.StoreOpStore, nil
	}
	return lookupName("store op", storeOps, name)
}

var aspects = map[string]framegraph.Aspect{
	"all":          framegraph.AspectAll,
	"color":        framegraph.AspectColor,
	"depth":        framegraph.AspectDepth,
	"stencil":      framegraph.AspectStencil,
	"depthstencil": framegraph.AspectDepth | framegraph.AspectStencil,
}

func parseAspect(name string) (framegraph.Aspect, error) {
	if name == "" {
		return 0, nil
	}
	return lookupName("aspect", aspects, name)
}
