package framegraph

import (
	"fmt"

	"github.com/gogpu/framegraph/internal/subres"
)

// WholeSize selects every byte from Offset to the end of the buffer.
const WholeSize = ^uint64(0)

// AllMips and AllLayers select every remaining mip level or array layer.
const (
	AllMips   = ^uint32(0)
	AllLayers = ^uint32(0)
)

// BufferRange is a byte range of a buffer. The zero value covers the
// whole buffer: a Size of 0 is treated as WholeSize.
type BufferRange struct {
	Offset uint64
	Size   uint64
}

// FullBuffer returns the range covering the whole buffer.
func FullBuffer() BufferRange { return BufferRange{Size: WholeSize} }

// end returns the exclusive end, saturating for open ranges.
func (r BufferRange) end() uint64 {
	if r.Size == 0 || r.Size == WholeSize || r.Offset > subres.Max-r.Size {
		return subres.Max
	}
	return r.Offset + r.Size
}

func (r BufferRange) box() subres.Box {
	return subres.Span(1, r.Offset, r.end())
}

// Overlaps reports whether r and o share at least one byte.
func (r BufferRange) Overlaps(o BufferRange) bool {
	return subres.Overlaps(r.box(), o.box())
}

// String formats the range as [offset, end).
func (r BufferRange) String() string {
	if r.end() == subres.Max {
		return fmt.Sprintf("[%d, end)", r.Offset)
	}
	return fmt.Sprintf("[%d, %d)", r.Offset, r.end())
}

func bufferRangeOf(b subres.Box) BufferRange {
	if b.Hi[0] == subres.Max {
		return BufferRange{Offset: b.Lo[0], Size: WholeSize}
	}
	return BufferRange{Offset: b.Lo[0], Size: b.Hi[0] - b.Lo[0]}
}

// Aspect is a bitmask of texture planes.
type Aspect uint8

const (
	AspectColor Aspect = 1 << iota
	AspectDepth
	AspectStencil

	AspectAll = AspectColor | AspectDepth | AspectStencil
)

// String returns a short aspect name.
func (a Aspect) String() string {
	switch a {
	case AspectColor:
		return "color"
	case AspectDepth:
		return "depth"
	case AspectStencil:
		return "stencil"
	case AspectDepth | AspectStencil:
		return "depth-stencil"
	case 0, AspectAll:
		return "all"
	}
	return fmt.Sprintf("aspect(%d)", uint8(a))
}

// TextureRange selects mips and layers of a texture. The zero value covers
// the whole texture: zero counts select every remaining level or layer and
// a zero Aspect selects every plane.
type TextureRange struct {
	Aspect     Aspect
	BaseMip    uint32
	MipCount   uint32
	BaseLayer  uint32
	LayerCount uint32
}

// FullTexture returns the range covering every mip, layer and plane.
func FullTexture() TextureRange { return TextureRange{} }

// Mip returns the range covering a single mip level of every layer.
func Mip(level uint32) TextureRange {
	return TextureRange{BaseMip: level, MipCount: 1}
}

func spanEnd(base, count uint32) uint64 {
	if count == 0 || count == AllMips {
		return subres.Max
	}
	return uint64(base) + uint64(count)
}

func (r TextureRange) box() subres.Box {
	mask := uint32(r.Aspect)
	if mask == 0 {
		mask = uint32(AspectAll)
	}
	return subres.Box{
		Mask: mask,
		Lo:   [2]uint64{uint64(r.BaseMip), uint64(r.BaseLayer)},
		Hi:   [2]uint64{spanEnd(r.BaseMip, r.MipCount), spanEnd(r.BaseLayer, r.LayerCount)},
	}
}

// Overlaps reports whether r and o share at least one subresource.
func (r TextureRange) Overlaps(o TextureRange) bool {
	return subres.Overlaps(r.box(), o.box())
}

// String formats the range as mips and layers.
func (r TextureRange) String() string {
	b := r.box()
	return fmt.Sprintf("%s mips%s layers%s", r.Aspect, spanString(b.Lo[0], b.Hi[0]), spanString(b.Lo[1], b.Hi[1]))
}

func spanString(lo, hi uint64) string {
	if hi == subres.Max {
		return fmt.Sprintf("[%d, end)", lo)
	}
	return fmt.Sprintf("[%d, %d)", lo, hi)
}

func count32(lo, hi uint64) uint32 {
	if hi == subres.Max {
		return 0
	}
	return uint32(hi - lo) // #nosec G115 -- built from uint32 spans
}

func textureRangeOf(b subres.Box) TextureRange {
	aspect := Aspect(b.Mask) // #nosec G115 -- mask holds aspect bits only
	if aspect == AspectAll {
		aspect = 0
	}
	return TextureRange{
		Aspect:     aspect,
		BaseMip:    uint32(b.Lo[0]), // #nosec G115 -- built from uint32 spans
		MipCount:   count32(b.Lo[0], b.Hi[0]),
		BaseLayer:  uint32(b.Lo[1]), // #nosec G115 -- built from uint32 spans
		LayerCount: count32(b.Lo[1], b.Hi[1]),
	}
}
