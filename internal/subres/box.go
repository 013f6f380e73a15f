// Package subres implements the region arithmetic behind sub-resource
// hazard tracking.
//
// A Box is an axis-aligned region over two half-open integer dimensions
// plus an aspect bitmask. Textures use (mip, layer) as the dimensions and
// the aspect bits for color/depth/stencil planes. Buffers use the byte
// range as the first dimension and a unit second dimension.
package subres

// Max is the open upper bound used for "to the end" ranges.
const Max = ^uint64(0)

// Box is a region of a resource. Lo is inclusive and Hi exclusive in
// each dimension.
type Box struct {
	Mask uint32
	Lo   [2]uint64
	Hi   [2]uint64
}

// Span returns the box covering [lo, hi) x [0, 1) with the given mask.
func Span(mask uint32, lo, hi uint64) Box {
	return Box{Mask: mask, Lo: [2]uint64{lo, 0}, Hi: [2]uint64{hi, 1}}
}

// Empty reports whether b covers nothing.
func (b Box) Empty() bool {
	return b.Mask == 0 || b.Lo[0] >= b.Hi[0] || b.Lo[1] >= b.Hi[1]
}

// Contains reports whether o lies entirely inside b.
func (b Box) Contains(o Box) bool {
	if o.Empty() {
		return true
	}
	if o.Mask&^b.Mask != 0 {
		return false
	}
	for d := range 2 {
		if o.Lo[d] < b.Lo[d] || o.Hi[d] > b.Hi[d] {
			return false
		}
	}
	return true
}

// Overlaps reports whether a and b share at least one element.
func Overlaps(a, b Box) bool {
	if a.Empty() || b.Empty() || a.Mask&b.Mask == 0 {
		return false
	}
	for d := range 2 {
		if a.Lo[d] >= b.Hi[d] || b.Lo[d] >= a.Hi[d] {
			return false
		}
	}
	return true
}

// Intersect returns the common part of a and b. The boolean is false when
// they do not overlap.
func Intersect(a, b Box) (Box, bool) {
	if !Overlaps(a, b) {
		return Box{}, false
	}
	out := Box{Mask: a.Mask & b.Mask}
	for d := range 2 {
		out.Lo[d] = max(a.Lo[d], b.Lo[d])
		out.Hi[d] = min(a.Hi[d], b.Hi[d])
	}
	return out, true
}

// Subtract returns the parts of a not covered by b as pairwise disjoint
// boxes. The result is nil when b covers a, and a itself when they do not
// overlap.
func Subtract(a, b Box) []Box {
	if !Overlaps(a, b) {
		if a.Empty() {
			return nil
		}
		return []Box{a}
	}
	var out []Box
	rest := a
	if m := rest.Mask &^ b.Mask; m != 0 {
		p := rest
		p.Mask = m
		out = append(out, p)
		rest.Mask &= b.Mask
	}
	for d := range 2 {
		if rest.Lo[d] < b.Lo[d] {
			p := rest
			p.Hi[d] = b.Lo[d]
			out = append(out, p)
			rest.Lo[d] = b.Lo[d]
		}
		if rest.Hi[d] > b.Hi[d] {
			p := rest
			p.Lo[d] = b.Hi[d]
			out = append(out, p)
			rest.Hi[d] = b.Hi[d]
		}
	}
	return out
}

// SubtractAll returns the parts of a not covered by any box in cover.
func SubtractAll(a Box, cover []Box) []Box {
	if a.Empty() {
		return nil
	}
	rest := []Box{a}
	for _, c := range cover {
		if len(rest) == 0 {
			break
		}
		next := rest[:0:0]
		for _, r := range rest {
			next = append(next, Subtract(r, c)...)
		}
		rest = next
	}
	return rest
}

// Bounds returns the smallest box containing both a and b.
func Bounds(a, b Box) Box {
	switch {
	case a.Empty():
		return b
	case b.Empty():
		return a
	}
	out := Box{Mask: a.Mask | b.Mask}
	for d := range 2 {
		out.Lo[d] = min(a.Lo[d], b.Lo[d])
		out.Hi[d] = max(a.Hi[d], b.Hi[d])
	}
	return out
}

// Volume returns the number of elements in b, saturating at Max.
func (b Box) Volume() uint64 {
	if b.Empty() {
		return 0
	}
	bits := uint64(0)
	for m := b.Mask; m != 0; m &= m - 1 {
		bits++
	}
	v := bits
	for d := range 2 {
		w := b.Hi[d] - b.Lo[d]
		if w != 0 && v > Max/w {
			return Max
		}
		v *= w
	}
	return v
}
