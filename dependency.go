package framegraph

import "fmt"

// BufferDependency declares that an op accesses part of a buffer at a
// pipeline stage.
type BufferDependency struct {
	Buffer BufferID
	Label  string
	Stage  Stage
	Access Access
	Range  BufferRange
}

// Conflicts reports whether d and o must be ordered: they touch the same
// buffer, their ranges overlap and at least one of them writes.
func (d BufferDependency) Conflicts(o BufferDependency) bool {
	return d.Buffer == o.Buffer && d.Range.Overlaps(o.Range) &&
		(d.Access == AccessWrite || o.Access == AccessWrite)
}

func (d BufferDependency) String() string {
	return fmt.Sprintf("buffer %d %q %s@%s %s", d.Buffer, d.Label, d.Access, d.Stage, d.Range)
}

// TextureDependency declares that an op accesses part of a texture at a
// pipeline stage.
type TextureDependency struct {
	Texture TextureID
	Label   string
	Stage   Stage
	Access  Access
	Range   TextureRange
}

// Conflicts reports whether d and o must be ordered.
func (d TextureDependency) Conflicts(o TextureDependency) bool {
	return d.Texture == o.Texture && d.Range.Overlaps(o.Range) &&
		(d.Access == AccessWrite || o.Access == AccessWrite)
}

func (d TextureDependency) String() string {
	return fmt.Sprintf("texture %d %q %s@%s %s", d.Texture, d.Label, d.Access, d.Stage, d.Range)
}

// ReadBuffer declares a whole-buffer read.
func ReadBuffer(id BufferID, stage Stage) BufferDependency {
	return BufferDependency{Buffer: id, Stage: stage, Access: AccessRead}
}

// WriteBuffer declares a whole-buffer write.
func WriteBuffer(id BufferID, stage Stage) BufferDependency {
	return BufferDependency{Buffer: id, Stage: stage, Access: AccessWrite}
}

// ReadTexture declares a whole-texture read.
func ReadTexture(id TextureID, stage Stage) TextureDependency {
	return TextureDependency{Texture: id, Stage: stage, Access: AccessRead}
}

// WriteTexture declares a whole-texture write.
func WriteTexture(id TextureID, stage Stage) TextureDependency {
	return TextureDependency{Texture: id, Stage: stage, Access: AccessWrite}
}
