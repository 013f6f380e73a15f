package framegraph

import (
	"strings"

	"github.com/gogpu/gputypes"
)

// Queue identifies the hardware queue an op is recorded on.
type Queue uint8

const (
	QueueGraphics Queue = iota
	QueueCompute
	QueueTransfer

	queueCount
)

var queueNames = [...]string{
	QueueGraphics: "Graphics",
	QueueCompute:  "Compute",
	QueueTransfer: "Transfer",
}

// String returns the queue name.
func (q Queue) String() string {
	if int(q) < len(queueNames) {
		return queueNames[q]
	}
	return "Unknown"
}

// AllQueues lists every queue in lane order.
func AllQueues() []Queue {
	return []Queue{QueueGraphics, QueueCompute, QueueTransfer}
}

// Domain selects where an op's synchronization is placed.
type Domain uint8

const (
	// DomainGlobal emits barriers inline at the op that needs them.
	DomainGlobal Domain = iota
	// DomainPass hoists barriers to the enclosing pass boundary.
	DomainPass
)

// String returns "Global" or "Pass".
func (d Domain) String() string {
	if d == DomainPass {
		return "Pass"
	}
	return "Global"
}

// Access is the kind of access a dependency performs.
type Access uint8

const (
	AccessRead Access = iota
	AccessWrite
)

// String returns "Read" or "Write".
func (a Access) String() string {
	if a == AccessWrite {
		return "Write"
	}
	return "Read"
}

// Stage is a pipeline stage at which a resource is accessed.
type Stage uint8

const (
	StageTop Stage = iota
	StageIndirect
	StageVertexShader
	StagePixelShader
	StageComputeShader
	StageColorAttachment
	StageDepthStencil
	StageTransfer
	StageHost
	StageBottom

	stageCount
)

var stageNames = [...]string{
	StageTop:             "Top",
	StageIndirect:        "Indirect",
	StageVertexShader:    "VertexShader",
	StagePixelShader:     "PixelShader",
	StageComputeShader:   "ComputeShader",
	StageColorAttachment: "ColorAttachment",
	StageDepthStencil:    "DepthStencil",
	StageTransfer:        "Transfer",
	StageHost:            "Host",
	StageBottom:          "Bottom",
}

// String returns the stage name.
func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "Unknown"
}

// ParseStage resolves a stage by name, case-insensitively.
func ParseStage(name string) (Stage, bool) {
	for i, n := range stageNames {
		if strings.EqualFold(n, name) {
			return Stage(i), true // #nosec G115 -- bounded by stageCount
		}
	}
	return StageTop, false
}

// Mask returns the single-stage mask for s.
func (s Stage) Mask() StageMask { return 1 << s }

// StageMask is a set of stages.
type StageMask uint16

// Has reports whether s is in m.
func (m StageMask) Has(s Stage) bool { return m&s.Mask() != 0 }

// Contains reports whether every stage of o is in m.
func (m StageMask) Contains(o StageMask) bool { return m&o == o }

// Stages returns the stages of m in pipeline order.
func (m StageMask) Stages() []Stage {
	var out []Stage
	for s := StageTop; s < stageCount; s++ {
		if m.Has(s) {
			out = append(out, s)
		}
	}
	return out
}

// String joins the stage names with "|".
func (m StageMask) String() string {
	if m == 0 {
		return "None"
	}
	var b strings.Builder
	for i, s := range m.Stages() {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(s.String())
	}
	return b.String()
}

// TextureUsage maps a stage and access to the texture usage the device
// layer needs the texture to be in.
func (s Stage) TextureUsage(a Access) gputypes.TextureUsage {
	switch s {
	case StageVertexShader, StagePixelShader, StageComputeShader:
		if a == AccessWrite {
			return gputypes.TextureUsageStorageBinding
		}
		return gputypes.TextureUsageTextureBinding
	case StageColorAttachment, StageDepthStencil:
		return gputypes.TextureUsageRenderAttachment
	case StageTransfer:
		if a == AccessWrite {
			return gputypes.TextureUsageCopyDst
		}
		return gputypes.TextureUsageCopySrc
	}
	return 0
}

// BufferUsage maps a stage and access to the buffer usage needed.
func (s Stage) BufferUsage(a Access) gputypes.BufferUsage {
	switch s {
	case StageVertexShader:
		if a == AccessWrite {
			return gputypes.BufferUsageStorage
		}
		return gputypes.BufferUsageVertex | gputypes.BufferUsageStorage
	case StagePixelShader, StageComputeShader, StageIndirect:
		if a == AccessWrite {
			return gputypes.BufferUsageStorage
		}
		return gputypes.BufferUsageStorage | gputypes.BufferUsageUniform
	case StageTransfer:
		if a == AccessWrite {
			return gputypes.BufferUsageCopyDst
		}
		return gputypes.BufferUsageCopySrc
	case StageHost:
		if a == AccessWrite {
			return gputypes.BufferUsageMapWrite
		}
		return gputypes.BufferUsageMapRead
	}
	return 0
}

// maskTextureUsage returns the union of texture usages over every stage in m.
func maskTextureUsage(m StageMask, a Access) gputypes.TextureUsage {
	var u gputypes.TextureUsage
	for _, s := range m.Stages() {
		u |= s.TextureUsage(a)
	}
	return u
}

// maskBufferUsage returns the union of buffer usages over every stage in m.
func maskBufferUsage(m StageMask, a Access) gputypes.BufferUsage {
	var u gputypes.BufferUsage
	for _, s := range m.Stages() {
		u |= s.BufferUsage(a)
	}
	return u
}
