package recording

import (
	"fmt"

	"github.com/gogpu/framegraph"
)

// CommandType identifies the type of a command.
type CommandType uint8

const (
	// Scope commands
	CmdBeginMarker CommandType = iota // Open a named marker
	CmdEndMarker                      // Close the innermost marker

	// Synchronization commands
	CmdBarrier // Pipeline barrier
	CmdSignal  // Release half of a queue handoff
	CmdWait    // Acquire half of a queue handoff

	// Pass commands
	CmdBeginPass   // Open a render pass
	CmdNextSubpass // Advance to the next subpass
	CmdEndPass     // Close the render pass

	// Transfer commands
	CmdBlit // Texture to texture copy
	CmdCopy // Buffer to buffer copy

	// Callback commands
	CmdDispatch // Compute dispatch recorded by a callback
	CmdDraw     // Draw recorded by a callback
	CmdTouch    // Resource touch reported by a callback
)

// commandTypeNames maps CommandType values to their string representation.
var commandTypeNames = [...]string{
	CmdBeginMarker: "BeginMarker",
	CmdEndMarker:   "EndMarker",
	CmdBarrier:     "Barrier",
	CmdSignal:      "Signal",
	CmdWait:        "Wait",
	CmdBeginPass:   "BeginPass",
	CmdNextSubpass: "NextSubpass",
	CmdEndPass:     "EndPass",
	CmdBlit:        "Blit",
	CmdCopy:        "Copy",
	CmdDispatch:    "Dispatch",
	CmdDraw:        "Draw",
	CmdTouch:       "Touch",
}

// String returns the string representation of a CommandType.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// Command is the interface implemented by all command types.
type Command interface {
	// Type returns the CommandType for this command.
	Type() CommandType
	fmt.Stringer
}

// --------------------------------------------------------------------------
// Scope Commands
// --------------------------------------------------------------------------

// BeginMarkerCommand opens a named debug marker around a compiled op.
type BeginMarkerCommand struct {
	Name string
}

// Type implements Command.
func (BeginMarkerCommand) Type() CommandType { return CmdBeginMarker }

func (c BeginMarkerCommand) String() string { return "begin " + c.Name }

// EndMarkerCommand closes the innermost marker.
type EndMarkerCommand struct{}

// Type implements Command.
func (EndMarkerCommand) Type() CommandType { return CmdEndMarker }

func (EndMarkerCommand) String() string { return "end" }

// --------------------------------------------------------------------------
// Synchronization Commands
// --------------------------------------------------------------------------

// BarrierCommand is a pipeline barrier. The barrier is copied so later
// rebuilds of the program do not alter the recording.
type BarrierCommand struct {
	Barrier framegraph.Barrier
}

// Type implements Command.
func (BarrierCommand) Type() CommandType { return CmdBarrier }

func (c BarrierCommand) String() string { return c.Barrier.String() }

// SignalCommand releases resources to another queue and signals Event.
type SignalCommand struct {
	Event   framegraph.Event
	Handoff framegraph.Handoff
}

// Type implements Command.
func (SignalCommand) Type() CommandType { return CmdSignal }

func (c SignalCommand) String() string {
	return fmt.Sprintf("signal #%d %s", c.Event, c.Handoff.String())
}

// WaitCommand waits on Event and acquires resources from another queue.
type WaitCommand struct {
	Event   framegraph.Event
	Handoff framegraph.Handoff
}

// Type implements Command.
func (WaitCommand) Type() CommandType { return CmdWait }

func (c WaitCommand) String() string {
	return fmt.Sprintf("wait #%d %s", c.Event, c.Handoff.String())
}

// --------------------------------------------------------------------------
// Pass Commands
// --------------------------------------------------------------------------

// BeginPassCommand opens a render pass.
type BeginPassCommand struct {
	Info framegraph.PassInfo
}

// Type implements Command.
func (BeginPassCommand) Type() CommandType { return CmdBeginPass }

func (c BeginPassCommand) String() string {
	return fmt.Sprintf("pass %s (%d attachments, %d subpasses)", c.Info.Name, len(c.Info.Attachments), c.Info.Subpasses)
}

// NextSubpassCommand advances to the next subpass.
type NextSubpassCommand struct{}

// Type implements Command.
func (NextSubpassCommand) Type() CommandType { return CmdNextSubpass }

func (NextSubpassCommand) String() string { return "next subpass" }

// EndPassCommand closes the render pass.
type EndPassCommand struct{}

// Type implements Command.
func (EndPassCommand) Type() CommandType { return CmdEndPass }

func (EndPassCommand) String() string { return "end pass" }

// --------------------------------------------------------------------------
// Transfer Commands
// --------------------------------------------------------------------------

// BlitCommand copies between textures.
type BlitCommand struct {
	Info framegraph.BlitInfo
}

// Type implements Command.
func (BlitCommand) Type() CommandType { return CmdBlit }

func (c BlitCommand) String() string {
	return fmt.Sprintf("blit texture %d %s -> texture %d %s", c.Info.From, c.Info.FromRange, c.Info.To, c.Info.ToRange)
}

// CopyCommand copies between buffers.
type CopyCommand struct {
	Info framegraph.CopyInfo
}

// Type implements Command.
func (CopyCommand) Type() CommandType { return CmdCopy }

func (c CopyCommand) String() string {
	return fmt.Sprintf("copy buffer %d -> buffer %d (%d regions)", c.Info.From, c.Info.To, len(c.Info.Regions))
}

// --------------------------------------------------------------------------
// Callback Commands
// --------------------------------------------------------------------------

// DispatchCommand is a compute dispatch issued by a code callback.
type DispatchCommand struct {
	Label   string
	X, Y, Z uint32
}

// Type implements Command.
func (DispatchCommand) Type() CommandType { return CmdDispatch }

func (c DispatchCommand) String() string {
	return fmt.Sprintf("dispatch %s %dx%dx%d", c.Label, c.X, c.Y, c.Z)
}

// DrawCommand is a draw issued by a code callback.
type DrawCommand struct {
	Label     string
	Vertices  uint32
	Instances uint32
}

// Type implements Command.
func (DrawCommand) Type() CommandType { return CmdDraw }

func (c DrawCommand) String() string {
	return fmt.Sprintf("draw %s %d vertices x%d", c.Label, c.Vertices, c.Instances)
}

// TouchCommand is a resource access reported by a code callback.
type TouchCommand struct {
	Texture bool
	ID      uint64
	Access  framegraph.Access
}

// Type implements Command.
func (TouchCommand) Type() CommandType { return CmdTouch }

func (c TouchCommand) String() string {
	kind := "buffer"
	if c.Texture {
		kind = "texture"
	}
	return fmt.Sprintf("touch %s %d %s", kind, c.ID, c.Access)
}
