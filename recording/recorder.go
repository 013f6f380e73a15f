package recording

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gogpu/framegraph"
)

// ErrUnbalanced is returned by Validate when markers or passes do not nest.
var ErrUnbalanced = errors.New("recording: unbalanced scopes")

// Recorder captures commands replayed into it. It implements
// framegraph.CommandBuffer and framegraph.Toucher. Use Finish to obtain
// an immutable Recording.
//
// The Recorder is not safe for concurrent use.
type Recorder struct {
	queue    framegraph.Queue
	commands []Command
}

// NewRecorder creates a Recorder for the commands of one queue.
func NewRecorder(q framegraph.Queue) *Recorder {
	return &Recorder{
		queue:    q,
		commands: make([]Command, 0, 128),
	}
}

// Queue returns the queue the recorder captures.
func (r *Recorder) Queue() framegraph.Queue { return r.queue }

// Len returns the number of commands captured so far.
func (r *Recorder) Len() int { return len(r.commands) }

// Reset discards captured commands, keeping the allocation.
func (r *Recorder) Reset() { r.commands = r.commands[:0] }

// Finish returns a Recording of the captured commands and resets the
// recorder.
func (r *Recorder) Finish() *Recording {
	out := &Recording{queue: r.queue, commands: append([]Command(nil), r.commands...)}
	r.Reset()
	return out
}

func (r *Recorder) record(c Command) { r.commands = append(r.commands, c) }

// BeginMarker implements framegraph.CommandBuffer.
func (r *Recorder) BeginMarker(name string) { r.record(BeginMarkerCommand{Name: name}) }

// EndMarker implements framegraph.CommandBuffer.
func (r *Recorder) EndMarker() { r.record(EndMarkerCommand{}) }

// Barrier implements framegraph.CommandBuffer.
func (r *Recorder) Barrier(b *framegraph.Barrier) {
	c := BarrierCommand{Barrier: *b}
	c.Barrier.Buffers = append([]framegraph.BufferBarrier(nil), b.Buffers...)
	c.Barrier.Textures = append([]framegraph.TextureBarrier(nil), b.Textures...)
	r.record(c)
}

// SignalEvent implements framegraph.CommandBuffer.
func (r *Recorder) SignalEvent(ev framegraph.Event, h *framegraph.Handoff) {
	r.record(SignalCommand{Event: ev, Handoff: *h})
}

// WaitEvent implements framegraph.CommandBuffer.
func (r *Recorder) WaitEvent(ev framegraph.Event, h *framegraph.Handoff) {
	r.record(WaitCommand{Event: ev, Handoff: *h})
}

// BeginPass implements framegraph.CommandBuffer.
func (r *Recorder) BeginPass(p *framegraph.PassInfo) { r.record(BeginPassCommand{Info: *p}) }

// NextSubpass implements framegraph.CommandBuffer.
func (r *Recorder) NextSubpass() { r.record(NextSubpassCommand{}) }

// EndPass implements framegraph.CommandBuffer.
func (r *Recorder) EndPass() { r.record(EndPassCommand{}) }

// Blit implements framegraph.CommandBuffer.
func (r *Recorder) Blit(b *framegraph.BlitInfo) { r.record(BlitCommand{Info: *b}) }

// CopyBuffer implements framegraph.CommandBuffer.
func (r *Recorder) CopyBuffer(c *framegraph.CopyInfo) {
	info := *c
	info.Regions = append([]framegraph.CopyRegion(nil), c.Regions...)
	r.record(CopyCommand{Info: info})
}

// Dispatch records a compute dispatch on behalf of a code callback.
func (r *Recorder) Dispatch(label string, x, y, z uint32) {
	r.record(DispatchCommand{Label: label, X: x, Y: y, Z: z})
}

// Draw records a draw on behalf of a code callback.
func (r *Recorder) Draw(label string, vertices, instances uint32) {
	r.record(DrawCommand{Label: label, Vertices: vertices, Instances: instances})
}

// TouchBuffer implements framegraph.Toucher.
func (r *Recorder) TouchBuffer(id framegraph.BufferID, access framegraph.Access) {
	r.record(TouchCommand{ID: uint64(id), Access: access})
}

// TouchTexture implements framegraph.Toucher.
func (r *Recorder) TouchTexture(id framegraph.TextureID, access framegraph.Access) {
	r.record(TouchCommand{Texture: true, ID: uint64(id), Access: access})
}

// Dispatcher is implemented by command buffers that accept the callback
// commands a Recording may carry.
type Dispatcher interface {
	Dispatch(label string, x, y, z uint32)
	Draw(label string, vertices, instances uint32)
}

// Recording is an immutable sequence of commands captured on one queue.
type Recording struct {
	queue    framegraph.Queue
	commands []Command
}

// Queue returns the queue the commands were recorded for.
func (r *Recording) Queue() framegraph.Queue { return r.queue }

// Commands returns the recorded commands.
func (r *Recording) Commands() []Command { return r.commands }

// Len returns the number of commands.
func (r *Recording) Len() int { return len(r.commands) }

// Count returns the number of commands of type t.
func (r *Recording) Count(t CommandType) int {
	n := 0
	for _, c := range r.commands {
		if c.Type() == t {
			n++
		}
	}
	return n
}

// Filter returns the commands whose type is one of types, in order.
func (r *Recording) Filter(types ...CommandType) []Command {
	var out []Command
	for _, c := range r.commands {
		for _, t := range types {
			if c.Type() == t {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Validate checks that markers and passes nest and that subpasses only
// advance inside passes.
func (r *Recording) Validate() error {
	markers, inPass := 0, false
	for i, c := range r.commands {
		switch c.Type() {
		case CmdBeginMarker:
			markers++
		case CmdEndMarker:
			if markers == 0 {
				return fmt.Errorf("%w: end marker without begin at %d", ErrUnbalanced, i)
			}
			markers--
		case CmdBeginPass:
			if inPass {
				return fmt.Errorf("%w: nested pass at %d", ErrUnbalanced, i)
			}
			inPass = true
		case CmdNextSubpass:
			if !inPass {
				return fmt.Errorf("%w: next subpass outside a pass at %d", ErrUnbalanced, i)
			}
		case CmdEndPass:
			if !inPass {
				return fmt.Errorf("%w: end pass without begin at %d", ErrUnbalanced, i)
			}
			inPass = false
		case CmdBarrier, CmdWait:
			if inPass {
				return fmt.Errorf("%w: %s inside a pass at %d", ErrUnbalanced, c.Type(), i)
			}
		}
	}
	if markers != 0 || inPass {
		return fmt.Errorf("%w: %d open markers at end", ErrUnbalanced, markers)
	}
	return nil
}

// Playback replays the recording into cmd. Touch commands are forwarded
// when cmd is a framegraph.Toucher, and dispatches and draws when it is a
// Dispatcher; otherwise they are dropped.
func (r *Recording) Playback(cmd framegraph.CommandBuffer) error {
	if err := r.Validate(); err != nil {
		return err
	}
	d, _ := cmd.(Dispatcher)
	for _, c := range r.commands {
		switch c := c.(type) {
		case BeginMarkerCommand:
			cmd.BeginMarker(c.Name)
		case EndMarkerCommand:
			cmd.EndMarker()
		case BarrierCommand:
			cmd.Barrier(&c.Barrier)
		case SignalCommand:
			cmd.SignalEvent(c.Event, &c.Handoff)
		case WaitCommand:
			cmd.WaitEvent(c.Event, &c.Handoff)
		case BeginPassCommand:
			cmd.BeginPass(&c.Info)
		case NextSubpassCommand:
			cmd.NextSubpass()
		case EndPassCommand:
			cmd.EndPass()
		case BlitCommand:
			cmd.Blit(&c.Info)
		case CopyCommand:
			cmd.CopyBuffer(&c.Info)
		case DispatchCommand:
			if d != nil {
				d.Dispatch(c.Label, c.X, c.Y, c.Z)
			}
		case DrawCommand:
			if d != nil {
				d.Draw(c.Label, c.Vertices, c.Instances)
			}
		case TouchCommand:
			if c.Texture {
				framegraph.TouchTexture(cmd, framegraph.TextureID(c.ID), c.Access)
			} else {
				framegraph.TouchBuffer(cmd, framegraph.BufferID(c.ID), c.Access)
			}
		}
	}
	return nil
}

// Lines returns one line per command, indented by marker depth.
func (r *Recording) Lines() []string {
	lines := make([]string, 0, len(r.commands))
	depth := 0
	for _, c := range r.commands {
		if c.Type() == CmdEndMarker && depth > 0 {
			depth--
		}
		lines = append(lines, strings.Repeat("  ", depth)+c.String())
		if c.Type() == CmdBeginMarker {
			depth++
		}
	}
	return lines
}

// WriteTo writes the recording as text, implementing io.WriterTo.
func (r *Recording) WriteTo(w io.Writer) (int64, error) {
	var total int64
	n, err := fmt.Fprintf(w, "queue %s: %d commands\n", r.queue, len(r.commands))
	total += int64(n)
	if err != nil {
		return total, err
	}
	for _, line := range r.Lines() {
		n, err = fmt.Fprintln(w, line)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (r *Recording) String() string {
	var sb strings.Builder
	_, _ = r.WriteTo(&sb)
	return sb.String()
}
