// Package framegraph compiles a declarative frame description into a
// linear sequence of GPU command-buffer operations with the barriers and
// cross-queue handoffs between them inserted automatically.
//
// # Overview
//
// Rendering features describe their GPU work as ops: opaque Code
// callbacks, render Passes with Subpasses, Blits and buffer Copies. Each op
// declares which buffers and textures it reads or writes, at which
// pipeline stage and over which sub-resource range. Features register
// named lists of ops with a Registry, and a Script embeds them by name
// through Subgraph ops.
//
// Compiling a Script walks its ops in registration order. For every
// declared access the compiler consults the live state of the resource
// and emits exactly the synchronization required:
//
//   - no barrier on first touch, for disjoint ranges or between reads
//   - a pipeline barrier for conflicting accesses on the same queue
//   - an event pair (release on the producer queue, acquire on the
//     consumer queue) for accesses that cross queues
//
// Two accesses conflict when their ranges overlap and at least one of
// them writes. Registration order is program order; the compiler never
// reorders.
//
// # Quick Start
//
//	reg := framegraph.NewRegistry()
//	res, _ := framegraph.NewResources(nil, 1280, 720, gputypes.TextureFormatBGRA8Unorm)
//	lights, _ := res.AddBuffer(framegraph.BufferInfo{Name: "Lights", Size: 1 << 16})
//
//	cull := &framegraph.Code{Func: cullLights}
//	cull.Name, cull.Queue = "Cull", framegraph.QueueCompute
//	cull.WritesBuffer(lights, framegraph.StageComputeShader, "light list")
//	reg.AddSubgraph("Lights Cull", []framegraph.Node{cull})
//
//	script, _ := framegraph.NewScript("main", reg, res, framegraph.ScriptOptions{})
//	script.AddOp(&framegraph.Subgraph{Op: framegraph.Op{Name: "Lights Cull"}})
//	script.AddOp(shade) // reads Lights at the pixel shader stage
//	script.Compile()
//
//	script.Run(framegraph.SingleQueue(cmd), frame, frame%3)
//
// # Synchronization Domains
//
// Ops in DomainGlobal receive their barriers inline. Inside a Pass, or
// under a Subgraph in DomainPass, synchronization is hoisted onto the
// enclosing op so it is recorded once at the pass boundary. Hoisting
// never crosses queues.
//
// # Buffered Frames
//
// Compiled programs are replayed with a bufferIndex selecting the copy of
// per-frame resources in use. Each cross-queue event slot is backed by one
// device event per buffered frame, created through an EventAllocator.
//
// # Trust Model
//
// Declared dependencies must cover everything a callback touches. The
// compiler does not inspect callbacks. Wrapping the command buffers in an
// Audit during development reports undeclared touches.
package framegraph
