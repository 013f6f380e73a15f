// Package recording provides a framegraph.CommandBuffer that captures
// replayed commands as typed values instead of submitting them.
//
// A Recorder stands in for a device command buffer. Replaying a compiled
// program into it yields a Recording: the exact ordered sequence of
// markers, barriers, event signals and waits, pass scopes, blits and
// copies the program issues for one frame. Recordings are used for
// golden comparisons in tests, textual dumps and timeline rendering, and
// can be played back into a real command buffer later.
//
// Design follows the typed command struct approach: every command is a
// small struct with a CommandType, which keeps recordings inspectable and
// easy to diff.
//
// # Example
//
//	queues := recording.NewQueues()
//	program.Run(queues, frame, frame%3)
//	for _, r := range queues.Finish() {
//	    fmt.Print(r)
//	}
//
// # Code Callbacks
//
// Code callbacks receive the Recorder as their framegraph.CommandBuffer.
// They may record their own work through Dispatch and Draw, and report
// resource touches through framegraph.TouchBuffer and TouchTexture,
// which a Recorder captures as Touch commands.
package recording
