// Package native replays compiled frame programs on a gogpu/wgpu HAL
// device.
//
// The HAL exposes a single submission queue, so every logical queue of a
// program is recorded into one command encoder in program order. Queue
// handoffs then reduce to ordering checks plus the texture transitions of
// the acquiring side. Subpasses are lowered to consecutive render passes
// that load the attachments the previous subpass stored.
//
// Typical use:
//
//	dev, err := native.NewDevice(provider)
//	res, err := framegraph.NewResources(dev.Storage(), w, h, dev.SurfaceFormat())
//	script, err := framegraph.NewScript("main", reg, res, framegraph.ScriptOptions{
//	    BufferedFrames: 2,
//	    Events:         dev.Events(),
//	})
//	...
//	dev.Storage().BindWindow(res.Window(), surfaceTexture, surfaceView)
//	cmdBuf, err := dev.Encode(script.Compile(), frame, frame%2)
package native
