// Package timeline draws a compiled frame as a lane diagram.
//
// Every queue gets a horizontal lane and every op a column, in replay
// order. Boxes are coloured by op kind, ticks on the left edge of a box
// count the barriers recorded before it, and each cross-queue handoff is
// drawn as a line from the signaling op to the waiting op.
//
//	img, err := timeline.Render(program, timeline.Options{})
//	if err != nil {
//	    return err
//	}
//	return png.Encode(w, img)
//
// Labels are set in Go Regular through golang.org/x/image.
package timeline
