// Package framebuffer provides the double buffer that sits between the
// network receiver and the renderer.
//
// The writer fills the back slot, the reader copies the front slot, and the
// reader calls Swap to promote the latest complete frame. Each slot has its
// own lock so a receive never serializes against a render; Swap takes both,
// front first.
//
//	buf := framebuffer.New(protocol.FrameBytes)
//
//	// receiver goroutine
//	buf.WriteBack(payload)
//
//	// render loop
//	if buf.Swap() == framebuffer.Swapped {
//	    frame := buf.ReadFront()
//	    ...
//	}
package framebuffer
