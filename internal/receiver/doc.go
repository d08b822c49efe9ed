// Package receiver implements the TCP side of the frame pipeline.
//
// The receiver listens for the camera, accepts one connection at a time and
// reads fixed-size blocks from it. For every complete block it strips the
// telemetry header, writes the thermal payload into the back slot of a
// frame buffer and signals Ready.
//
// # Connection Handling
//
// A short block, a read error or an expired read deadline ends that
// connection only. The receiver logs why and goes back to Accept. Failures
// to bind, to find the local address or to advertise are StartupErrors and
// are fatal to the process.
//
// # Usage Example
//
//	buf := framebuffer.New(protocol.FrameBytes)
//	rcv, err := receiver.New(receiver.DefaultConfig(), buf)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := rcv.Listen(); err != nil {
//	    log.Fatal(err)
//	}
//	go rcv.Serve(ctx)
//
//	for range rcv.Ready() {
//	    buf.Swap()
//	    frame := buf.ReadFront()
//	    ...
//	}
//
// # Thread Safety
//
// Serve runs on its own goroutine and is the only writer to the buffer's
// back slot. Ready, Stats, Addr and Close are safe to call from any
// goroutine.
package receiver
