// Package protocol implements the TC2 frame stream wire format.
//
// The camera sends one block per frame over a plain TCP connection. Blocks
// have no delimiters and a fixed length:
//
//	[640 bytes telemetry][160*120 samples, uint16 big-endian]
//
// so one block is 640 + 38400 = 39040 bytes.
//
// # Reading Blocks
//
//	br := protocol.NewBlockReader(conn, protocol.DefaultGeometry())
//	for {
//	    blk, err := br.Next()
//	    if err != nil {
//	        break // io.EOF, ErrShortBlock or a read error
//	    }
//	    buf.WriteBack(blk.Payload)
//	}
//
// # Telemetry
//
// The header follows the Lepton telemetry row layout. ParseTelemetry reads
// the frame counter, frame mean, FPA temperature and FFC state from it. The
// data path never depends on the header's contents, only on its length.
package protocol
