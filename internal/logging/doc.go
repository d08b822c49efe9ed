// Package logging provides structured logging for tc2frames.
//
// This package wraps a zap logger with convenience functions used by the
// receiver, the advertiser and the viewer.
//
// # Log Levels
//
//   - Debug: telemetry hex dumps, per-frame events
//   - Info: listener, connections, advertisement
//   - Warn: dropped connections, skipped swaps
//   - Error: startup failures
//
// # Configuration
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// When no level is given, TC2FRAMES_LOG_LEVEL is consulted. If that is empty
// too, logging is silent. The terminal viewer redirects logs to a file with
// InitializeToFile because it owns stdout.
package logging
