package receiver

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/muurk/tc2frames/internal/protocol"
)

// Stage names the startup step that failed.
type Stage string

const (
	// StageBind is binding the listening socket.
	StageBind Stage = "bind"
	// StageLocalAddr is determining the local network address.
	StageLocalAddr Stage = "local-addr"
	// StageAdvertise is publishing presence over mDNS.
	StageAdvertise Stage = "advertise"
)

// StartupError is a failure that must stop the process before it serves
// anything.
type StartupError struct {
	Stage Stage
	Err   error
}

// NewStartupError wraps err as a startup failure at stage.
func NewStartupError(stage Stage, err error) *StartupError {
	return &StartupError{Stage: stage, Err: err}
}

// Error implements the error interface
func (e *StartupError) Error() string {
	return fmt.Sprintf("startup failed at %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *StartupError) Unwrap() error {
	return e.Err
}

// Reasons a connection's read loop ended. They are used as log events.
const (
	EndClosedByCamera = "closed_by_camera"
	EndShortRead      = "short_read"
	EndReadTimeout    = "read_timeout"
	EndShutdown       = "shutdown"
	EndReadError      = "read_error"
)

// classifyReadError maps the error that ended a read loop onto one of the
// End* reasons.
func classifyReadError(err error) string {
	switch {
	case errors.Is(err, io.EOF):
		return EndClosedByCamera
	case errors.Is(err, protocol.ErrShortBlock):
		return EndShortRead
	case errors.Is(err, os.ErrDeadlineExceeded):
		return EndReadTimeout
	case errors.Is(err, net.ErrClosed):
		return EndShutdown
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return EndReadTimeout
	}
	return EndReadError
}
