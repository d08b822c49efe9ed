package receiver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/tc2frames/internal/logging"
	"github.com/muurk/tc2frames/internal/protocol"
)

const (
	// DefaultPort is the port the camera connects to.
	DefaultPort = 34254

	// DefaultReadTimeout bounds the wait for one complete block.
	DefaultReadTimeout = 10 * time.Second

	// acceptRetryDelay keeps a failing Accept from spinning.
	acceptRetryDelay = 100 * time.Millisecond
)

// Config holds the receiver configuration
type Config struct {
	Host     string
	Port     int
	Geometry protocol.Geometry
	// ReadTimeout is the deadline for reading one block. Zero disables it,
	// and a stalled camera then holds the connection until it closes.
	ReadTimeout time.Duration
}

// DefaultConfig returns the reference configuration, listening on all
// interfaces.
func DefaultConfig() Config {
	return Config{
		Port:        DefaultPort,
		Geometry:    protocol.DefaultGeometry(),
		ReadTimeout: DefaultReadTimeout,
	}
}

// Addr returns the host:port string to listen on.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// FrameWriter is where the receiver puts each thermal payload.
type FrameWriter interface {
	WriteBack(p []byte)
	Size() int
}

// Stats is a snapshot of receiver counters.
type Stats struct {
	Connections   uint64
	Frames        uint64
	ShortReads    uint64
	RemoteAddr    string // empty when no camera is connected
	LastTelemetry *protocol.Telemetry
}

// Receiver accepts camera connections one at a time and writes every
// complete frame into a FrameWriter.
type Receiver struct {
	config Config
	buf    FrameWriter
	ready  chan struct{}

	mu       sync.Mutex
	listener net.Listener
	active   net.Conn
	closed   bool

	connections atomic.Uint64
	frames      atomic.Uint64
	shortReads  atomic.Uint64
	remoteAddr  atomic.Value // string
	telemetry   atomic.Pointer[protocol.Telemetry]
}

// New creates a Receiver. The writer's slot size must match the payload
// size of the configured geometry.
func New(config Config, buf FrameWriter) (*Receiver, error) {
	if err := config.Geometry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid geometry: %w", err)
	}
	if buf.Size() != config.Geometry.FrameBytes() {
		return nil, fmt.Errorf("frame buffer holds %d bytes, geometry %s needs %d",
			buf.Size(), config.Geometry, config.Geometry.FrameBytes())
	}
	if config.ReadTimeout < 0 {
		return nil, fmt.Errorf("invalid read timeout %v", config.ReadTimeout)
	}

	r := &Receiver{
		config: config,
		buf:    buf,
		ready:  make(chan struct{}, 1),
	}
	r.remoteAddr.Store("")
	return r, nil
}

// Listen binds the listening socket. A failure here is a StartupError.
func (r *Receiver) Listen() error {
	listener, err := net.Listen("tcp", r.config.Addr())
	if err != nil {
		return NewStartupError(StageBind, fmt.Errorf("failed to listen on %s: %w", r.config.Addr(), err))
	}

	r.mu.Lock()
	r.listener = listener
	r.mu.Unlock()

	logging.Info("Receiver listening for camera",
		zap.String("addr", listener.Addr().String()),
		zap.String("geometry", r.config.Geometry.String()),
		zap.Int("block_bytes", r.config.Geometry.BlockBytes()),
		zap.Duration("read_timeout", r.config.ReadTimeout),
	)
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (r *Receiver) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return nil
	}
	return r.listener.Addr()
}

// Port returns the bound TCP port, or 0 before Listen.
func (r *Receiver) Port() int {
	if addr, ok := r.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// Ready delivers one notification per received frame. It has room for a
// single pending notification; further frames while one is pending do not
// queue up, since only the latest frame matters after a swap.
func (r *Receiver) Ready() <-chan struct{} {
	return r.ready
}

// Serve runs the accept loop until ctx is cancelled or Close is called.
// Connections are handled serially: the next Accept happens only after the
// current camera disconnects or its stream breaks.
func (r *Receiver) Serve(ctx context.Context) error {
	r.mu.Lock()
	listener := r.listener
	r.mu.Unlock()
	if listener == nil {
		return errors.New("receiver: Serve called before Listen")
	}

	stop := context.AfterFunc(ctx, func() {
		_ = r.Close()
	})
	defer stop()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if r.isClosed() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			logging.Warn("Failed to accept connection", zap.Error(err))
			time.Sleep(acceptRetryDelay)
			continue
		}

		r.handleConnection(conn)
	}
}

// handleConnection reads blocks from one camera until the stream ends.
func (r *Receiver) handleConnection(conn net.Conn) {
	remoteAddr := conn.RemoteAddr().String()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		_ = conn.Close()
		return
	}
	r.active = conn
	r.mu.Unlock()

	r.connections.Add(1)
	r.remoteAddr.Store(remoteAddr)
	logging.LogConnection(remoteAddr, "connection_accepted")

	defer func() {
		if p := recover(); p != nil {
			logging.Error("Recovered panic while handling camera connection",
				zap.String("remote_addr", remoteAddr),
				zap.Any("panic", p),
			)
		}

		_ = conn.Close()
		r.mu.Lock()
		r.active = nil
		r.mu.Unlock()
		r.remoteAddr.Store("")
		logging.LogConnection(remoteAddr, "connection_closed")
	}()

	br := protocol.NewBlockReader(conn, r.config.Geometry)
	for {
		if r.config.ReadTimeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(r.config.ReadTimeout)); err != nil {
				logging.Info("Failed to set read deadline, connection may be closed",
					zap.String("remote_addr", remoteAddr),
					zap.Error(err),
				)
				return
			}
		}

		blk, err := br.Next()
		if err != nil {
			reason := classifyReadError(err)
			if reason == EndShortRead {
				r.shortReads.Add(1)
			}
			logging.Info("Camera stream ended",
				zap.String("remote_addr", remoteAddr),
				zap.String("reason", reason),
				zap.Error(err),
			)
			return
		}

		r.recordTelemetry(blk.Telemetry)
		r.buf.WriteBack(blk.Payload)
		r.frames.Add(1)
		r.notify()
	}
}

func (r *Receiver) recordTelemetry(raw []byte) {
	if len(raw) == 0 {
		return
	}
	logging.LogRawBytes("Telemetry header", raw)

	tel, err := protocol.ParseTelemetry(raw)
	if err != nil {
		return
	}
	r.telemetry.Store(&tel)
	logging.Debug("Frame received",
		zap.Uint32("frame_count", tel.FrameCount),
		zap.Uint16("frame_mean", tel.FrameMean),
		zap.Float64("fpa_temp_c", tel.TempC),
		zap.String("ffc_state", tel.FFCState),
	)
}

func (r *Receiver) notify() {
	select {
	case r.ready <- struct{}{}:
	default:
	}
}

func (r *Receiver) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Close stops accepting connections and drops the active camera.
func (r *Receiver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	if r.listener != nil {
		err = r.listener.Close()
	}
	if r.active != nil {
		logging.Info("Closing active connection", zap.String("remote_addr", r.active.RemoteAddr().String()))
		_ = r.active.Close()
	}
	return err
}

// Stats returns a snapshot of the receiver counters.
func (r *Receiver) Stats() Stats {
	addr, _ := r.remoteAddr.Load().(string)
	return Stats{
		Connections:   r.connections.Load(),
		Frames:        r.frames.Load(),
		ShortReads:    r.shortReads.Load(),
		RemoteAddr:    addr,
		LastTelemetry: r.telemetry.Load(),
	}
}
