package protocol

import (
	"encoding/binary"
	"fmt"
	"time"
)

// FFC states reported in the telemetry status bits.
const (
	FFCNever    = "never"
	FFCImminent = "imminent"
	FFCRunning  = "running"
	FFCComplete = "complete"
)

// Word offsets of the fields we read from the Lepton telemetry row.
const (
	wordTimeOn         = 1
	wordStatus         = 3
	wordFrameCounter   = 20
	wordFrameMean      = 22
	wordFPATemp        = 24
	wordFPATempLastFFC = 29
	wordTimeLastFFC    = 30

	telemetryWords = 32
)

const (
	statusFFCStateMask  uint32 = 3 << 4
	statusFFCStateShift uint32 = 4
)

// Telemetry holds the status fields the camera puts in front of each frame.
type Telemetry struct {
	TimeOn       time.Duration
	FFCState     string
	FrameCount   uint32
	FrameMean    uint16
	TempC        float64
	LastFFCTempC float64
	LastFFCTime  time.Duration
}

// ParseTelemetry decodes the leading words of a telemetry header. Words are
// big-endian; 32-bit values are sent least significant word first.
func ParseTelemetry(raw []byte) (Telemetry, error) {
	if len(raw) < telemetryWords*2 {
		return Telemetry{}, fmt.Errorf("telemetry too short: %d bytes, need %d", len(raw), telemetryWords*2)
	}

	status := readU32(raw, wordStatus)
	return Telemetry{
		TimeOn:       time.Duration(readU32(raw, wordTimeOn)) * time.Millisecond,
		FFCState:     ffcState(status),
		FrameCount:   readU32(raw, wordFrameCounter),
		FrameMean:    readU16(raw, wordFrameMean),
		TempC:        centiKelvinToC(readU16(raw, wordFPATemp)),
		LastFFCTempC: centiKelvinToC(readU16(raw, wordFPATempLastFFC)),
		LastFFCTime:  time.Duration(readU32(raw, wordTimeLastFFC)) * time.Millisecond,
	}, nil
}

// EncodeTelemetry is the inverse of ParseTelemetry for the fields it knows.
// The result is length bytes long; length must be at least 64.
func EncodeTelemetry(t Telemetry, length int) []byte {
	if length < telemetryWords*2 {
		length = telemetryWords * 2
	}
	raw := make([]byte, length)
	putU32(raw, wordTimeOn, uint32(t.TimeOn/time.Millisecond))
	putU32(raw, wordStatus, ffcStatusBits(t.FFCState))
	putU32(raw, wordFrameCounter, t.FrameCount)
	putU16(raw, wordFrameMean, t.FrameMean)
	putU16(raw, wordFPATemp, cToCentiKelvin(t.TempC))
	putU16(raw, wordFPATempLastFFC, cToCentiKelvin(t.LastFFCTempC))
	putU32(raw, wordTimeLastFFC, uint32(t.LastFFCTime/time.Millisecond))
	return raw
}

// String returns a one-line summary for the status bar
func (t Telemetry) String() string {
	return fmt.Sprintf("#%d mean=%d fpa=%.2fC ffc=%s", t.FrameCount, t.FrameMean, t.TempC, t.FFCState)
}

func readU16(raw []byte, word int) uint16 {
	return binary.BigEndian.Uint16(raw[word*2:])
}

func readU32(raw []byte, word int) uint32 {
	return uint32(readU16(raw, word+1))<<16 | uint32(readU16(raw, word))
}

func putU16(raw []byte, word int, v uint16) {
	binary.BigEndian.PutUint16(raw[word*2:], v)
}

func putU32(raw []byte, word int, v uint32) {
	putU16(raw, word, uint16(v))
	putU16(raw, word+1, uint16(v>>16))
}

func centiKelvinToC(v uint16) float64 {
	return float64(int(v)-27315) / 100
}

func cToCentiKelvin(c float64) uint16 {
	v := c*100 + 27315
	if v < 0 {
		return 0
	}
	if v > 65535 {
		return 65535
	}
	return uint16(v + 0.5)
}

func ffcState(status uint32) string {
	switch (status & statusFFCStateMask) >> statusFFCStateShift {
	case 0:
		return FFCNever
	case 1:
		return FFCImminent
	case 2:
		return FFCRunning
	default:
		return FFCComplete
	}
}

func ffcStatusBits(state string) uint32 {
	var bits uint32
	switch state {
	case FFCImminent:
		bits = 1
	case FFCRunning:
		bits = 2
	case FFCComplete:
		bits = 3
	}
	return bits << statusFFCStateShift
}
