package camsim

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/muurk/tc2frames/internal/protocol"
)

func TestParsePattern(t *testing.T) {
	tests := []struct {
		name    string
		want    Pattern
		wantErr bool
	}{
		{"gradient", PatternGradient, false},
		{"hotspot", PatternHotspot, false},
		{"zeros", PatternZeros, false},
		{"plasma", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePattern(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePattern(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePattern(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestPatternNames(t *testing.T) {
	got := PatternNames()
	want := []string{"gradient", "hotspot", "zeros"}
	if len(got) != len(want) {
		t.Fatalf("PatternNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("PatternNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSamples_Hotspot(t *testing.T) {
	s := NewSender("")
	s.Pattern = PatternHotspot

	samples := s.Samples(0)
	if len(samples) != protocol.DefaultWidth*protocol.DefaultHeight {
		t.Fatalf("len(Samples()) = %d, want %d", len(samples), protocol.DefaultWidth*protocol.DefaultHeight)
	}

	peaks := 0
	for i, v := range samples {
		switch v {
		case hotspotPeak:
			peaks++
		case hotspotBackground:
		default:
			t.Fatalf("sample %d = %d, want %d or %d", i, v, hotspotBackground, hotspotPeak)
		}
	}
	if peaks != 1 {
		t.Errorf("hotspot peaks = %d, want 1", peaks)
	}
}

func TestSamples_GradientScrolls(t *testing.T) {
	s := NewSender("")
	s.Geometry = protocol.Geometry{Width: 4, Height: 2, TelemetryLength: 64}

	first := s.Samples(0)
	next := s.Samples(1)

	// Column x of frame 1 shows what column x+1 showed in frame 0.
	for x := 0; x < 3; x++ {
		if next[x] != first[x+1] {
			t.Errorf("frame 1 col %d = %d, want %d", x, next[x], first[x+1])
		}
	}
	for _, v := range first {
		if v == 0 {
			t.Fatal("gradient pattern should not contain zero samples")
		}
	}
}

func TestSamples_Zeros(t *testing.T) {
	s := NewSender("")
	s.Pattern = PatternZeros
	for i, v := range s.Samples(7) {
		if v != 0 {
			t.Fatalf("sample %d = %d, want 0", i, v)
		}
	}
}

func TestWriteBlocks_FrameCounter(t *testing.T) {
	s := NewSender("")
	s.Rate = 0

	var buf bytes.Buffer
	sent, err := s.WriteBlocks(context.Background(), &buf, 3)
	if err != nil {
		t.Fatalf("WriteBlocks() error = %v", err)
	}
	if sent != 3 {
		t.Fatalf("WriteBlocks() sent = %d, want 3", sent)
	}
	if buf.Len() != 3*protocol.TotalBlockBytes {
		t.Fatalf("wrote %d bytes, want %d", buf.Len(), 3*protocol.TotalBlockBytes)
	}

	br := protocol.NewBlockReader(&buf, s.Geometry)
	for i := uint32(0); i < 3; i++ {
		blk, err := br.Next()
		if err != nil {
			t.Fatalf("Next() block %d error = %v", i, err)
		}
		tel, err := protocol.ParseTelemetry(blk.Telemetry)
		if err != nil {
			t.Fatalf("ParseTelemetry() error = %v", err)
		}
		if tel.FrameCount != i {
			t.Errorf("block %d FrameCount = %d, want %d", i, tel.FrameCount, i)
		}
		if tel.FFCState != protocol.FFCComplete {
			t.Errorf("block %d FFCState = %q, want %q", i, tel.FFCState, protocol.FFCComplete)
		}
	}
	if _, err := br.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next() after last block error = %v, want io.EOF", err)
	}
}

func TestWriteBlocks_InvalidGeometry(t *testing.T) {
	s := NewSender("")
	s.Geometry = protocol.Geometry{}

	if _, err := s.WriteBlocks(context.Background(), io.Discard, 1); err == nil {
		t.Error("WriteBlocks() with zero geometry should fail")
	}
}

func TestWriteBlocks_StopsOnCancel(t *testing.T) {
	s := NewSender("")
	s.Rate = 1000

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	sent, err := s.WriteBlocks(ctx, io.Discard, 0)
	if err != nil {
		t.Fatalf("WriteBlocks() error = %v", err)
	}
	if sent == 0 {
		t.Error("WriteBlocks() sent nothing before the deadline")
	}
}

func TestSend_Loopback(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()

	received := make(chan int, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			received <- -1
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- len(data)
	}()

	s := NewSender(ln.Addr().String())
	s.Rate = 0
	s.Pattern = PatternHotspot

	sent, err := s.Send(context.Background(), 2)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if sent != 2 {
		t.Errorf("Send() sent = %d, want 2", sent)
	}

	select {
	case n := <-received:
		if n != 2*protocol.TotalBlockBytes {
			t.Errorf("receiver got %d bytes, want %d", n, 2*protocol.TotalBlockBytes)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("receiver never finished reading")
	}
}

func TestSend_NoReceiver(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	s := NewSender(addr)
	s.MaxRetries = 1
	s.RetryDelay = time.Millisecond

	if _, err := s.Send(context.Background(), 1); err == nil {
		t.Error("Send() to a closed port should fail")
	}
}
