package protocol

import (
	"testing"
	"time"
)

func TestParseTelemetry_KnownLayout(t *testing.T) {
	raw := make([]byte, TelemetryLength)
	// time on = 0x00012345 ms, least significant word first
	raw[2], raw[3], raw[4], raw[5] = 0x23, 0x45, 0x00, 0x01
	// status: FFC state 2 (running)
	raw[6], raw[7] = 0x00, 0x20
	// frame counter = 70000
	raw[40], raw[41], raw[42], raw[43] = 0x11, 0x70, 0x00, 0x01
	// frame mean
	raw[44], raw[45] = 0x1F, 0x40
	// FPA temp 30.00C = 30315 cK
	raw[48], raw[49] = 0x76, 0x6B

	tel, err := ParseTelemetry(raw)
	if err != nil {
		t.Fatalf("ParseTelemetry() error = %v", err)
	}

	if tel.TimeOn != 0x12345*time.Millisecond {
		t.Errorf("TimeOn = %v, want %v", tel.TimeOn, 0x12345*time.Millisecond)
	}
	if tel.FFCState != FFCRunning {
		t.Errorf("FFCState = %q, want %q", tel.FFCState, FFCRunning)
	}
	if tel.FrameCount != 70000 {
		t.Errorf("FrameCount = %d, want 70000", tel.FrameCount)
	}
	if tel.FrameMean != 8000 {
		t.Errorf("FrameMean = %d, want 8000", tel.FrameMean)
	}
	if tel.TempC != 30 {
		t.Errorf("TempC = %v, want 30", tel.TempC)
	}
}

func TestParseTelemetry_TooShort(t *testing.T) {
	if _, err := ParseTelemetry(make([]byte, 10)); err == nil {
		t.Error("ParseTelemetry() on 10 bytes should fail")
	}
}

func TestEncodeTelemetry_RoundTrip(t *testing.T) {
	in := Telemetry{
		TimeOn:       90 * time.Second,
		FFCState:     FFCComplete,
		FrameCount:   123456,
		FrameMean:    3100,
		TempC:        31.5,
		LastFFCTempC: 29.25,
		LastFFCTime:  12 * time.Second,
	}

	raw := EncodeTelemetry(in, TelemetryLength)
	if len(raw) != TelemetryLength {
		t.Fatalf("EncodeTelemetry() length = %d, want %d", len(raw), TelemetryLength)
	}

	out, err := ParseTelemetry(raw)
	if err != nil {
		t.Fatalf("ParseTelemetry() error = %v", err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestFFCState(t *testing.T) {
	tests := []struct {
		status uint32
		want   string
	}{
		{0x00, FFCNever},
		{0x10, FFCImminent},
		{0x20, FFCRunning},
		{0x30, FFCComplete},
		{0x0F, FFCNever},
	}
	for _, tt := range tests {
		if got := ffcState(tt.status); got != tt.want {
			t.Errorf("ffcState(0x%x) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestTelemetry_String(t *testing.T) {
	tel := Telemetry{FrameCount: 42, FrameMean: 7, TempC: 25.5, FFCState: FFCNever}
	if got, want := tel.String(), "#42 mean=7 fpa=25.50C ffc=never"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
