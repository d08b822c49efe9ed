package main

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/muurk/tc2frames/internal/config"
	"github.com/muurk/tc2frames/internal/discovery"
	"github.com/muurk/tc2frames/internal/receiver"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Receiver.Host = "127.0.0.1"
	cfg.Receiver.Port = 0
	return cfg
}

// recordingDeps captures the advertised service instead of publishing it.
func recordingDeps(got *discovery.Service) startupDeps {
	return startupDeps{
		resolveIP: func(host string) (net.IP, error) {
			return net.ParseIP("192.168.4.16"), nil
		},
		advertise: func(svc discovery.Service) (*discovery.Advertisement, error) {
			*got = svc
			return &discovery.Advertisement{Service: svc}, nil
		},
	}
}

func TestStartFrontend_AdvertisesBoundPort(t *testing.T) {
	var svc discovery.Service
	fe, err := startFrontend(testConfig(), recordingDeps(&svc))
	if err != nil {
		t.Fatalf("startFrontend() error = %v", err)
	}
	defer fe.close()

	if fe.receiver.Port() == 0 {
		t.Fatal("receiver not bound")
	}
	if svc.Port != fe.receiver.Port() {
		t.Errorf("advertised port = %d, want bound port %d", svc.Port, fe.receiver.Port())
	}
	if svc.Host() != "192.168.4.16.local." {
		t.Errorf("advertised host = %q, want 192.168.4.16.local.", svc.Host())
	}
	if svc.Instance != "tc2-frames" || svc.Type != discovery.ServiceType || svc.Domain != discovery.ServiceDomain {
		t.Errorf("advertised %s/%s/%s, want tc2-frames/%s/%s",
			svc.Instance, svc.Type, svc.Domain, discovery.ServiceType, discovery.ServiceDomain)
	}
	if svc.Properties["property_1"] != "test" || svc.Properties["property_2"] != "1234" {
		t.Errorf("advertised properties = %v", svc.Properties)
	}
	if got := fe.advertisedName(); got != "tc2-frames._mdns-tc2-frames._udp.local." {
		t.Errorf("advertisedName() = %q", got)
	}
}

func TestStartFrontend_StartupErrors(t *testing.T) {
	failResolve := startupDeps{
		resolveIP: func(string) (net.IP, error) { return nil, discovery.ErrNoIPv4 },
		advertise: func(discovery.Service) (*discovery.Advertisement, error) {
			t.Error("advertise called after resolve failed")
			return nil, nil
		},
	}
	failAdvertise := startupDeps{
		resolveIP: func(string) (net.IP, error) { return net.ParseIP("10.0.0.1"), nil },
		advertise: func(discovery.Service) (*discovery.Advertisement, error) {
			return nil, errors.New("multicast unavailable")
		},
	}

	tests := []struct {
		name      string
		deps      startupDeps
		wantStage receiver.Stage
	}{
		{"resolve fails", failResolve, receiver.StageLocalAddr},
		{"advertise fails", failAdvertise, receiver.StageAdvertise},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Pick a port, then check it is released after the failure.
			cfg := testConfig()
			cfg.Receiver.Port = freePort(t)

			fe, err := startFrontend(cfg, tt.deps)
			if err == nil {
				fe.close()
				t.Fatal("startFrontend() error = nil, want StartupError")
			}

			var se *receiver.StartupError
			if !errors.As(err, &se) {
				t.Fatalf("startFrontend() error = %T %v, want *receiver.StartupError", err, err)
			}
			if se.Stage != tt.wantStage {
				t.Errorf("Stage = %q, want %q", se.Stage, tt.wantStage)
			}

			ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(cfg.Receiver.Port)))
			if err != nil {
				t.Fatalf("port still held after startup failure: %v", err)
			}
			ln.Close()
		})
	}
}

func TestStartFrontend_BindConflict(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	cfg := testConfig()
	cfg.Receiver.Port = ln.Addr().(*net.TCPAddr).Port

	var svc discovery.Service
	_, err = startFrontend(cfg, recordingDeps(&svc))

	var se *receiver.StartupError
	if !errors.As(err, &se) || se.Stage != receiver.StageBind {
		t.Fatalf("startFrontend() error = %v, want bind StartupError", err)
	}
	if svc.Port != 0 {
		t.Error("advertised despite failing to bind")
	}
}

func TestStartFrontend_DiscoveryDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Discovery.Enabled = false

	deps := startupDeps{
		resolveIP: func(string) (net.IP, error) {
			t.Error("resolveIP called with discovery disabled")
			return nil, nil
		},
		advertise: func(discovery.Service) (*discovery.Advertisement, error) {
			t.Error("advertise called with discovery disabled")
			return nil, nil
		},
	}

	fe, err := startFrontend(cfg, deps)
	if err != nil {
		t.Fatalf("startFrontend() error = %v", err)
	}
	defer fe.close()

	if fe.advertisedName() != "" {
		t.Errorf("advertisedName() = %q, want empty", fe.advertisedName())
	}
}

func TestStartFrontend_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Display.Gradient = "sepia"

	var svc discovery.Service
	if _, err := startFrontend(cfg, recordingDeps(&svc)); err == nil {
		t.Error("startFrontend() with unknown gradient should fail")
	}
}

func TestFrontendRun_StopsWhenConsumerReturns(t *testing.T) {
	var svc discovery.Service
	fe, err := startFrontend(testConfig(), recordingDeps(&svc))
	if err != nil {
		t.Fatalf("startFrontend() error = %v", err)
	}
	defer fe.close()

	done := make(chan error, 1)
	go func() {
		done <- fe.run(context.Background(), func(ctx context.Context) error {
			return nil
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run() did not return after consumer finished")
	}
}

func TestFrontendRun_ConsumerError(t *testing.T) {
	var svc discovery.Service
	fe, err := startFrontend(testConfig(), recordingDeps(&svc))
	if err != nil {
		t.Fatalf("startFrontend() error = %v", err)
	}
	defer fe.close()

	boom := errors.New("surface lost")
	err = fe.run(context.Background(), func(ctx context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("run() error = %v, want %v", err, boom)
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}
