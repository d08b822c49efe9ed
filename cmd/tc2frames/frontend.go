package main

import (
	"context"
	"net"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/tc2frames/internal/config"
	"github.com/muurk/tc2frames/internal/discovery"
	"github.com/muurk/tc2frames/internal/framebuffer"
	"github.com/muurk/tc2frames/internal/logging"
	"github.com/muurk/tc2frames/internal/pipeline"
	"github.com/muurk/tc2frames/internal/receiver"
	"github.com/muurk/tc2frames/internal/thermal"
)

// startupDeps are the network side effects of startup, swapped out in tests.
type startupDeps struct {
	resolveIP func(host string) (net.IP, error)
	advertise func(svc discovery.Service) (*discovery.Advertisement, error)
}

func defaultStartupDeps() startupDeps {
	return startupDeps{
		resolveIP: discovery.ResolveIP,
		advertise: discovery.Advertise,
	}
}

// frontend is the receiving half of the program: socket, buffer,
// advertisement and decode pipeline.
type frontend struct {
	receiver *receiver.Receiver
	pipeline *pipeline.Pipeline
	adv      *discovery.Advertisement
}

// startFrontend binds the listener and then advertises it. Either step
// failing is a StartupError, and nothing is left running.
func startFrontend(cfg *config.Config, deps startupDeps) (*frontend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	geom := cfg.Geometry()
	buf := framebuffer.New(geom.FrameBytes())

	rcv, err := receiver.New(receiver.Config{
		Host:        cfg.Receiver.Host,
		Port:        cfg.Receiver.Port,
		Geometry:    geom,
		ReadTimeout: cfg.Receiver.ReadTimeout,
	}, buf)
	if err != nil {
		return nil, err
	}
	if err := rcv.Listen(); err != nil {
		return nil, err
	}

	var adv *discovery.Advertisement
	if cfg.Discovery.Enabled {
		ip, err := deps.resolveIP(cfg.Receiver.Host)
		if err != nil {
			_ = rcv.Close()
			return nil, receiver.NewStartupError(receiver.StageLocalAddr, err)
		}

		svc := discovery.DefaultService()
		svc.Instance = cfg.Discovery.Instance
		if len(cfg.Discovery.Properties) > 0 {
			svc.Properties = cfg.Discovery.Properties
		}
		svc.IP = ip
		svc.Port = rcv.Port()

		adv, err = deps.advertise(svc)
		if err != nil {
			_ = rcv.Close()
			return nil, receiver.NewStartupError(receiver.StageAdvertise, err)
		}
	} else {
		logging.Info("mDNS advertisement disabled")
	}

	// Validate has already checked the name.
	gradient, _ := thermal.GradientByName(cfg.Display.Gradient)
	decoder := thermal.NewDecoder(geom.Width, geom.Height, gradient)

	return &frontend{
		receiver: rcv,
		pipeline: pipeline.New(buf, rcv.Ready(), decoder),
		adv:      adv,
	}, nil
}

// advertisedName is shown in the viewer header.
func (f *frontend) advertisedName() string {
	if f.adv == nil {
		return ""
	}
	return f.adv.Service.Instance + "." + f.adv.Service.Type + "." + f.adv.Service.Domain
}

// run serves cameras while consume runs, and stops the receiver when
// consume returns.
func (f *frontend) run(ctx context.Context, consume func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return f.receiver.Serve(gctx)
	})
	g.Go(func() error {
		defer cancel()
		return consume(gctx)
	})

	err := g.Wait()
	stats := f.receiver.Stats()
	logging.Info("Receiver stopped",
		zap.Uint64("connections", stats.Connections),
		zap.Uint64("frames", stats.Frames),
		zap.Uint64("short_reads", stats.ShortReads),
	)
	return err
}

// close withdraws the advertisement and releases the socket.
func (f *frontend) close() {
	f.adv.Shutdown()
	_ = f.receiver.Close()
}
