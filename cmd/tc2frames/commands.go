package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/tc2frames/internal/camsim"
	"github.com/muurk/tc2frames/internal/config"
	"github.com/muurk/tc2frames/internal/discovery"
	"github.com/muurk/tc2frames/internal/display"
	"github.com/muurk/tc2frames/internal/logging"
	"github.com/muurk/tc2frames/internal/receiver"
	"github.com/muurk/tc2frames/internal/thermal"
)

// Receiver flags, shared by view and snapshot
var (
	listenHost  string
	listenPort  int
	readTimeout time.Duration
	gradient    string
	noAdvertise bool
	instance    string
	scalerName  string
)

// addReceiverFlags registers the flags that override the receiver config.
func addReceiverFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&listenHost, "host", "", "Address to listen on (empty = all interfaces)")
	cmd.Flags().IntVar(&listenPort, "port", receiver.DefaultPort, "TCP port to listen on (0 = any free port)")
	cmd.Flags().DurationVar(&readTimeout, "read-timeout", 10*time.Second, "Deadline for one complete block (0 = wait forever)")
	cmd.Flags().StringVar(&gradient, "gradient", thermal.DefaultGradient, fmt.Sprintf("Color palette %v", thermal.GradientNames()))
	cmd.Flags().BoolVar(&noAdvertise, "no-advertise", false, "Do not advertise the receiver over mDNS")
	cmd.Flags().StringVar(&instance, "instance", discovery.DefaultInstance, "mDNS instance name")
	cmd.Flags().StringVar(&scalerName, "scaler", display.DefaultScaler, fmt.Sprintf("Image scaler %v", display.ScalerNames()))
}

// applyReceiverFlags copies explicitly set flags over the loaded config.
func applyReceiverFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Receiver.Host = listenHost
	}
	if flags.Changed("port") {
		cfg.Receiver.Port = listenPort
	}
	if flags.Changed("read-timeout") {
		cfg.Receiver.ReadTimeout = readTimeout
	}
	if flags.Changed("gradient") {
		cfg.Display.Gradient = gradient
	}
	if flags.Changed("no-advertise") {
		cfg.Discovery.Enabled = !noAdvertise
	}
	if flags.Changed("instance") {
		cfg.Discovery.Instance = instance
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func init() {
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(configCmd)
}

// viewCmd shows frames in the terminal
var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Receive frames and show them in the terminal",
	Long: `Listen for the camera, advertise over mDNS, and draw each frame in the
terminal using 24-bit color half-block characters.

The terminal must support truecolor for correct colors. Logs are written
to a file while the viewer runs (see --log-file).`,
	Example: `  # Listen on the default port
  tc2frames view

  # Different palette, no mDNS
  tc2frames view --gradient inferno --no-advertise

  # Debug logging to a file
  tc2frames view --log-level debug --log-file /tmp/tc2frames.log`,
	RunE: runView,
}

func init() {
	addReceiverFlags(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	if !display.IsTerminal() {
		return errors.New("view needs a terminal; use 'tc2frames snapshot' on headless machines")
	}
	applyReceiverFlags(cmd, cfg)
	if err := initLogging(true); err != nil {
		return err
	}
	scaler, err := display.ScalerByName(scalerName)
	if err != nil {
		return err
	}

	fe, err := startFrontend(cfg, defaultStartupDeps())
	if err != nil {
		return err
	}
	defer fe.close()

	ctx, stop := signalContext()
	defer stop()

	viewer := display.NewViewer(fe.pipeline, fe.receiver, display.ViewerOptions{
		ListenAddr:   fe.receiver.Addr().String(),
		Advertised:   fe.advertisedName(),
		Gradient:     cfg.Display.Gradient,
		PollInterval: cfg.Display.PollInterval,
		Scaler:       scaler,
	})

	return fe.run(ctx, func(ctx context.Context) error {
		return display.RunViewer(ctx, viewer)
	})
}

// Snapshot flags
var (
	snapshotOutput  string
	snapshotWidth   int
	snapshotHeight  int
	snapshotCount   int
	snapshotTimeout time.Duration
)

// snapshotCmd writes frames to a PNG file
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Receive frames and save them as PNG",
	Long: `Listen for the camera like 'view', but write frames to a PNG file scaled
to a fixed window size instead of drawing them in the terminal.

By default the first frame is saved and the command exits. With --count 0
the file is overwritten with every new frame until interrupted.`,
	Example: `  # Save one frame to frame.png at 640x480
  tc2frames snapshot

  # Keep frame.png updated with the latest frame
  tc2frames snapshot --output /var/www/thermal.png --count 0

  # Give up if no frame arrives within 30 seconds
  tc2frames snapshot --timeout 30s`,
	RunE: runSnapshot,
}

func init() {
	addReceiverFlags(snapshotCmd)
	snapshotCmd.Flags().StringVarP(&snapshotOutput, "output", "o", "frame.png", "PNG file to write")
	snapshotCmd.Flags().IntVar(&snapshotWidth, "width", display.DefaultWindowWidth, "Output width in pixels")
	snapshotCmd.Flags().IntVar(&snapshotHeight, "height", display.DefaultWindowHeight, "Output height in pixels")
	snapshotCmd.Flags().IntVar(&snapshotCount, "count", 1, "Frames to save before exiting (0 = until interrupted)")
	snapshotCmd.Flags().DurationVar(&snapshotTimeout, "timeout", 0, "Give up after this long (0 = wait forever)")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	applyReceiverFlags(cmd, cfg)
	if cmd.Flags().Changed("width") {
		cfg.Display.WindowWidth = snapshotWidth
	}
	if cmd.Flags().Changed("height") {
		cfg.Display.WindowHeight = snapshotHeight
	}
	if err := initLogging(false); err != nil {
		return err
	}
	scaler, err := display.ScalerByName(scalerName)
	if err != nil {
		return err
	}

	fe, err := startFrontend(cfg, defaultStartupDeps())
	if err != nil {
		return err
	}
	defer fe.close()

	fmt.Printf("Listening on %s, waiting for frames...\n", fe.receiver.Addr())

	ctx, stop := signalContext()
	defer stop()
	if snapshotTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, snapshotTimeout)
		defer cancel()
	}

	surface := display.NewSnapshotSurface(snapshotOutput)
	surface.Width = cfg.Display.WindowWidth
	surface.Height = cfg.Display.WindowHeight
	surface.Scaler = scaler
	surface.Limit = snapshotCount

	err = fe.run(ctx, func(ctx context.Context) error {
		return fe.pipeline.Run(ctx, cfg.Display.PollInterval, surface)
	})
	if errors.Is(err, display.ErrSnapshotDone) {
		err = nil
	}
	if err != nil {
		return err
	}

	if surface.Written() == 0 {
		return errors.New("no frame received")
	}
	fmt.Printf("Saved %d frame(s) to %s\n", surface.Written(), snapshotOutput)
	return nil
}

// Simulator flags
var (
	simAddr     string
	simPattern  string
	simRate     float64
	simCount    int
	simDiscover time.Duration
	simPick     bool
)

// simulateCmd streams synthetic frames to a receiver
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Act as a camera and stream synthetic frames",
	Long: `Connect to a receiver and stream synthetic frames in the camera wire
format. Useful for testing a receiver without hardware.

Without --addr the receiver is found over mDNS. With --pick an interactive
list of receivers is shown first.`,
	Example: `  # Stream to a receiver found over mDNS
  tc2frames simulate

  # Stream 100 hotspot frames to a known address
  tc2frames simulate --addr 192.168.1.20:34254 --pattern hotspot --count 100

  # Choose from the receivers on the network
  tc2frames simulate --pick`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simAddr, "addr", "", "Receiver address host:port (skips discovery)")
	simulateCmd.Flags().StringVar(&simPattern, "pattern", string(camsim.PatternGradient), fmt.Sprintf("Frame pattern %v", camsim.PatternNames()))
	simulateCmd.Flags().Float64Var(&simRate, "rate", camsim.DefaultRate, "Frames per second (0 = as fast as possible)")
	simulateCmd.Flags().IntVar(&simCount, "count", 0, "Frames to send (0 = until interrupted)")
	simulateCmd.Flags().DurationVar(&simDiscover, "discover-timeout", discovery.DefaultScanTimeout, "How long to browse for a receiver")
	simulateCmd.Flags().BoolVar(&simPick, "pick", false, "Choose the receiver interactively")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if err := initLogging(false); err != nil {
		return err
	}
	pattern, err := camsim.ParsePattern(simPattern)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	addr, err := resolveSimTarget(ctx)
	if err != nil {
		return err
	}
	if addr == "" {
		fmt.Println("No receiver selected.")
		return nil
	}

	sender := camsim.NewSender(addr)
	sender.Geometry = cfg.Geometry()
	sender.Pattern = pattern
	sender.Rate = simRate

	fmt.Printf("Streaming %s frames to %s...\n", pattern, addr)
	sent, err := sender.Send(ctx, simCount)
	fmt.Printf("Sent %d frame(s)\n", sent)
	return err
}

// resolveSimTarget returns the address to stream to, or "" if the user
// quit the picker.
func resolveSimTarget(ctx context.Context) (string, error) {
	if simAddr != "" {
		return simAddr, nil
	}

	scanner := discovery.NewScanner()
	scanner.Timeout = simDiscover
	scanner.Instance = cfg.Discovery.Instance

	if simPick {
		ep, err := display.RunPicker(ctx, scanner, simDiscover, cfg.Receiver.Port)
		if err != nil || ep == nil {
			return "", err
		}
		return ep.Addr(), nil
	}

	fmt.Printf("Looking for a receiver (timeout: %v)...\n", simDiscover)
	ep, err := scanner.Find(ctx)
	if err != nil {
		return "", fmt.Errorf("%w (use --addr to skip discovery)", err)
	}
	logging.Info("Found receiver", zap.String("endpoint", ep.String()))
	return ep.Addr(), nil
}

// Discover flags
var (
	discoverTimeout time.Duration
	discoverAll     bool
)

// discoverCmd lists receivers on the network
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List frame receivers advertised on the network",
	Long: `Browse mDNS for _mdns-tc2-frames._udp.local. and list every receiver that
answers. This is what the camera sees when it looks for somewhere to stream.`,
	Example: `  # Browse for 5 seconds (default)
  tc2frames discover

  # Include receivers with other instance names
  tc2frames discover --all --timeout 10s`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", discovery.DefaultScanTimeout, "Browse timeout")
	discoverCmd.Flags().BoolVar(&discoverAll, "all", false, "List every instance, not just the configured one")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	if err := initLogging(false); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	scanner := discovery.NewScanner()
	scanner.Timeout = discoverTimeout
	if discoverAll {
		scanner.Instance = ""
	} else {
		scanner.Instance = cfg.Discovery.Instance
	}

	fmt.Printf("Browsing for %s.%s (timeout: %v)...\n\n", discovery.ServiceType, discovery.ServiceDomain, discoverTimeout)

	endpoints, err := scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(endpoints) == 0 {
		fmt.Println("No receivers found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure 'tc2frames view' or 'tc2frames snapshot' is running")
		fmt.Println("  - Check both machines are on the same network segment")
		fmt.Println("  - Check the firewall allows mDNS (UDP port 5353)")
		fmt.Println("  - Try increasing --timeout for slower networks")
		return nil
	}

	fmt.Printf("Found %d receiver(s):\n\n", len(endpoints))
	for i, ep := range endpoints {
		fmt.Printf("%d. %s\n", i+1, ep.Instance)
		fmt.Printf("   Host:    %s\n", ep.Hostname)
		fmt.Printf("   Address: %s\n", ep.Addr())
		if len(ep.Metadata) > 0 {
			fmt.Printf("   TXT:     %v\n", ep.Metadata)
		}
		fmt.Println()
	}
	return nil
}

// configCmd manages the config file
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default values",
	Long: `Write a configuration file with default values. The existing file is not
read, so this also repairs a file that no longer loads.`,
	PersistentPreRunE: skipConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := targetConfigPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.Default().Save(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:               "path",
	Short:             "Print the configuration file location",
	PersistentPreRunE: skipConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := targetConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := targetConfigPath()
		if err != nil {
			return err
		}
		fmt.Printf("Config file: %s\n\n", path)

		r, d, disc := cfg.Receiver, cfg.Display, cfg.Discovery
		fmt.Println("Receiver:")
		fmt.Printf("  Listen:        %s\n", receiver.Config{Host: r.Host, Port: r.Port}.Addr())
		fmt.Printf("  Read timeout:  %v\n", r.ReadTimeout)
		fmt.Printf("  Frame:         %dx%d, %d byte telemetry\n", r.Width, r.Height, r.TelemetryLength)
		fmt.Println("Display:")
		fmt.Printf("  Gradient:      %s\n", d.Gradient)
		fmt.Printf("  Poll interval: %v\n", d.PollInterval)
		fmt.Printf("  Snapshot size: %dx%d\n", d.WindowWidth, d.WindowHeight)
		fmt.Println("Discovery:")
		fmt.Printf("  Enabled:       %v\n", disc.Enabled)
		fmt.Printf("  Instance:      %s\n", disc.Instance)
		fmt.Printf("  Properties:    %v\n", disc.PropertyList())
		return cfg.Validate()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)
}

func targetConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}
