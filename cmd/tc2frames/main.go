// Tc2frames receives thermal frames from a TC2 camera and shows them.
//
// It listens for the camera on TCP, advertises itself over mDNS so the
// camera can find it, and renders each frame with a false-color palette in
// the terminal or to a PNG file. A camera simulator is included for
// testing without hardware.
//
// Usage:
//
//	tc2frames [command] [flags]
//
// Running without arguments starts the terminal viewer.
// See 'tc2frames --help' for available commands.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/muurk/tc2frames/internal/config"
	"github.com/muurk/tc2frames/internal/logging"
	"github.com/muurk/tc2frames/internal/receiver"
	"github.com/muurk/tc2frames/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		var startupErr *receiver.StartupError
		if errors.As(err, &startupErr) {
			fmt.Fprintf(os.Stderr, "Startup failed (%s): %v\n", startupErr.Stage, startupErr.Err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// Global flags
var (
	configPath string
	logLevel   string
	logFile    string

	// cfg is loaded before any command runs
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tc2frames",
	Short: "TC2 thermal camera frame receiver",
	Long: `Receives thermal frames streamed by a TC2 camera and displays them.

The receiver listens on TCP (default port 34254) and advertises itself over
mDNS as "tc2-frames" on _mdns-tc2-frames._udp.local. so the camera can find
it. Each frame is normalized and colored with a perceptual palette.

If no command is specified, the terminal viewer starts.`,
	Version:           version.Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run the viewer when no subcommand provided
		return runView(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: platform config dir)/tc2frames/config.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); empty disables logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")

	addReceiverFlags(rootCmd)

	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and applies the global flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if cmd.Flags().Changed("log-file") {
		cfg.Logging.File = logFile
	}
	return nil
}

// initLogging starts the logger. The viewer owns the terminal, so when it
// runs logs go to a file even if none was configured.
func initLogging(ownsTerminal bool) error {
	path := cfg.Logging.File
	if path == "" {
		path = "stderr"
		if ownsTerminal {
			dir, err := config.GetConfigDir()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0700); err != nil {
				return fmt.Errorf("failed to create log directory: %w", err)
			}
			path = filepath.Join(dir, "tc2frames.log")
		}
	}
	return logging.InitializeToFile(cfg.Logging.Level, path)
}

// skipConfig replaces loadConfig for commands that must work with a broken
// or missing config file.
func skipConfig(cmd *cobra.Command, args []string) error {
	return nil
}

var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print version information",
	PersistentPreRunE: skipConfig,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tc2frames %s\n", version.Full())
	},
}
