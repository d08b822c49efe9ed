// Package version reports the build version of tc2frames.
package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/muurk/tc2frames/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/tc2frames/internal/version.Commit=abc123"
//
// Otherwise they are filled from the VCS stamp in the build info, or "dev".
var (
	Version = ""
	Commit  = ""
)

func init() {
	if Version == "" || Commit == "" {
		fromBuildInfo(readBuildSettings())
	}
	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

func readBuildSettings() map[string]string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	return settings
}

// fromBuildInfo fills Commit and Version from vcs.* build settings.
func fromBuildInfo(settings map[string]string) {
	if Commit == "" {
		if rev := settings["vcs.revision"]; rev != "" {
			if len(rev) > 7 {
				rev = rev[:7]
			}
			if settings["vcs.modified"] == "true" {
				rev += "-dirty"
			}
			Commit = rev
		}
	}

	if Version == "" {
		if t, err := time.Parse(time.RFC3339, settings["vcs.time"]); err == nil {
			Version = "dev-" + t.Format("20060102")
		}
	}
}

// Full returns the full version string including commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}
