// Package config loads and saves the tc2frames configuration file.
//
// The file is YAML and lives in the platform configuration directory:
//   - Linux: $XDG_CONFIG_HOME/tc2frames/config.yaml or $HOME/.config/tc2frames/config.yaml
//   - macOS: $HOME/.config/tc2frames/config.yaml
//   - Windows: %LOCALAPPDATA%\tc2frames\config.yaml
//
// A missing file is not an error; Load returns the defaults. Command line
// flags are applied on top of whatever was loaded.
//
// # Usage Example
//
//	cfg, err := config.LoadDefault()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg.Receiver.Port = 40000
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//	path, _ := config.GetConfigPath()
//	if err := cfg.Save(path); err != nil {
//	    log.Fatal(err)
//	}
package config
