package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Config holds yb's persisted defaults, loaded the way the teacher's
// config.go loads .tk.json: global file, then project file, then CLI
// flags win over both.
type Config struct {
	// Reader is a substring match against a connected device's name,
	// used when more than one is attached. Empty matches any.
	Reader string `json:"reader,omitempty"` //nolint:tagliatelle

	// KeySlot is the default PIV slot holding the store's ECC key.
	KeySlot byte `json:"key_slot,omitempty"` //nolint:tagliatelle

	// FormatObjectCount and FormatObjectSize are the default geometry
	// used by `yb format` when not overridden by flags.
	FormatObjectCount int `json:"format_object_count,omitempty"` //nolint:tagliatelle
	FormatObjectSize  int `json:"format_object_size,omitempty"`  //nolint:tagliatelle

	// SyncEveryWrite selects `self-test`'s writeback mode (§4.7.3's
	// WritebackSync-equivalent knob, grounded on pkg/slotcache's
	// WritebackSync/WritebackNone): true (the default) syncs the store
	// after every store/fetch/remove cycle; false defers the sync until
	// the run's final list, trading per-cycle durability for fewer
	// round trips to the device. A *bool (not bool) so that an explicit
	// "sync_every_write": false in a config file can be told apart from
	// the field being absent, and so can actually turn batching on
	// against the sticky default.
	SyncEveryWrite *bool `json:"sync_every_write,omitempty"` //nolint:tagliatelle
}

// syncEveryWrite reports the effective value of Config.SyncEveryWrite,
// defaulting to true when unset.
func (c Config) syncEveryWrite() bool {
	return c.SyncEveryWrite == nil || *c.SyncEveryWrite
}

// ConfigFileName is the project-local config file name.
const ConfigFileName = ".yb.json"

// DefaultConfig returns yb's built-in defaults.
func DefaultConfig() Config {
	defaultSync := true

	return Config{
		KeySlot:           0x9d, // PIV key management slot
		FormatObjectCount: 32,
		FormatObjectSize:  512,
		SyncEveryWrite:    &defaultSync,
	}
}

// ConfigSources tracks which config files were loaded, for `yb
// print-config`.
type ConfigSources struct {
	Global  string
	Project string
}

// getGlobalConfigPath returns $XDG_CONFIG_HOME/yb/config.json, falling
// back to ~/.config/yb/config.json.
func getGlobalConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "yb", "config.json")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "yb", "config.json")
}

// LoadConfig loads configuration with precedence (highest wins):
// defaults, global config, project config (workDir/.yb.json or an
// explicit configPath).
func LoadConfig(workDir, configPath string) (Config, ConfigSources, error) {
	cfg := DefaultConfig()

	var sources ConfigSources

	if globalPath := getGlobalConfigPath(); globalPath != "" {
		loaded, ok, err := loadConfigFile(globalPath, false)
		if err != nil {
			return Config{}, ConfigSources{}, err
		}

		if ok {
			sources.Global = globalPath
			cfg = mergeConfig(cfg, loaded)
		}
	}

	projectFile := filepath.Join(workDir, ConfigFileName)
	mustExist := false

	if configPath != "" {
		projectFile = configPath
		if !filepath.IsAbs(projectFile) {
			projectFile = filepath.Join(workDir, projectFile)
		}

		mustExist = true
	}

	loaded, ok, err := loadConfigFile(projectFile, mustExist)
	if err != nil {
		return Config{}, ConfigSources{}, err
	}

	if ok {
		sources.Project = projectFile
		cfg = mergeConfig(cfg, loaded)
	}

	return cfg, sources, nil
}

func loadConfigFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, false, nil
		}

		return Config{}, false, fmt.Errorf("read config %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("config %s: invalid JSONC: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, false, fmt.Errorf("config %s: invalid JSON: %w", path, err)
	}

	return cfg, true, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.Reader != "" {
		base.Reader = overlay.Reader
	}

	if overlay.KeySlot != 0 {
		base.KeySlot = overlay.KeySlot
	}

	if overlay.FormatObjectCount != 0 {
		base.FormatObjectCount = overlay.FormatObjectCount
	}

	if overlay.FormatObjectSize != 0 {
		base.FormatObjectSize = overlay.FormatObjectSize
	}

	if overlay.SyncEveryWrite != nil {
		base.SyncEveryWrite = overlay.SyncEveryWrite
	}

	return base
}

// FormatConfig renders cfg as indented JSON, for `yb print-config`.
func FormatConfig(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("format config: %w", err)
	}

	return string(data), nil
}
