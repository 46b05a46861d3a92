package cli

import (
	"os"
	"path/filepath"
	"testing"
)

// isolatedConfigEnv points XDG_CONFIG_HOME at a fresh temp dir so tests
// never read or write the real user config.
func isolatedConfigEnv(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	return dir
}

func TestLoadConfig_DefaultsWhenNothingPresent(t *testing.T) {
	isolatedConfigEnv(t)
	workDir := t.TempDir()

	cfg, sources, err := LoadConfig(workDir, "")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	want := DefaultConfig()
	if cfg.Reader != want.Reader || cfg.KeySlot != want.KeySlot ||
		cfg.FormatObjectCount != want.FormatObjectCount || cfg.FormatObjectSize != want.FormatObjectSize ||
		cfg.syncEveryWrite() != want.syncEveryWrite() {
		t.Fatalf("LoadConfig() = %+v, want defaults %+v", cfg, want)
	}

	if sources.Global != "" || sources.Project != "" {
		t.Fatalf("sources = %+v, want both empty", sources)
	}
}

func TestLoadConfig_ProjectOverridesGlobalOverridesDefaults(t *testing.T) {
	xdgDir := isolatedConfigEnv(t)
	workDir := t.TempDir()

	globalDir := filepath.Join(xdgDir, "yb")
	if err := os.MkdirAll(globalDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	globalJSON := `{"reader": "global-reader", "key_slot": 130, "format_object_count": 10}`
	if err := os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(globalJSON), 0o644); err != nil {
		t.Fatalf("WriteFile global config: %v", err)
	}

	projectJSON := `{"key_slot": 131}`
	if err := os.WriteFile(filepath.Join(workDir, ConfigFileName), []byte(projectJSON), 0o644); err != nil {
		t.Fatalf("WriteFile project config: %v", err)
	}

	cfg, sources, err := LoadConfig(workDir, "")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Reader != "global-reader" {
		t.Fatalf("Reader = %q, want %q (from global config, untouched by project)", cfg.Reader, "global-reader")
	}

	if cfg.KeySlot != 131 {
		t.Fatalf("KeySlot = %d, want 131 (project overrides global)", cfg.KeySlot)
	}

	if cfg.FormatObjectCount != 10 {
		t.Fatalf("FormatObjectCount = %d, want 10 (from global config)", cfg.FormatObjectCount)
	}

	if cfg.FormatObjectSize != DefaultConfig().FormatObjectSize {
		t.Fatalf("FormatObjectSize = %d, want the untouched default %d", cfg.FormatObjectSize, DefaultConfig().FormatObjectSize)
	}

	if sources.Global == "" || sources.Project == "" {
		t.Fatalf("sources = %+v, want both populated", sources)
	}
}

func TestLoadConfig_AcceptsJSONWithComments(t *testing.T) {
	isolatedConfigEnv(t)
	workDir := t.TempDir()

	jsonc := `{
		// this reader is a substring match
		"reader": "yubikey-5",
	}`

	if err := os.WriteFile(filepath.Join(workDir, ConfigFileName), []byte(jsonc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, _, err := LoadConfig(workDir, "")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Reader != "yubikey-5" {
		t.Fatalf("Reader = %q, want %q", cfg.Reader, "yubikey-5")
	}
}

func TestLoadConfig_ExplicitPathMustExist(t *testing.T) {
	isolatedConfigEnv(t)
	workDir := t.TempDir()

	_, _, err := LoadConfig(workDir, filepath.Join(workDir, "does-not-exist.json"))
	if err == nil {
		t.Fatal("LoadConfig() with a missing explicit --config path should fail")
	}
}

func TestLoadConfig_SyncEveryWriteSurvivesAnOverlayThatOmitsIt(t *testing.T) {
	xdgDir := isolatedConfigEnv(t)
	workDir := t.TempDir()

	globalDir := filepath.Join(xdgDir, "yb")
	if err := os.MkdirAll(globalDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	// The default is already true; a project file that omits the field
	// entirely must not turn it back off.
	if err := os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(`{"sync_every_write": true}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := os.WriteFile(filepath.Join(workDir, ConfigFileName), []byte(`{"reader": "x"}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, _, err := LoadConfig(workDir, "")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if !cfg.syncEveryWrite() {
		t.Fatalf("SyncEveryWrite = false, want true to survive an overlay that doesn't mention it")
	}
}

func TestLoadConfig_SyncEveryWriteCanBeExplicitlyDisabled(t *testing.T) {
	xdgDir := isolatedConfigEnv(t)
	workDir := t.TempDir()

	globalDir := filepath.Join(xdgDir, "yb")
	if err := os.MkdirAll(globalDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	if err := os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(`{"sync_every_write": true}`), 0o644); err != nil {
		t.Fatalf("WriteFile global config: %v", err)
	}

	// A project file that explicitly sets it to false must win over the
	// global default, unlike the old OR-merge that could only ever turn
	// it on.
	if err := os.WriteFile(filepath.Join(workDir, ConfigFileName), []byte(`{"sync_every_write": false}`), 0o644); err != nil {
		t.Fatalf("WriteFile project config: %v", err)
	}

	cfg, _, err := LoadConfig(workDir, "")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.syncEveryWrite() {
		t.Fatal("SyncEveryWrite = true, want an explicit project-level false to take effect")
	}
}

func TestFormatConfig_ProducesIndentedJSON(t *testing.T) {
	out, err := FormatConfig(DefaultConfig())
	if err != nil {
		t.Fatalf("FormatConfig: %v", err)
	}

	if len(out) == 0 {
		t.Fatal("FormatConfig() returned an empty string")
	}

	if out[0] != '{' {
		t.Fatalf("FormatConfig() = %q, want JSON starting with '{'", out)
	}
}
