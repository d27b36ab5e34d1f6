package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cwd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer os.Chdir(cwd)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if cfg != def {
		t.Errorf("cfg = %+v, want defaults %+v", cfg, def)
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for explicit missing file")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redline.yaml")
	body := `
tracking:
  enabled: true
  author: alice
completion:
  provider: spark
  debounce: 250ms
  spark:
    app_id: app
    api_key: key
    api_secret: secret
save:
  quiet: 5s
command:
  prefix: "!"
diff:
  max_units: 2000
log:
  verbosity: 2
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !cfg.Tracking.Enabled || cfg.Tracking.Author != "alice" {
		t.Errorf("tracking = %+v", cfg.Tracking)
	}
	if cfg.Completion.Provider != "spark" {
		t.Errorf("provider = %q, want spark", cfg.Completion.Provider)
	}
	if cfg.Completion.Debounce != 250*time.Millisecond {
		t.Errorf("debounce = %v, want 250ms", cfg.Completion.Debounce)
	}
	// Untouched fields keep their defaults.
	if cfg.Completion.Timeout != 10*time.Second {
		t.Errorf("timeout = %v, want default 10s", cfg.Completion.Timeout)
	}
	if cfg.Completion.Spark.AppID != "app" || cfg.Completion.Spark.APISecret != "secret" {
		t.Errorf("spark = %+v", cfg.Completion.Spark)
	}
	if cfg.Save.Quiet != 5*time.Second {
		t.Errorf("save quiet = %v, want 5s", cfg.Save.Quiet)
	}
	if cfg.Command.PrefixRune() != '!' {
		t.Errorf("prefix = %q, want !", cfg.Command.PrefixRune())
	}
	if cfg.Diff.MaxUnits != 2000 {
		t.Errorf("max units = %d, want 2000", cfg.Diff.MaxUnits)
	}
	if cfg.Log.Verbosity != 2 {
		t.Errorf("verbosity = %d, want 2", cfg.Log.Verbosity)
	}
}
