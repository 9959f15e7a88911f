package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigHelpersPaths(t *testing.T) {
	cfg := DefaultGlobalConfig()
	cfg.WorkDir = filepath.Join(t.TempDir(), "work")
	cfg.AssetsDir = "assets"
	cfg.Jobs = 3

	h := NewConfigHelpers(cfg)

	if h.Jobs() != 3 {
		t.Errorf("Jobs() = %d, expected 3", h.Jobs())
	}

	workDir, err := h.WorkDir()
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(workDir) {
		t.Errorf("Expected absolute work dir, got %s", workDir)
	}

	assetsDir, err := h.AssetsDir()
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(assetsDir) {
		t.Errorf("Expected absolute assets dir, got %s", assetsDir)
	}

	if err := h.CreateWorkDir(); err != nil {
		t.Fatalf("CreateWorkDir failed: %v", err)
	}
	if _, err := os.Stat(workDir); err != nil {
		t.Errorf("Expected work dir on disk: %v", err)
	}
	// Idempotent on re-run.
	if err := h.CreateWorkDir(); err != nil {
		t.Errorf("Expected CreateWorkDir to tolerate an existing dir: %v", err)
	}
}

func TestConfigHelpersLogLevel(t *testing.T) {
	cfg := DefaultGlobalConfig()
	h := NewConfigHelpers(cfg)
	if h.IsDebugMode() {
		t.Error("Default config should not be in debug mode")
	}

	cfg.Logging.Level = "debug"
	if !h.IsDebugMode() || h.LogLevel() != "debug" {
		t.Error("Expected debug mode after setting level")
	}
}
