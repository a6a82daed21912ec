package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Canvas.ZoomEnterThreshold != 3 {
		t.Errorf("expected enter threshold 3, got %v", cfg.Canvas.ZoomEnterThreshold)
	}
	if cfg.Canvas.ZoomExitThreshold != 0.5 {
		t.Errorf("expected exit threshold 0.5, got %v", cfg.Canvas.ZoomExitThreshold)
	}
	if cfg.Canvas.LinkZoneHeight != 60 {
		t.Errorf("expected link zone 60px, got %v", cfg.Canvas.LinkZoneHeight)
	}
	if cfg.Storage.Backend != BackendJSON {
		t.Errorf("expected json backend, got %q", cfg.Storage.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.Canvas.BaseZoom != 1 {
		t.Errorf("expected default config, got base zoom %v", cfg.Canvas.BaseZoom)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
canvas:
  zoom_enter_threshold: 2.5
  link_zone_height: 40
storage:
  backend: sqlite
  path: ~/stories/canvas.db
  autosave_delay: 250ms
ui:
  content_preview: false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Canvas.ZoomEnterThreshold != 2.5 {
		t.Errorf("enter threshold = %v", cfg.Canvas.ZoomEnterThreshold)
	}
	if cfg.Canvas.LinkZoneHeight != 40 {
		t.Errorf("link zone = %v", cfg.Canvas.LinkZoneHeight)
	}
	if cfg.Canvas.CardWidth != 220 {
		t.Errorf("unset keys should keep defaults, card width = %v", cfg.Canvas.CardWidth)
	}
	if cfg.Storage.Backend != BackendSQLite {
		t.Errorf("backend = %q", cfg.Storage.Backend)
	}
	if cfg.Storage.AutosaveDelay != 250*time.Millisecond {
		t.Errorf("autosave delay = %v", cfg.Storage.AutosaveDelay)
	}
	if strings.HasPrefix(cfg.Storage.Path, "~") {
		t.Errorf("path not expanded: %q", cfg.Storage.Path)
	}
	if cfg.UI.ContentPreview {
		t.Error("content preview should be disabled")
	}
}

func TestLoadFrom_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"backend", "storage:\n  backend: redis\n", "Backend"},
		{"exit threshold", "canvas:\n  zoom_exit_threshold: 1.5\n", "ZoomExitThreshold"},
		{"max zoom below enter", "canvas:\n  max_zoom: 2\n", "MaxZoom"},
		{"friction", "canvas:\n  friction: 1.2\n", "Friction"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFrom(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoadFrom_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("canvas: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil || !strings.Contains(err.Error(), "parsing config") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Canvas.LayoutRadius = 420
	cfg.Storage.AutosaveDelay = time.Second

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.Canvas.LayoutRadius != 420 || loaded.Storage.AutosaveDelay != time.Second {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestSnapshotPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	cfg := DefaultConfig()
	if got := cfg.SnapshotPath(); got != filepath.Join("/data", "storyweb", "canvas.json") {
		t.Errorf("json path = %q", got)
	}
	cfg.Storage.Backend = BackendSQLite
	if got := cfg.SnapshotPath(); got != filepath.Join("/data", "storyweb", "canvas.db") {
		t.Errorf("sqlite path = %q", got)
	}
	cfg.Storage.Path = "/tmp/x.json"
	if got := cfg.SnapshotPath(); got != "/tmp/x.json" {
		t.Errorf("explicit path = %q", got)
	}
}
