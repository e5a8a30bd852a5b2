package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	h := cfg.Halo
	if h.Count != 160 {
		t.Errorf("count = %d, want 160", h.Count)
	}
	if h.SizeMin != 3 || h.SizeMax != 18 {
		t.Errorf("size = [%v, %v], want [3, 18]", h.SizeMin, h.SizeMax)
	}
	if len(h.Colors) == 0 {
		t.Error("expected default colors")
	}
	if h.ContainerID != "halo-container" {
		t.Errorf("container = %q, want halo-container", h.ContainerID)
	}
	if cfg.Screen.TargetFPS <= 0 {
		t.Error("expected positive target fps")
	}
	if len(cfg.Layers) != 2 {
		t.Fatalf("expected 2 default layers, got %d", len(cfg.Layers))
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("screen:\n  width: 800\nhalo:\n  count: 12\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Screen.Width != 800 {
		t.Errorf("width = %d, want 800", cfg.Screen.Width)
	}
	if cfg.Screen.Height != 720 {
		t.Errorf("height = %d, want default 720", cfg.Screen.Height)
	}
	if cfg.Halo.Count != 12 {
		t.Errorf("count = %d, want 12", cfg.Halo.Count)
	}
	if cfg.Halo.SizeMax != 18 {
		t.Errorf("size_max = %v, want default 18", cfg.Halo.SizeMax)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLayerLookup(t *testing.T) {
	cfg := Default()

	bg, ok := cfg.Layer("bg")
	if !ok {
		t.Fatal("expected bg layer")
	}
	if bg.Override.Count == nil || *bg.Override.Count != 60 {
		t.Errorf("bg count override = %v, want 60", bg.Override.Count)
	}
	if _, ok := cfg.Layer("nope"); ok {
		t.Error("unexpected layer")
	}
}

func TestWriteYAMLRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Halo.Count = 7
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Halo.Count != 7 {
		t.Errorf("count = %d, want 7", back.Halo.Count)
	}
}

func TestPrefersReducedMotion(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"0", false},
		{"1", true},
		{"true", true},
		{"Reduce", true},
		{"no-preference", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv(ReducedMotionEnv, tt.value)
			if got := PrefersReducedMotion(); got != tt.want {
				t.Errorf("PrefersReducedMotion() with %q = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
