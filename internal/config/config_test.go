package config

import (
	"path/filepath"
	"testing"

	"github.com/san-kum/spiritgen/internal/schema"
	"github.com/san-kum/spiritgen/internal/script"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DataDir != DefaultDataDir {
		t.Errorf("expected data dir %s, got %s", DefaultDataDir, cfg.DataDir)
	}
	if cfg.CutoffRadius != 0 {
		t.Error("cutoff should be disabled by default")
	}
	lines, err := cfg.TemplateLines()
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	if len(lines) == 0 {
		t.Error("expected the embedded template")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spiritgen.yaml")
	cfg := DefaultConfig()
	cfg.LogLevel = "debug"
	cfg.CutoffRadius = 2.5

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if *got != *cfg {
		t.Errorf("round trip: got %+v, want %+v", got, cfg)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestTemplateFromFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Template = filepath.Join(t.TempDir(), "nope.cfg")
	if _, err := cfg.TemplateLines(); err == nil {
		t.Error("expected error for missing template")
	}
}

func TestGetPreset(t *testing.T) {
	p := GetPreset("llg", "dynamics")
	if p == nil {
		t.Fatal("expected preset, got nil")
	}
	if p.Parameters["llg_damping"] != 0.3 {
		t.Errorf("expected damping 0.3, got %v", p.Parameters["llg_damping"])
	}

	p.Parameters["llg_damping"] = 0.9
	p.Run.Configuration[0].Name = "minus_z"
	again := GetPreset("llg", "dynamics")
	if again.Parameters["llg_damping"] != 0.3 || again.Run.Configuration[0].Name != "plus_z" {
		t.Error("GetPreset handed out shared state")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if p := GetPreset("llg", "nonexistent"); p != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if p := GetPreset("gneb", "relax"); p != nil {
		t.Error("expected nil for nonexistent method")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("mc")
	if len(presets) != 2 || presets[0] != "quick" {
		t.Errorf("unexpected mc presets %v", presets)
	}
	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent method")
	}
	if m := Methods(); len(m) != 2 || m[0] != "llg" {
		t.Errorf("unexpected methods %v", m)
	}
}

func TestPresetsAreValid(t *testing.T) {
	for _, method := range Methods() {
		for _, name := range ListPresets(method) {
			p := GetPreset(method, name)
			if _, err := schema.ValidateAll(p.Parameters); err != nil {
				t.Errorf("%s/%s parameters: %v", method, name, err)
			}
			if _, err := script.Build(p.Run); err != nil {
				t.Errorf("%s/%s run options: %v", method, name, err)
			}
		}
	}
}
