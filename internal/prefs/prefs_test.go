package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	p, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Theme != defaultTheme {
		t.Fatalf("Theme = %q, want %q", p.Theme, defaultTheme)
	}
}

func TestLoad_ReadsExistingFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	prefsDir := filepath.Join(home, ".config", "smqueue")
	if err := os.MkdirAll(prefsDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	prefsFile := filepath.Join(prefsDir, "prefs.toml")
	if err := os.WriteFile(prefsFile, []byte("theme = \"Slate\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Theme != "Slate" {
		t.Fatalf("Theme = %q, want %q", p.Theme, "Slate")
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	tmp := t.TempDir()
	prefsFile := filepath.Join(tmp, "custom.toml")
	if err := os.WriteFile(prefsFile, []byte("theme = \"Slate\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p, err := Load(prefsFile)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Theme != "Slate" {
		t.Fatalf("Theme = %q, want %q", p.Theme, "Slate")
	}
}

func TestSave_CreatesFileAndDirs(t *testing.T) {
	tmp := t.TempDir()
	prefsFile := filepath.Join(tmp, "subdir", "prefs.toml")

	p := Prefs{Theme: "Slate", StartTab: "history"}
	if err := Save(prefsFile, p); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := Load(prefsFile)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.Theme != "Slate" {
		t.Fatalf("Theme = %q, want %q", loaded.Theme, "Slate")
	}
	if loaded.StartTab != "history" {
		t.Fatalf("StartTab = %q, want %q", loaded.StartTab, "history")
	}
}

func TestLoad_EmptyThemeFallsBackToDefault(t *testing.T) {
	tmp := t.TempDir()
	prefsFile := filepath.Join(tmp, "prefs.toml")
	if err := os.WriteFile(prefsFile, []byte("theme = \"\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p, err := Load(prefsFile)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Theme != defaultTheme {
		t.Fatalf("Theme = %q, want %q", p.Theme, defaultTheme)
	}
}

func TestLoad_InvalidTOMLFallsBackToDefault(t *testing.T) {
	tmp := t.TempDir()
	prefsFile := filepath.Join(tmp, "prefs.toml")
	if err := os.WriteFile(prefsFile, []byte("not valid toml {{{\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p, err := Load(prefsFile)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Theme != defaultTheme {
		t.Fatalf("Theme = %q, want %q", p.Theme, defaultTheme)
	}
}

func TestLoad_StartTabDefaultsAndNormalizes(t *testing.T) {
	tmp := t.TempDir()
	prefsFile := filepath.Join(tmp, "prefs.toml")
	if err := os.WriteFile(prefsFile, []byte("theme = \"Slate\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	p, _ := Load(prefsFile)
	if p.StartTab != defaultStartTab {
		t.Fatalf("StartTab = %q, want %q", p.StartTab, defaultStartTab)
	}

	if err := os.WriteFile(prefsFile, []byte("start_tab = \" Log \"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	p, _ = Load(prefsFile)
	if p.StartTab != "log" {
		t.Fatalf("StartTab = %q, want %q", p.StartTab, "log")
	}
}

func TestLoad_VolumeStepClamped(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"", defaultVolumeStep},
		{"volume_step = 0\n", defaultVolumeStep},
		{"volume_step = -3\n", defaultVolumeStep},
		{"volume_step = 5\n", 5},
		{"volume_step = 400\n", maxVolumeStep},
	}
	for _, tt := range tests {
		prefsFile := filepath.Join(t.TempDir(), "prefs.toml")
		if err := os.WriteFile(prefsFile, []byte(tt.content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		p, err := Load(prefsFile)
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if p.VolumeStep != tt.want {
			t.Fatalf("VolumeStep for %q = %d, want %d", tt.content, p.VolumeStep, tt.want)
		}
	}
}

func TestUpdate_KeepsUntouchedFields(t *testing.T) {
	prefsFile := filepath.Join(t.TempDir(), "nested", "prefs.toml")
	if err := Save(prefsFile, Prefs{Theme: "Slate", StartTab: "history", VolumeStep: 4}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := Update(prefsFile, func(p *Prefs) { p.Theme = "Nightfox" }); err != nil {
		t.Fatalf("Update: %v", err)
	}

	p, err := Load(prefsFile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Prefs{Theme: "Nightfox", StartTab: "history", VolumeStep: 4}
	if p != want {
		t.Fatalf("Load = %+v, want %+v", p, want)
	}
}
