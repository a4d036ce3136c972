// Package prefs persists smq UI preferences.
// Preferences are stored in ~/.config/smqueue/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences for the smq UI.
type Prefs struct {
	Theme      string `toml:"theme"`
	StartTab   string `toml:"start_tab"`
	VolumeStep int    `toml:"volume_step"` // percent of the mixer range per key press
}

const (
	defaultPrefsPath  = "~/.config/smqueue/prefs.toml"
	defaultTheme      = "Dracula"
	defaultStartTab   = "queue"
	defaultVolumeStep = 1
	maxVolumeStep     = 25
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Defaults returns the preferences used when nothing is stored.
func Defaults() Prefs {
	return Prefs{Theme: defaultTheme, StartTab: defaultStartTab, VolumeStep: defaultVolumeStep}
}

// normalize replaces blank or out-of-range values with defaults.
func (p Prefs) normalize() Prefs {
	if strings.TrimSpace(p.Theme) == "" {
		p.Theme = defaultTheme
	}
	p.StartTab = strings.ToLower(strings.TrimSpace(p.StartTab))
	if p.StartTab == "" {
		p.StartTab = defaultStartTab
	}
	if p.VolumeStep <= 0 {
		p.VolumeStep = defaultVolumeStep
	}
	p.VolumeStep = min(p.VolumeStep, maxVolumeStep)
	return p
}

// Load reads preferences from path. A missing or unreadable file yields the
// defaults; only a bad path is an error.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Defaults(), err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), nil
		}
		return Defaults(), nil // Graceful degradation
	}

	prefs := Defaults()
	if err := toml.Unmarshal(data, &prefs); err != nil {
		return Defaults(), nil // Graceful degradation
	}
	return prefs.normalize(), nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p.normalize())
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

// Update loads the stored preferences, applies fn and saves the result, so
// fields fn does not touch keep their stored values.
func Update(path string, fn func(*Prefs)) error {
	p, err := Load(path)
	if err != nil {
		return err
	}
	fn(&p)
	return Save(path, p)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
