// Package prefs persists the small set of UI preferences the dashboard
// keeps across runs: theme, navigation collapse and widget visibility.
//
// Preferences load once at startup and write through on every change,
// so scattered reads of the backing file never happen at render time.
package prefs

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"billingdash/internal/logger"
)

// Theme names.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Preferences are the persisted UI settings.
type Preferences struct {
	Theme            string          `json:"theme"`
	SidebarCollapsed bool            `json:"sidebarCollapsed"`
	HiddenWidgets    map[string]bool `json:"hiddenWidgets,omitempty"`
}

func defaults() Preferences {
	return Preferences{Theme: ThemeDark}
}

// Store owns the preferences file and serializes access to it.
type Store struct {
	mu    sync.Mutex
	path  string
	prefs Preferences
}

// Open loads preferences from path, falling back to defaults when the
// file does not exist yet. A corrupt file is reported and replaced by
// defaults on the next write rather than aborting startup.
func Open(path string) *Store {
	s := &Store{path: path, prefs: defaults()}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// First run.
	case err != nil:
		l := logger.WithComponent("prefs")
		l.Warn().Err(err).Msg("Could not read preferences, using defaults")
	default:
		if err := json.Unmarshal(raw, &s.prefs); err != nil {
			l := logger.WithComponent("prefs")
			l.Warn().Err(err).Msg("Corrupt preferences file, using defaults")
			s.prefs = defaults()
		}
	}
	if s.prefs.Theme == "" {
		s.prefs.Theme = ThemeDark
	}
	return s
}

// Get returns a copy of the current preferences.
func (s *Store) Get() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// SetTheme switches the theme and writes through.
func (s *Store) SetTheme(theme string) Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.Theme = theme
	s.persistLocked()
	return s.copyLocked()
}

// ToggleSidebar flips the navigation collapse flag and writes through.
func (s *Store) ToggleSidebar() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.SidebarCollapsed = !s.prefs.SidebarCollapsed
	s.persistLocked()
	return s.copyLocked()
}

// SetWidgetHidden records a dashboard widget's visibility and writes through.
func (s *Store) SetWidgetHidden(widget string, hidden bool) Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prefs.HiddenWidgets == nil {
		s.prefs.HiddenWidgets = make(map[string]bool)
	}
	if hidden {
		s.prefs.HiddenWidgets[widget] = true
	} else {
		delete(s.prefs.HiddenWidgets, widget)
	}
	s.persistLocked()
	return s.copyLocked()
}

func (s *Store) copyLocked() Preferences {
	p := s.prefs
	if s.prefs.HiddenWidgets != nil {
		p.HiddenWidgets = make(map[string]bool, len(s.prefs.HiddenWidgets))
		for k, v := range s.prefs.HiddenWidgets {
			p.HiddenWidgets[k] = v
		}
	}
	return p
}

func (s *Store) persistLocked() {
	raw, err := json.MarshalIndent(s.prefs, "", "  ")
	if err != nil {
		l := logger.WithComponent("prefs")
		l.Warn().Err(err).Msg("Could not encode preferences")
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		l := logger.WithComponent("prefs")
		l.Warn().Err(err).Msg("Could not create preferences directory")
		return
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		l := logger.WithComponent("prefs")
		l.Warn().Err(err).Msg("Could not write preferences")
	}
}
