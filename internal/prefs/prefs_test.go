package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenMissingFileUsesDefaults(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "nope", "prefs.json"))
	p := s.Get()
	require.Equal(t, ThemeDark, p.Theme)
	require.False(t, p.SidebarCollapsed)
}

func TestWriteThroughSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")

	s := Open(path)
	s.SetTheme(ThemeLight)
	s.ToggleSidebar()
	s.SetWidgetHidden("charts", true)

	reopened := Open(path)
	p := reopened.Get()
	require.Equal(t, ThemeLight, p.Theme)
	require.True(t, p.SidebarCollapsed)
	require.True(t, p.HiddenWidgets["charts"])

	reopened.SetWidgetHidden("charts", false)
	p = Open(path).Get()
	require.False(t, p.HiddenWidgets["charts"])
}

func TestCorruptFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	p := Open(path).Get()
	require.Equal(t, ThemeDark, p.Theme)
}

func TestGetReturnsCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	s := Open(path)
	s.SetWidgetHidden("activity", true)

	p := s.Get()
	p.HiddenWidgets["activity"] = false
	require.True(t, s.Get().HiddenWidgets["activity"], "mutating a copy must not leak back")
}
