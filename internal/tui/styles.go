package tui

import (
	"github.com/charmbracelet/lipgloss"

	"billingdash/internal/prefs"
	"billingdash/pkg/models"
)

// Styles bundles the lipgloss styles for one theme.
type Styles struct {
	Title       lipgloss.Style
	Header      lipgloss.Style
	Cell        lipgloss.Style
	SelectedRow lipgloss.Style
	EditedRow   lipgloss.Style
	Muted       lipgloss.Style
	Error       lipgloss.Style
	Success     lipgloss.Style
	Warning     lipgloss.Style
	Badge       lipgloss.Style
	StatusPaid  lipgloss.Style
	StatusOpen  lipgloss.Style
	StatusLate  lipgloss.Style
	Card        lipgloss.Style
	MetricCard  lipgloss.Style
	Nav         lipgloss.Style
	NavActive   lipgloss.Style
	Footer      lipgloss.Style
	Sidebar     lipgloss.Style
}

func newStyles(theme string) Styles {
	var (
		accent  = lipgloss.Color("39")
		text    = lipgloss.Color("252")
		faint   = lipgloss.Color("241")
		surface = lipgloss.Color("236")
	)
	if theme == prefs.ThemeLight {
		accent = lipgloss.Color("27")
		text = lipgloss.Color("235")
		faint = lipgloss.Color("245")
		surface = lipgloss.Color("254")
	}

	return Styles{
		Title:       lipgloss.NewStyle().Bold(true).Foreground(accent).Padding(0, 1),
		Header:      lipgloss.NewStyle().Bold(true).Foreground(text).Underline(true),
		Cell:        lipgloss.NewStyle().Foreground(text),
		SelectedRow: lipgloss.NewStyle().Background(surface).Foreground(accent).Bold(true),
		EditedRow:   lipgloss.NewStyle().Foreground(lipgloss.Color("178")),
		Muted:       lipgloss.NewStyle().Foreground(faint),
		Error:       lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Success:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		Warning:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Badge:       lipgloss.NewStyle().Background(surface).Foreground(text).Padding(0, 1),
		StatusPaid:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		StatusOpen:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		StatusLate:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Card:        lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(faint).Padding(0, 1),
		MetricCard:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(0, 2).MarginRight(1),
		Nav:         lipgloss.NewStyle().Foreground(faint).Padding(0, 1),
		NavActive:   lipgloss.NewStyle().Foreground(accent).Bold(true).Padding(0, 1),
		Footer:      lipgloss.NewStyle().Foreground(faint).Padding(0, 1),
		Sidebar:     lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(accent).Padding(0, 2),
	}
}

// statusStyle picks the style for a status value.
func (s Styles) statusStyle(status string) lipgloss.Style {
	switch models.NormalizeStatus(status) {
	case models.StatusPaid:
		return s.StatusPaid
	case models.StatusPending:
		return s.StatusOpen
	default:
		return s.StatusLate
	}
}
