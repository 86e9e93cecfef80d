// Package tui renders the interactive billing dashboard: an invoice
// table with cursor pagination and inline status edits, the uploaded
// spreadsheet viewer and the transactions screen, composed as bubbletea
// models over the client-side services.
package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"billingdash/internal/excel"
	"billingdash/internal/invoices"
	"billingdash/internal/notify"
	"billingdash/internal/prefs"
	"billingdash/internal/transactions"
)

// Deps are the wired services the dashboard renders.
type Deps struct {
	Controller   *invoices.Controller
	Excel        *excel.Service
	Transactions *transactions.Service
	Notifier     *notify.Center
	Prefs        *prefs.Store
}

type screen int

const (
	screenInvoices screen = iota
	screenFiles
	screenTransactions
)

var screenNames = []string{"Invoices", "Files", "Transactions"}

// narrowWidth is the viewport width below which tables collapse into
// card lists.
const narrowWidth = 90

type keyMap struct {
	NextScreen key.Binding
	Theme      key.Binding
	Collapse   key.Binding
	Quit       key.Binding
}

var keys = keyMap{
	NextScreen: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch screen")),
	Theme:      key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "toggle theme")),
	Collapse:   key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "collapse nav")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// tickMsg drives notification expiry and spinner repaints.
type tickMsg time.Time

// App is the top-level dashboard model.
type App struct {
	deps   Deps
	styles Styles

	active screen
	width  int
	height int

	invoicesScreen *invoicesModel
	filesScreen    *filesModel
	txScreen       *transactionsModel
}

// NewApp builds the dashboard with preferences applied.
func NewApp(deps Deps) *App {
	p := deps.Prefs.Get()
	styles := newStyles(p.Theme)
	return &App{
		deps:           deps,
		styles:         styles,
		invoicesScreen: newInvoicesModel(deps.Controller, styles),
		filesScreen:    newFilesModel(deps.Excel, styles),
		txScreen:       newTransactionsModel(deps.Transactions, styles),
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.invoicesScreen.load(),
		tick(),
	)
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.invoicesScreen.setSize(msg.Width, msg.Height)
		a.filesScreen.setSize(msg.Width, msg.Height)
		a.txScreen.setSize(msg.Width, msg.Height)
		return a, nil

	case tickMsg:
		return a, tick()

	case tea.KeyMsg:
		if !a.capturingInput() {
			switch {
			case key.Matches(msg, keys.Quit):
				return a, tea.Quit
			case key.Matches(msg, keys.NextScreen):
				return a, a.switchScreen((a.active + 1) % screen(len(screenNames)))
			case key.Matches(msg, keys.Theme):
				return a, a.toggleTheme()
			case key.Matches(msg, keys.Collapse):
				a.deps.Prefs.ToggleSidebar()
				return a, nil
			}
			switch msg.String() {
			case "1":
				return a, a.switchScreen(screenInvoices)
			case "2":
				return a, a.switchScreen(screenFiles)
			case "3":
				return a, a.switchScreen(screenTransactions)
			}
		}
	}

	return a, a.updateActive(msg)
}

func (a *App) capturingInput() bool {
	switch a.active {
	case screenInvoices:
		return a.invoicesScreen.capturingInput()
	case screenFiles:
		return a.filesScreen.capturingInput()
	}
	return false
}

func (a *App) switchScreen(next screen) tea.Cmd {
	a.active = next
	switch next {
	case screenInvoices:
		return a.invoicesScreen.load()
	case screenFiles:
		return a.filesScreen.load()
	case screenTransactions:
		return a.txScreen.load()
	}
	return nil
}

func (a *App) toggleTheme() tea.Cmd {
	p := a.deps.Prefs.Get()
	next := prefs.ThemeLight
	if p.Theme == prefs.ThemeLight {
		next = prefs.ThemeDark
	}
	a.deps.Prefs.SetTheme(next)
	a.styles = newStyles(next)
	a.invoicesScreen.styles = a.styles
	a.filesScreen.styles = a.styles
	a.txScreen.styles = a.styles
	return nil
}

func (a *App) updateActive(msg tea.Msg) tea.Cmd {
	switch a.active {
	case screenInvoices:
		return a.invoicesScreen.update(msg)
	case screenFiles:
		return a.filesScreen.update(msg)
	case screenTransactions:
		return a.txScreen.update(msg)
	}
	return nil
}

func (a *App) View() string {
	var body string
	switch a.active {
	case screenInvoices:
		body = a.invoicesScreen.view()
	case screenFiles:
		body = a.filesScreen.view()
	case screenTransactions:
		body = a.txScreen.view()
	}

	main := body
	if !a.deps.Prefs.Get().SidebarCollapsed {
		main = lipgloss.JoinHorizontal(lipgloss.Top, a.navView(), body)
	}

	sections := []string{
		a.styles.Title.Render("Billing Dashboard"),
		main,
	}
	if toasts := a.notificationsView(); toasts != "" {
		sections = append(sections, toasts)
	}
	sections = append(sections, a.styles.Footer.Render(
		"tab: switch • 1/2/3: screens • b: nav • T: theme • q: quit"))
	return strings.Join(sections, "\n")
}

func (a *App) navView() string {
	var b strings.Builder
	for i, name := range screenNames {
		style := a.styles.Nav
		if screen(i) == a.active {
			style = a.styles.NavActive
		}
		b.WriteString(style.Render(name))
		b.WriteString("\n")
	}
	return lipgloss.NewStyle().MarginRight(2).Render(b.String())
}

func (a *App) notificationsView() string {
	active := a.deps.Notifier.Active()
	if len(active) == 0 {
		return ""
	}
	var lines []string
	for _, n := range active {
		style := a.styles.Muted
		switch n.Level {
		case notify.LevelError:
			style = a.styles.Error
		case notify.LevelSuccess:
			style = a.styles.Success
		case notify.LevelWarning:
			style = a.styles.Warning
		}
		lines = append(lines, style.Render("• "+n.Message))
	}
	return strings.Join(lines, "\n")
}
