package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"billingdash/internal/invoices"
	"billingdash/pkg/models"
)

// Status values cycled by the inline selector, in order.
var statusCycle = []string{models.StatusPaid, models.StatusPending, models.StatusNotPaid}

// Page size options cycled by the limit control.
var limitCycle = []int{10, 20, 50, 100}

type invoicesMode int

const (
	invoicesModeList invoicesMode = iota
	invoicesModeSearch
	invoicesModeEdit
)

type pageLoadedMsg struct {
	page *invoices.ListPage
	err  error
}

type statusSavedMsg struct {
	userID string
	err    error
}

type invoiceSavedMsg struct {
	userID string
	err    error
}

// invoicesModel is the invoice list screen: table or card list, the
// pagination footer, the month/status/search filters and the edit
// sidebar. All state changes delegate to the controller.
type invoicesModel struct {
	ctl    *invoices.Controller
	styles Styles

	mode    invoicesMode
	page    *invoices.ListPage
	err     error
	loading bool

	cursor      int
	sortBy      string
	sortDesc    bool
	monthOption int // index into monthOptions, 0 means no filter
	spin        spinner.Model
	search      textinput.Model
	editor      *editModel

	width  int
	height int
}

func newInvoicesModel(ctl *invoices.Controller, styles Styles) *invoicesModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	search := textinput.New()
	search.Placeholder = "search invoices"
	search.CharLimit = 64

	return &invoicesModel{
		ctl:    ctl,
		styles: styles,
		spin:   sp,
		search: search,
	}
}

func (m *invoicesModel) setSize(w, h int) {
	m.width, m.height = w, h
}

func (m *invoicesModel) capturingInput() bool {
	return m.mode == invoicesModeSearch || m.mode == invoicesModeEdit
}

func (m *invoicesModel) load() tea.Cmd {
	m.loading = true
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		page, err := m.ctl.Load(context.Background())
		return pageLoadedMsg{page: page, err: err}
	})
}

func (m *invoicesModel) editStatus(userID, status string) tea.Cmd {
	return func() tea.Msg {
		err := m.ctl.EditStatus(context.Background(), userID, status)
		return statusSavedMsg{userID: userID, err: err}
	}
}

func (m *invoicesModel) saveInvoice(patch models.InvoicePatch) tea.Cmd {
	return func() tea.Msg {
		err := m.ctl.SaveInvoice(context.Background(), patch)
		return invoiceSavedMsg{userID: patch.UserID, err: err}
	}
}

func (m *invoicesModel) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case pageLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.page = msg.page
			if m.cursor >= len(m.rows()) {
				m.cursor = 0
			}
		}
		return nil

	case statusSavedMsg, invoiceSavedMsg:
		// The cache already holds the committed or rolled-back state;
		// reload to repaint it together with the overlay.
		return m.load()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return cmd

	case tea.KeyMsg:
		switch m.mode {
		case invoicesModeSearch:
			return m.updateSearch(msg)
		case invoicesModeEdit:
			return m.updateEditor(msg)
		default:
			return m.updateList(msg)
		}
	}
	return nil
}

func (m *invoicesModel) updateList(msg tea.KeyMsg) tea.Cmd {
	rows := m.rows()
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case "n", "right":
		if m.ctl.NextPage() {
			m.cursor = 0
			return m.load()
		}
	case "p", "left":
		if m.ctl.PrevPage() {
			m.cursor = 0
			return m.load()
		}
	case "L":
		m.cycleLimit()
		return m.load()
	case "m":
		m.cycleMonthFilter()
		return m.load()
	case "z":
		m.ctl.ToggleStatusFilter(models.StatusPaid)
		return m.load()
	case "x":
		m.ctl.ToggleStatusFilter(models.StatusPending)
		return m.load()
	case "c":
		m.ctl.ToggleStatusFilter(models.StatusNotPaid)
		return m.load()
	case "o":
		m.cycleSort()
	case "O":
		m.sortDesc = !m.sortDesc
	case "/":
		m.mode = invoicesModeSearch
		m.search.SetValue(m.ctl.Params().Search)
		m.search.Focus()
		return textinput.Blink
	case "s":
		if m.cursor < len(rows) {
			row := rows[m.cursor]
			if !m.ctl.RowLoading(row.Key()) {
				return m.editStatus(row.Key(), nextStatus(row.Status))
			}
		}
	case "e", "enter":
		if m.cursor < len(rows) {
			row := rows[m.cursor]
			m.ctl.Select(&row)
			m.editor = newEditModel(row, m.styles)
			m.mode = invoicesModeEdit
			return textinput.Blink
		}
	case "r":
		m.ctl.Invalidate()
		return m.load()
	}
	return nil
}

func (m *invoicesModel) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.mode = invoicesModeList
		m.search.Blur()
		m.ctl.SetSearch(strings.TrimSpace(m.search.Value()))
		return m.load()
	case "esc":
		m.mode = invoicesModeList
		m.search.Blur()
		return nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return cmd
}

func (m *invoicesModel) updateEditor(msg tea.KeyMsg) tea.Cmd {
	patch, done, cmd := m.editor.update(msg)
	if !done {
		return cmd
	}
	m.mode = invoicesModeList
	m.editor = nil
	if patch == nil {
		// Canceled: discard changes without emitting.
		m.ctl.Select(nil)
		return nil
	}
	return m.saveInvoice(*patch)
}

func (m *invoicesModel) cycleLimit() {
	current := m.ctl.Params().Limit
	next := limitCycle[0]
	for i, l := range limitCycle {
		if l == current && i+1 < len(limitCycle) {
			next = limitCycle[i+1]
			break
		}
	}
	m.ctl.SetLimit(next)
}

func (m *invoicesModel) cycleMonthFilter() {
	options := m.monthOptions()
	m.monthOption = (m.monthOption + 1) % (len(options) + 1)
	if m.monthOption == 0 {
		m.ctl.SetMonthYear("")
		return
	}
	m.ctl.SetMonthYear(options[m.monthOption-1])
}

func (m *invoicesModel) cycleSort() {
	order := []string{"", "amount", "invoiceDate", "customerName", "status"}
	for i, col := range order {
		if col == m.sortBy {
			m.sortBy = order[(i+1)%len(order)]
			return
		}
	}
	m.sortBy = ""
}

func (m *invoicesModel) monthOptions() []string {
	if m.page == nil {
		return nil
	}
	return invoices.MonthYearOptions(m.page.Invoices)
}

// rows applies the within-page filter, sort and status overlay. The
// overlay is read live from the controller so an optimistic edit is
// visible on the very next render, while the request is still in
// flight.
func (m *invoicesModel) rows() []models.Invoice {
	if m.page == nil {
		return nil
	}
	f := invoices.LocalFilter{SortBy: m.sortBy, SortDesc: m.sortDesc}
	return f.Apply(m.page.Invoices, m.ctl.Overlay())
}

func nextStatus(current string) string {
	for i, s := range statusCycle {
		if models.StatusEquals(s, current) {
			return statusCycle[(i+1)%len(statusCycle)]
		}
	}
	return statusCycle[0]
}

func (m *invoicesModel) view() string {
	if m.mode == invoicesModeEdit && m.editor != nil {
		return lipgloss.JoinHorizontal(lipgloss.Top, m.listView(), m.editor.view())
	}
	return m.listView()
}

func (m *invoicesModel) listView() string {
	var b strings.Builder

	if m.page != nil {
		b.WriteString(m.metricsView())
		b.WriteString("\n")
	}
	b.WriteString(m.filterBar())
	b.WriteString("\n")

	switch {
	case m.loading && m.page == nil:
		b.WriteString(m.spin.View() + " Loading invoices...")
	case m.err != nil:
		b.WriteString(m.styles.Error.Render("Failed to load invoices. Please try again later."))
		b.WriteString("\n" + m.styles.Muted.Render(m.err.Error()))
	case m.page == nil || len(m.rows()) == 0:
		b.WriteString(m.styles.Muted.Render("No invoices match the current filters."))
	case m.width > 0 && m.width < narrowWidth:
		b.WriteString(m.cardListView())
	default:
		b.WriteString(m.tableView())
	}

	b.WriteString("\n")
	b.WriteString(m.paginationView())
	return b.String()
}

func (m *invoicesModel) metricsView() string {
	mt := m.page.Metrics
	cards := []string{
		m.styles.MetricCard.Render(fmt.Sprintf("Revenue\n$%s", mt.TotalRevenue.StringFixed(2))),
		m.styles.MetricCard.Render(fmt.Sprintf("Outstanding\n$%s", mt.OutstandingBalance.StringFixed(2))),
		m.styles.MetricCard.Render(fmt.Sprintf("Due soon\n%d", mt.InvoicesDueSoon)),
		m.styles.MetricCard.Render(fmt.Sprintf("Overdue\n%d", mt.OverdueInvoices)),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (m *invoicesModel) filterBar() string {
	p := m.ctl.Params()
	parts := []string{
		"month: " + orAll(p.MonthYear),
		"statuses: " + statusFilterLabel(p.StatusFilters),
		"search: " + orNone(p.Search),
	}
	if m.sortBy != "" {
		dir := "asc"
		if m.sortDesc {
			dir = "desc"
		}
		parts = append(parts, "sort: "+m.sortBy+" "+dir)
	}
	bar := m.styles.Muted.Render(strings.Join(parts, " · "))
	if m.mode == invoicesModeSearch {
		bar += "\n" + m.search.View()
	}
	return bar
}

var tableHeaders = []string{"User ID", "Client", "Provider", "Amount", "Status", "Invoice Date", "Monthly Date"}

func (m *invoicesModel) tableView() string {
	widths := []int{10, 18, 12, 12, 10, 13, 13}

	var b strings.Builder
	var cells []string
	for i, h := range tableHeaders {
		cells = append(cells, pad(h, widths[i]))
	}
	b.WriteString(m.styles.Header.Render(strings.Join(cells, " ")))
	b.WriteString("\n")

	for i, inv := range m.rows() {
		line := strings.Join([]string{
			pad(inv.UserID, widths[0]),
			pad(inv.CustomerName, widths[1]),
			pad(inv.ProviderName, widths[2]),
			pad("$"+inv.Amount.StringFixed(2), widths[3]),
			pad(models.NormalizeStatus(inv.Status), widths[4]),
			pad(formatDate(inv.InvoiceDate), widths[5]),
			pad(formatDate(inv.MonthlyDate), widths[6]),
		}, " ")
		style := m.styles.Cell
		if i == m.cursor {
			style = m.styles.SelectedRow
		}
		b.WriteString(style.Render(line))
		if m.ctl.RowLoading(inv.Key()) {
			b.WriteString(" " + m.spin.View())
		}
		b.WriteString("\n")
	}
	return b.String()
}

// cardListView renders the same rows and callbacks as the table, one
// card per invoice, for narrow viewports.
func (m *invoicesModel) cardListView() string {
	var cards []string
	for i, inv := range m.rows() {
		status := m.styles.statusStyle(inv.Status).Render(models.NormalizeStatus(inv.Status))
		if m.ctl.RowLoading(inv.Key()) {
			status = m.spin.View()
		}
		body := fmt.Sprintf("%s  %s\n%s · $%s\n%s · %s",
			inv.UserID, status,
			inv.CustomerName, inv.Amount.StringFixed(2),
			m.styles.Badge.Render(inv.ProviderName), formatDate(inv.InvoiceDate))
		card := m.styles.Card.Render(body)
		if i == m.cursor {
			card = m.styles.SelectedRow.Render(card)
		}
		cards = append(cards, card)
	}
	return strings.Join(cards, "\n")
}

func (m *invoicesModel) paginationView() string {
	if m.page == nil {
		return ""
	}
	pg := m.page.Pagination
	p := m.ctl.Params()

	prev := "‹ prev"
	if p.Page <= 1 {
		prev = m.styles.Muted.Render(prev)
	}
	next := "next ›"
	if !m.ctl.HasNextPage() {
		next = m.styles.Muted.Render(next)
	}
	fetching := ""
	if m.loading {
		fetching = " " + m.spin.View()
	}
	return m.styles.Footer.Render(fmt.Sprintf(
		"%s  page %d  %s · %d per page · %d total%s · s: status · e: edit · /: search · m: month · L: limit",
		prev, p.Page, next, p.Limit, pg.TotalInvoices, fetching))
}

func orAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}

func orNone(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func statusFilterLabel(filters map[string]bool) string {
	var on []string
	for _, s := range statusCycle {
		if filters[s] {
			on = append(on, s)
		}
	}
	if len(on) == len(statusCycle) {
		return "all"
	}
	if len(on) == 0 {
		return "none"
	}
	return strings.Join(on, ",")
}

func pad(s string, w int) string {
	if runewidth.StringWidth(s) > w {
		return runewidth.Truncate(s, w, "…")
	}
	return runewidth.FillRight(s, w)
}

func formatDate(s string) string {
	t, ok := invoices.ParseDate(s)
	if !ok {
		return s
	}
	return t.Format("02/01/2006")
}
