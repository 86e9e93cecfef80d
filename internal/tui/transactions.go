package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"billingdash/internal/transactions"
	"billingdash/pkg/models"
)

type txLoadedMsg struct {
	txs   []models.Transaction
	stats models.TransactionStats
	err   error
}

// transactionsModel is the read-only transactions screen with its
// derived summary cards.
type transactionsModel struct {
	svc    *transactions.Service
	styles Styles

	txs     []models.Transaction
	stats   models.TransactionStats
	err     error
	loading bool
	cursor  int
	spin    spinner.Model

	width  int
	height int
}

func newTransactionsModel(svc *transactions.Service, styles Styles) *transactionsModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &transactionsModel{svc: svc, styles: styles, spin: sp}
}

func (m *transactionsModel) setSize(w, h int) {
	m.width, m.height = w, h
}

func (m *transactionsModel) load() tea.Cmd {
	m.loading = true
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		txs, stats, err := m.svc.List(context.Background())
		return txLoadedMsg{txs: txs, stats: stats, err: err}
	})
}

func (m *transactionsModel) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case txLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.txs = msg.txs
			m.stats = msg.stats
		}
		return nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.txs)-1 {
				m.cursor++
			}
		case "r":
			return m.load()
		}
	}
	return nil
}

func (m *transactionsModel) view() string {
	var b strings.Builder

	cards := []string{
		m.styles.MetricCard.Render(fmt.Sprintf("Transactions\n%d", m.stats.Total)),
		m.styles.MetricCard.Render(fmt.Sprintf("Volume\n$%s", m.stats.TotalAmount.StringFixed(2))),
		m.styles.MetricCard.Render(fmt.Sprintf("Completed\n%d", m.stats.Completed)),
		m.styles.MetricCard.Render(fmt.Sprintf("Pending\n%d", m.stats.Pending)),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	b.WriteString("\n")

	switch {
	case m.loading && m.txs == nil:
		b.WriteString(m.spin.View() + " Loading transactions...")
	case m.err != nil:
		b.WriteString(m.styles.Error.Render("Failed to load transactions: " + m.err.Error()))
	case len(m.txs) == 0:
		b.WriteString(m.styles.Muted.Render("No transactions recorded."))
	default:
		widths := []int{14, 10, 12, 10, 13, 12}
		headers := []string{"Transaction", "User", "Amount", "Status", "Date", "Method"}
		var cells []string
		for i, h := range headers {
			cells = append(cells, pad(h, widths[i]))
		}
		b.WriteString(m.styles.Header.Render(strings.Join(cells, " ")))
		b.WriteString("\n")
		for i, tx := range m.txs {
			line := strings.Join([]string{
				pad(tx.TransactionID, widths[0]),
				pad(tx.UserID, widths[1]),
				pad("$"+tx.Amount.StringFixed(2), widths[2]),
				pad(models.NormalizeStatus(tx.Status), widths[3]),
				pad(formatDate(tx.CreatedAt), widths[4]),
				pad(tx.PaymentMethod, widths[5]),
			}, " ")
			if i == m.cursor {
				line = m.styles.SelectedRow.Render(line)
			} else {
				line = m.styles.Cell.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render("r: refresh"))
	return b.String()
}
