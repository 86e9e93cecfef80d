package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"billingdash/internal/invoices"
	"billingdash/pkg/models"
)

// Edit form field order.
const (
	fieldCustomer = iota
	fieldProvider
	fieldAmount
	fieldStatus
	fieldInvoiceDate
	fieldMonthlyDate
	fieldNotes
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Client Name", "Provider", "Amount", "Status",
	"Invoice Date", "Monthly Date", "Notes",
}

// editModel is the slide-over edit form, bound to a copy of one
// invoice. Saving emits a patch to the caller; canceling discards the
// edits without emitting.
type editModel struct {
	styles   Styles
	original models.Invoice
	inputs   [fieldCount]textinput.Model
	focused  int
	errMsg   string
}

func newEditModel(inv models.Invoice, styles Styles) *editModel {
	m := &editModel{styles: styles, original: inv}

	values := [fieldCount]string{
		inv.CustomerName,
		inv.ProviderName,
		inv.Amount.StringFixed(2),
		models.NormalizeStatus(inv.Status),
		normalizeFormDate(inv.InvoiceDate),
		normalizeFormDate(inv.MonthlyDate),
		inv.Notes,
	}
	for i := range m.inputs {
		in := textinput.New()
		in.SetValue(values[i])
		in.CharLimit = 128
		m.inputs[i] = in
	}
	m.inputs[fieldAmount].Placeholder = "0.00"
	m.inputs[fieldStatus].Placeholder = strings.Join(statusCycle, " | ")
	m.inputs[fieldInvoiceDate].Placeholder = "2006-01-02"
	m.inputs[fieldMonthlyDate].Placeholder = "2006-01-02"
	m.inputs[fieldCustomer].Focus()
	return m
}

// normalizeFormDate renders any recognized date as a calendar date for
// editing; unparseable input passes through untouched.
func normalizeFormDate(s string) string {
	t, ok := invoices.ParseDate(s)
	if !ok {
		return s
	}
	return t.Format("2006-01-02")
}

// update consumes a key event. done reports the form closed; a nil
// patch with done means canceled.
func (m *editModel) update(msg tea.KeyMsg) (patch *models.InvoicePatch, done bool, cmd tea.Cmd) {
	switch msg.String() {
	case "esc":
		return nil, true, nil
	case "tab", "down":
		m.focus((m.focused + 1) % fieldCount)
		return nil, false, textinput.Blink
	case "shift+tab", "up":
		m.focus((m.focused + fieldCount - 1) % fieldCount)
		return nil, false, textinput.Blink
	case "enter":
		p, err := m.buildPatch()
		if err != nil {
			m.errMsg = err.Error()
			return nil, false, nil
		}
		return p, true, nil
	}

	var c tea.Cmd
	m.inputs[m.focused], c = m.inputs[m.focused].Update(msg)
	return nil, false, c
}

func (m *editModel) focus(i int) {
	m.inputs[m.focused].Blur()
	m.focused = i
	m.inputs[i].Focus()
}

// buildPatch collects the edited fields. Unchanged fields stay out of
// the patch so the server touches only what the operator altered.
func (m *editModel) buildPatch() (*models.InvoicePatch, error) {
	p := models.InvoicePatch{UserID: m.original.UserID}

	if v := strings.TrimSpace(m.inputs[fieldCustomer].Value()); v != m.original.CustomerName {
		p.CustomerName = v
	}
	if v := strings.TrimSpace(m.inputs[fieldProvider].Value()); v != m.original.ProviderName {
		p.ProviderName = v
	}
	if v := strings.TrimSpace(m.inputs[fieldAmount].Value()); v != m.original.Amount.StringFixed(2) {
		amount, err := decimal.NewFromString(v)
		if err != nil {
			return nil, &invoices.ValidationError{Field: "Amount", Message: "must be a number"}
		}
		p.Amount = &amount
	}
	if v := models.NormalizeStatus(m.inputs[fieldStatus].Value()); v != models.NormalizeStatus(m.original.Status) {
		p.Status = v
	}
	if v := strings.TrimSpace(m.inputs[fieldInvoiceDate].Value()); v != normalizeFormDate(m.original.InvoiceDate) {
		p.InvoiceDate = v
	}
	if v := strings.TrimSpace(m.inputs[fieldMonthlyDate].Value()); v != normalizeFormDate(m.original.MonthlyDate) {
		p.MonthlyDate = v
	}
	if v := strings.TrimSpace(m.inputs[fieldNotes].Value()); v != m.original.Notes {
		p.Notes = v
	}
	return &p, nil
}

func (m *editModel) view() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Edit Invoice " + m.original.UserID))
	b.WriteString("\n\n")
	for i := range m.inputs {
		label := fieldLabels[i]
		if i == m.focused {
			b.WriteString(m.styles.Header.Render(label))
		} else {
			b.WriteString(m.styles.Muted.Render(label))
		}
		b.WriteString("\n")
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}
	if m.errMsg != "" {
		b.WriteString(m.styles.Error.Render(m.errMsg))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("enter: save · esc: cancel · tab: next field"))
	return m.styles.Sidebar.Render(b.String())
}
