package invoices

import (
	"sort"
	"strings"
	"time"

	"billingdash/pkg/models"
)

// Date layouts the API has been observed to emit.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02",
	"02/01/2006",
}

// ParseDate parses an ISO-ish invoice date string.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MonthYear renders a date as a "January 2006" filter value.
func MonthYear(t time.Time) string {
	return t.Format("January 2006")
}

// MonthYearOptions derives the selectable month/year filter values from
// the loaded invoices, sorted chronologically.
func MonthYearOptions(invoices []models.Invoice) []string {
	seen := make(map[string]time.Time)
	for _, inv := range invoices {
		t, ok := ParseDate(inv.InvoiceDate)
		if !ok {
			continue
		}
		month := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		seen[MonthYear(month)] = month
	}
	options := make([]string, 0, len(seen))
	for label := range seen {
		options = append(options, label)
	}
	sort.Slice(options, func(i, j int) bool {
		return seen[options[i]].Before(seen[options[j]])
	})
	return options
}

// LocalFilter narrows and orders the currently loaded page. These are
// strictly within-page operations: they never change pagination or
// trigger a refetch.
type LocalFilter struct {
	MonthYear string
	Statuses  map[string]bool // nil means all statuses pass
	Search    string
	SortBy    string // column accessor, "" keeps server order
	SortDesc  bool
}

// Apply filters and sorts rows, layering the optimistic status overlay
// on top so a pending mutation is visible immediately. The input slice
// is never modified.
func (f LocalFilter) Apply(rows []models.Invoice, overlay map[string]string) []models.Invoice {
	out := make([]models.Invoice, 0, len(rows))
	for _, inv := range rows {
		if status, ok := overlay[inv.Key()]; ok {
			inv.Status = status
		}
		if !f.match(inv) {
			continue
		}
		out = append(out, inv)
	}
	f.sortRows(out)
	return out
}

func (f LocalFilter) match(inv models.Invoice) bool {
	if f.MonthYear != "" {
		t, ok := ParseDate(inv.InvoiceDate)
		if !ok || MonthYear(t) != f.MonthYear {
			return false
		}
	}
	if f.Statuses != nil && !f.Statuses[models.NormalizeStatus(inv.Status)] {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		haystack := strings.ToLower(strings.Join([]string{
			inv.UserID, inv.CustomerName, inv.ProviderName,
			inv.Status, inv.InvoiceDate, inv.Notes,
		}, " "))
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

func (f LocalFilter) sortRows(rows []models.Invoice) {
	if f.SortBy == "" {
		return
	}
	less := func(a, b models.Invoice) bool {
		switch f.SortBy {
		case "amount":
			return a.Amount.LessThan(b.Amount)
		case "invoiceDate":
			ta, _ := ParseDate(a.InvoiceDate)
			tb, _ := ParseDate(b.InvoiceDate)
			return ta.Before(tb)
		case "monthlyDate":
			ta, _ := ParseDate(a.MonthlyDate)
			tb, _ := ParseDate(b.MonthlyDate)
			return ta.Before(tb)
		case "customerName":
			return strings.ToLower(a.CustomerName) < strings.ToLower(b.CustomerName)
		case "providerName":
			return strings.ToLower(a.ProviderName) < strings.ToLower(b.ProviderName)
		case "status":
			return models.NormalizeStatus(a.Status) < models.NormalizeStatus(b.Status)
		default:
			return a.UserID < b.UserID
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if f.SortDesc {
			return less(rows[j], rows[i])
		}
		return less(rows[i], rows[j])
	})
}
