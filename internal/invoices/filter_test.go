package invoices

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"billingdash/pkg/models"
)

func TestMonthYearOptionsSortedChronologically(t *testing.T) {
	invoices := []models.Invoice{
		{UserID: "U1", InvoiceDate: "2025-03-10"},
		{UserID: "U2", InvoiceDate: "2024-12-01T10:00:00Z"},
		{UserID: "U3", InvoiceDate: "2025-03-28"},
		{UserID: "U4", InvoiceDate: "not-a-date"},
	}
	require.Equal(t, []string{"December 2024", "March 2025"}, MonthYearOptions(invoices))
}

func TestLocalFilterMonthYear(t *testing.T) {
	rows := []models.Invoice{
		{UserID: "U1", InvoiceDate: "2025-03-10"},
		{UserID: "U2", InvoiceDate: "2025-04-02"},
	}
	got := LocalFilter{MonthYear: "March 2025"}.Apply(rows, nil)
	require.Len(t, got, 1)
	require.Equal(t, "U1", got[0].UserID)
}

func TestLocalFilterStatusCaseInsensitive(t *testing.T) {
	rows := []models.Invoice{
		{UserID: "U1", Status: "Paid"},
		{UserID: "U2", Status: "PENDING"},
	}
	got := LocalFilter{Statuses: map[string]bool{models.StatusPaid: true}}.Apply(rows, nil)
	require.Len(t, got, 1)
	require.Equal(t, "U1", got[0].UserID)
}

func TestLocalFilterOverlayWinsOverFetchedStatus(t *testing.T) {
	rows := []models.Invoice{{UserID: "U1", Status: models.StatusPending}}
	overlay := map[string]string{"U1": models.StatusPaid}

	got := LocalFilter{}.Apply(rows, overlay)
	require.Equal(t, models.StatusPaid, got[0].Status)
	require.Equal(t, models.StatusPending, rows[0].Status, "input rows never mutated")
}

func TestLocalFilterSearch(t *testing.T) {
	rows := []models.Invoice{
		{UserID: "U1", CustomerName: "Acme Corp"},
		{UserID: "U2", CustomerName: "Globex"},
	}
	got := LocalFilter{Search: "acme"}.Apply(rows, nil)
	require.Len(t, got, 1)
	require.Equal(t, "U1", got[0].UserID)
}

func TestLocalFilterSortByAmountDesc(t *testing.T) {
	rows := []models.Invoice{
		{UserID: "U1", Amount: decimal.NewFromInt(10)},
		{UserID: "U2", Amount: decimal.NewFromInt(30)},
		{UserID: "U3", Amount: decimal.NewFromInt(20)},
	}
	got := LocalFilter{SortBy: "amount", SortDesc: true}.Apply(rows, nil)
	require.Equal(t, "U2", got[0].UserID)
	require.Equal(t, "U3", got[1].UserID)
	require.Equal(t, "U1", got[2].UserID)
}
