package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Invoice statuses as the billing API reports them. Comparison is always
// case-insensitive; use NormalizeStatus before storing or sending a value.
const (
	StatusPaid    = "paid"
	StatusPending = "pending"
	StatusNotPaid = "not paid"
)

// Invoice is a single billing record as served by the invoices API.
//
// UserID is the stable primary key and is never mutated after fetch.
// Status is the only field routinely mutated from the list view; the
// remaining fields change only through the edit form.
type Invoice struct {
	UserID       string          `json:"userId"`
	CustomerName string          `json:"customerName,omitempty"`
	ProviderName string          `json:"providerName,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status,omitempty"`
	InvoiceDate  string          `json:"invoiceDate,omitempty"`
	MonthlyDate  string          `json:"monthlyDate,omitempty"`
	Notes        string          `json:"notes,omitempty"`
}

// Key returns the canonical row key for an invoice. Rows are keyed by
// UserID alone; uniqueness of UserID is a precondition of the API.
func (i Invoice) Key() string {
	return i.UserID
}

// NormalizeStatus lowercases and trims a status value so that "Paid",
// "PAID" and "paid" all compare and persist identically.
func NormalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// StatusEquals compares two status values case-insensitively.
func StatusEquals(a, b string) bool {
	return NormalizeStatus(a) == NormalizeStatus(b)
}

// InvoicePatch is a partial invoice update sent to POST /invoices/update.
// Only non-zero fields are serialized; UserID identifies the target row.
type InvoicePatch struct {
	UserID       string           `json:"userId" validate:"required"`
	CustomerName string           `json:"customerName,omitempty"`
	ProviderName string           `json:"providerName,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	Status       string           `json:"status,omitempty" validate:"omitempty,oneof=paid pending 'not paid'"`
	InvoiceDate  string           `json:"invoiceDate,omitempty"`
	MonthlyDate  string           `json:"monthlyDate,omitempty"`
	Notes        string           `json:"notes,omitempty"`
}

// Apply copies the patch's set fields onto inv, leaving the rest intact.
func (p InvoicePatch) Apply(inv Invoice) Invoice {
	if p.CustomerName != "" {
		inv.CustomerName = p.CustomerName
	}
	if p.ProviderName != "" {
		inv.ProviderName = p.ProviderName
	}
	if p.Amount != nil {
		inv.Amount = *p.Amount
	}
	if p.Status != "" {
		inv.Status = NormalizeStatus(p.Status)
	}
	if p.InvoiceDate != "" {
		inv.InvoiceDate = p.InvoiceDate
	}
	if p.MonthlyDate != "" {
		inv.MonthlyDate = p.MonthlyDate
	}
	if p.Notes != "" {
		inv.Notes = p.Notes
	}
	return inv
}

// Metrics is the server-computed aggregate for the current query. It is
// taken verbatim from the list envelope and never recomputed from a
// fetched page, which would be wrong once the server truncates the page.
type Metrics struct {
	TotalRevenue       decimal.Decimal `json:"totalRevenue"`
	OutstandingBalance decimal.Decimal `json:"outstandingBalance"`
	InvoicesDueSoon    int             `json:"invoicesDueSoon"`
	OverdueInvoices    int             `json:"overdueInvoices"`
	Paid               int             `json:"paid"`
	Pending            int             `json:"pending"`
	NotPaid            int             `json:"notPaid"`
	Total              int             `json:"total"`
}

// Pagination is the cursor envelope returned with every invoice page.
// HasNextPage is true iff LastKey is non-empty; the server paginates by
// opaque cursor, not by page number.
type Pagination struct {
	Page          int    `json:"page"`
	Limit         int    `json:"limit"`
	HasNextPage   bool   `json:"hasNextPage"`
	NextPage      int    `json:"nextPage,omitempty"`
	LastKey       string `json:"lastKey,omitempty"`
	TotalInvoices int    `json:"totalInvoices"`
}
