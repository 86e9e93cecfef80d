package models

import "github.com/shopspring/decimal"

// Transaction is a payment event recorded against an invoice.
type Transaction struct {
	TransactionID string          `json:"transactionId"`
	UserID        string          `json:"userId"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"` // paid, pending or failed
	InvoiceID     string          `json:"invoiceId,omitempty"`
	CreatedAt     string          `json:"createdAt"`
	UpdatedAt     string          `json:"updatedAt,omitempty"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
}

// TransactionStats is derived client-side from a full transaction list.
// Unlike invoice metrics there is no server aggregate for transactions,
// so counting locally is correct here.
type TransactionStats struct {
	Total       int
	TotalAmount decimal.Decimal
	Completed   int
	Pending     int
}
