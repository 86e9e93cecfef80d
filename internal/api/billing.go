package api

import (
	"context"
	"net/url"

	"billingdash/pkg/models"
)

// ListInvoicesResponse is the envelope of GET /invoices/list.
type ListInvoicesResponse struct {
	Invoices   []models.Invoice  `json:"invoices"`
	Metrics    models.Metrics    `json:"metrics"`
	Pagination models.Pagination `json:"pagination"`
}

// UpdateInvoicesRequest is the body of POST /invoices/update.
type UpdateInvoicesRequest struct {
	UpdatedData []models.InvoicePatch `json:"updatedData"`
}

// UpdateInvoicesResponse is the envelope of POST /invoices/update.
type UpdateInvoicesResponse struct {
	Message         string           `json:"message"`
	UpdatedInvoices []models.Invoice `json:"updatedInvoices"`
}

// ListFilesResponse is the envelope of GET /excel/list.
type ListFilesResponse struct {
	Files []models.FileObject `json:"files"`
}

// SignedURLResponse is the envelope of POST /excel/signedUrl.
type SignedURLResponse struct {
	URL string `json:"url"`
}

// UpdateSheetRequest is the body of POST /excel/update.
type UpdateSheetRequest struct {
	FileID      string              `json:"fileId"`
	UpdatedData []models.CellUpdate `json:"updatedData"`
}

// ListTransactionsResponse is the envelope of GET /transactions/list.
type ListTransactionsResponse struct {
	Transactions []models.Transaction `json:"transactions"`
}

// ListInvoices fetches one page of invoices.
func (c *Client) ListInvoices(ctx context.Context, params url.Values) (*ListInvoicesResponse, error) {
	var resp ListInvoicesResponse
	if err := c.Get(ctx, "/invoices/list", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateInvoices sends a batch of partial invoice updates.
func (c *Client) UpdateInvoices(ctx context.Context, req UpdateInvoicesRequest) (*UpdateInvoicesResponse, error) {
	var resp UpdateInvoicesResponse
	if err := c.Post(ctx, "/invoices/update", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListFiles fetches the uploaded spreadsheet inventory.
func (c *Client) ListFiles(ctx context.Context) ([]models.FileObject, error) {
	var resp ListFilesResponse
	if err := c.Get(ctx, "/excel/list", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Files, nil
}

// SignedURL requests a short-lived download URL for an uploaded file.
func (c *Client) SignedURL(ctx context.Context, fileName string) (string, error) {
	var resp SignedURLResponse
	body := map[string]string{"fileName": fileName}
	if err := c.Post(ctx, "/excel/signedUrl", body, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// UpdateSheet sends edited spreadsheet cells back to the server.
func (c *Client) UpdateSheet(ctx context.Context, req UpdateSheetRequest) error {
	return c.Post(ctx, "/excel/update", req, nil)
}

// ListTransactions fetches the full transaction list.
func (c *Client) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	var resp ListTransactionsResponse
	if err := c.Get(ctx, "/transactions/list", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Transactions, nil
}
