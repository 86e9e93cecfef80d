package invoices

import (
	"context"
	"sync"

	"billingdash/internal/logger"
	"billingdash/internal/notify"
	"billingdash/pkg/models"
)

// Controller owns the invoice list state: the current query parameters,
// the cursor history stack that makes cursor pagination reversible, the
// per-row loading map and the local status overlay shared between the
// table and the edit sidebar.
//
// All view interactions funnel through here; the table and sidebar are
// pure renderers that delegate upward.
type Controller struct {
	svc      *Service
	mut      *Mutator
	notifier *notify.Center

	mu          sync.Mutex
	params      ListParams
	cursorHist  []string
	pagination  models.Pagination
	loadingRows map[string]bool
	overlay     map[string]string
	selected    *models.Invoice
}

// NewController creates a Controller with default parameters.
func NewController(svc *Service, mut *Mutator, notifier *notify.Center) *Controller {
	return &Controller{
		svc:         svc,
		mut:         mut,
		notifier:    notifier,
		params:      DefaultParams(),
		loadingRows: make(map[string]bool),
		overlay:     make(map[string]string),
	}
}

// Params returns a copy of the current query parameters.
func (c *Controller) Params() ListParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paramsLocked()
}

func (c *Controller) paramsLocked() ListParams {
	p := c.params
	p.StatusFilters = make(map[string]bool, len(c.params.StatusFilters))
	for k, v := range c.params.StatusFilters {
		p.StatusFilters[k] = v
	}
	return p
}

// Load fetches the current page and records its pagination envelope.
func (c *Controller) Load(ctx context.Context) (*ListPage, error) {
	c.mu.Lock()
	p := c.paramsLocked()
	c.mu.Unlock()

	resp, err := c.svc.List(ctx, p)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.pagination = resp.Pagination
	overlay := make(map[string]string, len(c.overlay))
	for k, v := range c.overlay {
		overlay[k] = v
	}
	loading := make(map[string]bool, len(c.loadingRows))
	for k, v := range c.loadingRows {
		loading[k] = v
	}
	c.mu.Unlock()

	return &ListPage{
		Invoices:    resp.Invoices,
		Metrics:     resp.Metrics,
		Pagination:  resp.Pagination,
		Overlay:     overlay,
		LoadingRows: loading,
	}, nil
}

// ListPage is one rendered page: the fetched window plus a snapshot of
// the row-local state at load time. Views that repaint between loads
// read the live Overlay and RowLoading accessors instead.
type ListPage struct {
	Invoices    []models.Invoice
	Metrics     models.Metrics
	Pagination  models.Pagination
	Overlay     map[string]string
	LoadingRows map[string]bool
}

// HasNextPage reports whether the last fetched envelope advertises a
// further page.
func (c *Controller) HasNextPage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pagination.HasNextPage && c.pagination.LastKey != ""
}

// CurrentPage returns the 1-based display page counter.
func (c *Controller) CurrentPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params.Page
}

// NextPage advances to the next cursor. It is a no-op when the server
// reports no further page. The current cursor is pushed onto the
// history stack so PrevPage can return to it exactly.
func (c *Controller) NextPage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.pagination.HasNextPage || c.pagination.LastKey == "" {
		return false
	}
	c.cursorHist = append(c.cursorHist, c.params.LastKey)
	c.params.LastKey = c.pagination.LastKey
	c.params.Page++
	return true
}

// PrevPage pops the cursor history to recover the prior page. It is a
// no-op on page 1. An exhausted stack means the first page (cursor "").
func (c *Controller) PrevPage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.params.Page <= 1 {
		return false
	}
	if n := len(c.cursorHist); n > 0 {
		c.params.LastKey = c.cursorHist[n-1]
		c.cursorHist = c.cursorHist[:n-1]
	} else {
		c.params.LastKey = ""
	}
	c.params.Page--
	return true
}

// SetLimit changes the page size. Recorded cursors were produced for
// the old window size, so the history is cleared and the view returns
// to page 1.
func (c *Controller) SetLimit(limit int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params.Limit = limit
	c.resetCursorLocked()
}

// SetMonthYear changes the month/year filter and resets pagination: a
// different result set invalidates the whole cursor chain.
func (c *Controller) SetMonthYear(monthYear string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params.MonthYear = monthYear
	c.resetCursorLocked()
}

// SetSearch changes the free-text filter and resets pagination.
func (c *Controller) SetSearch(search string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params.Search = search
	c.resetCursorLocked()
}

// ToggleStatusFilter flips one status filter and resets pagination.
func (c *Controller) ToggleStatusFilter(status string) {
	status = models.NormalizeStatus(status)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.params.StatusFilters == nil {
		c.params.StatusFilters = make(map[string]bool)
	}
	c.params.StatusFilters[status] = !c.params.StatusFilters[status]
	c.resetCursorLocked()
}

func (c *Controller) resetCursorLocked() {
	c.params.Page = 1
	c.params.LastKey = ""
	c.cursorHist = nil
	c.pagination = models.Pagination{}
}

// Invalidate marks every cached invoice page stale so the next Load
// refetches from the server.
func (c *Controller) Invalidate() {
	c.svc.Invalidate()
}

// Select binds the edit sidebar to an invoice; nil closes it.
func (c *Controller) Select(inv *models.Invoice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if inv == nil {
		c.selected = nil
		return
	}
	copied := *inv
	c.selected = &copied
}

// Selected returns a copy of the invoice bound to the edit sidebar.
func (c *Controller) Selected() *models.Invoice {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return nil
	}
	copied := *c.selected
	return &copied
}

// RowLoading reports whether a row-local mutation is in flight.
func (c *Controller) RowLoading(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadingRows[key]
}

// Overlay returns a copy of the current optimistic status overlay.
// Views read this at render time so an in-flight mutation is visible
// immediately, not only after the next page load.
func (c *Controller) Overlay() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	overlay := make(map[string]string, len(c.overlay))
	for k, v := range c.overlay {
		overlay[k] = v
	}
	return overlay
}

// EditStatus mutates one invoice's status with optimistic feedback.
//
// The row shows the new status within one render of the call: the
// overlay and the cache patch are both applied before the request is
// sent. On failure the cache rolls back, the overlay entry is dropped
// and a single error notification carries the failure message.
func (c *Controller) EditStatus(ctx context.Context, userID, newStatus string) error {
	newStatus = models.NormalizeStatus(newStatus)
	log := logger.WithComponent("invoices")

	c.mu.Lock()
	prevOverlay, hadOverlay := c.overlay[userID]
	c.loadingRows[userID] = true
	c.overlay[userID] = newStatus
	c.mu.Unlock()

	_, err := c.mut.Update(ctx, []models.InvoicePatch{{
		UserID: userID,
		Status: newStatus,
	}})

	c.mu.Lock()
	delete(c.loadingRows, userID)
	if err != nil {
		if hadOverlay {
			c.overlay[userID] = prevOverlay
		} else {
			delete(c.overlay, userID)
		}
	}
	c.mu.Unlock()

	if err != nil {
		c.notifier.Error("Failed to update invoice " + userID + ": " + err.Error())
		return err
	}
	log.Info().Str("user_id", userID).Str("status", newStatus).Msg("Invoice status updated")
	c.notifier.Success("Invoice " + userID + " marked " + newStatus)
	return nil
}

// SaveInvoice sends the full edited invoice from the sidebar as one
// patch, with the same optimistic protocol as EditStatus.
func (c *Controller) SaveInvoice(ctx context.Context, patch models.InvoicePatch) error {
	key := patch.UserID

	c.mu.Lock()
	prevOverlay, hadOverlay := c.overlay[key]
	c.loadingRows[key] = true
	if patch.Status != "" {
		c.overlay[key] = models.NormalizeStatus(patch.Status)
	}
	c.mu.Unlock()

	_, err := c.mut.Update(ctx, []models.InvoicePatch{patch})

	c.mu.Lock()
	delete(c.loadingRows, key)
	if err != nil && patch.Status != "" {
		if hadOverlay {
			c.overlay[key] = prevOverlay
		} else {
			delete(c.overlay, key)
		}
	}
	c.selected = nil
	c.mu.Unlock()

	if err != nil {
		c.notifier.Error("Failed to save invoice " + key + ": " + err.Error())
		return err
	}
	c.notifier.Success("Invoice " + key + " saved")
	return nil
}
