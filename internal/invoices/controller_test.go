package invoices

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"billingdash/internal/api"
	"billingdash/internal/notify"
	"billingdash/internal/querycache"
	"billingdash/pkg/models"
)

// pagedHandler serves cursor-paginated invoice pages keyed by lastKey.
func pagedHandler(pages map[string]api.ListInvoicesResponse) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/invoices/update" {
			json.NewEncoder(w).Encode(api.UpdateInvoicesResponse{Message: "ok"})
			return
		}
		page, ok := pages[r.URL.Query().Get("lastKey")]
		if !ok {
			http.Error(w, "unknown cursor", http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(page)
	})
}

func newTestController(t *testing.T, handler http.Handler) (*Controller, *notify.Center) {
	t.Helper()
	client := newTestClient(t, handler)
	cache := querycache.New()
	notifier := notify.NewCenter(time.Minute)
	ctl := NewController(
		NewService(client, cache, 0, 0),
		NewMutator(client, cache),
		notifier,
	)
	return ctl, notifier
}

func threePages() map[string]api.ListInvoicesResponse {
	return map[string]api.ListInvoicesResponse{
		"": {
			Invoices:   []models.Invoice{{UserID: "U1", Status: models.StatusPending}},
			Pagination: models.Pagination{Page: 1, Limit: 20, HasNextPage: true, LastKey: "k1", TotalInvoices: 3},
		},
		"k1": {
			Invoices:   []models.Invoice{{UserID: "U2", Status: models.StatusPaid}},
			Pagination: models.Pagination{Page: 2, Limit: 20, HasNextPage: true, LastKey: "k2", TotalInvoices: 3},
		},
		"k2": {
			Invoices:   []models.Invoice{{UserID: "U3", Status: models.StatusNotPaid}},
			Pagination: models.Pagination{Page: 3, Limit: 20, HasNextPage: false, TotalInvoices: 3},
		},
	}
}

func TestCursorStackRoundTrip(t *testing.T) {
	ctl, _ := newTestController(t, pagedHandler(threePages()))
	ctx := context.Background()

	_, err := ctl.Load(ctx)
	require.NoError(t, err)

	before := ctl.Params()
	require.True(t, ctl.NextPage())
	_, err = ctl.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, ctl.CurrentPage())
	require.Equal(t, "k1", ctl.Params().LastKey)

	require.True(t, ctl.PrevPage())
	after := ctl.Params()
	require.Equal(t, before.LastKey, after.LastKey, "cursor restored exactly")
	require.Equal(t, before.Page, after.Page, "page counter restored exactly")
}

func TestNextPageNoOpAtEnd(t *testing.T) {
	ctl, _ := newTestController(t, pagedHandler(threePages()))
	ctx := context.Background()

	_, err := ctl.Load(ctx)
	require.NoError(t, err)
	require.True(t, ctl.NextPage())
	_, err = ctl.Load(ctx)
	require.NoError(t, err)
	require.True(t, ctl.NextPage())
	_, err = ctl.Load(ctx)
	require.NoError(t, err)

	require.False(t, ctl.HasNextPage())
	for i := 0; i < 3; i++ {
		require.False(t, ctl.NextPage(), "next must stay a no-op regardless of click count")
	}
	require.Equal(t, 3, ctl.CurrentPage())
}

func TestPrevPageNoOpOnFirstPage(t *testing.T) {
	ctl, _ := newTestController(t, pagedHandler(threePages()))
	_, err := ctl.Load(context.Background())
	require.NoError(t, err)

	require.False(t, ctl.PrevPage())
	require.Equal(t, 1, ctl.CurrentPage())
}

func TestFilterAndLimitChangesResetPagination(t *testing.T) {
	ctl, _ := newTestController(t, pagedHandler(threePages()))
	ctx := context.Background()

	_, err := ctl.Load(ctx)
	require.NoError(t, err)
	require.True(t, ctl.NextPage())
	_, err = ctl.Load(ctx)
	require.NoError(t, err)

	ctl.SetMonthYear("January 2026")
	p := ctl.Params()
	require.Equal(t, 1, p.Page)
	require.Empty(t, p.LastKey)
	require.False(t, ctl.PrevPage(), "cursor history cleared")

	// Same reset applies to limit changes, and it is idempotent.
	_, err = ctl.Load(ctx)
	require.NoError(t, err)
	require.True(t, ctl.NextPage())
	ctl.SetLimit(50)
	ctl.SetLimit(50)
	p = ctl.Params()
	require.Equal(t, 1, p.Page)
	require.Empty(t, p.LastKey)
	require.Equal(t, 50, p.Limit)

	ctl.ToggleStatusFilter(models.StatusPaid)
	p = ctl.Params()
	require.False(t, p.StatusFilters[models.StatusPaid])
	require.Equal(t, 1, p.Page)
}

func TestEditStatusOptimisticThenCommitted(t *testing.T) {
	ctl, notifier := newTestController(t, pagedHandler(threePages()))
	ctx := context.Background()

	page, err := ctl.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, page.Invoices[0].Status)

	err = ctl.EditStatus(ctx, "U1", "PAID")
	require.NoError(t, err)

	page, err = ctl.Load(ctx)
	require.NoError(t, err)
	rendered := LocalFilter{}.Apply(page.Invoices, page.Overlay)
	require.Equal(t, models.StatusPaid, rendered[0].Status)
	require.False(t, ctl.RowLoading("U1"))

	msgs := notifier.Active()
	require.Len(t, msgs, 1)
	require.Equal(t, notify.LevelSuccess, msgs[0].Level)
}

func TestEditStatusRollbackOn500(t *testing.T) {
	pages := threePages()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/invoices/update" {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		pagedHandler(pages).ServeHTTP(w, r)
	})
	ctl, notifier := newTestController(t, handler)
	ctx := context.Background()

	_, err := ctl.Load(ctx)
	require.NoError(t, err)

	err = ctl.EditStatus(ctx, "U1", models.StatusPaid)
	require.Error(t, err)

	page, err := ctl.Load(ctx)
	require.NoError(t, err)
	rendered := LocalFilter{}.Apply(page.Invoices, page.Overlay)
	require.Equal(t, models.StatusPending, rendered[0].Status,
		"status must equal its pre-call value after a failed mutation")

	msgs := notifier.Active()
	require.Len(t, msgs, 1, "exactly one error notification")
	require.Equal(t, notify.LevelError, msgs[0].Level)
}

func TestSaveInvoiceFailureRestoresPriorOverlay(t *testing.T) {
	var updates int32
	pages := threePages()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/invoices/update" {
			// First update succeeds, the sidebar save afterwards fails.
			if atomic.AddInt32(&updates, 1) == 1 {
				json.NewEncoder(w).Encode(api.UpdateInvoicesResponse{Message: "ok"})
			} else {
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}
		pagedHandler(pages).ServeHTTP(w, r)
	})
	ctl, _ := newTestController(t, handler)
	ctx := context.Background()

	_, err := ctl.Load(ctx)
	require.NoError(t, err)

	require.NoError(t, ctl.EditStatus(ctx, "U1", models.StatusPaid))
	require.Equal(t, models.StatusPaid, ctl.Overlay()["U1"])

	err = ctl.SaveInvoice(ctx, models.InvoicePatch{UserID: "U1", Status: models.StatusNotPaid})
	require.Error(t, err)
	require.Equal(t, models.StatusPaid, ctl.Overlay()["U1"],
		"failed save must restore the prior overlay value, not drop it")
}

func TestOverlayReflectsEditImmediately(t *testing.T) {
	ctl, _ := newTestController(t, pagedHandler(threePages()))
	ctx := context.Background()

	_, err := ctl.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, ctl.Overlay())

	require.NoError(t, ctl.EditStatus(ctx, "U1", models.StatusPaid))
	overlay := ctl.Overlay()
	require.Equal(t, models.StatusPaid, overlay["U1"])

	// Callers get a copy, not the live map.
	overlay["U1"] = models.StatusPending
	require.Equal(t, models.StatusPaid, ctl.Overlay()["U1"])
}

func TestSelectCopiesInvoice(t *testing.T) {
	ctl, _ := newTestController(t, pagedHandler(threePages()))

	inv := models.Invoice{UserID: "U1", Status: models.StatusPending}
	ctl.Select(&inv)
	inv.Status = models.StatusPaid

	sel := ctl.Selected()
	require.NotNil(t, sel)
	require.Equal(t, models.StatusPending, sel.Status, "sidebar binds to a copy")

	ctl.Select(nil)
	require.Nil(t, ctl.Selected())
}
