package tui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/require"

	"billingdash/internal/api"
	"billingdash/internal/invoices"
	"billingdash/internal/notify"
	"billingdash/internal/prefs"
	"billingdash/internal/querycache"
	"billingdash/pkg/models"
)

func newInvoicesScreen(t *testing.T, handler http.Handler) (*invoicesModel, *invoices.Controller) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := api.New(srv.URL, 5*time.Second)
	require.NoError(t, err)
	cache := querycache.New()
	ctl := invoices.NewController(
		invoices.NewService(client, cache, 0, 0),
		invoices.NewMutator(client, cache),
		notify.NewCenter(time.Minute),
	)
	return newInvoicesModel(ctl, newStyles(prefs.ThemeDark)), ctl
}

func TestViewShowsOptimisticStatusWhileUpdateInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/invoices/list":
			json.NewEncoder(w).Encode(api.ListInvoicesResponse{
				Invoices: []models.Invoice{
					{UserID: "U1", CustomerName: "Acme", Status: models.StatusPending},
				},
				Pagination: models.Pagination{Page: 1, Limit: 20, TotalInvoices: 1},
			})
		case "/invoices/update":
			close(entered)
			<-release
			json.NewEncoder(w).Encode(api.UpdateInvoicesResponse{Message: "ok"})
		}
	})
	m, ctl := newInvoicesScreen(t, handler)

	page, err := ctl.Load(context.Background())
	require.NoError(t, err)
	m.update(pageLoadedMsg{page: page})
	require.Contains(t, m.view(), models.StatusPending)

	done := make(chan statusSavedMsg, 1)
	cmd := m.editStatus("U1", models.StatusPaid)
	go func() { done <- cmd().(statusSavedMsg) }()

	// The server is holding the update open; every repaint in this
	// window must already show the new status and the row spinner.
	<-entered
	view := m.view()
	require.Contains(t, view, models.StatusPaid,
		"optimistic status must render while the request is in flight")
	require.NotContains(t, view, models.StatusPending)
	require.True(t, ctl.RowLoading("U1"))
	require.Contains(t, view, m.spin.View())

	close(release)
	msg := <-done
	require.NoError(t, msg.err)
	require.False(t, ctl.RowLoading("U1"))
	require.Contains(t, m.view(), models.StatusPaid)
}

func TestPadIsRuneAware(t *testing.T) {
	require.Equal(t, 8, runewidth.StringWidth(pad("Müller", 8)))

	truncated := pad("日本語テキスト", 5)
	require.True(t, utf8.ValidString(truncated), "truncation must never cut mid-rune")
	require.LessOrEqual(t, runewidth.StringWidth(truncated), 5)
	require.True(t, strings.HasSuffix(truncated, "…"))

	require.Equal(t, "abc", pad("abc", 3))
}
