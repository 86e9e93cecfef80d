package invoices

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"billingdash/internal/api"
	"billingdash/internal/querycache"
	"billingdash/pkg/models"
)

func newTestClient(t *testing.T, handler http.Handler) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := api.New(srv.URL, 5*time.Second)
	require.NoError(t, err)
	return client
}

func invoicesOf(n int) []models.Invoice {
	out := make([]models.Invoice, n)
	for i := range out {
		out[i] = models.Invoice{
			UserID: "U" + string(rune('1'+i)),
			Status: models.StatusPending,
		}
	}
	return out
}

func TestValuesOmitsInactiveFields(t *testing.T) {
	p := DefaultParams()
	p.StatusFilters[models.StatusNotPaid] = false
	v := p.Values()

	require.Equal(t, "20", v.Get("limit"))
	require.Equal(t, "1", v.Get("page"))
	require.Empty(t, v.Get("lastKey"))
	require.Empty(t, v.Get("selectedMonthYear"))
	require.Empty(t, v.Get("search"))
	require.Equal(t, []string{models.StatusPaid, models.StatusPending}, v["status"],
		"disabled status filters must be omitted entirely")
}

func TestCacheKeyDistinguishesQueries(t *testing.T) {
	a := DefaultParams()
	b := DefaultParams()
	b.Search = "acme"
	c := DefaultParams()
	c.LastKey = "cursor-2"

	require.NotEqual(t, a.CacheKey(), b.CacheKey())
	require.NotEqual(t, a.CacheKey(), c.CacheKey())

	// The display page counter does not shape the key.
	d := DefaultParams()
	d.Page = 7
	require.Equal(t, a.CacheKey(), d.CacheKey())
}

func TestListHonorsLimitAndCachesPage(t *testing.T) {
	var requests int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		require.Equal(t, "/invoices/list", r.URL.Path)
		require.Equal(t, "20", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode(api.ListInvoicesResponse{
			Invoices:   invoicesOf(5),
			Pagination: models.Pagination{Page: 1, Limit: 20, TotalInvoices: 5},
		})
	})

	svc := NewService(newTestClient(t, handler), querycache.New(), 0, 0)
	p := DefaultParams()

	resp, err := svc.List(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, resp.Invoices, 5)
	require.Equal(t, 1, resp.Pagination.Page)

	_, err = svc.List(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&requests), "second identical query must hit the cache")
}

func TestListPropagatesHTTPError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusBadGateway)
	})
	svc := NewService(newTestClient(t, handler), querycache.New(), 0, 0)

	_, err := svc.List(context.Background(), DefaultParams())
	require.Error(t, err)
	require.True(t, api.IsHTTPStatus(err, http.StatusBadGateway))
	require.Equal(t, querycache.StatusError, svc.Status(DefaultParams()))
}
