package transactions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"billingdash/internal/api"
	"billingdash/internal/querycache"
	"billingdash/pkg/models"
)

func TestStatsAggregation(t *testing.T) {
	txs := []models.Transaction{
		{TransactionID: "T1", Amount: decimal.NewFromFloat(10.50), Status: "Paid"},
		{TransactionID: "T2", Amount: decimal.NewFromInt(5), Status: "pending"},
		{TransactionID: "T3", Amount: decimal.NewFromInt(2), Status: "failed"},
	}
	stats := Stats(txs)
	require.Equal(t, 3, stats.Total)
	require.True(t, stats.TotalAmount.Equal(decimal.NewFromFloat(17.50)))
	require.Equal(t, 1, stats.Completed)
	require.Equal(t, 1, stats.Pending)
}

func TestStatsEmptyList(t *testing.T) {
	stats := Stats(nil)
	require.Zero(t, stats.Total)
	require.True(t, stats.TotalAmount.IsZero())
}

func TestListCachesResponse(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		json.NewEncoder(w).Encode(api.ListTransactionsResponse{
			Transactions: []models.Transaction{
				{TransactionID: "T1", Amount: decimal.NewFromInt(3), Status: models.StatusPaid},
			},
		})
	}))
	t.Cleanup(srv.Close)
	client, err := api.New(srv.URL, 5*time.Second)
	require.NoError(t, err)
	svc := NewService(client, querycache.New(), 0, 0)

	txs, stats, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, 1, stats.Completed)

	_, _, err = svc.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&requests))
}
