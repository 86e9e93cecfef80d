// Package transactions lists payment transactions and derives their
// summary stats. The transactions endpoint has no server-side
// aggregate, so the stats are computed over the full fetched list.
package transactions

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"billingdash/internal/api"
	"billingdash/internal/querycache"
	"billingdash/pkg/models"
)

const resource = "transactions"

// Service fetches the transaction list through the query cache.
type Service struct {
	client    *api.Client
	cache     *querycache.Cache
	staleTime time.Duration
	gcTime    time.Duration
}

// NewService wires the transaction query onto a client and cache.
func NewService(client *api.Client, cache *querycache.Cache, staleTime, gcTime time.Duration) *Service {
	if staleTime <= 0 {
		staleTime = 10 * time.Minute
	}
	if gcTime <= 0 {
		gcTime = 60 * time.Minute
	}
	return &Service{client: client, cache: cache, staleTime: staleTime, gcTime: gcTime}
}

// List returns all transactions with derived stats, from cache when fresh.
func (s *Service) List(ctx context.Context) ([]models.Transaction, models.TransactionStats, error) {
	data, err := s.cache.Fetch(ctx, querycache.Key(resource), func(fetchCtx context.Context) (any, error) {
		return s.client.ListTransactions(fetchCtx)
	}, querycache.Options{StaleTime: s.staleTime, GCTime: s.gcTime})
	if err != nil {
		return nil, models.TransactionStats{}, err
	}
	txs := data.([]models.Transaction)
	return txs, Stats(txs), nil
}

// Stats aggregates a transaction list: total count, amount sum and
// paid/pending counts. Status comparison is case-insensitive.
func Stats(txs []models.Transaction) models.TransactionStats {
	stats := models.TransactionStats{
		Total:       len(txs),
		TotalAmount: decimal.Zero,
	}
	for _, tx := range txs {
		stats.TotalAmount = stats.TotalAmount.Add(tx.Amount)
		switch models.NormalizeStatus(tx.Status) {
		case models.StatusPaid:
			stats.Completed++
		case models.StatusPending:
			stats.Pending++
		}
	}
	return stats
}
