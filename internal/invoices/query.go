// Package invoices holds the client-side invoice pipeline: the list
// query over the query cache, the optimistic update mutation and the
// controller that owns pagination cursors, filters and per-row state.
package invoices

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"time"

	"billingdash/internal/api"
	"billingdash/internal/querycache"
	"billingdash/pkg/models"
)

const resource = "invoices"

// Defaults for list queries.
const (
	DefaultLimit     = 20
	DefaultStaleTime = 10 * time.Minute
	DefaultGCTime    = 60 * time.Minute
)

// ListParams are the query parameters for one invoice page.
//
// LastKey is the opaque server cursor for the page ("" means the first
// page). Page is a 1-based display counter only; the server paginates
// by cursor, not by page number.
type ListParams struct {
	Limit         int
	LastKey       string
	Page          int
	MonthYear     string // "January 2025" style filter
	StatusFilters map[string]bool
	Search        string
}

// DefaultParams returns the parameters used when the list view mounts.
func DefaultParams() ListParams {
	return ListParams{
		Limit: DefaultLimit,
		Page:  1,
		StatusFilters: map[string]bool{
			models.StatusPaid:    true,
			models.StatusPending: true,
			models.StatusNotPaid: true,
		},
	}
}

// activeStatuses returns the enabled status names, sorted for a stable
// wire order and cache key.
func (p ListParams) activeStatuses() []string {
	var active []string
	for name, on := range p.StatusFilters {
		if on {
			active = append(active, name)
		}
	}
	sort.Strings(active)
	return active
}

// Values serializes the parameters for GET /invoices/list. Only active
// fields are sent: empty cursor, filter and search are omitted, and
// disabled status filters are left out entirely rather than sent as
// false.
func (p ListParams) Values() url.Values {
	v := url.Values{}
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	v.Set("limit", strconv.Itoa(limit))
	page := p.Page
	if page <= 0 {
		page = 1
	}
	v.Set("page", strconv.Itoa(page))
	if p.LastKey != "" {
		v.Set("lastKey", p.LastKey)
	}
	if p.MonthYear != "" {
		v.Set("selectedMonthYear", p.MonthYear)
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	for _, s := range p.activeStatuses() {
		v.Add("status", s)
	}
	return v
}

// CacheKey identifies this query in the cache. The display page counter
// is deliberately excluded: the cursor already pins the window.
func (p ListParams) CacheKey() string {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	parts := []string{strconv.Itoa(limit), p.LastKey, p.MonthYear, p.Search}
	parts = append(parts, p.activeStatuses()...)
	return querycache.Key(resource, parts...)
}

// Service fetches invoice pages through the query cache.
type Service struct {
	client    *api.Client
	cache     *querycache.Cache
	staleTime time.Duration
	gcTime    time.Duration
}

// NewService wires the invoice query onto a client and cache. Zero
// stale/gc times fall back to the defaults.
func NewService(client *api.Client, cache *querycache.Cache, staleTime, gcTime time.Duration) *Service {
	if staleTime <= 0 {
		staleTime = DefaultStaleTime
	}
	if gcTime <= 0 {
		gcTime = DefaultGCTime
	}
	return &Service{client: client, cache: cache, staleTime: staleTime, gcTime: gcTime}
}

// List returns one page of invoices with its server-computed metrics
// and pagination envelope, from cache when fresh.
func (s *Service) List(ctx context.Context, p ListParams) (*api.ListInvoicesResponse, error) {
	key := p.CacheKey()
	data, err := s.cache.Fetch(ctx, key, func(fetchCtx context.Context) (any, error) {
		return s.client.ListInvoices(fetchCtx, p.Values())
	}, querycache.Options{StaleTime: s.staleTime, GCTime: s.gcTime})
	if err != nil {
		return nil, err
	}
	return data.(*api.ListInvoicesResponse), nil
}

// Status reports the cache lifecycle state for the given parameters,
// driving the view's loading and fetching flags.
func (s *Service) Status(p ListParams) querycache.Status {
	return s.cache.Status(p.CacheKey())
}

// Invalidate marks every cached invoice page stale, forcing a refetch
// on next access.
func (s *Service) Invalidate() {
	s.cache.Invalidate(querycache.Prefix(resource))
}
