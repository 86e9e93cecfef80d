package invoices

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"billingdash/internal/api"
	"billingdash/internal/logger"
	"billingdash/internal/querycache"
	"billingdash/pkg/models"
)

// ErrEmptyUpdate is returned when an update call carries no patches.
var ErrEmptyUpdate = errors.New("invoice update carries no patches")

// ValidationError indicates a malformed mutation payload. It is raised
// before anything touches the cache or the network.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid invoice update: field %q %s", e.Field, e.Message)
}

// Mutator sends partial invoice updates with optimistic cache patching.
type Mutator struct {
	client   *api.Client
	cache    *querycache.Cache
	validate *validator.Validate
}

// NewMutator creates a Mutator over the shared client and cache.
func NewMutator(client *api.Client, cache *querycache.Cache) *Mutator {
	return &Mutator{
		client:   client,
		cache:    cache,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Update applies patches optimistically and sends them to the server.
//
// The visible list reflects the patch immediately: before the request
// goes out, every cached page containing a matching row gets that row
// replaced in place (all-or-nothing per row, other rows untouched).
// In-flight fetches for invoice pages are canceled first so a slow
// response cannot overwrite the patch. On failure every touched page is
// restored verbatim.
func (m *Mutator) Update(ctx context.Context, patches []models.InvoicePatch) (*api.UpdateInvoicesResponse, error) {
	if len(patches) == 0 {
		return nil, ErrEmptyUpdate
	}
	normalized := make([]models.InvoicePatch, len(patches))
	for i, p := range patches {
		p.Status = models.NormalizeStatus(p.Status)
		if err := m.validate.Struct(p); err != nil {
			return nil, asValidationError(err)
		}
		normalized[i] = p
	}

	log := logger.WithComponent("invoices")

	mut := m.cache.BeginOptimistic(querycache.Prefix(resource), func(data any) (any, bool) {
		page, ok := data.(*api.ListInvoicesResponse)
		if !ok {
			return nil, false
		}
		return patchPage(page, normalized)
	})
	log.Debug().
		Int("patches", len(normalized)).
		Int("pages_touched", mut.Touched()).
		Msg("Applied optimistic invoice patch")

	resp, err := m.client.UpdateInvoices(ctx, api.UpdateInvoicesRequest{UpdatedData: normalized})
	if err != nil {
		mut.Rollback()
		log.Warn().Err(err).Msg("Invoice update failed, rolled back optimistic patch")
		return nil, err
	}

	// The optimistic state already matches the server; committing just
	// drops the snapshots instead of re-writing identical pages.
	mut.Commit()
	return resp, nil
}

// patchPage returns a copy of page with every matching row replaced, or
// ok=false when no patch targets a row on this page.
func patchPage(page *api.ListInvoicesResponse, patches []models.InvoicePatch) (*api.ListInvoicesResponse, bool) {
	byUser := make(map[string]models.InvoicePatch, len(patches))
	for _, p := range patches {
		byUser[p.UserID] = p
	}

	touched := false
	out := *page
	out.Invoices = make([]models.Invoice, len(page.Invoices))
	copy(out.Invoices, page.Invoices)
	for i, inv := range out.Invoices {
		p, ok := byUser[inv.Key()]
		if !ok {
			continue
		}
		out.Invoices[i] = p.Apply(inv)
		touched = true
	}
	if !touched {
		return nil, false
	}
	return &out, true
}

func asValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return &ValidationError{
			Field:   first.Field(),
			Message: fmt.Sprintf("failed %q validation", first.Tag()),
		}
	}
	return err
}
