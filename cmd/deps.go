package cmd

import (
	"fmt"

	"billingdash/internal/api"
	"billingdash/internal/config"
	"billingdash/internal/excel"
	"billingdash/internal/invoices"
	"billingdash/internal/notify"
	"billingdash/internal/prefs"
	"billingdash/internal/querycache"
	"billingdash/internal/transactions"
)

// deps is the wired service graph every subcommand runs against: one
// API client, one shared query cache, and the domain services on top.
type deps struct {
	cfg          *config.Config
	client       *api.Client
	cache        *querycache.Cache
	invoices     *invoices.Service
	mutator      *invoices.Mutator
	controller   *invoices.Controller
	excel        *excel.Service
	transactions *transactions.Service
	notifier     *notify.Center
	prefs        *prefs.Store
}

func buildDeps() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	client, err := api.New(cfg.APIBaseURL, cfg.APITimeout)
	if err != nil {
		return nil, err
	}

	cache := querycache.New()
	notifier := notify.NewCenter(0)
	svc := invoices.NewService(client, cache, cfg.StaleTime, cfg.GCTime)
	mut := invoices.NewMutator(client, cache)

	d := &deps{
		cfg:          cfg,
		client:       client,
		cache:        cache,
		invoices:     svc,
		mutator:      mut,
		controller:   invoices.NewController(svc, mut, notifier),
		excel:        excel.NewService(client, cache, cfg.StaleTime, cfg.GCTime),
		transactions: transactions.NewService(client, cache, cfg.StaleTime, cfg.GCTime),
		notifier:     notifier,
		prefs:        prefs.Open(cfg.PrefsPath),
	}
	if cfg.PageSize > 0 {
		d.controller.SetLimit(cfg.PageSize)
	}
	return d, nil
}
