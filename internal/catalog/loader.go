// Package catalog loads the reference lists (countries, vendors, supply
// categories) that populate the filter form's selects. One snapshot is
// fetched per form mount; nothing is cached across mounts.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/andeantech/ventas-bff/internal/backend"
	"github.com/andeantech/ventas-bff/internal/config"
	"github.com/andeantech/ventas-bff/internal/notify"
	"github.com/andeantech/ventas-bff/model"
)

// source describes where one catalog lives and how its entries map to
// options.
type source struct {
	kind       model.CatalogKind
	path       string
	valueField string
	labelField string
}

// Loader fetches the three reference catalogs from the administration API.
type Loader struct {
	client    *backend.Client
	notifier  notify.Notifier
	logger    *zap.Logger
	serviceID string
	sources   []source
}

// NewLoader creates a Loader from the catalogs configuration.
func NewLoader(client *backend.Client, notifier notify.Notifier, logger *zap.Logger, cfg config.CatalogsConfig) *Loader {
	return &Loader{
		client:    client,
		notifier:  notifier,
		logger:    logger,
		serviceID: cfg.ServiceID,
		sources: []source{
			{kind: model.CatalogCountries, path: cfg.Countries.Path, valueField: cfg.Countries.ValueField, labelField: cfg.Countries.LabelField},
			{kind: model.CatalogVendors, path: cfg.Vendors.Path, valueField: cfg.Vendors.ValueField, labelField: cfg.Vendors.LabelField},
			{kind: model.CatalogCategories, path: cfg.Categories.Path, valueField: cfg.Categories.ValueField, labelField: cfg.Categories.LabelField},
		},
	}
}

// Load fetches all catalogs concurrently and returns one snapshot. The
// fetches are independent: a slow or failing catalog never delays the
// others, its failure is pushed to the notification side-channel, and its
// kind is recorded so the form can keep that select disabled.
func (l *Loader) Load(ctx context.Context, rctx *model.RequestContext) model.CatalogSnapshot {
	type outcome struct {
		kind    model.CatalogKind
		entries []model.CatalogEntry
		err     error
	}

	results := make([]outcome, len(l.sources))
	var wg sync.WaitGroup
	for i, src := range l.sources {
		wg.Add(1)
		go func(i int, src source) {
			defer wg.Done()
			entries, err := l.fetch(ctx, rctx, src)
			results[i] = outcome{kind: src.kind, entries: entries, err: err}
		}(i, src)
	}
	wg.Wait()

	var snapshot model.CatalogSnapshot
	for _, res := range results {
		if res.err != nil {
			l.logger.Warn("catalog load failed",
				zap.String("catalog", string(res.kind)),
				zap.Error(res.err),
			)
			l.notifier.Notify(ctx, notify.SeverityWarning,
				fmt.Sprintf("the %s catalog could not be loaded; its filter stays disabled", res.kind))
			snapshot.Failed = append(snapshot.Failed, res.kind)
			continue
		}
		switch res.kind {
		case model.CatalogCountries:
			snapshot.Countries = res.entries
		case model.CatalogVendors:
			snapshot.Vendors = res.entries
		case model.CatalogCategories:
			snapshot.Categories = res.entries
		}
	}
	return snapshot
}

// listEnvelope is the `{data: [...]}` wrapper every catalog endpoint uses.
type listEnvelope struct {
	Data []map[string]any `json:"data"`
}

func (l *Loader) fetch(ctx context.Context, rctx *model.RequestContext, src source) ([]model.CatalogEntry, error) {
	res, err := l.client.Get(ctx, rctx, l.serviceID, src.path)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != 200 {
		return nil, fmt.Errorf("catalog %s: unexpected status %d", src.kind, res.StatusCode)
	}

	var envelope listEnvelope
	if err := res.DecodeJSON(&envelope); err != nil {
		return nil, err
	}

	entries := make([]model.CatalogEntry, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		entry := model.CatalogEntry{
			ID:    stringify(item[src.valueField]),
			Label: stringify(item[src.labelField]),
		}
		if entry.ID == "" {
			continue // an option without a value is unusable
		}
		if entry.Label == "" {
			entry.Label = entry.ID
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// stringify renders an option value as a string. Catalog ids arrive as
// numbers or strings depending on the endpoint.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case json.Number:
		return t.String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
