package app

import (
	"context"
	"log/slog"

	"github.com/genocem/Edumond-AI-portal/internal/catalog"
	"github.com/genocem/Edumond-AI-portal/internal/config"
	"github.com/genocem/Edumond-AI-portal/internal/data"
	domerrors "github.com/genocem/Edumond-AI-portal/internal/errors"
	"github.com/genocem/Edumond-AI-portal/internal/metrics"
	"github.com/genocem/Edumond-AI-portal/internal/r2client"
)

// Catalog sources, also used as metric labels.
const (
	catalogSourceEmbedded = "embedded"
	catalogSourceFile     = "file"
	catalogSourceR2       = "r2"
)

// loadCatalog loads the catalog from R2, a local file or the embedded
// default, in that order of preference. A configured source that fails is
// an error; it never silently falls back to the embedded copy.
func loadCatalog(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*catalog.Catalog, string, error) {
	source := catalogSourceEmbedded
	switch {
	case cfg.CatalogR2Key != "":
		source = catalogSourceR2
	case cfg.CatalogPath != "":
		source = catalogSourceFile
	}

	cat, err := fetchCatalog(ctx, cfg, source)
	if err != nil {
		m.RecordCatalogLoad(source, "error", 0)
		return nil, source, domerrors.Op{Module: "catalog", Name: "load_" + source}.Wrap(err, "catalog unavailable")
	}
	m.RecordCatalogLoad(source, "success", cat.Len())
	return cat, source, nil
}

func fetchCatalog(ctx context.Context, cfg *config.Config, source string) (*catalog.Catalog, error) {
	switch source {
	case catalogSourceR2:
		ctx, cancel := context.WithTimeout(ctx, config.CatalogFetch)
		defer cancel()

		client, err := r2client.New(ctx, cfg.R2Config())
		if err != nil {
			return nil, err
		}
		cat, etag, err := client.FetchCatalog(ctx, cfg.CatalogR2Key)
		if err != nil {
			return nil, err
		}
		slog.DebugContext(ctx, "Fetched catalog object", "key", cfg.CatalogR2Key, "etag", etag)
		return cat, nil
	case catalogSourceFile:
		return catalog.LoadFile(cfg.CatalogPath)
	default:
		return data.DefaultCatalog()
	}
}
