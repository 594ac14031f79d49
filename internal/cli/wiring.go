package cli

import (
	"context"
	"fmt"

	"github.com/fieldwise/fieldwise/internal/catalog"
	"github.com/fieldwise/fieldwise/internal/config"
	"github.com/fieldwise/fieldwise/internal/store"
)

// loadBundle resolves the field catalog: an explicit --catalog flag wins,
// then the configured path, then the built-in catalog.
func loadBundle(cfg config.Config, flagPath string) (*catalog.Bundle, error) {
	path := flagPath
	if path == "" {
		path = cfg.CatalogPath
	}
	if path == "" {
		return catalog.Default(), nil
	}
	bundle, err := catalog.CompileFile(path)
	if err != nil {
		return nil, fmt.Errorf("compile catalog: %w", err)
	}
	return bundle, nil
}

// openStore builds the configured record store adapter. The returned
// close function is safe to call on every path.
func openStore(ctx context.Context, cfg config.Config, bundle *catalog.Bundle) (store.RecordStore, func(), error) {
	switch cfg.StoreDriver {
	case "sqlite":
		s, err := store.OpenSQLite(cfg.SQLitePath, bundle.Schema)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "postgres":
		s, err := store.OpenPostgres(ctx, cfg.PostgresDSN, bundle.Schema)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "memory":
		return store.NewMemory(bundle.Schema), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
