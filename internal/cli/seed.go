package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldwise/fieldwise/internal/config"
	"github.com/fieldwise/fieldwise/internal/record"
	"github.com/fieldwise/fieldwise/internal/store"
)

// NewSeedCommand creates the seed command: inserts a handful of sample
// customer records so edit/show have something to work with.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "seed",
		Short:         "Insert sample records into the configured store",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), rootOpts)
		},
	}
	return cmd
}

// sample records for the built-in customer catalog.
func sampleRecords() []record.Record {
	ada := record.New("cust-1")
	ada.Set("name", record.Text("Ada Lovelace"))
	ada.Set("tier", record.Enum("standard"))
	ada.Set("joined", record.Date("2019-04-02"))
	ada.Set("active", record.Bool(true))

	grace := record.New("cust-2")
	grace.Set("name", record.Text("Grace Hopper"))
	grace.Set("tier", record.Enum("premium"))
	grace.Set("account_manager", record.Text("Morgan"))
	grace.Set("joined", record.Date("2021-11-19"))
	grace.Set("active", record.Bool(true))

	elmo := record.New("cust-3")
	elmo.Set("name", record.Text("Elmo Lindström"))
	elmo.Set("tier", record.Enum("standard"))
	elmo.Set("active", record.Bool(false))

	return []record.Record{ada, grace, elmo}
}

func runSeed(ctx context.Context, opts *RootOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	bundle, err := loadBundle(cfg, "")
	if err != nil {
		return err
	}
	records, closeStore, err := openStore(ctx, cfg, bundle)
	if err != nil {
		return fmt.Errorf("open record store: %w", err)
	}
	defer closeStore()

	type putter interface {
		Put(ctx context.Context, rec record.Record) error
	}

	for _, rec := range sampleRecords() {
		switch s := records.(type) {
		case putter:
			if err := s.Put(ctx, rec); err != nil {
				return fmt.Errorf("seed %s: %w", rec.ID, err)
			}
		case *store.Memory:
			s.Put(rec)
		default:
			return fmt.Errorf("store driver %q does not support seeding", cfg.StoreDriver)
		}
		fmt.Printf("seeded %s\n", rec.ID)
	}
	return nil
}
