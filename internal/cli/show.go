package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fieldwise/fieldwise/internal/config"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Catalog string
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "show <record-id>",
		Short:         "Print a record in catalog field order",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "path to a CUE field catalog (default: built-in)")

	return cmd
}

func runShow(ctx context.Context, opts *ShowOptions, recordID string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	bundle, err := loadBundle(cfg, opts.Catalog)
	if err != nil {
		return err
	}
	records, closeStore, err := openStore(ctx, cfg, bundle)
	if err != nil {
		return fmt.Errorf("open record store: %w", err)
	}
	defer closeStore()

	rec, err := records.Get(ctx, recordID)
	if err != nil {
		return fmt.Errorf("fetch record: %w", err)
	}

	header := color.New(color.Bold)
	header.Printf("%s (%s)\n", rec.ID, bundle.Schema.Name())
	for _, def := range bundle.Schema.Fields() {
		v := rec.Get(def.Name)
		display := v.Display()
		if display == "" {
			display = "-"
		}
		fmt.Printf("  %-16s %s\n", def.Label+":", display)
	}
	return nil
}
