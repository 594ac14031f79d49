package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldwise/fieldwise/internal/config"
	"github.com/fieldwise/fieldwise/internal/engine"
	"github.com/fieldwise/fieldwise/internal/persist"
	"github.com/fieldwise/fieldwise/internal/session"
	"github.com/fieldwise/fieldwise/internal/transport"
)

// EditOptions holds flags for the edit command.
type EditOptions struct {
	*RootOptions
	Operator string
	Catalog  string
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edit <record-id>",
		Short: "Edit a record through a guided dialogue",
		Long: `Start an interactive editing session for one record.

Fields are edited one at a time: pick a field, enter a value, repeat.
Cross-field rules apply automatically. Type save to review the diff and
confirm, or cancel to discard everything.

Example:
  fieldwise edit cust-1
  fieldwise edit cust-1 --operator alice --catalog ./customer.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd.Context(), opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Operator, "operator", "console", "operator identity for the session")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "path to a CUE field catalog (default: built-in)")

	return cmd
}

func runEdit(ctx context.Context, opts *EditOptions, recordID string) error {
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
	ruleEngine, err := bundle.RuleEngine()
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

	sessions := session.NewStore(session.WithTTL(cfg.SessionTTL))
	coordinator := persist.New(records, ruleEngine, sessions,
		persist.WithPolicy(persist.Policy{
			MaxAttempts: cfg.RetryMaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
		}),
	)
	console := transport.NewConsole(os.Stdin, os.Stdout)
	eng := engine.New(bundle.Schema, ruleEngine, sessions, coordinator, console,
		engine.WithLogger(slog.Default()),
	)

	err = eng.Run(ctx, opts.Operator, rec)
	if errors.Is(err, io.EOF) {
		// Input closed mid-dialogue: nothing was saved, nothing to do.
		return nil
	}
	return err
}
