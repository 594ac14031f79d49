package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldwise/fieldwise/internal/catalog"
)

// NewValidateCommand creates the validate command: compile-check a CUE
// field catalog and print a short summary.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "validate <catalog.cue>",
		Short:         "Compile-check a field catalog",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args[0])
		},
	}
	return cmd
}

func runValidate(path string) error {
	bundle, err := catalog.CompileFile(path)
	if err != nil {
		return err
	}

	fmt.Printf("catalog %q: %d field(s), %d rule(s)\n",
		bundle.Schema.Name(), bundle.Schema.Len(), len(bundle.Triggers))
	for _, def := range bundle.Schema.Fields() {
		optional := ""
		if def.Optional {
			optional = " (optional)"
		}
		fmt.Printf("  %-20s %s%s\n", def.Name, def.Kind, optional)
	}
	for _, tr := range bundle.Triggers {
		effect := "clears " + tr.Clears
		if tr.Requires != "" {
			effect = "requires " + tr.Requires
		}
		fmt.Printf("  rule %s: %s -> %s %s\n", tr.Name, tr.Field, tr.To, effect)
	}
	return nil
}
