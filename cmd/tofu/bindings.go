package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/tofu/tofu-labeller/internal/db"
	"github.com/tofu/tofu-labeller/internal/labels"
	"github.com/tofu/tofu-labeller/internal/logging"
)

func newBindingsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bindings",
		Short: "List shortcut bindings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRepository(*flags, func(repo *labels.SQLiteRepository) error {
				stored, err := repo.ListBindings(cmd.Context())
				if err != nil {
					return fmt.Errorf("list bindings: %w", err)
				}
				renderBindings(cmd.OutOrStdout(), stored)
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <combo> <label>",
		Short: "Bind a key combination to a label",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(*flags, func(repo *labels.SQLiteRepository) error {
				reg := labels.NewRegistry()
				if _, err := labels.LoadInto(cmd.Context(), repo, reg); err != nil {
					return fmt.Errorf("load bindings: %w", err)
				}
				b, err := reg.Bind(args[0], args[1])
				if err != nil {
					if hint, ok := reg.Lookup(args[0]); ok {
						return fmt.Errorf("%w (currently bound to %q, remove it first)", err, hint)
					}
					return err
				}
				if err := repo.SaveBinding(cmd.Context(), b); err != nil {
					return fmt.Errorf("save binding: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "bound %s to %q\n", b.Combo, b.Label)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "delete <combo>",
		Aliases: []string{"rm"},
		Short:   "Remove a binding",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			combo, err := labels.ParseCombo(args[0])
			if err != nil {
				return err
			}
			return withRepository(*flags, func(repo *labels.SQLiteRepository) error {
				if err := repo.DeleteBinding(cmd.Context(), combo); err != nil {
					return fmt.Errorf("delete binding: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", combo)
				return nil
			})
		},
	})

	return cmd
}

// withRepository opens the database named by the resolved config for the
// duration of fn.
func withRepository(flags rootFlags, fn func(repo *labels.SQLiteRepository) error) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	logger := logging.New(io.Discard, cfg.LogLevel())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	return fn(labels.NewRepository(database.Conn()))
}

func renderBindings(w io.Writer, bindings []labels.Binding) {
	if len(bindings) == 0 {
		fmt.Fprintln(w, "no bindings")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Combo", "Label"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})
	for _, b := range bindings {
		table.Append([]string{b.Combo.String(), b.Label})
	}
	table.SetFooter([]string{fmt.Sprintf("Total %d", len(bindings)), ""})
	table.Render()
}
