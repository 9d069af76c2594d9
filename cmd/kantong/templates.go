package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kantong/internal/core"
	"kantong/internal/seed"
)

func templateCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage reusable expense and income templates",
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Save a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f := cmd.Flags()
			kind, _ := f.GetString("kind")
			amount, _ := f.GetInt64("amount")
			tpl := core.Template{Name: args[0], Kind: core.Kind(kind), Amount: amount}

			if f.Changed("pocket") {
				ref, _ := f.GetString("pocket")
				p, err := st.resolvePocket(ctx, ref)
				if err != nil {
					return err
				}
				if !p.IsPrimary() {
					tpl.PocketID = p.ID
				}
			}
			if f.Changed("color") {
				c, _ := f.GetString("color")
				tpl.Color = &c
			}
			raw, _ := f.GetStringArray("item")
			items, err := parseItems(raw)
			if err != nil {
				return err
			}
			if len(items) > 0 {
				tpl.Items = items
			}

			saved, err := st.app.ledger.CreateTemplate(ctx, tpl)
			if err != nil {
				return fmt.Errorf("failed to save template: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved template %s (%s)\n", saved.Name, saved.ID)
			return nil
		},
	}
	add.Flags().String("kind", string(core.KindExpense), "expense or income")
	add.Flags().Int64("amount", 0, "amount in IDR")
	add.Flags().String("pocket", "", "pocket id or name (default: primary)")
	add.Flags().String("color", "", "display color")
	add.Flags().StringArray("item", nil, "line item as name=amount (repeatable)")
	_ = add.MarkFlagRequired("amount")

	list := &cobra.Command{
		Use:   "list",
		Short: "List templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			templates, err := st.app.ledger.ListTemplates(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list templates: %w", err)
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tKIND\tNAME\tAMOUNT\tPOCKET")
			for _, t := range templates {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					t.ID, t.Kind, t.Name, core.FormatIDR(t.Amount), core.NormalizePocketID(t.PocketID))
			}
			return tw.Flush()
		},
	}

	rm := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete a template",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := st.app.ledger.DeleteTemplate(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete template: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted template %s\n", args[0])
			return nil
		},
	}

	apply := &cobra.Command{
		Use:   "apply <id>",
		Short: "Record a transaction from a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := st.dateArg(cmd)
			if err != nil {
				return err
			}
			month := date.Month()
			if cmd.Flags().Changed("month") {
				if month, err = st.monthArg(cmd); err != nil {
					return err
				}
			}
			t, err := st.app.ledger.ApplyTemplate(cmd.Context(), args[0], month, date)
			if err != nil {
				return fmt.Errorf("failed to apply template: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %s: %s on %s\n", t.Kind, t.ID, core.FormatIDR(t.Amount), t.Date)
			return nil
		},
	}
	addMonthFlag(apply)
	apply.Flags().StringP("date", "d", "", "date as YYYY-MM-DD (default: today)")

	cmd.AddCommand(add, list, rm, apply)
	return cmd
}

func incomeNamesCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "income-names [prefix]",
		Short: "Suggest previously used income names",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			limit, _ := cmd.Flags().GetInt("limit")
			names, err := st.app.ledger.SuggestIncomeNames(cmd.Context(), prefix, limit)
			if err != nil {
				return fmt.Errorf("failed to suggest income names: %w", err)
			}
			if len(names) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, "\n"))
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 10, "maximum number of suggestions")
	return cmd
}

func seedCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Import pockets and templates from a YAML file",
		Long: `Import pockets and templates from a YAML file such as:

  pockets:
    - name: Tabungan
      icon: "💰"
  templates:
    - name: Gaji
      kind: income
      amount: 8000000

Pockets and templates whose names already exist are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := seed.Load(args[0])
			if err != nil {
				return err
			}
			res, err := seed.Apply(cmd.Context(), st.app.ledger, f)
			if err != nil {
				return fmt.Errorf("failed to apply seed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pockets: %d created, %d skipped\nTemplates: %d created, %d skipped\n",
				res.PocketsCreated, res.PocketsSkipped, res.TemplatesCreated, res.TemplatesSkipped)
			return nil
		},
	}
}
