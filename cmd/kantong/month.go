package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kantong/internal/core"
)

func budgetCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Show or set a month's budget record",
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Show the budget record (zero when never saved)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			month, err := st.monthArg(cmd)
			if err != nil {
				return err
			}
			b, err := st.app.ledger.GetBudget(cmd.Context(), month)
			if err != nil {
				return fmt.Errorf("failed to read budget: %w", err)
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintf(tw, "Month\t%s\n", month)
			fmt.Fprintf(tw, "Initial budget\t%s\n", core.FormatIDR(b.InitialBudget))
			fmt.Fprintf(tw, "Carryover\t%s\n", core.FormatIDR(b.Carryover))
			fmt.Fprintf(tw, "Additional income\t%s\n", core.FormatIDR(b.AdditionalIncome))
			fmt.Fprintf(tw, "Income deduction\t%s\n", core.FormatIDR(b.IncomeDeduction))
			if b.Notes != "" {
				fmt.Fprintf(tw, "Notes\t%s\n", b.Notes)
			}
			return tw.Flush()
		},
	}
	addMonthFlag(get)

	set := &cobra.Command{
		Use:   "set",
		Short: "Save the budget record; omitted flags keep their values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			month, err := st.monthArg(cmd)
			if err != nil {
				return err
			}
			b, err := st.app.ledger.GetBudget(ctx, month)
			if err != nil {
				return err
			}

			f := cmd.Flags()
			for flag, target := range map[string]*int64{
				"initial":    &b.InitialBudget,
				"carryover":  &b.Carryover,
				"additional": &b.AdditionalIncome,
				"deduction":  &b.IncomeDeduction,
			} {
				if f.Changed(flag) {
					*target, _ = f.GetInt64(flag)
				}
			}
			if f.Changed("notes") {
				b.Notes, _ = f.GetString("notes")
			}

			saved, err := st.app.ledger.SaveBudget(ctx, month, b)
			if err != nil {
				return fmt.Errorf("failed to save budget: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved budget for %s: base %s\n", month, core.FormatIDR(saved.Base(false)))
			return nil
		},
	}
	addMonthFlag(set)
	set.Flags().Int64("initial", 0, "initial budget in IDR")
	set.Flags().Int64("carryover", 0, "carryover from the previous month in IDR")
	set.Flags().Int64("additional", 0, "additional income in IDR")
	set.Flags().Int64("deduction", 0, "income deduction in IDR")
	set.Flags().String("notes", "", "free-form notes")

	cmd.AddCommand(get, set)
	return cmd
}

func monthCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "month",
		Short: "Lock months and manage exclusions",
		Long: `A locked month rejects new, updated and removed transactions as well as
budget and exclusion changes. Excluded expenses and incomes stay listed but
are left out of every balance.`,
	}

	stateAction := func(use, short string, args cobra.PositionalArgs, run func(cmd *cobra.Command, month core.MonthKey, args []string) (core.ExcludeState, error)) *cobra.Command {
		c := &cobra.Command{
			Use:   use,
			Short: short,
			Args:  args,
			RunE: func(cmd *cobra.Command, a []string) error {
				month, err := st.monthArg(cmd)
				if err != nil {
					return err
				}
				s, err := run(cmd, month, a)
				if err != nil {
					return err
				}
				return printExcludeState(cmd, month, s)
			},
		}
		addMonthFlag(c)
		return c
	}

	cmd.AddCommand(stateAction("state", "Show the month's lock and exclusions", cobra.NoArgs,
		func(cmd *cobra.Command, month core.MonthKey, _ []string) (core.ExcludeState, error) {
			return st.app.ledger.GetExcludeState(cmd.Context(), month)
		}))
	cmd.AddCommand(stateAction("lock", "Lock the month", cobra.NoArgs,
		func(cmd *cobra.Command, month core.MonthKey, _ []string) (core.ExcludeState, error) {
			return st.app.ledger.Lock(cmd.Context(), month)
		}))
	cmd.AddCommand(stateAction("unlock", "Unlock the month", cobra.NoArgs,
		func(cmd *cobra.Command, month core.MonthKey, _ []string) (core.ExcludeState, error) {
			return st.app.ledger.Unlock(cmd.Context(), month)
		}))
	cmd.AddCommand(stateAction("exclude <expense|income> <id>", "Leave a transaction out of balances", cobra.ExactArgs(2),
		func(cmd *cobra.Command, month core.MonthKey, args []string) (core.ExcludeState, error) {
			return st.app.ledger.ExcludeTransaction(cmd.Context(), core.Kind(args[0]), month, args[1])
		}))
	cmd.AddCommand(stateAction("include <expense|income> <id>", "Count an excluded transaction again", cobra.ExactArgs(2),
		func(cmd *cobra.Command, month core.MonthKey, args []string) (core.ExcludeState, error) {
			return st.app.ledger.IncludeTransaction(cmd.Context(), core.Kind(args[0]), month, args[1])
		}))
	cmd.AddCommand(stateAction("deduction <on|off>", "Count (on) or ignore (off) the budget's income deduction", cobra.ExactArgs(1),
		func(cmd *cobra.Command, month core.MonthKey, args []string) (core.ExcludeState, error) {
			switch strings.ToLower(args[0]) {
			case "on":
				return st.app.ledger.SetDeductionExcluded(cmd.Context(), month, false)
			case "off":
				return st.app.ledger.SetDeductionExcluded(cmd.Context(), month, true)
			default:
				return core.ExcludeState{}, core.NewValidationError("deduction", "expected on or off")
			}
		}))
	cmd.AddCommand(stateAction("clear", "Reset the month to unlocked with nothing excluded", cobra.NoArgs,
		func(cmd *cobra.Command, month core.MonthKey, _ []string) (core.ExcludeState, error) {
			if err := st.app.ledger.ClearExcludeState(cmd.Context(), month); err != nil {
				return core.ExcludeState{}, err
			}
			return st.app.ledger.GetExcludeState(cmd.Context(), month)
		}))

	return cmd
}

func printExcludeState(cmd *cobra.Command, month core.MonthKey, s core.ExcludeState) error {
	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintf(tw, "Month\t%s\n", month)
	fmt.Fprintf(tw, "Locked\t%t\n", s.Locked)
	fmt.Fprintf(tw, "Deduction counted\t%t\n", !s.IsDeductionExcluded)
	fmt.Fprintf(tw, "Excluded expenses\t%s\n", strings.Join(s.ExcludedExpenseIDs, ", "))
	fmt.Fprintf(tw, "Excluded incomes\t%s\n", strings.Join(s.ExcludedIncomeIDs, ", "))
	return tw.Flush()
}
