package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kantong/internal/core"
	"kantong/internal/services"
)

func balanceCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance [pocket]",
		Short: "Show a pocket's realtime, projected and available balance",
		Long: `Realtime counts transactions dated up to today; projected also counts
future-dated ones. Available equals projected.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			month, err := st.monthArg(cmd)
			if err != nil {
				return err
			}
			ref := ""
			if len(args) == 1 {
				ref = args[0]
			}
			p, err := st.resolvePocket(ctx, ref)
			if err != nil {
				return err
			}

			b, err := st.app.ledger.Balance(ctx, p.ID, month)
			if err != nil {
				return fmt.Errorf("failed to compute balance: %w", err)
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintf(tw, "Pocket\t%s\n", pocketLabel(p))
			fmt.Fprintf(tw, "Month\t%s\n", month)
			fmt.Fprintf(tw, "Realtime\t%s\n", core.FormatIDR(b.RealtimeBalance))
			fmt.Fprintf(tw, "Projected\t%s\n", core.FormatIDR(b.ProjectedBalance))
			fmt.Fprintf(tw, "Available\t%s\n", core.FormatIDR(b.AvailableBalance))
			return tw.Flush()
		},
	}
	addMonthFlag(cmd)
	return cmd
}

func summaryCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show every pocket's balance and the month's totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			month, err := st.monthArg(cmd)
			if err != nil {
				return err
			}
			s, err := st.app.ledger.Summary(cmd.Context(), month)
			if err != nil {
				return fmt.Errorf("failed to summarize %s: %w", month, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Summary for %s", month)
			if s.Exclusions.Locked {
				fmt.Fprint(out, " (locked)")
			}
			fmt.Fprintln(out)

			tw := newTable(out)
			fmt.Fprintln(tw, "POCKET\tSTATUS\tREALTIME\tPROJECTED\tAVAILABLE")
			for _, ps := range s.Pockets {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					pocketLabel(ps.Pocket), ps.Pocket.Status,
					core.FormatIDR(ps.Balance.RealtimeBalance),
					core.FormatIDR(ps.Balance.ProjectedBalance),
					core.FormatIDR(ps.Balance.AvailableBalance))
			}
			fmt.Fprintf(tw, "TOTAL\t\t%s\t%s\t%s\n",
				core.FormatIDR(s.TotalRealtime), core.FormatIDR(s.TotalProjected), core.FormatIDR(s.TotalProjected))
			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(out, "Expenses %s, incomes %s\n", core.FormatIDR(s.TotalExpenses), core.FormatIDR(s.TotalIncomes))
			return nil
		},
	}
	addMonthFlag(cmd)
	return cmd
}

func reconcileCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Check a month (or every month) for ledger inconsistencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			all, _ := cmd.Flags().GetBool("all")

			var reports []services.Report
			if all {
				var err error
				if reports, err = st.app.reconciler.CheckAll(ctx); err != nil {
					return fmt.Errorf("failed to reconcile: %w", err)
				}
			} else {
				month, err := st.monthArg(cmd)
				if err != nil {
					return err
				}
				r, err := st.app.reconciler.CheckMonth(ctx, month)
				if err != nil {
					return fmt.Errorf("failed to reconcile %s: %w", month, err)
				}
				reports = append(reports, r)
			}

			out := cmd.OutOrStdout()
			issues := 0
			for _, r := range reports {
				if r.OK() {
					fmt.Fprintf(out, "%s: ok\n", r.Month)
					continue
				}
				for _, i := range r.Issues {
					fmt.Fprintf(out, "%s\n", i)
					issues++
				}
			}
			if issues > 0 {
				return fmt.Errorf("found %d ledger issue(s)", issues)
			}
			return nil
		},
	}
	addMonthFlag(cmd)
	cmd.Flags().Bool("all", false, "check every month that holds transactions")
	return cmd
}
