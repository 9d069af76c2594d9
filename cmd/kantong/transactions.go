package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"kantong/internal/core"
	klog "kantong/internal/log"
)

func transactionCmd(st *state, kind core.Kind) *cobra.Command {
	short := map[core.Kind]string{
		core.KindExpense:  "Record and manage expenses",
		core.KindIncome:   "Record and manage incomes",
		core.KindTransfer: "Move funds between pockets",
	}[kind]

	cmd := &cobra.Command{
		Use:   string(kind),
		Short: short,
	}

	cmd.AddCommand(transactionAddCmd(st, kind))
	cmd.AddCommand(transactionUpdateCmd(st, kind))
	cmd.AddCommand(transactionRemoveCmd(st, kind))
	cmd.AddCommand(transactionListCmd(st, kind))

	return cmd
}

func addInputFlags(cmd *cobra.Command, kind core.Kind) {
	f := cmd.Flags()
	f.StringP("amount", "a", "", "amount in --currency (default IDR)")
	f.StringP("date", "d", "", "date as YYYY-MM-DD (default: today)")
	f.String("currency", "", "ISO currency of --amount (default IDR)")
	f.String("rate", "", "exchange rate to IDR; fetched from the rate API when --conversion=api and omitted")
	f.String("conversion", "", "where the rate comes from (manual, api)")
	f.String("color", "", "display color")
	f.StringArray("item", nil, "line item as name=amount (repeatable)")
	if kind == core.KindTransfer {
		f.String("from", "", "source pocket id or name (default: primary)")
		f.String("to", "", "destination pocket id or name (default: primary)")
	} else {
		f.StringP("pocket", "p", "", "pocket id or name (default: primary)")
		f.Int64("deduction", 0, "deduction amount in IDR")
	}
	if kind == core.KindExpense {
		f.Bool("from-income", false, "mark the expense as paid from an income")
	}
}

// applyInputFlags overrides in with every flag given on the command line.
func (st *state) applyInputFlags(cmd *cobra.Command, kind core.Kind, in *core.TransactionInput) error {
	ctx := cmd.Context()
	f := cmd.Flags()

	if f.Changed("amount") {
		s, _ := f.GetString("amount")
		d, err := core.ParseAmount(s)
		if err != nil {
			return err
		}
		in.Amount = &d
	}
	if f.Changed("date") {
		d, err := st.dateArg(cmd)
		if err != nil {
			return err
		}
		in.Date = d
	}
	if f.Changed("currency") {
		in.Currency, _ = f.GetString("currency")
	}
	if f.Changed("rate") {
		s, _ := f.GetString("rate")
		r, err := parseRate(s)
		if err != nil {
			return err
		}
		in.ExchangeRate = r
	}
	if f.Changed("conversion") {
		s, _ := f.GetString("conversion")
		in.ConversionType = core.ConversionType(s)
	}
	if f.Changed("color") {
		v, _ := f.GetString("color")
		in.Color = &v
	}
	if f.Changed("item") {
		raw, _ := f.GetStringArray("item")
		items, err := parseItems(raw)
		if err != nil {
			return err
		}
		in.Items = items
	}

	if kind == core.KindTransfer {
		for flag, target := range map[string]*string{"from": &in.PocketID, "to": &in.ToPocketID} {
			if !f.Changed(flag) {
				continue
			}
			ref, _ := f.GetString(flag)
			p, err := st.resolvePocket(ctx, ref)
			if err != nil {
				return err
			}
			*target = p.ID
		}
	} else {
		if f.Changed("pocket") {
			ref, _ := f.GetString("pocket")
			p, err := st.resolvePocket(ctx, ref)
			if err != nil {
				return err
			}
			in.PocketID = p.ID
		}
		if f.Changed("deduction") {
			v, _ := f.GetInt64("deduction")
			in.Deduction = &v
		}
	}
	if kind == core.KindExpense && f.Changed("from-income") {
		v, _ := f.GetBool("from-income")
		in.FromIncome = &v
	}
	return nil
}

func transactionAddCmd(st *state, kind core.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: fmt.Sprintf("Record a new %s", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in := core.TransactionInput{Name: args[0]}
			if kind == core.KindTransfer {
				in.PocketID = core.PrimaryPocketID
				in.ToPocketID = core.PrimaryPocketID
			}
			date, err := st.dateArg(cmd)
			if err != nil {
				return err
			}
			in.Date = date
			if err := st.applyInputFlags(cmd, kind, &in); err != nil {
				return err
			}

			month := in.Date.Month()
			if cmd.Flags().Changed("month") {
				if month, err = st.monthArg(cmd); err != nil {
					return err
				}
			}

			var t core.Transaction
			switch kind {
			case core.KindExpense:
				t, err = st.app.ledger.RecordExpense(ctx, month, in)
			case core.KindIncome:
				t, err = st.app.ledger.RecordIncome(ctx, month, in)
			default:
				t, err = st.app.ledger.RecordTransfer(ctx, month, in)
			}
			if err != nil {
				return fmt.Errorf("failed to record %s: %w", kind, err)
			}
			st.app.logger.WithFields(klog.NewFields().
				WithOperation(klog.OpCreate).
				WithTransaction(kind.String(), month.String(), t.ID, t.Amount)).
				Debug("Recorded transaction")
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %s: %s on %s (%s)\n",
				kind, t.ID, core.FormatIDR(t.Amount), t.Date, month)
			return nil
		},
	}
	addMonthFlag(cmd)
	addInputFlags(cmd, kind)
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func transactionUpdateCmd(st *state, kind core.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: fmt.Sprintf("Update an existing %s; omitted flags keep their values", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			month, err := st.monthArg(cmd)
			if err != nil {
				return err
			}
			existing, err := st.findTransaction(cmd, kind, month, args[0])
			if err != nil {
				return err
			}

			in := inputFromTransaction(existing)
			if cmd.Flags().Changed("name") {
				in.Name, _ = cmd.Flags().GetString("name")
			}
			if err := st.applyInputFlags(cmd, kind, &in); err != nil {
				return err
			}

			t, err := st.app.ledger.UpdateTransaction(ctx, kind, month, existing.ID, in)
			if err != nil {
				return fmt.Errorf("failed to update %s: %w", kind, err)
			}
			st.app.logger.WithFields(klog.NewFields().
				WithOperation(klog.OpUpdate).
				WithTransaction(kind.String(), month.String(), t.ID, t.Amount)).
				Debug("Updated transaction")
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %s: %s on %s\n", kind, t.ID, core.FormatIDR(t.Amount), t.Date)
			return nil
		},
	}
	addMonthFlag(cmd)
	addInputFlags(cmd, kind)
	cmd.Flags().String("name", "", "new name")
	return cmd
}

func transactionRemoveCmd(st *state, kind core.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove", "delete"},
		Short:   fmt.Sprintf("Remove a %s", kind),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := st.monthArg(cmd)
			if err != nil {
				return err
			}
			if err := st.app.ledger.RemoveTransaction(cmd.Context(), kind, month, args[0]); err != nil {
				return fmt.Errorf("failed to remove %s: %w", kind, err)
			}
			st.app.logger.WithFields(klog.NewFields().
				WithOperation(klog.OpDelete).
				WithMonth(month.String())).
				Debug("Removed transaction", klog.FieldKind, kind, klog.FieldTxID, args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s %s from %s\n", kind, args[0], month)
			return nil
		},
	}
	addMonthFlag(cmd)
	return cmd
}

func transactionListCmd(st *state, kind core.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List a month's %ss in insertion order", kind),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			month, err := st.monthArg(cmd)
			if err != nil {
				return err
			}
			txs, err := st.app.ledger.ListTransactions(ctx, kind, month)
			if err != nil {
				return fmt.Errorf("failed to list %ss: %w", kind, err)
			}
			state, err := st.app.ledger.GetExcludeState(ctx, month)
			if err != nil {
				return err
			}
			return printTransactions(cmd.OutOrStdout(), txs, state)
		},
	}
	addMonthFlag(cmd)
	return cmd
}

func (st *state) findTransaction(cmd *cobra.Command, kind core.Kind, month core.MonthKey, id string) (core.Transaction, error) {
	txs, err := st.app.ledger.ListTransactions(cmd.Context(), kind, month)
	if err != nil {
		return core.Transaction{}, err
	}
	for _, t := range txs {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("%w: %s %s in %s", core.ErrNotFound, kind, id, month)
}

// inputFromTransaction rebuilds the entry that produced t, so an update can
// change single fields. Foreign amounts are re-entered in their original currency.
func inputFromTransaction(t core.Transaction) core.TransactionInput {
	amount := decimal.NewFromInt(t.Amount)
	in := core.TransactionInput{
		Name:       t.Name,
		Amount:     &amount,
		Date:       t.Date,
		PocketID:   t.PocketID,
		ToPocketID: t.ToPocketID,
		Items:      t.Items,
		Color:      t.Color,
		FromIncome: t.FromIncome,
		Deduction:  t.Deduction,
	}
	if t.Currency != nil && t.OriginalAmount != nil && !core.IsReportingCurrency(*t.Currency) {
		original := *t.OriginalAmount
		in.Amount = &original
		in.Currency = *t.Currency
		in.ExchangeRate = t.ExchangeRate
		if t.ConversionType != nil {
			in.ConversionType = *t.ConversionType
		}
	}
	return in
}
