package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"kantong/internal/core"
)

func addMonthFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("month", "m", "", "month as YYYY-MM (default: current month)")
}

// monthArg resolves --month, defaulting to the current month in TIMEZONE.
func (st *state) monthArg(cmd *cobra.Command) (core.MonthKey, error) {
	s, _ := cmd.Flags().GetString("month")
	if strings.TrimSpace(s) == "" {
		return st.app.ledger.Aggregator().CurrentMonth(), nil
	}
	return core.ParseMonthKey(s)
}

// dateArg resolves --date, defaulting to today in TIMEZONE.
func (st *state) dateArg(cmd *cobra.Command) (core.Date, error) {
	s, _ := cmd.Flags().GetString("date")
	if strings.TrimSpace(s) == "" {
		return st.app.ledger.Aggregator().Today(), nil
	}
	return core.ParseDate(s)
}

// resolvePocket accepts a pocket id or a case-insensitive name. Empty means primary.
func (st *state) resolvePocket(ctx context.Context, ref string) (core.Pocket, error) {
	ref = strings.TrimSpace(ref)
	registry := st.app.ledger.Pockets()
	if ref == "" {
		return registry.Get(ctx, core.PrimaryPocketID)
	}
	if p, err := registry.Get(ctx, ref); err == nil {
		return p, nil
	}
	p, ok, err := registry.FindByName(ctx, ref)
	if err != nil {
		return core.Pocket{}, err
	}
	if !ok {
		return core.Pocket{}, fmt.Errorf("%w: pocket %q", core.ErrNotFound, ref)
	}
	return p, nil
}

// parseItems turns "name=amount" pairs into line items.
func parseItems(raw []string) ([]core.LineItem, error) {
	items := make([]core.LineItem, 0, len(raw))
	for _, r := range raw {
		name, amount, ok := strings.Cut(r, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, core.NewValidationError("items", fmt.Sprintf("%q is not name=amount", r))
		}
		v, err := strconv.ParseInt(strings.TrimSpace(amount), 10, 64)
		if err != nil || v <= 0 {
			return nil, core.NewValidationError("items", fmt.Sprintf("%q has an invalid amount", r))
		}
		items = append(items, core.LineItem{Name: strings.TrimSpace(name), Amount: v})
	}
	return items, nil
}

func parseRate(s string) (*decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err != nil {
		return nil, core.NewValidationError("exchangeRate", fmt.Sprintf("%q is not a number", s))
	}
	return &d, nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func pocketLabel(p core.Pocket) string {
	if p.Icon != "" {
		return p.Icon + " " + p.Name
	}
	return p.Name
}

func printTransactions(w io.Writer, txs []core.Transaction, state core.ExcludeState) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tDATE\tNAME\tAMOUNT\tPOCKET\tNOTE")
	for _, t := range txs {
		pocket := t.Pocket()
		if t.Kind == core.KindTransfer {
			pocket = t.Pocket() + " -> " + t.Destination()
		}
		var notes []string
		if state.Excludes(t) {
			notes = append(notes, "excluded")
		}
		if t.Currency != nil && t.OriginalAmount != nil {
			notes = append(notes, fmt.Sprintf("%s %s", t.OriginalAmount.String(), *t.Currency))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Date, t.Name, core.FormatIDR(t.Amount), pocket, strings.Join(notes, ", "))
	}
	return tw.Flush()
}
