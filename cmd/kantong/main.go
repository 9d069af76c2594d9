package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"kantong/internal/cli"
	"kantong/internal/config"
	"kantong/internal/core"
	klog "kantong/internal/log"
)

var version = "dev"

// annotationNoApp marks commands that run without opening the store.
const annotationNoApp = "kantong/no-app"

// state is shared by every command of one invocation.
type state struct {
	app *app
}

func (st *state) open(cmd *cobra.Command) error {
	if cmd.Annotations[annotationNoApp] == "true" || st.app != nil {
		return nil
	}

	cli.LoadEnvFile()
	cfg := config.Load()
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	logger := cli.SetupLogger(cfg.LogLevel, klog.ComponentCLI, cmd.ErrOrStderr())

	if err := cfg.Validate(); err != nil {
		return err
	}

	noEvents, _ := cmd.Flags().GetBool("no-events")
	a, err := openApp(cmd.Context(), cfg, logger, !noEvents)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	st.app = a
	return nil
}

func (st *state) close() error {
	if st.app == nil {
		return nil
	}
	err := st.app.Close()
	st.app = nil
	return err
}

func newRootCmd(st *state) *cobra.Command {
	root := &cobra.Command{
		Use:   "kantong",
		Short: "Pocket ledger and monthly budget tracker",
		Long: `kantong keeps a monthly budget split into pockets.

Expenses, incomes and transfers are recorded per month in IDR. The primary
pocket starts each month from its budget record; custom pockets carry their
funds across months. Balances are always derived from the stored records.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return st.open(cmd)
		},
	}

	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")
	root.PersistentFlags().Bool("no-events", false, "do not publish ledger events even when AMQP_URL is set")

	root.AddCommand(pocketCmd(st))
	root.AddCommand(transactionCmd(st, core.KindExpense))
	root.AddCommand(transactionCmd(st, core.KindIncome))
	root.AddCommand(transactionCmd(st, core.KindTransfer))
	root.AddCommand(budgetCmd(st))
	root.AddCommand(monthCmd(st))
	root.AddCommand(balanceCmd(st))
	root.AddCommand(summaryCmd(st))
	root.AddCommand(reconcileCmd(st))
	root.AddCommand(templateCmd(st))
	root.AddCommand(incomeNamesCmd(st))
	root.AddCommand(seedCmd(st))
	root.AddCommand(versionCmd())

	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version",
		Annotations: map[string]string{annotationNoApp: "true"},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kantong %s\n", version)
		},
	}
}

// execute runs root and always releases the store, also when the command failed.
func execute(ctx context.Context, root *cobra.Command, st *state) error {
	err := root.ExecuteContext(ctx)
	return errors.Join(err, st.close())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	st := &state{}
	err := execute(ctx, newRootCmd(st), st)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
