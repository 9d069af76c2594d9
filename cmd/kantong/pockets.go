package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kantong/internal/core"
	klog "kantong/internal/log"
)

func pocketCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pocket",
		Short: "Manage pockets",
		Long: `Pockets partition the monthly budget.

The primary pocket always exists and cannot be edited or archived. Custom
pockets can be archived once their available balance is exactly zero.`,
	}

	cmd.AddCommand(pocketCreateCmd(st))
	cmd.AddCommand(pocketEditCmd(st))
	cmd.AddCommand(pocketArchiveCmd(st))
	cmd.AddCommand(pocketUnarchiveCmd(st))
	cmd.AddCommand(pocketListCmd(st))

	return cmd
}

func pocketCreateCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a custom pocket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			icon, _ := cmd.Flags().GetString("icon")
			color, _ := cmd.Flags().GetString("color")
			draft := core.PocketDraft{Name: args[0], Icon: icon, Color: color}
			if cmd.Flags().Changed("wishlist") {
				on, _ := cmd.Flags().GetBool("wishlist")
				draft.EnableWishlist = &on
			}

			p, err := st.app.ledger.Pockets().Create(cmd.Context(), draft)
			if err != nil {
				return fmt.Errorf("failed to create pocket: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created pocket %s (%s)\n", pocketLabel(p), p.ID)
			return nil
		},
	}
	cmd.Flags().String("icon", "", "pocket icon")
	cmd.Flags().String("color", "", "pocket color")
	cmd.Flags().Bool("wishlist", true, "enable the wishlist for this pocket")
	return cmd
}

func pocketEditCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <pocket>",
		Short: "Edit a custom pocket's name, icon, color or wishlist flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := st.resolvePocket(ctx, args[0])
			if err != nil {
				return err
			}

			var update core.PocketUpdate
			if cmd.Flags().Changed("name") {
				v, _ := cmd.Flags().GetString("name")
				update.Name = &v
			}
			if cmd.Flags().Changed("icon") {
				v, _ := cmd.Flags().GetString("icon")
				update.Icon = &v
			}
			if cmd.Flags().Changed("color") {
				v, _ := cmd.Flags().GetString("color")
				update.Color = &v
			}
			if cmd.Flags().Changed("wishlist") {
				v, _ := cmd.Flags().GetBool("wishlist")
				update.EnableWishlist = &v
			}

			edited, err := st.app.ledger.Pockets().Edit(ctx, p.ID, update)
			if err != nil {
				return fmt.Errorf("failed to edit pocket: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated pocket %s\n", pocketLabel(edited))
			return nil
		},
	}
	cmd.Flags().String("name", "", "new name")
	cmd.Flags().String("icon", "", "new icon")
	cmd.Flags().String("color", "", "new color")
	cmd.Flags().Bool("wishlist", true, "enable or disable the wishlist")
	return cmd
}

func pocketArchiveCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive <pocket>",
		Short: "Archive a custom pocket with a zero balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := st.resolvePocket(ctx, args[0])
			if err != nil {
				return err
			}

			var reason *string
			if cmd.Flags().Changed("reason") {
				v, _ := cmd.Flags().GetString("reason")
				reason = &v
			}

			archived, err := st.app.ledger.Pockets().Archive(ctx, p.ID, reason)
			fields := klog.NewFields().WithOperation(klog.OpArchive).WithPocket(p.ID).WithError(err)
			if err != nil {
				st.app.logger.WithFields(fields).Debug("Archive rejected")
				return fmt.Errorf("failed to archive pocket: %w", err)
			}
			st.app.logger.WithFields(fields).Debug("Archived pocket")
			fmt.Fprintf(cmd.OutOrStdout(), "Archived pocket %s\n", pocketLabel(archived))
			return nil
		},
	}
	cmd.Flags().String("reason", "", "why the pocket is archived")
	return cmd
}

func pocketUnarchiveCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "unarchive <pocket>",
		Short: "Restore an archived pocket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := st.resolvePocket(ctx, args[0])
			if err != nil {
				return err
			}
			restored, err := st.app.ledger.Pockets().Unarchive(ctx, p.ID)
			if err != nil {
				return fmt.Errorf("failed to unarchive pocket: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored pocket %s\n", pocketLabel(restored))
			return nil
		},
	}
}

func pocketListCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pockets in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, _ := cmd.Flags().GetString("status")
			typ, _ := cmd.Flags().GetString("type")

			pockets, err := st.app.ledger.Pockets().List(cmd.Context(), core.PocketFilter{
				Status: core.PocketStatus(status),
				Type:   core.PocketType(typ),
			})
			if err != nil {
				return fmt.Errorf("failed to list pockets: %w", err)
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ORDER\tID\tNAME\tTYPE\tSTATUS\tWISHLIST")
			for _, p := range pockets {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%t\n",
					p.Order, p.ID, pocketLabel(p), p.Type, p.Status, p.WishlistEnabled())
			}
			return tw.Flush()
		},
	}
	cmd.Flags().String("status", "", "filter by status (active, archived)")
	cmd.Flags().String("type", "", "filter by type (primary, custom)")
	return cmd
}
