// ABOUTME: Charm sync commands for the cross-device session mirror
// ABOUTME: Wraps status, immediate sync, and wipe of the charm KV store
package cli

import (
	"github.com/spf13/cobra"

	"github.com/harperreed/podium/charm"
)

func newSyncCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Manage the charm session mirror",
	}

	var verbose bool
	now := &cobra.Command{
		Use:   "now",
		Short: "Sync mirrored sessions with the charm server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := app.Charm()
			if err != nil {
				return err
			}
			return charm.Now(app.Out, c, verbose)
		},
	}
	now.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print progress")

	var confirm bool
	wipe := &cobra.Command{
		Use:   "wipe",
		Short: "Delete every mirrored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := app.Charm()
			if err != nil {
				return err
			}
			return charm.Wipe(app.Out, c, confirm)
		},
	}
	wipe.Flags().BoolVar(&confirm, "confirm", false, "Really wipe")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show sync configuration and mirrored session count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := app.Charm()
			if err != nil {
				return err
			}
			return charm.Status(cmd.Context(), app.Out, c)
		},
	}

	cmd.AddCommand(status, now, wipe)
	return cmd
}
