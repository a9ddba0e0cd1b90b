// ABOUTME: Commands for saved wizard sessions
// ABOUTME: Lists, discards, and prunes the resumable snapshots in the local database
package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/harperreed/podium/models"
	"github.com/harperreed/podium/wizard"
)

func newSessionsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session"},
		Short:   "Manage saved wizard sessions",
	}
	cmd.AddCommand(
		newSessionsListCommand(app),
		newSessionsDiscardCommand(app),
		newSessionsPruneCommand(app),
	)
	return cmd
}

func newSessionsListCommand(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved sessions, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := app.Sessions()
			if err != nil {
				return err
			}
			list, err := repo.ListSessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printSessions(app.Out, list)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum results")
	return cmd
}

func printSessions(out io.Writer, list []models.WizardSession) {
	if len(list) == 0 {
		_, _ = fmt.Fprintln(out, "No saved sessions")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "UPDATED\tSTEP\tEVENT\tCLIENT\tSPEAKERS\tID")
	_, _ = fmt.Fprintln(w, "-------\t----\t-----\t------\t--------\t--")
	for _, s := range list {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			s.UpdatedAt.Local().Format("2006-01-02 15:04"), wizard.Step(s.Step),
			orDash(s.Data.EventTitle), orDash(s.Data.ClientName), len(s.Data.SelectedSpeakers), s.ID)
	}
	_ = w.Flush()
}

func newSessionsDiscardCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "discard <id>",
		Short: "Delete a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.SessionStore()
			if err != nil {
				return err
			}
			if err := store.DeleteSession(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to discard session: %w", err)
			}
			_, _ = fmt.Fprintf(app.Out, "✓ Discarded session: %s\n", args[0])
			return nil
		},
	}
}

func newSessionsPruneCommand(app *App) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete local sessions not touched recently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			repo, err := app.Sessions()
			if err != nil {
				return err
			}
			n, err := repo.PruneSessions(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(app.Out, "✓ Pruned %d session(s)\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age threshold")
	return cmd
}
