// ABOUTME: Interactive proposal wizard command
// ABOUTME: Runs the full-screen TUI, resuming a saved session when asked
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/harperreed/podium/matching"
	"github.com/harperreed/podium/tui"
)

func newWizardCommand(app *App) *cobra.Command {
	var resumeID string

	cmd := &cobra.Command{
		Use:   "wizard",
		Short: "Build a proposal interactively",
		Long: `Build a proposal interactively: pick a deal, choose speakers, adjust the
service package, then save it as a draft or send it.

Progress is saved after every step. Resume an interrupted session with
--resume; list saved sessions with "podium sessions list".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("the wizard needs a terminal; use \"podium proposal create\" for scripted runs")
			}
			// The TUI owns the screen.
			if err := app.LogToFile(); err != nil {
				return err
			}

			ctx := cmd.Context()
			client, err := app.API(ctx)
			if err != nil {
				return err
			}
			finalizer, err := app.Finalizer(client)
			if err != nil {
				return err
			}
			workflow, err := app.NewWorkflow(ctx, resumeID)
			if err != nil {
				return err
			}
			app.Logger.Info("wizard started", "session", workflow.ID(), "resumed", resumeID != "")

			created, err := tui.Run(ctx, tui.Deps{
				Workflow:  workflow,
				Deals:     client,
				Matcher:   matching.NewMatcher(client, app.Logger),
				Finalizer: finalizer,
				Logger:    app.Logger,
			})
			if err != nil {
				return err
			}

			if created != nil {
				_, _ = fmt.Fprintf(app.Out, "✓ Created proposal: %s (%s)\n", created.ID, created.Status)
				return nil
			}
			if st := workflow.State(); st.Step > 0 || st.Data.DealID != "" {
				_, _ = fmt.Fprintf(app.Out, "Session saved. Resume with: podium wizard --resume %s\n", workflow.ID())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&resumeID, "resume", "", "Resume a saved session by id")
	return cmd
}
