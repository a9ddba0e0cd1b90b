// ABOUTME: Root of the podium command tree
// ABOUTME: Global flags load configuration once; resources are released after every command
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Execute runs the command line with args and closes what the command opened.
func Execute(version string, args []string, out io.Writer) error {
	app := &App{}
	root := NewRootCommand(version, app)
	root.SetArgs(args)
	root.SetOut(out)
	defer func() { _ = app.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the command tree. app is filled in before any
// subcommand runs.
func NewRootCommand(version string, app *App) *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:   "podium",
		Short: "Build speaker-booking proposals from open deals",
		Long: `Podium turns an open sales deal into a priced speaker proposal.

The wizard walks four steps: pick a deal, match speakers, shape the
service package, and review. Every step is saved locally so an
interrupted wizard can be resumed, and every submission is recorded.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := NewApp(opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			*app = *loaded
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Config file path (default: $XDG_CONFIG_HOME/podium/config.json)")
	cmd.PersistentFlags().StringVar(&opts.DotEnv, "env-file", ".env", "Dotenv file to load if present")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db-path", "", "Database path (default: $XDG_DATA_HOME/podium/podium.db)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newDealsCommand(app),
		newMatchCommand(app),
		newProposalCommand(app),
		newSessionsCommand(app),
		newWizardCommand(app),
		newLoginCommand(app),
		newLogoutCommand(app),
		newMCPCommand(app, version),
		newSyncCommand(app),
	)
	return cmd
}
