// ABOUTME: MCP server subcommand
// ABOUTME: Starts the MCP server on stdio for assistant integration, optionally serving metrics
package cli

import (
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/harperreed/podium/handlers"
)

func newMCPCommand(app *App, version string) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app.Logger.Info("starting podium MCP server")

			client, err := app.API(ctx)
			if err != nil {
				return err
			}
			finalizer, err := app.Finalizer(client)
			if err != nil {
				return err
			}
			sessions, err := app.Sessions()
			if err != nil {
				return err
			}
			submissions, err := app.Submissions()
			if err != nil {
				return err
			}

			if metricsAddr != "" {
				go func() {
					app.Logger.Info("serving metrics", "addr", metricsAddr)
					if err := app.Metrics.Serve(metricsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
						app.Logger.Error("metrics server failed", "err", err)
					}
				}()
			}

			server := mcp.NewServer(&mcp.Implementation{
				Name:    "podium",
				Version: version,
			}, nil)

			handlers.NewWorkflowHandlers(client, client, finalizer, app.Logger).Register(server)
			handlers.NewResourceHandlers(sessions, submissions).Register(server)
			handlers.NewPromptHandlers(client, sessions).Register(server)

			return server.Run(ctx, &mcp.StdioTransport{})
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	return cmd
}
