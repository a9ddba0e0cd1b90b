// ABOUTME: Login and logout commands for the back-office API token
// ABOUTME: Stores the token under XDG data with owner-only permissions
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	"golang.org/x/term"

	"github.com/harperreed/podium/config"
)

func newLoginCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Save an API token for the back office",
		Long: `Save an API token for the back office.

The token is read without echo when stdin is a terminal, otherwise from
the first line of stdin. Tokens configured via config or PODIUM_API_TOKEN,
and OAuth client credentials, take precedence over the saved login.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := readToken(cmd.InOrStdin(), app.Out)
			if err != nil {
				return err
			}
			if token == "" {
				return fmt.Errorf("no token entered")
			}

			path := config.TokenPath()
			if err := config.SaveToken(path, &oauth2.Token{AccessToken: token, TokenType: "Bearer"}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(app.Out, "✓ Token saved to %s\n", path)
			return nil
		},
	}
}

func newLogoutCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.DeleteToken(config.TokenPath()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(app.Out, "✓ Logged out")
			return nil
		},
	}
}

func readToken(in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(out, "API token: ")
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}
