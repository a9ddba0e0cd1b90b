// ABOUTME: Sync command implementations for the Charm KV session mirror
// ABOUTME: SSH key auth is handled by charm itself; no login/logout needed

package charm

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/charm/client"
)

// Status prints sync configuration and how many sessions are mirrored.
func Status(ctx context.Context, w io.Writer, c *Client) error {
	cfg := c.Config()
	fmt.Fprintln(w, "Charm Sync Status")
	fmt.Fprintln(w, "─────────────────")
	fmt.Fprintf(w, "Server:    %s\n", cfg.Host)
	fmt.Fprintf(w, "Auto-sync: %v\n", cfg.AutoSync)

	if c.Remote() {
		cc, err := client.NewClientWithDefaults()
		if err != nil {
			fmt.Fprintln(w, "\nStatus: Not connected")
			fmt.Fprintln(w, "\nCharm uses SSH keys for authentication - no login required!")
			return nil //nolint:nilerr // Not being connected is a valid state, not an error
		}
		if id, err := cc.ID(); err != nil {
			fmt.Fprintln(w, "\nStatus: Connected (ID unavailable)")
		} else {
			fmt.Fprintln(w, "\nStatus: Connected to Charm Cloud")
			fmt.Fprintf(w, "ID:        %s\n", id)
		}
	}

	sessions, err := NewSessionStore(c).ListSessions(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Sessions:  %d\n", len(sessions))
	return nil
}

// Now performs an immediate sync.
func Now(w io.Writer, c *Client, verbose bool) error {
	if verbose {
		fmt.Fprintln(w, "Syncing with server...")
	}
	if err := c.Sync(); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	fmt.Fprintln(w, "✓ Synced")
	return nil
}

// Wipe resets the KV store. Without confirm it only prints a warning.
func Wipe(w io.Writer, c *Client, confirm bool) error {
	if !confirm {
		fmt.Fprintln(w, "WARNING: This will delete ALL mirrored sessions!")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "To confirm, run:")
		fmt.Fprintln(w, "  podium sync wipe --confirm")
		return nil
	}

	if err := c.Reset(); err != nil {
		return fmt.Errorf("failed to reset KV store: %w", err)
	}

	fmt.Fprintln(w, "✓ All mirrored sessions wiped")
	fmt.Fprintln(w, "Local sessions in the podium database are untouched.")
	return nil
}
