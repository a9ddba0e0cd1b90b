// ABOUTME: Deal and speaker lookup commands
// ABOUTME: Lists candidate deals and previews speaker matches for an answers file
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/harperreed/podium/deals"
	"github.com/harperreed/podium/matching"
	"github.com/harperreed/podium/models"
	"github.com/harperreed/podium/wizard"
)

func newDealsCommand(app *App) *cobra.Command {
	var (
		status string
		query  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "deals",
		Short: "List open deals that can receive a proposal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.API(cmd.Context())
			if err != nil {
				return err
			}
			all, err := client.ListDeals(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch deals: %w", err)
			}
			list := deals.Candidates(all, deals.Filter{Status: status, Query: query})
			if asJSON {
				return writeJSON(app.Out, list)
			}
			printDeals(app.Out, list)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", deals.StatusAll, "Filter by status: qualified, proposal, negotiation, all")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Match client name, company, or event title")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func printDeals(out io.Writer, list []models.Deal) {
	if len(list) == 0 {
		_, _ = fmt.Fprintln(out, "No deals found")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "EVENT\tCLIENT\tDATE\tVALUE\tSTATUS\tPRIORITY\tID")
	_, _ = fmt.Fprintln(w, "-----\t------\t----\t-----\t------\t--------\t--")

	var total models.Cents
	for _, d := range list {
		date := d.EventDate
		if t := deals.ParseEventDate(d.EventDate); t != nil {
			date = t.Format("2006-01-02")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			orDash(d.EventTitle), orDash(d.ClientName), orDash(date), d.DealValue, d.Status, orDash(d.Priority), d.ID)
		total += d.DealValue
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "\nTotal: %d deal(s) - %s\n", len(list), total)
}

func newMatchCommand(app *App) *cobra.Command {
	var (
		answersPath string
		dealID      string
		query       string
		all         bool
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Rank speakers for the event described by an answers file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := app.API(ctx)
			if err != nil {
				return err
			}

			answers, err := loadAnswersOrEmpty(answersPath)
			if err != nil {
				return err
			}
			if dealID == "" {
				dealID = answers.DealID
			}
			data := models.NewWizardData()
			if dealID != "" {
				d, err := findDeal(ctx, client, app.Logger, dealID)
				if err != nil {
					return err
				}
				data = deals.SeedPatch(d).Apply(data)
			}
			data = answers.Patch().Apply(data)

			matcher := matching.NewMatcher(client, app.Logger)
			if _, err := matcher.Search(ctx, data.DealID, matching.CriteriaFrom(data)); err != nil {
				return err
			}
			visible := matcher.Visible(matching.View{Query: query, WithinBudget: !all}, data)
			printSpeakers(app.Out, visible, len(matcher.Candidates()), data)
			return nil
		},
	}

	cmd.Flags().StringVarP(&answersPath, "answers", "a", "", "YAML answers file")
	cmd.Flags().StringVar(&dealID, "deal", "", "Seed answers from this deal")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Match speaker name, title, or topic")
	cmd.Flags().BoolVar(&all, "all", false, "Include speakers over the remaining budget")
	return cmd
}

func printSpeakers(out io.Writer, list []models.SpeakerCandidate, total int, data models.WizardData) {
	if len(list) == 0 {
		_, _ = fmt.Fprintln(out, "No speakers found")
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "NAME\tTITLE\tFEE RANGE\tSCORE\tTOPICS\tID")
		_, _ = fmt.Fprintln(w, "----\t-----\t---------\t-----\t------\t--")
		for _, c := range list {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
				c.Name, orDash(c.Title), orDash(c.SpeakingFeeRange), c.MatchScore, orDash(strings.Join(c.Topics, ", ")), c.ID)
		}
		_ = w.Flush()
	}

	if hidden := total - len(list); hidden > 0 {
		_, _ = fmt.Fprintf(out, "\n%d speaker(s) hidden by filters (budget %s); use --all to show them\n", hidden, data.Budget)
	}
}

// findDeal looks dealID up among the open candidates.
func findDeal(ctx context.Context, source deals.Source, logger *log.Logger, dealID string) (models.Deal, error) {
	selector := deals.NewSelector(source, logger)
	selector.Load(ctx)
	d, ok := selector.Find(dealID)
	if !ok {
		return models.Deal{}, fmt.Errorf("deal %s is not an open candidate", dealID)
	}
	return d, nil
}

func loadAnswersOrEmpty(path string) (*Answers, error) {
	if path == "" {
		return &Answers{}, nil
	}
	return LoadAnswers(path)
}

// selectSpeakers toggles the candidates with the given ids into the answers.
// Unknown ids are an error; repeated ids are selected once.
func selectSpeakers(candidates []models.SpeakerCandidate, ids []string) (wizard.Patch, error) {
	selected := []models.SelectedSpeaker{}
	var missing []string
	for _, id := range ids {
		if matching.IsSelected(selected, id) {
			continue
		}
		found := false
		for _, c := range candidates {
			if c.ID == id {
				selected = matching.Toggle(selected, c)
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return wizard.Patch{}, fmt.Errorf("speakers not among the matches: %s", strings.Join(missing, ", "))
	}
	return matching.Continue(selected)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
