// ABOUTME: Proposal commands: non-interactive creation from an answers file and submission history
// ABOUTME: Creation drives the same wizard steps as the terminal UI, saving a resumable session
package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/harperreed/podium/db"
	"github.com/harperreed/podium/deals"
	"github.com/harperreed/podium/matching"
	"github.com/harperreed/podium/models"
	"github.com/harperreed/podium/pricing"
	"github.com/harperreed/podium/proposal"
	"github.com/harperreed/podium/wizard"
)

// Runner walks one workflow through every step without a terminal.
type Runner struct {
	Workflow  *wizard.Workflow
	Deals     deals.Source
	Matcher   *matching.Matcher
	Finalizer *proposal.Finalizer
	Logger    *log.Logger
	Now       func() time.Time
}

// RunRequest selects what the runner fills in beyond the answers file.
type RunRequest struct {
	Answers    *Answers
	DealID     string
	SpeakerIDs []string
	Status     string
	DryRun     bool
}

// RunResult is what a run produced. Payload is set for dry runs and
// Proposal for submissions.
type RunResult struct {
	SessionID string
	Payload   *proposal.Payload
	Proposal  *models.Proposal
}

// Run seeds the answers, matches and selects speakers, derives the service
// package, and submits. On failure the session snapshot stays behind so the
// wizard can resume it.
func (r *Runner) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	answers := req.Answers
	if answers == nil {
		answers = &Answers{}
	}
	result := &RunResult{SessionID: r.Workflow.ID()}

	dealID := req.DealID
	if dealID == "" {
		dealID = answers.DealID
	}
	if dealID != "" {
		d, err := findDeal(ctx, r.Deals, r.Logger, dealID)
		if err != nil {
			return result, err
		}
		r.Workflow.Dispatch(ctx, wizard.Merge{Patch: deals.SeedPatch(d)})
	}
	r.Workflow.Dispatch(ctx, wizard.Merge{Patch: answers.Patch()})
	if _, err := r.Workflow.Advance(ctx); err != nil {
		return result, err
	}

	data := r.Workflow.State().Data
	candidates, err := r.Matcher.Search(ctx, data.DealID, matching.CriteriaFrom(data))
	if err != nil {
		return result, err
	}
	ids := req.SpeakerIDs
	if len(ids) == 0 {
		ids = answers.Speakers
	}
	patch, err := selectSpeakers(candidates, ids)
	if err != nil {
		return result, err
	}
	r.Workflow.Dispatch(ctx, wizard.Merge{Patch: patch})
	if _, err := r.Workflow.Advance(ctx); err != nil {
		return result, err
	}

	data = r.Workflow.State().Data
	pkg := pricing.Ensure(data)
	if len(answers.Services) > 0 {
		pkg = pricing.Package(answers.Services)
	}
	terms := data.PaymentTerms
	if answers.PaymentTerms != "" {
		terms = answers.PaymentTerms
	}
	validDays := data.ValidDays
	if answers.ValidDays != nil {
		validDays = *answers.ValidDays
	}
	patch, err = pricing.Continue(pkg, terms, validDays)
	if err != nil {
		return result, err
	}
	r.Workflow.Dispatch(ctx, wizard.Merge{Patch: patch})
	if _, err := r.Workflow.Advance(ctx); err != nil {
		return result, err
	}

	data = r.Workflow.State().Data
	if req.DryRun {
		payload := proposal.Build(data, req.Status, r.now())
		result.Payload = &payload
		return result, nil
	}

	created, err := r.Finalizer.Submit(ctx, r.Workflow.ID(), data, req.Status)
	if err != nil {
		return result, err
	}
	r.Workflow.Complete(ctx)
	result.Proposal = created
	return result, nil
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func newProposalCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proposal",
		Short: "Create proposals and review submission history",
	}
	cmd.AddCommand(newProposalCreateCommand(app), newProposalHistoryCommand(app))
	return cmd
}

func newProposalCreateCommand(app *App) *cobra.Command {
	var (
		answersPath string
		dealID      string
		speakers    []string
		send        bool
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a proposal without the interactive wizard",
		Example: `  podium proposal create --answers summit.yaml --deal d-42 --speaker s-1
  podium proposal create --answers summit.yaml --send`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			answers, err := loadAnswersOrEmpty(answersPath)
			if err != nil {
				return err
			}

			client, err := app.API(ctx)
			if err != nil {
				return err
			}
			finalizer, err := app.Finalizer(client)
			if err != nil {
				return err
			}
			workflow, err := app.NewWorkflow(ctx, "")
			if err != nil {
				return err
			}

			status := models.ProposalStatusDraft
			if send {
				status = models.ProposalStatusSent
			}

			runner := &Runner{
				Workflow:  workflow,
				Deals:     client,
				Matcher:   matching.NewMatcher(client, app.Logger),
				Finalizer: finalizer,
				Logger:    app.Logger,
			}
			result, err := runner.Run(ctx, RunRequest{
				Answers:    answers,
				DealID:     dealID,
				SpeakerIDs: speakers,
				Status:     status,
				DryRun:     dryRun,
			})
			if err != nil {
				return fmt.Errorf("%w (resume with: podium wizard --resume %s)", err, result.SessionID)
			}

			if result.Payload != nil {
				return writeJSON(app.Out, result.Payload)
			}
			_, _ = fmt.Fprintf(app.Out, "✓ Proposal %s created (%s)\n", result.Proposal.ID, status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&answersPath, "answers", "a", "", "YAML answers file")
	cmd.Flags().StringVar(&dealID, "deal", "", "Seed answers from this deal")
	cmd.Flags().StringSliceVar(&speakers, "speaker", nil, "Speaker id to select (repeatable)")
	cmd.Flags().BoolVar(&send, "send", false, "Send to the client instead of saving a draft")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the proposal payload without submitting")
	return cmd
}

func newProposalHistoryCommand(app *App) *cobra.Command {
	var filter db.SubmissionFilter

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded submission attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := app.Submissions()
			if err != nil {
				return err
			}
			list, err := repo.ListSubmissions(cmd.Context(), filter)
			if err != nil {
				return err
			}
			printSubmissions(app.Out, list)
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.SessionID, "session", "", "Only attempts from this session")
	cmd.Flags().BoolVar(&filter.FailedOnly, "failed", false, "Only failed attempts")
	cmd.Flags().IntVar(&filter.Limit, "limit", 50, "Maximum results")
	return cmd
}

func printSubmissions(out io.Writer, list []models.Submission) {
	if len(list) == 0 {
		_, _ = fmt.Fprintln(out, "No submissions found")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "WHEN\tTITLE\tSTATUS\tTOTAL\tRESULT\tSESSION")
	_, _ = fmt.Fprintln(w, "----\t-----\t------\t-----\t------\t-------")
	for _, s := range list {
		outcome := s.ProposalID
		if !s.Succeeded() {
			outcome = "failed: " + s.Error
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.CreatedAt.Local().Format("2006-01-02 15:04"), s.Title, s.Status, s.TotalInvestment, outcome, orDash(s.SessionID))
	}
	_ = w.Flush()
}
