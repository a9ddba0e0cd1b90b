// ABOUTME: MCP tool handlers for the proposal workflow
// ABOUTME: Implements list_candidate_deals, match_speakers, derive_service_package, preview_proposal, create_proposal
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/podium/deals"
	"github.com/harperreed/podium/matching"
	"github.com/harperreed/podium/models"
	"github.com/harperreed/podium/pricing"
	"github.com/harperreed/podium/proposal"
	"github.com/harperreed/podium/wizard"
)

type WorkflowHandlers struct {
	deals     deals.Source
	matcher   matching.Service
	finalizer *proposal.Finalizer
	logger    *log.Logger
	now       func() time.Time
}

func NewWorkflowHandlers(source deals.Source, matcher matching.Service, finalizer *proposal.Finalizer, logger *log.Logger) *WorkflowHandlers {
	if logger == nil {
		logger = log.Default()
	}
	return &WorkflowHandlers{
		deals:     source,
		matcher:   matcher,
		finalizer: finalizer,
		logger:    logger,
		now:       time.Now,
	}
}

type ListDealsInput struct {
	Status string `json:"status,omitempty" jsonschema:"Filter by status: qualified, proposal, negotiation, or all (default all)"`
	Query  string `json:"query,omitempty" jsonschema:"Case-insensitive match on client name, company, or event title"`
}

type ListDealsOutput struct {
	Deals []DealOutput `json:"deals"`
	Count int          `json:"count"`
}

func (h *WorkflowHandlers) ListCandidateDeals(ctx context.Context, _ *mcp.CallToolRequest, input ListDealsInput) (*mcp.CallToolResult, ListDealsOutput, error) {
	switch input.Status {
	case "", deals.StatusAll, models.DealStatusQualified, models.DealStatusProposal, models.DealStatusNegotiation:
	default:
		return nil, ListDealsOutput{}, fmt.Errorf("invalid status: %s (valid: qualified, proposal, negotiation, all)", input.Status)
	}

	all, err := h.deals.ListDeals(ctx)
	if err != nil {
		return nil, ListDealsOutput{}, fmt.Errorf("failed to fetch deals: %w", err)
	}

	pool := deals.Candidates(all, deals.Filter{Status: input.Status, Query: input.Query})
	out := ListDealsOutput{Deals: make([]DealOutput, 0, len(pool))}
	for _, d := range pool {
		out.Deals = append(out.Deals, dealToOutput(d))
	}
	out.Count = len(out.Deals)
	return nil, out, nil
}

type MatchSpeakersInput struct {
	AnswersInput
	Query             string `json:"query,omitempty" jsonschema:"Case-insensitive match on name, title, or topic"`
	IncludeOverBudget bool   `json:"include_over_budget,omitempty" jsonschema:"Also return speakers whose fee exceeds the remaining budget"`
}

type MatchSpeakersOutput struct {
	Speakers []SpeakerOutput `json:"speakers"`
	Count    int             `json:"count"`
	Hidden   int             `json:"hidden"`
}

func (h *WorkflowHandlers) MatchSpeakers(ctx context.Context, _ *mcp.CallToolRequest, input MatchSpeakersInput) (*mcp.CallToolResult, MatchSpeakersOutput, error) {
	data, err := input.WizardData()
	if err != nil {
		return nil, MatchSpeakersOutput{}, err
	}

	candidates, err := h.matcher.MatchSpeakers(ctx, data.DealID, matching.CriteriaFrom(data))
	if err != nil {
		return nil, MatchSpeakersOutput{}, fmt.Errorf("failed to match speakers: %w", err)
	}

	view := matching.View{Query: input.Query, WithinBudget: !input.IncludeOverBudget}
	visible := matching.Filter(candidates, view, data)

	out := MatchSpeakersOutput{Speakers: make([]SpeakerOutput, 0, len(visible))}
	for _, c := range visible {
		out.Speakers = append(out.Speakers, speakerToOutput(c))
	}
	out.Count = len(out.Speakers)
	out.Hidden = len(candidates) - out.Count
	return nil, out, nil
}

type PackageOutput struct {
	Services        []ServiceOutput `json:"services"`
	TotalInvestment float64         `json:"total_investment"`
	SpeakerFees     float64         `json:"speaker_fees"`
}

func (h *WorkflowHandlers) DeriveServicePackage(_ context.Context, _ *mcp.CallToolRequest, input AnswersInput) (*mcp.CallToolResult, PackageOutput, error) {
	input.Services = nil
	data, err := input.WizardData()
	if err != nil {
		return nil, PackageOutput{}, err
	}
	return nil, PackageOutput{
		Services:        servicesToOutput(data.Services),
		TotalInvestment: data.TotalInvestment.Float(),
		SpeakerFees:     data.SpeakerFees().Float(),
	}, nil
}

type PreviewOutput struct {
	Title           string            `json:"title"`
	ClientName      string            `json:"client_name"`
	EventTitle      string            `json:"event_title"`
	Speakers        []string          `json:"speakers"`
	Services        []ServiceOutput   `json:"services"`
	TotalInvestment float64           `json:"total_investment"`
	PaymentSchedule []MilestoneOutput `json:"payment_schedule"`
	Deliverables    []string          `json:"deliverables"`
	PaymentTerms    string            `json:"payment_terms"`
	ValidUntil      string            `json:"valid_until"`
}

func (h *WorkflowHandlers) PreviewProposal(_ context.Context, _ *mcp.CallToolRequest, input AnswersInput) (*mcp.CallToolResult, PreviewOutput, error) {
	data, err := input.WizardData()
	if err != nil {
		return nil, PreviewOutput{}, err
	}

	payload := proposal.Build(data, models.ProposalStatusDraft, h.now())
	out := PreviewOutput{
		Title:           payload.Title,
		ClientName:      payload.ClientName,
		EventTitle:      payload.EventTitle,
		Speakers:        make([]string, 0, len(payload.Speakers)),
		Services:        servicesToOutput(payload.Services),
		TotalInvestment: payload.TotalInvestment.Float(),
		PaymentSchedule: scheduleToOutput(payload.PaymentSchedule),
		PaymentTerms:    payload.PaymentTerms,
		ValidUntil:      payload.ValidUntil.Format(time.DateOnly),
	}
	for _, s := range payload.Speakers {
		out.Speakers = append(out.Speakers, s.Name)
	}
	for _, d := range payload.Deliverables {
		out.Deliverables = append(out.Deliverables, d.Name)
	}
	return nil, out, nil
}

type CreateProposalInput struct {
	AnswersInput
	Status    string `json:"status,omitempty" jsonschema:"draft or sent (default draft)"`
	SessionID string `json:"session_id,omitempty" jsonschema:"Wizard session the proposal comes from; reused as the idempotency key"`
}

type CreateProposalOutput struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Status          string  `json:"status"`
	TotalInvestment float64 `json:"total_investment"`
}

func (h *WorkflowHandlers) CreateProposal(ctx context.Context, _ *mcp.CallToolRequest, input CreateProposalInput) (*mcp.CallToolResult, CreateProposalOutput, error) {
	status := input.Status
	if status == "" {
		status = models.ProposalStatusDraft
	}

	data, err := input.WizardData()
	if err != nil {
		return nil, CreateProposalOutput{}, err
	}
	if len(data.SelectedSpeakers) == 0 {
		return nil, CreateProposalOutput{}, wizard.ErrNoSpeakers
	}
	if data.ValidDays <= 0 {
		return nil, CreateProposalOutput{}, pricing.ErrValidDays
	}

	created, err := h.finalizer.Submit(ctx, input.SessionID, data, status)
	if err != nil {
		if errors.Is(err, proposal.ErrInFlight) {
			h.logger.Warn("rejected concurrent proposal submission", "session", input.SessionID)
		}
		return nil, CreateProposalOutput{}, err
	}

	out := CreateProposalOutput{
		ID:              created.ID,
		Title:           proposal.Title(data.EventTitle),
		Status:          status,
		TotalInvestment: data.TotalInvestment.Float(),
	}
	if created.Title != "" {
		out.Title = created.Title
	}
	if created.Status != "" {
		out.Status = created.Status
	}
	return nil, out, nil
}

// Register adds the workflow tools to server.
func (h *WorkflowHandlers) Register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_candidate_deals",
		Description: "List open deals that can receive a speaker proposal, ordered by status, priority, and event date",
	}, h.ListCandidateDeals)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "match_speakers",
		Description: "Rank speakers for an event; results over the remaining budget are hidden unless requested",
	}, h.MatchSpeakers)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "derive_service_package",
		Description: "Derive the default service package and total investment from the event answers",
	}, h.DeriveServicePackage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "preview_proposal",
		Description: "Assemble a proposal without submitting it: totals, payment schedule, and validity date",
	}, h.PreviewProposal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_proposal",
		Description: "Submit a proposal to the back office as a draft or send it to the client",
	}, h.CreateProposal)
}
