// ABOUTME: MCP prompt handlers for reusable proposal workflow templates
// ABOUTME: Provides prompts that walk an assistant through drafting or finishing a proposal
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/podium/deals"
	"github.com/harperreed/podium/models"
	"github.com/harperreed/podium/wizard"
)

type PromptHandlers struct {
	deals    deals.Source
	sessions SessionLister
}

func NewPromptHandlers(source deals.Source, sessions SessionLister) *PromptHandlers {
	return &PromptHandlers{deals: source, sessions: sessions}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "draft-proposal":
		return h.getDraftProposalPrompt(ctx, request.Params.Arguments)
	case "resume-session":
		return h.getResumeSessionPrompt(ctx, request.Params.Arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) getDraftProposalPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	dealID, ok := args["deal_id"]
	if !ok || dealID == "" {
		return nil, fmt.Errorf("deal_id is required")
	}

	all, err := h.deals.ListDeals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deals: %w", err)
	}
	var deal *models.Deal
	for i := range all {
		if all[i].ID == dealID {
			deal = &all[i]
			break
		}
	}
	if deal == nil {
		return nil, fmt.Errorf("deal not found: %s", dealID)
	}

	var promptText strings.Builder
	promptText.WriteString("Draft a speaker proposal for this deal:\n\n")
	fmt.Fprintf(&promptText, "Deal: %s (%s, %s priority)\n", deal.ID, deal.Status, deal.Priority)
	fmt.Fprintf(&promptText, "Client: %s", deal.ClientName)
	if deal.Company != "" {
		fmt.Fprintf(&promptText, " at %s", deal.Company)
	}
	promptText.WriteString("\n")
	fmt.Fprintf(&promptText, "Event: %s\n", deal.EventTitle)
	if deal.EventDate != "" {
		fmt.Fprintf(&promptText, "Date: %s\n", deal.EventDate)
	}
	if deal.EventLocation != "" {
		fmt.Fprintf(&promptText, "Location: %s\n", deal.EventLocation)
	}
	if deal.AttendeeCount > 0 {
		fmt.Fprintf(&promptText, "Attendees: %d\n", deal.AttendeeCount)
	}
	fmt.Fprintf(&promptText, "Budget: %s\n", deal.DealValue)
	if deal.SpeakerRequested != "" {
		fmt.Fprintf(&promptText, "Speaker requested: %s\n", deal.SpeakerRequested)
	}

	promptText.WriteString("\nPlease:")
	promptText.WriteString("\n1. Call match_speakers with these answers and pick speakers that fit the budget")
	promptText.WriteString("\n2. Call derive_service_package and adjust the line items if needed")
	promptText.WriteString("\n3. Call preview_proposal and summarize the totals and payment schedule")
	promptText.WriteString("\n4. Ask before calling create_proposal with status sent")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Proposal draft for deal: %s", deal.EventTitle),
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText.String()},
			},
		},
	}, nil
}

func (h *PromptHandlers) getResumeSessionPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	id, ok := args["session_id"]
	if !ok || id == "" {
		return nil, fmt.Errorf("session_id is required")
	}

	session, err := h.sessions.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session not found: %s", id)
	}

	data := session.Data
	var promptText strings.Builder
	promptText.WriteString("Finish this saved proposal session:\n\n")
	fmt.Fprintf(&promptText, "Step: %s\n", wizard.Step(session.Step))
	fmt.Fprintf(&promptText, "Last updated: %s\n", session.UpdatedAt.Format(time.RFC3339))
	if data.EventTitle != "" {
		fmt.Fprintf(&promptText, "Event: %s\n", data.EventTitle)
	}
	if data.ClientName != "" {
		fmt.Fprintf(&promptText, "Client: %s\n", data.ClientName)
	}
	if len(data.SelectedSpeakers) > 0 {
		names := make([]string, 0, len(data.SelectedSpeakers))
		for _, s := range data.SelectedSpeakers {
			names = append(names, s.Name)
		}
		fmt.Fprintf(&promptText, "Speakers: %s\n", strings.Join(names, ", "))
	}
	if data.TotalInvestment > 0 {
		fmt.Fprintf(&promptText, "Total investment: %s\n", data.TotalInvestment)
	}

	promptText.WriteString("\nPlease list what is still missing and suggest the next tool call.")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Resume session: %s", id),
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText.String()},
			},
		},
	}, nil
}

// Register adds the workflow prompts to server.
func (h *PromptHandlers) Register(server *mcp.Server) {
	server.AddPrompt(&mcp.Prompt{
		Name:        "draft-proposal",
		Description: "Walk through matching, pricing, and previewing a proposal for a deal",
		Arguments: []*mcp.PromptArgument{
			{Name: "deal_id", Description: "Deal to draft the proposal for", Required: true},
		},
	}, h.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "resume-session",
		Description: "Summarize a saved wizard session and what it still needs",
		Arguments: []*mcp.PromptArgument{
			{Name: "session_id", Description: "Saved session id", Required: true},
		},
	}, h.GetPrompt)
}
