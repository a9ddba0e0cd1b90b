// ABOUTME: Review step of the wizard
// ABOUTME: Shows the proposal preview and submits it as a draft or sent proposal
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/podium/models"
	"github.com/harperreed/podium/proposal"
)

func (m Model) submit(status string) tea.Cmd {
	ctx, finalizer := m.ctx, m.finalizer
	id, data := m.workflow.ID(), m.state().Data
	return func() tea.Msg {
		p, err := finalizer.Submit(ctx, id, data, status)
		return submitResultMsg{session: id, status: status, proposal: p, err: err}
	}
}

func (m Model) handleSubmitResult(msg submitResultMsg) (tea.Model, tea.Cmd) {
	if msg.session != m.workflow.ID() {
		m.logger.Warn("discarding submission result for a previous session", "session", msg.session, "err", msg.err)
		return m, nil
	}
	m.submitting = false
	if msg.err != nil {
		m.notice = fmt.Sprintf("Failed to save proposal: %v", msg.err)
		return m, nil
	}
	m.workflow.Complete(m.ctx)
	m.created = msg.proposal
	m.notice = ""
	return m, nil
}

func (m Model) handleReviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.submitting {
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.back()
		m.loadPackage()
	case "d", "s":
		if m.finalizer.Pending() {
			m.notice = proposal.ErrInFlight.Error()
			return m, nil
		}
		status := models.ProposalStatusDraft
		if msg.String() == "s" {
			status = models.ProposalStatusSent
		}
		m.submitting = true
		m.notice = ""
		return m, m.submit(status)
	}
	return m, nil
}

func (m Model) renderReviewView() string {
	var s strings.Builder

	if m.created != nil {
		s.WriteString(okStyle.Render(fmt.Sprintf("✓ Proposal %s saved (%s)", m.created.ID, orDash(m.created.Status))))
		s.WriteString("\n")
		s.WriteString(renderHelp("press any key to exit"))
		return s.String()
	}

	data := m.state().Data
	p := proposal.Build(data, models.ProposalStatusDraft, m.now())

	s.WriteString(headerStyle.Render(p.Title))
	s.WriteString("\n\n")

	field := func(label, value string) {
		s.WriteString(labelStyle.Render(label))
		s.WriteString(value)
		s.WriteString("\n")
	}
	client := data.ClientName
	if data.ClientCompany != "" {
		client = fmt.Sprintf("%s (%s)", orDash(client), data.ClientCompany)
	}
	field("Client:", orDash(client))
	field("Event:", orDash(data.EventTitle))
	field("Date:", formatDate(data.EventDate))
	field("Location:", orDash(data.EventLocation))
	field("Attendees:", fmt.Sprintf("%d", data.AttendeeCount))

	s.WriteString("\n")
	s.WriteString(headerStyle.Render("Speakers"))
	s.WriteString("\n")
	for _, sp := range data.SelectedSpeakers {
		s.WriteString(fmt.Sprintf("  %-30s %14s\n", truncate(sp.Name, 30), sp.Fee))
	}

	s.WriteString("\n")
	s.WriteString(headerStyle.Render("Services"))
	s.WriteString("\n")
	for _, item := range data.Services {
		if !item.Included {
			continue
		}
		s.WriteString(fmt.Sprintf("  %-36s %14s\n", truncate(item.Name, 36), item.Price))
	}
	field("Total:", p.TotalInvestment.String())

	s.WriteString("\n")
	s.WriteString(headerStyle.Render("Payment"))
	s.WriteString("\n")
	for _, ms := range p.PaymentSchedule {
		s.WriteString(fmt.Sprintf("  %-16s %3d%%  %14s  %s\n", ms.Milestone, ms.Percentage, ms.Amount, ms.DueDate))
	}
	field("Terms:", data.PaymentTerms)
	field("Valid until:", p.ValidUntil.Format("Jan 2, 2006"))

	s.WriteString("\n")
	if m.submitting {
		s.WriteString(warnStyle.Render("Saving proposal..."))
		s.WriteString("\n")
		return s.String()
	}

	s.WriteString(renderHelp("d: save draft", "s: send", "esc: back", "ctrl+r: start over", "q: quit"))
	return s.String()
}
