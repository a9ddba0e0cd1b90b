// ABOUTME: Speaker selection step of the wizard
// ABOUTME: Requests matches asynchronously and drops responses superseded by a newer request
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/podium/matching"
	"github.com/harperreed/podium/models"
	"github.com/harperreed/podium/wizard"
)

// startMatch issues a ticket now and fetches in the background.
func (m *Model) startMatch() tea.Cmd {
	data := m.state().Data
	t := m.matcher.Issue()
	m.matching = true

	ctx, matcher := m.ctx, m.matcher
	criteria := matching.CriteriaFrom(data)
	return func() tea.Msg {
		candidates, err := matcher.Fetch(ctx, t, data.DealID, criteria)
		return matchResultMsg{ticket: t, candidates: candidates, err: err}
	}
}

func (m Model) handleMatchResult(msg matchResultMsg) (tea.Model, tea.Cmd) {
	if !m.matcher.Latest(msg.ticket) {
		m.logger.Debug("discarding stale match response", "ticket", msg.ticket)
		return m, nil
	}
	m.matching = false
	if msg.err != nil {
		m.notice = "Speaker matching failed: " + msg.err.Error()
		return m, nil
	}
	m.matcher.Resolve(msg.ticket, msg.candidates)
	m.speakerCursor = 0
	m.notice = ""
	return m, nil
}

func (m Model) visibleSpeakers() []models.SpeakerCandidate {
	return m.matcher.Visible(m.view, m.state().Data)
}

func (m Model) handleSpeakerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	list := m.visibleSpeakers()
	data := m.state().Data

	switch msg.String() {
	case "esc":
		m.back()
		if !m.dealsLoaded {
			return m, m.loadDeals()
		}
	case "up", "k":
		if m.speakerCursor > 0 {
			m.speakerCursor--
		}
	case "down", "j":
		if m.speakerCursor < len(list)-1 {
			m.speakerCursor++
		}
	case " ", "x":
		if len(list) == 0 {
			return m, nil
		}
		c := list[clampCursor(m.speakerCursor, len(list))]
		selected := matching.Toggle(data.SelectedSpeakers, c)
		m.dispatch(wizard.Merge{Patch: wizard.Patch{SelectedSpeakers: wizard.Some(selected)}})
	case "b":
		m.view.WithinBudget = !m.view.WithinBudget
		m.speakerCursor = 0
	case "/":
		return m, m.openForm(editSpeakerQuery, newInput("name, title, or topic", m.view.Query, 100))
	case "r":
		return m, m.startMatch()
	case "enter":
		patch, err := matching.Continue(data.SelectedSpeakers)
		if err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.dispatch(wizard.Merge{Patch: patch})
		if m.advance() {
			m.loadPackage()
		}
	}
	return m, nil
}

func (m Model) renderSpeakerView() string {
	var s strings.Builder
	data := m.state().Data

	s.WriteString(headerStyle.Render("Select speakers"))
	s.WriteString("\n")
	if data.EventTitle != "" {
		s.WriteString(mutedStyle.Render(fmt.Sprintf("%s for %s", data.EventTitle, orDash(data.ClientCompany))))
		s.WriteString("\n")
	}
	budget := "off"
	if m.view.WithinBudget {
		budget = "on"
	}
	status := fmt.Sprintf("Budget: %s  Selected fees: %s  Budget filter: %s", data.Budget, data.SpeakerFees(), budget)
	if m.view.Query != "" {
		status += fmt.Sprintf("  Search: %q", m.view.Query)
	}
	s.WriteString(mutedStyle.Render(status))
	s.WriteString("\n\n")

	if m.edit == editSpeakerQuery {
		s.WriteString(m.renderForm("Search: "))
		s.WriteString("\n")
	}

	if m.matching {
		s.WriteString("Matching speakers...\n")
	}

	list := m.visibleSpeakers()
	all := len(m.matcher.Candidates())
	if !m.matching && len(list) == 0 {
		s.WriteString(mutedStyle.Render("No speakers to show."))
		s.WriteString("\n")
	}

	cursor := clampCursor(m.speakerCursor, len(list))
	for i, c := range list {
		mark := "[ ]"
		if matching.IsSelected(data.SelectedSpeakers, c.ID) {
			mark = okStyle.Render("[✓]")
		}
		line := fmt.Sprintf("%s %-24s %3d%%  %-18s %s",
			mark, truncate(c.Name, 24), c.MatchScore, truncate(c.SpeakingFeeRange, 18), truncate(c.Title, 30))
		if i == cursor {
			s.WriteString(selectedStyle.Render("> " + line))
		} else {
			s.WriteString("  " + line)
		}
		s.WriteString("\n")
		if i == cursor && len(c.MatchReasons) > 0 {
			s.WriteString(mutedStyle.Render("      " + strings.Join(c.MatchReasons, "; ")))
			s.WriteString("\n")
		}
	}
	if hidden := all - len(list); hidden > 0 {
		s.WriteString(mutedStyle.Render(fmt.Sprintf("%d speaker(s) hidden by filters", hidden)))
		s.WriteString("\n")
	}

	s.WriteString(renderHelp("space: toggle", "b: budget filter", "/: search", "r: re-match", "enter: continue", "esc: back", "ctrl+r: start over"))
	return s.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
