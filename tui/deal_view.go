// ABOUTME: Deal selection step of the wizard
// ABOUTME: Lists eligible deals with status and text filters; enter seeds the answers
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/podium/deals"
	"github.com/harperreed/podium/models"
	"github.com/harperreed/podium/wizard"
)

var dealStatuses = []string{
	deals.StatusAll,
	models.DealStatusQualified,
	models.DealStatusProposal,
	models.DealStatusNegotiation,
}

func (m Model) loadDeals() tea.Cmd {
	ctx, source := m.ctx, m.source
	return func() tea.Msg {
		list, err := source.ListDeals(ctx)
		return dealsLoadedMsg{deals: list, err: err}
	}
}

func (m Model) visibleDeals() []models.Deal {
	return m.selector.Candidates(m.dealFilter)
}

func nextStatus(current string) string {
	for i, s := range dealStatuses {
		if s == current {
			return dealStatuses[(i+1)%len(dealStatuses)]
		}
	}
	return deals.StatusAll
}

func (m Model) handleDealKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	list := m.visibleDeals()

	switch msg.String() {
	case "up", "k":
		if m.dealCursor > 0 {
			m.dealCursor--
		}
	case "down", "j":
		if m.dealCursor < len(list)-1 {
			m.dealCursor++
		}
	case "f":
		m.dealFilter.Status = nextStatus(m.dealFilter.Status)
		m.dealCursor = 0
	case "/":
		return m, m.openForm(editDealQuery, newInput("client, company, or event", m.dealFilter.Query, 100))
	case "s":
		m.dispatch(wizard.Next{})
		m.notice = ""
		return m, m.startMatch()
	case "enter":
		if len(list) == 0 {
			return m, nil
		}
		d := list[clampCursor(m.dealCursor, len(list))]
		m.dispatch(wizard.Merge{Patch: deals.SeedPatch(d)})
		m.dispatch(wizard.Next{})
		m.notice = ""
		return m, m.startMatch()
	}
	return m, nil
}

func (m Model) renderDealView() string {
	var s strings.Builder

	s.WriteString(headerStyle.Render("Select a deal"))
	s.WriteString("\n")
	s.WriteString(mutedStyle.Render(fmt.Sprintf("Status: %s", m.dealFilter.Status)))
	if m.dealFilter.Query != "" {
		s.WriteString(mutedStyle.Render(fmt.Sprintf("  Search: %q", m.dealFilter.Query)))
	}
	s.WriteString("\n\n")

	if m.edit == editDealQuery {
		s.WriteString(m.renderForm("Search: "))
		s.WriteString("\n")
	}

	if !m.dealsLoaded {
		s.WriteString("Loading deals...\n")
		s.WriteString(renderHelp("s: start from scratch", "q: quit"))
		return s.String()
	}

	list := m.visibleDeals()
	if len(list) == 0 {
		s.WriteString(mutedStyle.Render("No open deals. Press s to start from scratch."))
		s.WriteString("\n")
	}

	cursor := clampCursor(m.dealCursor, len(list))
	for i, d := range list {
		line := fmt.Sprintf("%-12s %-7s %-28s %-24s %s",
			d.Status, d.Priority, truncate(d.EventTitle, 28), truncate(d.Company, 24), d.EventDate)
		if i == cursor {
			s.WriteString(selectedStyle.Render("> " + line))
		} else {
			s.WriteString("  " + line)
		}
		s.WriteString("\n")
	}

	s.WriteString(renderHelp("↑/↓: navigate", "enter: select", "f: status", "/: search", "s: start from scratch", "q: quit"))
	return s.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
