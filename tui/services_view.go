// ABOUTME: Service package step of the wizard
// ABOUTME: Edits the derived line items and payment terms before review
package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/podium/models"
	"github.com/harperreed/podium/pricing"
	"github.com/harperreed/podium/wizard"
)

// loadPackage starts the services step from saved services or the defaults.
func (m *Model) loadPackage() {
	data := m.state().Data
	m.pkg = pricing.Ensure(data)
	m.terms = data.PaymentTerms
	m.validDays = data.ValidDays
	m.serviceCursor = 0
}

func (m Model) handleServiceKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.back()
		return m, m.startMatch()
	case "up", "k":
		if m.serviceCursor > 0 {
			m.serviceCursor--
		}
	case "down", "j":
		if m.serviceCursor < len(m.pkg)-1 {
			m.serviceCursor++
		}
	case " ", "x":
		m.pkg = m.applyPackage(m.pkg.Toggle(m.serviceCursor))
	case "d":
		m.pkg = m.applyPackage(m.pkg.Remove(m.serviceCursor))
		m.serviceCursor = clampCursor(m.serviceCursor, len(m.pkg))
	case "a":
		m.editIndex = -1
		return m, m.openForm(editService,
			newInput("Service name", "", 100),
			newInput("Description", "", 200),
			newInput("0.00", "", 20))
	case "e":
		if len(m.pkg) == 0 {
			return m, nil
		}
		item := m.pkg[clampCursor(m.serviceCursor, len(m.pkg))]
		m.editIndex = m.serviceCursor
		return m, m.openForm(editService,
			newInput("Service name", item.Name, 100),
			newInput("Description", item.Description, 200),
			newInput("0.00", item.Price.Decimal().StringFixed(2), 20))
	case "t":
		return m, m.openForm(editTerms,
			newInput("Payment terms", m.terms, 300),
			newInput("30", strconv.Itoa(m.validDays), 5))
	case "enter":
		patch, err := pricing.Continue(m.pkg, m.terms, m.validDays)
		if err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.dispatch(wizard.Merge{Patch: patch})
		m.advance()
	}
	return m, nil
}

// applyPackage keeps the previous package when an operation is refused.
func (m *Model) applyPackage(p pricing.Package, err error) pricing.Package {
	if err != nil {
		if errors.Is(err, pricing.ErrLocked) {
			m.notice = "Required services cannot be removed"
		} else {
			m.notice = err.Error()
		}
		return m.pkg
	}
	m.notice = ""
	return p
}

func parsePrice(s string) (models.Cents, error) {
	s = strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, nil
	}
	price, err := models.ParseCents(s)
	if err != nil {
		return 0, err
	}
	if price < 0 {
		return 0, fmt.Errorf("price cannot be negative")
	}
	return price, nil
}

func (m Model) saveServiceForm() (tea.Model, tea.Cmd) {
	name := strings.TrimSpace(m.inputs[0].Value())
	desc := strings.TrimSpace(m.inputs[1].Value())
	if name == "" {
		m.notice = "Service name is required"
		return m, nil
	}
	price, err := parsePrice(m.inputs[2].Value())
	if err != nil {
		m.notice = err.Error()
		return m, nil
	}

	if m.editIndex < 0 {
		m.pkg = m.pkg.Add(name, desc)
		m.pkg = m.applyPackage(m.pkg.Edit(len(m.pkg)-1, name, desc, price))
		m.serviceCursor = len(m.pkg) - 1
	} else {
		m.pkg = m.applyPackage(m.pkg.Edit(m.editIndex, name, desc, price))
	}
	m.editIndex = -1
	m.closeForm()
	return m, nil
}

func (m Model) saveTermsForm() (tea.Model, tea.Cmd) {
	terms := strings.TrimSpace(m.inputs[0].Value())
	days, err := strconv.Atoi(strings.TrimSpace(m.inputs[1].Value()))
	if err != nil || days <= 0 {
		m.notice = "Valid days must be a positive number"
		return m, nil
	}
	m.terms = terms
	m.validDays = days
	m.notice = ""
	m.closeForm()
	return m, nil
}

func (m Model) renderServicesView() string {
	var s strings.Builder
	data := m.state().Data

	s.WriteString(headerStyle.Render("Services"))
	s.WriteString("\n")
	s.WriteString(mutedStyle.Render(fmt.Sprintf("%d attendees, %d speaker(s)", data.AttendeeCount, len(data.SelectedSpeakers))))
	s.WriteString("\n\n")

	switch m.edit {
	case editService:
		title := "Edit service"
		if m.editIndex < 0 {
			title = "Add service"
		}
		s.WriteString(labelStyle.Render(title))
		s.WriteString("\n")
		s.WriteString(m.renderForm("Name: ", "Description: ", "Price: "))
		s.WriteString(renderHelp("tab: next field", "enter: save", "esc: cancel"))
		return s.String()
	case editTerms:
		s.WriteString(labelStyle.Render("Payment terms"))
		s.WriteString("\n")
		s.WriteString(m.renderForm("Terms: ", "Valid days: "))
		s.WriteString(renderHelp("tab: next field", "enter: save", "esc: cancel"))
		return s.String()
	}

	cursor := clampCursor(m.serviceCursor, len(m.pkg))
	for i, item := range m.pkg {
		mark := "[ ]"
		if item.Included {
			mark = okStyle.Render("[✓]")
		}
		name := item.Name
		if item.Locked {
			name += " *"
		}
		line := fmt.Sprintf("%s %-36s %14s", mark, truncate(name, 36), item.Price)
		if i == cursor {
			s.WriteString(selectedStyle.Render("> " + line))
		} else {
			s.WriteString("  " + line)
		}
		s.WriteString("\n")
		if i == cursor && item.Description != "" {
			s.WriteString(mutedStyle.Render("      " + item.Description))
			s.WriteString("\n")
		}
	}

	s.WriteString("\n")
	s.WriteString(labelStyle.Render("Total: "))
	s.WriteString(m.pkg.Total().String())
	s.WriteString("\n")
	s.WriteString(labelStyle.Render("Terms: "))
	s.WriteString(m.terms)
	s.WriteString("\n")
	s.WriteString(labelStyle.Render("Valid for: "))
	s.WriteString(fmt.Sprintf("%d days", m.validDays))
	s.WriteString("\n")
	s.WriteString(mutedStyle.Render("* required"))
	s.WriteString("\n")

	s.WriteString(renderHelp("space: include", "e: edit", "a: add", "d: remove", "t: terms", "enter: review", "esc: back"))
	return s.String()
}
