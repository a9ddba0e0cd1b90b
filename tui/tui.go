// ABOUTME: Terminal User Interface for the proposal wizard using bubbletea
// ABOUTME: Four steps (deal, speakers, services, review); network calls run as commands
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/harperreed/podium/deals"
	"github.com/harperreed/podium/matching"
	"github.com/harperreed/podium/models"
	"github.com/harperreed/podium/pricing"
	"github.com/harperreed/podium/proposal"
	"github.com/harperreed/podium/wizard"
)

// Deps are the collaborators the wizard drives.
type Deps struct {
	Workflow  *wizard.Workflow
	Deals     deals.Source
	Matcher   *matching.Matcher
	Finalizer *proposal.Finalizer
	Logger    *log.Logger
	Now       func() time.Time
}

// editMode is the text form currently capturing keys, if any.
type editMode int

const (
	editNone editMode = iota
	editDealQuery
	editSpeakerQuery
	editService
	editTerms
)

// Model is the main bubbletea model
type Model struct {
	ctx       context.Context
	workflow  *wizard.Workflow
	source    deals.Source
	selector  *deals.Selector
	matcher   *matching.Matcher
	finalizer *proposal.Finalizer
	logger    *log.Logger
	now       func() time.Time

	// Deal step
	dealsLoaded bool
	dealFilter  deals.Filter
	dealCursor  int

	// Speaker step
	view          matching.View
	matching      bool
	speakerCursor int

	// Services step
	pkg           pricing.Package
	terms         string
	validDays     int
	serviceCursor int
	editIndex     int

	// Review step
	submitting bool
	created    *models.Proposal

	edit   editMode
	inputs []textinput.Model
	focus  int

	notice string
	width  int
	height int
}

// NewModel creates the wizard model around an existing workflow.
func NewModel(ctx context.Context, deps Deps) Model {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	m := Model{
		ctx:        ctx,
		workflow:   deps.Workflow,
		source:     deps.Deals,
		selector:   deals.NewSelector(deps.Deals, logger),
		matcher:    deps.Matcher,
		finalizer:  deps.Finalizer,
		logger:     logger,
		now:        now,
		dealFilter: deals.Filter{Status: deals.StatusAll},
		view:       matching.DefaultView(),
		editIndex:  -1,
		width:      80,
		height:     24,
	}
	switch m.state().Step {
	case wizard.StepSpeaker:
		m.matching = true
	case wizard.StepServices, wizard.StepReview:
		m.loadPackage()
	}
	return m
}

// Run starts the full-screen wizard and blocks until it exits.
func Run(ctx context.Context, deps Deps) (*models.Proposal, error) {
	p := tea.NewProgram(NewModel(ctx, deps), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}
	if m, ok := final.(Model); ok {
		return m.created, nil
	}
	return nil, nil
}

// Messages delivered by commands.
type (
	dealsLoadedMsg struct {
		deals []models.Deal
		err   error
	}

	matchResultMsg struct {
		ticket     matching.Ticket
		candidates []models.SpeakerCandidate
		err        error
	}

	submitResultMsg struct {
		session  string
		status   string
		proposal *models.Proposal
		err      error
	}
)

func (m Model) Init() tea.Cmd {
	switch m.state().Step {
	case wizard.StepDeal:
		return m.loadDeals()
	case wizard.StepSpeaker:
		return m.startMatch()
	}
	return nil
}

func (m Model) state() wizard.State {
	return m.workflow.State()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dealsLoadedMsg:
		m.dealsLoaded = true
		if msg.err != nil {
			// The deal list degrades to empty; starting from scratch still works.
			m.logger.Error("failed to fetch deals", "err", msg.err)
			m.selector.SetPool(nil)
			return m, nil
		}
		m.selector.SetPool(msg.deals)
		m.dealCursor = 0
		return m, nil

	case matchResultMsg:
		return m.handleMatchResult(msg)

	case submitResultMsg:
		return m.handleSubmitResult(msg)

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.created != nil {
		return m, tea.Quit
	}

	if m.state().ResetPending {
		switch msg.String() {
		case "y", "Y":
			m.dispatch(wizard.ConfirmReset{})
			m = m.resetLocal()
			m.notice = "Started over"
			return m, m.loadDeals()
		case "n", "N", "esc":
			m.dispatch(wizard.CancelReset{})
		}
		return m, nil
	}

	if m.edit != editNone {
		return m.handleEditKeys(msg)
	}

	switch msg.String() {
	case "q", "ctrl+r":
		if m.submitting {
			m.notice = "Wait for the proposal to finish saving"
			return m, nil
		}
		if msg.String() == "q" {
			return m, tea.Quit
		}
		m.dispatch(wizard.RequestReset{})
		return m, nil
	}

	switch m.state().Step {
	case wizard.StepDeal:
		return m.handleDealKeys(msg)
	case wizard.StepSpeaker:
		return m.handleSpeakerKeys(msg)
	case wizard.StepServices:
		return m.handleServiceKeys(msg)
	case wizard.StepReview:
		return m.handleReviewKeys(msg)
	}
	return m, nil
}

func (m *Model) dispatch(action wizard.Action) wizard.State {
	return m.workflow.Dispatch(m.ctx, action)
}

// advance leaves the current step, surfacing the gate error as a notice.
func (m *Model) advance() bool {
	if _, err := m.workflow.Advance(m.ctx); err != nil {
		m.notice = err.Error()
		return false
	}
	m.notice = ""
	return true
}

func (m *Model) back() {
	m.dispatch(wizard.Back{})
	m.notice = ""
}

func (m Model) resetLocal() Model {
	m.dealsLoaded = false
	m.dealFilter = deals.Filter{Status: deals.StatusAll}
	m.dealCursor = 0
	m.view = matching.DefaultView()
	m.speakerCursor = 0
	m.pkg = nil
	m.serviceCursor = 0
	m.editIndex = -1
	m.submitting = false
	m.edit = editNone
	// A match still in flight belongs to the discarded answers.
	m.matcher.Resolve(m.matcher.Issue(), nil)
	m.matching = false
	return m
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("PODIUM PROPOSAL WIZARD"))
	s.WriteString("\n")
	s.WriteString(m.renderSteps())
	s.WriteString("\n\n")

	if m.state().ResetPending {
		s.WriteString(warnStyle.Render("Start over? All answers will be discarded. (y/n)"))
		s.WriteString("\n")
		return s.String()
	}

	switch m.state().Step {
	case wizard.StepDeal:
		s.WriteString(m.renderDealView())
	case wizard.StepSpeaker:
		s.WriteString(m.renderSpeakerView())
	case wizard.StepServices:
		s.WriteString(m.renderServicesView())
	case wizard.StepReview:
		s.WriteString(m.renderReviewView())
	}

	if m.notice != "" {
		s.WriteString("\n")
		s.WriteString(noticeStyle.Render(m.notice))
	}
	s.WriteString("\n")
	return s.String()
}

func (m Model) renderSteps() string {
	var rendered []string
	for _, step := range wizard.Steps() {
		label := fmt.Sprintf("%d. %s", int(step)+1, step)
		if step == m.state().Step {
			rendered = append(rendered, tabActiveStyle.Render(label))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func renderHelp(items ...string) string {
	return helpStyle.Render(strings.Join(items, " • "))
}

// newInput returns a text input with the given placeholder and value.
func newInput(placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.SetValue(value)
	return in
}

func (m *Model) openForm(mode editMode, inputs ...textinput.Model) tea.Cmd {
	m.edit = mode
	m.inputs = inputs
	m.focus = 0
	return m.updateFormFocus()
}

func (m *Model) updateFormFocus() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.inputs {
		if i == m.focus {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) closeForm() {
	m.edit = editNone
	m.inputs = nil
	m.focus = 0
}

func (m Model) renderForm(labels ...string) string {
	var s strings.Builder
	for i, in := range m.inputs {
		if i == m.focus {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		if i < len(labels) {
			s.WriteString(labelStyle.Render(labels[i]))
		}
		s.WriteString(in.View())
		s.WriteString("\n")
	}
	return s.String()
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeForm()
		return m, nil
	case "tab", "down":
		if len(m.inputs) > 1 {
			m.focus = (m.focus + 1) % len(m.inputs)
			return m, m.updateFormFocus()
		}
	case "shift+tab", "up":
		if len(m.inputs) > 1 {
			m.focus = (m.focus + len(m.inputs) - 1) % len(m.inputs)
			return m, m.updateFormFocus()
		}
	case "enter":
		return m.submitForm()
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)

	// Search boxes filter as you type.
	switch m.edit {
	case editDealQuery:
		m.dealFilter.Query = m.inputs[0].Value()
		m.dealCursor = 0
	case editSpeakerQuery:
		m.view.Query = m.inputs[0].Value()
		m.speakerCursor = 0
	}
	return m, cmd
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	switch m.edit {
	case editDealQuery, editSpeakerQuery:
		m.closeForm()
	case editService:
		return m.saveServiceForm()
	case editTerms:
		return m.saveTermsForm()
	}
	return m, nil
}

func clampCursor(cursor, n int) int {
	if cursor >= n {
		cursor = n - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("Jan 2, 2006")
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Underline(true)

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Width(16)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)
)
