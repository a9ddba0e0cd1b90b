// ABOUTME: Tests for the wizard TUI model
// ABOUTME: Drives the four steps with key messages against fake back-office services
package tui

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/harperreed/podium/matching"
	"github.com/harperreed/podium/models"
	"github.com/harperreed/podium/proposal"
	"github.com/harperreed/podium/wizard"
)

type fakeDeals struct {
	deals []models.Deal
	err   error
}

func (f fakeDeals) ListDeals(context.Context) ([]models.Deal, error) {
	return f.deals, f.err
}

// fakeMatcher answers each call with the next response in order.
type fakeMatcher struct {
	mu        sync.Mutex
	responses [][]models.SpeakerCandidate
	calls     int
}

func (f *fakeMatcher) MatchSpeakers(context.Context, string, matching.Criteria) ([]models.SpeakerCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	f.calls++
	return f.responses[i], nil
}

type fakeCreator struct {
	err    error
	status string
	key    string
}

func (f *fakeCreator) CreateProposal(_ context.Context, p proposal.Payload, key string) (*models.Proposal, error) {
	f.status = p.Status
	f.key = key
	if f.err != nil {
		return nil, f.err
	}
	return &models.Proposal{ID: "p1", Status: p.Status}, nil
}

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func testDeals() []models.Deal {
	return []models.Deal{
		{ID: "d1", ClientName: "Ada", Company: "Acme", EventTitle: "Summit", EventDate: "2026-06-01",
			AttendeeCount: 50, DealValue: models.FromMajor(20000), Status: models.DealStatusQualified, Priority: models.PriorityHigh},
		{ID: "d2", ClientName: "Bob", Company: "Gone", EventTitle: "Lost Cause", Status: models.DealStatusLost},
	}
}

func testCandidates() []models.SpeakerCandidate {
	return []models.SpeakerCandidate{
		{ID: "s1", Name: "Grace Hopper", SpeakingFeeRange: "$5,000 - $10,000", MatchScore: 92},
		{ID: "s2", Name: "Alan Kay", SpeakingFeeRange: "$25,000+", MatchScore: 80},
	}
}

func newTestModel(source fakeDeals, creator *fakeCreator, responses ...[]models.SpeakerCandidate) Model {
	if len(responses) == 0 {
		responses = [][]models.SpeakerCandidate{testCandidates()}
	}
	logger := quietLogger()
	return NewModel(context.Background(), Deps{
		Workflow:  wizard.NewWorkflow(nil, logger),
		Deals:     source,
		Matcher:   matching.NewMatcher(&fakeMatcher{responses: responses}, logger),
		Finalizer: proposal.NewFinalizer(creator, logger, proposal.WithClock(func() time.Time { return testNow })),
		Logger:    logger,
		Now:       func() time.Time { return testNow },
	})
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return nm, cmd
}

// run delivers the message produced by cmd.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	m, _ = update(t, m, cmd())
	return m
}

// toSpeakers loads deals and selects the first one.
func toSpeakers(t *testing.T, m Model) Model {
	t.Helper()
	m = run(t, m, m.Init())
	m, cmd := update(t, m, key("enter"))
	return run(t, m, cmd)
}

// toServices selects the first visible speaker and continues.
func toServices(t *testing.T, m Model) Model {
	t.Helper()
	m = toSpeakers(t, m)
	m, _ = update(t, m, key(" "))
	m, _ = update(t, m, key("enter"))
	return m
}

func TestDealStepListsOnlyEligibleDeals(t *testing.T) {
	m := newTestModel(fakeDeals{deals: testDeals()}, &fakeCreator{})
	m = run(t, m, m.Init())

	list := m.visibleDeals()
	if len(list) != 1 || list[0].ID != "d1" {
		t.Fatalf("visible deals = %+v, want only d1", list)
	}
	if !strings.Contains(m.View(), "Summit") {
		t.Error("deal view should list the event title")
	}
	if strings.Contains(m.View(), "Lost Cause") {
		t.Error("lost deals should not be offered")
	}
}

func TestDealFetchFailureShowsEmptyList(t *testing.T) {
	m := newTestModel(fakeDeals{err: errors.New("boom")}, &fakeCreator{})
	m = run(t, m, m.Init())

	if m.notice != "" {
		t.Errorf("notice = %q, want silent failure", m.notice)
	}
	if !strings.Contains(m.View(), "No open deals") {
		t.Error("view should offer starting from scratch")
	}

	m, cmd := update(t, m, key("s"))
	if m.state().Step != wizard.StepSpeaker {
		t.Errorf("step = %s, want speakers", m.state().Step)
	}
	if cmd == nil {
		t.Error("starting from scratch should request matches")
	}
	if m.state().Data.DealID != "" {
		t.Error("starting from scratch should not link a deal")
	}
}

func TestSelectingDealSeedsAnswers(t *testing.T) {
	m := newTestModel(fakeDeals{deals: testDeals()}, &fakeCreator{})
	m = toSpeakers(t, m)

	data := m.state().Data
	if m.state().Step != wizard.StepSpeaker {
		t.Fatalf("step = %s, want speakers", m.state().Step)
	}
	if data.DealID != "d1" || data.ClientCompany != "Acme" || data.Budget != models.FromMajor(20000) {
		t.Errorf("answers not seeded from deal: %+v", data)
	}
	if data.EventDate == nil || data.EventDate.Format(time.DateOnly) != "2026-06-01" {
		t.Errorf("event date = %v", data.EventDate)
	}
	if m.matching {
		t.Error("matching flag should clear once results arrive")
	}
}

func TestSpeakerBudgetFilter(t *testing.T) {
	m := newTestModel(fakeDeals{deals: testDeals()}, &fakeCreator{})
	m = toSpeakers(t, m)

	if got := len(m.visibleSpeakers()); got != 1 {
		t.Fatalf("visible speakers = %d, want 1 within budget", got)
	}
	if !strings.Contains(m.View(), "1 speaker(s) hidden") {
		t.Error("view should report hidden speakers")
	}

	m, _ = update(t, m, key("b"))
	if got := len(m.visibleSpeakers()); got != 2 {
		t.Errorf("visible speakers = %d, want 2 with budget filter off", got)
	}
}

func TestSpeakerStepRequiresSelection(t *testing.T) {
	m := newTestModel(fakeDeals{deals: testDeals()}, &fakeCreator{})
	m = toSpeakers(t, m)

	m, _ = update(t, m, key("enter"))
	if m.state().Step != wizard.StepSpeaker {
		t.Errorf("step = %s, want to stay on speakers", m.state().Step)
	}
	if m.notice != wizard.ErrNoSpeakers.Error() {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestStaleMatchResponseIsDropped(t *testing.T) {
	first := []models.SpeakerCandidate{{ID: "old", Name: "Old Result"}}
	second := []models.SpeakerCandidate{{ID: "new", Name: "New Result"}}
	m := newTestModel(fakeDeals{}, &fakeCreator{}, first, second)
	m, _ = update(t, m, key("s"))

	// Two requests in flight; the older one answers last.
	cmd1 := m.startMatch()
	cmd2 := m.startMatch()
	msg1, msg2 := cmd1(), cmd2()

	m, _ = update(t, m, msg2)
	m, _ = update(t, m, msg1)

	got := m.matcher.Candidates()
	if len(got) != 1 || got[0].ID != "new" {
		t.Errorf("candidates = %+v, want the newest response", got)
	}
}

func TestServicesStepDerivesPackage(t *testing.T) {
	m := newTestModel(fakeDeals{deals: testDeals()}, &fakeCreator{})
	m = toServices(t, m)

	if m.state().Step != wizard.StepServices {
		t.Fatalf("step = %s, want services", m.state().Step)
	}
	if len(m.pkg) == 0 || !m.pkg[0].Locked {
		t.Fatalf("package = %+v, want locked base item first", m.pkg)
	}
	if m.pkg[0].Price != models.FromMajor(5000) {
		t.Errorf("base price = %s, want speaker fee", m.pkg[0].Price)
	}

	before := len(m.pkg)
	m, _ = update(t, m, key("d"))
	if len(m.pkg) != before {
		t.Error("locked item should not be removed")
	}
	if !strings.Contains(m.notice, "cannot be removed") {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestServicesAddItem(t *testing.T) {
	m := newTestModel(fakeDeals{deals: testDeals()}, &fakeCreator{})
	m = toServices(t, m)
	total := m.pkg.Total()

	m, _ = update(t, m, key("a"))
	if m.edit != editService {
		t.Fatal("add should open the service form")
	}
	m.inputs[0].SetValue("Workshop")
	m.inputs[1].SetValue("Half-day hands-on session")
	m.inputs[2].SetValue("$1,500")
	m, _ = update(t, m, key("enter"))

	last := m.pkg[len(m.pkg)-1]
	if last.Name != "Workshop" || last.Price != models.FromMajor(1500) || last.Included {
		t.Errorf("added item = %+v", last)
	}
	if m.pkg.Total() != total {
		t.Error("new items start excluded from the total")
	}
	if m.edit != editNone {
		t.Error("form should close after saving")
	}
}

func TestServicesTermsRejectBadValidDays(t *testing.T) {
	m := newTestModel(fakeDeals{deals: testDeals()}, &fakeCreator{})
	m = toServices(t, m)

	m, _ = update(t, m, key("t"))
	m.inputs[1].SetValue("0")
	m, _ = update(t, m, key("enter"))

	if m.edit != editTerms {
		t.Error("form should stay open on invalid input")
	}
	if m.validDays != models.DefaultValidDays {
		t.Errorf("valid days = %d, want unchanged", m.validDays)
	}
}

func TestReviewSubmitsOnce(t *testing.T) {
	creator := &fakeCreator{}
	m := newTestModel(fakeDeals{deals: testDeals()}, creator)
	m = toServices(t, m)
	m, _ = update(t, m, key("enter"))

	if m.state().Step != wizard.StepReview {
		t.Fatalf("step = %s, want review", m.state().Step)
	}
	if m.state().Data.TotalInvestment != models.FromMajor(5000) {
		t.Errorf("total = %s", m.state().Data.TotalInvestment)
	}
	view := m.View()
	for _, want := range []string{"Summit - Proposal", "Deposit", "$2,500.00", "Mar 31, 2026"} {
		if !strings.Contains(view, want) {
			t.Errorf("review view missing %q", want)
		}
	}

	m, cmd := update(t, m, key("s"))
	if !m.submitting {
		t.Fatal("expected submission in progress")
	}
	m, again := update(t, m, key("d"))
	if again != nil {
		t.Error("second submit while in flight should be ignored")
	}

	m = run(t, m, cmd)
	if m.created == nil || m.created.ID != "p1" {
		t.Fatalf("created = %+v", m.created)
	}
	if creator.status != models.ProposalStatusSent {
		t.Errorf("status = %q, want sent", creator.status)
	}
	if !strings.HasPrefix(creator.key, m.workflow.ID()+":sent:") {
		t.Errorf("idempotency key = %q", creator.key)
	}
	if !strings.Contains(m.View(), "Proposal p1 saved") {
		t.Error("view should confirm the created proposal")
	}
}

func TestReviewSubmitFailureKeepsAnswers(t *testing.T) {
	creator := &fakeCreator{err: errors.New("503")}
	m := newTestModel(fakeDeals{deals: testDeals()}, creator)
	m = toServices(t, m)
	m, _ = update(t, m, key("enter"))
	data := m.state().Data

	m, cmd := update(t, m, key("d"))
	m = run(t, m, cmd)

	if m.created != nil {
		t.Error("no proposal should be recorded")
	}
	if m.submitting {
		t.Error("submitting flag should clear after failure")
	}
	if !strings.Contains(m.notice, "Failed to save proposal") {
		t.Errorf("notice = %q", m.notice)
	}
	if m.state().Step != wizard.StepReview || m.state().Data.TotalInvestment != data.TotalInvestment {
		t.Error("answers should be kept for a retry")
	}
}

func TestReviewIgnoresResetAndQuitWhileSaving(t *testing.T) {
	creator := &fakeCreator{}
	m := newTestModel(fakeDeals{deals: testDeals()}, creator)
	m = toServices(t, m)
	m, _ = update(t, m, key("enter"))
	session := m.workflow.ID()

	m, cmd := update(t, m, key("s"))
	m, quit := update(t, m, key("q"))
	if quit != nil {
		t.Error("quit should wait for the pending submission")
	}
	m, _ = update(t, m, key("ctrl+r"))
	if m.state().ResetPending {
		t.Fatal("reset should not be offered while saving")
	}
	m, _ = update(t, m, key("y"))
	if m.state().Step != wizard.StepReview || m.workflow.ID() != session {
		t.Fatalf("answers changed while saving: step=%s", m.state().Step)
	}

	m = run(t, m, cmd)
	if m.created == nil || m.created.ID != "p1" {
		t.Fatalf("created = %+v", m.created)
	}
}

func TestSubmitResultForDiscardedSessionIsDropped(t *testing.T) {
	m := newTestModel(fakeDeals{deals: testDeals()}, &fakeCreator{})
	m = toServices(t, m)
	m, _ = update(t, m, key("enter"))
	old := m.workflow.ID()

	m, _ = update(t, m, key("ctrl+r"))
	m, _ = update(t, m, key("y"))
	if m.workflow.ID() == old {
		t.Fatal("reset should start a new session")
	}

	m, _ = update(t, m, submitResultMsg{session: old, status: models.ProposalStatusSent, proposal: &models.Proposal{ID: "p1"}})
	if m.created != nil {
		t.Errorf("late result leaked into the new session: %+v", m.created)
	}
	if m.state().Step != wizard.StepDeal {
		t.Errorf("step = %s, want deal", m.state().Step)
	}
}

func TestResetDuringMatchClearsSpinner(t *testing.T) {
	m := newTestModel(fakeDeals{deals: testDeals()}, &fakeCreator{})
	m = run(t, m, m.Init())
	m, matchCmd := update(t, m, key("enter"))
	if !m.matching {
		t.Fatal("expected a match in flight")
	}

	m, _ = update(t, m, key("ctrl+r"))
	m, _ = update(t, m, key("y"))
	if m.matching {
		t.Error("reset should clear the pending match")
	}
	if m.editIndex != -1 {
		t.Errorf("editIndex = %d, want -1", m.editIndex)
	}

	m = run(t, m, matchCmd)
	if m.matching || len(m.matcher.Candidates()) != 0 {
		t.Error("match for the discarded answers should be dropped")
	}
}

func TestResetNeedsConfirmation(t *testing.T) {
	m := newTestModel(fakeDeals{deals: testDeals()}, &fakeCreator{})
	m = toSpeakers(t, m)

	m, _ = update(t, m, key("ctrl+r"))
	if !strings.Contains(m.View(), "Start over?") {
		t.Fatal("view should ask for confirmation")
	}
	m, _ = update(t, m, key("n"))
	if m.state().Step != wizard.StepSpeaker || m.state().Data.DealID != "d1" {
		t.Error("cancelled reset should keep the answers")
	}

	m, _ = update(t, m, key("ctrl+r"))
	m, cmd := update(t, m, key("y"))
	if m.state().Step != wizard.StepDeal || m.state().Data.DealID != "" {
		t.Errorf("state after reset = %+v", m.state())
	}
	if cmd == nil {
		t.Error("reset should reload deals")
	}
}

func TestBackFromSpeakers(t *testing.T) {
	m := newTestModel(fakeDeals{deals: testDeals()}, &fakeCreator{})
	m = toSpeakers(t, m)

	m, _ = update(t, m, key("esc"))
	if m.state().Step != wizard.StepDeal {
		t.Errorf("step = %s, want deal", m.state().Step)
	}
	if m.state().Data.DealID != "d1" {
		t.Error("going back should keep the answers")
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in      string
		want    models.Cents
		wantErr bool
	}{
		{"$1,500.50", 150050, false},
		{"200", 20000, false},
		{"", 0, false},
		{"-5", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parsePrice(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parsePrice(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parsePrice(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("Grace Hopper", 5); got != "Grac…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("Ada", 5); got != "Ada" {
		t.Errorf("truncate = %q", got)
	}
}
