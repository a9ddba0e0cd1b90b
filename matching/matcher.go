// ABOUTME: Speaker matching step: ranked candidates, local filters, and selection
// ABOUTME: Discards stale match responses using monotonically increasing tickets
package matching

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/harperreed/podium/models"
	"github.com/harperreed/podium/wizard"
)

// ErrStale is returned for a response superseded by a newer request.
var ErrStale = errors.New("match response superseded by a newer request")

// Criteria is what the matching service ranks speakers against.
type Criteria struct {
	EventType     string       `json:"event_type"`
	EventLocation string       `json:"event_location"`
	Budget        models.Cents `json:"budget"`
	AttendeeCount int          `json:"attendee_count"`
	Topics        []string     `json:"topics"`
	SessionFormat string       `json:"session_format"`
}

// CriteriaFrom builds match criteria from the accumulated answers.
func CriteriaFrom(data models.WizardData) Criteria {
	topics := []string{}
	if theme := strings.TrimSpace(data.MainTheme); theme != "" {
		topics = append(topics, theme)
	}
	return Criteria{
		EventType:     data.EventType,
		EventLocation: data.EventLocation,
		Budget:        data.Budget,
		AttendeeCount: data.AttendeeCount,
		Topics:        topics,
		SessionFormat: data.SessionFormat,
	}
}

// Service is the external matching service.
type Service interface {
	MatchSpeakers(ctx context.Context, dealID string, criteria Criteria) ([]models.SpeakerCandidate, error)
}

// Ticket identifies one issued match request.
type Ticket uint64

// Matcher tracks the latest candidate list for the speaker step.
type Matcher struct {
	service Service
	logger  *log.Logger

	mu         sync.Mutex
	issued     Ticket
	candidates []models.SpeakerCandidate
}

func NewMatcher(service Service, logger *log.Logger) *Matcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Matcher{service: service, logger: logger}
}

// Issue reserves a ticket for a new request. Only the most recently issued
// ticket can resolve.
func (m *Matcher) Issue() Ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issued++
	return m.issued
}

// Resolve stores candidates if t is still the latest ticket.
func (m *Matcher) Resolve(t Ticket, candidates []models.SpeakerCandidate) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t != m.issued {
		return false
	}
	m.candidates = slices.Clone(candidates)
	return true
}

// Latest reports whether t is the most recently issued ticket.
func (m *Matcher) Latest(t Ticket) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return t == m.issued
}

// Fetch performs the request for ticket t without storing the result.
// Callers that run requests asynchronously pair it with Resolve.
func (m *Matcher) Fetch(ctx context.Context, t Ticket, dealID string, criteria Criteria) ([]models.SpeakerCandidate, error) {
	m.logger.Debug("matching speakers", "ticket", t, "deal", dealID, "event_type", criteria.EventType)
	candidates, err := m.service.MatchSpeakers(ctx, dealID, criteria)
	if err != nil {
		m.logger.Error("speaker match failed", "ticket", t, "err", err)
		return nil, fmt.Errorf("failed to match speakers: %w", err)
	}
	return candidates, nil
}

// Search issues one match request and keeps the result unless a newer
// search was issued meanwhile. On failure the previous candidates remain.
func (m *Matcher) Search(ctx context.Context, dealID string, criteria Criteria) ([]models.SpeakerCandidate, error) {
	t := m.Issue()
	candidates, err := m.Fetch(ctx, t, dealID, criteria)
	if err != nil {
		return nil, err
	}
	if !m.Resolve(t, candidates) {
		m.logger.Debug("discarding stale match response", "ticket", t)
		return nil, ErrStale
	}
	return candidates, nil
}

// Candidates returns the latest resolved candidate list.
func (m *Matcher) Candidates() []models.SpeakerCandidate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.candidates)
}

// View holds the local filters of the speaker step.
type View struct {
	Query        string
	WithinBudget bool
}

// DefaultView has the budget filter on.
func DefaultView() View {
	return View{WithinBudget: true}
}

// Visible applies the local filters to the latest candidates.
func (m *Matcher) Visible(v View, data models.WizardData) []models.SpeakerCandidate {
	return Filter(m.Candidates(), v, data)
}

// Filter applies the text and budget filters to candidates.
func Filter(candidates []models.SpeakerCandidate, v View, data models.WizardData) []models.SpeakerCandidate {
	query := strings.ToLower(strings.TrimSpace(v.Query))

	var out []models.SpeakerCandidate
	for _, c := range candidates {
		if query != "" && !matchesQuery(c, query) {
			continue
		}
		if v.WithinBudget && !WithinBudget(c, data) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func matchesQuery(c models.SpeakerCandidate, query string) bool {
	if strings.Contains(strings.ToLower(c.Name), query) || strings.Contains(strings.ToLower(c.Title), query) {
		return true
	}
	for _, topic := range c.Topics {
		if strings.Contains(strings.ToLower(topic), query) {
			return true
		}
	}
	return false
}

// WithinBudget reports whether the lower bound of a candidate's fee range
// fits what is left of the budget after the other selected speakers.
// Candidates without a parseable fee, or answers without a budget, pass.
func WithinBudget(c models.SpeakerCandidate, data models.WizardData) bool {
	if data.Budget <= 0 {
		return true
	}
	fee, ok := parseFee(c.SpeakingFeeRange)
	if !ok {
		return true
	}
	remaining := data.Budget
	for _, s := range data.SelectedSpeakers {
		if s.ID != c.ID {
			remaining -= s.Fee
		}
	}
	return fee <= remaining
}

var digitRun = regexp.MustCompile(`\d+`)

// ParseFee derives a fee from a free-text range: the first run of digits,
// read as thousands. "$5,000 - $10,000" yields 5000.00; no digits yields 0.
func ParseFee(feeRange string) models.Cents {
	fee, _ := parseFee(feeRange)
	return fee
}

func parseFee(feeRange string) (models.Cents, bool) {
	run := digitRun.FindString(feeRange)
	if run == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(run, 10, 64)
	// Thousands times minor units must still fit in Cents.
	if err != nil || n > math.MaxInt64/100_000 {
		return 0, false
	}
	return models.FromMajor(n * 1000), true
}

// Project converts a candidate into the record kept in the answers.
func Project(c models.SpeakerCandidate) models.SelectedSpeaker {
	return models.SelectedSpeaker{
		ID:           c.ID,
		Name:         c.Name,
		Slug:         c.Slug,
		Title:        c.Title,
		Bio:          c.Summary(),
		Fee:          ParseFee(c.SpeakingFeeRange),
		ImageURL:     c.HeadshotURL,
		MatchScore:   c.MatchScore,
		MatchReasons: slices.Clone(c.MatchReasons),
	}
}

// Toggle adds c to selected, or removes it if already there.
// The input slice is not modified.
func Toggle(selected []models.SelectedSpeaker, c models.SpeakerCandidate) []models.SelectedSpeaker {
	out := make([]models.SelectedSpeaker, 0, len(selected)+1)
	removed := false
	for _, s := range selected {
		if s.ID == c.ID {
			removed = true
			continue
		}
		out = append(out, s)
	}
	if !removed {
		out = append(out, Project(c))
	}
	return out
}

// IsSelected reports whether id is among the selected speakers.
func IsSelected(selected []models.SelectedSpeaker, id string) bool {
	return slices.ContainsFunc(selected, func(s models.SelectedSpeaker) bool { return s.ID == id })
}

// CanContinue reports whether the speaker step may be left.
func CanContinue(selected []models.SelectedSpeaker) bool {
	return len(selected) > 0
}

// Continue returns the patch recording the final selection.
func Continue(selected []models.SelectedSpeaker) (wizard.Patch, error) {
	if !CanContinue(selected) {
		return wizard.Patch{}, wizard.ErrNoSpeakers
	}
	return wizard.Patch{SelectedSpeakers: wizard.Some(slices.Clone(selected))}, nil
}
