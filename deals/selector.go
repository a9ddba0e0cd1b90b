// ABOUTME: Deal selection step: candidate pool, filtering, ordering, and seeding
// ABOUTME: Turns open sales opportunities into the first answers of the wizard
package deals

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/podium/models"
	"github.com/harperreed/podium/wizard"
)

// StatusAll disables the status filter within the candidate pool.
const StatusAll = "all"

// Source lists every deal known to the back office.
type Source interface {
	ListDeals(ctx context.Context) ([]models.Deal, error)
}

var statusRank = map[string]int{
	models.DealStatusQualified:   0,
	models.DealStatusProposal:    1,
	models.DealStatusNegotiation: 2,
}

var priorityRank = map[string]int{
	models.PriorityUrgent: 0,
	models.PriorityHigh:   1,
	models.PriorityMedium: 2,
	models.PriorityLow:    3,
}

// Filter narrows the candidate pool.
type Filter struct {
	Status string
	Query  string
}

// Selector holds the candidate pool for the deal step.
type Selector struct {
	source Source
	logger *log.Logger
	pool   []models.Deal
}

func NewSelector(source Source, logger *log.Logger) *Selector {
	if logger == nil {
		logger = log.Default()
	}
	return &Selector{source: source, logger: logger}
}

// Load fetches deals and keeps the ones eligible for a proposal.
// A failed fetch leaves the pool empty and is only logged.
func (s *Selector) Load(ctx context.Context) []models.Deal {
	all, err := s.source.ListDeals(ctx)
	if err != nil {
		s.logger.Error("failed to fetch deals", "err", err)
		s.pool = nil
		return nil
	}
	s.pool = Eligible(all)
	s.logger.Debug("loaded deals", "total", len(all), "eligible", len(s.pool))
	return s.pool
}

// SetPool replaces the pool with already-fetched deals.
func (s *Selector) SetPool(all []models.Deal) {
	s.pool = Eligible(all)
}

// Candidates returns the filtered, ordered pool.
func (s *Selector) Candidates(f Filter) []models.Deal {
	return Candidates(s.pool, f)
}

// Find returns the pooled deal with the given id.
func (s *Selector) Find(id string) (models.Deal, bool) {
	for _, d := range s.pool {
		if d.ID == id {
			return d, true
		}
	}
	return models.Deal{}, false
}

// Eligible keeps deals in a status that can receive a proposal.
func Eligible(all []models.Deal) []models.Deal {
	out := make([]models.Deal, 0, len(all))
	for _, d := range all {
		if _, ok := statusRank[d.Status]; ok {
			out = append(out, d)
		}
	}
	return out
}

// Candidates filters deals to the eligible pool, applies f, and sorts.
func Candidates(all []models.Deal, f Filter) []models.Deal {
	query := strings.ToLower(strings.TrimSpace(f.Query))

	var out []models.Deal
	for _, d := range Eligible(all) {
		if f.Status != "" && f.Status != StatusAll && d.Status != f.Status {
			continue
		}
		if query != "" && !matchesQuery(d, query) {
			continue
		}
		out = append(out, d)
	}

	Sort(out)
	return out
}

func matchesQuery(d models.Deal, query string) bool {
	for _, field := range []string{d.ClientName, d.Company, d.EventTitle} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// Sort orders deals by status, then priority, then event date (undated last),
// then id.
func Sort(list []models.Deal) {
	slices.SortStableFunc(list, func(a, b models.Deal) int {
		if c := cmp.Compare(rank(statusRank, a.Status), rank(statusRank, b.Status)); c != 0 {
			return c
		}
		if c := cmp.Compare(rank(priorityRank, a.Priority), rank(priorityRank, b.Priority)); c != 0 {
			return c
		}
		if c := compareDates(ParseEventDate(a.EventDate), ParseEventDate(b.EventDate)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func rank(ranks map[string]int, key string) int {
	if r, ok := ranks[key]; ok {
		return r
	}
	return len(ranks)
}

func compareDates(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}

// ParseEventDate accepts RFC 3339 timestamps or plain dates. Anything else is
// treated as no date.
func ParseEventDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// SeedPatch copies a deal's client and event details into wizard answers.
func SeedPatch(d models.Deal) wizard.Patch {
	return wizard.Patch{
		DealID:        wizard.Some(d.ID),
		ClientName:    wizard.Some(d.ClientName),
		ClientEmail:   wizard.Some(d.ClientEmail),
		ClientCompany: wizard.Some(d.Company),
		EventTitle:    wizard.Some(d.EventTitle),
		EventDate:     wizard.Some(ParseEventDate(d.EventDate)),
		EventLocation: wizard.Some(d.EventLocation),
		EventType:     wizard.Some(d.EventType),
		AttendeeCount: wizard.Some(d.AttendeeCount),
		Budget:        wizard.Some(d.DealValue),
	}
}

// Select seeds the wizard from d and moves to the speaker step.
func Select(s wizard.State, d models.Deal) wizard.State {
	s = wizard.Transition(s, wizard.Merge{Patch: SeedPatch(d)})
	return wizard.Transition(s, wizard.Next{})
}

// StartFromScratch moves on without seeding; answers keep their defaults.
func StartFromScratch(s wizard.State) wizard.State {
	return wizard.Transition(s, wizard.Next{})
}
