// ABOUTME: Data models for the proposal workflow
// ABOUTME: Defines Deal, WizardData, speaker, service line item, and Proposal structs
package models

import (
	"time"
)

// Deal is a sales opportunity as returned by the back-office API.
type Deal struct {
	ID               string `json:"id"`
	ClientName       string `json:"client_name"`
	ClientEmail      string `json:"client_email"`
	Company          string `json:"company"`
	EventTitle       string `json:"event_title"`
	EventDate        string `json:"event_date,omitempty"`
	EventLocation    string `json:"event_location"`
	EventType        string `json:"event_type"`
	AttendeeCount    int    `json:"attendee_count"`
	DealValue        Cents  `json:"deal_value"`
	Status           string `json:"status"`
	Priority         string `json:"priority"`
	SpeakerRequested string `json:"speaker_requested,omitempty"`
}

// Deal status constants.
const (
	DealStatusLead        = "lead"
	DealStatusQualified   = "qualified"
	DealStatusProposal    = "proposal"
	DealStatusNegotiation = "negotiation"
	DealStatusWon         = "won"
	DealStatusLost        = "lost"
)

// Deal priority constants.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// SpeakerCandidate is a ranked match returned by the matching service.
type SpeakerCandidate struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Slug             string   `json:"slug,omitempty"`
	Title            string   `json:"title,omitempty"`
	Bio              string   `json:"bio,omitempty"`
	ShortBio         string   `json:"short_bio,omitempty"`
	HeadshotURL      string   `json:"headshot_url,omitempty"`
	SpeakingFeeRange string   `json:"speaking_fee_range,omitempty"`
	MatchScore       int      `json:"match_score,omitempty"`
	MatchReasons     []string `json:"match_reasons,omitempty"`
	Topics           []string `json:"topics,omitempty"`
}

// Summary returns the long bio, falling back to the short one.
func (c SpeakerCandidate) Summary() string {
	if c.Bio != "" {
		return c.Bio
	}
	return c.ShortBio
}

// SelectedSpeaker is the projection of a chosen candidate kept in WizardData.
type SelectedSpeaker struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Slug         string   `json:"slug,omitempty"`
	Title        string   `json:"title,omitempty"`
	Bio          string   `json:"bio,omitempty"`
	Fee          Cents    `json:"fee"`
	ImageURL     string   `json:"image_url,omitempty"`
	MatchScore   int      `json:"match_score"`
	MatchReasons []string `json:"match_reasons,omitempty"`
}

// ServiceLineItem is one priced service in a proposal package.
// Locked items can be edited and toggled but never removed.
type ServiceLineItem struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       Cents  `json:"price"`
	Included    bool   `json:"included"`
	Locked      bool   `json:"locked,omitempty"`
}

// PaymentMilestone is one scheduled installment of the total investment.
type PaymentMilestone struct {
	Milestone  string `json:"milestone"`
	Percentage int    `json:"percentage"`
	Amount     Cents  `json:"amount"`
	DueDate    string `json:"due_date"`
}

type Deliverable struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// WizardData is the answer set accumulated across the workflow steps.
type WizardData struct {
	DealID             string            `json:"deal_id,omitempty"`
	ClientName         string            `json:"client_name"`
	ClientEmail        string            `json:"client_email"`
	ClientCompany      string            `json:"client_company"`
	EventTitle         string            `json:"event_title"`
	EventDate          *time.Time        `json:"event_date,omitempty"`
	EventLocation      string            `json:"event_location"`
	EventType          string            `json:"event_type"`
	AttendeeCount      int               `json:"attendee_count"`
	Budget             Cents             `json:"budget"`
	MainTheme          string            `json:"main_theme,omitempty"`
	SessionFormat      string            `json:"session_format,omitempty"`
	SpeakerPreferences string            `json:"speaker_preferences,omitempty"`
	SelectedSpeakers   []SelectedSpeaker `json:"selected_speakers"`
	Services           []ServiceLineItem `json:"services"`
	PaymentTerms       string            `json:"payment_terms"`
	ValidDays          int               `json:"valid_days"`
	TotalInvestment    Cents             `json:"total_investment"`
}

const (
	DefaultValidDays    = 30
	DefaultPaymentTerms = "50% deposit upon signing, remaining 50% due 7 days before the event"
)

// NewWizardData returns the answer set a fresh workflow starts from.
func NewWizardData() WizardData {
	return WizardData{
		SelectedSpeakers: []SelectedSpeaker{},
		Services:         []ServiceLineItem{},
		PaymentTerms:     DefaultPaymentTerms,
		ValidDays:        DefaultValidDays,
	}
}

// SpeakerFees sums the derived fees of all selected speakers.
func (d WizardData) SpeakerFees() Cents {
	var total Cents
	for _, s := range d.SelectedSpeakers {
		total += s.Fee
	}
	return total
}

// Proposal status constants.
const (
	ProposalStatusDraft = "draft"
	ProposalStatusSent  = "sent"
)

// Proposal is the persisted artifact returned by the back-office API.
type Proposal struct {
	ID              string     `json:"id"`
	Title           string     `json:"title,omitempty"`
	Status          string     `json:"status,omitempty"`
	Version         int        `json:"version,omitempty"`
	TotalInvestment Cents      `json:"total_investment,omitempty"`
	ValidUntil      *time.Time `json:"valid_until,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
}

// WizardSession is a resumable snapshot of an in-progress workflow.
type WizardSession struct {
	ID        string     `json:"id"`
	Step      int        `json:"step"`
	Data      WizardData `json:"data"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Submission records one finalization attempt made from a session.
type Submission struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"session_id"`
	ProposalID      string    `json:"proposal_id,omitempty"`
	Status          string    `json:"status"`
	Title           string    `json:"title"`
	TotalInvestment Cents     `json:"total_investment"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Succeeded reports whether the attempt produced a proposal.
func (s Submission) Succeeded() bool {
	return s.ProposalID != "" && s.Error == ""
}
