// ABOUTME: Tool input and output shapes shared by the proposal MCP tools
// ABOUTME: Converts between flat tool arguments and wizard answers
package handlers

import (
	"fmt"
	"strings"

	"github.com/harperreed/podium/deals"
	"github.com/harperreed/podium/matching"
	"github.com/harperreed/podium/models"
	"github.com/harperreed/podium/pricing"
)

type SpeakerInput struct {
	ID       string  `json:"id" jsonschema:"Speaker id from match_speakers (required)"`
	Name     string  `json:"name,omitempty" jsonschema:"Speaker name"`
	Slug     string  `json:"slug,omitempty" jsonschema:"Speaker slug"`
	Title    string  `json:"title,omitempty" jsonschema:"Speaker title"`
	Bio      string  `json:"bio,omitempty" jsonschema:"Speaker bio"`
	Fee      float64 `json:"fee,omitempty" jsonschema:"Speaker fee in currency units"`
	ImageURL string  `json:"image_url,omitempty" jsonschema:"Headshot URL"`
}

type ServiceInput struct {
	Name        string  `json:"name" jsonschema:"Line item name (required)"`
	Description string  `json:"description,omitempty" jsonschema:"Line item description"`
	Price       float64 `json:"price,omitempty" jsonschema:"Price in currency units"`
	Included    bool    `json:"included" jsonschema:"Whether the item counts toward the total"`
	Locked      bool    `json:"locked,omitempty" jsonschema:"Whether the item must stay in the package"`
}

// AnswersInput is the flattened wizard answer set accepted by the tools.
type AnswersInput struct {
	DealID             string         `json:"deal_id,omitempty" jsonschema:"Deal to link the proposal to"`
	ClientName         string         `json:"client_name,omitempty" jsonschema:"Client contact name"`
	ClientEmail        string         `json:"client_email,omitempty" jsonschema:"Client contact email"`
	ClientCompany      string         `json:"client_company,omitempty" jsonschema:"Client company"`
	EventTitle         string         `json:"event_title,omitempty" jsonschema:"Event title"`
	EventDate          string         `json:"event_date,omitempty" jsonschema:"Event date (YYYY-MM-DD or RFC3339)"`
	EventLocation      string         `json:"event_location,omitempty" jsonschema:"Event location"`
	EventType          string         `json:"event_type,omitempty" jsonschema:"Event type, e.g. conference"`
	AttendeeCount      int            `json:"attendee_count,omitempty" jsonschema:"Expected number of attendees"`
	Budget             float64        `json:"budget,omitempty" jsonschema:"Budget in currency units"`
	MainTheme          string         `json:"main_theme,omitempty" jsonschema:"Main theme of the event"`
	SessionFormat      string         `json:"session_format,omitempty" jsonschema:"Session format, e.g. Keynote Presentation"`
	SpeakerPreferences string         `json:"speaker_preferences,omitempty" jsonschema:"Free-text speaker preferences"`
	Speakers           []SpeakerInput `json:"speakers,omitempty" jsonschema:"Selected speakers"`
	Services           []ServiceInput `json:"services,omitempty" jsonschema:"Service package; derived from the answers when empty"`
	PaymentTerms       string         `json:"payment_terms,omitempty" jsonschema:"Payment terms text"`
	ValidDays          int            `json:"valid_days,omitempty" jsonschema:"Days the proposal stays valid (default 30)"`
}

// WizardData converts the tool arguments into wizard answers. An empty
// service list is filled with the derived defaults and the total is always
// recomputed from the included items.
func (in AnswersInput) WizardData() (models.WizardData, error) {
	data := models.NewWizardData()
	data.DealID = in.DealID
	data.ClientName = in.ClientName
	data.ClientEmail = in.ClientEmail
	data.ClientCompany = in.ClientCompany
	data.EventTitle = in.EventTitle
	data.EventLocation = in.EventLocation
	data.EventType = in.EventType
	data.AttendeeCount = in.AttendeeCount
	data.Budget = models.FromFloat(in.Budget)
	data.MainTheme = in.MainTheme
	data.SessionFormat = in.SessionFormat
	data.SpeakerPreferences = in.SpeakerPreferences

	if strings.TrimSpace(in.EventDate) != "" {
		date := deals.ParseEventDate(in.EventDate)
		if date == nil {
			return data, fmt.Errorf("invalid event_date %q (use YYYY-MM-DD or RFC3339)", in.EventDate)
		}
		data.EventDate = date
	}

	if in.AttendeeCount < 0 {
		return data, fmt.Errorf("attendee_count cannot be negative")
	}
	if in.ValidDays < 0 {
		return data, pricing.ErrValidDays
	}
	if in.ValidDays > 0 {
		data.ValidDays = in.ValidDays
	}
	if in.PaymentTerms != "" {
		data.PaymentTerms = in.PaymentTerms
	}

	for _, s := range in.Speakers {
		if s.ID == "" {
			return data, fmt.Errorf("every speaker needs an id")
		}
		data.SelectedSpeakers = append(data.SelectedSpeakers, models.SelectedSpeaker{
			ID:       s.ID,
			Name:     s.Name,
			Slug:     s.Slug,
			Title:    s.Title,
			Bio:      s.Bio,
			Fee:      models.FromFloat(s.Fee),
			ImageURL: s.ImageURL,
		})
	}

	for _, s := range in.Services {
		if strings.TrimSpace(s.Name) == "" {
			return data, fmt.Errorf("every service needs a name")
		}
		data.Services = append(data.Services, models.ServiceLineItem{
			Name:        s.Name,
			Description: s.Description,
			Price:       models.FromFloat(s.Price),
			Included:    s.Included,
			Locked:      s.Locked,
		})
	}
	pkg := pricing.Ensure(data)
	data.Services = pkg
	data.TotalInvestment = pkg.Total()
	return data, nil
}

type DealOutput struct {
	ID            string  `json:"id"`
	ClientName    string  `json:"client_name,omitempty"`
	Company       string  `json:"company,omitempty"`
	EventTitle    string  `json:"event_title,omitempty"`
	EventDate     string  `json:"event_date,omitempty"`
	EventLocation string  `json:"event_location,omitempty"`
	EventType     string  `json:"event_type,omitempty"`
	AttendeeCount int     `json:"attendee_count,omitempty"`
	DealValue     float64 `json:"deal_value"`
	Status        string  `json:"status"`
	Priority      string  `json:"priority,omitempty"`
}

func dealToOutput(d models.Deal) DealOutput {
	return DealOutput{
		ID:            d.ID,
		ClientName:    d.ClientName,
		Company:       d.Company,
		EventTitle:    d.EventTitle,
		EventDate:     d.EventDate,
		EventLocation: d.EventLocation,
		EventType:     d.EventType,
		AttendeeCount: d.AttendeeCount,
		DealValue:     d.DealValue.Float(),
		Status:        d.Status,
		Priority:      d.Priority,
	}
}

type SpeakerOutput struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Slug             string   `json:"slug,omitempty"`
	Title            string   `json:"title,omitempty"`
	Bio              string   `json:"bio,omitempty"`
	SpeakingFeeRange string   `json:"speaking_fee_range,omitempty"`
	Fee              float64  `json:"fee"`
	MatchScore       int      `json:"match_score"`
	MatchReasons     []string `json:"match_reasons,omitempty"`
	Topics           []string `json:"topics,omitempty"`
}

func speakerToOutput(c models.SpeakerCandidate) SpeakerOutput {
	return SpeakerOutput{
		ID:               c.ID,
		Name:             c.Name,
		Slug:             c.Slug,
		Title:            c.Title,
		Bio:              c.Summary(),
		SpeakingFeeRange: c.SpeakingFeeRange,
		Fee:              matching.ParseFee(c.SpeakingFeeRange).Float(),
		MatchScore:       c.MatchScore,
		MatchReasons:     c.MatchReasons,
		Topics:           c.Topics,
	}
}

type ServiceOutput struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Included    bool    `json:"included"`
	Locked      bool    `json:"locked"`
}

func servicesToOutput(items []models.ServiceLineItem) []ServiceOutput {
	out := make([]ServiceOutput, 0, len(items))
	for _, item := range items {
		out = append(out, ServiceOutput{
			Name:        item.Name,
			Description: item.Description,
			Price:       item.Price.Float(),
			Included:    item.Included,
			Locked:      item.Locked,
		})
	}
	return out
}

type MilestoneOutput struct {
	Milestone  string  `json:"milestone"`
	Percentage int     `json:"percentage"`
	Amount     float64 `json:"amount"`
	DueDate    string  `json:"due_date"`
}

func scheduleToOutput(items []models.PaymentMilestone) []MilestoneOutput {
	out := make([]MilestoneOutput, 0, len(items))
	for _, m := range items {
		out = append(out, MilestoneOutput{
			Milestone:  m.Milestone,
			Percentage: m.Percentage,
			Amount:     m.Amount.Float(),
			DueDate:    m.DueDate,
		})
	}
	return out
}
