// ABOUTME: Assembles the proposal creation payload from the wizard answers
// ABOUTME: Computes the payment schedule in integer cents and the validity window
package proposal

import (
	"time"

	"github.com/harperreed/podium/models"
)

// Speaker is a selected speaker as sent to the back office.
type Speaker struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Slug     string       `json:"slug,omitempty"`
	Title    string       `json:"title,omitempty"`
	Bio      string       `json:"bio,omitempty"`
	Fee      models.Cents `json:"fee"`
	ImageURL string       `json:"image_url,omitempty"`
	Topics   []string     `json:"topics"`
}

// Payload is the body of a proposal creation request.
type Payload struct {
	DealID             string                    `json:"deal_id,omitempty"`
	Title              string                    `json:"title"`
	Status             string                    `json:"status"`
	ClientName         string                    `json:"client_name"`
	ClientEmail        string                    `json:"client_email"`
	ClientCompany      string                    `json:"client_company"`
	EventTitle         string                    `json:"event_title"`
	EventDate          *time.Time                `json:"event_date,omitempty"`
	EventLocation      string                    `json:"event_location"`
	EventType          string                    `json:"event_type"`
	AttendeeCount      int                       `json:"attendee_count"`
	Budget             models.Cents              `json:"budget"`
	MainTheme          string                    `json:"main_theme,omitempty"`
	SessionFormat      string                    `json:"session_format,omitempty"`
	SpeakerPreferences string                    `json:"speaker_preferences,omitempty"`
	Speakers           []Speaker                 `json:"speakers"`
	Services           []models.ServiceLineItem  `json:"services"`
	TotalInvestment    models.Cents              `json:"total_investment"`
	PaymentTerms       string                    `json:"payment_terms"`
	PaymentSchedule    []models.PaymentMilestone `json:"payment_schedule"`
	Deliverables       []models.Deliverable      `json:"deliverables"`
	ValidUntil         time.Time                 `json:"valid_until"`
	Version            int                       `json:"version"`
}

// Schedule splits total into a 50% deposit and a final payment. The final
// amount is the remainder, so the two always sum to total.
func Schedule(total models.Cents) []models.PaymentMilestone {
	deposit := total.Percent(50)
	return []models.PaymentMilestone{
		{Milestone: "Deposit", Percentage: 50, Amount: deposit, DueDate: "Upon signing"},
		{Milestone: "Final Payment", Percentage: 50, Amount: total - deposit, DueDate: "7 days before event"},
	}
}

// Deliverables is the fixed list every proposal promises.
func Deliverables() []models.Deliverable {
	return []models.Deliverable{
		{Name: "Pre-event consultation call", Description: "Call with the speaker to align on audience, goals, and logistics"},
		{Name: "Customized presentation", Description: "Presentation tailored to the event theme and audience"},
	}
}

// Title is the proposal title for an event.
func Title(eventTitle string) string {
	return eventTitle + " - Proposal"
}

// Build assembles the payload for status at time now.
func Build(data models.WizardData, status string, now time.Time) Payload {
	speakers := make([]Speaker, 0, len(data.SelectedSpeakers))
	for _, s := range data.SelectedSpeakers {
		speakers = append(speakers, Speaker{
			ID:       s.ID,
			Name:     s.Name,
			Slug:     s.Slug,
			Title:    s.Title,
			Bio:      s.Bio,
			Fee:      s.Fee,
			ImageURL: s.ImageURL,
			Topics:   []string{},
		})
	}

	services := data.Services
	if services == nil {
		services = []models.ServiceLineItem{}
	}

	return Payload{
		DealID:             data.DealID,
		Title:              Title(data.EventTitle),
		Status:             status,
		ClientName:         data.ClientName,
		ClientEmail:        data.ClientEmail,
		ClientCompany:      data.ClientCompany,
		EventTitle:         data.EventTitle,
		EventDate:          data.EventDate,
		EventLocation:      data.EventLocation,
		EventType:          data.EventType,
		AttendeeCount:      data.AttendeeCount,
		Budget:             data.Budget,
		MainTheme:          data.MainTheme,
		SessionFormat:      data.SessionFormat,
		SpeakerPreferences: data.SpeakerPreferences,
		Speakers:           speakers,
		Services:           services,
		TotalInvestment:    data.TotalInvestment,
		PaymentTerms:       data.PaymentTerms,
		PaymentSchedule:    Schedule(data.TotalInvestment),
		Deliverables:       Deliverables(),
		ValidUntil:         now.Add(time.Duration(data.ValidDays) * 24 * time.Hour),
		Version:            1,
	}
}
