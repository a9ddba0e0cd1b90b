// ABOUTME: YAML answers file for non-interactive proposal creation and matching
// ABOUTME: Fields present in the file override whatever a selected deal seeded
package cli

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/harperreed/podium/deals"
	"github.com/harperreed/podium/models"
	"github.com/harperreed/podium/wizard"
)

// Answers is the on-disk form of the event clarification answers.
//
//	deal_id: d-42
//	event_title: Leadership Summit
//	event_date: 2026-06-01
//	attendee_count: 250
//	budget: 25000
//	main_theme: AI in healthcare
//	speakers: [s-1, s-2]
type Answers struct {
	DealID             string                   `yaml:"deal_id"`
	ClientName         string                   `yaml:"client_name"`
	ClientEmail        string                   `yaml:"client_email"`
	ClientCompany      string                   `yaml:"client_company"`
	EventTitle         string                   `yaml:"event_title"`
	EventDate          string                   `yaml:"event_date"`
	EventLocation      string                   `yaml:"event_location"`
	EventType          string                   `yaml:"event_type"`
	AttendeeCount      *int                     `yaml:"attendee_count"`
	Budget             *models.Cents            `yaml:"budget"`
	MainTheme          string                   `yaml:"main_theme"`
	SessionFormat      string                   `yaml:"session_format"`
	SpeakerPreferences string                   `yaml:"speaker_preferences"`
	Speakers           []string                 `yaml:"speakers"`
	Services           []models.ServiceLineItem `yaml:"services"`
	PaymentTerms       string                   `yaml:"payment_terms"`
	ValidDays          *int                     `yaml:"valid_days"`
}

// LoadAnswers reads an answers file. Unknown keys are rejected so typos do
// not silently drop answers.
func LoadAnswers(path string) (*Answers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read answers: %w", err)
	}

	var a Answers
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("failed to parse answers %s: %w", path, err)
	}
	if err := a.validate(); err != nil {
		return nil, fmt.Errorf("invalid answers %s: %w", path, err)
	}
	return &a, nil
}

func (a *Answers) validate() error {
	if a.EventDate != "" && deals.ParseEventDate(a.EventDate) == nil {
		return fmt.Errorf("event_date %q is not YYYY-MM-DD or RFC3339", a.EventDate)
	}
	if a.AttendeeCount != nil && *a.AttendeeCount < 0 {
		return fmt.Errorf("attendee_count cannot be negative")
	}
	if a.Budget != nil && *a.Budget < 0 {
		return fmt.Errorf("budget cannot be negative")
	}
	for i, s := range a.Services {
		if s.Name == "" {
			return fmt.Errorf("services[%d] has no name", i)
		}
	}
	return nil
}

// Patch returns the event answers present in the file.
// Speakers and services are applied by their own steps.
func (a *Answers) Patch() wizard.Patch {
	var p wizard.Patch
	setString(&p.ClientName, a.ClientName)
	setString(&p.ClientEmail, a.ClientEmail)
	setString(&p.ClientCompany, a.ClientCompany)
	setString(&p.EventTitle, a.EventTitle)
	setString(&p.EventLocation, a.EventLocation)
	setString(&p.EventType, a.EventType)
	setString(&p.MainTheme, a.MainTheme)
	setString(&p.SessionFormat, a.SessionFormat)
	setString(&p.SpeakerPreferences, a.SpeakerPreferences)
	if a.EventDate != "" {
		p.EventDate = wizard.Some(deals.ParseEventDate(a.EventDate))
	}
	if a.AttendeeCount != nil {
		p.AttendeeCount = wizard.Some(*a.AttendeeCount)
	}
	if a.Budget != nil {
		p.Budget = wizard.Some(*a.Budget)
	}
	return p
}

func setString(f *wizard.Field[string], v string) {
	if v != "" {
		*f = wizard.Some(v)
	}
}
