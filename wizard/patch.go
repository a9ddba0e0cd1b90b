// ABOUTME: Partial updates merged into the wizard answer set
// ABOUTME: Only fields marked as set overwrite the current value
package wizard

import (
	"time"

	"github.com/harperreed/podium/models"
)

// Field is an optional value in a Patch.
type Field[T any] struct {
	Value T
	Set   bool
}

// Some marks v as a value to write.
func Some[T any](v T) Field[T] {
	return Field[T]{Value: v, Set: true}
}

func (f Field[T]) apply(dst *T) {
	if f.Set {
		*dst = f.Value
	}
}

// Patch is a shallow update of WizardData. Nested values (speakers, services)
// replace the existing slice wholesale.
type Patch struct {
	DealID             Field[string]
	ClientName         Field[string]
	ClientEmail        Field[string]
	ClientCompany      Field[string]
	EventTitle         Field[string]
	EventDate          Field[*time.Time]
	EventLocation      Field[string]
	EventType          Field[string]
	AttendeeCount      Field[int]
	Budget             Field[models.Cents]
	MainTheme          Field[string]
	SessionFormat      Field[string]
	SpeakerPreferences Field[string]
	SelectedSpeakers   Field[[]models.SelectedSpeaker]
	Services           Field[[]models.ServiceLineItem]
	PaymentTerms       Field[string]
	ValidDays          Field[int]
	TotalInvestment    Field[models.Cents]
}

// Apply returns a copy of data with the patch merged in.
func (p Patch) Apply(data models.WizardData) models.WizardData {
	p.DealID.apply(&data.DealID)
	p.ClientName.apply(&data.ClientName)
	p.ClientEmail.apply(&data.ClientEmail)
	p.ClientCompany.apply(&data.ClientCompany)
	p.EventTitle.apply(&data.EventTitle)
	p.EventDate.apply(&data.EventDate)
	p.EventLocation.apply(&data.EventLocation)
	p.EventType.apply(&data.EventType)
	p.AttendeeCount.apply(&data.AttendeeCount)
	p.Budget.apply(&data.Budget)
	p.MainTheme.apply(&data.MainTheme)
	p.SessionFormat.apply(&data.SessionFormat)
	p.SpeakerPreferences.apply(&data.SpeakerPreferences)
	p.SelectedSpeakers.apply(&data.SelectedSpeakers)
	p.Services.apply(&data.Services)
	p.PaymentTerms.apply(&data.PaymentTerms)
	p.ValidDays.apply(&data.ValidDays)
	p.TotalInvestment.apply(&data.TotalInvestment)
	return data
}
