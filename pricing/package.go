// ABOUTME: Service package step: default line items derived from event size and fees
// ABOUTME: Pure operations for toggling, editing, adding, and removing priced services
package pricing

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/harperreed/podium/models"
	"github.com/harperreed/podium/wizard"
)

var (
	// ErrLocked is returned when removing a line item that must stay in the package.
	ErrLocked = errors.New("line item is locked and cannot be removed")
	// ErrIndex is returned for a line item position outside the package.
	ErrIndex = errors.New("no line item at that position")
	// ErrValidDays is returned when the validity window is not positive.
	ErrValidDays = errors.New("valid days must be greater than zero")
)

// DefaultSessionName is the base item name when no session format was given.
const DefaultSessionName = "Keynote Presentation"

type rule struct {
	applies func(data models.WizardData) bool
	items   func(data models.WizardData) []models.ServiceLineItem
}

func always(models.WizardData) bool { return true }

func attendeesOver(n int) func(models.WizardData) bool {
	return func(d models.WizardData) bool { return d.AttendeeCount > n }
}

func attendeesAtLeast(n int) func(models.WizardData) bool {
	return func(d models.WizardData) bool { return d.AttendeeCount >= n }
}

// rules are evaluated in order; their items form the default package.
var rules = []rule{
	{always, func(d models.WizardData) []models.ServiceLineItem {
		name := strings.TrimSpace(d.SessionFormat)
		if name == "" {
			name = DefaultSessionName
		}
		return []models.ServiceLineItem{{
			Name:        name,
			Description: "Main speaking engagement",
			Price:       d.SpeakerFees(),
			Included:    true,
			Locked:      true,
		}}
	}},
	{always, func(models.WizardData) []models.ServiceLineItem {
		return []models.ServiceLineItem{{
			Name:        "Pre-event consultation",
			Description: "Planning call with the speaker to align on audience and goals",
			Included:    true,
			Locked:      true,
		}}
	}},
	{always, func(models.WizardData) []models.ServiceLineItem {
		return []models.ServiceLineItem{{
			Name:        "Customized presentation",
			Description: "Content tailored to the event theme",
			Included:    true,
		}}
	}},
	{attendeesOver(100), func(models.WizardData) []models.ServiceLineItem {
		return []models.ServiceLineItem{{
			Name:        "Q&A session (15-20 min)",
			Description: "Moderated audience questions after the talk",
			Included:    true,
		}}
	}},
	{attendeesAtLeast(200), func(d models.WizardData) []models.ServiceLineItem {
		fees := d.SpeakerFees()
		return []models.ServiceLineItem{
			{
				Name:        "Executive roundtable",
				Description: "Small-group session with leadership",
				Price:       fees.Percent(20).RoundUnits(),
			},
			{
				Name:        "Post-event recording rights",
				Description: "Rights to record and distribute the session",
				Price:       fees.Percent(10).RoundUnits(),
			},
		}
	}},
	{attendeesAtLeast(500), func(models.WizardData) []models.ServiceLineItem {
		return []models.ServiceLineItem{{
			Name:        "Book signing session",
			Description: "Signing session with copies of the speaker's book",
			Price:       models.FromMajor(1000),
		}}
	}},
}

// Package is an ordered list of priced services.
type Package []models.ServiceLineItem

// Defaults derives the starting package from the answers.
func Defaults(data models.WizardData) Package {
	var pkg Package
	for _, r := range rules {
		if r.applies(data) {
			pkg = append(pkg, r.items(data)...)
		}
	}
	return pkg
}

// Ensure returns the existing services, or the defaults when there are none.
func Ensure(data models.WizardData) Package {
	if len(data.Services) > 0 {
		return Package(slices.Clone(data.Services))
	}
	return Defaults(data)
}

func (p Package) check(i int) error {
	if i < 0 || i >= len(p) {
		return fmt.Errorf("%w: %d", ErrIndex, i)
	}
	return nil
}

// Toggle flips whether item i counts toward the total.
func (p Package) Toggle(i int) (Package, error) {
	if err := p.check(i); err != nil {
		return p, err
	}
	out := slices.Clone(p)
	out[i].Included = !out[i].Included
	return out, nil
}

// Edit replaces the name, description, and price of item i. The locked flag
// is kept.
func (p Package) Edit(i int, name, description string, price models.Cents) (Package, error) {
	if err := p.check(i); err != nil {
		return p, err
	}
	out := slices.Clone(p)
	out[i].Name = name
	out[i].Description = description
	out[i].Price = price
	return out, nil
}

// Add appends an unincluded item with no price.
func (p Package) Add(name, description string) Package {
	out := slices.Clone(p)
	return append(out, models.ServiceLineItem{Name: name, Description: description})
}

// Remove drops item i unless it is locked.
func (p Package) Remove(i int) (Package, error) {
	if err := p.check(i); err != nil {
		return p, err
	}
	if p[i].Locked {
		return p, fmt.Errorf("%w: %s", ErrLocked, p[i].Name)
	}
	return slices.Delete(slices.Clone(p), i, i+1), nil
}

// Total sums the prices of included items.
func (p Package) Total() models.Cents {
	var total models.Cents
	for _, item := range p {
		if item.Included {
			total += item.Price
		}
	}
	return total
}

// Continue returns the patch recording the package, its total, and the terms.
func Continue(p Package, paymentTerms string, validDays int) (wizard.Patch, error) {
	if validDays <= 0 {
		return wizard.Patch{}, fmt.Errorf("%w: %d", ErrValidDays, validDays)
	}
	return wizard.Patch{
		Services:        wizard.Some([]models.ServiceLineItem(slices.Clone(p))),
		TotalInvestment: wizard.Some(p.Total()),
		PaymentTerms:    wizard.Some(paymentTerms),
		ValidDays:       wizard.Some(validDays),
	}, nil
}
