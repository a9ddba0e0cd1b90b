// ABOUTME: Wizard state reducer for the four-step proposal workflow
// ABOUTME: Pure transition function over step index and accumulated answers
package wizard

import (
	"errors"
	"slices"

	"github.com/harperreed/podium/models"
)

// Step is a position in the workflow.
type Step int

const (
	StepDeal Step = iota
	StepSpeaker
	StepServices
	StepReview
)

const lastStep = StepReview

func (s Step) String() string {
	switch s {
	case StepDeal:
		return "Deal"
	case StepSpeaker:
		return "Speaker"
	case StepServices:
		return "Services"
	case StepReview:
		return "Review"
	}
	return "Unknown"
}

// Steps lists the workflow steps in order.
func Steps() []Step {
	return []Step{StepDeal, StepSpeaker, StepServices, StepReview}
}

// ErrNoSpeakers is returned when leaving the speaker step with nothing selected.
var ErrNoSpeakers = errors.New("select at least one speaker to continue")

// State is the whole wizard: current step plus accumulated answers.
type State struct {
	Step         Step
	Data         models.WizardData
	ResetPending bool
}

// Initial returns the state a new workflow starts in.
func Initial() State {
	return State{Step: StepDeal, Data: models.NewWizardData()}
}

// Action is an input to Transition.
type Action interface {
	isAction()
}

// Merge shallow-merges a patch into the answers.
type Merge struct{ Patch Patch }

// Next moves one step forward. Gating is the caller's job; see Advance.
type Next struct{}

// Back moves one step backward, stopping at the first step.
type Back struct{}

// RequestReset asks for a reset; nothing changes until ConfirmReset.
type RequestReset struct{}

// ConfirmReset discards everything if a reset was requested.
type ConfirmReset struct{}

// CancelReset withdraws a pending reset request.
type CancelReset struct{}

func (Merge) isAction()        {}
func (Next) isAction()         {}
func (Back) isAction()         {}
func (RequestReset) isAction() {}
func (ConfirmReset) isAction() {}
func (CancelReset) isAction()  {}

// ActionName returns a short label for action, used in logs and metrics.
func ActionName(action Action) string {
	switch action.(type) {
	case Merge:
		return "merge"
	case Next:
		return "next"
	case Back:
		return "back"
	case RequestReset:
		return "request_reset"
	case ConfirmReset:
		return "confirm_reset"
	case CancelReset:
		return "cancel_reset"
	}
	return "unknown"
}

// Transition applies action to s and returns the resulting state.
// The input state is never modified.
func Transition(s State, action Action) State {
	next := s.clone()

	switch a := action.(type) {
	case Merge:
		next.Data = a.Patch.Apply(next.Data)
	case Next:
		if next.Step < lastStep {
			next.Step++
		}
	case Back:
		if next.Step > StepDeal {
			next.Step--
		}
	case RequestReset:
		next.ResetPending = true
	case CancelReset:
		next.ResetPending = false
	case ConfirmReset:
		if next.ResetPending {
			return Initial()
		}
	}

	return next
}

// Advance moves forward only when the current step allows it.
func Advance(s State) (State, error) {
	if err := CanAdvance(s); err != nil {
		return s, err
	}
	return Transition(s, Next{}), nil
}

// CanAdvance reports why the current step may not be left, if anything.
func CanAdvance(s State) error {
	if s.Step >= StepSpeaker && len(s.Data.SelectedSpeakers) == 0 {
		return ErrNoSpeakers
	}
	return nil
}

func (s State) clone() State {
	out := s
	out.Data.SelectedSpeakers = slices.Clone(s.Data.SelectedSpeakers)
	out.Data.Services = slices.Clone(s.Data.Services)
	return out
}
