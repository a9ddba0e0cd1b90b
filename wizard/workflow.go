// ABOUTME: Resumable workflow session binding reducer state to a snapshot store
// ABOUTME: Every dispatched action is snapshotted so an interrupted wizard can resume
package wizard

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"

	"github.com/harperreed/podium/models"
)

// Store persists wizard snapshots.
type Store interface {
	SaveSession(ctx context.Context, session *models.WizardSession) error
	GetSession(ctx context.Context, id string) (*models.WizardSession, error)
	DeleteSession(ctx context.Context, id string) error
}

// Workflow is one running wizard instance.
type Workflow struct {
	id        string
	state     State
	store     Store
	logger    *log.Logger
	createdAt time.Time
	now       func() time.Time
	observe   func(action string)
}

// NewWorkflow starts a fresh workflow with a new session ID.
// A nil store disables snapshots.
func NewWorkflow(store Store, logger *log.Logger) *Workflow {
	if logger == nil {
		logger = log.Default()
	}
	now := time.Now()
	return &Workflow{
		id:        ulid.Make().String(),
		state:     Initial(),
		store:     store,
		logger:    logger,
		createdAt: now,
		now:       time.Now,
	}
}

// ResumeWorkflow loads a previously snapshotted workflow.
func ResumeWorkflow(ctx context.Context, store Store, id string, logger *log.Logger) (*Workflow, error) {
	if store == nil {
		return nil, fmt.Errorf("no session store configured")
	}
	session, err := store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	if session == nil {
		return nil, fmt.Errorf("session %s not found", id)
	}

	w := NewWorkflow(store, logger)
	w.id = session.ID
	w.createdAt = session.CreatedAt
	w.state = State{Step: clampStep(Step(session.Step)), Data: session.Data}
	if w.state.Data.SelectedSpeakers == nil {
		w.state.Data.SelectedSpeakers = []models.SelectedSpeaker{}
	}
	if w.state.Data.Services == nil {
		w.state.Data.Services = []models.ServiceLineItem{}
	}
	return w, nil
}

func (w *Workflow) ID() string { return w.id }

func (w *Workflow) State() State { return w.state }

// Observe registers fn to be called with the name of every dispatched action.
func (w *Workflow) Observe(fn func(action string)) { w.observe = fn }

// Dispatch applies action and snapshots the result.
func (w *Workflow) Dispatch(ctx context.Context, action Action) State {
	before := w.state
	w.state = Transition(w.state, action)
	if w.observe != nil {
		w.observe(ActionName(action))
	}

	if _, ok := action.(ConfirmReset); ok && before.ResetPending {
		w.logger.Info("wizard reset", "session", w.id)
		w.discard(ctx)
		w.id = ulid.Make().String()
		w.createdAt = w.now()
		return w.state
	}

	w.snapshot(ctx)
	return w.state
}

// Advance moves forward if the current step allows it.
func (w *Workflow) Advance(ctx context.Context) (State, error) {
	if err := CanAdvance(w.state); err != nil {
		return w.state, err
	}
	return w.Dispatch(ctx, Next{}), nil
}

// Complete ends the workflow after a successful finalization.
func (w *Workflow) Complete(ctx context.Context) {
	w.logger.Info("wizard complete", "session", w.id)
	w.discard(ctx)
}

func (w *Workflow) snapshot(ctx context.Context) {
	if w.store == nil {
		return
	}
	session := &models.WizardSession{
		ID:        w.id,
		Step:      int(w.state.Step),
		Data:      w.state.Data,
		CreatedAt: w.createdAt,
		UpdatedAt: w.now(),
	}
	if err := w.store.SaveSession(ctx, session); err != nil {
		w.logger.Warn("failed to snapshot wizard", "session", w.id, "err", err)
	}
}

func (w *Workflow) discard(ctx context.Context) {
	if w.store == nil {
		return
	}
	if err := w.store.DeleteSession(ctx, w.id); err != nil {
		w.logger.Warn("failed to discard wizard snapshot", "session", w.id, "err", err)
	}
}

func clampStep(s Step) Step {
	if s < StepDeal {
		return StepDeal
	}
	if s > lastStep {
		return lastStep
	}
	return s
}
