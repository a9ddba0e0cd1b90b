// ABOUTME: Submits assembled proposals to the back office exactly once per attempt
// ABOUTME: Guards against concurrent submissions and records every attempt locally
package proposal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/harperreed/podium/models"
)

var (
	// ErrInFlight is returned while another submission is pending.
	ErrInFlight = errors.New("a proposal submission is already in progress")
	// ErrStatus is returned for a status other than draft or sent.
	ErrStatus = errors.New("proposal status must be draft or sent")
)

// Creator persists a proposal. The key lets the back office collapse
// duplicate requests for the same attempt.
type Creator interface {
	CreateProposal(ctx context.Context, payload Payload, idempotencyKey string) (*models.Proposal, error)
}

// Recorder keeps the local history of submissions.
type Recorder interface {
	RecordSubmission(ctx context.Context, s *models.Submission) error
}

// Finalizer submits proposals built from wizard answers.
type Finalizer struct {
	creator  Creator
	recorder Recorder
	logger   *log.Logger
	now      func() time.Time
	observe  func(status string, err error)

	mu       sync.Mutex
	inFlight bool
}

// Option configures a Finalizer.
type Option func(*Finalizer)

// WithRecorder records every attempt, successful or not.
func WithRecorder(r Recorder) Option {
	return func(f *Finalizer) { f.recorder = r }
}

// WithClock replaces the time source used for valid_until.
func WithClock(now func() time.Time) Option {
	return func(f *Finalizer) { f.now = now }
}

// WithObserver is called once per attempt with its outcome.
func WithObserver(fn func(status string, err error)) Option {
	return func(f *Finalizer) { f.observe = fn }
}

func NewFinalizer(creator Creator, logger *log.Logger, opts ...Option) *Finalizer {
	if logger == nil {
		logger = log.Default()
	}
	f := &Finalizer{creator: creator, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// IdempotencyKey identifies a submission of one payload for one session.
// Retrying unchanged answers repeats the key; any edit yields a new one.
// valid_until moves with the clock and is left out of the fingerprint.
// Sessionless submissions get a fresh key.
func IdempotencyKey(sessionID string, p Payload) string {
	if sessionID == "" {
		return uuid.NewString()
	}
	p.ValidUntil = time.Time{}
	raw, err := json.Marshal(p)
	if err != nil {
		return uuid.NewString()
	}
	return sessionID + ":" + p.Status + ":" + uuid.NewSHA1(keySpace, raw).String()
}

// keySpace namespaces payload fingerprints.
var keySpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("podium:proposal"))

// Pending reports whether a submission is in flight.
func (f *Finalizer) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight
}

func (f *Finalizer) acquire() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight {
		return false
	}
	f.inFlight = true
	return true
}

func (f *Finalizer) release() {
	f.mu.Lock()
	f.inFlight = false
	f.mu.Unlock()
}

// Submit builds the payload and makes a single creation request. The answers
// are never modified; on failure the caller may submit again.
func (f *Finalizer) Submit(ctx context.Context, sessionID string, data models.WizardData, status string) (*models.Proposal, error) {
	if status != models.ProposalStatusDraft && status != models.ProposalStatusSent {
		return nil, fmt.Errorf("%w: %q", ErrStatus, status)
	}
	if !f.acquire() {
		return nil, ErrInFlight
	}
	defer f.release()

	now := f.now()
	payload := Build(data, status, now)
	key := IdempotencyKey(sessionID, payload)

	f.logger.Info("submitting proposal", "session", sessionID, "status", status, "total", data.TotalInvestment)
	created, err := f.creator.CreateProposal(ctx, payload, key)
	if err == nil && (created == nil || created.ID == "") {
		err = errors.New("response has no proposal id")
	}

	submission := &models.Submission{
		ID:              uuid.NewString(),
		SessionID:       sessionID,
		Status:          status,
		Title:           payload.Title,
		TotalInvestment: payload.TotalInvestment,
		CreatedAt:       now,
	}
	if err != nil {
		submission.Error = err.Error()
	} else {
		submission.ProposalID = created.ID
	}
	f.record(ctx, submission)
	if f.observe != nil {
		f.observe(status, err)
	}

	if err != nil {
		f.logger.Error("proposal submission failed", "session", sessionID, "err", err)
		return nil, fmt.Errorf("failed to create proposal: %w", err)
	}
	f.logger.Info("proposal created", "id", created.ID, "status", status)
	return created, nil
}

func (f *Finalizer) record(ctx context.Context, s *models.Submission) {
	if f.recorder == nil {
		return
	}
	if err := f.recorder.RecordSubmission(ctx, s); err != nil {
		f.logger.Warn("failed to record submission", "id", s.ID, "err", err)
	}
}
