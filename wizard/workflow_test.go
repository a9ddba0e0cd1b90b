// ABOUTME: Tests for resumable workflow sessions
// ABOUTME: Uses an in-memory store to verify snapshots, resume, reset, and completion
package wizard

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/podium/models"
)

type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]models.WizardSession
	saveErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: map[string]models.WizardSession{}}
}

func (m *memoryStore) SaveSession(_ context.Context, s *models.WizardSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.sessions[s.ID] = *s
	return nil
}

func (m *memoryStore) GetSession(_ context.Context, id string) (*models.WizardSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memoryStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestWorkflowSnapshotsEveryDispatch(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	w := NewWorkflow(store, quietLogger())

	w.Dispatch(ctx, Merge{Patch: Patch{EventTitle: Some("Summit")}})
	w.Dispatch(ctx, Next{})

	saved, err := store.GetSession(ctx, w.ID())
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, int(StepSpeaker), saved.Step)
	assert.Equal(t, "Summit", saved.Data.EventTitle)
}

func TestWorkflowResume(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	w := NewWorkflow(store, quietLogger())
	w.Dispatch(ctx, Merge{Patch: Patch{
		ClientName:       Some("Ada"),
		SelectedSpeakers: Some([]models.SelectedSpeaker{{ID: "s1"}}),
	}})
	w.Dispatch(ctx, Next{})
	w.Dispatch(ctx, Next{})

	resumed, err := ResumeWorkflow(ctx, store, w.ID(), quietLogger())
	require.NoError(t, err)
	assert.Equal(t, w.ID(), resumed.ID())
	assert.Equal(t, StepServices, resumed.State().Step)
	assert.Equal(t, "Ada", resumed.State().Data.ClientName)
}

func TestWorkflowResumeMissing(t *testing.T) {
	_, err := ResumeWorkflow(context.Background(), newMemoryStore(), "nope", quietLogger())
	assert.Error(t, err)

	_, err = ResumeWorkflow(context.Background(), nil, "nope", quietLogger())
	assert.Error(t, err)
}

func TestWorkflowSnapshotFailureIsNotFatal(t *testing.T) {
	store := newMemoryStore()
	store.saveErr = errors.New("disk full")
	w := NewWorkflow(store, quietLogger())

	s := w.Dispatch(context.Background(), Next{})
	assert.Equal(t, StepSpeaker, s.Step)
}

func TestWorkflowAdvanceGate(t *testing.T) {
	ctx := context.Background()
	w := NewWorkflow(nil, quietLogger())
	w.Dispatch(ctx, Next{})

	_, err := w.Advance(ctx)
	assert.ErrorIs(t, err, ErrNoSpeakers)

	w.Dispatch(ctx, Merge{Patch: Patch{SelectedSpeakers: Some([]models.SelectedSpeaker{{ID: "s1"}})}})
	s, err := w.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepServices, s.Step)
}

func TestWorkflowConfirmedResetDiscardsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	w := NewWorkflow(store, quietLogger())
	w.Dispatch(ctx, Merge{Patch: Patch{ClientName: Some("Ada")}})
	oldID := w.ID()

	w.Dispatch(ctx, RequestReset{})
	s := w.Dispatch(ctx, ConfirmReset{})

	assert.Equal(t, Initial(), s)
	assert.NotEqual(t, oldID, w.ID())
	gone, err := store.GetSession(ctx, oldID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestWorkflowComplete(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	w := NewWorkflow(store, quietLogger())
	w.Dispatch(ctx, Next{})

	w.Complete(ctx)

	gone, err := store.GetSession(ctx, w.ID())
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestMirroredStore(t *testing.T) {
	ctx := context.Background()
	primary := newMemoryStore()
	mirror := newMemoryStore()
	store := Mirror(primary, mirror)

	session := &models.WizardSession{ID: "s1", Step: 2}
	require.NoError(t, store.SaveSession(ctx, session))
	assert.Contains(t, primary.sessions, "s1")
	assert.Contains(t, mirror.sessions, "s1")

	// A session only known remotely is still found.
	mirror.sessions["remote"] = models.WizardSession{ID: "remote", Step: 1}
	found, err := store.GetSession(ctx, "remote")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 1, found.Step)

	require.NoError(t, store.DeleteSession(ctx, "s1"))
	assert.NotContains(t, primary.sessions, "s1")
	assert.NotContains(t, mirror.sessions, "s1")
}

func TestWorkflowObserve(t *testing.T) {
	ctx := context.Background()
	w := NewWorkflow(nil, quietLogger())

	var seen []string
	w.Observe(func(action string) { seen = append(seen, action) })
	w.Dispatch(ctx, Next{})
	w.Dispatch(ctx, Back{})
	w.Dispatch(ctx, RequestReset{})

	assert.Equal(t, []string{"next", "back", "request_reset"}, seen)
}
