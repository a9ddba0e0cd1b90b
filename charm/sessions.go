// ABOUTME: Mirrors wizard session snapshots into Charm KV for cross-device resume
// ABOUTME: Sessions are stored as JSON under "session:<id>" keys

package charm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v3"

	"github.com/harperreed/podium/models"
)

const sessionPrefix = "session:"

func sessionKey(id string) []byte {
	return []byte(sessionPrefix + id)
}

// SessionStore keeps wizard sessions in Charm KV.
type SessionStore struct {
	client *Client
}

func NewSessionStore(c *Client) *SessionStore {
	return &SessionStore{client: c}
}

func (s *SessionStore) SaveSession(_ context.Context, session *models.WizardSession) error {
	if session == nil || session.ID == "" {
		return errors.New("invalid session")
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(sessionKey(session.ID), data); err != nil {
		return fmt.Errorf("failed to store session %s: %w", session.ID, err)
	}
	return nil
}

// GetSession returns nil when the session is not in the store.
func (s *SessionStore) GetSession(_ context.Context, id string) (*models.WizardSession, error) {
	data, err := s.client.Get(sessionKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", id, err)
	}

	var session models.WizardSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &session, nil
}

func (s *SessionStore) DeleteSession(_ context.Context, id string) error {
	if err := s.client.Delete(sessionKey(id)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

// ListSessions returns every mirrored session, most recently updated first.
func (s *SessionStore) ListSessions(ctx context.Context) ([]models.WizardSession, error) {
	keys, err := s.client.KeysWithPrefix([]byte(sessionPrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]models.WizardSession, 0, len(keys))
	for _, k := range keys {
		id := strings.TrimPrefix(string(k), sessionPrefix)
		session, err := s.GetSession(ctx, id)
		if err != nil {
			return nil, err
		}
		if session != nil {
			sessions = append(sessions, *session)
		}
	}

	slices.SortFunc(sessions, func(a, b models.WizardSession) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return sessions, nil
}
