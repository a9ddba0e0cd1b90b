// ABOUTME: Wizard session snapshots stored as JSON rows
// ABOUTME: Implements the workflow store used to resume interrupted proposals
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/podium/models"
)

var ErrInvalidSession = errors.New("invalid session")

// SessionRepository persists wizard sessions.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// SaveSession inserts or replaces the snapshot for s.ID.
func (r *SessionRepository) SaveSession(ctx context.Context, s *models.WizardSession) error {
	if s == nil || s.ID == "" {
		return ErrInvalidSession
	}

	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}

	data, err := json.Marshal(s.Data)
	if err != nil {
		return fmt.Errorf("failed to encode session data: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO wizard_sessions (id, step, data, event_title, client_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			step = excluded.step,
			data = excluded.data,
			event_title = excluded.event_title,
			client_name = excluded.client_name,
			updated_at = excluded.updated_at
	`, s.ID, s.Step, string(data), s.Data.EventTitle, s.Data.ClientName, s.CreatedAt.UTC(), s.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// GetSession returns the session with id, or nil if there is none.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (*models.WizardSession, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, step, data, created_at, updated_at
		FROM wizard_sessions WHERE id = ?
	`, id)

	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// DeleteSession removes a session. Deleting a missing session is not an error.
func (r *SessionRepository) DeleteSession(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM wizard_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ListSessions returns sessions, most recently updated first.
func (r *SessionRepository) ListSessions(ctx context.Context, limit int) ([]models.WizardSession, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, step, data, created_at, updated_at
		FROM wizard_sessions
		ORDER BY updated_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.WizardSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// PruneSessions deletes sessions not updated since before.
func (r *SessionRepository) PruneSessions(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM wizard_sessions WHERE updated_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*models.WizardSession, error) {
	var s models.WizardSession
	var data string
	if err := row.Scan(&s.ID, &s.Step, &data, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &s.Data); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", s.ID, err)
	}
	return &s, nil
}
