// ABOUTME: Local history of proposal submission attempts
// ABOUTME: Records each finalization outcome, including failures
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/podium/models"
)

var ErrInvalidSubmission = errors.New("invalid submission")

// SubmissionRepository persists submission attempts.
type SubmissionRepository struct {
	db *sql.DB
}

func NewSubmissionRepository(db *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// RecordSubmission stores one attempt, assigning an id and time if missing.
func (r *SubmissionRepository) RecordSubmission(ctx context.Context, s *models.Submission) error {
	if s == nil || s.Status == "" {
		return ErrInvalidSubmission
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO submissions (id, session_id, proposal_id, status, title, total_investment, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, nullString(s.SessionID), nullString(s.ProposalID), s.Status, s.Title, int64(s.TotalInvestment), nullString(s.Error), s.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record submission: %w", err)
	}
	return nil
}

// SubmissionFilter narrows ListSubmissions.
type SubmissionFilter struct {
	SessionID  string
	FailedOnly bool
	Limit      int
}

// ListSubmissions returns attempts, newest first.
func (r *SubmissionRepository) ListSubmissions(ctx context.Context, f SubmissionFilter) ([]models.Submission, error) {
	query := `
		SELECT id, session_id, proposal_id, status, title, total_investment, error, created_at
		FROM submissions WHERE 1=1
	`
	var args []any
	if f.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, f.SessionID)
	}
	if f.FailedOnly {
		query += " AND error IS NOT NULL"
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY created_at DESC, id LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var out []models.Submission
	for rows.Next() {
		var s models.Submission
		var sessionID, proposalID, errText sql.NullString
		var total int64
		if err := rows.Scan(&s.ID, &sessionID, &proposalID, &s.Status, &s.Title, &total, &errText, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.SessionID = sessionID.String
		s.ProposalID = proposalID.String
		s.Error = errText.String
		s.TotalInvestment = models.Cents(total)
		out = append(out, s)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
