// ABOUTME: Tests for submission history storage
// ABOUTME: Verifies recording of successes and failures and filtered listing
package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/podium/models"
)

func TestRecordSubmission(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	s := &models.Submission{
		SessionID:       "sess-1",
		ProposalID:      "p-1",
		Status:          models.ProposalStatusSent,
		Title:           "Summit - Proposal",
		TotalInvestment: 1500050,
	}
	require.NoError(t, repo.RecordSubmission(ctx, s))
	assert.NotEmpty(t, s.ID)
	assert.False(t, s.CreatedAt.IsZero())

	list, err := repo.ListSubmissions(ctx, SubmissionFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "p-1", list[0].ProposalID)
	assert.Equal(t, models.Cents(1500050), list[0].TotalInvestment)
	assert.True(t, list[0].Succeeded())
}

func TestRecordSubmissionRequiresStatus(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	err := NewSubmissionRepository(db).RecordSubmission(context.Background(), &models.Submission{Title: "x"})
	assert.ErrorIs(t, err, ErrInvalidSubmission)
}

func TestListSubmissionsFilters(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	records := []models.Submission{
		{SessionID: "a", Status: "draft", Title: "A", Error: "timeout", CreatedAt: base},
		{SessionID: "a", Status: "draft", Title: "A", ProposalID: "p-1", CreatedAt: base.Add(time.Minute)},
		{SessionID: "b", Status: "sent", Title: "B", ProposalID: "p-2", CreatedAt: base.Add(2 * time.Minute)},
	}
	for i := range records {
		require.NoError(t, repo.RecordSubmission(ctx, &records[i]))
	}

	all, err := repo.ListSubmissions(ctx, SubmissionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "p-2", all[0].ProposalID)

	forA, err := repo.ListSubmissions(ctx, SubmissionFilter{SessionID: "a"})
	require.NoError(t, err)
	assert.Len(t, forA, 2)

	failed, err := repo.ListSubmissions(ctx, SubmissionFilter{FailedOnly: true})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "timeout", failed[0].Error)
	assert.False(t, failed[0].Succeeded())

	limited, err := repo.ListSubmissions(ctx, SubmissionFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
