// ABOUTME: Tests for answers files, speaker selection, token input, and the root command
// ABOUTME: Uses temp files for YAML input
package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/podium/models"
	"github.com/harperreed/podium/wizard"
)

func writeAnswers(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "answers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAnswers(t *testing.T) {
	path := writeAnswers(t, `
deal_id: d1
event_title: Leadership Summit
event_date: 2026-06-01
attendee_count: 250
budget: 25000.50
speakers: [s1, s2]
services:
  - name: Keynote
    price: 12000
    included: true
    locked: true
valid_days: 14
`)

	a, err := LoadAnswers(path)
	require.NoError(t, err)
	assert.Equal(t, "d1", a.DealID)
	require.NotNil(t, a.Budget)
	assert.Equal(t, models.Cents(2500050), *a.Budget)
	assert.Equal(t, []string{"s1", "s2"}, a.Speakers)
	require.Len(t, a.Services, 1)
	assert.Equal(t, models.FromMajor(12000), a.Services[0].Price)
	assert.True(t, a.Services[0].Locked)
	require.NotNil(t, a.ValidDays)
	assert.Equal(t, 14, *a.ValidDays)
}

func TestLoadAnswersRejectsUnknownKeys(t *testing.T) {
	path := writeAnswers(t, "event_titel: Typo\n")

	_, err := LoadAnswers(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event_titel")
}

func TestLoadAnswersValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad date", "event_date: next tuesday\n", "event_date"},
		{"negative attendees", "attendee_count: -1\n", "attendee_count"},
		{"negative budget", "budget: -10\n", "budget"},
		{"unnamed service", "services:\n  - price: 10\n", "services[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadAnswers(writeAnswers(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAnswersPatchOnlySetsPresentFields(t *testing.T) {
	zero := 0
	a := &Answers{EventTitle: "Summit", EventDate: "2026-06-01", AttendeeCount: &zero}

	data := a.Patch().Apply(models.WizardData{ClientName: "Ada", AttendeeCount: 300})
	assert.Equal(t, "Ada", data.ClientName)
	assert.Equal(t, "Summit", data.EventTitle)
	assert.Equal(t, 0, data.AttendeeCount, "explicit zero overrides")
	require.NotNil(t, data.EventDate)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), *data.EventDate)
}

func TestSelectSpeakers(t *testing.T) {
	patch, err := selectSpeakers(speakers(), []string{"s2", "s1", "s2"})
	require.NoError(t, err)

	data := patch.Apply(models.NewWizardData())
	require.Len(t, data.SelectedSpeakers, 2)
	assert.Equal(t, "s2", data.SelectedSpeakers[0].ID)
	assert.Equal(t, models.FromMajor(20000), data.SelectedSpeakers[0].Fee)

	_, err = selectSpeakers(speakers(), nil)
	assert.ErrorIs(t, err, wizard.ErrNoSpeakers)

	_, err = selectSpeakers(speakers(), []string{"x", "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "x, y")
}

func TestReadTokenFromPipe(t *testing.T) {
	var out bytes.Buffer
	token, err := readToken(strings.NewReader("  secret-token \nignored\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", token)
	assert.Empty(t, out.String(), "no prompt without a terminal")

	token, err = readToken(strings.NewReader(""), &out)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestRootCommandVersion(t *testing.T) {
	var out bytes.Buffer
	err := Execute("1.2.3", []string{"--version"}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "1.2.3")
}

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand("dev", &App{})

	for _, path := range [][]string{
		{"deals"},
		{"match"},
		{"proposal", "create"},
		{"proposal", "history"},
		{"sessions", "list"},
		{"sessions", "discard"},
		{"sessions", "prune"},
		{"wizard"},
		{"login"},
		{"logout"},
		{"mcp"},
		{"sync", "status"},
		{"sync", "now"},
		{"sync", "wipe"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, strings.Join(path, " "))
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
