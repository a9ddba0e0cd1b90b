// ABOUTME: Tests for the service package step
// ABOUTME: Verifies attendee-based defaults, pure package operations, and locked items
package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/podium/models"
)

func dataWith(attendees int, fees ...int64) models.WizardData {
	data := models.NewWizardData()
	data.AttendeeCount = attendees
	for i, f := range fees {
		data.SelectedSpeakers = append(data.SelectedSpeakers, models.SelectedSpeaker{
			ID:  string(rune('a' + i)),
			Fee: models.FromMajor(f),
		})
	}
	return data
}

func names(p Package) []string {
	out := make([]string, 0, len(p))
	for _, item := range p {
		out = append(out, item.Name)
	}
	return out
}

func find(t *testing.T, p Package, name string) models.ServiceLineItem {
	t.Helper()
	for _, item := range p {
		if item.Name == name {
			return item
		}
	}
	t.Fatalf("no item named %q in %v", name, names(p))
	return models.ServiceLineItem{}
}

func TestDefaultsByAttendeeCount(t *testing.T) {
	tests := []struct {
		name      string
		attendees int
		expected  []string
	}{
		{
			name:      "small event",
			attendees: 50,
			expected:  []string{DefaultSessionName, "Pre-event consultation", "Customized presentation"},
		},
		{
			name:      "exactly one hundred gets no Q&A",
			attendees: 100,
			expected:  []string{DefaultSessionName, "Pre-event consultation", "Customized presentation"},
		},
		{
			name:      "over one hundred",
			attendees: 101,
			expected:  []string{DefaultSessionName, "Pre-event consultation", "Customized presentation", "Q&A session (15-20 min)"},
		},
		{
			name:      "two hundred",
			attendees: 200,
			expected: []string{DefaultSessionName, "Pre-event consultation", "Customized presentation", "Q&A session (15-20 min)",
				"Executive roundtable", "Post-event recording rights"},
		},
		{
			name:      "five hundred",
			attendees: 500,
			expected: []string{DefaultSessionName, "Pre-event consultation", "Customized presentation", "Q&A session (15-20 min)",
				"Executive roundtable", "Post-event recording rights", "Book signing session"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, names(Defaults(dataWith(tt.attendees, 10000))))
		})
	}
}

func TestDefaultsPricing(t *testing.T) {
	pkg := Defaults(dataWith(250, 10000, 5000))

	base := find(t, pkg, DefaultSessionName)
	assert.Equal(t, models.FromMajor(15000), base.Price)
	assert.True(t, base.Included)
	assert.True(t, base.Locked)

	roundtable := find(t, pkg, "Executive roundtable")
	assert.Equal(t, models.FromMajor(3000), roundtable.Price)
	assert.False(t, roundtable.Included)

	recording := find(t, pkg, "Post-event recording rights")
	assert.Equal(t, models.FromMajor(1500), recording.Price)
	assert.False(t, recording.Included)

	assert.True(t, find(t, pkg, "Pre-event consultation").Locked)
	assert.False(t, find(t, pkg, "Customized presentation").Locked)

	assert.Equal(t, models.FromMajor(15000), pkg.Total())
}

func TestDefaultsPercentRoundsToWholeUnits(t *testing.T) {
	data := dataWith(200)
	data.SelectedSpeakers = []models.SelectedSpeaker{{ID: "a", Fee: 1234567}}

	pkg := Defaults(data)

	// 20% of 12,345.67 is 2,469.13, kept as whole units.
	assert.Equal(t, models.FromMajor(2469), find(t, pkg, "Executive roundtable").Price)
	assert.Equal(t, models.FromMajor(1235), find(t, pkg, "Post-event recording rights").Price)
}

func TestDefaultsBookSigning(t *testing.T) {
	pkg := Defaults(dataWith(800, 20000))
	item := find(t, pkg, "Book signing session")
	assert.Equal(t, models.FromMajor(1000), item.Price)
	assert.False(t, item.Included)
}

func TestBaseItemUsesSessionFormat(t *testing.T) {
	data := dataWith(10, 5000)
	data.SessionFormat = "Fireside Chat"

	pkg := Defaults(data)
	assert.Equal(t, "Fireside Chat", pkg[0].Name)
}

func TestEnsureKeepsExistingServices(t *testing.T) {
	data := dataWith(300, 10000)
	data.Services = []models.ServiceLineItem{{Name: "Custom", Price: models.FromMajor(1), Included: true}}

	pkg := Ensure(data)
	assert.Equal(t, []string{"Custom"}, names(pkg))

	data.Services = nil
	assert.Len(t, Ensure(data), 6)
}

func TestToggleTwiceRestores(t *testing.T) {
	pkg := Defaults(dataWith(250, 10000, 5000))

	once, err := pkg.Toggle(4)
	require.NoError(t, err)
	assert.NotEqual(t, pkg.Total(), once.Total())

	twice, err := once.Toggle(4)
	require.NoError(t, err)
	assert.Equal(t, pkg, twice)
	assert.Equal(t, pkg.Total(), twice.Total())
}

func TestTotalCountsOnlyIncluded(t *testing.T) {
	pkg := Package{
		{Name: "a", Price: models.FromMajor(100), Included: true},
		{Name: "b", Price: models.FromMajor(50)},
		{Name: "c", Price: 1999, Included: true},
	}
	assert.Equal(t, models.Cents(11999), pkg.Total())
}

func TestLockedItemsCannotBeRemoved(t *testing.T) {
	pkg := Defaults(dataWith(50, 10000))

	_, err := pkg.Remove(0)
	assert.ErrorIs(t, err, ErrLocked)
	_, err = pkg.Remove(1)
	assert.ErrorIs(t, err, ErrLocked)

	out, err := pkg.Remove(2)
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Len(t, pkg, 3, "original package is unchanged")
}

func TestRenamedLockedItemStillLocked(t *testing.T) {
	pkg := Defaults(dataWith(50, 10000))

	renamed, err := pkg.Edit(0, "Workshop", "Half-day workshop", models.FromMajor(8000))
	require.NoError(t, err)
	assert.Equal(t, "Workshop", renamed[0].Name)
	assert.Equal(t, models.FromMajor(8000), renamed[0].Price)

	_, err = renamed.Remove(0)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestAddAppendsUnincludedItem(t *testing.T) {
	pkg := Defaults(dataWith(50, 10000))
	before := pkg.Total()

	out := pkg.Add("Travel", "Flights and hotel")
	require.Len(t, out, len(pkg)+1)
	last := out[len(out)-1]
	assert.Equal(t, "Travel", last.Name)
	assert.False(t, last.Included)
	assert.Zero(t, last.Price)
	assert.Equal(t, before, out.Total())
}

func TestOperationsRejectBadIndex(t *testing.T) {
	pkg := Defaults(dataWith(50))

	_, err := pkg.Toggle(-1)
	assert.ErrorIs(t, err, ErrIndex)
	_, err = pkg.Edit(99, "x", "", 0)
	assert.ErrorIs(t, err, ErrIndex)
	_, err = pkg.Remove(len(pkg))
	assert.ErrorIs(t, err, ErrIndex)
}

func TestContinue(t *testing.T) {
	pkg := Defaults(dataWith(250, 10000, 5000))

	patch, err := Continue(pkg, "Net 30", 14)
	require.NoError(t, err)

	data := patch.Apply(models.NewWizardData())
	assert.Equal(t, models.FromMajor(15000), data.TotalInvestment)
	assert.Equal(t, "Net 30", data.PaymentTerms)
	assert.Equal(t, 14, data.ValidDays)
	assert.Len(t, data.Services, len(pkg))
}

func TestContinueRejectsNonPositiveValidDays(t *testing.T) {
	for _, days := range []int{0, -3} {
		_, err := Continue(Defaults(dataWith(50)), "", days)
		assert.ErrorIs(t, err, ErrValidDays)
	}
}
