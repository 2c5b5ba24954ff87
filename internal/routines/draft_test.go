package routines

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/routinesharing/internal/models"
)

func TestAddEntry_SplitsTrimsAndNumbers(t *testing.T) {
	d := NewDraft()
	_, err := d.AddEntry("월요일", "아침", "  stretch \n\n drink water\n   \nread", "1234")
	require.NoError(t, err)

	entries := d.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, models.Monday, entries[0].DayOfWeek)
	assert.Equal(t, models.Morning, entries[0].TimeType)
	assert.Equal(t, []models.RoutineItem{
		{Name: "stretch", Order: 1},
		{Name: "drink water", Order: 2},
		{Name: "read", Order: 3},
	}, entries[0].Routines)
}

func TestAddEntry_AcceptsEnglishAliases(t *testing.T) {
	d := NewDraft()
	_, err := d.AddEntry("Friday", "evening", "journal", "0000")
	require.NoError(t, err)
	assert.Equal(t, models.Friday, d.Entries()[0].DayOfWeek)
	assert.Equal(t, models.Evening, d.Entries()[0].TimeType)
}

func TestAddEntry_Validation(t *testing.T) {
	tests := []struct {
		name, day, tt, text, password string
		field                         string
	}{
		{"missing day", "", "아침", "x", "1234", "day"},
		{"missing time", "월요일", "", "x", "1234", "time"},
		{"missing text", "월요일", "아침", "   ", "1234", "routines"},
		{"missing password", "월요일", "아침", "x", "", "password"},
		{"non digit password", "월요일", "아침", "x", "12a4", "password"},
		{"short password", "월요일", "아침", "x", "123", "password"},
		{"long password", "월요일", "아침", "x", "12345", "password"},
		{"unknown day", "someday", "아침", "x", "1234", "day"},
		{"unknown time", "월요일", "brunch", "x", "1234", "time"},
		{"only blank lines", "월요일", "아침", "\n \n", "1234", "routines"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDraft()
			_, err := d.AddEntry(tt.day, tt.tt, tt.text, tt.password)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, 0, d.Len())
			assert.False(t, d.HasPassword())
		})
	}
}

func TestAddEntry_PasswordMismatchLeavesDraftUnchanged(t *testing.T) {
	d := NewDraft()
	_, err := d.AddEntry("월요일", "아침", "stretch", "1234")
	require.NoError(t, err)
	before := d.Entries()

	_, err = d.AddEntry("화요일", "저녁", "read", "9999")
	require.ErrorIs(t, err, ErrPasswordMismatch)
	assert.Equal(t, before, d.Entries())

	_, err = d.AddEntry("화요일", "저녁", "read", "1234")
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
}

func TestRemoveEntry(t *testing.T) {
	d := NewDraft()
	_, err := d.AddEntry("월요일", "아침", "a", "1234")
	require.NoError(t, err)
	_, err = d.AddEntry("화요일", "아침", "b", "1234")
	require.NoError(t, err)

	_, err = d.RemoveEntry(5)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	_, err = d.RemoveEntry(-1)
	require.ErrorAs(t, err, &verr)

	removed, err := d.RemoveEntry(0)
	require.NoError(t, err)
	assert.Equal(t, models.Monday, removed.DayOfWeek)
	assert.True(t, d.HasPassword())

	_, err = d.RemoveEntry(0)
	require.NoError(t, err)
	assert.False(t, d.HasPassword())

	// the password requirement is released once the draft is empty
	_, err = d.AddEntry("수요일", "점심", "c", "5555")
	require.NoError(t, err)
}

func TestFinalize_SnapshotDoesNotMutateDraft(t *testing.T) {
	d := NewDraft()
	d.Title = "draft title"
	_, err := d.AddEntry("월요일", "아침", "a\nb", "1234")
	require.NoError(t, err)

	sub := d.Finalize("  ")
	assert.Equal(t, "draft title", sub.Title)
	assert.Equal(t, "1234", sub.Password)

	sub.Entries[0].Routines[0].Name = "changed"
	assert.Equal(t, "a", d.Entries()[0].Routines[0].Name)
	assert.Equal(t, 1, d.Len())

	assert.Equal(t, "override", d.Finalize(" override ").Title)
}

func TestNewDraftFromEntries(t *testing.T) {
	entries := []DraftEntry{{DayOfWeek: models.Monday, TimeType: models.Morning, Routines: []models.RoutineItem{{Name: "a", Order: 1}}}}

	_, err := NewDraftFromEntries(entries, "12")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = NewDraftFromEntries(nil, "1234")
	require.ErrorIs(t, err, ErrEmptyDraft)

	d, err := NewDraftFromEntries(entries, "1234")
	require.NoError(t, err)
	assert.Equal(t, 1, d.Len())
	_, err = d.AddEntry("화요일", "아침", "b", "4321")
	require.ErrorIs(t, err, ErrPasswordMismatch)
}

func TestDraftJSONRoundTrip(t *testing.T) {
	d := NewDraft()
	d.Title = "week"
	_, err := d.AddEntry("월요일", "아침", "a", "1234")
	require.NoError(t, err)

	data, err := json.Marshal(d)
	require.NoError(t, err)

	restored := NewDraft()
	require.NoError(t, json.Unmarshal(data, restored))
	assert.Equal(t, d.Entries(), restored.Entries())
	assert.Equal(t, "week", restored.Title)
	_, err = restored.AddEntry("화요일", "아침", "b", "9999")
	assert.ErrorIs(t, err, ErrPasswordMismatch)
}
