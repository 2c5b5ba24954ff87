package main

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/routinesharing/internal/models"
	"github.com/Lllllllleong/routinesharing/internal/routines"
)

func longSession() routines.Session {
	var items []models.RoutineItem
	for i := 1; i <= 12; i++ {
		items = append(items, models.RoutineItem{Name: fmt.Sprintf("habit %d", i), Order: i})
	}
	doc := models.RoutineDocument{ID: "d1", UploadID: "u1", DayOfWeek: models.Monday, TimeType: models.Morning, Routines: items, Title: "Long day", Likes: 3}
	return routines.GroupSessions([]models.RoutineDocument{doc})[0]
}

func TestRenderDetail_Folds(t *testing.T) {
	var buf bytes.Buffer
	renderDetail(&buf, routines.Detail(longSession()), false)
	out := buf.String()
	assert.Contains(t, out, "Long day  (3 likes)")
	assert.Contains(t, out, "habit 10")
	assert.NotContains(t, out, "habit 11")
	assert.Contains(t, out, "... 2 more (--all)")

	buf.Reset()
	renderDetail(&buf, routines.Detail(longSession()), true)
	assert.Contains(t, buf.String(), "habit 12")
	assert.NotContains(t, buf.String(), "more (--all)")
}

func TestRenderSummaries(t *testing.T) {
	var buf bytes.Buffer
	renderSummaries(&buf, nil)
	assert.Equal(t, "No routines shared yet.\n", buf.String())

	buf.Reset()
	summary := routines.Summarize(longSession())
	summary.LikedToday = true
	renderSummaries(&buf, []routines.SessionSummary{summary})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "u1")
	assert.Contains(t, lines[1], "3 ♥")
}

func TestRenderDraft(t *testing.T) {
	var buf bytes.Buffer
	d := routines.NewDraft()
	renderDraft(&buf, d, "")
	assert.Contains(t, buf.String(), "The draft is empty.")

	_, err := d.AddEntry("tuesday", "midday", "walk\nlunch", "1234")
	require.NoError(t, err)
	buf.Reset()
	renderDraft(&buf, d, "u1")
	out := buf.String()
	assert.Contains(t, out, "Editing u1")
	assert.Contains(t, out, "1. 화요일 점심")
	assert.Contains(t, out, "2. lunch")
}

func TestRenderBatch(t *testing.T) {
	var buf bytes.Buffer
	renderBatch(&buf, routines.BatchResult{UploadID: "a_1", Total: 2, Written: []routines.WrittenDocument{{Index: 0}, {Index: 1}}})
	assert.Equal(t, "Uploaded 2 documents as a_1.\n", buf.String())

	buf.Reset()
	renderBatch(&buf, routines.BatchResult{UploadID: "a_1", Total: 2, Written: []routines.WrittenDocument{{Index: 0}}, Failed: &routines.BatchFailure{Index: 1}})
	assert.Contains(t, buf.String(), "Uploaded 1 of 2")
}
