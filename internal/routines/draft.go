package routines

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Lllllllleong/routinesharing/internal/models"
)

// DraftEntry is one day/time slot waiting to be uploaded.
type DraftEntry struct {
	DayOfWeek models.Weekday       `json:"dayOfWeek"`
	TimeType  models.TimeType      `json:"timeType"`
	Routines  []models.RoutineItem `json:"routines"`
}

func (e DraftEntry) clone() DraftEntry {
	e.Routines = append([]models.RoutineItem(nil), e.Routines...)
	return e
}

// Draft accumulates entries before a single batch submission. Every entry in
// a draft shares one password, fixed by the first entry.
type Draft struct {
	Title    string
	entries  []DraftEntry
	password string
}

func NewDraft() *Draft { return &Draft{} }

// NewDraftFromEntries seeds a draft from imported or existing entries.
func NewDraftFromEntries(entries []DraftEntry, password string) (*Draft, error) {
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrEmptyDraft
	}
	d := &Draft{password: password}
	for _, e := range entries {
		d.entries = append(d.entries, e.clone())
	}
	return d, nil
}

func (d *Draft) Entries() []DraftEntry {
	out := make([]DraftEntry, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.clone()
	}
	return out
}

func (d *Draft) Len() int { return len(d.entries) }

// HasPassword reports whether the draft already fixed its password.
func (d *Draft) HasPassword() bool { return d.password != "" }

// AddEntry validates one day/time entry and appends it. rawText holds one
// routine per line; blank lines are ignored. On error the draft is unchanged.
func (d *Draft) AddEntry(day, timeType, rawText, password string) (*Draft, error) {
	switch {
	case strings.TrimSpace(day) == "":
		return d, &ValidationError{Field: "day", Reason: "required"}
	case strings.TrimSpace(timeType) == "":
		return d, &ValidationError{Field: "time", Reason: "required"}
	case strings.TrimSpace(rawText) == "":
		return d, &ValidationError{Field: "routines", Reason: "required"}
	}
	if err := validatePassword(password); err != nil {
		return d, err
	}
	weekday, ok := models.ParseWeekday(day)
	if !ok {
		return d, &ValidationError{Field: "day", Reason: fmt.Sprintf("unknown weekday %q", day)}
	}
	tt, ok := models.ParseTimeType(timeType)
	if !ok {
		return d, &ValidationError{Field: "time", Reason: fmt.Sprintf("unknown time of day %q", timeType)}
	}

	var items []models.RoutineItem
	for _, line := range strings.Split(rawText, "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		items = append(items, models.RoutineItem{Name: name, Order: len(items) + 1})
	}
	if len(items) == 0 {
		return d, &ValidationError{Field: "routines", Reason: "enter at least one routine"}
	}

	if d.password == "" {
		d.password = password
	} else if d.password != password {
		return d, ErrPasswordMismatch
	}
	d.entries = append(d.entries, DraftEntry{DayOfWeek: weekday, TimeType: tt, Routines: items})
	return d, nil
}

// RemoveEntry drops the entry at index. Emptying the draft releases its
// password.
func (d *Draft) RemoveEntry(index int) (DraftEntry, error) {
	if index < 0 || index >= len(d.entries) {
		return DraftEntry{}, &ValidationError{Field: "index", Reason: fmt.Sprintf("no entry at %d", index)}
	}
	removed := d.entries[index]
	d.entries = append(d.entries[:index:index], d.entries[index+1:]...)
	if len(d.entries) == 0 {
		d.password = ""
	}
	return removed, nil
}

// Reset empties the draft after a successful submission or a cancel.
func (d *Draft) Reset() {
	d.Title = ""
	d.entries = nil
	d.password = ""
}

// Submission is an immutable snapshot of a draft, ready to be written.
type Submission struct {
	Title    string
	Password string
	Entries  []DraftEntry
}

// Finalize snapshots the draft for preview and submission. An empty title
// falls back to the draft's own title.
func (d *Draft) Finalize(title string) Submission {
	title = strings.TrimSpace(title)
	if title == "" {
		title = strings.TrimSpace(d.Title)
	}
	return Submission{Title: title, Password: d.password, Entries: d.Entries()}
}

// documentItems numbers the entry's routines 1..N in their order sequence.
func documentItems(items []models.RoutineItem) []models.RoutineItem {
	sorted := append([]models.RoutineItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	for i := range sorted {
		sorted[i].Order = i + 1
	}
	return sorted
}

type draftJSON struct {
	Title    string       `json:"title,omitempty"`
	Password string       `json:"password,omitempty"`
	Entries  []DraftEntry `json:"entries"`
}

func (d *Draft) MarshalJSON() ([]byte, error) {
	return json.Marshal(draftJSON{Title: d.Title, Password: d.password, Entries: d.entries})
}

func (d *Draft) UnmarshalJSON(data []byte) error {
	var raw draftJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Title = raw.Title
	d.password = raw.Password
	d.entries = raw.Entries
	return nil
}
