package routines

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Lllllllleong/routinesharing/internal/models"
)

const (
	BundleVersion   = "1.0"
	filenamePrefix  = "HabitCircuit"
	defaultFileSlug = "루틴모음"
)

// BundleItem is one routine in the mobile app's import/export format.
type BundleItem struct {
	Name      string          `json:"name"`
	DayOfWeek models.Weekday  `json:"dayOfWeek"`
	TimeType  models.TimeType `json:"timeType"`
	Order     int             `json:"order"`
}

// Bundle is the portable routine file shared with the mobile app.
type Bundle struct {
	Version    string       `json:"version"`
	ExportDate string       `json:"exportDate,omitempty"`
	Routines   []BundleItem `json:"routines"`
}

// Encode renders the bundle as indented JSON.
func (b Bundle) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return nil, fmt.Errorf("failed to encode bundle: %w", err)
	}
	return buf.Bytes(), nil
}

type rawBundle struct {
	Version  json.RawMessage `json:"version"`
	Routines json.RawMessage `json:"routines"`
}

type rawItem struct {
	Name      *string  `json:"name"`
	DayOfWeek *string  `json:"dayOfWeek"`
	TimeType  *string  `json:"timeType"`
	Order     *float64 `json:"order"`
}

// ParseImportBundle validates a bundle and groups its routines by day and
// time, in the order each pair first appears. Items keep their order values.
func ParseImportBundle(data []byte) ([]DraftEntry, error) {
	var raw rawBundle
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("not a JSON object: %v", err)}
	}
	if !hasVersion(raw.Version) {
		return nil, &FormatError{Reason: "missing version"}
	}
	if len(raw.Routines) == 0 || raw.Routines[0] != '[' {
		return nil, &FormatError{Reason: "routines must be an array"}
	}
	var items []rawItem
	if err := json.Unmarshal(raw.Routines, &items); err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("malformed routines: %v", err)}
	}

	type slot struct {
		day models.Weekday
		tt  models.TimeType
	}
	index := make(map[slot]int)
	var entries []DraftEntry
	for i, it := range items {
		if it.Name == nil || it.DayOfWeek == nil || it.TimeType == nil || it.Order == nil {
			return nil, &FormatError{Reason: fmt.Sprintf("routine %d must carry name, dayOfWeek, timeType and order", i)}
		}
		name := strings.TrimSpace(*it.Name)
		if name == "" {
			return nil, &FormatError{Reason: fmt.Sprintf("routine %d has an empty name", i)}
		}
		day, ok := models.ParseWeekday(*it.DayOfWeek)
		if !ok {
			return nil, &FormatError{Reason: fmt.Sprintf("routine %d has unknown dayOfWeek %q", i, *it.DayOfWeek)}
		}
		tt, ok := models.ParseTimeType(*it.TimeType)
		if !ok {
			return nil, &FormatError{Reason: fmt.Sprintf("routine %d has unknown timeType %q", i, *it.TimeType)}
		}
		order := *it.Order
		if order < 1 || order > math.MaxInt32 || order != math.Trunc(order) {
			return nil, &FormatError{Reason: fmt.Sprintf("routine %d has invalid order %v", i, order)}
		}

		key := slot{day, tt}
		j, seen := index[key]
		if !seen {
			j = len(entries)
			index[key] = j
			entries = append(entries, DraftEntry{DayOfWeek: day, TimeType: tt})
		}
		entries[j].Routines = append(entries[j].Routines, models.RoutineItem{Name: name, Order: int(order)})
	}
	if len(entries) == 0 {
		return nil, &FormatError{Reason: "bundle has no routines"}
	}
	for i := range entries {
		rs := entries[i].Routines
		sort.SliceStable(rs, func(a, b int) bool { return rs[a].Order < rs[b].Order })
	}
	return entries, nil
}

func hasVersion(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || string(v) == "null" || string(v) == `""` || string(v) == "false" {
		return false
	}
	return true
}

// ExportSession flattens a session into a bundle. Documents keep session
// order; each document's items follow its stored order values.
func ExportSession(s Session, now time.Time) Bundle {
	b := Bundle{Version: BundleVersion, ExportDate: exportDate(now), Routines: []BundleItem{}}
	for _, d := range s.Documents {
		b.Routines = append(b.Routines, documentBundleItems(d)...)
	}
	return b
}

// ExportDocument exports a single document in the same shape.
func ExportDocument(d models.RoutineDocument, now time.Time) Bundle {
	version := d.Version
	if version == "" {
		version = BundleVersion
	}
	return Bundle{Version: version, ExportDate: exportDate(now), Routines: documentBundleItems(d)}
}

func documentBundleItems(d models.RoutineDocument) []BundleItem {
	rs := append([]models.RoutineItem(nil), d.Routines...)
	sort.SliceStable(rs, func(a, b int) bool { return rs[a].Order < rs[b].Order })
	items := make([]BundleItem, 0, len(rs))
	for _, r := range rs {
		items = append(items, BundleItem{Name: r.Name, DayOfWeek: d.DayOfWeek, TimeType: d.TimeType, Order: r.Order})
	}
	return items
}

func exportDate(now time.Time) string {
	return now.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

var slugPattern = regexp.MustCompile(`[^a-zA-Z0-9\x{AC00}-\x{D7A3}]`)

// SessionFilename is the download name of a whole session.
func SessionFilename(s Session, now time.Time) string {
	title := defaultFileSlug
	if len(s.Documents) > 0 && s.Documents[0].Title != "" {
		title = s.Documents[0].Title
	}
	return fmt.Sprintf("%s-%s-%s.json", filenamePrefix, slugPattern.ReplaceAllString(title, "-"), now.UTC().Format(time.DateOnly))
}

// DocumentFilename is the download name of a single day/time document.
func DocumentFilename(d models.RoutineDocument, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s-%s.json", filenamePrefix, d.DayOfWeek, d.TimeType, now.UTC().Format(time.DateOnly))
}
