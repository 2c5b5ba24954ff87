package routines

import (
	"sort"
	"time"

	"github.com/Lllllllleong/routinesharing/internal/models"
)

// FoldLimit is the number of items a day shows before the rest are folded.
const FoldLimit = 10

// DefaultTitle is shown for sessions uploaded without a title.
const DefaultTitle = "익명 사용자의 일주일 루틴"

// SessionKey is the grouping key of a document: its upload ID, or its
// anonymous user ID for legacy documents uploaded before upload IDs existed.
func SessionKey(doc models.RoutineDocument) string {
	if doc.UploadID != "" {
		return doc.UploadID
	}
	return doc.AnonID
}

// Session is one upload batch. It is derived at read time and never stored.
type Session struct {
	Key       string
	Documents []models.RoutineDocument
}

// GroupSessions clusters documents by SessionKey. Sessions appear in the
// order their first document appears; members keep input order.
func GroupSessions(docs []models.RoutineDocument) []Session {
	index := make(map[string]int)
	var sessions []Session
	for _, doc := range docs {
		key := SessionKey(doc)
		i, ok := index[key]
		if !ok {
			i = len(sessions)
			index[key] = i
			sessions = append(sessions, Session{Key: key})
		}
		sessions[i].Documents = append(sessions[i].Documents, doc)
	}
	return sessions
}

func FindSession(sessions []Session, key string) (Session, bool) {
	for _, s := range sessions {
		if s.Key == key {
			return s, true
		}
	}
	return Session{}, false
}

// Document returns the member document with the given ID.
func (s Session) Document(id string) (models.RoutineDocument, bool) {
	for _, d := range s.Documents {
		if d.ID == id {
			return d, true
		}
	}
	return models.RoutineDocument{}, false
}

func (s Session) Title() string {
	if len(s.Documents) > 0 && s.Documents[0].Title != "" {
		return s.Documents[0].Title
	}
	return DefaultTitle
}

func (s Session) DayCount() int {
	days := make(map[models.Weekday]struct{})
	for _, d := range s.Documents {
		days[d.DayOfWeek] = struct{}{}
	}
	return len(days)
}

func (s Session) ItemCount() int {
	n := 0
	for _, d := range s.Documents {
		n += len(d.Routines)
	}
	return n
}

// Likes is the aggregate of the member documents' counters.
func (s Session) Likes() int {
	n := 0
	for _, d := range s.Documents {
		n += d.Likes
	}
	return n
}

func (s Session) LatestCreatedAt() time.Time {
	var latest time.Time
	for _, d := range s.Documents {
		if d.CreatedAt.After(latest) {
			latest = d.CreatedAt
		}
	}
	return latest
}

// Days groups the member documents by weekday, Monday-first. Weekdays with
// no documents are omitted.
func (s Session) Days() []DayGroup {
	byDay := make(map[models.Weekday][]models.RoutineDocument)
	for _, d := range s.Documents {
		byDay[d.DayOfWeek] = append(byDay[d.DayOfWeek], d)
	}
	var days []DayGroup
	for _, day := range models.Weekdays {
		if docs, ok := byDay[day]; ok {
			days = append(days, DayGroup{Day: day, Documents: docs})
		}
	}
	return days
}

// DayItem is a routine item annotated with its source document.
type DayItem struct {
	Name       string          `json:"name"`
	Order      int             `json:"order"`
	TimeType   models.TimeType `json:"timeType"`
	DocumentID string          `json:"documentId"`
}

type DayGroup struct {
	Day       models.Weekday
	Documents []models.RoutineDocument
}

// Items joins the day's routines ordered by time of day, then by stored
// order. Ties keep input order.
func (g DayGroup) Items() []DayItem {
	var items []DayItem
	for _, d := range g.Documents {
		for _, r := range d.Routines {
			items = append(items, DayItem{
				Name:       r.Name,
				Order:      r.Order,
				TimeType:   d.TimeType,
				DocumentID: d.ID,
			})
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := items[i].TimeType.Rank(), items[j].TimeType.Rank()
		if ri != rj {
			return ri < rj
		}
		return items[i].Order < items[j].Order
	})
	return items
}

func (g DayGroup) Count() int {
	n := 0
	for _, d := range g.Documents {
		n += len(d.Routines)
	}
	return n
}

// Folded reports whether the day has more items than FoldLimit.
func (g DayGroup) Folded() bool { return g.Count() > FoldLimit }

func (g DayGroup) HiddenCount() int {
	if n := g.Count(); n > FoldLimit {
		return n - FoldLimit
	}
	return 0
}

func (g DayGroup) Visible() []DayItem {
	items := g.Items()
	if len(items) > FoldLimit {
		return items[:FoldLimit]
	}
	return items
}

func (g DayGroup) Hidden() []DayItem {
	items := g.Items()
	if len(items) > FoldLimit {
		return items[FoldLimit:]
	}
	return nil
}
