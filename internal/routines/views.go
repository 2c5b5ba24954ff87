package routines

import (
	"time"

	"github.com/Lllllllleong/routinesharing/internal/models"
)

// SessionSummary is the card shown in the browse list.
type SessionSummary struct {
	Key          string    `json:"key"`
	Title        string    `json:"title"`
	DayCount     int       `json:"dayCount"`
	ItemCount    int       `json:"itemCount"`
	Likes        int       `json:"likes"`
	LatestUpload time.Time `json:"latestUpload"`
	LikedToday   bool      `json:"likedToday"`
}

func Summarize(s Session) SessionSummary {
	return SessionSummary{
		Key:          s.Key,
		Title:        s.Title(),
		DayCount:     s.DayCount(),
		ItemCount:    s.ItemCount(),
		Likes:        s.Likes(),
		LatestUpload: s.LatestCreatedAt(),
	}
}

// DayView is one weekday of the session detail view.
type DayView struct {
	Day         models.Weekday `json:"day"`
	Total       int            `json:"total"`
	Folded      bool           `json:"folded"`
	Visible     []DayItem      `json:"visible"`
	Hidden      []DayItem      `json:"hidden,omitempty"`
	HiddenCount int            `json:"hiddenCount"`
}

type SessionDetail struct {
	SessionSummary
	Days      []DayView                `json:"days"`
	Documents []models.RoutineDocument `json:"documents"`
}

func Detail(s Session) SessionDetail {
	detail := SessionDetail{SessionSummary: Summarize(s), Documents: s.Documents}
	for _, g := range s.Days() {
		detail.Days = append(detail.Days, DayView{
			Day:         g.Day,
			Total:       g.Count(),
			Folded:      g.Folded(),
			Visible:     g.Visible(),
			Hidden:      g.Hidden(),
			HiddenCount: g.HiddenCount(),
		})
	}
	return detail
}
