package models

import (
	"strings"
	"time"
)

// Weekday is the stored weekday label of a routine document.
type Weekday string

const (
	Monday    Weekday = "월요일"
	Tuesday   Weekday = "화요일"
	Wednesday Weekday = "수요일"
	Thursday  Weekday = "목요일"
	Friday    Weekday = "금요일"
	Saturday  Weekday = "토요일"
	Sunday    Weekday = "일요일"
)

// Weekdays lists the week Monday-first. Day-ordered views follow this order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var weekdayAliases = map[string]Weekday{
	"mon": Monday, "monday": Monday,
	"tue": Tuesday, "tuesday": Tuesday,
	"wed": Wednesday, "wednesday": Wednesday,
	"thu": Thursday, "thursday": Thursday,
	"fri": Friday, "friday": Friday,
	"sat": Saturday, "saturday": Saturday,
	"sun": Sunday, "sunday": Sunday,
}

// ParseWeekday accepts a stored label or an English alias.
func ParseWeekday(s string) (Weekday, bool) {
	s = strings.TrimSpace(s)
	for _, d := range Weekdays {
		if string(d) == s {
			return d, true
		}
	}
	d, ok := weekdayAliases[strings.ToLower(s)]
	return d, ok
}

// TimeType is the time-of-day bucket a routine document belongs to.
type TimeType string

const (
	Morning TimeType = "아침"
	Midday  TimeType = "점심"
	Evening TimeType = "저녁"
)

var TimeTypes = []TimeType{Morning, Midday, Evening}

var timeTypeAliases = map[string]TimeType{
	"morning": Morning, "am": Morning,
	"midday": Midday, "noon": Midday, "lunch": Midday, "afternoon": Midday,
	"evening": Evening, "night": Evening, "pm": Evening,
}

// ParseTimeType accepts a stored label or an English alias.
func ParseTimeType(s string) (TimeType, bool) {
	s = strings.TrimSpace(s)
	for _, t := range TimeTypes {
		if string(t) == s {
			return t, true
		}
	}
	t, ok := timeTypeAliases[strings.ToLower(s)]
	return t, ok
}

// Rank orders time types within a day. Unknown values sort last.
func (t TimeType) Rank() int {
	switch t {
	case Morning:
		return 0
	case Midday:
		return 1
	case Evening:
		return 2
	}
	return len(TimeTypes)
}

// RoutineItem is one habit inside a routine document. Order is 1-based and
// fixed at creation.
type RoutineItem struct {
	Name  string `firestore:"name" json:"name"`
	Order int    `firestore:"order" json:"order"`
}

type Metadata struct {
	Platform   string `firestore:"platform" json:"platform"`
	UploadDate string `firestore:"uploadDate" json:"uploadDate"`
}

// RoutineDocument is the unit of storage: one day/time slot of one upload.
type RoutineDocument struct {
	ID           string        `firestore:"-" json:"id"`
	Version      string        `firestore:"version,omitempty" json:"version,omitempty"`
	DayOfWeek    Weekday       `firestore:"dayOfWeek" json:"dayOfWeek"`
	TimeType     TimeType      `firestore:"timeType" json:"timeType"`
	Routines     []RoutineItem `firestore:"routines" json:"routines"`
	AnonID       string        `firestore:"anonId" json:"anonId"`
	UploadID     string        `firestore:"uploadId" json:"uploadId"`
	CreatedAt    time.Time     `firestore:"createdAt,serverTimestamp" json:"createdAt"`
	Likes        int           `firestore:"likes" json:"likes"`
	Title        string        `firestore:"title" json:"title"`
	PasswordHash string        `firestore:"passwordHash" json:"-"`
	Metadata     Metadata      `firestore:"metadata" json:"metadata"`
}
