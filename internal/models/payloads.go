package models

import "encoding/json"

// These structs define the JSON payloads of the routine HTTP API.

// UploadEntry is one day/time slot as typed by the user; Text holds one
// routine per line.
type UploadEntry struct {
	DayOfWeek string `json:"dayOfWeek"`
	TimeType  string `json:"timeType"`
	Text      string `json:"text"`
}

// UploadRequest is the body of POST /uploads.
type UploadRequest struct {
	Title    string        `json:"title"`
	Password string        `json:"password"`
	Entries  []UploadEntry `json:"entries"`
}

// ImportRequest is the body of POST /imports. Bundle is an export file as is.
type ImportRequest struct {
	Title    string          `json:"title"`
	Password string          `json:"password"`
	Bundle   json.RawMessage `json:"bundle"`
}

// CodeRequest carries the session password for edit and delete.
type CodeRequest struct {
	Code string `json:"code"`
}

type DeleteResponse struct {
	Deleted int `json:"deleted"`
}

// EditEntry is one slot of a session loaded back for editing.
type EditEntry struct {
	DayOfWeek Weekday       `json:"dayOfWeek"`
	TimeType  TimeType      `json:"timeType"`
	Routines  []RoutineItem `json:"routines"`
}

type EditResponse struct {
	Title   string      `json:"title"`
	Entries []EditEntry `json:"entries"`
}

type PublishResponse struct {
	URI      string `json:"uri"`
	Filename string `json:"filename"`
}
