package routines

import (
	"errors"
	"fmt"
)

var (
	ErrPasswordMismatch  = errors.New("password does not match the draft password")
	ErrAuthTimeout       = errors.New("anonymous identity was not resolved in time")
	ErrAuthFailed        = errors.New("anonymous identity could not be resolved")
	ErrWrongPassword     = errors.New("password does not match")
	ErrSessionNotFound   = errors.New("session not found")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrAlreadyLikedToday = errors.New("session already liked today")
	ErrEmptyDraft        = errors.New("draft has no entries")
)

// ValidationError reports missing or malformed user input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// FormatError reports a malformed import bundle.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "malformed routine bundle: " + e.Reason
}

// StorageKind distinguishes storage failures that deserve a specific message.
type StorageKind int

const (
	StorageUnknown StorageKind = iota
	StoragePermissionDenied
	StorageUnavailable
	StorageNotFound
)

func (k StorageKind) String() string {
	switch k {
	case StoragePermissionDenied:
		return "permission-denied"
	case StorageUnavailable:
		return "unavailable"
	case StorageNotFound:
		return "not-found"
	}
	return "unknown"
}

// StorageError wraps a failure of the document store.
type StorageError struct {
	Op   string
	Kind StorageKind
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Notice converts any error into the short message shown to the user.
func Notice(err error) string {
	if err == nil {
		return ""
	}
	var (
		verr *ValidationError
		ferr *FormatError
		serr *StorageError
	)
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.As(err, &ferr):
		return "This is not a valid routine file."
	case errors.Is(err, ErrPasswordMismatch):
		return "Use the same password you entered for the first entry."
	case errors.Is(err, ErrAuthTimeout), errors.Is(err, ErrAuthFailed):
		return "Sign-in failed. Reload and try again."
	case errors.Is(err, ErrWrongPassword):
		return "The password does not match."
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrDocumentNotFound):
		return "That routine no longer exists."
	case errors.Is(err, ErrAlreadyLikedToday):
		return "You already liked this today. Try again tomorrow!"
	case errors.Is(err, ErrEmptyDraft):
		return "No routines have been added yet."
	case errors.As(err, &serr):
		switch serr.Kind {
		case StoragePermissionDenied:
			return "Permission denied. Check the database access rules."
		case StorageUnavailable:
			return "Cannot reach the server. Check your connection."
		}
		return "Something went wrong while talking to the server."
	}
	return "Something went wrong: " + err.Error()
}
