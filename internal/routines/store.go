package routines

import (
	"context"
	"fmt"
	"strings"

	"github.com/Lllllllleong/routinesharing/internal/models"
)

// SortOrder selects the listing order of the store.
type SortOrder string

const (
	SortRecent  SortOrder = "recent"
	SortPopular SortOrder = "popular"
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortRecent:
		return SortRecent, nil
	case SortPopular:
		return SortPopular, nil
	}
	return "", &ValidationError{Field: "sort", Reason: fmt.Sprintf("unknown sort %q", s)}
}

// ListOptions narrows a listing. Day and Time are optional equality filters.
type ListOptions struct {
	Sort SortOrder
	Day  models.Weekday
	Time models.TimeType
}

// Store is the document database collaborator.
type Store interface {
	List(ctx context.Context, opts ListOptions) ([]models.RoutineDocument, error)
	Insert(ctx context.Context, doc models.RoutineDocument) (string, error)
	IncrementLikes(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
