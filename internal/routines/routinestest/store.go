// Package routinestest provides an in-memory routines.Store for tests.
package routinestest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Lllllllleong/routinesharing/internal/models"
	"github.com/Lllllllleong/routinesharing/internal/routines"
)

// Store keeps documents in memory. Fail hooks inject errors per call.
type Store struct {
	mu     sync.Mutex
	docs   map[string]models.RoutineDocument
	seq    int
	clock  func() time.Time
	calls  map[string]int
	FailOn func(op string, call int, id string) error
}

func NewStore(docs ...models.RoutineDocument) *Store {
	s := &Store{
		docs:  make(map[string]models.RoutineDocument),
		calls: make(map[string]int),
		clock: time.Now,
	}
	for _, d := range docs {
		if d.ID == "" {
			s.seq++
			d.ID = fmt.Sprintf("doc-%03d", s.seq)
		}
		s.docs[d.ID] = d
	}
	return s
}

// SetClock replaces the clock used to stamp inserted documents.
func (s *Store) SetClock(clock func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock
}

func (s *Store) fail(op, id string) error {
	s.calls[op]++
	if s.FailOn == nil {
		return nil
	}
	return s.FailOn(op, s.calls[op], id)
}

func (s *Store) List(ctx context.Context, opts routines.ListOptions) ([]models.RoutineDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("list", ""); err != nil {
		return nil, err
	}
	var out []models.RoutineDocument
	for _, d := range s.docs {
		if opts.Day != "" && d.DayOfWeek != opts.Day {
			continue
		}
		if opts.Time != "" && d.TimeType != opts.Time {
			continue
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if opts.Sort == routines.SortPopular && out[i].Likes != out[j].Likes {
			return out[i].Likes > out[j].Likes
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) Insert(ctx context.Context, doc models.RoutineDocument) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("insert", ""); err != nil {
		return "", err
	}
	s.seq++
	doc.ID = fmt.Sprintf("doc-%03d", s.seq)
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = s.clock()
	}
	s.docs[doc.ID] = doc
	return doc.ID, nil
}

func (s *Store) IncrementLikes(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("like", id); err != nil {
		return err
	}
	d, ok := s.docs[id]
	if !ok {
		return &routines.StorageError{Op: "like", Kind: routines.StorageNotFound, Err: routines.ErrDocumentNotFound}
	}
	d.Likes++
	s.docs[id] = d
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("delete", id); err != nil {
		return err
	}
	delete(s.docs, id)
	return nil
}

// Get returns a stored document.
func (s *Store) Get(id string) (models.RoutineDocument, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	return d, ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}
