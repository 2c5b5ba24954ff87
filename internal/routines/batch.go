package routines

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Lllllllleong/routinesharing/internal/models"
)

const (
	documentVersion = "1.0"
	platformName    = "Web"
)

// NewUploadID builds the identifier shared by every document of one batch.
func NewUploadID(identityID string, at time.Time) string {
	return fmt.Sprintf("%s_%d", identityID, at.UnixMilli())
}

// BuildDocuments renders a submission into one document per entry. All
// documents share the upload ID and the password hash.
func BuildDocuments(sub Submission, identityID, uploadID string, at time.Time) []models.RoutineDocument {
	hash := HashPassword(sub.Password)
	docs := make([]models.RoutineDocument, 0, len(sub.Entries))
	for _, e := range sub.Entries {
		docs = append(docs, models.RoutineDocument{
			Version:      documentVersion,
			DayOfWeek:    e.DayOfWeek,
			TimeType:     e.TimeType,
			Routines:     documentItems(e.Routines),
			AnonID:       identityID,
			UploadID:     uploadID,
			Title:        sub.Title,
			PasswordHash: hash,
			Metadata: models.Metadata{
				Platform:   platformName,
				UploadDate: at.UTC().Format(time.RFC3339Nano),
			},
		})
	}
	return docs
}

// WrittenDocument records one successful insert of a batch.
type WrittenDocument struct {
	Index      int    `json:"index"`
	DocumentID string `json:"documentId"`
}

// BatchFailure records the insert that stopped a batch.
type BatchFailure struct {
	Index int   `json:"index"`
	Err   error `json:"-"`
}

// BatchResult reports a non-atomic batch write. Documents listed in Written
// stay persisted even when Failed is set.
type BatchResult struct {
	UploadID string            `json:"uploadId"`
	Total    int               `json:"total"`
	Written  []WrittenDocument `json:"written"`
	Failed   *BatchFailure     `json:"failed,omitempty"`
}

func (r BatchResult) Complete() bool {
	return r.Failed == nil && len(r.Written) == r.Total
}

// Err folds a partial batch into a single storage error.
func (r BatchResult) Err() error {
	if r.Failed == nil {
		return nil
	}
	return &StorageError{
		Op:   fmt.Sprintf("insert (%d of %d written)", len(r.Written), r.Total),
		Kind: storageKindOf(r.Failed.Err),
		Err:  r.Failed.Err,
	}
}

// WriteBatch inserts the documents one after another and stops at the first
// failure. Earlier inserts are not rolled back.
func WriteBatch(ctx context.Context, store Store, uploadID string, docs []models.RoutineDocument) BatchResult {
	result := BatchResult{UploadID: uploadID, Total: len(docs)}
	for i, doc := range docs {
		id, err := store.Insert(ctx, doc)
		if err != nil {
			result.Failed = &BatchFailure{Index: i, Err: err}
			return result
		}
		result.Written = append(result.Written, WrittenDocument{Index: i, DocumentID: id})
	}
	return result
}

func storageKindOf(err error) StorageKind {
	var serr *StorageError
	if errors.As(err, &serr) {
		return serr.Kind
	}
	return StorageUnknown
}
