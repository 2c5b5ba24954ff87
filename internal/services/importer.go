package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/Lllllllleong/routinesharing/internal/gcp"
	"github.com/Lllllllleong/routinesharing/internal/identity"
	"github.com/Lllllllleong/routinesharing/internal/routines"
)

// Object metadata keys read from an uploaded bundle.
const (
	MetadataPassword = "password"
	MetadataTitle    = "title"
	MetadataAnonID   = "anonId"
)

// ObjectReader fetches an object and its custom metadata.
type ObjectReader interface {
	ReadObject(ctx context.Context, bucket, object string) ([]byte, map[string]string, error)
}

type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// BundleImporterFunction turns export bundles dropped into a bucket into new
// sessions.
type BundleImporterFunction struct {
	objects  ObjectReader
	routines *RoutineService
}

func NewBundleImporterWith(objects ObjectReader, svc *RoutineService) *BundleImporterFunction {
	return &BundleImporterFunction{objects: objects, routines: svc}
}

func NewBundleImporter(ctx context.Context) (*BundleImporterFunction, error) {
	svc, err := NewRoutineService(ctx)
	if err != nil {
		return nil, err
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	slog.Info("Bundle importer initialized.")
	return NewBundleImporterWith(gcp.NewObjectReader(storageClient), svc), nil
}

// Process imports one bundle. Objects that are not JSON are skipped. The
// anonymous id falls back to one derived from the object path.
func (f *BundleImporterFunction) Process(ctx context.Context, e GCSEvent) (routines.BatchResult, error) {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)
	if !strings.EqualFold(path.Ext(e.Name), ".json") {
		logCtx.Info("Not a routine bundle. Skipping.")
		return routines.BatchResult{}, nil
	}
	logCtx.Info("Processing new GCS object.")

	data, metadata, err := f.objects.ReadObject(ctx, e.Bucket, e.Name)
	if err != nil {
		logCtx.Error("Failed to download bundle", "error", err)
		return routines.BatchResult{}, err
	}

	password := metadata[MetadataPassword]
	if password == "" {
		logCtx.Error("Bundle has no password metadata.")
		return routines.BatchResult{}, &routines.ValidationError{Field: "password", Reason: "object metadata must carry a password"}
	}
	draft, err := f.routines.ImportDraft(data, password, metadata[MetadataTitle])
	if err != nil {
		logCtx.Error("Failed to parse bundle", "error", err)
		return routines.BatchResult{}, err
	}

	anonID := metadata[MetadataAnonID]
	if anonID == "" {
		anonID = uuid.NewSHA1(uuid.NameSpaceURL, []byte("gs://"+e.Bucket+"/"+e.Name)).String()
	}
	result, err := f.routines.Submit(ctx, draft.Finalize(""), identity.Resolved(anonID))
	if err != nil {
		return result, err
	}
	logCtx.Info("Bundle imported.", "uploadId", result.UploadID, "documents", result.Total)
	return result, nil
}

// Retryable reports whether the runtime should redeliver the event. Rejected
// bundles never parse on retry, and a partially written batch would be
// duplicated.
func Retryable(result routines.BatchResult, err error) bool {
	if err == nil || len(result.Written) > 0 {
		return false
	}
	var (
		verr *routines.ValidationError
		ferr *routines.FormatError
	)
	switch {
	case errors.As(err, &verr), errors.As(err, &ferr), errors.Is(err, routines.ErrEmptyDraft):
		return false
	}
	return true
}
