package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/routinesharing/internal/gcp"
	"github.com/Lllllllleong/routinesharing/internal/identity"
	"github.com/Lllllllleong/routinesharing/internal/models"
	"github.com/Lllllllleong/routinesharing/internal/routines"
)

const deleteConcurrency = 10

type RoutineConfig struct {
	ProjectID        string
	CollectionName   string
	ExportBucket     string
	WorkflowID       string
	WorkflowLocation string
	AdminCode        string
	AuthTimeout      time.Duration
}

// LoadRoutineConfig reads the function configuration from the environment.
func LoadRoutineConfig() (RoutineConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return RoutineConfig{}, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	timeout, err := time.ParseDuration(gcp.GetEnv("AUTH_TIMEOUT", identity.DefaultTimeout.String()))
	if err != nil {
		return RoutineConfig{}, fmt.Errorf("AUTH_TIMEOUT is not a valid duration: %w", err)
	}
	return RoutineConfig{
		ProjectID:        projectID,
		CollectionName:   gcp.GetEnv("FIRESTORE_COLLECTION", "routines"),
		ExportBucket:     gcp.GetEnv("EXPORT_BUCKET", ""),
		WorkflowID:       gcp.GetEnv("WORKFLOW_ID", ""),
		WorkflowLocation: gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
		AdminCode:        gcp.GetEnv("ADMIN_CODE", ""),
		AuthTimeout:      timeout,
	}, nil
}

// Publisher stores an export bundle somewhere downloadable.
type Publisher interface {
	Publish(ctx context.Context, sessionKey, filename string, data []byte) (string, error)
}

// SubmitNotifier is told about every fully written upload.
type SubmitNotifier interface {
	SessionSubmitted(ctx context.Context, result routines.BatchResult) error
}

// RoutineService holds the operations shared by the HTTP API, the import
// trigger and the CLI. It keeps no per-user state.
type RoutineService struct {
	store       routines.Store
	gate        routines.Gate
	publisher   Publisher
	notifier    SubmitNotifier
	authTimeout time.Duration
	now         func() time.Time
}

type RoutineOption func(*RoutineService)

func WithGate(g routines.Gate) RoutineOption {
	return func(s *RoutineService) { s.gate = g }
}

func WithPublisher(p Publisher) RoutineOption {
	return func(s *RoutineService) { s.publisher = p }
}

func WithNotifier(n SubmitNotifier) RoutineOption {
	return func(s *RoutineService) { s.notifier = n }
}

func WithAuthTimeout(d time.Duration) RoutineOption {
	return func(s *RoutineService) { s.authTimeout = d }
}

func WithClock(now func() time.Time) RoutineOption {
	return func(s *RoutineService) { s.now = now }
}

func NewRoutineServiceWithStore(store routines.Store, opts ...RoutineOption) *RoutineService {
	s := &RoutineService{
		store:       store,
		gate:        routines.PasswordGate{},
		authTimeout: identity.DefaultTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewRoutineService wires the service to Firestore, and to GCS and Cloud
// Workflows when EXPORT_BUCKET and WORKFLOW_ID are set.
func NewRoutineService(ctx context.Context) (*RoutineService, error) {
	config, err := LoadRoutineConfig()
	if err != nil {
		return nil, err
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	opts := []RoutineOption{
		WithGate(routines.PasswordGate{AdminCode: config.AdminCode}),
		WithAuthTimeout(config.AuthTimeout),
	}

	if config.ExportBucket != "" {
		storageClient, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create Storage client: %w", err)
		}
		opts = append(opts, WithPublisher(gcp.NewExportPublisher(storageClient, config.ExportBucket)))
	}
	if config.WorkflowID != "" {
		notifier, err := gcp.NewWorkflowNotifier(ctx, config.ProjectID, config.WorkflowLocation, config.WorkflowID)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithNotifier(notifier))
	}

	s := NewRoutineServiceWithStore(gcp.NewRoutineStore(firestoreClient, config.CollectionName), opts...)
	slog.Info("Routine service initialized.",
		"collection", config.CollectionName,
		"exportBucket", config.ExportBucket,
		"workflowId", config.WorkflowID,
	)
	return s, nil
}

func (s *RoutineService) Now() time.Time { return s.now() }

// Browse lists documents and groups them into sessions, keeping the store's
// order.
func (s *RoutineService) Browse(ctx context.Context, opts routines.ListOptions) ([]models.RoutineDocument, []routines.Session, error) {
	docs, err := s.store.List(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list routines: %w", err)
	}
	return docs, routines.GroupSessions(docs), nil
}

func (s *RoutineService) Session(ctx context.Context, key string) (routines.Session, error) {
	_, sessions, err := s.Browse(ctx, routines.ListOptions{Sort: routines.SortRecent})
	if err != nil {
		return routines.Session{}, err
	}
	session, ok := routines.FindSession(sessions, key)
	if !ok {
		return routines.Session{}, routines.ErrSessionNotFound
	}
	return session, nil
}

func (s *RoutineService) Document(ctx context.Context, id string) (models.RoutineDocument, error) {
	docs, _, err := s.Browse(ctx, routines.ListOptions{Sort: routines.SortRecent})
	if err != nil {
		return models.RoutineDocument{}, err
	}
	for _, d := range docs {
		if d.ID == id {
			return d, nil
		}
	}
	return models.RoutineDocument{}, routines.ErrDocumentNotFound
}

// Submit waits for the identity, then writes one document per entry. The
// returned result is meaningful even when the error is not nil.
func (s *RoutineService) Submit(ctx context.Context, sub routines.Submission, ids identity.Source) (routines.BatchResult, error) {
	if len(sub.Entries) == 0 {
		return routines.BatchResult{}, routines.ErrEmptyDraft
	}
	if sub.Password == "" {
		return routines.BatchResult{}, &routines.ValidationError{Field: "password", Reason: "required"}
	}

	authCtx, cancel := context.WithTimeout(ctx, s.authTimeout)
	identityID, err := ids.Await(authCtx)
	cancel()
	if err != nil {
		return routines.BatchResult{}, err
	}

	at := s.now()
	uploadID := routines.NewUploadID(identityID, at)
	logCtx := slog.With("uploadId", uploadID, "entries", len(sub.Entries))
	logCtx.Info("Submitting routines.")

	docs := routines.BuildDocuments(sub, identityID, uploadID, at)
	result := routines.WriteBatch(ctx, s.store, uploadID, docs)
	if err := result.Err(); err != nil {
		logCtx.Error("Batch stopped before completion.", "written", len(result.Written), "error", err)
		return result, err
	}
	logCtx.Info("All routines written.")

	if s.notifier != nil {
		if err := s.notifier.SessionSubmitted(ctx, result); err != nil {
			logCtx.Warn("Post-submit hand-off failed.", "error", err)
		}
	}
	return result, nil
}

// Like increments the first document of the session only.
func (s *RoutineService) Like(ctx context.Context, session routines.Session) error {
	if len(session.Documents) == 0 {
		return routines.ErrSessionNotFound
	}
	id := session.Documents[0].ID
	if err := s.store.IncrementLikes(ctx, id); err != nil {
		return fmt.Errorf("failed to like session %s: %w", session.Key, err)
	}
	slog.Info("Session liked.", "sessionKey", session.Key, "documentId", id)
	return nil
}

// Delete removes every document of the session once the code is accepted.
func (s *RoutineService) Delete(ctx context.Context, session routines.Session, code string) (int, error) {
	if err := s.gate.Authorize(session, code); err != nil {
		return 0, err
	}
	return s.deleteDocuments(ctx, session)
}

// deleteDocuments runs the deletes concurrently and waits for all of them.
// Any failure is reported as one storage error; nothing is restored.
func (s *RoutineService) deleteDocuments(ctx context.Context, session routines.Session) (int, error) {
	logCtx := slog.With("sessionKey", session.Key, "documents", len(session.Documents))
	var deleted atomic.Int64

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(deleteConcurrency)
	for _, doc := range session.Documents {
		id := doc.ID
		eg.Go(func() error {
			if err := s.store.Delete(gctx, id); err != nil {
				return fmt.Errorf("document %s: %w", id, err)
			}
			deleted.Add(1)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		n := int(deleted.Load())
		logCtx.Error("Session delete incomplete.", "deleted", n, "error", err)
		kind := routines.StorageUnknown
		var serr *routines.StorageError
		if errors.As(err, &serr) {
			kind = serr.Kind
		}
		return n, &routines.StorageError{
			Op:   fmt.Sprintf("delete (%d of %d removed)", n, len(session.Documents)),
			Kind: kind,
			Err:  err,
		}
	}
	logCtx.Info("Session deleted.")
	return len(session.Documents), nil
}

// AuthorizeEdit checks the code and returns a draft seeded with the
// session's entries, ready to be resubmitted.
func (s *RoutineService) AuthorizeEdit(session routines.Session, code string) (*routines.Draft, error) {
	if err := s.gate.Authorize(session, code); err != nil {
		return nil, err
	}
	entries := make([]routines.DraftEntry, 0, len(session.Documents))
	for _, doc := range session.Documents {
		entries = append(entries, routines.DraftEntry{
			DayOfWeek: doc.DayOfWeek,
			TimeType:  doc.TimeType,
			Routines:  doc.Routines,
		})
	}
	draft, err := routines.NewDraftFromEntries(entries, code)
	if err != nil {
		return nil, err
	}
	draft.Title = session.Title()
	return draft, nil
}

// ImportDraft parses an export bundle into a draft protected by password.
func (s *RoutineService) ImportDraft(data []byte, password, title string) (*routines.Draft, error) {
	entries, err := routines.ParseImportBundle(data)
	if err != nil {
		return nil, err
	}
	draft, err := routines.NewDraftFromEntries(entries, password)
	if err != nil {
		return nil, err
	}
	draft.Title = strings.TrimSpace(title)
	return draft, nil
}

// Export is a rendered bundle together with its download filename.
type Export struct {
	Filename string
	Bundle   routines.Bundle
	Data     []byte
}

func (s *RoutineService) ExportSession(session routines.Session) (Export, error) {
	now := s.now()
	return encodeExport(routines.ExportSession(session, now), routines.SessionFilename(session, now))
}

func (s *RoutineService) ExportDocument(doc models.RoutineDocument) (Export, error) {
	now := s.now()
	return encodeExport(routines.ExportDocument(doc, now), routines.DocumentFilename(doc, now))
}

func encodeExport(bundle routines.Bundle, filename string) (Export, error) {
	data, err := bundle.Encode()
	if err != nil {
		return Export{}, fmt.Errorf("failed to encode export bundle: %w", err)
	}
	return Export{Filename: filename, Bundle: bundle, Data: data}, nil
}

// ErrNoPublisher is returned by Publish when no export bucket is configured.
var ErrNoPublisher = errors.New("no export bucket configured")

// Publish stores the session export and returns its location.
func (s *RoutineService) Publish(ctx context.Context, session routines.Session) (string, Export, error) {
	if s.publisher == nil {
		return "", Export{}, ErrNoPublisher
	}
	export, err := s.ExportSession(session)
	if err != nil {
		return "", Export{}, err
	}
	uri, err := s.publisher.Publish(ctx, session.Key, export.Filename, export.Data)
	if err != nil {
		return "", Export{}, fmt.Errorf("failed to publish export: %w", err)
	}
	slog.Info("Export published.", "sessionKey", session.Key, "uri", uri)
	return uri, export, nil
}
