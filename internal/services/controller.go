package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/routinesharing/internal/identity"
	"github.com/Lllllllleong/routinesharing/internal/ledger"
	"github.com/Lllllllleong/routinesharing/internal/localstore"
	"github.com/Lllllllleong/routinesharing/internal/models"
	"github.com/Lllllllleong/routinesharing/internal/routines"
)

// PendingUploadKey is where the unsent draft survives between runs.
const PendingUploadKey = "pendingUpload"

type IntentKind string

const (
	IntentViewSession            IntentKind = "viewSession"
	IntentLikeSession            IntentKind = "likeSession"
	IntentDeleteSession          IntentKind = "deleteSession"
	IntentEditSession            IntentKind = "editSession"
	IntentRemoveDraftEntry       IntentKind = "removeDraftEntry"
	IntentDownloadSession        IntentKind = "downloadSession"
	IntentDownloadSingleDocument IntentKind = "downloadSingleDocument"
)

// Intent is a user action raised by a view. Only the fields relevant to
// Kind are read.
type Intent struct {
	Kind       IntentKind
	SessionKey string
	DocumentID string
	Code       string
	Index      int
}

// Outcome is what a view needs to render after an intent.
type Outcome struct {
	Notice  string
	Detail  *routines.SessionDetail
	Removed *routines.DraftEntry
	Export  *Export
	Deleted int
}

// AppState is everything the client shows. Replacing names the session an
// edit will supersede once the draft is submitted.
type AppState struct {
	Sort      routines.SortOrder
	Documents []models.RoutineDocument
	Sessions  []routines.Session
	Draft     *routines.Draft
	Replacing string
}

type intentHandler func(ctx context.Context, in Intent) (Outcome, error)

// Controller drives one client. It is not safe for concurrent use.
type Controller struct {
	svc     *RoutineService
	likes   *ledger.Ledger
	ids     identity.Source
	kv      localstore.KV
	filter  routines.ListOptions
	state   AppState
	intents map[IntentKind]intentHandler
}

type pendingUpload struct {
	Draft     *routines.Draft `json:"draft"`
	Replacing string          `json:"replacing,omitempty"`
}

// NewController restores any pending draft from kv.
func NewController(ctx context.Context, svc *RoutineService, likes *ledger.Ledger, ids identity.Source, kv localstore.KV) (*Controller, error) {
	c := &Controller{
		svc:   svc,
		likes: likes,
		ids:   ids,
		kv:    kv,
		state: AppState{Sort: routines.SortRecent, Draft: routines.NewDraft()},
	}
	c.intents = map[IntentKind]intentHandler{
		IntentViewSession:            c.viewSession,
		IntentLikeSession:            c.likeSession,
		IntentDeleteSession:          c.deleteSession,
		IntentEditSession:            c.editSession,
		IntentRemoveDraftEntry:       c.removeDraftEntry,
		IntentDownloadSession:        c.downloadSession,
		IntentDownloadSingleDocument: c.downloadSingleDocument,
	}

	raw, ok, err := kv.Get(ctx, PendingUploadKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending upload: %w", err)
	}
	if ok {
		var saved pendingUpload
		if err := json.Unmarshal(raw, &saved); err != nil || saved.Draft == nil {
			slog.Warn("Discarding unreadable pending upload.", "error", err)
		} else {
			c.state.Draft = saved.Draft
			c.state.Replacing = saved.Replacing
		}
	}
	return c, nil
}

// State returns a snapshot of the current state.
func (c *Controller) State() AppState { return c.state }

func (c *Controller) Draft() *routines.Draft { return c.state.Draft }

// Dispatch routes an intent to its handler.
func (c *Controller) Dispatch(ctx context.Context, in Intent) (Outcome, error) {
	handler, ok := c.intents[in.Kind]
	if !ok {
		return Outcome{}, fmt.Errorf("unknown intent %q", in.Kind)
	}
	return handler(ctx, in)
}

// Refresh re-fetches the listing with opts and regroups it.
func (c *Controller) Refresh(ctx context.Context, opts routines.ListOptions) error {
	if opts.Sort == "" {
		opts.Sort = routines.SortRecent
	}
	docs, sessions, err := c.svc.Browse(ctx, opts)
	if err != nil {
		return err
	}
	c.filter = opts
	c.state.Sort = opts.Sort
	c.state.Documents = docs
	c.state.Sessions = sessions
	return nil
}

func (c *Controller) refresh(ctx context.Context) error {
	return c.Refresh(ctx, c.filter)
}

// Summaries renders the session cards, marking the ones liked today.
func (c *Controller) Summaries(ctx context.Context) ([]routines.SessionSummary, error) {
	out := make([]routines.SessionSummary, 0, len(c.state.Sessions))
	for _, s := range c.state.Sessions {
		summary := routines.Summarize(s)
		liked, err := c.likes.HasLikedToday(ctx, s.Key)
		if err != nil {
			return nil, err
		}
		summary.LikedToday = liked
		out = append(out, summary)
	}
	return out, nil
}

func (c *Controller) session(ctx context.Context, key string) (routines.Session, error) {
	if c.state.Sessions == nil {
		if err := c.refresh(ctx); err != nil {
			return routines.Session{}, err
		}
	}
	s, ok := routines.FindSession(c.state.Sessions, key)
	if !ok {
		return routines.Session{}, routines.ErrSessionNotFound
	}
	return s, nil
}

// wholeSession resolves key for a mutation. A listing narrowed by day or
// time holds only part of each session, so it goes to the store instead.
func (c *Controller) wholeSession(ctx context.Context, key string) (routines.Session, error) {
	if c.filter.Day == "" && c.filter.Time == "" {
		return c.session(ctx, key)
	}
	return c.svc.Session(ctx, key)
}

func (c *Controller) AddEntry(ctx context.Context, day, timeType, text, password string) error {
	if _, err := c.state.Draft.AddEntry(day, timeType, text, password); err != nil {
		return err
	}
	return c.saveDraft(ctx)
}

func (c *Controller) SetTitle(ctx context.Context, title string) error {
	c.state.Draft.Title = title
	return c.saveDraft(ctx)
}

// Import replaces the draft with the contents of an export bundle.
func (c *Controller) Import(ctx context.Context, data []byte, password, title string) error {
	draft, err := c.svc.ImportDraft(data, password, title)
	if err != nil {
		return err
	}
	c.state.Draft = draft
	c.state.Replacing = ""
	return c.saveDraft(ctx)
}

func (c *Controller) ClearDraft(ctx context.Context) error {
	c.state.Draft.Reset()
	c.state.Replacing = ""
	return c.saveDraft(ctx)
}

// Preview is the submission the next Submit would write.
func (c *Controller) Preview(title string) routines.Submission {
	return c.state.Draft.Finalize(title)
}

// Submit writes the draft. After a complete batch the draft is cleared and,
// when editing, the superseded session is deleted. A partial batch keeps
// the draft so nothing typed is lost.
func (c *Controller) Submit(ctx context.Context, title string) (routines.BatchResult, error) {
	result, err := c.svc.Submit(ctx, c.state.Draft.Finalize(title), c.ids)
	if err != nil {
		if len(result.Written) > 0 {
			if rerr := c.refresh(ctx); rerr != nil {
				slog.Warn("Refresh after partial upload failed.", "error", rerr)
			}
		}
		return result, err
	}

	replacing := c.state.Replacing
	c.state.Draft.Reset()
	c.state.Replacing = ""
	if err := c.saveDraft(ctx); err != nil {
		return result, err
	}
	if err := c.refresh(ctx); err != nil {
		return result, err
	}
	if replacing == "" {
		return result, nil
	}

	old, err := c.svc.Session(ctx, replacing)
	if errors.Is(err, routines.ErrSessionNotFound) {
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("failed to load replaced session %s: %w", replacing, err)
	}
	if _, err := c.svc.deleteDocuments(ctx, old); err != nil {
		return result, fmt.Errorf("failed to remove replaced session %s: %w", replacing, err)
	}
	return result, c.refresh(ctx)
}

func (c *Controller) saveDraft(ctx context.Context) error {
	if c.state.Draft.Len() == 0 && c.state.Replacing == "" && c.state.Draft.Title == "" {
		return c.kv.Delete(ctx, PendingUploadKey)
	}
	raw, err := json.Marshal(pendingUpload{Draft: c.state.Draft, Replacing: c.state.Replacing})
	if err != nil {
		return fmt.Errorf("failed to encode pending upload: %w", err)
	}
	return c.kv.Put(ctx, PendingUploadKey, raw)
}

func (c *Controller) viewSession(ctx context.Context, in Intent) (Outcome, error) {
	s, err := c.session(ctx, in.SessionKey)
	if err != nil {
		return Outcome{}, err
	}
	detail := routines.Detail(s)
	liked, err := c.likes.HasLikedToday(ctx, s.Key)
	if err != nil {
		return Outcome{}, err
	}
	detail.LikedToday = liked
	return Outcome{Detail: &detail}, nil
}

func (c *Controller) likeSession(ctx context.Context, in Intent) (Outcome, error) {
	s, err := c.wholeSession(ctx, in.SessionKey)
	if err != nil {
		return Outcome{}, err
	}
	liked, err := c.likes.HasLikedToday(ctx, s.Key)
	if err != nil {
		return Outcome{}, err
	}
	if liked {
		return Outcome{}, routines.ErrAlreadyLikedToday
	}
	if err := c.svc.Like(ctx, s); err != nil {
		return Outcome{}, err
	}
	if err := c.likes.MarkLikedToday(ctx, s.Key); err != nil {
		return Outcome{}, err
	}

	// The store holds the real count; the cached copy is bumped so the view
	// updates without a round trip.
	target := s.Documents[0].ID
	for i := range c.state.Documents {
		if c.state.Documents[i].ID == target {
			c.state.Documents[i].Likes++
			break
		}
	}
	c.state.Sessions = routines.GroupSessions(c.state.Documents)
	return Outcome{Notice: "Liked!"}, nil
}

func (c *Controller) deleteSession(ctx context.Context, in Intent) (Outcome, error) {
	s, err := c.wholeSession(ctx, in.SessionKey)
	if err != nil {
		return Outcome{}, err
	}
	n, err := c.svc.Delete(ctx, s, in.Code)
	if n == 0 && err != nil {
		return Outcome{}, err
	}
	if c.state.Replacing == s.Key {
		c.state.Replacing = ""
		if serr := c.saveDraft(ctx); serr != nil && err == nil {
			err = serr
		}
	}
	if rerr := c.refresh(ctx); rerr != nil && err == nil {
		err = rerr
	}
	return Outcome{Deleted: n, Notice: "Deleted."}, err
}

func (c *Controller) editSession(ctx context.Context, in Intent) (Outcome, error) {
	s, err := c.wholeSession(ctx, in.SessionKey)
	if err != nil {
		return Outcome{}, err
	}
	draft, err := c.svc.AuthorizeEdit(s, in.Code)
	if err != nil {
		return Outcome{}, err
	}
	c.state.Draft = draft
	c.state.Replacing = s.Key
	if err := c.saveDraft(ctx); err != nil {
		return Outcome{}, err
	}
	return Outcome{Notice: "Loaded into the draft. Submit to replace the original."}, nil
}

func (c *Controller) removeDraftEntry(ctx context.Context, in Intent) (Outcome, error) {
	removed, err := c.state.Draft.RemoveEntry(in.Index)
	if err != nil {
		return Outcome{}, err
	}
	if err := c.saveDraft(ctx); err != nil {
		return Outcome{}, err
	}
	return Outcome{Removed: &removed}, nil
}

func (c *Controller) downloadSession(ctx context.Context, in Intent) (Outcome, error) {
	s, err := c.wholeSession(ctx, in.SessionKey)
	if err != nil {
		return Outcome{}, err
	}
	export, err := c.svc.ExportSession(s)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Export: &export}, nil
}

func (c *Controller) downloadSingleDocument(ctx context.Context, in Intent) (Outcome, error) {
	if c.state.Documents == nil {
		if err := c.refresh(ctx); err != nil {
			return Outcome{}, err
		}
	}
	for _, doc := range c.state.Documents {
		if doc.ID != in.DocumentID {
			continue
		}
		export, err := c.svc.ExportDocument(doc)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Export: &export}, nil
	}
	return Outcome{}, routines.ErrDocumentNotFound
}
