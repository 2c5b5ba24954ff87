package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Lllllllleong/routinesharing/internal/identity"
	"github.com/Lllllllleong/routinesharing/internal/models"
	"github.com/Lllllllleong/routinesharing/internal/routines"
	"github.com/Lllllllleong/routinesharing/internal/services"
)

const maxBodyBytes = 1 << 20

// AnonIDHeader carries the caller's anonymous identity on uploads.
const AnonIDHeader = "X-Anon-Id"

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleListSessions(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	_, sessions, err := a.Service.Browse(r.Context(), opts)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	summaries := make([]routines.SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		summaries = append(summaries, routines.Summarize(s))
	}
	writeJSON(w, http.StatusOK, summaries)
}

func listOptions(r *http.Request) (routines.ListOptions, error) {
	q := r.URL.Query()
	sort, err := routines.ParseSortOrder(q.Get("sort"))
	if err != nil {
		return routines.ListOptions{}, err
	}
	opts := routines.ListOptions{Sort: sort}
	if v := q.Get("day"); v != "" {
		day, ok := models.ParseWeekday(v)
		if !ok {
			return routines.ListOptions{}, &routines.ValidationError{Field: "day", Reason: fmt.Sprintf("unknown weekday %q", v)}
		}
		opts.Day = day
	}
	if v := q.Get("time"); v != "" {
		tt, ok := models.ParseTimeType(v)
		if !ok {
			return routines.ListOptions{}, &routines.ValidationError{Field: "time", Reason: fmt.Sprintf("unknown time of day %q", v)}
		}
		opts.Time = tt
	}
	return opts, nil
}

func (a *API) session(w http.ResponseWriter, r *http.Request) (routines.Session, bool) {
	s, err := a.Service.Session(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeFailure(w, r, err)
		return routines.Session{}, false
	}
	return s, true
}

func (a *API) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, routines.Detail(s))
}

func (a *API) handleLikeSession(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	if err := a.Service.Like(r.Context(), s); err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	var req models.CodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	n, err := a.Service.Delete(r.Context(), s, req.Code)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.DeleteResponse{Deleted: n})
}

func (a *API) handleEditSession(w http.ResponseWriter, r *http.Request) {
	var req models.CodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	draft, err := a.Service.AuthorizeEdit(s, req.Code)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	res := models.EditResponse{Title: draft.Title}
	for _, e := range draft.Entries() {
		res.Entries = append(res.Entries, models.EditEntry{DayOfWeek: e.DayOfWeek, TimeType: e.TimeType, Routines: e.Routines})
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) handleExportSession(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	export, err := a.Service.ExportSession(s)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeAttachment(w, export)
}

func (a *API) handlePublishSession(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	uri, export, err := a.Service.Publish(r.Context(), s)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.PublishResponse{URI: uri, Filename: export.Filename})
}

func (a *API) handleExportDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := a.Service.Document(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	export, err := a.Service.ExportDocument(doc)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeAttachment(w, export)
}

func writeAttachment(w http.ResponseWriter, export services.Export) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(export.Filename)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Data)
}

func (a *API) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req models.UploadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	draft := routines.NewDraft()
	for _, e := range req.Entries {
		if _, err := draft.AddEntry(e.DayOfWeek, e.TimeType, e.Text, req.Password); err != nil {
			writeFailure(w, r, err)
			return
		}
	}
	a.submit(w, r, draft.Finalize(req.Title))
}

func (a *API) handleImport(w http.ResponseWriter, r *http.Request) {
	var req models.ImportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	draft, err := a.Service.ImportDraft(req.Bundle, req.Password, req.Title)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	a.submit(w, r, draft.Finalize(""))
}

func (a *API) submit(w http.ResponseWriter, r *http.Request, sub routines.Submission) {
	anonID := strings.TrimSpace(r.Header.Get(AnonIDHeader))
	result, err := a.Service.Submit(r.Context(), sub, identity.Resolved(anonID))
	if err == nil {
		writeJSON(w, http.StatusCreated, result)
		return
	}
	if len(result.Written) == 0 && result.Failed == nil {
		writeFailure(w, r, err)
		return
	}
	_, code := classify(err)
	writeJSON(w, http.StatusBadGateway, partialUploadResponse{
		Error:  apiError{Code: code, Message: routines.Notice(err)},
		Result: result,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid payload")
		return false
	}
	return true
}
