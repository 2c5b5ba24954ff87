package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/routinesharing/internal/models"
	"github.com/Lllllllleong/routinesharing/internal/routines"
	"github.com/Lllllllleong/routinesharing/internal/routines/routinestest"
	"github.com/Lllllllleong/routinesharing/internal/services"
)

var testNow = time.Date(2025, 1, 6, 8, 30, 0, 0, time.UTC)

func seed() []models.RoutineDocument {
	mk := func(uploadID string, day models.Weekday, likes int, created time.Time) models.RoutineDocument {
		return models.RoutineDocument{
			Version:      "1.0",
			DayOfWeek:    day,
			TimeType:     models.Morning,
			Routines:     []models.RoutineItem{{Name: "물 마시기", Order: 1}, {Name: "스트레칭", Order: 2}},
			UploadID:     uploadID,
			Title:        "루틴 " + uploadID,
			Likes:        likes,
			PasswordHash: routines.HashPassword("1234"),
			CreatedAt:    created,
		}
	}
	return []models.RoutineDocument{
		mk("old", models.Monday, 5, testNow.Add(-48*time.Hour)),
		mk("new", models.Tuesday, 0, testNow),
		mk("new", models.Wednesday, 0, testNow.Add(-time.Minute)),
	}
}

func newServer(t *testing.T, store *routinestest.Store) *httptest.Server {
	t.Helper()
	svc := services.NewRoutineServiceWithStore(store, services.WithClock(func() time.Time { return testNow }))
	srv := httptest.NewServer((&API{Service: svc}).Router())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any, header map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func decode[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(res.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	srv := newServer(t, routinestest.NewStore())
	res := do(t, srv, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestListSessions(t *testing.T) {
	srv := newServer(t, routinestest.NewStore(seed()...))

	res := do(t, srv, http.MethodGet, "/sessions", nil, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	recent := decode[[]routines.SessionSummary](t, res)
	require.Len(t, recent, 2)
	assert.Equal(t, "new", recent[0].Key)
	assert.Equal(t, 2, recent[0].DayCount)
	assert.Equal(t, 4, recent[0].ItemCount)

	res = do(t, srv, http.MethodGet, "/sessions?sort=popular", nil, nil)
	popular := decode[[]routines.SessionSummary](t, res)
	assert.Equal(t, "old", popular[0].Key)

	res = do(t, srv, http.MethodGet, "/sessions?day=monday", nil, nil)
	filtered := decode[[]routines.SessionSummary](t, res)
	require.Len(t, filtered, 1)
	assert.Equal(t, "old", filtered[0].Key)

	res = do(t, srv, http.MethodGet, "/sessions?sort=oldest", nil, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	res = do(t, srv, http.MethodGet, "/sessions?time=brunch", nil, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestGetSession(t *testing.T) {
	srv := newServer(t, routinestest.NewStore(seed()...))

	res := do(t, srv, http.MethodGet, "/sessions/new", nil, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	detail := decode[routines.SessionDetail](t, res)
	require.Len(t, detail.Days, 2)
	assert.Equal(t, models.Tuesday, detail.Days[0].Day)
	assert.Equal(t, "스트레칭", detail.Days[0].Visible[1].Name)

	res = do(t, srv, http.MethodGet, "/sessions/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	body := decode[errorResponse](t, res)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestLikeSession(t *testing.T) {
	store := routinestest.NewStore(seed()...)
	srv := newServer(t, store)

	res := do(t, srv, http.MethodPost, "/sessions/old/like", nil, nil)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	res = do(t, srv, http.MethodGet, "/sessions/old", nil, nil)
	detail := decode[routines.SessionDetail](t, res)
	assert.Equal(t, 6, detail.Likes)
}

func TestDeleteSession(t *testing.T) {
	store := routinestest.NewStore(seed()...)
	srv := newServer(t, store)

	res := do(t, srv, http.MethodDelete, "/sessions/new", models.CodeRequest{Code: "4321"}, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res = do(t, srv, http.MethodDelete, "/sessions/new", models.CodeRequest{Code: "12"}, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = do(t, srv, http.MethodDelete, "/sessions/new", models.CodeRequest{Code: "1234"}, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 2, decode[models.DeleteResponse](t, res).Deleted)
	assert.Equal(t, 1, store.Len())
}

func TestEditSession(t *testing.T) {
	srv := newServer(t, routinestest.NewStore(seed()...))

	res := do(t, srv, http.MethodPost, "/sessions/new/edit", models.CodeRequest{Code: "1234"}, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	edit := decode[models.EditResponse](t, res)
	assert.Equal(t, "루틴 new", edit.Title)
	assert.Len(t, edit.Entries, 2)
}

func TestExportSession(t *testing.T) {
	srv := newServer(t, routinestest.NewStore(seed()...))

	res := do(t, srv, http.MethodGet, "/sessions/new/export", nil, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Disposition"), "attachment; filename*=UTF-8''")
	bundle := decode[routines.Bundle](t, res)
	assert.Equal(t, "1.0", bundle.Version)
	assert.Equal(t, "2025-01-06T08:30:00.000Z", bundle.ExportDate)
	assert.Len(t, bundle.Routines, 4)

	res = do(t, srv, http.MethodPost, "/sessions/new/export", nil, nil)
	assert.Equal(t, http.StatusNotImplemented, res.StatusCode)
}

func TestExportDocument(t *testing.T) {
	srv := newServer(t, routinestest.NewStore(seed()...))

	res := do(t, srv, http.MethodGet, "/documents/doc-001/export", nil, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	bundle := decode[routines.Bundle](t, res)
	require.Len(t, bundle.Routines, 2)
	assert.Equal(t, models.Monday, bundle.Routines[0].DayOfWeek)

	res = do(t, srv, http.MethodGet, "/documents/nope/export", nil, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestUpload(t *testing.T) {
	req := models.UploadRequest{
		Title:    "주간 루틴",
		Password: "1234",
		Entries: []models.UploadEntry{
			{DayOfWeek: "월요일", TimeType: "아침", Text: "물 마시기\n\n명상"},
			{DayOfWeek: "friday", TimeType: "evening", Text: "일기"},
		},
	}
	anon := map[string]string{AnonIDHeader: "anon-1"}

	t.Run("complete", func(t *testing.T) {
		store := routinestest.NewStore()
		srv := newServer(t, store)
		res := do(t, srv, http.MethodPost, "/uploads", req, anon)
		require.Equal(t, http.StatusCreated, res.StatusCode)
		result := decode[routines.BatchResult](t, res)
		assert.Equal(t, "anon-1_1736152200000", result.UploadID)
		assert.Len(t, result.Written, 2)
		assert.Equal(t, 2, store.Len())
	})

	t.Run("missing identity", func(t *testing.T) {
		srv := newServer(t, routinestest.NewStore())
		res := do(t, srv, http.MethodPost, "/uploads", req, nil)
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	})

	t.Run("partial", func(t *testing.T) {
		store := routinestest.NewStore()
		store.FailOn = func(op string, call int, _ string) error {
			if op == "insert" && call == 2 {
				return &routines.StorageError{Op: "insert", Kind: routines.StorageUnavailable, Err: errors.New("offline")}
			}
			return nil
		}
		srv := newServer(t, store)
		res := do(t, srv, http.MethodPost, "/uploads", req, anon)
		require.Equal(t, http.StatusBadGateway, res.StatusCode)
		body := decode[partialUploadResponse](t, res)
		assert.Equal(t, "UNAVAILABLE", body.Error.Code)
		assert.Len(t, body.Result.Written, 1)
		require.NotNil(t, body.Result.Failed)
		assert.Equal(t, 1, body.Result.Failed.Index)
	})

	t.Run("unavailable before any write", func(t *testing.T) {
		store := routinestest.NewStore()
		store.FailOn = func(string, int, string) error {
			return &routines.StorageError{Op: "insert", Kind: routines.StorageUnavailable, Err: errors.New("offline")}
		}
		srv := newServer(t, store)
		res := do(t, srv, http.MethodPost, "/uploads", req, anon)
		assert.Equal(t, http.StatusBadGateway, res.StatusCode)
	})

	t.Run("validation", func(t *testing.T) {
		srv := newServer(t, routinestest.NewStore())
		bad := req
		bad.Password = "12a4"
		res := do(t, srv, http.MethodPost, "/uploads", bad, anon)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)

		res = do(t, srv, http.MethodPost, "/uploads", models.UploadRequest{Password: "1234"}, anon)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("malformed json", func(t *testing.T) {
		srv := newServer(t, routinestest.NewStore())
		res, err := srv.Client().Post(srv.URL+"/uploads", "application/json", strings.NewReader("{"))
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		assert.Equal(t, "INVALID_JSON", decode[errorResponse](t, res).Error.Code)
	})
}

func TestImport(t *testing.T) {
	store := routinestest.NewStore()
	srv := newServer(t, store)
	anon := map[string]string{AnonIDHeader: "anon-1"}

	res := do(t, srv, http.MethodPost, "/imports", models.ImportRequest{
		Password: "1234",
		Bundle: json.RawMessage(`{"version":"1.0","routines":[
			{"name":"a","dayOfWeek":"월요일","timeType":"아침","order":1},
			{"name":"b","dayOfWeek":"월요일","timeType":"저녁","order":1}]}`),
	}, anon)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, 2, store.Len())

	res = do(t, srv, http.MethodPost, "/imports", models.ImportRequest{
		Password: "1234",
		Bundle:   json.RawMessage(`{"version":"1.0","routines":[{"name":"a","dayOfWeek":"someday","timeType":"아침","order":1}]}`),
	}, anon)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "INVALID_BUNDLE", decode[errorResponse](t, res).Error.Code)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{&routines.ValidationError{Field: "day"}, http.StatusBadRequest},
		{&routines.FormatError{Reason: "x"}, http.StatusBadRequest},
		{routines.ErrWrongPassword, http.StatusForbidden},
		{routines.ErrSessionNotFound, http.StatusNotFound},
		{routines.ErrPasswordMismatch, http.StatusConflict},
		{&routines.StorageError{Kind: routines.StorageUnavailable}, http.StatusServiceUnavailable},
		{routines.ErrAuthTimeout, http.StatusGatewayTimeout},
		{&routines.StorageError{Kind: routines.StoragePermissionDenied}, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		status, _ := classify(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
	}
}
