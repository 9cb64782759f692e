package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"timeTracker/internal/handlers"
	"timeTracker/internal/middleware"
	"timeTracker/internal/models/entry"
	"timeTracker/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEntryService - мок сервиса записей
type MockEntryService struct {
	mock.Mock
}

func (m *MockEntryService) Start(ctx context.Context, userID, activityID uuid.UUID, taskID *uuid.UUID, description *string) (*entry.TimeEntry, error) {
	args := m.Called(ctx, userID, activityID, taskID, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entry.TimeEntry), args.Error(1)
}

func (m *MockEntryService) Stop(ctx context.Context, userID, entryID uuid.UUID, distractions *int) (*entry.TimeEntry, error) {
	args := m.Called(ctx, userID, entryID, distractions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entry.TimeEntry), args.Error(1)
}

func (m *MockEntryService) CreateManual(ctx context.Context, userID, activityID uuid.UUID, taskID *uuid.UUID, description *string, startedAt, stoppedAt time.Time) (*entry.TimeEntry, error) {
	args := m.Called(ctx, userID, activityID, taskID, description, startedAt, stoppedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entry.TimeEntry), args.Error(1)
}

func (m *MockEntryService) Update(ctx context.Context, userID, entryID uuid.UUID, patch entry.Patch) (*entry.TimeEntry, error) {
	args := m.Called(ctx, userID, entryID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entry.TimeEntry), args.Error(1)
}

func (m *MockEntryService) FindActive(ctx context.Context, userID uuid.UUID) (*entry.TimeEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entry.TimeEntry), args.Error(1)
}

func (m *MockEntryService) FindAll(ctx context.Context, userID uuid.UUID, f entry.Filter) ([]*entry.TimeEntry, error) {
	args := m.Called(ctx, userID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entry.TimeEntry), args.Error(1)
}

func (m *MockEntryService) Delete(ctx context.Context, userID, entryID uuid.UUID) error {
	args := m.Called(ctx, userID, entryID)
	return args.Error(0)
}

var _ handlers.EntryService = (*MockEntryService)(nil)

// newRequest собирает запрос с маршрутом chi и пользователем в контексте
func newRequest(t *testing.T, method, target string, body any, userID uuid.UUID, params map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	r := httptest.NewRequest(method, target, &buf)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	ctx := context.WithValue(r.Context(), middleware.UserIdKey, userID)

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)

	return r.WithContext(ctx)
}

// newRawRequest - то же, но тело передаётся сырым JSON,
// чтобы проверять различие null и отсутствующего поля
func newRawRequest(t *testing.T, method, target, body string, userID uuid.UUID, params map[string]string) *http.Request {
	t.Helper()

	r := httptest.NewRequest(method, target, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	ctx := context.WithValue(r.Context(), middleware.UserIdKey, userID)

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)

	return r.WithContext(ctx)
}

func TestEntryHandler_StartEntry(t *testing.T) {
	userID := uuid.New()
	activityID := uuid.New()

	t.Run("success returns 201 with entry", func(t *testing.T) {
		svc := new(MockEntryService)
		h := handlers.NewEntryHandler(svc)

		e := &entry.TimeEntry{
			UUID:         uuid.New(),
			UserID:       userID,
			ActivityUUID: activityID,
			StartedAt:    time.Now(),
		}
		svc.On("Start", mock.Anything, userID, activityID, (*uuid.UUID)(nil), (*string)(nil)).Return(e, nil)

		r := newRequest(t, http.MethodPost, "/entries/start",
			map[string]any{"activity_id": activityID}, userID, nil)
		w := httptest.NewRecorder()

		h.StartEntry(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Contains(t, resp, "entry")
		svc.AssertExpectations(t)
	})

	t.Run("active entry conflict maps to 409", func(t *testing.T) {
		svc := new(MockEntryService)
		h := handlers.NewEntryHandler(svc)

		svc.On("Start", mock.Anything, userID, activityID, (*uuid.UUID)(nil), (*string)(nil)).
			Return(nil, service.NewConflict(service.CodeActiveEntryExists, "у вас уже есть активная запись"))

		r := newRequest(t, http.MethodPost, "/entries/start",
			map[string]any{"activity_id": activityID}, userID, nil)
		w := httptest.NewRecorder()

		h.StartEntry(w, r)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), service.CodeActiveEntryExists)
	})

	t.Run("missing activity_id is 400", func(t *testing.T) {
		svc := new(MockEntryService)
		h := handlers.NewEntryHandler(svc)

		r := newRequest(t, http.MethodPost, "/entries/start", map[string]any{}, userID, nil)
		w := httptest.NewRecorder()

		h.StartEntry(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Start")
	})

	t.Run("wrong content type is 415", func(t *testing.T) {
		svc := new(MockEntryService)
		h := handlers.NewEntryHandler(svc)

		r := httptest.NewRequest(http.MethodPost, "/entries/start", strings.NewReader("activity_id=x"))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r = r.WithContext(context.WithValue(r.Context(), middleware.UserIdKey, userID))
		w := httptest.NewRecorder()

		h.StartEntry(w, r)

		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})
}

func TestEntryHandler_StopEntry(t *testing.T) {
	userID := uuid.New()
	entryID := uuid.New()

	t.Run("not found maps to 404", func(t *testing.T) {
		svc := new(MockEntryService)
		h := handlers.NewEntryHandler(svc)

		svc.On("Stop", mock.Anything, userID, entryID, (*int)(nil)).
			Return(nil, service.NewNotFound("запись", entryID.String()))

		r := newRequest(t, http.MethodPost, "/entries/"+entryID.String()+"/stop", nil, userID,
			map[string]string{"id": entryID.String()})
		w := httptest.NewRecorder()

		h.StopEntry(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("already stopped maps to 409", func(t *testing.T) {
		svc := new(MockEntryService)
		h := handlers.NewEntryHandler(svc)

		svc.On("Stop", mock.Anything, userID, entryID, (*int)(nil)).
			Return(nil, service.NewConflict(service.CodeAlreadyStopped, "запись уже остановлена"))

		r := newRequest(t, http.MethodPost, "/entries/"+entryID.String()+"/stop", nil, userID,
			map[string]string{"id": entryID.String()})
		w := httptest.NewRecorder()

		h.StopEntry(w, r)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("distractions from body are forwarded", func(t *testing.T) {
		svc := new(MockEntryService)
		h := handlers.NewEntryHandler(svc)

		stoppedAt := time.Now()
		e := &entry.TimeEntry{UUID: entryID, UserID: userID, StartedAt: stoppedAt.Add(-time.Hour), StoppedAt: &stoppedAt}

		svc.On("Stop", mock.Anything, userID, entryID, mock.MatchedBy(func(d *int) bool {
			return d != nil && *d == 2
		})).Return(e, nil)

		r := newRequest(t, http.MethodPost, "/entries/"+entryID.String()+"/stop",
			map[string]any{"distractions": 2}, userID,
			map[string]string{"id": entryID.String()})
		w := httptest.NewRecorder()

		h.StopEntry(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("malformed id is 400", func(t *testing.T) {
		svc := new(MockEntryService)
		h := handlers.NewEntryHandler(svc)

		r := newRequest(t, http.MethodPost, "/entries/abc/stop", nil, userID,
			map[string]string{"id": "abc"})
		w := httptest.NewRecorder()

		h.StopEntry(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Stop")
	})
}

func TestEntryHandler_UpdateEntry(t *testing.T) {
	userID := uuid.New()
	entryID := uuid.New()

	t.Run("null rating becomes a clear, absent fields stay untouched", func(t *testing.T) {
		svc := new(MockEntryService)
		h := handlers.NewEntryHandler(svc)

		stoppedAt := time.Now()
		e := &entry.TimeEntry{UUID: entryID, UserID: userID, StartedAt: stoppedAt.Add(-time.Hour), StoppedAt: &stoppedAt}

		svc.On("Update", mock.Anything, userID, entryID, mock.MatchedBy(func(p entry.Patch) bool {
			return p.Rating.IsClear() && !p.Comment.IsPresent() && p.Distractions.IsPresent() && p.Distractions.Value() == 3
		})).Return(e, nil)

		r := newRawRequest(t, http.MethodPatch, "/entries/"+entryID.String(),
			`{"rating": null, "distractions": 3}`, userID,
			map[string]string{"id": entryID.String()})
		w := httptest.NewRecorder()

		h.UpdateEntry(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("rating out of range is 400", func(t *testing.T) {
		svc := new(MockEntryService)
		h := handlers.NewEntryHandler(svc)

		r := newRequest(t, http.MethodPatch, "/entries/"+entryID.String(),
			map[string]any{"rating": 9}, userID,
			map[string]string{"id": entryID.String()})
		w := httptest.NewRecorder()

		h.UpdateEntry(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Update")
	})

	t.Run("too many tags is 400", func(t *testing.T) {
		svc := new(MockEntryService)
		h := handlers.NewEntryHandler(svc)

		r := newRequest(t, http.MethodPatch, "/entries/"+entryID.String(),
			map[string]any{"tag_ids": []string{
				uuid.NewString(), uuid.NewString(), uuid.NewString(), uuid.NewString(),
			}}, userID,
			map[string]string{"id": entryID.String()})
		w := httptest.NewRecorder()

		h.UpdateEntry(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Update")
	})

	t.Run("expired window maps to 403", func(t *testing.T) {
		svc := new(MockEntryService)
		h := handlers.NewEntryHandler(svc)

		svc.On("Update", mock.Anything, userID, entryID, mock.Anything).
			Return(nil, service.NewForbidden(service.CodeEditWindowExpired, "запись нельзя редактировать спустя неделю после остановки"))

		r := newRequest(t, http.MethodPatch, "/entries/"+entryID.String(),
			map[string]any{"rating": 4}, userID,
			map[string]string{"id": entryID.String()})
		w := httptest.NewRecorder()

		h.UpdateEntry(w, r)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestEntryHandler_GetActiveEntry(t *testing.T) {
	userID := uuid.New()

	t.Run("no running timer returns 200 with null entry", func(t *testing.T) {
		svc := new(MockEntryService)
		h := handlers.NewEntryHandler(svc)

		svc.On("FindActive", mock.Anything, userID).Return(nil, nil)

		r := newRequest(t, http.MethodGet, "/entries/active", nil, userID, nil)
		w := httptest.NewRecorder()

		h.GetActiveEntry(w, r)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Nil(t, resp["entry"])
	})
}

func TestEntryHandler_ListEntries(t *testing.T) {
	userID := uuid.New()

	t.Run("filter params are parsed", func(t *testing.T) {
		svc := new(MockEntryService)
		h := handlers.NewEntryHandler(svc)

		from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

		svc.On("FindAll", mock.Anything, userID, mock.MatchedBy(func(f entry.Filter) bool {
			return f.From != nil && f.From.Equal(from) && f.To == nil && f.ActivityUUID == nil
		})).Return([]*entry.TimeEntry{}, nil)

		r := newRequest(t, http.MethodGet, "/entries?from=2025-03-01T00:00:00Z", nil, userID, nil)
		w := httptest.NewRecorder()

		h.ListEntries(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("garbage filter is 400", func(t *testing.T) {
		svc := new(MockEntryService)
		h := handlers.NewEntryHandler(svc)

		r := newRequest(t, http.MethodGet, "/entries?from=yesterday", nil, userID, nil)
		w := httptest.NewRecorder()

		h.ListEntries(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "FindAll")
	})
}

func TestIdentityMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEqual(t, uuid.Nil, middleware.GetUserID(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.Identity(next)

	t.Run("missing header is 401", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/entries", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header is 401", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/entries", nil)
		r.Header.Set("X-User-ID", "not-a-uuid")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid header passes user through", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/entries", nil)
		r.Header.Set("X-User-ID", uuid.NewString())
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
