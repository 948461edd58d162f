package httpv1_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	httpv1 "github.com/Egor213/AuditTrack/internal/controller/http/v1"
	"github.com/Egor213/AuditTrack/internal/domain"
	"github.com/Egor213/AuditTrack/internal/export"
	"github.com/Egor213/AuditTrack/internal/metrics"
	servicemocks "github.com/Egor213/AuditTrack/internal/mocks/service"
	"github.com/Egor213/AuditTrack/internal/repo/repotypes"
	"github.com/Egor213/AuditTrack/internal/viewer"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	testSecret = "test-secret"
	actorA     = "3f0b5e2c-6a1d-4d8e-9c6f-0a1b2c3d4e5f"
	actorB     = "7a9c1e4b-2d3f-4a5b-8c7d-9e0f1a2b3c4d"
)

func sampleEntries() []domain.LogEntry {
	actor := actorA
	at := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	return []domain.LogEntry{
		{
			ID:         "l1",
			ActorID:    &actor,
			Actor:      &domain.ActorSummary{ID: actor, Name: "Ada", LastName: "Lovelace", Department: "R&D"},
			ActionKind: domain.ActionCreate,
			EntityKind: "news",
			EntityID:   "n1",
			Details:    domain.NewDetails(domain.StringField("title", "Hello")),
			Outcome:    domain.OutcomeSuccess,
			OccurredAt: at,
		},
		{
			ID:         "l2",
			ActionKind: domain.ActionLogin,
			EntityKind: "session",
			Outcome:    domain.OutcomeFailure,
			OccurredAt: at.Add(-time.Hour),
		},
	}
}

type testEnv struct {
	e      *echo.Echo
	source *servicemocks.MockLog
	audit  *servicemocks.MockAudit
	engine *export.Engine
}

func newTestEnv(t *testing.T, exportLimit int) *testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)

	env := &testEnv{
		e:      echo.New(),
		source: servicemocks.NewMockLog(ctrl),
		audit:  servicemocks.NewMockAudit(ctrl),
	}
	env.engine = export.NewEngine(nil, env.audit, metrics.NewTestCounters())

	registry := viewer.NewRegistry(func(id string, identity viewer.Identity) *viewer.Session {
		return viewer.NewSession(id, identity, env.source, env.engine, viewer.Options{PageSize: 20, ActorJoin: true})
	}, time.Hour)

	httpv1.ConfigureRouter(env.e, httpv1.RouterDeps{
		Registry:    registry,
		Lookups:     viewer.NewLogStore(env.source),
		JWTSecret:   testSecret,
		ExportLimit: exportLimit,
	})
	return env
}

func (env *testEnv) expectBackend(total int) {
	env.source.EXPECT().FetchLogs(gomock.Any(), gomock.Any()).
		Return(repotypes.LogPage{Entries: sampleEntries(), Total: total}, nil).AnyTimes()
	env.source.EXPECT().ListUsers(gomock.Any()).
		Return([]domain.ActorSummary{{ID: actorA, Department: "R&D"}, {ID: actorB, Department: "Ops"}}, nil).AnyTimes()
	env.source.EXPECT().ActivityStats(gomock.Any()).Return(nil, nil).AnyTimes()
}

func token(t *testing.T, sub string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func (env *testEnv) do(method, target, body, auth string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

type viewerBody struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Page   struct {
		Index   int `json:"index"`
		Total   int `json:"total"`
		MaxPage int `json:"max_page"`
	} `json:"page"`
	Entries []struct {
		ID      string          `json:"id"`
		Actor   string          `json:"actor"`
		Details json.RawMessage `json:"details"`
	} `json:"entries"`
	Departments []string `json:"departments"`
	Stats       struct {
		Actions []struct {
			Action string `json:"action"`
		} `json:"actions"`
	} `json:"stats"`
	Filter struct {
		ActionKind string `json:"action_kind"`
	} `json:"filter"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (env *testEnv) open(t *testing.T, auth string) viewerBody {
	t.Helper()
	rec := env.do(http.MethodPost, "/api/v1/viewers", `{"page_size":20}`, auth)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[viewerBody](t, rec)
}

func TestViewer_OpenAndNavigate(t *testing.T) {
	env := newTestEnv(t, 10)
	env.expectBackend(45)

	v := env.open(t, token(t, actorA))
	assert.Equal(t, "loaded", v.Status)
	assert.Equal(t, 3, v.Page.MaxPage)
	require.Len(t, v.Entries, 2)
	assert.Equal(t, "Ada Lovelace", v.Entries[0].Actor)
	assert.Equal(t, "System", v.Entries[1].Actor)
	assert.JSONEq(t, `{"title":"Hello"}`, string(v.Entries[0].Details))
	assert.Equal(t, []string{"Ops", "R&D"}, v.Departments)
	assert.Len(t, v.Stats.Actions, len(domain.ActionKinds))

	rec := env.do(http.MethodPut, "/api/v1/viewers/"+v.ID+"/page", `{"page":9}`, token(t, actorA))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 3, decode[viewerBody](t, rec).Page.Index)

	rec = env.do(http.MethodPost, "/api/v1/viewers/"+v.ID+"/page/previous", "", token(t, actorA))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[viewerBody](t, rec).Page.Index)

	rec = env.do(http.MethodPatch, "/api/v1/viewers/"+v.ID+"/filter", `{"action_kind":"Login"}`, token(t, actorA))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[viewerBody](t, rec)
	assert.Equal(t, 1, got.Page.Index)
	assert.Equal(t, "login", got.Filter.ActionKind)

	rec = env.do(http.MethodPut, "/api/v1/viewers/"+v.ID+"/sort", `{"field":"actor_id"}`, token(t, actorA))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/viewers/"+v.ID, "", token(t, actorA))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodDelete, "/api/v1/viewers/"+v.ID, "", token(t, actorA))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/viewers/"+v.ID, "", token(t, actorA))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestViewer_BadRequests(t *testing.T) {
	env := newTestEnv(t, 10)
	env.expectBackend(2)

	v := env.open(t, "")
	base := "/api/v1/viewers/" + v.ID

	testCases := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown action kind", http.MethodPatch, "/filter", `{"action_kind":"hack"}`, http.StatusBadRequest},
		{"bad date", http.MethodPatch, "/filter", `{"date_from":"yesterday"}`, http.StatusBadRequest},
		{"bad actor id", http.MethodPatch, "/filter", `{"actor_id":"42"}`, http.StatusBadRequest},
		{"reversed date range", http.MethodPatch, "/filter", `{"date_from":"2024-05-03","date_to":"2024-05-02"}`, http.StatusBadRequest},
		{"unknown sort field", http.MethodPut, "/sort", `{"field":"department"}`, http.StatusBadRequest},
		{"missing sort field", http.MethodPut, "/sort", `{}`, http.StatusBadRequest},
		{"unknown export format", http.MethodGet, "/export?format=xlsx", "", http.StatusBadRequest},
		{"missing export format", http.MethodGet, "/export", "", http.StatusBadRequest},
		{"missing entry", http.MethodPut, "/selection", `{"entry_id":"nope"}`, http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(tc.method, base+tc.path, tc.body, "")
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestViewer_Identity(t *testing.T) {
	env := newTestEnv(t, 10)
	env.expectBackend(2)

	v := env.open(t, token(t, actorA))

	rec := env.do(http.MethodGet, "/api/v1/viewers/"+v.ID, "", token(t, actorB))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/viewers/"+v.ID, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/viewers/"+v.ID, "", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/viewers/"+v.ID, "", token(t, "not-a-uuid"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestViewer_FetchErrorIsBadGateway(t *testing.T) {
	env := newTestEnv(t, 10)
	env.source.EXPECT().FetchLogs(gomock.Any(), gomock.Any()).Return(repotypes.LogPage{}, errors.New("db down"))
	env.source.EXPECT().ListUsers(gomock.Any()).Return(nil, nil)
	env.source.EXPECT().ActivityStats(gomock.Any()).Return(nil, nil)

	rec := env.do(http.MethodPost, "/api/v1/viewers", `{}`, "")
	require.Equal(t, http.StatusBadGateway, rec.Code)

	body := decode[struct {
		Error     string     `json:"error"`
		Retryable bool       `json:"retryable"`
		Viewer    viewerBody `json:"viewer"`
	}](t, rec)
	assert.True(t, body.Retryable)
	assert.Equal(t, "failed", body.Viewer.Status)
	assert.NotEmpty(t, body.Viewer.ID)
}

func TestViewer_Selection(t *testing.T) {
	env := newTestEnv(t, 10)
	env.expectBackend(2)

	v := env.open(t, "")
	base := "/api/v1/viewers/" + v.ID

	rec := env.do(http.MethodPut, base+"/selection", `{"entry_id":"l1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	detail := decode[struct {
		ID          string `json:"id"`
		Actor       string `json:"actor"`
		Department  string `json:"department"`
		ActionLabel string `json:"action_label"`
		Pretty      string `json:"details_pretty"`
	}](t, rec)
	assert.Equal(t, "l1", detail.ID)
	assert.Equal(t, "Ada Lovelace", detail.Actor)
	assert.Equal(t, "R&D", detail.Department)
	assert.Equal(t, "Create", detail.ActionLabel)
	assert.Equal(t, "{\n  \"title\": \"Hello\"\n}", detail.Pretty)

	rec = env.do(http.MethodDelete, base+"/selection", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestViewer_Export(t *testing.T) {
	env := newTestEnv(t, 10)
	env.expectBackend(2)

	env.audit.EXPECT().
		RecordAction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, a domain.AuditAction) (string, error) {
			require.NotNil(t, a.ActorID)
			assert.Equal(t, actorA, *a.ActorID)
			assert.Equal(t, domain.ActionExport, a.ActionKind)
			return "id", nil
		})

	v := env.open(t, token(t, actorA))

	rec := env.do(http.MethodGet, "/api/v1/viewers/"+v.ID+"/export?format=flat-text", "", token(t, actorA))
	env.engine.Wait()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), `attachment; filename="admin_logs_`)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "2024-04-01T09:00:00Z,Ada Lovelace,create,news,n1,success,", lines[0])
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestViewer_ExportDocumentWithoutRenderer(t *testing.T) {
	env := newTestEnv(t, 10)
	env.expectBackend(2)
	env.audit.EXPECT().RecordAction(gomock.Any(), gomock.Any()).Return("id", nil)

	v := env.open(t, "")

	rec := env.do(http.MethodGet, "/api/v1/viewers/"+v.ID+"/export?format=document", "", "")
	env.engine.Wait()
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestViewer_ExportRateLimited(t *testing.T) {
	env := newTestEnv(t, 1)
	env.expectBackend(2)
	env.audit.EXPECT().RecordAction(gomock.Any(), gomock.Any()).Return("id", nil)

	v := env.open(t, token(t, actorA))
	path := "/api/v1/viewers/" + v.ID + "/export?format=flat-text"

	rec := env.do(http.MethodGet, path, "", token(t, actorA))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, path, "", token(t, actorA))
	env.engine.Wait()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestLookups(t *testing.T) {
	env := newTestEnv(t, 10)
	env.expectBackend(0)

	rec := env.do(http.MethodGet, "/api/v1/lookups/departments", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["Ops","R&D"]`, rec.Body.String())

	rec = env.do(http.MethodGet, "/api/v1/lookups/users", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 2)

	rec = env.do(http.MethodGet, "/api/v1/lookups/stats", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[struct {
		Bucket  *time.Time       `json:"bucket"`
		Actions []map[string]any `json:"actions"`
	}](t, rec)
	assert.Nil(t, stats.Bucket)
	assert.Len(t, stats.Actions, 7)
}

func TestLookups_FetchError(t *testing.T) {
	env := newTestEnv(t, 10)
	env.source.EXPECT().ListUsers(gomock.Any()).Return(nil, errors.New("down"))

	rec := env.do(http.MethodGet, "/api/v1/lookups/users", "", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestViewer_OpenSucceedsWhenLookupFails(t *testing.T) {
	env := newTestEnv(t, 10)
	env.source.EXPECT().FetchLogs(gomock.Any(), gomock.Any()).
		Return(repotypes.LogPage{Entries: sampleEntries(), Total: 2}, nil)
	env.source.EXPECT().ListUsers(gomock.Any()).Return(nil, errors.New("users down"))
	env.source.EXPECT().ActivityStats(gomock.Any()).Return(nil, nil)

	rec := env.do(http.MethodPost, "/api/v1/viewers", `{}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode[struct {
		Status      string `json:"status"`
		LookupError string `json:"lookup_error"`
	}](t, rec)
	assert.Equal(t, "loaded", body.Status)
	assert.Contains(t, body.LookupError, "users down")
}

func TestViewer_FilterDateBounds(t *testing.T) {
	var (
		mu      sync.Mutex
		queries []repotypes.LogQuery
	)
	env := newTestEnv(t, 10)
	env.source.EXPECT().FetchLogs(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q repotypes.LogQuery) (repotypes.LogPage, error) {
			mu.Lock()
			defer mu.Unlock()
			queries = append(queries, q)
			return repotypes.LogPage{}, nil
		}).AnyTimes()
	env.source.EXPECT().ListUsers(gomock.Any()).Return(nil, nil).AnyTimes()
	env.source.EXPECT().ActivityStats(gomock.Any()).Return(nil, nil).AnyTimes()

	v := env.open(t, "")

	upperBound := func() any {
		mu.Lock()
		defer mu.Unlock()
		for _, c := range queries[len(queries)-1].Constraints {
			if c.Field == repotypes.FieldOccurredAt && c.Op == repotypes.OpLte {
				return c.Value
			}
		}
		return nil
	}

	testCases := []struct {
		name string
		body string
		want time.Time
	}{
		{"bare day covers the whole day", `{"date_to":"2024-05-02"}`, time.Date(2024, 5, 2, 23, 59, 59, 999999999, time.UTC)},
		{"explicit midnight kept", `{"date_to":"2024-05-02T00:00:00Z"}`, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)},
		{"offset normalised to utc", `{"date_to":"2024-05-02T00:00:00+03:00"}`, time.Date(2024, 5, 1, 21, 0, 0, 0, time.UTC)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(http.MethodPatch, "/api/v1/viewers/"+v.ID+"/filter", tc.body, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tc.want, upperBound())
		})
	}
}
