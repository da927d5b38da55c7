package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/30sweetener09/convenient-market-app-sub000/internal/auth"
	"github.com/30sweetener09/convenient-market-app-sub000/internal/cache"
	"github.com/30sweetener09/convenient-market-app-sub000/internal/config"
	"github.com/30sweetener09/convenient-market-app-sub000/internal/expiry"
)

const testUserID = "6f1c2a9e-2b53-4a55-9d0b-3f1a4a1f7c11"

type fakeJob struct {
	mu   sync.Mutex
	loc  *time.Location
	next expiry.PassResult
	last *expiry.PassResult
	runs int
	ctx  context.Context
}

func (f *fakeJob) Run(ctx context.Context) expiry.PassResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
	f.ctx = ctx
	res := f.next
	f.last = &res
	return res
}

func (f *fakeJob) Last() (expiry.PassResult, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.last == nil {
		return expiry.PassResult{}, false
	}
	return *f.last, true
}

func (f *fakeJob) Window(t time.Time) expiry.Window {
	return expiry.ComputeWindow(t, f.loc)
}

func testConfig() *config.Config {
	return &config.Config{
		ExpirySchedule: config.DefaultExpirySchedule,
		ExpiryLocation: time.UTC,
		PushProvider:   config.PushProviderLog,
	}
}

func newTestHandler(t *testing.T) (*Handler, pgxmock.PgxPoolIface, *fakeJob) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	job := &fakeJob{loc: time.UTC}
	h := New(mock, job, cache.New(true), testConfig())
	h.now = func() time.Time { return time.Date(2024, 1, 13, 10, 0, 0, 0, time.UTC) }
	return h, mock, job
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode(t, rec)
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "error envelope missing: %s", rec.Body.String())
	return e["code"].(string)
}

// --- health ---

func TestRoot(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.Root(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "running", body["status"])
	assert.Equal(t, "UTC", body["expiry"].(map[string]any)["timezone"])
}

func TestHealthCheckDB(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	mock.ExpectQuery("health_check").WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))
	rec := httptest.NewRecorder()
	h.HealthCheckDB(rec, httptest.NewRequest(http.MethodGet, "/health/db", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "connected", decode(t, rec)["database"])

	mock.ExpectQuery("health_check").WillReturnError(errors.New("connection refused"))
	rec = httptest.NewRecorder()
	h.HealthCheckDB(rec, httptest.NewRequest(http.MethodGet, "/health/db", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "disconnected", decode(t, rec)["database"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- expiry ---

func TestGetExpiryWindow(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.GetExpiryWindow(rec, httptest.NewRequest(http.MethodGet, "/api/v1/expiry/window?at=2024-01-31T22:15:00Z", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	body := decode(t, rec)
	assert.Equal(t, "2024-01-31T00:00:00Z", body["start"])
	assert.Equal(t, "2024-02-01T23:59:59Z", body["end"])
	assert.Equal(t, "UTC", body["timezone"])
	assert.Equal(t, "2024-01-31", body["date"])
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	// Same calendar date is served from cache, and nothing in the body is
	// specific to the first request's instant.
	rec = httptest.NewRecorder()
	h.GetExpiryWindow(rec, httptest.NewRequest(http.MethodGet, "/api/v1/expiry/window?at=2024-01-31T01:00:00Z", nil))
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	hit := decode(t, rec)
	assert.Equal(t, body, hit)
	assert.NotContains(t, hit, "at")
	assert.Equal(t, "2024-01-31", hit["date"])

	req := httptest.NewRequest(http.MethodGet, "/api/v1/expiry/window?at=2024-01-31T05:00:00Z", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.GetExpiryWindow(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
}

func TestGetExpiryWindow_DefaultsToNow(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.GetExpiryWindow(rec, httptest.NewRequest(http.MethodGet, "/api/v1/expiry/window", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "2024-01-13T00:00:00Z", body["start"])
	assert.Equal(t, "2024-01-14T23:59:59Z", body["end"])
}

func TestGetExpiryWindow_BadAt(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.GetExpiryWindow(rec, httptest.NewRequest(http.MethodGet, "/api/v1/expiry/window?at=yesterday", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_AT", errorCode(t, rec))
}

func TestGetExpiryStatus(t *testing.T) {
	h, _, job := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.GetExpiryStatus(rec, httptest.NewRequest(http.MethodGet, "/api/v1/expiry/status", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NO_PASS_YET", errorCode(t, rec))

	job.last = &expiry.PassResult{RunID: "01HMB3", ItemsFound: 3, Multicasts: 2, TokensSucceeded: 4}
	rec = httptest.NewRecorder()
	h.GetExpiryStatus(rec, httptest.NewRequest(http.MethodGet, "/api/v1/expiry/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "01HMB3", body["run_id"])
	assert.EqualValues(t, 3, body["items_found"])
	assert.EqualValues(t, 4, body["tokens_succeeded"])
	assert.NotContains(t, body, "error")
}

func TestRunExpiryPass(t *testing.T) {
	h, _, job := newTestHandler(t)
	job.next = expiry.PassResult{RunID: "ok", ItemsFound: 1, Multicasts: 1}

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/expiry/run", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.RunExpiryPass(rec, req)
	cancel()

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["run_id"])
	assert.Equal(t, 1, job.runs)
	assert.NoError(t, job.ctx.Err(), "pass context detached from the request")
}

func TestRunExpiryPass_Aborted(t *testing.T) {
	h, _, job := newTestHandler(t)
	job.next = expiry.PassResult{RunID: "bad", Err: errors.New("query expiring inventory: timeout")}

	rec := httptest.NewRecorder()
	h.RunExpiryPass(rec, httptest.NewRequest(http.MethodPost, "/api/v1/expiry/run", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "query expiring inventory: timeout", decode(t, rec)["error"])
}

// --- devices ---

func deviceRequest(body string, claims *auth.Claims) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/devices", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if claims != nil {
		req = req.WithContext(auth.WithClaims(req.Context(), claims))
	}
	return req
}

func userClaims(sub string) *auth.Claims {
	return &auth.Claims{Role: "authenticated", RegisteredClaims: jwt.RegisteredClaims{Subject: sub}}
}

func TestRegisterDevice(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	mock.ExpectExec("upsert_device_token").
		WithArgs(testUserID, "fcm-token-abc", "android").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec := httptest.NewRecorder()
	h.RegisterDevice(rec, deviceRequest(`{"token":"  fcm-token-abc ","platform":"Android"}`, userClaims(testUserID)))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, "android", body["platform"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDevice_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		claims *auth.Claims
		status int
		code   string
	}{
		{"no claims", `{"token":"t","platform":"ios"}`, nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"subject not uuid", `{"token":"t","platform":"ios"}`, userClaims("service"), http.StatusUnauthorized, "INVALID_SUBJECT"},
		{"not json", `token=t`, userClaims(testUserID), http.StatusBadRequest, "INVALID_BODY"},
		{"unknown field", `{"token":"t","platform":"ios","extra":1}`, userClaims(testUserID), http.StatusBadRequest, "INVALID_BODY"},
		{"null token", `{"token":"null","platform":"ios"}`, userClaims(testUserID), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"undefined token", `{"token":"undefined","platform":"web"}`, userClaims(testUserID), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"blank token", `{"token":"   ","platform":"ios"}`, userClaims(testUserID), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"bad platform", `{"token":"t","platform":"symbian"}`, userClaims(testUserID), http.StatusBadRequest, "VALIDATION_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mock, _ := newTestHandler(t)
			rec := httptest.NewRecorder()
			h.RegisterDevice(rec, deviceRequest(tt.body, tt.claims))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
			assert.NoError(t, mock.ExpectationsWereMet(), "no database call expected")
		})
	}
}

func TestRegisterDevice_DBError(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	mock.ExpectExec("upsert_device_token").WillReturnError(errors.New("deadlock detected"))

	rec := httptest.NewRecorder()
	h.RegisterDevice(rec, deviceRequest(`{"token":"t","platform":"ios"}`, userClaims(testUserID)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "DB_ERROR", errorCode(t, rec))
}

func TestNewValidator_DeviceTokenTag(t *testing.T) {
	v, err := newValidator()
	require.NoError(t, err)

	assert.NoError(t, v.Var("fcm-token-abc", "devicetoken"))
	for _, bad := range []string{"", "   ", "null", "undefined"} {
		assert.Error(t, v.Var(bad, "devicetoken"), "token %q", bad)
	}
	assert.NotPanics(t, func() { getValidator() })
}
