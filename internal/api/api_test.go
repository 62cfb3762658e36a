package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ram4lh0/Sleep-App/internal"
	"github.com/Ram4lh0/Sleep-App/internal/auth"
	"github.com/Ram4lh0/Sleep-App/internal/notify"
	"github.com/Ram4lh0/Sleep-App/internal/service"
	"github.com/Ram4lh0/Sleep-App/internal/sleepcalc"
	"github.com/Ram4lh0/Sleep-App/internal/storage"
)

type envelope struct {
	Data  json.RawMessage    `json:"data"`
	Meta  map[string]any     `json:"meta"`
	Error *internal.AppError `json:"error"`
}

type testEnv struct {
	router *gin.Engine
	hub    *notify.Hub
	token  string
	userID string
}

func setupRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := internal.NopLogger()
	repos, err := storage.NewSQLiteRepositories(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	hub := notify.NewHub()
	t.Cleanup(func() { hub.Close() })

	clock := sleepcalc.FixedClock{T: time.Date(2024, 3, 5, 7, 10, 0, 0, time.FixedZone("WET", 0))}
	accounts := auth.NewAccountService(repos.Accounts, hub, clock,
		auth.TokenConfig{Secret: "test-secret", Issuer: "test", TTL: time.Hour}, logger)

	app := &Services{
		Log:         logger,
		SleepSvc:    service.NewSleepService(repos.Records, hub, clock, logger),
		AccountSvc:  accounts,
		Goals:       repos.Goals,
		Hub:         hub,
		SystemClock: clock,
	}
	env := &testEnv{router: NewRouter(app, auth.NewLocalAuthProvider(accounts, logger), false), hub: hub}

	w := env.do(t, http.MethodPost, "/auth/signup", `{"email":"ana@example.com","password":"segredo1","name":"Ana"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/auth/signin", `{"email":"ana@example.com","password":"segredo1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var signIn signInResponse
	decodeData(t, w, &signIn)
	env.token = signIn.Token
	env.userID = signIn.User.ID
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v any) *envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if v != nil {
		require.NoError(t, json.Unmarshal(env.Data, v))
	}
	return &env
}

func TestAuthRoutes(t *testing.T) {
	env := setupRouter(t)

	w := env.do(t, http.MethodPost, "/auth/signup", `{"email":"ana@example.com","password":"segredo1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/auth/signup", `{"email":"not-an-email","password":"segredo1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/auth/signin", `{"email":"ana@example.com","password":"wrong-one"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/auth/session", "")
	require.Equal(t, http.StatusOK, w.Code)
	var session struct {
		User      internal.User `json:"user"`
		SessionID string        `json:"session_id"`
	}
	decodeData(t, w, &session)
	assert.Equal(t, "ana@example.com", session.User.Email)
	assert.NotEmpty(t, session.SessionID)

	w = env.do(t, http.MethodPost, "/auth/signout", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/sleep", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSleepRoutes_RequireToken(t *testing.T) {
	env := setupRouter(t)
	env.token = ""
	for _, path := range []string{"/sleep", "/sleep/stats", "/sleep/chart", "/sleep/export", "/api/goals/progress"} {
		w := env.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestPostSleep_ValidAndInvalid(t *testing.T) {
	env := setupRouter(t)

	w := env.do(t, http.MethodPost, "/sleep", `{"bed_time":"22:00","wake_time":"06:15"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var rec internal.SleepRecord
	decodeData(t, w, &rec)
	assert.Equal(t, 8.3, rec.Hours)
	assert.Equal(t, "2024-03-05", rec.Date)
	assert.Equal(t, env.userID, rec.UserID)

	for _, body := range []string{
		`{"bed_time":"22:00"}`,
		`{"bed_time":"24:00","wake_time":"06:15"}`,
		`{"bed_time":"late","wake_time":"early"}`,
		`not json`,
	} {
		w = env.do(t, http.MethodPost, "/sleep", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		e := decodeData(t, w, nil)
		require.NotNil(t, e.Error)
		assert.Equal(t, http.StatusBadRequest, e.Error.Code)
	}
}

func TestListStatsChartAndDelete(t *testing.T) {
	env := setupRouter(t)
	for _, body := range []string{
		`{"bed_time":"23:30","wake_time":"07:00"}`,
		`{"bed_time":"01:00","wake_time":"07:00"}`,
	} {
		require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/sleep", body).Code)
	}

	w := env.do(t, http.MethodGet, "/sleep", "")
	require.Equal(t, http.StatusOK, w.Code)
	var recs []internal.SleepRecord
	e := decodeData(t, w, &recs)
	require.Len(t, recs, 2)
	assert.EqualValues(t, 2, e.Meta["total"])

	w = env.do(t, http.MethodGet, "/sleep/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats service.SleepStats
	decodeData(t, w, &stats)
	assert.Equal(t, service.SleepStats{Average: "6.8", Best: "7.5", Worst: "6.0", Total: 2}, stats)

	w = env.do(t, http.MethodGet, "/sleep/chart", "")
	require.Equal(t, http.StatusOK, w.Code)
	var points []service.ChartPoint
	decodeData(t, w, &points)
	require.Len(t, points, 2)
	assert.Equal(t, "05/03", points[0].Label)
	assert.Equal(t, "Ter", points[0].Weekday)

	w = env.do(t, http.MethodDelete, "/sleep/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, "/sleep/"+recs[0].ID, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/sleep", "")
	decodeData(t, w, &recs)
	assert.Len(t, recs, 1)
}

func TestGetSleepExport(t *testing.T) {
	env := setupRouter(t)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/sleep", `{"bed_time":"23:30","wake_time":"07:00"}`).Code)

	w := env.do(t, http.MethodGet, "/sleep/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="sono_2024-03-05.csv"`, w.Header().Get("Content-Disposition"))
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "\uFEFFData;Dia da Semana;"))
	assert.Contains(t, body, "05/03/2024;Terça;23:30;07:00;7.5h;Boa")
	assert.Contains(t, body, "Total de Registos;;;;1")
}

func TestGoals(t *testing.T) {
	env := setupRouter(t)

	w := env.do(t, http.MethodGet, "/api/goals/progress", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/goals", `{"type":"duration","value":"7h"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	for _, body := range []string{`{"type":"duration"}`, `{"type":"banana","value":"7h"}`} {
		w = env.do(t, http.MethodPost, "/api/goals", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/sleep", `{"bed_time":"23:30","wake_time":"07:00"}`).Code)

	w = env.do(t, http.MethodGet, "/api/goals/progress", "")
	require.Equal(t, http.StatusOK, w.Code)
	var progress service.GoalProgress
	decodeData(t, w, &progress)
	assert.Equal(t, 1, progress.TotalDays)
	assert.Equal(t, 1, progress.MetDays)
}

func TestHealthAndMetrics(t *testing.T) {
	env := setupRouter(t)
	env.token = ""

	w := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sleep_app_http_requests_total")
}

func TestSleepFeed_StreamsOwnEvents(t *testing.T) {
	env := setupRouter(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sleep/feed", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+env.token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 32)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	require.Eventually(t, func() bool { return env.hub.Subscribers(env.userID) == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/sleep", `{"bed_time":"22:00","wake_time":"06:15"}`).Code)

	timeout := time.After(2 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			require.True(t, ok, "feed closed before the insert event")
			if line == "event:"+string(notify.EventInsert) {
				return
			}
		case <-timeout:
			t.Fatal("no insert event on the feed")
		}
	}
}
