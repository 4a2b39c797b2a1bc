package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/isheraz/stroll-test/internal/apperr"
	"github.com/isheraz/stroll-test/internal/cache"
	"github.com/isheraz/stroll-test/internal/cycle"
	"github.com/isheraz/stroll-test/internal/logger"
	"github.com/isheraz/stroll-test/internal/models"
	"github.com/isheraz/stroll-test/internal/service"
)

type stubStore struct {
	question *models.Question
	profiles []models.Profile
	answers  []models.Answer
	users    map[string]bool
	watched  bool
	err      error
}

func (s *stubStore) QuestionByRegionCycle(context.Context, string, int) (*models.Question, error) {
	return s.question, s.err
}

func (s *stubStore) ProfilesByGender(context.Context, string, string, []string) ([]models.Profile, error) {
	return s.profiles, s.err
}

func (s *stubStore) AnswersByUser(context.Context, string) ([]models.Answer, error) {
	return s.answers, s.err
}

func (s *stubStore) InsertAnswer(context.Context, string, int64, string) (int64, error) {
	return 101, s.err
}

func (s *stubStore) InsertVideoWatch(context.Context, string, string) (int64, error) {
	s.watched = true
	return 202, s.err
}

func (s *stubStore) HasWatchedVideo(context.Context, string, string) (bool, error) {
	return s.watched, s.err
}

func (s *stubStore) UserExists(_ context.Context, userID string) (bool, error) {
	return s.users[userID], s.err
}

type stubPinger struct{ err error }

func (p stubPinger) Health(context.Context) error { return p.err }

type testServer struct {
	router  *gin.Engine
	store   *stubStore
	logPath string
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	calc, err := cycle.NewCalculator(time.Date(2024, 1, 1, 19, 0, 0, 0, time.UTC), 7)
	if err != nil {
		t.Fatalf("NewCalculator() error = %v", err)
	}

	lc := cache.NewLocalCache(100, 0)
	t.Cleanup(func() { lc.Close() })

	store := &stubStore{users: map[string]bool{}}
	log := logger.Component(logger.Discard(), "test")
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	svc := service.NewContentService(store, lc, calc, log, service.WithClock(func() time.Time { return now }))

	logPath := filepath.Join(t.TempDir(), "server.log")
	ops := NewOpsHandler(svc, OpsConfig{
		Cache:         lc,
		Postgres:      stubPinger{},
		CacheDriver:   "memory",
		LocalSize:     lc.Size,
		DriverHitRate: lc.HitRate,
		LogPath:       logPath,
	}, log)

	return &testServer{
		router:  NewRouter(NewContentHandler(svc, log), ops, log),
		store:   store,
		logPath: logPath,
	}
}

func (s *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return out
}

func TestAssignQuestion(t *testing.T) {
	srv := setupServer(t)
	srv.store.question = &models.Question{ID: 1, Text: "Q1"}

	w := srv.do(t, http.MethodGet, "/api/assign_question?region_name=singapore&user_id=u1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp models.AssignQuestionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Cycle.Number != 2 || resp.Question == nil || resp.Question.Text != "Q1" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("expected request id header")
	}
}

func TestAssignQuestionValidation(t *testing.T) {
	srv := setupServer(t)

	for _, target := range []string{
		"/api/assign_question?user_id=u1",
		"/api/assign_question?region_name=singapore",
		"/api/assign_question?region_name=singapore&user_id=u1&cycle=-1",
		"/api/assign_question?region_name=singapore&user_id=u1&cycle=abc",
	} {
		if w := srv.do(t, http.MethodGet, target, ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, w.Code)
		}
	}
}

func TestAssignQuestionNotFoundIncludesCycles(t *testing.T) {
	srv := setupServer(t)

	w := srv.do(t, http.MethodGet, "/api/assign_question?region_name=singapore&user_id=u1&cycle=4", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	body := decode(t, w)
	if _, ok := body["cycle"]; !ok {
		t.Error("expected cycle in 404 body")
	}
	if _, ok := body["currentCycle"]; !ok {
		t.Error("expected currentCycle in 404 body")
	}
}

func TestQuestionForCycle(t *testing.T) {
	srv := setupServer(t)
	srv.store.question = &models.Question{ID: 2, Text: "daily"}

	w := srv.do(t, http.MethodGet, "/api/questions/cycle?region=eu&gender=female&cycle=2024-01-10&cycleType=day", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp models.CycleQuestionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Cycle.Number != 10 || resp.Cycle.Type != cycle.TypeDay || resp.Question.Text != "daily" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC); !(cycle.Window{From: resp.Cycle.From, To: resp.Cycle.To}).Contains(date) {
		t.Fatalf("cycle window [%s, %s) does not contain %s", resp.Cycle.From, resp.Cycle.To, date)
	}
}

func TestQuestionForCycleValidation(t *testing.T) {
	srv := setupServer(t)
	srv.store.question = &models.Question{ID: 2, Text: "daily"}

	for _, target := range []string{
		"/api/questions/cycle?gender=female",
		"/api/questions/cycle?region=eu&gender=other",
		"/api/questions/cycle?region=eu&gender=male&cycleType=month",
		"/api/questions/cycle?region=eu&gender=male&cycle=10-01-2024",
		"/api/questions/cycle?region=eu&gender=male&cycle=2023-12-01",
	} {
		if w := srv.do(t, http.MethodGet, target, ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d: %s", target, w.Code, w.Body.String())
		}
	}
}

func TestSubmitAnswer(t *testing.T) {
	srv := setupServer(t)
	srv.store.users["u1"] = true

	w := srv.do(t, http.MethodPost, "/api/answers", `{"userId":"u1","questionId":42,"answer":"yes"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if body := decode(t, w); body["answerId"] != float64(101) {
		t.Fatalf("unexpected body %v", body)
	}

	if w := srv.do(t, http.MethodPost, "/api/answers", `{"userId":"ghost","questionId":42,"answer":"yes"}`); w.Code != http.StatusNotFound {
		t.Errorf("unknown user: expected 404, got %d", w.Code)
	}
	if w := srv.do(t, http.MethodPost, "/api/answers", `{"userId":"u1","answer":"yes"}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing questionId: expected 400, got %d", w.Code)
	}
	if w := srv.do(t, http.MethodPost, "/api/answers", `{"userId":`); w.Code != http.StatusBadRequest {
		t.Errorf("malformed json: expected 400, got %d", w.Code)
	}
}

func TestGetProfiles(t *testing.T) {
	srv := setupServer(t)

	if w := srv.do(t, http.MethodGet, "/api/profiles?gender=female&userId=user123", ""); w.Code != http.StatusNotFound {
		t.Fatalf("empty profiles: expected 404, got %d", w.Code)
	}

	srv.store.profiles = []models.Profile{{ID: 1, UserID: "u2", Gender: "female", ProfileType: "premium"}}
	w := srv.do(t, http.MethodGet, "/api/profiles?gender=female&userId=user123&profileTypes=premium,basic", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp models.ProfilesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Profiles) != 1 {
		t.Fatalf("unexpected profiles %+v", resp.Profiles)
	}

	if w := srv.do(t, http.MethodGet, "/api/profiles?gender=robot&userId=u1", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad gender: expected 400, got %d", w.Code)
	}
}

func TestGetAnswersStoreErrorIsGeneric(t *testing.T) {
	srv := setupServer(t)
	srv.store.err = apperr.Store(errors.New("pq: password authentication failed"), "query answers")

	w := srv.do(t, http.MethodGet, "/api/answers?userId=u1", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Fatalf("store detail leaked to client: %s", w.Body.String())
	}
	if body := decode(t, w); body["error"] != "Internal Server Error" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestGetAnswers(t *testing.T) {
	srv := setupServer(t)
	srv.store.answers = []models.Answer{{ID: 1, UserID: "u1", QuestionID: 42, Answer: "yes"}}

	w := srv.do(t, http.MethodGet, "/api/answers?userId=u1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp models.AnswersResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.UserID != "u1" || len(resp.Answers) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}

	if w := srv.do(t, http.MethodGet, "/api/answers", ""); w.Code != http.StatusBadRequest {
		t.Errorf("missing userId: expected 400, got %d", w.Code)
	}
}

func TestVideoWatchEndpoints(t *testing.T) {
	srv := setupServer(t)

	w := srv.do(t, http.MethodGet, "/api/videos/check?userId=u1&profileId=p1", "")
	if w.Code != http.StatusOK || decode(t, w)["watched"] != false {
		t.Fatalf("check before watch: %d %s", w.Code, w.Body.String())
	}

	w = srv.do(t, http.MethodPost, "/api/videos/watched", `{"userId":"u1","profileId":"p1"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}

	w = srv.do(t, http.MethodGet, "/api/videos/check?userId=u1&profileId=p1", "")
	if w.Code != http.StatusOK || decode(t, w)["watched"] != true {
		t.Fatalf("check after watch: %d %s", w.Code, w.Body.String())
	}

	if w := srv.do(t, http.MethodPost, "/api/videos/watched", `{"userId":"u1"}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing profileId: expected 400, got %d", w.Code)
	}
}

func TestGetLogs(t *testing.T) {
	srv := setupServer(t)

	if w := srv.do(t, http.MethodGet, "/api/logs", ""); w.Code != http.StatusNotFound {
		t.Fatalf("no log file: expected 404, got %d", w.Code)
	}

	content := "[2024-01-10 00:00:00] INFO one\n[2024-01-10 00:00:01] INFO two\n[2024-01-10 00:00:02] INFO three\n"
	if err := os.WriteFile(srv.logPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	w := srv.do(t, http.MethodGet, "/api/logs?n=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp models.LogsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Logs) != 2 || !strings.HasSuffix(resp.Logs[1], "three") {
		t.Fatalf("unexpected logs %v", resp.Logs)
	}

	if w := srv.do(t, http.MethodGet, "/api/logs?n=zero", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad n: expected 400, got %d", w.Code)
	}
}

func TestHealthAndStats(t *testing.T) {
	srv := setupServer(t)
	srv.store.question = &models.Question{ID: 1, Text: "Q1"}

	if w := srv.do(t, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", w.Code)
	}

	srv.do(t, http.MethodGet, "/api/assign_question?region_name=eu&user_id=u1", "")
	srv.do(t, http.MethodGet, "/api/assign_question?region_name=eu&user_id=u1", "")

	w := srv.do(t, http.MethodGet, "/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", w.Code)
	}
	var stats models.StatsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.CacheHits != 1 || stats.CacheMisses != 1 || stats.StoreReads != 1 || stats.LocalSize != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.DriverHitRate != 0.5 {
		t.Errorf("expected driver hit rate 0.5, got %f", stats.DriverHitRate)
	}
	if stats.CacheDriver != "memory" {
		t.Errorf("expected memory driver, got %q", stats.CacheDriver)
	}
}

func TestHealthDegraded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logger.Component(logger.Discard(), "test")
	ops := NewOpsHandler(nil, OpsConfig{Cache: stubPinger{err: errors.New("down")}, Postgres: stubPinger{}}, log)

	router := gin.New()
	router.GET("/health", ops.Health)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}
