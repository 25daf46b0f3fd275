package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-practice-web/pkg/http/apiclient"
)

func newBackend(t *testing.T, mux *http.ServeMux, cache ConfigCache) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	api, err := apiclient.New(srv.URL, apiclient.Options{})
	require.NoError(t, err)
	return NewClient(api, cache, zerolog.Nop())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/credentials", func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "correct-horse" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid username or password"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"id": 7, "name": req.Username, "token": "jwt-abc", "is_admin": true})
	})
	c := newBackend(t, mux, nil)

	id, err := c.Credentials(context.Background(), "alice", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, Identity{ID: 7, Name: "alice", Token: "jwt-abc", IsAdmin: true}, *id)

	_, err = c.Credentials(context.Background(), "alice", "nope")
	require.Error(t, err)
	assert.Equal(t, "Invalid username or password", err.Error())
	assert.True(t, apiclient.IsAccessDenied(err))
}

func TestStartQuizSendsEmptySetsAndBearer(t *testing.T) {
	var got map[string]interface{}
	var auth string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/quiz/start", func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, StartResponse{AttemptID: 11, Questions: []Question{{ID: 1, Question: "Q1"}}})
	})
	c := newBackend(t, mux, nil)

	resp, err := c.StartQuiz(context.Background(), "tok", StartRequest{TestName: "Practice Quiz"})
	require.NoError(t, err)
	assert.Equal(t, int64(11), resp.AttemptID)
	assert.Len(t, resp.Questions, 1)
	assert.Equal(t, "Bearer tok", auth)
	assert.Equal(t, []interface{}{}, got["categories"])
	assert.Equal(t, []interface{}{}, got["difficulties"])
	assert.Equal(t, "Practice Quiz", got["testName"])
}

func TestResumeQuiz(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/quiz/resume/5", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"questions":[{"id":1},{"id":2}],"answersSoFar":{"1":"B"}}`))
	})
	mux.HandleFunc("/api/quiz/resume/6", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"questions":[{"id":1}]}`))
	})
	mux.HandleFunc("/api/quiz/resume/9", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Attempt not found"})
	})
	c := newBackend(t, mux, nil)

	resp, err := c.ResumeQuiz(context.Background(), "tok", 5)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1": "B"}, resp.AnswersSoFar)
	assert.Len(t, resp.Questions, 2)

	resp, err = c.ResumeQuiz(context.Background(), "tok", 6)
	require.NoError(t, err)
	assert.NotNil(t, resp.AnswersSoFar)

	_, err = c.ResumeQuiz(context.Background(), "tok", 9)
	assert.True(t, apiclient.IsNotFound(err))
}

func TestAdminAnalyticsForwardsGrant(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/analytics", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(AdminCookieName); err != nil || c.Value != "grant-1" {
			writeJSON(w, http.StatusForbidden, map[string]string{"message": "Admin privileges required"})
			return
		}
		_, _ = w.Write([]byte(`{"total_quizzes_taken":3,"average_score_all_users":null,"performance_by_category":{"Math":{"correct":2,"total":4}},"user_analytics":[]}`))
	})
	c := newBackend(t, mux, nil)

	out, err := c.AdminAnalytics(context.Background(), "tok", "grant-1")
	require.NoError(t, err)
	assert.Equal(t, 3, out.TotalQuizzesTaken)
	assert.Nil(t, out.AverageScoreAllUsers)
	assert.Equal(t, CategoryTally{Correct: 2, Total: 4}, out.PerformanceByCategory["Math"])

	_, err = c.AdminAnalytics(context.Background(), "tok", "")
	assert.True(t, apiclient.IsAccessDenied(err))
}

func TestVerifyPasscodeCapturesCookie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/verify-passcode", func(w http.ResponseWriter, r *http.Request) {
		var req passcodeRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		switch req.Passcode {
		case "open-sesame":
			http.SetCookie(w, &http.Cookie{Name: AdminCookieName, Value: "grant-xyz", MaxAge: 3600, Path: "/"})
			writeJSON(w, http.StatusOK, map[string]string{"message": "Passcode verified"})
		case "no-cookie":
			writeJSON(w, http.StatusOK, map[string]string{"message": "Passcode verified"})
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid passcode"})
		}
	})
	c := newBackend(t, mux, nil)

	grant, err := c.VerifyPasscode(context.Background(), "open-sesame")
	require.NoError(t, err)
	assert.Equal(t, "grant-xyz", grant.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), grant.ExpiresAt, 5*time.Second)

	_, err = c.VerifyPasscode(context.Background(), "no-cookie")
	assert.Error(t, err)

	_, err = c.VerifyPasscode(context.Background(), "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid passcode", err.Error())
}

func TestQuizConfigUsesRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/quiz-config", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusOK, QuizConfig{Categories: []string{"Marketing", "Finance"}, Difficulties: []string{"Easy"}})
	})
	c := newBackend(t, mux, NewRedisConfigCache(rdb, time.Minute))

	for i := 0; i < 3; i++ {
		cfg, err := c.QuizConfig(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"Marketing", "Finance"}, cfg.Categories)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	mr.FastForward(2 * time.Minute)
	_, err := c.QuizConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestQuizConfigSurvivesCacheOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/quiz-config", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, QuizConfig{Categories: []string{"Marketing"}})
	})
	c := newBackend(t, mux, NewRedisConfigCache(rdb, time.Minute))

	cfg, err := c.QuizConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Marketing"}, cfg.Categories)
}
