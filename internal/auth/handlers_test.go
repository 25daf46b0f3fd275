package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-practice-web/internal/backend"
	"github.com/gokatarajesh/quiz-practice-web/pkg/http/apiclient"
)

type recordingRenderer struct {
	page   string
	status int
	view   FormView
}

func (r *recordingRenderer) Render(w http.ResponseWriter, _ *http.Request, status int, page string, data interface{}) {
	r.page = page
	r.status = status
	r.view, _ = data.(FormView)
	w.WriteHeader(status)
}

func postForm(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestLoginHandlerSetsCookieAndRedirects(t *testing.T) {
	repo := new(mockBackend)
	repo.On("Credentials", mock.Anything, "alice", "password123").
		Return(&backend.Identity{ID: 1, Name: "alice", Token: "tok"}, nil)
	svc := newTestService(t, repo)
	render := &recordingRenderer{}
	h := NewHTTPHandlers(svc, Cookies{Name: "sess"}, render, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Login(rec, postForm("/login", url.Values{"username": {"alice"}, "password": {"password123"}, "next": {"/progress"}}))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/progress", rec.Header().Get("Location"))
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, "sess", rec.Result().Cookies()[0].Name)
	assert.True(t, rec.Result().Cookies()[0].HttpOnly)
}

func TestLoginHandlerRendersBackendMessage(t *testing.T) {
	repo := new(mockBackend)
	repo.On("Credentials", mock.Anything, "alice", "password123").
		Return(nil, &apiclient.Error{StatusCode: http.StatusUnauthorized, Message: "Invalid username or password"})
	render := &recordingRenderer{}
	h := NewHTTPHandlers(newTestService(t, repo), Cookies{}, render, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Login(rec, postForm("/login", url.Values{"username": {"alice"}, "password": {"password123"}}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, PageLogin, render.page)
	assert.Equal(t, "Invalid username or password", render.view.Error)
	assert.Equal(t, "alice", render.view.Username)
	assert.Empty(t, rec.Result().Cookies())
}

func TestLoginHandlerNetworkFailure(t *testing.T) {
	repo := new(mockBackend)
	repo.On("Credentials", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: refused"))
	render := &recordingRenderer{}
	h := NewHTTPHandlers(newTestService(t, repo), Cookies{}, render, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Login(rec, postForm("/login", url.Values{"username": {"alice"}, "password": {"password123"}}))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Could not reach the server. Please try again.", render.view.Error)
}

func TestLoginHandlerRejectsOpenRedirect(t *testing.T) {
	repo := new(mockBackend)
	repo.On("Credentials", mock.Anything, mock.Anything, mock.Anything).
		Return(&backend.Identity{ID: 1, Token: "tok"}, nil)
	h := NewHTTPHandlers(newTestService(t, repo), Cookies{}, &recordingRenderer{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Login(rec, postForm("/login", url.Values{"username": {"alice"}, "password": {"password123"}, "next": {"//evil.example"}}))
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestRegisterHandler(t *testing.T) {
	repo := new(mockBackend)
	repo.On("Register", mock.Anything, "alice", "password123").Return(&backend.Identity{ID: 1}, nil)
	render := &recordingRenderer{}
	h := NewHTTPHandlers(newTestService(t, repo), Cookies{}, render, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Register(rec, postForm("/register", url.Values{"username": {"alice"}, "password": {"password123"}}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?registered=1", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	h.Register(rec, postForm("/register", url.Values{"username": {"al"}, "password": {"password123"}}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "username", render.view.Field)
}

func TestAdminGateHandler(t *testing.T) {
	repo := new(mockBackend)
	repo.On("VerifyPasscode", mock.Anything, "wrong").
		Return(nil, &apiclient.Error{StatusCode: http.StatusUnauthorized, Message: "Invalid passcode"})
	render := &recordingRenderer{}
	h := NewHTTPHandlers(newTestService(t, repo), Cookies{}, render, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.AdminGate(rec, postForm("/admin", url.Values{"passcode": {"x"}}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	sess := &Session{ID: "s1", UserID: 1, BackendToken: "tok"}
	req := postForm("/admin", url.Values{"passcode": {"wrong"}})
	req = req.WithContext(WithSession(context.Background(), sess))
	rec = httptest.NewRecorder()
	h.AdminGate(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid passcode", render.view.Error)
}

func TestRequireSession(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	handler := RequireSession(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/progress", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2Fprogress", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/quiz/1/state", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/progress", nil)
	req = req.WithContext(WithSession(req.Context(), &Session{UserID: 1}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestSessionMiddleware(t *testing.T) {
	repo := new(mockBackend)
	repo.On("Credentials", mock.Anything, mock.Anything, mock.Anything).
		Return(&backend.Identity{ID: 5, Name: "eve", Token: "tok"}, nil)
	svc := newTestService(t, repo)
	_, signed, err := svc.Login(context.Background(), LoginRequest{Username: "eve", Password: "password123"})
	require.NoError(t, err)

	cookies := Cookies{Name: "sess"}
	var seen *Session
	handler := SessionMiddleware(svc, cookies, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sess", Value: signed})
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, seen)
	assert.Equal(t, int64(5), seen.UserID)

	seen = nil
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sess", Value: "garbage"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Nil(t, seen)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
}
