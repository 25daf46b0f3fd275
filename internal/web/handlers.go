package web

import (
	"context"
	"embed"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-practice-web/internal/auth"
	"github.com/gokatarajesh/quiz-practice-web/internal/backend"
	"github.com/gokatarajesh/quiz-practice-web/internal/dashboard"
	"github.com/gokatarajesh/quiz-practice-web/internal/quiz"
	ws "github.com/gokatarajesh/quiz-practice-web/pkg/http/ws"
)

//go:embed static/*
var staticFS embed.FS

// QuizConfigSource lists the categories and difficulties offered on the practice page.
type QuizConfigSource interface {
	QuizConfig(ctx context.Context) (*backend.QuizConfig, error)
}

// Handlers serves the signed-in pages, quiz actions and the sync feed.
type Handlers struct {
	quiz     *quiz.Service
	dash     *dashboard.Service
	config   QuizConfigSource
	hub      *ws.Hub
	render   auth.Renderer
	upgrader websocket.Upgrader
	now      func() time.Time
	logger   zerolog.Logger
}

// NewHandlers wires page handlers. The websocket upgrader keeps gorilla's same-origin check.
func NewHandlers(quizSvc *quiz.Service, dashSvc *dashboard.Service, config QuizConfigSource, hub *ws.Hub, render auth.Renderer, logger zerolog.Logger) *Handlers {
	return &Handlers{
		quiz:   quizSvc,
		dash:   dashSvc,
		config: config,
		hub:    hub,
		render: render,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		now:    time.Now,
		logger: logger.With().Str("component", "web").Logger(),
	}
}

// Register mounts every page route on mux. Auth form routes are mounted by the server.
func (h *Handlers) Register(mux *http.ServeMux) {
	protect := func(fn http.HandlerFunc) http.Handler {
		return auth.RequireSession(fn)
	}

	mux.Handle("GET /static/", http.FileServerFS(staticFS))
	mux.HandleFunc("GET /{$}", h.Home)

	mux.Handle("GET /practice", protect(h.Practice))
	mux.Handle("POST /practice/start", protect(h.StartPractice))

	mux.Handle("GET /quiz/{id}", protect(h.Quiz))
	mux.Handle("GET /quiz/{id}/resume", protect(h.Resume))
	mux.Handle("POST /quiz/{id}/answer", protect(h.Answer))
	mux.Handle("POST /quiz/{id}/next", protect(h.Next))
	mux.Handle("POST /quiz/{id}/finish", protect(h.Finish))
	mux.Handle("POST /quiz/{id}/flag", protect(h.Flag))
	mux.Handle("POST /quiz/{id}/eliminate", protect(h.Eliminate))
	mux.Handle("GET /v1/quiz/{id}/state", protect(h.State))
	mux.Handle("GET /ws/quiz", protect(h.Socket))

	mux.Handle("GET /tests-taken", protect(h.TestsTaken))
	mux.Handle("GET /progress", protect(h.Progress))
	mux.Handle("GET /admin/dashboard", protect(h.AdminDashboard))
}

// ErrorView backs the generic error page.
type ErrorView struct {
	Heading string
	Message string
	Back    string
}

func (h *Handlers) renderError(w http.ResponseWriter, r *http.Request, status int, heading, message, back string) {
	h.render.Render(w, r, status, PageError, ErrorView{Heading: heading, Message: message, Back: back})
}

func caller(sess *auth.Session) quiz.Caller {
	return quiz.Caller{UserKey: sess.UserKey(), Token: sess.BackendToken}
}

// session is only called behind RequireSession.
func session(r *http.Request) *auth.Session {
	sess, _ := auth.FromContext(r.Context())
	return sess
}
