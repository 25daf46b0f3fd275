package auth

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-practice-web/pkg/http/apiclient"
)

// Page names rendered by these handlers.
const (
	PageLogin     = "login"
	PageRegister  = "register"
	PageAdminGate = "admin_gate"
)

// Renderer draws a named page.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, status int, page string, data interface{})
}

// FormView backs the login, register and admin gate forms.
type FormView struct {
	Title    string
	Username string
	Next     string
	Notice   string
	Error    string
	Field    string
}

// HTTPHandlers serves the sign-in, registration and admin gate forms.
type HTTPHandlers struct {
	authSvc *Service
	cookies Cookies
	render  Renderer
	logger  zerolog.Logger
}

// NewHTTPHandlers creates form handlers for the session flow.
func NewHTTPHandlers(authSvc *Service, cookies Cookies, render Renderer, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		authSvc: authSvc,
		cookies: cookies,
		render:  render,
		logger:  logger.With().Str("component", "auth_handlers").Logger(),
	}
}

// Login handles GET/POST /login
func (h *HTTPHandlers) Login(w http.ResponseWriter, r *http.Request) {
	view := FormView{Title: "Login", Next: safeNext(r.URL.Query().Get("next"))}
	if r.URL.Query().Get("registered") == "1" {
		view.Notice = "Account created. Please sign in."
	}

	switch r.Method {
	case http.MethodGet:
		if _, ok := FromContext(r.Context()); ok {
			http.Redirect(w, r, view.Next, http.StatusSeeOther)
			return
		}
		h.render.Render(w, r, http.StatusOK, PageLogin, view)
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			view.Error = "Invalid form submission"
			h.render.Render(w, r, http.StatusBadRequest, PageLogin, view)
			return
		}
		view.Username = r.PostFormValue("username")
		view.Next = safeNext(r.PostFormValue("next"))

		sess, signed, err := h.authSvc.Login(r.Context(), LoginRequest{
			Username: view.Username,
			Password: r.PostFormValue("password"),
		})
		if err != nil {
			status, msg, field := h.describe(err, "Invalid credentials")
			view.Error, view.Field = msg, field
			h.render.Render(w, r, status, PageLogin, view)
			return
		}

		h.cookies.Set(w, signed, sess.ExpiresAt)
		http.Redirect(w, r, view.Next, http.StatusSeeOther)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Register handles GET/POST /register
func (h *HTTPHandlers) Register(w http.ResponseWriter, r *http.Request) {
	view := FormView{Title: "Register"}

	switch r.Method {
	case http.MethodGet:
		h.render.Render(w, r, http.StatusOK, PageRegister, view)
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			view.Error = "Invalid form submission"
			h.render.Render(w, r, http.StatusBadRequest, PageRegister, view)
			return
		}
		view.Username = r.PostFormValue("username")

		err := h.authSvc.Register(r.Context(), RegisterRequest{
			Username: view.Username,
			Password: r.PostFormValue("password"),
		})
		if err != nil {
			status, msg, field := h.describe(err, "Failed to register")
			view.Error, view.Field = msg, field
			h.render.Render(w, r, status, PageRegister, view)
			return
		}

		http.Redirect(w, r, "/login?registered=1", http.StatusSeeOther)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Logout handles POST /logout
func (h *HTTPHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.cookies.Clear(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// AdminGate handles GET/POST /admin. Requires a session.
func (h *HTTPHandlers) AdminGate(w http.ResponseWriter, r *http.Request) {
	view := FormView{Title: "Admin Access"}
	sess, ok := FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login?next=/admin", http.StatusSeeOther)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.render.Render(w, r, http.StatusOK, PageAdminGate, view)
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			view.Error = "Invalid form submission"
			h.render.Render(w, r, http.StatusBadRequest, PageAdminGate, view)
			return
		}

		updated, signed, err := h.authSvc.GrantAdmin(r.Context(), sess, PasscodeRequest{
			Passcode: r.PostFormValue("passcode"),
		})
		if err != nil {
			status, msg, field := h.describe(err, "Failed to verify passcode.")
			view.Error, view.Field = msg, field
			h.render.Render(w, r, status, PageAdminGate, view)
			return
		}

		h.cookies.Set(w, signed, updated.ExpiresAt)
		http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// describe maps a flow error to a status, user-facing message and offending field.
func (h *HTTPHandlers) describe(err error, fallback string) (int, string, string) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, verr.Message, verr.Field
	}

	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return apiErr.StatusCode, apiErr.Message, ""
		}
		h.logger.Warn().Err(err).Int("status", apiErr.StatusCode).Msg("backend rejected auth request")
		return http.StatusBadGateway, fallback, ""
	}

	h.logger.Error().Err(err).Msg("auth request failed")
	return http.StatusBadGateway, "Could not reach the server. Please try again.", ""
}
