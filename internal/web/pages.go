package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gokatarajesh/quiz-practice-web/internal/auth"
	"github.com/gokatarajesh/quiz-practice-web/internal/dashboard"
	"github.com/gokatarajesh/quiz-practice-web/internal/quiz"
	"github.com/gokatarajesh/quiz-practice-web/pkg/http/apiclient"
)

// PracticeView backs the quiz configuration form.
type PracticeView struct {
	Categories           []string
	Difficulties         []string
	Selected             []string
	SelectedDifficulties []string
	TestName             string
	Error                string
}

// Home handles GET /. Visitors see the landing page, signed-in users their dashboard.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.FromContext(r.Context()); ok {
		h.render.Render(w, r, http.StatusOK, PageDashboard, nil)
		return
	}
	h.render.Render(w, r, http.StatusOK, PageHome, nil)
}

// Practice handles GET /practice
func (h *Handlers) Practice(w http.ResponseWriter, r *http.Request) {
	view := h.practiceView(r)
	h.render.Render(w, r, http.StatusOK, PagePractice, view)
}

func (h *Handlers) practiceView(r *http.Request) PracticeView {
	view := PracticeView{}
	cfg, err := h.config.QuizConfig(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to load quiz config")
		view.Error = "Could not load quiz options."
		return view
	}
	view.Categories = cfg.Categories
	view.Difficulties = cfg.Difficulties
	return view
}

// StartPractice handles POST /practice/start
func (h *Handlers) StartPractice(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	params := quiz.StartParams{
		Categories:   r.PostForm["categories"],
		Difficulties: r.PostForm["difficulties"],
	}.Normalize()
	params.TestName = strings.TrimSpace(r.PostFormValue("testName"))
	if params.TestName == "" {
		params.TestName = testNameFor(params.Categories, params.Difficulties)
	}

	attempt, err := h.quiz.Start(r.Context(), caller(session(r)), params)
	if err != nil {
		view := h.practiceView(r)
		view.Selected = params.Categories
		view.SelectedDifficulties = params.Difficulties
		view.TestName = r.PostFormValue("testName")
		status := http.StatusBadGateway
		view.Error = "Could not load quiz questions."

		var apiErr *apiclient.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			status = apiErr.StatusCode
			view.Error = apiErr.Message
		}
		h.logger.Warn().Err(err).Msg("failed to start quiz")
		h.render.Render(w, r, status, PagePractice, view)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/quiz/%d", attempt.ID), http.StatusSeeOther)
}

// testNameFor names a quiz after its normalized filters when the user gave no name.
func testNameFor(categories, difficulties []string) string {
	if len(categories) > 0 {
		return strings.Join(categories, ", ") + " Quiz"
	}
	if len(difficulties) > 0 {
		return strings.Join(difficulties, ", ") + " Difficulty Quiz"
	}
	return quiz.DefaultTestName
}

// TestsTaken handles GET /tests-taken
func (h *Handlers) TestsTaken(w http.ResponseWriter, r *http.Request) {
	view := h.dash.TestsTaken(r.Context(), session(r).BackendToken)
	h.render.Render(w, r, statusFor(view.State), PageTestsTaken, view)
}

// Progress handles GET /progress
func (h *Handlers) Progress(w http.ResponseWriter, r *http.Request) {
	view := h.dash.Progress(r.Context(), session(r).BackendToken)
	h.render.Render(w, r, statusFor(view.State), PageProgress, view)
}

// AdminDashboard handles GET /admin/dashboard
func (h *Handlers) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	view := h.dash.Admin(r.Context(), dashboard.AdminViewer{
		Token:   sess.BackendToken,
		IsAdmin: sess.IsAdmin,
		Grant:   sess.ActiveAdminGrant(h.now()),
	})
	h.render.Render(w, r, statusFor(view.State), PageAdminDashboard, view)
}

func statusFor(state dashboard.RenderState) int {
	switch state {
	case dashboard.StateAccessDenied:
		return http.StatusForbidden
	case dashboard.StateUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}
