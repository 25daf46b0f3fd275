package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gokatarajesh/quiz-practice-web/internal/logging"
	"github.com/gokatarajesh/quiz-practice-web/internal/quiz"
	"github.com/gokatarajesh/quiz-practice-web/pkg/http/apiclient"
	httperrors "github.com/gokatarajesh/quiz-practice-web/pkg/http/errors"
)

// QuizView backs the quiz runner page.
type QuizView struct {
	State quiz.State
}

// PageTitle names the browser tab after the quiz.
func (v QuizView) PageTitle() string {
	return v.State.TestName
}

func attemptID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func questionID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PostFormValue("question_id"), 10, 64)
	return id, err == nil
}

func quizURL(id int64) string {
	return fmt.Sprintf("/quiz/%d", id)
}

// Quiz handles GET /quiz/{id}. Attempts not held locally are resumed from the backend.
func (h *Handlers) Quiz(w http.ResponseWriter, r *http.Request) {
	id, ok := attemptID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	attempt, err := h.quiz.Get(r.Context(), caller(session(r)), id)
	if errors.Is(err, quiz.ErrAttemptNotFound) {
		http.Redirect(w, r, quizURL(id)+"/resume", http.StatusSeeOther)
		return
	}
	if err != nil {
		h.failQuiz(w, r, id, err)
		return
	}
	h.render.Render(w, r, http.StatusOK, PageQuiz, QuizView{State: attempt.State()})
}

// Resume handles GET /quiz/{id}/resume
func (h *Handlers) Resume(w http.ResponseWriter, r *http.Request) {
	id, ok := attemptID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if _, err := h.quiz.Resume(r.Context(), caller(session(r)), id); err != nil {
		switch {
		case apiclient.IsNotFound(err):
			h.renderError(w, r, http.StatusNotFound, "Quiz not found", "This quiz does not exist or has expired.", "/tests-taken")
		case apiclient.IsAccessDenied(err):
			h.renderError(w, r, http.StatusForbidden, "Access Denied", "You cannot resume this quiz.", "/tests-taken")
		default:
			logger := logging.FromContext(r.Context())
			logger.Warn().Err(err).Int64("attempt_id", id).Msg("failed to resume quiz")
			h.renderError(w, r, http.StatusBadGateway, "Could not resume quiz", "Could not load quiz questions. Please try again.", "/tests-taken")
		}
		return
	}
	http.Redirect(w, r, quizURL(id), http.StatusSeeOther)
}

// Answer handles POST /quiz/{id}/answer
func (h *Handlers) Answer(w http.ResponseWriter, r *http.Request) {
	h.questionAction(w, r, func(c quiz.Caller, id, qid int64) (*quiz.Attempt, error) {
		return h.quiz.RecordAnswer(r.Context(), c, id, qid, r.PostFormValue("option"))
	})
}

// Eliminate handles POST /quiz/{id}/eliminate
func (h *Handlers) Eliminate(w http.ResponseWriter, r *http.Request) {
	h.questionAction(w, r, func(c quiz.Caller, id, qid int64) (*quiz.Attempt, error) {
		return h.quiz.Eliminate(r.Context(), c, id, qid, r.PostFormValue("option"))
	})
}

// Flag handles POST /quiz/{id}/flag
func (h *Handlers) Flag(w http.ResponseWriter, r *http.Request) {
	h.questionAction(w, r, func(c quiz.Caller, id, qid int64) (*quiz.Attempt, error) {
		return h.quiz.ToggleFlag(r.Context(), c, id, qid)
	})
}

// Next handles POST /quiz/{id}/next. From the last question it finishes the quiz.
func (h *Handlers) Next(w http.ResponseWriter, r *http.Request) {
	h.attemptAction(w, r, func(c quiz.Caller, id int64) (*quiz.Attempt, error) {
		return h.quiz.Advance(r.Context(), c, id)
	})
}

// Finish handles POST /quiz/{id}/finish
func (h *Handlers) Finish(w http.ResponseWriter, r *http.Request) {
	h.attemptAction(w, r, func(c quiz.Caller, id int64) (*quiz.Attempt, error) {
		return h.quiz.Finish(r.Context(), c, id)
	})
}

// State handles GET /v1/quiz/{id}/state
func (h *Handlers) State(w http.ResponseWriter, r *http.Request) {
	id, ok := attemptID(r)
	if !ok {
		httperrors.RespondNotFound(w, httperrors.ErrCodeAttemptNotFound, "Attempt not found")
		return
	}
	attempt, err := h.quiz.Get(r.Context(), caller(session(r)), id)
	if err != nil {
		h.respondJSONError(w, r, id, err)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, attempt.State())
}

func (h *Handlers) questionAction(w http.ResponseWriter, r *http.Request, fn func(quiz.Caller, int64, int64) (*quiz.Attempt, error)) {
	h.attemptAction(w, r, func(c quiz.Caller, id int64) (*quiz.Attempt, error) {
		qid, ok := questionID(r)
		if !ok {
			return nil, quiz.ErrUnknownQuestion
		}
		return fn(c, id, qid)
	})
}

// attemptAction runs a controller operation and answers with JSON state for
// API clients or a redirect back to the runner for form posts.
func (h *Handlers) attemptAction(w http.ResponseWriter, r *http.Request, fn func(quiz.Caller, int64) (*quiz.Attempt, error)) {
	id, ok := attemptID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid form submission")
		return
	}

	attempt, err := fn(caller(session(r)), id)
	if wantsJSON(r) {
		if err != nil {
			h.respondJSONError(w, r, id, err)
			return
		}
		httperrors.RespondJSON(w, http.StatusOK, attempt.State())
		return
	}

	switch {
	case err == nil, quiz.IsRejection(err):
		// Rejected actions leave the attempt unchanged; the runner shows its current state.
		http.Redirect(w, r, quizURL(id), http.StatusSeeOther)
	case errors.Is(err, quiz.ErrAttemptNotFound):
		http.Redirect(w, r, quizURL(id)+"/resume", http.StatusSeeOther)
	default:
		h.failQuiz(w, r, id, err)
	}
}

func (h *Handlers) failQuiz(w http.ResponseWriter, r *http.Request, id int64, err error) {
	logger := logging.FromContext(r.Context())
	logger.Error().Err(err).Int64("attempt_id", id).Msg("quiz action failed")
	h.renderError(w, r, http.StatusInternalServerError, "Something went wrong", "Could not update the quiz. Please try again.", quizURL(id))
}

func (h *Handlers) respondJSONError(w http.ResponseWriter, r *http.Request, id int64, err error) {
	switch {
	case errors.Is(err, quiz.ErrAttemptNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeAttemptNotFound, "Attempt not found")
	case errors.Is(err, quiz.ErrAnswerLocked):
		httperrors.RespondConflict(w, httperrors.ErrCodeAnswerLocked, "Question already answered")
	case errors.Is(err, quiz.ErrAttemptComplete):
		httperrors.RespondConflict(w, httperrors.ErrCodeAttemptClosed, "Quiz already finished")
	case errors.Is(err, quiz.ErrUnknownOption):
		httperrors.RespondValidationError(w, httperrors.ErrCodeUnknownOption, "Unknown option", "option")
	case errors.Is(err, quiz.ErrUnknownQuestion):
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidRequest, "Unknown question", "question_id")
	default:
		logger := logging.FromContext(r.Context())
		logger.Error().Err(err).Int64("attempt_id", id).Msg("quiz action failed")
		httperrors.RespondInternalError(w, "Could not update the quiz")
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
