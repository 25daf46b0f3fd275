package quiz

import (
	"errors"
	"time"

	"github.com/gokatarajesh/quiz-practice-web/internal/backend"
)

// DefaultTestName is used when a start request leaves the name blank.
const DefaultTestName = "Practice Quiz"

// SyncStatus tracks whether a local write reached the backend.
type SyncStatus string

const (
	SyncPending   SyncStatus = "pending"
	SyncConfirmed SyncStatus = "confirmed"
	SyncFailed    SyncStatus = "failed"
)

var (
	ErrAttemptNotFound = errors.New("attempt not found")
	ErrAnswerLocked    = errors.New("question already answered")
	ErrUnknownQuestion = errors.New("question is not part of this attempt")
	ErrUnknownOption   = errors.New("option is not offered for this question")
	ErrAttemptComplete = errors.New("attempt is already complete")
)

// Question is immutable once fetched.
type Question = backend.Question

// Answer is one locked selection and the state of its persistence.
type Answer struct {
	OptionID   string     `json:"option_id"`
	Status     SyncStatus `json:"status"`
	Error      string     `json:"error,omitempty"`
	RecordedAt time.Time  `json:"recorded_at"`
}

// Caller identifies who acts on an attempt and with which backend token.
type Caller struct {
	UserKey string
	Token   string
}

// StartParams are the filters chosen on the practice page.
type StartParams struct {
	Categories   []string
	Difficulties []string
	TestName     string
}

// StartRecord remembers which attempt a start key produced.
type StartRecord struct {
	Key       string `json:"key"`
	AttemptID int64  `json:"attempt_id"`
}

// Event is published on every sync status transition.
type Event struct {
	Type        string     `json:"type"`
	UserKey     string     `json:"user_key"`
	AttemptID   int64      `json:"attempt_id"`
	QuestionID  int64      `json:"question_id,omitempty"`
	Status      SyncStatus `json:"status"`
	Error       string     `json:"error,omitempty"`
	Score       int        `json:"score,omitempty"`
	PublishedAt time.Time  `json:"published_at"`
}

const (
	EventAnswerSync   = "answer_sync"
	EventQuizFinished = "quiz_finished"
)
