package quiz

import (
	"sort"
	"strconv"
	"time"
)

// Attempt is the UI state of one quiz run owned by one user.
type Attempt struct {
	ID          int64              `json:"id"`
	UserKey     string             `json:"user_key"`
	TestName    string             `json:"test_name"`
	Questions   []Question         `json:"questions"`
	Answers     map[int64]Answer   `json:"answers"`
	Flagged     map[int64]bool     `json:"flagged"`
	Eliminated  map[int64][]string `json:"eliminated"`
	Index       int                `json:"index"`
	Complete    bool               `json:"complete"`
	Score       int                `json:"score"`
	ScoreStatus SyncStatus         `json:"score_status,omitempty"`
	ScoreError  string             `json:"score_error,omitempty"`
	StartKey    string             `json:"start_key,omitempty"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func newAttempt(id int64, userKey, testName string, questions []Question, startKey string) *Attempt {
	if questions == nil {
		questions = []Question{}
	}
	return &Attempt{
		ID:         id,
		UserKey:    userKey,
		TestName:   testName,
		Questions:  questions,
		Answers:    map[int64]Answer{},
		Flagged:    map[int64]bool{},
		Eliminated: map[int64][]string{},
		StartKey:   startKey,
		UpdatedAt:  time.Now(),
	}
}

// ResumeIndex is the position of the first question absent from saved,
// or the last position when every question is answered.
func ResumeIndex(questions []Question, saved map[string]string) int {
	for i, q := range questions {
		if _, ok := saved[strconv.FormatInt(q.ID, 10)]; !ok {
			return i
		}
	}
	if len(questions) == 0 {
		return 0
	}
	return len(questions) - 1
}

func (a *Attempt) ensureMaps() {
	if a.Answers == nil {
		a.Answers = map[int64]Answer{}
	}
	if a.Flagged == nil {
		a.Flagged = map[int64]bool{}
	}
	if a.Eliminated == nil {
		a.Eliminated = map[int64][]string{}
	}
}

func (a *Attempt) question(id int64) (*Question, bool) {
	for i := range a.Questions {
		if a.Questions[i].ID == id {
			return &a.Questions[i], true
		}
	}
	return nil, false
}

// Current returns the question at Index, or nil for an empty attempt.
func (a *Attempt) Current() *Question {
	if a.Index < 0 || a.Index >= len(a.Questions) {
		return nil
	}
	return &a.Questions[a.Index]
}

// RecordAnswer locks optionID in for questionID with a pending sync.
func (a *Attempt) RecordAnswer(questionID int64, optionID string, now time.Time) error {
	a.ensureMaps()
	if a.Complete {
		return ErrAttemptComplete
	}
	q, ok := a.question(questionID)
	if !ok {
		return ErrUnknownQuestion
	}
	if _, answered := a.Answers[questionID]; answered {
		return ErrAnswerLocked
	}
	if !hasOption(q, optionID) {
		return ErrUnknownOption
	}

	a.Answers[questionID] = Answer{OptionID: optionID, Status: SyncPending, RecordedAt: now}
	a.UpdatedAt = now
	return nil
}

// MarkSynced settles a pending answer. It reports whether anything changed.
// The selected option is never touched.
func (a *Attempt) MarkSynced(questionID int64, syncErr error) bool {
	ans, ok := a.Answers[questionID]
	if !ok || ans.Status != SyncPending {
		return false
	}
	if syncErr != nil {
		ans.Status = SyncFailed
		ans.Error = syncErr.Error()
	} else {
		ans.Status = SyncConfirmed
		ans.Error = ""
	}
	a.Answers[questionID] = ans
	a.UpdatedAt = time.Now()
	return true
}

// Advance moves to the next question. It returns true when the attempt
// is on its last question and should be finished instead.
func (a *Attempt) Advance() bool {
	if a.Index >= len(a.Questions)-1 {
		return true
	}
	a.Index++
	a.UpdatedAt = time.Now()
	return false
}

// Finish computes the score and closes the attempt. The score sync starts pending.
func (a *Attempt) Finish() int {
	a.Score = Score(a.Questions, a.Answers)
	a.Complete = true
	a.ScoreStatus = SyncPending
	a.ScoreError = ""
	a.UpdatedAt = time.Now()
	return a.Score
}

// SettleScore records the outcome of the score submission.
func (a *Attempt) SettleScore(syncErr error) {
	if syncErr != nil {
		a.ScoreStatus = SyncFailed
		a.ScoreError = syncErr.Error()
	} else {
		a.ScoreStatus = SyncConfirmed
		a.ScoreError = ""
	}
	a.UpdatedAt = time.Now()
}

// ToggleFlag marks or unmarks a question for review and returns the new state.
func (a *Attempt) ToggleFlag(questionID int64) (bool, error) {
	a.ensureMaps()
	if _, ok := a.question(questionID); !ok {
		return false, ErrUnknownQuestion
	}
	if a.Flagged[questionID] {
		delete(a.Flagged, questionID)
		return false, nil
	}
	a.Flagged[questionID] = true
	return true, nil
}

// Eliminate strikes an option out of an unanswered question.
func (a *Attempt) Eliminate(questionID int64, optionID string) error {
	a.ensureMaps()
	if a.Complete {
		return ErrAttemptComplete
	}
	q, ok := a.question(questionID)
	if !ok {
		return ErrUnknownQuestion
	}
	if _, answered := a.Answers[questionID]; answered {
		return ErrAnswerLocked
	}
	if !hasOption(q, optionID) {
		return ErrUnknownOption
	}
	for _, existing := range a.Eliminated[questionID] {
		if existing == optionID {
			return nil
		}
	}
	a.Eliminated[questionID] = append(a.Eliminated[questionID], optionID)
	return nil
}

// PendingCount returns how many answers are still waiting for the backend.
func (a *Attempt) PendingCount() int {
	n := 0
	for _, ans := range a.Answers {
		if ans.Status == SyncPending {
			n++
		}
	}
	return n
}

// AnsweredIDs lists answered question ids in ascending order.
func (a *Attempt) AnsweredIDs() []int64 {
	ids := make([]int64, 0, len(a.Answers))
	for id := range a.Answers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func hasOption(q *Question, optionID string) bool {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}
