package quiz

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-practice-web/internal/backend"
)

func sampleQuestions(n int, category string) []Question {
	out := make([]Question, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, Question{
			ID:       int64(i),
			Question: "Question?",
			Options: []backend.Option{
				{ID: "A", Text: "a"}, {ID: "B", Text: "b"}, {ID: "C", Text: "c"}, {ID: "D", Text: "d"},
			},
			CorrectAnswer: "A",
			Explanation:   "Because A.",
			Category:      category,
			Difficulty:    "Easy",
		})
	}
	return out
}

func TestNewAttemptStartsAtZero(t *testing.T) {
	a := newAttempt(1, "u", "Practice Quiz", sampleQuestions(5, "Marketing"), "k")
	assert.Equal(t, 0, a.Index)
	assert.Empty(t, a.Answers)
	assert.False(t, a.Complete)
	assert.Equal(t, "Question 1 of 5", a.State().Progress)
}

func TestResumeIndex(t *testing.T) {
	qs := sampleQuestions(2, "Math")
	assert.Equal(t, 1, ResumeIndex(qs, map[string]string{"1": "B"}))
	assert.Equal(t, 0, ResumeIndex(qs, map[string]string{"2": "B"}))
	assert.Equal(t, 0, ResumeIndex(qs, nil))
	assert.Equal(t, 1, ResumeIndex(qs, map[string]string{"1": "A", "2": "C"}))
	assert.Equal(t, 0, ResumeIndex(nil, map[string]string{"1": "A"}))
}

func TestRecordAnswerLocksQuestion(t *testing.T) {
	a := newAttempt(1, "u", "", sampleQuestions(2, "Math"), "")
	now := time.Now()

	require.NoError(t, a.RecordAnswer(1, "B", now))
	assert.Equal(t, Answer{OptionID: "B", Status: SyncPending, RecordedAt: now}, a.Answers[1])

	err := a.RecordAnswer(1, "A", now)
	assert.ErrorIs(t, err, ErrAnswerLocked)
	assert.Equal(t, "B", a.Answers[1].OptionID)
}

func TestRecordAnswerRejectsUnknownIDs(t *testing.T) {
	a := newAttempt(1, "u", "", sampleQuestions(1, "Math"), "")
	assert.ErrorIs(t, a.RecordAnswer(42, "A", time.Now()), ErrUnknownQuestion)
	assert.ErrorIs(t, a.RecordAnswer(1, "Z", time.Now()), ErrUnknownOption)
	assert.Empty(t, a.Answers)

	a.Finish()
	assert.ErrorIs(t, a.RecordAnswer(1, "A", time.Now()), ErrAttemptComplete)
}

func TestMarkSyncedKeepsAnswer(t *testing.T) {
	a := newAttempt(1, "u", "", sampleQuestions(2, "Math"), "")
	require.NoError(t, a.RecordAnswer(1, "C", time.Now()))
	require.NoError(t, a.RecordAnswer(2, "A", time.Now()))

	assert.True(t, a.MarkSynced(1, errors.New("db down")))
	assert.True(t, a.MarkSynced(2, nil))
	assert.False(t, a.MarkSynced(2, nil))
	assert.False(t, a.MarkSynced(99, nil))

	assert.Equal(t, Answer{OptionID: "C", Status: SyncFailed, Error: "db down", RecordedAt: a.Answers[1].RecordedAt}, a.Answers[1])
	assert.Equal(t, SyncConfirmed, a.Answers[2].Status)

	st := a.State()
	assert.Equal(t, 1, st.Failed)
	assert.Equal(t, 0, st.Pending)
}

func TestAdvance(t *testing.T) {
	a := newAttempt(1, "u", "", sampleQuestions(3, "Math"), "")
	assert.False(t, a.Advance())
	assert.False(t, a.Advance())
	assert.Equal(t, 2, a.Index)
	assert.True(t, a.Advance())
	assert.Equal(t, 2, a.Index)

	empty := newAttempt(2, "u", "", nil, "")
	assert.True(t, empty.Advance())
	assert.Nil(t, empty.Current())
}

func TestToggleFlag(t *testing.T) {
	a := newAttempt(1, "u", "", sampleQuestions(2, "Math"), "")
	flagged, err := a.ToggleFlag(2)
	require.NoError(t, err)
	assert.True(t, flagged)
	assert.Equal(t, []int64{2}, a.State().Flagged)

	flagged, err = a.ToggleFlag(2)
	require.NoError(t, err)
	assert.False(t, flagged)

	_, err = a.ToggleFlag(7)
	assert.ErrorIs(t, err, ErrUnknownQuestion)
}

func TestEliminateOnlyBeforeAnswering(t *testing.T) {
	a := newAttempt(1, "u", "", sampleQuestions(1, "Math"), "")
	require.NoError(t, a.Eliminate(1, "C"))
	require.NoError(t, a.Eliminate(1, "C"))
	assert.Equal(t, []string{"C"}, a.Eliminated[1])
	assert.ErrorIs(t, a.Eliminate(1, "X"), ErrUnknownOption)

	require.NoError(t, a.RecordAnswer(1, "A", time.Now()))
	assert.ErrorIs(t, a.Eliminate(1, "B"), ErrAnswerLocked)

	view := a.State().Current
	require.NotNil(t, view)
	assert.True(t, view.Options[2].Eliminated)
}

func TestStateHidesCorrectAnswerUntilAnswered(t *testing.T) {
	a := newAttempt(1, "u", "", sampleQuestions(2, "Math"), "")
	view := a.State().Current
	require.NotNil(t, view)
	assert.False(t, view.Answered)
	assert.Empty(t, view.CorrectAnswer)
	assert.Empty(t, view.Explanation)
	assert.False(t, view.IsLast)

	require.NoError(t, a.RecordAnswer(1, "B", time.Now()))
	view = a.State().Current
	assert.True(t, view.Answered)
	assert.False(t, view.IsCorrect)
	assert.Equal(t, "A", view.CorrectAnswer)
	assert.Equal(t, "Because A.", view.Explanation)
	assert.Equal(t, SyncPending, view.Sync)
	assert.True(t, view.Options[1].Selected)
}

func TestPendingCountTracksSync(t *testing.T) {
	a := newAttempt(1, "u", "", sampleQuestions(3, "Math"), "")
	require.NoError(t, a.RecordAnswer(1, "A", time.Now()))
	require.NoError(t, a.RecordAnswer(2, "B", time.Now()))
	assert.Equal(t, 2, a.PendingCount())

	a.MarkSynced(1, nil)
	a.MarkSynced(2, errors.New("offline"))
	assert.Equal(t, 0, a.PendingCount())
}
