package quiz

import (
	"fmt"
	"sort"
)

// OptionView is one option as rendered for the current question.
type OptionView struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Selected   bool   `json:"selected"`
	Eliminated bool   `json:"eliminated"`
}

// QuestionView hides the correct option until the question is answered.
type QuestionView struct {
	ID            int64        `json:"id"`
	Text          string       `json:"text"`
	Category      string       `json:"category"`
	Difficulty    string       `json:"difficulty"`
	Options       []OptionView `json:"options"`
	Flagged       bool         `json:"flagged"`
	Answered      bool         `json:"answered"`
	Selected      string       `json:"selected,omitempty"`
	IsCorrect     bool         `json:"is_correct"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
	Explanation   string       `json:"explanation,omitempty"`
	Sync          SyncStatus   `json:"sync,omitempty"`
	SyncError     string       `json:"sync_error,omitempty"`
	IsLast        bool         `json:"is_last"`
}

// AnswerView is the sync state of one recorded answer.
type AnswerView struct {
	QuestionID int64      `json:"question_id"`
	OptionID   string     `json:"option_id"`
	Status     SyncStatus `json:"status"`
	Error      string     `json:"error,omitempty"`
}

// State is a read-only snapshot for pages and the JSON state endpoint.
type State struct {
	AttemptID   int64            `json:"attempt_id"`
	TestName    string           `json:"test_name"`
	Index       int              `json:"index"`
	Total       int              `json:"total"`
	Progress    string           `json:"progress"`
	Current     *QuestionView    `json:"current,omitempty"`
	Answers     []AnswerView     `json:"answers"`
	Flagged     []int64          `json:"flagged"`
	Pending     int              `json:"pending"`
	Failed      int              `json:"failed"`
	Complete    bool             `json:"complete"`
	Score       int              `json:"score"`
	Correct     int              `json:"correct"`
	ScoreStatus SyncStatus       `json:"score_status,omitempty"`
	ScoreError  string           `json:"score_error,omitempty"`
	Categories  []CategoryResult `json:"categories,omitempty"`
}

// State snapshots the attempt.
func (a *Attempt) State() State {
	a.ensureMaps()
	st := State{
		AttemptID:   a.ID,
		TestName:    a.TestName,
		Index:       a.Index,
		Total:       len(a.Questions),
		Answers:     []AnswerView{},
		Flagged:     []int64{},
		Complete:    a.Complete,
		Score:       a.Score,
		ScoreStatus: a.ScoreStatus,
		ScoreError:  a.ScoreError,
		Correct:     CorrectCount(a.Questions, a.Answers),
	}
	if st.Total > 0 {
		st.Progress = fmt.Sprintf("Question %d of %d", a.Index+1, st.Total)
	}

	for _, id := range a.AnsweredIDs() {
		ans := a.Answers[id]
		st.Answers = append(st.Answers, AnswerView{QuestionID: id, OptionID: ans.OptionID, Status: ans.Status, Error: ans.Error})
		switch ans.Status {
		case SyncPending:
			st.Pending++
		case SyncFailed:
			st.Failed++
		}
	}
	for id := range a.Flagged {
		st.Flagged = append(st.Flagged, id)
	}
	sort.Slice(st.Flagged, func(i, j int) bool { return st.Flagged[i] < st.Flagged[j] })

	if q := a.Current(); q != nil {
		st.Current = a.questionView(q)
	}
	if a.Complete {
		st.Categories = Breakdown(a.Questions, a.Answers)
	}
	return st
}

func (a *Attempt) questionView(q *Question) *QuestionView {
	eliminated := map[string]bool{}
	for _, id := range a.Eliminated[q.ID] {
		eliminated[id] = true
	}

	ans, answered := a.Answers[q.ID]
	view := &QuestionView{
		ID:         q.ID,
		Text:       q.Question,
		Category:   q.Category,
		Difficulty: q.Difficulty,
		Options:    make([]OptionView, 0, len(q.Options)),
		Flagged:    a.Flagged[q.ID],
		Answered:   answered,
		IsLast:     a.Index == len(a.Questions)-1,
	}
	for _, opt := range q.Options {
		view.Options = append(view.Options, OptionView{
			ID:         opt.ID,
			Text:       opt.Text,
			Selected:   answered && ans.OptionID == opt.ID,
			Eliminated: eliminated[opt.ID],
		})
	}
	if answered {
		view.Selected = ans.OptionID
		view.IsCorrect = ans.OptionID == q.CorrectAnswer
		view.CorrectAnswer = q.CorrectAnswer
		view.Explanation = q.Explanation
		view.Sync = ans.Status
		view.SyncError = ans.Error
	}
	return view
}
