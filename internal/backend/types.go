package backend

import "time"

// Identity is the result of a credentials exchange or registration.
type Identity struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Token   string `json:"token"`
	IsAdmin bool   `json:"is_admin"`
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type passcodeRequest struct {
	Passcode string `json:"passcode"`
}

// QuizConfig lists the filters offered on the practice page.
type QuizConfig struct {
	Categories   []string `json:"categories"`
	Difficulties []string `json:"difficulties"`
}

// Option is one answer choice.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question as served by the backend, including the correct option.
type Question struct {
	ID            int64    `json:"id"`
	Question      string   `json:"question"`
	Options       []Option `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
	Category      string   `json:"category"`
	Difficulty    string   `json:"difficulty"`
}

// StartRequest asks the backend for a new attempt.
type StartRequest struct {
	Categories   []string `json:"categories"`
	Difficulties []string `json:"difficulties"`
	TestName     string   `json:"testName"`
}

// StartResponse carries the new attempt and its ordered questions.
type StartResponse struct {
	AttemptID int64      `json:"attemptId"`
	Questions []Question `json:"questions"`
}

// ResumeResponse carries an existing attempt. AnswersSoFar is keyed by question id.
type ResumeResponse struct {
	Questions    []Question        `json:"questions"`
	AnswersSoFar map[string]string `json:"answersSoFar"`
}

// AnswerRequest persists one selected option.
type AnswerRequest struct {
	AttemptID  int64  `json:"attemptId"`
	QuestionID int64  `json:"questionId"`
	Answer     string `json:"answer"`
}

// SubmitRequest persists the final score.
type SubmitRequest struct {
	AttemptID int64 `json:"attemptId"`
	Score     int   `json:"score"`
}

// Attempt is one row of the user's history. Score is nil until completion.
type Attempt struct {
	ID             int64    `json:"id"`
	TestName       string   `json:"test_name"`
	Score          *float64 `json:"score"`
	TotalQuestions int      `json:"total_questions"`
	Timestamp      string   `json:"timestamp"`
	IsComplete     bool     `json:"is_complete"`
}

// CategoryTally counts correct answers out of total for one category.
type CategoryTally struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// ProgressPoint is one category score within one completed attempt.
type ProgressPoint struct {
	Timestamp string  `json:"timestamp"`
	TestName  string  `json:"test_name"`
	Category  string  `json:"category"`
	Score     float64 `json:"score"`
}

// Progress is the user's historical performance.
type Progress struct {
	ProgressData       []ProgressPoint          `json:"progress_data"`
	OverallPerformance map[string]CategoryTally `json:"overall_performance"`
}

// UserStat is one leaderboard row of the admin analytics.
type UserStat struct {
	ID           int64   `json:"id"`
	Username     string  `json:"username"`
	QuizCount    int     `json:"quiz_count"`
	AverageScore float64 `json:"average_score"`
}

// AdminAnalytics holds platform-wide aggregates.
type AdminAnalytics struct {
	TotalQuizzesTaken     int                      `json:"total_quizzes_taken"`
	AverageScoreAllUsers  *float64                 `json:"average_score_all_users"`
	PerformanceByCategory map[string]CategoryTally `json:"performance_by_category"`
	UserAnalytics         []UserStat               `json:"user_analytics"`
}

// AdminGrant is the short-lived admin access issued by the passcode gate.
type AdminGrant struct {
	Token     string
	ExpiresAt time.Time
}
