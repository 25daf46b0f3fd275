package dashboard

// RenderState tells a page which branch to render.
type RenderState string

const (
	StateReady        RenderState = "ready"
	StateAccessDenied RenderState = "access_denied"
	StateUnavailable  RenderState = "unavailable"
)

const (
	accessDeniedMessage = "You do not have permission to view this page."
	notAvailable        = "N/A"
	missing             = "—"
)

// CategoryAccuracy is one bar of an accuracy chart.
type CategoryAccuracy struct {
	Category string
	Accuracy float64
	Correct  int
	Total    int
}

// SeriesValue is one category score within a series point. Present is false
// when the attempt had no questions from that category.
type SeriesValue struct {
	Category string
	Score    int
	Present  bool
}

// SeriesPoint is one completed attempt on the progress-over-time chart.
type SeriesPoint struct {
	Label     string
	Timestamp string
	Values    []SeriesValue
}

// ProgressView backs the progress page.
type ProgressView struct {
	State      RenderState
	Message    string
	Overall    []CategoryAccuracy
	Series     []SeriesPoint
	Categories []string
}

// AttemptCard is one entry on the tests-taken page.
type AttemptCard struct {
	ID             int64
	TestName       string
	Date           string
	Score          string
	Highlight      bool
	TotalQuestions int
	Complete       bool
	ContinueURL    string
}

// TestsTakenView backs the tests-taken page.
type TestsTakenView struct {
	State    RenderState
	Message  string
	Attempts []AttemptCard
}

// LeaderboardRow is one user of the admin leaderboard.
type LeaderboardRow struct {
	ID           int64
	Username     string
	QuizCount    int
	AverageScore float64
	Average      string
}

// AdminView backs the admin analytics dashboard.
type AdminView struct {
	State           RenderState
	Message         string
	TotalQuizzes    int
	PlatformAverage string
	TotalUsers      int
	Categories      []CategoryAccuracy
	Leaderboard     []LeaderboardRow
}
