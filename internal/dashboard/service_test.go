package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-practice-web/internal/backend"
	"github.com/gokatarajesh/quiz-practice-web/pkg/http/apiclient"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) UserAttempts(ctx context.Context, token string) ([]backend.Attempt, error) {
	args := m.Called(ctx, token)
	attempts, _ := args.Get(0).([]backend.Attempt)
	return attempts, args.Error(1)
}

func (m *mockBackend) UserProgress(ctx context.Context, token string) (*backend.Progress, error) {
	args := m.Called(ctx, token)
	progress, _ := args.Get(0).(*backend.Progress)
	return progress, args.Error(1)
}

func (m *mockBackend) AdminAnalytics(ctx context.Context, token, grant string) (*backend.AdminAnalytics, error) {
	args := m.Called(ctx, token, grant)
	analytics, _ := args.Get(0).(*backend.AdminAnalytics)
	return analytics, args.Error(1)
}

func TestAdminUnauthorizedRendersAccessDenied(t *testing.T) {
	b := &mockBackend{}
	b.On("AdminAnalytics", mock.Anything, "tok", "").
		Return(nil, &apiclient.Error{StatusCode: 401, Message: "Unauthorized"})

	view := NewService(b, zerolog.Nop()).Admin(context.Background(), AdminViewer{Token: "tok", IsAdmin: true})
	assert.Equal(t, StateAccessDenied, view.State)
	assert.Equal(t, "You do not have permission to view this page.", view.Message)
	b.AssertExpectations(t)
}

func TestAdminForbiddenRendersAccessDenied(t *testing.T) {
	b := &mockBackend{}
	b.On("AdminAnalytics", mock.Anything, "tok", "grant").
		Return(nil, &apiclient.Error{StatusCode: 403, Message: "Admin access required"})

	view := NewService(b, zerolog.Nop()).Admin(context.Background(), AdminViewer{Token: "tok", Grant: "grant"})
	assert.Equal(t, StateAccessDenied, view.State)
}

func TestAdminWithoutRightsSkipsBackend(t *testing.T) {
	b := &mockBackend{}
	view := NewService(b, zerolog.Nop()).Admin(context.Background(), AdminViewer{Token: "tok"})
	assert.Equal(t, StateAccessDenied, view.State)
	b.AssertNotCalled(t, "AdminAnalytics", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminServerErrorRendersUnavailable(t *testing.T) {
	b := &mockBackend{}
	b.On("AdminAnalytics", mock.Anything, "tok", "").Return(nil, errors.New("dial tcp: refused"))

	view := NewService(b, zerolog.Nop()).Admin(context.Background(), AdminViewer{Token: "tok", IsAdmin: true})
	assert.Equal(t, StateUnavailable, view.State)
	assert.Equal(t, "Could not load admin analytics.", view.Message)
}

func TestAdminReady(t *testing.T) {
	b := &mockBackend{}
	b.On("AdminAnalytics", mock.Anything, "tok", "").Return(&backend.AdminAnalytics{
		TotalQuizzesTaken:    12,
		AverageScoreAllUsers: nil,
		PerformanceByCategory: map[string]backend.CategoryTally{
			"Finance":   {Correct: 8, Total: 10},
			"Marketing": {Correct: 2, Total: 10},
		},
		UserAnalytics: []backend.UserStat{
			{ID: 1, Username: "amy", QuizCount: 3, AverageScore: 50},
			{ID: 2, Username: "bob", QuizCount: 9, AverageScore: 88},
		},
	}, nil)

	view := NewService(b, zerolog.Nop()).Admin(context.Background(), AdminViewer{Token: "tok", IsAdmin: true})
	require.Equal(t, StateReady, view.State)
	assert.Equal(t, 12, view.TotalQuizzes)
	assert.Equal(t, "N/A", view.PlatformAverage)
	assert.Equal(t, 2, view.TotalUsers)
	assert.Equal(t, "Marketing", view.Categories[0].Category)
	assert.Equal(t, "bob", view.Leaderboard[0].Username)
}

func TestProgressReady(t *testing.T) {
	b := &mockBackend{}
	b.On("UserProgress", mock.Anything, "tok").Return(&backend.Progress{
		ProgressData: []backend.ProgressPoint{
			{Timestamp: "2024-01-02T00:00:00", TestName: "Practice Quiz", Category: "Finance", Score: 75},
		},
		OverallPerformance: map[string]backend.CategoryTally{
			"Finance":   {Correct: 3, Total: 4},
			"Marketing": {Correct: 4, Total: 4},
		},
	}, nil)

	view := NewService(b, zerolog.Nop()).Progress(context.Background(), "tok")
	require.Equal(t, StateReady, view.State)
	assert.Equal(t, "Marketing", view.Overall[0].Category)
	assert.Equal(t, 75.0, view.Overall[1].Accuracy)
	assert.Equal(t, []string{"Finance"}, view.Categories)
	require.Len(t, view.Series, 1)
}

func TestProgressFailure(t *testing.T) {
	b := &mockBackend{}
	b.On("UserProgress", mock.Anything, "tok").Return(nil, &apiclient.Error{StatusCode: 500, Message: "db down"})

	view := NewService(b, zerolog.Nop()).Progress(context.Background(), "tok")
	assert.Equal(t, StateUnavailable, view.State)
	assert.Equal(t, "Could not load progress data.", view.Message)
}

func TestTestsTaken(t *testing.T) {
	b := &mockBackend{}
	b.On("UserAttempts", mock.Anything, "tok").Return([]backend.Attempt{
		{ID: 4, TestName: "Practice Quiz", TotalQuestions: 5, Timestamp: "2024-02-03T00:00:00"},
	}, nil)

	view := NewService(b, zerolog.Nop()).TestsTaken(context.Background(), "tok")
	require.Equal(t, StateReady, view.State)
	require.Len(t, view.Attempts, 1)
	assert.Equal(t, "/quiz/4/resume", view.Attempts[0].ContinueURL)
}

func TestTestsTakenExpiredSession(t *testing.T) {
	b := &mockBackend{}
	b.On("UserAttempts", mock.Anything, "tok").Return(nil, &apiclient.Error{StatusCode: 401})

	view := NewService(b, zerolog.Nop()).TestsTaken(context.Background(), "tok")
	assert.Equal(t, StateAccessDenied, view.State)
}
