package dashboard

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-practice-web/internal/backend"
	"github.com/gokatarajesh/quiz-practice-web/pkg/http/apiclient"
)

// Backend is the subset of backend bindings the dashboards read.
type Backend interface {
	UserAttempts(ctx context.Context, token string) ([]backend.Attempt, error)
	UserProgress(ctx context.Context, token string) (*backend.Progress, error)
	AdminAnalytics(ctx context.Context, token, grant string) (*backend.AdminAnalytics, error)
}

// AdminViewer is the caller of the admin dashboard. Grant holds only a live passcode grant.
type AdminViewer struct {
	Token   string
	IsAdmin bool
	Grant   string
}

// Service loads dashboard data and reshapes it into views. Loaders never
// return errors; failures become a render state.
type Service struct {
	backend Backend
	logger  zerolog.Logger
}

func NewService(b Backend, logger zerolog.Logger) *Service {
	return &Service{
		backend: b,
		logger:  logger.With().Str("component", "dashboard").Logger(),
	}
}

// TestsTaken loads the user's attempt history.
func (s *Service) TestsTaken(ctx context.Context, token string) TestsTakenView {
	attempts, err := s.backend.UserAttempts(ctx, token)
	if err != nil {
		state, msg := s.failure(err, "attempts", "Could not load your test history.")
		return TestsTakenView{State: state, Message: msg}
	}
	return TestsTakenView{State: StateReady, Attempts: AttemptCards(attempts)}
}

// Progress loads the user's accuracy per category and score history.
func (s *Service) Progress(ctx context.Context, token string) ProgressView {
	progress, err := s.backend.UserProgress(ctx, token)
	if err != nil {
		state, msg := s.failure(err, "progress", "Could not load progress data.")
		return ProgressView{State: state, Message: msg}
	}
	if progress == nil {
		progress = &backend.Progress{}
	}

	categories := DistinctCategories(progress.ProgressData)
	return ProgressView{
		State:      StateReady,
		Overall:    CategoryAccuracies(progress.OverallPerformance, true),
		Series:     TimeSeries(progress.ProgressData, categories),
		Categories: categories,
	}
}

// Admin loads platform analytics. Callers without admin rights are denied
// without a backend call.
func (s *Service) Admin(ctx context.Context, viewer AdminViewer) AdminView {
	if !viewer.IsAdmin && viewer.Grant == "" {
		return AdminView{State: StateAccessDenied, Message: accessDeniedMessage}
	}

	analytics, err := s.backend.AdminAnalytics(ctx, viewer.Token, viewer.Grant)
	if err != nil {
		state, msg := s.failure(err, "admin_analytics", "Could not load admin analytics.")
		return AdminView{State: state, Message: msg}
	}
	if analytics == nil {
		analytics = &backend.AdminAnalytics{}
	}

	return AdminView{
		State:           StateReady,
		TotalQuizzes:    analytics.TotalQuizzesTaken,
		PlatformAverage: PlatformAverage(analytics.AverageScoreAllUsers),
		TotalUsers:      len(analytics.UserAnalytics),
		Categories:      CategoryAccuracies(analytics.PerformanceByCategory, false),
		Leaderboard:     Leaderboard(analytics.UserAnalytics),
	}
}

func (s *Service) failure(err error, view, unavailable string) (RenderState, string) {
	if apiclient.IsAccessDenied(err) {
		s.logger.Info().Err(err).Str("view", view).Msg("dashboard access denied")
		return StateAccessDenied, accessDeniedMessage
	}
	s.logger.Warn().Err(err).Str("view", view).Msg("dashboard load failed")
	return StateUnavailable, unavailable
}
