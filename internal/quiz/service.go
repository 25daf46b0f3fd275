package quiz

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/gokatarajesh/quiz-practice-web/internal/backend"
)

const defaultSyncTimeout = 10 * time.Second

// Backend is the subset of backend bindings the quiz flow needs.
type Backend interface {
	StartQuiz(ctx context.Context, token string, req backend.StartRequest) (*backend.StartResponse, error)
	ResumeQuiz(ctx context.Context, token string, attemptID int64) (*backend.ResumeResponse, error)
	SaveAnswer(ctx context.Context, token string, req backend.AnswerRequest) error
	SubmitQuiz(ctx context.Context, token string, req backend.SubmitRequest) error
}

// ServiceOptions configures the quiz service.
type ServiceOptions struct {
	SyncTimeout time.Duration
	Publisher   Publisher
	// Runner launches background persistence. Defaults to a new goroutine.
	Runner func(func())
}

// Service drives quiz attempts: start, resume, answer, advance, finish.
type Service struct {
	backend     Backend
	store       Store
	events      Publisher
	group       singleflight.Group
	locks       *keyedMutex
	run         func(func())
	syncTimeout time.Duration
	logger      zerolog.Logger
}

// NewService wires the quiz controller.
func NewService(b Backend, store Store, opts ServiceOptions, logger zerolog.Logger) *Service {
	if opts.SyncTimeout <= 0 {
		opts.SyncTimeout = defaultSyncTimeout
	}
	if opts.Runner == nil {
		opts.Runner = func(fn func()) { go fn() }
	}
	return &Service{
		backend:     b,
		store:       store,
		events:      opts.Publisher,
		locks:       newKeyedMutex(),
		run:         opts.Runner,
		syncTimeout: opts.SyncTimeout,
		logger:      logger.With().Str("component", "quiz").Logger(),
	}
}

func lockKey(userKey string, attemptID int64) string {
	return userKey + ":" + strconv.FormatInt(attemptID, 10)
}

// Start creates an attempt, or returns the incomplete attempt that the same
// filters already produced for this user. Concurrent duplicate starts share one backend call.
func (s *Service) Start(ctx context.Context, caller Caller, params StartParams) (*Attempt, error) {
	params = params.Normalize()
	key := params.Key()

	if existing, err := s.reuseStart(ctx, caller.UserKey, key); err != nil {
		return nil, err
	} else if existing != nil {
		s.logger.Debug().Str("user_key", caller.UserKey).Int64("attempt_id", existing.ID).Msg("start deduplicated")
		return existing, nil
	}

	v, err, shared := s.group.Do(caller.UserKey+"|"+key, func() (interface{}, error) {
		resp, err := s.backend.StartQuiz(ctx, caller.Token, backend.StartRequest{
			Categories:   params.Categories,
			Difficulties: params.Difficulties,
			TestName:     params.TestName,
		})
		if err != nil {
			return nil, err
		}

		attempt := newAttempt(resp.AttemptID, caller.UserKey, params.TestName, resp.Questions, key)
		if err := s.store.Save(ctx, attempt); err != nil {
			return nil, err
		}
		if err := s.store.RememberStart(ctx, caller.UserKey, StartRecord{Key: key, AttemptID: attempt.ID}); err != nil {
			s.logger.Warn().Err(err).Str("user_key", caller.UserKey).Msg("failed to remember start key")
		}
		return attempt, nil
	})
	if err != nil {
		return nil, fmt.Errorf("start quiz: %w", err)
	}

	attempt := v.(*Attempt)
	s.logger.Info().
		Str("user_key", caller.UserKey).
		Int64("attempt_id", attempt.ID).
		Int("questions", len(attempt.Questions)).
		Bool("shared", shared).
		Msg("quiz started")
	return attempt, nil
}

func (s *Service) reuseStart(ctx context.Context, userKey, key string) (*Attempt, error) {
	rec, err := s.store.LastStart(ctx, userKey)
	if err != nil || rec == nil || rec.Key != key {
		return nil, err
	}
	attempt, err := s.store.Load(ctx, userKey, rec.AttemptID)
	if err != nil || attempt == nil || attempt.Complete {
		return nil, err
	}
	return attempt, nil
}

// Resume loads an attempt from the backend and positions it at the first
// question the backend holds no answer for. Answers already held locally stay
// locked, and a locally finished attempt is returned unchanged.
func (s *Service) Resume(ctx context.Context, caller Caller, attemptID int64) (*Attempt, error) {
	resp, err := s.backend.ResumeQuiz(ctx, caller.Token, attemptID)
	if err != nil {
		return nil, fmt.Errorf("resume quiz: %w", err)
	}

	unlock := s.locks.Lock(lockKey(caller.UserKey, attemptID))
	defer unlock()

	local, err := s.store.Load(ctx, caller.UserKey, attemptID)
	if err != nil {
		return nil, err
	}

	if local != nil && local.Complete {
		return local, nil
	}

	attempt := newAttempt(attemptID, caller.UserKey, "", resp.Questions, "")
	if local != nil {
		attempt.TestName = local.TestName
		attempt.StartKey = local.StartKey
		attempt.Flagged = local.Flagged
		attempt.Eliminated = local.Eliminated
		for id, ans := range local.Answers {
			attempt.Answers[id] = ans
		}
	}

	for key, option := range resp.AnswersSoFar {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		attempt.Answers[id] = Answer{OptionID: option, Status: SyncConfirmed, RecordedAt: attempt.UpdatedAt}
	}
	attempt.Index = ResumeIndex(attempt.Questions, resp.AnswersSoFar)

	if err := s.store.Save(ctx, attempt); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_key", caller.UserKey).Int64("attempt_id", attemptID).Int("index", attempt.Index).Msg("quiz resumed")
	return attempt, nil
}

// Get returns the locally held attempt.
func (s *Service) Get(ctx context.Context, caller Caller, attemptID int64) (*Attempt, error) {
	attempt, err := s.store.Load(ctx, caller.UserKey, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, ErrAttemptNotFound
	}
	return attempt, nil
}

// RecordAnswer locks the answer locally and persists it in the background.
// A repeated answer for the same question returns ErrAnswerLocked and changes nothing.
func (s *Service) RecordAnswer(ctx context.Context, caller Caller, attemptID, questionID int64, optionID string) (*Attempt, error) {
	attempt, err := s.mutate(ctx, caller, attemptID, func(a *Attempt) error {
		return a.RecordAnswer(questionID, optionID, time.Now())
	})
	if err != nil {
		return attempt, err
	}

	s.publish(ctx, Event{Type: EventAnswerSync, UserKey: caller.UserKey, AttemptID: attemptID, QuestionID: questionID, Status: SyncPending})

	req := backend.AnswerRequest{AttemptID: attemptID, QuestionID: questionID, Answer: optionID}
	s.run(func() { s.persistAnswer(caller, req) })
	return attempt, nil
}

// persistAnswer runs detached from the request; only its own timeout bounds it.
func (s *Service) persistAnswer(caller Caller, req backend.AnswerRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), s.syncTimeout)
	defer cancel()

	syncErr := s.backend.SaveAnswer(ctx, caller.Token, req)
	if syncErr != nil {
		s.logger.Warn().Err(syncErr).
			Str("user_key", caller.UserKey).
			Int64("attempt_id", req.AttemptID).
			Int64("question_id", req.QuestionID).
			Msg("failed to save answer")
	}

	// The backend call may have used up ctx; the status write gets its own budget.
	storeCtx, storeCancel := context.WithTimeout(context.Background(), s.syncTimeout)
	defer storeCancel()

	changed := false
	_, err := s.mutate(storeCtx, caller, req.AttemptID, func(a *Attempt) error {
		changed = a.MarkSynced(req.QuestionID, syncErr)
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("attempt_id", req.AttemptID).Msg("failed to record answer sync status")
		return
	}
	if !changed {
		return
	}

	evt := Event{Type: EventAnswerSync, UserKey: caller.UserKey, AttemptID: req.AttemptID, QuestionID: req.QuestionID, Status: SyncConfirmed}
	if syncErr != nil {
		evt.Status = SyncFailed
		evt.Error = syncErr.Error()
	}
	s.publish(storeCtx, evt)
}

// Advance moves to the next question, finishing the attempt from the last one.
// A failed answer sync does not block advancing.
func (s *Service) Advance(ctx context.Context, caller Caller, attemptID int64) (*Attempt, error) {
	finish := false
	attempt, err := s.mutate(ctx, caller, attemptID, func(a *Attempt) error {
		if a.Complete {
			return nil
		}
		finish = a.Advance()
		return nil
	})
	if err != nil || !finish {
		return attempt, err
	}
	return s.Finish(ctx, caller, attemptID)
}

// Finish scores the attempt locally and submits the score. The local score is
// authoritative; a failed submission is recorded as ScoreStatus failed.
// Finishing a complete attempt returns it unchanged.
func (s *Service) Finish(ctx context.Context, caller Caller, attemptID int64) (*Attempt, error) {
	unlock := s.locks.Lock(lockKey(caller.UserKey, attemptID))
	defer unlock()

	attempt, err := s.Get(ctx, caller, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Complete {
		return attempt, nil
	}

	score := attempt.Finish()
	if err := s.store.Save(ctx, attempt); err != nil {
		return nil, err
	}

	submitErr := s.backend.SubmitQuiz(ctx, caller.Token, backend.SubmitRequest{AttemptID: attemptID, Score: score})
	attempt.SettleScore(submitErr)
	if submitErr != nil {
		s.logger.Warn().Err(submitErr).Str("user_key", caller.UserKey).Int64("attempt_id", attemptID).Msg("failed to submit score")
	}
	if err := s.store.Save(ctx, attempt); err != nil {
		return nil, err
	}

	s.publish(ctx, Event{
		Type:      EventQuizFinished,
		UserKey:   caller.UserKey,
		AttemptID: attemptID,
		Status:    attempt.ScoreStatus,
		Error:     attempt.ScoreError,
		Score:     score,
	})
	s.logger.Info().Str("user_key", caller.UserKey).Int64("attempt_id", attemptID).Int("score", score).Str("score_status", string(attempt.ScoreStatus)).Int("pending_answers", attempt.PendingCount()).Msg("quiz finished")
	return attempt, nil
}

// ToggleFlag flags or unflags a question for review.
func (s *Service) ToggleFlag(ctx context.Context, caller Caller, attemptID, questionID int64) (*Attempt, error) {
	return s.mutate(ctx, caller, attemptID, func(a *Attempt) error {
		_, err := a.ToggleFlag(questionID)
		return err
	})
}

// Eliminate strikes out an option on an unanswered question.
func (s *Service) Eliminate(ctx context.Context, caller Caller, attemptID, questionID int64, optionID string) (*Attempt, error) {
	return s.mutate(ctx, caller, attemptID, func(a *Attempt) error {
		return a.Eliminate(questionID, optionID)
	})
}

// mutate loads, changes and saves an attempt under its lock. On an error from
// fn the unchanged attempt is returned with that error.
func (s *Service) mutate(ctx context.Context, caller Caller, attemptID int64, fn func(*Attempt) error) (*Attempt, error) {
	unlock := s.locks.Lock(lockKey(caller.UserKey, attemptID))
	defer unlock()

	attempt, err := s.Get(ctx, caller, attemptID)
	if err != nil {
		return nil, err
	}
	if err := fn(attempt); err != nil {
		return attempt, err
	}
	if err := s.store.Save(ctx, attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

func (s *Service) publish(ctx context.Context, evt Event) {
	if s.events == nil {
		return
	}
	evt.PublishedAt = time.Now()
	if err := s.events.Publish(context.WithoutCancel(ctx), evt); err != nil {
		s.logger.Warn().Err(err).Str("type", evt.Type).Int64("attempt_id", evt.AttemptID).Msg("failed to publish sync event")
	}
}

// IsRejection reports whether err is a local rule violation rather than an infrastructure failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrAnswerLocked) ||
		errors.Is(err, ErrUnknownQuestion) ||
		errors.Is(err, ErrUnknownOption) ||
		errors.Is(err, ErrAttemptComplete)
}
