package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-practice-web/internal/auth/jwt"
	"github.com/gokatarajesh/quiz-practice-web/internal/backend"
)

// Backend is the subset of backend bindings the auth flow needs.
type Backend interface {
	Credentials(ctx context.Context, username, password string) (*backend.Identity, error)
	Register(ctx context.Context, username, password string) (*backend.Identity, error)
	VerifyPasscode(ctx context.Context, passcode string) (*backend.AdminGrant, error)
}

// ErrNoSession is returned when a session cookie is absent.
var ErrNoSession = errors.New("no session")

// Service exchanges credentials with the backend and issues session cookies.
type Service struct {
	backend  Backend
	tokenMgr *jwt.Manager
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewService creates an authentication service.
func NewService(b Backend, tokenMgr *jwt.Manager, logger zerolog.Logger) *Service {
	return &Service{
		backend:  b,
		tokenMgr: tokenMgr,
		validate: newValidator(),
		logger:   logger.With().Str("component", "auth").Logger(),
	}
}

// Login validates the form, exchanges credentials and returns the session with its signed cookie value.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, string, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := validateRequest(s.validate, req); err != nil {
		return nil, "", err
	}

	ident, err := s.backend.Credentials(ctx, req.Username, req.Password)
	if err != nil {
		return nil, "", err
	}

	signed, issued, err := s.tokenMgr.Issue(jwt.Identity{
		UserID:       ident.ID,
		Name:         ident.Name,
		IsAdmin:      ident.IsAdmin,
		BackendToken: ident.Token,
	})
	if err != nil {
		return nil, "", fmt.Errorf("issue session: %w", err)
	}

	s.logger.Info().Int64("user_id", ident.ID).Str("session_id", issued.SessionID).Msg("user logged in")
	return sessionFromIdentity(issued), signed, nil
}

// Register creates the account. The user signs in afterwards.
func (s *Service) Register(ctx context.Context, req RegisterRequest) error {
	req.Username = strings.TrimSpace(req.Username)
	if err := validateRequest(s.validate, req); err != nil {
		return err
	}

	if _, err := s.backend.Register(ctx, req.Username, req.Password); err != nil {
		return err
	}
	s.logger.Info().Str("username", req.Username).Msg("user registered")
	return nil
}

// GrantAdmin verifies the admin passcode and re-issues the session carrying the grant.
func (s *Service) GrantAdmin(ctx context.Context, sess *Session, req PasscodeRequest) (*Session, string, error) {
	if sess == nil {
		return nil, "", ErrNoSession
	}
	if err := validateRequest(s.validate, req); err != nil {
		return nil, "", err
	}

	grant, err := s.backend.VerifyPasscode(ctx, req.Passcode)
	if err != nil {
		return nil, "", err
	}

	updated := *sess
	updated.AdminGrant = grant.Token
	updated.AdminGrantExpires = grant.ExpiresAt

	signed, issued, err := s.tokenMgr.Issue(updated.identity())
	if err != nil {
		return nil, "", fmt.Errorf("issue session: %w", err)
	}

	s.logger.Info().Int64("user_id", sess.UserID).Msg("admin passcode accepted")
	return sessionFromIdentity(issued), signed, nil
}

// Authenticate decodes a session cookie value.
func (s *Service) Authenticate(cookieValue string) (*Session, error) {
	if cookieValue == "" {
		return nil, ErrNoSession
	}
	ident, err := s.tokenMgr.Validate(cookieValue)
	if err != nil {
		return nil, err
	}
	return sessionFromIdentity(ident), nil
}
