package auth

import (
	"strconv"
	"time"

	"github.com/gokatarajesh/quiz-practice-web/internal/auth/jwt"
)

// Session is the signed-in user as seen by page handlers. It is read-only
// outside this package.
type Session struct {
	ID                string
	UserID            int64
	Name              string
	IsAdmin           bool
	BackendToken      string
	AdminGrant        string
	AdminGrantExpires time.Time
	ExpiresAt         time.Time
}

// UserKey identifies the owning user in per-user stores and websocket routing.
func (s *Session) UserKey() string {
	return strconv.FormatInt(s.UserID, 10)
}

// HasAdminAccess reports whether admin pages may be requested on the user's behalf:
// either the backend flagged the account as admin or a passcode grant is still live.
func (s *Session) HasAdminAccess(now time.Time) bool {
	if s.IsAdmin {
		return true
	}
	return s.AdminGrant != "" && now.Before(s.AdminGrantExpires)
}

// ActiveAdminGrant returns the grant only while it has not expired.
func (s *Session) ActiveAdminGrant(now time.Time) string {
	if s.AdminGrant == "" || !now.Before(s.AdminGrantExpires) {
		return ""
	}
	return s.AdminGrant
}

func sessionFromIdentity(id *jwt.Identity) *Session {
	return &Session{
		ID:                id.SessionID,
		UserID:            id.UserID,
		Name:              id.Name,
		IsAdmin:           id.IsAdmin,
		BackendToken:      id.BackendToken,
		AdminGrant:        id.AdminGrant,
		AdminGrantExpires: id.AdminGrantExpires,
		ExpiresAt:         id.ExpiresAt,
	}
}

func (s *Session) identity() jwt.Identity {
	return jwt.Identity{
		SessionID:         s.ID,
		UserID:            s.UserID,
		Name:              s.Name,
		IsAdmin:           s.IsAdmin,
		BackendToken:      s.BackendToken,
		AdminGrant:        s.AdminGrant,
		AdminGrantExpires: s.AdminGrantExpires,
		ExpiresAt:         s.ExpiresAt,
	}
}

// LoginRequest for username/password sign-in.
type LoginRequest struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// RegisterRequest for account creation.
type RegisterRequest struct {
	Username string `validate:"required,min=3,max=80"`
	Password string `validate:"required,min=8,max=128"`
}

// PasscodeRequest for the admin gate.
type PasscodeRequest struct {
	Passcode string `validate:"required"`
}
