package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carried by the session cookie. Backend credentials are sealed.
type Claims struct {
	UserID           int64  `json:"uid"`
	Name             string `json:"name"`
	IsAdmin          bool   `json:"adm"`
	SealedToken      string `json:"tok"`
	SealedAdminGrant string `json:"agr,omitempty"`
	AdminGrantExpiry int64  `json:"agx,omitempty"`
	jwt.RegisteredClaims
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// TokenConfig holds session signing configuration.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration // default: 24 hours
	Issuer string
}

// Manager issues and validates session tokens.
type Manager struct {
	secret  []byte
	sealKey [32]byte
	ttl     time.Duration
	issuer  string
	now     func() time.Time
}

// NewManager creates a session token manager. The secret must be non-empty.
func NewManager(cfg TokenConfig) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("session secret is empty")
	}
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "quiz-practice-web"
	}

	key, err := deriveSealKey(cfg.Secret)
	if err != nil {
		return nil, err
	}

	return &Manager{
		secret:  cfg.Secret,
		sealKey: key,
		ttl:     cfg.TTL,
		issuer:  cfg.Issuer,
		now:     time.Now,
	}, nil
}

// Identity is the decoded content of a session.
type Identity struct {
	SessionID         string
	UserID            int64
	Name              string
	IsAdmin           bool
	BackendToken      string
	AdminGrant        string
	AdminGrantExpires time.Time
	ExpiresAt         time.Time
}

// Issue signs a session for id. A zero SessionID or ExpiresAt starts a fresh session;
// otherwise both are kept so that re-issuing does not extend the session.
func (m *Manager) Issue(id Identity) (string, *Identity, error) {
	now := m.now()
	if id.SessionID == "" {
		id.SessionID = uuid.NewString()
	}
	if id.ExpiresAt.IsZero() {
		id.ExpiresAt = now.Add(m.ttl)
	}

	sealedToken, err := seal(&m.sealKey, id.BackendToken)
	if err != nil {
		return "", nil, fmt.Errorf("seal backend token: %w", err)
	}

	claims := Claims{
		UserID:      id.UserID,
		Name:        id.Name,
		IsAdmin:     id.IsAdmin,
		SealedToken: sealedToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id.SessionID,
			Issuer:    m.issuer,
			Subject:   fmt.Sprint(id.UserID),
			ExpiresAt: jwt.NewNumericDate(id.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	if id.AdminGrant != "" {
		sealedGrant, err := seal(&m.sealKey, id.AdminGrant)
		if err != nil {
			return "", nil, fmt.Errorf("seal admin grant: %w", err)
		}
		claims.SealedAdminGrant = sealedGrant
		claims.AdminGrantExpiry = id.AdminGrantExpires.Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, &id, nil
}

// Validate parses a session token and unseals its credentials.
func (m *Manager) Validate(tokenString string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithTimeFunc(m.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}

	backendToken, err := open(&m.sealKey, claims.SealedToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	id := &Identity{
		SessionID:    claims.ID,
		UserID:       claims.UserID,
		Name:         claims.Name,
		IsAdmin:      claims.IsAdmin,
		BackendToken: backendToken,
		ExpiresAt:    claims.ExpiresAt.Time,
	}

	if claims.SealedAdminGrant != "" {
		grant, err := open(&m.sealKey, claims.SealedAdminGrant)
		if err != nil {
			return nil, ErrInvalidToken
		}
		id.AdminGrant = grant
		id.AdminGrantExpires = time.Unix(claims.AdminGrantExpiry, 0)
	}

	return id, nil
}
