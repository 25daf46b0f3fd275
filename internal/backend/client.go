// Package backend binds the quiz backend REST endpoints to typed calls.
package backend

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-practice-web/pkg/http/apiclient"
)

// AdminCookieName is the cookie the passcode endpoint sets.
const AdminCookieName = "admin_access_token"

const defaultAdminGrantTTL = time.Hour

// Client wraps apiclient with one method per backend endpoint.
type Client struct {
	api    *apiclient.Client
	cache  ConfigCache
	logger zerolog.Logger
}

// NewClient creates backend bindings. cache may be nil.
func NewClient(api *apiclient.Client, cache ConfigCache, logger zerolog.Logger) *Client {
	return &Client{
		api:    api,
		cache:  cache,
		logger: logger.With().Str("component", "backend").Logger(),
	}
}

// Credentials exchanges a username and password for a backend identity.
func (c *Client) Credentials(ctx context.Context, username, password string) (*Identity, error) {
	var out Identity
	if err := c.api.PostJSON(ctx, "/api/auth/credentials", credentialsRequest{Username: username, Password: password}, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, fmt.Errorf("credentials response missing token")
	}
	return &out, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, username, password string) (*Identity, error) {
	var out Identity
	if err := c.api.PostJSON(ctx, "/api/register", credentialsRequest{Username: username, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QuizConfig returns the available categories and difficulties, served from cache when possible.
func (c *Client) QuizConfig(ctx context.Context) (*QuizConfig, error) {
	if c.cache != nil {
		cached, err := c.cache.Get(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Msg("quiz config cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	var out QuizConfig
	if err := c.api.GetJSON(ctx, "/api/quiz-config", &out); err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, out); err != nil {
			c.logger.Warn().Err(err).Msg("quiz config cache write failed")
		}
	}
	return &out, nil
}

func (c *Client) StartQuiz(ctx context.Context, token string, req StartRequest) (*StartResponse, error) {
	if req.Categories == nil {
		req.Categories = []string{}
	}
	if req.Difficulties == nil {
		req.Difficulties = []string{}
	}
	var out StartResponse
	if err := c.api.PostJSON(ctx, "/api/quiz/start", req, &out, apiclient.WithBearer(token)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ResumeQuiz(ctx context.Context, token string, attemptID int64) (*ResumeResponse, error) {
	var out ResumeResponse
	path := fmt.Sprintf("/api/quiz/resume/%d", attemptID)
	if err := c.api.GetJSON(ctx, path, &out, apiclient.WithBearer(token)); err != nil {
		return nil, err
	}
	if out.AnswersSoFar == nil {
		out.AnswersSoFar = map[string]string{}
	}
	return &out, nil
}

func (c *Client) SaveAnswer(ctx context.Context, token string, req AnswerRequest) error {
	return c.api.PostJSON(ctx, "/api/quiz/answer", req, nil, apiclient.WithBearer(token))
}

func (c *Client) SubmitQuiz(ctx context.Context, token string, req SubmitRequest) error {
	return c.api.PostJSON(ctx, "/api/quiz/submit", req, nil, apiclient.WithBearer(token))
}

// UserAttempts lists the caller's attempts, newest first.
func (c *Client) UserAttempts(ctx context.Context, token string) ([]Attempt, error) {
	var out []Attempt
	if err := c.api.GetJSON(ctx, "/api/user/attempts", &out, apiclient.WithBearer(token)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UserProgress(ctx context.Context, token string) (*Progress, error) {
	var out Progress
	if err := c.api.GetJSON(ctx, "/api/user/progress", &out, apiclient.WithBearer(token)); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminAnalytics requires an admin token or a passcode grant forwarded as cookie.
func (c *Client) AdminAnalytics(ctx context.Context, token, grant string) (*AdminAnalytics, error) {
	var out AdminAnalytics
	err := c.api.GetJSON(ctx, "/api/admin/analytics", &out,
		apiclient.WithBearer(token),
		apiclient.WithCookie(AdminCookieName, grant),
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyPasscode checks the admin passcode and captures the grant cookie the backend sets.
func (c *Client) VerifyPasscode(ctx context.Context, passcode string) (*AdminGrant, error) {
	resp, err := c.api.Do(ctx, http.MethodPost, "/api/admin/verify-passcode", passcodeRequest{Passcode: passcode})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	for _, cookie := range resp.Cookies() {
		if cookie.Name != AdminCookieName || cookie.Value == "" {
			continue
		}
		expires := time.Now().Add(defaultAdminGrantTTL)
		if cookie.MaxAge > 0 {
			expires = time.Now().Add(time.Duration(cookie.MaxAge) * time.Second)
		} else if !cookie.Expires.IsZero() {
			expires = cookie.Expires
		}
		return &AdminGrant{Token: cookie.Value, ExpiresAt: expires}, nil
	}
	return nil, fmt.Errorf("passcode accepted but no %s cookie was issued", AdminCookieName)
}
