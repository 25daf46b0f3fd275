package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const maxErrorBody = 64 << 10

// Error is a non-2xx backend response.
type Error struct {
	StatusCode int
	Message    string
	Body       map[string]interface{}
}

func (e *Error) Error() string {
	return e.Message
}

func newError(resp *http.Response) *Error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	body := map[string]interface{}{}
	if err := json.Unmarshal(raw, &body); err != nil || body == nil {
		body = map[string]interface{}{}
	}

	message := fmt.Sprintf("API Error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	if m, ok := body["message"].(string); ok && m != "" {
		message = m
	} else if m, ok := body["error"].(string); ok && m != "" {
		message = m
	}

	return &Error{
		StatusCode: resp.StatusCode,
		Message:    message,
		Body:       body,
	}
}

// StatusCode returns the backend status carried by err, or 0 for transport failures.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsAccessDenied reports whether the backend rejected the caller's credentials or rights.
func IsAccessDenied(err error) bool {
	code := StatusCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// IsNotFound reports a 404 from the backend.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
