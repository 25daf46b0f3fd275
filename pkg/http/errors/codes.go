package errors

const (
	ErrCodeAuthenticationRequired = "authentication_required"
	ErrCodeInvalidRequest         = "invalid_request"

	// Quiz actions
	ErrCodeAttemptNotFound = "attempt_not_found"
	ErrCodeAnswerLocked    = "answer_locked"
	ErrCodeUnknownOption   = "unknown_option"
	ErrCodeAttemptClosed   = "attempt_complete"

	// Websocket
	ErrCodeUnknownMessageType = "unknown_message_type"

	ErrCodeInternalError = "internal_error"
	ErrCodeRateLimited   = "rate_limited"
)
