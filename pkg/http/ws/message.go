package ws

import "encoding/json"

// MessageType constants for WebSocket protocol.
const (
	// Client -> Server
	TypePing = "ping"

	// Server -> Client
	TypeAnswerSync   = "answer_sync"
	TypeQuizFinished = "quiz_finished"
	TypeError        = "error"
	TypePong         = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage marshals payload into a typed message.
func NewMessage(msgType string, payload interface{}) (Message, error) {
	if payload == nil {
		return Message{Type: msgType}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Payload: raw}, nil
}

// AnswerSyncPayload reports the persistence status of one answer.
type AnswerSyncPayload struct {
	AttemptID  int64  `json:"attempt_id"`
	QuestionID int64  `json:"question_id"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// QuizFinishedPayload reports the final score and whether it reached the backend.
type QuizFinishedPayload struct {
	AttemptID   int64  `json:"attempt_id"`
	Score       int    `json:"score"`
	ScoreStatus string `json:"score_status"`
	Error       string `json:"error,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
