package web

import (
	"fmt"
	"net/http"

	httperrors "github.com/gokatarajesh/quiz-practice-web/pkg/http/errors"
	ws "github.com/gokatarajesh/quiz-practice-web/pkg/http/ws"
)

// Socket handles GET /ws/quiz. The feed carries answer-sync and quiz-finished
// events for every attempt of the signed-in user.
func (h *Handlers) Socket(w http.ResponseWriter, r *http.Request) {
	userKey := session(r).UserKey()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	wsConn := ws.NewConnection(conn, h.logger)
	h.hub.RegisterConnection(userKey, wsConn)

	go wsConn.WritePump()

	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleSocketMessage(wsConn, msg)
	})

	h.hub.UnregisterConnection(userKey, wsConn.ID())
}

func (h *Handlers) handleSocketMessage(conn *ws.Connection, msg ws.Message) error {
	var (
		reply ws.Message
		err   error
	)
	switch msg.Type {
	case ws.TypePing:
		reply, err = ws.NewMessage(ws.TypePong, nil)
	default:
		reply, err = ws.NewMessage(ws.TypeError, ws.ErrorPayload{
			Code:    httperrors.ErrCodeUnknownMessageType,
			Message: fmt.Sprintf("Unknown message type: %s", msg.Type),
		})
	}
	if err != nil {
		return err
	}
	reply.RequestID = msg.RequestID
	return conn.Send(reply)
}
