package quiz

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	ws "github.com/gokatarajesh/quiz-practice-web/pkg/http/ws"
)

// DefaultEventChannel carries sync events between web instances.
const DefaultEventChannel = "quiz:sync"

// Publisher emits sync events.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// RedisPublisher publishes events on a Redis Pub/Sub channel.
type RedisPublisher struct {
	redis   *redis.Client
	channel string
}

var _ Publisher = (*RedisPublisher)(nil)

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultEventChannel
	}
	return &RedisPublisher{redis: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.redis.Publish(ctx, p.channel, data).Err()
}

// UserSender delivers a message to a user's live connections.
type UserSender interface {
	SendToUser(userKey string, msg ws.Message) error
}

// Broadcaster listens for sync events and forwards them to the owning user's sockets.
type Broadcaster struct {
	redis   *redis.Client
	hub     UserSender
	channel string
	logger  zerolog.Logger
}

// NewBroadcaster creates a Pub/Sub powered sync event broadcaster.
func NewBroadcaster(client *redis.Client, hub UserSender, channel string, logger zerolog.Logger) *Broadcaster {
	if channel == "" {
		channel = DefaultEventChannel
	}
	return &Broadcaster{
		redis:   client,
		hub:     hub,
		channel: channel,
		logger:  logger.With().Str("component", "quiz_broadcaster").Logger(),
	}
}

// Run subscribes to the event channel and blocks until the context is cancelled.
func (b *Broadcaster) Run(ctx context.Context) error {
	if b.redis == nil || b.hub == nil {
		return nil
	}

	sub := b.redis.Subscribe(ctx, b.channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed so no early event is lost.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.forward(msg.Payload)
		}
	}
}

func (b *Broadcaster) forward(payload string) {
	var evt Event
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		b.logger.Warn().Err(err).Msg("failed to decode sync event")
		return
	}
	if evt.UserKey == "" {
		return
	}

	msg, err := toMessage(evt)
	if err != nil {
		b.logger.Warn().Err(err).Str("type", evt.Type).Msg("failed to build WS message")
		return
	}

	if err := b.hub.SendToUser(evt.UserKey, msg); err != nil && err != ws.ErrConnectionNotFound {
		b.logger.Warn().Err(err).Str("user_key", evt.UserKey).Msg("failed to forward sync event")
	}
}

func toMessage(evt Event) (ws.Message, error) {
	switch evt.Type {
	case EventAnswerSync:
		return ws.NewMessage(ws.TypeAnswerSync, ws.AnswerSyncPayload{
			AttemptID:  evt.AttemptID,
			QuestionID: evt.QuestionID,
			Status:     string(evt.Status),
			Error:      evt.Error,
		})
	case EventQuizFinished:
		return ws.NewMessage(ws.TypeQuizFinished, ws.QuizFinishedPayload{
			AttemptID:   evt.AttemptID,
			Score:       evt.Score,
			ScoreStatus: string(evt.Status),
			Error:       evt.Error,
		})
	default:
		return ws.Message{}, fmt.Errorf("unknown event type %q", evt.Type)
	}
}
