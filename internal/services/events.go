package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/coursekit/apiserver/internal/mq"
	"github.com/coursekit/apiserver/types"
	"go.uber.org/zap"
)

const (
	channelUserRegistered = "user.registered"
	channelLessonSaved    = "lesson.saved"
)

// EventPublisher emits domain events to the configured broker. Publishing
// is best-effort: failures are logged and never surfaced to the request
// that triggered them. With no broker configured every call is a no-op.
type EventPublisher struct {
	mq     *mq.MQ
	logger *zap.Logger
}

func NewEventPublisher(broker *mq.MQ, logger *zap.Logger) *EventPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventPublisher{mq: broker, logger: logger}
}

// UserRegistered announces a new account.
func (p *EventPublisher) UserRegistered(ctx context.Context, user types.User) {
	p.publish(ctx, channelUserRegistered, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
	})
}

// LessonSaved announces a content write for a curriculum position.
func (p *EventPublisher) LessonSaved(ctx context.Context, courseID string, moduleIndex, lessonIndex int) {
	p.publish(ctx, channelLessonSaved, map[string]any{
		"course_id":    courseID,
		"module_index": moduleIndex,
		"lesson_index": lessonIndex,
	})
}

func (p *EventPublisher) publish(ctx context.Context, channel string, payload map[string]any) {
	if p.mq == nil {
		return
	}

	payload["at"] = time.Now().UTC().Format(time.RFC3339)
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Warn("marshal event", zap.String("channel", channel), zap.Error(err))
		return
	}

	if _, err := p.mq.Publish(ctx, channel, data, nil); err != nil {
		p.logger.Warn("publish event", zap.String("channel", channel), zap.Error(err))
	}
}

// RunEventWorker consumes the domain-event channels until ctx is cancelled,
// logging every delivery. Each channel gets its own consumer; the first
// subscriber error tears the worker down.
func RunEventWorker(ctx context.Context, broker *mq.MQ, logger *zap.Logger) error {
	if broker == nil {
		return errors.New("no message broker configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	channels := []string{channelUserRegistered, channelLessonSaved}
	errs := make(chan error, len(channels))
	for _, channel := range channels {
		go func(channel string) {
			errs <- broker.Subscribe(ctx, channel, func(ctx context.Context, msg mq.Message) error {
				logger.Info("event received",
					zap.String("channel", channel),
					zap.String("message_id", msg.ID),
					zap.ByteString("payload", msg.Data),
				)
				return nil
			})
		}(channel)
	}
	return <-errs
}
