package kafka

import (
	"context"

	"github.com/NordCoder/Libra/internal/domain/kafka"
)

type NotificationEventsKafka struct {
	p *Producer
}

func NewNotificationEventsKafka(p *Producer) *NotificationEventsKafka {
	return &NotificationEventsKafka{p: p}
}

var _ kafka.NotificationEvents = (*NotificationEventsKafka)(nil)

// PublishNotificationRecorded keys events by user so one reader sees a user's history in order.
func (e *NotificationEventsKafka) PublishNotificationRecorded(ctx context.Context, ev kafka.NotificationRecorded) error {
	return e.p.PublishJSON(ctx, KeyFromInt64(ev.UserID), ev)
}
