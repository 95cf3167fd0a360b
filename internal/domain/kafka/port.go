package kafka

import (
	"context"
	"time"
)

// NotificationRecorded is the event body published for every delivery attempt.
type NotificationRecorded struct {
	NotificationID int64     `json:"notification_id"`
	UserID         int64     `json:"user_id"`
	BookID         int64     `json:"book_id"`
	Type           string    `json:"type"`
	Status         string    `json:"status"`
	MessageID      string    `json:"message_id,omitempty"`
	Error          string    `json:"error,omitempty"`
	SentAt         time.Time `json:"sent_at"`
}

type NotificationEvents interface {
	PublishNotificationRecorded(ctx context.Context, ev NotificationRecorded) error
}
