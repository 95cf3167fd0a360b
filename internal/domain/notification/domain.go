package notification

import (
	"context"
	"time"
)

type Type string

const (
	TypeDueReminder Type = "due_reminder"
	TypeOverdue     Type = "overdue"
)

func (t Type) Valid() bool { return t == TypeDueReminder || t == TypeOverdue }

type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// Record is one delivery attempt. Records are append-only.
type Record struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	BookID       int64     `json:"book_id"`
	Type         Type      `json:"type"`
	SentAt       time.Time `json:"sent_at"`
	Status       Status    `json:"status"`
	MessageID    *string   `json:"message_id"`
	ErrorMessage *string   `json:"error_message"`
}

// Entry is a record joined with the user's name and the book title.
type Entry struct {
	Record
	UserName  string `json:"user_name"`
	BookTitle string `json:"book_title"`
}

type Stat struct {
	Type   Type   `json:"type"`
	Status Status `json:"status"`
	Count  int64  `json:"count"`
	Date   string `json:"date"`
}

// Message is a rendered email ready for the transport.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

type Result struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

type EmailSender interface {
	Send(ctx context.Context, msg Message) Result
}

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
