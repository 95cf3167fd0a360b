package reservation

import "time"

type Status string

const (
	StatusPending   Status = "Pending"
	StatusFulfilled Status = "Fulfilled"
	StatusCancelled Status = "Cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusFulfilled, StatusCancelled:
		return true
	}
	return false
}

type Reservation struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	BookID          int64     `json:"book_id"`
	ReservationDate time.Time `json:"reservation_date"`
	Status          Status    `json:"status"`
}

type View struct {
	ID              int64     `json:"reservation_id"`
	User            string    `json:"user"`
	Book            string    `json:"book"`
	ReservationDate time.Time `json:"reservation_date"`
	Status          Status    `json:"status"`
}
