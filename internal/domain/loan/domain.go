package loan

import "time"

type Status string

const (
	StatusActive   Status = "active"
	StatusReturned Status = "returned"
)

// DateLayout is the wire format of loan dates.
const DateLayout = "2006-01-02"

type Loan struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	BookID     int64      `json:"book_id"`
	LoanDate   time.Time  `json:"loan_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date"`
	Status     Status     `json:"status"`
}

// Active reports whether the loan is still open. A loan with a return date is closed for good.
func (l *Loan) Active() bool {
	return l.ReturnDate == nil && l.Status == StatusActive
}

// View is a loan joined with the borrower's name and the book title.
type View struct {
	ID         int64      `json:"id"`
	User       string     `json:"user"`
	Book       string     `json:"book"`
	LoanDate   time.Time  `json:"loan_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date"`
	Status     Status     `json:"status"`
}

// Notice is an active loan with everything needed to address a reminder to its borrower.
type Notice struct {
	LoanID      int64
	UserID      int64
	UserName    string
	UserEmail   string
	BookID      int64
	BookTitle   string
	BookAuthor  string
	DueDate     time.Time
	DaysOverdue int
}

// Day truncates t to its calendar date, expressed at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from "from" to "to".
func DaysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
