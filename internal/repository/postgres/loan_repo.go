package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/Libra/internal/domain/loan"
	"github.com/jackc/pgx/v5"
)

var _ loan.Repo = (*LoanRepo)(nil)

type LoanRepo struct {
	db *DB
}

func NewLoanRepo(db *DB) *LoanRepo { return &LoanRepo{db: db} }

const loanColumns = `id, user_id, book_id, loan_date, due_date, return_date, status`

const (
	qLoanInsert = `
INSERT INTO loans (user_id, book_id, loan_date, due_date, status)
VALUES ($1, $2, $3, $4, 'active')
RETURNING ` + loanColumns + `;`

	qLoanByID = `SELECT ` + loanColumns + ` FROM loans WHERE id = $1;`

	qLoanList = `
SELECT l.id, u.name, b.title, l.loan_date, l.due_date, l.return_date, l.status
FROM loans l
JOIN users u ON u.id = l.user_id
JOIN books b ON b.id = l.book_id
ORDER BY l.id;`

	// return_date IS NULL keeps a returned loan immutable.
	qLoanReturn = `
UPDATE loans
SET return_date = $2, status = 'returned'
WHERE id = $1 AND return_date IS NULL;`

	qLoanExists = `SELECT EXISTS (SELECT 1 FROM loans WHERE id = $1);`

	qLoanDelete = `DELETE FROM loans WHERE id = $1;`

	qLoanActive = `
SELECT ` + loanColumns + `
FROM loans
WHERE user_id = $1 AND book_id = $2 AND status = 'active' AND return_date IS NULL
ORDER BY due_date
LIMIT 1;`

	qNoticeSelect = `
SELECT l.id, u.id, u.name, u.email, b.id, b.title, b.author, l.due_date, %s
FROM loans l
JOIN users u ON u.id = l.user_id
JOIN books b ON b.id = l.book_id
WHERE l.status = 'active' AND l.return_date IS NULL AND %s
ORDER BY l.due_date, l.id;`
)

var (
	qLoanDueBetween = fmt.Sprintf(qNoticeSelect, `0`, `l.due_date BETWEEN $1::date AND $2::date`)
	qLoanOverdue    = fmt.Sprintf(qNoticeSelect, `($1::date - l.due_date)`, `l.due_date < $1::date`)
)

func (r *LoanRepo) Create(ctx context.Context, l *loan.Loan) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.execQueryer(ctx).QueryRow(ctx, qLoanInsert, l.UserID, l.BookID, loan.Day(l.LoanDate), loan.Day(l.DueDate))
	if err := scanLoan(row, l); err != nil {
		return mapErr("loan insert", err)
	}
	return nil
}

func (r *LoanRepo) GetByID(ctx context.Context, id int64) (*loan.Loan, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var l loan.Loan
	if err := scanLoan(r.db.execQueryer(ctx).QueryRow(ctx, qLoanByID, id), &l); err != nil {
		return nil, mapErr("loan by id", err)
	}
	return &l, nil
}

func (r *LoanRepo) List(ctx context.Context) ([]*loan.View, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qLoanList)
	if err != nil {
		return nil, fmt.Errorf("query loans: %w", err)
	}
	defer rows.Close()

	var out []*loan.View
	for rows.Next() {
		var v loan.View
		if err := rows.Scan(&v.ID, &v.User, &v.Book, &v.LoanDate, &v.DueDate, &v.ReturnDate, &v.Status); err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		out = append(out, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// MarkReturned closes an active loan. ErrConflict means the loan was already returned.
func (r *LoanRepo) MarkReturned(ctx context.Context, id int64, returnDate time.Time) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	eq := r.db.execQueryer(ctx)
	cmd, err := eq.Exec(ctx, qLoanReturn, id, loan.Day(returnDate))
	if err != nil {
		return mapErr("return loan", err)
	}
	if cmd.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := eq.QueryRow(ctx, qLoanExists, id).Scan(&exists); err != nil {
		return fmt.Errorf("loan exists: %w", err)
	}
	if exists {
		return ErrConflict
	}
	return ErrNotFound
}

func (r *LoanRepo) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qLoanDelete, id)
	if err != nil {
		return mapErr("delete loan", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *LoanRepo) FindActive(ctx context.Context, userID, bookID int64) (*loan.Loan, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var l loan.Loan
	if err := scanLoan(r.db.execQueryer(ctx).QueryRow(ctx, qLoanActive, userID, bookID), &l); err != nil {
		return nil, mapErr("active loan", err)
	}
	return &l, nil
}

func (r *LoanRepo) FindDueBetween(ctx context.Context, from, to time.Time) ([]*loan.Notice, error) {
	return r.notices(ctx, qLoanDueBetween, loan.Day(from), loan.Day(to))
}

func (r *LoanRepo) FindOverdue(ctx context.Context, today time.Time) ([]*loan.Notice, error) {
	return r.notices(ctx, qLoanOverdue, loan.Day(today))
}

func (r *LoanRepo) notices(ctx context.Context, q string, args ...any) ([]*loan.Notice, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query notices: %w", err)
	}
	defer rows.Close()

	var out []*loan.Notice
	for rows.Next() {
		var n loan.Notice
		if err := rows.Scan(
			&n.LoanID,
			&n.UserID,
			&n.UserName,
			&n.UserEmail,
			&n.BookID,
			&n.BookTitle,
			&n.BookAuthor,
			&n.DueDate,
			&n.DaysOverdue,
		); err != nil {
			return nil, fmt.Errorf("scan notice: %w", err)
		}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func scanLoan(row pgx.Row, l *loan.Loan) error {
	return row.Scan(&l.ID, &l.UserID, &l.BookID, &l.LoanDate, &l.DueDate, &l.ReturnDate, &l.Status)
}
