package postgres

import (
	"context"
	"fmt"

	"github.com/NordCoder/Libra/internal/domain/user"
	"github.com/jackc/pgx/v5"
)

var _ user.Repo = (*UserRepo)(nil)

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, name, email, COALESCE(password_hash, ''), phone, role, avatar_url, created_at`

const (
	qUserInsert = `
INSERT INTO users (name, email, password_hash, phone, role)
VALUES ($1, $2, NULLIF($3, ''), $4, $5)
RETURNING ` + userColumns + `;`

	qUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = $1;`

	qUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = $1;`

	qUserList = `SELECT ` + userColumns + ` FROM users ORDER BY id;`

	qUserSetAvatar = `UPDATE users SET avatar_url = $2 WHERE id = $1;`
)

func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if u.Role == "" {
		u.Role = user.RoleMember
	}
	row := r.db.execQueryer(ctx).QueryRow(ctx, qUserInsert, u.Name, u.Email, u.Password, u.Phone, u.Role)
	if err := scanUser(row, u); err != nil {
		return mapErr("user insert", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.execQueryer(ctx).QueryRow(ctx, qUserByID, id), &u); err != nil {
		return nil, mapErr("user by id", err)
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.execQueryer(ctx).QueryRow(ctx, qUserByEmail, email), &u); err != nil {
		return nil, mapErr("user by email", err)
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context) ([]*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qUserList)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var out []*user.User
	for rows.Next() {
		var u user.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *UserRepo) SetAvatar(ctx context.Context, id int64, url string) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qUserSetAvatar, id, url)
	if err != nil {
		return fmt.Errorf("set avatar: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row, u *user.User) error {
	return row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Phone, &u.Role, &u.AvatarURL, &u.CreatedAt)
}
