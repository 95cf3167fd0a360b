package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domainauth "github.com/NordCoder/Libra/internal/domain/auth"
	"github.com/NordCoder/Libra/internal/domain/user"
	pg "github.com/NordCoder/Libra/internal/repository/postgres"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("user already exists")
)

const bcryptCost = 10

type Usecase struct {
	users  user.Repo
	tokens domainauth.TokenIssuer
	now    func() time.Time
}

func NewUsecase(users user.Repo, tokens domainauth.TokenIssuer) *Usecase {
	return &Usecase{users: users, tokens: tokens, now: time.Now}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (u *Usecase) SignUp(ctx context.Context, name, email, password string) (*user.User, error) {
	email = normalizeEmail(email)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	nu := &user.User{
		Name:     strings.TrimSpace(name),
		Email:    email,
		Password: string(hash),
		Role:     user.RoleMember,
	}
	if err := u.users.Create(ctx, nu); err != nil {
		if errors.Is(err, pg.ErrConflict) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return nu, nil
}

func (u *Usecase) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	rec, err := u.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	// accounts created through /users have no password and cannot log in
	if rec.Password == "" || bcrypt.CompareHashAndPassword([]byte(rec.Password), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := u.tokens.Issue(domainauth.Identity{UserID: rec.ID, Email: rec.Email}, u.now())
	if err != nil {
		return nil, "", err
	}
	return rec, token, nil
}
