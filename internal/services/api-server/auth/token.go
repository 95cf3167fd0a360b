package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	domainauth "github.com/NordCoder/Libra/internal/domain/auth"
	"github.com/golang-jwt/jwt/v5"
)

var ErrTokenInvalid = errors.New("invalid token")

var _ domainauth.TokenIssuer = (*JWTIssuer)(nil)

// JWTIssuer signs HS256 access tokens carrying {userId, email}.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTIssuer(secret []byte, ttl time.Duration) *JWTIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTIssuer{secret: secret, ttl: ttl, now: time.Now}
}

func (j *JWTIssuer) Issue(id domainauth.Identity, now time.Time) (string, error) {
	claims := domainauth.Claims{
		UserID: id.UserID,
		Email:  id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

func (j *JWTIssuer) Parse(token string) (*domainauth.Identity, error) {
	var claims domainauth.Claims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return j.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	return &domainauth.Identity{UserID: claims.UserID, Email: claims.Email}, nil
}
