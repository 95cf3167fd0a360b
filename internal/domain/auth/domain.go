package auth

import "github.com/golang-jwt/jwt/v5"

// Claims is the payload of an access token.
type Claims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type Identity struct {
	UserID int64
	Email  string
}
