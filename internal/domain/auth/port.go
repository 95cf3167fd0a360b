package auth

import "time"

type TokenIssuer interface {
	Issue(id Identity, now time.Time) (string, error)
	Parse(token string) (*Identity, error)
}
