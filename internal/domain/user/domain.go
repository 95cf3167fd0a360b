package user

import "time"

const (
	RoleMember    = "member"
	RoleLibrarian = "librarian"
)

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	AvatarURL *string   `json:"avatar_url"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
