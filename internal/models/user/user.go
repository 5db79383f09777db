package user

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const RoleUser Role = "user"
const RoleAdmin Role = "admin"

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// PasswordHash намеренно не сериализуется — наружу пароль не отдаём никогда
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         Role       `json:"role" db:"role"`
	Active       bool       `json:"active" db:"active"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty" db:"updated_at,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
