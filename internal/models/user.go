package models

import (
	"strings"
	"time"

	"github.com/baharkarakas/autotopup-backend/internal/api/validate"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) Validate() error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = "user"
	}
	return validate.Collect(
		validate.MinLen("name", u.Name, 2),
		validate.Email("email", u.Email),
	)
}
