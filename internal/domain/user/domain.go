package user

import (
	"errors"
	"time"

	"github.com/NordCoder/StillbirthNotify/internal/domain/location"
	"github.com/NordCoder/StillbirthNotify/internal/domain/role"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

type User struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Password   string    `json:"-"`
	Role       role.Role `json:"role"`
	LocationID int64     `json:"location_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (u *User) Ref() location.UserRef { return location.UserRef{ID: u.ID, Email: u.Email} }
