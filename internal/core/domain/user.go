package domain

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")
	ErrInvalidRole   = errors.New("invalid role")
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"

	// DefaultRole applies when a registration names no role at all.
	DefaultRole = RoleUser
)

// ParseRole accepts only the known roles. An empty string is not a role;
// callers apply the default before parsing.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleManager, RoleUser:
		return r, nil
	default:
		return "", ErrInvalidRole
	}
}

type User struct {
	Username       string
	HashedPassword string
	Role           Role
	CreatedAt      time.Time
}

// ErrPasswordTooLong is returned by hashers that cannot take the full password.
var ErrPasswordTooLong = errors.New("password is too long")
