package domain

import (
	"errors"
	"net/mail"
	"strings"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrProfileExists = errors.New("profile already exists for this namespace")
	ErrUserNameEmpty = errors.New("user name cannot be empty")
	ErrInvalidEmail  = errors.New("invalid email format")
)

// User is display-only identity; it carries no authentication data.
type User struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func NewUser(name, email string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", ErrUserNameEmpty)
	}

	email = strings.TrimSpace(email)
	if !isValidEmail(email) {
		return nil, invalid("email", ErrInvalidEmail)
	}

	return &User{
		Name:  name,
		Email: strings.ToLower(email),
	}, nil
}

func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
