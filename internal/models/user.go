package models

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Password length bounds. bcrypt rejects input longer than 72 bytes.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// User is an account that owns plans, custom exercises and sessions.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FullName       *string   `json:"full_name"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserCreate is the registration payload.
type UserCreate struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName *string `json:"full_name"`
}

// Normalize trims the email and lower-cases it so lookups are case-insensitive.
func (u *UserCreate) Normalize() {
	u.Email = NormalizeEmail(u.Email)
	if u.FullName != nil {
		name := strings.TrimSpace(*u.FullName)
		if name == "" {
			u.FullName = nil
		} else {
			u.FullName = &name
		}
	}
}

// Validate checks the registration payload.
func (u *UserCreate) Validate() error {
	addr, err := mail.ParseAddress(u.Email)
	if err != nil || addr.Address != u.Email {
		return invalid("email", "value is not a valid email address")
	}
	if len(u.Password) < MinPasswordLength {
		return invalid("password", "must be at least 8 characters")
	}
	if len(u.Password) > MaxPasswordLength {
		return invalid("password", "must be at most 72 bytes")
	}
	return nil
}

// NormalizeEmail returns the canonical form used for storage and login.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Token is the OAuth2 bearer token response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
