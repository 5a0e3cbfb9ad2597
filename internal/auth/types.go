package auth

import "time"

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session is the result of a successful login. Nothing is persisted server
// side; the token carries everything needed to validate it.
type Session struct {
	Token     string
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// Identity is what a valid token proves about the caller.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}
