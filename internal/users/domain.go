package users

import "time"

// User represents an account row. PasswordHash never leaves the server.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
