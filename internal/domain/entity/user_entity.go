package entity

import (
	"time"
)

// User is the aggregate root for the account domain.
// Username is the stable identity used as the session key; ID is only the
// storage identity. PasswordHash holds a bcrypt hash, never the raw password.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Confirmed    bool
	ConfirmedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
