package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/skyport/internal/domain/entity"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("username is taken")
	ErrDuplicateEmail    = errors.New("email is taken")
)

// UserRepository is the credential store. Implementations must reject an
// insert that would duplicate a username or email even when the caller
// checked beforehand, so concurrent registrations cannot both succeed.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// SetConfirmed is idempotent; ConfirmedAt keeps its first value.
	SetConfirmed(ctx context.Context, id string) error
	SearchByUsername(ctx context.Context, q string, limit int) ([]entity.User, error)
}
