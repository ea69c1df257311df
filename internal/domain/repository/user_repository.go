package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/idstack/identity-service/internal/domain/entity"
)

// UserRepository is the persistence boundary for the User aggregate.
// Implementations must enforce uniqueness of each channel value at the
// storage layer (a concurrent duplicate registration has to fail on Save,
// the service-level pre-check is only an optimization) and return
// ErrNotFound / ErrDuplicate from this package.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email entity.Email) (*entity.User, error)
	FindByPhone(ctx context.Context, phone entity.Phone) (*entity.User, error)
	FindByTelegramID(ctx context.Context, telegramID entity.TelegramID) (*entity.User, error)
	Save(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, user *entity.User) error
}
