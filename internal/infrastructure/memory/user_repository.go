// Package memory provides in-memory repository implementations for local
// development and tests. They enforce the same contracts as the durable
// stores, including per-channel uniqueness.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/idstack/identity-service/internal/domain/entity"
	"github.com/idstack/identity-service/internal/domain/repository"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*entity.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[uuid.UUID]*entity.User)}
}

func (r *UserRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) FindByEmail(_ context.Context, email entity.Email) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email() != nil && u.Email().Equals(email) {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) FindByPhone(_ context.Context, phone entity.Phone) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Phone() != nil && u.Phone().Equals(phone) {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) FindByTelegramID(_ context.Context, telegramID entity.TelegramID) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.TelegramID() != nil && u.TelegramID().Equals(telegramID) {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Save upserts by id and rejects a different user claiming an already-stored
// channel value, mirroring the unique indexes of the Postgres schema.
func (r *UserRepository) Save(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, other := range r.users {
		if id == user.ID() {
			continue
		}
		if user.Email() != nil && other.Email() != nil && other.Email().Equals(*user.Email()) {
			return repository.ErrDuplicate
		}
		if user.Phone() != nil && other.Phone() != nil && other.Phone().Equals(*user.Phone()) {
			return repository.ErrDuplicate
		}
		if user.TelegramID() != nil && other.TelegramID() != nil && other.TelegramID().Equals(*user.TelegramID()) {
			return repository.ErrDuplicate
		}
	}
	r.users[user.ID()] = user
	return nil
}

func (r *UserRepository) Delete(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, user.ID())
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
