package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/idstack/identity-service/internal/domain/entity"
	"github.com/idstack/identity-service/internal/domain/repository"
)

type lookupEntry struct {
	codeType   entity.CodeType
	credential string
}

// VerificationCodeRepository mirrors the Redis store's two access paths with
// two maps. Expiry is checked on read; there is no background eviction, which
// is fine for the short-lived processes this implementation serves.
type VerificationCodeRepository struct {
	mu     sync.RWMutex
	codes  map[uuid.UUID]*entity.VerificationCode
	lookup map[lookupEntry]uuid.UUID
}

func NewVerificationCodeRepository() *VerificationCodeRepository {
	return &VerificationCodeRepository{
		codes:  make(map[uuid.UUID]*entity.VerificationCode),
		lookup: make(map[lookupEntry]uuid.UUID),
	}
}

func (r *VerificationCodeRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.VerificationCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.codes[id]; ok {
		return c, nil
	}
	return nil, repository.ErrNotFound
}

func (r *VerificationCodeRepository) FindByChannelAndCode(_ context.Context, codeType entity.CodeType, credential string, candidate entity.CodeValue) (*entity.VerificationCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.lookup[lookupEntry{codeType: codeType, credential: credential}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	code, ok := r.codes[id]
	if !ok || code.IsExpired() || !code.Matches(candidate) {
		return nil, repository.ErrNotFound
	}
	return code, nil
}

func (r *VerificationCodeRepository) Save(_ context.Context, code *entity.VerificationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes[code.ID()] = code
	if cred := code.Credential(); cred != "" {
		r.lookup[lookupEntry{codeType: code.Type(), credential: cred}] = code.ID()
	}
	return nil
}

func (r *VerificationCodeRepository) Delete(_ context.Context, code *entity.VerificationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.codes, code.ID())
	if cred := code.Credential(); cred != "" {
		delete(r.lookup, lookupEntry{codeType: code.Type(), credential: cred})
	}
	return nil
}

var _ repository.VerificationCodeRepository = (*VerificationCodeRepository)(nil)
