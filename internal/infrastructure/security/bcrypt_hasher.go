package security

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/idstack/identity-service/internal/application"
	"github.com/idstack/identity-service/internal/domain/entity"
	"github.com/idstack/identity-service/pkg/helpers"
)

// BcryptHasher implements the password hasher contract on bcrypt.
type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{Cost: bcrypt.DefaultCost}
}

func (h *BcryptHasher) Hash(password entity.Password) (entity.HashedPassword, error) {
	raw, err := helpers.HashPassword(password.String(), h.Cost)
	if err != nil {
		return entity.HashedPassword{}, err
	}
	return entity.NewHashedPassword(raw)
}

func (h *BcryptHasher) Check(password entity.Password, hash entity.HashedPassword) bool {
	return helpers.CompareHashAndPassword(hash.String(), password.String())
}

// NeedsRehash reports whether the stored hash was made with a lower cost than
// the hasher is configured for, or is not a readable bcrypt hash at all.
func (h *BcryptHasher) NeedsRehash(hash entity.HashedPassword) bool {
	cost, err := bcrypt.Cost([]byte(hash.String()))
	if err != nil {
		return true
	}
	return cost < h.Cost
}

var _ application.PasswordHasher = (*BcryptHasher)(nil)
