package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/idstack/identity-service/internal/domain/entity"
)

// VerificationCodeRepository is the ephemeral, TTL-bounded store for
// outstanding one-time codes. Verification requests arrive with a credential
// and a candidate code, not a code id, so the store keeps a secondary lookup
// keyed by (type, credential).
//
// FindByChannelAndCode returns ErrNotFound for every failure mode: missing
// index entry, missing or expired primary record, or code mismatch. Callers
// cannot tell these apart and must not be able to. Delete is idempotent; a
// code may expire between a successful check and the delete call.
type VerificationCodeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.VerificationCode, error)
	FindByChannelAndCode(ctx context.Context, codeType entity.CodeType, credential string, candidate entity.CodeValue) (*entity.VerificationCode, error)
	Save(ctx context.Context, code *entity.VerificationCode) error
	Delete(ctx context.Context, code *entity.VerificationCode) error
}
