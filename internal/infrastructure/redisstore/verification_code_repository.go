package redisstore

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/idstack/identity-service/internal/domain/entity"
	"github.com/idstack/identity-service/internal/domain/repository"
)

const keyPrefix = "verification_code:"

// VerificationCodeRepository keeps one-time codes in Redis under two keys:
// a primary record keyed by the code id, and a lookup index keyed by
// (type, md5(credential)) that resolves a credential to the code id. The
// credential is hashed only to bound key length and keep raw addresses and
// phone numbers out of the key space; it is not a security boundary.
//
// The two writes are not atomic. A crash between them leaves either a
// primary without an index (unreachable, reclaimed by TTL) or an index
// without a primary, which is why a lookup always re-fetches and validates
// the primary record instead of trusting the index.
type VerificationCodeRepository struct {
	client *redis.Client
	log    *logrus.Logger
}

func NewVerificationCodeRepository(client *redis.Client, log *logrus.Logger) *VerificationCodeRepository {
	return &VerificationCodeRepository{client: client, log: log}
}

// codeRecord is the stored shape of a VerificationCode.
type codeRecord struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	CodeValue  string `json:"code_value"`
	Type       string `json:"type"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	TelegramID string `json:"telegram_id,omitempty"`
	ExpiresAt  int64  `json:"expires_at"`
	CreatedAt  int64  `json:"created_at"`
}

func primaryKey(id uuid.UUID) string {
	return keyPrefix + id.String()
}

func lookupKey(codeType entity.CodeType, credential string) string {
	sum := md5.Sum([]byte(credential))
	return keyPrefix + "lookup:" + string(codeType) + ":" + hex.EncodeToString(sum[:])
}

func (r *VerificationCodeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.VerificationCode, error) {
	data, err := r.client.Get(ctx, primaryKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get verification code: %w", err)
	}
	var rec codeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode verification code: %w", err)
	}
	return rec.toEntity()
}

// FindByChannelAndCode resolves the lookup index and validates the primary
// record behind it. Absent index, absent or expired primary, and a code
// mismatch all collapse into ErrNotFound; the caller must not learn which.
func (r *VerificationCodeRepository) FindByChannelAndCode(ctx context.Context, codeType entity.CodeType, credential string, candidate entity.CodeValue) (*entity.VerificationCode, error) {
	idStr, err := r.client.Get(ctx, lookupKey(codeType, credential)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get lookup index: %w", err)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		// A corrupt index entry is as good as no entry.
		return nil, repository.ErrNotFound
	}

	code, err := r.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if code.IsExpired() || !code.Matches(candidate) {
		return nil, repository.ErrNotFound
	}
	return code, nil
}

// Save writes the primary record, then the lookup index, both with
// TTL = expiresAt - now clamped to at least one second so a just-created
// code can never race immediate eviction. Saving a second code for the same
// credential overwrites the index; the orphaned old primary ages out on its
// own TTL.
func (r *VerificationCodeRepository) Save(ctx context.Context, code *entity.VerificationCode) error {
	rec := recordFrom(code)
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode verification code: %w", err)
	}

	ttl := time.Until(code.ExpiresAt())
	if ttl < time.Second {
		ttl = time.Second
	}

	if err := r.client.Set(ctx, primaryKey(code.ID()), data, ttl).Err(); err != nil {
		return fmt.Errorf("set verification code: %w", err)
	}

	credential := code.Credential()
	if credential == "" {
		// A code without a credential slot is unreachable by lookup but not
		// an error; it self-heals via TTL.
		if r.log != nil {
			r.log.WithField("code_id", code.ID().String()).Warn("verification code has no credential, skipping lookup index")
		}
		return nil
	}
	if err := r.client.Set(ctx, lookupKey(code.Type(), credential), code.ID().String(), ttl).Err(); err != nil {
		return fmt.Errorf("set lookup index: %w", err)
	}
	return nil
}

// Delete removes the primary record and the lookup index. Both deletes are
// no-ops on absent keys: a code may expire naturally between a successful
// check and this call.
func (r *VerificationCodeRepository) Delete(ctx context.Context, code *entity.VerificationCode) error {
	if err := r.client.Del(ctx, primaryKey(code.ID())).Err(); err != nil {
		return fmt.Errorf("delete verification code: %w", err)
	}
	credential := code.Credential()
	if credential == "" {
		return nil
	}
	if err := r.client.Del(ctx, lookupKey(code.Type(), credential)).Err(); err != nil {
		return fmt.Errorf("delete lookup index: %w", err)
	}
	return nil
}

func recordFrom(code *entity.VerificationCode) codeRecord {
	rec := codeRecord{
		ID:        code.ID().String(),
		UserID:    code.UserID().String(),
		CodeValue: code.Code().String(),
		Type:      string(code.Type()),
		ExpiresAt: code.ExpiresAt().Unix(),
		CreatedAt: code.CreatedAt().Unix(),
	}
	if code.Email() != nil {
		rec.Email = code.Email().String()
	}
	if code.Phone() != nil {
		rec.Phone = code.Phone().String()
	}
	if code.TelegramID() != nil {
		rec.TelegramID = code.TelegramID().String()
	}
	return rec
}

func (rec codeRecord) toEntity() (*entity.VerificationCode, error) {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("decode verification code id: %w", err)
	}
	userID, err := uuid.Parse(rec.UserID)
	if err != nil {
		return nil, fmt.Errorf("decode verification code user id: %w", err)
	}
	value, err := entity.NewCodeValue(rec.CodeValue)
	if err != nil {
		return nil, fmt.Errorf("decode verification code value: %w", err)
	}

	var (
		email      *entity.Email
		phone      *entity.Phone
		telegramID *entity.TelegramID
	)
	if rec.Email != "" {
		v, err := entity.NewEmail(rec.Email)
		if err != nil {
			return nil, fmt.Errorf("decode verification code email: %w", err)
		}
		email = &v
	}
	if rec.Phone != "" {
		v, err := entity.NewPhone(rec.Phone)
		if err != nil {
			return nil, fmt.Errorf("decode verification code phone: %w", err)
		}
		phone = &v
	}
	if rec.TelegramID != "" {
		v, err := entity.NewTelegramID(rec.TelegramID)
		if err != nil {
			return nil, fmt.Errorf("decode verification code telegram id: %w", err)
		}
		telegramID = &v
	}

	return entity.CodeFromStore(
		id, userID, value, entity.CodeType(rec.Type),
		email, phone, telegramID,
		time.Unix(rec.ExpiresAt, 0).UTC(), time.Unix(rec.CreatedAt, 0).UTC(),
	), nil
}

var _ repository.VerificationCodeRepository = (*VerificationCodeRepository)(nil)
