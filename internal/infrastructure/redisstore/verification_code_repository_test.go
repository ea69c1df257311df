package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idstack/identity-service/internal/domain/entity"
	"github.com/idstack/identity-service/internal/domain/repository"
)

func newTestRepo(t *testing.T) (*VerificationCodeRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	log := logrus.New()
	return NewVerificationCodeRepository(client, log), mr
}

func newEmailCode(t *testing.T, ttl time.Duration) *entity.VerificationCode {
	t.Helper()
	email, err := entity.NewEmail("jane@example.com")
	require.NoError(t, err)
	code, err := entity.NewForEmail(uuid.New(), email, ttl)
	require.NoError(t, err)
	return code
}

func TestSaveAndFindByID(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	code := newEmailCode(t, time.Minute)
	require.NoError(t, repo.Save(ctx, code))

	got, err := repo.FindByID(ctx, code.ID())
	require.NoError(t, err)
	assert.Equal(t, code.ID(), got.ID())
	assert.Equal(t, code.UserID(), got.UserID())
	assert.Equal(t, entity.CodeTypeEmail, got.Type())
	assert.True(t, got.Matches(code.Code()))
	assert.Equal(t, "jane@example.com", got.Credential())
}

func TestFindByIDMissing(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFindByChannelAndCode(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	code := newEmailCode(t, time.Minute)
	require.NoError(t, repo.Save(ctx, code))

	got, err := repo.FindByChannelAndCode(ctx, entity.CodeTypeEmail, "jane@example.com", code.Code())
	require.NoError(t, err)
	assert.Equal(t, code.ID(), got.ID())

	// Wrong candidate code
	wrong, err := entity.NewCodeValue("000000")
	require.NoError(t, err)
	if wrong.Equals(code.Code()) {
		wrong, err = entity.NewCodeValue("000001")
		require.NoError(t, err)
	}
	_, err = repo.FindByChannelAndCode(ctx, entity.CodeTypeEmail, "jane@example.com", wrong)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// Wrong channel
	_, err = repo.FindByChannelAndCode(ctx, entity.CodeTypePhone, "jane@example.com", code.Code())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// Unknown credential
	_, err = repo.FindByChannelAndCode(ctx, entity.CodeTypeEmail, "nobody@example.com", code.Code())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLookupRejectsExpiredPrimary(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	email, err := entity.NewEmail("jane@example.com")
	require.NoError(t, err)
	value, err := entity.NewCodeValue("123456")
	require.NoError(t, err)

	// A record whose embedded expiry already passed but whose keys have not
	// been evicted yet. The read path must still reject it.
	expired := entity.CodeFromStore(
		uuid.New(), uuid.New(), value, entity.CodeTypeEmail,
		&email, nil, nil,
		time.Now().Add(-time.Minute), time.Now().Add(-2*time.Minute),
	)
	require.NoError(t, repo.Save(ctx, expired))

	_, err = repo.FindByChannelAndCode(ctx, entity.CodeTypeEmail, "jane@example.com", value)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestKeysEvictedByTTL(t *testing.T) {
	repo, mr := newTestRepo(t)
	ctx := context.Background()

	code := newEmailCode(t, 30*time.Second)
	require.NoError(t, repo.Save(ctx, code))

	mr.FastForward(time.Minute)

	_, err := repo.FindByID(ctx, code.ID())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.FindByChannelAndCode(ctx, entity.CodeTypeEmail, "jane@example.com", code.Code())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestResendOverwritesLookup(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	userID := uuid.New()
	email, err := entity.NewEmail("jane@example.com")
	require.NoError(t, err)

	first, err := entity.NewForEmail(userID, email, time.Minute)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))

	second, err := entity.NewForEmail(userID, email, time.Minute)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, second))

	got, err := repo.FindByChannelAndCode(ctx, entity.CodeTypeEmail, "jane@example.com", second.Code())
	require.NoError(t, err)
	assert.Equal(t, second.ID(), got.ID())

	// The first code is no longer reachable by credential, only by id until
	// its TTL runs out.
	if !first.Code().Equals(second.Code()) {
		_, err = repo.FindByChannelAndCode(ctx, entity.CodeTypeEmail, "jane@example.com", first.Code())
		assert.ErrorIs(t, err, repository.ErrNotFound)
	}
	_, err = repo.FindByID(ctx, first.ID())
	assert.NoError(t, err)
}

func TestDeleteIdempotent(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	code := newEmailCode(t, time.Minute)
	require.NoError(t, repo.Save(ctx, code))

	require.NoError(t, repo.Delete(ctx, code))
	_, err := repo.FindByID(ctx, code.ID())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.FindByChannelAndCode(ctx, entity.CodeTypeEmail, "jane@example.com", code.Code())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// Deleting again is a no-op.
	require.NoError(t, repo.Delete(ctx, code))
}

func TestCorruptLookupIndex(t *testing.T) {
	repo, mr := newTestRepo(t)
	ctx := context.Background()

	code := newEmailCode(t, time.Minute)
	require.NoError(t, repo.Save(ctx, code))

	require.NoError(t, mr.Set(lookupKey(entity.CodeTypeEmail, "jane@example.com"), "not-a-uuid"))

	_, err := repo.FindByChannelAndCode(ctx, entity.CodeTypeEmail, "jane@example.com", code.Code())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
