package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/idstack/identity-service/internal/domain/entity"
	"github.com/idstack/identity-service/internal/domain/repository"
)

const uniqueViolation = "23505"

// UserRepository stores users in Postgres. The users table carries UNIQUE
// indexes on email, phone and telegram_id, so a concurrent duplicate
// registration fails here with ErrDuplicate no matter what the service-level
// pre-check saw.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, email, phone, telegram_id, password_hash,
		is_email_verified, is_phone_verified, is_telegram_verified,
		first_name, last_name, created_at, updated_at`

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email entity.Email) (*entity.User, error) {
	return r.findOne(ctx, `WHERE email = $1`, email.String())
}

func (r *UserRepository) FindByPhone(ctx context.Context, phone entity.Phone) (*entity.User, error) {
	return r.findOne(ctx, `WHERE phone = $1`, phone.String())
}

func (r *UserRepository) FindByTelegramID(ctx context.Context, telegramID entity.TelegramID) (*entity.User, error) {
	return r.findOne(ctx, `WHERE telegram_id = $1`, telegramID.String())
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg any) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users `+where, arg)
	return scanUser(row)
}

// Save inserts the user or, when the id already exists, updates the mutable
// columns. Channel values are never removed once set, so the update writes
// them back verbatim.
func (r *UserRepository) Save(ctx context.Context, u *entity.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			telegram_id = EXCLUDED.telegram_id,
			password_hash = EXCLUDED.password_hash,
			is_email_verified = EXCLUDED.is_email_verified,
			is_phone_verified = EXCLUDED.is_phone_verified,
			is_telegram_verified = EXCLUDED.is_telegram_verified,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			updated_at = EXCLUDED.updated_at
	`,
		u.ID(),
		optString(u.Email()),
		optString(u.Phone()),
		optString(u.TelegramID()),
		optString(u.PasswordHash()),
		u.IsEmailVerified(),
		u.IsPhoneVerified(),
		u.IsTelegramVerified(),
		nullIfEmpty(u.FirstName()),
		nullIfEmpty(u.LastName()),
		u.CreatedAt(),
		u.UpdatedAt(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, u *entity.User) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, u.ID())
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var (
		id                       uuid.UUID
		email, phone, telegramID *string
		passwordHash             *string
		emailVerified            bool
		phoneVerified            bool
		telegramVerified         bool
		firstName, lastName      *string
		createdAt, updatedAt     time.Time
	)
	if err := row.Scan(
		&id, &email, &phone, &telegramID, &passwordHash,
		&emailVerified, &phoneVerified, &telegramVerified,
		&firstName, &lastName, &createdAt, &updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return mapUser(id, email, phone, telegramID, passwordHash, emailVerified, phoneVerified, telegramVerified, firstName, lastName, createdAt, updatedAt)
}

// mapUser rebuilds the aggregate from raw column values. Stored values went
// through validation on the way in, so a failure here means the row was
// edited outside the application.
func mapUser(
	id uuid.UUID,
	email, phone, telegramID, passwordHash *string,
	emailVerified, phoneVerified, telegramVerified bool,
	firstName, lastName *string,
	createdAt, updatedAt time.Time,
) (*entity.User, error) {
	var (
		emailVO    *entity.Email
		phoneVO    *entity.Phone
		telegramVO *entity.TelegramID
		hashVO     *entity.HashedPassword
	)
	if email != nil {
		v, err := entity.NewEmail(*email)
		if err != nil {
			return nil, fmt.Errorf("map user %s: %w", id, err)
		}
		emailVO = &v
	}
	if phone != nil {
		v, err := entity.NewPhone(*phone)
		if err != nil {
			return nil, fmt.Errorf("map user %s: %w", id, err)
		}
		phoneVO = &v
	}
	if telegramID != nil {
		v, err := entity.NewTelegramID(*telegramID)
		if err != nil {
			return nil, fmt.Errorf("map user %s: %w", id, err)
		}
		telegramVO = &v
	}
	if passwordHash != nil {
		v, err := entity.NewHashedPassword(*passwordHash)
		if err != nil {
			return nil, fmt.Errorf("map user %s: %w", id, err)
		}
		hashVO = &v
	}
	return entity.FromStore(
		id, emailVO, phoneVO, telegramVO, hashVO,
		emailVerified, phoneVerified, telegramVerified,
		deref(firstName), deref(lastName),
		createdAt, updatedAt,
	), nil
}

func optString[T fmt.Stringer](v *T) *string {
	if v == nil {
		return nil
	}
	s := (*v).String()
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ repository.UserRepository = (*UserRepository)(nil)
