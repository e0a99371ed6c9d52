package postgres

import (
	"context"
	"time"

	"github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/domain"
	autherror "github.com/AnthoniusHendriyanto/blogger-auth/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// accountColumns reads a cleared code slot as '' and the zero time.
const accountColumns = `id, login, email, password_hash, created_at,
		COALESCE(confirmation_code, ''),
		COALESCE(expiration_date, '0001-01-01 00:00:00+00'::timestamptz),
		is_confirmed`

type UserRepository struct {
	db PgxIface
}

func NewUserRepository(db PgxIface) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.findOne(ctx, "userRepo.FindByID", `WHERE id = $1`, id)
}

func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*domain.Account, error) {
	return r.findOne(ctx, "userRepo.FindByLogin", `WHERE login = $1`, login)
}

func (r *UserRepository) FindByLoginOrEmail(ctx context.Context, loginOrEmail string) (*domain.Account, error) {
	return r.findOne(ctx, "userRepo.FindByLoginOrEmail", `WHERE login = $1 OR email = $1`, loginOrEmail)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, "userRepo.FindByEmail", `WHERE email = $1`, email)
}

func (r *UserRepository) FindByConfirmationCode(ctx context.Context, code string) (*domain.Account, error) {
	if code == "" {
		return nil, nil
	}
	return r.findOne(ctx, "userRepo.FindByConfirmationCode", `WHERE confirmation_code = $1`, code)
}

func (r *UserRepository) findOne(ctx context.Context, op, where string, arg string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users ` + where + ` LIMIT 1`

	var a domain.Account
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&a.ID, &a.Login, &a.Email, &a.PasswordHash, &a.CreatedAt,
		&a.EmailConfirmation.ConfirmationCode,
		&a.EmailConfirmation.ExpirationDate,
		&a.EmailConfirmation.IsConfirmed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, op+".Scan")
	}
	// The NULL sentinel comes back as year 1 in the connection's time zone,
	// which IsZero rejects. Reset it to the zero value so callers can test
	// for a cleared code with IsZero.
	if a.EmailConfirmation.ExpirationDate.Equal(time.Time{}) {
		a.EmailConfirmation.ExpirationDate = time.Time{}
	}
	return &a, nil
}

func (r *UserRepository) Create(ctx context.Context, account *domain.Account) error {
	ec := account.EmailConfirmation
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, login, email, password_hash, created_at, confirmation_code, expiration_date, is_confirmed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, account.ID, account.Login, account.Email, account.PasswordHash, account.CreatedAt,
		nullString(ec.ConfirmationCode), nullTime(ec.ExpirationDate), ec.IsConfirmed)
	if err != nil {
		if isUniqueViolation(err) {
			return autherror.ErrAccountExists
		}
		return errors.Wrap(err, "userRepo.Create.Insert")
	}
	return nil
}

func (r *UserRepository) UpdateConfirmationCode(ctx context.Context, email, code string, expiresAt time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET confirmation_code = $2, expiration_date = $3
		WHERE email = $1
	`, email, code, expiresAt)
	if err != nil {
		return false, errors.Wrap(err, "userRepo.UpdateConfirmationCode.Update")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *UserRepository) UpdateConfirmStatus(ctx context.Context, id, code string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET is_confirmed = TRUE, confirmation_code = NULL, expiration_date = NULL
		WHERE id = $1 AND confirmation_code = $2
	`, id, code)
	if err != nil {
		return false, errors.Wrap(err, "userRepo.UpdateConfirmStatus.Update")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id, code, passwordHash string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET password_hash = $3, confirmation_code = NULL, expiration_date = NULL
		WHERE id = $1 AND confirmation_code = $2
	`, id, code, passwordHash)
	if err != nil {
		return false, errors.Wrap(err, "userRepo.UpdatePasswordHash.Update")
	}
	return tag.RowsAffected() > 0, nil
}
