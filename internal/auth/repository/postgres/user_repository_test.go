package postgres_test

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/domain"
	repo "github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/repository/postgres"
	autherror "github.com/AnthoniusHendriyanto/blogger-auth/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountColumns = []string{"id", "login", "email", "password_hash", "created_at", "confirmation_code", "expiration_date", "is_confirmed"}

// TestFindByLoginOrEmail covers the account lookups.
func TestFindByLoginOrEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewUserRepository(mock)
	ctx := context.Background()
	createdAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	exp := createdAt.Add(10 * time.Minute)

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE login = $1 OR email = $1")).
			WithArgs("alice").
			WillReturnRows(pgxmock.NewRows(accountColumns).
				AddRow("user-1", "alice", "alice@example.com", "hash", createdAt, "code-1", exp, false))

		account, err := r.FindByLoginOrEmail(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, &domain.Account{
			ID:           "user-1",
			Login:        "alice",
			Email:        "alice@example.com",
			PasswordHash: "hash",
			CreatedAt:    createdAt,
			EmailConfirmation: domain.EmailConfirmation{
				ConfirmationCode: "code-1",
				ExpirationDate:   exp,
			},
		}, account)
	})

	t.Run("cleared code slot", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE login = $1 OR email = $1")).
			WithArgs("alice").
			WillReturnRows(pgxmock.NewRows(accountColumns).
				AddRow("user-1", "alice", "alice@example.com", "hash", createdAt, "", time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC), true))

		account, err := r.FindByLoginOrEmail(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, account.EmailConfirmation.IsConfirmed)
		assert.Empty(t, account.EmailConfirmation.ConfirmationCode)
		assert.True(t, account.EmailConfirmation.ExpirationDate.IsZero())
	})

	t.Run("cleared code slot read in a non-UTC session", func(t *testing.T) {
		loc := time.FixedZone("UTC+7", 7*60*60)
		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE login = $1 OR email = $1")).
			WithArgs("alice").
			WillReturnRows(pgxmock.NewRows(accountColumns).
				AddRow("user-1", "alice", "alice@example.com", "hash", createdAt, "", time.Date(1, 1, 1, 7, 0, 0, 0, loc), true))

		account, err := r.FindByLoginOrEmail(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, account.EmailConfirmation.ExpirationDate.IsZero())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE login = $1 OR email = $1")).
			WithArgs("ghost").
			WillReturnError(pgx.ErrNoRows)

		account, err := r.FindByLoginOrEmail(ctx, "ghost")
		require.NoError(t, err) // Should return nil account, nil error
		assert.Nil(t, account)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE login = $1 OR email = $1")).
			WithArgs("alice").
			WillReturnError(fmt.Errorf("db error"))

		_, err := r.FindByLoginOrEmail(ctx, "alice")
		assert.ErrorContains(t, err, "userRepo.FindByLoginOrEmail")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByOtherKeys(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewUserRepository(mock)
	ctx := context.Background()
	row := func() *pgxmock.Rows {
		return pgxmock.NewRows(accountColumns).
			AddRow("user-1", "alice", "alice@example.com", "hash", time.Now(), "code-1", time.Now(), false)
	}

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).WithArgs("user-1").WillReturnRows(row())
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE login = $1")).WithArgs("alice").WillReturnRows(row())
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).WithArgs("alice@example.com").WillReturnRows(row())
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE confirmation_code = $1")).WithArgs("code-1").WillReturnRows(row())

	for _, find := range []func() (*domain.Account, error){
		func() (*domain.Account, error) { return r.FindByID(ctx, "user-1") },
		func() (*domain.Account, error) { return r.FindByLogin(ctx, "alice") },
		func() (*domain.Account, error) { return r.FindByEmail(ctx, "alice@example.com") },
		func() (*domain.Account, error) { return r.FindByConfirmationCode(ctx, "code-1") },
	} {
		account, err := find()
		require.NoError(t, err)
		assert.Equal(t, "user-1", account.ID)
	}

	// An empty code never matches a cleared slot and never hits the database.
	account, err := r.FindByConfirmationCode(ctx, "")
	assert.NoError(t, err)
	assert.Nil(t, account)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCreate covers the Create repository method.
func TestCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewUserRepository(mock)

	pending := &domain.Account{
		ID:           "user-1",
		Login:        "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
		EmailConfirmation: domain.EmailConfirmation{
			ConfirmationCode: "code-1",
			ExpirationDate:   time.Now().Add(10 * time.Minute),
		},
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WithArgs(pending.ID, pending.Login, pending.Email, pending.PasswordHash, pending.CreatedAt,
				"code-1", pending.EmailConfirmation.ExpirationDate, false).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		assert.NoError(t, r.Create(ctx, pending))
	})

	t.Run("confirmed account stores NULL code", func(t *testing.T) {
		confirmed := &domain.Account{
			ID: "user-2", Login: "bob", Email: "bob@example.com", PasswordHash: "hash", CreatedAt: time.Now(),
			EmailConfirmation: domain.EmailConfirmation{IsConfirmed: true},
		}
		mock.ExpectExec("INSERT INTO users").
			WithArgs(confirmed.ID, confirmed.Login, confirmed.Email, confirmed.PasswordHash, confirmed.CreatedAt, nil, nil, true).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		assert.NoError(t, r.Create(ctx, confirmed))
	})

	t.Run("unique violation", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		assert.ErrorIs(t, r.Create(ctx, pending), autherror.ErrAccountExists)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(fmt.Errorf("db error"))

		err := r.Create(ctx, pending)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, autherror.ErrAccountExists)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCodeUpdates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewUserRepository(mock)
	exp := time.Now().Add(10 * time.Minute)

	t.Run("overwrite code", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET confirmation_code").
			WithArgs("alice@example.com", "code-2", exp).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		ok, err := r.UpdateConfirmationCode(ctx, "alice@example.com", "code-2", exp)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("overwrite code for unknown email", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET confirmation_code").
			WithArgs("ghost@example.com", "code-2", exp).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		ok, err := r.UpdateConfirmationCode(ctx, "ghost@example.com", "code-2", exp)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("confirm is compare and set on the code", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND confirmation_code = $2")).
			WithArgs("user-1", "code-2").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND confirmation_code = $2")).
			WithArgs("user-1", "code-2").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		ok, err := r.UpdateConfirmStatus(ctx, "user-1", "code-2")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = r.UpdateConfirmStatus(ctx, "user-1", "code-2")
		require.NoError(t, err)
		assert.False(t, ok, "replayed code matches nothing")
	})

	t.Run("password update", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET password_hash").
			WithArgs("user-1", "rec-1", "new-hash").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		ok, err := r.UpdatePasswordHash(ctx, "user-1", "rec-1", "new-hash")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET password_hash").
			WithArgs("user-1", "rec-1", "new-hash").
			WillReturnError(fmt.Errorf("db error"))

		_, err := r.UpdatePasswordHash(ctx, "user-1", "rec-1", "new-hash")
		assert.ErrorContains(t, err, "userRepo.UpdatePasswordHash")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
