package postgres

import (
	"context"
	"time"

	"github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/domain"
	"github.com/pkg/errors"
)

type AttemptRepository struct {
	db PgxIface
}

func NewAttemptRepository(db PgxIface) *AttemptRepository {
	return &AttemptRepository{db: db}
}

func (r *AttemptRepository) CountRecent(ctx context.Context, ip, route string, since time.Time) (int, error) {
	var count int64
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM attempts
		WHERE ip_address = $1 AND route = $2 AND created_at >= $3
	`, ip, route, since).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "attemptRepo.CountRecent.Scan")
	}
	return int(count), nil
}

func (r *AttemptRepository) Append(ctx context.Context, a *domain.Attempt) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO attempts (ip_address, route, created_at)
		VALUES ($1, $2, $3)
	`, a.IPAddress, a.Route, a.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "attemptRepo.Append.Insert")
	}
	return nil
}

func (r *AttemptRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM attempts WHERE created_at < $1`, before)
	if err != nil {
		return 0, errors.Wrap(err, "attemptRepo.DeleteOlderThan.Exec")
	}
	return tag.RowsAffected(), nil
}
