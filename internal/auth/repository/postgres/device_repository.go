package postgres

import (
	"context"

	"github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/domain"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const sessionColumns = `device_id, user_id, issued_at, expires_at, ip_address, device_name, token_id`

type DeviceRepository struct {
	db PgxIface
}

func NewDeviceRepository(db PgxIface) *DeviceRepository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) Upsert(ctx context.Context, s *domain.DeviceSession) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO device_sessions (device_id, user_id, issued_at, expires_at, ip_address, device_name, token_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, device_id)
		DO UPDATE SET
			issued_at = EXCLUDED.issued_at,
			expires_at = EXCLUDED.expires_at,
			ip_address = EXCLUDED.ip_address,
			device_name = EXCLUDED.device_name,
			token_id = EXCLUDED.token_id
	`, s.DeviceID, s.UserID, s.IssuedAt, s.ExpiresAt, s.IPAddress, s.DeviceName, s.TokenID)
	if err != nil {
		return errors.Wrap(err, "deviceRepo.Upsert.Exec")
	}
	return nil
}

func (r *DeviceRepository) FindByUserAndDevice(ctx context.Context, userID, deviceID string) (*domain.DeviceSession, error) {
	row := r.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM device_sessions WHERE user_id = $1 AND device_id = $2`, userID, deviceID)
	return scanSession(row, "deviceRepo.FindByUserAndDevice")
}

func (r *DeviceRepository) FindByDeviceID(ctx context.Context, deviceID string) (*domain.DeviceSession, error) {
	row := r.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM device_sessions WHERE device_id = $1`, deviceID)
	return scanSession(row, "deviceRepo.FindByDeviceID")
}

func (r *DeviceRepository) ListByUser(ctx context.Context, userID string) ([]domain.DeviceSession, error) {
	rows, err := r.db.Query(ctx, `SELECT `+sessionColumns+` FROM device_sessions WHERE user_id = $1 ORDER BY issued_at`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "deviceRepo.ListByUser.Query")
	}
	defer rows.Close()

	sessions := []domain.DeviceSession{}
	for rows.Next() {
		var s domain.DeviceSession
		if err := rows.Scan(&s.DeviceID, &s.UserID, &s.IssuedAt, &s.ExpiresAt, &s.IPAddress, &s.DeviceName, &s.TokenID); err != nil {
			return nil, errors.Wrap(err, "deviceRepo.ListByUser.Scan")
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "deviceRepo.ListByUser.Rows")
	}
	return sessions, nil
}

// Rotate only touches an existing row. With a non-empty expectedTokenID the
// update also requires the stored token id to match, so two concurrent
// refreshes of one token cannot both succeed.
func (r *DeviceRepository) Rotate(ctx context.Context, s *domain.DeviceSession, expectedTokenID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE device_sessions
		SET issued_at = $3, expires_at = $4, ip_address = $5, device_name = $6, token_id = $7
		WHERE user_id = $1 AND device_id = $2
		  AND ($8::text IS NULL OR token_id = $8)
	`, s.UserID, s.DeviceID, s.IssuedAt, s.ExpiresAt, s.IPAddress, s.DeviceName, s.TokenID, nullString(expectedTokenID))
	if err != nil {
		return false, errors.Wrap(err, "deviceRepo.Rotate.Exec")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *DeviceRepository) DeleteByUserAndDevice(ctx context.Context, userID, deviceID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM device_sessions WHERE user_id = $1 AND device_id = $2`, userID, deviceID)
	if err != nil {
		return false, errors.Wrap(err, "deviceRepo.DeleteByUserAndDevice.Exec")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *DeviceRepository) DeleteAllExcept(ctx context.Context, userID, deviceID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM device_sessions WHERE user_id = $1 AND device_id <> $2`, userID, deviceID)
	if err != nil {
		return 0, errors.Wrap(err, "deviceRepo.DeleteAllExcept.Exec")
	}
	return tag.RowsAffected(), nil
}

func (r *DeviceRepository) DeleteByID(ctx context.Context, deviceID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM device_sessions WHERE device_id = $1`, deviceID)
	if err != nil {
		return false, errors.Wrap(err, "deviceRepo.DeleteByID.Exec")
	}
	return tag.RowsAffected() > 0, nil
}

func scanSession(row pgx.Row, op string) (*domain.DeviceSession, error) {
	var s domain.DeviceSession
	if err := row.Scan(&s.DeviceID, &s.UserID, &s.IssuedAt, &s.ExpiresAt, &s.IPAddress, &s.DeviceName, &s.TokenID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, op+".Scan")
	}
	return &s, nil
}
