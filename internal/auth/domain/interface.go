package domain

//go:generate mockgen -destination=../../mocks/mock_domain.go -package=mocks github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/domain CredentialStore,DeviceSessionStore,AttemptLedger,EmailSender,TokenCodec,PasswordHasher

import (
	"context"
	"time"
)

// CredentialStore persists accounts and their pending confirmation code.
// Lookups return nil, nil when nothing matches.
type CredentialStore interface {
	FindByID(ctx context.Context, id string) (*Account, error)
	FindByLogin(ctx context.Context, login string) (*Account, error)
	FindByLoginOrEmail(ctx context.Context, loginOrEmail string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByConfirmationCode(ctx context.Context, code string) (*Account, error)
	Create(ctx context.Context, account *Account) error
	UpdateConfirmationCode(ctx context.Context, email, code string, expiresAt time.Time) (bool, error)
	// UpdateConfirmStatus confirms the account and clears its code, but only
	// while the stored code still equals code.
	UpdateConfirmStatus(ctx context.Context, id, code string) (bool, error)
	// UpdatePasswordHash stores a new hash and clears the code, but only while
	// the stored code still equals code.
	UpdatePasswordHash(ctx context.Context, id, code, passwordHash string) (bool, error)
}

// DeviceSessionStore keeps at most one session per (user, device).
type DeviceSessionStore interface {
	Upsert(ctx context.Context, session *DeviceSession) error
	FindByUserAndDevice(ctx context.Context, userID, deviceID string) (*DeviceSession, error)
	FindByDeviceID(ctx context.Context, deviceID string) (*DeviceSession, error)
	ListByUser(ctx context.Context, userID string) ([]DeviceSession, error)
	// Rotate rewrites iat/exp/ip/device name/token id of an existing session.
	// A non-empty expectedTokenID turns it into a compare-and-set on the
	// stored token id.
	Rotate(ctx context.Context, session *DeviceSession, expectedTokenID string) (bool, error)
	DeleteByUserAndDevice(ctx context.Context, userID, deviceID string) (bool, error)
	DeleteAllExcept(ctx context.Context, userID, deviceID string) (int64, error)
	DeleteByID(ctx context.Context, deviceID string) (bool, error)
}

// AttemptLedger is an append-only log of requests to rate-limited routes.
type AttemptLedger interface {
	CountRecent(ctx context.Context, ip, route string, since time.Time) (int, error)
	Append(ctx context.Context, attempt *Attempt) error
}

// AttemptPruner is implemented by ledgers that need explicit retention.
type AttemptPruner interface {
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

type EmailSender interface {
	SendConfirmationCode(ctx context.Context, toEmail, code string) error
	SendRecoveryCode(ctx context.Context, toEmail, code string) error
}

type TokenCodec interface {
	IssueAccessToken(userID string) (string, error)
	IssueRefreshToken(deviceID, userID string) (string, error)
	DecodeAccessToken(token string) (*TokenClaims, error)
	DecodeRefreshToken(token string) (*TokenClaims, error)
	// ReadPayload parses a token without verifying it. Only use it on tokens
	// minted by this process.
	ReadPayload(token string) (*TokenClaims, error)
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}
