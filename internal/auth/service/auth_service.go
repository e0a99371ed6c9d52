package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/domain"
	"github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/dto"
	autherror "github.com/AnthoniusHendriyanto/blogger-auth/internal/errors"
	"github.com/AnthoniusHendriyanto/blogger-auth/internal/logger"
	authconstant "github.com/AnthoniusHendriyanto/blogger-auth/pkg/constant"
	"github.com/google/uuid"
)

type AuthSettings struct {
	// CodeTTL is how long a confirmation or recovery code stays usable.
	CodeTTL time.Duration
	// StrictRefreshRotation makes a refresh token single-use: its jti must
	// match the token id stored on the device session.
	StrictRefreshRotation bool
}

type AuthService struct {
	users    domain.CredentialStore
	sessions domain.DeviceSessionStore
	tokens   domain.TokenCodec
	hasher   domain.PasswordHasher
	mailer   domain.EmailSender
	settings AuthSettings

	now   func() time.Time
	newID func() string
	log   *slog.Logger
}

type Option func(*AuthService)

func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *AuthService) { s.newID = newID }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *AuthService) { s.log = l }
}

func NewAuthService(
	users domain.CredentialStore,
	sessions domain.DeviceSessionStore,
	tokens domain.TokenCodec,
	hasher domain.PasswordHasher,
	mailer domain.EmailSender,
	settings AuthSettings,
	opts ...Option,
) *AuthService {
	s := &AuthService{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		hasher:   hasher,
		mailer:   mailer,
		settings: settings,
		now:      time.Now,
		newID:    uuid.NewString,
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login starts a new device session. Unknown, unconfirmed and wrong-password
// accounts are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, input dto.LoginInput) (*dto.TokenResponse, error) {
	account, err := s.users.FindByLoginOrEmail(ctx, input.LoginOrEmail)
	if err != nil {
		return nil, err
	}
	if account == nil || !account.EmailConfirmation.IsConfirmed || !s.hasher.Verify(input.Password, account.PasswordHash) {
		return nil, autherror.ErrInvalidCredentials
	}

	deviceID := s.newID()
	resp, session, err := s.issueTokens(account.ID, deviceID, input.IPAddress, input.UserAgent)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Upsert(ctx, session); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "user logged in", "user_id", account.ID, "device_id", deviceID)
	return resp, nil
}

// Register creates an unconfirmed account and mails its confirmation code.
// When the mail cannot be sent the account is still returned together with
// ErrDeliveryFailed; it stays persisted and the code can be resent.
func (s *AuthService) Register(ctx context.Context, input dto.RegisterInput) (*domain.Account, error) {
	byLogin, err := s.users.FindByLogin(ctx, input.Login)
	if err != nil {
		return nil, err
	}
	if byLogin != nil {
		return nil, autherror.ErrLoginTaken
	}

	byEmail, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if byEmail != nil {
		return nil, autherror.ErrEmailTaken
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	account := &domain.Account{
		ID:           s.newID(),
		Login:        input.Login,
		Email:        input.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		EmailConfirmation: domain.EmailConfirmation{
			ConfirmationCode: s.newID(),
			ExpirationDate:   now.Add(s.settings.CodeTTL),
		},
	}

	if err := s.users.Create(ctx, account); err != nil {
		return nil, err
	}

	if err := s.mailer.SendConfirmationCode(ctx, account.Email, account.EmailConfirmation.ConfirmationCode); err != nil {
		s.log.WarnContext(ctx, "confirmation email not delivered", "user_id", account.ID, "error", err)
		return account, autherror.DeliveryFailed(err)
	}

	return account, nil
}

func (s *AuthService) ResendConfirmation(ctx context.Context, email string) error {
	account, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if account == nil {
		return autherror.ErrEmailNotFound
	}
	if account.EmailConfirmation.IsConfirmed {
		return autherror.ErrAlreadyConfirmed
	}

	code, err := s.replaceCode(ctx, email)
	if err != nil {
		return err
	}

	if err := s.mailer.SendConfirmationCode(ctx, email, code); err != nil {
		s.log.WarnContext(ctx, "confirmation email not delivered", "user_id", account.ID, "error", err)
		return autherror.DeliveryFailed(err)
	}
	return nil
}

func (s *AuthService) ConfirmEmail(ctx context.Context, code string) error {
	if code == "" {
		return autherror.ErrCodeNotFound
	}

	account, err := s.users.FindByConfirmationCode(ctx, code)
	if err != nil {
		return err
	}
	if account == nil {
		return autherror.ErrCodeNotFound
	}
	if account.EmailConfirmation.IsConfirmed {
		return autherror.ErrAlreadyConfirmed
	}
	if account.EmailConfirmation.CodeExpired(s.now()) {
		return autherror.ErrCodeExpired
	}

	ok, err := s.users.UpdateConfirmStatus(ctx, account.ID, code)
	if err != nil {
		return err
	}
	if !ok {
		// The code was consumed or replaced since it was read.
		return autherror.ErrCodeNotFound
	}
	return nil
}

// RequestPasswordRecovery succeeds silently for unknown emails. The recovery
// code shares the single pending-code slot with email confirmation.
func (s *AuthService) RequestPasswordRecovery(ctx context.Context, email string) error {
	account, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if account == nil {
		return nil
	}

	code, err := s.replaceCode(ctx, email)
	if err != nil {
		return err
	}

	if err := s.mailer.SendRecoveryCode(ctx, email, code); err != nil {
		s.log.WarnContext(ctx, "recovery email not delivered", "user_id", account.ID, "error", err)
		return autherror.DeliveryFailed(err)
	}
	return nil
}

func (s *AuthService) CompletePasswordRecovery(ctx context.Context, input dto.NewPasswordInput) error {
	if input.RecoveryCode == "" {
		return autherror.ErrCodeNotFound
	}

	account, err := s.users.FindByConfirmationCode(ctx, input.RecoveryCode)
	if err != nil {
		return err
	}
	if account == nil {
		return autherror.ErrCodeNotFound
	}
	if account.EmailConfirmation.CodeExpired(s.now()) {
		return autherror.ErrCodeExpired
	}

	hash, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	ok, err := s.users.UpdatePasswordHash(ctx, account.ID, input.RecoveryCode, hash)
	if err != nil {
		return err
	}
	if !ok {
		return autherror.ErrCodeNotFound
	}

	s.log.InfoContext(ctx, "password recovered", "user_id", account.ID)
	return nil
}

// Refresh rotates the device session in place and returns a new token pair
// for the same device.
func (s *AuthService) Refresh(ctx context.Context, input dto.RefreshInput) (*dto.TokenResponse, error) {
	claims, _, err := s.authorizeRefresh(ctx, input.RefreshToken)
	if err != nil {
		return nil, err
	}

	resp, session, err := s.issueTokens(claims.UserID, claims.DeviceID, input.IPAddress, input.UserAgent)
	if err != nil {
		return nil, err
	}

	var expected string
	if s.settings.StrictRefreshRotation {
		expected = claims.TokenID
	}

	ok, err := s.sessions.Rotate(ctx, session, expected)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Revoked or already rotated by a concurrent refresh.
		return nil, autherror.ErrUnauthorized
	}

	return resp, nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, _, err := s.authorizeRefresh(ctx, refreshToken)
	if err != nil {
		return err
	}

	ok, err := s.sessions.DeleteByUserAndDevice(ctx, claims.UserID, claims.DeviceID)
	if err != nil {
		return err
	}
	if !ok {
		return autherror.ErrUnauthorized
	}

	s.log.InfoContext(ctx, "user logged out", "user_id", claims.UserID, "device_id", claims.DeviceID)
	return nil
}

func (s *AuthService) AuthenticateAccess(_ context.Context, accessToken string) (*domain.Principal, error) {
	claims, err := s.tokens.DecodeAccessToken(accessToken)
	if err != nil {
		return nil, autherror.ErrUnauthorized
	}
	return &domain.Principal{UserID: claims.UserID}, nil
}

func (s *AuthService) AuthenticateRefresh(ctx context.Context, refreshToken string) (*domain.Principal, error) {
	claims, _, err := s.authorizeRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return &domain.Principal{UserID: claims.UserID, DeviceID: claims.DeviceID}, nil
}

// authorizeRefresh accepts a refresh token only while a device session for
// its (user, device) pair exists.
func (s *AuthService) authorizeRefresh(ctx context.Context, refreshToken string) (*domain.TokenClaims, *domain.DeviceSession, error) {
	if refreshToken == "" {
		return nil, nil, autherror.ErrUnauthorized
	}

	claims, err := s.tokens.DecodeRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, autherror.ErrUnauthorized
	}

	session, err := s.sessions.FindByUserAndDevice(ctx, claims.UserID, claims.DeviceID)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, autherror.ErrUnauthorized
	}
	if s.settings.StrictRefreshRotation && session.TokenID != claims.TokenID {
		return nil, nil, autherror.ErrUnauthorized
	}

	return claims, session, nil
}

func (s *AuthService) issueTokens(userID, deviceID, ip, userAgent string) (*dto.TokenResponse, *domain.DeviceSession, error) {
	accessToken, err := s.tokens.IssueAccessToken(userID)
	if err != nil {
		return nil, nil, err
	}

	refreshToken, err := s.tokens.IssueRefreshToken(deviceID, userID)
	if err != nil {
		return nil, nil, err
	}

	payload, err := s.tokens.ReadPayload(refreshToken)
	if err != nil {
		return nil, nil, err
	}

	session := &domain.DeviceSession{
		DeviceID:   deviceID,
		UserID:     userID,
		IssuedAt:   payload.IssuedAt,
		ExpiresAt:  payload.ExpiresAt,
		IPAddress:  orDefault(ip, authconstant.UnknownIPAddress),
		DeviceName: orDefault(userAgent, authconstant.UnknownDeviceName),
		TokenID:    payload.TokenID,
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		DeviceID:     deviceID,
		TokenType:    authconstant.DefaultTokenType,
		ExpiresIn:    int(s.tokens.GetAccessTokenExpiry().Seconds()),
	}, session, nil
}

// replaceCode overwrites the pending code of the account with a fresh one.
func (s *AuthService) replaceCode(ctx context.Context, email string) (string, error) {
	code := s.newID()
	ok, err := s.users.UpdateConfirmationCode(ctx, email, code, s.now().Add(s.settings.CodeTTL))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", autherror.ErrEmailNotFound
	}
	return code, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// IsDeliveryFailure reports whether err only means the e-mail was not sent.
func IsDeliveryFailure(err error) bool {
	return errors.Is(err, autherror.ErrDeliveryFailed)
}
