package service

import (
	"fmt"
	"time"

	"github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/domain"
	autherror "github.com/AnthoniusHendriyanto/blogger-auth/internal/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenService struct {
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	// Now is the clock used for iat/exp and for expiry checks.
	Now func() time.Time
}

type JWTCustomClaims struct {
	jwt.RegisteredClaims
	UserID   string           `json:"user_id"`
	DeviceID string           `json:"device_id,omitempty"`
	Type     domain.TokenType `json:"typ"`
}

func NewTokenService(accessSecret, refreshSecret string, accessExpiry, refreshExpiry time.Duration) *TokenService {
	return &TokenService{
		AccessTokenSecret:  accessSecret,
		RefreshTokenSecret: refreshSecret,
		AccessTokenExpiry:  accessExpiry,
		RefreshTokenExpiry: refreshExpiry,
		Now:                time.Now,
	}
}

func (ts *TokenService) IssueAccessToken(userID string) (string, error) {
	now := ts.Now()

	claims := JWTCustomClaims{
		UserID: userID,
		Type:   domain.AccessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(ts.AccessTokenSecret))
}

// IssueRefreshToken binds the token to a device. Every token carries a fresh
// jti so two tokens minted within the same second never collide.
func (ts *TokenService) IssueRefreshToken(deviceID, userID string) (string, error) {
	now := ts.Now()

	claims := JWTCustomClaims{
		UserID:   userID,
		DeviceID: deviceID,
		Type:     domain.RefreshTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.RefreshTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(ts.RefreshTokenSecret))
}

func (ts *TokenService) DecodeAccessToken(tokenString string) (*domain.TokenClaims, error) {
	return ts.decode(tokenString, ts.AccessTokenSecret, domain.AccessTokenType)
}

func (ts *TokenService) DecodeRefreshToken(tokenString string) (*domain.TokenClaims, error) {
	return ts.decode(tokenString, ts.RefreshTokenSecret, domain.RefreshTokenType)
}

// decode collapses every verification failure into ErrInvalidToken; callers
// cannot tell an expired token from a forged one.
func (ts *TokenService) decode(tokenString, secret string, want domain.TokenType) (*domain.TokenClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(ts.Now),
	)
	if err != nil || !token.Valid {
		return nil, autherror.ErrInvalidToken
	}

	if claims.Type != want || claims.UserID == "" {
		return nil, autherror.ErrInvalidToken
	}
	if want == domain.RefreshTokenType && (claims.DeviceID == "" || claims.ID == "") {
		return nil, autherror.ErrInvalidToken
	}

	return toDomainClaims(claims), nil
}

func (ts *TokenService) ReadPayload(tokenString string) (*domain.TokenClaims, error) {
	claims := &JWTCustomClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, autherror.ErrInvalidToken
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, autherror.ErrInvalidToken
	}
	return toDomainClaims(claims), nil
}

func (ts *TokenService) GetAccessTokenExpiry() time.Duration {
	return ts.AccessTokenExpiry
}

func (ts *TokenService) GetRefreshTokenExpiry() time.Duration {
	return ts.RefreshTokenExpiry
}

func toDomainClaims(c *JWTCustomClaims) *domain.TokenClaims {
	out := &domain.TokenClaims{
		UserID:   c.UserID,
		DeviceID: c.DeviceID,
		TokenID:  c.ID,
		Type:     c.Type,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}
