package domain

import "time"

type TokenType string

const (
	AccessTokenType  TokenType = "access"
	RefreshTokenType TokenType = "refresh"
)

// TokenClaims is the decoded payload of an access or refresh token.
// DeviceID is empty for access tokens.
type TokenClaims struct {
	UserID    string
	DeviceID  string
	// TokenID is the jti of a refresh token.
	TokenID   string
	Type      TokenType
	IssuedAt  time.Time
	ExpiresAt time.Time
}
