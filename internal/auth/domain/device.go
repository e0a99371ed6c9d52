package domain

import "time"

// DeviceSession mirrors the refresh token currently valid for one device of a
// user. IssuedAt, ExpiresAt and TokenID are copied from the token claims.
type DeviceSession struct {
	DeviceID   string
	UserID     string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	IPAddress  string
	DeviceName string
	TokenID    string
}

// Principal is the authenticated caller attached to a request by the HTTP
// layer. DeviceID is only set when the caller authenticated with a refresh token.
type Principal struct {
	UserID   string
	DeviceID string
}
