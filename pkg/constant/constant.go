package constant

const (
	DefaultTokenType = "Bearer"

	RefreshTokenCookie = "refreshToken"
	UnknownDeviceName  = "unknown"
	UnknownIPAddress   = "unknown"

	// Fiber locals key holding the domain.Principal of an authenticated request.
	PrincipalLocalsKey = "principal"
)
