package domain

import "time"

type Account struct {
	ID                string
	Login             string
	Email             string
	PasswordHash      string
	CreatedAt         time.Time
	EmailConfirmation EmailConfirmation
}

// EmailConfirmation is the single pending-code slot of an account. It serves
// registration confirmation and password recovery alike, so issuing one code
// always overwrites the other. An empty Code means no code is pending.
type EmailConfirmation struct {
	ConfirmationCode string
	ExpirationDate   time.Time
	IsConfirmed      bool
}

// CodeExpired reports whether the pending code can no longer be used at now.
// A code expiring exactly at now is already expired.
func (e EmailConfirmation) CodeExpired(now time.Time) bool {
	return !now.Before(e.ExpirationDate)
}
