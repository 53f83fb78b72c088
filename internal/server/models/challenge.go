package models

import "time"

// Challenge is a one-time password reset code issued for an email.
// ConsumedAt is set once the code, or any newer one for the same email,
// has been redeemed.
type Challenge struct {
	ID         string
	Email      string
	Code       string
	CreatedAt  time.Time
	ConsumedAt *time.Time
}
