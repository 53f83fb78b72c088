// Package common contains shared constants and sentinel errors used across
// PaperHub components.
package common

// AccessTokenHeaderName is the HTTP header used to carry the session token
// on authenticated requests.
const AccessTokenHeaderName = "X-Access-Token"

// OTPDigits is the length of a password reset code.
const OTPDigits = 6
