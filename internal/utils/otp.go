package utils

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Login OTP codes are TOTP codes over a per-user secret with a long
// period, so a code stays valid for the whole window it was sent in.
const (
	otpPeriod = 300 // seconds
	otpDigits = otp.DigitsSix
)

// GenerateLoginOTP produces the current 6-digit login code for a user's
// OTP secret.
func GenerateLoginOTP(secret string) (string, error) {
	return totp.GenerateCodeCustom(secret, time.Now(), totp.ValidateOpts{
		Period: otpPeriod,
		Digits: otpDigits,
	})
}

// ValidateLoginOTP checks a 6-digit login code against a user's OTP
// secret, allowing one period of clock skew.
func ValidateLoginOTP(secret, code string) bool {
	ok, err := totp.ValidateCustom(code, secret, time.Now(), totp.ValidateOpts{
		Period: otpPeriod,
		Skew:   1,
		Digits: otpDigits,
	})
	return err == nil && ok
}
