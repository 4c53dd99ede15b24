package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReferralCode(t *testing.T) {
	code := GenerateReferralCode(8)
	assert.Len(t, code, 8)

	for _, r := range code {
		assert.Contains(t, "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789", string(r))
	}

	// Two codes colliding would mean the generator is broken
	assert.NotEqual(t, GenerateReferralCode(16), GenerateReferralCode(16))
}

func TestGenerateTransactionReference(t *testing.T) {
	ref := GenerateTransactionReference("PAYOUT")
	assert.True(t, strings.HasPrefix(ref, "PAYOUT_"))
	assert.Equal(t, strings.ToUpper(ref), ref)

	assert.NotEqual(t, GenerateTransactionReference("PAYOUT"), GenerateTransactionReference("PAYOUT"))
}

func TestGenerateUsername(t *testing.T) {
	username := GenerateUsername("Jane.Doe+test@example.com")
	assert.True(t, strings.HasPrefix(username, "janedoetest"))
	assert.Equal(t, strings.ToLower(username), username)
}

func TestGenerateOTPSecret(t *testing.T) {
	secret := GenerateOTPSecret()
	require.NotEmpty(t, secret)
	assert.NotEqual(t, secret, GenerateOTPSecret())
}

func TestIsValidPhone(t *testing.T) {
	valid := []string{"+919876543210", "+14155552671", "+442071838750"}
	for _, phone := range valid {
		assert.True(t, IsValidPhone(phone), phone)
	}

	invalid := []string{"", "9876543210", "+0123", "+91 98765 43210", "phone"}
	for _, phone := range invalid {
		assert.False(t, IsValidPhone(phone), phone)
	}
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("user@example.com"))
	assert.True(t, IsValidEmail("user@sub.example.co.in"))

	assert.False(t, IsValidEmail("user"))
	assert.False(t, IsValidEmail("user@"))
	assert.False(t, IsValidEmail("user@example"))
	assert.False(t, IsValidEmail("user@example."))
}
