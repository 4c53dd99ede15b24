package utils

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/base64"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
)

// GenerateRandomString creates a random string of specified length
func GenerateRandomString(length int) (string, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b)[:length], nil
}

// GenerateReferralCode creates a unique referral code
func GenerateReferralCode(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)

	for i := range result {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		result[i] = charset[n.Int64()]
	}

	return string(result)
}

// GenerateTransactionReference creates a unique transaction reference
func GenerateTransactionReference(prefix string) string {
	timestamp := time.Now().Format("20060102150405")
	random, _ := GenerateRandomString(8)
	return strings.ToUpper(fmt.Sprintf("%s_%s_%s", prefix, timestamp, random))
}

// GenerateSecureToken generates a secure random token of specified length
func GenerateSecureToken(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.StdEncoding.EncodeToString(b)[:length]
}

// GenerateUsername creates a username from an email address
func GenerateUsername(email string) string {
	parts := strings.Split(email, "@")
	baseName := parts[0]

	reg, _ := regexp.Compile("[^a-zA-Z0-9]+")
	baseName = reg.ReplaceAllString(baseName, "")

	random, _ := GenerateRandomString(4)
	return strings.ToLower(baseName + random)
}

// GenerateOTPSecret generates a new TOTP secret
func GenerateOTPSecret() string {
	secretBytes := make([]byte, 20)
	rand.Read(secretBytes)

	return base32.StdEncoding.EncodeToString(secretBytes)
}

// IsValidPhone checks a phone number in E.164 form (+country code)
var phonePattern = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// IsValidEmail checks if an email address is valid
func IsValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}

	domainParts := strings.Split(parts[1], ".")
	return len(domainParts) >= 2 && domainParts[len(domainParts)-1] != ""
}
