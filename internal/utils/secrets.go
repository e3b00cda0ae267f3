package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// jwtSecretBytes is 256 bits, the HS256 key size
const jwtSecretBytes = 32

// GenerateSecret returns n random bytes, URL-safe base64 encoded
func GenerateSecret(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateJWTSecrets returns two independent secrets for access and refresh tokens
func GenerateJWTSecrets() (accessSecret, refreshSecret string, err error) {
	if accessSecret, err = GenerateSecret(jwtSecretBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate access secret: %w", err)
	}
	if refreshSecret, err = GenerateSecret(jwtSecretBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate refresh secret: %w", err)
	}
	return accessSecret, refreshSecret, nil
}
