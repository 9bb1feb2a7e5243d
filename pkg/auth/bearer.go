package auth

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
)

// VerifyBearerToken verifies the bearer token on an admin request
func VerifyBearerToken(r *http.Request, expectedToken string) error {
	// Get Authorization header
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return fmt.Errorf("missing Authorization header")
	}

	// Parse bearer token (format: "Bearer <token>")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid Authorization header format")
	}

	scheme := parts[0]
	token := parts[1]

	// Verify scheme
	if !strings.EqualFold(scheme, "Bearer") {
		return fmt.Errorf("invalid authorization scheme: %s", scheme)
	}

	// Compare tokens in constant time to prevent timing attacks
	if subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
		return fmt.Errorf("invalid bearer token")
	}

	return nil
}
