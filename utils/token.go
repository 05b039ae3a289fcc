package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessClaims is the payload of the access-token cookie. CSRF carries the
// double-submit token that mutating requests must echo in X-CSRF-TOKEN.
type AccessClaims struct {
	CSRF string `json:"csrf"`
	jwt.RegisteredClaims
}

// MintAccessToken signs an HS256 access token for userID and returns it
// together with the CSRF token embedded in its claims.
func MintAccessToken(secret []byte, userID uint, ttl time.Duration) (string, string, error) {
	now := time.Now()
	csrf := uuid.NewString()
	claims := AccessClaims{
		CSRF: csrf,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, csrf, nil
}

// ParseAccessToken validates raw and returns the user id and CSRF token.
func ParseAccessToken(secret []byte, raw string) (uint, string, error) {
	var claims AccessClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return secret, nil
	})
	if err != nil {
		return 0, "", err
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid subject %q: %w", claims.Subject, err)
	}
	return uint(userID), claims.CSRF, nil
}

// NewInviteToken returns a URL-safe, crypto-random join token. 32 bytes of
// entropy makes collisions across all invites negligible.
func NewInviteToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
