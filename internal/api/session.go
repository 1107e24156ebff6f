package api

import (
	crand "crypto/rand"
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mirevald/backend/internal/constants"
)

const sessionTTL = 24 * time.Hour

type sessionClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

var devSecret []byte

func getSessionSecret() ([]byte, error) {
	secret := os.Getenv(constants.EnvSessionSecret)
	if secret == "" {
		// Generate an in-memory secret for development if not set
		if len(devSecret) == 0 {
			devSecret = make([]byte, 32)
			if _, err := crand.Read(devSecret); err != nil {
				return nil, errors.New("failed to generate dev session secret")
			}
		}
		return devSecret, nil
	}
	return []byte(secret), nil
}

// createSessionToken issues an HS256 session token carrying the player's
// telegram id as subject.
func createSessionToken(telegramID, name string, ttl time.Duration) (string, error) {
	secret, err := getSessionSecret()
	if err != nil {
		return "", err
	}
	now := time.Now()
	claims := sessionClaims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   telegramID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parseAndValidateSession(token string) (*sessionClaims, error) {
	secret, err := getSessionSecret()
	if err != nil {
		return nil, err
	}
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, errors.New("invalid session claims")
	}
	return claims, nil
}
