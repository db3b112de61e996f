package ghost

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidKey is returned for an Admin API key not of the form id:secret.
var ErrInvalidKey = errors.New("ghost: admin api key must be id:secret with a hex secret")

const tokenTTL = 5 * time.Minute

// AdminToken signs a short-lived Admin API token for key ("id:secret").
func AdminToken(key string, now time.Time) (string, error) {
	id, secretHex, ok := strings.Cut(key, ":")
	if !ok || id == "" || secretHex == "" {
		return "", ErrInvalidKey
	}
	secret, err := hex.DecodeString(secretHex)
	if err != nil {
		return "", ErrInvalidKey
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"aud": "/admin/",
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	})
	tok.Header["kid"] = id

	signed, err := tok.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("ghost: sign token: %w", err)
	}
	return signed, nil
}
