package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MaxAge is how long a signed email link stays valid.
const MaxAge = 1800 * time.Second

// EmailSerializer issues and verifies the signed, time-limited tokens
// embedded in confirmation and password reset links. Tokens carry only an
// email address; everything else is looked up server side.
type EmailSerializer struct {
	secret []byte
	maxAge time.Duration
}

// NewEmailSerializer creates a serializer with the shared signing secret.
func NewEmailSerializer(secret string) *EmailSerializer {
	return &EmailSerializer{
		secret: []byte(secret),
		maxAge: MaxAge,
	}
}

// Serialize signs an email address into an opaque token.
func (s *EmailSerializer) Serialize(email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.maxAge).Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return signed, nil
}

// Unserialize verifies a token and returns the embedded email address.
// Expiry is reported as ErrExpiredToken; every other failure (bad signature,
// malformed token, wrong algorithm, missing claim) is ErrInvalidToken so the
// two user-visible messages stay distinct.
func (s *EmailSerializer) Unserialize(tokenString string) (string, error) {
	tok, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !tok.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	email, _ := claims["email"].(string)
	if email == "" {
		return "", ErrInvalidToken
	}
	return email, nil
}
