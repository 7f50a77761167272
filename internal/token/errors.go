package token

import "errors"

var (
	// ErrTokenGeneration indicates token generation failed
	ErrTokenGeneration = errors.New("failed to generate token")

	// ErrInvalidToken indicates the token signature is bad or the token is
	// malformed
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken indicates the token signature is valid but past its
	// maximum age
	ErrExpiredToken = errors.New("token expired")
)
