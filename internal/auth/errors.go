package auth

import "errors"

var (
	// ErrAuthRejected is returned when the registration API rejects the
	// submitted credentials. Handlers collapse it to a generic message so
	// user-not-found and wrong-password are indistinguishable.
	ErrAuthRejected = errors.New("registration API rejected credentials")

	// ErrAPIConnection indicates the outbound call itself failed
	ErrAPIConnection = errors.New("failed to connect to registration API")

	// ErrAPIInvalidResp indicates a response that could not be parsed
	ErrAPIInvalidResp = errors.New("invalid response from registration API")

	// OAuth errors

	// ErrOAuthExchange indicates the code-for-token exchange failed
	ErrOAuthExchange = errors.New("oauth token retrieval failure")

	// ErrOAuthUserInfo indicates the user-info fetch failed
	ErrOAuthUserInfo = errors.New("failed to fetch oauth user info")
)
