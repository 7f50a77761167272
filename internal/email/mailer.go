package email

import "context"

// Mailer sends the notification emails produced by the auth flows. Delivery
// mechanics live behind this interface; flows only decide when to send.
type Mailer interface {
	// VerifyEmailAddress sends a confirmation link containing a signed token
	VerifyEmailAddress(ctx context.Context, to, confirmURL string) error

	// SuccessfulRegistrationNotification tells the user their address was
	// confirmed
	SuccessfulRegistrationNotification(ctx context.Context, to string) error

	// ForgotPassword sends a password reset link containing a signed token
	ForgotPassword(ctx context.Context, to, resetURL string) error

	// PasswordChangeAlert tells the user their password was changed
	PasswordChangeAlert(ctx context.Context, to string) error
}
