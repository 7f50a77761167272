package email

import "context"

// NoopMailer discards all mail. Used in tests and when outbound mail is not
// configured but a Mailer is still required by a constructor.
type NoopMailer struct{}

var _ Mailer = (*NoopMailer)(nil)

func NewNoopMailer() *NoopMailer { return &NoopMailer{} }

func (n *NoopMailer) VerifyEmailAddress(ctx context.Context, to, confirmURL string) error {
	return nil
}

func (n *NoopMailer) SuccessfulRegistrationNotification(ctx context.Context, to string) error {
	return nil
}

func (n *NoopMailer) ForgotPassword(ctx context.Context, to, resetURL string) error {
	return nil
}

func (n *NoopMailer) PasswordChangeAlert(ctx context.Context, to string) error {
	return nil
}
