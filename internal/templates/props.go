package templates

// BaseProps contains common properties shared across all pages
type BaseProps struct {
	Nonce string // per-session CSRF nonce, embedded in every form
}

// LoginPageProps contains properties for the login page
type LoginPageProps struct {
	BaseProps
	Errors []string
	Infos  []string
	Next   string
}

// ConfirmPageProps contains properties for the email confirmation page
type ConfirmPageProps struct {
	BaseProps
	Errors []string
	Infos  []string
	Email  string
}

// ResetPasswordPageProps contains properties for both halves of the reset
// flow. Token is set when a reset link has been followed and the form
// collects the new password instead of the email address.
type ResetPasswordPageProps struct {
	BaseProps
	Errors []string
	Infos  []string
	Token  string
}

// ErrorPageProps contains properties for the error page
type ErrorPageProps struct {
	BaseProps
	Error   string
	Message string
}

// PageProps contains properties for simple authenticated pages
type PageProps struct {
	BaseProps
	Username string
	Team     string
}
