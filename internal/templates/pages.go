package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// The pages are small server-rendered forms, written as templ components
// directly. All interpolated values go through templ.EscapeString.

func page(title string, body func(w io.Writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<link rel="stylesheet" href="/static/css/main.css">
</head>
<body>
<main class="container">
`, templ.EscapeString(title))
		body(w)
		io.WriteString(w, `</main>
</body>
</html>
`)
		return nil
	})
}

func flashes(w io.Writer, errors, infos []string) {
	for _, msg := range errors {
		fmt.Fprintf(w, `<div class="alert alert-danger" role="alert">%s</div>
`, templ.EscapeString(msg))
	}
	for _, msg := range infos {
		fmt.Fprintf(w, `<div class="alert alert-info" role="alert">%s</div>
`, templ.EscapeString(msg))
	}
}

func nonceField(w io.Writer, nonce string) {
	fmt.Fprintf(w, `<input type="hidden" name="nonce" value="%s">
`, templ.EscapeString(nonce))
}

// LoginPage renders the credential login form. The form posts back to
// /login and preserves the requested post-login destination.
func LoginPage(props LoginPageProps) templ.Component {
	return page("Login", func(w io.Writer) {
		flashes(w, props.Errors, props.Infos)

		action := "/login"
		if props.Next != "" {
			action = "/login?next=" + templ.EscapeString(props.Next)
		}
		fmt.Fprintf(w, `<h1>Login</h1>
<form method="POST" action="%s">
`, action)
		nonceField(w, props.Nonce)
		io.WriteString(w, `<label for="name">Email</label>
<input type="text" id="name" name="name" autofocus>
<label for="password">Password</label>
<input type="password" id="password" name="password">
<button type="submit">Submit</button>
</form>
<p><a href="/reset_password">Forgot your password?</a></p>
<p><a href="/oauth">Login with MajorLeagueCyber</a></p>
`)
	})
}

// ConfirmPage renders the resend-confirmation page shown to logged-in,
// unverified users.
func ConfirmPage(props ConfirmPageProps) templ.Component {
	return page("Confirm", func(w io.Writer) {
		flashes(w, props.Errors, props.Infos)
		fmt.Fprintf(w, `<h1>Confirm your email</h1>
<p>We sent a confirmation link to %s.</p>
<form method="POST" action="/confirm">
`, templ.EscapeString(props.Email))
		nonceField(w, props.Nonce)
		io.WriteString(w, `<button type="submit">Resend confirmation email</button>
</form>
`)
	})
}

// ResetPasswordPage renders the request form, or the new-password form
// when a token is present.
func ResetPasswordPage(props ResetPasswordPageProps) templ.Component {
	return page("Reset Password", func(w io.Writer) {
		flashes(w, props.Errors, props.Infos)
		if props.Token == "" {
			io.WriteString(w, `<h1>Reset password</h1>
<form method="POST" action="/reset_password">
`)
			nonceField(w, props.Nonce)
			io.WriteString(w, `<label for="email">Email</label>
<input type="text" id="email" name="email" autofocus>
<button type="submit">Submit</button>
</form>
`)
			return
		}

		fmt.Fprintf(w, `<h1>Choose a new password</h1>
<form method="POST" action="/reset_password/%s">
`, templ.EscapeString(props.Token))
		nonceField(w, props.Nonce)
		io.WriteString(w, `<label for="password">New password</label>
<input type="password" id="password" name="password" autofocus>
<button type="submit">Submit</button>
</form>
`)
	})
}

// ErrorPage renders a bare error page for setup and gateway failures.
func ErrorPage(props ErrorPageProps) templ.Component {
	return page("Error", func(w io.Writer) {
		fmt.Fprintf(w, `<h1>%s</h1>
<p>%s</p>
<p><a href="/">Back</a></p>
`, templ.EscapeString(props.Error), templ.EscapeString(props.Message))
	})
}

// LandingPage renders the anonymous landing page.
func LandingPage(props PageProps) templ.Component {
	return page("CTFd", func(w io.Writer) {
		io.WriteString(w, `<h1>Welcome</h1>
<p><a href="/login">Login</a> to view the challenges.</p>
`)
	})
}

// ChallengesPage renders the post-login destination page.
func ChallengesPage(props PageProps) templ.Component {
	return page("Challenges", func(w io.Writer) {
		fmt.Fprintf(w, `<h1>Challenges</h1>
<p>Logged in as %s.</p>
`, templ.EscapeString(props.Username))
		if props.Team != "" {
			fmt.Fprintf(w, `<p>Team: %s</p>
`, templ.EscapeString(props.Team))
		}
		io.WriteString(w, `<p><a href="/logout">Logout</a></p>
`)
	})
}

// SettingsPage renders the authenticated settings page.
func SettingsPage(props PageProps) templ.Component {
	return page("Settings", func(w io.Writer) {
		fmt.Fprintf(w, `<h1>Settings</h1>
<p>%s</p>
<p><a href="/challenges">Challenges</a> &middot; <a href="/logout">Logout</a></p>
`, templ.EscapeString(props.Username))
	})
}
