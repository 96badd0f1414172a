package pages

import (
	"context"
	"net/url"

	"github.com/ataboo/go-ata-login/pkg/client"
	"github.com/ataboo/go-ata-login/pkg/notify"
	"github.com/ataboo/go-ata-login/pkg/validation"
)

type LoginPage struct {
	page

	// Redirect is where a successful login sends the user. Empty reloads in place.
	Redirect string
	// LoggedOut shows the one-time notice after a logout.
	LoggedOut bool
}

// NewLoginPage builds the page. A redirect target that is not a valid URL
// reference is dropped, so a successful login reloads in place instead.
func NewLoginPage(deps Deps, redirect string, loggedOut bool) *LoginPage {
	p := &LoginPage{LoggedOut: loggedOut}
	p.init(deps, validation.FieldUser, validation.FieldPassword)

	if _, err := url.Parse(redirect); err != nil {
		p.Logger.WithError(err).WithField("redirect", redirect).Warn("ignoring invalid redirect target")
	} else {
		p.Redirect = redirect
	}

	return p
}

// Load shows the post-logout notice and reports whether a session is already active.
// An active session goes straight to the redirect target when one was requested.
func (p *LoginPage) Load(ctx context.Context) (bool, error) {
	if p.LoggedOut {
		p.show(notify.Info, "Logged Out", "You have been logged out.")
		p.LoggedOut = false
	}

	active, err := p.Auth.CheckSession(ctx)
	if err != nil {
		return false, p.networkFailure("check session", err)
	}

	if active {
		p.show(notify.Info, "Already Logged In", "Now you may access the restricted area.")
		if p.Redirect != "" {
			p.navigate(p.Redirect)
		}
	}

	return active, nil
}

// Submit validates the form and logs in. It reports whether the login succeeded.
func (p *LoginPage) Submit(ctx context.Context) (bool, error) {
	if err := p.begin(); err != nil {
		return false, err
	}
	defer p.end()

	p.reset()

	creds := client.Credentials{
		User:     p.form.Value(validation.FieldUser),
		Password: p.form.Value(validation.FieldPassword),
	}

	check := validation.ValidateCredentials(creds.User, creds.Password)
	if !check.Valid {
		p.rejectEmpty(check.EmptyFields, "User name and password must not be empty.")
		return false, nil
	}

	p.show(notify.Info, "Logging in...", "Please wait for a second...")

	ok, err := p.Auth.Login(ctx, creds)
	if err != nil {
		return false, p.networkFailure("login", err)
	}

	if !ok {
		p.Logger.WithField("user", creds.User).Info("login rejected")
		p.show(notify.Danger, "Login Failed!", "Please examine your user name and password.")
		return false, nil
	}

	p.Logger.WithField("user", creds.User).Info("logged in")

	if p.Redirect != "" {
		p.show(notify.Success, "Login Success", "You will be redirected to the page you have requested.")
		p.navigate(p.Redirect)
	} else {
		p.show(notify.Success, "Login Success", "Now you may access the restricted area.")
		p.reload()
	}

	return true, nil
}
