package pages

import (
	"context"

	"github.com/ataboo/go-ata-login/pkg/client"
	"github.com/ataboo/go-ata-login/pkg/notify"
	"github.com/ataboo/go-ata-login/pkg/validation"
)

type ChangePasswordPage struct {
	page
}

// NewChangePasswordPage prepares the form for user, the session's owner.
func NewChangePasswordPage(deps Deps, user string) *ChangePasswordPage {
	p := &ChangePasswordPage{}
	p.init(deps,
		validation.FieldUser,
		validation.FieldOldPassword,
		validation.FieldNewPassword,
		validation.FieldConfirmPassword,
	)
	p.form.Set(validation.FieldUser, user)

	return p
}

// Load sends a visitor without a session home. It reports whether the page may be used.
func (p *ChangePasswordPage) Load(ctx context.Context) (bool, error) {
	active, err := p.Auth.CheckSession(ctx)
	if err != nil {
		return false, p.networkFailure("check session", err)
	}

	if !active {
		p.navigate(TargetHome)
		return false, nil
	}

	return true, nil
}

// Submit re-authenticates with the old password, then changes it.
func (p *ChangePasswordPage) Submit(ctx context.Context) (bool, error) {
	if err := p.begin(); err != nil {
		return false, err
	}
	defer p.end()

	p.reset()

	req := client.PasswordChangeRequest{
		User:        p.form.Value(validation.FieldUser),
		OldPassword: p.form.Value(validation.FieldOldPassword),
		NewPassword: p.form.Value(validation.FieldNewPassword),
	}
	confirm := p.form.Value(validation.FieldConfirmPassword)

	bag := validation.ValidateRequired(
		validation.Field{Name: validation.FieldOldPassword, Value: req.OldPassword},
		validation.Field{Name: validation.FieldNewPassword, Value: req.NewPassword},
		validation.Field{Name: validation.FieldConfirmPassword, Value: confirm},
	)
	if !bag.Valid() {
		p.rejectEmpty(bag.Invalid(), "Old, new passwords must not be empty.")
		return false, nil
	}

	if !validation.ValidateMatch(req.NewPassword, confirm) {
		p.form.MarkInvalid(validation.FieldNewPassword, validation.FieldConfirmPassword)
		p.show(notify.Danger, "Passwords Not Match!", "New passwords you typed are not the same.")
		return false, nil
	}

	p.showProgress()

	log := p.Logger.WithField("user", req.User)

	authed, err := p.Auth.Login(ctx, client.Credentials{User: req.User, Password: req.OldPassword})
	if err != nil {
		return false, p.networkFailure("login", err)
	}

	if !authed {
		log.Info("old password rejected")
		p.form.MarkInvalid(validation.FieldOldPassword)
		p.show(notify.Danger, "Wrong Password!", "Please examine your old password.")
		return false, nil
	}

	changed, err := p.Auth.ChangePassword(ctx, req)
	if err != nil {
		return false, p.networkFailure("change password", err)
	}

	if !changed {
		log.Warn("password change refused")
		p.show(notify.Danger, "Unknown Error", "Unknown error occurred.")
		return false, nil
	}

	log.Info("password changed")
	p.show(notify.Success, "Password Changed", "Now you may log in with your new password.")

	return true, nil
}
