package pages

import (
	"context"

	"github.com/ataboo/go-ata-login/pkg/client"
	"github.com/ataboo/go-ata-login/pkg/notify"
	"github.com/ataboo/go-ata-login/pkg/validation"
)

type RegisterPage struct {
	page
}

func NewRegisterPage(deps Deps) *RegisterPage {
	p := &RegisterPage{}
	p.init(deps,
		validation.FieldUser,
		validation.FieldPassword,
		validation.FieldConfirmPassword,
		validation.FieldInvitation,
	)

	return p
}

// Load sends a logged in user home. It reports whether the page may be used.
func (p *RegisterPage) Load(ctx context.Context) (bool, error) {
	active, err := p.Auth.CheckSession(ctx)
	if err != nil {
		return false, p.networkFailure("check session", err)
	}

	if active {
		p.navigate(TargetHome)
		return false, nil
	}

	return true, nil
}

func (p *RegisterPage) Submit(ctx context.Context) (client.RegistrationResult, error) {
	if err := p.begin(); err != nil {
		return client.RegistrationResult{}, err
	}
	defer p.end()

	p.reset()

	req := client.RegistrationRequest{
		User:       p.form.Value(validation.FieldUser),
		Password:   p.form.Value(validation.FieldPassword),
		Invitation: p.form.Value(validation.FieldInvitation),
	}
	confirm := p.form.Value(validation.FieldConfirmPassword)

	bag := validation.ValidateRequired(
		validation.Field{Name: validation.FieldUser, Value: req.User},
		validation.Field{Name: validation.FieldPassword, Value: req.Password},
		validation.Field{Name: validation.FieldConfirmPassword, Value: confirm},
	)
	if !bag.Valid() {
		p.rejectEmpty(bag.Invalid(), "Marked fields must not be empty.")
		return client.RegistrationResult{}, nil
	}

	if !validation.ValidateMatch(req.Password, confirm) {
		p.form.MarkInvalid(validation.FieldPassword, validation.FieldConfirmPassword)
		p.show(notify.Danger, "Passwords Not Match!", "Passwords you typed are not the same.")
		return client.RegistrationResult{}, nil
	}

	p.showProgress()

	result, err := p.Auth.Register(ctx, req)
	if err != nil {
		return result, p.networkFailure("register", err)
	}

	log := p.Logger.WithField("user", req.User)

	if result.Success {
		log.Info("registered")
		p.show(notify.Success, "Successfully Registered", "Now you may log in with your account.")
		p.navigate(TargetHome)
		return result, nil
	}

	log.WithField("reason", result.Error.String()).Info("registration refused")

	switch result.Error {
	case client.RegistrationErrorDisabled:
		p.show(notify.Danger, "Register failed!", "Register is not enabled by this site.")
	case client.RegistrationErrorInvalidInvitation:
		p.form.MarkInvalid(validation.FieldInvitation)
		p.show(notify.Danger, "Register failed!", "The invitation code you submitted is invalid.")
	case client.RegistrationErrorDuplicatedUser:
		p.form.MarkInvalid(validation.FieldUser)
		p.show(notify.Danger, "Register failed!", "This user name has been taken! Please use another user name.")
	default:
		p.show(notify.Danger, "Register failed!", "Unknown error occurred.")
	}

	return result, nil
}
