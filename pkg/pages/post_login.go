package pages

import "context"

// PostLoginPage is the landing page of a logged in user.
type PostLoginPage struct {
	page
}

func NewPostLoginPage(deps Deps) *PostLoginPage {
	p := &PostLoginPage{}
	p.init(deps)

	return p
}

// Logout ends the session and returns to the login page with the logged out notice,
// whatever the server answered.
func (p *PostLoginPage) Logout(ctx context.Context) (bool, error) {
	if err := p.begin(); err != nil {
		return false, err
	}
	defer p.end()

	p.reset()

	ok, err := p.Auth.Logout(ctx)
	if err != nil {
		return false, p.networkFailure("logout", err)
	}

	p.Logger.WithField("ok", ok).Info("logged out")
	p.navigate(TargetLogout)

	return ok, nil
}
