package pages

import (
	"context"

	"github.com/ataboo/go-ata-login/pkg/client"
	"github.com/ataboo/go-ata-login/pkg/notify"
)

// ForbiddenPage is shown when the session lacks the privileges for a resource.
type ForbiddenPage struct {
	page
}

func NewForbiddenPage(deps Deps) *ForbiddenPage {
	p := &ForbiddenPage{}
	p.init(deps)

	return p
}

// Load checks the session against privileges and explains the outcome.
func (p *ForbiddenPage) Load(ctx context.Context, privileges ...string) (client.AccessResult, error) {
	p.reset()

	result, err := p.Auth.CheckAccess(ctx, privileges...)
	if err != nil {
		return result, p.networkFailure("check access", err)
	}

	switch result {
	case client.AccessGranted:
		p.show(notify.Success, "Access Granted", "You may access the restricted area.")
	case client.AccessForbidden:
		p.show(notify.Danger, "Forbidden", "You are not allowed to access this area.")
	default:
		p.show(notify.Warning, "Authentication Needed", "Please log in first.")
	}

	return result, nil
}
