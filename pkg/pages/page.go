package pages

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/friendsofgo/errors"
	"github.com/sirupsen/logrus"

	"github.com/ataboo/go-ata-login/pkg/client"
	"github.com/ataboo/go-ata-login/pkg/logging"
	"github.com/ataboo/go-ata-login/pkg/notify"
	"github.com/ataboo/go-ata-login/pkg/validation"
)

// Navigation targets, relative to the login page.
const (
	TargetHome   = "./"
	TargetLogout = "?logout=True"
)

// ErrSubmitInFlight is returned when a submit arrives while the previous one is still running.
var ErrSubmitInFlight = errors.New("a submission is already in progress")

// AuthClient is the remote API as the pages use it.
type AuthClient interface {
	CheckSession(ctx context.Context) (bool, error)
	CheckAccess(ctx context.Context, privileges ...string) (client.AccessResult, error)
	Login(ctx context.Context, creds client.Credentials) (bool, error)
	Logout(ctx context.Context) (bool, error)
	ChangePassword(ctx context.Context, req client.PasswordChangeRequest) (bool, error)
	Register(ctx context.Context, req client.RegistrationRequest) (client.RegistrationResult, error)
}

type Navigator interface {
	Redirect(target string)
	Reload()
}

// Deps are shared by every page.
type Deps struct {
	Auth      AuthClient
	Presenter *notify.Presenter
	Navigator Navigator
	Logger    logrus.FieldLogger
}

type page struct {
	Deps
	form *Form
	busy atomic.Bool
}

func (p *page) init(deps Deps, fields ...string) {
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}

	if deps.Presenter == nil {
		deps.Presenter = notify.NewPresenter(nil, nil)
	}

	p.Deps = deps
	p.form = NewForm(fields...)
}

func (p *page) Form() *Form {
	return p.form
}

// begin claims the submit control until end is called.
func (p *page) begin() error {
	if !p.busy.CompareAndSwap(false, true) {
		return ErrSubmitInFlight
	}

	return nil
}

func (p *page) end() {
	p.busy.Store(false)
}

// reset clears notifications and invalid marks before a new attempt.
func (p *page) reset() {
	p.Presenter.Clear()
	p.form.ClearInvalid()
}

func (p *page) show(c notify.Category, title string, body string) {
	if err := p.Presenter.Show(c, title, body); err != nil {
		p.Logger.WithError(err).Error("failed to show notification")
	}
}

func (p *page) showProgress() {
	p.show(notify.Info, "Submitting...", "Please wait for a second...")
}

// rejectEmpty marks the empty fields and lists them in a danger notice.
func (p *page) rejectEmpty(empty []string, summary string) {
	p.form.MarkInvalid(empty...)

	labels := make([]string, 0, len(empty))
	for _, f := range empty {
		labels = append(labels, fieldLabel(f))
	}

	p.show(notify.Danger, "Invalid Input!", summary+" Missing: "+strings.Join(labels, ", ")+".")
}

// networkFailure surfaces a transport error and hands it back to the caller.
func (p *page) networkFailure(op string, err error) error {
	p.Logger.WithError(err).WithField("op", op).Warn("login service unreachable")
	p.show(notify.Danger, "Network Error", "Could not reach the login service. Please try again.")

	return errors.Wrap(err, op)
}

func (p *page) navigate(target string) {
	if p.Navigator != nil {
		p.Navigator.Redirect(target)
	}
}

func (p *page) reload() {
	if p.Navigator != nil {
		p.Navigator.Reload()
	}
}

func fieldLabel(field string) string {
	switch field {
	case validation.FieldUser:
		return "user name"
	case validation.FieldPassword:
		return "password"
	case validation.FieldOldPassword:
		return "old password"
	case validation.FieldNewPassword:
		return "new password"
	case validation.FieldConfirmPassword:
		return "password confirmation"
	case validation.FieldInvitation:
		return "invitation code"
	default:
		return field
	}
}
