package cli

import (
	"io"

	"github.com/friendsofgo/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ataboo/go-ata-login/pkg/client"
	"github.com/ataboo/go-ata-login/pkg/common"
	"github.com/ataboo/go-ata-login/pkg/cookiestore"
	"github.com/ataboo/go-ata-login/pkg/logging"
	"github.com/ataboo/go-ata-login/pkg/notify"
	"github.com/ataboo/go-ata-login/pkg/pages"
)

// ErrNotAccepted is returned when the service refused a request or input was invalid.
// The reason has already been shown as a notification.
var ErrNotAccepted = errors.New("request was not accepted")

type rootFlags struct {
	baseURL    string
	cookieFile string
	logLevel   string
}

// session is everything one command run needs.
type session struct {
	logger    *logrus.Logger
	cookies   *cookiestore.Store
	client    *client.Client
	presenter *notify.Presenter
	history   *pages.History
	in        *prompter
	out       io.Writer
}

func (s *session) deps() pages.Deps {
	return pages.Deps{
		Auth:      s.client,
		Presenter: s.presenter,
		Navigator: s.history,
		Logger:    s.logger,
	}
}

// NewRootCmd creates the nslogin command tree with defaults taken from settings.
func NewRootCmd(settings common.Settings) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "nslogin",
		Short: "Log in to an nslogin protected site from the terminal",
		Long: `nslogin talks to the login service that guards a site behind nginx's
auth_request module. It keeps the session cookie in a file between runs.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flags.baseURL, "base-url", settings.BaseURL, "url of the login page")
	cmd.PersistentFlags().StringVar(&flags.cookieFile, "cookie-file", settings.CookieFile, "file holding the session cookie")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", settings.LogLevel, "log level (debug, info, warn, error)")

	cmd.AddCommand(newStatusCmd(flags))
	cmd.AddCommand(newLoginCmd(flags))
	cmd.AddCommand(newLogoutCmd(flags))
	cmd.AddCommand(newRegisterCmd(flags))
	cmd.AddCommand(newPasswdCmd(flags))

	return cmd
}

func openSession(cmd *cobra.Command, flags *rootFlags) (*session, error) {
	logger, err := logging.New(cmd.ErrOrStderr(), flags.logLevel)
	if err != nil {
		return nil, err
	}

	cookies, err := cookiestore.Open(flags.cookieFile)
	if err != nil {
		return nil, err
	}

	c, err := client.New(flags.baseURL, cookies, logger)
	if err != nil {
		return nil, err
	}

	return &session{
		logger:    logger,
		cookies:   cookies,
		client:    c,
		presenter: notify.NewPresenter(nil, notify.NewTextRenderer(cmd.OutOrStdout())),
		history:   pages.NewHistory(c.BaseURL()),
		in:        newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()),
		out:       cmd.OutOrStdout(),
	}, nil
}

// save persists the cookie jar and reports where the page would have navigated.
func (s *session) save() error {
	if err := s.cookies.Save(); err != nil {
		return err
	}

	if s.history.Navigations() > 0 {
		s.logger.WithField("location", s.history.Current().String()).Debug("navigated")
	}

	return nil
}
