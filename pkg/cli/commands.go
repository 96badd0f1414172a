package cli

import (
	"fmt"
	"net/url"

	"github.com/friendsofgo/errors"
	"github.com/spf13/cobra"

	"github.com/ataboo/go-ata-login/pkg/client"
	"github.com/ataboo/go-ata-login/pkg/pages"
	"github.com/ataboo/go-ata-login/pkg/validation"
)

func newStatusCmd(flags *rootFlags) *cobra.Command {
	var privileges []string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check whether the stored session is valid",
		Long: `Check the stored session against the login service. With --privilege the
session must also hold every named privilege.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, flags)
			if err != nil {
				return err
			}

			result, err := pages.NewForbiddenPage(s.deps()).Load(cmd.Context(), privileges...)
			if err != nil {
				return err
			}

			if result != client.AccessGranted {
				return ErrNotAccepted
			}

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&privileges, "privilege", nil, "privilege the session must hold (repeatable)")

	return cmd
}

type loginFlags struct {
	user      string
	password  string
	redirect  string
	loggedOut bool
}

func newLoginCmd(flags *rootFlags) *cobra.Command {
	cfg := &loginFlags{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session cookie",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := url.Parse(cfg.redirect); err != nil {
				return errors.Wrap(err, "invalid --redirect")
			}

			s, err := openSession(cmd, flags)
			if err != nil {
				return err
			}

			page := pages.NewLoginPage(s.deps(), cfg.redirect, cfg.loggedOut)

			active, err := page.Load(cmd.Context())
			if err != nil {
				return err
			}
			if active {
				return nil
			}

			password, err := s.in.fill(cfg.password, "Password")
			if err != nil {
				return err
			}

			page.Form().Set(validation.FieldUser, cfg.user)
			page.Form().Set(validation.FieldPassword, password)

			ok, err := page.Submit(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return ErrNotAccepted
			}

			if cfg.redirect != "" {
				fmt.Fprintln(s.out, s.history.Current().String())
			}

			return s.save()
		},
	}

	cmd.Flags().StringVarP(&cfg.user, "user", "u", "", "user name")
	cmd.Flags().StringVarP(&cfg.password, "password", "p", "", "password (prompted when empty)")
	cmd.Flags().StringVar(&cfg.redirect, "redirect", "", "page to go to after logging in")
	cmd.Flags().BoolVar(&cfg.loggedOut, "logged-out", false, "show the logged out notice first")

	return cmd
}

func newLogoutCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, flags)
			if err != nil {
				return err
			}

			ok, err := pages.NewPostLoginPage(s.deps()).Logout(cmd.Context())
			if err != nil {
				return err
			}

			// a refused logout keeps whatever the server left in the jar
			if ok {
				err = s.cookies.Clear()
			} else {
				err = s.save()
			}
			if err != nil {
				return err
			}

			// the next login page shows the logged out notice
			login := pages.NewLoginPage(s.deps(), "", s.history.Current().Query().Get("logout") != "")
			_, err = login.Load(cmd.Context())
			return err
		},
	}
}

type registerFlags struct {
	user       string
	password   string
	confirm    string
	invitation string
}

func newRegisterCmd(flags *rootFlags) *cobra.Command {
	cfg := &registerFlags{}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, flags)
			if err != nil {
				return err
			}

			page := pages.NewRegisterPage(s.deps())

			usable, err := page.Load(cmd.Context())
			if err != nil {
				return err
			}
			if !usable {
				fmt.Fprintln(s.out, "Already logged in; log out before registering.")
				return nil
			}

			password, err := s.in.fill(cfg.password, "Password")
			if err != nil {
				return err
			}

			confirm, err := s.in.fill(cfg.confirm, "Confirm password")
			if err != nil {
				return err
			}

			page.Form().Set(validation.FieldUser, cfg.user)
			page.Form().Set(validation.FieldPassword, password)
			page.Form().Set(validation.FieldConfirmPassword, confirm)
			page.Form().Set(validation.FieldInvitation, cfg.invitation)

			result, err := page.Submit(cmd.Context())
			if err != nil {
				return err
			}
			if !result.Success {
				return ErrNotAccepted
			}

			return s.save()
		},
	}

	cmd.Flags().StringVarP(&cfg.user, "user", "u", "", "user name")
	cmd.Flags().StringVarP(&cfg.password, "password", "p", "", "password (prompted when empty)")
	cmd.Flags().StringVar(&cfg.confirm, "confirm", "", "password again (prompted when empty)")
	cmd.Flags().StringVar(&cfg.invitation, "invitation", "", "invitation code")

	return cmd
}

type passwdFlags struct {
	user    string
	old     string
	new     string
	confirm string
}

func newPasswdCmd(flags *rootFlags) *cobra.Command {
	cfg := &passwdFlags{}

	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change the password of the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, flags)
			if err != nil {
				return err
			}

			page := pages.NewChangePasswordPage(s.deps(), cfg.user)

			usable, err := page.Load(cmd.Context())
			if err != nil {
				return err
			}
			if !usable {
				fmt.Fprintln(s.out, "Not logged in; log in before changing the password.")
				return ErrNotAccepted
			}

			fields := []struct {
				name  string
				value string
				label string
			}{
				{validation.FieldOldPassword, cfg.old, "Old password"},
				{validation.FieldNewPassword, cfg.new, "New password"},
				{validation.FieldConfirmPassword, cfg.confirm, "Confirm new password"},
			}
			for _, f := range fields {
				value, err := s.in.fill(f.value, f.label)
				if err != nil {
					return err
				}
				page.Form().Set(f.name, value)
			}

			ok, err := page.Submit(cmd.Context())
			if err != nil {
				return err
			}

			// the old password login renewed the session cookie
			if err := s.save(); err != nil {
				return err
			}

			if !ok {
				return ErrNotAccepted
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&cfg.user, "user", "u", "", "user name")
	cmd.Flags().StringVar(&cfg.old, "old", "", "current password (prompted when empty)")
	cmd.Flags().StringVar(&cfg.new, "new", "", "new password (prompted when empty)")
	cmd.Flags().StringVar(&cfg.confirm, "confirm", "", "new password again (prompted when empty)")
	cmd.MarkFlagRequired("user")

	return cmd
}
