package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	authbiz "github.com/lk2023060901/execution-console/internal/auth/biz"
	"github.com/lk2023060901/execution-console/internal/session"
)

func newSignupCommand(cli *CLI) *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and store its token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.loadApp(cmd.Context())
			if err != nil {
				return cli.fail(err)
			}

			p := newPrompter(cli.in, cli.errOut)
			if err := p.fill(
				promptField{label: "Username", value: &username},
				promptField{label: "Email", value: &email},
				promptField{label: "Password", value: &password, secret: true},
			); err != nil {
				return cli.fail(err)
			}

			form := authbiz.NewSignupForm(app.Auth)
			form.Username, form.Email, form.Password = username, email, password
			if err := form.Submit(cmd.Context()); err != nil {
				fmt.Fprintln(cli.errOut, form.ErrorText())
				return err
			}

			fmt.Fprintf(cli.out, "Signed up as %s. Token saved to %s.\n", username, session.Describe(app.Store))
			fmt.Fprintf(cli.out, "→ %s\n", app.History.Current())
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

func newLoginCommand(cli *CLI) *cobra.Command {
	var account, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with a username or email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.loadApp(cmd.Context())
			if err != nil {
				return cli.fail(err)
			}

			p := newPrompter(cli.in, cli.errOut)
			if err := p.fill(
				promptField{label: "Username or email", value: &account},
				promptField{label: "Password", value: &password, secret: true},
			); err != nil {
				return cli.fail(err)
			}

			form := authbiz.NewLoginForm(app.Auth)
			form.Account, form.Password = account, password
			if err := form.Submit(cmd.Context()); err != nil {
				fmt.Fprintln(cli.errOut, form.ErrorText())
				return err
			}

			fmt.Fprintf(cli.out, "Logged in. Token saved to %s.\n", session.Describe(app.Store))
			return nil
		},
	}

	cmd.Flags().StringVarP(&account, "account", "a", "", "username or email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

func newLogoutCommand(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.loadApp(cmd.Context())
			if err != nil {
				return cli.fail(err)
			}
			if err := app.Auth.Logout(cmd.Context()); err != nil {
				return cli.fail(err)
			}
			fmt.Fprintln(cli.out, "Logged out.")
			return nil
		},
	}
}

func newWhoamiCommand(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity behind the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.loadApp(cmd.Context())
			if err != nil {
				return cli.fail(err)
			}
			if !app.Session.Authenticated() {
				fmt.Fprintln(cli.out, "Not logged in.")
				return nil
			}

			id, err := session.Claims(app.Session.Token())
			if err != nil {
				return cli.fail(err)
			}
			if id.Opaque {
				fmt.Fprintf(cli.out, "Logged in with an opaque token (%s).\n", session.Describe(app.Store))
				return nil
			}

			fmt.Fprintf(cli.out, "User:     %s\n", id.Username)
			fmt.Fprintf(cli.out, "Email:    %s\n", id.Email)
			fmt.Fprintf(cli.out, "Subject:  %s\n", id.Subject)
			if !id.ExpiresAt.IsZero() {
				state := "valid"
				if id.Expired(time.Now()) {
					state = "expired"
				}
				fmt.Fprintf(cli.out, "Expires:  %s (%s)\n", id.ExpiresAt.Local().Format(time.RFC3339), state)
			}
			fmt.Fprintf(cli.out, "Storage:  %s\n", session.Describe(app.Store))
			return nil
		},
	}
}
