package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pulsecart/internal/models"
)

func credentialFlags(cmd *cobra.Command, creds *models.LoginPayload) {
	cmd.Flags().StringVar(&creds.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "Account password")
}

func newLoginCmd(c *cli) *cobra.Command {
	var creds models.LoginPayload
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := models.Validate(creds); err != nil {
				return err
			}
			a := c.App(cmd.Context())
			if err := a.Session.Login(cmd.Context(), creds); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			email := creds.Email
			if user, err := a.Session.User(cmd.Context()); err == nil && user != nil {
				email = user.Email
			}
			fmt.Fprintf(c.out, "Signed in as %s\n", email)
			return nil
		},
	}
	credentialFlags(cmd, &creds)
	return cmd
}

func newRegisterCmd(c *cli) *cobra.Command {
	var creds models.RegisterPayload
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long:  "Create an account. It does not sign in; run login afterwards.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := models.Validate(creds); err != nil {
				return err
			}
			user, err := c.App(cmd.Context()).Session.Register(cmd.Context(), creds)
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}
			fmt.Fprintln(c.out, registeredMessage(user, creds.Email))
			return nil
		},
	}
	credentialFlags(cmd, &creds)
	return cmd
}

// registeredMessage falls back to the submitted email when the API answers without a body.
func registeredMessage(user *models.User, email string) string {
	if user == nil {
		return "Registered " + email
	}
	return fmt.Sprintf("Registered %s (id %d)", user.Email, user.ID)
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.App(cmd.Context()).Session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.App(cmd.Context())
			state, err := a.Session.State(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(newSessionView(state, a.StoreKind))
		},
	}
}
