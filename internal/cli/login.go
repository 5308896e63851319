package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tagwise-console/internal/session"
	"tagwise-console/internal/token"
)

var errNotLoggedIn = errors.New("not logged in")

func newLoginCommand(opts *options) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in against the backend and keep the session locally",
		Long: `Log in with the same credentials used by the console.

The password may also be supplied through TAGWISE_PASSWORD.

Examples:
  tagwisectl login --email admin@example.com --password secret
  TAGWISE_PASSWORD=secret tagwisectl login --email admin@example.com`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email = strings.TrimSpace(email)
			if password == "" {
				password = os.Getenv("TAGWISE_PASSWORD")
			}
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password are required")
			}

			manager, err := opts.manager()
			if err != nil {
				return err
			}

			state, err := manager.Login(cmd.Context(), cliClientID, email, password)
			// The console shows this on the next page; the CLI reports err instead.
			_ = manager.ClearNotification(cmd.Context(), cliClientID)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			return opts.print(cmd.OutOrStdout(), stateView(state))
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")

	return cmd
}

func newWhoamiCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity of the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager, err := opts.manager()
			if err != nil {
				return err
			}

			state := manager.Initialize(cmd.Context(), cliClientID)
			if !state.IsAuthenticated() {
				return errNotLoggedIn
			}

			return opts.print(cmd.OutOrStdout(), stateView(state))
		},
	}
}

func newLogoutCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager, err := opts.manager()
			if err != nil {
				return err
			}

			manager.Logout(cmd.Context(), cliClientID)
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func stateView(state session.State) identityView {
	view := identityView{Status: state.Status.String(), Valid: state.IsAuthenticated()}
	if state.Identity != nil {
		identity := *state.Identity
		view.User = &identity
	}
	if payload, err := token.Decode(state.Token()); err == nil && !payload.ExpiresAt.IsZero() {
		expires := payload.ExpiresAt
		view.ExpiresAt = &expires
	}
	return view
}
