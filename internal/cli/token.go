package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tagwise-console/internal/session"
	"tagwise-console/internal/token"
)

func newTokenCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Work with backend-issued session tokens",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "decode <token>",
		Short: "Print the identity carried by a token and whether it is still valid",
		Long: `Decode a session token without verifying its signature.

The command fails only when the token cannot be decoded at all. A token that
decodes but is expired or lacks identity fields is printed with valid=false.

Examples:
  tagwisectl token decode eyJhbGciOi...
  tagwisectl token decode --json "$TOKEN"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := token.Decode(args[0])
			if err != nil {
				return fmt.Errorf("decode token: %w", err)
			}

			return opts.print(cmd.OutOrStdout(), viewFor(payload, opts.now))
		},
	})

	return cmd
}

func viewFor(payload *token.Payload, now func() time.Time) identityView {
	view := identityView{Status: session.StatusUnauthenticated.String()}
	if !payload.ExpiresAt.IsZero() {
		expires := payload.ExpiresAt
		view.ExpiresAt = &expires
	}

	identity := payload.Identity()
	view.User = &identity

	var missing *token.MissingFieldError
	switch err := payload.Validate(); {
	case errors.As(err, &missing):
		view.Problem = "missing " + missing.Field
	case err != nil:
		view.Problem = err.Error()
	case payload.Expired(now()):
		view.Problem = token.ErrExpired.Error()
	default:
		view.Valid = true
		view.Status = session.StatusAuthenticated.String()
	}

	return view
}
