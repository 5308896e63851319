// Package cli implements tagwisectl, a terminal companion to the console that
// shares its token handling and session semantics.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"tagwise-console/internal/backend"
	"tagwise-console/internal/model"
	"tagwise-console/internal/session"
	"tagwise-console/internal/storage"
)

// cliClientID scopes the CLI's keys in its state file the way the browser
// cookie scopes them in the console's store.
const cliClientID = "tagwisectl"

type options struct {
	backendURL string
	authPrefix string
	statePath  string
	timeout    time.Duration
	asJSON     bool
	now        func() time.Time
}

func NewRootCommand() *cobra.Command {
	opts := &options{now: time.Now}

	root := &cobra.Command{
		Use:           "tagwisectl",
		Short:         "Inspect and manage Tagwise console sessions from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.backendURL, "backend", envOr("BACKEND_URL", "http://localhost:8080"), "annotation backend base URL")
	flags.StringVar(&opts.authPrefix, "auth-prefix", envOr("BACKEND_AUTH_PREFIX", "/api/auth"), "path prefix of the backend auth endpoints")
	flags.StringVar(&opts.statePath, "state", defaultStatePath(), "file holding the CLI session")
	flags.DurationVar(&opts.timeout, "timeout", 15*time.Second, "backend request timeout")
	flags.BoolVar(&opts.asJSON, "json", false, "print JSON instead of text")

	root.AddCommand(
		newTokenCommand(opts),
		newLoginCommand(opts),
		newLogoutCommand(opts),
		newWhoamiCommand(opts),
	)

	return root
}

func Execute() error {
	return NewRootCommand().Execute()
}

func (o *options) manager() (*session.Manager, error) {
	store, err := storage.NewFileStore(o.statePath)
	if err != nil {
		return nil, fmt.Errorf("open state file: %w", err)
	}

	client := backend.NewClient(o.backendURL, o.authPrefix, o.timeout)
	return session.NewManager(store, client, session.WithClock(o.now)), nil
}

type identityView struct {
	Status    string          `json:"status"`
	Valid     bool            `json:"valid"`
	ExpiresAt *time.Time      `json:"expiresAt,omitempty"`
	User      *model.Identity `json:"user,omitempty"`
	Problem   string          `json:"problem,omitempty"`
}

func (o *options) print(w io.Writer, view identityView) error {
	if o.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	fmt.Fprintf(w, "Status:  %s\n", view.Status)
	fmt.Fprintf(w, "Valid:   %t\n", view.Valid)
	if view.ExpiresAt != nil {
		fmt.Fprintf(w, "Expires: %s\n", view.ExpiresAt.Format(time.RFC3339))
	}
	if view.Problem != "" {
		fmt.Fprintf(w, "Problem: %s\n", view.Problem)
	}
	if u := view.User; u != nil {
		fmt.Fprintf(w, "User:    %s <%s>\n", u.FullName(), u.Email)
		fmt.Fprintf(w, "ID:      %s\n", u.UserID)
		fmt.Fprintf(w, "Role:    %s\n", u.Role)
		fmt.Fprintf(w, "Gender:  %s\n", u.Gender)
	}
	return nil
}

func envOr(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultStatePath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "tagwise", "session.json")
	}
	return ".tagwise-session.json"
}
