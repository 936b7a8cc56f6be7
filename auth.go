package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/tonimelisma/lifegoal-go/internal/auth"
	"github.com/tonimelisma/lifegoal-go/internal/localstore"
)

// offlineToken is stored when signing in without a backend.
const offlineToken = "offline"

func newLoginCmd() *cobra.Command {
	var (
		userID string
		email  string
		token  string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with a backend user id and access token",
		Long: `Store the session used for every other command. With a remote backend
configured, --token must be a valid access token for that backend. Without
one, any user id works and the data stays on this device.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			if token == "" {
				if cc.Cfg.RemoteActive() {
					return fmt.Errorf("--token is required when a remote backend is configured")
				}

				token = offlineToken
			}

			provider := auth.NewProvider(cc.Cfg.Storage.SessionPath, cc.Logger)
			if err := provider.SignIn(userID, email, &oauth2.Token{AccessToken: token, TokenType: "Bearer"}); err != nil {
				return err
			}

			cc.Logger.Info("login successful")
			cc.Statusf("Signed in as %s.\n", userID)

			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&email, "email", "", "email shown by whoami")
	cmd.Flags().StringVar(&token, "token", "", "access token for the remote backend")

	if err := cmd.MarkFlagRequired("user"); err != nil {
		panic(err)
	}

	return cmd
}

func newLogoutCmd() *cobra.Command {
	var purge bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())
			provider := auth.NewProvider(cc.Cfg.Storage.SessionPath, cc.Logger)

			u, err := provider.CurrentUser()
			if err != nil {
				return err
			}

			if u == nil {
				cc.Statusf("Not signed in.\n")
				return nil
			}

			if purge {
				if err := purgeLocal(cmd, cc, u.ID); err != nil {
					return err
				}
			}

			if err := provider.SignOut(); err != nil {
				return err
			}

			cc.Logger.Info("logout successful")
			cc.Statusf("Signed out %s.\n", u.ID)

			return nil
		},
	}

	cmd.Flags().BoolVar(&purge, "purge", false, "also delete this user's data from the device")

	return cmd
}

func purgeLocal(cmd *cobra.Command, cc *CLIContext, userID string) error {
	local, err := localstore.Open(cmd.Context(), cc.Cfg.Storage.DBPath, cc.Logger)
	if err != nil {
		return err
	}
	defer local.Close()

	return local.Forget(cmd.Context(), userID)
}

// whoamiOutput is the JSON schema for `whoami --json`.
type whoamiOutput struct {
	ID     string `json:"id"`
	Email  string `json:"email,omitempty"`
	Remote bool   `json:"remote"`
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Display the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())
			provider := auth.NewProvider(cc.Cfg.Storage.SessionPath, cc.Logger)

			u, err := provider.CurrentUser()
			if err != nil {
				return err
			}

			if u == nil {
				return auth.ErrSignedOut
			}

			if cc.Flags.JSON {
				return printJSON(cmd.OutOrStdout(), whoamiOutput{ID: u.ID, Email: u.Email, Remote: cc.Cfg.RemoteActive()})
			}

			fmt.Fprintln(cmd.OutOrStdout(), u.ID)

			if u.Email != "" {
				fmt.Fprintln(cmd.OutOrStdout(), u.Email)
			}

			return nil
		},
	}
}
