package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/syncclient"
	"github.com/spf13/cobra"
)

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var apiKey, serverURL string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Request a sync token from the server",
		Long: `Exchange the server's API key for a bearer token bound to this user and
device. Store the printed token as IRONLOG_DEVICE_TOKEN or in the config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			if apiKey == "" {
				apiKey = os.Getenv("IRONLOG_DEVICE_API_KEY")
			}
			if apiKey == "" {
				return errors.New("api key required (--api-key or IRONLOG_DEVICE_API_KEY)")
			}
			if serverURL == "" {
				serverURL = rt.cfg.ServerURL
			}
			if serverURL == "" {
				return errors.New("server url required (--server or IRONLOG_DEVICE_SERVER_URL)")
			}

			deviceID := rt.cfg.DeviceID
			if deviceID == "" {
				if deviceID, err = rt.store.DeviceID(ctx); err != nil {
					return err
				}
			}

			resp, err := syncclient.RequestToken(ctx, serverURL, apiKey, models.TokenRequest{
				UserID:   rt.cfg.UserID,
				DeviceID: deviceID,
				Email:    rt.cfg.Email,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", resp.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "server API key")
	cmd.Flags().StringVar(&serverURL, "server", "", "server URL (defaults to server_url from the config)")
	return cmd
}
