package cmd

import (
	"fmt"

	"github.com/armctl/armctl/pkg/auth"
	"github.com/armctl/armctl/pkg/output"
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var (
		tenantID        string
		useDeviceCode   bool
		managedIdentity bool
		clientID        string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and discover accessible tenants and subscriptions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := newBroker(cmd.OutOrStdout(), useDeviceCode)
			if err != nil {
				return err
			}

			var result *auth.LoginResult
			if managedIdentity {
				result, err = b.manager.LoginWithManagedIdentity(cmd.Context(), clientID)
			} else {
				result, err = b.manager.LoginInteractive(cmd.Context(), tenantID)
			}
			if err != nil {
				return err
			}

			return printLoginResult(cmd, result)
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "",
		"Log in to a specific tenant instead of discovering all accessible tenants.")
	cmd.Flags().BoolVar(&useDeviceCode, "use-device-code", false,
		"Authenticate with a device code instead of launching a browser.")
	cmd.Flags().BoolVar(&managedIdentity, "managed-identity", false,
		"Authenticate through the platform managed identity endpoint.")
	cmd.Flags().StringVar(&clientID, "client-id", "",
		"Client id of a user-assigned managed identity.")

	return cmd
}

type loginDisplay struct {
	Subject       string `json:"subject"`
	HomeTenantID  string `json:"homeTenantId"`
	Tenants       int    `json:"tenants"`
	Subscriptions int    `json:"subscriptions"`
}

func printLoginResult(cmd *cobra.Command, result *auth.LoginResult) error {
	formatter, err := formatterForCmd(cmd)
	if err != nil {
		return err
	}

	if formatter.Kind() == output.JsonFormat {
		return formatter.Format(loginDisplay{
			Subject:       result.Subject,
			HomeTenantID:  result.HomeTenantID,
			Tenants:       result.TenantCount,
			Subscriptions: result.SubscriptionCount,
		}, cmd.OutOrStdout(), nil)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "discovered %d tenant(s) and %d subscription(s)\n",
		result.TenantCount, result.SubscriptionCount)
	return nil
}
