package cmd

import (
	"fmt"
	"time"

	"github.com/armctl/armctl/pkg/output"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var resource string

	cmd := &cobra.Command{
		Use:   "token [tenant-or-subscription]",
		Short: "Print a bearer token for a tenant, subscription or domain",
		Long: "Print a bearer token for the given identifier: a tenant id, a tenant's " +
			"default domain, or a subscription id. With no identifier the most " +
			"recently used identity is reused.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			identifier := ""
			if len(args) == 1 {
				identifier = args[0]
			}

			// Progress chatter goes to stderr so the token on stdout stays
			// safe to pipe.
			b, err := newBroker(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}

			record, err := b.manager.Token(cmd.Context(), identifier, resource)
			if err != nil {
				return err
			}

			formatter, err := formatterForCmd(cmd)
			if err != nil {
				return err
			}

			if formatter.Kind() == output.JsonFormat {
				return formatter.Format(tokenDisplay{
					AccessToken: record.AccessToken,
					TokenKind:   record.TokenKind,
					Subject:     record.Subject(),
					TenantID:    record.TenantID,
					Resource:    record.Resource,
					ExpiresOn:   record.ExpiresOn,
				}, cmd.OutOrStdout(), nil)
			}

			fmt.Fprintln(cmd.OutOrStdout(), record.AccessToken)
			return nil
		},
	}

	cmd.Flags().StringVar(&resource, "resource", "",
		"Resource the token must be valid for. Defaults per identifier kind.")

	return cmd
}

type tokenDisplay struct {
	AccessToken string    `json:"accessToken"`
	TokenKind   string    `json:"tokenKind"`
	Subject     string    `json:"subject"`
	TenantID    string    `json:"tenantId"`
	Resource    string    `json:"resource"`
	ExpiresOn   time.Time `json:"expiresOn"`
}
