package cmd

import (
	"fmt"
	"time"

	"github.com/armctl/armctl/pkg/output"
	"github.com/spf13/cobra"
)

func newClearCacheCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clearcache",
		Short: "Delete all cached credentials for the current environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := newBroker(cmd.OutOrStdout(), false)
			if err != nil {
				return err
			}

			if err := b.manager.ClearCache(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
			return nil
		},
	}
}

type cachedIdentityDisplay struct {
	Subject   string    `json:"subject"`
	Kind      string    `json:"kind"`
	TenantID  string    `json:"tenantId"`
	Resource  string    `json:"resource"`
	ExpiresOn time.Time `json:"expiresOn"`
	Expired   bool      `json:"expired"`
}

func newListCacheCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listcache",
		Short: "List cached identities without revealing tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := newBroker(cmd.OutOrStdout(), false)
			if err != nil {
				return err
			}

			records := b.manager.ListCache()

			display := []cachedIdentityDisplay{}
			for _, record := range records {
				display = append(display, cachedIdentityDisplay{
					Subject:   record.Subject(),
					Kind:      string(record.Kind()),
					TenantID:  record.TenantID,
					Resource:  record.Resource,
					ExpiresOn: record.ExpiresOn,
					Expired:   b.manager.ExpiresIn(record) == 0,
				})
			}

			formatter, err := formatterForCmd(cmd)
			if err != nil {
				return err
			}

			if formatter.Kind() == output.JsonFormat {
				return formatter.Format(display, cmd.OutOrStdout(), nil)
			}

			table := &output.TableFormatter{}
			return table.Format(display, cmd.OutOrStdout(), output.TableFormatterOptions{
				Columns: []output.Column{
					{Heading: "SUBJECT", Field: "Subject"},
					{Heading: "KIND", Field: "Kind"},
					{Heading: "TENANT", Field: "TenantID"},
					{Heading: "RESOURCE", Field: "Resource"},
					{Heading: "EXPIRES", Field: "ExpiresOn"},
				},
			})
		},
	}
}
