package cmd

import (
	"fmt"
	"os"

	"github.com/armctl/armctl/pkg/auth"
	"github.com/spf13/cobra"
)

func newSpnCmd() *cobra.Command {
	var (
		secret       string
		certFile     string
		certPassword string
	)

	cmd := &cobra.Command{
		Use:   "spn <tenant-id> <client-id>",
		Short: "Log in as a service principal with a client secret or certificate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, clientID := args[0], args[1]

			if secret == "" {
				secret = os.Getenv("ARMCTL_CLIENT_SECRET")
			}

			if secret == "" && certFile == "" {
				return fmt.Errorf(
					"either --secret (or ARMCTL_CLIENT_SECRET) or --cert-file is required")
			}
			if secret != "" && certFile != "" {
				return fmt.Errorf("--secret and --cert-file are mutually exclusive")
			}

			b, err := newBroker(cmd.OutOrStdout(), false)
			if err != nil {
				return err
			}

			if certFile != "" {
				data, err := os.ReadFile(certFile)
				if err != nil {
					return fmt.Errorf("reading certificate file: %w", err)
				}

				certs, key, err := auth.ParseCertificates(data, certPassword)
				if err != nil {
					return err
				}

				result, err := b.manager.LoginWithClientCertificate(
					cmd.Context(), tenantID, clientID, certs, key)
				if err != nil {
					return err
				}
				return printLoginResult(cmd, result)
			}

			result, err := b.manager.LoginWithServicePrincipal(cmd.Context(), tenantID, clientID, secret)
			if err != nil {
				return err
			}
			return printLoginResult(cmd, result)
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "",
		"Client secret. Falls back to the ARMCTL_CLIENT_SECRET environment variable.")
	cmd.Flags().StringVar(&certFile, "cert-file", "",
		"Path to a PEM or PKCS#12 certificate with private key.")
	cmd.Flags().StringVar(&certPassword, "cert-password", "",
		"Password protecting the certificate file, if any.")

	return cmd
}
