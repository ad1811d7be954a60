package cmd

import (
	"fmt"

	"github.com/armctl/armctl/pkg/environment"
	"github.com/armctl/armctl/pkg/output"
	"github.com/spf13/cobra"
)

func newEnvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env [name-or-authority-url]",
		Short: "Show or switch the target environment",
		Long: "With no argument, list the known environments and mark the current " +
			"one. With an environment name or any of its endpoint URLs, switch to " +
			"that environment. Switching environments clears all cached credentials.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := newBroker(cmd.OutOrStdout(), false)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				profile, err := b.registry.Select(args[0])
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "environment set to %s\n", profile.Name)
				return nil
			}

			formatter, err := formatterForCmd(cmd)
			if err != nil {
				return err
			}

			current := b.registry.Current().Name
			if formatter.Kind() == output.JsonFormat {
				type envDisplay struct {
					Name    string `json:"name"`
					Current bool   `json:"current"`
				}

				envs := []envDisplay{}
				for _, name := range environment.Names() {
					envs = append(envs, envDisplay{Name: name, Current: name == current})
				}
				return formatter.Format(envs, cmd.OutOrStdout(), nil)
			}

			for _, name := range environment.Names() {
				marker := " "
				if name == current {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
			}
			return nil
		},
	}

	return cmd
}
