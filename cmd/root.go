// Package cmd wires the command line surface. Commands are thin adapters:
// parse flags, call the acquisition engine, format the result.
package cmd

import (
	"fmt"
	"os"

	"github.com/armctl/armctl/internal/version"
	"github.com/armctl/armctl/pkg/output"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NewRootCmd assembles the full command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "armctl",
		Short:         "Acquire and cache resource manager credentials",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
	}

	rootCmd.PersistentFlags().StringP(
		"output", "o", string(output.NoneFormat), "Output format: json, table or none.")

	rootCmd.AddCommand(
		newLoginCmd(),
		newSpnCmd(),
		newTokenCmd(),
		newEnvCmd(),
		newListCacheCmd(),
		newClearCacheCmd(),
	)

	for _, verb := range []string{"get", "put", "post", "delete"} {
		rootCmd.AddCommand(newRestCmd(verb))
	}

	return rootCmd
}

func formatterForCmd(cmd *cobra.Command) (output.Formatter, error) {
	return formatterForFlags(cmd.Flags())
}

func formatterForFlags(flags *pflag.FlagSet) (output.Formatter, error) {
	format, err := flags.GetString("output")
	if err != nil {
		return nil, err
	}

	return output.NewFormatter(format)
}

// Execute runs the command tree and returns the process exit code. Errors are
// printed innermost cause first, since that is the line the user acts on.
func Execute(args []string) int {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		for _, line := range errorChain(err) {
			fmt.Fprintln(os.Stderr, output.WithErrorFormat("ERROR: %s", line))
		}
		return 1
	}

	return 0
}
