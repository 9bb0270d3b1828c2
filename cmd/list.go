package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "list <file>",
		Short:        "List the addressable elements of a file",
		Long:         "Print the canonical path of every addressable element in a source file.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))

			ctx := cmd.Context()

			elements, err := newWorkflow().List(ctx, args[0])
			if err != nil {
				return err
			}

			return newUI(cmd).DisplayTree(ctx, elements)
		},
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
}
