package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// resolveCmd represents the resolve command.
var resolveCmd = newResolveCmd()

const resolveLongDescription = `Resolve a canonical element path and print a snapshot of the addressed
element: kind, name, modifiers, parameters, and source text.

` + pathGrammarHelp

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "resolve <path>",
		Short:        "Resolve an element path",
		Long:         resolveLongDescription,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))

			ctx := cmd.Context()

			element, err := newWorkflow().Resolve(ctx, args[0])
			if err != nil {
				return err
			}

			return newUI(cmd).DisplayElement(ctx, element)
		},
	}
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
