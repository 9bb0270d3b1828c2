// Package cmd provides the root command and CLI setup for patchtree.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/patchtree/patchtree/internal/adapter"
	"github.com/patchtree/patchtree/internal/controller"
	"github.com/patchtree/patchtree/internal/domain"
)

// rootDirFlag is the project directory all file paths resolve against.
var rootDirFlag string

// plainFlag forces the non-interactive printer even on a terminal.
var plainFlag bool

// verboseFlag switches the log level to debug.
var verboseFlag bool

// logFileFlag overrides the log file location.
var logFileFlag string

// newWorkflow builds the workflow over the configured project root. Tests
// swap this out to inject a mock.
var newWorkflow = func() domain.Workflow {
	return domain.NewWorkflow(adapter.NewFSSourceStore(viper.GetString(rootConfigKey)))
}

// newUI picks the output surface for a command. Tests swap this out to
// force the plain printer.
var newUI = func(cmd *cobra.Command) controller.UI {
	interactive := controller.IsTTY(os.Stdout) && !viper.GetBool(plainFlagName)

	return controller.NewUI(cmd, interactive)
}

const pathGrammarHelp = `Element paths use the canonical grammar:
  file:<relative/file/path>(/<segment>)*
  segment    kind[name], e.g. class[User], function[Validate]
  bare       init (initializer funcs)

Example: file:internal/user/user.go/class[User]/function[Validate]`

const rootLongDescription = `patchtree applies batches of addressed structural operations to a
project's source trees: create, replace, and delete files and elements,
and manage import lists. Each operation in a batch is attempted
independently and reported separately, so partial failure is a normal
outcome, not an abort.

` + pathGrammarHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "patchtree",
		Short: "Structural source tree patching",
		Long:  rootLongDescription,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func init() {
	configureRootFlags(rootCmd)
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(
		&rootDirFlag, rootFlagName, "r",
		viper.GetString(rootConfigKey),
		"project root directory that file paths resolve against",
	)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(rootFlagName), rootConfigKey)

	cmd.PersistentFlags().BoolVar(&plainFlag, plainFlagName, false, "plain line-oriented output (no TUI)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(plainFlagName), plainFlagName)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "debug logging")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)

	cmd.PersistentFlags().StringVar(&logFileFlag, logFileFlagName, viper.GetString(logFilenameKey), "log file location")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(logFileFlagName), logFilenameKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
