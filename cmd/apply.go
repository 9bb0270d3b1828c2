package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/patchtree/patchtree/internal/domain"
	m "github.com/patchtree/patchtree/internal/model"
)

var applyParallelFlag int
var applyDryRunFlag bool

// applyCmd represents the apply command.
var applyCmd = newApplyCmd()

const applyLongDescription = `Apply a modification batch to the project's source trees.

The batch is a YAML (or JSON) document with a modifications list; every
entry carries a type, a canonical element path, and the type-specific
fields (content, elementKind, position, importPath). Operations are
applied in order per file; operations on disjoint files may run
concurrently with --parallel. Every operation is attempted even when an
earlier one failed, and the command reports one result per operation in
input order.

` + pathGrammarHelp

func newApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "apply <batch-file>",
		Short:        "Apply a modification batch",
		Long:         applyLongDescription,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))

			ctx := cmd.Context()
			ui := newUI(cmd)

			outcome, err := newWorkflow().Apply(ctx, domain.ApplyArgs{
				BatchPath: args[0],
				Threads:   viper.GetInt(applyParallelConfigKey),
				DryRun:    applyDryRunFlag,
			})
			if err != nil {
				return err
			}

			if err := ui.DisplayResults(ctx, outcome.Results); err != nil {
				return err
			}

			if applyDryRunFlag {
				if err := ui.DisplayChanges(ctx, outcome.Changes); err != nil {
					return err
				}
			}

			if failures := m.CountFailures(outcome.Results); failures > 0 {
				return fmt.Errorf("%d of %d modifications failed", failures, len(outcome.Results))
			}

			return nil
		},
	}

	configureApplyFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(applyCmd)
}

func configureApplyFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&applyParallelFlag, parallelFlagName, "p", viper.GetInt(applyParallelConfigKey), "number of parallel workers for disjoint files")
	bindFlagToConfig(cmd.Flags().Lookup(parallelFlagName), applyParallelConfigKey)
	cmd.Flags().BoolVarP(&applyDryRunFlag, dryRunFlagName, "n", false, "report the would-be changes without writing them")
}
