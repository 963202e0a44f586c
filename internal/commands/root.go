package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/splitledger/internal/buildinfo"
	"github.com/cleared-dev/splitledger/internal/config"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	repo     string
	logLevel string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "splitledger",
		Short:   "Shared expense ledger with exact balances",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.repo, "repo", config.RepoFromEnv("."),
		fmt.Sprintf("ledger repository directory (env %s)", config.EnvRepo))
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "debug, info, warn or error")

	rootCmd.AddCommand(
		newInitCommand(opts),
		newParticipantCommand(opts),
		newExpenseCommand(opts),
		newBalancesCommand(opts),
		newResolveCommand(opts),
		newActivityCommand(opts),
	)

	return rootCmd
}
