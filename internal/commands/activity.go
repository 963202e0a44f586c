package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/splitledger/internal/activity"
)

func newActivityCommand(global *globalOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recent changes to the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := filepath.Abs(global.repo)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			entries, err := activity.Recent(root, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %-20s %s  %s\n",
					e.Timestamp.Local().Format(time.DateTime), e.Action, e.Subject, e.Details)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries to show")
	return cmd
}
