package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/splitledger/internal/balance"
)

func newBalancesCommand(global *globalOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Show balances and suggested reimbursements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(global, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			f, err := a.formatter(ctx)
			if err != nil {
				return err
			}
			balances, _, err := a.svc.Balances(ctx)
			if err != nil {
				return err
			}
			rs := balance.Reimbursements(balances)

			out := cmd.OutOrStdout()
			if asJSON {
				return f.WriteBalancesJSON(out, balances, rs)
			}
			if err := f.WriteBalances(out, balances); err != nil {
				return err
			}
			return f.WriteReimbursements(out, rs)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
