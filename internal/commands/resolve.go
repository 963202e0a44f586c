package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/splitledger/internal/model"
)

// newResolveCommand prints the per-payer distribution rows of one expense.
func newResolveCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <id>",
		Short: "Show who each payer paid for in an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			rows, diags, err := a.svc.ResolveExpense(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, row := range rows {
				fmt.Fprintf(out, "%s paid %s\n", f.Name(row.Payer), f.Amount(row.TotalPaid))
				for _, pid := range model.SortedKeys(row.PaidFor) {
					fmt.Fprintf(out, "  for %s: %s\n", f.Name(pid), f.Amount(row.PaidFor[pid]))
				}
			}
			for _, d := range diags {
				fmt.Fprintf(out, "warning: %s\n", d)
			}
			return nil
		},
	}
}
