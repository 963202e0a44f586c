package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/splitledger/internal/activity"
	"github.com/cleared-dev/splitledger/internal/ledger"
	"github.com/cleared-dev/splitledger/internal/money"
	"github.com/cleared-dev/splitledger/internal/report"
)

type expenseOptions struct {
	name        string
	paidBy      []string
	shares      []string
	at          string
	transfer    bool
	attachments []string
}

func (o *expenseOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.name, "name", "", "what the money was spent on")
	cmd.Flags().StringArrayVar(&o.paidBy, "paid-by", nil, "payment as id=12.50 (repeatable)")
	cmd.Flags().StringArrayVar(&o.shares, "share", nil, "share as id=exact:3.00 or id=divide:1 (repeatable)")
	cmd.Flags().StringVar(&o.at, "at", "", "when it happened, RFC 3339 (default: now)")
	cmd.Flags().BoolVar(&o.transfer, "transfer", false, "money moved between participants rather than spent")
	cmd.Flags().StringArrayVar(&o.attachments, "attach", nil, "attachment reference (repeatable)")
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q: %w", s, err)
	}
	return t, nil
}

func newExpenseCommand(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "expense",
		Aliases: []string{"exp"},
		Short:   "Record and inspect expenses",
	}
	cmd.AddCommand(
		newExpenseAddCommand(global),
		newExpenseEditCommand(global),
		newExpenseShowCommand(global),
		newExpenseListCommand(global),
		newExpenseDeleteCommand(global),
	)
	return cmd
}

func newExpenseAddCommand(global *globalOptions) *cobra.Command {
	opts := &expenseOptions{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(global, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			p, err := a.svc.Party(ctx)
			if err != nil {
				return err
			}
			decimals := money.Decimals(p.Currency)
			paid, err := parsePayments(opts.paidBy, decimals)
			if err != nil {
				return err
			}
			shares, err := parseShares(opts.shares, decimals)
			if err != nil {
				return err
			}
			if len(shares) == 0 {
				shares = evenShares(p)
			}
			at, err := parseTime(opts.at)
			if err != nil {
				return err
			}

			e, err := a.svc.AddExpense(ctx, ledger.AddExpenseParams{
				Name:        opts.name,
				At:          at,
				PaidBy:      paid,
				Shares:      shares,
				Transfer:    opts.transfer,
				Attachments: opts.attachments,
			})
			if err != nil {
				return err
			}
			f := report.NewFormatter(p)
			details := fmt.Sprintf("%s %s", e.Name, f.Amount(e.Total()))
			if err := a.record(ctx, activity.ActionExpenseAdd, e.ID, details); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), e.ID)
			return nil
		},
	}
	opts.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("paid-by")
	return cmd
}

func newExpenseEditCommand(global *globalOptions) *cobra.Command {
	opts := &expenseOptions{}
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an expense; flags not given keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(global, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			p, err := a.svc.Party(ctx)
			if err != nil {
				return err
			}
			e, err := a.svc.FindExpense(ctx, args[0])
			if err != nil {
				return err
			}

			decimals := money.Decimals(p.Currency)
			flags := cmd.Flags()
			if flags.Changed("name") {
				e.Name = opts.name
			}
			if flags.Changed("paid-by") {
				if e.PaidBy, err = parsePayments(opts.paidBy, decimals); err != nil {
					return err
				}
			}
			if flags.Changed("share") {
				if e.Shares, err = parseShares(opts.shares, decimals); err != nil {
					return err
				}
			}
			if flags.Changed("at") {
				if e.Timestamp, err = parseTime(opts.at); err != nil {
					return err
				}
			}
			if flags.Changed("transfer") {
				e.Transfer = opts.transfer
			}
			if flags.Changed("attach") {
				e.Attachments = opts.attachments
			}

			e, err = a.svc.ReplaceExpense(ctx, e)
			if err != nil {
				return err
			}
			if err := a.record(ctx, activity.ActionExpenseReplace, e.ID, e.Name); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), e.ID)
			return nil
		},
	}
	opts.register(cmd)
	return cmd
}

func newExpenseShowCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an expense and how it splits",
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
			e, err := a.svc.FindExpense(ctx, args[0])
			if err != nil {
				return err
			}
			rows, diags, err := a.svc.ResolveExpense(ctx, e.ID)
			if err != nil {
				return err
			}
			return f.WriteExpense(cmd.OutOrStdout(), e, rows, diags)
		},
	}
}

func newExpenseListCommand(global *globalOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses, newest first",
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
			expenses, err := a.svc.Expenses(ctx)
			if err != nil {
				return err
			}
			if limit > 0 && len(expenses) > limit {
				expenses = expenses[:limit]
			}
			return f.WriteExpenses(cmd.OutOrStdout(), expenses)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many expenses (0 for all)")
	return cmd
}

func newExpenseDeleteCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(global, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			e, err := a.svc.FindExpense(ctx, args[0])
			if err != nil {
				return err
			}
			if err := a.svc.DeleteExpense(ctx, e.ID); err != nil {
				return err
			}
			if err := a.record(ctx, activity.ActionExpenseDelete, e.ID, strings.TrimSpace("Delete "+e.Name)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", e.ID)
			return nil
		},
	}
}
