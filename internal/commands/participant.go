package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/splitledger/internal/activity"
	"github.com/cleared-dev/splitledger/internal/model"
)

func newParticipantCommand(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "participant",
		Short: "Manage party participants",
	}
	cmd.AddCommand(
		newParticipantAddCommand(global),
		newParticipantArchiveCommand(global),
		newParticipantListCommand(global),
	)
	return cmd
}

func newParticipantAddCommand(global *globalOptions) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Add a participant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(global, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			pt := model.Participant{ID: args[0], Name: name}
			if err := a.svc.AddParticipant(ctx, pt); err != nil {
				return err
			}
			if err := a.record(ctx, activity.ActionParticipantAdd, pt.ID, "Add "+pt.Name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", pt.Name, pt.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name (required)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newParticipantArchiveCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <id>",
		Short: "Archive a participant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(global, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			if err := a.svc.ArchiveParticipant(ctx, args[0]); err != nil {
				return err
			}
			if err := a.record(ctx, activity.ActionParticipantArchive, args[0], "Archive "+args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Archived %s\n", args[0])
			return nil
		},
	}
}

func newParticipantListCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List participants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(global, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			p, err := a.svc.Party(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, pid := range p.ParticipantIDs() {
				pt := p.Participants[pid]
				status := ""
				if pt.Archived {
					status = "  (archived)"
				}
				fmt.Fprintf(out, "%s  %s%s\n", pt.ID, pt.Name, status)
			}
			return nil
		},
	}
}
