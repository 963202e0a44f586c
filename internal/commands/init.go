package commands

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/splitledger/internal/activity"
	"github.com/cleared-dev/splitledger/internal/config"
	"github.com/cleared-dev/splitledger/internal/gitops"
	"github.com/cleared-dev/splitledger/internal/ledger"
	"github.com/cleared-dev/splitledger/internal/model"
)

type initOptions struct {
	name         string
	currency     string
	participants []string
	storage      string
	partyID      string
	noGit        bool
}

func newInitCommand(global *globalOptions) *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledger repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := global.repo
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, global, absDir, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "party name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&opts.currency, "currency", "EUR", "ISO 4217 currency code")
	cmd.Flags().StringArrayVar(&opts.participants, "participant", nil, "participant as id=Name (repeatable)")
	cmd.Flags().StringVar(&opts.storage, "storage", config.BackendCSV, "storage backend: csv or sqlite")
	cmd.Flags().StringVar(&opts.partyID, "party-id", "", "party ID (default: random)")
	cmd.Flags().BoolVar(&opts.noGit, "no-git", false, "do not initialize a git repository")

	return cmd
}

func runInit(cmd *cobra.Command, global *globalOptions, dir string, opts *initOptions) error {
	ctx := cmd.Context()

	participants := make([]model.Participant, 0, len(opts.participants))
	for _, raw := range opts.participants {
		pt, err := parseParticipant(raw)
		if err != nil {
			return err
		}
		if err := ledger.ValidateParticipantID(pt.ID); err != nil {
			return err
		}
		participants = append(participants, pt)
	}

	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}
	if err := os.MkdirAll(filepath.Join(dir, "logs"), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	partyID := opts.partyID
	if partyID == "" {
		partyID = uuid.NewString()
	}
	cfg := config.Default(partyID, opts.name, opts.currency)
	cfg.Storage.Backend = opts.storage
	useGit := !opts.noGit
	if useGit {
		if _, err := exec.LookPath("git"); err != nil {
			useGit = false
		}
	}
	cfg.Git.AutoCommit = useGit
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	gitignore := ".env\n"
	if cfg.Storage.Backend == config.BackendSQLite {
		gitignore += config.DefaultSQLitePath + "\n" + config.DefaultSQLitePath + "-*\n"
	}
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	logger, err := newLogger(global, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a, err := openLedger(dir, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.svc.CreateParty(ctx, opts.name, opts.currency, participants); err != nil {
		return err
	}

	if useGit {
		if err := gitops.Init(ctx, dir); err != nil {
			return fmt.Errorf("git init: %w", err)
		}
	}
	ids := make([]string, len(participants))
	for i, pt := range participants {
		ids[i] = pt.ID
	}
	details := "Initialize " + opts.name
	if len(ids) > 0 {
		details += " with " + strings.Join(ids, ", ")
	}
	if err := a.record(ctx, activity.ActionInit, partyID, details); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized ledger %q at %s\n", opts.name, dir)
	return nil
}
