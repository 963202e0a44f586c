package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/cleared-dev/splitledger/internal/activity"
	"github.com/cleared-dev/splitledger/internal/chunk"
	"github.com/cleared-dev/splitledger/internal/config"
	"github.com/cleared-dev/splitledger/internal/docstore"
	"github.com/cleared-dev/splitledger/internal/docstore/sqlitestore"
	"github.com/cleared-dev/splitledger/internal/gitops"
	"github.com/cleared-dev/splitledger/internal/journal"
	"github.com/cleared-dev/splitledger/internal/ledger"
	"github.com/cleared-dev/splitledger/internal/logging"
	"github.com/cleared-dev/splitledger/internal/model"
	"github.com/cleared-dev/splitledger/internal/report"
)

// app is an opened ledger repository.
type app struct {
	root   string
	cfg    *config.Config
	svc    *ledger.Service
	logger *slog.Logger
	close  func() error
}

func newLogger(opts *globalOptions, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(opts.logLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Config{Level: level, Component: logging.ComponentCLI, Output: w}), nil
}

// openApp loads the repository's config and opens its ledger.
func openApp(opts *globalOptions, stderr io.Writer) (*app, error) {
	root, err := filepath.Abs(opts.repo)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.LoadRepo(root)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.FileName, err)
	}
	logger, err := newLogger(opts, stderr)
	if err != nil {
		return nil, err
	}
	return openLedger(root, cfg, logger)
}

func openLedger(root string, cfg *config.Config, logger *slog.Logger) (*app, error) {
	var (
		parties docstore.Store[model.Party]
		chunks  docstore.Store[model.Chunk]
		closeFn = func() error { return nil }
	)
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		db, err := sqlitestore.Open(cfg.SQLiteFile(root))
		if err != nil {
			return nil, err
		}
		parties = sqlitestore.New[model.Party](db, "party")
		chunks = sqlitestore.New[model.Chunk](db, "chunk")
		closeFn = db.Close
	default:
		parties = journal.NewPartyStore(root)
		chunks = journal.NewChunkStore(root)
	}
	logger.Debug("ledger opened", "root", root, "backend", cfg.Storage.Backend)

	svc := ledger.NewService(cfg.PartyID, parties, chunks,
		ledger.WithLogger(logger),
		ledger.WithManager(chunk.NewManager(chunks, cfg.ChunkSize())),
		ledger.WithWorkers(cfg.WorkerCount()),
	)
	return &app{root: root, cfg: cfg, svc: svc, logger: logger, close: closeFn}, nil
}

func (a *app) formatter(ctx context.Context) (report.Formatter, error) {
	p, err := a.svc.Party(ctx)
	if err != nil {
		return report.Formatter{}, err
	}
	return report.NewFormatter(p), nil
}

// record appends to the activity log and commits when git integration is on.
func (a *app) record(ctx context.Context, action activity.Action, subject, details string) error {
	entry := activity.Entry{
		Timestamp: time.Now(),
		Actor:     a.cfg.Git.AuthorName,
		Action:    action,
		Subject:   subject,
		Details:   details,
	}
	if err := activity.Append(a.root, entry); err != nil {
		return err
	}
	if !a.cfg.Git.AutoCommit || !gitops.IsRepo(a.root) {
		return nil
	}
	if _, err := exec.LookPath("git"); err != nil {
		a.logger.Warn("git not found, skipping commit")
		return nil
	}

	repo := gitops.Repo{Dir: a.root, AuthorName: a.cfg.Git.AuthorName, AuthorEmail: a.cfg.Git.AuthorEmail}
	msg := string(action) + ": " + details
	hash, err := repo.CommitAll(ctx, msg)
	if err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	a.logger.Info("committed", "commit", hash, logging.FieldOperation, string(action))
	return nil
}
