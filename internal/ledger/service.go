// Package ledger is the write and query surface of a party's expense
// ledger. It validates expenses at entry, assigns their identifiers, files
// them into chunks and derives balances from them.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/splitledger/internal/balance"
	"github.com/cleared-dev/splitledger/internal/chunk"
	"github.com/cleared-dev/splitledger/internal/docstore"
	"github.com/cleared-dev/splitledger/internal/id"
	"github.com/cleared-dev/splitledger/internal/locate"
	"github.com/cleared-dev/splitledger/internal/logging"
	"github.com/cleared-dev/splitledger/internal/model"
	"github.com/cleared-dev/splitledger/internal/money"
	"github.com/cleared-dev/splitledger/internal/split"
)

var (
	ErrPartyNotFound   = errors.New("party not found")
	ErrExpenseNotFound = errors.New("expense not found")
	ErrInvalidExpense  = errors.New("invalid expense")
)

const defaultWorkers = 4

// Service provides business logic for one party's ledger. Writes are
// serialized; reads run concurrently.
type Service struct {
	mu      sync.Mutex
	partyID string
	parties docstore.Store[model.Party]
	chunks  docstore.Store[model.Chunk]
	manager *chunk.Manager
	gen     *id.Generator
	logger  *slog.Logger
	workers int
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger diagnostics and writes are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithGenerator sets the expense ID generator.
func WithGenerator(g *id.Generator) Option {
	return func(s *Service) { s.gen = g }
}

// WithClock sets the time source for expenses added without a timestamp
// and for new chunks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithWorkers bounds how many chunks Balances loads at once.
func WithWorkers(n int) Option {
	return func(s *Service) { s.workers = n }
}

// WithManager sets the chunk manager, which decides chunk capacity.
func WithManager(m *chunk.Manager) Option {
	return func(s *Service) { s.manager = m }
}

// NewService creates a ledger Service for partyID.
func NewService(partyID string, parties docstore.Store[model.Party], chunks docstore.Store[model.Chunk], opts ...Option) *Service {
	s := &Service{
		partyID: partyID,
		parties: parties,
		chunks:  chunks,
		logger:  logging.Discard(),
		workers: defaultWorkers,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.gen == nil {
		s.gen = id.NewGenerator(nil).WithClock(s.now)
	}
	if s.manager == nil {
		s.manager = chunk.NewManager(chunks, chunk.DefaultMaxSize).WithClock(s.now)
	}
	if s.workers <= 0 {
		s.workers = defaultWorkers
	}
	s.logger = logging.WithComponent(s.logger, logging.ComponentLedger).With(logging.FieldPartyID, partyID)
	return s
}

// CreateParty creates the party document.
func (s *Service) CreateParty(ctx context.Context, name, currency string, participants []model.Participant) (model.Party, error) {
	p := model.Party{
		ID:           s.partyID,
		Name:         name,
		Currency:     strings.ToUpper(currency),
		Participants: make(map[string]model.Participant, len(participants)),
		Chunks:       []model.ChunkRef{},
	}
	for _, pt := range participants {
		if err := ValidateParticipantID(pt.ID); err != nil {
			return model.Party{}, err
		}
		if err := p.AddParticipant(pt); err != nil {
			return model.Party{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.parties.Create(ctx, s.partyID, p); err != nil {
		return model.Party{}, fmt.Errorf("creating party %s: %w", s.partyID, err)
	}
	s.logger.InfoContext(ctx, "party created", logging.FieldCount, len(participants))
	return p, nil
}

// Party returns the party document.
func (s *Service) Party(ctx context.Context) (model.Party, error) {
	h, err := s.partyHandle(ctx)
	if err != nil {
		return model.Party{}, err
	}
	p, err := h.Doc(ctx)
	if err != nil {
		return model.Party{}, fmt.Errorf("loading party %s: %w", s.partyID, err)
	}
	return p, nil
}

// AddParticipant adds a participant to the party.
func (s *Service) AddParticipant(ctx context.Context, pt model.Participant) error {
	if err := ValidateParticipantID(pt.ID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.partyHandle(ctx)
	if err != nil {
		return err
	}
	if err := h.Change(ctx, func(p *model.Party) error { return p.AddParticipant(pt) }); err != nil {
		return fmt.Errorf("adding participant: %w", err)
	}
	s.logger.InfoContext(ctx, "participant added", logging.FieldParticipant, pt.ID)
	return nil
}

// ArchiveParticipant hides a participant from new expenses. Existing
// expenses and balances keep referring to them.
func (s *Service) ArchiveParticipant(ctx context.Context, participantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.partyHandle(ctx)
	if err != nil {
		return err
	}
	if err := h.Change(ctx, func(p *model.Party) error { return p.Archive(participantID) }); err != nil {
		return fmt.Errorf("archiving participant: %w", err)
	}
	s.logger.InfoContext(ctx, "participant archived", logging.FieldParticipant, participantID)
	return nil
}

// AddExpenseParams holds parameters for recording an expense.
type AddExpenseParams struct {
	Name        string
	At          time.Time // zero means now
	PaidBy      map[string]money.Money
	Shares      map[string]model.ShareSpec
	Transfer    bool
	Attachments []string
}

// AddExpense validates the expense, files it into the party's open chunk
// (rolling over to a new chunk when full) and returns it with its ID and
// content hash set.
func (s *Service) AddExpense(ctx context.Context, params AddExpenseParams) (model.Expense, error) {
	at := params.At
	if at.IsZero() {
		at = s.now()
	}
	e := model.Expense{
		Name:        strings.TrimSpace(params.Name),
		Timestamp:   at.UTC(),
		PaidBy:      params.PaidBy,
		Shares:      params.Shares,
		Transfer:    params.Transfer,
		Attachments: params.Attachments,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	party, err := s.partyHandle(ctx)
	if err != nil {
		return model.Expense{}, err
	}
	p, err := party.Doc(ctx)
	if err != nil {
		return model.Expense{}, fmt.Errorf("loading party %s: %w", s.partyID, err)
	}
	if verrs := ValidateExpense(e, p); len(verrs) > 0 {
		return model.Expense{}, fmt.Errorf("%w: %s", ErrInvalidExpense, joinValidation(verrs))
	}
	if e.Hash, err = model.ContentHash(e); err != nil {
		return model.Expense{}, err
	}

	cur, err := s.manager.CurrentChunk(ctx, party)
	if err != nil {
		return model.Expense{}, err
	}
	cur, err = s.manager.RolloverIfFull(ctx, party, cur)
	if err != nil {
		return model.Expense{}, err
	}
	if e.ID, err = s.gen.Encode(cur.ID(), e.Timestamp); err != nil {
		return model.Expense{}, fmt.Errorf("assigning expense id: %w", err)
	}
	if err := s.manager.Append(ctx, cur, e); err != nil {
		return model.Expense{}, err
	}

	s.logger.InfoContext(ctx, "expense added",
		logging.FieldExpenseID, e.ID,
		logging.FieldChunkID, cur.ID(),
		logging.FieldAmount, e.Total().Int64(),
	)
	_, diags := split.ResolveExpense(e)
	s.logDiagnostics(ctx, diags)
	return e, nil
}

// FindExpense returns the expense with the given ID.
func (s *Service) FindExpense(ctx context.Context, expenseID string) (model.Expense, error) {
	parts, err := id.Decode(expenseID)
	if err != nil {
		return model.Expense{}, err
	}
	h, err := s.openChunk(ctx, parts.ChunkID, expenseID)
	if err != nil {
		return model.Expense{}, err
	}
	c, err := h.Doc(ctx)
	if err != nil {
		return model.Expense{}, fmt.Errorf("loading chunk %s: %w", parts.ChunkID, err)
	}
	e, _ := locate.FindByLocalID(c.Expenses, parts.LocalID)
	if e == nil {
		return model.Expense{}, fmt.Errorf("%w: %s", ErrExpenseNotFound, expenseID)
	}
	return *e, nil
}

// ReplaceExpense overwrites the expense with e.ID. Participants archived
// since the original was recorded may stay on it.
func (s *Service) ReplaceExpense(ctx context.Context, e model.Expense) (model.Expense, error) {
	parts, err := id.Decode(e.ID)
	if err != nil {
		return model.Expense{}, err
	}
	e.Name = strings.TrimSpace(e.Name)
	e.Timestamp = e.Timestamp.UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.Party(ctx)
	if err != nil {
		return model.Expense{}, err
	}
	h, err := s.openChunk(ctx, parts.ChunkID, e.ID)
	if err != nil {
		return model.Expense{}, err
	}

	err = h.Change(ctx, func(c *model.Chunk) error {
		old, _ := locate.FindByLocalID(c.Expenses, parts.LocalID)
		if old == nil {
			return fmt.Errorf("%w: %s", ErrExpenseNotFound, e.ID)
		}
		keep := make(map[string]bool)
		for _, pt := range old.Participants() {
			keep[pt] = true
		}
		if verrs := validateExpense(e, p, keep); len(verrs) > 0 {
			return fmt.Errorf("%w: %s", ErrInvalidExpense, joinValidation(verrs))
		}
		hash, err := model.ContentHash(e)
		if err != nil {
			return err
		}
		e.Hash = hash
		chunk.Replace(c, e)
		return nil
	})
	if err != nil {
		return model.Expense{}, err
	}

	s.logger.InfoContext(ctx, "expense replaced", logging.FieldExpenseID, e.ID)
	_, diags := split.ResolveExpense(e)
	s.logDiagnostics(ctx, diags)
	return e, nil
}

// DeleteExpense removes the expense with the given ID.
func (s *Service) DeleteExpense(ctx context.Context, expenseID string) error {
	parts, err := id.Decode(expenseID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.openChunk(ctx, parts.ChunkID, expenseID)
	if err != nil {
		return err
	}
	err = h.Change(ctx, func(c *model.Chunk) error {
		if !chunk.Remove(c, parts.LocalID) {
			return fmt.Errorf("%w: %s", ErrExpenseNotFound, expenseID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "expense deleted", logging.FieldExpenseID, expenseID)
	return nil
}

// Expenses returns every expense of the party, newest first.
func (s *Service) Expenses(ctx context.Context) ([]model.Expense, error) {
	p, err := s.Party(ctx)
	if err != nil {
		return nil, err
	}
	chunks, err := s.loadChunks(ctx, p)
	if err != nil {
		return nil, err
	}

	var all []model.Expense
	for _, c := range chunks {
		all = append(all, c.Expenses...)
	}
	// Backdated expenses can sort below older chunks' expenses.
	slices.SortStableFunc(all, func(a, b model.Expense) int {
		return strings.Compare(id.LocalPart(b.ID), id.LocalPart(a.ID))
	})
	return all, nil
}

// Balances computes every participant's balance, including archived ones.
// Chunks are aggregated concurrently and merged.
func (s *Service) Balances(ctx context.Context) (map[string]model.Balance, []split.Diagnostic, error) {
	p, err := s.Party(ctx)
	if err != nil {
		return nil, nil, err
	}
	participants := p.ParticipantIDs()

	results := make([]map[string]model.Balance, len(p.Chunks))
	diags := make([][]split.Diagnostic, len(p.Chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, ref := range p.Chunks {
		g.Go(func() error {
			c, err := s.loadChunk(gctx, ref.ID)
			if err != nil {
				return err
			}
			results[i] = balance.Aggregate(c.Expenses, participants,
				balance.WithDiagnostics(func(d split.Diagnostic) { diags[i] = append(diags[i], d) }),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("computing balances: %w", err)
	}

	// An empty party still reports every participant.
	results = append(results, balance.Aggregate(nil, participants))
	out := balance.Merge(results...)

	var all []split.Diagnostic
	for _, d := range diags {
		all = append(all, d...)
	}
	s.logDiagnostics(ctx, all)
	return out, all, nil
}

// ResolveExpense returns the distribution table of one expense.
func (s *Service) ResolveExpense(ctx context.Context, expenseID string) ([]model.ResolvedDistribution, []split.Diagnostic, error) {
	e, err := s.FindExpense(ctx, expenseID)
	if err != nil {
		return nil, nil, err
	}
	rows, diags := split.ResolveExpense(e)
	return rows, diags, nil
}

func (s *Service) partyHandle(ctx context.Context) (docstore.Handle[model.Party], error) {
	h, err := s.parties.Find(ctx, s.partyID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrPartyNotFound, s.partyID)
	}
	if err != nil {
		return nil, fmt.Errorf("opening party %s: %w", s.partyID, err)
	}
	return h, nil
}

// openChunk maps a missing chunk to ErrExpenseNotFound for expenseID.
func (s *Service) openChunk(ctx context.Context, chunkID, expenseID string) (docstore.Handle[model.Chunk], error) {
	h, err := s.chunks.Find(ctx, chunkID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrExpenseNotFound, expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("opening chunk %s: %w", chunkID, err)
	}
	return h, nil
}

func (s *Service) loadChunk(ctx context.Context, chunkID string) (model.Chunk, error) {
	h, err := s.chunks.Find(ctx, chunkID)
	if err != nil {
		return model.Chunk{}, fmt.Errorf("opening chunk %s: %w", chunkID, err)
	}
	c, err := h.Doc(ctx)
	if err != nil {
		return model.Chunk{}, fmt.Errorf("loading chunk %s: %w", chunkID, err)
	}
	return c, nil
}

// loadChunks loads the party's chunks concurrently, in party order.
func (s *Service) loadChunks(ctx context.Context, p model.Party) ([]model.Chunk, error) {
	out := make([]model.Chunk, len(p.Chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, ref := range p.Chunks {
		g.Go(func() error {
			c, err := s.loadChunk(gctx, ref.ID)
			out[i] = c
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) logDiagnostics(ctx context.Context, diags []split.Diagnostic) {
	for _, d := range diags {
		s.logger.WarnContext(ctx, d.Message,
			logging.FieldCode, string(d.Code),
			logging.FieldExpenseID, d.ExpenseID,
			logging.FieldPayer, d.Participant,
			logging.FieldAmount, d.Amount.Int64(),
		)
	}
}
