package meals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mealtrack/internal/metrics"
)

// Store is the authoritative persistence behind the registry and ledger.
type Store interface {
	InsertParticipant(ctx context.Context, p Participant) error
	FindByToken(ctx context.Context, token string) (*Participant, error)
	FindByID(ctx context.Context, id string) (*Participant, error)
	FindByNameAndTeam(ctx context.Context, name, teamName string) (*Participant, error)
	ListAll(ctx context.Context) ([]Participant, error)
	ExistingMobiles(ctx context.Context) (map[string]struct{}, error)
	MarkServed(ctx context.Context, participantID string, slot MealSlot) (Outcome, error)
	Stats(ctx context.Context) (Stats, error)
	FindAdmin(ctx context.Context, username string) (*Admin, error)
	CreateAdmin(ctx context.Context, a Admin) error
	Ping(ctx context.Context) error
}

// TokenCache remembers token -> participant id. Both are immutable, so the
// mapping never goes stale; meal flags are never cached.
type TokenCache interface {
	Get(ctx context.Context, token string) (string, error)
	Set(ctx context.Context, token, participantID string) error
}

// InsertFailure is a draft the store refused because of a uniqueness conflict.
type InsertFailure struct {
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
	Reason string `json:"reason"`
}

// InsertResult reports the outcome of InsertBatch.
type InsertResult struct {
	InsertedIDs []string        `json:"inserted_ids"`
	Failures    []InsertFailure `json:"failures"`
}

// ImportReport summarises one import run.
type ImportReport struct {
	Inserted    int             `json:"inserted"`
	InsertedIDs []string        `json:"inserted_ids"`
	Duplicates  int             `json:"duplicates"`
	Errors      []string        `json:"errors"`
	Failures    []InsertFailure `json:"failures"`
}

// ScanResult is what a scanning station gets back.
type ScanResult struct {
	Outcome     Outcome      `json:"-"`
	Participant *Participant `json:"participant,omitempty"`
}

// Service coordinates imports, lookups, meal marking and statistics.
type Service struct {
	store  Store
	tokens TokenGenerator
	cache  TokenCache
	now    func() time.Time
	log    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTokenCache enables read-through caching of token lookups.
func WithTokenCache(c TokenCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithTokenGenerator overrides the default HACK-prefixed generator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(s *Service) { s.tokens = g }
}

// WithClock overrides time.Now for created_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger used for cache warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates a service backed by a store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		tokens: NewTokenGenerator(""),
		now:    time.Now,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the underlying store to collaborators such as the session gate.
func (s *Service) Store() Store { return s.store }

// InsertBatch assigns identity to every draft and persists it. Uniqueness
// conflicts raised by the store become failures; any other error aborts.
func (s *Service) InsertBatch(ctx context.Context, drafts []Draft) (InsertResult, error) {
	res := InsertResult{InsertedIDs: []string{}, Failures: []InsertFailure{}}
	for _, d := range drafts {
		p := Participant{
			ID:        uuid.NewString(),
			Name:      d.Name,
			Email:     d.Email,
			Mobile:    d.Mobile,
			TeamName:  d.TeamName,
			Token:     s.tokens.Generate(),
			CreatedAt: s.now().UTC(),
		}
		err := s.store.InsertParticipant(ctx, p)
		switch {
		case err == nil:
			res.InsertedIDs = append(res.InsertedIDs, p.ID)
		case errors.Is(err, ErrMobileTaken), errors.Is(err, ErrTokenTaken):
			res.Failures = append(res.Failures, InsertFailure{Name: d.Name, Mobile: d.Mobile, Reason: err.Error()})
		default:
			return res, fmt.Errorf("insert %q: %w", d.Mobile, err)
		}
	}
	return res, nil
}

// Import validates, deduplicates and inserts a batch of raw rows.
func (s *Service) Import(ctx context.Context, rows []RawInput) (ImportReport, error) {
	existing, err := s.store.ExistingMobiles(ctx)
	if err != nil {
		return ImportReport{}, err
	}
	filtered := FilterBatch(rows, existing)

	ins, err := s.InsertBatch(ctx, filtered.Accepted)
	report := ImportReport{
		Inserted:    len(ins.InsertedIDs),
		InsertedIDs: ins.InsertedIDs,
		Duplicates:  filtered.DuplicateCount,
		Errors:      filtered.Errors,
		Failures:    ins.Failures,
	}
	metrics.ObserveImport(report.Inserted, report.Duplicates, len(report.Errors), len(report.Failures))
	return report, err
}

// AddParticipant is the single-insert path; it applies the same validation and
// dedup rules as Import. The participant is nil unless it was inserted.
func (s *Service) AddParticipant(ctx context.Context, in RawInput) (*Participant, ImportReport, error) {
	report, err := s.Import(ctx, []RawInput{in})
	if err != nil || len(report.InsertedIDs) == 0 {
		return nil, report, err
	}
	p, err := s.store.FindByID(ctx, report.InsertedIDs[0])
	return p, report, err
}

// FindByToken resolves a scanned token. It returns nil, nil for unknown tokens.
func (s *Service) FindByToken(ctx context.Context, token string) (*Participant, error) {
	if token == "" {
		return nil, nil
	}
	if s.cache != nil {
		id, err := s.cache.Get(ctx, token)
		if err != nil {
			s.log.Warn("token cache read failed", slog.Any("err", err))
		} else if id != "" {
			p, err := s.store.FindByID(ctx, id)
			if err != nil || p != nil {
				return p, err
			}
		}
	}

	p, err := s.store.FindByToken(ctx, token)
	if err != nil || p == nil {
		return p, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, token, p.ID); err != nil {
			s.log.Warn("token cache write failed", slog.Any("err", err))
		}
	}
	return p, nil
}

// FindByID returns nil, nil for unknown ids.
func (s *Service) FindByID(ctx context.Context, id string) (*Participant, error) {
	return s.store.FindByID(ctx, id)
}

// FindByNameAndTeam is the participant login lookup.
func (s *Service) FindByNameAndTeam(ctx context.Context, name, teamName string) (*Participant, error) {
	return s.store.FindByNameAndTeam(ctx, name, teamName)
}

// ListAll returns the registry, newest first.
func (s *Service) ListAll(ctx context.Context) ([]Participant, error) {
	return s.store.ListAll(ctx)
}

// MarkServed applies the Pending -> Served transition for one slot.
func (s *Service) MarkServed(ctx context.Context, participantID string, slot MealSlot) (Outcome, error) {
	out, err := s.store.MarkServed(ctx, participantID, slot)
	if err != nil {
		return 0, err
	}
	metrics.ObserveScan(string(slot), out.String())
	return out, nil
}

// Scan resolves a token and marks the slot. Unknown tokens never reach the ledger.
func (s *Service) Scan(ctx context.Context, token string, slot MealSlot) (ScanResult, error) {
	p, err := s.FindByToken(ctx, token)
	if err != nil {
		return ScanResult{}, err
	}
	if p == nil {
		metrics.ObserveScan(string(slot), OutcomeParticipantNotFound.String())
		return ScanResult{Outcome: OutcomeParticipantNotFound}, nil
	}

	out, err := s.MarkServed(ctx, p.ID, slot)
	if err != nil {
		return ScanResult{}, err
	}
	if out == OutcomeMarked {
		p.markSlot(slot)
	}
	return ScanResult{Outcome: out, Participant: p}, nil
}

// ComputeStats recounts the registry; nothing is cached.
func (s *Service) ComputeStats(ctx context.Context) (Stats, error) {
	return s.store.Stats(ctx)
}
