package lookup

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/dan1650/plates-bot/internal/metrics"
	"github.com/dan1650/plates-bot/internal/observability"
	"github.com/dan1650/plates-bot/internal/storage"
)

// OutcomeKind describes what a search produced.
type OutcomeKind string

const (
	OutcomeSuppressed   OutcomeKind = "suppressed"
	OutcomeUnrecognized OutcomeKind = "unrecognized"
	OutcomeNoMatch      OutcomeKind = "no_match"
	OutcomeSingle       OutcomeKind = "single"
	OutcomeMultiple     OutcomeKind = "multiple"
)

// Choice is one selectable record of a multi-result search.
type Choice struct {
	Token  string
	Record storage.Record
}

// Outcome is the typed result handed to the presentation layer.
type Outcome struct {
	Kind    OutcomeKind
	Intent  Intent
	Records []storage.Record
	Choices []Choice
}

// SelectionStore keeps the selectable records of each user's latest search.
type SelectionStore interface {
	Register(ctx context.Context, userID int64, records []storage.Record) (map[int64]string, error)
	Resolve(ctx context.Context, userID int64, token string) (storage.Record, error)
}

// RateGate decides whether a user's query is dropped.
type RateGate interface {
	ShouldSuppress(userID int64, now time.Time) bool
}

// ServiceConfig holds service settings.
type ServiceConfig struct {
	// MaxChoices bounds how many records of a multi-result search are offered.
	MaxChoices int
}

// Service ties classification, planning and per-user state together.
type Service struct {
	classifier *Classifier
	planner    *Planner
	selections SelectionStore
	gate       RateGate
	logger     *observability.Logger
	config     ServiceConfig
}

// NewService creates a lookup service. gate may be nil to disable rate limiting.
func NewService(planner *Planner, selections SelectionStore, gate RateGate, logger *observability.Logger, cfg ServiceConfig) *Service {
	if cfg.MaxChoices <= 0 {
		cfg.MaxChoices = 10
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Service{
		classifier: NewClassifier(),
		planner:    planner,
		selections: selections,
		gate:       gate,
		logger:     logger,
		config:     cfg,
	}
}

// Admit reports whether a query from userID at now may proceed.
func (s *Service) Admit(userID int64, now time.Time) bool {
	if s.gate == nil {
		return true
	}
	if s.gate.ShouldSuppress(userID, now) {
		metrics.RecordSuppressed()
		return false
	}
	return true
}

// Classify returns the intent for text.
func (s *Service) Classify(text string) Intent {
	intent := s.classifier.Classify(text)
	metrics.RecordQuery(string(intent.Kind))
	return intent
}

// Search admits, classifies and runs a query in one call.
func (s *Service) Search(ctx context.Context, userID int64, text string, now time.Time) (*Outcome, error) {
	if !s.Admit(userID, now) {
		return &Outcome{Kind: OutcomeSuppressed}, nil
	}
	return s.Lookup(ctx, userID, s.Classify(text))
}

// Lookup runs a classified intent for userID. Multi-result outcomes replace
// the user's selection with the offered choices.
func (s *Service) Lookup(ctx context.Context, userID int64, intent Intent) (*Outcome, error) {
	if intent.Kind == IntentUnrecognized {
		return &Outcome{Kind: OutcomeUnrecognized, Intent: intent}, nil
	}

	log := s.logger.WithContext(ctx).WithUser(userID)
	start := time.Now()
	records, err := s.planner.Execute(ctx, intent)
	took := time.Since(start)
	if err != nil {
		metrics.RecordOutcome("error")
		log.Error().Err(err).
			Str("intent", string(intent.Kind)).
			Str("query", intent.Label()).
			Dur("took", took).
			Msg("Lookup failed")
		return nil, err
	}

	log.Info().
		Str("intent", string(intent.Kind)).
		Str("query", intent.Label()).
		Int("rows", len(records)).
		Dur("took", took).
		Msg("Lookup finished")

	out := &Outcome{Intent: intent, Records: records}
	switch len(records) {
	case 0:
		out.Kind = OutcomeNoMatch
	case 1:
		out.Kind = OutcomeSingle
	default:
		out.Kind = OutcomeMultiple
		out.Choices = s.register(ctx, userID, records)
	}
	metrics.RecordOutcome(string(out.Kind))
	return out, nil
}

// Select resolves a token from the user's latest multi-result search.
func (s *Service) Select(ctx context.Context, userID int64, token string) (storage.Record, error) {
	rec, err := s.selections.Resolve(ctx, userID, token)
	if errors.Is(err, ErrSelectionExpired) {
		metrics.RecordSelection(false)
		return storage.Record{}, err
	}
	if err != nil {
		s.logger.WithUser(userID).Warn().Err(err).Str("token", token).Msg("Selection store failed")
		metrics.RecordSelection(false)
		return storage.Record{}, errors.Mark(err, ErrSelectionExpired)
	}
	metrics.RecordSelection(true)
	return rec, nil
}

// register stores the first MaxChoices records and returns them as choices.
// A store failure is logged; the choices are still returned and will resolve
// as expired.
func (s *Service) register(ctx context.Context, userID int64, records []storage.Record) []Choice {
	offered := records
	if len(offered) > s.config.MaxChoices {
		offered = offered[:s.config.MaxChoices]
	}

	tokens, err := s.selections.Register(ctx, userID, offered)
	if err != nil {
		s.logger.WithUser(userID).Warn().Err(err).Msg("Failed to store selection")
	}

	choices := make([]Choice, 0, len(offered))
	for _, rec := range offered {
		tok, ok := tokens[rec.RowID]
		if !ok {
			tok = rec.Token()
		}
		choices = append(choices, Choice{Token: tok, Record: rec})
	}
	return choices
}
