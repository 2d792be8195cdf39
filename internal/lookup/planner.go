package lookup

import (
	"context"
	"time"

	"github.com/dan1650/plates-bot/internal/metrics"
	"github.com/dan1650/plates-bot/internal/observability"
	"github.com/dan1650/plates-bot/internal/storage"
)

// Registry is the read-only record source the planner queries.
type Registry interface {
	ByPlate(ctx context.Context, region string, number, limit int) ([]storage.Record, error)
	ByNumber(ctx context.Context, number, limit int) ([]storage.Record, error)
	ByPhoneExact(ctx context.Context, variants []string, limit int) ([]storage.Record, error)
	ByPhoneSuffix(ctx context.Context, suffixes []string, limit int) ([]storage.Record, error)
}

// PlannerConfig holds per-intent result caps.
type PlannerConfig struct {
	PlateLimit  int
	NumberLimit int
	PhoneLimit  int
}

// DefaultPlannerConfig returns the standard caps.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		PlateLimit:  50,
		NumberLimit: 100,
		PhoneLimit:  50,
	}
}

// Planner turns an intent into registry queries and runs them.
type Planner struct {
	registry Registry
	logger   *observability.Logger
	config   PlannerConfig
}

// NewPlanner creates a new planner. Zero caps fall back to the defaults.
func NewPlanner(registry Registry, logger *observability.Logger, cfg PlannerConfig) *Planner {
	def := DefaultPlannerConfig()
	if cfg.PlateLimit <= 0 {
		cfg.PlateLimit = def.PlateLimit
	}
	if cfg.NumberLimit <= 0 {
		cfg.NumberLimit = def.NumberLimit
	}
	if cfg.PhoneLimit <= 0 {
		cfg.PhoneLimit = def.PhoneLimit
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Planner{registry: registry, logger: logger, config: cfg}
}

// Execute runs the lookup for intent. Unrecognized intents are rejected
// with ErrUnrecognized; storage failures are marked with ErrStorage.
func (p *Planner) Execute(ctx context.Context, intent Intent) ([]storage.Record, error) {
	start := time.Now()
	defer func() {
		metrics.ObserveLatency(string(intent.Kind), time.Since(start))
	}()

	switch intent.Kind {
	case IntentPlate:
		recs, err := p.registry.ByPlate(ctx, intent.Region, intent.Number, p.config.PlateLimit)
		if err != nil {
			return nil, storageError(err, "plate lookup")
		}
		return recs, nil

	case IntentNumberOnly:
		recs, err := p.registry.ByNumber(ctx, intent.Number, p.config.NumberLimit)
		if err != nil {
			return nil, storageError(err, "number lookup")
		}
		return recs, nil

	case IntentPhone:
		return p.executePhone(ctx, intent.RawText)

	default:
		return nil, ErrUnrecognized
	}
}

// executePhone matches normalized variants exactly and, only if nothing
// matched, retries once with the OR of the 7- and 6-digit suffixes.
func (p *Planner) executePhone(ctx context.Context, raw string) ([]storage.Record, error) {
	digits := DigitsOnly(raw)
	if len(digits) < MinPhoneDigits {
		metrics.RecordPhonePhase("none")
		return nil, nil
	}

	variants := PhoneVariants(digits)
	recs, err := p.registry.ByPhoneExact(ctx, variants, p.config.PhoneLimit)
	if err != nil {
		return nil, storageError(err, "phone exact lookup")
	}
	if len(recs) > 0 {
		metrics.RecordPhonePhase("exact")
		return recs, nil
	}

	suffixes := Suffixes(digits)
	p.logger.Debug().
		Strs("variants", variants).
		Strs("suffixes", suffixes).
		Msg("No exact phone match, trying suffix match")

	recs, err = p.registry.ByPhoneSuffix(ctx, suffixes, p.config.PhoneLimit)
	if err != nil {
		return nil, storageError(err, "phone suffix lookup")
	}
	if len(recs) > 0 {
		metrics.RecordPhonePhase("suffix")
	} else {
		metrics.RecordPhonePhase("none")
	}
	return recs, nil
}
