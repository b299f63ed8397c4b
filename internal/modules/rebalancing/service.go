// Package rebalancing predicts token returns and turns them into a new portfolio allocation.
package rebalancing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/rebalancer/internal/modules/features"
	"github.com/aristath/rebalancer/internal/modules/prediction"
	"github.com/aristath/rebalancer/internal/modules/redistribution"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrInvalidAllocation is returned for a missing, empty or malformed allocation
	ErrInvalidAllocation = errors.New("invalid allocation input")
	// ErrDuplicateToken is returned when an allocation names a token twice
	ErrDuplicateToken = errors.New("duplicate token in allocation")
	// ErrModelUnavailable is returned when no return model is loaded
	ErrModelUnavailable = errors.New("return model not loaded")
)

// Outcome labels reported to the metrics recorder
const (
	OutcomeOK                = "ok"
	OutcomeInvalidAllocation = "invalid_allocation"
	OutcomeInvalidStrategy   = "invalid_strategy"
	OutcomeUnknownToken      = "unknown_token"
	OutcomeModelUnavailable  = "model_unavailable"
	OutcomeError             = "error"
)

// Recorder receives rebalance observations
type Recorder interface {
	ObserveRebalance(strategy, outcome string, elapsed time.Duration)
	ObservePrediction(token string, return7d float64)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRebalance(string, string, time.Duration) {}
func (nopRecorder) ObservePrediction(string, float64)               {}

// Request is one rebalance request
type Request struct {
	Allocation Allocation `json:"allocation"`
	Strategy   string     `json:"strategy"`
}

// Result is the outcome of a rebalance
type Result struct {
	RunID         string                      `json:"run_id"`
	Strategy      redistribution.Strategy     `json:"strategy"`
	Model         string                      `json:"model"`
	Predictions   []redistribution.Prediction `json:"predictions"`
	NewAllocation map[string]float64          `json:"new_allocation"`
	GeneratedAt   time.Time                   `json:"generated_at"`
}

// Service coordinates feature lookup, return prediction and redistribution
type Service struct {
	lookup          features.Lookup
	model           prediction.Model
	defaultStrategy redistribution.Strategy
	recorder        Recorder
	log             zerolog.Logger
	now             func() time.Time
}

// NewService creates a new rebalancing service.
// model may be nil, in which case every rebalance fails with ErrModelUnavailable.
// recorder may be nil.
func NewService(
	lookup features.Lookup,
	model prediction.Model,
	defaultStrategy redistribution.Strategy,
	recorder Recorder,
	log zerolog.Logger,
) *Service {
	if !defaultStrategy.Valid() {
		defaultStrategy = redistribution.DefaultStrategy
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{
		lookup:          lookup,
		model:           model,
		defaultStrategy: defaultStrategy,
		recorder:        recorder,
		log:             log.With().Str("service", "rebalancing").Logger(),
		now:             time.Now,
	}
}

// ModelLoaded reports whether a return model is available
func (s *Service) ModelLoaded() bool {
	return s.model != nil
}

// ModelName returns the loaded model's name, or "" when none is loaded
func (s *Service) ModelName() string {
	if s.model == nil {
		return ""
	}
	return s.model.Name()
}

// DefaultStrategy returns the strategy used when a request names none
func (s *Service) DefaultStrategy() redistribution.Strategy {
	return s.defaultStrategy
}

// Rebalance predicts returns for every token in the allocation and redistributes
// weights under the requested strategy
func (s *Service) Rebalance(ctx context.Context, req Request) (*Result, error) {
	start := s.now()

	strategy := s.defaultStrategy
	if req.Allocation.Len() == 0 {
		s.recorder.ObserveRebalance(strategy.String(), OutcomeInvalidAllocation, time.Since(start))
		return nil, ErrInvalidAllocation
	}
	if req.Strategy != "" {
		parsed, err := redistribution.ParseStrategy(req.Strategy)
		if err != nil {
			s.recorder.ObserveRebalance("invalid", OutcomeInvalidStrategy, time.Since(start))
			return nil, err
		}
		strategy = parsed
	}

	result, err := s.rebalance(ctx, req.Allocation, strategy)
	s.recorder.ObserveRebalance(strategy.String(), outcomeFor(err), time.Since(start))
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("run_id", result.RunID).
		Str("strategy", strategy.String()).
		Int("tokens", len(result.Predictions)).
		Dur("duration", time.Since(start)).
		Msg("Computed rebalance")

	return result, nil
}

func (s *Service) rebalance(ctx context.Context, allocation Allocation, strategy redistribution.Strategy) (*Result, error) {
	tokens := allocation.Tokens()
	rows := make([][]float64, len(tokens))
	for i, token := range tokens {
		v, err := s.lookup.Get(ctx, token)
		if err != nil {
			return nil, err
		}
		rows[i] = v.Values()
	}

	if s.model == nil {
		return nil, ErrModelUnavailable
	}

	returns, err := prediction.PredictBatch(s.model, rows)
	if err != nil {
		return nil, fmt.Errorf("prediction failed: %w", err)
	}

	predictions := make([]redistribution.Prediction, len(tokens))
	for i, token := range tokens {
		predictions[i] = redistribution.Prediction{Token: token, Return7d: returns[i]}
		s.recorder.ObservePrediction(token, returns[i])
	}

	weights, err := redistribution.Redistribute(predictions, strategy)
	if err != nil {
		return nil, err
	}

	return &Result{
		RunID:         uuid.New().String(),
		Strategy:      strategy,
		Model:         s.model.Name(),
		Predictions:   predictions,
		NewAllocation: weights.Map(),
		GeneratedAt:   s.now().UTC(),
	}, nil
}

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrInvalidAllocation), errors.Is(err, ErrDuplicateToken):
		return OutcomeInvalidAllocation
	case errors.Is(err, redistribution.ErrInvalidStrategy):
		return OutcomeInvalidStrategy
	case errors.Is(err, features.ErrTokenNotFound):
		return OutcomeUnknownToken
	case errors.Is(err, ErrModelUnavailable):
		return OutcomeModelUnavailable
	}
	return OutcomeError
}
