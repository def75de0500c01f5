package service

import (
	"context"
	"fmt"

	"github.com/actuallystonmai/meal-recommendation-service/internal/cache"
	"github.com/actuallystonmai/meal-recommendation-service/internal/domain"
	"github.com/actuallystonmai/meal-recommendation-service/internal/logging"
	"github.com/actuallystonmai/meal-recommendation-service/internal/metrics"
	"github.com/rs/zerolog"
)

// ResultCache stores engine output. Implementations must be safe for concurrent use.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]domain.Recommendation, bool, error)
	Set(ctx context.Context, key string, recs []domain.Recommendation) error
}

type Service struct {
	engine *Engine
	cache  ResultCache
	log    zerolog.Logger
}

// NewService wires the engine and an optional cache. A nil engine means startup resources
// failed to load; every recommendation call then fails with ErrResourcesUnavailable.
func NewService(engine *Engine, cache ResultCache) *Service {
	return &Service{
		engine: engine,
		cache:  cache,
		log:    logging.Component("service"),
	}
}

// Ready reports whether the catalog, scaler and model are loaded.
func (s *Service) Ready() bool {
	return s.engine != nil
}

func (s *Service) Recommend(ctx context.Context, state domain.UserState, recent []string) (*domain.RecommendationResult, error) {
	if s.engine == nil {
		return nil, domain.ErrResourcesUnavailable
	}

	var key string
	if s.cache != nil {
		key = cache.Key(s.engine.Fingerprint(), state, recent)
		cached, found, err := s.cache.Get(ctx, key)
		if err != nil {
			metrics.CacheErrors.WithLabelValues("get").Inc()
			s.log.Warn().Err(err).Msg("cache get failed")
		}
		if found {
			metrics.CacheHits.Inc()
			return &domain.RecommendationResult{
				Recommendations: cached,
				CacheHit:        true,
			}, nil
		}
		metrics.CacheMisses.Inc()
	}

	recs, err := s.engine.Recommend(ctx, state, recent)
	if err != nil {
		return nil, err
	}
	metrics.RecommendationsReturned.Observe(float64(len(recs)))

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, recs); err != nil {
			metrics.CacheErrors.WithLabelValues("set").Inc()
			s.log.Warn().Err(err).Msg("cache set failed")
		}
	}

	return &domain.RecommendationResult{
		Recommendations: recs,
		CacheHit:        false,
	}, nil
}

// RecommendForIntake recommends against the gender's daily targets and folds the result
// into a single summary record.
func (s *Service) RecommendForIntake(ctx context.Context, gender string, intake domain.Intake, eaten []string) (*domain.IntakeSummary, error) {
	state, err := IntakeUserState(gender, intake)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Float64("calorie_gap", state[0]-state[domain.NutrientCount]).
		Int("recent", len(eaten)).
		Msg("intake recommendation requested")

	result, err := s.Recommend(ctx, state, eaten)
	if err != nil {
		return nil, fmt.Errorf("recommend for intake: %w", err)
	}

	summary := Summarize(result.Recommendations)
	return &summary, nil
}
