package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/actuallystonmai/meal-recommendation-service/internal/catalog"
	"github.com/actuallystonmai/meal-recommendation-service/internal/domain"
	"github.com/actuallystonmai/meal-recommendation-service/internal/logging"
	"github.com/actuallystonmai/meal-recommendation-service/internal/metrics"
	"github.com/actuallystonmai/meal-recommendation-service/internal/model"
	"github.com/actuallystonmai/meal-recommendation-service/internal/numeric"
	"github.com/rs/zerolog"
)

const reasonFormat = "Selected with an AI nutrition score of %.1f."

// Scorer maps an N×18 feature matrix to N scores in one batch.
type Scorer interface {
	Score(x [][]float64) ([]float64, error)
}

// Engine scores the catalog for one user state and picks the top items. It holds only
// immutable data and is safe for concurrent use.
type Engine struct {
	catalog     *catalog.Catalog
	scorer      Scorer
	fingerprint string
	log         zerolog.Logger
}

func NewEngine(c *catalog.Catalog, scorer Scorer) *Engine {
	fp := c.Fingerprint()
	if f, ok := scorer.(model.Fingerprinter); ok {
		fp += "-" + f.Fingerprint()
	}
	return &Engine{
		catalog:     c,
		scorer:      scorer,
		fingerprint: fp,
		log:         logging.Component("engine"),
	}
}

func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Fingerprint identifies everything that determines the engine's output for a request:
// the catalog rows and, when the scorer can describe them, the scaler and model parameters.
func (e *Engine) Fingerprint() string {
	return e.fingerprint
}

// Recommend returns up to MaxRecommendations items, best first, never repeating a name
// from recent or from an earlier pick, and never repeating a category.
func (e *Engine) Recommend(ctx context.Context, state domain.UserState, recent []string) ([]domain.Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := e.catalog.Len()
	if n == 0 {
		return []domain.Recommendation{}, nil
	}

	// The user state is identical in every row; only the item nutrients vary.
	features := make([][]float64, n)
	for i := 0; i < n; i++ {
		features[i] = domain.FeatureVector(e.catalog.Item(i), state)
	}

	start := time.Now()
	scores, err := e.scorer.Score(features)
	metrics.InferenceDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.InferenceErrors.Inc()
		return nil, fmt.Errorf("score catalog: %w", err)
	}

	selected := selectTop(e.catalog, rank(scores), recent, domain.MaxRecommendations)

	recs := make([]domain.Recommendation, 0, len(selected))
	for _, s := range selected {
		item := e.catalog.Item(s.Index)
		calorie := numeric.Coerce(e.log, "calorie", item.Energy(), 0)
		score := numeric.Coerce(e.log, "score", s.Score, 0)
		recs = append(recs, domain.Recommendation{
			Name:    item.Name,
			Calorie: calorie,
			Score:   score,
			Reason:  fmt.Sprintf(reasonFormat, score),
		})
	}
	return recs, nil
}

// rank orders item indexes by descending score. Equal scores keep catalog order and NaN
// scores sort after every number.
func rank(scores []float64) []domain.ScoredItem {
	ranked := make([]domain.ScoredItem, len(scores))
	for i, s := range scores {
		ranked[i] = domain.ScoredItem{Index: i, Score: s}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return higher(ranked[a].Score, ranked[b].Score)
	})
	return ranked
}

func higher(x, y float64) bool {
	if math.IsNaN(x) {
		return false
	}
	if math.IsNaN(y) {
		return true
	}
	return x > y
}

// selectTop walks ranked greedily, skipping excluded names and used categories.
func selectTop(c *catalog.Catalog, ranked []domain.ScoredItem, recent []string, limit int) []domain.ScoredItem {
	usedNames := make(map[string]struct{}, len(recent)+limit)
	for _, name := range recent {
		usedNames[name] = struct{}{}
	}
	usedCategories := make(map[string]struct{}, limit)

	selected := make([]domain.ScoredItem, 0, limit)
	for _, r := range ranked {
		if len(selected) == limit {
			break
		}
		item := c.Item(r.Index)
		if _, ok := usedNames[item.Name]; ok {
			continue
		}
		if _, ok := usedCategories[item.Category]; ok {
			continue
		}
		selected = append(selected, r)
		usedNames[item.Name] = struct{}{}
		usedCategories[item.Category] = struct{}{}
	}
	return selected
}
