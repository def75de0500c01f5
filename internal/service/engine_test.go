package service

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/actuallystonmai/meal-recommendation-service/internal/catalog"
	"github.com/actuallystonmai/meal-recommendation-service/internal/domain"
	"github.com/actuallystonmai/meal-recommendation-service/internal/model"
)

// fixedScorer returns scores in catalog order and records the matrix it was given.
type fixedScorer struct {
	scores []float64
	err    error
	got    [][]float64
}

func (f *fixedScorer) Score(x [][]float64) ([]float64, error) {
	f.got = x
	if f.err != nil {
		return nil, f.err
	}
	return f.scores, nil
}

func food(name, category string, energy float64) domain.FoodItem {
	return domain.FoodItem{Name: name, Category: category, Nutrients: [6]float64{energy, 1, 2, 3, 4, 5}}
}

func names(recs []domain.Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Name
	}
	return out
}

func TestRecommendSkipsUsedCategory(t *testing.T) {
	c := catalog.New([]domain.FoodItem{
		food("A", "X", 100),
		food("B", "X", 200),
		food("C", "Y", 300),
	})
	e := NewEngine(c, &fixedScorer{scores: []float64{0.7, 0.9, 0.5}})

	recs, err := e.Recommend(context.Background(), domain.UserState{}, nil)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if got := names(recs); !reflect.DeepEqual(got, []string{"B", "C"}) {
		t.Fatalf("expected [B C], got %v", got)
	}
	if recs[0].Calorie != 200 || recs[0].Score != 0.9 {
		t.Errorf("unexpected first record %+v", recs[0])
	}
	if recs[0].Reason != "Selected with an AI nutrition score of 0.9." {
		t.Errorf("unexpected reason %q", recs[0].Reason)
	}
}

func TestRecommendExcludesRecentNames(t *testing.T) {
	c := catalog.New([]domain.FoodItem{
		food("A", "X", 100),
		food("B", "Y", 200),
		food("C", "Z", 300),
		food("D", "W", 400),
	})
	e := NewEngine(c, &fixedScorer{scores: []float64{4, 3, 2, 1}})

	recs, err := e.Recommend(context.Background(), domain.UserState{}, []string{"A", "C", "unknown"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if got := names(recs); !reflect.DeepEqual(got, []string{"B", "D"}) {
		t.Fatalf("expected [B D], got %v", got)
	}
}

func TestRecommendAtMostThreeDistinct(t *testing.T) {
	c := catalog.New([]domain.FoodItem{
		food("A", "X", 1),
		food("A", "Y", 2),
		food("B", "X", 3),
		food("C", "Z", 4),
		food("D", "W", 5),
		food("E", "V", 6),
	})
	e := NewEngine(c, &fixedScorer{scores: []float64{6, 5, 4, 3, 2, 1}})

	recs, err := e.Recommend(context.Background(), domain.UserState{}, nil)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	// the second "A" repeats a name and "B" repeats category X
	if got := names(recs); !reflect.DeepEqual(got, []string{"A", "C", "D"}) {
		t.Fatalf("expected [A C D], got %v", got)
	}
}

func TestRecommendTiesKeepCatalogOrder(t *testing.T) {
	c := catalog.New([]domain.FoodItem{
		food("A", "X", 1),
		food("B", "Y", 1),
		food("C", "Z", 1),
		food("D", "W", 1),
	})
	e := NewEngine(c, &fixedScorer{scores: []float64{1, 2, 1, 2}})

	recs, err := e.Recommend(context.Background(), domain.UserState{}, nil)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if got := names(recs); !reflect.DeepEqual(got, []string{"B", "D", "A"}) {
		t.Fatalf("expected [B D A], got %v", got)
	}
}

func TestRecommendSanitizesNonFiniteValues(t *testing.T) {
	c := catalog.New([]domain.FoodItem{
		{Name: "A", Category: "X", Nutrients: [6]float64{math.Inf(1)}},
		{Name: "B", Category: "Y", Nutrients: [6]float64{math.NaN()}},
		{Name: "C", Category: "Z", Nutrients: [6]float64{50}},
	})
	e := NewEngine(c, &fixedScorer{scores: []float64{math.Inf(1), 1, math.NaN()}})

	recs, err := e.Recommend(context.Background(), domain.UserState{}, nil)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	// NaN ranks last
	if got := names(recs); !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Fatalf("expected [A B C], got %v", got)
	}
	for _, r := range recs {
		if math.IsNaN(r.Calorie) || math.IsInf(r.Calorie, 0) || math.IsNaN(r.Score) || math.IsInf(r.Score, 0) {
			t.Errorf("non-finite value leaked: %+v", r)
		}
	}
	if recs[0].Score != 0 || recs[0].Calorie != 0 {
		t.Errorf("expected infinite values clamped to 0, got %+v", recs[0])
	}
	if recs[2].Reason != "Selected with an AI nutrition score of 0.0." {
		t.Errorf("unexpected reason %q", recs[2].Reason)
	}
}

func TestRecommendBuildsFeatureRows(t *testing.T) {
	c := catalog.New([]domain.FoodItem{
		{Name: "A", Category: "X", Nutrients: [6]float64{1, 2, 3, 4, 5, 6}},
		{Name: "B", Category: "Y", Nutrients: [6]float64{7, 8, 9, 10, 11, 12}},
	})
	scorer := &fixedScorer{scores: []float64{1, 2}}
	e := NewEngine(c, scorer)

	state := domain.UserState{2500, 324, 60, 54, 50, 2000, 1, 2, 3, 4, 5, 6}
	if _, err := e.Recommend(context.Background(), state, nil); err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if len(scorer.got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(scorer.got))
	}
	want := []float64{7, 8, 9, 10, 11, 12, 2500, 324, 60, 54, 50, 2000, 1, 2, 3, 4, 5, 6}
	if !reflect.DeepEqual(scorer.got[1], want) {
		t.Errorf("expected row %v, got %v", want, scorer.got[1])
	}
}

func TestRecommendEmptyUserStateAndCatalog(t *testing.T) {
	e := NewEngine(catalog.New(nil), &fixedScorer{})

	recs, err := e.Recommend(context.Background(), domain.UserState{}, nil)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Errorf("expected empty non-nil list, got %v", recs)
	}
}

func TestRecommendPropagatesInferenceError(t *testing.T) {
	c := catalog.New([]domain.FoodItem{food("A", "X", 1)})
	e := NewEngine(c, &fixedScorer{err: &model.ModelInferenceError{Msg: "shape mismatch"}})

	_, err := e.Recommend(context.Background(), domain.UserState{}, nil)
	if !model.IsModelInferenceError(err) {
		t.Fatalf("expected ModelInferenceError, got %v", err)
	}
}

func TestRecommendCanceledContext(t *testing.T) {
	c := catalog.New([]domain.FoodItem{food("A", "X", 1)})
	e := NewEngine(c, &fixedScorer{scores: []float64{1}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Recommend(ctx, domain.UserState{}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRecommendDeterministic(t *testing.T) {
	items := []domain.FoodItem{
		food("A", "X", 1), food("B", "Y", 2), food("C", "X", 3), food("D", "Z", 4), food("E", "W", 5),
	}
	c := catalog.New(items)
	e := NewEngine(c, &fixedScorer{scores: []float64{0.3, 0.3, 0.9, 0.1, 0.3}})

	first, err := e.Recommend(context.Background(), domain.UserState{1}, []string{"B"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	second, err := e.Recommend(context.Background(), domain.UserState{1}, []string{"B"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical output, got %v and %v", first, second)
	}
	if got := names(first); !reflect.DeepEqual(got, []string{"C", "E", "D"}) {
		t.Errorf("expected [C E D], got %v", got)
	}
}

func TestRecommendWithModelPipeline(t *testing.T) {
	c := catalog.New([]domain.FoodItem{
		{Name: "Light", Category: "Salad", Nutrients: [6]float64{150, 10, 5, 3, 2, 200}},
		{Name: "Heavy", Category: "Fried", Nutrients: [6]float64{900, 80, 30, 50, 10, 1500}},
	})
	mean := make([]float64, domain.FeatureCount)
	scale := make([]float64, domain.FeatureCount)
	for i := range scale {
		scale[i] = 1
	}
	// One stump: energy below 500 scores 1, otherwise 0.
	ensemble := &model.TreeEnsemble{
		Trees: []model.Tree{{
			LeftChildren:    []int{1, -1, -1},
			RightChildren:   []int{2, -1, -1},
			SplitIndices:    []int{0, 0, 0},
			SplitConditions: []float64{500, 1, 0},
			DefaultLeft:     []bool{false, false, false},
		}},
		NumFeature: domain.FeatureCount,
	}
	e := NewEngine(c, model.Pipeline{
		Scaler:    &model.StandardScaler{Mean: mean, Scale: scale},
		Regressor: ensemble,
	})

	recs, err := e.Recommend(context.Background(), domain.UserState{}, nil)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if got := names(recs); !reflect.DeepEqual(got, []string{"Light", "Heavy"}) {
		t.Fatalf("expected [Light Heavy], got %v", got)
	}
}
