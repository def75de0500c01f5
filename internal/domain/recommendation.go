package domain

// MaxRecommendations is the number of items returned per request.
const MaxRecommendations = 3

type Recommendation struct {
	Name    string  `json:"recommend_menu"`
	Calorie float64 `json:"calorie"`
	Score   float64 `json:"score"`
	Reason  string  `json:"reason"`
}

type ScoredItem struct {
	Index int
	Score float64
}

type RecommendationResult struct {
	Recommendations []Recommendation
	CacheHit        bool
}

// Intake is a day's consumed nutrients as reported by a client.
type Intake struct {
	Calories float64
	Carbs    float64
	Protein  float64
	Fat      float64
	Sugar    float64
	Sodium   float64
}

// IntakeSummary folds a recommendation list into one display record.
type IntakeSummary struct {
	MenuName string  `json:"menuName"`
	Calories float64 `json:"calories"`
	Reason   string  `json:"reason"`
}
