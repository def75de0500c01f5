package domain

// Nutrient indexes into FoodItem.Nutrients.
type Nutrient int

const (
	Energy Nutrient = iota
	Carbohydrate
	Protein
	Fat
	Sugar
	Sodium
)

// NutrientCount is the number of per-item nutrient features.
const NutrientCount = 6

// NutrientNames are the catalog column names of the nutrient features, in feature order.
var NutrientNames = [NutrientCount]string{
	"energy",
	"carbohydrate",
	"protein",
	"fat",
	"sugar",
	"sodium",
}

type FoodItem struct {
	Name      string                 `json:"name"`
	Category  string                 `json:"category"`
	Nutrients [NutrientCount]float64 `json:"nutrients"`
}

func (f FoodItem) Energy() float64 {
	return f.Nutrients[Energy]
}
