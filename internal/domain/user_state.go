package domain

// UserFieldCount is the number of user state features: six targets then six current totals.
const UserFieldCount = 12

// FeatureCount is the width of a feature vector.
const FeatureCount = NutrientCount + UserFieldCount

// UserFieldNames are the user state keys in feature order.
var UserFieldNames = [UserFieldCount]string{
	"rec_cal", "rec_carb", "rec_pro", "rec_fat", "rec_sugar", "rec_na",
	"cur_cal", "cur_carb", "cur_pro", "cur_fat", "cur_sugar", "cur_na",
}

// UserState holds the 12 user features. Fields absent from a request stay 0.
type UserState [UserFieldCount]float64

// FeatureOrder returns the canonical 18 feature names the scaler and model were trained on.
func FeatureOrder() []string {
	order := make([]string, 0, FeatureCount)
	order = append(order, NutrientNames[:]...)
	order = append(order, UserFieldNames[:]...)
	return order
}

// UserFieldIndex returns the position of a user state key, or -1 if unknown.
func UserFieldIndex(name string) int {
	for i, n := range UserFieldNames {
		if n == name {
			return i
		}
	}
	return -1
}

// FeatureVector concatenates an item's nutrients with the user state.
func FeatureVector(item FoodItem, state UserState) []float64 {
	v := make([]float64, 0, FeatureCount)
	v = append(v, item.Nutrients[:]...)
	v = append(v, state[:]...)
	return v
}
