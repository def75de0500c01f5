package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/actuallystonmai/meal-recommendation-service/internal/domain"
)

const (
	noRecommendationName   = "No recommendation"
	noRecommendationReason = "No menu matches the conditions."
)

// Recommended daily intake per gender, in feature order: kcal, carbs g, protein g, fat g,
// sugar g, sodium mg.
var recommendedIntake = map[string][domain.NutrientCount]float64{
	"male":   {2500, 324, 60, 54, 50, 2000},
	"female": {2000, 270, 50, 45, 50, 2000},
}

// IntakeUserState combines a gender's recommended intake with what was eaten so far.
func IntakeUserState(gender string, intake domain.Intake) (domain.UserState, error) {
	targets, ok := recommendedIntake[strings.ToLower(strings.TrimSpace(gender))]
	if !ok {
		return domain.UserState{}, fmt.Errorf("%w: %q", domain.ErrUnknownGender, gender)
	}

	var state domain.UserState
	copy(state[:domain.NutrientCount], targets[:])
	current := [domain.NutrientCount]float64{
		intake.Calories, intake.Carbs, intake.Protein, intake.Fat, intake.Sugar, intake.Sodium,
	}
	copy(state[domain.NutrientCount:], current[:])
	return state, nil
}

// Summarize folds ranked recommendations into one display record.
func Summarize(recs []domain.Recommendation) domain.IntakeSummary {
	if len(recs) == 0 {
		return domain.IntakeSummary{
			MenuName: noRecommendationName,
			Calories: 0,
			Reason:   noRecommendationReason,
		}
	}

	names := make([]string, len(recs))
	reasons := make([]string, len(recs))
	for i, r := range recs {
		names[i] = fmt.Sprintf("%d. %s", i+1, r.Name)
		reasons[i] = fmt.Sprintf("[%d] %s (%skcal)\n-> %s",
			i+1, r.Name, strconv.FormatFloat(r.Calorie, 'f', -1, 64), r.Reason)
	}

	return domain.IntakeSummary{
		MenuName: strings.Join(names, " / "),
		Calories: recs[0].Calorie,
		Reason:   strings.Join(reasons, "\n\n"),
	}
}
