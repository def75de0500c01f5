package handler

import "github.com/goccy/go-json"

// RecommendRequest is the body of POST /recommend. Both fields are decoded lazily so
// that absent, null and wrongly typed values can be told apart.
type RecommendRequest struct {
	UserState       json.RawMessage `json:"user_state"`
	RecentFoodNames json.RawMessage `json:"recent_food_names"`
}

// IntakeRequest is the body of POST /get-recommendation.
type IntakeRequest struct {
	Gender        string         `json:"gender" validate:"required,oneof=male female"`
	CurrentIntake map[string]any `json:"currentIntake" validate:"required"`
	FoodList      []any          `json:"foodList"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
