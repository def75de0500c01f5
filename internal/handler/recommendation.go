package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/actuallystonmai/meal-recommendation-service/internal/domain"
	"github.com/actuallystonmai/meal-recommendation-service/internal/metrics"
	"github.com/actuallystonmai/meal-recommendation-service/internal/numeric"
	"github.com/actuallystonmai/meal-recommendation-service/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

var validate = validator.New()

// POST /recommend
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	status := http.StatusOK
	defer func() { metrics.RecordRequest("recommend", status, started) }()

	state, recent, err := h.decodeRecommendRequest(w, r)
	if err != nil {
		status = http.StatusInternalServerError
		h.log.Warn().Err(err).Msg("rejecting recommend request")
		writeError(w, status, err.Error())
		return
	}

	h.log.Debug().
		Float64("calorie_gap", state[0]-state[domain.NutrientCount]).
		Int("recent", len(recent)).
		Msg("recommend request")

	result, err := h.service.Recommend(r.Context(), state, recent)
	if err != nil {
		status = http.StatusInternalServerError
		h.log.Error().Err(err).Msg("recommendation failed")
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, status, result.Recommendations)
}

func (h *Handler) decodeRecommendRequest(w http.ResponseWriter, r *http.Request) (domain.UserState, []string, error) {
	var req RecommendRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		return domain.UserState{}, nil, fmt.Errorf("%w: invalid JSON body: %v", domain.ErrMalformedRequest, err)
	}

	raw := map[string]any{}
	if present(req.UserState) {
		if err := decodeNumbers(req.UserState, &raw); err != nil {
			return domain.UserState{}, nil, fmt.Errorf("%w: user_state must be an object", domain.ErrMalformedRequest)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	}

	var names []any
	if present(req.RecentFoodNames) {
		if err := decodeNumbers(req.RecentFoodNames, &names); err != nil {
			return domain.UserState{}, nil, fmt.Errorf("%w: recent_food_names must be a list", domain.ErrMalformedRequest)
		}
	}

	return service.UserStateFromMap(h.log, raw), service.NamesFromList(names), nil
}

// decodeNumbers keeps JSON numbers as json.Number so that a value outside the float64
// range fails only its own field.
func decodeNumbers(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

// present reports whether a raw field was sent with a non-null value.
func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// POST /get-recommendation
func (h *Handler) RecommendForIntake(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	status := http.StatusOK
	defer func() { metrics.RecordRequest("get_recommendation", status, started) }()

	var req IntakeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		status = http.StatusBadRequest
		writeError(w, status, "Missing data")
		return
	}
	req.Gender = strings.ToLower(strings.TrimSpace(req.Gender))
	if err := validate.Struct(req); err != nil {
		status = http.StatusBadRequest
		h.log.Debug().Err(err).Msg("invalid intake request")
		writeError(w, status, "Missing data")
		return
	}

	intake := domain.Intake{
		Calories: numeric.CoerceExtract(h.log, "calories", req.CurrentIntake["calories"], 0),
		Carbs:    numeric.CoerceExtract(h.log, "carbs", req.CurrentIntake["carbs"], 0),
		Protein:  numeric.CoerceExtract(h.log, "protein", req.CurrentIntake["protein"], 0),
		Fat:      numeric.CoerceExtract(h.log, "fat", req.CurrentIntake["fat"], 0),
		Sugar:    numeric.CoerceExtract(h.log, "sugar", req.CurrentIntake["sugar"], 0),
		Sodium:   numeric.CoerceExtract(h.log, "sodium", req.CurrentIntake["sodium"], 0),
	}

	summary, err := h.service.RecommendForIntake(r.Context(), req.Gender, intake, service.NamesFromList(req.FoodList))
	if err != nil {
		status = http.StatusInternalServerError
		h.log.Error().Err(err).Msg("intake recommendation failed")
		writeError(w, status, "recommendation failed")
		return
	}

	writeJSON(w, status, summary)
}
