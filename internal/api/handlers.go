// Package api exposes HTTP handlers for the meal-plan service.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/mealplan/internal/auth"
	"example.com/mealplan/internal/domain"
	"example.com/mealplan/internal/logger"
	"example.com/mealplan/internal/nutrition"
	"example.com/mealplan/internal/persistence"
)

const (
	defaultFoodsLimit = 20
	maxFoodsLimit     = 100
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
	logger  *logger.Logger
}

// NewHandler builds a Handler. A nil logger discards output.
func NewHandler(service *domain.Service, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{service: service, logger: log.With("component", "api")}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/meal-plans", h.mealPlans)
	mux.HandleFunc("/v1/meal-plans/", h.mealPlanByID)
	mux.HandleFunc("/v1/foods", h.foods)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) mealPlans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	h.createMealPlan(w, r)
}

func (h *Handler) mealPlanByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/meal-plans/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing meal plan id")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	h.getMealPlan(w, r, id)
}

func (h *Handler) createMealPlan(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeMealPlansWrite)
	if !ok {
		return
	}

	var req CreateMealPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	date, err := req.Validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	record, err := h.service.GeneratePlan(r.Context(), domain.PlanRequest{
		TenantID:          claims.TenantID,
		UserID:            req.UserID,
		Target:            req.Target,
		Meals:             req.Meals,
		Restrictions:      req.Restrictions,
		Preferences:       req.Preferences,
		AdjustForWorkouts: req.AdjustForWorkouts,
		Date:              date,
		Seed:              req.Seed,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMealPlanView(*record))
}

func (h *Handler) getMealPlan(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := requireScope(w, r, auth.ScopeMealPlansRead, auth.ScopeMealPlansWrite)
	if !ok {
		return
	}

	record, err := h.service.GetPlan(r.Context(), claims.TenantID, id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "not_found", "meal plan not found")
		return
	}
	writeJSON(w, http.StatusOK, toMealPlanView(*record))
}

func (h *Handler) foods(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := requireScope(w, r, auth.ScopeFoodsRead); !ok {
		return
	}

	limit := defaultFoodsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "validation_failed", "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxFoodsLimit)
	}

	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	items, next, err := h.service.ListFoods(r.Context(), r.URL.Query().Get("query"), cursor, limit)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if items == nil {
		items = []nutrition.FoodItem{}
	}

	writeJSON(w, http.StatusOK, ListFoodsResponse{
		Items:      items,
		NextCursor: persistence.EncodeCursor(next),
	})
}

// requireScope writes 401/403 and returns false unless the caller holds one of scopes.
func requireScope(w http.ResponseWriter, r *http.Request, scopes ...string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	if !claims.HasAnyScope(scopes...) {
		writeError(w, http.StatusForbidden, "forbidden", fmt.Sprintf("scope %s required", scopes[0]))
		return nil, false
	}
	return claims, true
}

// writeDomainError maps generation and infrastructure failures to status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var insufficient *nutrition.InsufficientCatalogError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, nutrition.ErrEmptyCatalog):
		writeError(w, http.StatusUnprocessableEntity, "no_foods_available", err.Error())
	case errors.As(err, &insufficient):
		writeError(w, http.StatusUnprocessableEntity, "insufficient_catalog", insufficient.Error())
	case errors.Is(err, nutrition.ErrNoWorkoutData):
		writeError(w, http.StatusConflict, "no_workout_data", err.Error())
	default:
		h.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

// CreateMealPlanRequest is the payload for POST /v1/meal-plans.
type CreateMealPlanRequest struct {
	UserID            string           `json:"user_id"`
	Target            nutrition.Target `json:"target"`
	Meals             int              `json:"meals"`
	Restrictions      string           `json:"restrictions"`
	Preferences       string           `json:"preferences"`
	AdjustForWorkouts bool             `json:"adjust_for_workouts"`
	Date              string           `json:"date,omitempty"`
	Seed              *uint64          `json:"seed,omitempty"`
}

// Validate checks the request and returns the parsed plan date (zero when omitted).
func (r CreateMealPlanRequest) Validate() (time.Time, error) {
	if strings.TrimSpace(r.UserID) == "" {
		return time.Time{}, errors.New("user_id is required")
	}
	if r.Target.Calories <= 0 {
		return time.Time{}, errors.New("target.calories must be > 0")
	}
	if r.Target.Protein < 0 || r.Target.Carbs < 0 || r.Target.Fat < 0 {
		return time.Time{}, errors.New("target macros must be >= 0")
	}
	if r.Meals < 0 {
		return time.Time{}, errors.New("meals must be >= 0")
	}
	if r.Date == "" {
		return time.Time{}, nil
	}
	date, err := time.Parse(time.DateOnly, r.Date)
	if err != nil {
		return time.Time{}, errors.New("date must be formatted YYYY-MM-DD")
	}
	return date, nil
}

// MealPlanView is the response body for generated and stored plans.
type MealPlanView struct {
	PlanID       string           `json:"plan_id"`
	UserID       string           `json:"user_id"`
	Seed         string           `json:"seed"`
	Target       nutrition.Target `json:"target"`
	Restrictions []string         `json:"restrictions"`
	CreatedAt    time.Time        `json:"created_at"`
	nutrition.MealPlan
}

// ListFoodsResponse packages catalog pages.
type ListFoodsResponse struct {
	Items      []nutrition.FoodItem `json:"items"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

func toMealPlanView(record domain.PlanRecord) MealPlanView {
	restrictions := record.Restrictions
	if restrictions == nil {
		restrictions = []string{}
	}
	return MealPlanView{
		PlanID:       record.ID,
		UserID:       record.UserID,
		Seed:         strconv.FormatUint(record.Seed, 10),
		Target:       record.Target,
		Restrictions: restrictions,
		CreatedAt:    record.CreatedAt,
		MealPlan:     record.Plan,
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, map[string]string{
		"type":   code,
		"detail": detail,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
