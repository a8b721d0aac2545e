// Package domain orchestrates meal-plan generation over the catalog, workout feed and plan store.
package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"example.com/mealplan/internal/logger"
	"example.com/mealplan/internal/nutrition"
	"example.com/mealplan/internal/observability"
)

// ErrInvalidRequest wraps request validation failures raised below the API layer.
var ErrInvalidRequest = errors.New("invalid request")

// Cursor models the food listing pagination token.
type Cursor struct {
	Name string
	ID   string
}

// FoodCatalog supplies catalog items.
type FoodCatalog interface {
	AllFoods(ctx context.Context) ([]nutrition.FoodItem, error)
	ListFoods(ctx context.Context, query string, cursor *Cursor, limit int) ([]nutrition.FoodItem, *Cursor, error)
}

// WorkoutSource supplies the workout-tracking feed for one user.
type WorkoutSource interface {
	RecentWorkouts(ctx context.Context, tenantID, userID string, since time.Time) ([]nutrition.WorkoutRecord, error)
	ActivePrograms(ctx context.Context, tenantID, userID string) ([]nutrition.Program, error)
}

// PlanStore stores generated plans and records their outbox events.
type PlanStore interface {
	RecordPlan(ctx context.Context, record PlanRecord) error
	GetPlan(ctx context.Context, tenantID, planID string) (*PlanRecord, error)
}

// PlanRequest captures a generation request from the API layer.
type PlanRequest struct {
	TenantID          string
	UserID            string
	Target            nutrition.Target
	Meals             int
	Restrictions      string
	Preferences       string
	AdjustForWorkouts bool
	Date              time.Time
	Seed              *uint64
}

// PlanRecord is a generated plan with its audit metadata.
type PlanRecord struct {
	ID           string
	TenantID     string
	UserID       string
	Seed         uint64
	Target       nutrition.Target
	Restrictions []string
	Plan         nutrition.MealPlan
	CreatedAt    time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithWorkoutWindow sets how far back workouts are fetched.
func WithWorkoutWindow(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.window = window
		}
	}
}

// WithWorkoutContextRequired toggles the "any workout context" precondition.
func WithWorkoutContextRequired(required bool) Option {
	return func(s *Service) { s.requireContext = required }
}

// WithClock overrides the clock used for windows, seeds and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service orchestrates plan workflows.
type Service struct {
	foods          FoodCatalog
	workouts       WorkoutSource
	plans          PlanStore
	planner        *nutrition.Planner
	logger         *logger.Logger
	tracer         trace.Tracer
	window         time.Duration
	requireContext bool
	now            func() time.Time
}

// NewService constructs a Service.
func NewService(foods FoodCatalog, workouts WorkoutSource, plans PlanStore, planner *nutrition.Planner, opts ...Option) *Service {
	s := &Service{
		foods:          foods,
		workouts:       workouts,
		plans:          plans,
		planner:        planner,
		logger:         logger.NewNop(),
		tracer:         otel.Tracer(observability.TracerName),
		window:         nutrition.WorkoutWindow,
		requireContext: true,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.planner == nil {
		s.planner = nutrition.NewPlanner(nutrition.WithLogger(s.logger), nutrition.WithClock(s.now))
	}
	return s
}

// GeneratePlan loads the catalog and workout context, runs the planner and records the result.
func (s *Service) GeneratePlan(ctx context.Context, req PlanRequest) (*PlanRecord, error) {
	ctx, span := s.tracer.Start(ctx, "domain.GeneratePlan", trace.WithAttributes(
		attribute.Int("mealplan.meals", req.Meals),
		attribute.Bool("mealplan.adjust_for_workouts", req.AdjustForWorkouts),
	))
	defer span.End()

	start := s.now()
	record, err := s.generate(ctx, req)
	observability.RecordGeneration(outcomeFor(err), s.now().Sub(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	observability.RecordCalorieDeviation(record.Plan.TotalNutrition.Calories, record.Plan.EffectiveTarget.Calories)
	span.SetAttributes(attribute.String("mealplan.plan_id", record.ID))
	return record, nil
}

func (s *Service) generate(ctx context.Context, req PlanRequest) (*PlanRecord, error) {
	if strings.TrimSpace(req.TenantID) == "" || strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("%w: tenant and user are required", ErrInvalidRequest)
	}

	catalog, err := s.foods.AllFoods(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	var history nutrition.WorkoutHistory
	if s.requireContext || req.AdjustForWorkouts {
		history, err = s.loadHistory(ctx, req.TenantID, req.UserID)
		if err != nil {
			return nil, err
		}
		if s.requireContext && !history.HasContext() {
			return nil, nutrition.ErrNoWorkoutData
		}
	}

	seed := uint64(s.now().UnixNano())
	if req.Seed != nil {
		seed = *req.Seed
	}

	plan, err := s.planner.Generate(nutrition.Request{
		Catalog:           catalog,
		Target:            req.Target,
		Meals:             req.Meals,
		Restrictions:      req.Restrictions,
		Preferences:       req.Preferences,
		AdjustForWorkouts: req.AdjustForWorkouts,
		History:           history,
		Date:              req.Date,
	}, nutrition.NewRand(seed))
	if err != nil {
		return nil, err
	}

	record := PlanRecord{
		ID:           uuid.NewString(),
		TenantID:     req.TenantID,
		UserID:       req.UserID,
		Seed:         seed,
		Target:       req.Target,
		Restrictions: nutrition.ParseRestrictions(req.Restrictions),
		Plan:         plan,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.plans.RecordPlan(ctx, record); err != nil {
		return nil, fmt.Errorf("record plan: %w", err)
	}

	s.logger.Info("meal plan generated",
		"plan_id", record.ID,
		"user_id", req.UserID,
		"calories", plan.TotalNutrition.Calories,
		"target_calories", plan.EffectiveTarget.Calories,
		"adjusted", plan.Adjustment != nil,
	)
	return &record, nil
}

func (s *Service) loadHistory(ctx context.Context, tenantID, userID string) (nutrition.WorkoutHistory, error) {
	workouts, err := s.workouts.RecentWorkouts(ctx, tenantID, userID, s.now().Add(-s.window))
	if err != nil {
		return nutrition.WorkoutHistory{}, fmt.Errorf("load workouts: %w", err)
	}
	programs, err := s.workouts.ActivePrograms(ctx, tenantID, userID)
	if err != nil {
		return nutrition.WorkoutHistory{}, fmt.Errorf("load programs: %w", err)
	}
	return nutrition.WorkoutHistory{Workouts: workouts, Programs: programs}, nil
}

// GetPlan returns a previously generated plan, or nil when the tenant has no such plan.
func (s *Service) GetPlan(ctx context.Context, tenantID, planID string) (*PlanRecord, error) {
	ctx, span := s.tracer.Start(ctx, "domain.GetPlan")
	defer span.End()
	return s.plans.GetPlan(ctx, tenantID, planID)
}

// ListFoods pages through the catalog, optionally filtered by a name query.
func (s *Service) ListFoods(ctx context.Context, query string, cursor *Cursor, limit int) ([]nutrition.FoodItem, *Cursor, error) {
	ctx, span := s.tracer.Start(ctx, "domain.ListFoods")
	defer span.End()
	return s.foods.ListFoods(ctx, strings.TrimSpace(query), cursor, limit)
}

func outcomeFor(err error) string {
	var insufficient *nutrition.InsufficientCatalogError
	switch {
	case err == nil:
		return observability.OutcomeOK
	case errors.Is(err, nutrition.ErrEmptyCatalog):
		return observability.OutcomeEmptyCatalog
	case errors.As(err, &insufficient):
		return observability.OutcomeInsufficientCatalog
	case errors.Is(err, nutrition.ErrNoWorkoutData):
		return observability.OutcomeNoWorkoutData
	default:
		return observability.OutcomeError
	}
}
