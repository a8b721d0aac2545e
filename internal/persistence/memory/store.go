// Package memory is an in-process store used when no Postgres URL is configured and in tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/mealplan/internal/domain"
	"example.com/mealplan/internal/events"
	"example.com/mealplan/internal/nutrition"
	"example.com/mealplan/internal/observability"
)

type userKey struct {
	tenantID string
	userID   string
}

// Store keeps foods, workouts, programs and plans in memory. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	foods     []nutrition.FoodItem
	workouts  map[userKey][]nutrition.WorkoutRecord
	programs  map[userKey]map[string]nutrition.Program
	plans     []domain.PlanRecord
	published []events.MealPlanGenerated
}

// NewStore returns a store seeded with foods.
func NewStore(foods ...nutrition.FoodItem) *Store {
	s := &Store{
		workouts: make(map[userKey][]nutrition.WorkoutRecord),
		programs: make(map[userKey]map[string]nutrition.Program),
	}
	_ = s.UpsertFoods(context.Background(), foods)
	return s
}

// UpsertFoods inserts or replaces foods by name.
func (s *Store) UpsertFoods(_ context.Context, foods []nutrition.FoodItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, food := range foods {
		idx := slices.IndexFunc(s.foods, func(f nutrition.FoodItem) bool {
			return strings.EqualFold(f.Name, food.Name)
		})
		if idx >= 0 {
			food.ID = s.foods[idx].ID
			s.foods[idx] = food
			continue
		}
		if food.ID == "" {
			food.ID = uuid.NewString()
		}
		s.foods = append(s.foods, food)
	}
	slices.SortStableFunc(s.foods, compareFoods)
	return nil
}

// AllFoods returns the catalog ordered by name.
func (s *Store) AllFoods(context.Context) ([]nutrition.FoodItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.foods), nil
}

// ListFoods pages through foods whose name contains query, ordered by (name, id).
func (s *Store) ListFoods(_ context.Context, query string, cursor *domain.Cursor, limit int) ([]nutrition.FoodItem, *domain.Cursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query = strings.ToLower(query)
	out := make([]nutrition.FoodItem, 0, limit)
	for _, food := range s.foods {
		if query != "" && !strings.Contains(strings.ToLower(food.Name), query) {
			continue
		}
		if cursor != nil && compareFoods(food, nutrition.FoodItem{Name: cursor.Name, ID: cursor.ID}) <= 0 {
			continue
		}
		out = append(out, food)
		if len(out) == limit {
			break
		}
	}

	var next *domain.Cursor
	if limit > 0 && len(out) == limit {
		last := out[len(out)-1]
		next = &domain.Cursor{Name: last.Name, ID: last.ID}
	}
	return out, next, nil
}

// SaveWorkout stores or replaces a workout by ID.
func (s *Store) SaveWorkout(_ context.Context, tenantID string, workout nutrition.WorkoutRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := userKey{tenantID, workout.UserID}
	list := s.workouts[key]
	if idx := slices.IndexFunc(list, func(w nutrition.WorkoutRecord) bool { return w.ID == workout.ID }); idx >= 0 {
		list[idx] = workout
	} else {
		list = append(list, workout)
	}
	s.workouts[key] = list
	observability.RecordWorkoutProjected(workout.PerformedAt)
	return nil
}

// SaveProgram stores or replaces a program by ID.
func (s *Store) SaveProgram(_ context.Context, tenantID string, program nutrition.Program) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := userKey{tenantID, program.UserID}
	if s.programs[key] == nil {
		s.programs[key] = make(map[string]nutrition.Program)
	}
	s.programs[key][program.ID] = program
	return nil
}

// RecentWorkouts returns the user's workouts performed at or after since, oldest first.
func (s *Store) RecentWorkouts(_ context.Context, tenantID, userID string, since time.Time) ([]nutrition.WorkoutRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []nutrition.WorkoutRecord
	for _, w := range s.workouts[userKey{tenantID, userID}] {
		if !w.PerformedAt.Before(since) {
			out = append(out, w)
		}
	}
	slices.SortStableFunc(out, func(a, b nutrition.WorkoutRecord) int {
		return a.PerformedAt.Compare(b.PerformedAt)
	})
	return out, nil
}

// ActivePrograms returns the user's active programs ordered by ID.
func (s *Store) ActivePrograms(_ context.Context, tenantID, userID string) ([]nutrition.Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []nutrition.Program
	for _, p := range s.programs[userKey{tenantID, userID}] {
		if p.Active {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b nutrition.Program) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// RecordPlan stores the plan and its event.
func (s *Store) RecordPlan(_ context.Context, record domain.PlanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans = append(s.plans, record)
	s.published = append(s.published, record.Event())
	observability.RecordPlanPersisted(record.CreatedAt)
	return nil
}

// GetPlan returns the tenant's plan with the given ID, or nil.
func (s *Store) GetPlan(_ context.Context, tenantID, planID string) (*domain.PlanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.plans {
		if p.TenantID == tenantID && p.ID == planID {
			return &p, nil
		}
	}
	return nil, nil
}

// Plans returns every recorded plan.
func (s *Store) Plans() []domain.PlanRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.plans)
}

// Events returns the plan events recorded so far.
func (s *Store) Events() []events.MealPlanGenerated {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.published)
}

func compareFoods(a, b nutrition.FoodItem) int {
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
