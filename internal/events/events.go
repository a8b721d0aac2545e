// Package events defines the event payloads the meal-plan service consumes and produces.
package events

import "time"

// Event types.
const (
	TypeActivityCreated   = "activity.created"
	TypeProgramActivated  = "program.activated"
	TypeMealPlanGenerated = "mealplan.generated"
)

// ActivityCreated is emitted by the activity service when a workout is accepted. Exercises is
// optional; older producers send only the activity type and duration.
type ActivityCreated struct {
	ActivityID   string              `json:"activity_id"`
	TenantID     string              `json:"tenant_id"`
	UserID       string              `json:"user_id"`
	ActivityType string              `json:"activity_type"`
	StartedAt    time.Time           `json:"started_at"`
	DurationMin  int                 `json:"duration_min"`
	Source       string              `json:"source"`
	Version      string              `json:"version"`
	Exercises    []ExercisePerformed `json:"exercises,omitempty"`
}

// ExercisePerformed is one exercise inside an ActivityCreated payload.
type ExercisePerformed struct {
	Name     string         `json:"name"`
	IsCardio bool           `json:"is_cardio"`
	Sets     []SetPerformed `json:"sets,omitempty"`
}

// SetPerformed is one set of an exercise.
type SetPerformed struct {
	Reps        int     `json:"reps,omitempty"`
	WeightKg    float64 `json:"weight_kg,omitempty"`
	DurationMin float64 `json:"duration_min,omitempty"`
}

// ProgramActivated is emitted when a user starts (or stops) a training program.
type ProgramActivated struct {
	ProgramID   string       `json:"program_id"`
	TenantID    string       `json:"tenant_id"`
	UserID      string       `json:"user_id"`
	Name        string       `json:"name"`
	Category    string       `json:"category"`
	Active      bool         `json:"active"`
	Days        []ProgramDay `json:"days,omitempty"`
	ActivatedAt time.Time    `json:"activated_at"`
}

// ProgramDay is one day of the program structure.
type ProgramDay struct {
	Day   int    `json:"day"`
	Focus string `json:"focus"`
}

// MealPlanGenerated is published for every persisted plan.
type MealPlanGenerated struct {
	PlanID         string    `json:"plan_id"`
	TenantID       string    `json:"tenant_id"`
	UserID         string    `json:"user_id"`
	Date           string    `json:"date"`
	Meals          int       `json:"meals"`
	TotalNutrition Nutrients `json:"total_nutrition"`
	Target         Nutrients `json:"target"`
	Adjusted       bool      `json:"adjusted"`
	Restrictions   []string  `json:"restrictions"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// Nutrients is the integer macro vector carried on plan events.
type Nutrients struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fat      int `json:"fat"`
}
