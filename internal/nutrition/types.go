// Package nutrition builds daily meal plans from a food catalog and a macro-nutrient target.
package nutrition

import (
	"math"
	"time"
)

// FoodItem is an immutable catalog entry. Macro values apply to one serving.
type FoodItem struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fat         float64 `json:"fat"`
	ServingSize string  `json:"serving_size"`
	Category    string  `json:"category"`
}

// Macros holds the four tracked nutrients. It is used both for targets and for measured totals.
type Macros struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Add returns the element-wise sum.
func (m Macros) Add(o Macros) Macros {
	return Macros{
		Calories: m.Calories + o.Calories,
		Protein:  m.Protein + o.Protein,
		Carbs:    m.Carbs + o.Carbs,
		Fat:      m.Fat + o.Fat,
	}
}

// Sub returns the element-wise difference, floored at zero.
func (m Macros) Sub(o Macros) Macros {
	return Macros{
		Calories: math.Max(m.Calories-o.Calories, 0),
		Protein:  math.Max(m.Protein-o.Protein, 0),
		Carbs:    math.Max(m.Carbs-o.Carbs, 0),
		Fat:      math.Max(m.Fat-o.Fat, 0),
	}
}

// Scale multiplies every nutrient by f.
func (m Macros) Scale(f float64) Macros {
	return Macros{
		Calories: m.Calories * f,
		Protein:  m.Protein * f,
		Carbs:    m.Carbs * f,
		Fat:      m.Fat * f,
	}
}

// Rounded rounds every nutrient to the nearest integer.
func (m Macros) Rounded() Macros {
	return Macros{
		Calories: math.Round(m.Calories),
		Protein:  math.Round(m.Protein),
		Carbs:    math.Round(m.Carbs),
		Fat:      math.Round(m.Fat),
	}
}

// MacrosOf returns the per-serving macros of a food.
func MacrosOf(food FoodItem) Macros {
	return Macros{Calories: food.Calories, Protein: food.Protein, Carbs: food.Carbs, Fat: food.Fat}
}

// MealTemplate is a fixed slot in the day's schedule.
type MealTemplate struct {
	Name            string
	Time            string
	CalorieFraction float64
}

// FoodSelection is a food with a chosen quantity and the macros that quantity yields.
type FoodSelection struct {
	Name        string  `json:"name"`
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fat         float64 `json:"fat"`
	ServingSize string  `json:"serving_size"`
	Quantity    float64 `json:"quantity"`
}

// Macros returns the nutrients contributed by the selection.
func (s FoodSelection) Macros() Macros {
	return Macros{Calories: s.Calories, Protein: s.Protein, Carbs: s.Carbs, Fat: s.Fat}
}

// Meal is one scheduled eating occasion.
type Meal struct {
	Name   string          `json:"name"`
	Time   string          `json:"time"`
	Foods  []FoodSelection `json:"foods"`
	Totals Macros          `json:"totals"`
}

// Nutrition is the integer-valued total reported on a plan.
type Nutrition struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fat      int `json:"fat"`
}

// Target is the caller-facing daily goal.
type Target struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fat      int `json:"fat"`
}

// Macros converts the target for arithmetic.
func (t Target) Macros() Macros {
	return Macros{
		Calories: float64(t.Calories),
		Protein:  float64(t.Protein),
		Carbs:    float64(t.Carbs),
		Fat:      float64(t.Fat),
	}
}

// MealPlan is the final, immutable result of one generation request.
type MealPlan struct {
	Date            string      `json:"date"`
	TotalNutrition  Nutrition   `json:"totalNutrition"`
	Meals           []Meal      `json:"meals"`
	EffectiveTarget Target      `json:"effectiveTarget"`
	Adjustment      *Adjustment `json:"workoutAdjustment,omitempty"`
}

// Request bundles the inputs to a single generation.
type Request struct {
	Catalog           []FoodItem
	Target            Target
	Meals             int
	Restrictions      string
	Preferences       string
	AdjustForWorkouts bool
	History           WorkoutHistory
	Date              time.Time
}

func toNutrition(m Macros) Nutrition {
	r := m.Rounded()
	return Nutrition{
		Calories: int(r.Calories),
		Protein:  int(r.Protein),
		Carbs:    int(r.Carbs),
		Fat:      int(r.Fat),
	}
}

func toTarget(m Macros) Target {
	n := toNutrition(m)
	return Target{Calories: n.Calories, Protein: n.Protein, Carbs: n.Carbs, Fat: n.Fat}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
