package nutrition

import (
	"cmp"
	"math"
	"slices"
	"strings"
)

const (
	ceilingRatio    = 1.10
	nearCeiling     = 0.90
	lastMealCutoff  = 0.95
	candidateMargin = 1.5
)

// Accumulator carries the running totals between selection steps.
type Accumulator struct {
	Daily Macros
	Meal  Macros
}

// With returns the accumulator after recording sel.
func (a Accumulator) With(sel FoodSelection) Accumulator {
	m := sel.Macros()
	return Accumulator{Daily: a.Daily.Add(m), Meal: a.Meal.Add(m)}
}

// StartMeal resets the meal totals and keeps the daily ones.
func (a Accumulator) StartMeal() Accumulator {
	return Accumulator{Daily: a.Daily}
}

// Assembler picks foods for individual meals against a fixed daily target.
type Assembler struct {
	catalog []FoodItem
	daily   Macros
	rng     Rand
}

// NewAssembler returns an assembler over an already filtered catalog.
func NewAssembler(catalog []FoodItem, daily Macros, rng Rand) *Assembler {
	return &Assembler{catalog: catalog, daily: daily, rng: rng}
}

// MealTarget is the template share of the daily target, or the remainder for the final meal.
func (a *Assembler) MealTarget(tmpl MealTemplate, last bool, acc Accumulator) Macros {
	if last {
		return a.daily.Sub(acc.Daily)
	}
	return a.daily.Scale(tmpl.CalorieFraction)
}

// FoodCount draws how many foods the meal should contain.
func (a *Assembler) FoodCount(tmpl MealTemplate, last bool, acc Accumulator) int {
	name := strings.ToLower(tmpl.Name)
	var count int
	switch {
	case strings.Contains(name, "snack"):
		count = 1 + a.rng.IntN(2)
	case strings.Contains(name, "breakfast"):
		count = 2 + a.rng.IntN(2)
	case strings.Contains(name, "lunch"), strings.Contains(name, "dinner"):
		count = 2 + a.rng.IntN(3)
	default:
		count = 2
	}
	if last && acc.Daily.Calories >= a.daily.Calories*lastMealCutoff {
		count = max(1, count-2)
	}
	return count
}

// Meal assembles one meal and returns it with the updated accumulator.
func (a *Assembler) Meal(tmpl MealTemplate, last bool, acc Accumulator) (Meal, Accumulator) {
	acc = acc.StartMeal()
	target := a.MealTarget(tmpl, last, acc)
	count := a.FoodCount(tmpl, last, acc)
	working := slices.Clone(a.catalog)

	meal := Meal{Name: tmpl.Name, Time: tmpl.Time, Foods: []FoodSelection{}}
	for i := 0; i < count && acc.Daily.Calories < a.daily.Calories; i++ {
		var sel FoodSelection
		sel, working, acc = a.Step(working, target, count-i, acc)
		meal.Foods = append(meal.Foods, sel)
	}
	meal.Totals = sumSelections(meal.Foods)
	return meal, acc
}

// Step picks one food for a meal. picksLeft counts the current pick, so 1 means the last food.
// It returns the selection, the working set without the picked food, and the updated totals.
func (a *Assembler) Step(working []FoodItem, mealTarget Macros, picksLeft int, acc Accumulator) (FoodSelection, []FoodItem, Accumulator) {
	sub := mealTarget.Sub(acc.Meal).Scale(1 / float64(picksLeft))

	near := acc.Daily.Calories >= a.daily.Calories*nearCeiling
	var eligible func(FoodItem) bool
	if near {
		sub.Calories = math.Min(sub.Calories, math.Max(a.daily.Calories-acc.Daily.Calories, 0))
		limit := sub.Calories * candidateMargin
		eligible = func(f FoodItem) bool { return f.Calories <= limit }
	}

	idx := -1
	qty := 0.0
	if m, ok := BestMatch(working, sub, eligible); ok {
		idx, qty = m.Index, m.Quantity
	} else {
		idx = a.fallback(working, near)
		qty = ImpliedQuantity(working[idx], sub)
	}
	food := working[idx]

	if picksLeft == 1 {
		gap := mealTarget.Calories - acc.Meal.Calories
		qty = clamp(gap/math.Max(food.Calories, 1), MinQuantity, MaxQuantity)
	}
	qty = a.capQuantity(food, qty, acc.Daily)

	sel := Select(food, qty)
	return sel, slices.Delete(working, idx, idx+1), acc.With(sel)
}

// fallback draws a random index from working, restricted to the lowest-calorie third near the ceiling.
func (a *Assembler) fallback(working []FoodItem, near bool) int {
	if !near {
		return a.rng.IntN(len(working))
	}
	order := make([]int, len(working))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(x, y int) int {
		return cmp.Compare(working[x].Calories, working[y].Calories)
	})
	pool := max(1, len(order)/3)
	return order[a.rng.IntN(pool)]
}

// capQuantity keeps the daily total within the ceiling and snaps to half servings.
func (a *Assembler) capQuantity(food FoodItem, qty float64, daily Macros) float64 {
	ceiling := a.daily.Calories * ceilingRatio
	over := func(q float64) bool { return daily.Calories+food.Calories*q > ceiling }

	if food.Calories > 0 && over(qty) {
		qty = math.Max((ceiling-daily.Calories)/food.Calories, MinQuantity)
	}
	qty = clamp(math.Round(qty*2)/2, MinQuantity, MaxQuantity)
	if over(qty) && qty > MinQuantity {
		qty -= 0.5
	}
	return qty
}

// Select scales a food to qty servings, rounding each nutrient to one decimal.
func Select(food FoodItem, qty float64) FoodSelection {
	return FoodSelection{
		Name:        food.Name,
		Calories:    round1(food.Calories * qty),
		Protein:     round1(food.Protein * qty),
		Carbs:       round1(food.Carbs * qty),
		Fat:         round1(food.Fat * qty),
		ServingSize: food.ServingSize,
		Quantity:    qty,
	}
}

func sumSelections(foods []FoodSelection) Macros {
	var total Macros
	for _, f := range foods {
		total = total.Add(f.Macros())
	}
	return Macros{
		Calories: round1(total.Calories),
		Protein:  round1(total.Protein),
		Carbs:    round1(total.Carbs),
		Fat:      round1(total.Fat),
	}
}
