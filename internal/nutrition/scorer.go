package nutrition

import "math"

// Serving bounds in servings.
const (
	MinQuantity = 0.5
	MaxQuantity = 3.0
)

// Score weights for the relative-error sum.
const (
	calorieWeight = 0.40
	proteinWeight = 0.30
	carbWeight    = 0.15
	fatWeight     = 0.15

	overshootRatio   = 1.10
	overshootPenalty = 3.0
)

// Match is the scorer's verdict on one candidate.
type Match struct {
	Index    int
	Food     FoodItem
	Quantity float64
	Score    float64
}

// ImpliedQuantity is the serving count that meets the calorie target, clamped to the serving bounds.
func ImpliedQuantity(food FoodItem, target Macros) float64 {
	return clamp(target.Calories/math.Max(food.Calories, 1), MinQuantity, MaxQuantity)
}

// ScoreFood rates how well a food at its implied quantity fits the target. Lower is better.
func ScoreFood(food FoodItem, target Macros) Match {
	qty := ImpliedQuantity(food, target)
	actual := MacrosOf(food).Scale(qty)

	calErr := relativeError(actual.Calories, target.Calories)
	if actual.Calories > target.Calories*overshootRatio {
		calErr *= overshootPenalty
	}
	score := calorieWeight*calErr +
		proteinWeight*relativeError(actual.Protein, target.Protein) +
		carbWeight*relativeError(actual.Carbs, target.Carbs) +
		fatWeight*relativeError(actual.Fat, target.Fat)

	return Match{Food: food, Quantity: qty, Score: score}
}

// BestMatch scores the candidates in order and returns the lowest score. The first candidate wins ties.
func BestMatch(candidates []FoodItem, target Macros, eligible func(FoodItem) bool) (Match, bool) {
	var best Match
	found := false
	for i, food := range candidates {
		if eligible != nil && !eligible(food) {
			continue
		}
		m := ScoreFood(food, target)
		m.Index = i
		if !found || m.Score < best.Score {
			best, found = m, true
		}
	}
	return best, found
}

func relativeError(actual, target float64) float64 {
	return math.Abs(actual-target) / math.Max(target, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
