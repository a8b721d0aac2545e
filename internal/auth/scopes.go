package auth

// Scopes accepted by the meal-plan API.
const (
	ScopeMealPlansWrite = "mealplans:write"
	ScopeMealPlansRead  = "mealplans:read"
	ScopeFoodsRead      = "foods:read"
)
