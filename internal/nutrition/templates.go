package nutrition

// DefaultMealCount is used for any unsupported meal count.
const DefaultMealCount = 3

var mealTemplates = map[int][]MealTemplate{
	3: {
		{Name: "Breakfast", Time: "08:00", CalorieFraction: 0.25},
		{Name: "Lunch", Time: "13:00", CalorieFraction: 0.40},
		{Name: "Dinner", Time: "19:00", CalorieFraction: 0.35},
	},
	4: {
		{Name: "Breakfast", Time: "08:00", CalorieFraction: 0.25},
		{Name: "Lunch", Time: "12:30", CalorieFraction: 0.35},
		{Name: "Afternoon Snack", Time: "16:00", CalorieFraction: 0.10},
		{Name: "Dinner", Time: "19:00", CalorieFraction: 0.30},
	},
	5: {
		{Name: "Breakfast", Time: "07:30", CalorieFraction: 0.20},
		{Name: "Morning Snack", Time: "10:30", CalorieFraction: 0.10},
		{Name: "Lunch", Time: "13:00", CalorieFraction: 0.30},
		{Name: "Afternoon Snack", Time: "16:00", CalorieFraction: 0.10},
		{Name: "Dinner", Time: "19:00", CalorieFraction: 0.30},
	},
	6: {
		{Name: "Breakfast", Time: "07:00", CalorieFraction: 0.20},
		{Name: "Morning Snack", Time: "10:00", CalorieFraction: 0.10},
		{Name: "Lunch", Time: "12:30", CalorieFraction: 0.25},
		{Name: "Afternoon Snack", Time: "15:30", CalorieFraction: 0.10},
		{Name: "Dinner", Time: "18:30", CalorieFraction: 0.25},
		{Name: "Evening Snack", Time: "21:00", CalorieFraction: 0.10},
	},
}

// TemplatesFor returns the schedule for a meal count, falling back to three meals.
func TemplatesFor(meals int) []MealTemplate {
	templates, ok := mealTemplates[meals]
	if !ok {
		templates = mealTemplates[DefaultMealCount]
	}
	out := make([]MealTemplate, len(templates))
	copy(out, templates)
	return out
}
