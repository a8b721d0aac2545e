package domain

import (
	"example.com/mealplan/internal/events"
	"example.com/mealplan/internal/nutrition"
)

// Event builds the mealplan.generated payload for the record.
func (r PlanRecord) Event() events.MealPlanGenerated {
	restrictions := r.Restrictions
	if restrictions == nil {
		restrictions = []string{}
	}
	return events.MealPlanGenerated{
		PlanID:         r.ID,
		TenantID:       r.TenantID,
		UserID:         r.UserID,
		Date:           r.Plan.Date,
		Meals:          len(r.Plan.Meals),
		TotalNutrition: nutrients(r.Plan.TotalNutrition),
		Target:         nutrients(nutrition.Nutrition(r.Plan.EffectiveTarget)),
		Adjusted:       r.Plan.Adjustment != nil,
		Restrictions:   restrictions,
		GeneratedAt:    r.CreatedAt,
	}
}

func nutrients(n nutrition.Nutrition) events.Nutrients {
	return events.Nutrients{Calories: n.Calories, Protein: n.Protein, Carbs: n.Carbs, Fat: n.Fat}
}
