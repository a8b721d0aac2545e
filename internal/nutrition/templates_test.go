package nutrition

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTemplateFractionsSumToOne(t *testing.T) {
	for count := 3; count <= 6; count++ {
		templates := TemplatesFor(count)
		require.Len(t, templates, count)
		var sum float64
		for _, tmpl := range templates {
			sum += tmpl.CalorieFraction
		}
		require.InDelta(t, 1.0, sum, 1e-9, "meal count %d", count)
	}
}

func TestTemplatesFallBackToThreeMeals(t *testing.T) {
	for _, count := range []int{0, 1, 2, 7, -3} {
		templates := TemplatesFor(count)
		require.Equal(t, []MealTemplate{
			{Name: "Breakfast", Time: "08:00", CalorieFraction: 0.25},
			{Name: "Lunch", Time: "13:00", CalorieFraction: 0.40},
			{Name: "Dinner", Time: "19:00", CalorieFraction: 0.35},
		}, templates)
	}
}

func TestTemplatesReturnsCopy(t *testing.T) {
	templates := TemplatesFor(3)
	templates[0].Name = "Brunch"
	require.Equal(t, "Breakfast", TemplatesFor(3)[0].Name)
}
