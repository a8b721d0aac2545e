package nutrition

func sampleFoods() []FoodItem {
	return []FoodItem{
		{Name: "Apple", Calories: 95, Protein: 0.5, Carbs: 25, Fat: 0.3, ServingSize: "1 medium", Category: "Fruits"},
		{Name: "Banana", Calories: 105, Protein: 1.3, Carbs: 27, Fat: 0.4, ServingSize: "1 medium", Category: "Fruits"},
		{Name: "Chicken Breast", Calories: 165, Protein: 31, Carbs: 0, Fat: 3.6, ServingSize: "100g", Category: "Proteins"},
		{Name: "Egg", Calories: 78, Protein: 6, Carbs: 0.6, Fat: 5, ServingSize: "1 large", Category: "Proteins"},
		{Name: "Salmon", Calories: 208, Protein: 20, Carbs: 0, Fat: 13, ServingSize: "100g", Category: "Proteins"},
		{Name: "Brown Rice", Calories: 216, Protein: 5, Carbs: 45, Fat: 1.8, ServingSize: "1 cup cooked", Category: "Grains"},
		{Name: "Broccoli", Calories: 55, Protein: 3.7, Carbs: 11, Fat: 0.6, ServingSize: "1 cup", Category: "Vegetables"},
		{Name: "Milk 2%", Calories: 122, Protein: 8, Carbs: 12, Fat: 5, ServingSize: "1 cup", Category: "Dairy"},
		{Name: "Avocado", Calories: 234, Protein: 2.9, Carbs: 12, Fat: 21, ServingSize: "1 medium", Category: "Fats"},
		{Name: "Oatmeal", Calories: 154, Protein: 5, Carbs: 27, Fat: 2.6, ServingSize: "1 cup cooked", Category: "Grains"},
	}
}

func sampleTarget() Target {
	return Target{Calories: 2000, Protein: 150, Carbs: 200, Fat: 65}
}

// scriptedRand replays vals in order, wrapping around, reduced modulo n.
type scriptedRand struct {
	vals []int
	next int
}

func (r *scriptedRand) IntN(n int) int {
	v := r.vals[r.next%len(r.vals)]
	r.next++
	return v % n
}

func names(foods []FoodItem) []string {
	out := make([]string, len(foods))
	for i, f := range foods {
		out[i] = f.Name
	}
	return out
}
