package nutrition

import (
	"slices"
	"strings"
	"unicode"
)

// RestrictionRule lists what a dietary restriction tag excludes. Keywords match the start of any
// word in the food name; Allowed names override a keyword hit.
type RestrictionRule struct {
	Categories []string
	Keywords   []string
	Allowed    []string
}

var (
	meatCategories = []string{"meat", "poultry", "fish", "seafood"}

	meatKeywords = []string{
		"chicken", "beef", "pork", "turkey", "lamb", "bacon", "ham", "sausage", "steak",
		"salmon", "tuna", "cod", "tilapia", "fish", "shrimp", "prawn", "crab", "lobster", "anchov",
	}

	dairyKeywords = []string{"milk", "cheese", "yogurt", "yoghurt", "butter", "cream", "whey", "casein"}

	glutenKeywords = []string{"wheat", "bread", "pasta", "barley", "rye", "couscous", "bagel", "seitan", "tortilla", "cracker"}

	plantDairy = []string{"almond milk", "soy milk", "oat milk", "coconut milk", "rice milk", "peanut butter", "almond butter", "cocoa butter", "coconut cream", "butternut"}
)

// DefaultRestrictions is the built-in restriction table keyed by lower-case tag.
var DefaultRestrictions = map[string]RestrictionRule{
	"vegetarian": {
		Categories: meatCategories,
		Keywords:   meatKeywords,
	},
	"vegan": {
		Categories: append(slices.Clone(meatCategories), "dairy"),
		Keywords:   concat(meatKeywords, dairyKeywords, []string{"egg", "honey"}),
		Allowed:    append(slices.Clone(plantDairy), "eggplant"),
	},
	"dairy-free": {
		Categories: []string{"dairy"},
		Keywords:   dairyKeywords,
		Allowed:    plantDairy,
	},
	"gluten-free": {
		Keywords: glutenKeywords,
	},
}

var restrictionAliases = map[string]string{
	"veg":         "vegetarian",
	"plant-based": "vegan",
	"dairy free":  "dairy-free",
	"gluten free": "gluten-free",
}

// ParseRestrictions splits a comma-separated restriction string into normalized tags.
func ParseRestrictions(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag == "" {
			continue
		}
		if alias, ok := restrictionAliases[tag]; ok {
			tag = alias
		}
		if !slices.Contains(out, tag) {
			out = append(out, tag)
		}
	}
	return out
}

// CatalogFilter removes foods that violate dietary restrictions.
type CatalogFilter struct {
	rules map[string]RestrictionRule
}

// NewCatalogFilter builds a filter over the supplied rule table. A nil table uses DefaultRestrictions.
func NewCatalogFilter(rules map[string]RestrictionRule) *CatalogFilter {
	if rules == nil {
		rules = DefaultRestrictions
	}
	return &CatalogFilter{rules: rules}
}

// Excludes reports whether any of the tags rules the food out.
func (f *CatalogFilter) Excludes(food FoodItem, tags []string) bool {
	name := strings.ToLower(food.Name)
	category := strings.ToLower(food.Category)
	for _, tag := range tags {
		rule, ok := f.rules[tag]
		if !ok {
			continue
		}
		if containsAny(category, rule.Categories) {
			return true
		}
		if matchesWord(name, rule.Keywords) && !containsAny(name, rule.Allowed) {
			return true
		}
	}
	return false
}

// Filter returns the foods allowed under the restriction string, preserving catalog order.
func (f *CatalogFilter) Filter(catalog []FoodItem, restrictions string) ([]FoodItem, error) {
	if len(catalog) == 0 {
		return nil, ErrEmptyCatalog
	}
	tags := ParseRestrictions(restrictions)
	kept := make([]FoodItem, 0, len(catalog))
	for _, food := range catalog {
		if !f.Excludes(food, tags) {
			kept = append(kept, food)
		}
	}
	if len(kept) < MinimumCatalogSize {
		return nil, &InsufficientCatalogError{Remaining: len(kept), Restrictions: tags}
	}
	return kept, nil
}

func containsAny(value string, needles []string) bool {
	if value == "" {
		return false
	}
	for _, needle := range needles {
		if strings.Contains(value, needle) {
			return true
		}
	}
	return false
}

func matchesWord(name string, keywords []string) bool {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, word := range words {
		for _, keyword := range keywords {
			if strings.HasPrefix(word, keyword) {
				return true
			}
		}
	}
	return false
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
