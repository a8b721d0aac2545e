package nutrition

import (
	"errors"
	"time"

	"example.com/mealplan/internal/logger"
)

// RefineIterations bounds how many times a plan is rebuilt from scratch.
const RefineIterations = 3

const dateLayout = "2006-01-02"

// Planner turns a Request into a MealPlan. It holds no per-request state and is safe for concurrent use.
type Planner struct {
	filter *CatalogFilter
	logger *logger.Logger
	now    func() time.Time
}

// Option configures a Planner.
type Option func(*Planner)

// WithLogger sets the logger used for degraded-analysis warnings.
func WithLogger(l *logger.Logger) Option {
	return func(p *Planner) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock overrides the clock used when a request carries no date.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		if now != nil {
			p.now = now
		}
	}
}

// WithRestrictions replaces the restriction table.
func WithRestrictions(rules map[string]RestrictionRule) Option {
	return func(p *Planner) {
		p.filter = NewCatalogFilter(rules)
	}
}

// NewPlanner constructs a Planner with the default restriction table.
func NewPlanner(opts ...Option) *Planner {
	p := &Planner{
		filter: NewCatalogFilter(nil),
		logger: logger.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Generate builds a daily plan. The same request and an identically seeded rng yield an identical plan.
func (p *Planner) Generate(req Request, rng Rand) (MealPlan, error) {
	if len(req.Catalog) == 0 {
		return MealPlan{}, ErrEmptyCatalog
	}

	target := req.Target.Macros()
	var adjustment *Adjustment
	if req.AdjustForWorkouts {
		adjusted, adj, err := AdjustTargets(target, req.History)
		var programErr *ProgramDataError
		switch {
		case errors.As(err, &programErr):
			p.logger.Warn("workout analysis skipped", "program_id", programErr.ProgramID, "error", programErr.Err)
		case err != nil:
			return MealPlan{}, err
		default:
			target, adjustment = adjusted, adj
		}
	}

	eligible, err := p.filter.Filter(req.Catalog, req.Restrictions)
	if err != nil {
		return MealPlan{}, err
	}
	if req.Preferences != "" {
		p.logger.Debug("preferences ignored by assembler", "preferences", req.Preferences)
	}

	templates := TemplatesFor(req.Meals)
	var meals []Meal
	// Each pass starts over; the last one is kept even if an earlier pass was closer.
	for range RefineIterations {
		meals = p.assemble(eligible, target, templates, rng)
	}

	var total Macros
	for _, meal := range meals {
		for _, food := range meal.Foods {
			total = total.Add(food.Macros())
		}
	}

	date := req.Date
	if date.IsZero() {
		date = p.now()
	}
	return MealPlan{
		Date:            date.Format(dateLayout),
		TotalNutrition:  toNutrition(total),
		Meals:           meals,
		EffectiveTarget: toTarget(target),
		Adjustment:      adjustment,
	}, nil
}

func (p *Planner) assemble(catalog []FoodItem, target Macros, templates []MealTemplate, rng Rand) []Meal {
	asm := NewAssembler(catalog, target, rng)
	meals := make([]Meal, 0, len(templates))
	var acc Accumulator
	for i, tmpl := range templates {
		var meal Meal
		meal, acc = asm.Meal(tmpl, i == len(templates)-1, acc)
		meals = append(meals, meal)
	}
	return meals
}
