package nutrition

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// WorkoutWindow is how far back workouts count towards the intensity score.
const WorkoutWindow = 3 * 24 * time.Hour

// SetRecord is one performed set. Cardio sets carry a duration.
type SetRecord struct {
	Reps        int     `json:"reps,omitempty"`
	WeightKg    float64 `json:"weight_kg,omitempty"`
	DurationMin float64 `json:"duration_min,omitempty"`
}

// ExerciseRecord is one exercise inside a workout.
type ExerciseRecord struct {
	Name     string      `json:"name"`
	IsCardio bool        `json:"is_cardio"`
	Sets     []SetRecord `json:"sets"`
}

// WorkoutRecord is a logged workout supplied by the workout-tracking feed.
type WorkoutRecord struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	PerformedAt time.Time        `json:"performed_at"`
	Exercises   []ExerciseRecord `json:"exercises"`
}

// HasStrength reports whether the workout contains any non-cardio exercise.
func (w WorkoutRecord) HasStrength() bool {
	for _, ex := range w.Exercises {
		if !ex.IsCardio {
			return true
		}
	}
	return false
}

// HasCardio reports whether the workout contains any cardio exercise.
func (w WorkoutRecord) HasCardio() bool {
	for _, ex := range w.Exercises {
		if ex.IsCardio {
			return true
		}
	}
	return false
}

// CardioMinutes sums set durations across cardio exercises.
func (w WorkoutRecord) CardioMinutes() float64 {
	var total float64
	for _, ex := range w.Exercises {
		if !ex.IsCardio {
			continue
		}
		for _, set := range ex.Sets {
			total += set.DurationMin
		}
	}
	return total
}

// Program is a training program assigned to the user.
type Program struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Active    bool            `json:"active"`
	Structure json.RawMessage `json:"structure,omitempty"`
}

// ProgramDay is one day of a program's weekly structure.
type ProgramDay struct {
	Day   int    `json:"day"`
	Focus string `json:"focus"`
}

type programStructure struct {
	Days []ProgramDay `json:"days"`
}

// Days decodes the program's structured day/focus data.
func (p Program) Days() ([]ProgramDay, error) {
	if len(p.Structure) == 0 || string(p.Structure) == "null" {
		return nil, nil
	}
	var s programStructure
	if err := json.Unmarshal(p.Structure, &s); err != nil {
		return nil, &ProgramDataError{ProgramID: p.ID, Err: err}
	}
	return s.Days, nil
}

// WorkoutHistory is the materialized workout context for one user.
type WorkoutHistory struct {
	Workouts []WorkoutRecord
	Programs []Program
}

// ActiveProgram returns the first active program, if any.
func (h WorkoutHistory) ActiveProgram() (Program, bool) {
	for _, p := range h.Programs {
		if p.Active {
			return p, true
		}
	}
	return Program{}, false
}

// HasContext reports whether any recent workout or active program exists.
func (h WorkoutHistory) HasContext() bool {
	_, ok := h.ActiveProgram()
	return ok || len(h.Workouts) > 0
}

// Program kinds recognised for flat adjustments and ratio presets.
const (
	KindStrength   = "strength"
	KindEndurance  = "endurance"
	KindWeightLoss = "weight_loss"
)

var programKindKeywords = []struct {
	kind     string
	keywords []string
}{
	{KindWeightLoss, []string{"weight_loss", "weight loss", "weight-loss", "fat_loss", "fat loss", "cut"}},
	{KindEndurance, []string{"endurance", "cardio", "running", "marathon", "cycling", "triathlon"}},
	{KindStrength, []string{"strength", "hypertrophy", "powerlifting", "bodybuilding", "muscle"}},
}

// ProgramKind maps a free-text category or focus onto a known kind, or "" when none matches.
func ProgramKind(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" {
		return ""
	}
	for _, entry := range programKindKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(c, kw) {
				return entry.kind
			}
		}
	}
	return ""
}

// MacroRatio is a carb/fat calorie split applied after protein is fixed.
type MacroRatio struct {
	Name      string
	CarbShare float64
	FatShare  float64
}

// MacroPresets are keyed by program kind.
var MacroPresets = map[string]MacroRatio{
	KindStrength:   {Name: "strength", CarbShare: 0.45, FatShare: 0.25},
	KindEndurance:  {Name: "endurance", CarbShare: 0.50, FatShare: 0.20},
	KindWeightLoss: {Name: "cutting", CarbShare: 0.35, FatShare: 0.35},
}

// WorkoutSignal aggregates the recent workout window.
type WorkoutSignal struct {
	Workouts         int
	StrengthSessions int
	CardioSessions   int
	CardioMinutes    float64
	Intensity        float64
	ProgramCategory  string
	Focus            string
}

// Adjustment describes how a target was changed for workouts.
type Adjustment struct {
	Intensity       float64 `json:"intensity"`
	Calories        float64 `json:"calories"`
	Protein         float64 `json:"protein"`
	Preset          string  `json:"macroPreset"`
	ProgramCategory string  `json:"programCategory,omitempty"`
}

// AnalyzeWorkouts computes the intensity signal. It fails only on malformed program data.
func AnalyzeWorkouts(history WorkoutHistory) (WorkoutSignal, error) {
	var sig WorkoutSignal
	for _, w := range history.Workouts {
		sig.Workouts++
		sig.Intensity++
		if w.HasStrength() {
			sig.StrengthSessions++
			sig.Intensity++
		}
		if w.HasCardio() {
			minutes := w.CardioMinutes()
			sig.CardioSessions++
			sig.CardioMinutes += minutes
			sig.Intensity += math.Min(minutes/30, 2)
		}
	}

	program, ok := history.ActiveProgram()
	if !ok {
		sig.Focus = focusFromSessions(sig)
		return sig, nil
	}
	sig.ProgramCategory = program.Category

	days, err := program.Days()
	if err != nil {
		return sig, err
	}
	sig.Focus = ProgramKind(program.Category)
	if sig.Focus == "" {
		sig.Focus = focusFromDays(days)
	}
	if sig.Focus == "" {
		sig.Focus = focusFromSessions(sig)
	}
	return sig, nil
}

func focusFromDays(days []ProgramDay) string {
	counts := map[string]int{}
	for _, d := range days {
		if kind := ProgramKind(d.Focus); kind != "" {
			counts[kind]++
		}
	}
	best, bestCount := "", 0
	for _, kind := range []string{KindStrength, KindEndurance, KindWeightLoss} {
		if counts[kind] > bestCount {
			best, bestCount = kind, counts[kind]
		}
	}
	return best
}

func focusFromSessions(sig WorkoutSignal) string {
	if sig.CardioSessions > sig.StrengthSessions {
		return KindEndurance
	}
	return KindStrength
}

// AdjustTargets applies the workout-intensity adjustment to a daily target.
func AdjustTargets(base Macros, history WorkoutHistory) (Macros, *Adjustment, error) {
	if !history.HasContext() {
		return base, nil, ErrNoWorkoutData
	}
	sig, err := AnalyzeWorkouts(history)
	if err != nil {
		return base, nil, err
	}

	calories := math.Min(sig.Intensity*100, 500) + math.Min(sig.CardioMinutes*5, 300)
	protein := math.Min(sig.Intensity*5, 30) + 10*float64(sig.StrengthSessions)

	switch ProgramKind(sig.ProgramCategory) {
	case KindStrength:
		protein += 15
		calories += 100
	case KindEndurance:
		calories += 150
	case KindWeightLoss:
		calories -= 200
	}

	adjusted := Macros{
		Calories: math.Max(base.Calories+calories, 0),
		Protein:  base.Protein + protein,
	}

	ratio, ok := MacroPresets[sig.Focus]
	if !ok {
		ratio = MacroPresets[KindStrength]
	}
	remaining := math.Max(adjusted.Calories-adjusted.Protein*4, 0)
	share := ratio.CarbShare + ratio.FatShare
	adjusted.Carbs = math.Round(remaining * ratio.CarbShare / share / 4)
	adjusted.Fat = math.Round(remaining * ratio.FatShare / share / 9)

	return adjusted, &Adjustment{
		Intensity:       sig.Intensity,
		Calories:        adjusted.Calories - base.Calories,
		Protein:         protein,
		Preset:          ratio.Name,
		ProgramCategory: sig.ProgramCategory,
	}, nil
}
