package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"example.com/mealplan/internal/events"
	"example.com/mealplan/internal/nutrition"
)

// ErrMissingTenant is returned for events that cannot be scoped to a tenant.
var ErrMissingTenant = errors.New("event has no tenant")

// WorkoutStore receives projected workouts and programs.
type WorkoutStore interface {
	SaveWorkout(ctx context.Context, tenantID string, workout nutrition.WorkoutRecord) error
	SaveProgram(ctx context.Context, tenantID string, program nutrition.Program) error
}

// ProjectionHandler turns activity and program events into the workout history used by the planner.
// Unknown event types are acknowledged and ignored.
type ProjectionHandler struct {
	store WorkoutStore
}

// NewProjectionHandler constructs a handler writing into store.
func NewProjectionHandler(store WorkoutStore) *ProjectionHandler {
	return &ProjectionHandler{store: store}
}

func (h *ProjectionHandler) Handle(ctx context.Context, msg Message) error {
	switch msg.EventType {
	case events.TypeActivityCreated:
		var evt events.ActivityCreated
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return fmt.Errorf("decode %s: %w", msg.EventType, err)
		}
		tenant, err := tenantOf(msg, evt.TenantID)
		if err != nil {
			return err
		}
		projectedCounter.WithLabelValues(msg.EventType).Inc()
		return h.store.SaveWorkout(ctx, tenant, WorkoutFromActivity(evt))

	case events.TypeProgramActivated:
		var evt events.ProgramActivated
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return fmt.Errorf("decode %s: %w", msg.EventType, err)
		}
		tenant, err := tenantOf(msg, evt.TenantID)
		if err != nil {
			return err
		}
		program, err := ProgramFromEvent(evt)
		if err != nil {
			return err
		}
		projectedCounter.WithLabelValues(msg.EventType).Inc()
		return h.store.SaveProgram(ctx, tenant, program)
	}
	return nil
}

func tenantOf(msg Message, payloadTenant string) (string, error) {
	if msg.TenantID != "" {
		return msg.TenantID, nil
	}
	if payloadTenant != "" {
		return payloadTenant, nil
	}
	return "", fmt.Errorf("%s at offset %d: %w", msg.EventType, msg.Offset, ErrMissingTenant)
}

var cardioActivities = []string{
	"run", "jog", "cycl", "bike", "swim", "row", "walk", "hike", "cardio", "hiit", "elliptical", "skip",
}

// IsCardioActivity reports whether a free-text activity type describes cardio work.
func IsCardioActivity(activityType string) bool {
	t := strings.ToLower(activityType)
	for _, kw := range cardioActivities {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}

// WorkoutFromActivity maps an activity event onto a workout record. Activities without an exercise
// breakdown become a single exercise named after the activity type, carrying its duration.
func WorkoutFromActivity(evt events.ActivityCreated) nutrition.WorkoutRecord {
	w := nutrition.WorkoutRecord{
		ID:          evt.ActivityID,
		UserID:      evt.UserID,
		PerformedAt: evt.StartedAt.UTC(),
	}

	if len(evt.Exercises) == 0 {
		ex := nutrition.ExerciseRecord{Name: evt.ActivityType, IsCardio: IsCardioActivity(evt.ActivityType)}
		if ex.IsCardio {
			ex.Sets = []nutrition.SetRecord{{DurationMin: float64(evt.DurationMin)}}
		}
		w.Exercises = []nutrition.ExerciseRecord{ex}
		return w
	}

	w.Exercises = make([]nutrition.ExerciseRecord, 0, len(evt.Exercises))
	for _, e := range evt.Exercises {
		ex := nutrition.ExerciseRecord{Name: e.Name, IsCardio: e.IsCardio}
		for _, s := range e.Sets {
			ex.Sets = append(ex.Sets, nutrition.SetRecord{Reps: s.Reps, WeightKg: s.WeightKg, DurationMin: s.DurationMin})
		}
		w.Exercises = append(w.Exercises, ex)
	}
	return w
}

// ProgramFromEvent maps a program event onto a program, encoding its days as the program structure.
func ProgramFromEvent(evt events.ProgramActivated) (nutrition.Program, error) {
	p := nutrition.Program{
		ID:       evt.ProgramID,
		UserID:   evt.UserID,
		Name:     evt.Name,
		Category: evt.Category,
		Active:   evt.Active,
	}
	if len(evt.Days) == 0 {
		return p, nil
	}

	days := make([]nutrition.ProgramDay, len(evt.Days))
	for i, d := range evt.Days {
		days[i] = nutrition.ProgramDay{Day: d.Day, Focus: d.Focus}
	}
	structure, err := json.Marshal(struct {
		Days []nutrition.ProgramDay `json:"days"`
	}{days})
	if err != nil {
		return nutrition.Program{}, err
	}
	p.Structure = structure
	return p, nil
}
