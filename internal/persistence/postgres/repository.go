// Package postgres implements the catalog, workout feed and plan store on Postgres with tenant RLS.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/mealplan/internal/domain"
	"example.com/mealplan/internal/events"
	"example.com/mealplan/internal/nutrition"
	"example.com/mealplan/internal/observability"
)

const setTenantSQL = "SELECT set_config('app.tenant_id', $1, true)"

// Repository provides Postgres-backed persistence for foods, workouts, programs and plans.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// inTenant runs fn in a transaction scoped to tenantID by the row-level security policies.
func (r *Repository) inTenant(ctx context.Context, tenantID string, fn func(pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, setTenantSQL, tenantID); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const foodColumns = `food_id, name, calories, protein, carbs, fat, serving_size, category`

// UpsertFoods inserts foods or replaces them by case-insensitive name. Existing IDs are kept.
func (r *Repository) UpsertFoods(ctx context.Context, foods []nutrition.FoodItem) error {
	const stmt = `INSERT INTO foods (` + foodColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT ((lower(name))) DO UPDATE SET
            name = EXCLUDED.name,
            calories = EXCLUDED.calories,
            protein = EXCLUDED.protein,
            carbs = EXCLUDED.carbs,
            fat = EXCLUDED.fat,
            serving_size = EXCLUDED.serving_size,
            category = EXCLUDED.category,
            updated_at = NOW()`

	batch := &pgx.Batch{}
	for _, food := range foods {
		id := food.ID
		if id == "" {
			id = uuid.NewString()
		}
		batch.Queue(stmt, id, food.Name, food.Calories, food.Protein, food.Carbs, food.Fat, food.ServingSize, food.Category)
	}
	if batch.Len() == 0 {
		return nil
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

// AllFoods returns the whole catalog ordered by name.
func (r *Repository) AllFoods(ctx context.Context) ([]nutrition.FoodItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+foodColumns+` FROM foods ORDER BY name COLLATE "C", food_id`)
	if err != nil {
		return nil, err
	}
	return scanFoods(rows)
}

// ListFoods pages through foods whose name contains query, ordered by (name, id).
func (r *Repository) ListFoods(ctx context.Context, query string, cursor *domain.Cursor, limit int) ([]nutrition.FoodItem, *domain.Cursor, error) {
	args := []any{escapeLike(query), limit}
	stmt := `SELECT ` + foodColumns + ` FROM foods WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')`
	if cursor != nil {
		stmt += ` AND (name COLLATE "C", food_id) > ($3, $4)`
		args = append(args, cursor.Name, cursor.ID)
	}
	stmt += ` ORDER BY name COLLATE "C", food_id LIMIT $2`

	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, nil, err
	}
	foods, err := scanFoods(rows)
	if err != nil {
		return nil, nil, err
	}

	var next *domain.Cursor
	if limit > 0 && len(foods) == limit {
		last := foods[len(foods)-1]
		next = &domain.Cursor{Name: last.Name, ID: last.ID}
	}
	return foods, next, nil
}

func scanFoods(rows pgx.Rows) ([]nutrition.FoodItem, error) {
	defer rows.Close()
	foods := make([]nutrition.FoodItem, 0)
	for rows.Next() {
		var f nutrition.FoodItem
		if err := rows.Scan(&f.ID, &f.Name, &f.Calories, &f.Protein, &f.Carbs, &f.Fat, &f.ServingSize, &f.Category); err != nil {
			return nil, err
		}
		foods = append(foods, f)
	}
	return foods, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}

// SaveWorkout stores or replaces a projected workout.
func (r *Repository) SaveWorkout(ctx context.Context, tenantID string, workout nutrition.WorkoutRecord) error {
	exercises, err := json.Marshal(workout.Exercises)
	if err != nil {
		return err
	}

	err = r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO workouts (workout_id, tenant_id, user_id, performed_at, exercises)
             VALUES ($1,$2,$3,$4,$5)
             ON CONFLICT (tenant_id, workout_id) DO UPDATE SET
                 user_id = EXCLUDED.user_id,
                 performed_at = EXCLUDED.performed_at,
                 exercises = EXCLUDED.exercises,
                 received_at = NOW()`,
			workout.ID, tenantID, workout.UserID, workout.PerformedAt, exercises,
		)
		return err
	})
	if err != nil {
		return err
	}
	observability.RecordWorkoutProjected(workout.PerformedAt)
	return nil
}

// SaveProgram stores or replaces a projected program.
func (r *Repository) SaveProgram(ctx context.Context, tenantID string, program nutrition.Program) error {
	var structure any
	if len(program.Structure) > 0 {
		structure = []byte(program.Structure)
	}
	return r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO programs (program_id, tenant_id, user_id, name, category, active, structure)
             VALUES ($1,$2,$3,$4,$5,$6,$7)
             ON CONFLICT (tenant_id, program_id) DO UPDATE SET
                 user_id = EXCLUDED.user_id,
                 name = EXCLUDED.name,
                 category = EXCLUDED.category,
                 active = EXCLUDED.active,
                 structure = EXCLUDED.structure,
                 updated_at = NOW()`,
			program.ID, tenantID, program.UserID, program.Name, program.Category, program.Active, structure,
		)
		return err
	})
}

// RecentWorkouts returns the user's workouts performed at or after since, oldest first.
func (r *Repository) RecentWorkouts(ctx context.Context, tenantID, userID string, since time.Time) ([]nutrition.WorkoutRecord, error) {
	var workouts []nutrition.WorkoutRecord
	err := r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT workout_id, user_id, performed_at, exercises
               FROM workouts
              WHERE tenant_id = $1 AND user_id = $2 AND performed_at >= $3
              ORDER BY performed_at, workout_id`,
			tenantID, userID, since,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				w         nutrition.WorkoutRecord
				exercises []byte
			)
			if err := rows.Scan(&w.ID, &w.UserID, &w.PerformedAt, &exercises); err != nil {
				return err
			}
			if err := json.Unmarshal(exercises, &w.Exercises); err != nil {
				return fmt.Errorf("decode exercises for workout %s: %w", w.ID, err)
			}
			workouts = append(workouts, w)
		}
		return rows.Err()
	})
	return workouts, err
}

// ActivePrograms returns the user's active programs ordered by ID.
func (r *Repository) ActivePrograms(ctx context.Context, tenantID, userID string) ([]nutrition.Program, error) {
	var programs []nutrition.Program
	err := r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT program_id, user_id, name, category, active, structure
               FROM programs
              WHERE tenant_id = $1 AND user_id = $2 AND active
              ORDER BY program_id`,
			tenantID, userID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				p         nutrition.Program
				structure []byte
			)
			if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Category, &p.Active, &structure); err != nil {
				return err
			}
			if len(structure) > 0 {
				p.Structure = json.RawMessage(structure)
			}
			programs = append(programs, p)
		}
		return rows.Err()
	})
	return programs, err
}

// RecordPlan persists the plan and its mealplan.generated outbox event in one transaction.
func (r *Repository) RecordPlan(ctx context.Context, record domain.PlanRecord) error {
	target, err := json.Marshal(record.Target)
	if err != nil {
		return err
	}
	plan, err := json.Marshal(record.Plan)
	if err != nil {
		return err
	}
	planDate, err := time.Parse(time.DateOnly, record.Plan.Date)
	if err != nil {
		return fmt.Errorf("plan date %q: %w", record.Plan.Date, err)
	}
	restrictions := record.Restrictions
	if restrictions == nil {
		restrictions = []string{}
	}

	err = r.inTenant(ctx, record.TenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO meal_plans (plan_id, tenant_id, user_id, plan_date, seed, target, restrictions, plan, total_calories, created_at)
             VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			record.ID,
			record.TenantID,
			record.UserID,
			planDate,
			strconv.FormatUint(record.Seed, 10),
			target,
			restrictions,
			plan,
			record.Plan.TotalNutrition.Calories,
			record.CreatedAt,
		)
		if err != nil {
			return err
		}
		return insertOutbox(ctx, tx, record, events.TypeMealPlanGenerated, record.Event())
	})
	if err != nil {
		return err
	}
	observability.RecordPlanPersisted(record.CreatedAt)
	return nil
}

// GetPlan retrieves a plan by ID. It returns nil when the tenant has no such plan.
func (r *Repository) GetPlan(ctx context.Context, tenantID, planID string) (*domain.PlanRecord, error) {
	var record *domain.PlanRecord
	err := r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`SELECT plan_id, tenant_id, user_id, seed, target, restrictions, plan, created_at
               FROM meal_plans WHERE tenant_id = $1 AND plan_id = $2`,
			tenantID, planID,
		)
		var (
			rec          domain.PlanRecord
			seed         string
			target, plan []byte
		)
		if err := row.Scan(&rec.ID, &rec.TenantID, &rec.UserID, &seed, &target, &rec.Restrictions, &plan, &rec.CreatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return err
		}
		var err error
		if rec.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
			return fmt.Errorf("decode seed for plan %s: %w", rec.ID, err)
		}
		if err := json.Unmarshal(target, &rec.Target); err != nil {
			return fmt.Errorf("decode target for plan %s: %w", rec.ID, err)
		}
		if err := json.Unmarshal(plan, &rec.Plan); err != nil {
			return fmt.Errorf("decode plan %s: %w", rec.ID, err)
		}
		rec.CreatedAt = rec.CreatedAt.UTC()
		record = &rec
		return nil
	})
	return record, err
}

func insertOutbox(ctx context.Context, tx pgx.Tx, record domain.PlanRecord, eventType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	const stmt = `INSERT INTO outbox (tenant_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err = tx.Exec(ctx, stmt,
		record.TenantID,
		"meal_plan",
		record.ID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		meta.PartitionKeyFn(record),
		body,
		fmt.Sprintf("%s:%s", record.ID, eventType),
	)
	return err
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic          string
	SchemaSubject  string
	PartitionKeyFn func(domain.PlanRecord) string
}

var eventCatalog = map[string]EventMetadata{
	events.TypeMealPlanGenerated: {
		Topic:         "mealplan_events",
		SchemaSubject: "mealplan_events-value",
		PartitionKeyFn: func(r domain.PlanRecord) string {
			return fmt.Sprintf("%s:%s", r.TenantID, r.UserID)
		},
	},
}
