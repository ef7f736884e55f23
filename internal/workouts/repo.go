package workouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/healthify/internal/telemetry/tracing"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

const workoutColumns = `id, user_id, day, title, activities, last_completed_date, last_reset_date, created_at, updated_at`

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) ListForUser(ctx context.Context, userID int) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.list")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.Int("user-id", userID))

	rows, err := r.db.Query(ctx, `
		SELECT `+workoutColumns+`
		FROM workout
		WHERE user_id = $1
		ORDER BY id;
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWorkouts(rows)
}

// ListCompletedBetween returns the user's workouts with last completion in [from, to).
func (r *Repo) ListCompletedBetween(ctx context.Context, userID int, from, to time.Time) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.listcompleted")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(
		attribute.Int("user-id", userID),
		attribute.String("from", from.String()),
		attribute.String("to", to.String()),
	)

	rows, err := r.db.Query(ctx, `
		SELECT `+workoutColumns+`
		FROM workout
		WHERE user_id = $1
		  AND last_completed_date >= $2
		  AND last_completed_date < $3
		ORDER BY id;
	`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWorkouts(rows)
}

func (r *Repo) Get(ctx context.Context, userID, id int) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.get")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.Int("user-id", userID), attribute.Int("id", id))

	w := &Workout{}
	err = scanWorkout(r.db.QueryRow(ctx, `
		SELECT `+workoutColumns+`
		FROM workout
		WHERE id = $1 AND user_id = $2;
	`, id, userID), w)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return w, nil
}

func (r *Repo) Add(ctx context.Context, w Workout) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.add")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.Int("user-id", w.UserID))

	added := &Workout{}
	err = scanWorkout(r.db.QueryRow(ctx, `
		INSERT INTO workout (user_id, day, title, activities, last_completed_date, last_reset_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+workoutColumns+`;
	`,
		w.UserID,
		w.Day,
		w.Title,
		w.Activities,
		w.LastCompletedDate,
		w.LastResetDate,
	), added)
	if err != nil {
		return nil, fmt.Errorf("insert workout: %w", err)
	}
	return added, nil
}

// Update overwrites the workout owned by w.UserID and refreshes w.UpdatedAt.
func (r *Repo) Update(ctx context.Context, w *Workout) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.update")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.Int("user-id", w.UserID), attribute.Int("id", w.ID))

	err = r.db.QueryRow(ctx, `
		UPDATE workout
		SET day = $3,
		    title = $4,
		    activities = $5,
		    last_completed_date = $6,
		    last_reset_date = $7,
		    updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at;
	`,
		w.ID,
		w.UserID,
		w.Day,
		w.Title,
		w.Activities,
		w.LastCompletedDate,
		w.LastResetDate,
	).Scan(&w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrWorkoutNotFound
		}
		return err
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, userID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.delete")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.Int("user-id", userID), attribute.Int("id", id))

	tag, err := r.db.Exec(ctx, `DELETE FROM workout WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}
	return nil
}

func scanWorkouts(rows pgx.Rows) ([]Workout, error) {
	workouts := make([]Workout, 0)
	for rows.Next() {
		var w Workout
		if err := scanWorkout(rows, &w); err != nil {
			return nil, err
		}
		workouts = append(workouts, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return workouts, nil
}

func scanWorkout(row pgx.Row, w *Workout) error {
	return row.Scan(
		&w.ID,
		&w.UserID,
		&w.Day,
		&w.Title,
		&w.Activities,
		&w.LastCompletedDate,
		&w.LastResetDate,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
}
