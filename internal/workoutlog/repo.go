package workoutlog

import (
	"context"
	"time"

	"github.com/2beens/healthify/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) AddBatch(ctx context.Context, entries []Entry) (_ int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workoutlog.addbatch")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.Int("count", len(entries)))

	if len(entries) == 0 {
		return 0, nil
	}

	return r.db.CopyFrom(
		ctx,
		pgx.Identifier{"workout_log"},
		[]string{"user_id", "date", "workout_title", "activity_name", "parameter", "value", "unit"},
		pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
			e := entries[i]
			return []any{e.UserID, e.Date, e.WorkoutTitle, e.ActivityName, string(e.Parameter), e.Value, e.Unit}, nil
		}),
	)
}

// List returns the user's entries dated within [from, to], oldest first.
func (r *Repo) List(ctx context.Context, userID int, from, to time.Time) (_ []Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workoutlog.list")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(
		attribute.Int("user-id", userID),
		attribute.String("from", from.String()),
		attribute.String("to", to.String()),
	)

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, date, workout_title, activity_name, parameter, value, unit
		FROM workout_log
		WHERE user_id = $1
		  AND date >= $2
		  AND date <= $3
		ORDER BY date, id;
	`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.Date,
			&e.WorkoutTitle,
			&e.ActivityName,
			&e.Parameter,
			&e.Value,
			&e.Unit,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
