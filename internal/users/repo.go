package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/healthify/internal/telemetry/tracing"
	"github.com/2beens/healthify/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

const userColumns = `
	id, username, first_name, last_name, email, purpose,
	three_month_goal, monthly_goal, weekly_goal,
	weekly_goal_status, three_month_goal_status,
	weekly_goal_completions, three_month_goal_completions,
	weekly_goal_lock_in, three_month_goal_lock_in,
	weekly_goal_lock_in_count, three_month_goal_lock_in_count,
	current_streak, last_active_date, streak_dates, commitment_start_date,
	streak_goal, streak_completions, daily_completions, badges,
	created_at, updated_at`

// UpdateFunc mutates the locked user record.
// Returning false skips the write.
type UpdateFunc func(u *User) (changed bool, err error)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Get(ctx context.Context, id int) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.get")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.Int("id", id))

	u := &User{}
	err = scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM app_user WHERE id = $1`, id), u)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *Repo) Add(ctx context.Context, u User) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.add")
	defer func() { tracing.EndSpan(span, err) }()

	if u.StreakGoal <= 0 {
		u.StreakGoal = DefaultStreakGoal
	}
	if u.WeeklyGoalStatus == "" {
		u.WeeklyGoalStatus = GoalNotStarted
	}
	if u.ThreeMonthGoalStatus == "" {
		u.ThreeMonthGoalStatus = GoalNotStarted
	}

	added := &User{}
	err = scanUser(r.db.QueryRow(ctx, `
		INSERT INTO app_user (
			username, first_name, last_name, email, purpose,
			three_month_goal, monthly_goal, weekly_goal,
			weekly_goal_status, three_month_goal_status, streak_goal
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+userColumns,
		u.Username,
		u.FirstName,
		u.LastName,
		u.Email,
		u.Purpose,
		u.ThreeMonthGoal,
		u.MonthlyGoal,
		u.WeeklyGoal,
		u.WeeklyGoalStatus,
		u.ThreeMonthGoalStatus,
		u.StreakGoal,
	), added)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, fmt.Errorf("%w: %s / %s", ErrUserExists, u.Username, u.Email)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return added, nil
}

// Update reads the user row with FOR UPDATE, applies fn and writes the
// result back in the same transaction.
func (r *Repo) Update(ctx context.Context, id int, fn UpdateFunc) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.update")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.Int("id", id))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	u := &User{}
	err = scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM app_user WHERE id = $1 FOR UPDATE`, id), u)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	changed, err := fn(u)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("changed", changed))
	if !changed {
		return u, nil
	}

	if u.StreakDates == nil {
		u.StreakDates = []time.Time{}
	}
	if u.Badges == nil {
		u.Badges = []string{}
	}
	if u.DailyCompletions == nil {
		u.DailyCompletions = map[string]int{}
	}

	err = tx.QueryRow(ctx, `
		UPDATE app_user
		SET first_name = $2,
		    last_name = $3,
		    purpose = $4,
		    three_month_goal = $5,
		    monthly_goal = $6,
		    weekly_goal = $7,
		    weekly_goal_status = $8,
		    three_month_goal_status = $9,
		    weekly_goal_completions = $10,
		    three_month_goal_completions = $11,
		    weekly_goal_lock_in = $12,
		    three_month_goal_lock_in = $13,
		    weekly_goal_lock_in_count = $14,
		    three_month_goal_lock_in_count = $15,
		    current_streak = $16,
		    last_active_date = $17,
		    streak_dates = $18,
		    commitment_start_date = $19,
		    streak_goal = $20,
		    streak_completions = $21,
		    daily_completions = $22,
		    badges = $23,
		    updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`,
		u.ID,
		u.FirstName,
		u.LastName,
		u.Purpose,
		u.ThreeMonthGoal,
		u.MonthlyGoal,
		u.WeeklyGoal,
		u.WeeklyGoalStatus,
		u.ThreeMonthGoalStatus,
		u.WeeklyGoalCompletions,
		u.ThreeMonthGoalCompletions,
		u.WeeklyGoalLockIn,
		u.ThreeMonthGoalLockIn,
		u.WeeklyGoalLockInCount,
		u.ThreeMonthGoalLockInCount,
		u.CurrentStreak,
		u.LastActiveDate,
		u.StreakDates,
		u.CommitmentStartDate,
		u.StreakGoal,
		u.StreakCompletions,
		u.DailyCompletions,
		u.Badges,
	).Scan(&u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("write user: %w", err)
	}

	return u, nil
}

func scanUser(row pgx.Row, u *User) error {
	return row.Scan(
		&u.ID,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.Purpose,
		&u.ThreeMonthGoal,
		&u.MonthlyGoal,
		&u.WeeklyGoal,
		&u.WeeklyGoalStatus,
		&u.ThreeMonthGoalStatus,
		&u.WeeklyGoalCompletions,
		&u.ThreeMonthGoalCompletions,
		&u.WeeklyGoalLockIn,
		&u.ThreeMonthGoalLockIn,
		&u.WeeklyGoalLockInCount,
		&u.ThreeMonthGoalLockInCount,
		&u.CurrentStreak,
		&u.LastActiveDate,
		&u.StreakDates,
		&u.CommitmentStartDate,
		&u.StreakGoal,
		&u.StreakCompletions,
		&u.DailyCompletions,
		&u.Badges,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
}
