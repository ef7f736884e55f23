package badges

import (
	"context"
	"fmt"

	"github.com/2beens/healthify/internal/telemetry/tracing"

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

// List returns the whole catalog in id order.
func (r *Repo) List(ctx context.Context) (_ []Badge, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.badges.list")
	defer func() { tracing.EndSpan(span, err) }()

	rows, err := r.db.Query(ctx, `
		SELECT id, name, description, icon, criteria_type, criteria_value, tier
		FROM badge
		ORDER BY id;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	catalog := make([]Badge, 0)
	for rows.Next() {
		var b Badge
		if err := rows.Scan(
			&b.ID,
			&b.Name,
			&b.Description,
			&b.Icon,
			&b.CriteriaType,
			&b.CriteriaValue,
			&b.Tier,
		); err != nil {
			return nil, err
		}
		catalog = append(catalog, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(catalog)))
	return catalog, nil
}

// ReplaceAll swaps the catalog for the given badges, keeping their order.
func (r *Repo) ReplaceAll(ctx context.Context, catalog []Badge) (_ []Badge, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.badges.replaceall")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.Int("count", len(catalog)))

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

	if _, err = tx.Exec(ctx, `DELETE FROM badge`); err != nil {
		return nil, fmt.Errorf("clear badges: %w", err)
	}

	added := make([]Badge, 0, len(catalog))
	for _, b := range catalog {
		if !b.CriteriaType.IsValid() {
			return nil, fmt.Errorf("badge %q: unknown criteria type %q", b.Name, b.CriteriaType)
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO badge (name, description, icon, criteria_type, criteria_value, tier)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`,
			b.Name,
			b.Description,
			b.Icon,
			b.CriteriaType,
			b.CriteriaValue,
			b.Tier,
		).Scan(&b.ID)
		if err != nil {
			return nil, fmt.Errorf("insert badge %q: %w", b.Name, err)
		}
		added = append(added, b)
	}

	return added, nil
}
