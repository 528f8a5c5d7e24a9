package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ledger/internal/core/apperror"
)

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Get runs q and scans exactly one row into dst. A missing row becomes
// apperror NotFound for entity/key.
func Get(ctx context.Context, q Querier, dst any, b squirrel.Sqlizer, entity string, key any) error {
	sql, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build %s query: %w", entity, err)
	}
	if err := pgxscan.Get(ctx, q, dst, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return apperror.NewNotFound(entity, key)
		}
		return fmt.Errorf("get %s: %w", entity, MapError(err, entity))
	}
	return nil
}

// Select runs q and scans every row into dst, a pointer to a slice.
func Select(ctx context.Context, q Querier, dst any, b squirrel.Sqlizer, entity string) error {
	sql, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build %s query: %w", entity, err)
	}
	if err := pgxscan.Select(ctx, q, dst, sql, args...); err != nil {
		return fmt.Errorf("list %s: %w", entity, MapError(err, entity))
	}
	return nil
}

// Count returns the number of rows b would return, ignoring its ordering
// and paging.
func Count(ctx context.Context, q Querier, b squirrel.SelectBuilder, entity string) (int64, error) {
	countQ := Builder().
		Select("COUNT(*)").
		FromSelect(b.RemoveLimit().RemoveOffset(), "sub")

	sql, args, err := countQ.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s count: %w", entity, err)
	}
	var total int64
	if err := q.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", entity, err)
	}
	return total, nil
}

// Exec runs a write statement and returns the affected row count.
func Exec(ctx context.Context, q Querier, b squirrel.Sqlizer, entity string) (int64, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s statement: %w", entity, err)
	}
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, MapError(fmt.Errorf("write %s: %w", entity, err), entity)
	}
	return tag.RowsAffected(), nil
}

// Page applies limit and offset when set.
func Page(b squirrel.SelectBuilder, limit, offset int) squirrel.SelectBuilder {
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	if offset > 0 {
		b = b.Offset(uint64(offset))
	}
	return b
}
