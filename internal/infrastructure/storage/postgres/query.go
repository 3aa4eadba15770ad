package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"bistro/internal/core/apperror"
	"bistro/internal/domain/orders"
)

// PostgreSQL error codes the repositories translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// ActiveOrderStatuses are the stored status values of orders that hold a table.
var ActiveOrderStatuses = func() []string {
	out := make([]string, len(orders.ActiveStatuses))
	for i, s := range orders.ActiveStatuses {
		out[i] = string(s)
	}
	return out
}()

// Builder returns a squirrel builder with PostgreSQL placeholders.
func Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// MapError translates constraint violations into application errors.
// Other errors are returned unchanged.
func MapError(err error, entity string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return apperror.NewConflict(entity+" already exists").
			WithDetail("entity", entity).
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgForeignKeyViolation:
		return apperror.NewReferentialBlock(entity, "", "referenced by other records").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgCheckViolation:
		return apperror.NewInvalidInput(entity+" violates "+pgErr.ConstraintName).
			WithDetail("entity", entity).
			WithCause(err)
	}
	return err
}

// Exec builds and runs a statement, returning the affected row count.
func Exec(ctx context.Context, q Querier, b squirrel.Sqlizer) (int64, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build statement: %w", err)
	}
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Get builds and runs a query scanning exactly one row into dst.
// No rows yields NotFound for entity/key.
func Get(ctx context.Context, q Querier, dst any, b squirrel.Sqlizer, entity string, key any) error {
	sql, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, q, dst, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return apperror.NewNotFound(entity, key)
		}
		return fmt.Errorf("get %s: %w", entity, err)
	}
	return nil
}

// Select builds and runs a query scanning every row into dst.
func Select(ctx context.Context, q Querier, dst any, b squirrel.Sqlizer) error {
	sql, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return pgxscan.Select(ctx, q, dst, sql, args...)
}

// Count wraps a select in COUNT(*). Call it before adding LIMIT and OFFSET.
func Count(ctx context.Context, q Querier, b squirrel.SelectBuilder) (int64, error) {
	sql, args, err := Builder().
		Select("COUNT(*)").
		FromSelect(b, "sub").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}
	var n int64
	if err := q.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Exists reports whether the query returns at least one row.
func Exists(ctx context.Context, q Querier, b squirrel.SelectBuilder) (bool, error) {
	sql, args, err := b.Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}
	var one int
	err = q.QueryRow(ctx, "SELECT 1 FROM ("+sql+") e", args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return true, nil
}

// ILike returns a case-insensitive substring match on any of cols.
func ILike(search string, cols ...string) squirrel.Sqlizer {
	pattern := "%" + search + "%"
	or := make(squirrel.Or, len(cols))
	for i, col := range cols {
		or[i] = squirrel.ILike{col: pattern}
	}
	return or
}
