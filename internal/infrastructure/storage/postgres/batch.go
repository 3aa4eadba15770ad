package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// copyThreshold is the row count from which line inserts switch to COPY.
const copyThreshold = 20

// LineWriter replaces the child rows of a document (order items, recipe lines).
// Small sets use a single multi-row INSERT, large ones the COPY protocol.
type LineWriter struct {
	txManager *TxManager
}

// NewLineWriter creates a new line writer.
func NewLineWriter(txManager *TxManager) *LineWriter {
	return &LineWriter{txManager: txManager}
}

// Replace deletes the rows of table where parentCol = parentID and inserts rows.
// Must run inside a transaction.
func (w *LineWriter) Replace(ctx context.Context, table, parentCol string, parentID any, columns []string, rows [][]any) error {
	if w.txManager.GetTx(ctx) == nil {
		return fmt.Errorf("replace %s requires transaction context", table)
	}
	if _, err := w.txManager.GetTx(ctx).Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE %s = $1", pgx.Identifier{table}.Sanitize(), pgx.Identifier{parentCol}.Sanitize()),
		parentID,
	); err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return w.Insert(ctx, table, columns, rows)
}

// Insert appends rows to table. Must run inside a transaction.
func (w *LineWriter) Insert(ctx context.Context, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	t := w.txManager.GetTx(ctx)
	if t == nil {
		return fmt.Errorf("insert %s requires transaction context", table)
	}

	if len(rows) >= copyThreshold {
		n, err := t.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("copy %s: %w", table, err)
		}
		if n != int64(len(rows)) {
			return fmt.Errorf("copy %s: wrote %d of %d rows", table, n, len(rows))
		}
		return nil
	}

	q := Builder().Insert(table).Columns(columns...)
	for _, row := range rows {
		q = q.Values(row...)
	}
	if _, err := Exec(ctx, t, q); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}
