package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"

	"bistro/internal/domain/backup"
)

var _ backup.Store = (*BackupStore)(nil)

// BackupStore implements backup.Store with json_agg / json_populate_recordset,
// so rows round-trip with their column names and database types intact.
type BackupStore struct {
	txManager *TxManager
}

// NewBackupStore creates the backup store.
func NewBackupStore(txManager *TxManager) *BackupStore {
	return &BackupStore{txManager: txManager}
}

func tableIdent(name string) (string, error) {
	if !slices.Contains(backup.Tables, name) {
		return "", fmt.Errorf("unknown table %q", name)
	}
	return pgx.Identifier{name}.Sanitize(), nil
}

// DumpTable returns every row of name as a JSON array.
func (b *BackupStore) DumpTable(ctx context.Context, name string) (json.RawMessage, error) {
	table, err := tableIdent(name)
	if err != nil {
		return nil, err
	}
	var raw []byte
	err = b.txManager.GetQuerier(ctx).QueryRow(ctx,
		fmt.Sprintf(`SELECT COALESCE(json_agg(t), '[]'::json) FROM %s t`, table),
	).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("dump %s: %w", name, err)
	}
	return raw, nil
}

// ClearTable deletes every row of name.
func (b *BackupStore) ClearTable(ctx context.Context, name string) error {
	table, err := tableIdent(name)
	if err != nil {
		return err
	}
	if _, err := b.txManager.GetQuerier(ctx).Exec(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", name, err)
	}
	return nil
}

// LoadTable inserts the rows of a JSON array produced by DumpTable.
func (b *BackupStore) LoadTable(ctx context.Context, name string, rows json.RawMessage) (int64, error) {
	table, err := tableIdent(name)
	if err != nil {
		return 0, err
	}
	tag, err := b.txManager.GetQuerier(ctx).Exec(ctx,
		fmt.Sprintf(`INSERT INTO %[1]s SELECT * FROM json_populate_recordset(NULL::%[1]s, $1::json)`, table),
		string(rows),
	)
	if err != nil {
		return 0, MapError(fmt.Errorf("load %s: %w", name, err), name)
	}
	return tag.RowsAffected(), nil
}
