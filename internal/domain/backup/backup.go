// Package backup exports and restores the core tables as a zstd-compressed JSON archive.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"

	"bistro/internal/core/apperror"
	"bistro/internal/core/tx"
	"bistro/pkg/logger"
)

// FormatVersion is bumped whenever the archive layout changes.
const FormatVersion = 1

// Tables lists the archived tables, parents before children.
// Restore inserts in this order and clears in reverse.
var Tables = []string{
	"roles",
	"users",
	"materials",
	"categories",
	"products",
	"recipe_items",
	"dining_tables",
	"zones",
	"drivers",
	"orders",
	"order_items",
	"sales",
	"sale_items",
	"purchases",
	"purchase_items",
	"waste",
}

// Table holds the rows of one table as a JSON array.
type Table struct {
	Name string          `json:"name"`
	Rows json.RawMessage `json:"rows"`
}

// Archive is the decoded backup content.
type Archive struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	Tables    []Table   `json:"tables"`
}

// Store reads and replaces table contents inside the caller's transaction.
type Store interface {
	DumpTable(ctx context.Context, name string) (json.RawMessage, error)
	ClearTable(ctx context.Context, name string) error
	LoadTable(ctx context.Context, name string, rows json.RawMessage) (int64, error)
}

// Sequencer realigns document number counters with restored documents.
type Sequencer interface {
	Resync(ctx context.Context, numbers []string) error
}

// numberFields names the fields that may hold the document number of the
// tables numbered from a sequence: SQL dumps use column names, the in-memory
// store uses the JSON names of the domain types.
var numberFields = map[string][]string{
	"sales":     {"invoice_no", "invoiceNo"},
	"purchases": {"number"},
}

// Service exports and restores archives.
type Service struct {
	store     Store
	txManager tx.Manager
	sequencer Sequencer
}

// NewService creates a new backup service.
func NewService(store Store, txManager tx.Manager, sequencer Sequencer) *Service {
	return &Service{store: store, txManager: txManager, sequencer: sequencer}
}

// Export writes a consistent archive of every table to w.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	archive := Archive{Version: FormatVersion, CreatedAt: time.Now().UTC()}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, name := range Tables {
			rows, err := s.store.DumpTable(ctx, name)
			if err != nil {
				return fmt.Errorf("dump %s: %w", name, err)
			}
			archive.Tables = append(archive.Tables, Table{Name: name, Rows: rows})
		}
		return nil
	})
	if err != nil {
		return err
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	if err := json.NewEncoder(enc).Encode(archive); err != nil {
		enc.Close()
		return fmt.Errorf("encode archive: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush archive: %w", err)
	}

	logger.Info(ctx, "backup exported", "tables", len(archive.Tables))
	return nil
}

// Restore replaces every table with the archive content in one transaction.
// Tables missing from the archive are left empty.
func (s *Service) Restore(ctx context.Context, r io.Reader) error {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return apperror.NewInvalidInput("backup is not a zstd stream").WithCause(err)
	}
	defer dec.Close()

	var archive Archive
	if err := json.NewDecoder(dec).Decode(&archive); err != nil {
		return apperror.NewInvalidInput("backup archive is corrupt").WithCause(err)
	}
	if archive.Version != FormatVersion {
		return apperror.NewInvalidInput(fmt.Sprintf("unsupported backup version %d", archive.Version))
	}

	byName := make(map[string]json.RawMessage, len(archive.Tables))
	for _, t := range archive.Tables {
		byName[t.Name] = t.Rows
	}

	var restored int64
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for i := len(Tables) - 1; i >= 0; i-- {
			if err := s.store.ClearTable(ctx, Tables[i]); err != nil {
				return fmt.Errorf("clear %s: %w", Tables[i], err)
			}
		}
		for _, name := range Tables {
			rows, ok := byName[name]
			if !ok || len(rows) == 0 {
				continue
			}
			n, err := s.store.LoadTable(ctx, name, rows)
			if err != nil {
				return fmt.Errorf("load %s: %w", name, err)
			}
			restored += n
		}
		return s.resyncNumbers(ctx, byName)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "backup restored", "rows", restored, "archived_at", archive.CreatedAt)
	return nil
}

// resyncNumbers moves the counters past the restored document numbers so new
// invoices and purchases do not collide with them.
func (s *Service) resyncNumbers(ctx context.Context, tables map[string]json.RawMessage) error {
	if s.sequencer == nil {
		return nil
	}

	var numbers []string
	for name, fields := range numberFields {
		rows, ok := tables[name]
		if !ok || len(rows) == 0 {
			continue
		}
		var decoded []map[string]json.RawMessage
		if err := json.Unmarshal(rows, &decoded); err != nil {
			return apperror.NewInvalidInput(fmt.Sprintf("backup table %s is corrupt", name)).WithCause(err)
		}
		for _, row := range decoded {
			for _, field := range fields {
				var number string
				if err := json.Unmarshal(row[field], &number); err == nil && number != "" {
					numbers = append(numbers, number)
					break
				}
			}
		}
	}

	if err := s.sequencer.Resync(ctx, numbers); err != nil {
		return fmt.Errorf("resync document numbers: %w", err)
	}
	return nil
}
