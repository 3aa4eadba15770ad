package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	appctx "bistro/internal/core/context"
	"bistro/internal/core/id"
	"bistro/internal/domain/audit"
)

// CompressionAlgo specifies the compression algorithm used for stored changes.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultAuditCompressThreshold is the size above which changes are stored zstd-compressed.
const DefaultAuditCompressThreshold = 1024

var (
	_ audit.Recorder = (*AuditService)(nil)
	_ audit.Reader   = (*AuditService)(nil)
)

// AuditService writes audit_log rows, compressing large change sets.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditService creates a new audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditService{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: DefaultAuditCompressThreshold,
	}, nil
}

// Record inserts an audit entry within the transaction in ctx.
func (s *AuditService) Record(ctx context.Context, entry audit.Entry) error {
	if entry.UserID == "" {
		entry.UserID = appctx.GetUserID(ctx)
	}
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	changes, compressed, algo, err := s.encodeChanges(entry.Changes)
	if err != nil {
		return err
	}

	_, err = s.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO audit_log (
			id, entity_type, entity_id, action, user_id,
			changes, changes_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		entry.ID, entry.EntityType, entry.EntityID, string(entry.Action), nullableString(entry.UserID),
		changes, compressed, string(algo), entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *AuditService) encodeChanges(changes map[string]any) ([]byte, []byte, CompressionAlgo, error) {
	if len(changes) == 0 {
		return nil, nil, CompressionNone, nil
	}
	raw, err := json.Marshal(changes)
	if err != nil {
		return nil, nil, "", fmt.Errorf("marshal audit changes: %w", err)
	}
	if len(raw) <= s.compressThreshold {
		return raw, nil, CompressionNone, nil
	}
	return nil, s.encoder.EncodeAll(raw, nil), CompressionZstd, nil
}

// History retrieves audit history for an entity, newest first.
func (s *AuditService) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]audit.Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, `
		SELECT id, entity_type, entity_id, action, COALESCE(user_id, ''),
		       changes, changes_compressed, compression_algo, created_at
		FROM audit_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var (
			e          audit.Entry
			action     string
			algo       string
			changes    []byte
			compressed []byte
		)
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &action, &e.UserID,
			&changes, &compressed, &algo, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Action = audit.Action(action)

		if CompressionAlgo(algo) == CompressionZstd && len(compressed) > 0 {
			changes, err = s.decoder.DecodeAll(compressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress audit changes: %w", err)
			}
		}
		if len(changes) > 0 {
			if err := json.Unmarshal(changes, &e.Changes); err != nil {
				return nil, fmt.Errorf("decode audit changes: %w", err)
			}
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
