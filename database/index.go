package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/siherrmann/docqa/helper"
)

// IndexType is the approximate nearest neighbour index used on the records table
type IndexType string

const (
	IndexTypeHNSW    IndexType = "hnsw"
	IndexTypeIVFFlat IndexType = "ivfflat"
)

// ChangeIndexType replaces the vector index of the records table.
// params are optional:
//   - For HNSW: "m" (int, default 16), "ef_construction" (int, default 64)
//   - For IVFFlat: "lists" (int, default 100)
func (h *RecordsDBHandler) ChangeIndexType(ctx context.Context, indexType IndexType, params map[string]int) error {
	var createIndexSQL string

	switch indexType {
	case IndexTypeHNSW:
		m, efConstruction := 16, 64
		if v, ok := params["m"]; ok {
			m = v
		}
		if v, ok := params["ef_construction"]; ok {
			efConstruction = v
		}
		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_records_embedding ON records USING hnsw (embedding vector_cosine_ops) WITH (m = %d, ef_construction = %d);`,
			m, efConstruction,
		)

	case IndexTypeIVFFlat:
		lists := 100
		if v, ok := params["lists"]; ok {
			lists = v
		}
		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_records_embedding ON records USING ivfflat (embedding vector_cosine_ops) WITH (lists = %d);`,
			lists,
		)

	default:
		return helper.NewError("change index type", fmt.Errorf("unsupported index type: %s (use 'hnsw' or 'ivfflat')", indexType))
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	tx, err := h.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DROP INDEX IF EXISTS idx_records_embedding;`); err != nil {
		return helper.NewError("drop index", err)
	}
	if _, err := tx.ExecContext(ctx, createIndexSQL); err != nil {
		return helper.NewError("create index", err)
	}
	if err := tx.Commit(); err != nil {
		return helper.NewError("commit", err)
	}

	h.db.Logger.Info("Changed vector index", slog.String("type", string(indexType)), slog.Any("params", params))

	return nil
}
