package database

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/docqa/helper"
	"github.com/siherrmann/docqa/model"
	loadSql "github.com/siherrmann/docqa/sql"
)

// RecordsDBHandlerFunctions defines the interface for Records database operations.
type RecordsDBHandlerFunctions interface {
	UpsertRecord(ctx context.Context, collectionID int, record *model.Record) error
	SelectRecordsBySimilarity(ctx context.Context, collectionID int, embedding []float32, limit int) ([]*model.RetrievalResult, error)
	CountRecords(ctx context.Context, collectionID int) (int, error)
}

// RecordsDBHandler handles record-related database operations
type RecordsDBHandler struct {
	db           *helper.Database
	EmbeddingDim int
}

// NewRecordsDBHandler creates a new records database handler.
// The records table stores vectors of exactly embeddingDim dimensions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewRecordsDBHandler(db *helper.Database, embeddingDim int, force bool) (*RecordsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim))
	}

	recordsDbHandler := &RecordsDBHandler{
		db:           db,
		EmbeddingDim: embeddingDim,
	}

	err := loadSql.LoadRecordsSql(recordsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load records sql", err)
	}

	err = recordsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized RecordsDBHandler")

	return recordsDbHandler, nil
}

// CreateTable creates the 'records' table with its indexes.
// The collections table must exist.
func (h *RecordsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_records($1);`, h.EmbeddingDim)
	if err != nil {
		return helper.NewError("init records", err)
	}

	h.db.Logger.Info("Checked/created table records")

	return nil
}

// UpsertRecord inserts the record or replaces the record with the same key
func (h *RecordsDBHandler) UpsertRecord(ctx context.Context, collectionID int, record *model.Record) error {
	return h.upsertRecord(ctx, h.db.Instance, collectionID, record)
}

func (h *RecordsDBHandler) upsertRecord(ctx context.Context, q querier, collectionID int, record *model.Record) error {
	var id int64
	var createdAt, updatedAt time.Time

	row := q.QueryRowContext(
		ctx,
		`SELECT * FROM upsert_record($1, $2, $3, $4, $5)`,
		collectionID,
		record.Key,
		record.Text,
		pgvector.NewVector(record.Embedding),
		record.Metadata,
	)

	err := row.Scan(&id, &record.Key, &createdAt, &updatedAt)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectRecordsBySimilarity returns the limit records closest to embedding by cosine distance
func (h *RecordsDBHandler) SelectRecordsBySimilarity(ctx context.Context, collectionID int, embedding []float32, limit int) ([]*model.RetrievalResult, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_records_by_similarity($1, $2, $3)`,
		collectionID,
		pgvector.NewVector(embedding),
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	results := []*model.RetrievalResult{}
	for rows.Next() {
		record := &model.Record{}
		var vector pgvector.Vector
		var similarity float64

		err := rows.Scan(
			&record.Key,
			&record.Text,
			&vector,
			&record.Metadata,
			&similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		record.Embedding = vector.Slice()

		results = append(results, &model.RetrievalResult{
			Record: record,
			Score:  similarity,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return results, nil
}

// CountRecords returns the number of records in a collection
func (h *RecordsDBHandler) CountRecords(ctx context.Context, collectionID int) (int, error) {
	var count int
	err := h.db.Instance.QueryRowContext(ctx, `SELECT count_records($1)`, collectionID).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}
