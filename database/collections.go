package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/siherrmann/docqa/helper"
	"github.com/siherrmann/docqa/model"
	loadSql "github.com/siherrmann/docqa/sql"
)

// CollectionsDBHandlerFunctions defines the interface for Collections database operations.
type CollectionsDBHandlerFunctions interface {
	EnsureCollection(ctx context.Context, name string, dimension int) (*model.Collection, error)
	SelectCollection(ctx context.Context, name string) (*model.Collection, error)
	SelectAllCollections(ctx context.Context) ([]*model.Collection, error)
}

// CollectionsDBHandler handles collection-related database operations
type CollectionsDBHandler struct {
	db *helper.Database
}

// NewCollectionsDBHandler creates a new collections database handler.
// It loads the collection-related SQL functions and creates the table.
// If force is true, it will reload the SQL functions even if they already exist.
func NewCollectionsDBHandler(db *helper.Database, force bool) (*CollectionsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	collectionsDbHandler := &CollectionsDBHandler{
		db: db,
	}

	err := loadSql.LoadCollectionsSql(collectionsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load collections sql", err)
	}

	err = collectionsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized CollectionsDBHandler")

	return collectionsDbHandler, nil
}

// CreateTable creates the 'collections' table if it does not exist
func (h *CollectionsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_collections();`)
	if err != nil {
		return helper.NewError("init collections", err)
	}

	h.db.Logger.Info("Checked/created table collections")

	return nil
}

// EnsureCollection returns the collection, creating it with dimension if it does not exist
func (h *CollectionsDBHandler) EnsureCollection(ctx context.Context, name string, dimension int) (*model.Collection, error) {
	return h.ensureCollection(ctx, h.db.Instance, name, dimension)
}

func (h *CollectionsDBHandler) ensureCollection(ctx context.Context, q querier, name string, dimension int) (*model.Collection, error) {
	row := q.QueryRowContext(
		ctx,
		`SELECT * FROM ensure_collection($1, $2)`,
		name,
		dimension,
	)

	collection, err := scanCollection(row)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return collection, nil
}

// SelectCollection retrieves a collection by name.
// A missing collection returns a *model.CollectionNotFoundError.
func (h *CollectionsDBHandler) SelectCollection(ctx context.Context, name string) (*model.Collection, error) {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_collection($1)`,
		name,
	)

	collection, err := scanCollection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.CollectionNotFoundError{Collection: name}
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return collection, nil
}

// SelectAllCollections retrieves all collections ordered by name
func (h *CollectionsDBHandler) SelectAllCollections(ctx context.Context) ([]*model.Collection, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM select_all_collections()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var collections []*model.Collection
	for rows.Next() {
		collection, err := scanCollection(rows)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		collections = append(collections, collection)
	}

	if err := rows.Err(); err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return collections, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCollection(row scanner) (*model.Collection, error) {
	collection := &model.Collection{}
	err := row.Scan(
		&collection.ID,
		&collection.Name,
		&collection.Dimension,
		&collection.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return collection, nil
}
