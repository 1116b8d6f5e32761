package database

import (
	"context"
	"testing"

	"github.com/siherrmann/docqa/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionsNewCollectionsDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewCollectionsDBHandler", func(t *testing.T) {
		collectionsDbHandler, err := NewCollectionsDBHandler(database, true)
		assert.NoError(t, err, "Expected NewCollectionsDBHandler to not return an error")
		require.NotNil(t, collectionsDbHandler, "Expected NewCollectionsDBHandler to return a non-nil instance")
		require.NotNil(t, collectionsDbHandler.db.Instance, "Expected NewCollectionsDBHandler to have a non-nil database connection instance")
	})

	t.Run("Invalid call NewCollectionsDBHandler with nil database", func(t *testing.T) {
		_, err := NewCollectionsDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating CollectionsDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestCollectionsEnsureAndSelect(t *testing.T) {
	database := initDB(t)
	resetTables(t, database)
	ctx := context.Background()

	collectionsDbHandler, err := NewCollectionsDBHandler(database, true)
	require.NoError(t, err, "Expected NewCollectionsDBHandler to not return an error")

	t.Run("Valid call EnsureCollection creates collection", func(t *testing.T) {
		c, err := collectionsDbHandler.EnsureCollection(ctx, "my_docs", 3)
		require.NoError(t, err, "Expected EnsureCollection to not return an error")
		assert.NotZero(t, c.ID)
		assert.Equal(t, "my_docs", c.Name)
		assert.Equal(t, 3, c.Dimension)
		assert.False(t, c.CreatedAt.IsZero())
	})

	t.Run("EnsureCollection keeps existing collection", func(t *testing.T) {
		first, err := collectionsDbHandler.EnsureCollection(ctx, "stable", 3)
		require.NoError(t, err)

		second, err := collectionsDbHandler.EnsureCollection(ctx, "stable", 5)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 3, second.Dimension, "Expected dimension of the existing collection")
	})

	t.Run("Valid call SelectCollection", func(t *testing.T) {
		c, err := collectionsDbHandler.SelectCollection(ctx, "my_docs")
		require.NoError(t, err)
		assert.Equal(t, "my_docs", c.Name)
	})

	t.Run("SelectCollection of missing collection", func(t *testing.T) {
		_, err := collectionsDbHandler.SelectCollection(ctx, "missing")
		var notFound *model.CollectionNotFoundError
		assert.ErrorAs(t, err, &notFound, "Expected CollectionNotFoundError")
	})

	t.Run("Valid call SelectAllCollections", func(t *testing.T) {
		collections, err := collectionsDbHandler.SelectAllCollections(ctx)
		require.NoError(t, err)
		require.Len(t, collections, 2)
		assert.Equal(t, "my_docs", collections[0].Name)
		assert.Equal(t, "stable", collections[1].Name)
	})
}
