package sql

import (
	"testing"

	"github.com/siherrmann/docqa/helper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func functionExists(t *testing.T, db *helper.Database, name string) bool {
	t.Helper()
	var exists bool
	err := db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);", name).Scan(&exists)
	require.NoError(t, err)
	return exists
}

func TestInit(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	t.Run("Initialize database extensions", func(t *testing.T) {
		err := Init(db.Instance)
		assert.NoError(t, err)

		var exists bool
		err = db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'vector');").Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "pgvector extension should be created")
	})

	t.Run("Initialize database extensions is idempotent", func(t *testing.T) {
		assert.NoError(t, Init(db.Instance))
		assert.NoError(t, Init(db.Instance))
	})
}

func TestLoadCollectionsSql(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	t.Run("Load collections SQL functions", func(t *testing.T) {
		err := LoadCollectionsSql(db.Instance, false)
		assert.NoError(t, err)

		for _, funcName := range CollectionsFunctions {
			assert.True(t, functionExists(t, db, funcName), "Function %s should exist", funcName)
		}
	})

	t.Run("Load collections SQL is idempotent without force", func(t *testing.T) {
		assert.NoError(t, LoadCollectionsSql(db.Instance, false))
	})

	t.Run("Load collections SQL with force reloads", func(t *testing.T) {
		assert.NoError(t, LoadCollectionsSql(db.Instance, true))
	})
}

func TestLoadRecordsSql(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	t.Run("Load records SQL functions", func(t *testing.T) {
		err := LoadRecordsSql(db.Instance, true)
		assert.NoError(t, err)

		for _, funcName := range RecordsFunctions {
			assert.True(t, functionExists(t, db, funcName), "Function %s should exist", funcName)
		}
	})

	t.Run("Load records SQL is idempotent without force", func(t *testing.T) {
		assert.NoError(t, LoadRecordsSql(db.Instance, false))
	})
}

func TestLoadAllSql(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	err := LoadAllSql(db.Instance, true)
	require.NoError(t, err, "Expected LoadAllSql to not return an error")

	for _, funcName := range append(append([]string{}, CollectionsFunctions...), RecordsFunctions...) {
		assert.True(t, functionExists(t, db, funcName), "Function %s should exist", funcName)
	}
}

func TestCheckFunctions(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	t.Run("Check functions returns false when functions don't exist", func(t *testing.T) {
		exist, err := checkFunctions(db.Instance, []string{"function_that_does_not_exist"})
		assert.NoError(t, err)
		assert.False(t, exist)
	})

	t.Run("Check functions returns true when all functions exist", func(t *testing.T) {
		require.NoError(t, LoadCollectionsSql(db.Instance, true))

		exist, err := checkFunctions(db.Instance, CollectionsFunctions)
		assert.NoError(t, err)
		assert.True(t, exist)
	})

	t.Run("Check functions returns false when some functions don't exist", func(t *testing.T) {
		exist, err := checkFunctions(db.Instance, []string{"init_collections", "function_that_does_not_exist"})
		assert.NoError(t, err)
		assert.False(t, exist)
	})
}

func TestEmbeddedSQL(t *testing.T) {
	assert.Contains(t, initSQL, "vector", "Init SQL should create the vector extension")
	for _, f := range CollectionsFunctions {
		assert.Contains(t, collectionsSQL, f, "Collections SQL should define %s", f)
	}
	for _, f := range RecordsFunctions {
		assert.Contains(t, recordsSQL, f, "Records SQL should define %s", f)
	}
}
