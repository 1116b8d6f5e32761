package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
)

//go:embed init.sql
var initSQL string

//go:embed collections.sql
var collectionsSQL string

//go:embed records.sql
var recordsSQL string

// Function lists for verification
var CollectionsFunctions = []string{
	"init_collections",
	"ensure_collection",
	"select_collection",
	"select_all_collections",
}

var RecordsFunctions = []string{
	"init_records",
	"upsert_record",
	"select_records_by_similarity",
	"count_records",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	slog.Debug("Database extensions initialized successfully")
	return nil
}

// LoadCollectionsSql loads collection-related SQL functions
func LoadCollectionsSql(db *sql.DB, force bool) error {
	return loadSql(db, "collections", collectionsSQL, CollectionsFunctions, force)
}

// LoadRecordsSql loads record-related SQL functions
func LoadRecordsSql(db *sql.DB, force bool) error {
	return loadSql(db, "records", recordsSQL, RecordsFunctions, force)
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadCollectionsSql(db, force); err != nil {
		return err
	}

	return LoadRecordsSql(db, force)
}

// loadSql executes the given SQL unless all functions already exist.
// With force the SQL is executed regardless.
func loadSql(db *sql.DB, name string, script string, functions []string, force bool) error {
	if !force {
		exist, err := checkFunctions(db, functions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(script)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(db, functions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	slog.Debug("SQL functions loaded successfully", slog.String("set", name))
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			slog.Debug("SQL function does not exist", slog.String("function", f))
			break
		}
	}
	return allExist, nil
}
