// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Use setupTestDB()
// and the seed* helpers instead.
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/evoludigit/pgGit-sub001/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// This is the single shared test database setup function for all repository
// tests. Uses db.GetSchemaSQL() to prevent test schemas from drifting.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if _, err := testDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	// Use the authoritative schema from schema.go
	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedBranch inserts a test branch and returns its ID.
func seedBranch(t *testing.T, db *sql.DB, id, name, parentID string) string {
	t.Helper()
	if id == "" {
		id = "branch-main"
	}
	if name == "" {
		name = "main"
	}
	var parent sql.NullString
	if parentID != "" {
		parent = sql.NullString{String: parentID, Valid: true}
	}
	_, err := db.Exec(
		"INSERT INTO branches (id, name, parent_branch_id, status, created_by) VALUES (?, ?, ?, 'ACTIVE', 'tester')",
		id, name, parent)
	if err != nil {
		t.Fatalf("failed to seed branch: %v", err)
	}
	return id
}

// seedCommit inserts a test commit and returns its hash.
func seedCommit(t *testing.T, db *sql.DB, hash, branchID string) string {
	t.Helper()
	if hash == "" {
		hash = "commit-001"
	}
	_, err := db.Exec(
		"INSERT INTO commits (hash, branch_id, author, message) VALUES (?, ?, 'tester', 'test commit')",
		hash, branchID)
	if err != nil {
		t.Fatalf("failed to seed commit: %v", err)
	}
	return hash
}

// seedObject inserts a schema object identity row and returns its ID.
func seedObject(t *testing.T, db *sql.DB, objectType, schemaName, objectName string) int64 {
	t.Helper()
	if objectType == "" {
		objectType = "TABLE"
	}
	if schemaName == "" {
		schemaName = "public"
	}
	if objectName == "" {
		objectName = "users"
	}
	result, err := db.Exec(
		"INSERT INTO schema_objects (object_type, schema_name, object_name) VALUES (?, ?, ?)",
		objectType, schemaName, objectName)
	if err != nil {
		t.Fatalf("failed to seed object: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("failed to get object id: %v", err)
	}
	return id
}
