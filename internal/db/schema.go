package db

// SchemaSQL is the complete schema for fresh pggit installs.
//
// # Schema Drift Protection
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All tests use
// this schema via GetSchemaSQL(). If repository code references a column
// that does not exist here, tests fail immediately with "no such column" -
// drift is caught at development time, not production.
//
// When adding new columns or tables:
//  1. Add a migration in internal/db/migrations.go
//  2. Update SchemaSQL here
const SchemaSQL = `
-- Branches (tree of schema lines rooted at the implicit main branch)
CREATE TABLE IF NOT EXISTS branches (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	parent_branch_id TEXT,
	status TEXT NOT NULL CHECK(status IN ('ACTIVE', 'MERGING', 'DELETED')) DEFAULT 'ACTIVE',
	head_commit_hash TEXT,
	created_by TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (parent_branch_id) REFERENCES branches(id)
);

-- Commits (append-only, content-hash identified, owned by one branch)
CREATE TABLE IF NOT EXISTS commits (
	hash TEXT PRIMARY KEY,
	branch_id TEXT NOT NULL,
	parent_commit_hash TEXT,
	author TEXT NOT NULL,
	message TEXT NOT NULL,
	change_summary TEXT,
	timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (branch_id) REFERENCES branches(id)
);

-- Schema objects (global identity catalog; branch state lives in object_history)
CREATE TABLE IF NOT EXISTS schema_objects (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	object_type TEXT NOT NULL,
	schema_name TEXT NOT NULL,
	object_name TEXT NOT NULL,
	current_definition TEXT,
	content_hash TEXT,
	version TEXT NOT NULL DEFAULT '1.0.0',
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(object_type, schema_name, object_name)
);

-- Object history (append-only ledger; the latest row per object/branch is
-- that branch's working state for the object)
CREATE TABLE IF NOT EXISTS object_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	object_id INTEGER NOT NULL,
	branch_id TEXT NOT NULL,
	change_type TEXT NOT NULL CHECK(change_type IN ('CREATE', 'ALTER', 'DROP')),
	change_severity TEXT NOT NULL CHECK(change_severity IN ('MAJOR', 'MINOR', 'PATCH')),
	before_hash TEXT,
	after_hash TEXT,
	before_definition TEXT,
	after_definition TEXT,
	commit_hash TEXT NOT NULL,
	author TEXT,
	timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (object_id) REFERENCES schema_objects(id),
	FOREIGN KEY (branch_id) REFERENCES branches(id),
	FOREIGN KEY (commit_hash) REFERENCES commits(hash)
);

-- Merge operations
CREATE TABLE IF NOT EXISTS merge_operations (
	id TEXT PRIMARY KEY,
	source_branch_id TEXT NOT NULL,
	target_branch_id TEXT NOT NULL,
	merge_base_branch_id TEXT NOT NULL,
	message TEXT,
	strategy TEXT NOT NULL CHECK(strategy IN ('ABORT_ON_CONFLICT', 'MANUAL_REVIEW', 'PREFER_SOURCE', 'PREFER_TARGET')),
	status TEXT NOT NULL CHECK(status IN ('PENDING', 'CONFLICTED', 'COMPLETED', 'ABORTED')) DEFAULT 'PENDING',
	merge_commit_hash TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	completed_at DATETIME,
	FOREIGN KEY (source_branch_id) REFERENCES branches(id),
	FOREIGN KEY (target_branch_id) REFERENCES branches(id),
	FOREIGN KEY (merge_base_branch_id) REFERENCES branches(id)
);

-- Merge conflict resolutions (one row per conflicting object per merge;
-- source/target payloads are frozen at diff time)
CREATE TABLE IF NOT EXISTS merge_conflict_resolutions (
	merge_id TEXT NOT NULL,
	conflict_seq INTEGER NOT NULL,
	object_id INTEGER NOT NULL,
	conflict_kind TEXT,
	base_hash TEXT,
	source_hash TEXT,
	target_hash TEXT,
	source_definition TEXT,
	target_definition TEXT,
	resolution TEXT NOT NULL CHECK(resolution IN ('SOURCE', 'TARGET', 'CUSTOM', 'DEFERRED')) DEFAULT 'DEFERRED',
	custom_definition TEXT,
	dependent_count INTEGER NOT NULL DEFAULT 0,
	resolved_at DATETIME,
	PRIMARY KEY (merge_id, conflict_seq),
	FOREIGN KEY (merge_id) REFERENCES merge_operations(id) ON DELETE CASCADE,
	FOREIGN KEY (object_id) REFERENCES schema_objects(id)
);

-- Object dependencies (branch-scoped edges, read-only for the merge engine)
CREATE TABLE IF NOT EXISTS object_dependencies (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	branch_id TEXT NOT NULL,
	dependent_id INTEGER NOT NULL,
	dependency_id INTEGER NOT NULL,
	dependency_type TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (branch_id) REFERENCES branches(id),
	FOREIGN KEY (dependent_id) REFERENCES schema_objects(id),
	FOREIGN KEY (dependency_id) REFERENCES schema_objects(id),
	UNIQUE(branch_id, dependent_id, dependency_id)
);

-- Create indexes for common queries
CREATE INDEX IF NOT EXISTS idx_branches_name ON branches(name);
CREATE INDEX IF NOT EXISTS idx_branches_status ON branches(status);
CREATE INDEX IF NOT EXISTS idx_branches_parent ON branches(parent_branch_id);
CREATE INDEX IF NOT EXISTS idx_commits_branch ON commits(branch_id, timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_schema_objects_identity ON schema_objects(object_type, schema_name, object_name);
CREATE INDEX IF NOT EXISTS idx_object_history_object_branch ON object_history(object_id, branch_id, id DESC);
CREATE INDEX IF NOT EXISTS idx_object_history_branch ON object_history(branch_id);
CREATE INDEX IF NOT EXISTS idx_object_history_commit ON object_history(commit_hash);
CREATE INDEX IF NOT EXISTS idx_merge_operations_target ON merge_operations(target_branch_id, status);
CREATE INDEX IF NOT EXISTS idx_merge_conflicts_merge ON merge_conflict_resolutions(merge_id, resolution);
CREATE INDEX IF NOT EXISTS idx_object_dependencies_dependency ON object_dependencies(branch_id, dependency_id);
CREATE INDEX IF NOT EXISTS idx_object_dependencies_dependent ON object_dependencies(branch_id, dependent_id);
`

// InitSchema creates the database schema
func InitSchema() error {
	db, err := GetDB()
	if err != nil {
		return err
	}

	// Check if schema_version table exists to determine if this is a fresh install
	var tableCount int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount == 0 {
		// Fresh install - create the schema directly and mark all
		// migrations as applied so they never run.
		if _, err := db.Exec(SchemaSQL); err != nil {
			return err
		}
		if _, err := db.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY,
				applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)
		`); err != nil {
			return err
		}
		for i := 1; i <= len(migrations); i++ {
			if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", i); err != nil {
				return err
			}
		}
		return nil
	}

	// schema_version table exists - run any pending migrations
	return RunMigrations()
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
