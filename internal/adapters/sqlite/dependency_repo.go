package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/evoludigit/pgGit-sub001/internal/ports/secondary"
)

// DependencyRepository implements secondary.DependencyRepository with SQLite.
type DependencyRepository struct {
	db *sql.DB
}

// NewDependencyRepository creates a new SQLite dependency repository.
func NewDependencyRepository(db *sql.DB) *DependencyRepository {
	return &DependencyRepository{db: db}
}

// Add records an edge dependent -> dependency on a branch.
func (r *DependencyRepository) Add(ctx context.Context, edge *secondary.DependencyRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO object_dependencies (branch_id, dependent_id, dependency_id, dependency_type) VALUES (?, ?, ?, ?)",
		edge.BranchID, edge.DependentID, edge.DependencyID, nullIfEmpty(edge.DependencyType),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("dependency edge: %w", secondary.ErrDuplicate)
		}
		return fmt.Errorf("failed to add dependency: %w", err)
	}
	return nil
}

// CountDependents returns how many objects depend on the given object on
// a branch.
func (r *DependencyRepository) CountDependents(ctx context.Context, objectID int64, branchID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM object_dependencies WHERE branch_id = ? AND dependency_id = ?",
		branchID, objectID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count dependents: %w", err)
	}
	return count, nil
}

// ListDependents returns the objects depending on the given object on a
// branch.
func (r *DependencyRepository) ListDependents(ctx context.Context, objectID int64, branchID string) ([]*secondary.ObjectRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT o.id, o.object_type, o.schema_name, o.object_name, o.current_definition, o.content_hash, o.version, o.is_active
		 FROM object_dependencies d
		 JOIN schema_objects o ON o.id = d.dependent_id
		 WHERE d.branch_id = ? AND d.dependency_id = ?
		 ORDER BY o.schema_name, o.object_name`,
		branchID, objectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dependents: %w", err)
	}
	defer rows.Close()

	var objects []*secondary.ObjectRecord
	for rows.Next() {
		var (
			definition sql.NullString
			hash       sql.NullString
			active     int
		)
		record := &secondary.ObjectRecord{}
		err := rows.Scan(&record.ID, &record.ObjectType, &record.SchemaName, &record.ObjectName, &definition, &hash, &record.Version, &active)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dependent: %w", err)
		}
		record.CurrentDefinition = definition.String
		record.ContentHash = hash.String
		record.IsActive = active != 0
		objects = append(objects, record)
	}

	return objects, rows.Err()
}

// Ensure DependencyRepository implements the interface
var _ secondary.DependencyRepository = (*DependencyRepository)(nil)
