package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/evoludigit/pgGit-sub001/internal/ports/secondary"
)

// ObjectRepository implements secondary.ObjectRepository with SQLite.
type ObjectRepository struct {
	db *sql.DB
}

// NewObjectRepository creates a new SQLite object repository.
func NewObjectRepository(db *sql.DB) *ObjectRepository {
	return &ObjectRepository{db: db}
}

const objectColumns = "id, object_type, schema_name, object_name, current_definition, content_hash, version, is_active"

// Ensure creates-or-returns the identity row for the given identity.
// The insert is idempotent so concurrent first-touches of the same
// identity converge on one row.
func (r *ObjectRepository) Ensure(ctx context.Context, objectType, schemaName, objectName string) (*secondary.ObjectRecord, error) {
	_, err := r.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO schema_objects (object_type, schema_name, object_name) VALUES (?, ?, ?)",
		objectType, schemaName, objectName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure object: %w", err)
	}

	return r.GetByIdentity(ctx, objectType, schemaName, objectName)
}

// GetByID retrieves an object by its ID.
func (r *ObjectRepository) GetByID(ctx context.Context, id int64) (*secondary.ObjectRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+objectColumns+" FROM schema_objects WHERE id = ?", id)

	record, err := scanObject(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("object %d: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	return record, nil
}

// GetByIdentity retrieves an object by its global identity.
func (r *ObjectRepository) GetByIdentity(ctx context.Context, objectType, schemaName, objectName string) (*secondary.ObjectRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+objectColumns+" FROM schema_objects WHERE object_type = ? AND schema_name = ? AND object_name = ?",
		objectType, schemaName, objectName)

	record, err := scanObject(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("object %s.%s: %w", schemaName, objectName, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	return record, nil
}

func scanObject(scan func(...any) error) (*secondary.ObjectRecord, error) {
	var (
		definition sql.NullString
		hash       sql.NullString
		active     int
	)

	record := &secondary.ObjectRecord{}
	err := scan(&record.ID, &record.ObjectType, &record.SchemaName, &record.ObjectName, &definition, &hash, &record.Version, &active)
	if err != nil {
		return nil, err
	}

	record.CurrentDefinition = definition.String
	record.ContentHash = hash.String
	record.IsActive = active != 0

	return record, nil
}

// Ensure ObjectRepository implements the interface
var _ secondary.ObjectRepository = (*ObjectRepository)(nil)
