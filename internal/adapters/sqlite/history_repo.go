package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/evoludigit/pgGit-sub001/internal/ports/secondary"
)

// HistoryRepository implements secondary.HistoryRepository with SQLite.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new SQLite history repository.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

const historyColumns = "id, object_id, branch_id, change_type, change_severity, before_hash, after_hash, before_definition, after_definition, commit_hash, author, timestamp"

// Append appends a ledger entry and updates the object registry row in
// one transaction. The before-hash precondition is checked against the
// latest entry inside the transaction so concurrent appends to the same
// chain serialize instead of interleaving.
func (r *HistoryRepository) Append(ctx context.Context, entry *secondary.HistoryRecord, object secondary.ObjectUpdate) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := appendHistoryTx(ctx, tx, entry, object)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit append: %w", err)
	}

	return id, nil
}

// appendHistoryTx performs the CAS check, the ledger insert, and the
// registry update inside the caller's transaction. The merge adapter
// reuses it so merge applies share the same precondition semantics.
func appendHistoryTx(ctx context.Context, tx *sql.Tx, entry *secondary.HistoryRecord, object secondary.ObjectUpdate) (int64, error) {
	var currentAfter sql.NullString
	err := tx.QueryRowContext(ctx,
		"SELECT after_hash FROM object_history WHERE object_id = ? AND branch_id = ? ORDER BY id DESC LIMIT 1",
		entry.ObjectID, entry.BranchID,
	).Scan(&currentAfter)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to read latest entry: %w", err)
	}

	// A first touch on this branch accepts whatever before hash the
	// caller claims; there is no chain to contradict it yet.
	if err == nil && currentAfter.String != entry.BeforeHash {
		return 0, fmt.Errorf("object %d on branch %s: %w", entry.ObjectID, entry.BranchID, secondary.ErrStaleWrite)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO object_history
			(object_id, branch_id, change_type, change_severity, before_hash, after_hash, before_definition, after_definition, commit_hash, author)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ObjectID, entry.BranchID, entry.ChangeType, entry.ChangeSeverity,
		nullIfEmpty(entry.BeforeHash), nullIfEmpty(entry.AfterHash),
		nullIfEmpty(entry.BeforeDefinition), nullIfEmpty(entry.AfterDefinition),
		entry.CommitHash, nullIfEmpty(entry.Author),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to append history entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get entry id: %w", err)
	}

	active := 0
	if object.IsActive {
		active = 1
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE schema_objects SET current_definition = ?, content_hash = ?, version = ?, is_active = ? WHERE id = ?",
		nullIfEmpty(object.CurrentDefinition), nullIfEmpty(object.ContentHash), object.Version, active, entry.ObjectID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update object registry: %w", err)
	}

	return id, nil
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// LatestEntry returns the most recent ledger entry for an object on a branch.
func (r *HistoryRepository) LatestEntry(ctx context.Context, objectID int64, branchID string) (*secondary.HistoryRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+historyColumns+" FROM object_history WHERE object_id = ? AND branch_id = ? ORDER BY id DESC LIMIT 1",
		objectID, branchID)

	record, err := scanHistory(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("object %d on branch %s: %w", objectID, branchID, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest entry: %w", err)
	}

	return record, nil
}

// ListByObjectBranch returns entries for an object on a branch, newest first.
func (r *HistoryRepository) ListByObjectBranch(ctx context.Context, objectID int64, branchID string, limit int) ([]*secondary.HistoryRecord, error) {
	query := "SELECT " + historyColumns + " FROM object_history WHERE object_id = ? AND branch_id = ? ORDER BY id DESC"
	args := []any{objectID, branchID}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []*secondary.HistoryRecord
	for rows.Next() {
		record, err := scanHistory(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, record)
	}

	return entries, rows.Err()
}

// LatestEntryByCommits returns the most recent ledger entry for an object
// among the given commits, regardless of branch.
func (r *HistoryRepository) LatestEntryByCommits(ctx context.Context, objectID int64, commitHashes []string) (*secondary.HistoryRecord, error) {
	if len(commitHashes) == 0 {
		return nil, fmt.Errorf("object %d: %w", objectID, secondary.ErrNotFound)
	}

	placeholders := strings.Repeat("?,", len(commitHashes))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(commitHashes)+1)
	args = append(args, objectID)
	for _, hash := range commitHashes {
		args = append(args, hash)
	}

	row := r.db.QueryRowContext(ctx,
		"SELECT "+historyColumns+" FROM object_history WHERE object_id = ? AND commit_hash IN ("+placeholders+") ORDER BY id DESC LIMIT 1",
		args...)

	record, err := scanHistory(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("object %d: %w", objectID, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry by commits: %w", err)
	}

	return record, nil
}

// TouchedObjectIDs returns distinct object ids with ledger rows on any of
// the given branches.
func (r *HistoryRepository) TouchedObjectIDs(ctx context.Context, branchIDs []string) ([]int64, error) {
	if len(branchIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(branchIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(branchIDs))
	for i, id := range branchIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT object_id FROM object_history WHERE branch_id IN ("+placeholders+") ORDER BY object_id",
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list touched objects: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan object id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// BranchObjects lists objects whose latest entry on the branch is a
// non-DROP change.
func (r *HistoryRepository) BranchObjects(ctx context.Context, branchID string, filters secondary.BranchObjectFilters) ([]*secondary.BranchObjectRow, error) {
	query := `
		SELECT o.id, o.object_type, o.schema_name, o.object_name, h.after_hash, o.version
		FROM object_history h
		JOIN schema_objects o ON o.id = h.object_id
		WHERE h.branch_id = ?
		  AND h.id = (
			SELECT MAX(h2.id) FROM object_history h2
			WHERE h2.object_id = h.object_id AND h2.branch_id = h.branch_id
		  )
		  AND h.change_type != 'DROP'`
	args := []any{branchID}

	if filters.ObjectType != "" {
		query += " AND o.object_type = ?"
		args = append(args, filters.ObjectType)
	}
	if filters.SchemaName != "" {
		query += " AND o.schema_name = ?"
		args = append(args, filters.SchemaName)
	}

	switch filters.OrderBy {
	case "type":
		query += " ORDER BY o.object_type, o.schema_name, o.object_name"
	default:
		query += " ORDER BY o.schema_name, o.object_name"
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list branch objects: %w", err)
	}
	defer rows.Close()

	var objects []*secondary.BranchObjectRow
	for rows.Next() {
		var after sql.NullString
		row := &secondary.BranchObjectRow{}
		err := rows.Scan(&row.ObjectID, &row.ObjectType, &row.SchemaName, &row.ObjectName, &after, &row.Version)
		if err != nil {
			return nil, fmt.Errorf("failed to scan branch object: %w", err)
		}
		row.AfterHash = after.String
		objects = append(objects, row)
	}

	return objects, rows.Err()
}

func scanHistory(scan func(...any) error) (*secondary.HistoryRecord, error) {
	var (
		beforeHash sql.NullString
		afterHash  sql.NullString
		beforeDef  sql.NullString
		afterDef   sql.NullString
		author     sql.NullString
		timestamp  time.Time
	)

	record := &secondary.HistoryRecord{}
	err := scan(&record.ID, &record.ObjectID, &record.BranchID, &record.ChangeType, &record.ChangeSeverity,
		&beforeHash, &afterHash, &beforeDef, &afterDef, &record.CommitHash, &author, &timestamp)
	if err != nil {
		return nil, err
	}

	record.BeforeHash = beforeHash.String
	record.AfterHash = afterHash.String
	record.BeforeDefinition = beforeDef.String
	record.AfterDefinition = afterDef.String
	record.Author = author.String
	record.Timestamp = timestamp.Format(time.RFC3339)

	return record, nil
}

// Ensure HistoryRepository implements the interface
var _ secondary.HistoryRepository = (*HistoryRepository)(nil)
