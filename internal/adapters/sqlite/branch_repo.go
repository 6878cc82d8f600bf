// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/evoludigit/pgGit-sub001/internal/ports/secondary"
)

// BranchRepository implements secondary.BranchRepository with SQLite.
type BranchRepository struct {
	db *sql.DB
}

// NewBranchRepository creates a new SQLite branch repository.
func NewBranchRepository(db *sql.DB) *BranchRepository {
	return &BranchRepository{db: db}
}

const branchColumns = "id, name, parent_branch_id, status, head_commit_hash, created_by, created_at"

// Create persists a new branch.
func (r *BranchRepository) Create(ctx context.Context, branch *secondary.BranchRecord) error {
	var parent sql.NullString
	if branch.ParentBranchID != "" {
		parent = sql.NullString{String: branch.ParentBranchID, Valid: true}
	}

	status := branch.Status
	if status == "" {
		status = "ACTIVE"
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO branches (id, name, parent_branch_id, status, created_by) VALUES (?, ?, ?, ?, ?)",
		branch.ID, branch.Name, parent, status, branch.CreatedBy,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("branch %s: %w", branch.Name, secondary.ErrDuplicate)
		}
		return fmt.Errorf("failed to create branch: %w", err)
	}

	return nil
}

// GetByID retrieves a branch by its ID.
func (r *BranchRepository) GetByID(ctx context.Context, id string) (*secondary.BranchRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+branchColumns+" FROM branches WHERE id = ?", id)
	return r.scanBranch(row, id)
}

// GetByName retrieves a branch by its unique name.
func (r *BranchRepository) GetByName(ctx context.Context, name string) (*secondary.BranchRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+branchColumns+" FROM branches WHERE name = ?", name)
	return r.scanBranch(row, name)
}

func (r *BranchRepository) scanBranch(row *sql.Row, key string) (*secondary.BranchRecord, error) {
	var (
		parent    sql.NullString
		head      sql.NullString
		createdBy sql.NullString
		createdAt time.Time
	)

	record := &secondary.BranchRecord{}
	err := row.Scan(&record.ID, &record.Name, &parent, &record.Status, &head, &createdBy, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("branch %s: %w", key, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get branch: %w", err)
	}

	record.ParentBranchID = parent.String
	record.HeadCommitHash = head.String
	record.CreatedBy = createdBy.String
	record.CreatedAt = createdAt.Format(time.RFC3339)

	return record, nil
}

// List retrieves branches matching the given filters.
func (r *BranchRepository) List(ctx context.Context, filters secondary.BranchFilters) ([]*secondary.BranchRecord, error) {
	query := "SELECT " + branchColumns + " FROM branches WHERE 1=1"
	args := []any{}

	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	} else if !filters.IncludeDeleted {
		query += " AND status != 'DELETED'"
	}

	query += " ORDER BY created_at ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	defer rows.Close()

	var branches []*secondary.BranchRecord
	for rows.Next() {
		var (
			parent    sql.NullString
			head      sql.NullString
			createdBy sql.NullString
			createdAt time.Time
		)

		record := &secondary.BranchRecord{}
		err := rows.Scan(&record.ID, &record.Name, &parent, &record.Status, &head, &createdBy, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan branch: %w", err)
		}

		record.ParentBranchID = parent.String
		record.HeadCommitHash = head.String
		record.CreatedBy = createdBy.String
		record.CreatedAt = createdAt.Format(time.RFC3339)

		branches = append(branches, record)
	}

	return branches, rows.Err()
}

// UpdateStatus updates a branch's lifecycle status.
func (r *BranchRepository) UpdateStatus(ctx context.Context, id, status string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE branches SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return fmt.Errorf("failed to update branch status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("branch %s: %w", id, secondary.ErrNotFound)
	}

	return nil
}

// SetHead advances a branch's head commit hash.
func (r *BranchRepository) SetHead(ctx context.Context, id, commitHash string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE branches SET head_commit_hash = ? WHERE id = ?", commitHash, id)
	if err != nil {
		return fmt.Errorf("failed to set branch head: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("branch %s: %w", id, secondary.ErrNotFound)
	}

	return nil
}

// ParentMap returns branch id -> parent branch id for every branch.
func (r *BranchRepository) ParentMap(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, parent_branch_id FROM branches")
	if err != nil {
		return nil, fmt.Errorf("failed to load branch parents: %w", err)
	}
	defer rows.Close()

	parents := make(map[string]string)
	for rows.Next() {
		var id string
		var parent sql.NullString
		if err := rows.Scan(&id, &parent); err != nil {
			return nil, fmt.Errorf("failed to scan branch parent: %w", err)
		}
		parents[id] = parent.String
	}

	return parents, rows.Err()
}

// Ensure BranchRepository implements the interface
var _ secondary.BranchRepository = (*BranchRepository)(nil)
