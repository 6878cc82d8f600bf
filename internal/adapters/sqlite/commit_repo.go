package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/evoludigit/pgGit-sub001/internal/ports/secondary"
)

// CommitRepository implements secondary.CommitRepository with SQLite.
type CommitRepository struct {
	db *sql.DB
}

// NewCommitRepository creates a new SQLite commit repository.
func NewCommitRepository(db *sql.DB) *CommitRepository {
	return &CommitRepository{db: db}
}

const commitColumns = "hash, branch_id, parent_commit_hash, author, message, change_summary, timestamp"

// Create persists a new commit.
func (r *CommitRepository) Create(ctx context.Context, commit *secondary.CommitRecord) error {
	var parent sql.NullString
	if commit.ParentCommitHash != "" {
		parent = sql.NullString{String: commit.ParentCommitHash, Valid: true}
	}
	var summary sql.NullString
	if commit.ChangeSummary != "" {
		summary = sql.NullString{String: commit.ChangeSummary, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO commits (hash, branch_id, parent_commit_hash, author, message, change_summary) VALUES (?, ?, ?, ?, ?, ?)",
		commit.Hash, commit.BranchID, parent, commit.Author, commit.Message, summary,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("commit %s: %w", commit.Hash, secondary.ErrDuplicate)
		}
		return fmt.Errorf("failed to create commit: %w", err)
	}

	return nil
}

// GetByHash retrieves a commit by its hash.
func (r *CommitRepository) GetByHash(ctx context.Context, hash string) (*secondary.CommitRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+commitColumns+" FROM commits WHERE hash = ?", hash)

	record, err := scanCommit(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("commit %s: %w", hash, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get commit: %w", err)
	}

	return record, nil
}

// ListByBranch returns a branch's commits, newest first.
func (r *CommitRepository) ListByBranch(ctx context.Context, branchID string, limit int) ([]*secondary.CommitRecord, error) {
	query := "SELECT " + commitColumns + " FROM commits WHERE branch_id = ? ORDER BY timestamp DESC, hash"
	args := []any{branchID}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits: %w", err)
	}
	defer rows.Close()

	var commits []*secondary.CommitRecord
	for rows.Next() {
		record, err := scanCommit(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan commit: %w", err)
		}
		commits = append(commits, record)
	}

	return commits, rows.Err()
}

func scanCommit(scan func(...any) error) (*secondary.CommitRecord, error) {
	var (
		parent    sql.NullString
		summary   sql.NullString
		timestamp time.Time
	)

	record := &secondary.CommitRecord{}
	err := scan(&record.Hash, &record.BranchID, &parent, &record.Author, &record.Message, &summary, &timestamp)
	if err != nil {
		return nil, err
	}

	record.ParentCommitHash = parent.String
	record.ChangeSummary = summary.String
	record.Timestamp = timestamp.Format(time.RFC3339)

	return record, nil
}

// Ensure CommitRepository implements the interface
var _ secondary.CommitRepository = (*CommitRepository)(nil)
