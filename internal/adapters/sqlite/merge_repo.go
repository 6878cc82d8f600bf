package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/evoludigit/pgGit-sub001/internal/ports/secondary"
)

// MergeRepository implements secondary.MergeRepository with SQLite. The
// multi-row mutations run in single transactions so a merge is either
// fully applied or not at all.
type MergeRepository struct {
	db *sql.DB
}

// NewMergeRepository creates a new SQLite merge repository.
func NewMergeRepository(db *sql.DB) *MergeRepository {
	return &MergeRepository{db: db}
}

const mergeColumns = "id, source_branch_id, target_branch_id, merge_base_branch_id, message, strategy, status, merge_commit_hash, created_at, completed_at"

const conflictColumns = "merge_id, conflict_seq, object_id, conflict_kind, base_hash, source_hash, target_hash, source_definition, target_definition, resolution, custom_definition, dependent_count, resolved_at"

// RecordAborted persists an ABORTED merge operation for audit.
func (r *MergeRepository) RecordAborted(ctx context.Context, op *secondary.MergeOperationRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO merge_operations
			(id, source_branch_id, target_branch_id, merge_base_branch_id, message, strategy, status, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, 'ABORTED', CURRENT_TIMESTAMP)`,
		op.ID, op.SourceBranchID, op.TargetBranchID, op.BaseBranchID, nullIfEmpty(op.Message), op.Strategy,
	)
	if err != nil {
		return fmt.Errorf("failed to record aborted merge: %w", err)
	}
	return nil
}

// ApplyMerge atomically persists the merge operation, its merge commit,
// the clean ledger entries, the conflict rows, and the target branch's
// new head and status.
func (r *MergeRepository) ApplyMerge(ctx context.Context, req secondary.ApplyMergeRequest) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var completedAt any
	if req.Op.Status == "COMPLETED" {
		completedAt = time.Now().UTC().Format(time.RFC3339)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO merge_operations
			(id, source_branch_id, target_branch_id, merge_base_branch_id, message, strategy, status, merge_commit_hash, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.Op.ID, req.Op.SourceBranchID, req.Op.TargetBranchID, req.Op.BaseBranchID,
		nullIfEmpty(req.Op.Message), req.Op.Strategy, req.Op.Status,
		nullIfEmpty(req.Op.MergeCommitHash), completedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert merge operation: %w", err)
	}

	if req.MergeCommit != nil {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO commits (hash, branch_id, parent_commit_hash, author, message, change_summary) VALUES (?, ?, ?, ?, ?, ?)",
			req.MergeCommit.Hash, req.MergeCommit.BranchID, nullIfEmpty(req.MergeCommit.ParentCommitHash),
			req.MergeCommit.Author, req.MergeCommit.Message, nullIfEmpty(req.MergeCommit.ChangeSummary),
		)
		if err != nil {
			return fmt.Errorf("failed to insert merge commit: %w", err)
		}
	}

	for _, e := range req.Entries {
		if _, err := appendHistoryTx(ctx, tx, e.Entry, e.Object); err != nil {
			return err
		}
	}

	for _, c := range req.Conflicts {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO merge_conflict_resolutions
				(merge_id, conflict_seq, object_id, conflict_kind, base_hash, source_hash, target_hash, source_definition, target_definition, resolution, dependent_count)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 'DEFERRED', ?)`,
			c.MergeID, c.ConflictSeq, c.ObjectID, nullIfEmpty(c.ConflictKind),
			nullIfEmpty(c.BaseHash), nullIfEmpty(c.SourceHash), nullIfEmpty(c.TargetHash),
			nullIfEmpty(c.SourceDefinition), nullIfEmpty(c.TargetDefinition), c.DependentCount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert conflict %d: %w", c.ConflictSeq, err)
		}
	}

	if req.MergeCommit != nil {
		_, err = tx.ExecContext(ctx,
			"UPDATE branches SET head_commit_hash = ? WHERE id = ?",
			req.MergeCommit.Hash, req.TargetID)
		if err != nil {
			return fmt.Errorf("failed to advance target head: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE branches SET status = ? WHERE id = ?", req.TargetStatus, req.TargetID)
	if err != nil {
		return fmt.Errorf("failed to update target status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit merge: %w", err)
	}

	return nil
}

// GetByID retrieves a merge operation.
func (r *MergeRepository) GetByID(ctx context.Context, id string) (*secondary.MergeOperationRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+mergeColumns+" FROM merge_operations WHERE id = ?", id)

	record, err := scanMerge(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("merge %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get merge: %w", err)
	}

	return record, nil
}

// ListConflicts returns a merge's conflict rows ordered by sequence.
func (r *MergeRepository) ListConflicts(ctx context.Context, mergeID string) ([]*secondary.ConflictRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+conflictColumns+" FROM merge_conflict_resolutions WHERE merge_id = ? ORDER BY conflict_seq",
		mergeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conflicts: %w", err)
	}
	defer rows.Close()

	var conflicts []*secondary.ConflictRecord
	for rows.Next() {
		record, err := scanConflict(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conflict: %w", err)
		}
		conflicts = append(conflicts, record)
	}

	return conflicts, rows.Err()
}

// GetConflict retrieves one conflict row.
func (r *MergeRepository) GetConflict(ctx context.Context, mergeID string, seq int) (*secondary.ConflictRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+conflictColumns+" FROM merge_conflict_resolutions WHERE merge_id = ? AND conflict_seq = ?",
		mergeID, seq)

	record, err := scanConflict(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("conflict %s/%d: %w", mergeID, seq, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conflict: %w", err)
	}

	return record, nil
}

// ResolveConflict atomically marks one conflict resolved, appends the
// chosen definition when one was chosen, and completes the merge when it
// was the last unresolved conflict.
func (r *MergeRepository) ResolveConflict(ctx context.Context, req secondary.ResolveConflictRequest) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var custom sql.NullString
	if req.Resolution == "CUSTOM" && req.Entry != nil {
		custom = nullIfEmpty(req.Entry.AfterDefinition)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE merge_conflict_resolutions
		 SET resolution = ?, custom_definition = ?, resolved_at = CURRENT_TIMESTAMP
		 WHERE merge_id = ? AND conflict_seq = ? AND resolution = 'DEFERRED'`,
		req.Resolution, custom, req.MergeID, req.ConflictSeq,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark conflict resolved: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return 0, fmt.Errorf("conflict %s/%d: %w", req.MergeID, req.ConflictSeq, secondary.ErrNotFound)
	}

	if req.Entry != nil {
		if _, err := appendHistoryTx(ctx, tx, req.Entry, req.Object); err != nil {
			return 0, err
		}
	}

	var remaining int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM merge_conflict_resolutions WHERE merge_id = ? AND resolution = 'DEFERRED'",
		req.MergeID,
	).Scan(&remaining)
	if err != nil {
		return 0, fmt.Errorf("failed to count remaining conflicts: %w", err)
	}

	if remaining == 0 {
		_, err = tx.ExecContext(ctx,
			"UPDATE merge_operations SET status = 'COMPLETED', completed_at = CURRENT_TIMESTAMP WHERE id = ?",
			req.MergeID)
		if err != nil {
			return 0, fmt.Errorf("failed to complete merge: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE branches SET status = 'ACTIVE' WHERE id = ?", req.TargetBranchID)
		if err != nil {
			return 0, fmt.Errorf("failed to restore target branch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit resolution: %w", err)
	}

	return remaining, nil
}

// Abort atomically marks the merge ABORTED and restores the target
// branch to ACTIVE without touching the ledger.
func (r *MergeRepository) Abort(ctx context.Context, mergeID, targetBranchID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"UPDATE merge_operations SET status = 'ABORTED', completed_at = CURRENT_TIMESTAMP WHERE id = ? AND status = 'CONFLICTED'",
		mergeID)
	if err != nil {
		return fmt.Errorf("failed to abort merge: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("merge %s: %w", mergeID, secondary.ErrNotFound)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE branches SET status = 'ACTIVE' WHERE id = ?", targetBranchID)
	if err != nil {
		return fmt.Errorf("failed to restore target branch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit abort: %w", err)
	}

	return nil
}

func scanMerge(scan func(...any) error) (*secondary.MergeOperationRecord, error) {
	var (
		message     sql.NullString
		mergeCommit sql.NullString
		createdAt   time.Time
		completedAt sql.NullTime
	)

	record := &secondary.MergeOperationRecord{}
	err := scan(&record.ID, &record.SourceBranchID, &record.TargetBranchID, &record.BaseBranchID,
		&message, &record.Strategy, &record.Status, &mergeCommit, &createdAt, &completedAt)
	if err != nil {
		return nil, err
	}

	record.Message = message.String
	record.MergeCommitHash = mergeCommit.String
	record.CreatedAt = createdAt.Format(time.RFC3339)
	if completedAt.Valid {
		record.CompletedAt = completedAt.Time.Format(time.RFC3339)
	}

	return record, nil
}

func scanConflict(scan func(...any) error) (*secondary.ConflictRecord, error) {
	var (
		kind       sql.NullString
		baseHash   sql.NullString
		sourceHash sql.NullString
		targetHash sql.NullString
		sourceDef  sql.NullString
		targetDef  sql.NullString
		customDef  sql.NullString
		resolvedAt sql.NullTime
	)

	record := &secondary.ConflictRecord{}
	err := scan(&record.MergeID, &record.ConflictSeq, &record.ObjectID, &kind,
		&baseHash, &sourceHash, &targetHash, &sourceDef, &targetDef,
		&record.Resolution, &customDef, &record.DependentCount, &resolvedAt)
	if err != nil {
		return nil, err
	}

	record.ConflictKind = kind.String
	record.BaseHash = baseHash.String
	record.SourceHash = sourceHash.String
	record.TargetHash = targetHash.String
	record.SourceDefinition = sourceDef.String
	record.TargetDefinition = targetDef.String
	record.CustomDefinition = customDef.String
	if resolvedAt.Valid {
		record.ResolvedAt = resolvedAt.Time.Format(time.RFC3339)
	}

	return record, nil
}

// Ensure MergeRepository implements the interface
var _ secondary.MergeRepository = (*MergeRepository)(nil)
