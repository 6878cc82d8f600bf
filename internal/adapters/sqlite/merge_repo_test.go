package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/evoludigit/pgGit-sub001/internal/adapters/sqlite"
	"github.com/evoludigit/pgGit-sub001/internal/ports/secondary"
)

// seedMergeFixture sets up two branches with one conflicting object and
// one clean object, mirroring a merge of dev into main.
type mergeFixture struct {
	mainID   string
	devID    string
	usersID  int64
	ordersID int64
}

func setupMergeFixture(t *testing.T, db *sql.DB) mergeFixture {
	t.Helper()

	f := mergeFixture{}
	f.mainID = seedBranch(t, db, "branch-main", "main", "")
	f.devID = seedBranch(t, db, "branch-dev", "dev", "branch-main")
	seedCommit(t, db, "base-commit", f.mainID)
	f.usersID = seedObject(t, db, "TABLE", "public", "users")
	f.ordersID = seedObject(t, db, "TABLE", "public", "orders")
	return f
}

func cleanApplyRequest(f mergeFixture) secondary.ApplyMergeRequest {
	return secondary.ApplyMergeRequest{
		Op: &secondary.MergeOperationRecord{
			ID:              "merge-1",
			SourceBranchID:  f.devID,
			TargetBranchID:  f.mainID,
			BaseBranchID:    f.mainID,
			Strategy:        "ABORT_ON_CONFLICT",
			Status:          "COMPLETED",
			MergeCommitHash: "merge-commit-1",
		},
		MergeCommit: &secondary.CommitRecord{
			Hash:             "merge-commit-1",
			BranchID:         f.mainID,
			ParentCommitHash: "base-commit",
			Author:           "alice",
			Message:          "merge dev into main",
		},
		Entries: []secondary.MergeEntry{{
			Entry: &secondary.HistoryRecord{
				ObjectID:        f.ordersID,
				BranchID:        f.mainID,
				ChangeType:      "CREATE",
				ChangeSeverity:  "MAJOR",
				AfterHash:       "orders-h1",
				AfterDefinition: "CREATE TABLE orders (id INT)",
				CommitHash:      "merge-commit-1",
				Author:          "alice",
			},
			Object: secondary.ObjectUpdate{
				CurrentDefinition: "CREATE TABLE orders (id INT)",
				ContentHash:       "orders-h1",
				Version:           "1.0.0",
				IsActive:          true,
			},
		}},
		TargetID:     f.mainID,
		TargetStatus: "ACTIVE",
	}
}

func TestMergeRepository_ApplyMerge_Clean(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewMergeRepository(db)
	ctx := context.Background()

	f := setupMergeFixture(t, db)

	if err := repo.ApplyMerge(ctx, cleanApplyRequest(f)); err != nil {
		t.Fatalf("ApplyMerge failed: %v", err)
	}

	op, err := repo.GetByID(ctx, "merge-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if op.Status != "COMPLETED" {
		t.Errorf("expected COMPLETED, got '%s'", op.Status)
	}
	if op.MergeCommitHash != "merge-commit-1" {
		t.Errorf("expected merge commit hash, got '%s'", op.MergeCommitHash)
	}
	if op.CompletedAt == "" {
		t.Error("expected completed_at to be set")
	}

	// Ledger entry landed on the target branch
	history := sqlite.NewHistoryRepository(db)
	latest, err := history.LatestEntry(ctx, f.ordersID, f.mainID)
	if err != nil {
		t.Fatalf("LatestEntry failed: %v", err)
	}
	if latest.CommitHash != "merge-commit-1" {
		t.Errorf("expected merge commit on ledger entry, got '%s'", latest.CommitHash)
	}

	// Target head advanced, status ACTIVE
	branches := sqlite.NewBranchRepository(db)
	main, err := branches.GetByID(ctx, f.mainID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if main.HeadCommitHash != "merge-commit-1" {
		t.Errorf("expected head 'merge-commit-1', got '%s'", main.HeadCommitHash)
	}
	if main.Status != "ACTIVE" {
		t.Errorf("expected ACTIVE, got '%s'", main.Status)
	}
}

func TestMergeRepository_ApplyMerge_StaleEntryRollsBackEverything(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewMergeRepository(db)
	ctx := context.Background()

	f := setupMergeFixture(t, db)

	// Pre-existing chain on main for orders makes the merge entry stale.
	seedCommit(t, db, "c0", f.mainID)
	history := sqlite.NewHistoryRepository(db)
	_, err := history.Append(ctx, &secondary.HistoryRecord{
		ObjectID: f.ordersID, BranchID: f.mainID,
		ChangeType: "CREATE", ChangeSeverity: "MAJOR",
		AfterHash: "already-here", CommitHash: "c0",
	}, secondary.ObjectUpdate{ContentHash: "already-here", Version: "1.0.0", IsActive: true})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	err = repo.ApplyMerge(ctx, cleanApplyRequest(f))
	if !errors.Is(err, secondary.ErrStaleWrite) {
		t.Fatalf("expected ErrStaleWrite, got %v", err)
	}

	// Nothing from the merge is observable
	if _, err := repo.GetByID(ctx, "merge-1"); !errors.Is(err, secondary.ErrNotFound) {
		t.Errorf("expected merge row rolled back, got %v", err)
	}
	commits := sqlite.NewCommitRepository(db)
	if _, err := commits.GetByHash(ctx, "merge-commit-1"); !errors.Is(err, secondary.ErrNotFound) {
		t.Errorf("expected merge commit rolled back, got %v", err)
	}
}

func TestMergeRepository_ApplyMerge_WithConflicts(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewMergeRepository(db)
	ctx := context.Background()

	f := setupMergeFixture(t, db)

	req := cleanApplyRequest(f)
	req.Op.Status = "CONFLICTED"
	req.TargetStatus = "MERGING"
	req.Conflicts = []*secondary.ConflictRecord{{
		MergeID:          "merge-1",
		ConflictSeq:      1,
		ObjectID:         f.usersID,
		ConflictKind:     "edit-edit",
		BaseHash:         "base-h",
		SourceHash:       "src-h",
		TargetHash:       "tgt-h",
		SourceDefinition: "CREATE TABLE users (id INT, email TEXT)",
		TargetDefinition: "CREATE TABLE users (id INT, name TEXT)",
		DependentCount:   2,
	}}

	if err := repo.ApplyMerge(ctx, req); err != nil {
		t.Fatalf("ApplyMerge failed: %v", err)
	}

	conflicts, err := repo.ListConflicts(ctx, "merge-1")
	if err != nil {
		t.Fatalf("ListConflicts failed: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(conflicts))
	}
	c := conflicts[0]
	if c.Resolution != "DEFERRED" {
		t.Errorf("expected DEFERRED, got '%s'", c.Resolution)
	}
	if c.SourceDefinition == "" || c.TargetDefinition == "" {
		t.Error("expected frozen source/target definitions")
	}
	if c.DependentCount != 2 {
		t.Errorf("expected dependent count 2, got %d", c.DependentCount)
	}

	// Target branch locked MERGING
	branches := sqlite.NewBranchRepository(db)
	main, err := branches.GetByID(ctx, f.mainID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if main.Status != "MERGING" {
		t.Errorf("expected MERGING, got '%s'", main.Status)
	}
}

func TestMergeRepository_ResolveConflict_LastOneCompletesMerge(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewMergeRepository(db)
	ctx := context.Background()

	f := setupMergeFixture(t, db)

	req := cleanApplyRequest(f)
	req.Op.Status = "CONFLICTED"
	req.TargetStatus = "MERGING"
	req.Conflicts = []*secondary.ConflictRecord{{
		MergeID: "merge-1", ConflictSeq: 1, ObjectID: f.usersID,
		ConflictKind: "edit-edit", SourceHash: "src-h", TargetHash: "tgt-h",
		SourceDefinition: "src def", TargetDefinition: "tgt def",
	}}
	if err := repo.ApplyMerge(ctx, req); err != nil {
		t.Fatalf("ApplyMerge failed: %v", err)
	}

	remaining, err := repo.ResolveConflict(ctx, secondary.ResolveConflictRequest{
		MergeID:        "merge-1",
		ConflictSeq:    1,
		Resolution:     "SOURCE",
		TargetBranchID: f.mainID,
		Entry: &secondary.HistoryRecord{
			ObjectID: f.usersID, BranchID: f.mainID,
			ChangeType: "ALTER", ChangeSeverity: "MINOR",
			AfterHash: "src-h", AfterDefinition: "src def",
			CommitHash: "merge-commit-1", Author: "alice",
		},
		Object: secondary.ObjectUpdate{
			CurrentDefinition: "src def", ContentHash: "src-h",
			Version: "1.1.0", IsActive: true,
		},
	})
	if err != nil {
		t.Fatalf("ResolveConflict failed: %v", err)
	}
	if remaining != 0 {
		t.Errorf("expected 0 remaining, got %d", remaining)
	}

	op, err := repo.GetByID(ctx, "merge-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if op.Status != "COMPLETED" {
		t.Errorf("expected COMPLETED after last resolution, got '%s'", op.Status)
	}

	branches := sqlite.NewBranchRepository(db)
	main, err := branches.GetByID(ctx, f.mainID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if main.Status != "ACTIVE" {
		t.Errorf("expected ACTIVE after merge completes, got '%s'", main.Status)
	}

	conflict, err := repo.GetConflict(ctx, "merge-1", 1)
	if err != nil {
		t.Fatalf("GetConflict failed: %v", err)
	}
	if conflict.Resolution != "SOURCE" {
		t.Errorf("expected SOURCE, got '%s'", conflict.Resolution)
	}
	if conflict.ResolvedAt == "" {
		t.Error("expected resolved_at to be set")
	}
}

func TestMergeRepository_ResolveConflict_AlreadyResolved(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewMergeRepository(db)
	ctx := context.Background()

	f := setupMergeFixture(t, db)

	req := cleanApplyRequest(f)
	req.Op.Status = "CONFLICTED"
	req.TargetStatus = "MERGING"
	req.Conflicts = []*secondary.ConflictRecord{{
		MergeID: "merge-1", ConflictSeq: 1, ObjectID: f.usersID,
		ConflictKind: "edit-edit", TargetDefinition: "tgt def",
	}}
	if err := repo.ApplyMerge(ctx, req); err != nil {
		t.Fatalf("ApplyMerge failed: %v", err)
	}

	// TARGET resolution appends nothing
	if _, err := repo.ResolveConflict(ctx, secondary.ResolveConflictRequest{
		MergeID: "merge-1", ConflictSeq: 1, Resolution: "TARGET", TargetBranchID: f.mainID,
	}); err != nil {
		t.Fatalf("ResolveConflict failed: %v", err)
	}

	_, err := repo.ResolveConflict(ctx, secondary.ResolveConflictRequest{
		MergeID: "merge-1", ConflictSeq: 1, Resolution: "SOURCE", TargetBranchID: f.mainID,
	})
	if !errors.Is(err, secondary.ErrNotFound) {
		t.Errorf("expected ErrNotFound for already-resolved conflict, got %v", err)
	}
}

func TestMergeRepository_Abort(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewMergeRepository(db)
	ctx := context.Background()

	f := setupMergeFixture(t, db)

	req := cleanApplyRequest(f)
	req.Op.Status = "CONFLICTED"
	req.TargetStatus = "MERGING"
	req.Conflicts = []*secondary.ConflictRecord{{
		MergeID: "merge-1", ConflictSeq: 1, ObjectID: f.usersID, ConflictKind: "edit-edit",
	}}
	if err := repo.ApplyMerge(ctx, req); err != nil {
		t.Fatalf("ApplyMerge failed: %v", err)
	}

	if err := repo.Abort(ctx, "merge-1", f.mainID); err != nil {
		t.Fatalf("Abort failed: %v", err)
	}

	op, err := repo.GetByID(ctx, "merge-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if op.Status != "ABORTED" {
		t.Errorf("expected ABORTED, got '%s'", op.Status)
	}

	branches := sqlite.NewBranchRepository(db)
	main, err := branches.GetByID(ctx, f.mainID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if main.Status != "ACTIVE" {
		t.Errorf("expected ACTIVE after abort, got '%s'", main.Status)
	}

	// Aborting twice fails: the merge is no longer CONFLICTED
	err = repo.Abort(ctx, "merge-1", f.mainID)
	if !errors.Is(err, secondary.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second abort, got %v", err)
	}
}

func TestMergeRepository_RecordAborted(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewMergeRepository(db)
	ctx := context.Background()

	f := setupMergeFixture(t, db)

	err := repo.RecordAborted(ctx, &secondary.MergeOperationRecord{
		ID:             "merge-audit",
		SourceBranchID: f.devID,
		TargetBranchID: f.mainID,
		BaseBranchID:   f.mainID,
		Strategy:       "ABORT_ON_CONFLICT",
	})
	if err != nil {
		t.Fatalf("RecordAborted failed: %v", err)
	}

	op, err := repo.GetByID(ctx, "merge-audit")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if op.Status != "ABORTED" {
		t.Errorf("expected ABORTED, got '%s'", op.Status)
	}
	if op.MergeCommitHash != "" {
		t.Errorf("expected no merge commit, got '%s'", op.MergeCommitHash)
	}
}
