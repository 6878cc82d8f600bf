package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/evoludigit/pgGit-sub001/internal/adapters/sqlite"
	"github.com/evoludigit/pgGit-sub001/internal/ports/secondary"
)

func TestBranchRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewBranchRepository(db)
	ctx := context.Background()

	err := repo.Create(ctx, &secondary.BranchRecord{
		ID:        "branch-main",
		Name:      "main",
		CreatedBy: "alice",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	retrieved, err := repo.GetByName(ctx, "main")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if retrieved.ID != "branch-main" {
		t.Errorf("expected id 'branch-main', got '%s'", retrieved.ID)
	}
	if retrieved.Status != "ACTIVE" {
		t.Errorf("expected status ACTIVE, got '%s'", retrieved.Status)
	}
	if retrieved.ParentBranchID != "" {
		t.Errorf("expected no parent, got '%s'", retrieved.ParentBranchID)
	}

	byID, err := repo.GetByID(ctx, "branch-main")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if byID.Name != "main" {
		t.Errorf("expected name 'main', got '%s'", byID.Name)
	}
}

func TestBranchRepository_Create_DuplicateName(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewBranchRepository(db)
	ctx := context.Background()

	seedBranch(t, db, "branch-main", "main", "")

	err := repo.Create(ctx, &secondary.BranchRecord{ID: "branch-other", Name: "main"})
	if !errors.Is(err, secondary.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestBranchRepository_GetByName_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewBranchRepository(db)

	_, err := repo.GetByName(context.Background(), "nope")
	if !errors.Is(err, secondary.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBranchRepository_List_ExcludesDeleted(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewBranchRepository(db)
	ctx := context.Background()

	seedBranch(t, db, "branch-main", "main", "")
	seedBranch(t, db, "branch-dev", "dev", "branch-main")

	if err := repo.UpdateStatus(ctx, "branch-dev", "DELETED"); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	branches, err := repo.List(ctx, secondary.BranchFilters{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(branches) != 1 {
		t.Fatalf("expected 1 branch, got %d", len(branches))
	}
	if branches[0].Name != "main" {
		t.Errorf("expected 'main', got '%s'", branches[0].Name)
	}

	all, err := repo.List(ctx, secondary.BranchFilters{IncludeDeleted: true})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 branches with deleted included, got %d", len(all))
	}
}

func TestBranchRepository_List_FilterByStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewBranchRepository(db)
	ctx := context.Background()

	seedBranch(t, db, "branch-main", "main", "")
	seedBranch(t, db, "branch-dev", "dev", "branch-main")

	if err := repo.UpdateStatus(ctx, "branch-dev", "MERGING"); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	merging, err := repo.List(ctx, secondary.BranchFilters{Status: "MERGING"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(merging) != 1 || merging[0].Name != "dev" {
		t.Errorf("expected only 'dev' MERGING, got %+v", merging)
	}
}

func TestBranchRepository_SetHead(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewBranchRepository(db)
	ctx := context.Background()

	seedBranch(t, db, "branch-main", "main", "")
	seedCommit(t, db, "abc123", "branch-main")

	if err := repo.SetHead(ctx, "branch-main", "abc123"); err != nil {
		t.Fatalf("SetHead failed: %v", err)
	}

	branch, err := repo.GetByID(ctx, "branch-main")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if branch.HeadCommitHash != "abc123" {
		t.Errorf("expected head 'abc123', got '%s'", branch.HeadCommitHash)
	}

	err = repo.SetHead(ctx, "branch-missing", "abc123")
	if !errors.Is(err, secondary.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing branch, got %v", err)
	}
}

func TestBranchRepository_ParentMap(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewBranchRepository(db)
	ctx := context.Background()

	seedBranch(t, db, "branch-main", "main", "")
	seedBranch(t, db, "branch-dev", "dev", "branch-main")
	seedBranch(t, db, "branch-feat", "feat", "branch-dev")

	parents, err := repo.ParentMap(ctx)
	if err != nil {
		t.Fatalf("ParentMap failed: %v", err)
	}
	if parents["branch-main"] != "" {
		t.Errorf("expected root parent '', got '%s'", parents["branch-main"])
	}
	if parents["branch-dev"] != "branch-main" {
		t.Errorf("expected 'branch-main', got '%s'", parents["branch-dev"])
	}
	if parents["branch-feat"] != "branch-dev" {
		t.Errorf("expected 'branch-dev', got '%s'", parents["branch-feat"])
	}
}
