package app

import (
	"context"
	"testing"

	"github.com/evoludigit/pgGit-sub001/internal/ctxutil"
	"github.com/evoludigit/pgGit-sub001/internal/ports/primary"
)

func TestCommitService_CreateCommit(t *testing.T) {
	f := newFixture()
	ctx := ctxutil.WithAuthor(context.Background(), "alice")

	if _, err := f.branches.EnsureMain(ctx); err != nil {
		t.Fatalf("EnsureMain failed: %v", err)
	}

	commit, err := f.commits.CreateCommit(ctx, primary.CreateCommitRequest{
		BranchName: "main",
		Message:    "create users table",
	})
	if err != nil {
		t.Fatalf("CreateCommit failed: %v", err)
	}
	if commit.Hash == "" {
		t.Fatal("expected non-empty commit hash")
	}
	if commit.Author != "alice" {
		t.Errorf("expected author from context, got '%s'", commit.Author)
	}
	if commit.ParentCommitHash != "" {
		t.Errorf("expected no parent for first commit, got '%s'", commit.ParentCommitHash)
	}

	// Branch head advanced
	branch, err := f.branches.GetBranch(ctx, "main")
	if err != nil {
		t.Fatalf("GetBranch failed: %v", err)
	}
	if branch.HeadCommitHash != commit.Hash {
		t.Errorf("expected head %s, got '%s'", commit.Hash, branch.HeadCommitHash)
	}

	// Second commit chains onto the first
	second, err := f.commits.CreateCommit(ctx, primary.CreateCommitRequest{
		BranchName: "main",
		Message:    "add email column",
	})
	if err != nil {
		t.Fatalf("second CreateCommit failed: %v", err)
	}
	if second.ParentCommitHash != commit.Hash {
		t.Errorf("expected parent %s, got '%s'", commit.Hash, second.ParentCommitHash)
	}
	if second.Hash == commit.Hash {
		t.Error("expected distinct hashes for distinct commits")
	}
}

func TestCommitService_CreateCommit_EmptyMessage(t *testing.T) {
	f := newFixture()

	_, err := f.commits.CreateCommit(context.Background(), primary.CreateCommitRequest{BranchName: "main"})
	if !primary.IsCode(err, primary.CodeEmptyMessage) {
		t.Errorf("expected EMPTY_MESSAGE, got %v", err)
	}
}

func TestCommitService_CreateCommit_BranchNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.commits.CreateCommit(context.Background(), primary.CreateCommitRequest{
		BranchName: "ghost",
		Message:    "hello",
	})
	if !primary.IsCode(err, primary.CodeBranchNotFound) {
		t.Errorf("expected BRANCH_NOT_FOUND, got %v", err)
	}
}

func TestCommitService_CreateCommit_DeletedBranchRejects(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.branches.CreateBranch(ctx, primary.CreateBranchRequest{Name: "dev"}); err != nil {
		t.Fatalf("CreateBranch failed: %v", err)
	}
	if err := f.branches.DeleteBranch(ctx, "dev"); err != nil {
		t.Fatalf("DeleteBranch failed: %v", err)
	}

	_, err := f.commits.CreateCommit(ctx, primary.CreateCommitRequest{
		BranchName: "dev",
		Message:    "too late",
	})
	if !primary.IsCode(err, primary.CodeBranchNotWritable) {
		t.Errorf("expected BRANCH_NOT_WRITABLE, got %v", err)
	}
}

func TestCommitService_GetCommit_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.commits.GetCommit(context.Background(), "missing")
	if !primary.IsCode(err, primary.CodeCommitNotFound) {
		t.Errorf("expected COMMIT_NOT_FOUND, got %v", err)
	}
}

func TestCommitService_ListCommits(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.branches.EnsureMain(ctx); err != nil {
		t.Fatalf("EnsureMain failed: %v", err)
	}
	for _, msg := range []string{"first", "second", "third"} {
		if _, err := f.commits.CreateCommit(ctx, primary.CreateCommitRequest{
			BranchName: "main",
			Message:    msg,
		}); err != nil {
			t.Fatalf("CreateCommit failed: %v", err)
		}
	}

	commits, err := f.commits.ListCommits(ctx, "main", 0)
	if err != nil {
		t.Fatalf("ListCommits failed: %v", err)
	}
	if len(commits) != 3 {
		t.Fatalf("expected 3 commits, got %d", len(commits))
	}
	if commits[0].Message != "third" {
		t.Errorf("expected newest first, got '%s'", commits[0].Message)
	}

	capped, err := f.commits.ListCommits(ctx, "main", 1)
	if err != nil {
		t.Fatalf("ListCommits failed: %v", err)
	}
	if len(capped) != 1 {
		t.Errorf("expected 1 commit with limit, got %d", len(capped))
	}
}
