package merge

import "fmt"

// Branch status values mirrored here so the functional core stays free of
// persistence imports.
const (
	StatusActive  = "ACTIVE"
	StatusMerging = "MERGING"
	StatusDeleted = "DELETED"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string // Human-readable reason (populated when not allowed)
}

// Error returns the guard result as an error if not allowed, nil otherwise.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// BranchStateContext provides context for branch lifecycle guards.
type BranchStateContext struct {
	BranchName string
	Status     string
}

// CanCommitToBranch evaluates whether a branch accepts new commits and
// ledger appends. Rule: DELETED branches stay queryable but reject writes;
// MERGING branches are locked so an open merge resolves against a stable
// target.
func CanCommitToBranch(ctx BranchStateContext) GuardResult {
	switch ctx.Status {
	case StatusDeleted:
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("branch %s is deleted and rejects new commits", ctx.BranchName),
		}
	case StatusMerging:
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("branch %s has a merge in progress; resolve or abort it first", ctx.BranchName),
		}
	}
	return GuardResult{Allowed: true}
}

// CanTargetMerge evaluates whether a branch can be the target of a new
// merge. Rule: at most one PENDING/CONFLICTED merge may target a branch at
// a time.
func CanTargetMerge(ctx BranchStateContext) GuardResult {
	switch ctx.Status {
	case StatusMerging:
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("branch %s is already the target of an open merge", ctx.BranchName),
		}
	case StatusDeleted:
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("branch %s is deleted and cannot receive merges", ctx.BranchName),
		}
	}
	return GuardResult{Allowed: true}
}

// CanSourceMerge evaluates whether a branch can be the source of a merge.
// Deleted branches remain queryable for historical diffs, so diffing is
// allowed but merging from them is not.
func CanSourceMerge(ctx BranchStateContext) GuardResult {
	if ctx.Status == StatusDeleted {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("branch %s is deleted and cannot be merged from", ctx.BranchName),
		}
	}
	return GuardResult{Allowed: true}
}
