// Package merge contains the pure three-way merge logic: state
// classification and branch guards. This is part of the Functional Core -
// no I/O, only pure functions.
//
// The comparison primitive is content-hash equality. The classifier never
// inspects definition text beyond carrying it through to the resolved
// state.
package merge

import "github.com/evoludigit/pgGit-sub001/internal/core/change"

// ObjectState is the state of one object on one branch: either absent or a
// hash plus definition.
type ObjectState struct {
	Present    bool
	Hash       string
	Definition string
}

// Absent is the state of an object with no live ledger entry on a branch.
var Absent = ObjectState{}

// State builds a present ObjectState.
func State(hash, def string) ObjectState {
	return ObjectState{Present: true, Hash: hash, Definition: def}
}

// Kind classifies one object across the three branch states.
type Kind string

const (
	KindUnchanged Kind = "UNCHANGED"
	KindAdded     Kind = "ADDED"
	KindModified  Kind = "MODIFIED"
	KindRemoved   Kind = "REMOVED"
	KindConflict  Kind = "CONFLICT"
)

// ConflictKind names the shape of a conflict.
type ConflictKind string

const (
	ConflictNone         ConflictKind = ""
	ConflictEditEdit     ConflictKind = "edit-edit"     // both sides modified differently
	ConflictDeleteModify ConflictKind = "delete-modify" // source deleted, target modified
	ConflictModifyDelete ConflictKind = "modify-delete" // source modified, target deleted
	ConflictAddAdd       ConflictKind = "add-add"       // independently added, diverged
)

// Result is the classification of a single object.
type Result struct {
	Kind         Kind
	Conflict     bool
	ConflictKind ConflictKind

	// Apply is true when completing the merge requires a new ledger entry
	// on the target; ChangeType and Definition describe that entry.
	Apply      bool
	ChangeType change.Type
	Definition string
}

// Classify applies the three-way precedence table to one object. base is
// the state on the merge-base branch, source and target the states on the
// two branches being merged.
func Classify(base, source, target ObjectState) Result {
	if !base.Present {
		return classifyNoBase(source, target)
	}

	sourceChanged := !source.Present || source.Hash != base.Hash
	targetChanged := !target.Present || target.Hash != base.Hash

	switch {
	case !sourceChanged && !targetChanged:
		return Result{Kind: KindUnchanged}

	case !source.Present && !target.Present:
		// Both sides removed it: convergent deletion, nothing to do.
		return Result{Kind: KindRemoved}

	case !source.Present && targetChanged:
		// Source deleted, target modified.
		return Result{Kind: KindConflict, Conflict: true, ConflictKind: ConflictDeleteModify}

	case !source.Present:
		// Source deleted, target untouched: propagate the deletion.
		return Result{Kind: KindRemoved, Apply: true, ChangeType: change.TypeDrop}

	case !target.Present && sourceChanged:
		// Source modified, target deleted.
		return Result{Kind: KindConflict, Conflict: true, ConflictKind: ConflictModifyDelete}

	case !target.Present:
		// Target already deleted it and source is unchanged from base.
		return Result{Kind: KindRemoved}

	case sourceChanged && !targetChanged:
		return Result{
			Kind:       KindModified,
			Apply:      true,
			ChangeType: change.TypeAlter,
			Definition: source.Definition,
		}

	case !sourceChanged && targetChanged:
		// Target already carries the newer state; nothing to apply.
		return Result{Kind: KindModified}

	case source.Hash == target.Hash:
		// Convergent edits.
		return Result{Kind: KindModified}

	default:
		return Result{Kind: KindConflict, Conflict: true, ConflictKind: ConflictEditEdit}
	}
}

func classifyNoBase(source, target ObjectState) Result {
	switch {
	case !source.Present:
		// Whatever the target did on its own is not this merge's business.
		return Result{Kind: KindUnchanged}

	case !target.Present:
		return Result{
			Kind:       KindAdded,
			Apply:      true,
			ChangeType: change.TypeCreate,
			Definition: source.Definition,
		}

	case source.Hash == target.Hash:
		// Independently added with identical content: convergent.
		return Result{Kind: KindModified}

	default:
		return Result{Kind: KindConflict, Conflict: true, ConflictKind: ConflictAddAdd}
	}
}
