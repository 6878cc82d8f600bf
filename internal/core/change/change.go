// Package change contains the pure rules for classifying schema changes.
// This is part of the Functional Core - no I/O, only pure functions.
package change

import "github.com/evoludigit/pgGit-sub001/internal/core/definition"

// Type is the kind of structural change recorded in the history ledger.
type Type string

const (
	TypeCreate Type = "CREATE"
	TypeAlter  Type = "ALTER"
	TypeDrop   Type = "DROP"
)

// Valid reports whether t is a known change type.
func (t Type) Valid() bool {
	switch t {
	case TypeCreate, TypeAlter, TypeDrop:
		return true
	}
	return false
}

// Severity is the semantic-version impact of a change.
type Severity string

const (
	SeverityMajor Severity = "MAJOR"
	SeverityMinor Severity = "MINOR"
	SeverityPatch Severity = "PATCH"
)

// SeverityOf applies the fixed severity rule table:
// creating or dropping the object is MAJOR; an ALTER whose normalized
// before/after definitions are equal is cosmetic-only, PATCH; any other
// definition body change is MINOR.
func SeverityOf(changeType Type, beforeDef, afterDef string) Severity {
	switch changeType {
	case TypeCreate, TypeDrop:
		return SeverityMajor
	}

	if definition.Equal(beforeDef, afterDef) {
		return SeverityPatch
	}
	return SeverityMinor
}
