// Package semver contains the pure logic for object semantic versions.
// This is part of the Functional Core - no I/O, only pure functions.
package semver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/evoludigit/pgGit-sub001/internal/core/change"
)

// Version is a major.minor.patch semantic version for a schema object.
type Version struct {
	Major int
	Minor int
	Patch int
}

// Initial is the version assigned to an object on its first CREATE.
var Initial = Version{Major: 1, Minor: 0, Patch: 0}

// Parse parses a "major.minor.patch" string.
func Parse(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("invalid version %q: expected major.minor.patch", s)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid version %q: component %q is not a non-negative integer", s, p)
		}
		nums[i] = n
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// String returns the "major.minor.patch" form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Bump returns the version after applying a change of the given severity.
// MAJOR increments major and resets minor/patch; MINOR increments minor and
// resets patch; PATCH increments patch only.
func (v Version) Bump(severity change.Severity) Version {
	switch severity {
	case change.SeverityMajor:
		return Version{Major: v.Major + 1}
	case change.SeverityMinor:
		return Version{Major: v.Major, Minor: v.Minor + 1}
	default:
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
	}
}
