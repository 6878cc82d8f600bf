// Package branch contains the pure logic for the branch tree.
// This is part of the Functional Core - no I/O, only pure functions.
package branch

// NearestCommonAncestor walks both parent chains to the root and returns
// the lowest branch shared by both. parents maps branch id -> parent
// branch id; the root has no entry (or an empty parent). Returns false if
// the branches share no ancestor, which indicates a corrupt tree since all
// branches descend from main.
//
// A branch is its own ancestor: NearestCommonAncestor(p, a, a) == a, and
// merging a child into its parent resolves to the parent.
func NearestCommonAncestor(parents map[string]string, a, b string) (string, bool) {
	seen := make(map[string]bool)
	for id := a; id != ""; id = parents[id] {
		if seen[id] {
			// Cycle in the parent chain; bail rather than loop forever.
			return "", false
		}
		seen[id] = true
	}

	visited := make(map[string]bool)
	for id := b; id != ""; id = parents[id] {
		if visited[id] {
			return "", false
		}
		visited[id] = true
		if seen[id] {
			return id, true
		}
	}

	return "", false
}
