// Package commitid contains the pure logic for deriving commit hashes.
// This is part of the Functional Core - no I/O, only pure functions.
package commitid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Hash derives the content hash identifying a commit. The digest covers
// branch, parent, message, change summary and timestamp, so two logically
// identical commits on different branches never collide.
func Hash(branchID, parentHash, message, changeSummary string, at time.Time) string {
	payload := fmt.Sprintf("%s\x00%s\x00%s\x00%s\x00%d",
		branchID, parentHash, message, changeSummary, at.UnixNano())
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Short returns the abbreviated form of a commit hash for display.
func Short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
