package primary

import (
	"errors"
	"fmt"
)

// ErrorCode identifies an expected business failure. Callers branch on the
// code rather than matching message text.
type ErrorCode string

const (
	CodeBranchNameTaken          ErrorCode = "BRANCH_NAME_TAKEN"
	CodeBranchNotFound           ErrorCode = "BRANCH_NOT_FOUND"
	CodeSourceBranchNotFound     ErrorCode = "SOURCE_BRANCH_NOT_FOUND"
	CodeTargetBranchNotFound     ErrorCode = "TARGET_BRANCH_NOT_FOUND"
	CodeParentNotFound           ErrorCode = "PARENT_NOT_FOUND"
	CodeNullBranchID             ErrorCode = "NULL_BRANCH_ID"
	CodeEmptyMessage             ErrorCode = "EMPTY_MESSAGE"
	CodeCannotMergeWithItself    ErrorCode = "CANNOT_MERGE_BRANCH_WITH_ITSELF"
	CodeMergeHasConflicts        ErrorCode = "MERGE_HAS_CONFLICTS"
	CodeMergeNotFound            ErrorCode = "MERGE_NOT_FOUND"
	CodeMergeNotInConflictState  ErrorCode = "MERGE_NOT_IN_CONFLICT_STATE"
	CodeConflictNotFound         ErrorCode = "CONFLICT_NOT_FOUND"
	CodeInvalidResolutionType    ErrorCode = "INVALID_RESOLUTION_TYPE"
	CodeCustomRequiresDefinition ErrorCode = "CUSTOM_RESOLUTION_REQUIRES_DEFINITION"
	CodeTargetBranchBusy         ErrorCode = "TARGET_BRANCH_BUSY"
	CodeBranchNotWritable        ErrorCode = "BRANCH_NOT_WRITABLE"
	CodeStaleWrite               ErrorCode = "STALE_WRITE"
	CodeCommitNotFound           ErrorCode = "COMMIT_NOT_FOUND"
	CodeObjectNotFound           ErrorCode = "OBJECT_NOT_FOUND"
	CodeInvalidChangeType        ErrorCode = "INVALID_CHANGE_TYPE"
)

// Error is a business failure carrying a stable code. It is returned (not
// panicked) so callers can branch on status without exception handling;
// true invariant violations use plain errors and are treated as fatal by
// callers.
type Error struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf builds a coded Error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the ErrorCode from err, or empty string if err carries
// no code.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
