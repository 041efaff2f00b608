package fanforge

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrFandomNotFound indicates a fandom was not found
	ErrFandomNotFound = errors.New("fandom not found")

	// ErrPageNotFound indicates a page was not found
	ErrPageNotFound = errors.New("page not found")

	// ErrSectionNotFound indicates a section was not found or is inactive
	ErrSectionNotFound = errors.New("section not found")

	// ErrItemNotFound indicates an item was not found or is inactive
	ErrItemNotFound = errors.New("item not found")

	// ErrFilterNotFound indicates a filter was not found
	ErrFilterNotFound = errors.New("filter not found")

	// ErrFollowNotFound indicates the caller does not follow the fandom
	ErrFollowNotFound = errors.New("follow not found")

	// ErrPermissionDenied indicates the caller is not the fandom's creator
	ErrPermissionDenied = errors.New("permission denied")

	// ErrDuplicateFilterValue indicates a filter value already used within the section
	ErrDuplicateFilterValue = errors.New("filter value already exists in section")

	// ErrReservedFilterValue indicates use of the reserved "all" sentinel as a filter value
	ErrReservedFilterValue = errors.New("filter value is reserved")

	// ErrInvalidFilterValue indicates a filter value that cannot be stored in a category list
	ErrInvalidFilterValue = errors.New("invalid filter value")

	// ErrInvalidSectionType indicates a section type outside the known set
	ErrInvalidSectionType = errors.New("invalid section type")

	// ErrInvalidMoveDirection indicates a move direction other than up or down
	ErrInvalidMoveDirection = errors.New("invalid move direction")

	// ErrConflict indicates a concurrent mutation invalidated the operation; safe to retry
	ErrConflict = errors.New("conflicting concurrent update")
)

// EntityError represents an error from an operation on a specific entity
type EntityError struct {
	Entity string
	ID     uuid.UUID
	Op     string
	Err    error
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("%s operation %s failed for %s %s: %v", e.Entity, e.Op, e.Entity, e.ID, e.Err)
}

func (e *EntityError) Unwrap() error {
	return e.Err
}

// StorageError represents a repository-level failure opaque to the core
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err belongs to the validation class of the
// error taxonomy (bad input rather than missing entity or denied access).
func IsValidation(err error) bool {
	return errors.Is(err, ErrDuplicateFilterValue) ||
		errors.Is(err, ErrReservedFilterValue) ||
		errors.Is(err, ErrInvalidFilterValue) ||
		errors.Is(err, ErrInvalidSectionType) ||
		errors.Is(err, ErrInvalidMoveDirection)
}

// IsNotFound reports whether err indicates a missing (or soft-deleted) entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrFandomNotFound) ||
		errors.Is(err, ErrPageNotFound) ||
		errors.Is(err, ErrSectionNotFound) ||
		errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrFilterNotFound) ||
		errors.Is(err, ErrFollowNotFound)
}
