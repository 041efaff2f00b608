package fanforge

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the main interface for the fanforge library. Callers wrap
// these operations in whatever transport they choose; the HTTP handlers in
// the api package are one such wrapper.
//
// Reads are public. Every mutating operation resolves the owning fandom and
// checks the caller against its creator before touching the repository.
type Service interface {
	// Fandom operations
	CreateFandom(ctx context.Context, req CreateFandomRequest) (*Fandom, error)
	GetFandom(ctx context.Context, id uuid.UUID) (*Fandom, error)
	UpdateFandom(ctx context.Context, req UpdateFandomRequest) (*Fandom, error)
	ListFandoms(ctx context.Context) ([]*Fandom, error)

	// GetComposition assembles the full public tree for a fandom: its page,
	// active sections in order, and per section the active filters and items
	// in order. Requires no caller identity.
	GetComposition(ctx context.Context, fandomID uuid.UUID) (*Composition, error)

	// Page operations
	UpdatePage(ctx context.Context, req UpdatePageRequest) (*Page, error)

	// Section operations
	CreateSection(ctx context.Context, req CreateSectionRequest) (*Section, error)
	UpdateSection(ctx context.Context, req UpdateSectionRequest) (*Section, error)
	MoveSection(ctx context.Context, callerID, sectionID uuid.UUID, direction MoveDirection) (*Section, error)
	DeactivateSection(ctx context.Context, callerID, sectionID uuid.UUID) error

	// Item operations
	CreateItem(ctx context.Context, req CreateItemRequest) (*Item, error)
	UpdateItem(ctx context.Context, req UpdateItemRequest) (*Item, error)
	MoveItem(ctx context.Context, callerID, itemID uuid.UUID, direction MoveDirection) (*Item, error)
	DeactivateItem(ctx context.Context, callerID, itemID uuid.UUID) error

	// Item custom-data operations. PatchItemCustomData overlays only the
	// given keys; ReplaceItemCustomData swaps the whole map. Conflating the
	// two silently drops data, so both are exposed.
	PatchItemCustomData(ctx context.Context, callerID, itemID uuid.UUID, partial map[string]string) (*Item, error)
	ReplaceItemCustomData(ctx context.Context, callerID, itemID uuid.UUID, full map[string]string) (*Item, error)

	// Filter operations
	CreateFilter(ctx context.Context, req CreateFilterRequest) (*Filter, error)
	UpdateFilter(ctx context.Context, req UpdateFilterRequest) (*Filter, error)
	ToggleFilterActive(ctx context.Context, callerID, filterID uuid.UUID) (*Filter, error)
	MoveFilter(ctx context.Context, callerID, filterID uuid.UUID, direction MoveDirection) (*Filter, error)
	DeleteFilter(ctx context.Context, callerID, filterID uuid.UUID) error

	// ToggleItemFilterMembership flips the item's membership in the filter
	// with the given value: present is removed, absent is appended.
	ToggleItemFilterMembership(ctx context.Context, callerID, itemID uuid.UUID, filterValue string) (*Item, error)

	// Follow operations: authenticated but not owner-restricted.
	FollowFandom(ctx context.Context, callerID, fandomID uuid.UUID) error
	UnfollowFandom(ctx context.Context, callerID, fandomID uuid.UUID) error
	ListFollowedFandoms(ctx context.Context, callerID uuid.UUID) ([]*Fandom, error)
}
