package fanforge

import "github.com/google/uuid"

// Request DTOs
//
// Patch-style requests use pointer fields: nil means "leave unchanged".

// CreateFandomRequest contains parameters for creating a fandom. The caller
// becomes the immutable creator; the 1:1 page is created in the same
// transaction with the fandom's name as its default title.
type CreateFandomRequest struct {
	CallerID    uuid.UUID
	Name        string
	Description string
	ImageRef    string
}

// UpdateFandomRequest patches a fandom's display attributes. CreatorID is
// never updatable.
type UpdateFandomRequest struct {
	CallerID    uuid.UUID
	FandomID    uuid.UUID
	Name        *string
	Description *string
	ImageRef    *string
}

// UpdatePageRequest patches a page's display fields.
type UpdatePageRequest struct {
	CallerID        uuid.UUID
	PageID          uuid.UUID
	Title           *string
	Description     *string
	HeroTitle       *string
	HeroSubtitle    *string
	HeroButtonLabel *string
	BackgroundColor *string
}

// CreateSectionRequest contains parameters for creating a section. Order is
// assigned by the service (appended after existing siblings).
type CreateSectionRequest struct {
	CallerID    uuid.UUID
	PageID      uuid.UUID
	Type        SectionType
	Title       string
	Description string
	Content     string
}

// UpdateSectionRequest patches a section. Order and Active are managed by
// dedicated operations and are not patchable here.
type UpdateSectionRequest struct {
	CallerID    uuid.UUID
	SectionID   uuid.UUID
	Title       *string
	Description *string
	Content     *string
}

// CreateItemRequest contains parameters for creating an item. ItemType is an
// open string, not validated against a closed enum.
type CreateItemRequest struct {
	CallerID    uuid.UUID
	SectionID   uuid.UUID
	ItemType    string
	Title       string
	Description string
	ImageRef    string
	Color       string
	CustomData  map[string]string
}

// UpdateItemRequest patches an item's fixed fields. CustomData changes go
// through PatchItemCustomData or ReplaceItemCustomData.
type UpdateItemRequest struct {
	CallerID    uuid.UUID
	ItemID      uuid.UUID
	ItemType    *string
	Title       *string
	Description *string
	ImageRef    *string
	Color       *string
}

// CreateFilterRequest contains parameters for creating a filter. New filters
// start inactive; activation is a deliberate separate step.
type CreateFilterRequest struct {
	CallerID  uuid.UUID
	SectionID uuid.UUID
	Label     string
	Value     string
	Color     string
}

// UpdateFilterRequest patches a filter. Changing Value re-checks uniqueness
// within the section.
type UpdateFilterRequest struct {
	CallerID uuid.UUID
	FilterID uuid.UUID
	Label    *string
	Value    *string
	Color    *string
}
