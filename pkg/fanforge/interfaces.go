package fanforge

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for fandom content persistence. It is the
// only component touching durable storage; everything above it is synchronous
// and side-effect-free except through this interface.
type Repository interface {
	// Fandom operations
	CreateFandom(ctx context.Context, fandom *Fandom) error
	GetFandom(ctx context.Context, id uuid.UUID) (*Fandom, error)
	UpdateFandom(ctx context.Context, fandom *Fandom) error
	ListFandoms(ctx context.Context) ([]*Fandom, error)

	// Page operations
	CreatePage(ctx context.Context, page *Page) error
	GetPage(ctx context.Context, id uuid.UUID) (*Page, error)
	GetPageByFandomID(ctx context.Context, fandomID uuid.UUID) (*Page, error)
	UpdatePage(ctx context.Context, page *Page) error

	// Section operations
	CreateSection(ctx context.Context, section *Section) error
	GetSection(ctx context.Context, id uuid.UUID) (*Section, error)
	UpdateSection(ctx context.Context, section *Section) error
	// ListSections returns the sections of a page ordered by (order,
	// created_at, id). With activeOnly, soft-deleted sections are excluded.
	ListSections(ctx context.Context, pageID uuid.UUID, activeOnly bool) ([]*Section, error)

	// Item operations
	CreateItem(ctx context.Context, item *Item) error
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)
	UpdateItem(ctx context.Context, item *Item) error
	ListItems(ctx context.Context, sectionID uuid.UUID, activeOnly bool) ([]*Item, error)

	// Filter operations. DeleteFilter is a hard delete: filters have no
	// soft-delete state.
	CreateFilter(ctx context.Context, filter *Filter) error
	GetFilter(ctx context.Context, id uuid.UUID) (*Filter, error)
	GetFilterByValue(ctx context.Context, sectionID uuid.UUID, value string) (*Filter, error)
	UpdateFilter(ctx context.Context, filter *Filter) error
	DeleteFilter(ctx context.Context, id uuid.UUID) error
	ListFilters(ctx context.Context, sectionID uuid.UUID, activeOnly bool) ([]*Filter, error)

	// Follow operations
	CreateFollow(ctx context.Context, follow *Follow) error
	DeleteFollow(ctx context.Context, userID, fandomID uuid.UUID) error
	GetFollow(ctx context.Context, userID, fandomID uuid.UUID) (*Follow, error)
	ListFollowedFandoms(ctx context.Context, userID uuid.UUID) ([]*Fandom, error)

	// InTransaction runs fn against a Repository whose writes commit or roll
	// back as one atomic unit. Implementations must guarantee that two
	// concurrent transactions touching the same sibling set serialize; the
	// ordering engine relies on this for its two-row order swap.
	InTransaction(ctx context.Context, fn func(Repository) error) error
}

// EventSink defines the interface for post-mutation notifications. Sink
// failures are logged and never fail the originating operation.
type EventSink interface {
	// FandomCreated is fired when a fandom and its page are created
	FandomCreated(ctx context.Context, fandom *Fandom, page *Page) error

	// PageUpdated is fired when a page's display fields change
	PageUpdated(ctx context.Context, page *Page) error

	// SectionChanged is fired on section create/update/move/deactivate
	SectionChanged(ctx context.Context, section *Section) error

	// ItemChanged is fired on item create/update/move/deactivate and
	// custom-data or membership changes
	ItemChanged(ctx context.Context, item *Item) error

	// FilterChanged is fired on filter create/update/toggle/move
	FilterChanged(ctx context.Context, filter *Filter) error

	// FilterDeleted is fired when a filter is hard-deleted
	FilterDeleted(ctx context.Context, filterID uuid.UUID) error
}
