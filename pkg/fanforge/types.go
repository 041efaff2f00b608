package fanforge

import (
	"time"

	"github.com/google/uuid"
)

// SectionType is the domain type for the closed set of section kinds.
type SectionType string

// Section type constants (typed).
const (
	SectionTypeHero                 SectionType = "hero"
	SectionTypeFilterableCollection SectionType = "filterable-collection"
	SectionTypeGeneric              SectionType = "generic"
)

// IsValid reports whether the section type is one of the known kinds.
func (t SectionType) IsValid() bool {
	switch t {
	case SectionTypeHero, SectionTypeFilterableCollection, SectionTypeGeneric:
		return true
	}
	return false
}

// MoveDirection is the direction of a sibling reorder.
type MoveDirection string

// Move direction constants (typed).
const (
	MoveUp   MoveDirection = "up"
	MoveDown MoveDirection = "down"
)

// IsValid reports whether the direction is "up" or "down".
func (d MoveDirection) IsValid() bool {
	return d == MoveUp || d == MoveDown
}

// Fandom is the top-level content owner unit. It owns exactly one Page,
// created together with it. CreatorID is set once and never changes; it is
// the sole authority for mutating the fandom's content tree.
type Fandom struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ImageRef    string    `json:"image_ref,omitempty"`
	CreatorID   uuid.UUID `json:"creator_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Page is the single composed document belonging to a Fandom. The hero and
// background fields are opaque display attributes; the core never interprets
// them.
type Page struct {
	ID              uuid.UUID `json:"id"`
	FandomID        uuid.UUID `json:"fandom_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	HeroTitle       string    `json:"hero_title,omitempty"`
	HeroSubtitle    string    `json:"hero_subtitle,omitempty"`
	HeroButtonLabel string    `json:"hero_button_label,omitempty"`
	BackgroundColor string    `json:"background_color,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Section is an ordered, typed block within a Page. Order is unique among
// active sections of the same page. Sections are soft-deleted via Active.
type Section struct {
	ID          uuid.UUID   `json:"id"`
	PageID      uuid.UUID   `json:"page_id"`
	Type        SectionType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Order       int         `json:"order"`
	Active      bool        `json:"active"`
	Content     string      `json:"content,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Item is an ordered, typed entry within a Section. ItemType is an open
// string supplied by the caller. CustomData is a flat string-to-string map:
// the one place where attributes vary per item type without a fixed schema.
// The category list used for filter membership lives in
// CustomData["categories"] as a comma-separated value list.
type Item struct {
	ID          uuid.UUID         `json:"id"`
	SectionID   uuid.UUID         `json:"section_id"`
	ItemType    string            `json:"item_type"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	ImageRef    string            `json:"image_ref,omitempty"`
	Color       string            `json:"color,omitempty"`
	Order       int               `json:"order"`
	Active      bool              `json:"active"`
	CustomData  map[string]string `json:"custom_data,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Filter is a named, ordered category tag scoped to a Section. Value is
// unique within the section. Filters have no soft-delete state: removal is a
// hard delete. New filters start inactive so an owner can stage them before
// publishing.
type Filter struct {
	ID        uuid.UUID `json:"id"`
	SectionID uuid.UUID `json:"section_id"`
	Label     string    `json:"label"`
	Value     string    `json:"value"`
	Color     string    `json:"color,omitempty"`
	Order     int       `json:"order"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Follow records a user following a fandom. Adjacent to the content tree:
// authenticated but not owner-restricted.
type Follow struct {
	UserID    uuid.UUID `json:"user_id"`
	FandomID  uuid.UUID `json:"fandom_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SectionView is one section of a composed page together with its active
// filters and items, each ordered.
type SectionView struct {
	Section *Section  `json:"section"`
	Filters []*Filter `json:"filters"`
	Items   []*Item   `json:"items"`
}

// Composition is the fully assembled public view of a fandom's page tree.
type Composition struct {
	Fandom   *Fandom        `json:"fandom"`
	Page     *Page          `json:"page"`
	Sections []*SectionView `json:"sections"`
}
