package fanforge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repository Repository
	events     EventSink
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.events = sink
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}

	return s, nil
}

// Fandom operations

// CreateFandom creates the fandom and its 1:1 page in one transaction. The
// caller becomes the immutable creator.
func (s *service) CreateFandom(ctx context.Context, req CreateFandomRequest) (*Fandom, error) {
	now := time.Now().UTC()
	fandom := &Fandom{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		ImageRef:    req.ImageRef,
		CreatorID:   req.CallerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	page := &Page{
		ID:        uuid.New(),
		FandomID:  fandom.ID,
		Title:     req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.repository.InTransaction(ctx, func(tx Repository) error {
		if err := tx.CreateFandom(ctx, fandom); err != nil {
			return err
		}
		return tx.CreatePage(ctx, page)
	})
	if err != nil {
		return nil, &EntityError{Entity: "fandom", ID: fandom.ID, Op: "create", Err: err}
	}

	s.notifyFandomCreated(ctx, fandom, page)
	return fandom, nil
}

func (s *service) GetFandom(ctx context.Context, id uuid.UUID) (*Fandom, error) {
	return s.repository.GetFandom(ctx, id)
}

func (s *service) ListFandoms(ctx context.Context) ([]*Fandom, error) {
	return s.repository.ListFandoms(ctx)
}

func (s *service) UpdateFandom(ctx context.Context, req UpdateFandomRequest) (*Fandom, error) {
	fandom, err := s.repository.GetFandom(ctx, req.FandomID)
	if err != nil {
		return nil, err
	}
	if err := authorize(req.CallerID, fandom); err != nil {
		return nil, err
	}

	if req.Name != nil {
		fandom.Name = *req.Name
	}
	if req.Description != nil {
		fandom.Description = *req.Description
	}
	if req.ImageRef != nil {
		fandom.ImageRef = *req.ImageRef
	}
	fandom.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateFandom(ctx, fandom); err != nil {
		return nil, &EntityError{Entity: "fandom", ID: fandom.ID, Op: "update", Err: err}
	}

	return fandom, nil
}

// Page operations

func (s *service) UpdatePage(ctx context.Context, req UpdatePageRequest) (*Page, error) {
	page, err := s.repository.GetPage(ctx, req.PageID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizePage(ctx, req.CallerID, page); err != nil {
		return nil, err
	}

	if req.Title != nil {
		page.Title = *req.Title
	}
	if req.Description != nil {
		page.Description = *req.Description
	}
	if req.HeroTitle != nil {
		page.HeroTitle = *req.HeroTitle
	}
	if req.HeroSubtitle != nil {
		page.HeroSubtitle = *req.HeroSubtitle
	}
	if req.HeroButtonLabel != nil {
		page.HeroButtonLabel = *req.HeroButtonLabel
	}
	if req.BackgroundColor != nil {
		page.BackgroundColor = *req.BackgroundColor
	}
	page.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdatePage(ctx, page); err != nil {
		return nil, &EntityError{Entity: "page", ID: page.ID, Op: "update", Err: err}
	}

	s.notifyPageUpdated(ctx, page)
	return page, nil
}

// Section operations

func (s *service) CreateSection(ctx context.Context, req CreateSectionRequest) (*Section, error) {
	page, err := s.repository.GetPage(ctx, req.PageID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizePage(ctx, req.CallerID, page); err != nil {
		return nil, err
	}
	if !req.Type.IsValid() {
		return nil, ErrInvalidSectionType
	}

	now := time.Now().UTC()
	section := &Section{
		ID:          uuid.New(),
		PageID:      req.PageID,
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.repository.InTransaction(ctx, func(tx Repository) error {
		siblings, err := tx.ListSections(ctx, req.PageID, false)
		if err != nil {
			return err
		}
		section.Order = nextOrder(siblings)
		return tx.CreateSection(ctx, section)
	})
	if err != nil {
		return nil, &EntityError{Entity: "section", ID: section.ID, Op: "create", Err: err}
	}

	s.notifySectionChanged(ctx, section)
	return section, nil
}

func (s *service) UpdateSection(ctx context.Context, req UpdateSectionRequest) (*Section, error) {
	section, err := s.repository.GetSection(ctx, req.SectionID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeSection(ctx, req.CallerID, section); err != nil {
		return nil, err
	}

	if req.Title != nil {
		section.Title = *req.Title
	}
	if req.Description != nil {
		section.Description = *req.Description
	}
	if req.Content != nil {
		section.Content = *req.Content
	}
	section.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateSection(ctx, section); err != nil {
		return nil, &EntityError{Entity: "section", ID: section.ID, Op: "update", Err: err}
	}

	s.notifySectionChanged(ctx, section)
	return section, nil
}

// DeactivateSection soft-deletes the section. The row is retained and keeps
// its order value; composition reads skip it.
func (s *service) DeactivateSection(ctx context.Context, callerID, sectionID uuid.UUID) error {
	section, err := s.repository.GetSection(ctx, sectionID)
	if err != nil {
		return err
	}
	if err := s.authorizeSection(ctx, callerID, section); err != nil {
		return err
	}

	section.Active = false
	section.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateSection(ctx, section); err != nil {
		return &EntityError{Entity: "section", ID: sectionID, Op: "deactivate", Err: err}
	}

	s.notifySectionChanged(ctx, section)
	return nil
}

// Item operations

func (s *service) CreateItem(ctx context.Context, req CreateItemRequest) (*Item, error) {
	section, err := s.repository.GetSection(ctx, req.SectionID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeSection(ctx, req.CallerID, section); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	item := &Item{
		ID:          uuid.New(),
		SectionID:   req.SectionID,
		ItemType:    req.ItemType,
		Title:       req.Title,
		Description: req.Description,
		ImageRef:    req.ImageRef,
		Color:       req.Color,
		CustomData:  copyCustomData(req.CustomData),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.repository.InTransaction(ctx, func(tx Repository) error {
		siblings, err := tx.ListItems(ctx, req.SectionID, false)
		if err != nil {
			return err
		}
		item.Order = nextOrder(siblings)
		return tx.CreateItem(ctx, item)
	})
	if err != nil {
		return nil, &EntityError{Entity: "item", ID: item.ID, Op: "create", Err: err}
	}

	s.notifyItemChanged(ctx, item)
	return item, nil
}

func (s *service) UpdateItem(ctx context.Context, req UpdateItemRequest) (*Item, error) {
	item, err := s.repository.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeItem(ctx, req.CallerID, item); err != nil {
		return nil, err
	}

	if req.ItemType != nil {
		item.ItemType = *req.ItemType
	}
	if req.Title != nil {
		item.Title = *req.Title
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.ImageRef != nil {
		item.ImageRef = *req.ImageRef
	}
	if req.Color != nil {
		item.Color = *req.Color
	}
	item.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateItem(ctx, item); err != nil {
		return nil, &EntityError{Entity: "item", ID: item.ID, Op: "update", Err: err}
	}

	s.notifyItemChanged(ctx, item)
	return item, nil
}

func (s *service) DeactivateItem(ctx context.Context, callerID, itemID uuid.UUID) error {
	item, err := s.repository.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if err := s.authorizeItem(ctx, callerID, item); err != nil {
		return err
	}

	item.Active = false
	item.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateItem(ctx, item); err != nil {
		return &EntityError{Entity: "item", ID: itemID, Op: "deactivate", Err: err}
	}

	s.notifyItemChanged(ctx, item)
	return nil
}

// PatchItemCustomData overlays only the given keys onto the existing map.
// Keys absent from partial stay untouched. The HTTP PATCH endpoint uses this;
// bulk editors use ReplaceItemCustomData.
func (s *service) PatchItemCustomData(ctx context.Context, callerID, itemID uuid.UUID, partial map[string]string) (*Item, error) {
	item, err := s.repository.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeItem(ctx, callerID, item); err != nil {
		return nil, err
	}

	if item.CustomData == nil {
		item.CustomData = make(map[string]string, len(partial))
	}
	for k, v := range partial {
		item.CustomData[k] = v
	}
	item.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateItem(ctx, item); err != nil {
		return nil, &EntityError{Entity: "item", ID: itemID, Op: "patch_custom_data", Err: err}
	}

	s.notifyItemChanged(ctx, item)
	return item, nil
}

// ReplaceItemCustomData swaps the whole custom-data map, dropping keys not
// present in full. The HTTP PUT endpoint uses this.
func (s *service) ReplaceItemCustomData(ctx context.Context, callerID, itemID uuid.UUID, full map[string]string) (*Item, error) {
	item, err := s.repository.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeItem(ctx, callerID, item); err != nil {
		return nil, err
	}

	item.CustomData = copyCustomData(full)
	item.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateItem(ctx, item); err != nil {
		return nil, &EntityError{Entity: "item", ID: itemID, Op: "replace_custom_data", Err: err}
	}

	s.notifyItemChanged(ctx, item)
	return item, nil
}

// Follow operations

// FollowFandom is idempotent: following a fandom twice is not an error.
func (s *service) FollowFandom(ctx context.Context, callerID, fandomID uuid.UUID) error {
	if _, err := s.repository.GetFandom(ctx, fandomID); err != nil {
		return err
	}
	if _, err := s.repository.GetFollow(ctx, callerID, fandomID); err == nil {
		return nil
	}

	follow := &Follow{
		UserID:    callerID,
		FandomID:  fandomID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repository.CreateFollow(ctx, follow); err != nil {
		return &StorageError{Op: "create follow", Err: err}
	}
	return nil
}

// UnfollowFandom is idempotent: unfollowing a fandom the caller does not
// follow is not an error.
func (s *service) UnfollowFandom(ctx context.Context, callerID, fandomID uuid.UUID) error {
	err := s.repository.DeleteFollow(ctx, callerID, fandomID)
	if err != nil && !IsNotFound(err) {
		return &StorageError{Op: "delete follow", Err: err}
	}
	return nil
}

func (s *service) ListFollowedFandoms(ctx context.Context, callerID uuid.UUID) ([]*Fandom, error) {
	return s.repository.ListFollowedFandoms(ctx, callerID)
}

func copyCustomData(data map[string]string) map[string]string {
	if data == nil {
		return nil
	}
	copied := make(map[string]string, len(data))
	for k, v := range data {
		copied[k] = v
	}
	return copied
}
