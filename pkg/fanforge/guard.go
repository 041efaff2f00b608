package fanforge

import (
	"context"

	"github.com/google/uuid"
)

// Permission guard: a caller may mutate a fandom's content iff it created the
// fandom. Every mutating operation resolves the owning fandom first; no
// section, item or filter mutation happens without it.

// authorize returns ErrPermissionDenied unless callerID is the fandom's
// creator.
func authorize(callerID uuid.UUID, fandom *Fandom) error {
	if callerID != fandom.CreatorID {
		return ErrPermissionDenied
	}
	return nil
}

// authorizePage resolves the page's fandom and checks the caller against it.
func (s *service) authorizePage(ctx context.Context, callerID uuid.UUID, page *Page) error {
	fandom, err := s.repository.GetFandom(ctx, page.FandomID)
	if err != nil {
		return err
	}
	return authorize(callerID, fandom)
}

// authorizeSection walks section -> page -> fandom.
func (s *service) authorizeSection(ctx context.Context, callerID uuid.UUID, section *Section) error {
	page, err := s.repository.GetPage(ctx, section.PageID)
	if err != nil {
		return err
	}
	return s.authorizePage(ctx, callerID, page)
}

// authorizeItem walks item -> section -> page -> fandom.
func (s *service) authorizeItem(ctx context.Context, callerID uuid.UUID, item *Item) error {
	section, err := s.repository.GetSection(ctx, item.SectionID)
	if err != nil {
		return err
	}
	return s.authorizeSection(ctx, callerID, section)
}

// authorizeFilter walks filter -> section -> page -> fandom.
func (s *service) authorizeFilter(ctx context.Context, callerID uuid.UUID, filter *Filter) error {
	section, err := s.repository.GetSection(ctx, filter.SectionID)
	if err != nil {
		return err
	}
	return s.authorizeSection(ctx, callerID, section)
}
