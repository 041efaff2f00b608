package fanforge

import (
	"context"

	"github.com/google/uuid"
)

// Composition assembler: one consistent, read-optimized view of a fandom's
// content. Performs no mutation and needs no caller identity, since
// presentation data is public.

func (s *service) GetComposition(ctx context.Context, fandomID uuid.UUID) (*Composition, error) {
	fandom, err := s.repository.GetFandom(ctx, fandomID)
	if err != nil {
		return nil, err
	}
	page, err := s.repository.GetPageByFandomID(ctx, fandomID)
	if err != nil {
		return nil, err
	}

	sections, err := s.repository.ListSections(ctx, page.ID, true)
	if err != nil {
		return nil, &StorageError{Op: "list sections", Err: err}
	}

	views := make([]*SectionView, 0, len(sections))
	for _, section := range sections {
		filters, err := s.repository.ListFilters(ctx, section.ID, true)
		if err != nil {
			return nil, &StorageError{Op: "list filters", Err: err}
		}
		items, err := s.repository.ListItems(ctx, section.ID, true)
		if err != nil {
			return nil, &StorageError{Op: "list items", Err: err}
		}
		views = append(views, &SectionView{
			Section: section,
			Filters: filters,
			Items:   items,
		})
	}

	return &Composition{
		Fandom:   fandom,
		Page:     page,
		Sections: views,
	}, nil
}
