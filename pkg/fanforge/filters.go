package fanforge

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category filter engine: the catalog of filters per section and the derived
// membership between items and filters. An item belongs to a filter iff the
// filter's value appears in the item's category list, persisted as a
// comma-separated string under CustomData[CategoriesKey].

// CategoriesKey is the custom-data key holding an item's category list.
const CategoriesKey = "categories"

// FilterValueAll is the sentinel matching every active item. It can never be
// created as a real filter value.
const FilterValueAll = "all"

// Categories returns the item's category list, empty when unset.
func Categories(item *Item) []string {
	if item == nil || item.CustomData == nil {
		return nil
	}
	return splitCategories(item.CustomData[CategoriesKey])
}

// HasCategory reports whether the item's category list contains value.
func HasCategory(item *Item, value string) bool {
	for _, c := range Categories(item) {
		if c == value {
			return true
		}
	}
	return false
}

// ItemsMatchingFilter returns the items whose category list contains
// filterValue, preserving relative order. FilterValueAll matches everything.
func ItemsMatchingFilter(items []*Item, filterValue string) []*Item {
	if filterValue == FilterValueAll {
		return items
	}
	matched := make([]*Item, 0, len(items))
	for _, item := range items {
		if HasCategory(item, filterValue) {
			matched = append(matched, item)
		}
	}
	return matched
}

func splitCategories(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	categories := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			categories = append(categories, trimmed)
		}
	}
	return categories
}

func joinCategories(categories []string) string {
	return strings.Join(categories, ",")
}

// validateFilterValue rejects the reserved sentinel and values that cannot
// survive the comma-separated category list encoding.
func validateFilterValue(value string) error {
	if value == FilterValueAll {
		return ErrReservedFilterValue
	}
	if strings.TrimSpace(value) == "" || strings.Contains(value, ",") {
		return ErrInvalidFilterValue
	}
	return nil
}

// Filter operations

func (s *service) CreateFilter(ctx context.Context, req CreateFilterRequest) (*Filter, error) {
	section, err := s.repository.GetSection(ctx, req.SectionID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeSection(ctx, req.CallerID, section); err != nil {
		return nil, err
	}
	if err := validateFilterValue(req.Value); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	filter := &Filter{
		ID:        uuid.New(),
		SectionID: req.SectionID,
		Label:     req.Label,
		Value:     req.Value,
		Color:     req.Color,
		Active:    false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.repository.InTransaction(ctx, func(tx Repository) error {
		if _, err := tx.GetFilterByValue(ctx, req.SectionID, req.Value); err == nil {
			return ErrDuplicateFilterValue
		} else if !errors.Is(err, ErrFilterNotFound) {
			return err
		}
		siblings, err := tx.ListFilters(ctx, req.SectionID, false)
		if err != nil {
			return err
		}
		filter.Order = nextOrder(siblings)
		return tx.CreateFilter(ctx, filter)
	})
	if err != nil {
		if IsValidation(err) {
			return nil, err
		}
		return nil, &EntityError{Entity: "filter", ID: filter.ID, Op: "create", Err: err}
	}

	s.notifyFilterChanged(ctx, filter)
	return filter, nil
}

func (s *service) UpdateFilter(ctx context.Context, req UpdateFilterRequest) (*Filter, error) {
	filter, err := s.repository.GetFilter(ctx, req.FilterID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeFilter(ctx, req.CallerID, filter); err != nil {
		return nil, err
	}

	if req.Value != nil && *req.Value != filter.Value {
		if err := validateFilterValue(*req.Value); err != nil {
			return nil, err
		}
		if _, err := s.repository.GetFilterByValue(ctx, filter.SectionID, *req.Value); err == nil {
			return nil, ErrDuplicateFilterValue
		} else if !errors.Is(err, ErrFilterNotFound) {
			return nil, err
		}
		filter.Value = *req.Value
	}
	if req.Label != nil {
		filter.Label = *req.Label
	}
	if req.Color != nil {
		filter.Color = *req.Color
	}
	filter.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateFilter(ctx, filter); err != nil {
		return nil, &EntityError{Entity: "filter", ID: filter.ID, Op: "update", Err: err}
	}

	s.notifyFilterChanged(ctx, filter)
	return filter, nil
}

func (s *service) ToggleFilterActive(ctx context.Context, callerID, filterID uuid.UUID) (*Filter, error) {
	filter, err := s.repository.GetFilter(ctx, filterID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeFilter(ctx, callerID, filter); err != nil {
		return nil, err
	}

	filter.Active = !filter.Active
	filter.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateFilter(ctx, filter); err != nil {
		return nil, &EntityError{Entity: "filter", ID: filter.ID, Op: "toggle", Err: err}
	}

	s.notifyFilterChanged(ctx, filter)
	return filter, nil
}

// DeleteFilter hard-deletes the filter. Items keep the deleted value in
// their category lists; once no filter carries it, the value matches nothing
// except through the "all" sentinel, and membership removal still works.
func (s *service) DeleteFilter(ctx context.Context, callerID, filterID uuid.UUID) error {
	filter, err := s.repository.GetFilter(ctx, filterID)
	if err != nil {
		return err
	}
	if err := s.authorizeFilter(ctx, callerID, filter); err != nil {
		return err
	}

	if err := s.repository.DeleteFilter(ctx, filterID); err != nil {
		return &EntityError{Entity: "filter", ID: filterID, Op: "delete", Err: err}
	}

	s.notifyFilterDeleted(ctx, filterID)
	return nil
}

// ToggleItemFilterMembership flips exactly one membership. Adding validates
// that a filter with the value exists in the item's section; removing never
// validates, so orphaned tags left behind by filter deletion can always be
// cleaned up.
func (s *service) ToggleItemFilterMembership(ctx context.Context, callerID, itemID uuid.UUID, filterValue string) (*Item, error) {
	item, err := s.repository.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeItem(ctx, callerID, item); err != nil {
		return nil, err
	}
	if filterValue == FilterValueAll {
		return nil, ErrReservedFilterValue
	}

	categories := Categories(item)
	if HasCategory(item, filterValue) {
		kept := make([]string, 0, len(categories))
		for _, c := range categories {
			if c != filterValue {
				kept = append(kept, c)
			}
		}
		categories = kept
	} else {
		if _, err := s.repository.GetFilterByValue(ctx, item.SectionID, filterValue); err != nil {
			return nil, err
		}
		categories = append(categories, filterValue)
	}

	if item.CustomData == nil {
		item.CustomData = make(map[string]string)
	}
	if len(categories) == 0 {
		delete(item.CustomData, CategoriesKey)
	} else {
		item.CustomData[CategoriesKey] = joinCategories(categories)
	}
	item.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateItem(ctx, item); err != nil {
		return nil, &EntityError{Entity: "item", ID: itemID, Op: "toggle_membership", Err: err}
	}

	s.notifyItemChanged(ctx, item)
	return item, nil
}
