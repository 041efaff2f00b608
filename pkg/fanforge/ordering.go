package fanforge

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Ordering engine: keeps a strict total order among live siblings (sections
// within a page, items within a section, filters within a section) and moves
// one sibling up or down by swapping order values with its neighbor. Only the
// two affected rows change; no renumbering of the rest.

// sibling is the common shape of orderable entities.
type sibling interface {
	siblingKey() (order int, createdAt time.Time, id uuid.UUID)
}

func (s *Section) siblingKey() (int, time.Time, uuid.UUID) { return s.Order, s.CreatedAt, s.ID }
func (i *Item) siblingKey() (int, time.Time, uuid.UUID)    { return i.Order, i.CreatedAt, i.ID }
func (f *Filter) siblingKey() (int, time.Time, uuid.UUID)  { return f.Order, f.CreatedAt, f.ID }

// siblingLess is the one comparison used everywhere siblings are ordered.
// Equal order values should never occur, but the fallback to creation time
// and then id keeps the total order deterministic if they do.
func siblingLess[T sibling](a, b T) bool {
	ao, at, aid := a.siblingKey()
	bo, bt, bid := b.siblingKey()
	if ao != bo {
		return ao < bo
	}
	if !at.Equal(bt) {
		return at.Before(bt)
	}
	return aid.String() < bid.String()
}

// sortSiblings sorts in place by (order, created_at, id).
func sortSiblings[T sibling](siblings []T) {
	sort.Slice(siblings, func(i, j int) bool {
		return siblingLess(siblings[i], siblings[j])
	})
}

// nextOrder returns max(existing orders)+1, or 1 when there are no siblings.
// Inactive siblings count too: a reactivated entity keeps its order, and the
// append position must not collide with it. Gaps are fine, ties are not.
func nextOrder[T sibling](siblings []T) int {
	max := 0
	for _, s := range siblings {
		if o, _, _ := s.siblingKey(); o > max {
			max = o
		}
	}
	return max + 1
}

// moveTarget locates id among siblings (assumed sorted) and returns the index
// pair to swap. ok is false for a boundary move: already first when moving
// up, already last when moving down. Boundary moves are successful no-ops,
// not errors.
func moveTarget[T sibling](siblings []T, id uuid.UUID, direction MoveDirection) (cur, neighbor int, ok bool, err error) {
	if !direction.IsValid() {
		return 0, 0, false, ErrInvalidMoveDirection
	}
	cur = -1
	for i, s := range siblings {
		if _, _, sid := s.siblingKey(); sid == id {
			cur = i
			break
		}
	}
	if cur < 0 {
		return 0, 0, false, ErrConflict
	}
	if direction == MoveUp {
		if cur == 0 {
			return cur, cur, false, nil
		}
		return cur, cur - 1, true, nil
	}
	if cur == len(siblings)-1 {
		return cur, cur, false, nil
	}
	return cur, cur + 1, true, nil
}

// Section, item and filter moves. Each runs its read-compare-swap inside a
// repository transaction and re-reads the sibling set in the transaction, so
// a concurrent move on the same parent cannot produce duplicate or skipped
// order values.

func (s *service) MoveSection(ctx context.Context, callerID, sectionID uuid.UUID, direction MoveDirection) (*Section, error) {
	section, err := s.repository.GetSection(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeSection(ctx, callerID, section); err != nil {
		return nil, err
	}

	var moved *Section
	err = s.repository.InTransaction(ctx, func(tx Repository) error {
		siblings, err := tx.ListSections(ctx, section.PageID, true)
		if err != nil {
			return err
		}
		cur, neighbor, ok, err := moveTarget(siblings, sectionID, direction)
		if err != nil {
			return err
		}
		moved = siblings[cur]
		if !ok {
			return nil
		}
		other := siblings[neighbor]
		moved.Order, other.Order = other.Order, moved.Order
		now := time.Now().UTC()
		moved.UpdatedAt = now
		other.UpdatedAt = now
		if err := tx.UpdateSection(ctx, moved); err != nil {
			return err
		}
		return tx.UpdateSection(ctx, other)
	})
	if err != nil {
		return nil, &EntityError{Entity: "section", ID: sectionID, Op: "move", Err: err}
	}

	s.notifySectionChanged(ctx, moved)
	return moved, nil
}

func (s *service) MoveItem(ctx context.Context, callerID, itemID uuid.UUID, direction MoveDirection) (*Item, error) {
	item, err := s.repository.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeItem(ctx, callerID, item); err != nil {
		return nil, err
	}

	var moved *Item
	err = s.repository.InTransaction(ctx, func(tx Repository) error {
		siblings, err := tx.ListItems(ctx, item.SectionID, true)
		if err != nil {
			return err
		}
		cur, neighbor, ok, err := moveTarget(siblings, itemID, direction)
		if err != nil {
			return err
		}
		moved = siblings[cur]
		if !ok {
			return nil
		}
		other := siblings[neighbor]
		moved.Order, other.Order = other.Order, moved.Order
		now := time.Now().UTC()
		moved.UpdatedAt = now
		other.UpdatedAt = now
		if err := tx.UpdateItem(ctx, moved); err != nil {
			return err
		}
		return tx.UpdateItem(ctx, other)
	})
	if err != nil {
		return nil, &EntityError{Entity: "item", ID: itemID, Op: "move", Err: err}
	}

	s.notifyItemChanged(ctx, moved)
	return moved, nil
}

func (s *service) MoveFilter(ctx context.Context, callerID, filterID uuid.UUID, direction MoveDirection) (*Filter, error) {
	filter, err := s.repository.GetFilter(ctx, filterID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeFilter(ctx, callerID, filter); err != nil {
		return nil, err
	}

	var moved *Filter
	err = s.repository.InTransaction(ctx, func(tx Repository) error {
		siblings, err := tx.ListFilters(ctx, filter.SectionID, false)
		if err != nil {
			return err
		}
		cur, neighbor, ok, err := moveTarget(siblings, filterID, direction)
		if err != nil {
			return err
		}
		moved = siblings[cur]
		if !ok {
			return nil
		}
		other := siblings[neighbor]
		moved.Order, other.Order = other.Order, moved.Order
		now := time.Now().UTC()
		moved.UpdatedAt = now
		other.UpdatedAt = now
		if err := tx.UpdateFilter(ctx, moved); err != nil {
			return err
		}
		return tx.UpdateFilter(ctx, other)
	})
	if err != nil {
		return nil, &EntityError{Entity: "filter", ID: filterID, Op: "move", Err: err}
	}

	s.notifyFilterChanged(ctx, moved)
	return moved, nil
}
