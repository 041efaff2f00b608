package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fanforge/fanforge/pkg/fanforge"
	"github.com/google/uuid"
)

// Repository implements fanforge.Repository using in-memory storage. It is
// the reference implementation: tests run against it and the postgres
// repository must behave identically.
type Repository struct {
	mu           sync.RWMutex
	fandoms      map[uuid.UUID]*fanforge.Fandom
	pages        map[uuid.UUID]*fanforge.Page
	pageByFandom map[uuid.UUID]uuid.UUID // fandom_id -> page_id
	sections     map[uuid.UUID]*fanforge.Section
	items        map[uuid.UUID]*fanforge.Item
	filters      map[uuid.UUID]*fanforge.Filter
	follows      map[followKey]*fanforge.Follow

	// txMu serializes every write, transactional or not. A transaction runs
	// against a private clone while holding it, so a plain write can neither
	// interleave with the transaction nor be lost when it rolls back.
	txMu sync.Mutex
}

type followKey struct {
	userID   uuid.UUID
	fandomID uuid.UUID
}

// New creates a new in-memory repository
func New() fanforge.Repository {
	return &Repository{
		fandoms:      make(map[uuid.UUID]*fanforge.Fandom),
		pages:        make(map[uuid.UUID]*fanforge.Page),
		pageByFandom: make(map[uuid.UUID]uuid.UUID),
		sections:     make(map[uuid.UUID]*fanforge.Section),
		items:        make(map[uuid.UUID]*fanforge.Item),
		filters:      make(map[uuid.UUID]*fanforge.Filter),
		follows:      make(map[followKey]*fanforge.Follow),
	}
}

// Fandom operations

func (r *Repository) CreateFandom(ctx context.Context, fandom *fanforge.Fandom) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to avoid external modifications
	fandomCopy := *fandom
	r.fandoms[fandom.ID] = &fandomCopy

	return nil
}

func (r *Repository) GetFandom(ctx context.Context, id uuid.UUID) (*fanforge.Fandom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fandom, exists := r.fandoms[id]
	if !exists {
		return nil, fanforge.ErrFandomNotFound
	}
	fandomCopy := *fandom
	return &fandomCopy, nil
}

func (r *Repository) UpdateFandom(ctx context.Context, fandom *fanforge.Fandom) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.fandoms[fandom.ID]; !exists {
		return fanforge.ErrFandomNotFound
	}
	fandomCopy := *fandom
	r.fandoms[fandom.ID] = &fandomCopy

	return nil
}

func (r *Repository) ListFandoms(ctx context.Context) ([]*fanforge.Fandom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*fanforge.Fandom, 0, len(r.fandoms))
	for _, fandom := range r.fandoms {
		fandomCopy := *fandom
		result = append(result, &fandomCopy)
	}

	// Sort by created_at descending, id as tie-break for stability
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})

	return result, nil
}

// Page operations

func (r *Repository) CreatePage(ctx context.Context, page *fanforge.Page) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.fandoms[page.FandomID]; !exists {
		return fanforge.ErrFandomNotFound
	}

	pageCopy := *page
	r.pages[page.ID] = &pageCopy
	r.pageByFandom[page.FandomID] = page.ID

	return nil
}

func (r *Repository) GetPage(ctx context.Context, id uuid.UUID) (*fanforge.Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	page, exists := r.pages[id]
	if !exists {
		return nil, fanforge.ErrPageNotFound
	}
	pageCopy := *page
	return &pageCopy, nil
}

func (r *Repository) GetPageByFandomID(ctx context.Context, fandomID uuid.UUID) (*fanforge.Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pageID, exists := r.pageByFandom[fandomID]
	if !exists {
		return nil, fanforge.ErrPageNotFound
	}
	page, exists := r.pages[pageID]
	if !exists {
		return nil, fanforge.ErrPageNotFound
	}
	pageCopy := *page
	return &pageCopy, nil
}

func (r *Repository) UpdatePage(ctx context.Context, page *fanforge.Page) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pages[page.ID]; !exists {
		return fanforge.ErrPageNotFound
	}
	pageCopy := *page
	r.pages[page.ID] = &pageCopy

	return nil
}

// Section operations

func (r *Repository) CreateSection(ctx context.Context, section *fanforge.Section) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pages[section.PageID]; !exists {
		return fanforge.ErrPageNotFound
	}

	sectionCopy := *section
	r.sections[section.ID] = &sectionCopy

	return nil
}

func (r *Repository) GetSection(ctx context.Context, id uuid.UUID) (*fanforge.Section, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	section, exists := r.sections[id]
	if !exists {
		return nil, fanforge.ErrSectionNotFound
	}
	sectionCopy := *section
	return &sectionCopy, nil
}

func (r *Repository) UpdateSection(ctx context.Context, section *fanforge.Section) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sections[section.ID]; !exists {
		return fanforge.ErrSectionNotFound
	}
	sectionCopy := *section
	r.sections[section.ID] = &sectionCopy

	return nil
}

func (r *Repository) ListSections(ctx context.Context, pageID uuid.UUID, activeOnly bool) ([]*fanforge.Section, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*fanforge.Section
	for _, section := range r.sections {
		if section.PageID != pageID {
			continue
		}
		if activeOnly && !section.Active {
			continue
		}
		sectionCopy := *section
		result = append(result, &sectionCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return orderedBefore(result[i].Order, result[j].Order,
			result[i].CreatedAt, result[j].CreatedAt, result[i].ID, result[j].ID)
	})

	return result, nil
}

// Item operations

func (r *Repository) CreateItem(ctx context.Context, item *fanforge.Item) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sections[item.SectionID]; !exists {
		return fanforge.ErrSectionNotFound
	}

	itemCopy := copyItem(item)
	r.items[item.ID] = itemCopy

	return nil
}

func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*fanforge.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.items[id]
	if !exists {
		return nil, fanforge.ErrItemNotFound
	}
	return copyItem(item), nil
}

func (r *Repository) UpdateItem(ctx context.Context, item *fanforge.Item) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; !exists {
		return fanforge.ErrItemNotFound
	}
	r.items[item.ID] = copyItem(item)

	return nil
}

func (r *Repository) ListItems(ctx context.Context, sectionID uuid.UUID, activeOnly bool) ([]*fanforge.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*fanforge.Item
	for _, item := range r.items {
		if item.SectionID != sectionID {
			continue
		}
		if activeOnly && !item.Active {
			continue
		}
		result = append(result, copyItem(item))
	}

	sort.Slice(result, func(i, j int) bool {
		return orderedBefore(result[i].Order, result[j].Order,
			result[i].CreatedAt, result[j].CreatedAt, result[i].ID, result[j].ID)
	})

	return result, nil
}

// Filter operations

func (r *Repository) CreateFilter(ctx context.Context, filter *fanforge.Filter) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sections[filter.SectionID]; !exists {
		return fanforge.ErrSectionNotFound
	}
	for _, existing := range r.filters {
		if existing.SectionID == filter.SectionID && existing.Value == filter.Value {
			return fanforge.ErrDuplicateFilterValue
		}
	}

	filterCopy := *filter
	r.filters[filter.ID] = &filterCopy

	return nil
}

func (r *Repository) GetFilter(ctx context.Context, id uuid.UUID) (*fanforge.Filter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	filter, exists := r.filters[id]
	if !exists {
		return nil, fanforge.ErrFilterNotFound
	}
	filterCopy := *filter
	return &filterCopy, nil
}

func (r *Repository) GetFilterByValue(ctx context.Context, sectionID uuid.UUID, value string) (*fanforge.Filter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, filter := range r.filters {
		if filter.SectionID == sectionID && filter.Value == value {
			filterCopy := *filter
			return &filterCopy, nil
		}
	}
	return nil, fanforge.ErrFilterNotFound
}

func (r *Repository) UpdateFilter(ctx context.Context, filter *fanforge.Filter) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.filters[filter.ID]; !exists {
		return fanforge.ErrFilterNotFound
	}
	for _, existing := range r.filters {
		if existing.ID != filter.ID && existing.SectionID == filter.SectionID && existing.Value == filter.Value {
			return fanforge.ErrDuplicateFilterValue
		}
	}
	filterCopy := *filter
	r.filters[filter.ID] = &filterCopy

	return nil
}

// DeleteFilter removes the row entirely. Filters have no soft-delete state.
func (r *Repository) DeleteFilter(ctx context.Context, id uuid.UUID) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.filters[id]; !exists {
		return fanforge.ErrFilterNotFound
	}
	delete(r.filters, id)

	return nil
}

func (r *Repository) ListFilters(ctx context.Context, sectionID uuid.UUID, activeOnly bool) ([]*fanforge.Filter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*fanforge.Filter
	for _, filter := range r.filters {
		if filter.SectionID != sectionID {
			continue
		}
		if activeOnly && !filter.Active {
			continue
		}
		filterCopy := *filter
		result = append(result, &filterCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return orderedBefore(result[i].Order, result[j].Order,
			result[i].CreatedAt, result[j].CreatedAt, result[i].ID, result[j].ID)
	})

	return result, nil
}

// Follow operations

func (r *Repository) CreateFollow(ctx context.Context, follow *fanforge.Follow) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.fandoms[follow.FandomID]; !exists {
		return fanforge.ErrFandomNotFound
	}

	followCopy := *follow
	r.follows[followKey{follow.UserID, follow.FandomID}] = &followCopy

	return nil
}

func (r *Repository) DeleteFollow(ctx context.Context, userID, fandomID uuid.UUID) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	key := followKey{userID, fandomID}
	if _, exists := r.follows[key]; !exists {
		return fanforge.ErrFollowNotFound
	}
	delete(r.follows, key)

	return nil
}

func (r *Repository) GetFollow(ctx context.Context, userID, fandomID uuid.UUID) (*fanforge.Follow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	follow, exists := r.follows[followKey{userID, fandomID}]
	if !exists {
		return nil, fanforge.ErrFollowNotFound
	}
	followCopy := *follow
	return &followCopy, nil
}

func (r *Repository) ListFollowedFandoms(ctx context.Context, userID uuid.UUID) ([]*fanforge.Fandom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*fanforge.Fandom
	for key, follow := range r.follows {
		if key.userID != userID {
			continue
		}
		if fandom, exists := r.fandoms[follow.FandomID]; exists {
			fandomCopy := *fandom
			result = append(result, &fandomCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})

	return result, nil
}

// InTransaction runs the callback against a private clone of the store while
// blocking all other writes. The clone is swapped in only when the callback
// succeeds, so a failed multi-write (a half-applied order swap, a fandom
// without its page) never becomes visible, and a rollback cannot touch
// anything written outside the transaction.
func (r *Repository) InTransaction(ctx context.Context, fn func(fanforge.Repository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	tx := r.clone()
	if err := fn(tx); err != nil {
		return err
	}
	r.commit(tx)
	return nil
}

func (r *Repository) clone() *Repository {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx := &Repository{
		fandoms:      make(map[uuid.UUID]*fanforge.Fandom, len(r.fandoms)),
		pages:        make(map[uuid.UUID]*fanforge.Page, len(r.pages)),
		pageByFandom: make(map[uuid.UUID]uuid.UUID, len(r.pageByFandom)),
		sections:     make(map[uuid.UUID]*fanforge.Section, len(r.sections)),
		items:        make(map[uuid.UUID]*fanforge.Item, len(r.items)),
		filters:      make(map[uuid.UUID]*fanforge.Filter, len(r.filters)),
		follows:      make(map[followKey]*fanforge.Follow, len(r.follows)),
	}
	for k, v := range r.fandoms {
		c := *v
		tx.fandoms[k] = &c
	}
	for k, v := range r.pages {
		c := *v
		tx.pages[k] = &c
	}
	for k, v := range r.pageByFandom {
		tx.pageByFandom[k] = v
	}
	for k, v := range r.sections {
		c := *v
		tx.sections[k] = &c
	}
	for k, v := range r.items {
		tx.items[k] = copyItem(v)
	}
	for k, v := range r.filters {
		c := *v
		tx.filters[k] = &c
	}
	for k, v := range r.follows {
		c := *v
		tx.follows[k] = &c
	}
	return tx
}

func (r *Repository) commit(tx *Repository) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.fandoms = tx.fandoms
	r.pages = tx.pages
	r.pageByFandom = tx.pageByFandom
	r.sections = tx.sections
	r.items = tx.items
	r.filters = tx.filters
	r.follows = tx.follows
}

// orderedBefore is the sibling comparison: order, then creation time, then
// id. Equal orders should not happen; the fallbacks keep reads deterministic
// if they do.
func orderedBefore(orderA, orderB int, createdA, createdB time.Time, idA, idB uuid.UUID) bool {
	if orderA != orderB {
		return orderA < orderB
	}
	if !createdA.Equal(createdB) {
		return createdA.Before(createdB)
	}
	return idA.String() < idB.String()
}

func copyItem(item *fanforge.Item) *fanforge.Item {
	itemCopy := *item
	if item.CustomData != nil {
		itemCopy.CustomData = make(map[string]string, len(item.CustomData))
		for k, v := range item.CustomData {
			itemCopy.CustomData[k] = v
		}
	}
	return &itemCopy
}
