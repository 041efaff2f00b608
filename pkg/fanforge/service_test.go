package fanforge_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanforge/fanforge/pkg/fanforge"
	"github.com/fanforge/fanforge/pkg/fanforge/repo/memory"
)

func TestServiceCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []fanforge.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			options:     []fanforge.Option{},
			expectError: true,
		},
		{
			name: "with repository should succeed",
			options: []fanforge.Option{
				fanforge.WithRepository(memory.New()),
			},
			expectError: false,
		},
		{
			name: "with repository and event sink should succeed",
			options: []fanforge.Option{
				fanforge.WithRepository(memory.New()),
				fanforge.WithEventSink(fanforge.NewNoopEventSink()),
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := fanforge.New(tt.options...)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func setupTestService(t *testing.T) fanforge.Service {
	t.Helper()

	svc, err := fanforge.New(
		fanforge.WithRepository(memory.New()),
		fanforge.WithEventSink(fanforge.NewNoopEventSink()),
	)
	require.NoError(t, err)
	require.NotNil(t, svc)

	return svc
}

// setupFandom creates a fandom owned by a fresh creator and returns both.
func setupFandom(t *testing.T, svc fanforge.Service) (*fanforge.Fandom, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	creatorID := uuid.New()

	fandom, err := svc.CreateFandom(ctx, fanforge.CreateFandomRequest{
		CallerID:    creatorID,
		Name:        "Test Fandom",
		Description: "A test fandom",
	})
	require.NoError(t, err)

	return fandom, creatorID
}

// setupSection adds a filterable-collection section to the fandom's page.
func setupSection(t *testing.T, svc fanforge.Service, fandomID, creatorID uuid.UUID) *fanforge.Section {
	t.Helper()
	ctx := context.Background()

	comp, err := svc.GetComposition(ctx, fandomID)
	require.NoError(t, err)

	section, err := svc.CreateSection(ctx, fanforge.CreateSectionRequest{
		CallerID: creatorID,
		PageID:   comp.Page.ID,
		Type:     fanforge.SectionTypeFilterableCollection,
		Title:    "Collection",
	})
	require.NoError(t, err)

	return section
}

func strPtr(s string) *string { return &s }

func TestFandomOperations(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	t.Run("CreateFandom", func(t *testing.T) {
		creatorID := uuid.New()
		fandom, err := svc.CreateFandom(ctx, fanforge.CreateFandomRequest{
			CallerID:    creatorID,
			Name:        "Star Sagas",
			Description: "Everything star saga",
			ImageRef:    "img/star.png",
		})
		assert.NoError(t, err)
		assert.NotNil(t, fandom)
		assert.Equal(t, "Star Sagas", fandom.Name)
		assert.Equal(t, creatorID, fandom.CreatorID)
		assert.False(t, fandom.CreatedAt.IsZero())

		// The 1:1 page is created alongside, titled after the fandom.
		comp, err := svc.GetComposition(ctx, fandom.ID)
		require.NoError(t, err)
		assert.Equal(t, fandom.ID, comp.Page.FandomID)
		assert.Equal(t, "Star Sagas", comp.Page.Title)
		assert.Empty(t, comp.Sections)
	})

	t.Run("GetFandom", func(t *testing.T) {
		fandom, _ := setupFandom(t, svc)

		retrieved, err := svc.GetFandom(ctx, fandom.ID)
		assert.NoError(t, err)
		assert.Equal(t, fandom.ID, retrieved.ID)

		_, err = svc.GetFandom(ctx, uuid.New())
		assert.ErrorIs(t, err, fanforge.ErrFandomNotFound)
	})

	t.Run("UpdateFandom patches only provided fields", func(t *testing.T) {
		fandom, creatorID := setupFandom(t, svc)

		updated, err := svc.UpdateFandom(ctx, fanforge.UpdateFandomRequest{
			CallerID: creatorID,
			FandomID: fandom.ID,
			Name:     strPtr("Renamed"),
		})
		assert.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Name)
		assert.Equal(t, fandom.Description, updated.Description)
		assert.Equal(t, creatorID, updated.CreatorID)
	})

	t.Run("UpdateFandom denies non-creator", func(t *testing.T) {
		fandom, _ := setupFandom(t, svc)

		_, err := svc.UpdateFandom(ctx, fanforge.UpdateFandomRequest{
			CallerID: uuid.New(),
			FandomID: fandom.ID,
			Name:     strPtr("Hijacked"),
		})
		assert.ErrorIs(t, err, fanforge.ErrPermissionDenied)

		// Unchanged after the denied attempt.
		current, err := svc.GetFandom(ctx, fandom.ID)
		require.NoError(t, err)
		assert.Equal(t, fandom.Name, current.Name)
	})
}

func TestPageOperations(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	t.Run("UpdatePage patches hero fields", func(t *testing.T) {
		fandom, creatorID := setupFandom(t, svc)
		comp, err := svc.GetComposition(ctx, fandom.ID)
		require.NoError(t, err)

		page, err := svc.UpdatePage(ctx, fanforge.UpdatePageRequest{
			CallerID:     creatorID,
			PageID:       comp.Page.ID,
			HeroTitle:    strPtr("Welcome"),
			HeroSubtitle: strPtr("All the lore"),
		})
		assert.NoError(t, err)
		assert.Equal(t, "Welcome", page.HeroTitle)
		assert.Equal(t, "All the lore", page.HeroSubtitle)
		assert.Equal(t, comp.Page.Title, page.Title)
	})

	t.Run("UpdatePage denies non-creator", func(t *testing.T) {
		fandom, _ := setupFandom(t, svc)
		comp, err := svc.GetComposition(ctx, fandom.ID)
		require.NoError(t, err)

		_, err = svc.UpdatePage(ctx, fanforge.UpdatePageRequest{
			CallerID: uuid.New(),
			PageID:   comp.Page.ID,
			Title:    strPtr("Hijacked"),
		})
		assert.ErrorIs(t, err, fanforge.ErrPermissionDenied)
	})
}

func TestSectionOperations(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	t.Run("CreateSection appends after existing siblings", func(t *testing.T) {
		fandom, creatorID := setupFandom(t, svc)
		comp, err := svc.GetComposition(ctx, fandom.ID)
		require.NoError(t, err)

		first, err := svc.CreateSection(ctx, fanforge.CreateSectionRequest{
			CallerID: creatorID, PageID: comp.Page.ID,
			Type: fanforge.SectionTypeHero, Title: "Hero",
		})
		require.NoError(t, err)
		second, err := svc.CreateSection(ctx, fanforge.CreateSectionRequest{
			CallerID: creatorID, PageID: comp.Page.ID,
			Type: fanforge.SectionTypeGeneric, Title: "About",
		})
		require.NoError(t, err)

		assert.Equal(t, 1, first.Order)
		assert.Equal(t, 2, second.Order)
		assert.True(t, first.Active)
	})

	t.Run("CreateSection rejects unknown type", func(t *testing.T) {
		fandom, creatorID := setupFandom(t, svc)
		comp, err := svc.GetComposition(ctx, fandom.ID)
		require.NoError(t, err)

		_, err = svc.CreateSection(ctx, fanforge.CreateSectionRequest{
			CallerID: creatorID, PageID: comp.Page.ID,
			Type: "carousel", Title: "Nope",
		})
		assert.ErrorIs(t, err, fanforge.ErrInvalidSectionType)
	})

	t.Run("DeactivateSection hides it from composition and keeps its order", func(t *testing.T) {
		fandom, creatorID := setupFandom(t, svc)
		comp, err := svc.GetComposition(ctx, fandom.ID)
		require.NoError(t, err)

		a, err := svc.CreateSection(ctx, fanforge.CreateSectionRequest{
			CallerID: creatorID, PageID: comp.Page.ID,
			Type: fanforge.SectionTypeGeneric, Title: "A",
		})
		require.NoError(t, err)
		_, err = svc.CreateSection(ctx, fanforge.CreateSectionRequest{
			CallerID: creatorID, PageID: comp.Page.ID,
			Type: fanforge.SectionTypeGeneric, Title: "B",
		})
		require.NoError(t, err)

		require.NoError(t, svc.DeactivateSection(ctx, creatorID, a.ID))

		comp, err = svc.GetComposition(ctx, fandom.ID)
		require.NoError(t, err)
		require.Len(t, comp.Sections, 1)
		assert.Equal(t, "B", comp.Sections[0].Section.Title)

		// Appending after a deactivation still avoids the retired order value.
		c, err := svc.CreateSection(ctx, fanforge.CreateSectionRequest{
			CallerID: creatorID, PageID: comp.Page.ID,
			Type: fanforge.SectionTypeGeneric, Title: "C",
		})
		require.NoError(t, err)
		assert.Equal(t, 3, c.Order)
	})
}

func TestMoveSection(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	setup := func(t *testing.T) (uuid.UUID, uuid.UUID, []*fanforge.Section) {
		fandom, creatorID := setupFandom(t, svc)
		comp, err := svc.GetComposition(ctx, fandom.ID)
		require.NoError(t, err)

		sections := make([]*fanforge.Section, 0, 3)
		for _, title := range []string{"A", "B", "C"} {
			s, err := svc.CreateSection(ctx, fanforge.CreateSectionRequest{
				CallerID: creatorID, PageID: comp.Page.ID,
				Type: fanforge.SectionTypeGeneric, Title: title,
			})
			require.NoError(t, err)
			sections = append(sections, s)
		}
		return fandom.ID, creatorID, sections
	}

	sectionTitles := func(t *testing.T, fandomID uuid.UUID) []string {
		comp, err := svc.GetComposition(ctx, fandomID)
		require.NoError(t, err)
		titles := make([]string, 0, len(comp.Sections))
		for _, sv := range comp.Sections {
			titles = append(titles, sv.Section.Title)
		}
		return titles
	}

	t.Run("move up swaps with the previous sibling", func(t *testing.T) {
		fandomID, creatorID, sections := setup(t)

		moved, err := svc.MoveSection(ctx, creatorID, sections[1].ID, fanforge.MoveUp)
		assert.NoError(t, err)
		assert.Equal(t, 1, moved.Order)
		assert.Equal(t, []string{"B", "A", "C"}, sectionTitles(t, fandomID))
	})

	t.Run("move down then up restores the original order", func(t *testing.T) {
		fandomID, creatorID, sections := setup(t)

		_, err := svc.MoveSection(ctx, creatorID, sections[0].ID, fanforge.MoveDown)
		require.NoError(t, err)
		_, err = svc.MoveSection(ctx, creatorID, sections[0].ID, fanforge.MoveUp)
		require.NoError(t, err)

		assert.Equal(t, []string{"A", "B", "C"}, sectionTitles(t, fandomID))
	})

	t.Run("boundary moves are successful no-ops", func(t *testing.T) {
		fandomID, creatorID, sections := setup(t)

		moved, err := svc.MoveSection(ctx, creatorID, sections[0].ID, fanforge.MoveUp)
		assert.NoError(t, err)
		assert.Equal(t, 1, moved.Order)

		moved, err = svc.MoveSection(ctx, creatorID, sections[2].ID, fanforge.MoveDown)
		assert.NoError(t, err)
		assert.Equal(t, 3, moved.Order)

		assert.Equal(t, []string{"A", "B", "C"}, sectionTitles(t, fandomID))
	})

	t.Run("move skips inactive siblings", func(t *testing.T) {
		fandomID, creatorID, sections := setup(t)

		require.NoError(t, svc.DeactivateSection(ctx, creatorID, sections[1].ID))

		// C moves up past the hole left by B, landing next to A.
		_, err := svc.MoveSection(ctx, creatorID, sections[2].ID, fanforge.MoveUp)
		assert.NoError(t, err)
		assert.Equal(t, []string{"C", "A"}, sectionTitles(t, fandomID))
	})

	t.Run("moving a deactivated section conflicts", func(t *testing.T) {
		_, creatorID, sections := setup(t)

		require.NoError(t, svc.DeactivateSection(ctx, creatorID, sections[1].ID))

		_, err := svc.MoveSection(ctx, creatorID, sections[1].ID, fanforge.MoveUp)
		assert.ErrorIs(t, err, fanforge.ErrConflict)
	})

	t.Run("move denies non-creator", func(t *testing.T) {
		_, _, sections := setup(t)

		_, err := svc.MoveSection(ctx, uuid.New(), sections[0].ID, fanforge.MoveDown)
		assert.ErrorIs(t, err, fanforge.ErrPermissionDenied)
	})
}

func TestItemOperations(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	t.Run("CreateItem appends and copies custom data", func(t *testing.T) {
		fandom, creatorID := setupFandom(t, svc)
		section := setupSection(t, svc, fandom.ID, creatorID)

		data := map[string]string{"author": "Ann"}
		item, err := svc.CreateItem(ctx, fanforge.CreateItemRequest{
			CallerID:   creatorID,
			SectionID:  section.ID,
			ItemType:   "character",
			Title:      "Protagonist",
			CustomData: data,
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, item.Order)
		assert.True(t, item.Active)

		// Mutating the request map must not leak into the stored item.
		data["author"] = "Bob"
		comp, err := svc.GetComposition(ctx, fandom.ID)
		require.NoError(t, err)
		require.Len(t, comp.Sections, 1)
		require.Len(t, comp.Sections[0].Items, 1)
		assert.Equal(t, "Ann", comp.Sections[0].Items[0].CustomData["author"])
	})

	t.Run("CreateItem by a stranger is denied and leaves no trace", func(t *testing.T) {
		fandom, creatorID := setupFandom(t, svc)
		section := setupSection(t, svc, fandom.ID, creatorID)

		_, err := svc.CreateItem(ctx, fanforge.CreateItemRequest{
			CallerID:  uuid.New(),
			SectionID: section.ID,
			ItemType:  "entry",
			Title:     "Intruder",
		})
		assert.ErrorIs(t, err, fanforge.ErrPermissionDenied)

		comp, err := svc.GetComposition(ctx, fandom.ID)
		require.NoError(t, err)
		require.Len(t, comp.Sections, 1)
		assert.Empty(t, comp.Sections[0].Items)
	})

	t.Run("MoveItem reorders within the section", func(t *testing.T) {
		fandom, creatorID := setupFandom(t, svc)
		section := setupSection(t, svc, fandom.ID, creatorID)

		var items []*fanforge.Item
		for _, title := range []string{"One", "Two", "Three"} {
			item, err := svc.CreateItem(ctx, fanforge.CreateItemRequest{
				CallerID: creatorID, SectionID: section.ID,
				ItemType: "entry", Title: title,
			})
			require.NoError(t, err)
			items = append(items, item)
		}

		moved, err := svc.MoveItem(ctx, creatorID, items[2].ID, fanforge.MoveUp)
		assert.NoError(t, err)
		assert.Equal(t, 2, moved.Order)

		comp, err := svc.GetComposition(ctx, fandom.ID)
		require.NoError(t, err)
		got := make([]string, 0, 3)
		for _, item := range comp.Sections[0].Items {
			got = append(got, item.Title)
		}
		assert.Equal(t, []string{"One", "Three", "Two"}, got)
	})

	t.Run("DeactivateItem hides it from composition", func(t *testing.T) {
		fandom, creatorID := setupFandom(t, svc)
		section := setupSection(t, svc, fandom.ID, creatorID)

		item, err := svc.CreateItem(ctx, fanforge.CreateItemRequest{
			CallerID: creatorID, SectionID: section.ID,
			ItemType: "entry", Title: "Gone soon",
		})
		require.NoError(t, err)

		require.NoError(t, svc.DeactivateItem(ctx, creatorID, item.ID))

		comp, err := svc.GetComposition(ctx, fandom.ID)
		require.NoError(t, err)
		assert.Empty(t, comp.Sections[0].Items)
	})

	t.Run("PatchItemCustomData overlays, ReplaceItemCustomData swaps", func(t *testing.T) {
		fandom, creatorID := setupFandom(t, svc)
		section := setupSection(t, svc, fandom.ID, creatorID)

		item, err := svc.CreateItem(ctx, fanforge.CreateItemRequest{
			CallerID: creatorID, SectionID: section.ID,
			ItemType:   "entry",
			Title:      "Detailed",
			CustomData: map[string]string{"a": "1", "b": "2"},
		})
		require.NoError(t, err)

		patched, err := svc.PatchItemCustomData(ctx, creatorID, item.ID, map[string]string{"b": "20", "c": "3"})
		assert.NoError(t, err)
		assert.Equal(t, map[string]string{"a": "1", "b": "20", "c": "3"}, patched.CustomData)

		replaced, err := svc.ReplaceItemCustomData(ctx, creatorID, item.ID, map[string]string{"d": "4"})
		assert.NoError(t, err)
		assert.Equal(t, map[string]string{"d": "4"}, replaced.CustomData)
	})
}

func TestComposition(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	t.Run("assembles the full tree in order", func(t *testing.T) {
		fandom, creatorID := setupFandom(t, svc)
		section := setupSection(t, svc, fandom.ID, creatorID)

		_, err := svc.CreateItem(ctx, fanforge.CreateItemRequest{
			CallerID: creatorID, SectionID: section.ID,
			ItemType: "entry", Title: "First",
		})
		require.NoError(t, err)

		filter, err := svc.CreateFilter(ctx, fanforge.CreateFilterRequest{
			CallerID: creatorID, SectionID: section.ID,
			Label: "Heroes", Value: "heroes",
		})
		require.NoError(t, err)
		_, err = svc.ToggleFilterActive(ctx, creatorID, filter.ID)
		require.NoError(t, err)

		comp, err := svc.GetComposition(ctx, fandom.ID)
		assert.NoError(t, err)
		assert.Equal(t, fandom.ID, comp.Fandom.ID)
		require.Len(t, comp.Sections, 1)
		assert.Len(t, comp.Sections[0].Items, 1)
		assert.Len(t, comp.Sections[0].Filters, 1)
	})

	t.Run("requires no caller and fails on unknown fandom", func(t *testing.T) {
		_, err := svc.GetComposition(ctx, uuid.New())
		assert.ErrorIs(t, err, fanforge.ErrFandomNotFound)
	})
}

func TestFollowOperations(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	t.Run("follow and list", func(t *testing.T) {
		fandom, _ := setupFandom(t, svc)
		userID := uuid.New()

		require.NoError(t, svc.FollowFandom(ctx, userID, fandom.ID))

		followed, err := svc.ListFollowedFandoms(ctx, userID)
		assert.NoError(t, err)
		require.Len(t, followed, 1)
		assert.Equal(t, fandom.ID, followed[0].ID)
	})

	t.Run("follow is idempotent", func(t *testing.T) {
		fandom, _ := setupFandom(t, svc)
		userID := uuid.New()

		require.NoError(t, svc.FollowFandom(ctx, userID, fandom.ID))
		require.NoError(t, svc.FollowFandom(ctx, userID, fandom.ID))

		followed, err := svc.ListFollowedFandoms(ctx, userID)
		assert.NoError(t, err)
		assert.Len(t, followed, 1)
	})

	t.Run("unfollow is idempotent", func(t *testing.T) {
		fandom, _ := setupFandom(t, svc)
		userID := uuid.New()

		require.NoError(t, svc.FollowFandom(ctx, userID, fandom.ID))
		require.NoError(t, svc.UnfollowFandom(ctx, userID, fandom.ID))
		require.NoError(t, svc.UnfollowFandom(ctx, userID, fandom.ID))

		followed, err := svc.ListFollowedFandoms(ctx, userID)
		assert.NoError(t, err)
		assert.Empty(t, followed)
	})

	t.Run("following an unknown fandom fails", func(t *testing.T) {
		err := svc.FollowFandom(ctx, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, fanforge.ErrFandomNotFound)
	})
}
