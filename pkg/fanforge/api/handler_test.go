package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanforge/fanforge/pkg/fanforge"
	"github.com/fanforge/fanforge/pkg/fanforge/api"
	"github.com/fanforge/fanforge/pkg/fanforge/repo/memory"
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	svc, err := fanforge.New(fanforge.WithRepository(memory.New()))
	require.NoError(t, err)

	handler := api.NewHandler(svc, nil, true)
	server := httptest.NewServer(handler.Routes())
	t.Cleanup(server.Close)

	return server
}

// doJSON issues a request with an optional caller identity header and decodes
// the JSON response into out when it is non-nil.
func doJSON(t *testing.T, server *httptest.Server, method, path string, callerID uuid.UUID, body any, out any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if callerID != uuid.Nil {
		req.Header.Set("X-Caller-ID", callerID.String())
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func createTestFandom(t *testing.T, server *httptest.Server, callerID uuid.UUID) *fanforge.Fandom {
	t.Helper()

	var fandom fanforge.Fandom
	resp := doJSON(t, server, http.MethodPost, "/fandoms", callerID,
		map[string]string{"name": "Test Fandom"}, &fandom)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	return &fandom
}

func TestCreateFandomEndpoint(t *testing.T) {
	server := setupTestServer(t)
	callerID := uuid.New()

	t.Run("creates and returns the fandom", func(t *testing.T) {
		var fandom fanforge.Fandom
		resp := doJSON(t, server, http.MethodPost, "/fandoms", callerID,
			map[string]string{"name": "Star Sagas", "description": "lore"}, &fandom)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "Star Sagas", fandom.Name)
		assert.Equal(t, callerID, fandom.CreatorID)
	})

	t.Run("requires a caller identity", func(t *testing.T) {
		resp := doJSON(t, server, http.MethodPost, "/fandoms", uuid.Nil,
			map[string]string{"name": "Anonymous"}, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("requires a name", func(t *testing.T) {
		resp := doJSON(t, server, http.MethodPost, "/fandoms", callerID,
			map[string]string{}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects a malformed caller header", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, server.URL+"/fandoms", bytes.NewBufferString("{}"))
		require.NoError(t, err)
		req.Header.Set("X-Caller-ID", "not-a-uuid")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestCompositionEndpoint(t *testing.T) {
	server := setupTestServer(t)
	callerID := uuid.New()
	fandom := createTestFandom(t, server, callerID)

	t.Run("composition is public", func(t *testing.T) {
		var comp fanforge.Composition
		resp := doJSON(t, server, http.MethodGet,
			fmt.Sprintf("/fandoms/%s/composition", fandom.ID), uuid.Nil, nil, &comp)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, fandom.ID, comp.Fandom.ID)
		assert.Equal(t, "Test Fandom", comp.Page.Title)
		assert.Empty(t, comp.Sections)
	})

	t.Run("unknown fandom is 404", func(t *testing.T) {
		resp := doJSON(t, server, http.MethodGet,
			fmt.Sprintf("/fandoms/%s/composition", uuid.New()), uuid.Nil, nil, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("malformed id is 400", func(t *testing.T) {
		resp := doJSON(t, server, http.MethodGet, "/fandoms/not-a-uuid/composition", uuid.Nil, nil, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestSectionEndpoints(t *testing.T) {
	server := setupTestServer(t)
	callerID := uuid.New()
	fandom := createTestFandom(t, server, callerID)

	var comp fanforge.Composition
	resp := doJSON(t, server, http.MethodGet,
		fmt.Sprintf("/fandoms/%s/composition", fandom.ID), uuid.Nil, nil, &comp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pageID := comp.Page.ID

	var first, second fanforge.Section

	t.Run("create sections", func(t *testing.T) {
		resp := doJSON(t, server, http.MethodPost,
			fmt.Sprintf("/pages/%s/sections", pageID), callerID,
			map[string]string{"type": "hero", "title": "Hero"}, &first)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, 1, first.Order)

		resp = doJSON(t, server, http.MethodPost,
			fmt.Sprintf("/pages/%s/sections", pageID), callerID,
			map[string]string{"type": "generic", "title": "About"}, &second)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, 2, second.Order)
	})

	t.Run("invalid section type is 422", func(t *testing.T) {
		resp := doJSON(t, server, http.MethodPost,
			fmt.Sprintf("/pages/%s/sections", pageID), callerID,
			map[string]string{"type": "carousel", "title": "Nope"}, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("non-creator mutation is 403", func(t *testing.T) {
		resp := doJSON(t, server, http.MethodPost,
			fmt.Sprintf("/pages/%s/sections", pageID), uuid.New(),
			map[string]string{"type": "generic", "title": "Hijack"}, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("move swaps neighbors", func(t *testing.T) {
		var moved fanforge.Section
		resp := doJSON(t, server, http.MethodPost,
			fmt.Sprintf("/sections/%s/move", second.ID), callerID,
			map[string]string{"direction": "up"}, &moved)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 1, moved.Order)
	})

	t.Run("bad direction is 400", func(t *testing.T) {
		resp := doJSON(t, server, http.MethodPost,
			fmt.Sprintf("/sections/%s/move", second.ID), callerID,
			map[string]string{"direction": "sideways"}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("deactivate returns 204 and hides the section", func(t *testing.T) {
		resp := doJSON(t, server, http.MethodDelete,
			fmt.Sprintf("/sections/%s", first.ID), callerID, nil, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		var comp fanforge.Composition
		resp = doJSON(t, server, http.MethodGet,
			fmt.Sprintf("/fandoms/%s/composition", fandom.ID), uuid.Nil, nil, &comp)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, comp.Sections, 1)
		assert.Equal(t, second.ID, comp.Sections[0].Section.ID)
	})
}

func TestFilterEndpoints(t *testing.T) {
	server := setupTestServer(t)
	callerID := uuid.New()
	fandom := createTestFandom(t, server, callerID)

	var comp fanforge.Composition
	resp := doJSON(t, server, http.MethodGet,
		fmt.Sprintf("/fandoms/%s/composition", fandom.ID), uuid.Nil, nil, &comp)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var section fanforge.Section
	resp = doJSON(t, server, http.MethodPost,
		fmt.Sprintf("/pages/%s/sections", comp.Page.ID), callerID,
		map[string]string{"type": "filterable-collection", "title": "Collection"}, &section)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var filter fanforge.Filter

	t.Run("create starts inactive", func(t *testing.T) {
		resp := doJSON(t, server, http.MethodPost,
			fmt.Sprintf("/sections/%s/filters", section.ID), callerID,
			map[string]string{"label": "Heroes", "value": "heroes"}, &filter)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.False(t, filter.Active)
	})

	t.Run("reserved value is 422", func(t *testing.T) {
		resp := doJSON(t, server, http.MethodPost,
			fmt.Sprintf("/sections/%s/filters", section.ID), callerID,
			map[string]string{"label": "All", "value": "all"}, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("duplicate value is 422", func(t *testing.T) {
		resp := doJSON(t, server, http.MethodPost,
			fmt.Sprintf("/sections/%s/filters", section.ID), callerID,
			map[string]string{"label": "Heroes 2", "value": "heroes"}, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("toggle activates", func(t *testing.T) {
		var toggled fanforge.Filter
		resp := doJSON(t, server, http.MethodPost,
			fmt.Sprintf("/filters/%s/toggle", filter.ID), callerID, nil, &toggled)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, toggled.Active)
	})

	t.Run("membership toggle tags the item", func(t *testing.T) {
		var item fanforge.Item
		resp := doJSON(t, server, http.MethodPost,
			fmt.Sprintf("/sections/%s/items", section.ID), callerID,
			map[string]any{"item_type": "character", "title": "Lead"}, &item)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var tagged fanforge.Item
		resp = doJSON(t, server, http.MethodPost,
			fmt.Sprintf("/items/%s/memberships", item.ID), callerID,
			map[string]string{"value": "heroes"}, &tagged)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "heroes", tagged.CustomData["categories"])
	})

	t.Run("delete filter returns 204", func(t *testing.T) {
		resp := doJSON(t, server, http.MethodDelete,
			fmt.Sprintf("/filters/%s", filter.ID), callerID, nil, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = doJSON(t, server, http.MethodDelete,
			fmt.Sprintf("/filters/%s", filter.ID), callerID, nil, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestFollowEndpoints(t *testing.T) {
	server := setupTestServer(t)
	creatorID := uuid.New()
	fandom := createTestFandom(t, server, creatorID)
	userID := uuid.New()

	resp := doJSON(t, server, http.MethodPost,
		fmt.Sprintf("/fandoms/%s/follow", fandom.ID), userID, nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	var followed []*fanforge.Fandom
	resp = doJSON(t, server, http.MethodGet, "/fandoms/followed", userID, nil, &followed)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, followed, 1)
	assert.Equal(t, fandom.ID, followed[0].ID)

	resp = doJSON(t, server, http.MethodDelete,
		fmt.Sprintf("/fandoms/%s/follow", fandom.ID), userID, nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, server, http.MethodGet, "/fandoms/followed", userID, nil, &followed)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, followed)
}
