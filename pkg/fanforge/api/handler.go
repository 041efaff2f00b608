package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/fanforge/fanforge/pkg/fanforge"
)

// Handler exposes the fanforge service over HTTP using chi
type Handler struct {
	service   fanforge.Service
	tokenAuth *jwtauth.JWTAuth
	devHeader bool
}

// NewHandler creates a new HTTP handler. tokenAuth may be nil; devHeader
// enables the X-Caller-ID fallback for development setups without an
// identity provider.
func NewHandler(service fanforge.Service, tokenAuth *jwtauth.JWTAuth, devHeader bool) *Handler {
	return &Handler{service: service, tokenAuth: tokenAuth, devHeader: devHeader}
}

// Routes returns the routes for the fanforge API
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	if h.tokenAuth != nil {
		r.Use(jwtauth.Verifier(h.tokenAuth))
	}
	r.Use(CallerIdentity(h.tokenAuth, h.devHeader))

	r.Route("/fandoms", func(r chi.Router) {
		r.Post("/", h.CreateFandom)
		r.Get("/", h.ListFandoms)
		r.Get("/followed", h.ListFollowedFandoms)
		r.Get("/{id}", h.GetFandom)
		r.Put("/{id}", h.UpdateFandom)
		r.Get("/{id}/composition", h.GetComposition)
		r.Post("/{id}/follow", h.FollowFandom)
		r.Delete("/{id}/follow", h.UnfollowFandom)
	})

	r.Route("/pages", func(r chi.Router) {
		r.Put("/{id}", h.UpdatePage)
		r.Post("/{id}/sections", h.CreateSection)
	})

	r.Route("/sections", func(r chi.Router) {
		r.Put("/{id}", h.UpdateSection)
		r.Post("/{id}/move", h.MoveSection)
		r.Delete("/{id}", h.DeactivateSection)
		r.Post("/{id}/items", h.CreateItem)
		r.Post("/{id}/filters", h.CreateFilter)
	})

	r.Route("/items", func(r chi.Router) {
		r.Put("/{id}", h.UpdateItem)
		r.Post("/{id}/move", h.MoveItem)
		r.Delete("/{id}", h.DeactivateItem)
		r.Patch("/{id}/custom-data", h.PatchItemCustomData)
		r.Put("/{id}/custom-data", h.ReplaceItemCustomData)
		r.Post("/{id}/memberships", h.ToggleItemFilterMembership)
	})

	r.Route("/filters", func(r chi.Router) {
		r.Put("/{id}", h.UpdateFilter)
		r.Post("/{id}/move", h.MoveFilter)
		r.Post("/{id}/toggle", h.ToggleFilterActive)
		r.Delete("/{id}", h.DeleteFilter)
	})

	return r
}

// Request bodies. Pointer fields mean "leave unchanged".

type createFandomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageRef    string `json:"image_ref"`
}

type updateFandomRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ImageRef    *string `json:"image_ref"`
}

type updatePageRequest struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	HeroTitle       *string `json:"hero_title"`
	HeroSubtitle    *string `json:"hero_subtitle"`
	HeroButtonLabel *string `json:"hero_button_label"`
	BackgroundColor *string `json:"background_color"`
}

type createSectionRequest struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

type updateSectionRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Content     *string `json:"content"`
}

type createItemRequest struct {
	ItemType    string            `json:"item_type"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	ImageRef    string            `json:"image_ref"`
	Color       string            `json:"color"`
	CustomData  map[string]string `json:"custom_data"`
}

type updateItemRequest struct {
	ItemType    *string `json:"item_type"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	ImageRef    *string `json:"image_ref"`
	Color       *string `json:"color"`
}

type createFilterRequest struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Color string `json:"color"`
}

type updateFilterRequest struct {
	Label *string `json:"label"`
	Value *string `json:"value"`
	Color *string `json:"color"`
}

type moveRequest struct {
	Direction string `json:"direction"`
}

type membershipRequest struct {
	Value string `json:"value"`
}

// Handlers

func (h *Handler) CreateFandom(w http.ResponseWriter, r *http.Request) {
	callerID, ok := CallerID(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req createFandomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	fandom, err := h.service.CreateFandom(r.Context(), fanforge.CreateFandomRequest{
		CallerID:    callerID,
		Name:        req.Name,
		Description: req.Description,
		ImageRef:    req.ImageRef,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, fandom)
}

func (h *Handler) GetFandom(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	fandom, err := h.service.GetFandom(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, fandom)
}

func (h *Handler) ListFandoms(w http.ResponseWriter, r *http.Request) {
	fandoms, err := h.service.ListFandoms(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, fandoms)
}

func (h *Handler) UpdateFandom(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req updateFandomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fandom, err := h.service.UpdateFandom(r.Context(), fanforge.UpdateFandomRequest{
		CallerID:    callerID,
		FandomID:    id,
		Name:        req.Name,
		Description: req.Description,
		ImageRef:    req.ImageRef,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, fandom)
}

func (h *Handler) GetComposition(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	composition, err := h.service.GetComposition(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, composition)
}

func (h *Handler) FollowFandom(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.FollowFandom(r.Context(), callerID, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.NoContent(w, r)
}

func (h *Handler) UnfollowFandom(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.UnfollowFandom(r.Context(), callerID, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.NoContent(w, r)
}

func (h *Handler) ListFollowedFandoms(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}

	fandoms, err := h.service.ListFollowedFandoms(r.Context(), callerID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, fandoms)
}

func (h *Handler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req updatePageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	page, err := h.service.UpdatePage(r.Context(), fanforge.UpdatePageRequest{
		CallerID:        callerID,
		PageID:          id,
		Title:           req.Title,
		Description:     req.Description,
		HeroTitle:       req.HeroTitle,
		HeroSubtitle:    req.HeroSubtitle,
		HeroButtonLabel: req.HeroButtonLabel,
		BackgroundColor: req.BackgroundColor,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, page)
}

func (h *Handler) CreateSection(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	pageID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req createSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	section, err := h.service.CreateSection(r.Context(), fanforge.CreateSectionRequest{
		CallerID:    callerID,
		PageID:      pageID,
		Type:        fanforge.SectionType(req.Type),
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, section)
}

func (h *Handler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req updateSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	section, err := h.service.UpdateSection(r.Context(), fanforge.UpdateSectionRequest{
		CallerID:    callerID,
		SectionID:   id,
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, section)
}

func (h *Handler) MoveSection(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	direction, ok := h.direction(w, r)
	if !ok {
		return
	}

	section, err := h.service.MoveSection(r.Context(), callerID, id, direction)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, section)
}

func (h *Handler) DeactivateSection(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeactivateSection(r.Context(), callerID, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.NoContent(w, r)
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	sectionID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.service.CreateItem(r.Context(), fanforge.CreateItemRequest{
		CallerID:    callerID,
		SectionID:   sectionID,
		ItemType:    req.ItemType,
		Title:       req.Title,
		Description: req.Description,
		ImageRef:    req.ImageRef,
		Color:       req.Color,
		CustomData:  req.CustomData,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, item)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.service.UpdateItem(r.Context(), fanforge.UpdateItemRequest{
		CallerID:    callerID,
		ItemID:      id,
		ItemType:    req.ItemType,
		Title:       req.Title,
		Description: req.Description,
		ImageRef:    req.ImageRef,
		Color:       req.Color,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, item)
}

func (h *Handler) MoveItem(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	direction, ok := h.direction(w, r)
	if !ok {
		return
	}

	item, err := h.service.MoveItem(r.Context(), callerID, id, direction)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, item)
}

func (h *Handler) DeactivateItem(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeactivateItem(r.Context(), callerID, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.NoContent(w, r)
}

func (h *Handler) PatchItemCustomData(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var partial map[string]string
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.service.PatchItemCustomData(r.Context(), callerID, id, partial)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, item)
}

func (h *Handler) ReplaceItemCustomData(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var full map[string]string
	if err := json.NewDecoder(r.Body).Decode(&full); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.service.ReplaceItemCustomData(r.Context(), callerID, id, full)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, item)
}

func (h *Handler) ToggleItemFilterMembership(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req membershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Value == "" {
		http.Error(w, "value is required", http.StatusBadRequest)
		return
	}

	item, err := h.service.ToggleItemFilterMembership(r.Context(), callerID, id, req.Value)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, item)
}

func (h *Handler) CreateFilter(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	sectionID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req createFilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	filter, err := h.service.CreateFilter(r.Context(), fanforge.CreateFilterRequest{
		CallerID:  callerID,
		SectionID: sectionID,
		Label:     req.Label,
		Value:     req.Value,
		Color:     req.Color,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, filter)
}

func (h *Handler) UpdateFilter(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req updateFilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	filter, err := h.service.UpdateFilter(r.Context(), fanforge.UpdateFilterRequest{
		CallerID: callerID,
		FilterID: id,
		Label:    req.Label,
		Value:    req.Value,
		Color:    req.Color,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, filter)
}

func (h *Handler) MoveFilter(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	direction, ok := h.direction(w, r)
	if !ok {
		return
	}

	filter, err := h.service.MoveFilter(r.Context(), callerID, id, direction)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, filter)
}

func (h *Handler) ToggleFilterActive(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	filter, err := h.service.ToggleFilterActive(r.Context(), callerID, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, filter)
}

func (h *Handler) DeleteFilter(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteFilter(r.Context(), callerID, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.NoContent(w, r)
}

// Helpers

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	callerID, ok := CallerID(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	return callerID, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		slog.Error("invalid id in path", "id", raw, "error", err)
		http.Error(w, "invalid id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) direction(w http.ResponseWriter, r *http.Request) (fanforge.MoveDirection, bool) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	direction := fanforge.MoveDirection(req.Direction)
	if !direction.IsValid() {
		http.Error(w, "direction must be 'up' or 'down'", http.StatusBadRequest)
		return "", false
	}
	return direction, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case fanforge.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, fanforge.ErrPermissionDenied):
		http.Error(w, "permission denied", http.StatusForbidden)
	case fanforge.IsValidation(err):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, fanforge.ErrConflict):
		http.Error(w, "conflict, retry", http.StatusConflict)
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
