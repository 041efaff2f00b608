package fanforge

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Event notification helpers. Sink errors are logged and never fail the
// originating operation.

func (s *service) notifyFandomCreated(ctx context.Context, fandom *Fandom, page *Page) {
	if s.events == nil {
		return
	}
	if err := s.events.FandomCreated(ctx, fandom, page); err != nil {
		slog.Error("event sink failed", "event", "fandom_created", "fandom_id", fandom.ID, "error", err)
	}
}

func (s *service) notifyPageUpdated(ctx context.Context, page *Page) {
	if s.events == nil {
		return
	}
	if err := s.events.PageUpdated(ctx, page); err != nil {
		slog.Error("event sink failed", "event", "page_updated", "page_id", page.ID, "error", err)
	}
}

func (s *service) notifySectionChanged(ctx context.Context, section *Section) {
	if s.events == nil {
		return
	}
	if err := s.events.SectionChanged(ctx, section); err != nil {
		slog.Error("event sink failed", "event", "section_changed", "section_id", section.ID, "error", err)
	}
}

func (s *service) notifyItemChanged(ctx context.Context, item *Item) {
	if s.events == nil {
		return
	}
	if err := s.events.ItemChanged(ctx, item); err != nil {
		slog.Error("event sink failed", "event", "item_changed", "item_id", item.ID, "error", err)
	}
}

func (s *service) notifyFilterChanged(ctx context.Context, filter *Filter) {
	if s.events == nil {
		return
	}
	if err := s.events.FilterChanged(ctx, filter); err != nil {
		slog.Error("event sink failed", "event", "filter_changed", "filter_id", filter.ID, "error", err)
	}
}

func (s *service) notifyFilterDeleted(ctx context.Context, filterID uuid.UUID) {
	if s.events == nil {
		return
	}
	if err := s.events.FilterDeleted(ctx, filterID); err != nil {
		slog.Error("event sink failed", "event", "filter_deleted", "filter_id", filterID, "error", err)
	}
}
