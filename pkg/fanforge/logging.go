package fanforge

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LoggingEventSink records every content mutation through slog. It is the
// default sink for the configured server.
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates an event sink logging with slog.Default.
func NewLoggingEventSink() EventSink {
	return &LoggingEventSink{logger: slog.Default()}
}

func (s *LoggingEventSink) FandomCreated(ctx context.Context, fandom *Fandom, page *Page) error {
	s.logger.InfoContext(ctx, "fandom created",
		"fandom_id", fandom.ID, "page_id", page.ID, "creator_id", fandom.CreatorID)
	return nil
}

func (s *LoggingEventSink) PageUpdated(ctx context.Context, page *Page) error {
	s.logger.InfoContext(ctx, "page updated", "page_id", page.ID)
	return nil
}

func (s *LoggingEventSink) SectionChanged(ctx context.Context, section *Section) error {
	s.logger.InfoContext(ctx, "section changed",
		"section_id", section.ID, "page_id", section.PageID, "order", section.Order, "active", section.Active)
	return nil
}

func (s *LoggingEventSink) ItemChanged(ctx context.Context, item *Item) error {
	s.logger.InfoContext(ctx, "item changed",
		"item_id", item.ID, "section_id", item.SectionID, "order", item.Order, "active", item.Active)
	return nil
}

func (s *LoggingEventSink) FilterChanged(ctx context.Context, filter *Filter) error {
	s.logger.InfoContext(ctx, "filter changed",
		"filter_id", filter.ID, "section_id", filter.SectionID, "value", filter.Value, "active", filter.Active)
	return nil
}

func (s *LoggingEventSink) FilterDeleted(ctx context.Context, filterID uuid.UUID) error {
	s.logger.InfoContext(ctx, "filter deleted", "filter_id", filterID)
	return nil
}
