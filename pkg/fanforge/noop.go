package fanforge

import (
	"context"

	"github.com/google/uuid"
)

// NoopEventSink is an event sink that does nothing
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-op event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

func (s *NoopEventSink) FandomCreated(ctx context.Context, fandom *Fandom, page *Page) error {
	return nil
}

func (s *NoopEventSink) PageUpdated(ctx context.Context, page *Page) error {
	return nil
}

func (s *NoopEventSink) SectionChanged(ctx context.Context, section *Section) error {
	return nil
}

func (s *NoopEventSink) ItemChanged(ctx context.Context, item *Item) error {
	return nil
}

func (s *NoopEventSink) FilterChanged(ctx context.Context, filter *Filter) error {
	return nil
}

func (s *NoopEventSink) FilterDeleted(ctx context.Context, filterID uuid.UUID) error {
	return nil
}
