// Package command contains write operations (CQRS - Commands).
//
// Every handler validates its command, talks to repositories through
// domain ports and announces the change on the event bus. Publishing is
// best effort: a failed publish is logged and never fails the write.
package command

import (
	"context"
	"log/slog"

	"github.com/eldoah/promo-hub/internal/domain/shared"
)

func publish(ctx context.Context, p shared.EventPublisher, logger *slog.Logger, event shared.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		logger.Warn("failed to publish event",
			"event_type", event.EventType(),
			"aggregate_id", event.AggregateID(),
			"error", err,
		)
	}
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
