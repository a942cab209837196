package service

import (
	"context"
	"log/slog"
	"math"

	"quorum/internal/middleware"
	"quorum/internal/observability"
	"quorum/internal/repository"
)

// awardKarma applies a karma delta to a user and records it. Failures are
// logged, not surfaced; the content mutation that earned the karma already
// happened and must not be rolled back by a reward hiccup.
func awardKarma(ctx context.Context, users repository.UserRepository, userID uint, delta int, event string) {
	if err := users.AddKarma(ctx, userID, delta); err != nil {
		middleware.Logger.WarnContext(ctx, "karma award failed",
			slog.Uint64("user_id", uint64(userID)),
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
		return
	}
	// Counters only go up; the event label tells penalties apart.
	observability.KarmaAwarded.WithLabelValues(event).Add(math.Abs(float64(delta)))
}
