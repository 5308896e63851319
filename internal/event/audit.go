package event

import (
	"context"
	"log/slog"
)

// AuditLogger writes every published event to the structured log.
type AuditLogger struct {
	bus    Bus
	logger *slog.Logger
}

func NewAuditLogger(bus Bus, logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{bus: bus, logger: logger}
}

// Run blocks until ctx is cancelled.
func (a *AuditLogger) Run(ctx context.Context) {
	events, unsubscribe := a.bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			level := slog.LevelInfo
			if e.Type == TypeSessionLoginFailed || e.Type == TypeSessionExpired {
				level = slog.LevelWarn
			}
			a.logger.LogAttrs(ctx, level, "audit",
				slog.String("event_id", e.ID),
				slog.String("domain", e.Type.Domain()),
				slog.String("type", string(e.Type)),
				slog.String("actor", e.ActorID),
				slog.String("timestamp", e.Timestamp),
			)
		}
	}
}
