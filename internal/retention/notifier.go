package retention

import (
	"context"
	"log/slog"

	"casevault-platform/internal/resource"
)

// LogNotifier surfaces review and notify outcomes on the structured log.
// It stands in until a delivery channel (mail, webhook) is attached.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) NotifyRetention(ctx context.Context, res resource.Classified, p Policy) error {
	log := n.Log
	if log == nil {
		log = slog.Default()
	}
	log.InfoContext(ctx, "retention notice",
		"resource_type", res.Type,
		"resource_id", res.ID,
		"firm_id", res.FirmID,
		"policy_id", p.ID,
		"action", p.Action,
	)
	return nil
}
