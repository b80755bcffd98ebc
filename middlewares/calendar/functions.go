package calendar

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"formroute/internal/google"
)

// DryRun logs events instead of creating them.
type DryRun struct {
	Log *zap.Logger
	n   atomic.Int64
}

func (d *DryRun) CreateEvent(_ context.Context, ev google.Event) (string, error) {
	id := fmt.Sprintf("dryrun-%d", d.n.Add(1))
	if d.Log != nil {
		d.Log.Info("[DRY RUN] create_calendar_event",
			zap.String("id", id),
			zap.String("title", ev.Title),
			zap.String("start", ev.Start.Format(time.RFC3339)),
			zap.String("end", ev.End.Format(time.RFC3339)),
		)
	}
	return id, nil
}
