// Package calendar turns schedule submissions into calendar events.
package calendar

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"formroute/internal/diaglog"
	"formroute/internal/google"
	mw "formroute/internal/middleware"
	"formroute/internal/schedule"
)

// Creator writes one event and returns its id.
type Creator interface {
	CreateEvent(ctx context.Context, ev google.Event) (string, error)
}

// Events materializes every valid candidate of a schedule submission.
type Events struct {
	creator Creator
	diag    *diaglog.Logger
	log     *zap.Logger
}

func New(creator Creator, diag *diaglog.Logger, log *zap.Logger) *Events {
	if log == nil {
		log = zap.NewNop()
	}
	return &Events{creator: creator, diag: diag, log: log}
}

func (*Events) ID() string    { return "calendar_events" }
func (*Events) Priority() int { return 80 }

func (*Events) ShouldLoad(_ context.Context, e *mw.Event) bool {
	return e != nil && e.Name == mw.EventScheduleRequest
}

func (m *Events) OnEvent(ctx context.Context, e *mw.Event) (mw.Decision, error) {
	if e.Submission == nil {
		return mw.Decision{}, nil
	}
	batch, err := schedule.Plan(e.Submission.Values)
	if errors.Is(err, schedule.ErrIncompleteResponse) {
		m.diag.Logf(ctx, "Error: %v; cannot proceed", err)
		return mw.Decision{Cancel: true, Reason: "incomplete response"}, nil
	}
	if err != nil {
		return mw.Decision{}, err
	}

	m.diag.Log(ctx, "Starting event creation")
	m.diag.Logf(ctx, "Submitted by: %s", batch.Submitter)
	m.diag.Logf(ctx, "Event title: %s", batch.Title)

	requests := make(map[int]schedule.EventRequest, len(batch.Requests))
	for _, r := range batch.Requests {
		requests[r.Candidate] = r
	}
	skips := make(map[int]schedule.Skip, len(batch.Skipped))
	for _, s := range batch.Skipped {
		skips[s.Candidate.Index] = s
	}

	var dec mw.Decision
	for _, c := range batch.Candidates {
		m.diag.Logf(ctx, "Set %d: raw date %q, start %q, end %q", c.Index, c.Date, c.Start, c.End)
		if s, ok := skips[c.Index]; ok {
			dec.Skipped++
			if s.Err != nil {
				m.diag.Logf(ctx, "Set %d skipped: %s: %v", c.Index, s.Reason, s.Err)
			} else {
				m.diag.Logf(ctx, "Set %d skipped: %s", c.Index, s.Reason)
			}
			continue
		}

		r := requests[c.Index]
		m.diag.Logf(ctx, "Set %d: %s to %s", c.Index, r.Start.Format("2006-01-02T15:04:05"), r.End.Format("2006-01-02T15:04:05"))
		id, err := m.creator.CreateEvent(ctx, google.Event{
			Title:       r.Title,
			Description: r.Description,
			Start:       r.Start,
			End:         r.End,
		})
		if err != nil {
			dec.Failed++
			m.diag.Logf(ctx, "Set %d failed: %v", c.Index, err)
			m.log.Warn("calendar event not created", zap.Int("set", c.Index), zap.Error(err))
			continue
		}
		dec.Dispatched++
		m.diag.Logf(ctx, "Set %d: created event %q (%s)", c.Index, r.Title, id)
	}

	m.diag.Log(ctx, "Event creation completed")
	dec.Reason = "calendar_events"
	return dec, nil
}
