// Package guard rejects invocations that carry no form payload before any
// field is read.
package guard

import (
	"context"

	"formroute/internal/diaglog"
	mw "formroute/internal/middleware"
)

// Guard cancels the chain when the trigger payload is missing.
type Guard struct {
	diag *diaglog.Logger
}

func New(diag *diaglog.Logger) Guard {
	return Guard{diag: diag}
}

func (Guard) ID() string    { return "payload_guard" }
func (Guard) Priority() int { return 100 }

func (g Guard) OnEvent(ctx context.Context, e *mw.Event) (mw.Decision, error) {
	if reason := missing(e); reason != "" {
		g.diag.Log(ctx, "Error: "+reason+"; nothing to process")
		return mw.Decision{Cancel: true, Reason: reason}, nil
	}
	g.diag.Log(ctx, "Trigger received, starting processing")
	return mw.Decision{}, nil
}

func missing(e *mw.Event) string {
	if e == nil || e.Submission == nil {
		return "no form submission received"
	}
	switch e.Name {
	case mw.EventScheduleRequest:
		if e.Submission.Values == nil {
			return "submission has no answer values"
		}
	case mw.EventIssueReport:
		if e.Submission.Response == nil {
			return "submission has no form response"
		}
	default:
		return "unknown event " + string(e.Name)
	}
	return ""
}
