package middleware

import (
	"context"

	"formroute/internal/form"
)

type EventName string

const (
	EventScheduleRequest EventName = "schedule_request"
	EventIssueReport     EventName = "issue_report"
)

type Decision struct {
	Cancel bool   // stop the pipeline for this event
	Reason string // for logs

	// Per-unit outcome counters (events created, notifications sent, ...).
	Dispatched int
	Skipped    int
	Failed     int
}

type Event struct {
	Name       EventName
	Submission *form.Submission
	Context    map[string]any // source, dry_run, etc.
}

type Middleware interface {
	ID() string
	Priority() int
	OnEvent(ctx context.Context, e *Event) (Decision, error)
}

// ConditionalMiddleware can opt out of an event before OnEvent runs.
type ConditionalMiddleware interface {
	ShouldLoad(ctx context.Context, e *Event) bool
}
