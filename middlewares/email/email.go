// Package email routes issue reports to department mailboxes.
package email

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"formroute/internal/diaglog"
	"formroute/internal/google"
	"formroute/internal/issue"
	mw "formroute/internal/middleware"
)

// Mailer delivers one message.
type Mailer interface {
	Send(ctx context.Context, msg google.Message) error
}

// Notify extracts, routes, formats and sends the notifications of an issue
// report. A failing department never blocks the others.
type Notify struct {
	extractor *issue.Extractor
	router    *issue.Router
	formatter issue.Formatter
	mailer    Mailer
	diag      *diaglog.Logger
	log       *zap.Logger
}

func New(router *issue.Router, formatter issue.Formatter, mailer Mailer, diag *diaglog.Logger, log *zap.Logger) *Notify {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notify{
		extractor: issue.NewExtractor(),
		router:    router,
		formatter: formatter,
		mailer:    mailer,
		diag:      diag,
		log:       log,
	}
}

func (*Notify) ID() string    { return "email_notify" }
func (*Notify) Priority() int { return 80 }

func (*Notify) ShouldLoad(_ context.Context, e *mw.Event) bool {
	return e != nil && e.Name == mw.EventIssueReport
}

func (m *Notify) OnEvent(ctx context.Context, e *mw.Event) (mw.Decision, error) {
	if e.Submission == nil {
		return mw.Decision{}, nil
	}
	items := e.Submission.Items()
	m.diag.Logf(ctx, "Processing %d answers", len(items))

	report := m.extractor.Extract(items)
	report.ReceivedAt = e.Submission.ReceivedAt
	if labels, err := json.Marshal(report.IssueLabels); err == nil {
		m.diag.Logf(ctx, "Issue types: %s", labels)
	}

	routing := m.router.Route(report)
	if routing.NoSelection {
		m.diag.Log(ctx, "Warning: no issue type selected; no notification sent")
		m.log.Warn("issue report without issue types", zap.String("submission", e.Submission.ID))
		return mw.Decision{Reason: "no issue types selected"}, nil
	}
	m.diag.Logf(ctx, "Routing to departments: %s", strings.Join(routing.Departments(), ", "))

	var dec mw.Decision
	for _, u := range routing.Unroutable {
		dec.Skipped++
		if u.Recipient != "" {
			m.diag.Logf(ctx, "Skipped email for %s: %s %q", u.Bucket.Department, u.Reason, u.Recipient)
		} else {
			m.diag.Logf(ctx, "Error: %s '%s'", u.Reason, u.Bucket.Department)
		}
	}

	for _, n := range routing.Notifications {
		msg := m.formatter.Format(n)
		out := google.Message{To: []string{n.Recipient}, Subject: msg.Subject, Body: msg.Body}
		if n.CC != "" {
			out.Cc = []string{n.CC}
		}
		if err := m.mailer.Send(ctx, out); err != nil {
			dec.Failed++
			m.diag.Logf(ctx, "Error sending to %s: %v", n.Recipient, err)
			m.log.Warn("notification not sent", zap.String("department", n.Department), zap.Error(err))
			continue
		}
		dec.Dispatched++
		m.diag.Logf(ctx, "Email sent to %s", n.Recipient)
	}

	dec.Reason = "email_notify"
	return dec, nil
}
