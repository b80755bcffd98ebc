package gateway

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"formroute/internal/form"
	"formroute/internal/google"
	"formroute/internal/middleware"
)

const (
	StatusProcessed = "processed"
	StatusIgnored   = "ignored"
)

// Summary is the outcome of one submission.
type Summary struct {
	Submission string `json:"submission"`
	Event      string `json:"event"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	Dispatched int    `json:"dispatched"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
}

// Handle runs one form submission through the chain. A payload without the
// fields of its event is ignored with a diagnostic; per-item failures are
// counted, never returned.
func (g *Gateway) Handle(ctx context.Context, name middleware.EventName, p form.Payload) (Summary, error) {
	sub := form.NewSubmission(p, g.now())
	e := &middleware.Event{
		Name:       name,
		Submission: sub,
		Context:    map[string]any{"dry_run": g.cfg.Mail.Transport == "dryrun"},
	}

	sum := Summary{Submission: sub.ID, Event: string(name), Status: StatusProcessed}
	results, err := g.chain.Dispatch(ctx, e)
	total := results.Tally()
	sum.Dispatched, sum.Skipped, sum.Failed = total.Dispatched, total.Skipped, total.Failed
	if total.Cancel {
		sum.Status = StatusIgnored
		sum.Reason = total.Reason
	}
	if err != nil {
		g.log.Error("pipeline failed", zap.String("submission", sub.ID), zap.Error(err))
		return sum, err
	}

	g.log.Info("submission handled",
		zap.String("submission", sum.Submission),
		zap.String("event", sum.Event),
		zap.String("status", sum.Status),
		zap.Int("dispatched", sum.Dispatched),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", sum.Failed),
	)
	return sum, nil
}

// Step is one check of SelfTest.
type Step struct {
	Name    string
	Skipped bool
	Err     error
}

// SelfTest writes a line to the diagnostic sink and sends a test message to
// to. Every step runs even if an earlier one failed.
func (g *Gateway) SelfTest(ctx context.Context, to string) []Step {
	steps := make([]Step, 0, 2)

	logStep := Step{Name: "diagnostic log"}
	if g.sinkKind == "none" {
		logStep.Skipped = true
	} else {
		logStep.Err = g.diag.Probe(ctx, "Manual test: system self test started")
	}
	steps = append(steps, logStep)

	mailStep := Step{Name: "email"}
	if to == "" {
		mailStep.Err = errors.New("no test recipient given")
	} else {
		mailStep.Err = g.mailer.Send(ctx, google.Message{
			To:      []string{to},
			Subject: "System Test Successful",
			Body:    "If you are reading this, formroute has permission to send email.",
		})
		if mailStep.Err != nil {
			g.diag.Logf(ctx, "Error sending test email: %v", mailStep.Err)
		}
	}
	steps = append(steps, mailStep)
	return steps
}
