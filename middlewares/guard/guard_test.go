package guard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"formroute/internal/diaglog"
	"formroute/internal/form"
	mw "formroute/internal/middleware"
)

func recorder(lines *[]string) *diaglog.Logger {
	return diaglog.New(diaglog.SinkFunc(func(_ context.Context, _ time.Time, msg string) error {
		*lines = append(*lines, msg)
		return nil
	}), nil)
}

func TestGuardCancelsMissingPayload(t *testing.T) {
	cases := map[string]*mw.Event{
		"nil submission":     {Name: mw.EventIssueReport},
		"issue no response":  {Name: mw.EventIssueReport, Submission: &form.Submission{}},
		"schedule no values": {Name: mw.EventScheduleRequest, Submission: &form.Submission{}},
		"unknown event":      {Name: "other", Submission: &form.Submission{Values: []string{}}},
	}
	for name, ev := range cases {
		t.Run(name, func(t *testing.T) {
			var lines []string
			dec, err := New(recorder(&lines)).OnEvent(context.Background(), ev)
			assert.NoError(t, err)
			assert.True(t, dec.Cancel)
			assert.NotEmpty(t, dec.Reason)
			if assert.Len(t, lines, 1) {
				assert.Contains(t, lines[0], "Error:")
			}
		})
	}
}

func TestGuardPassesPayload(t *testing.T) {
	var lines []string
	g := New(recorder(&lines))

	dec, err := g.OnEvent(context.Background(), &mw.Event{
		Name:       mw.EventIssueReport,
		Submission: &form.Submission{Response: &form.Response{}},
	})
	assert.NoError(t, err)
	assert.False(t, dec.Cancel)

	dec, err = g.OnEvent(context.Background(), &mw.Event{
		Name:       mw.EventScheduleRequest,
		Submission: &form.Submission{Values: []string{}},
	})
	assert.NoError(t, err)
	assert.False(t, dec.Cancel)
	assert.Equal(t, []string{"Trigger received, starting processing", "Trigger received, starting processing"}, lines)
}
