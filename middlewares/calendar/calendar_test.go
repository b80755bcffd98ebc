package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formroute/internal/diaglog"
	"formroute/internal/form"
	"formroute/internal/google"
	mw "formroute/internal/middleware"
)

type fakeCreator struct {
	events []google.Event
	failOn map[string]bool // keyed by start time
}

func (f *fakeCreator) CreateEvent(_ context.Context, ev google.Event) (string, error) {
	if f.failOn[ev.Start.Format("15:04")] {
		return "", errors.New("calendar unavailable")
	}
	f.events = append(f.events, ev)
	return "evt", nil
}

func values() []string {
	v := make([]string, 25)
	v[2], v[3] = "Ada", "Lovelace"
	v[7], v[8], v[9] = "555-0100", "ada@example.edu", "Orientation"
	copy(v[10:13], []string{"3/5/2024", "2:00 PM", "3:00 PM"})
	copy(v[14:17], []string{"3/6/2024", "9:05 AM", "10:00 AM"})
	copy(v[18:21], []string{"3/7/2024", "11:00 AM", "12:00 PM"})
	copy(v[22:25], []string{"3/8/2024", "1:00 PM", "1:30 PM"})
	return v
}

func newEvents(c Creator, lines *[]string) *Events {
	diag := diaglog.New(diaglog.SinkFunc(func(_ context.Context, _ time.Time, msg string) error {
		*lines = append(*lines, msg)
		return nil
	}), nil)
	return New(c, diag, nil)
}

func event(v []string) *mw.Event {
	return &mw.Event{Name: mw.EventScheduleRequest, Submission: &form.Submission{Values: v}}
}

func TestCreatesAllCandidates(t *testing.T) {
	c := &fakeCreator{}
	var lines []string
	dec, err := newEvents(c, &lines).OnEvent(context.Background(), event(values()))
	require.NoError(t, err)

	assert.Equal(t, 4, dec.Dispatched)
	require.Len(t, c.events, 4)
	assert.Equal(t, "Orientation", c.events[0].Title)
	assert.Equal(t, "Submitted by: Ada Lovelace\nEmail: ada@example.edu\nPhone: 555-0100", c.events[0].Description)
	assert.Equal(t, time.Date(2024, 3, 5, 14, 0, 0, 0, time.Local), c.events[0].Start)
	assert.Equal(t, time.Date(2024, 3, 6, 9, 5, 0, 0, time.Local), c.events[1].Start)
	assert.Equal(t, "Starting event creation", lines[0])
	assert.Equal(t, "Event creation completed", lines[len(lines)-1])
}

func TestSkipsIncompleteAndMalformed(t *testing.T) {
	v := values()
	v[16] = ""        // set 2 has no end
	v[18] = "13/7/24" // set 3 has a bad date
	c := &fakeCreator{}
	var lines []string
	dec, err := newEvents(c, &lines).OnEvent(context.Background(), event(v))
	require.NoError(t, err)

	assert.Equal(t, 2, dec.Dispatched)
	assert.Equal(t, 2, dec.Skipped)
	assert.Contains(t, lines, "Set 2 skipped: date, start, or end time is missing")
}

func TestCreatorFailureIsIsolated(t *testing.T) {
	c := &fakeCreator{failOn: map[string]bool{"11:00": true}}
	var lines []string
	dec, err := newEvents(c, &lines).OnEvent(context.Background(), event(values()))
	require.NoError(t, err)
	assert.Equal(t, 3, dec.Dispatched)
	assert.Equal(t, 1, dec.Failed)
	assert.Len(t, c.events, 3)
}

func TestShortResponseCancels(t *testing.T) {
	c := &fakeCreator{}
	var lines []string
	dec, err := newEvents(c, &lines).OnEvent(context.Background(), event(make([]string, 24)))
	require.NoError(t, err)
	assert.True(t, dec.Cancel)
	assert.Empty(t, c.events)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "incomplete")
}

func TestShouldLoadOnlySchedule(t *testing.T) {
	m := New(&fakeCreator{}, nil, nil)
	assert.True(t, m.ShouldLoad(context.Background(), &mw.Event{Name: mw.EventScheduleRequest}))
	assert.False(t, m.ShouldLoad(context.Background(), &mw.Event{Name: mw.EventIssueReport}))
}

func TestDryRunNumbersEvents(t *testing.T) {
	d := &DryRun{}
	a, _ := d.CreateEvent(context.Background(), google.Event{Title: "a"})
	b, _ := d.CreateEvent(context.Background(), google.Event{Title: "b"})
	assert.Equal(t, "dryrun-1", a)
	assert.Equal(t, "dryrun-2", b)
}
