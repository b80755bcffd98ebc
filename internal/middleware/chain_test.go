package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"formroute/internal/form"
)

type testMW struct {
	id       string
	priority int
	cancel   bool
	err      error
	seen     *[]string
}

func (m testMW) ID() string    { return m.id }
func (m testMW) Priority() int { return m.priority }
func (m testMW) OnEvent(_ context.Context, _ *Event) (Decision, error) {
	*m.seen = append(*m.seen, m.id)
	return Decision{Cancel: m.cancel, Dispatched: 1}, m.err
}

type conditionalTestMW struct {
	testMW
	enabled bool
}

func (m conditionalTestMW) ShouldLoad(_ context.Context, _ *Event) bool { return m.enabled }

func TestChainPriorityAndCancel(t *testing.T) {
	seen := []string{}
	c := NewChain(
		testMW{id: "low", priority: 1, seen: &seen},
		testMW{id: "high", priority: 10, cancel: true, seen: &seen},
		testMW{id: "mid", priority: 5, seen: &seen},
	)

	_, err := c.Dispatch(context.Background(), &Event{Name: EventIssueReport})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 1 || seen[0] != "high" {
		t.Fatalf("expected only high to run (cancel), got %v", seen)
	}
}

func TestChainConditionalMiddlewareSkip(t *testing.T) {
	seen := []string{}
	c := NewChain(
		conditionalTestMW{testMW: testMW{id: "off", priority: 10, seen: &seen}, enabled: false},
		conditionalTestMW{testMW: testMW{id: "on", priority: 5, seen: &seen}, enabled: true},
	)

	results, err := c.Dispatch(context.Background(), &Event{Name: EventScheduleRequest})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(seen, ","); got != "on" {
		t.Fatalf("expected only enabled middleware to run, got %s", got)
	}
	if len(results) != 2 {
		t.Fatalf("expected results for both middlewares, got %d", len(results))
	}
	if results[0].MiddlewareID != "off" || !results[0].Skipped || results[0].Decision.Reason == "" {
		t.Fatalf("expected first result to be skipped middleware with a reason, got %+v", results[0])
	}
}

func TestChainStableOrderOnEqualPriority(t *testing.T) {
	seen := []string{}
	c := NewChain(
		testMW{id: "a", priority: 5, seen: &seen},
		testMW{id: "b", priority: 5, seen: &seen},
		testMW{id: "c", priority: 5, seen: &seen},
	)

	_, err := c.Dispatch(context.Background(), &Event{Name: EventIssueReport})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(seen, ","); got != "a,b,c" {
		t.Fatalf("expected stable registration order, got %s", got)
	}
}

func TestChainErrorStopsAndKeepsEarlierResults(t *testing.T) {
	seen := []string{}
	boom := errors.New("boom")
	c := NewChain(
		testMW{id: "first", priority: 10, seen: &seen},
		testMW{id: "broken", priority: 5, err: boom, seen: &seen},
		testMW{id: "never", priority: 1, seen: &seen},
	)

	results, err := c.Dispatch(context.Background(), &Event{Name: EventIssueReport})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(results) != 1 || results[0].MiddlewareID != "first" {
		t.Fatalf("expected only the first result, got %+v", results)
	}
	if got := strings.Join(seen, ","); got != "first,broken" {
		t.Fatalf("unexpected run order %s", got)
	}
}

func TestChainDebugLog(t *testing.T) {
	seen := []string{}
	var buf bytes.Buffer
	c := NewChain(
		testMW{id: "guard", priority: 100, seen: &seen},
		conditionalTestMW{testMW: testMW{id: "calendar", priority: 80, seen: &seen}, enabled: false},
	)
	c.SetDebugWriter(&buf)

	sub := &form.Submission{ID: "sub-1"}
	if _, err := c.Dispatch(context.Background(), &Event{Name: EventScheduleRequest, Submission: sub}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 debug lines, got %d: %q", len(lines), buf.String())
	}
	var first, second debugEntry
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatal(err)
	}
	if first.MiddlewareID != "guard" || first.Submission != "sub-1" || first.Dispatched != 1 {
		t.Fatalf("unexpected first entry %+v", first)
	}
	if !second.Skipped || second.Event != string(EventScheduleRequest) {
		t.Fatalf("unexpected second entry %+v", second)
	}
}

func TestBuildHonorsDisabledList(t *testing.T) {
	t.Setenv(DisabledEnv, "email_notify, calendar_events")
	seen := []string{}
	c := Build(nil,
		testMW{id: "guard", priority: 100, seen: &seen},
		testMW{id: "calendar_events", priority: 80, seen: &seen},
		testMW{id: "email_notify", priority: 80, seen: &seen},
	)

	ids := []string{}
	for _, mw := range c.List() {
		ids = append(ids, mw.ID())
	}
	if got := strings.Join(ids, ","); got != "guard" {
		t.Fatalf("expected only guard, got %s", got)
	}
}

func TestResultsTally(t *testing.T) {
	rs := Results{
		{MiddlewareID: "guard", Decision: Decision{}},
		{MiddlewareID: "calendar_events", Decision: Decision{Dispatched: 2, Skipped: 1, Failed: 1}},
		{MiddlewareID: "email_notify", Decision: Decision{Dispatched: 1, Cancel: true, Reason: "stop"}},
	}
	got := rs.Tally()
	want := Decision{Cancel: true, Reason: "stop", Dispatched: 3, Skipped: 1, Failed: 1}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if (Results{}).Tally() != (Decision{}) {
		t.Fatal("expected zero tally for no results")
	}
}
