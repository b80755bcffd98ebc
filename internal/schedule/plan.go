package schedule

import (
	"errors"
	"fmt"
	"time"
)

// MinValues is the shortest answer list the event form can produce.
const MinValues = 25

// ErrIncompleteResponse aborts a whole submission: no candidate is looked at.
var ErrIncompleteResponse = errors.New("schedule: form response is missing or incomplete")

// Positional layout of the event request form.
const (
	idxFirstName = 2
	idxLastName  = 3
	idxPhone     = 7
	idxEmail     = 8
	idxTitle     = 9
)

// candidateOffsets holds the index of each (date, start, end) triple.
var candidateOffsets = [...]int{10, 14, 18, 22}

// Candidate is one of the date/time triples of a submission. Index is 1-based.
type Candidate struct {
	Index int
	Date  string
	Start string
	End   string
}

// Complete reports whether every field of the triple was filled in.
func (c Candidate) Complete() bool {
	return c.Date != "" && c.Start != "" && c.End != ""
}

// EventRequest is a calendar event ready to be created.
type EventRequest struct {
	Candidate   int
	Title       string
	Description string
	Start       time.Time
	End         time.Time
}

// Skip records a candidate that produced no event.
type Skip struct {
	Candidate Candidate
	Reason    string
	Err       error // nil for incomplete candidates
}

// Batch is everything derived from one submission.
type Batch struct {
	Submitter   string
	Email       string
	Phone       string
	Title       string
	Description string
	Candidates  []Candidate
	Requests    []EventRequest
	Skipped     []Skip
}

// Plan extracts the event metadata and the four candidates of a submission and
// normalizes each candidate on its own. A bad candidate never affects another.
func Plan(values []string) (Batch, error) {
	if len(values) < MinValues {
		return Batch{}, fmt.Errorf("%w: got %d answers, need %d", ErrIncompleteResponse, len(values), MinValues)
	}

	b := Batch{
		Submitter: values[idxFirstName] + " " + values[idxLastName],
		Email:     values[idxEmail],
		Phone:     values[idxPhone],
		Title:     values[idxTitle],
	}
	b.Description = fmt.Sprintf("Submitted by: %s\nEmail: %s\nPhone: %s", b.Submitter, b.Email, b.Phone)

	for i, off := range candidateOffsets {
		c := Candidate{
			Index: i + 1,
			Date:  values[off],
			Start: values[off+1],
			End:   values[off+2],
		}
		b.Candidates = append(b.Candidates, c)

		if !c.Complete() {
			b.Skipped = append(b.Skipped, Skip{Candidate: c, Reason: "date, start, or end time is missing"})
			continue
		}
		start, end, err := Normalize(c.Date, c.Start, c.End)
		if err != nil {
			b.Skipped = append(b.Skipped, Skip{Candidate: c, Reason: "invalid date/time", Err: err})
			continue
		}
		b.Requests = append(b.Requests, EventRequest{
			Candidate:   c.Index,
			Title:       b.Title,
			Description: b.Description,
			Start:       start,
			End:         end,
		})
	}
	return b, nil
}
