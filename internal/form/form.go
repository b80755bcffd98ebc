package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// ErrMissingPayload is returned when a trigger arrives without the data its
// pipeline needs (no values for a schedule request, no response for an issue
// report).
var ErrMissingPayload = errors.New("form: missing trigger payload")

// ItemResponse is one answered question of a form response.
// Answer keeps whatever shape the form produced: a string, a list of strings
// for multi-select and file upload questions, or nil.
type ItemResponse struct {
	Title  string `json:"title"`
	Answer any    `json:"answer"`
}

// Response is the question/answer view of a form submission.
type Response struct {
	Items []ItemResponse `json:"items"`
}

// Submission is a single trigger delivery.
type Submission struct {
	ID         string
	ReceivedAt time.Time

	// Values is the flat positional answer list of a sheet-backed form.
	// Nil means the trigger carried no values at all.
	Values []string

	// Response is nil when the trigger carried no form response.
	Response *Response
}

// Payload is the JSON body accepted by the webhook and the CLI.
type Payload struct {
	Values   []string  `json:"values,omitempty"`
	Response *Response `json:"response,omitempty"`
}

// NewSubmission stamps a payload with an ID and receive time.
func NewSubmission(p Payload, now time.Time) *Submission {
	return &Submission{
		ID:         uuid.NewString(),
		ReceivedAt: now,
		Values:     p.Values,
		Response:   p.Response,
	}
}

// Decode reads a Payload from r. An empty body decodes to an empty payload so
// that the pipeline can report it as a missing trigger payload instead of a
// transport error.
func Decode(r io.Reader) (Payload, error) {
	var p Payload
	dec := json.NewDecoder(r)
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return Payload{}, nil
		}
		return Payload{}, fmt.Errorf("decode payload: %w", err)
	}
	return p, nil
}

// Items returns the item responses, or nil when there is no response.
func (s *Submission) Items() []ItemResponse {
	if s == nil || s.Response == nil {
		return nil
	}
	return s.Response.Items
}
