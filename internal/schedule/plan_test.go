package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// formValues returns a complete 25-answer submission with four valid triples.
func formValues() []string {
	v := make([]string, MinValues)
	v[0] = "3/1/2025 10:00:00"
	v[2] = "Ada"
	v[3] = "Lovelace"
	v[7] = "401-555-0100"
	v[8] = "ada@example.edu"
	v[9] = "Study Group"
	v[10], v[11], v[12] = "3/5/2025", "9:00:00 AM", "10:00:00 AM"
	v[14], v[15], v[16] = "3/6/2025", "1:30:00 PM", "3:00:00 PM"
	v[18], v[19], v[20] = "3/7/2025", "11:00:00 AM", "12:00:00 PM"
	v[22], v[23], v[24] = "3/8/2025", "6:00:00 PM", "8:30:00 PM"
	return v
}

func TestPlanRejectsShortResponse(t *testing.T) {
	b, err := Plan(make([]string, 24))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncompleteResponse))
	assert.Empty(t, b.Requests)

	_, err = Plan(nil)
	assert.True(t, errors.Is(err, ErrIncompleteResponse))
}

func TestPlanAllCandidates(t *testing.T) {
	b, err := Plan(formValues())
	require.NoError(t, err)

	require.Len(t, b.Requests, 4)
	assert.Empty(t, b.Skipped)
	for i, r := range b.Requests {
		assert.Equal(t, i+1, r.Candidate)
		assert.Equal(t, "Study Group", r.Title)
		assert.Equal(t, "Submitted by: Ada Lovelace\nEmail: ada@example.edu\nPhone: 401-555-0100", r.Description)
	}
	assert.Equal(t, time.Date(2025, 3, 6, 13, 30, 0, 0, time.Local), b.Requests[1].Start)
	assert.Equal(t, time.Date(2025, 3, 7, 12, 0, 0, 0, time.Local), b.Requests[2].End)
	assert.Equal(t, time.Date(2025, 3, 8, 20, 30, 0, 0, time.Local), b.Requests[3].End)
}

func TestPlanSkipsIncompleteCandidate(t *testing.T) {
	v := formValues()
	v[16] = ""

	b, err := Plan(v)
	require.NoError(t, err)
	require.Len(t, b.Requests, 3)
	assert.Equal(t, []int{1, 3, 4}, candidates(b.Requests))

	require.Len(t, b.Skipped, 1)
	assert.Equal(t, 2, b.Skipped[0].Candidate.Index)
	assert.NoError(t, b.Skipped[0].Err)
}

func TestPlanIsolatesMalformedCandidate(t *testing.T) {
	v := formValues()
	v[18] = "March 7"
	v[23] = "late"

	b, err := Plan(v)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, candidates(b.Requests))
	require.Len(t, b.Skipped, 2)

	var ite *InvalidTimeError
	require.True(t, errors.As(b.Skipped[0].Err, &ite))
	assert.Equal(t, "date", ite.Field)
	require.True(t, errors.As(b.Skipped[1].Err, &ite))
	assert.Equal(t, "start", ite.Field)
}

func TestPlanNoCandidates(t *testing.T) {
	v := make([]string, 30)
	v[9] = "Empty"
	b, err := Plan(v)
	require.NoError(t, err)
	assert.Empty(t, b.Requests)
	assert.Len(t, b.Skipped, 4)
	assert.Len(t, b.Candidates, 4)
}

func candidates(reqs []EventRequest) []int {
	out := make([]int, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.Candidate)
	}
	return out
}
