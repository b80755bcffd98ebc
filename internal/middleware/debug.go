package middleware

import (
	"encoding/json"
	"time"
)

type debugEntry struct {
	Timestamp    string `json:"ts"`
	Event        string `json:"event"`
	Submission   string `json:"submission,omitempty"`
	MiddlewareID string `json:"middleware"`
	Priority     int    `json:"priority"`
	Skipped      bool   `json:"skipped,omitempty"`
	Reason       string `json:"reason,omitempty"`
	Cancel       bool   `json:"cancel,omitempty"`

	Dispatched   int `json:"dispatched"`
	SkippedItems int `json:"skipped_items"`
	Failed       int `json:"failed"`
}

func (c *Chain) debugLog(e *Event, r DecisionResult) {
	c.debugMu.Lock()
	defer c.debugMu.Unlock()
	if c.debugW == nil || e == nil {
		return
	}

	entry := debugEntry{
		Timestamp:    time.Now().UTC().Format(time.RFC3339Nano),
		Event:        string(e.Name),
		MiddlewareID: r.MiddlewareID,
		Priority:     r.Priority,
		Skipped:      r.Skipped,
		Reason:       r.Decision.Reason,
		Cancel:       r.Decision.Cancel,
		Dispatched:   r.Decision.Dispatched,
		SkippedItems: r.Decision.Skipped,
		Failed:       r.Decision.Failed,
	}
	if e.Submission != nil {
		entry.Submission = e.Submission.ID
	}

	b, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_, _ = c.debugW.Write(append(b, '\n'))
}
