package middleware

import (
	"context"
	"io"
	"sort"
	"sync"
)

// Chain runs middlewares highest Priority() first; equal priorities keep
// registration order.
type Chain struct {
	mu  sync.RWMutex
	mws []Middleware

	debugMu sync.Mutex
	debugW  io.Writer
}

// DecisionResult records what one middleware did with an event. Skipped is
// set when ShouldLoad opted out and OnEvent never ran.
type DecisionResult struct {
	MiddlewareID string
	Priority     int
	Skipped      bool
	Decision     Decision
}

// Results is the per-middleware record of one dispatch, in run order.
type Results []DecisionResult

// Tally sums the item counters of every result. Cancel and Reason come from
// the result that stopped the chain, if any.
func (rs Results) Tally() Decision {
	var total Decision
	for _, r := range rs {
		total.Dispatched += r.Decision.Dispatched
		total.Skipped += r.Decision.Skipped
		total.Failed += r.Decision.Failed
		if r.Decision.Cancel {
			total.Cancel = true
			total.Reason = r.Decision.Reason
		}
	}
	return total
}

func NewChain(mws ...Middleware) *Chain {
	c := &Chain{mws: append([]Middleware(nil), mws...)}
	c.sortLocked()
	return c
}

// SetDebugWriter turns on the JSONL decision log. A nil w turns it off.
func (c *Chain) SetDebugWriter(w io.Writer) {
	c.debugMu.Lock()
	c.debugW = w
	c.debugMu.Unlock()
}

func (c *Chain) Use(mw Middleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mws = append(c.mws, mw)
	c.sortLocked()
}

// List returns a snapshot of the chain in run order.
func (c *Chain) List() []Middleware {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Middleware(nil), c.mws...)
}

// Dispatch hands e to each middleware in turn. It stops after a Cancel
// decision, and on an error it returns the results gathered so far.
func (c *Chain) Dispatch(ctx context.Context, e *Event) (Results, error) {
	mws := c.List()
	results := make(Results, 0, len(mws))
	for _, mw := range mws {
		r, err := c.run(ctx, mw, e)
		if err != nil {
			return results, err
		}
		results = append(results, r)
		if r.Decision.Cancel {
			break
		}
	}
	return results, nil
}

func (c *Chain) run(ctx context.Context, mw Middleware, e *Event) (DecisionResult, error) {
	r := DecisionResult{MiddlewareID: mw.ID(), Priority: mw.Priority()}

	if cmw, ok := mw.(ConditionalMiddleware); ok && !cmw.ShouldLoad(ctx, e) {
		r.Skipped = true
		r.Decision.Reason = "skipped (ShouldLoad=false)"
		c.debugLog(e, r)
		return r, nil
	}

	dec, err := mw.OnEvent(ctx, e)
	if err != nil {
		r.Decision = Decision{Cancel: true, Reason: err.Error()}
		c.debugLog(e, r)
		return DecisionResult{}, err
	}
	r.Decision = dec
	c.debugLog(e, r)
	return r, nil
}

func (c *Chain) sortLocked() {
	sort.SliceStable(c.mws, func(i, j int) bool {
		return c.mws[i].Priority() > c.mws[j].Priority()
	})
}
