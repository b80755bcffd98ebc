package middleware

import (
	"io"
	"os"
	"strings"
)

// DisabledEnv lists comma-separated middleware IDs to leave out of the chain.
const DisabledEnv = "FORMROUTE_DISABLED_MIDDLEWARES"

// Enabled drops the middlewares named in FORMROUTE_DISABLED_MIDDLEWARES.
func Enabled(mws []Middleware) []Middleware {
	disabled := os.Getenv(DisabledEnv)
	if disabled == "" {
		return mws
	}
	disabledSet := make(map[string]struct{})
	for _, id := range strings.Split(disabled, ",") {
		disabledSet[strings.TrimSpace(id)] = struct{}{}
	}

	filtered := make([]Middleware, 0, len(mws))
	for _, mw := range mws {
		if _, ok := disabledSet[mw.ID()]; !ok {
			filtered = append(filtered, mw)
		}
	}
	return filtered
}

// Build creates a chain from the enabled middlewares.
// If a debug writer is provided, it is attached for JSONL debug logs.
func Build(debugWriter io.Writer, mws ...Middleware) *Chain {
	c := NewChain(Enabled(mws)...)
	if debugWriter != nil {
		c.SetDebugWriter(debugWriter)
	}
	return c
}
