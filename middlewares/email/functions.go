package email

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"formroute/internal/google"
)

// DryRun records messages instead of sending them.
type DryRun struct {
	Log *zap.Logger

	mu   sync.Mutex
	sent []google.Message
}

func (d *DryRun) Send(_ context.Context, msg google.Message) error {
	d.mu.Lock()
	d.sent = append(d.sent, msg)
	d.mu.Unlock()
	if d.Log != nil {
		d.Log.Info("[DRY RUN] send_email",
			zap.String("to", strings.Join(msg.To, ", ")),
			zap.Strings("cc", msg.Cc),
			zap.String("subject", msg.Subject),
		)
		d.Log.Debug(msg.Body)
	}
	return nil
}

// Sent returns the messages recorded so far.
func (d *DryRun) Sent() []google.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]google.Message, len(d.sent))
	copy(out, d.sent)
	return out
}
