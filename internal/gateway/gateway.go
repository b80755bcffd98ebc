package gateway

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"formroute/internal/config"
	"formroute/internal/diaglog"
	"formroute/internal/google"
	"formroute/internal/issue"
	"formroute/internal/middleware"
	"formroute/middlewares/calendar"
	"formroute/middlewares/email"
	"formroute/middlewares/guard"
)

// Gateway owns the middleware chain and every outbound collaborator.
type Gateway struct {
	cfg   *config.Config
	log   *zap.Logger
	chain *middleware.Chain
	diag  *diaglog.Logger
	now   func() time.Time

	sink     diaglog.Sink
	creator  calendar.Creator
	mailer   email.Mailer
	closers  []io.Closer
	sinkKind string
}

type Option func(*Gateway)

// WithSink replaces the configured diagnostic sink.
func WithSink(s diaglog.Sink) Option {
	return func(g *Gateway) { g.sink, g.sinkKind = s, "custom" }
}

// WithMailer replaces the configured mail transport.
func WithMailer(m email.Mailer) Option {
	return func(g *Gateway) { g.mailer = m }
}

// WithCalendar replaces the configured calendar transport.
func WithCalendar(c calendar.Creator) Option {
	return func(g *Gateway) { g.creator = c }
}

func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// New wires the pipelines described by cfg.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts ...Option) (*Gateway, error) {
	if log == nil {
		log = zap.NewNop()
	}
	g := &Gateway{cfg: cfg, log: log, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}

	timeout, err := cfg.GoogleTimeout()
	if err != nil {
		return nil, fmt.Errorf("google timeout: %w", err)
	}
	creds := google.Credentials{
		File:    cfg.Google.CredentialsFile,
		Subject: cfg.Google.Subject,
		Timeout: timeout,
	}

	if g.sink == nil {
		if err := g.openSink(ctx, creds); err != nil {
			g.Close()
			return nil, err
		}
	}
	g.diag = diaglog.New(g.sink, log)

	if g.creator == nil {
		switch cfg.Calendar.Transport {
		case "google":
			c, err := google.NewCalendar(ctx, creds, cfg.Calendar.CalendarID)
			if err != nil {
				g.Close()
				return nil, err
			}
			g.creator = c
		default:
			g.creator = &calendar.DryRun{Log: log}
		}
	}

	if g.mailer == nil {
		switch cfg.Mail.Transport {
		case "gmail":
			m, err := google.NewGmail(ctx, creds, cfg.Mail.SenderName, cfg.Mail.SenderAddress)
			if err != nil {
				g.Close()
				return nil, err
			}
			g.mailer = m
		default:
			g.mailer = &email.DryRun{Log: log}
		}
	}

	for _, w := range cfg.RoutingWarnings() {
		log.Warn("routing table", zap.String("problem", w))
	}

	var debugW io.Writer
	if path := cfg.Logging.DebugFile; path != "" {
		_ = os.MkdirAll(filepath.Dir(path), 0o755)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.Warn("failed to open middleware debug log", zap.String("path", path), zap.Error(err))
		} else {
			debugW = f
			g.closers = append(g.closers, f)
		}
	}

	g.chain = middleware.Build(debugW,
		guard.New(g.diag),
		calendar.New(g.creator, g.diag, log),
		email.New(issue.NewRouter(cfg.RoutingTable()), cfg.Formatter(), g.mailer, g.diag, log),
	)
	return g, nil
}

func (g *Gateway) openSink(ctx context.Context, creds google.Credentials) error {
	d := g.cfg.Diagnostics
	g.sinkKind = d.Sink
	switch d.Sink {
	case "sheets":
		s, err := google.NewSheetLog(ctx, creds, d.SpreadsheetID, d.Sheet)
		if err != nil {
			return err
		}
		g.sink = s
	case "xlsx":
		g.sink = diaglog.NewXLSXSink(d.Path, d.Sheet)
	case "jsonl":
		s, f, err := diaglog.OpenJSONL(d.Path)
		if err != nil {
			return fmt.Errorf("open diagnostic log: %w", err)
		}
		g.sink = s
		g.closers = append(g.closers, f)
	case "", "none":
		g.sinkKind = "none"
	default:
		return fmt.Errorf("unknown diagnostics sink %q", d.Sink)
	}
	return nil
}

// MiddlewareIDs lists the chain members in priority order, including those
// that FORMROUTE_DISABLED_MIDDLEWARES would leave out.
func MiddlewareIDs() []string {
	return []string{guard.Guard{}.ID(), (*calendar.Events)(nil).ID(), (*email.Notify)(nil).ID()}
}

// Chain exposes the middleware chain, mainly for listing.
func (g *Gateway) Chain() *middleware.Chain { return g.chain }

// Close releases files opened by New.
func (g *Gateway) Close() error {
	var first error
	for _, c := range g.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	g.closers = nil
	return first
}
