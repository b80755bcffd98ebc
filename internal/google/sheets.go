package google

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/api/sheets/v4"
)

// SheetLog appends (timestamp, message) rows to one tab of a spreadsheet. It
// satisfies diaglog.Sink.
type SheetLog struct {
	svc           *sheets.Service
	creds         Credentials
	spreadsheetID string
	tab           string

	mu    sync.Mutex
	ready bool
}

func NewSheetLog(ctx context.Context, creds Credentials, spreadsheetID, tab string) (*SheetLog, error) {
	opts, err := creds.ClientOptions(ctx, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, err
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	if tab == "" {
		tab = "DebugLog"
	}
	return &SheetLog{svc: svc, creds: creds, spreadsheetID: spreadsheetID, tab: tab}, nil
}

func (s *SheetLog) Append(ctx context.Context, at time.Time, message string) error {
	ctx, cancel := s.creds.withTimeout(ctx)
	defer cancel()

	if err := s.ensureTab(ctx); err != nil {
		return err
	}
	row := &sheets.ValueRange{Values: [][]interface{}{{at.Format("2006-01-02 15:04:05"), message}}}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.tab+"!A:B", row).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", s.tab, err)
	}
	return nil
}

func (s *SheetLog) ensureTab(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}

	doc, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("open spreadsheet: %w", err)
	}
	for _, sh := range doc.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.tab {
			s.ready = true
			return nil
		}
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: s.tab}},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("create tab %s: %w", s.tab, err)
	}
	s.ready = true
	return nil
}
